package classifier

import "strings"

// ExtractDomain returns the lower-cased host portion of a URL-like string with
// any scheme and leading "www." removed. Surrounding whitespace is trimmed
// first, which cannot change a containment match against a declared domain.
// It accepts arbitrary input and returns "" for an empty string.
func ExtractDomain(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(s)
	return strings.TrimPrefix(s, "www.")
}

// BuildSearchCorpus joins the lower-cased text signals of a bookmark with
// single spaces: URL, title, description, site name, type, then keywords.
func BuildSearchCorpus(in Input) string {
	var meta Metadata
	if in.Metadata != nil {
		meta = *in.Metadata
	}
	parts := []string{
		in.URL,
		in.Title,
		in.Description,
		meta.SiteName,
		meta.Type,
		strings.Join(meta.Keywords, " "),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

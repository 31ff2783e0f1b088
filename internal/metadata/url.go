package metadata

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

// FaviconEndpoint is the favicon CDN used for bookmarks without a
// page-declared icon.
const FaviconEndpoint = "https://www.google.com/s2/favicons"

// NormalizeURL trims rawURL and prefixes https:// when it carries no
// http(s) scheme.
func NormalizeURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s
	}
	return "https://" + s
}

// Empty is the metadata returned when nothing could be fetched.
func Empty(pageURL string) model.PageMetadata {
	return model.PageMetadata{URL: pageURL, Keywords: []string{}}
}

// Hostname returns the host of rawURL without a leading "www.", or "" when
// rawURL does not parse.
func Hostname(rawURL string) string {
	u, err := url.Parse(NormalizeURL(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// FaviconURL returns the favicon CDN address for the bookmark's host.
func FaviconURL(rawURL string) string {
	u, err := url.Parse(NormalizeURL(rawURL))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return FaviconEndpoint + "?domain=" + url.QueryEscape(u.Hostname()) + "&sz=32"
}

// TitleFromURL derives a readable title from a URL. A meaningful last path
// segment yields "Segment Words | host", otherwise the capitalised host is
// used. Unparseable input is returned unchanged.
func TitleFromURL(rawURL string) string {
	u, err := url.Parse(NormalizeURL(rawURL))
	if err != nil || u.Hostname() == "" {
		return rawURL
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	path := strings.TrimSuffix(u.Path, "/")

	var last string
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) > 0 {
		last = cleanSegment(segments[len(segments)-1])
	}

	if len(last) > 3 {
		return last + " | " + host
	}
	return capitalize(host)
}

func cleanSegment(seg string) string {
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	if i := strings.LastIndexByte(seg, '.'); i >= 0 && i < len(seg)-1 {
		seg = seg[:i]
	}
	seg = strings.TrimRightFunc(seg, unicode.IsDigit)
	seg = strings.TrimSpace(seg)

	words := strings.Split(seg, " ")
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

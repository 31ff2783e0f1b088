package metadata

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

// maxHTMLBytes bounds how much of a page is read for metadata.
const maxHTMLBytes = 2 << 20

// page collects the head signals of a parsed document. Only the first
// non-empty value of each key is kept.
type page struct {
	props     map[string]string
	names     map[string]string
	links     map[string]string
	title     string
	seenTitle bool
}

// ParseHTML extracts preview metadata from an HTML document. Relative image
// and favicon references are resolved against pageURL.
func ParseHTML(r io.Reader, pageURL string) (model.PageMetadata, error) {
	doc, err := html.Parse(io.LimitReader(r, maxHTMLBytes))
	if err != nil {
		return model.PageMetadata{}, err
	}

	p := &page{
		props: make(map[string]string),
		names: make(map[string]string),
		links: make(map[string]string),
	}
	p.walk(doc)

	title := first(p.meta("og:title", "twitter:title"), p.title)
	description := first(p.meta("og:description", "twitter:description"), p.names["description"])
	image := first(p.meta("og:image", "twitter:image"), p.links["image_src"])
	favicon := first(p.links["icon"], p.links["shortcut icon"], "/favicon.ico")

	return model.PageMetadata{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Image:       resolve(pageURL, image),
		SiteName:    strings.TrimSpace(p.meta("og:site_name", "application-name")),
		Type:        strings.TrimSpace(first(p.props["og:type"], p.names["og:type"])),
		Keywords:    splitKeywords(p.names["keywords"]),
		URL:         pageURL,
		Favicon:     resolve(pageURL, favicon),
	}, nil
}

// meta looks a value up by property first, then by name, then by the
// property key used as a name.
func (p *page) meta(prop, name string) string {
	return first(p.props[prop], p.names[name], p.names[prop])
}

func (p *page) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Title:
			if !p.seenTitle {
				p.seenTitle = true
				p.title = textContent(n)
			}
		case atom.Meta:
			content := attr(n, "content")
			if content != "" {
				setOnce(p.props, strings.ToLower(attr(n, "property")), content)
				setOnce(p.names, strings.ToLower(attr(n, "name")), content)
			}
		case atom.Link:
			if href := attr(n, "href"); href != "" {
				setOnce(p.links, strings.ToLower(strings.TrimSpace(attr(n, "rel"))), href)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func setOnce(m map[string]string, key, value string) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

func first(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitKeywords(s string) []string {
	out := []string{}
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

package bookmarkfile

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EncodeHTML writes a Netscape bookmark file with one folder per category,
// in order of first appearance.
func EncodeHTML(w io.Writer, records []Record, now time.Time) error {
	bw := bufio.NewWriter(w)
	stamp := now.Unix()

	fmt.Fprintf(bw, `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 ADD_DATE="%d" LAST_MODIFIED="%d">%s</H3>
    <DL><p>
`, stamp, stamp, html.EscapeString(RootFolder))

	var order []string
	groups := make(map[string][]Record)
	for _, r := range records {
		if _, ok := groups[r.Category]; !ok {
			order = append(order, r.Category)
		}
		groups[r.Category] = append(groups[r.Category], r)
	}

	for _, cat := range order {
		fmt.Fprintf(bw, "        <DT><H3 ADD_DATE=\"%d\" LAST_MODIFIED=\"%d\">%s</H3>\n        <DL><p>\n",
			stamp, stamp, html.EscapeString(cat))
		for _, r := range groups[cat] {
			added := r.AddedAt
			if added.IsZero() {
				added = now
			}
			fmt.Fprintf(bw, "            <DT><A HREF=\"%s\" ADD_DATE=\"%d\" LAST_MODIFIED=\"%d\">%s</A>\n",
				html.EscapeString(r.URL), added.Unix(), added.Unix(), html.EscapeString(r.Title))
			if r.Description != "" {
				fmt.Fprintf(bw, "            <DD>%s\n", html.EscapeString(r.Description))
			}
		}
		bw.WriteString("        </DL><p>\n")
	}

	bw.WriteString("    </DL><p>\n</DL><p>\n")
	return bw.Flush()
}

// ParseHTML reads a Netscape bookmark file. A link's category is the
// innermost enclosing folder; links outside any folder, or directly under
// RootFolder, get no category.
func ParseHTML(r io.Reader) ([]Record, error) {
	z := nethtml.NewTokenizer(r)

	var (
		records  []Record
		folders  []string
		pending  string
		text     *strings.Builder
		capture  func(string)
		inAnchor bool
	)

	flush := func() {
		if capture != nil && text != nil {
			capture(strings.TrimSpace(text.String()))
		}
		capture, text = nil, nil
	}
	startCapture := func(fn func(string)) {
		flush()
		text = &strings.Builder{}
		capture = fn
	}

	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("parse bookmark html: %w", err)
			}
			flush()
			return records, nil

		case nethtml.TextToken:
			if text != nil {
				text.Write(z.Text())
			}

		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch atom.Lookup(name) {
			case atom.H3:
				startCapture(func(s string) { pending = s })
			case atom.Dl:
				flush()
				folders = append(folders, pending)
				pending = ""
			case atom.A:
				rec := Record{Category: currentFolder(folders)}
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					switch string(key) {
					case "href":
						rec.URL = strings.TrimSpace(string(val))
					case "add_date":
						rec.AddedAt = parseUnixDate(string(val))
					}
				}
				records = append(records, rec)
				idx := len(records) - 1
				inAnchor = true
				startCapture(func(s string) { records[idx].Title = s })
			case atom.Dd:
				if len(records) > 0 {
					idx := len(records) - 1
					startCapture(func(s string) { records[idx].Description = s })
				}
			case atom.Dt:
				flush()
			}

		case nethtml.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.H3:
				flush()
			case atom.A:
				if inAnchor {
					flush()
					inAnchor = false
				}
			case atom.Dl:
				flush()
				if len(folders) > 0 {
					folders = folders[:len(folders)-1]
				}
			}
		}
	}
}

func currentFolder(folders []string) string {
	for i := len(folders) - 1; i >= 0; i-- {
		if f := folders[i]; f != "" {
			if f == RootFolder {
				return ""
			}
			return f
		}
	}
	return ""
}

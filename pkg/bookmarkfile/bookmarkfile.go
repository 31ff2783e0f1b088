// Package bookmarkfile reads and writes bookmark collections as Netscape
// bookmark HTML, JSON and CSV.
package bookmarkfile

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Format is a supported file format.
type Format string

const (
	HTML Format = "html"
	JSON Format = "json"
	CSV  Format = "csv"
)

// RootFolder is the folder every exported category is nested under. It is
// not treated as a category on import.
const RootFolder = "BookMyWebs Bookmarks"

// Record is one bookmark in a file. Empty Category means none was given.
type Record struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AddedAt     time.Time `json:"dateAdded"`
}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case HTML, JSON, CSV:
		return f, nil
	case "htm":
		return HTML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case HTML:
		return "text/html; charset=utf-8"
	case JSON:
		return "application/json"
	case CSV:
		return "text/csv; charset=utf-8"
	}
	return "application/octet-stream"
}

// Filename returns the download name for an export in f.
func (f Format) Filename() string {
	return "bookmywebs-bookmarks." + string(f)
}

// Encode writes records to w in format f.
func Encode(w io.Writer, f Format, records []Record, now time.Time) error {
	switch f {
	case HTML:
		return EncodeHTML(w, records, now)
	case JSON:
		return EncodeJSON(w, records)
	case CSV:
		return EncodeCSV(w, records)
	}
	return fmt.Errorf("unsupported format %q", f)
}

// Parse reads records from r in format f.
func Parse(r io.Reader, f Format) ([]Record, error) {
	switch f {
	case HTML:
		return ParseHTML(r)
	case JSON:
		return ParseJSON(r)
	case CSV:
		return ParseCSV(r)
	}
	return nil, fmt.Errorf("unsupported format %q", f)
}

// parseUnixDate reads a Netscape ADD_DATE. Browsers write seconds, some
// tools write milliseconds; values above 1e11 are taken as milliseconds.
func parseUnixDate(s string) time.Time {
	var n int64
	if _, err := fmt.Sscan(strings.TrimSpace(s), &n); err != nil || n <= 0 {
		return time.Time{}
	}
	if n > 1e11 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

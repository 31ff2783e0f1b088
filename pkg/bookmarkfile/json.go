package bookmarkfile

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// EncodeJSON writes records as an indented JSON array.
func EncodeJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// jsonRecord accepts dateAdded as any string so one malformed date does not
// reject the whole file.
type jsonRecord struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	Description string `json:"description"`
	DateAdded   string `json:"dateAdded"`
}

// ParseJSON reads a JSON array of bookmarks. Every entry needs a url.
func ParseJSON(r io.Reader) ([]Record, error) {
	var raw []jsonRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse bookmark json: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for i, item := range raw {
		if strings.TrimSpace(item.URL) == "" {
			return nil, fmt.Errorf("parse bookmark json: entry %d has no url", i)
		}
		records = append(records, Record{
			Title:       strings.TrimSpace(item.Title),
			URL:         strings.TrimSpace(item.URL),
			Category:    strings.TrimSpace(item.Category),
			Description: strings.TrimSpace(item.Description),
			AddedAt:     parseDate(item.DateAdded),
		})
	}
	return records, nil
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return parseUnixDate(s)
}

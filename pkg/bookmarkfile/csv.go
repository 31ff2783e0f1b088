package bookmarkfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var csvHeader = []string{"Title", "URL", "Category", "Description", "Date Added"}

// EncodeCSV writes records with a Title,URL,Category,Description,Date Added
// header. Dates are RFC 3339.
func EncodeCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		added := ""
		if !r.AddedAt.IsZero() {
			added = r.AddedAt.UTC().Format(time.RFC3339)
		}
		if err := cw.Write([]string{r.Title, r.URL, r.Category, r.Description, added}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads bookmarks from CSV. The header must name Title and URL
// columns; Category, Description and Date Added (or DateAdded, Date) are
// optional. Column order is free.
func ParseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse bookmark csv: empty file")
		}
		return nil, fmt.Errorf("parse bookmark csv: %w", err)
	}

	col := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch key {
		case "dateadded", "date":
			key = "date added"
		}
		if _, seen := col[key]; !seen {
			col[key] = i
		}
	}
	if _, ok := col["title"]; !ok {
		return nil, errors.New("parse bookmark csv: missing Title column")
	}
	if _, ok := col["url"]; !ok {
		return nil, errors.New("parse bookmark csv: missing URL column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse bookmark csv: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		records = append(records, Record{
			Title:       field(row, "title"),
			URL:         field(row, "url"),
			Category:    field(row, "category"),
			Description: field(row, "description"),
			AddedAt:     parseDate(field(row, "date added")),
		})
	}
}

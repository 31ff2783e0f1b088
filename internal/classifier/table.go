package classifier

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Uncategorized is the sentinel returned when no category is confident enough.
const Uncategorized = "Uncategorized"

// Hint match modes.
const (
	MatchExact    = "exact"
	MatchContains = "contains"
)

//go:embed categories.yaml
var defaultTableYAML []byte

// TypeHint grants Bonus to a category when the page's content-type hint
// matches Type.
type TypeHint struct {
	Type  string `yaml:"type" json:"type"`
	Match string `yaml:"match" json:"match"`
	Bonus int    `yaml:"bonus" json:"bonus"`
}

func (h TypeHint) matches(pageType string) bool {
	if h.Match == MatchContains {
		return strings.Contains(pageType, h.Type)
	}
	return pageType == h.Type
}

// Definition names a category and the signals that point to it.
type Definition struct {
	Name      string     `yaml:"name" json:"name"`
	Domains   []string   `yaml:"domains" json:"domains"`
	Keywords  []string   `yaml:"keywords" json:"keywords"`
	TypeHints []TypeHint `yaml:"typeHints" json:"typeHints,omitempty"`
}

type tableFile struct {
	Version    int          `yaml:"version"`
	Categories []Definition `yaml:"categories"`
}

// Table is an immutable, ordered set of category definitions. Build it once
// with NewTable, LoadTable or DefaultTable and share it freely.
type Table struct {
	defs []Definition
}

// NewTable validates and normalizes defs. Names must be unique and must not
// collide with Uncategorized; domains and keywords are lower-cased and
// de-duplicated in declaration order.
func NewTable(defs []Definition) (*Table, error) {
	if len(defs) == 0 {
		return nil, errors.New("category table is empty")
	}

	seen := make(map[string]bool, len(defs))
	out := make([]Definition, 0, len(defs))
	for i, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("category %d: name is required", i)
		}
		key := strings.ToLower(name)
		if key == strings.ToLower(Uncategorized) {
			return nil, fmt.Errorf("category %d: %q is reserved", i, Uncategorized)
		}
		if seen[key] {
			return nil, fmt.Errorf("category %q declared twice", name)
		}
		seen[key] = true

		hints := make([]TypeHint, 0, len(d.TypeHints))
		for _, h := range d.TypeHints {
			t := strings.ToLower(strings.TrimSpace(h.Type))
			if t == "" {
				return nil, fmt.Errorf("category %q: type hint without type", name)
			}
			if h.Bonus <= 0 {
				return nil, fmt.Errorf("category %q: type hint %q needs a positive bonus", name, t)
			}
			match := strings.ToLower(strings.TrimSpace(h.Match))
			switch match {
			case "":
				match = MatchExact
			case MatchExact, MatchContains:
			default:
				return nil, fmt.Errorf("category %q: unknown match mode %q", name, h.Match)
			}
			hints = append(hints, TypeHint{Type: t, Match: match, Bonus: h.Bonus})
		}

		out = append(out, Definition{
			Name:      name,
			Domains:   normalizeList(d.Domains, normalizeDomainEntry),
			Keywords:  normalizeList(d.Keywords, normalizeKeyword),
			TypeHints: hints,
		})
	}

	return &Table{defs: out}, nil
}

// ParseTable decodes a YAML category table.
func ParseTable(data []byte) (*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f tableFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode category table: %w", err)
	}
	return NewTable(f.Categories)
}

// LoadTable reads a YAML category table from path. An empty path yields the
// built-in table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category table: %w", err)
	}
	return ParseTable(data)
}

// DefaultTable returns the built-in category table.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTableYAML)
}

// MustDefaultTable is DefaultTable for tests and static initialisation.
func MustDefaultTable() *Table {
	t, err := DefaultTable()
	if err != nil {
		panic(err)
	}
	return t
}

// Names returns the category names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.defs))
	for i, d := range t.defs {
		names[i] = d.Name
	}
	return names
}

// Has reports whether name is a declared category.
func (t *Table) Has(name string) bool {
	for _, d := range t.defs {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Definitions returns a deep copy of the definitions.
func (t *Table) Definitions() []Definition {
	out := make([]Definition, len(t.defs))
	for i, d := range t.defs {
		out[i] = Definition{
			Name:      d.Name,
			Domains:   append([]string(nil), d.Domains...),
			Keywords:  append([]string(nil), d.Keywords...),
			TypeHints: append([]TypeHint(nil), d.TypeHints...),
		}
	}
	return out
}

// Len returns the number of declared categories.
func (t *Table) Len() int {
	return len(t.defs)
}

func normalizeList(in []string, norm func(string) string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = norm(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func normalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeDomainEntry(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, rest, ok := strings.Cut(s, "://"); ok {
		s = rest
	}
	return strings.TrimPrefix(s, "www.")
}

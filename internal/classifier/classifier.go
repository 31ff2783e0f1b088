// Package classifier assigns a bookmark to one of a fixed set of categories
// by scoring domain, keyword and content-type signals.
package classifier

import "strings"

// Score weights.
const (
	DomainWeight        = 10
	URLWeight           = 3
	TitleWeight         = 5
	DescriptionWeight   = 2
	SiteNameWeight      = 5
	MetaKeywordWeight   = 4
	ConfidenceThreshold = 2
)

// Metadata carries the page signals the classifier understands. All fields
// are optional.
type Metadata struct {
	SiteName string   `json:"siteName,omitempty"`
	Type     string   `json:"type,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Input is a classification request.
type Input struct {
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

// CategoryScore is one row of the score table.
type CategoryScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Result is a classification decision with the full score table in
// declaration order.
type Result struct {
	Category string          `json:"category"`
	Score    int             `json:"score"`
	Scores   []CategoryScore `json:"scores,omitempty"`
}

// Classifier scores inputs against an immutable Table. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	table *Table
}

// New returns a classifier for table.
func New(table *Table) *Classifier {
	return &Classifier{table: table}
}

// Table returns the table the classifier scores against.
func (c *Classifier) Table() *Table {
	return c.table
}

// Categorize returns the best category name for the bookmark, or
// Uncategorized when no category reaches ConfidenceThreshold.
func (c *Classifier) Categorize(url, title, description string, meta *Metadata) string {
	return c.Classify(Input{URL: url, Title: title, Description: description, Metadata: meta}).Category
}

// Classify scores in against every category.
func (c *Classifier) Classify(in Input) Result {
	domain := ExtractDomain(in.URL)
	url := strings.ToLower(in.URL)
	title := strings.ToLower(in.Title)
	desc := strings.ToLower(in.Description)

	var siteName, pageType string
	var keywords []string
	if in.Metadata != nil {
		siteName = strings.ToLower(in.Metadata.SiteName)
		pageType = strings.ToLower(strings.TrimSpace(in.Metadata.Type))
		keywords = make([]string, len(in.Metadata.Keywords))
		for i, k := range in.Metadata.Keywords {
			keywords[i] = strings.ToLower(k)
		}
	}

	scores := make([]CategoryScore, len(c.table.defs))
	for i, def := range c.table.defs {
		score := 0

		if domain != "" {
			for _, d := range def.Domains {
				if strings.Contains(domain, d) {
					score += DomainWeight
					break
				}
			}
		}

		for _, kw := range def.Keywords {
			if strings.Contains(url, kw) {
				score += URLWeight
			}
			if strings.Contains(title, kw) {
				score += TitleWeight
			}
			if strings.Contains(desc, kw) {
				score += DescriptionWeight
			}
			if siteName != "" && strings.Contains(siteName, kw) {
				score += SiteNameWeight
			}
			for _, pk := range keywords {
				if strings.Contains(pk, kw) {
					score += MetaKeywordWeight
					break
				}
			}
		}

		if pageType != "" {
			for _, h := range def.TypeHints {
				if h.matches(pageType) {
					score += h.Bonus
					break
				}
			}
		}

		scores[i] = CategoryScore{Name: def.Name, Score: score}
	}

	best, bestScore := "", 0
	for _, s := range scores {
		if s.Score > bestScore {
			best, bestScore = s.Name, s.Score
		}
	}

	if bestScore < ConfidenceThreshold {
		return Result{Category: Uncategorized, Score: bestScore, Scores: scores}
	}
	return Result{Category: best, Score: bestScore, Scores: scores}
}

package model

// PageMetadata is the preview information fetched for a URL.
type PageMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	SiteName    string   `json:"siteName"`
	Type        string   `json:"type"`
	Keywords    []string `json:"keywords"`
	URL         string   `json:"url"`
	Favicon     string   `json:"favicon"`
}

// IsEmpty reports whether no page signal was found.
func (m PageMetadata) IsEmpty() bool {
	return m.Title == "" && m.Description == "" && m.SiteName == "" &&
		m.Type == "" && len(m.Keywords) == 0
}

// ClassifyRequest is the request body for classifier-only categorisation.
type ClassifyRequest struct {
	URL         string   `json:"url" validate:"required,max=2048"`
	Title       string   `json:"title" validate:"max=500"`
	Description string   `json:"description" validate:"max=2000"`
	SiteName    string   `json:"siteName" validate:"max=200"`
	Type        string   `json:"type" validate:"max=100"`
	Keywords    []string `json:"keywords" validate:"max=100,dive,max=200"`
	Explain     bool     `json:"explain"`
}

// SuggestRequest asks for a category suggestion backed by fetched metadata.
type SuggestRequest struct {
	URL             string `json:"url" validate:"required,max=2048"`
	Title           string `json:"title" validate:"max=500"`
	Description     string `json:"description" validate:"max=2000"`
	CurrentCategory string `json:"currentCategory" validate:"max=64"`
}

// Suggestion is the outcome of the metadata-assisted ingestion step.
// AutoApply is true only when the caller has not chosen a category yet.
type Suggestion struct {
	Category  string       `json:"category"`
	Score     int          `json:"score"`
	AutoApply bool         `json:"autoApply"`
	Metadata  PageMetadata `json:"metadata"`
}

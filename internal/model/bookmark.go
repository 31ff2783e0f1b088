package model

import "time"

// Bookmark is a saved URL owned by one user.
type Bookmark struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Favicon     string    `json:"favicon,omitempty"`
	Image       string    `json:"image,omitempty"`
	SiteName    string    `json:"siteName,omitempty"`
	PageType    string    `json:"type,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
	SearchText  string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BookmarkRequest is the request body for creating or replacing a bookmark.
// An empty Category lets the server pick one.
type BookmarkRequest struct {
	URL         string `json:"url" validate:"required,max=2048"`
	Title       string `json:"title" validate:"max=500"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=64"`
}

// CategoryUpdateRequest is the request body for moving a bookmark.
type CategoryUpdateRequest struct {
	Category string `json:"category" validate:"required,max=64"`
}

// BookmarkFilter narrows a bookmark listing. An empty Category or "All"
// matches every category.
type BookmarkFilter struct {
	Category string
	Query    string
	Limit    int
	Offset   int
}

// BookmarkListResponse is the API response for bookmark listings.
type BookmarkListResponse struct {
	Bookmarks []Bookmark `json:"bookmarks"`
	Count     int        `json:"count"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// AutoCategorizeRequest is the request body for bulk categorisation.
type AutoCategorizeRequest struct {
	DryRun bool `json:"dryRun"`
}

// CategoryChange records one category assignment made by bulk categorisation.
type CategoryChange struct {
	BookmarkID string `json:"bookmarkId"`
	URL        string `json:"url"`
	From       string `json:"from"`
	To         string `json:"to"`
	Score      int    `json:"score"`
}

// BatchResult summarises a bulk categorisation run.
type BatchResult struct {
	Scanned     int              `json:"scanned"`
	Categorized int              `json:"categorized"`
	Skipped     int              `json:"skipped"`
	Failed      int              `json:"failed"`
	DryRun      bool             `json:"dryRun"`
	Changes     []CategoryChange `json:"changes"`
}

package model

// SyncDeltaResponse is the API response for a delta sync.
type SyncDeltaResponse struct {
	Bookmarks     []Bookmark `json:"bookmarks"`
	Deleted       []string   `json:"deleted"`
	SyncTimestamp string     `json:"syncTimestamp"`
}

// SyncFullResponse is the API response for a full download of a user's data.
type SyncFullResponse struct {
	Bookmarks   []Bookmark `json:"bookmarks"`
	Categories  []string   `json:"categories"`
	GeneratedAt string     `json:"generatedAt"`
}

// StatsResponse is the API response for per-user statistics.
type StatsResponse struct {
	TotalBookmarks  int            `json:"totalBookmarks"`
	TotalCategories int            `json:"totalCategories"`
	Uncategorized   int            `json:"uncategorized"`
	ByCategory      map[string]int `json:"byCategory"`
}

// ImportResult summarises a bookmark import.
type ImportResult struct {
	Parsed      int `json:"parsed"`
	Imported    int `json:"imported"`
	Duplicates  int `json:"duplicates"`
	Invalid     int `json:"invalid"`
	Failed      int `json:"failed"`
	Categorized int `json:"categorized"`
}

// Link health states.
const (
	LinkOnline  = "online"
	LinkOffline = "offline"
	LinkUnknown = "unknown"
)

// LinkHealthRequest is the request body for a link health check.
type LinkHealthRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=200,dive,required,max=2048"`
}

// LinkStatus is the health of a single URL.
type LinkStatus struct {
	URL        string `json:"url"`
	Status     string `json:"status"`
	HTTPStatus int    `json:"httpStatus,omitempty"`
}

// LinkHealthResponse is the API response for a link health check.
type LinkHealthResponse struct {
	Results []LinkStatus   `json:"results"`
	Summary map[string]int `json:"summary"`
}

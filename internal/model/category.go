package model

import "time"

// Category is a user-defined bookmark group.
type Category struct {
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryRequest is the request body for creating a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// CategoryListResponse is the API response for category listings.
type CategoryListResponse struct {
	Categories []string `json:"categories"`
}

// CategoryDeleteResponse reports how many bookmarks were moved out of a
// deleted category.
type CategoryDeleteResponse struct {
	Deleted string `json:"deleted"`
	Moved   int64  `json:"moved"`
}

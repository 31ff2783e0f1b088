package service

import (
	"context"
	"time"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

// BookmarkStore persists bookmarks. Implemented by repository.BookmarkRepo.
// Lookups of missing records return pgx.ErrNoRows.
type BookmarkStore interface {
	Create(ctx context.Context, b *model.Bookmark) error
	Get(ctx context.Context, userID, id string) (*model.Bookmark, error)
	Update(ctx context.Context, b *model.Bookmark) error
	UpdateCategory(ctx context.Context, userID, id, category string) error
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string, f model.BookmarkFilter) ([]model.Bookmark, error)
	ListUncategorized(ctx context.Context, userID string) ([]model.Bookmark, error)
	ChangedSince(ctx context.Context, userID string, since time.Time) ([]model.Bookmark, []string, error)
	CountByCategory(ctx context.Context, userID string) (map[string]int, error)
}

// CategoryStore persists per-user category lists. Implemented by
// repository.CategoryRepo.
type CategoryStore interface {
	List(ctx context.Context, userID string) ([]model.Category, error)
	Create(ctx context.Context, userID, name string) error
	Ensure(ctx context.Context, userID string, names ...string) error
	Delete(ctx context.Context, userID, name string) (int64, error)
}

// MetadataFetcher returns page metadata and never fails. Implemented by
// metadata.Fetcher.
type MetadataFetcher interface {
	Fetch(ctx context.Context, rawURL string) model.PageMetadata
}

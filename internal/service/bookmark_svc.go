package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/metadata"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/pkg/hash"
)

// DefaultPageSize is the listing page size when none is requested.
const DefaultPageSize = 100

type BookmarkService struct {
	store      BookmarkStore
	categories *CategoryService
	logger     zerolog.Logger
}

func NewBookmarkService(store BookmarkStore, categories *CategoryService, logger zerolog.Logger) *BookmarkService {
	return &BookmarkService{
		store:      store,
		categories: categories,
		logger:     logger.With().Str("component", "bookmarks").Logger(),
	}
}

// Get returns one bookmark. Returns pgx.ErrNoRows if it does not exist.
func (s *BookmarkService) Get(ctx context.Context, userID, id string) (*model.Bookmark, error) {
	return s.store.Get(ctx, userID, id)
}

// List returns a page of bookmarks matching f.
func (s *BookmarkService) List(ctx context.Context, userID string, f model.BookmarkFilter) (*model.BookmarkListResponse, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Category = strings.TrimSpace(f.Category)

	items, err := s.store.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Bookmark{}
	}
	return &model.BookmarkListResponse{
		Bookmarks: items,
		Count:     len(items),
		Limit:     f.Limit,
		Offset:    f.Offset,
	}, nil
}

// Update replaces a bookmark's URL, title, description and category.
// Fetched metadata is kept unless the URL changed.
func (s *BookmarkService) Update(ctx context.Context, userID, id string, req model.BookmarkRequest) (*model.Bookmark, error) {
	pageURL, err := NormalizeBookmarkURL(req.URL)
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = classifier.Uncategorized
	} else if category, err = CleanCategoryName(category); err != nil {
		return nil, err
	}

	b, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if hash.CanonicalURL(b.URL) != hash.CanonicalURL(pageURL) {
		b.Favicon = metadata.FaviconURL(pageURL)
		b.Image, b.SiteName, b.PageType, b.Keywords = "", "", "", nil
	}
	b.URL = pageURL
	b.Title = strings.TrimSpace(req.Title)
	if b.Title == "" {
		b.Title = metadata.TitleFromURL(pageURL)
	}
	b.Description = strings.TrimSpace(req.Description)
	b.Category = category
	b.SearchText = SearchText(b)

	if err := s.categories.EnsureExists(ctx, userID, category); err != nil {
		s.logger.Warn().Err(err).Str("category", category).Msg("ensure category failed")
	}
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateCategory moves a bookmark to category, creating it if needed.
func (s *BookmarkService) UpdateCategory(ctx context.Context, userID, id, category string) error {
	category, err := CleanCategoryName(category)
	if err != nil {
		return err
	}
	if err := s.categories.EnsureExists(ctx, userID, category); err != nil {
		return err
	}
	return s.store.UpdateCategory(ctx, userID, id, category)
}

// Delete removes a bookmark.
func (s *BookmarkService) Delete(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, userID, id)
}

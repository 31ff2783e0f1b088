package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
)

// AllCategories is the listing filter that matches every category.
const AllCategories = "All"

// DefaultCategories are seeded the first time a user lists categories.
var DefaultCategories = []string{"Work", "Personal", "Learning", "Entertainment"}

type CategoryService struct {
	store  CategoryStore
	logger zerolog.Logger
}

func NewCategoryService(store CategoryStore, logger zerolog.Logger) *CategoryService {
	return &CategoryService{store: store, logger: logger.With().Str("component", "categories").Logger()}
}

// List returns the user's category names in order, seeding the defaults for
// a user who has none.
func (s *CategoryService) List(ctx context.Context, userID string) ([]string, error) {
	cats, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		if err := s.store.Ensure(ctx, userID, DefaultCategories...); err != nil {
			return nil, err
		}
		return append([]string(nil), DefaultCategories...), nil
	}

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names, nil
}

// Create adds a category. Returns repository.ErrDuplicate if it exists.
func (s *CategoryService) Create(ctx context.Context, userID, name string) (string, error) {
	name, err := CleanCategoryName(name)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(name, classifier.Uncategorized) {
		return "", ErrReservedCategory
	}
	if err := s.store.Create(ctx, userID, name); err != nil {
		return "", err
	}
	return name, nil
}

// EnsureExists adds the named categories the user does not have yet.
// Blank names and the reserved Uncategorized and All are never stored, so
// they cannot stop the defaults from being seeded.
func (s *CategoryService) EnsureExists(ctx context.Context, userID string, names ...string) error {
	seen := make(map[string]bool, len(names))
	var todo []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] || isReserved(n) {
			continue
		}
		seen[n] = true
		todo = append(todo, n)
	}
	if len(todo) == 0 {
		return nil
	}
	return s.store.Ensure(ctx, userID, todo...)
}

func isReserved(name string) bool {
	return strings.EqualFold(name, classifier.Uncategorized) || strings.EqualFold(name, AllCategories)
}

// Delete removes a category; its bookmarks move to Uncategorized. Returns
// pgx.ErrNoRows if the category does not exist.
func (s *CategoryService) Delete(ctx context.Context, userID, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == classifier.Uncategorized {
		return 0, ErrReservedCategory
	}
	moved, err := s.store.Delete(ctx, userID, name)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Str("category", name).Int64("moved", moved).Msg("category deleted")
	return moved, nil
}

// CleanCategoryName trims name and checks its length. "All" is reserved
// for the listing filter.
func CleanCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxCategoryLen {
		return "", ErrInvalidCategory
	}
	if strings.EqualFold(name, AllCategories) {
		return "", ErrReservedCategory
	}
	return name, nil
}

package service

import (
	"context"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

type StatsService struct {
	bookmarks  BookmarkStore
	categories *CategoryService
}

func NewStatsService(bookmarks BookmarkStore, categories *CategoryService) *StatsService {
	return &StatsService{bookmarks: bookmarks, categories: categories}
}

// GetStats returns bookmark totals for the user. Every listed category
// appears in ByCategory, with zero when empty.
func (s *StatsService) GetStats(ctx context.Context, userID string) (*model.StatsResponse, error) {
	counts, err := s.bookmarks.CountByCategory(ctx, userID)
	if err != nil {
		return nil, err
	}
	cats, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]int, len(cats)+len(counts))
	for _, c := range cats {
		byCategory[c] = 0
	}

	resp := &model.StatsResponse{TotalCategories: len(cats)}
	for cat, n := range counts {
		if cat == "" {
			cat = classifier.Uncategorized
		}
		byCategory[cat] += n
		resp.TotalBookmarks += n
	}
	resp.Uncategorized = byCategory[classifier.Uncategorized]
	resp.ByCategory = byCategory
	return resp, nil
}

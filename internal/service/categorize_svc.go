package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

// DefaultCategorizeWorkers bounds concurrent writes during bulk
// categorisation.
const DefaultCategorizeWorkers = 4

// CategorizeService assigns categories to a user's uncategorised bookmarks
// in bulk.
type CategorizeService struct {
	classifier *classifier.Classifier
	bookmarks  BookmarkStore
	categories *CategoryService
	workers    int
	logger     zerolog.Logger
}

func NewCategorizeService(c *classifier.Classifier, bookmarks BookmarkStore, categories *CategoryService, workers int, logger zerolog.Logger) *CategorizeService {
	if workers <= 0 {
		workers = DefaultCategorizeWorkers
	}
	return &CategorizeService{
		classifier: c,
		bookmarks:  bookmarks,
		categories: categories,
		workers:    workers,
		logger:     logger.With().Str("component", "auto-categorize").Logger(),
	}
}

type plannedChange struct {
	bookmark model.Bookmark
	category string
	score    int
}

// AutoCategorize classifies every bookmark in Uncategorized from its URL,
// title and description. With dryRun nothing is written. A failed write is
// counted and the batch carries on.
func (s *CategorizeService) AutoCategorize(ctx context.Context, userID string, dryRun bool) (*model.BatchResult, error) {
	start := time.Now()

	items, err := s.bookmarks.ListUncategorized(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := &model.BatchResult{Scanned: len(items), DryRun: dryRun, Changes: []model.CategoryChange{}}

	var plans []plannedChange
	for _, b := range items {
		r := s.classifier.Classify(classifier.Input{URL: b.URL, Title: b.Title, Description: b.Description})
		if r.Category == classifier.Uncategorized {
			res.Skipped++
			continue
		}
		plans = append(plans, plannedChange{bookmark: b, category: r.Category, score: r.Score})
	}

	if dryRun {
		for _, p := range plans {
			res.Changes = append(res.Changes, change(p))
		}
		res.Categorized = len(plans)
		return res, nil
	}

	names := make([]string, 0, len(plans))
	for _, p := range plans {
		names = append(names, p.category)
	}
	if err := s.categories.EnsureExists(ctx, userID, names...); err != nil {
		s.logger.Warn().Err(err).Msg("ensure categories failed")
	}

	done := make([]bool, len(plans))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, p := range plans {
		g.Go(func() error {
			err := s.bookmarks.UpdateCategory(ctx, userID, p.bookmark.ID, p.category)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				s.logger.Warn().Err(err).Str("bookmark_id", p.bookmark.ID).Msg("category update failed")
				return nil
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range plans {
		if done[i] {
			res.Changes = append(res.Changes, change(p))
		}
	}
	res.Categorized = len(res.Changes)

	s.logger.Info().
		Int("scanned", res.Scanned).
		Int("categorized", res.Categorized).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Dur("duration_ms", time.Since(start)).
		Msg("auto-categorize complete")
	return res, nil
}

func change(p plannedChange) model.CategoryChange {
	from := p.bookmark.Category
	if from == "" {
		from = classifier.Uncategorized
	}
	return model.CategoryChange{
		BookmarkID: p.bookmark.ID,
		URL:        p.bookmark.URL,
		From:       from,
		To:         p.category,
		Score:      p.score,
	}
}

package service

import (
	"context"
	"time"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

// SyncService serves pull-based synchronisation for clients that keep a
// local copy of the collection.
type SyncService struct {
	bookmarks  BookmarkStore
	categories *CategoryService
	now        func() time.Time
}

func NewSyncService(bookmarks BookmarkStore, categories *CategoryService) *SyncService {
	return &SyncService{bookmarks: bookmarks, categories: categories, now: time.Now}
}

// DeltaSync returns bookmarks changed and ids deleted after since. The
// returned SyncTimestamp is taken before querying so the next delta cannot
// miss a concurrent write.
func (s *SyncService) DeltaSync(ctx context.Context, userID string, since time.Time) (*model.SyncDeltaResponse, error) {
	stamp := s.now().UTC()

	live, deleted, err := s.bookmarks.ChangedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if live == nil {
		live = []model.Bookmark{}
	}
	if deleted == nil {
		deleted = []string{}
	}

	return &model.SyncDeltaResponse{
		Bookmarks:     live,
		Deleted:       deleted,
		SyncTimestamp: stamp.Format(time.RFC3339Nano),
	}, nil
}

// FullSync returns every live bookmark and the category list.
func (s *SyncService) FullSync(ctx context.Context, userID string) (*model.SyncFullResponse, error) {
	stamp := s.now().UTC()

	live, _, err := s.bookmarks.ChangedSince(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}
	if live == nil {
		live = []model.Bookmark{}
	}

	cats, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.SyncFullResponse{
		Bookmarks:   live,
		Categories:  cats,
		GeneratedAt: stamp.Format(time.RFC3339Nano),
	}, nil
}

// ParseSince parses the since query value. An empty value means the epoch.
func ParseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, ErrInvalidSince
	}
	return t, nil
}

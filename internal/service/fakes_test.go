package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/internal/repository"
	"github.com/devilqueenlove/BookMyWebs/pkg/hash"
)

// memBookmarks is an in-memory BookmarkStore.
type memBookmarks struct {
	mu         sync.Mutex
	items      map[string]*model.Bookmark
	seq        int
	failUpdate map[string]bool
}

func newMemBookmarks() *memBookmarks {
	return &memBookmarks{items: map[string]*model.Bookmark{}, failUpdate: map[string]bool{}}
}

func (m *memBookmarks) Create(_ context.Context, b *model.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.UserID == b.UserID && hash.URLKey(existing.URL) == hash.URLKey(b.URL) {
			return repository.ErrDuplicate
		}
	}
	m.seq++
	now := time.Date(2024, 1, 1, 0, 0, m.seq, 0, time.UTC)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *memBookmarks) Get(_ context.Context, userID, id string) (*model.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok || b.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (m *memBookmarks) Update(_ context.Context, b *model.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[b.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *memBookmarks) UpdateCategory(_ context.Context, userID, id, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate[id] {
		return errors.New("write failed")
	}
	b, ok := m.items[id]
	if !ok || b.UserID != userID {
		return pgx.ErrNoRows
	}
	b.Category = category
	return nil
}

func (m *memBookmarks) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok || b.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *memBookmarks) all(userID string) []model.Bookmark {
	var out []model.Bookmark
	for _, b := range m.items {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memBookmarks) List(_ context.Context, userID string, f model.BookmarkFilter) ([]model.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Bookmark
	for _, b := range m.all(userID) {
		if f.Category != "" && f.Category != AllCategories && b.Category != f.Category {
			continue
		}
		if f.Query != "" && !strings.Contains(b.SearchText, strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, b)
	}
	if f.Offset >= len(out) {
		return []model.Bookmark{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memBookmarks) ListUncategorized(_ context.Context, userID string) ([]model.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Bookmark
	for _, b := range m.all(userID) {
		if b.Category == "" || b.Category == classifier.Uncategorized {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBookmarks) ChangedSince(_ context.Context, userID string, since time.Time) ([]model.Bookmark, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Bookmark
	for _, b := range m.all(userID) {
		if b.UpdatedAt.After(since) {
			out = append(out, b)
		}
	}
	return out, nil, nil
}

func (m *memBookmarks) CountByCategory(_ context.Context, userID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, b := range m.items {
		if b.UserID == userID {
			counts[b.Category]++
		}
	}
	return counts, nil
}

func (m *memBookmarks) byURL(url string) *model.Bookmark {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.items {
		if b.URL == url {
			cp := *b
			return &cp
		}
	}
	return nil
}

// memCategories is an in-memory CategoryStore.
type memCategories struct {
	mu    sync.Mutex
	names map[string][]string
}

func newMemCategories() *memCategories {
	return &memCategories{names: map[string][]string{}}
}

func (m *memCategories) List(_ context.Context, userID string) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Category{}
	for i, n := range m.names[userID] {
		out = append(out, model.Category{Name: n, Position: i})
	}
	return out, nil
}

func (m *memCategories) has(userID, name string) bool {
	for _, n := range m.names[userID] {
		if n == name {
			return true
		}
	}
	return false
}

func (m *memCategories) Create(_ context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.has(userID, name) {
		return repository.ErrDuplicate
	}
	m.names[userID] = append(m.names[userID], name)
	return nil
}

func (m *memCategories) Ensure(_ context.Context, userID string, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		if !m.has(userID, n) {
			m.names[userID] = append(m.names[userID], n)
		}
	}
	return nil
}

func (m *memCategories) Delete(_ context.Context, userID, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.names[userID]
	for i, n := range list {
		if n == name {
			m.names[userID] = append(list[:i:i], list[i+1:]...)
			return 0, nil
		}
	}
	return 0, pgx.ErrNoRows
}

// stubFetcher returns canned metadata per URL.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]model.PageMetadata
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) model.PageMetadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if m, ok := f.pages[rawURL]; ok {
		return m
	}
	return model.PageMetadata{URL: rawURL, Keywords: []string{}}
}

func defaultClassifier() *classifier.Classifier {
	return classifier.New(classifier.MustDefaultTable())
}

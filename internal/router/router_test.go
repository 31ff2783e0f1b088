package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/handler"
	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/internal/repository"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
	"github.com/devilqueenlove/BookMyWebs/pkg/hash"
)

// store is an in-memory BookmarkStore and CategoryStore.
type store struct {
	mu         sync.Mutex
	bookmarks  []*model.Bookmark
	categories map[string][]string
}

func newStore() *store {
	return &store{categories: map[string][]string{}}
}

func (s *store) find(userID, id string) (int, bool) {
	for i, b := range s.bookmarks {
		if b.UserID == userID && b.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *store) Create(_ context.Context, b *model.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.bookmarks {
		if e.UserID == b.UserID && hash.URLKey(e.URL) == hash.URLKey(b.URL) {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	cp := *b
	s.bookmarks = append(s.bookmarks, &cp)
	return nil
}

func (s *store) Get(_ context.Context, userID, id string) (*model.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(userID, id)
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s.bookmarks[i]
	return &cp, nil
}

func (s *store) Update(_ context.Context, b *model.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(b.UserID, b.ID)
	if !ok {
		return pgx.ErrNoRows
	}
	cp := *b
	s.bookmarks[i] = &cp
	return nil
}

func (s *store) UpdateCategory(_ context.Context, userID, id, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(userID, id)
	if !ok {
		return pgx.ErrNoRows
	}
	s.bookmarks[i].Category = category
	return nil
}

func (s *store) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(userID, id)
	if !ok {
		return pgx.ErrNoRows
	}
	s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
	return nil
}

func (s *store) List(_ context.Context, userID string, f model.BookmarkFilter) ([]model.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Bookmark{}
	for _, b := range s.bookmarks {
		if b.UserID != userID {
			continue
		}
		if f.Category != "" && f.Category != service.AllCategories && b.Category != f.Category {
			continue
		}
		if f.Query != "" && !strings.Contains(b.SearchText, strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, *b)
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

func (s *store) ListUncategorized(ctx context.Context, userID string) ([]model.Bookmark, error) {
	return s.List(ctx, userID, model.BookmarkFilter{Category: classifier.Uncategorized})
}

func (s *store) ChangedSince(ctx context.Context, userID string, since time.Time) ([]model.Bookmark, []string, error) {
	all, _ := s.List(ctx, userID, model.BookmarkFilter{})
	out := []model.Bookmark{}
	for _, b := range all {
		if b.UpdatedAt.After(since) {
			out = append(out, b)
		}
	}
	return out, nil, nil
}

func (s *store) ReassignCategory(_ context.Context, userID, from, to string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.bookmarks {
		if b.UserID == userID && b.Category == from {
			b.Category = to
			n++
		}
	}
	return n, nil
}

func (s *store) CountByCategory(_ context.Context, userID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, b := range s.bookmarks {
		if b.UserID == userID {
			counts[b.Category]++
		}
	}
	return counts, nil
}

type categoryStore struct{ s *store }

func (c categoryStore) List(_ context.Context, userID string) ([]model.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := []model.Category{}
	for i, n := range c.s.categories[userID] {
		out = append(out, model.Category{Name: n, Position: i})
	}
	return out, nil
}

func (c categoryStore) has(userID, name string) bool {
	for _, n := range c.s.categories[userID] {
		if n == name {
			return true
		}
	}
	return false
}

func (c categoryStore) Create(_ context.Context, userID, name string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.has(userID, name) {
		return repository.ErrDuplicate
	}
	c.s.categories[userID] = append(c.s.categories[userID], name)
	return nil
}

func (c categoryStore) Ensure(_ context.Context, userID string, names ...string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, n := range names {
		if !c.has(userID, n) {
			c.s.categories[userID] = append(c.s.categories[userID], n)
		}
	}
	return nil
}

func (c categoryStore) Delete(_ context.Context, userID, name string) (int64, error) {
	c.s.mu.Lock()
	list := c.s.categories[userID]
	idx := -1
	for i, n := range list {
		if n == name {
			idx = i
		}
	}
	if idx < 0 {
		c.s.mu.Unlock()
		return 0, pgx.ErrNoRows
	}
	c.s.categories[userID] = append(list[:idx:idx], list[idx+1:]...)
	c.s.mu.Unlock()
	return c.s.ReassignCategory(context.Background(), userID, name, classifier.Uncategorized)
}

type noFetch struct{}

func (noFetch) Fetch(_ context.Context, rawURL string) model.PageMetadata {
	return model.PageMetadata{URL: rawURL, Keywords: []string{}}
}

func newTestApp(t *testing.T) (*fiber.App, *store) {
	t.Helper()
	log := zerolog.Nop()
	table := classifier.MustDefaultTable()
	cls := classifier.New(table)
	st := newStore()
	cats := service.NewCategoryService(categoryStore{st}, log)
	ingest := service.NewIngestService(cls, noFetch{}, st, cats, log)

	app := fiber.New(fiber.Config{JSONEncoder: json.Marshal, JSONDecoder: json.Unmarshal})
	Setup(app, &Handlers{
		Health:     handler.NewHealthHandler(nil, nil, table),
		Bookmark:   handler.NewBookmarkHandler(ingest, service.NewBookmarkService(st, cats, log), service.NewCategorizeService(cls, st, cats, 2, log)),
		Category:   handler.NewCategoryHandler(cats, table),
		Classify:   handler.NewClassifyHandler(cls, ingest),
		Metadata:   handler.NewMetadataHandler(noFetch{}, nil),
		Transfer:   handler.NewTransferHandler(service.NewTransferService(cls, st, cats, log)),
		LinkHealth: handler.NewLinkHealthHandler(service.NewLinkHealthService(http.DefaultClient, 2, time.Second, log)),
		Sync:       handler.NewSyncHandler(service.NewSyncService(st, cats)),
		Stats:      handler.NewStatsHandler(service.NewStatsService(st, cats)),
	}, "*")
	return app, st
}

func do(t *testing.T, app *fiber.App, method, path, user, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(middleware.UserIDHeader, user)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(data, &e), string(data))
	return e.Error.Code
}

func TestHealthLive(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := do(t, app, "GET", "/health/live", "", "")
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestCategorize(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/categorize", "", `{"url":"https://github.com/foo/bar","title":"My Repo"}`)
	require.Equal(t, 200, resp.StatusCode, string(body))
	var res classifier.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "Code", res.Category)
	assert.Nil(t, res.Scores)

	_, body = do(t, app, "POST", "/api/categorize", "", `{"url":"https://my-personal-diary.net","explain":true}`)
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, classifier.Uncategorized, res.Category)
	assert.Len(t, res.Scores, 12)

	resp, body = do(t, app, "POST", "/api/categorize", "", `{"title":"no url"}`)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "INVALID_FIELD", errorCode(t, body))

	resp, body = do(t, app, "POST", "/api/categorize", "", `{not json`)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", errorCode(t, body))
}

func TestCategoryDefinitions(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := do(t, app, "GET", "/api/categories/definitions", "", "")
	require.Equal(t, 200, resp.StatusCode)

	var out struct {
		Categories    []classifier.Definition `json:"categories"`
		Uncategorized string                  `json:"uncategorized"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Categories, 12)
	assert.Equal(t, "AI", out.Categories[0].Name)
	assert.Equal(t, classifier.Uncategorized, out.Uncategorized)
}

func TestBookmarkLifecycle(t *testing.T) {
	app, st := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/bookmarks", "", `{"url":"https://github.com/foo"}`)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, "MISSING_USER", errorCode(t, body))

	resp, body = do(t, app, "POST", "/api/bookmarks", "alice", `{"url":"github.com/foo","title":"Foo"}`)
	require.Equal(t, 201, resp.StatusCode, string(body))
	var created model.Bookmark
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Code", created.Category)
	assert.Equal(t, "https://github.com/foo", created.URL)
	assert.NotEmpty(t, created.ID)
	assert.NotContains(t, string(body), "alice", "user id must not be serialised")

	resp, body = do(t, app, "POST", "/api/bookmarks", "alice", `{"url":"https://github.com/foo/"}`)
	assert.Equal(t, 409, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", errorCode(t, body))

	resp, _ = do(t, app, "GET", "/api/bookmarks/"+created.ID, "alice", "")
	assert.Equal(t, 200, resp.StatusCode)

	resp, body = do(t, app, "GET", "/api/bookmarks/"+created.ID, "bob", "")
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))

	resp, body = do(t, app, "PATCH", "/api/bookmarks/"+created.ID+"/category", "alice", `{"category":"Reading"}`)
	require.Equal(t, 200, resp.StatusCode, string(body))
	var moved model.Bookmark
	require.NoError(t, json.Unmarshal(body, &moved))
	assert.Equal(t, "Reading", moved.Category)

	resp, body = do(t, app, "GET", "/api/bookmarks?category=Reading&q=FOO", "alice", "")
	require.Equal(t, 200, resp.StatusCode)
	var list model.BookmarkListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Count)

	resp, _ = do(t, app, "GET", "/api/bookmarks?limit=5000", "alice", "")
	assert.Equal(t, 400, resp.StatusCode)

	resp, _ = do(t, app, "DELETE", "/api/bookmarks/"+created.ID, "alice", "")
	assert.Equal(t, 204, resp.StatusCode)
	assert.Empty(t, st.bookmarks)
}

func TestCreateRejectsInvalidURL(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := do(t, app, "POST", "/api/bookmarks", "alice", `{"url":"ftp://files.example.org"}`)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "INVALID_URL", errorCode(t, body))
}

func TestAutoCategorizeRoute(t *testing.T) {
	app, st := newTestApp(t)
	for i, u := range []string{"https://www.youtube.com/watch?v=1", "https://my-personal-diary.net"} {
		require.NoError(t, st.Create(context.Background(), &model.Bookmark{
			ID: "b" + string(rune('0'+i)), UserID: "alice", URL: u, Category: classifier.Uncategorized,
		}))
	}

	resp, body := do(t, app, "POST", "/api/bookmarks/auto-categorize", "alice", `{"dryRun":true}`)
	require.Equal(t, 200, resp.StatusCode, string(body))
	assert.Equal(t, classifier.Uncategorized, st.bookmarks[0].Category, "dry run must not write")

	resp, body = do(t, app, "POST", "/api/bookmarks/auto-categorize", "alice", "")
	require.Equal(t, 200, resp.StatusCode, string(body))
	var res model.BatchResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 2, res.Scanned)
	assert.Equal(t, 1, res.Categorized)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, "Video", res.Changes[0].To)
	assert.Equal(t, "Video", st.bookmarks[0].Category)
}

func TestCategoryRoutes(t *testing.T) {
	app, st := newTestApp(t)

	resp, body := do(t, app, "GET", "/api/categories", "alice", "")
	require.Equal(t, 200, resp.StatusCode)
	var list model.CategoryListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, service.DefaultCategories, list.Categories)

	resp, _ = do(t, app, "POST", "/api/categories", "alice", `{"name":"Reading List"}`)
	assert.Equal(t, 201, resp.StatusCode)
	resp, body = do(t, app, "POST", "/api/categories", "alice", `{"name":"Reading List"}`)
	assert.Equal(t, 409, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", errorCode(t, body))
	resp, body = do(t, app, "POST", "/api/categories", "alice", `{"name":"Uncategorized"}`)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "INVALID_CATEGORY", errorCode(t, body))

	resp, body = do(t, app, "POST", "/api/bookmarks", "alice", `{"url":"https://example.org/a","category":"Reading List"}`)
	require.Equal(t, 201, resp.StatusCode, string(body))

	resp, body = do(t, app, "DELETE", "/api/categories/Reading%20List", "alice", "")
	require.Equal(t, 200, resp.StatusCode, string(body))
	var del model.CategoryDeleteResponse
	require.NoError(t, json.Unmarshal(body, &del))
	assert.Equal(t, model.CategoryDeleteResponse{Deleted: "Reading List", Moved: 1}, del)
	assert.Equal(t, classifier.Uncategorized, st.bookmarks[0].Category)

	resp, _ = do(t, app, "DELETE", "/api/categories/Nope", "alice", "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestImportExport(t *testing.T) {
	app, _ := newTestApp(t)

	in := `[{"title":"Repo","url":"https://github.com/foo"},{"title":"Bad","url":"not a url"}]`
	resp, body := do(t, app, "POST", "/api/import?format=json&autoCategorize=true", "alice", in)
	require.Equal(t, 200, resp.StatusCode, string(body))
	var res model.ImportResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, model.ImportResult{Parsed: 2, Imported: 1, Invalid: 1, Categorized: 1}, res)

	resp, body = do(t, app, "POST", "/api/import", "alice", in)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "MISSING_PARAM", errorCode(t, body))

	resp, body = do(t, app, "POST", "/api/import?format=xml", "alice", in)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "INVALID_FORMAT", errorCode(t, body))

	resp, body = do(t, app, "GET", "/api/export?format=csv", "alice", "")
	require.Equal(t, 200, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "bookmywebs-bookmarks.csv")
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, string(body), "Repo,https://github.com/foo,Code,")
}

func TestSyncAndStats(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := do(t, app, "POST", "/api/bookmarks", "alice", `{"url":"https://github.com/foo"}`)
	require.Equal(t, 201, resp.StatusCode, string(body))

	resp, body = do(t, app, "GET", "/api/sync/delta", "alice", "")
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "MISSING_PARAM", errorCode(t, body))

	resp, body = do(t, app, "GET", "/api/sync/delta?since=yesterday", "alice", "")
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "INVALID_PARAM", errorCode(t, body))

	resp, body = do(t, app, "GET", "/api/sync/delta?since=2000-01-01T00:00:00Z", "alice", "")
	require.Equal(t, 200, resp.StatusCode, string(body))
	var delta model.SyncDeltaResponse
	require.NoError(t, json.Unmarshal(body, &delta))
	assert.Len(t, delta.Bookmarks, 1)
	assert.NotNil(t, delta.Deleted)

	resp, body = do(t, app, "GET", "/api/stats", "alice", "")
	require.Equal(t, 200, resp.StatusCode, string(body))
	var stats model.StatsResponse
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 1, stats.TotalBookmarks)
	assert.Equal(t, 1, stats.ByCategory["Code"])
}

func TestMetadataRoute(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := do(t, app, "GET", "/api/metadata", "", "")
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "MISSING_PARAM", errorCode(t, body))

	resp, body = do(t, app, "GET", "/api/metadata?url=example.com", "", "")
	require.Equal(t, 200, resp.StatusCode)
	var m model.PageMetadata
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "https://example.com", m.URL)
	assert.NotNil(t, m.Keywords)

	for _, target := range []string{"http://127.0.0.1:6379/", "http://169.254.169.254/latest/meta-data/", "localhost:5432"} {
		resp, body = do(t, app, "GET", "/api/metadata?url="+url.QueryEscape(target), "", "")
		assert.Equal(t, 400, resp.StatusCode, target)
		assert.Equal(t, "INVALID_URL", errorCode(t, body), target)
	}

	resp, _ = do(t, app, "DELETE", "/api/metadata?url=example.com", "", "")
	assert.Equal(t, 401, resp.StatusCode)
	resp, _ = do(t, app, "DELETE", "/api/metadata?url=example.com", "alice", "")
	assert.Equal(t, 204, resp.StatusCode)
}

func TestLinkHealthRoute(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/links/health", "alice", `{"urls":[]}`)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "INVALID_FIELD", errorCode(t, body))

	resp, body = do(t, app, "POST", "/api/links/health", "alice", `{"urls":["not a url"]}`)
	require.Equal(t, 200, resp.StatusCode, string(body))
	var out model.LinkHealthResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, model.LinkUnknown, out.Results[0].Status)
}

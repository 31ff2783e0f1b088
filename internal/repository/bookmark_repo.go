package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/pkg/hash"
)

const bookmarkColumns = `id, user_id, url, title, description, category, favicon, image,
		       site_name, page_type, keywords, search_text, created_at, updated_at`

// maxListLimit caps a single listing page.
const maxListLimit = 1000

type BookmarkRepo struct {
	pool *pgxpool.Pool
}

func NewBookmarkRepo(pool *pgxpool.Pool) *BookmarkRepo {
	return &BookmarkRepo{pool: pool}
}

// Create inserts b and fills in its timestamps. A non-zero b.CreatedAt is
// kept (imports carry their original dates). Returns ErrDuplicate when the
// user already has a live bookmark for the same URL.
func (r *BookmarkRepo) Create(ctx context.Context, b *model.Bookmark) error {
	query := `
		INSERT INTO bookmarks (id, user_id, url, url_hash, title, description, category,
		                       favicon, image, site_name, page_type, keywords, search_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, COALESCE($14, NOW()))
		RETURNING created_at, updated_at`

	var createdAt *time.Time
	if !b.CreatedAt.IsZero() {
		createdAt = &b.CreatedAt
	}

	err := r.pool.QueryRow(ctx, query,
		b.ID, b.UserID, b.URL, hash.URLKey(b.URL), b.Title, b.Description, b.Category,
		b.Favicon, b.Image, b.SiteName, b.PageType, keywordsOrEmpty(b.Keywords), b.SearchText,
		createdAt,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return mapWriteErr(err)
}

// Get returns a live bookmark. Returns pgx.ErrNoRows if it does not exist.
func (r *BookmarkRepo) Get(ctx context.Context, userID, id string) (*model.Bookmark, error) {
	query := `
		SELECT ` + bookmarkColumns + `
		FROM bookmarks
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`

	b, err := scanBookmark(r.pool.QueryRow(ctx, query, userID, id))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces the editable fields of a live bookmark.
func (r *BookmarkRepo) Update(ctx context.Context, b *model.Bookmark) error {
	query := `
		UPDATE bookmarks
		SET url = $3, url_hash = $4, title = $5, description = $6, category = $7,
		    favicon = $8, image = $9, site_name = $10, page_type = $11, keywords = $12,
		    search_text = $13, updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		b.UserID, b.ID, b.URL, hash.URLKey(b.URL), b.Title, b.Description, b.Category,
		b.Favicon, b.Image, b.SiteName, b.PageType, keywordsOrEmpty(b.Keywords), b.SearchText,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return mapWriteErr(err)
}

// UpdateCategory moves one live bookmark. Returns pgx.ErrNoRows if it does
// not exist.
func (r *BookmarkRepo) UpdateCategory(ctx context.Context, userID, id, category string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookmarks SET category = $3, updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id, category)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete soft-deletes a bookmark so delta sync can report it.
func (r *BookmarkRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookmarks SET deleted_at = NOW(), updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// PurgeDeleted permanently removes bookmarks soft-deleted before cutoff.
func (r *BookmarkRepo) PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM bookmarks
		WHERE deleted_at IS NOT NULL AND deleted_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// List returns live bookmarks, newest first, narrowed by f.
func (r *BookmarkRepo) List(ctx context.Context, userID string, f model.BookmarkFilter) ([]model.Bookmark, error) {
	var sb strings.Builder
	args := []interface{}{userID}

	sb.WriteString(`
		SELECT ` + bookmarkColumns + `
		FROM bookmarks
		WHERE user_id = $1 AND deleted_at IS NULL`)

	if f.Category != "" && f.Category != "All" {
		args = append(args, f.Category)
		sb.WriteString(" AND category = $2")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, strings.ToLower(q))
		sb.WriteString(" AND strpos(search_text, $" + strconv.Itoa(len(args)) + ") > 0")
	}

	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	args = append(args, limit, max(f.Offset, 0))
	sb.WriteString(" ORDER BY created_at DESC, id LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args)))

	return r.query(ctx, sb.String(), args...)
}

// ListUncategorized returns live bookmarks without a real category.
func (r *BookmarkRepo) ListUncategorized(ctx context.Context, userID string) ([]model.Bookmark, error) {
	query := `
		SELECT ` + bookmarkColumns + `
		FROM bookmarks
		WHERE user_id = $1 AND deleted_at IS NULL AND (category = '' OR category = $2)
		ORDER BY created_at ASC`
	return r.query(ctx, query, userID, classifier.Uncategorized)
}

// ChangedSince returns live bookmarks updated after since and the ids of
// bookmarks deleted after since.
func (r *BookmarkRepo) ChangedSince(ctx context.Context, userID string, since time.Time) ([]model.Bookmark, []string, error) {
	live, err := r.query(ctx, `
		SELECT `+bookmarkColumns+`
		FROM bookmarks
		WHERE user_id = $1 AND deleted_at IS NULL AND updated_at > $2
		ORDER BY updated_at ASC`, userID, since)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id FROM bookmarks
		WHERE user_id = $1 AND deleted_at > $2
		ORDER BY deleted_at ASC`, userID, since)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	deleted := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, nil, err
		}
		deleted = append(deleted, id)
	}
	return live, deleted, rows.Err()
}

// CountByCategory returns the number of live bookmarks per category.
func (r *BookmarkRepo) CountByCategory(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category, COUNT(*)
		FROM bookmarks
		WHERE user_id = $1 AND deleted_at IS NULL
		GROUP BY category`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

func (r *BookmarkRepo) query(ctx context.Context, query string, args ...interface{}) ([]model.Bookmark, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookmarks := []model.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, *b)
	}
	return bookmarks, rows.Err()
}

func scanBookmark(row pgx.Row) (*model.Bookmark, error) {
	var b model.Bookmark
	err := row.Scan(
		&b.ID, &b.UserID, &b.URL, &b.Title, &b.Description, &b.Category, &b.Favicon, &b.Image,
		&b.SiteName, &b.PageType, &b.Keywords, &b.SearchText, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func keywordsOrEmpty(k []string) []string {
	if k == nil {
		return []string{}
	}
	return k
}

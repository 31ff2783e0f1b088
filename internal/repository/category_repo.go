package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

// List returns the user's categories in the order they were added.
func (r *CategoryRepo) List(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, position, created_at
		FROM categories
		WHERE user_id = $1
		ORDER BY position ASC, created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.Position, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Create appends a category. Returns ErrDuplicate if the name exists.
func (r *CategoryRepo) Create(ctx context.Context, userID, name string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (user_id, name, position)
		SELECT $1, $2, COALESCE(MAX(position), -1) + 1
		FROM categories WHERE user_id = $1`,
		userID, name)
	return mapWriteErr(err)
}

// Ensure creates the given categories that do not exist yet, keeping their
// relative order. Existing ones are left untouched.
func (r *CategoryRepo) Ensure(ctx context.Context, userID string, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, name := range names {
		_, err = tx.Exec(ctx, `
			INSERT INTO categories (user_id, name, position)
			SELECT $1, $2, COALESCE(MAX(position), -1) + 1
			FROM categories WHERE user_id = $1
			ON CONFLICT (user_id, name) DO NOTHING`,
			userID, name)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Delete removes a category and moves its bookmarks to Uncategorized.
// Returns pgx.ErrNoRows if the category does not exist.
func (r *CategoryRepo) Delete(ctx context.Context, userID, name string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, pgx.ErrNoRows
	}

	tag, err = tx.Exec(ctx, `
		UPDATE bookmarks SET category = $3, updated_at = NOW()
		WHERE user_id = $1 AND category = $2 AND deleted_at IS NULL`,
		userID, name, classifier.Uncategorized)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

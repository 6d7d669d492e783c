package tags

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for tags.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches a tag by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Tag, error) {
	var t Tag
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM tags WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns all tags ordered by name.
func (r *Repository) List(ctx context.Context) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a tag. A duplicate name maps to ErrDuplicate.
func (r *Repository) Create(ctx context.Context, name string) (*Tag, error) {
	var t Tag
	err := r.pool.QueryRow(ctx, `INSERT INTO tags (name) VALUES ($1) RETURNING id, name`, name).Scan(&t.ID, &t.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, httpx.ErrDuplicate
		}
		return nil, err
	}
	return &t, nil
}

// Update renames a tag. A duplicate name maps to ErrDuplicate.
func (r *Repository) Update(ctx context.Context, id int64, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tags SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return httpx.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a tag; attachments cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListInformations returns articles carrying the tag, newest first.
func (r *Repository) ListInformations(ctx context.Context, tagID int64) ([]InformationRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.title, i.summary, i.publication_date
		FROM informations i
		JOIN information_tags it ON i.id = it.information_id
		WHERE it.tag_id = $1
		ORDER BY i.publication_date DESC`, tagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InformationRef
	for rows.Next() {
		var ref InformationRef
		if err := rows.Scan(&ref.ID, &ref.Title, &ref.Summary, &ref.PublicationDate); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

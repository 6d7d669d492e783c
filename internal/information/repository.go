package information

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/tags"
)

// Repository provides PostgreSQL backed persistence for articles and their
// tag attachments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches an article without tags.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Information, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, content, summary, publication_date FROM informations WHERE id = $1`, id)
	return scanInformation(row)
}

// List returns articles newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Information, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, content, summary, publication_date
		FROM informations
		ORDER BY publication_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Information
	for rows.Next() {
		info, err := scanInformation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	return out, rows.Err()
}

// ListTags returns the tags attached to an article, ordered by name.
func (r *Repository) ListTags(ctx context.Context, informationID int64) ([]tags.Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name
		FROM tags t
		JOIN information_tags it ON t.id = it.tag_id
		WHERE it.information_id = $1
		ORDER BY t.name ASC`, informationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tags.Tag
	for rows.Next() {
		var t tags.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts an article and returns its generated id.
func (r *Repository) Create(ctx context.Context, in NewInformation) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO informations (title, content, summary)
		VALUES ($1, $2, $3)
		RETURNING id`, in.Title, in.Content, in.Summary).Scan(&id)
	return id, err
}

// Update applies title/content/summary changes.
func (r *Repository) Update(ctx context.Context, id int64, in NewInformation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE informations SET title = $1, content = $2, summary = $3 WHERE id = $4`,
		in.Title, in.Content, in.Summary, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes an article; attachments cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM informations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// TagExists reports whether a tag row exists.
func (r *Repository) TagExists(ctx context.Context, tagID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tags WHERE id = $1)`, tagID).Scan(&exists)
	return exists, err
}

// AttachTag links a tag to an article. Attaching twice maps to ErrDuplicate.
func (r *Repository) AttachTag(ctx context.Context, informationID, tagID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO information_tags (information_id, tag_id) VALUES ($1, $2)`,
		informationID, tagID)
	if isUniqueViolation(err) {
		return httpx.ErrDuplicate
	}
	return err
}

// DetachTag unlinks a tag; NotFound when the pair was not attached.
func (r *Repository) DetachTag(ctx context.Context, informationID, tagID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM information_tags WHERE information_id = $1 AND tag_id = $2`,
		informationID, tagID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanInformation(row pgx.Row) (*Information, error) {
	var info Information
	err := row.Scan(&info.ID, &info.Title, &info.Content, &info.Summary, &info.PublicationDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &info, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

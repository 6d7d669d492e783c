package announcements

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for announcements.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches an announcement with its author name.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Announcement, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT a.id, a.title, a.content, a.publication_date, a.user_id, u.firstname, u.lastname
		FROM announcements a
		JOIN users u ON a.user_id = u.id
		WHERE a.id = $1`, id)
	return scanAnnouncement(row)
}

// List returns announcements newest first with their author names.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Announcement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.title, a.content, a.publication_date, a.user_id, u.firstname, u.lastname
		FROM announcements a
		JOIN users u ON a.user_id = u.id
		ORDER BY a.publication_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Announcement
	for rows.Next() {
		ann, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ann)
	}
	return out, rows.Err()
}

// Create inserts an announcement and returns its generated id.
func (r *Repository) Create(ctx context.Context, in NewAnnouncement) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO announcements (title, content, user_id)
		VALUES ($1, $2, $3)
		RETURNING id`, in.Title, in.Content, in.OwnerID).Scan(&id)
	return id, err
}

// Update applies title/content changes.
func (r *Repository) Update(ctx context.Context, id int64, in AnnouncementUpdate) error {
	tag, err := r.pool.Exec(ctx, `UPDATE announcements SET title = $1, content = $2 WHERE id = $3`,
		in.Title, in.Content, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes an announcement.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanAnnouncement(row pgx.Row) (*Announcement, error) {
	var a Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.PublicationDate, &a.OwnerID,
		&a.AuthorFirstname, &a.AuthorLastname)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

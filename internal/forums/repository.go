package forums

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/httpx"
)

const forumColumns = `f.id, f.name, f.description, f.user_id, f.created_at,
	TRIM(COALESCE(u.firstname, '') || ' ' || COALESCE(u.lastname, ''))`

const messageColumns = `m.id, m.forum_id, m.user_id, m.message, m.created_at,
	TRIM(COALESCE(u.firstname, '') || ' ' || COALESCE(u.lastname, ''))`

// Repository provides PostgreSQL backed persistence for forums and messages.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches a forum with its owner name.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Forum, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+forumColumns+`
		FROM forums f
		LEFT JOIN users u ON u.id = f.user_id
		WHERE f.id = $1`, id)
	return scanForum(row)
}

// List returns forums newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Forum, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+forumColumns+`
		FROM forums f
		LEFT JOIN users u ON u.id = f.user_id
		ORDER BY f.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Forum
	for rows.Next() {
		f, err := scanForum(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// CountCreatedSince counts forums the account opened after the cutoff.
func (r *Repository) CountCreatedSince(ctx context.Context, ownerID int64, cutoff time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM forums WHERE user_id = $1 AND created_at >= $2`,
		ownerID, cutoff).Scan(&count)
	return count, err
}

// Create inserts a forum and returns its generated id.
func (r *Repository) Create(ctx context.Context, name, description string, ownerID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO forums (name, description, user_id)
		VALUES ($1, $2, $3)
		RETURNING id`, name, description, ownerID).Scan(&id)
	return id, err
}

// Delete removes a forum; messages cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM forums WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListMessages returns a forum's messages oldest first.
func (r *Repository) ListMessages(ctx context.Context, forumID int64, limit, offset int) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM forum_messages m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.forum_id = $1
		ORDER BY m.created_at ASC
		LIMIT $2 OFFSET $3`, forumID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// FindMessage fetches a single message.
func (r *Repository) FindMessage(ctx context.Context, id int64) (*Message, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM forum_messages m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.id = $1`, id)
	return scanMessage(row)
}

// LastMessageAt returns the timestamp of the account's most recent message
// across all forums; the zero time when it has never posted.
func (r *Repository) LastMessageAt(ctx context.Context, ownerID int64) (time.Time, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT created_at FROM forum_messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, ownerID).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	return at, err
}

// CreateMessage inserts a message and returns its generated id.
func (r *Repository) CreateMessage(ctx context.Context, forumID, ownerID int64, body string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO forum_messages (forum_id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id`, forumID, ownerID, body).Scan(&id)
	return id, err
}

// DeleteMessage removes a message.
func (r *Repository) DeleteMessage(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM forum_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanForum(row pgx.Row) (*Forum, error) {
	var f Forum
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.OwnerID, &f.CreatedAt, &f.OwnerName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ForumID, &m.OwnerID, &m.Body, &m.CreatedAt, &m.AuthorName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

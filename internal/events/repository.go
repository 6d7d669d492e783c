package events

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/httpx"
)

const eventColumns = `e.id, e.name, e.description, e.event_date, e.business_id, e.is_reservable, b.name, b.user_id`

// Repository provides PostgreSQL backed persistence for events and
// registrations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches an event with its hosting business.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Event, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		JOIN businesses b ON e.business_id = b.id
		WHERE e.id = $1`, id)
	return scanEvent(row)
}

// List returns events ordered by date, most recent first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		JOIN businesses b ON e.business_id = b.id
		ORDER BY e.event_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

// BusinessOwner resolves the owning account of a business.
func (r *Repository) BusinessOwner(ctx context.Context, businessID int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx, `SELECT user_id FROM businesses WHERE id = $1`, businessID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, httpx.ErrNotFound
	}
	return ownerID, err
}

// Create inserts an event and returns its generated id.
func (r *Repository) Create(ctx context.Context, in NewEvent) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO events (name, description, event_date, business_id, is_reservable)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		in.Name, in.Description, in.EventDate, in.BusinessID, in.IsReservable).Scan(&id)
	return id, err
}

// Update applies changes to the allowed field set.
func (r *Repository) Update(ctx context.Context, id int64, in NewEvent) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events
		SET name = $1, description = $2, event_date = $3, business_id = $4, is_reservable = $5
		WHERE id = $6`,
		in.Name, in.Description, in.EventDate, in.BusinessID, in.IsReservable, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes an event.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListRegistrations returns the caller's reservations with event details.
func (r *Repository) ListRegistrations(ctx context.Context, userID int64) ([]Registration, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT er.user_id, er.event_id, er.reserved, e.name, e.event_date, e.description
		FROM event_registrations er
		JOIN events e ON er.event_id = e.id
		WHERE er.user_id = $1
		ORDER BY e.event_date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Registration
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.UserID, &reg.EventID, &reg.Reserved, &reg.EventName, &reg.EventDate, &reg.Description); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// CreateRegistration inserts a reservation keyed by (user, event).
func (r *Repository) CreateRegistration(ctx context.Context, userID, eventID int64, reserved bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_registrations (user_id, event_id, reserved)
		VALUES ($1, $2, $3)`, userID, eventID, reserved)
	if isUniqueViolation(err) {
		return httpx.ErrDuplicate
	}
	return err
}

// UpdateRegistration flips the reserved flag for a (user, event) pair.
func (r *Repository) UpdateRegistration(ctx context.Context, userID, eventID int64, reserved bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE event_registrations SET reserved = $1 WHERE user_id = $2 AND event_id = $3`,
		reserved, userID, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeleteRegistration removes a (user, event) reservation.
func (r *Repository) DeleteRegistration(ctx context.Context, userID, eventID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM event_registrations WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// OptedInEmails lists addresses of accounts subscribed to new-event mail.
func (r *Repository) OptedInEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM users WHERE mail_new_events`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.EventDate, &e.BusinessID,
		&e.IsReservable, &e.BusinessName, &e.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

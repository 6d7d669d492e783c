package emergencies

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/httpx"
)

const emergencyColumns = `e.id, e.reference, e.emergency_type, e.description, e.user_id, e.report_date, u.firstname, u.lastname`

// Repository provides PostgreSQL backed persistence for emergency reports.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches a report with its reporter name.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Emergency, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+emergencyColumns+`
		FROM emergencies e
		JOIN users u ON e.user_id = u.id
		WHERE e.id = $1`, id)
	return scanEmergency(row)
}

// List returns reports most recent first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Emergency, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+emergencyColumns+`
		FROM emergencies e
		JOIN users u ON e.user_id = u.id
		ORDER BY e.report_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Emergency
	for rows.Next() {
		em, err := scanEmergency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *em)
	}
	return out, rows.Err()
}

// Create inserts a report and returns its generated id.
func (r *Repository) Create(ctx context.Context, in NewEmergency) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO emergencies (reference, emergency_type, description, user_id, report_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		in.Reference, in.EmergencyType, in.Description, in.OwnerID, in.ReportDate).Scan(&id)
	return id, err
}

// Update applies type/description changes.
func (r *Repository) Update(ctx context.Context, id int64, in EmergencyUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE emergencies SET emergency_type = $1, description = $2 WHERE id = $3`,
		in.EmergencyType, in.Description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a report.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM emergencies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanEmergency(row pgx.Row) (*Emergency, error) {
	var e Emergency
	err := row.Scan(&e.ID, &e.Reference, &e.EmergencyType, &e.Description, &e.OwnerID,
		&e.ReportDate, &e.ReporterFirstname, &e.ReporterLastname)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

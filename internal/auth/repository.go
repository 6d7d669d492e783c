package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/httpx"
)

// Repository defines the credential lookups the verifier needs.
type Repository interface {
	FindAccountByID(ctx context.Context, id int64) (*Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*Account, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindAccountByID fetches the credential view of a user row.
func (r *PGRepository) FindAccountByID(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, email, password, role_id FROM users WHERE id = $1`, id)
	return scanAccount(row)
}

// FindAccountByEmail fetches the credential view by email.
func (r *PGRepository) FindAccountByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, email, password, role_id FROM users WHERE email = $1`, email)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*Account, error) {
	var account Account
	if err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

var _ Repository = (*PGRepository)(nil)

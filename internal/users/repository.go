package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
)

const userColumns = `id, firstname, lastname, company, email, password, address, postal_code, city, phone, birthday, avatar, mail_new_events, mail_events, public_profile, role_id, created_at`

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches a user by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// List returns accounts ordered by id with limit/offset.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *user)
	}
	return out, rows.Err()
}

// Create inserts a new account. A duplicate email maps to ErrDuplicate.
func (r *Repository) Create(ctx context.Context, in NewUser) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (firstname, lastname, company, email, password, address, postal_code, city, phone, birthday, mail_new_events, mail_events, public_profile, role_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+userColumns,
		in.Firstname, in.Lastname, in.Company, in.Email, in.PasswordHash,
		in.Address, in.PostalCode, in.City, in.Phone, in.Birthday,
		in.MailNewEvents, in.MailEvents, in.PublicProfile, int64(in.Role))
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, httpx.ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

// Update applies a profile update. Returns ErrNotFound when no row matched
// and ErrDuplicate when the new email is already taken.
func (r *Repository) Update(ctx context.Context, id int64, in ProfileUpdate, role policy.Role) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET firstname = $1, lastname = $2, company = $3, email = $4, address = $5,
		    postal_code = $6, city = $7, phone = $8, birthday = $9, avatar = $10,
		    mail_new_events = $11, mail_events = $12, public_profile = $13, role_id = $14
		WHERE id = $15`,
		in.Firstname, in.Lastname, in.Company, in.Email, in.Address,
		in.PostalCode, in.City, in.Phone, in.Birthday, in.Avatar,
		in.MailNewEvents, in.MailEvents, in.PublicProfile, int64(role), id)
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

// UpdatePassword replaces the stored credential hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes an account.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListRoles returns the seeded capability levels.
func (r *Repository) ListRoles(ctx context.Context) ([]RoleInfo, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM user_roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RoleInfo
	for rows.Next() {
		var role RoleInfo
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Company, &u.Email, &u.PasswordHash,
		&u.Address, &u.PostalCode, &u.City, &u.Phone, &u.Birthday, &u.Avatar,
		&u.MailNewEvents, &u.MailEvents, &u.PublicProfile, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

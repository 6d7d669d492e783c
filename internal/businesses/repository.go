package businesses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/httpx"
)

const businessColumns = `b.id, b.name, b.description, b.user_id, b.category_id, b.address, b.phone_number, b.email, b.website_url, b.created_at, u.firstname, u.lastname`

// Repository provides PostgreSQL backed persistence for businesses.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches a business with its owner name.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Business, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+businessColumns+`
		FROM businesses b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`, id)
	return scanBusiness(row)
}

// List returns businesses newest first. A non-empty folded term narrows the
// result to names matching it case-insensitively.
func (r *Repository) List(ctx context.Context, foldedTerm string, limit, offset int) ([]Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM businesses b
		JOIN users u ON b.user_id = u.id`
	args := []any{limit, offset}
	if foldedTerm != "" {
		query += ` WHERE b.search_name ILIKE '%' || $3 || '%'`
		args = append(args, foldedTerm)
	}
	query += ` ORDER BY b.created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a business and returns its generated id.
func (r *Repository) Create(ctx context.Context, in NewBusiness) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO businesses (name, description, user_id, category_id, address, phone_number, email, website_url, search_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		in.Name, in.Description, in.OwnerID, in.CategoryID, in.Address,
		in.PhoneNumber, in.Email, in.WebsiteURL, in.SearchName).Scan(&id)
	return id, err
}

// Update applies changes to the allowed field set; ownership is immutable.
func (r *Repository) Update(ctx context.Context, id int64, in BusinessUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE businesses
		SET name = $1, description = $2, category_id = $3, address = $4,
		    phone_number = $5, email = $6, website_url = $7, search_name = $8
		WHERE id = $9`,
		in.Name, in.Description, in.CategoryID, in.Address,
		in.PhoneNumber, in.Email, in.WebsiteURL, in.SearchName, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a business.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanBusiness(row pgx.Row) (*Business, error) {
	var b Business
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.OwnerID, &b.CategoryID,
		&b.Address, &b.PhoneNumber, &b.Email, &b.WebsiteURL, &b.CreatedAt,
		&b.OwnerFirstname, &b.OwnerLastname)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

package surveys

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citylink/citylink/internal/platform/db"
	"github.com/citylink/citylink/internal/platform/httpx"
)

const surveyColumns = `s.id, s.question, s.user_id, s.creation_date,
	TRIM(COALESCE(u.firstname, '') || ' ' || COALESCE(u.lastname, ''))`

// Repository provides PostgreSQL backed persistence for surveys.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InTx runs fn against a transactional view of the repository. Everything
// fn writes is rolled back when it returns an error.
func (r *Repository) InTx(ctx context.Context, fn func(TxPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

// FindByID fetches a survey without its options.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Survey, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+surveyColumns+`
		FROM surveys s
		LEFT JOIN users u ON u.id = s.user_id
		WHERE s.id = $1`, id)
	return scanSurvey(row)
}

// List returns surveys newest first, without options.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Survey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+surveyColumns+`
		FROM surveys s
		LEFT JOIN users u ON u.id = s.user_id
		ORDER BY s.creation_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Survey
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ListOptions returns a survey's options in id order.
func (r *Repository) ListOptions(ctx context.Context, surveyID int64) ([]Option, error) {
	return listOptions(ctx, r.pool, surveyID)
}

// Stats returns per-option response counts in option id order. Percentages
// are computed by the service.
func (r *Repository) Stats(ctx context.Context, surveyID int64) ([]OptionStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT so.id, so.option_text, COUNT(sr.id)
		FROM survey_options so
		LEFT JOIN survey_responses sr ON sr.survey_option_id = so.id
		WHERE so.survey_id = $1
		GROUP BY so.id, so.option_text
		ORDER BY so.id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OptionStat
	for rows.Next() {
		var st OptionStat
		if err := rows.Scan(&st.OptionID, &st.Text, &st.Count); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// UserVote returns the option the account voted for, or ErrNotFound when it
// has not voted.
func (r *Repository) UserVote(ctx context.Context, surveyID, userID int64) (int64, error) {
	var optionID int64
	err := r.pool.QueryRow(ctx, `
		SELECT survey_option_id FROM survey_responses
		WHERE survey_id = $1 AND user_id = $2`, surveyID, userID).Scan(&optionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, httpx.ErrNotFound
	}
	return optionID, err
}

// UpsertVote records a vote, replacing any prior vote by the same account
// on the same survey. The unique constraint on (survey_id, user_id) makes
// concurrent first votes collapse into a single row.
func (r *Repository) UpsertVote(ctx context.Context, surveyID, userID, optionID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO survey_responses (survey_id, user_id, survey_option_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (survey_id, user_id)
		DO UPDATE SET survey_option_id = EXCLUDED.survey_option_id`,
		surveyID, userID, optionID)
	return err
}

// Delete removes a survey; options and responses cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// txRepository implements TxPort on a live pgx transaction.
type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) InsertSurvey(ctx context.Context, question string, ownerID int64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO surveys (question, user_id)
		VALUES ($1, $2)
		RETURNING id`, question, ownerID).Scan(&id)
	return id, err
}

func (t *txRepository) InsertOption(ctx context.Context, surveyID int64, text string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO survey_options (survey_id, option_text)
		VALUES ($1, $2)
		RETURNING id`, surveyID, text).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateQuestion(ctx context.Context, id int64, question string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE surveys SET question = $1 WHERE id = $2`, question, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeleteResponseFreeOptions removes the survey's options no response points
// at. Options that collected votes survive and are reconciled by position.
func (t *txRepository) DeleteResponseFreeOptions(ctx context.Context, surveyID int64) error {
	_, err := t.tx.Exec(ctx, `
		DELETE FROM survey_options so
		WHERE so.survey_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM survey_responses sr WHERE sr.survey_option_id = so.id
		  )`, surveyID)
	return err
}

func (t *txRepository) ListOptions(ctx context.Context, surveyID int64) ([]Option, error) {
	return listOptions(ctx, t.tx, surveyID)
}

func (t *txRepository) UpdateOptionText(ctx context.Context, optionID int64, text string) error {
	_, err := t.tx.Exec(ctx, `UPDATE survey_options SET option_text = $1 WHERE id = $2`, text, optionID)
	return err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listOptions(ctx context.Context, q querier, surveyID int64) ([]Option, error) {
	rows, err := q.Query(ctx, `
		SELECT id, survey_id, option_text
		FROM survey_options
		WHERE survey_id = $1
		ORDER BY id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.SurveyID, &o.Text); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanSurvey(row pgx.Row) (*Survey, error) {
	var s Survey
	err := row.Scan(&s.ID, &s.Question, &s.OwnerID, &s.CreationDate, &s.OwnerName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

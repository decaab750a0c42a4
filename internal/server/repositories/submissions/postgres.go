// Package submissions provides PostgreSQL-backed persistence of memories.
package submissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/dbx"
	"github.com/dmitrijs2005/memorial/internal/server/models"
)

const columns = `id, contributor_name, contributor_relationship, contributor_email, title, body, consent_given, status, created_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts s and fills in the generated ID and CreatedAt. A new
// submission always starts pending.
func (r *PostgresRepository) Create(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (contributor_name, contributor_relationship, contributor_email, title, body, consent_given, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	s.Status = models.StatusPending
	err := r.db.QueryRowContext(ctx, query,
		s.ContributorName, s.ContributorRelationship, s.ContributorEmail, s.Title, s.Body, s.ConsentGiven, s.Status,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + columns + ` FROM submissions WHERE id=$1`
	s, err := scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select submission: %w", err)
	}
	return s, nil
}

// List returns submissions newest first.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*models.Submission, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + columns + ` FROM submissions`)
	if f.Status != "" {
		args = append(args, f.Status)
		fmt.Fprintf(&sb, ` WHERE status=$%d`, len(args))
	}
	sb.WriteString(` ORDER BY created_at DESC, id`)
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		fmt.Fprintf(&sb, ` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select submissions: %w", err)
	}
	defer rows.Close()

	var result []*models.Submission
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByStatus returns a count for every status, zero included.
func (r *PostgresRepository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, count(*) FROM submissions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status models.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status models.Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE submissions SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) UpdateBody(ctx context.Context, id, body string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE submissions SET body=$1 WHERE id=$2`, body, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

// Delete removes the submission; its photos go with it.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Submission, error) {
	var s models.Submission
	if err := row.Scan(
		&s.ID, &s.ContributorName, &s.ContributorRelationship, &s.ContributorEmail,
		&s.Title, &s.Body, &s.ConsentGiven, &s.Status, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Package photos provides PostgreSQL-backed persistence of submission media.
package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/dbx"
	"github.com/dmitrijs2005/memorial/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts p and fills in the generated ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Photo) error {
	query := `
		INSERT INTO photos (submission_id, storage_path, caption, order_index, media_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, p.SubmissionID, p.StoragePath, p.Caption, p.OrderIndex, p.MediaType).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Photo, error) {
	query := `SELECT id, submission_id, storage_path, caption, order_index, media_type, created_at FROM photos WHERE id=$1`
	var p models.Photo
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.SubmissionID, &p.StoragePath, &p.Caption, &p.OrderIndex, &p.MediaType, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select photo: %w", err)
	}
	return &p, nil
}

// ListBySubmission returns the photos of one submission by order index.
func (r *PostgresRepository) ListBySubmission(ctx context.Context, submissionID string) ([]*models.Photo, error) {
	query := `
		SELECT id, submission_id, storage_path, caption, order_index, media_type, created_at FROM photos
		WHERE submission_id=$1
		ORDER BY order_index, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select photos: %w", err)
	}
	defer rows.Close()

	var result []*models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.SubmissionID, &p.StoragePath, &p.Caption, &p.OrderIndex, &p.MediaType, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

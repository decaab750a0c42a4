// Package carousel provides PostgreSQL-backed persistence of hero carousel
// images.
package carousel

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

func (r *PostgresRepository) Create(ctx context.Context, p *models.CarouselPhoto) error {
	query := `
		INSERT INTO hero_carousel_photos (storage_path, row_number, display_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, p.StoragePath, p.RowNumber, p.DisplayOrder).Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.CarouselPhoto, error) {
	query := `SELECT id, storage_path, row_number, display_order, created_at FROM hero_carousel_photos WHERE id=$1`
	var p models.CarouselPhoto
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.StoragePath, &p.RowNumber, &p.DisplayOrder, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select carousel photo: %w", err)
	}
	return &p, nil
}

// List returns every image ordered by row, then display order.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.CarouselPhoto, error) {
	query := `
		SELECT id, storage_path, row_number, display_order, created_at FROM hero_carousel_photos
		ORDER BY row_number, display_order, created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select carousel photos: %w", err)
	}
	defer rows.Close()

	var result []*models.CarouselPhoto
	for rows.Next() {
		var p models.CarouselPhoto
		if err := rows.Scan(&p.ID, &p.StoragePath, &p.RowNumber, &p.DisplayOrder, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RowNumbers returns the row of every stored image.
func (r *PostgresRepository) RowNumbers(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT row_number FROM hero_carousel_photos`)
	if err != nil {
		return nil, fmt.Errorf("failed to select carousel rows: %w", err)
	}
	defer rows.Close()

	var result []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hero_carousel_photos WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

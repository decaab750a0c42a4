package photos

import (
	"context"

	"github.com/dmitrijs2005/memorial/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Photo) error
	Get(ctx context.Context, id string) (*models.Photo, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]*models.Photo, error)
	Delete(ctx context.Context, id string) error
}

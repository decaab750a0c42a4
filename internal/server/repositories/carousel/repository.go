package carousel

import (
	"context"

	"github.com/dmitrijs2005/memorial/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.CarouselPhoto) error
	Get(ctx context.Context, id string) (*models.CarouselPhoto, error)
	List(ctx context.Context) ([]*models.CarouselPhoto, error)
	RowNumbers(ctx context.Context) ([]int, error)
	Delete(ctx context.Context, id string) error
}

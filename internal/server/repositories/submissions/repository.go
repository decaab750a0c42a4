package submissions

import (
	"context"

	"github.com/dmitrijs2005/memorial/internal/server/models"
)

// Filter narrows a listing. An empty Status matches every state; a zero
// Limit means no limit.
type Filter struct {
	Status models.Status
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, s *models.Submission) error
	Get(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, f Filter) ([]*models.Submission, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	SetStatus(ctx context.Context, id string, status models.Status) error
	UpdateBody(ctx context.Context, id, body string) error
	Delete(ctx context.Context, id string) error
}

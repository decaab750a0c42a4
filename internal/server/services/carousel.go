package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/logging"
	"github.com/dmitrijs2005/memorial/internal/server/carousel"
	"github.com/dmitrijs2005/memorial/internal/server/models"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memorial/internal/server/staging"
	"github.com/dmitrijs2005/memorial/internal/server/storage"
)

// CarouselOutcome is the fate of one accepted carousel file.
type CarouselOutcome struct {
	Name  string
	Photo *models.CarouselPhoto
	Err   error
}

type CarouselReport struct {
	Rejections []staging.Rejection
	Outcomes   []CarouselOutcome
}

// CarouselService manages the hero carousel: a fixed number of rows, each
// holding up to a fixed number of images.
type CarouselService struct {
	mu          sync.Mutex
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gateway     storage.Gateway
	logger      logging.Logger
	rows        int
	capacity    int
	maxBytes    int64
}

func NewCarouselService(db *sql.DB, m repomanager.RepositoryManager, gw storage.Gateway, logger logging.Logger, rows, capacity int, maxBytes int64) *CarouselService {
	return &CarouselService{
		db:          db,
		repomanager: m,
		gateway:     gw,
		logger:      logger.With("module", "carousel"),
		rows:        rows,
		capacity:    capacity,
		maxBytes:    maxBytes,
	}
}

// Policy is the screening applied to carousel uploads: images only, at most
// rows*capacity in total.
func (s *CarouselService) Policy() staging.Policy {
	return staging.Policy{MaxCount: s.rows * s.capacity, MaxBytes: s.maxBytes}
}

// Upload screens files (images only, size, total capacity) and places each
// accepted one in the least loaded row. Uploads are serialised so row
// counts stay consistent; a failed file does not advance any count.
func (s *CarouselService) Upload(ctx context.Context, files []staging.RawFile) (*CarouselReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.repomanager.Carousel(s.db)
	rowNumbers, err := repo.RowNumbers(ctx)
	if err != nil {
		return nil, err
	}
	alloc, err := carousel.NewAllocator(s.rows, s.capacity, carousel.CountsFromRows(s.rows, rowNumbers))
	if err != nil {
		return nil, err
	}

	res := staging.Validate(files, s.rows*s.capacity-alloc.Capacity(), s.Policy())
	report := &CarouselReport{Rejections: res.Rejections}

	for _, f := range res.Accepted {
		out := CarouselOutcome{Name: f.Name}
		photo, err := s.place(ctx, alloc, f)
		if err != nil {
			s.logger.Error(ctx, "carousel image not stored", "name", f.Name, "error", err)
			out.Err = err
		} else {
			out.Photo = photo
		}
		report.Outcomes = append(report.Outcomes, out)
	}
	return report, nil
}

func (s *CarouselService) place(ctx context.Context, alloc *carousel.Allocator, f staging.RawFile) (*models.CarouselPhoto, error) {
	slot, err := alloc.Pick()
	if err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpload, err)
	}
	defer rc.Close()

	key, err := s.gateway.Upload(ctx, storage.ObjectKey(storage.CarouselOwner, f.Name, f.ContentType), rc, f.Size, f.ContentType)
	if err != nil {
		return nil, err
	}

	photo := &models.CarouselPhoto{StoragePath: key, RowNumber: slot.Row, DisplayOrder: slot.DisplayOrder}
	if err := s.repomanager.Carousel(s.db).Create(ctx, photo); err != nil {
		if derr := s.gateway.Delete(ctx, key); derr != nil {
			s.logger.Warn(ctx, "orphaned object left in storage", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("%w: record carousel image: %v", common.ErrUpload, err)
	}
	alloc.Commit(slot)
	photo.URL = s.gateway.PublicURL(key)
	return photo, nil
}

// List returns the carousel ordered by row, then display order.
func (s *CarouselService) List(ctx context.Context) ([]*models.CarouselPhoto, error) {
	list, err := s.repomanager.Carousel(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		p.URL = s.gateway.PublicURL(p.StoragePath)
	}
	if list == nil {
		list = []*models.CarouselPhoto{}
	}
	return list, nil
}

// Delete removes the stored object (best effort) and then the record. Only
// a failed record delete is an error.
func (s *CarouselService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.repomanager.Carousel(s.db)
	p, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gateway.Delete(ctx, p.StoragePath); err != nil {
		s.logger.Warn(ctx, "object not deleted", "key", p.StoragePath, "error", err)
	}
	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrDelete, err)
	}
	return nil
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/server/models"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/submissions"
	"github.com/dmitrijs2005/memorial/internal/server/storage"
	lru "github.com/hashicorp/golang-lru/v2"
)

// GalleryPage is one page of approved memories. Contributor emails are
// never included.
type GalleryPage struct {
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	HasMore  bool                 `json:"has_more"`
	Items    []*models.Submission `json:"items"`
}

// GalleryService serves the public wall from an LRU page cache.
type GalleryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gateway     storage.Gateway
	pageSize    int
	cache       *lru.Cache[int, *GalleryPage]

	// mu orders cache fills against Invalidate; generation counts purges.
	mu         sync.Mutex
	generation uint64
}

func NewGalleryService(db *sql.DB, m repomanager.RepositoryManager, gw storage.Gateway, pageSize, cacheSize int) (*GalleryService, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("gallery page size must be positive, got %d", pageSize)
	}
	cache, err := lru.New[int, *GalleryPage](max(cacheSize, 1))
	if err != nil {
		return nil, fmt.Errorf("gallery cache: %w", err)
	}
	return &GalleryService{db: db, repomanager: m, gateway: gw, pageSize: pageSize, cache: cache}, nil
}

// Page returns approved submissions, newest first. Pages start at 1.
func (s *GalleryService) Page(ctx context.Context, page int) (*GalleryPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", common.ErrValidation)
	}
	if page-1 > math.MaxInt32/s.pageSize {
		return nil, fmt.Errorf("%w: page %d out of range", common.ErrValidation, page)
	}
	if p, ok := s.cache.Get(page); ok {
		return p, nil
	}

	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	list, err := s.repomanager.Submissions(s.db).List(ctx, submissions.Filter{
		Status: models.StatusApproved,
		Limit:  s.pageSize + 1,
		Offset: (page - 1) * s.pageSize,
	})
	if err != nil {
		return nil, err
	}

	p := &GalleryPage{Page: page, PageSize: s.pageSize, Items: list}
	if len(list) > s.pageSize {
		p.HasMore = true
		p.Items = list[:s.pageSize]
	}
	for _, sub := range p.Items {
		sub.ContributorEmail = nil
	}
	if err := attachPhotos(ctx, s.repomanager.Photos(s.db), s.gateway, p.Items); err != nil {
		return nil, err
	}
	if p.Items == nil {
		p.Items = []*models.Submission{}
	}

	// A page read before a purge is served once but not cached.
	s.mu.Lock()
	if s.generation == generation {
		s.cache.Add(page, p)
	}
	s.mu.Unlock()
	return p, nil
}

// Invalidate drops every cached page, including pages being read now.
func (s *GalleryService) Invalidate() {
	s.mu.Lock()
	s.generation++
	s.cache.Purge()
	s.mu.Unlock()
}

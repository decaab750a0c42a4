package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/logging"
	"github.com/dmitrijs2005/memorial/internal/server/staging"
	"github.com/google/uuid"
)

// Submitter promotes a draft into a stored memory.
type Submitter interface {
	Submit(ctx context.Context, d Draft, staged []staging.StagedFile) (*SubmitReport, error)
}

type draft struct {
	// mu is held by every operation that changes the queue, including a
	// whole submit. Holders must re-check that the draft is still open.
	mu      sync.Mutex
	queue   *staging.Queue
	touched time.Time
}

// DraftService keeps the staging queue of every open form. Drafts idle for
// longer than the TTL are swept and their files released.
type DraftService struct {
	mu        sync.Mutex
	drafts    map[string]*draft
	policy    staging.Policy
	spool     *staging.Spool
	previews  *staging.Previews
	submitter Submitter
	ttl       time.Duration
	logger    logging.Logger
	now       func() time.Time
}

func NewDraftService(policy staging.Policy, spool *staging.Spool, submitter Submitter, ttl time.Duration, logger logging.Logger) *DraftService {
	return &DraftService{
		drafts:    make(map[string]*draft),
		policy:    policy,
		spool:     spool,
		previews:  staging.NewPreviews(),
		submitter: submitter,
		ttl:       ttl,
		logger:    logger.With("module", "drafts"),
		now:       time.Now,
	}
}

func (s *DraftService) Policy() staging.Policy {
	return s.policy
}

// Create opens an empty draft and returns its id.
func (s *DraftService) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.drafts[id] = &draft{
		queue:   staging.NewQueue(s.policy, s.spool, s.previews),
		touched: s.now(),
	}
	s.mu.Unlock()
	return id
}

func (s *DraftService) get(id string) (*draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, common.ErrNotFound)
	}
	d.touched = s.now()
	return d, nil
}

// acquire returns the draft with its lock held. It fails with
// common.ErrNotFound when the draft was submitted, discarded or swept while
// the caller waited for the lock.
func (s *DraftService) acquire(id string) (*draft, error) {
	d, err := s.get(id)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()

	s.mu.Lock()
	cur, ok := s.drafts[id]
	s.mu.Unlock()
	if !ok || cur != d {
		d.mu.Unlock()
		return nil, fmt.Errorf("draft %s: %w", id, common.ErrNotFound)
	}
	return d, nil
}

func (s *DraftService) Items(id string) ([]staging.StagedFile, error) {
	d, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return d.queue.Items(), nil
}

// Stage screens files and adds the accepted ones to the draft.
func (s *DraftService) Stage(id string, files []staging.RawFile) (staging.Result, error) {
	d, err := s.acquire(id)
	if err != nil {
		return staging.Result{}, err
	}
	defer d.mu.Unlock()
	return d.queue.Stage(files)
}

func (s *DraftService) Remove(id string, index int) error {
	d, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer d.mu.Unlock()
	return mapQueueErr(d.queue.Remove(index))
}

func (s *DraftService) Caption(id string, index int, text string) error {
	d, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer d.mu.Unlock()
	return mapQueueErr(d.queue.UpdateCaption(index, text))
}

func (s *DraftService) Move(id string, from, to int) error {
	d, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer d.mu.Unlock()
	return mapQueueErr(d.queue.Move(from, to))
}

// Discard releases every staged file and forgets the draft.
func (s *DraftService) Discard(id string) error {
	d, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer d.mu.Unlock()

	s.forget(id)
	return d.queue.Clear()
}

func (s *DraftService) forget(id string) {
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
}

// Submit hands the draft to the submitter. On success, or when the draft is
// discarded as automated, the staged files are released and the draft is
// forgotten. On error the draft is kept so the visitor can retry.
//
// The draft is locked for the whole submit, so edits wait for it and then
// find the draft gone. A second submit of the same draft gets
// common.ErrNotFound instead of storing another memory.
func (s *DraftService) Submit(ctx context.Context, id string, form Draft) (*SubmitReport, error) {
	d, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer d.mu.Unlock()

	report, err := s.submitter.Submit(ctx, form, d.queue.Items())
	if err != nil {
		return nil, err
	}

	s.forget(id)
	if err := d.queue.Clear(); err != nil {
		s.logger.Warn(ctx, "staged files not released", "draft_id", id, "error", err)
	}
	return report, nil
}

// Preview resolves a preview token to its staged content.
func (s *DraftService) Preview(token string) (*staging.SpooledFile, error) {
	sf, err := s.previews.Resolve(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNotFound, err)
	}
	return sf, nil
}

// Sweep discards drafts idle since before now-TTL and returns how many.
func (s *DraftService) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*draft
	for id, d := range s.drafts {
		if d.touched.Before(cutoff) {
			expired = append(expired, d)
			delete(s.drafts, id)
		}
	}
	s.mu.Unlock()

	for _, d := range expired {
		if err := release(d); err != nil {
			s.logger.Warn(ctx, "expired draft not fully released", "error", err)
		}
	}
	if len(expired) > 0 {
		s.logger.Info(ctx, "expired drafts swept", "count", len(expired))
	}
	return len(expired)
}

// RunJanitor sweeps every interval until ctx is done.
func (s *DraftService) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Close releases every open draft.
func (s *DraftService) Close() error {
	s.mu.Lock()
	all := s.drafts
	s.drafts = make(map[string]*draft)
	s.mu.Unlock()

	var errs []error
	for _, d := range all {
		errs = append(errs, release(d))
	}
	return errors.Join(errs...)
}

// release clears a draft already taken out of the registry, waiting for a
// submit in progress to finish with its files.
func release(d *draft) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Clear()
}

// Len is the number of open drafts.
func (s *DraftService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// LivePreviews is the number of preview tokens not yet revoked.
func (s *DraftService) LivePreviews() int {
	return s.previews.Len()
}

func mapQueueErr(err error) error {
	if errors.Is(err, staging.ErrNoSuchItem) {
		return fmt.Errorf("%w: %v", common.ErrNotFound, err)
	}
	return err
}

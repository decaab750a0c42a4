package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/dbx"
	"github.com/dmitrijs2005/memorial/internal/logging"
	"github.com/dmitrijs2005/memorial/internal/server/models"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/submissions"
	"github.com/dmitrijs2005/memorial/internal/server/storage"
)

// ModerationService is the admin view over submissions. Every mutation
// calls the change hook so cached public pages are rebuilt.
type ModerationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gateway     storage.Gateway
	logger      logging.Logger
	onChange    func()
}

func NewModerationService(db *sql.DB, m repomanager.RepositoryManager, gw storage.Gateway, logger logging.Logger, onChange func()) *ModerationService {
	if onChange == nil {
		onChange = func() {}
	}
	return &ModerationService{
		db:          db,
		repomanager: m,
		gateway:     gw,
		logger:      logger.With("module", "moderation"),
		onChange:    onChange,
	}
}

// List returns submissions with their photos, newest first. An empty status
// lists every submission.
func (s *ModerationService) List(ctx context.Context, status string) ([]*models.Submission, error) {
	f := submissions.Filter{}
	if status != "" && status != "all" {
		st, err := models.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		f.Status = st
	}

	list, err := s.repomanager.Submissions(s.db).List(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := attachPhotos(ctx, s.repomanager.Photos(s.db), s.gateway, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Stats counts submissions per status.
func (s *ModerationService) Stats(ctx context.Context) (map[models.Status]int, error) {
	return s.repomanager.Submissions(s.db).CountByStatus(ctx)
}

func (s *ModerationService) SetStatus(ctx context.Context, id, status string) error {
	st, err := models.ParseStatus(status)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := s.repomanager.Submissions(s.db).SetStatus(ctx, id, st); err != nil {
		return err
	}
	s.logger.Info(ctx, "status changed", "submission_id", id, "status", st)
	s.onChange()
	return nil
}

func (s *ModerationService) UpdateBody(ctx context.Context, id, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return fmt.Errorf("%w: body is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return fmt.Errorf("%w: body is longer than %d characters", common.ErrValidation, MaxBodyLength)
	}
	if err := s.repomanager.Submissions(s.db).UpdateBody(ctx, id, body); err != nil {
		return err
	}
	s.onChange()
	return nil
}

// DeleteSubmission removes the stored objects of every photo, then the
// submission with its photo rows, in one transaction. Object removal is
// best effort; the row delete decides the outcome.
func (s *ModerationService) DeleteSubmission(ctx context.Context, id string) error {
	removed := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		list, err := s.repomanager.Photos(tx).ListBySubmission(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range list {
			s.deleteObject(ctx, p.StoragePath)
		}
		removed = len(list)
		return s.repomanager.Submissions(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrDelete, err)
	}
	s.logger.Info(ctx, "submission deleted", "submission_id", id, "photos", removed)
	s.onChange()
	return nil
}

// DeletePhoto removes one attachment. Object removal is best effort.
func (s *ModerationService) DeletePhoto(ctx context.Context, id string) error {
	repo := s.repomanager.Photos(s.db)
	p, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	s.deleteObject(ctx, p.StoragePath)

	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrDelete, err)
	}
	s.onChange()
	return nil
}

func (s *ModerationService) deleteObject(ctx context.Context, key string) {
	if err := s.gateway.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "object not deleted", "key", key, "error", err)
	}
}

type photoLister interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]*models.Photo, error)
}

func attachPhotos(ctx context.Context, repo photoLister, gw storage.Gateway, list []*models.Submission) error {
	for _, sub := range list {
		photos, err := repo.ListBySubmission(ctx, sub.ID)
		if err != nil {
			return err
		}
		for _, p := range photos {
			p.URL = gw.PublicURL(p.StoragePath)
		}
		sub.Photos = photos
	}
	return nil
}

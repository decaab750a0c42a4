package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/logging"
	"github.com/dmitrijs2005/memorial/internal/server/models"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memorial/internal/server/staging"
	"github.com/dmitrijs2005/memorial/internal/server/storage"
)

// Field limits in characters.
const (
	MaxTitleLength        = 150
	MaxBodyLength         = 2000
	MaxNameLength         = 100
	MaxRelationshipLength = 100
	MaxEmailLength        = 255
)

// Draft is the text part of a memory as typed into the form.
type Draft struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Email        string `json:"email"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Consent      bool   `json:"consent"`

	// Website is a field hidden from people. Anything in it marks the
	// submission as automated.
	Website string `json:"website"`
}

// Validate checks the draft without any side effect.
func (d Draft) Validate() error {
	var problems []string
	title, body := strings.TrimSpace(d.Title), strings.TrimSpace(d.Body)

	if title == "" {
		problems = append(problems, "title is required")
	}
	if body == "" {
		problems = append(problems, "body is required")
	}
	if !d.Consent {
		problems = append(problems, "consent is required")
	}
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"title", title, MaxTitleLength},
		{"body", body, MaxBodyLength},
		{"name", strings.TrimSpace(d.Name), MaxNameLength},
		{"relationship", strings.TrimSpace(d.Relationship), MaxRelationshipLength},
		{"email", strings.TrimSpace(d.Email), MaxEmailLength},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			problems = append(problems, fmt.Sprintf("%s is longer than %d characters", f.name, f.max))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// PhotoOutcome is the fate of one staged file during promotion.
type PhotoOutcome struct {
	Index       int
	Name        string
	PhotoID     string
	StoragePath string
	URL         string
	Err         error
}

// SubmitReport tells the caller what was actually saved.
type SubmitReport struct {
	SubmissionID string
	// Discarded is set when the draft was dropped as automated. Nothing was
	// stored.
	Discarded bool
	Photos    []PhotoOutcome
}

// Stored counts the photos that were saved.
func (r *SubmitReport) Stored() int {
	n := 0
	for _, p := range r.Photos {
		if p.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the outcomes of the photos that were not saved.
func (r *SubmitReport) Failed() []PhotoOutcome {
	var out []PhotoOutcome
	for _, p := range r.Photos {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

type SubmissionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gateway     storage.Gateway
	logger      logging.Logger
}

func NewSubmissionService(db *sql.DB, m repomanager.RepositoryManager, gw storage.Gateway, logger logging.Logger) *SubmissionService {
	return &SubmissionService{
		db:          db,
		repomanager: m,
		gateway:     gw,
		logger:      logger.With("module", "submissions"),
	}
}

// Submit stores a memory and promotes its staged files, in order, into
// photos. The submission row is created first. A failed create aborts with
// common.ErrCreate and nothing is uploaded. Each staged file is then
// uploaded and recorded on its own: a failure is logged, reported in its
// PhotoOutcome and does not stop the files after it. Order indexes are the
// staged positions, so a failed file leaves a gap.
//
// Submit never touches the staged files themselves; releasing them is up to
// the caller.
func (s *SubmissionService) Submit(ctx context.Context, d Draft, staged []staging.StagedFile) (*SubmitReport, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Website) != "" {
		s.logger.Warn(ctx, "submission discarded", "reason", "honeypot")
		return &SubmitReport{Discarded: true}, nil
	}

	sub := &models.Submission{
		ContributorName:         optional(d.Name),
		ContributorRelationship: optional(d.Relationship),
		ContributorEmail:        optional(d.Email),
		Title:                   strings.TrimSpace(d.Title),
		Body:                    strings.TrimSpace(d.Body),
		ConsentGiven:            d.Consent,
	}
	if err := s.repomanager.Submissions(s.db).Create(ctx, sub); err != nil {
		s.logger.Error(ctx, "create submission failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrCreate, err)
	}

	log := s.logger.With("submission_id", sub.ID)
	report := &SubmitReport{SubmissionID: sub.ID, Photos: make([]PhotoOutcome, 0, len(staged))}
	photos := s.repomanager.Photos(s.db)

	for i, f := range staged {
		out := PhotoOutcome{Index: i, Name: f.Name}
		photo, err := s.promote(ctx, photos, sub.ID, i, f)
		if err != nil {
			log.Error(ctx, "photo not stored", "index", i, "name", f.Name, "error", err)
			out.Err = err
		} else {
			out.PhotoID = photo.ID
			out.StoragePath = photo.StoragePath
			out.URL = photo.URL
		}
		report.Photos = append(report.Photos, out)
	}

	log.Info(ctx, "submission stored", "photos", report.Stored(), "failed", len(staged)-report.Stored())
	return report, nil
}

type photoCreator interface {
	Create(ctx context.Context, p *models.Photo) error
}

func (s *SubmissionService) promote(ctx context.Context, repo photoCreator, submissionID string, index int, f staging.StagedFile) (*models.Photo, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpload, err)
	}
	defer rc.Close()

	key, err := s.gateway.Upload(ctx, storage.ObjectKey(submissionID, f.Name, f.ContentType), rc, f.Size, f.ContentType)
	if err != nil {
		if !errors.Is(err, common.ErrUpload) {
			err = fmt.Errorf("%w: %v", common.ErrUpload, err)
		}
		return nil, err
	}

	mediaType := models.MediaImage
	if staging.IsVideo(f.ContentType) {
		mediaType = models.MediaVideo
	}
	photo := &models.Photo{
		SubmissionID: submissionID,
		StoragePath:  key,
		Caption:      optional(f.Caption),
		OrderIndex:   index,
		MediaType:    mediaType,
	}
	if err := repo.Create(ctx, photo); err != nil {
		if derr := s.gateway.Delete(ctx, key); derr != nil {
			s.logger.Warn(ctx, "orphaned object left in storage", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("%w: record photo: %v", common.ErrUpload, err)
	}
	photo.URL = s.gateway.PublicURL(key)
	return photo, nil
}

// optional trims s and maps an empty result to nil.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

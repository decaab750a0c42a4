package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/dbx"
	"github.com/dmitrijs2005/memorial/internal/logging"
	"github.com/dmitrijs2005/memorial/internal/server/models"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/carousel"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/photos"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/submissions"
	"github.com/stretchr/testify/require"
)

// trace records the order of remote calls across fakes.
type trace struct {
	mu     sync.Mutex
	events []string
}

func (t *trace) add(format string, args ...any) {
	t.mu.Lock()
	t.events = append(t.events, fmt.Sprintf(format, args...))
	t.mu.Unlock()
}

func (t *trace) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

type fakeGateway struct {
	trace     *trace
	objects   map[string]string
	uploadErr func(key, body string) error
	deleteErr error
}

func newFakeGateway(tr *trace) *fakeGateway {
	return &fakeGateway{trace: tr, objects: map[string]string{}}
}

func (g *fakeGateway) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	g.trace.add("upload %s", string(b))
	if g.uploadErr != nil {
		if err := g.uploadErr(key, string(b)); err != nil {
			return "", err
		}
	}
	g.objects[key] = string(b)
	return key, nil
}

func (g *fakeGateway) PublicURL(key string) string {
	return "https://cdn.test/bucket/" + key
}

func (g *fakeGateway) Delete(_ context.Context, key string) error {
	g.trace.add("delete object %s", key)
	if g.deleteErr != nil {
		return g.deleteErr
	}
	delete(g.objects, key)
	return nil
}

type fakeSubmissions struct {
	submissions.Repository
	trace     *trace
	rows      map[string]*models.Submission
	seq       int
	createErr error
	deleteErr error
	// afterList runs once List has read its rows.
	afterList func()
}

func (f *fakeSubmissions) Create(_ context.Context, s *models.Submission) error {
	f.trace.add("create submission %s", s.Title)
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	s.ID = fmt.Sprintf("sub-%d", f.seq)
	s.Status = models.StatusPending
	s.CreatedAt = time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSubmissions) List(_ context.Context, flt submissions.Filter) ([]*models.Submission, error) {
	var out []*models.Submission
	for _, s := range f.rows {
		if flt.Status == "" || s.Status == flt.Status {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if flt.Limit > 0 {
		if flt.Offset >= len(out) {
			return nil, nil
		}
		out = out[flt.Offset:min(len(out), flt.Offset+flt.Limit)]
	}
	if f.afterList != nil {
		f.afterList()
	}
	return out, nil
}

func (f *fakeSubmissions) CountByStatus(context.Context) (map[models.Status]int, error) {
	counts := map[models.Status]int{}
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, s := range f.rows {
		counts[s.Status]++
	}
	return counts, nil
}

func (f *fakeSubmissions) SetStatus(_ context.Context, id string, st models.Status) error {
	s, ok := f.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	s.Status = st
	return nil
}

func (f *fakeSubmissions) UpdateBody(_ context.Context, id, body string) error {
	s, ok := f.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	s.Body = body
	return nil
}

func (f *fakeSubmissions) Delete(_ context.Context, id string) error {
	f.trace.add("delete submission %s", id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakePhotos struct {
	photos.Repository
	trace     *trace
	rows      []*models.Photo
	seq       int
	createErr func(p *models.Photo) error
}

func (f *fakePhotos) Create(_ context.Context, p *models.Photo) error {
	f.trace.add("insert photo %d", p.OrderIndex)
	if f.createErr != nil {
		if err := f.createErr(p); err != nil {
			return err
		}
	}
	f.seq++
	p.ID = fmt.Sprintf("photo-%d", f.seq)
	cp := *p
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakePhotos) Get(_ context.Context, id string) (*models.Photo, error) {
	for _, p := range f.rows {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakePhotos) ListBySubmission(_ context.Context, submissionID string) ([]*models.Photo, error) {
	var out []*models.Photo
	for _, p := range f.rows {
		if p.SubmissionID == submissionID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (f *fakePhotos) Delete(_ context.Context, id string) error {
	for i, p := range f.rows {
		if p.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeCarousel struct {
	carousel.Repository
	rows      []*models.CarouselPhoto
	seq       int
	createErr error
	deleteErr error
}

func (f *fakeCarousel) Create(_ context.Context, p *models.CarouselPhoto) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	p.ID = fmt.Sprintf("hero-%d", f.seq)
	cp := *p
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeCarousel) Get(_ context.Context, id string) (*models.CarouselPhoto, error) {
	for _, p := range f.rows {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeCarousel) List(context.Context) ([]*models.CarouselPhoto, error) {
	out := make([]*models.CarouselPhoto, 0, len(f.rows))
	for _, p := range f.rows {
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RowNumber != out[j].RowNumber {
			return out[i].RowNumber < out[j].RowNumber
		}
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out, nil
}

func (f *fakeCarousel) RowNumbers(context.Context) ([]int, error) {
	out := make([]int, 0, len(f.rows))
	for _, p := range f.rows {
		out = append(out, p.RowNumber)
	}
	return out, nil
}

func (f *fakeCarousel) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, p := range f.rows {
		if p.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	subs     *fakeSubmissions
	photos   *fakePhotos
	carousel *fakeCarousel
}

func (m *fakeRepoManager) Submissions(dbx.DBTX) submissions.Repository { return m.subs }
func (m *fakeRepoManager) Photos(dbx.DBTX) photos.Repository           { return m.photos }
func (m *fakeRepoManager) Carousel(dbx.DBTX) carousel.Repository       { return m.carousel }

type env struct {
	db    *sql.DB
	mock  sqlmock.Sqlmock
	trace *trace
	gw    *fakeGateway
	rm    *fakeRepoManager
	log   logging.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tr := &trace{}
	subs := &fakeSubmissions{trace: tr, rows: map[string]*models.Submission{}}
	return &env{
		db:    db,
		mock:  mock,
		trace: tr,
		gw:    newFakeGateway(tr),
		rm: &fakeRepoManager{
			subs:     subs,
			photos:   &fakePhotos{trace: tr},
			carousel: &fakeCarousel{},
		},
		log: logging.Discard(),
	}
}

func hasPrefix(events []string, prefix string) int {
	n := 0
	for _, e := range events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

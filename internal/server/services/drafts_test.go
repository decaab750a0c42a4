package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/logging"
	"github.com/dmitrijs2005/memorial/internal/server/staging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDrafts(t *testing.T, e *env, ttl time.Duration) (*DraftService, *staging.Spool) {
	t.Helper()
	spool, err := staging.NewSpool(t.TempDir())
	require.NoError(t, err)
	svc := NewDraftService(testPolicy, spool, NewSubmissionService(e.db, e.rm, e.gw, e.log), ttl, e.log)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, spool
}

func spoolLen(t *testing.T, s *staging.Spool) int {
	t.Helper()
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	return len(entries)
}

func oversized(name string, size int64) staging.RawFile {
	return staging.RawFile{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        size,
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("oversized file must not be read")
		},
	}
}

func TestDrafts_SummerTrip(t *testing.T) {
	e := newEnv(t)
	drafts, spool := newDrafts(t, e, time.Hour)
	ctx := context.Background()

	id := drafts.Create()
	res, err := drafts.Stage(id, []staging.RawFile{img("lake.jpg"), oversized("panorama.jpg", 25<<20)})
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, staging.ReasonTooLarge, res.Rejections[0].Reason)
	assert.Equal(t, "panorama.jpg", res.Rejections[0].File.Name)

	require.NoError(t, drafts.Caption(id, 0, "Sunset at the lake"))

	report, err := drafts.Submit(ctx, id, Draft{Title: "Summer Trip", Body: "The summer we all went north.", Consent: true})
	require.NoError(t, err)
	require.Equal(t, 1, report.Stored())

	photos, err := e.rm.photos.ListBySubmission(ctx, report.SubmissionID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, 0, photos[0].OrderIndex)
	assert.Equal(t, "Sunset at the lake", *photos[0].Caption)

	assert.Equal(t, 0, drafts.Len())
	assert.Equal(t, 0, drafts.LivePreviews())
	assert.Equal(t, 0, spoolLen(t, spool))

	_, err = drafts.Items(id)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDrafts_ValidationKeepsDraft(t *testing.T) {
	e := newEnv(t)
	drafts, spool := newDrafts(t, e, time.Hour)

	id := drafts.Create()
	_, err := drafts.Stage(id, []staging.RawFile{img("a.jpg"), img("b.jpg")})
	require.NoError(t, err)

	_, err = drafts.Submit(context.Background(), id, Draft{Title: "", Body: "text", Consent: true})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, e.trace.list())

	items, err := drafts.Items(id)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, drafts.LivePreviews())
	assert.Equal(t, 2, spoolLen(t, spool))
}

func TestDrafts_CreateErrorKeepsDraft(t *testing.T) {
	e := newEnv(t)
	e.rm.subs.createErr = errors.New("db down")
	drafts, _ := newDrafts(t, e, time.Hour)

	id := drafts.Create()
	_, err := drafts.Stage(id, []staging.RawFile{img("a.jpg")})
	require.NoError(t, err)

	_, err = drafts.Submit(context.Background(), id, validDraft())
	require.ErrorIs(t, err, common.ErrCreate)
	assert.Equal(t, 1, drafts.Len())
}

func TestDrafts_HoneypotReleasesDraft(t *testing.T) {
	e := newEnv(t)
	drafts, spool := newDrafts(t, e, time.Hour)

	id := drafts.Create()
	_, err := drafts.Stage(id, []staging.RawFile{img("a.jpg")})
	require.NoError(t, err)

	d := validDraft()
	d.Website = "x"
	report, err := drafts.Submit(context.Background(), id, d)
	require.NoError(t, err)
	assert.True(t, report.Discarded)
	assert.Equal(t, 0, drafts.Len())
	assert.Equal(t, 0, spoolLen(t, spool))
}

func TestDrafts_EditOperations(t *testing.T) {
	e := newEnv(t)
	drafts, _ := newDrafts(t, e, time.Hour)

	id := drafts.Create()
	_, err := drafts.Stage(id, []staging.RawFile{img("a.jpg"), img("b.jpg"), img("c.jpg")})
	require.NoError(t, err)

	require.NoError(t, drafts.Move(id, 2, 0))
	require.NoError(t, drafts.Remove(id, 1))
	items, err := drafts.Items(id)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c.jpg", items[0].Name)
	assert.Equal(t, "b.jpg", items[1].Name)

	sf, err := drafts.Preview(items[0].PreviewToken)
	require.NoError(t, err)
	assert.Equal(t, int64(len("c.jpg")), sf.Size())

	require.ErrorIs(t, drafts.Remove(id, 5), common.ErrNotFound)
	require.ErrorIs(t, drafts.Caption(id, -1, "x"), common.ErrNotFound)
	require.ErrorIs(t, drafts.Move("nope", 0, 1), common.ErrNotFound)

	require.NoError(t, drafts.Discard(id))
	_, err = drafts.Preview(items[0].PreviewToken)
	require.ErrorIs(t, err, common.ErrNotFound)
	require.ErrorIs(t, drafts.Discard(id), common.ErrNotFound)
}

func TestDrafts_StageRespectsLimit(t *testing.T) {
	e := newEnv(t)
	drafts, _ := newDrafts(t, e, time.Hour)

	id := drafts.Create()
	res, err := drafts.Stage(id, images(12, "p"))
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 10)
	assert.Len(t, res.Rejections, 2)

	res, err = drafts.Stage(id, images(1, "q"))
	require.NoError(t, err)
	assert.Empty(t, res.Accepted)
	assert.Equal(t, staging.ReasonLimitReached, res.Rejections[0].Reason)
}

func TestDrafts_SweepReleasesIdleDrafts(t *testing.T) {
	e := newEnv(t)
	drafts, spool := newDrafts(t, e, time.Hour)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	drafts.now = func() time.Time { return now }

	idle := drafts.Create()
	_, err := drafts.Stage(idle, []staging.RawFile{img("a.jpg")})
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	active := drafts.Create()
	_, err = drafts.Stage(active, []staging.RawFile{img("b.jpg")})
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, drafts.Sweep(context.Background()))
	assert.Equal(t, 1, drafts.Len())
	assert.Equal(t, 1, drafts.LivePreviews())
	assert.Equal(t, 1, spoolLen(t, spool))

	_, err = drafts.Items(idle)
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = drafts.Items(active)
	require.NoError(t, err)
}

func TestDrafts_RunJanitorStopsOnCancel(t *testing.T) {
	e := newEnv(t)
	drafts, _ := newDrafts(t, e, time.Nanosecond)
	drafts.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- drafts.RunJanitor(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool { return drafts.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestDrafts_CloseReleasesEverything(t *testing.T) {
	e := newEnv(t)
	drafts, spool := newDrafts(t, e, time.Hour)

	for i := 0; i < 3; i++ {
		id := drafts.Create()
		_, err := drafts.Stage(id, images(2, "f"))
		require.NoError(t, err)
	}
	require.Equal(t, 6, spoolLen(t, spool))

	require.NoError(t, drafts.Close())
	assert.Equal(t, 0, drafts.Len())
	assert.Equal(t, 0, drafts.LivePreviews())
	assert.Equal(t, 0, spoolLen(t, spool))
}

// gateSubmitter blocks inside Submit until released.
type gateSubmitter struct {
	entered chan struct{}
	release chan struct{}
	err     error

	mu     sync.Mutex
	staged []int
}

func newGateSubmitter() *gateSubmitter {
	return &gateSubmitter{entered: make(chan struct{}, 4), release: make(chan struct{})}
}

func (g *gateSubmitter) Submit(_ context.Context, _ Draft, staged []staging.StagedFile) (*SubmitReport, error) {
	g.mu.Lock()
	g.staged = append(g.staged, len(staged))
	g.mu.Unlock()

	g.entered <- struct{}{}
	<-g.release
	if g.err != nil {
		return nil, g.err
	}
	return &SubmitReport{SubmissionID: "s1"}, nil
}

func (g *gateSubmitter) calls() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.staged...)
}

func newGatedDrafts(t *testing.T) (*DraftService, *gateSubmitter, *staging.Spool) {
	t.Helper()
	spool, err := staging.NewSpool(t.TempDir())
	require.NoError(t, err)
	g := newGateSubmitter()
	svc := NewDraftService(testPolicy, spool, g, time.Hour, logging.Discard())
	t.Cleanup(func() { _ = svc.Close() })
	return svc, g, spool
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("operation did not return")
		return nil
	}
}

func assertBlocked(t *testing.T, ch <-chan error) {
	t.Helper()
	select {
	case err := <-ch:
		t.Fatalf("returned while submit in progress: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDrafts_DoubleSubmitStoresOnce(t *testing.T) {
	drafts, gate, _ := newGatedDrafts(t)
	ctx := context.Background()
	form := Draft{Title: "t", Body: "b", Consent: true}

	id := drafts.Create()
	_, err := drafts.Stage(id, []staging.RawFile{img("a.jpg")})
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		_, err := drafts.Submit(ctx, id, form)
		first <- err
	}()
	<-gate.entered

	second := make(chan error, 1)
	go func() {
		_, err := drafts.Submit(ctx, id, form)
		second <- err
	}()
	assertBlocked(t, second)

	close(gate.release)
	require.NoError(t, waitErr(t, first))
	require.ErrorIs(t, waitErr(t, second), common.ErrNotFound)
	assert.Equal(t, []int{1}, gate.calls())
}

func TestDrafts_EditsWaitForSubmit(t *testing.T) {
	drafts, gate, spool := newGatedDrafts(t)
	ctx := context.Background()

	id := drafts.Create()
	_, err := drafts.Stage(id, []staging.RawFile{img("a.jpg")})
	require.NoError(t, err)

	submitted := make(chan error, 1)
	go func() {
		_, err := drafts.Submit(ctx, id, Draft{Title: "t", Body: "b", Consent: true})
		submitted <- err
	}()
	<-gate.entered

	staged := make(chan error, 1)
	go func() {
		_, err := drafts.Stage(id, []staging.RawFile{img("late.jpg")})
		staged <- err
	}()
	discarded := make(chan error, 1)
	go func() { discarded <- drafts.Discard(id) }()

	assertBlocked(t, staged)
	assertBlocked(t, discarded)
	assert.Equal(t, 1, spoolLen(t, spool), "submitted file still readable")

	close(gate.release)
	require.NoError(t, waitErr(t, submitted))
	assert.ErrorIs(t, waitErr(t, staged), common.ErrNotFound, "late file is refused, not dropped")
	assert.ErrorIs(t, waitErr(t, discarded), common.ErrNotFound)
	assert.Equal(t, []int{1}, gate.calls())
	assert.Equal(t, 0, spoolLen(t, spool))
	assert.Equal(t, 0, drafts.LivePreviews())
}

func TestDrafts_EditAfterFailedSubmit(t *testing.T) {
	drafts, gate, _ := newGatedDrafts(t)
	gate.err = fmt.Errorf("%w: db down", common.ErrCreate)
	ctx := context.Background()

	id := drafts.Create()
	_, err := drafts.Stage(id, []staging.RawFile{img("a.jpg")})
	require.NoError(t, err)

	submitted := make(chan error, 1)
	go func() {
		_, err := drafts.Submit(ctx, id, Draft{Title: "t", Body: "b", Consent: true})
		submitted <- err
	}()
	<-gate.entered

	staged := make(chan error, 1)
	go func() {
		_, err := drafts.Stage(id, []staging.RawFile{img("b.jpg")})
		staged <- err
	}()
	assertBlocked(t, staged)

	close(gate.release)
	require.ErrorIs(t, waitErr(t, submitted), common.ErrCreate)
	require.NoError(t, waitErr(t, staged))

	items, err := drafts.Items(id)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

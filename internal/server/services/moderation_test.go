package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seed stores count submissions with one photo each via the orchestrator.
func seed(t *testing.T, e *env, titles ...string) []string {
	t.Helper()
	svc := NewSubmissionService(e.db, e.rm, e.gw, e.log)
	var ids []string
	for _, title := range titles {
		d := validDraft()
		d.Title = title
		d.Email = "someone@example.org"
		report, err := svc.Submit(context.Background(), d, stage(t, img(title+".jpg")))
		require.NoError(t, err)
		ids = append(ids, report.SubmissionID)
	}
	return ids
}

func TestModeration_ListAndStats(t *testing.T) {
	e := newEnv(t)
	ids := seed(t, e, "one", "two", "three")
	changes := 0
	svc := NewModerationService(e.db, e.rm, e.gw, e.log, func() { changes++ })
	ctx := context.Background()

	require.NoError(t, svc.SetStatus(ctx, ids[0], "approved"))
	require.NoError(t, svc.SetStatus(ctx, ids[1], "rejected"))
	assert.Equal(t, 2, changes)

	pending, err := svc.List(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "three", pending[0].Title)
	require.Len(t, pending[0].Photos, 1)
	assert.True(t, strings.HasPrefix(pending[0].Photos[0].URL, "https://cdn.test/bucket/"+ids[2]+"/"))

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "three", all[0].Title, "newest first")

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.Status]int{
		models.StatusPending:  1,
		models.StatusApproved: 1,
		models.StatusRejected: 1,
	}, stats)
}

func TestModeration_RejectsUnknownStatus(t *testing.T) {
	e := newEnv(t)
	ids := seed(t, e, "one")
	svc := NewModerationService(e.db, e.rm, e.gw, e.log, nil)

	require.ErrorIs(t, svc.SetStatus(context.Background(), ids[0], "published"), common.ErrValidation)
	_, err := svc.List(context.Background(), "deleted")
	require.ErrorIs(t, err, common.ErrValidation)
	require.ErrorIs(t, svc.SetStatus(context.Background(), "missing", "approved"), common.ErrNotFound)
}

func TestModeration_UpdateBody(t *testing.T) {
	e := newEnv(t)
	ids := seed(t, e, "one")
	svc := NewModerationService(e.db, e.rm, e.gw, e.log, nil)
	ctx := context.Background()

	require.NoError(t, svc.UpdateBody(ctx, ids[0], "  edited  "))
	assert.Equal(t, "edited", e.rm.subs.rows[ids[0]].Body)

	require.ErrorIs(t, svc.UpdateBody(ctx, ids[0], "   "), common.ErrValidation)
	require.ErrorIs(t, svc.UpdateBody(ctx, ids[0], strings.Repeat("x", MaxBodyLength+1)), common.ErrValidation)
}

func TestModeration_DeleteSubmissionRemovesObjectsFirst(t *testing.T) {
	e := newEnv(t)
	ids := seed(t, e, "one", "two")
	svc := NewModerationService(e.db, e.rm, e.gw, e.log, nil)
	require.Len(t, e.gw.objects, 2)

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	require.NoError(t, svc.DeleteSubmission(context.Background(), ids[0]))
	assert.Len(t, e.gw.objects, 1)
	assert.NoError(t, e.mock.ExpectationsWereMet())

	events := e.trace.list()
	last := events[len(events)-2:]
	assert.True(t, strings.HasPrefix(last[0], "delete object "+ids[0]+"/"))
	assert.Equal(t, "delete submission "+ids[0], last[1])
}

func TestModeration_DeleteSubmissionStorageBestEffort(t *testing.T) {
	e := newEnv(t)
	ids := seed(t, e, "one")
	e.gw.deleteErr = errors.New("bucket unreachable")
	svc := NewModerationService(e.db, e.rm, e.gw, e.log, nil)

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	require.NoError(t, svc.DeleteSubmission(context.Background(), ids[0]))
	assert.NotContains(t, e.rm.subs.rows, ids[0])
}

func TestModeration_DeleteSubmissionRecordFailure(t *testing.T) {
	e := newEnv(t)
	ids := seed(t, e, "one")
	e.rm.subs.deleteErr = errors.New("db down")
	svc := NewModerationService(e.db, e.rm, e.gw, e.log, nil)

	e.mock.ExpectBegin()
	e.mock.ExpectRollback()
	require.ErrorIs(t, svc.DeleteSubmission(context.Background(), ids[0]), common.ErrDelete)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestModeration_DeleteSubmissionBeginFailure(t *testing.T) {
	e := newEnv(t)
	ids := seed(t, e, "one")
	svc := NewModerationService(e.db, e.rm, e.gw, e.log, nil)

	e.mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
	require.ErrorIs(t, svc.DeleteSubmission(context.Background(), ids[0]), common.ErrDelete)
	assert.Len(t, e.gw.objects, 1, "nothing removed without a transaction")
}

func TestModeration_DeletePhoto(t *testing.T) {
	e := newEnv(t)
	ids := seed(t, e, "one")
	svc := NewModerationService(e.db, e.rm, e.gw, e.log, nil)
	ctx := context.Background()

	photos, err := e.rm.photos.ListBySubmission(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, photos, 1)

	require.NoError(t, svc.DeletePhoto(ctx, photos[0].ID))
	assert.Empty(t, e.gw.objects)
	assert.Empty(t, e.rm.photos.rows)

	require.ErrorIs(t, svc.DeletePhoto(ctx, photos[0].ID), common.ErrNotFound)
}

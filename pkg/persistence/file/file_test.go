package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	t.Parallel()

	p := NewPersistence("/tmp/test")
	fp := p.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)

	p = NewPersistence("file:///tmp/test")
	fp = p.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.ErrorIs(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()), os.ErrNotExist)
}

func TestEnrollmentRepository_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).EnrollmentRepository()

	enrollment := testutil.CreateTestEnrollment("wf-1", func(e *models.Enrollment) { e.ID = "" })
	require.NoError(t, repo.Create(ctx, enrollment))
	require.NotEmpty(t, enrollment.ID)

	err := repo.Create(ctx, enrollment)
	require.ErrorIs(t, err, persistence.ErrEnrollmentAlreadyExists)

	first := []*models.WorkflowExecutionStep{
		testutil.SuccessStep("t", models.NodeTypeManualTrigger, nil),
		testutil.PausedWaitStep("w", time.Now().Add(time.Hour)),
	}

	updated, err := repo.AppendSteps(ctx, enrollment.ID, first, models.EnrollmentStatusInProgress, nil)
	require.NoError(t, err)
	assert.Len(t, updated.Steps, 2)
	assert.Nil(t, updated.CompletedAt)

	completedAt := time.Now().UTC().Truncate(time.Second)
	second := []*models.WorkflowExecutionStep{
		testutil.SuccessStep("w", models.NodeTypeWait, map[string]any{"waited": true}),
	}

	_, err = repo.AppendSteps(ctx, enrollment.ID, second, models.EnrollmentStatusSuccess, &completedAt)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t", "w", "w"}, []string{stored.Steps[0].NodeID, stored.Steps[1].NodeID, stored.Steps[2].NodeID})
	assert.True(t, stored.Steps[1].IsPaused())
	assert.Equal(t, models.EnrollmentStatusSuccess, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, completedAt.Equal(*stored.CompletedAt))

	other := testutil.CreateTestEnrollment("wf-2")
	require.NoError(t, repo.Create(ctx, other))

	list, err := repo.ListByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, enrollment.ID, list[0].ID)

	require.NoError(t, repo.Delete(ctx, enrollment.ID))

	_, err = repo.GetByID(ctx, enrollment.ID)
	assert.ErrorIs(t, err, persistence.ErrEnrollmentNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, enrollment.ID), persistence.ErrEnrollmentNotFound)

	_, err = repo.AppendSteps(ctx, enrollment.ID, second, models.EnrollmentStatusSuccess, nil)
	assert.ErrorIs(t, err, persistence.ErrEnrollmentNotFound)
}

func TestEnrollmentRepository_ConcurrentAppendsKeepEveryStep(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).EnrollmentRepository()

	enrollment := testutil.CreateTestEnrollment("wf-1")
	require.NoError(t, repo.Create(ctx, enrollment))

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := repo.AppendSteps(ctx, enrollment.ID, []*models.WorkflowExecutionStep{
				testutil.SuccessStep("s", models.NodeTypeSendSMS, nil),
			}, models.EnrollmentStatusInProgress, nil)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	stored, err := repo.GetByID(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Steps, 20)
}

func TestScheduleRepository(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).ScheduleRepository()
	now := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrScheduleNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Upsert(ctx, &models.ResumeSchedule{
		EnrollmentID: "late", NodeID: "w", Reason: models.ResumeReasonWait, DueAt: now.Add(time.Hour),
	}))
	require.NoError(t, repo.Upsert(ctx, &models.ResumeSchedule{
		EnrollmentID: "early", NodeID: "w", Reason: models.ResumeReasonWait, DueAt: now.Add(-time.Hour),
	}))
	require.NoError(t, repo.Upsert(ctx, &models.ResumeSchedule{
		EnrollmentID: "late", NodeID: "w2", Reason: models.ResumeReasonWait, DueAt: now,
	}))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "early", list[0].EnrollmentID)

	due, err := repo.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "w2", due[1].NodeID)

	require.NoError(t, repo.Delete(ctx, "late"))
	require.NoError(t, repo.Delete(ctx, "late"))

	due, err = repo.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "early", due[0].EnrollmentID)
}

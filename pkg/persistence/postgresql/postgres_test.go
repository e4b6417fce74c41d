package postgresql_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/log"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/persistence/postgresql"
	"github.com/dukex/leadflow/pkg/testutil"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	postgresContainer *postgres.PostgresContainer
	containerMu       sync.Mutex
)

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{"resume_schedules", "enrollment_steps", "enrollments", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	containerMu.Lock()

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("leadflow_test"),
			postgres.WithUsername("leadflow"),
			postgres.WithPassword("leadflow"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			containerMu.Unlock()
			require.NoError(t, err)
		}
	}

	containerMu.Unlock()

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	p, err := postgresql.NewPersistence(ctx, log.Discard(), databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	for _, table := range []string{"workflows", "enrollments", "enrollment_steps", "resume_schedules"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestWorkflowRepository_RoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.WorkflowRepository()

	workflow := testutil.CreateTestWorkflow(testutil.WithPublished())
	workflow.Definition.Settings.SendWindow = &models.SendWindow{
		Enabled: true, StartTime: "09:00", EndTime: "17:00", AllowedDays: []int{1, 2, 3},
	}

	require.NoError(t, repo.Save(ctx, workflow))

	stored, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, stored.Name)
	assert.Equal(t, models.WorkflowStatusPublished, stored.Status)
	require.NotNil(t, stored.PublishedAt)
	require.Len(t, stored.Definition.Nodes, 4)
	assert.Equal(t, float64(1), stored.Definition.Nodes[2].Data["amount"])
	assert.Equal(t, []int{1, 2, 3}, stored.Definition.Settings.SendWindow.AllowedDays)

	stored.Name = "Renamed"
	require.NoError(t, repo.Save(ctx, stored))

	result, err := repo.List(ctx, persistence.ListWorkflowsOptions{})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, "Renamed", result.Workflows[0].Name)
	assert.Equal(t, int64(1), result.TotalCount)

	require.NoError(t, repo.Delete(ctx, workflow.ID))

	_, err = repo.GetByID(ctx, workflow.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, workflow.ID), persistence.ErrWorkflowNotFound)
}

func TestEnrollmentRepository_AppendSteps(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.EnrollmentRepository()

	enrollment := testutil.CreateTestEnrollment("wf-1", func(e *models.Enrollment) {
		e.Options = models.EnrollmentOptions{IgnoreSendWindow: true, Overrides: models.Overrides{Channel: models.ChannelSMS}}
	})
	require.NoError(t, repo.Create(ctx, enrollment))
	assert.ErrorIs(t, repo.Create(ctx, enrollment), persistence.ErrEnrollmentAlreadyExists)

	due := time.Now().Add(time.Hour).UTC()

	updated, err := repo.AppendSteps(ctx, enrollment.ID, []*models.WorkflowExecutionStep{
		testutil.SuccessStep("t", models.NodeTypeManualTrigger, nil),
		testutil.PausedWaitStep("w", due),
	}, models.EnrollmentStatusInProgress, nil)
	require.NoError(t, err)
	require.Len(t, updated.Steps, 2)
	assert.True(t, updated.Steps[1].IsPaused())

	stepDue, ok := updated.Steps[1].DueAt()
	require.True(t, ok)
	assert.WithinDuration(t, due, stepDue, time.Microsecond)

	completedAt := time.Now().UTC()

	updated, err = repo.AppendSteps(ctx, enrollment.ID, []*models.WorkflowExecutionStep{
		{NodeID: "s", NodeType: models.NodeTypeSendSMS, Status: models.StepStatusFailed, Error: "boom",
			StartedAt: completedAt, FinishedAt: completedAt},
	}, models.EnrollmentStatusFailed, nil)
	require.NoError(t, err)
	require.Len(t, updated.Steps, 3)
	assert.Equal(t, "boom", updated.Steps[2].Error)
	assert.Equal(t, models.EnrollmentStatusFailed, updated.Status)
	assert.Nil(t, updated.CompletedAt)

	updated, err = repo.AppendSteps(ctx, enrollment.ID, nil, models.EnrollmentStatusSuccess, &completedAt)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.True(t, updated.Options.IgnoreSendWindow)
	assert.Equal(t, models.ChannelSMS, updated.Options.Overrides.Channel)
	assert.Equal(t, testutil.TestLead(), updated.Lead)

	list, err := repo.ListByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Steps, 3)

	require.NoError(t, repo.Delete(ctx, enrollment.ID))

	_, err = repo.GetByID(ctx, enrollment.ID)
	assert.ErrorIs(t, err, persistence.ErrEnrollmentNotFound)

	_, err = repo.AppendSteps(ctx, enrollment.ID, nil, models.EnrollmentStatusSuccess, nil)
	assert.ErrorIs(t, err, persistence.ErrEnrollmentNotFound)
}

func TestEnrollmentRepository_ConcurrentAppends(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.EnrollmentRepository()

	enrollment := testutil.CreateTestEnrollment("wf-1")
	require.NoError(t, repo.Create(ctx, enrollment))

	var wg sync.WaitGroup

	for range 10 {
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
	assert.Len(t, stored.Steps, 10)
}

func TestScheduleRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.ScheduleRepository()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrScheduleNotFound)

	require.NoError(t, repo.Upsert(ctx, &models.ResumeSchedule{
		EnrollmentID: "a", WorkflowID: "wf", NodeID: "w", Reason: models.ResumeReasonWait, DueAt: now.Add(time.Hour),
	}))
	require.NoError(t, repo.Upsert(ctx, &models.ResumeSchedule{
		EnrollmentID: "b", WorkflowID: "wf", NodeID: "e", Reason: models.ResumeReasonRetry, Attempt: 2, DueAt: now.Add(-time.Minute),
	}))
	require.NoError(t, repo.Upsert(ctx, &models.ResumeSchedule{
		EnrollmentID: "a", WorkflowID: "wf", NodeID: "w", Reason: models.ResumeReasonWait, DueAt: now,
	}))

	stored, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, models.ResumeReasonRetry, stored.Reason)
	assert.Equal(t, 2, stored.Attempt)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].EnrollmentID)

	due, err := repo.Due(ctx, now)
	require.NoError(t, err)
	assert.Len(t, due, 2)

	require.NoError(t, repo.Delete(ctx, "a"))
	require.NoError(t, repo.Delete(ctx, "a"))

	due, err = repo.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "b", due[0].EnrollmentID)
}

package file

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := NewWorkflowRepository(t.TempDir())

	workflow := testutil.CreateTestWorkflow(func(w *models.Workflow) { w.ID = "" })
	require.NoError(t, repo.Save(ctx, workflow))
	require.NotEmpty(t, workflow.ID)

	stored, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, stored.Name)
	assert.Equal(t, []string{"t", "e", "w", "s"}, nodeIDs(stored.Definition))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowRepository_SoftDelete(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := NewWorkflowRepository(t.TempDir())

	workflow := testutil.CreateTestWorkflow()
	require.NoError(t, repo.Save(ctx, workflow))
	require.NoError(t, repo.Delete(ctx, workflow.ID))

	_, err := repo.GetByID(ctx, workflow.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, workflow.ID), persistence.ErrWorkflowNotFound)

	result, err := repo.List(ctx, persistence.ListWorkflowsOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Workflows)
}

// TestWorkflowRepository_List_InvalidSortField tests that invalid sort field returns typed error.
func TestWorkflowRepository_List_InvalidSortField(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())

	tests := []struct {
		name    string
		sortBy  string
		wantErr error
	}{
		{name: "invalid sort field", sortBy: "invalid_field", wantErr: persistence.ErrInvalidSortField},
		{name: "sql injection attempt", sortBy: "name; DROP TABLE workflows; --", wantErr: persistence.ErrInvalidSortField},
		{name: "name", sortBy: "name"},
		{name: "created_at", sortBy: "created_at"},
		{name: "updated_at", sortBy: "updated_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := repo.List(context.Background(), persistence.ListWorkflowsOptions{
				SortBy: tt.sortBy, SortOrder: "asc", Limit: 10,
			})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, persistence.IsInvalidSortField(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestWorkflowRepository_List_FilterAndPaginate(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := NewWorkflowRepository(t.TempDir())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"alpha", "bravo", "charlie", "delta"} {
		workflow := testutil.CreateTestWorkflow(func(w *models.Workflow) {
			w.Name = name
			w.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		})

		if i%2 == 0 {
			testutil.WithPublished()(workflow)
		}

		require.NoError(t, repo.Save(ctx, workflow))
	}

	published := models.WorkflowStatusPublished

	result, err := repo.List(ctx, persistence.ListWorkflowsOptions{Status: &published, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 2)
	assert.Equal(t, "alpha", result.Workflows[0].Name)
	assert.Equal(t, "charlie", result.Workflows[1].Name)

	page, err := repo.List(ctx, persistence.ListWorkflowsOptions{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalCount)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "delta", page.Workflows[0].Name)

	rest, err := repo.List(ctx, persistence.ListWorkflowsOptions{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, rest.Workflows, 1)
	assert.False(t, rest.HasNextPage)
	assert.Equal(t, "alpha", rest.Workflows[0].Name)
}

func nodeIDs(definition models.Definition) []string {
	ids := make([]string, len(definition.Nodes))
	for i, node := range definition.Nodes {
		ids[i] = node.ID
	}

	return ids
}

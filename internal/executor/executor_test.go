package executor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
	storagemem "github.com/lumera/seopilot/internal/storage/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newExecutor(store *storagemem.Store) *Executor {
	clock := fixedClock{t: time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC)}
	return New(store, "reports/patches", "shop.example.com", "ai.example.com", clock, zap.NewNop())
}

func plan(tasks ...*seo.Task) *seo.Plan {
	return &seo.Plan{Tasks: tasks}
}

func TestExecute_ReportTaskSucceedsWithoutArtifacts(t *testing.T) {
	store := storagemem.New()
	task := &seo.Task{ID: "technical_1_20250314060000", Action: seo.ActionReport}

	result := newExecutor(store).Execute(context.Background(), plan(task), "2025-03-14", false)

	require.True(t, result.Success)
	require.Equal(t, 1, result.TasksExecuted)
	require.Empty(t, result.PatchesGenerated)
	require.True(t, task.Executed)
	require.Equal(t, "success", task.ExecutionResult)
	require.Empty(t, store.Paths())
}

func TestExecute_ModifyStorefrontWritesPatch(t *testing.T) {
	store := storagemem.New()
	task := &seo.Task{
		ID:         "technical_2_20250314060000",
		Analyzer:   "technical",
		Action:     seo.ActionModify,
		TargetURL:  "https://shop.example.com/products/tea",
		TargetFile: "templates/product.liquid",
		Changes:    map[string]any{"title": "Organic Tea | Example Shop"},
	}

	result := newExecutor(store).Execute(context.Background(), plan(task), "2025-03-14", false)

	require.True(t, result.Success)
	require.Equal(t, 1, result.TasksExecuted)
	require.Equal(t, []string{"templates/product.liquid"}, result.FilesModified)
	require.Equal(t, []string{"reports/patches/2025-03-14_technical_2_20250314060000.json"}, result.PatchesGenerated)

	data, err := store.Get(context.Background(), result.PatchesGenerated[0])
	require.NoError(t, err)
	var p map[string]any
	require.NoError(t, json.Unmarshal(data, &p))
	require.Equal(t, "technical_2_20250314060000", p["task_id"])
	require.Equal(t, "modify", p["action"])
}

func TestExecute_ModifyAppDomainFailsLoudly(t *testing.T) {
	store := storagemem.New()
	task := &seo.Task{
		ID:        "technical_3_20250314060000",
		Action:    seo.ActionModify,
		TargetURL: "https://ai.example.com/chat",
	}

	result := newExecutor(store).Execute(context.Background(), plan(task), "2025-03-14", false)

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "unmapped target")
	require.False(t, task.Executed)
	require.Contains(t, task.ExecutionResult, "failed")
	require.Empty(t, store.Paths())
}

func TestExecute_TaskFailureIsolated(t *testing.T) {
	store := storagemem.New()
	bad := &seo.Task{ID: "a", Action: seo.ActionModify, TargetURL: "https://ai.example.com/x"}
	good := &seo.Task{ID: "b", Action: seo.ActionReport}

	result := newExecutor(store).Execute(context.Background(), plan(bad, good), "2025-03-14", false)

	require.False(t, result.Success)
	require.Equal(t, 1, result.TasksExecuted)
	require.True(t, good.Executed)
}

func TestExecute_ManualReviewExecutesNothing(t *testing.T) {
	store := storagemem.New()
	task := &seo.Task{ID: "a", Action: seo.ActionReport}
	p := plan(task)
	p.RequireManualReview = true

	result := newExecutor(store).Execute(context.Background(), p, "2025-03-14", false)

	require.True(t, result.Success)
	require.Zero(t, result.TasksExecuted)
	require.False(t, task.Executed)
	require.NotEmpty(t, result.Warnings)
}

func TestExecute_DryRunExecutesNothing(t *testing.T) {
	store := storagemem.New()
	task := &seo.Task{ID: "a", Action: seo.ActionCreate, TargetFile: "snippets/schema.liquid"}

	result := newExecutor(store).Execute(context.Background(), plan(task), "2025-03-14", true)

	require.True(t, result.Success)
	require.Zero(t, result.TasksExecuted)
	require.Empty(t, store.Paths())
	require.False(t, task.Executed)
}

func TestExecute_CreateWritesPatch(t *testing.T) {
	store := storagemem.New()
	task := &seo.Task{
		ID:         "schema_1_20250314060000",
		Action:     seo.ActionCreate,
		TargetFile: "snippets/product-schema.liquid",
		Changes:    map[string]any{"schema_type": "Product"},
	}

	result := newExecutor(store).Execute(context.Background(), plan(task), "2025-03-14", false)

	require.True(t, result.Success)
	require.Equal(t, 1, result.TasksExecuted)
	require.Len(t, result.PatchesGenerated, 1)
}

func TestExecute_DeleteIsNotExecuted(t *testing.T) {
	store := storagemem.New()
	task := &seo.Task{ID: "a", Action: seo.ActionDelete}

	result := newExecutor(store).Execute(context.Background(), plan(task), "2025-03-14", false)

	require.True(t, result.Success)
	require.Zero(t, result.TasksExecuted)
	require.False(t, task.Executed)
	require.NotEmpty(t, result.Warnings)
}

func TestExecute_CountsBlockedTasks(t *testing.T) {
	store := storagemem.New()
	p := plan()
	p.BlockedTasks = []*seo.Task{{ID: "x"}, {ID: "y"}}

	result := newExecutor(store).Execute(context.Background(), p, "2025-03-14", false)

	require.Equal(t, 2, result.TasksBlocked)
}

// Package executor carries out the admitted tasks of an execution plan.
// Nothing is applied to live systems directly: modify and create tasks
// produce patch artifacts for the deploy pipeline, report tasks only
// surface findings.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
	"github.com/lumera/seopilot/internal/storage"
)

// Executor applies plans. Patches land under patchesDir in the store.
type Executor struct {
	store       storage.Store
	patchesDir  string
	primaryHost string
	appHost     string
	clock       seo.Clock
	logger      *zap.Logger
}

// New builds an executor writing patches through the given store.
func New(store storage.Store, patchesDir, primaryHost, appHost string, clock seo.Clock, logger *zap.Logger) *Executor {
	return &Executor{
		store:       store,
		patchesDir:  patchesDir,
		primaryHost: primaryHost,
		appHost:     appHost,
		clock:       clock,
		logger:      logger,
	}
}

// patch is the artifact emitted for a modify or create task.
type patch struct {
	TaskID      string         `json:"task_id"`
	Analyzer    string         `json:"analyzer"`
	Description string         `json:"description"`
	Action      seo.Action     `json:"action"`
	TargetFile  string         `json:"target_file,omitempty"`
	TargetURL   string         `json:"target_url,omitempty"`
	Changes     map[string]any `json:"changes,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GeneratedAt string         `json:"generated_at"`
}

// Execute walks the plan's admitted tasks. A plan flagged for manual
// review executes nothing, as does a dry run. Failures of individual
// tasks are recorded and do not stop the remaining tasks.
func (e *Executor) Execute(ctx context.Context, plan *seo.Plan, runDate string, dryRun bool) *seo.ExecutionResult {
	result := &seo.ExecutionResult{
		Success:          true,
		TasksBlocked:     len(plan.BlockedTasks),
		FilesModified:    []string{},
		PatchesGenerated: []string{},
	}

	if plan.RequireManualReview {
		result.Warnings = append(result.Warnings,
			"plan requires manual review, no tasks executed")
		e.logger.Warn("skipping execution, plan flagged for manual review",
			zap.Int("tasks", len(plan.Tasks)))
		return result
	}

	if dryRun {
		for _, task := range plan.Tasks {
			e.logger.Info("dry run, would execute task",
				zap.String("task_id", task.ID),
				zap.String("action", string(task.Action)),
				zap.String("description", task.Description))
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("dry run, %d tasks not executed", len(plan.Tasks)))
		return result
	}

	for _, task := range plan.Tasks {
		if err := e.executeTask(ctx, task, runDate, result); err != nil {
			task.Executed = false
			task.ExecutionResult = "failed: " + err.Error()
			result.Errors = append(result.Errors,
				fmt.Sprintf("task %s: %v", task.ID, err))
			result.Success = false
			e.logger.Error("task execution failed",
				zap.String("task_id", task.ID), zap.Error(err))
		}
	}

	return result
}

func (e *Executor) executeTask(ctx context.Context, task *seo.Task, runDate string, result *seo.ExecutionResult) error {
	switch task.Action {
	case seo.ActionReport:
		// Findings-only tasks succeed by being surfaced in the report.
		task.Executed = true
		task.ExecutionResult = "success"
		result.TasksExecuted++
		return nil

	case seo.ActionModify:
		host := hostOf(task.TargetURL)
		if host != "" && strings.EqualFold(host, e.appHost) {
			// App pages are rendered by the application, not the theme.
			// There is no file to patch, so failing loudly beats
			// pretending the change was applied.
			return fmt.Errorf("unmapped target %s: %s pages cannot be patched through the theme", task.TargetURL, e.appHost)
		}
		if host != "" && !strings.EqualFold(host, e.primaryHost) {
			return fmt.Errorf("unmapped target %s: host %s is not managed by this pipeline", task.TargetURL, host)
		}
		return e.writePatch(ctx, task, runDate, result)

	case seo.ActionCreate:
		return e.writePatch(ctx, task, runDate, result)

	default:
		task.ExecutionResult = "skipped: action not executed automatically"
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("task %s: action %q is not executed automatically", task.ID, task.Action))
		return nil
	}
}

func (e *Executor) writePatch(ctx context.Context, task *seo.Task, runDate string, result *seo.ExecutionResult) error {
	p := patch{
		TaskID:      task.ID,
		Analyzer:    task.Analyzer,
		Description: task.Description,
		Action:      task.Action,
		TargetFile:  task.TargetFile,
		TargetURL:   task.TargetURL,
		Changes:     task.Changes,
		Metadata:    task.Metadata,
		GeneratedAt: e.clock.Now().Format("2006-01-02T15:04:05Z07:00"),
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}

	patchPath := path.Join(e.patchesDir, fmt.Sprintf("%s_%s.json", runDate, task.ID))
	uri, err := e.store.Put(ctx, patchPath, data)
	if err != nil {
		return fmt.Errorf("write patch artifact: %w", err)
	}

	modified := task.TargetFile
	if modified == "" {
		modified = patchPath
	}
	result.FilesModified = append(result.FilesModified, modified)
	result.PatchesGenerated = append(result.PatchesGenerated, patchPath)
	result.TasksExecuted++
	task.Executed = true
	task.ExecutionResult = "success"

	e.logger.Info("patch artifact written",
		zap.String("task_id", task.ID),
		zap.String("uri", uri))
	return nil
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

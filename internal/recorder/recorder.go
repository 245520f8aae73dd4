// Package recorder persists the artifacts of a pipeline run: crawl data,
// analyzer reports, the task pool, the execution plan, run summaries,
// the cross-run baseline, and the learned success patterns.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
	"github.com/lumera/seopilot/internal/storage"
)

// maxPatterns bounds the successful-patterns history.
const maxPatterns = 100

// Recorder writes artifacts through the configured store.
type Recorder struct {
	store      storage.Store
	runsDir    string
	reportsDir string
	clock      seo.Clock
	logger     *zap.Logger
}

// New builds a recorder writing under runsDir and reportsDir.
func New(store storage.Store, runsDir, reportsDir string, clock seo.Clock, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, runsDir: runsDir, reportsDir: reportsDir, clock: clock, logger: logger}
}

// SaveCrawlData persists the crawl snapshot for the run.
func (r *Recorder) SaveCrawlData(ctx context.Context, runDate string, snapshot seo.Snapshot) error {
	return r.putJSON(ctx, path.Join(r.runsDir, runDate, "crawl_data.json"), snapshot)
}

// SaveReport persists one analyzer's report.
func (r *Recorder) SaveReport(ctx context.Context, runDate string, report seo.Report) error {
	p := path.Join(r.runsDir, runDate, "agent_reports", report.Analyzer+".json")
	return r.putJSON(ctx, p, report)
}

// SaveTasks persists the full task pool of the run.
func (r *Recorder) SaveTasks(ctx context.Context, runDate string, tasks []*seo.Task) error {
	return r.putJSON(ctx, path.Join(r.runsDir, runDate, "all_tasks.json"), tasks)
}

// SavePlan persists the execution plan.
func (r *Recorder) SavePlan(ctx context.Context, runDate string, plan *seo.Plan) error {
	return r.putJSON(ctx, path.Join(r.runsDir, runDate, "execution_plan.json"), plan)
}

// SaveSummary persists the machine-readable summary under the run
// directory, refreshes the latest-run pointer, and renders the
// human-readable markdown report.
func (r *Recorder) SaveSummary(ctx context.Context, summary seo.RunSummary) error {
	if err := r.putJSON(ctx, path.Join(r.runsDir, summary.RunDate, "summary.json"), summary); err != nil {
		return err
	}
	if err := r.putJSON(ctx, path.Join(r.runsDir, "latest_summary.json"), summary); err != nil {
		return err
	}
	md := renderMarkdown(summary)
	if _, err := r.store.Put(ctx, path.Join(r.reportsDir, "summary.md"), []byte(md)); err != nil {
		return fmt.Errorf("write markdown summary: %w", err)
	}
	return nil
}

// LoadLatestSummary returns the most recent run summary, or (nil, nil)
// when no run has completed yet.
func (r *Recorder) LoadLatestSummary(ctx context.Context) (*seo.RunSummary, error) {
	data, err := r.store.Get(ctx, path.Join(r.runsDir, "latest_summary.json"))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest summary: %w", err)
	}
	var s seo.RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode latest summary: %w", err)
	}
	return &s, nil
}

// SaveBaseline stores the snapshot-derived baseline used by the next
// run's change detection.
func (r *Recorder) SaveBaseline(ctx context.Context, baseline seo.Baseline) error {
	return r.putJSON(ctx, path.Join(r.runsDir, "latest_metrics.json"), baseline)
}

// LoadBaseline returns the previous run's baseline, or (nil, nil) when
// no baseline exists yet.
func (r *Recorder) LoadBaseline(ctx context.Context) (*seo.Baseline, error) {
	data, err := r.store.Get(ctx, path.Join(r.runsDir, "latest_metrics.json"))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	var b seo.Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode baseline: %w", err)
	}
	return &b, nil
}

// Pattern is one successfully executed task recorded for reuse.
type Pattern struct {
	TaskID      string     `json:"task_id"`
	Analyzer    string     `json:"analyzer"`
	Description string     `json:"description"`
	Action      seo.Action `json:"action"`
	Priority    int        `json:"priority"`
	Risk        int        `json:"risk"`
	RunDate     string     `json:"run_date"`
}

// RecordPatterns appends the successfully executed tasks to the pattern
// history, keeping only the most recent entries.
func (r *Recorder) RecordPatterns(ctx context.Context, runDate string, tasks []*seo.Task) error {
	patterns, err := r.loadPatterns(ctx)
	if err != nil {
		return err
	}

	for _, t := range tasks {
		if !t.Executed || t.ExecutionResult != "success" {
			continue
		}
		patterns = append(patterns, Pattern{
			TaskID:      t.ID,
			Analyzer:    t.Analyzer,
			Description: t.Description,
			Action:      t.Action,
			Priority:    t.Priority,
			Risk:        t.Risk,
			RunDate:     runDate,
		})
	}

	if len(patterns) > maxPatterns {
		patterns = patterns[len(patterns)-maxPatterns:]
	}

	return r.putJSON(ctx, path.Join(r.reportsDir, "successful_patterns.json"), patterns)
}

func (r *Recorder) loadPatterns(ctx context.Context) ([]Pattern, error) {
	data, err := r.store.Get(ctx, path.Join(r.reportsDir, "successful_patterns.json"))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	var patterns []Pattern
	if err := json.Unmarshal(data, &patterns); err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}
	return patterns, nil
}

func (r *Recorder) putJSON(ctx context.Context, p string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", p, err)
	}
	uri, err := r.store.Put(ctx, p, data)
	if err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	r.logger.Debug("artifact written", zap.String("uri", uri))
	return nil
}

func renderMarkdown(s seo.RunSummary) string {
	var b strings.Builder
	status := "SUCCESS"
	if !s.Success {
		status = "FAILURE"
	}
	fmt.Fprintf(&b, "# SEO Audit Summary %s\n\n", s.RunDate)
	fmt.Fprintf(&b, "**Status:** %s", status)
	if s.DryRun {
		b.WriteString(" (dry run)")
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "- Pages crawled: %d\n", s.PagesCrawled)
	fmt.Fprintf(&b, "- Analyzers run: %d\n", s.AnalyzersRun)
	fmt.Fprintf(&b, "- Tasks found: %d\n", s.TotalTasksFound)
	fmt.Fprintf(&b, "- Tasks executed: %d\n", s.TasksExecuted)
	fmt.Fprintf(&b, "- Tasks blocked: %d\n", s.TasksBlocked)
	fmt.Fprintf(&b, "- Patches generated: %d\n", s.PatchesGenerated)
	fmt.Fprintf(&b, "- Validation passed: %t\n", s.ValidationPassed)

	if len(s.FilesModified) > 0 {
		b.WriteString("\n## Files Modified\n\n")
		for _, f := range s.FilesModified {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
	}
	if len(s.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

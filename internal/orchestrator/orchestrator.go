// Package orchestrator runs the daily audit pipeline end to end: crawl,
// analyze, decide, execute, validate, measure, learn. A phase failure
// aborts the run; failures inside a phase (one analyzer, one task) are
// isolated by the phase itself.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/analyzers"
	"github.com/lumera/seopilot/internal/executor"
	"github.com/lumera/seopilot/internal/gate"
	"github.com/lumera/seopilot/internal/metrics"
	"github.com/lumera/seopilot/internal/planner"
	"github.com/lumera/seopilot/internal/recorder"
	"github.com/lumera/seopilot/internal/seo"
)

// Orchestrator wires the pipeline phases together.
type Orchestrator struct {
	crawler  seo.Crawler
	seeds    []string
	registry *analyzers.Registry
	planner  *planner.Planner
	executor *executor.Executor
	gate     *gate.Gate
	recorder *recorder.Recorder
	clock    seo.Clock
	idGen    seo.IDGenerator
	logger   *zap.Logger
}

// New builds an orchestrator. Prometheus collectors are registered here
// so every entry point that constructs a pipeline gets them.
func New(
	crawler seo.Crawler,
	seeds []string,
	registry *analyzers.Registry,
	plnr *planner.Planner,
	exec *executor.Executor,
	g *gate.Gate,
	rec *recorder.Recorder,
	clock seo.Clock,
	idGen seo.IDGenerator,
	logger *zap.Logger,
) *Orchestrator {
	metrics.Init()
	return &Orchestrator{
		crawler:  crawler,
		seeds:    seeds,
		registry: registry,
		planner:  plnr,
		executor: exec,
		gate:     g,
		recorder: rec,
		clock:    clock,
		idGen:    idGen,
		logger:   logger,
	}
}

// Run executes one full pipeline run and returns its summary. The
// returned error is non-nil when a phase aborted the run; the summary
// is filled in either way and persisted best-effort.
func (o *Orchestrator) Run(ctx context.Context, dryRun bool) (seo.RunSummary, error) {
	runDate := o.clock.Now().UTC().Format("2006-01-02")
	summary := seo.RunSummary{RunDate: runDate, DryRun: dryRun, ValidationPassed: true}
	if id, err := o.idGen.NewID(); err == nil {
		summary.RunID = id
	}

	o.logger.Info("pipeline run starting",
		zap.String("run_id", summary.RunID),
		zap.String("run_date", runDate),
		zap.Bool("dry_run", dryRun))

	if err := o.run(ctx, runDate, dryRun, &summary); err != nil {
		summary.Success = false
		summary.Error = err.Error()
		metrics.RunsTotal.WithLabelValues("failure").Inc()
		o.saveSummary(ctx, summary)
		o.logger.Error("pipeline run failed", zap.Error(err))
		return summary, err
	}

	outcome := "success"
	if !summary.Success {
		outcome = "failure"
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	o.saveSummary(ctx, summary)
	o.logger.Info("pipeline run finished",
		zap.Bool("success", summary.Success),
		zap.Int("tasks_executed", summary.TasksExecuted))
	return summary, nil
}

func (o *Orchestrator) run(ctx context.Context, runDate string, dryRun bool, summary *seo.RunSummary) error {
	// Phase 1: crawl.
	snapshot, err := o.crawler.Crawl(ctx, o.seeds)
	if err != nil {
		return fmt.Errorf("crawl phase: %w", err)
	}
	summary.PagesCrawled = len(snapshot)
	metrics.PagesCrawled.Set(float64(len(snapshot)))
	if err := o.recorder.SaveCrawlData(ctx, runDate, snapshot); err != nil {
		return fmt.Errorf("crawl phase: %w", err)
	}

	// Phase 2: analyze. Analyzer failures become failed reports and do
	// not abort; only artifact persistence can.
	reports := o.registry.Run(ctx, snapshot)
	summary.AnalyzersRun = len(reports)

	pool := make([]*seo.Task, 0)
	for _, report := range reports {
		metrics.AnalyzerDuration.WithLabelValues(report.Analyzer).Observe(report.Duration.Seconds())
		if err := o.recorder.SaveReport(ctx, runDate, report); err != nil {
			return fmt.Errorf("analyze phase: %w", err)
		}
		if !report.Success {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("analyzer %s failed: %v", report.Analyzer, report.Errors))
			continue
		}
		for _, task := range report.Tasks {
			metrics.TasksCreatedTotal.WithLabelValues(task.Analyzer, string(task.Action)).Inc()
		}
		pool = append(pool, report.Tasks...)
	}
	summary.TotalTasksFound = len(pool)
	if err := o.recorder.SaveTasks(ctx, runDate, pool); err != nil {
		return fmt.Errorf("analyze phase: %w", err)
	}

	// Phase 3: decide.
	plan := o.planner.Plan(pool)
	if err := o.recorder.SavePlan(ctx, runDate, plan); err != nil {
		return fmt.Errorf("decide phase: %w", err)
	}
	if plan.RequireManualReview {
		summary.Warnings = append(summary.Warnings, "plan requires manual review")
	}

	// Phase 4: execute.
	result := o.executor.Execute(ctx, plan, runDate, dryRun)
	summary.TasksExecuted = result.TasksExecuted
	summary.TasksBlocked = result.TasksBlocked
	summary.FilesModified = result.FilesModified
	summary.PatchesGenerated = len(result.PatchesGenerated)
	summary.Errors = append(summary.Errors, result.Errors...)
	summary.Warnings = append(summary.Warnings, result.Warnings...)
	metrics.TasksExecutedTotal.Add(float64(result.TasksExecuted))
	metrics.TasksBlockedTotal.Add(float64(result.TasksBlocked))
	metrics.PatchesGeneratedTotal.Add(float64(len(result.PatchesGenerated)))

	// Phase 5: validate. A failed gate marks the run failed and flags a
	// rollback, but the pipeline does not revert anything itself.
	gateResult := o.gate.Validate(executedContents(plan), result.FilesModified)
	summary.Warnings = append(summary.Warnings, gateResult.Warnings...)
	if !gateResult.Passed {
		summary.ValidationPassed = false
		summary.RollbackRequired = true
		summary.Errors = append(summary.Errors, gateResult.Errors...)
		metrics.ValidationFailuresTotal.WithLabelValues("gate").Inc()
	}

	// Phase 6: measure.
	summary.Metrics = buildRunMetrics(runDate, o.clock, snapshot, reports, pool)

	// Phase 7: learn.
	if err := o.recorder.RecordPatterns(ctx, runDate, pool); err != nil {
		return fmt.Errorf("learn phase: %w", err)
	}

	summary.Success = result.Success && gateResult.Passed
	return nil
}

func (o *Orchestrator) saveSummary(ctx context.Context, summary seo.RunSummary) {
	if err := o.recorder.SaveSummary(ctx, summary); err != nil {
		o.logger.Error("summary persistence failed", zap.Error(err))
	}
}

// executedContents gathers the text an executed task would put in front
// of users, for the compliance gate to scan.
func executedContents(plan *seo.Plan) []string {
	var contents []string
	for _, task := range plan.Tasks {
		if !task.Executed {
			continue
		}
		contents = append(contents, task.Description)
		for _, v := range task.Changes {
			if s, ok := v.(string); ok {
				contents = append(contents, s)
			}
		}
	}
	return contents
}

func buildRunMetrics(runDate string, clock seo.Clock, snapshot seo.Snapshot, reports []seo.Report, pool []*seo.Task) seo.RunMetrics {
	rm := seo.RunMetrics{
		RunDate:      runDate,
		PagesCrawled: len(snapshot),
		TotalTasks:   len(pool),
		Analyzers:    make(map[string]map[string]float64, len(reports)),
		KPIs:         make(map[string]map[string]float64, len(reports)),
		Timestamp:    clock.Now(),
	}
	for _, report := range reports {
		if len(report.Metrics) > 0 {
			rm.Analyzers[report.Analyzer] = report.Metrics
		}
		if len(report.KPIs) > 0 {
			rm.KPIs[report.Analyzer] = report.KPIs
		}
	}
	return rm
}

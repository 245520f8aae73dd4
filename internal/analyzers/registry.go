// Package analyzers contains the audit analyzers and the harness that
// runs them. Each analyzer inspects the crawl snapshot independently
// and proposes tasks; one analyzer failing, or even panicking, never
// stops the others.
package analyzers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

// Registry runs a fixed, ordered set of analyzers.
type Registry struct {
	analyzers []seo.Analyzer
	clock     seo.Clock
	logger    *zap.Logger
}

// NewRegistry builds a registry running the analyzers in the given order.
func NewRegistry(analyzers []seo.Analyzer, clock seo.Clock, logger *zap.Logger) *Registry {
	return &Registry{analyzers: analyzers, clock: clock, logger: logger}
}

// Names returns the analyzer names in execution order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.analyzers))
	for i, a := range r.analyzers {
		names[i] = a.Name()
	}
	return names
}

// Run executes every analyzer against the snapshot and returns one
// report per analyzer, in registration order. Errors and panics are
// converted into failed reports.
func (r *Registry) Run(ctx context.Context, snapshot seo.Snapshot) []seo.Report {
	reports := make([]seo.Report, 0, len(r.analyzers))
	for _, a := range r.analyzers {
		reports = append(reports, r.runOne(ctx, a, snapshot))
	}
	return reports
}

func (r *Registry) runOne(ctx context.Context, a seo.Analyzer, snapshot seo.Snapshot) (report seo.Report) {
	start := r.clock.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("analyzer panicked",
				zap.String("analyzer", a.Name()),
				zap.Any("panic", rec))
			report = failedReport(a.Name(), fmt.Sprintf("panic: %v", rec))
		}
		report.Analyzer = a.Name()
		report.Duration = r.clock.Now().Sub(start)
		report.Timestamp = start
	}()

	report, err := a.Analyze(ctx, snapshot)
	if err != nil {
		r.logger.Error("analyzer failed",
			zap.String("analyzer", a.Name()),
			zap.Error(err))
		return failedReport(a.Name(), err.Error())
	}
	report.Success = true

	r.logger.Info("analyzer complete",
		zap.String("analyzer", a.Name()),
		zap.Int("tasks", len(report.Tasks)))
	return report
}

func failedReport(name, msg string) seo.Report {
	return seo.Report{
		Analyzer: name,
		Success:  false,
		Errors:   []string{msg},
		Tasks:    []*seo.Task{},
	}
}

package analyzers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

// Thresholds for cross-run regression alerts.
const (
	pageCountDropThreshold = 0.10
	errorRateThreshold     = 0.05
)

// BaselineStore persists the cross-run comparison state.
type BaselineStore interface {
	LoadBaseline(ctx context.Context) (*seo.Baseline, error)
	SaveBaseline(ctx context.Context, baseline seo.Baseline) error
}

// Monitoring compares the snapshot against the previous run's baseline
// and raises alerts on regressions: pages newly broken, pages newly
// noindexed, the site shrinking, or the overall error rate climbing.
type Monitoring struct {
	baselines BaselineStore
	publisher seo.AlertPublisher
	hasher    seo.Hasher
	topic     string
	clock     seo.Clock
	logger    *zap.Logger
}

// NewMonitoring builds the monitoring analyzer.
func NewMonitoring(baselines BaselineStore, publisher seo.AlertPublisher, hasher seo.Hasher, topic string, clock seo.Clock, logger *zap.Logger) *Monitoring {
	return &Monitoring{
		baselines: baselines,
		publisher: publisher,
		hasher:    hasher,
		topic:     topic,
		clock:     clock,
		logger:    logger,
	}
}

// Name implements seo.Analyzer.
func (m *Monitoring) Name() string { return "monitoring" }

// Analyze implements seo.Analyzer. The new baseline is saved even when
// regressions are found, so the next run compares against today.
func (m *Monitoring) Analyze(ctx context.Context, snapshot seo.Snapshot) (seo.Report, error) {
	builder := seo.NewTaskBuilder(m.Name(), m.clock)
	report := seo.Report{Tasks: []*seo.Task{}, Metrics: map[string]float64{}, KPIs: map[string]float64{}}

	baseline, err := m.baselines.LoadBaseline(ctx)
	if err != nil {
		return report, fmt.Errorf("load baseline: %w", err)
	}

	errorRate := m.errorRate(snapshot)
	report.Metrics["page_count"] = float64(len(snapshot))
	report.Metrics["error_rate"] = errorRate
	report.KPIs["page_count"] = float64(len(snapshot))
	report.KPIs["error_rate"] = errorRate

	if baseline == nil {
		report.Summary = "baseline initialized, no previous run to compare against"
	} else {
		m.compare(ctx, builder, &report, baseline, snapshot)
	}

	if errorRate > errorRateThreshold {
		m.alertTask(ctx, builder, &report,
			fmt.Sprintf("Error rate %.1f%% exceeds %.0f%% threshold", errorRate*100, errorRateThreshold*100),
			seo.PriorityCritical, map[string]any{"error_rate": errorRate})
	}

	if err := m.baselines.SaveBaseline(ctx, m.buildBaseline(snapshot)); err != nil {
		return report, fmt.Errorf("save baseline: %w", err)
	}

	if report.Summary == "" {
		report.Summary = fmt.Sprintf("%d regressions detected", len(report.Tasks))
	}
	return report, nil
}

func (m *Monitoring) compare(ctx context.Context, builder *seo.TaskBuilder, report *seo.Report, baseline *seo.Baseline, snapshot seo.Snapshot) {
	if baseline.PageCount > 0 {
		drop := float64(baseline.PageCount-len(snapshot)) / float64(baseline.PageCount)
		if drop > pageCountDropThreshold {
			m.alertTask(ctx, builder, report,
				fmt.Sprintf("Page count dropped %.0f%%, from %d to %d", drop*100, baseline.PageCount, len(snapshot)),
				seo.PriorityCritical,
				map[string]any{"previous": baseline.PageCount, "current": len(snapshot)})
		}
	}

	changed := 0
	for _, pageURL := range sortedURLs(snapshot) {
		page := snapshot[pageURL]
		prev, known := baseline.Pages[pageURL]

		if page.StatusCode >= 400 && (!known || prev.StatusCode < 400) {
			m.alertTask(ctx, builder, report,
				fmt.Sprintf("Page newly broken (%d): %s", page.StatusCode, pageURL),
				seo.PriorityCritical,
				map[string]any{"status_code": page.StatusCode, "target_url": pageURL})
		}

		nowNoindex := strings.Contains(strings.ToLower(page.RobotsMeta), "noindex")
		wasNoindex := known && strings.Contains(strings.ToLower(prev.RobotsMeta), "noindex")
		if nowNoindex && known && !wasNoindex {
			m.alertTask(ctx, builder, report,
				"Page newly noindexed: "+pageURL,
				seo.PriorityHigh,
				map[string]any{"target_url": pageURL})
		}

		if known && prev.ContentHash != "" {
			if h := m.contentHash(page); h != "" && h != prev.ContentHash {
				changed++
			}
		}
	}
	report.Metrics["changed_pages"] = float64(changed)
}

// alertTask records a regression as an alert-flagged report task and
// pushes it to the alert channel. Publish failures downgrade to report
// warnings so monitoring itself never fails the run.
func (m *Monitoring) alertTask(ctx context.Context, builder *seo.TaskBuilder, report *seo.Report, description string, priority int, details map[string]any) {
	metadata := map[string]any{"alert": true}
	for k, v := range details {
		metadata[k] = v
	}
	report.Tasks = append(report.Tasks, builder.New(description, priority, seo.RiskMinimal,
		seo.Options{Metadata: metadata}))

	payload := map[string]any{"message": description, "details": details, "at": m.clock.Now()}
	if _, err := m.publisher.Publish(ctx, m.topic, payload); err != nil {
		report.Warnings = append(report.Warnings, "alert publish failed: "+err.Error())
		m.logger.Warn("alert publish failed", zap.Error(err))
	}
}

func (m *Monitoring) buildBaseline(snapshot seo.Snapshot) seo.Baseline {
	baseline := seo.Baseline{
		Timestamp: m.clock.Now(),
		PageCount: len(snapshot),
		Pages:     make(map[string]seo.BaselinePage, len(snapshot)),
	}
	for pageURL, page := range snapshot {
		baseline.Pages[pageURL] = seo.BaselinePage{
			StatusCode:  page.StatusCode,
			Title:       page.Title,
			RobotsMeta:  page.RobotsMeta,
			ContentHash: m.contentHash(page),
		}
	}
	return baseline
}

// contentHash digests the extracted on-page fields, not the raw HTML,
// so cosmetic markup changes do not register as content changes.
func (m *Monitoring) contentHash(page seo.PageRecord) string {
	h, err := m.hasher.Hash([]byte(page.Title + "\x00" + page.Description + "\x00" + page.H1))
	if err != nil {
		return ""
	}
	return h
}

func (m *Monitoring) errorRate(snapshot seo.Snapshot) float64 {
	if len(snapshot) == 0 {
		return 0
	}
	errs := 0
	for _, page := range snapshot {
		if page.StatusCode >= 400 || (page.Error != "" && page.StatusCode != http.StatusOK) {
			errs++
		}
	}
	return float64(errs) / float64(len(snapshot))
}

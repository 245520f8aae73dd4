package analyzers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	alertmem "github.com/lumera/seopilot/internal/alert/memory"
	"github.com/lumera/seopilot/internal/hash/sha256"
	"github.com/lumera/seopilot/internal/recorder"
	"github.com/lumera/seopilot/internal/seo"
	storagemem "github.com/lumera/seopilot/internal/storage/memory"
)

func newMonitoring(t *testing.T) (*Monitoring, *recorder.Recorder, *alertmem.Publisher) {
	t.Helper()
	clock := fixedClock{t: time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC)}
	rec := recorder.New(storagemem.New(), "runs", "reports", clock, zap.NewNop())
	pub := alertmem.New()
	m := NewMonitoring(rec, pub, sha256.New(), "seo-alerts", clock, zap.NewNop())
	return m, rec, pub
}

func snapshotOf(pages ...seo.PageRecord) seo.Snapshot {
	s := make(seo.Snapshot, len(pages))
	for _, p := range pages {
		s[p.URL] = p
	}
	return s
}

func TestMonitoring_FirstRunInitializesBaseline(t *testing.T) {
	m, rec, pub := newMonitoring(t)
	ctx := context.Background()

	report, err := m.Analyze(ctx, snapshotOf(
		seo.PageRecord{URL: "https://shop.example.com", StatusCode: 200, Title: "Home"},
	))
	require.NoError(t, err)
	require.Empty(t, report.Tasks)
	require.Empty(t, pub.Alerts())

	baseline, err := rec.LoadBaseline(ctx)
	require.NoError(t, err)
	require.NotNil(t, baseline)
	require.Equal(t, 1, baseline.PageCount)
	require.NotEmpty(t, baseline.Pages["https://shop.example.com"].ContentHash)
}

func TestMonitoring_NewlyBrokenPageAlerts(t *testing.T) {
	m, rec, pub := newMonitoring(t)
	ctx := context.Background()

	require.NoError(t, rec.SaveBaseline(ctx, seo.Baseline{
		PageCount: 1,
		Pages: map[string]seo.BaselinePage{
			"https://shop.example.com/products/tea": {StatusCode: 200},
		},
	}))

	report, err := m.Analyze(ctx, snapshotOf(
		seo.PageRecord{URL: "https://shop.example.com/products/tea", StatusCode: 500},
	))
	require.NoError(t, err)

	require.NotEmpty(t, report.Tasks)
	require.Contains(t, report.Tasks[0].Description, "newly broken (500)")
	require.Equal(t, true, report.Tasks[0].Metadata["alert"])
	require.NotEmpty(t, pub.Alerts())
}

func TestMonitoring_PageCountDropAlerts(t *testing.T) {
	m, rec, pub := newMonitoring(t)
	ctx := context.Background()

	pages := map[string]seo.BaselinePage{}
	for _, u := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		pages["https://shop.example.com/"+u] = seo.BaselinePage{StatusCode: 200}
	}
	require.NoError(t, rec.SaveBaseline(ctx, seo.Baseline{PageCount: 10, Pages: pages}))

	report, err := m.Analyze(ctx, snapshotOf(
		seo.PageRecord{URL: "https://shop.example.com/a", StatusCode: 200},
		seo.PageRecord{URL: "https://shop.example.com/b", StatusCode: 200},
	))
	require.NoError(t, err)

	found := false
	for _, task := range report.Tasks {
		if task.Metadata["alert"] == true && task.Priority == seo.PriorityCritical {
			found = true
		}
	}
	require.True(t, found, "expected a page count drop alert")
	require.NotEmpty(t, pub.Alerts())
}

func TestMonitoring_SmallDropDoesNotAlert(t *testing.T) {
	m, rec, pub := newMonitoring(t)
	ctx := context.Background()

	require.NoError(t, rec.SaveBaseline(ctx, seo.Baseline{PageCount: 10, Pages: map[string]seo.BaselinePage{}}))

	var pages []seo.PageRecord
	for _, u := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		pages = append(pages, seo.PageRecord{URL: "https://shop.example.com/" + u, StatusCode: 200})
	}
	report, err := m.Analyze(ctx, snapshotOf(pages...))
	require.NoError(t, err)
	require.Empty(t, report.Tasks)
	require.Empty(t, pub.Alerts())
}

func TestMonitoring_NewlyNoindexedAlerts(t *testing.T) {
	m, rec, _ := newMonitoring(t)
	ctx := context.Background()

	require.NoError(t, rec.SaveBaseline(ctx, seo.Baseline{
		PageCount: 1,
		Pages: map[string]seo.BaselinePage{
			"https://shop.example.com": {StatusCode: 200, RobotsMeta: "index, follow"},
		},
	}))

	report, err := m.Analyze(ctx, snapshotOf(
		seo.PageRecord{URL: "https://shop.example.com", StatusCode: 200, RobotsMeta: "noindex"},
	))
	require.NoError(t, err)
	require.Len(t, report.Tasks, 1)
	require.Contains(t, report.Tasks[0].Description, "newly noindexed")
}

func TestMonitoring_ErrorRateAlert(t *testing.T) {
	m, _, pub := newMonitoring(t)

	report, err := m.Analyze(context.Background(), snapshotOf(
		seo.PageRecord{URL: "https://shop.example.com/a", StatusCode: 200},
		seo.PageRecord{URL: "https://shop.example.com/b", StatusCode: 500},
	))
	require.NoError(t, err)

	found := false
	for _, task := range report.Tasks {
		if task.Metadata["error_rate"] != nil {
			found = true
		}
	}
	require.True(t, found, "expected an error rate alert")
	require.NotEmpty(t, pub.Alerts())
	require.InDelta(t, 0.5, report.Metrics["error_rate"], 1e-9)
}

func TestMonitoring_BaselineRefreshedAfterCompare(t *testing.T) {
	m, rec, _ := newMonitoring(t)
	ctx := context.Background()

	require.NoError(t, rec.SaveBaseline(ctx, seo.Baseline{PageCount: 1, Pages: map[string]seo.BaselinePage{
		"https://shop.example.com/old": {StatusCode: 200},
	}}))

	_, err := m.Analyze(ctx, snapshotOf(
		seo.PageRecord{URL: "https://shop.example.com/new", StatusCode: 200},
	))
	require.NoError(t, err)

	baseline, err := rec.LoadBaseline(ctx)
	require.NoError(t, err)
	require.Contains(t, baseline.Pages, "https://shop.example.com/new")
	require.NotContains(t, baseline.Pages, "https://shop.example.com/old")
}

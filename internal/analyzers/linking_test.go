package analyzers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

func TestLinking_FindsOrphans(t *testing.T) {
	home := "https://shop.example.com"
	linked := "https://shop.example.com/products/tea"
	orphan := "https://shop.example.com/pages/forgotten"

	snapshot := seo.Snapshot{
		home:   {URL: home, StatusCode: 200, InternalLinks: []string{linked, home + "/collections/all", home + "/pages/about"}},
		linked: {URL: linked, StatusCode: 200, InternalLinks: []string{home, home + "/collections/all", home + "/pages/about"}},
		orphan: {URL: orphan, StatusCode: 200, InternalLinks: []string{home, linked, home + "/pages/about"}},
	}

	report, err := NewLinking(testClock(), zap.NewNop()).Analyze(context.Background(), snapshot)
	require.NoError(t, err)

	var orphanTasks []*seo.Task
	for _, task := range report.Tasks {
		if task.TargetURL == orphan {
			orphanTasks = append(orphanTasks, task)
		}
	}
	require.Len(t, orphanTasks, 1)
	require.Contains(t, orphanTasks[0].Description, "Orphan page")
	require.Equal(t, 1.0, report.Metrics["orphan_pages"])
}

func TestLinking_HomepageNeverOrphan(t *testing.T) {
	home := "https://shop.example.com"
	snapshot := seo.Snapshot{
		home: {URL: home, StatusCode: 200, InternalLinks: []string{home + "/a", home + "/b", home + "/c"}},
	}

	report, err := NewLinking(testClock(), zap.NewNop()).Analyze(context.Background(), snapshot)
	require.NoError(t, err)
	require.Equal(t, 0.0, report.Metrics["orphan_pages"])
}

func TestLinking_UnderLinkedPages(t *testing.T) {
	home := "https://shop.example.com"
	thin := "https://shop.example.com/pages/thin"
	snapshot := seo.Snapshot{
		home: {URL: home, StatusCode: 200, InternalLinks: []string{thin, home + "/a", home + "/b"}},
		thin: {URL: thin, StatusCode: 200, InternalLinks: []string{home}},
	}

	report, err := NewLinking(testClock(), zap.NewNop()).Analyze(context.Background(), snapshot)
	require.NoError(t, err)
	require.Equal(t, 1.0, report.Metrics["under_linked_pages"])
}

func TestLinking_SelfLinksDoNotCount(t *testing.T) {
	page := "https://shop.example.com/pages/self"
	snapshot := seo.Snapshot{
		page: {URL: page, StatusCode: 200, InternalLinks: []string{page, page, page}},
	}

	report, err := NewLinking(testClock(), zap.NewNop()).Analyze(context.Background(), snapshot)
	require.NoError(t, err)
	require.Equal(t, 1.0, report.Metrics["orphan_pages"])
}

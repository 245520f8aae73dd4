package analyzers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

func healthyPage(url string) seo.PageRecord {
	return seo.PageRecord{
		URL:         url,
		StatusCode:  200,
		Title:       "A perfectly sized product title for testing",
		Description: "A description long enough to clear the minimum length check for meta descriptions.",
		H1:          "Heading",
		Canonical:   url,
	}
}

func testClock() fixedClock {
	return fixedClock{t: time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC)}
}

func TestTechnical_HealthyPageNoTasks(t *testing.T) {
	a := NewTechnical("", "seopilot-bot/1.0", nil, nil, testClock(), zap.NewNop())

	report, err := a.Analyze(context.Background(), seo.Snapshot{
		"https://shop.example.com/products/tea": healthyPage("https://shop.example.com/products/tea"),
	})
	require.NoError(t, err)
	require.Empty(t, report.Tasks)
	require.Equal(t, 1.0, report.KPIs["title_coverage"])
}

func TestTechnical_FindsOnPageIssues(t *testing.T) {
	a := NewTechnical("", "seopilot-bot/1.0", nil, nil, testClock(), zap.NewNop())

	snapshot := seo.Snapshot{
		"https://shop.example.com/bare": {
			URL: "https://shop.example.com/bare", StatusCode: 200,
		},
		"https://shop.example.com/gone": {
			URL: "https://shop.example.com/gone", StatusCode: 404,
		},
	}
	report, err := a.Analyze(context.Background(), snapshot)
	require.NoError(t, err)

	byDesc := map[string]*seo.Task{}
	for _, task := range report.Tasks {
		byDesc[task.Description] = task
	}

	require.Contains(t, byDesc, "Missing <title>: https://shop.example.com/bare")
	require.Contains(t, byDesc, "Missing meta description: https://shop.example.com/bare")
	require.Contains(t, byDesc, "Missing <h1>: https://shop.example.com/bare")
	require.Contains(t, byDesc, "Missing canonical link: https://shop.example.com/bare")
	require.Contains(t, byDesc, "Broken page (404): https://shop.example.com/gone")

	missing := byDesc["Missing <title>: https://shop.example.com/bare"]
	require.Equal(t, seo.ActionModify, missing.Action)
	require.Equal(t, seo.PriorityHigh, missing.Priority)

	require.Equal(t, 1.0, report.Metrics["broken_pages"])
}

func TestTechnical_NoindexedPriorityPageIsCritical(t *testing.T) {
	page := healthyPage("https://shop.example.com/products/tea")
	page.RobotsMeta = "noindex, nofollow"

	a := NewTechnical("", "seopilot-bot/1.0",
		[]string{"https://shop.example.com/products/tea"}, nil, testClock(), zap.NewNop())

	report, err := a.Analyze(context.Background(), seo.Snapshot{page.URL: page})
	require.NoError(t, err)
	require.Len(t, report.Tasks, 1)
	require.Equal(t, seo.PriorityCritical, report.Tasks[0].Priority)
}

func TestTechnical_ImagesMissingAlt(t *testing.T) {
	page := healthyPage("https://shop.example.com/products/tea")
	page.Images = []seo.Image{{Src: "/a.jpg", Alt: ""}, {Src: "/b.jpg", Alt: "ok"}, {Src: "/c.jpg", Alt: "  "}}

	a := NewTechnical("", "seopilot-bot/1.0", nil, nil, testClock(), zap.NewNop())
	report, err := a.Analyze(context.Background(), seo.Snapshot{page.URL: page})
	require.NoError(t, err)
	require.Len(t, report.Tasks, 1)
	require.Contains(t, report.Tasks[0].Description, "2 images without alt text")
}

func TestTechnical_RobotsDisallowedPriorityPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /products/\n")
	}))
	defer srv.Close()

	a := NewTechnical(srv.URL+"/robots.txt", "seopilot-bot/1.0",
		[]string{"https://shop.example.com/products/tea"}, srv.Client(), testClock(), zap.NewNop())

	report, err := a.Analyze(context.Background(), seo.Snapshot{})
	require.NoError(t, err)
	require.Len(t, report.Tasks, 1)
	require.Contains(t, report.Tasks[0].Description, "disallowed by robots.txt")
	require.Equal(t, seo.PriorityCritical, report.Tasks[0].Priority)
}

func TestTechnical_UnreachableRobotsIsWarningOnly(t *testing.T) {
	a := NewTechnical("http://127.0.0.1:1/robots.txt", "seopilot-bot/1.0",
		[]string{"https://shop.example.com/"}, &http.Client{Timeout: time.Second}, testClock(), zap.NewNop())

	report, err := a.Analyze(context.Background(), seo.Snapshot{})
	require.NoError(t, err)
	require.Empty(t, report.Tasks)
	require.NotEmpty(t, report.Warnings)
}

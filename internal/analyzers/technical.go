package analyzers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

// Title and description length bands considered healthy in result pages.
const (
	titleMinLen = 30
	titleMaxLen = 60
	descMinLen  = 50
	descMaxLen  = 160
)

// Technical audits on-page fundamentals: status codes, titles,
// descriptions, headings, canonicals, image alt text, and the
// robots.txt policy for priority pages.
type Technical struct {
	robotsURL     string
	userAgent     string
	priorityPages []string
	httpClient    *http.Client
	clock         seo.Clock
	logger        *zap.Logger
}

// NewTechnical builds the technical analyzer. priorityPages holds the
// URLs whose indexability is checked against robots.txt and noindex.
func NewTechnical(robotsURL, userAgent string, priorityPages []string, httpClient *http.Client, clock seo.Clock, logger *zap.Logger) *Technical {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Technical{
		robotsURL:     robotsURL,
		userAgent:     userAgent,
		priorityPages: priorityPages,
		httpClient:    httpClient,
		clock:         clock,
		logger:        logger,
	}
}

// Name implements seo.Analyzer.
func (t *Technical) Name() string { return "technical" }

// Analyze implements seo.Analyzer.
func (t *Technical) Analyze(ctx context.Context, snapshot seo.Snapshot) (seo.Report, error) {
	builder := seo.NewTaskBuilder(t.Name(), t.clock)
	report := seo.Report{Tasks: []*seo.Task{}, Metrics: map[string]float64{}, KPIs: map[string]float64{}}

	priority := make(map[string]bool, len(t.priorityPages))
	for _, p := range t.priorityPages {
		if n, err := seo.NormalizeURL(p); err == nil {
			priority[n] = true
		}
	}

	var broken, missingTitle, missingDesc, missingH1, missingCanonical, missingAlt int

	for _, pageURL := range sortedURLs(snapshot) {
		page := snapshot[pageURL]

		if page.StatusCode >= 400 {
			broken++
			report.Tasks = append(report.Tasks, builder.New(
				fmt.Sprintf("Broken page (%d): %s", page.StatusCode, pageURL),
				seo.PriorityHigh, seo.RiskLow,
				seo.Options{TargetURL: pageURL, Metadata: map[string]any{"status_code": page.StatusCode}},
			))
			continue
		}
		if page.StatusCode != http.StatusOK {
			continue
		}

		if page.Title == "" {
			missingTitle++
			report.Tasks = append(report.Tasks, builder.New(
				"Missing <title>: "+pageURL,
				seo.PriorityHigh, seo.RiskLow,
				seo.Options{Action: seo.ActionModify, TargetURL: pageURL, Changes: map[string]any{"field": "title"}},
			))
		} else if l := len(page.Title); l < titleMinLen || l > titleMaxLen {
			report.Tasks = append(report.Tasks, builder.New(
				fmt.Sprintf("Title length %d outside %d-%d: %s", l, titleMinLen, titleMaxLen, pageURL),
				seo.PriorityMedium, seo.RiskLow,
				seo.Options{Action: seo.ActionModify, TargetURL: pageURL, Changes: map[string]any{"field": "title"}},
			))
		}

		if page.Description == "" {
			missingDesc++
			report.Tasks = append(report.Tasks, builder.New(
				"Missing meta description: "+pageURL,
				seo.PriorityHigh, seo.RiskLow,
				seo.Options{Action: seo.ActionModify, TargetURL: pageURL, Changes: map[string]any{"field": "description"}},
			))
		} else if l := len(page.Description); l < descMinLen || l > descMaxLen {
			report.Tasks = append(report.Tasks, builder.New(
				fmt.Sprintf("Description length %d outside %d-%d: %s", l, descMinLen, descMaxLen, pageURL),
				seo.PriorityLow, seo.RiskLow,
				seo.Options{Action: seo.ActionModify, TargetURL: pageURL, Changes: map[string]any{"field": "description"}},
			))
		}

		if page.H1 == "" {
			missingH1++
			report.Tasks = append(report.Tasks, builder.New(
				"Missing <h1>: "+pageURL,
				seo.PriorityMedium, seo.RiskLow,
				seo.Options{Action: seo.ActionModify, TargetURL: pageURL, Changes: map[string]any{"field": "h1"}},
			))
		}

		if page.Canonical == "" {
			missingCanonical++
			report.Tasks = append(report.Tasks, builder.New(
				"Missing canonical link: "+pageURL,
				seo.PriorityLow, seo.RiskLow,
				seo.Options{Action: seo.ActionModify, TargetURL: pageURL, Changes: map[string]any{"field": "canonical"}},
			))
		}

		if priority[pageURL] && strings.Contains(strings.ToLower(page.RobotsMeta), "noindex") {
			report.Tasks = append(report.Tasks, builder.New(
				"Priority page is noindexed: "+pageURL,
				seo.PriorityCritical, seo.RiskMedium,
				seo.Options{Action: seo.ActionModify, TargetURL: pageURL, Changes: map[string]any{"field": "robots_meta"}},
			))
		}

		if n := missingAltCount(page.Images); n > 0 {
			missingAlt += n
			report.Tasks = append(report.Tasks, builder.New(
				fmt.Sprintf("%d images without alt text: %s", n, pageURL),
				seo.PriorityLow, seo.RiskLow,
				seo.Options{TargetURL: pageURL, Metadata: map[string]any{"images_missing_alt": n}},
			))
		}
	}

	t.auditRobots(ctx, builder, &report)

	report.Metrics["pages_checked"] = float64(len(snapshot))
	report.Metrics["broken_pages"] = float64(broken)
	report.Metrics["missing_titles"] = float64(missingTitle)
	report.Metrics["missing_descriptions"] = float64(missingDesc)
	report.Metrics["missing_h1"] = float64(missingH1)
	report.Metrics["missing_canonicals"] = float64(missingCanonical)
	report.Metrics["images_missing_alt"] = float64(missingAlt)
	if len(snapshot) > 0 {
		report.KPIs["title_coverage"] = 1 - float64(missingTitle)/float64(len(snapshot))
		report.KPIs["description_coverage"] = 1 - float64(missingDesc)/float64(len(snapshot))
	}
	report.Summary = fmt.Sprintf("%d pages checked, %d issues found", len(snapshot), len(report.Tasks))
	return report, nil
}

// auditRobots verifies that robots.txt does not disallow the priority
// pages for our crawler. An unreachable robots.txt is only a warning.
func (t *Technical) auditRobots(ctx context.Context, builder *seo.TaskBuilder, report *seo.Report) {
	if len(t.priorityPages) == 0 || t.robotsURL == "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.robotsURL, nil)
	if err != nil {
		report.Warnings = append(report.Warnings, "robots.txt request failed: "+err.Error())
		return
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		report.Warnings = append(report.Warnings, "robots.txt not reachable: "+err.Error())
		return
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		report.Warnings = append(report.Warnings, "robots.txt unparsable: "+err.Error())
		return
	}

	group := robots.FindGroup(t.userAgent)
	for _, p := range t.priorityPages {
		u, err := url.Parse(p)
		if err != nil {
			continue
		}
		if !group.Test(u.Path) {
			report.Tasks = append(report.Tasks, builder.New(
				"Priority page disallowed by robots.txt: "+p,
				seo.PriorityCritical, seo.RiskMedium,
				seo.Options{TargetURL: p, Metadata: map[string]any{"robots_txt": true}},
			))
		}
	}
}

func missingAltCount(images []seo.Image) int {
	n := 0
	for _, img := range images {
		if strings.TrimSpace(img.Alt) == "" {
			n++
		}
	}
	return n
}

func sortedURLs(snapshot seo.Snapshot) []string {
	urls := make([]string, 0, len(snapshot))
	for u := range snapshot {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

package analyzers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

// thinContentWords is the word count below which a content page is
// flagged as thin.
const thinContentWords = 300

// Content audits page copy: thin content and duplicated titles or
// descriptions that make pages compete with each other.
type Content struct {
	clock  seo.Clock
	logger *zap.Logger
}

// NewContent builds the content-quality analyzer.
func NewContent(clock seo.Clock, logger *zap.Logger) *Content {
	return &Content{clock: clock, logger: logger}
}

// Name implements seo.Analyzer.
func (c *Content) Name() string { return "content" }

// Analyze implements seo.Analyzer.
func (c *Content) Analyze(_ context.Context, snapshot seo.Snapshot) (seo.Report, error) {
	builder := seo.NewTaskBuilder(c.Name(), c.clock)
	report := seo.Report{Tasks: []*seo.Task{}, Metrics: map[string]float64{}, KPIs: map[string]float64{}}

	titleOwners := map[string][]string{}
	descOwners := map[string][]string{}
	var thin, totalWords, okPages int

	for _, pageURL := range sortedURLs(snapshot) {
		page := snapshot[pageURL]
		if page.StatusCode != http.StatusOK {
			continue
		}
		okPages++
		totalWords += page.WordCount

		if page.WordCount < thinContentWords && isContentPage(pageURL) {
			thin++
			report.Tasks = append(report.Tasks, builder.New(
				fmt.Sprintf("Thin content, %d words: %s", page.WordCount, pageURL),
				seo.PriorityMedium, seo.RiskMedium,
				seo.Options{Action: seo.ActionModify, TargetURL: pageURL,
					Changes: map[string]any{"field": "body", "word_count": page.WordCount}},
			))
		}

		if t := strings.TrimSpace(strings.ToLower(page.Title)); t != "" {
			titleOwners[t] = append(titleOwners[t], pageURL)
		}
		if d := strings.TrimSpace(strings.ToLower(page.Description)); d != "" {
			descOwners[d] = append(descOwners[d], pageURL)
		}
	}

	dupTitles := c.duplicateTasks(builder, &report, titleOwners, "title", seo.PriorityHigh)
	dupDescs := c.duplicateTasks(builder, &report, descOwners, "description", seo.PriorityMedium)

	report.Metrics["thin_pages"] = float64(thin)
	report.Metrics["duplicate_titles"] = float64(dupTitles)
	report.Metrics["duplicate_descriptions"] = float64(dupDescs)
	if okPages > 0 {
		report.KPIs["avg_word_count"] = float64(totalWords) / float64(okPages)
	}
	report.Summary = fmt.Sprintf("%d thin pages, %d duplicated titles, %d duplicated descriptions",
		thin, dupTitles, dupDescs)
	return report, nil
}

// duplicateTasks emits one modify task per extra page sharing a value,
// keeping the first (alphabetically smallest) page as the owner.
func (c *Content) duplicateTasks(builder *seo.TaskBuilder, report *seo.Report, owners map[string][]string, field string, priority int) int {
	values := make([]string, 0, len(owners))
	for v, pages := range owners {
		if len(pages) > 1 {
			values = append(values, v)
		}
	}
	sort.Strings(values)

	dupes := 0
	for _, v := range values {
		pages := owners[v]
		sort.Strings(pages)
		for _, pageURL := range pages[1:] {
			dupes++
			report.Tasks = append(report.Tasks, builder.New(
				fmt.Sprintf("Duplicate %s shared with %s: %s", field, pages[0], pageURL),
				priority, seo.RiskLow,
				seo.Options{Action: seo.ActionModify, TargetURL: pageURL,
					Changes: map[string]any{"field": field}},
			))
		}
	}
	return dupes
}

func isContentPage(pageURL string) bool {
	return strings.Contains(pageURL, "/products/") ||
		strings.Contains(pageURL, "/blogs/") ||
		strings.Contains(pageURL, "/blog/") ||
		strings.Contains(pageURL, "/pages/")
}

package analyzers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

// minOutboundLinks is the internal-link count below which a page is
// considered under-linked.
const minOutboundLinks = 3

// Linking audits the internal link graph: orphan pages nothing links
// to, and pages that link out too thinly to pass authority along.
type Linking struct {
	clock  seo.Clock
	logger *zap.Logger
}

// NewLinking builds the internal-linking analyzer.
func NewLinking(clock seo.Clock, logger *zap.Logger) *Linking {
	return &Linking{clock: clock, logger: logger}
}

// Name implements seo.Analyzer.
func (l *Linking) Name() string { return "linking" }

// Analyze implements seo.Analyzer.
func (l *Linking) Analyze(_ context.Context, snapshot seo.Snapshot) (seo.Report, error) {
	builder := seo.NewTaskBuilder(l.Name(), l.clock)
	report := seo.Report{Tasks: []*seo.Task{}, Metrics: map[string]float64{}, KPIs: map[string]float64{}}

	inbound := make(map[string]int, len(snapshot))
	for _, page := range snapshot {
		for _, link := range page.InternalLinks {
			if link == page.URL {
				continue
			}
			inbound[link]++
		}
	}

	var orphans, thin, totalLinks int
	for _, pageURL := range sortedURLs(snapshot) {
		page := snapshot[pageURL]
		if page.StatusCode != http.StatusOK {
			continue
		}
		totalLinks += len(page.InternalLinks)

		if inbound[pageURL] == 0 && !isRoot(pageURL) {
			orphans++
			report.Tasks = append(report.Tasks, builder.New(
				"Orphan page, no internal links point to it: "+pageURL,
				seo.PriorityHigh, seo.RiskLow,
				seo.Options{TargetURL: pageURL, Metadata: map[string]any{"inbound_links": 0}},
			))
		}

		if len(page.InternalLinks) < minOutboundLinks {
			thin++
			report.Tasks = append(report.Tasks, builder.New(
				fmt.Sprintf("Page has only %d internal links: %s", len(page.InternalLinks), pageURL),
				seo.PriorityLow, seo.RiskLow,
				seo.Options{TargetURL: pageURL, Metadata: map[string]any{"internal_links": len(page.InternalLinks)}},
			))
		}
	}

	report.Metrics["orphan_pages"] = float64(orphans)
	report.Metrics["under_linked_pages"] = float64(thin)
	if len(snapshot) > 0 {
		report.KPIs["avg_internal_links"] = float64(totalLinks) / float64(len(snapshot))
	}
	report.Summary = fmt.Sprintf("%d orphan and %d under-linked pages", orphans, thin)
	return report, nil
}

func isRoot(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return u.Path == "" || u.Path == "/"
}

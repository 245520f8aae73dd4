package analyzers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

// Schema checks every page for the JSON-LD structured data its page
// type calls for, proposing create tasks for the missing snippets.
type Schema struct {
	clock  seo.Clock
	logger *zap.Logger
}

// NewSchema builds the structured-data analyzer.
func NewSchema(clock seo.Clock, logger *zap.Logger) *Schema {
	return &Schema{clock: clock, logger: logger}
}

// Name implements seo.Analyzer.
func (s *Schema) Name() string { return "schema" }

// Analyze implements seo.Analyzer.
func (s *Schema) Analyze(_ context.Context, snapshot seo.Snapshot) (seo.Report, error) {
	builder := seo.NewTaskBuilder(s.Name(), s.clock)
	report := seo.Report{Tasks: []*seo.Task{}, Metrics: map[string]float64{}, KPIs: map[string]float64{}}

	var covered, expected int
	for _, pageURL := range sortedURLs(snapshot) {
		page := snapshot[pageURL]
		if page.StatusCode != http.StatusOK {
			continue
		}

		want, targetFile := expectedSchema(pageURL)
		if want == "" {
			continue
		}
		expected++

		if hasType(page.SchemaTypes, want) {
			covered++
			continue
		}

		report.Tasks = append(report.Tasks, builder.New(
			fmt.Sprintf("Missing %s structured data: %s", want, pageURL),
			seo.PriorityHigh, seo.RiskLow,
			seo.Options{
				Action:     seo.ActionCreate,
				TargetURL:  pageURL,
				TargetFile: targetFile,
				Changes:    map[string]any{"schema_type": want},
			},
		))
	}

	report.Metrics["pages_expecting_schema"] = float64(expected)
	report.Metrics["pages_with_schema"] = float64(covered)
	if expected > 0 {
		report.KPIs["schema_coverage"] = float64(covered) / float64(expected)
	}
	report.Summary = fmt.Sprintf("%d of %d pages carry their expected schema", covered, expected)
	return report, nil
}

// expectedSchema maps a URL to the schema type its page kind should
// carry and the theme snippet a create task would add.
func expectedSchema(pageURL string) (schemaType, targetFile string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", ""
	}
	path := u.Path
	switch {
	case path == "" || path == "/":
		return "Organization", "snippets/organization-schema.liquid"
	case strings.HasPrefix(path, "/products/"):
		return "Product", "snippets/product-schema.liquid"
	case strings.HasPrefix(path, "/collections/"):
		return "CollectionPage", "snippets/collection-schema.liquid"
	case strings.HasPrefix(path, "/blogs/") || strings.HasPrefix(path, "/blog/"):
		return "BlogPosting", "snippets/article-schema.liquid"
	case strings.HasPrefix(path, "/pages/faq"):
		return "FAQPage", "snippets/faq-schema.liquid"
	default:
		return "", ""
	}
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

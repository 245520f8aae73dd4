package merchant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

// PriorityFor maps issue severity onto the pipeline's priority bands.
func PriorityFor(severity string) int {
	switch severity {
	case "critical":
		return seo.PriorityCritical
	case "error":
		return seo.PriorityHigh
	case "warning":
		return seo.PriorityMedium
	case "suggestion":
		return seo.PriorityLow
	default:
		return seo.PriorityInformational
	}
}

// autoFixes maps fixable issue codes to the attribute patch resolving
// them. Everything else stays report-only.
var autoFixes = map[string]map[string]any{
	"missing_condition":    {"condition": "new"},
	"missing_brand":        {"brand": ""},
	"missing_availability": {"availability": "in stock"},
}

// Options controls one health check invocation.
type Options struct {
	AutoFix    bool
	SendAlerts bool
	DryRun     bool
}

// Fix records one attempted auto-fix.
type Fix struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Applied   bool   `json:"applied"`
	DryRun    bool   `json:"dry_run,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CheckResult is the outcome of one health check run.
type CheckResult struct {
	Configured      bool           `json:"configured"`
	ProductsChecked int            `json:"products_checked"`
	Issues          []ProductIssue `json:"issues"`
	Tasks           []*seo.Task    `json:"tasks"`
	Fixes           []Fix          `json:"fixes,omitempty"`
	AlertsSent      int            `json:"alerts_sent"`
	CriticalIssues  int            `json:"critical_issues"`
}

// HealthChecker runs Merchant Center feed audits.
type HealthChecker struct {
	client    *Client
	publisher seo.AlertPublisher
	topic     string
	brand     string
	clock     seo.Clock
	logger    *zap.Logger
}

// NewHealthChecker builds a health checker. brand fills the patch for
// missing_brand fixes.
func NewHealthChecker(client *Client, publisher seo.AlertPublisher, topic, brand string, clock seo.Clock, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		client:    client,
		publisher: publisher,
		topic:     topic,
		brand:     brand,
		clock:     clock,
		logger:    logger,
	}
}

// Check lists product issues, converts them to tasks, optionally applies
// the known auto-fixes, and optionally alerts on critical issues. An
// unconfigured client is not an error; the result just reports it.
func (h *HealthChecker) Check(ctx context.Context, opts Options) (CheckResult, error) {
	result := CheckResult{Configured: h.client.IsConfigured(), Issues: []ProductIssue{}, Tasks: []*seo.Task{}}
	if !result.Configured {
		h.logger.Warn("merchant center credentials not configured, skipping health check")
		return result, nil
	}

	issues, products, err := h.client.ListIssues(ctx)
	if err != nil {
		return result, fmt.Errorf("list product issues: %w", err)
	}
	result.ProductsChecked = products
	result.Issues = issues

	builder := seo.NewTaskBuilder("merchant", h.clock)
	for _, issue := range issues {
		if issue.Severity == "critical" {
			result.CriticalIssues++
		}
		result.Tasks = append(result.Tasks, builder.New(
			fmt.Sprintf("GMC %s issue %q on product %s: %s", issue.Severity, issue.Code, issue.ProductID, issue.Description),
			PriorityFor(issue.Severity), seo.RiskLow,
			seo.Options{Metadata: map[string]any{
				"product_id": issue.ProductID,
				"code":       issue.Code,
				"severity":   issue.Severity,
			}},
		))

		if opts.AutoFix {
			if fix := h.tryFix(ctx, issue, opts.DryRun); fix != nil {
				result.Fixes = append(result.Fixes, *fix)
			}
		}
	}

	if opts.SendAlerts && result.CriticalIssues > 0 {
		payload := map[string]any{
			"message":         fmt.Sprintf("%d critical Merchant Center issues", result.CriticalIssues),
			"products":        products,
			"critical_issues": result.CriticalIssues,
			"at":              h.clock.Now(),
		}
		if _, err := h.publisher.Publish(ctx, h.topic, payload); err != nil {
			h.logger.Warn("merchant alert publish failed", zap.Error(err))
		} else {
			result.AlertsSent++
		}
	}

	h.logger.Info("merchant health check complete",
		zap.Int("products", products),
		zap.Int("issues", len(issues)),
		zap.Int("critical", result.CriticalIssues),
		zap.Int("fixes", len(result.Fixes)))
	return result, nil
}

func (h *HealthChecker) tryFix(ctx context.Context, issue ProductIssue, dryRun bool) *Fix {
	patch, ok := autoFixes[issue.Code]
	if !ok {
		return nil
	}
	if issue.Code == "missing_brand" {
		if h.brand == "" {
			return nil
		}
		patch = map[string]any{"brand": h.brand}
	}

	fix := Fix{ProductID: issue.ProductID, Code: issue.Code}
	if dryRun {
		fix.DryRun = true
		return &fix
	}

	if err := h.client.ApplyFix(ctx, issue.ProductID, patch); err != nil {
		fix.Error = err.Error()
		h.logger.Error("auto-fix failed",
			zap.String("product_id", issue.ProductID),
			zap.String("code", issue.Code),
			zap.Error(err))
		return &fix
	}
	fix.Applied = true
	return &fix
}

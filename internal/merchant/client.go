// Package merchant checks Google Merchant Center product health and
// proposes or applies fixes for feed issues.
package merchant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// defaultBaseURL is the Content API for Shopping endpoint.
const defaultBaseURL = "https://shoppingcontent.googleapis.com/content/v2.1"

// ProductIssue is one item-level issue reported for a product.
type ProductIssue struct {
	ProductID     string `json:"product_id"`
	ProductTitle  string `json:"product_title"`
	Code          string `json:"code"`
	Severity      string `json:"severity"`
	Description   string `json:"description"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// Client is a thin Content API client. A zero-configured client reports
// IsConfigured false and the health check degrades to a no-op.
type Client struct {
	baseURL    string
	merchantID string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a Content API client. baseURL may be empty to use
// the production endpoint.
func NewClient(baseURL, merchantID, token string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		merchantID: merchantID,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// IsConfigured reports whether credentials are present.
func (c *Client) IsConfigured() bool {
	return c.merchantID != "" && c.token != ""
}

type productStatusesResponse struct {
	Resources []struct {
		ProductID       string `json:"productId"`
		Title           string `json:"title"`
		ItemLevelIssues []struct {
			Code          string `json:"code"`
			Servability   string `json:"servability"`
			Description   string `json:"description"`
			Detail        string `json:"detail"`
			Documentation string `json:"documentation"`
		} `json:"itemLevelIssues"`
	} `json:"resources"`
	NextPageToken string `json:"nextPageToken"`
}

// ListIssues pages through product statuses and flattens every
// item-level issue. Servability maps onto severity: products that
// cannot serve are critical, the rest keep the reported level.
func (c *Client) ListIssues(ctx context.Context) ([]ProductIssue, int, error) {
	var issues []ProductIssue
	products := 0
	pageToken := ""

	for {
		u := fmt.Sprintf("%s/%s/productstatuses?maxResults=250", c.baseURL, c.merchantID)
		if pageToken != "" {
			u += "&pageToken=" + pageToken
		}

		var page productStatusesResponse
		if err := c.getJSON(ctx, u, &page); err != nil {
			return nil, 0, err
		}

		products += len(page.Resources)
		for _, res := range page.Resources {
			for _, issue := range res.ItemLevelIssues {
				issues = append(issues, ProductIssue{
					ProductID:     res.ProductID,
					ProductTitle:  res.Title,
					Code:          issue.Code,
					Severity:      severityOf(issue.Servability),
					Description:   issue.Description,
					Detail:        issue.Detail,
					Documentation: issue.Documentation,
				})
			}
		}

		if page.NextPageToken == "" {
			return issues, products, nil
		}
		pageToken = page.NextPageToken
	}
}

// ApplyFix patches one product attribute through the Content API.
func (c *Client) ApplyFix(ctx context.Context, productID string, attributes map[string]any) error {
	body, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("marshal fix: %w", err)
	}

	u := fmt.Sprintf("%s/%s/products/%s?updateMask=%s",
		c.baseURL, c.merchantID, productID, strings.Join(keysOf(attributes), ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build fix request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apply fix for %s: %w", productID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("apply fix for %s: status %d", productID, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// severityOf maps Content API servability onto the severity bands the
// rest of the pipeline uses.
func severityOf(servability string) string {
	switch strings.ToLower(servability) {
	case "disapproved", "unaffected_by_issue_unverified":
		return "critical"
	case "demoted":
		return "error"
	case "unaffected":
		return "warning"
	default:
		if servability == "" {
			return "warning"
		}
		return strings.ToLower(servability)
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

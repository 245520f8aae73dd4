// Package crawl fetches the storefront and produces the crawl snapshot
// the analyzers work from.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
	"github.com/lumera/seopilot/internal/sitemap"
)

// Options configures one crawler instance.
type Options struct {
	Host      string
	UserAgent string
	MaxDepth  int
	MaxPages  int
	Delay     time.Duration
	Timeout   time.Duration
}

// Crawler walks the storefront with colly, following internal links up
// to the configured depth and page budget. When a sitemap client is
// present, the URLs the site advertises are added to the seed set.
type Crawler struct {
	opts     Options
	sitemaps *sitemap.Client
	clock    seo.Clock
	logger   *zap.Logger
}

// New validates the options and builds a crawler. sitemaps may be nil
// to skip sitemap seeding.
func New(opts Options, sitemaps *sitemap.Client, clock seo.Clock, logger *zap.Logger) (*Crawler, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, fmt.Errorf("crawl host is required")
	}
	if opts.MaxPages <= 0 {
		return nil, fmt.Errorf("max pages must be positive")
	}
	return &Crawler{opts: opts, sitemaps: sitemaps, clock: clock, logger: logger}, nil
}

// Crawl visits the seed URLs and every reachable internal page until the
// page budget is exhausted. Pages that fail to fetch are recorded with
// their error rather than failing the crawl; Crawl itself only errors
// when no seed could be visited at all.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) (seo.Snapshot, error) {
	snapshot := make(seo.Snapshot)
	var mu sync.Mutex

	collector := colly.NewCollector(
		colly.AllowedDomains(c.opts.Host),
		colly.UserAgent(c.opts.UserAgent),
		colly.MaxDepth(c.opts.MaxDepth),
	)
	collector.SetRequestTimeout(c.opts.Timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      c.opts.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limit: %w", err)
	}

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		mu.Lock()
		full := len(snapshot) >= c.opts.MaxPages
		mu.Unlock()
		if full {
			r.Abort()
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		pageURL, err := seo.NormalizeURL(r.Request.URL.String())
		if err != nil {
			return
		}
		record, err := Extract(pageURL, r.StatusCode, r.Body, c.opts.Host)
		if err != nil {
			record = seo.PageRecord{URL: pageURL, StatusCode: r.StatusCode, Error: err.Error()}
		}
		record.FetchedAt = c.clock.Now()

		mu.Lock()
		if _, exists := snapshot[pageURL]; !exists && len(snapshot) < c.opts.MaxPages {
			snapshot[pageURL] = record
		}
		links := record.InternalLinks
		mu.Unlock()

		for _, link := range links {
			// Visit errors (already visited, depth, filters) are expected.
			_ = r.Request.Visit(link)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		pageURL, nErr := seo.NormalizeURL(r.Request.URL.String())
		if nErr != nil {
			return
		}
		status := r.StatusCode
		c.logger.Warn("page fetch failed",
			zap.String("url", pageURL),
			zap.Int("status", status),
			zap.Error(err))

		// Transport-level failures carry no status code and produce no
		// page; only HTTP error responses become records.
		if status == 0 {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if _, exists := snapshot[pageURL]; !exists && len(snapshot) < c.opts.MaxPages {
			snapshot[pageURL] = seo.PageRecord{
				URL:        pageURL,
				StatusCode: status,
				Error:      err.Error(),
				FetchedAt:  c.clock.Now(),
			}
		}
	})

	for _, seed := range c.expandSeeds(ctx, seeds) {
		if err := collector.Visit(seed); err != nil {
			c.logger.Warn("seed visit failed", zap.String("seed", seed), zap.Error(err))
		}
	}
	collector.Wait()

	if len(snapshot) == 0 {
		return nil, fmt.Errorf("crawl produced no pages from %d seeds", len(seeds))
	}

	c.logger.Info("crawl complete", zap.Int("pages", len(snapshot)))
	return snapshot, nil
}

// expandSeeds appends the sitemap-advertised URLs of the first seed's
// site to the seed list, bounded by the page budget.
func (c *Crawler) expandSeeds(ctx context.Context, seeds []string) []string {
	if c.sitemaps == nil || len(seeds) == 0 {
		return seeds
	}

	sitemapURLs, err := c.sitemaps.Discover(ctx, baseOf(seeds[0]))
	if err != nil {
		c.logger.Warn("sitemap discovery failed", zap.Error(err))
		return seeds
	}

	out := append([]string{}, seeds...)
	for _, sm := range sitemapURLs {
		pages, err := c.sitemaps.URLs(ctx, sm)
		if err != nil {
			c.logger.Debug("sitemap fetch failed", zap.String("sitemap", sm), zap.Error(err))
			continue
		}
		for _, p := range pages {
			if len(out) >= c.opts.MaxPages {
				return out
			}
			out = append(out, p)
		}
	}
	return out
}

func baseOf(seed string) string {
	u, err := url.Parse(seed)
	if err != nil {
		return seed
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

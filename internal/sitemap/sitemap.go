// Package sitemap discovers and parses XML sitemaps so crawls can seed
// from the pages the site actually advertises.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// maxIndexDepth bounds recursion through nested sitemap indexes.
const maxIndexDepth = 3

// maxBodySize caps how much of a sitemap response is read.
const maxBodySize = 10 << 20

// Client fetches robots.txt and sitemap documents.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// NewClient builds a sitemap client with the given request timeout.
func NewClient(timeout time.Duration, userAgent string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Discover returns the sitemap URLs advertised by baseURL's robots.txt.
// When robots.txt is missing or lists none, the conventional
// /sitemap.xml location is returned as a fallback.
func (c *Client) Discover(ctx context.Context, baseURL string) ([]string, error) {
	base := strings.TrimSuffix(baseURL, "/")
	fallback := []string{base + "/sitemap.xml"}

	body, err := c.fetch(ctx, base+"/robots.txt")
	if err != nil {
		c.logger.Debug("robots.txt not readable, using conventional sitemap location",
			zap.String("base", base), zap.Error(err))
		return fallback, nil
	}

	robots, err := robotstxt.FromBytes(body)
	if err != nil {
		return fallback, nil
	}
	if len(robots.Sitemaps) == 0 {
		return fallback, nil
	}
	return robots.Sitemaps, nil
}

// URLs fetches a sitemap and returns every page URL in it, following
// sitemap index entries recursively.
func (c *Client) URLs(ctx context.Context, sitemapURL string) ([]string, error) {
	return c.urls(ctx, sitemapURL, 0)
}

type urlset struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapindex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

func (c *Client) urls(ctx context.Context, sitemapURL string, depth int) ([]string, error) {
	if depth > maxIndexDepth {
		return nil, fmt.Errorf("sitemap index nesting exceeds depth %d", maxIndexDepth)
	}

	body, err := c.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var set urlset
	if err := xml.Unmarshal(body, &set); err == nil && len(set.URLs) > 0 {
		out := make([]string, 0, len(set.URLs))
		for _, u := range set.URLs {
			loc := strings.TrimSpace(u.Loc)
			if loc != "" {
				out = append(out, loc)
			}
		}
		return out, nil
	}

	var index sitemapindex
	if err := xml.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", sitemapURL, err)
	}

	var out []string
	for _, child := range index.Sitemaps {
		loc := strings.TrimSpace(child.Loc)
		if loc == "" {
			continue
		}
		childURLs, err := c.urls(ctx, loc, depth+1)
		if err != nil {
			c.logger.Warn("child sitemap failed", zap.String("url", loc), zap.Error(err))
			continue
		}
		out = append(out, childURLs...)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", u, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	return body, nil
}

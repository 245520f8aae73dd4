package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/sitemap"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Home</title></head>
			<body><h1>Welcome</h1>
			<a href="/about">About</a>
			<a href="/missing">Missing</a></body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>About</title></head>
			<body><h1>About us</h1><a href="/">Home</a></body></html>`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return srv, u.Hostname()
}

func newTestCrawler(t *testing.T, host string, maxPages int) *Crawler {
	t.Helper()
	c, err := New(Options{
		Host:      host,
		UserAgent: "seopilot-bot/1.0",
		MaxDepth:  3,
		MaxPages:  maxPages,
		Timeout:   5 * time.Second,
	}, nil, fixedClock{t: time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC)}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestCrawl_FollowsInternalLinks(t *testing.T) {
	srv, host := testServer(t)
	c := newTestCrawler(t, host, 50)

	snapshot, err := c.Crawl(context.Background(), []string{srv.URL + "/"})
	require.NoError(t, err)

	require.Len(t, snapshot, 3)

	var titles []string
	var notFound int
	for _, rec := range snapshot {
		titles = append(titles, rec.Title)
		if rec.StatusCode == http.StatusNotFound {
			notFound++
		}
		require.False(t, rec.FetchedAt.IsZero())
	}
	require.Contains(t, titles, "Home")
	require.Contains(t, titles, "About")
	require.Equal(t, 1, notFound)
}

func TestCrawl_RespectsPageBudget(t *testing.T) {
	srv, host := testServer(t)
	c := newTestCrawler(t, host, 1)

	snapshot, err := c.Crawl(context.Background(), []string{srv.URL + "/"})
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
}

func TestCrawl_BrokenPageRecordedNotFatal(t *testing.T) {
	srv, host := testServer(t)
	c := newTestCrawler(t, host, 50)

	snapshot, err := c.Crawl(context.Background(), []string{srv.URL + "/"})
	require.NoError(t, err)

	for key, rec := range snapshot {
		if rec.StatusCode == http.StatusNotFound {
			require.NotEmpty(t, rec.Error)
			require.Contains(t, key, "/missing")
		}
	}
}

func TestCrawl_NoReachableSeedsFails(t *testing.T) {
	c := newTestCrawler(t, "127.0.0.1", 10)

	// Port 1 refuses connections; the error lands in OnError with no
	// status code, but with zero successful pages the crawl fails.
	_, err := c.Crawl(context.Background(), []string{"http://127.0.0.1:1/"})
	require.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Host: "", MaxPages: 10}, nil, fixedClock{}, zap.NewNop())
	require.Error(t, err)

	_, err = New(Options{Host: "shop.example.com", MaxPages: 0}, nil, fixedClock{}, zap.NewNop())
	require.Error(t, err)
}

func TestCrawl_SitemapSeeding(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		// No robots.txt; discovery falls back to /sitemap.xml.
		http.NotFound(w, r)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		host := "http://" + r.Host
		fmt.Fprintf(w, `<urlset><url><loc>%s/hidden</loc></url></urlset>`, host)
	})
	mux.HandleFunc("/hidden", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Hidden</title></head><body><h1>Not linked anywhere</h1></body></html>`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Home</title></head><body><h1>Welcome</h1></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c, err := New(Options{
		Host:      u.Hostname(),
		UserAgent: "seopilot-bot/1.0",
		MaxDepth:  3,
		MaxPages:  50,
		Timeout:   5 * time.Second,
	}, sitemap.NewClient(5*time.Second, "seopilot-bot/1.0", zap.NewNop()),
		fixedClock{t: time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC)}, zap.NewNop())
	require.NoError(t, err)

	snapshot, err := c.Crawl(context.Background(), []string{srv.URL + "/"})
	require.NoError(t, err)

	var titles []string
	for _, rec := range snapshot {
		titles = append(titles, rec.Title)
	}
	require.Contains(t, titles, "Hidden", "sitemap-only page should be crawled")
}

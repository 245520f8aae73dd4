package seo

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL so every subsystem keys pages the same
// way: lowercase scheme and host, default ports removed, query and fragment
// dropped, trailing slash stripped from non-root paths.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	path := u.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, path), nil
}

// SameHost reports whether rawURL points at the given host, treating an
// empty host (relative URL) as a match.
func SameHost(rawURL, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == "" || strings.EqualFold(u.Hostname(), host)
}

package crawl

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lumera/seopilot/internal/seo"
)

// Extract parses a fetched HTML document into a page record. Link URLs
// are resolved against the page URL and normalized; links pointing at
// host are internal, everything else external.
func Extract(pageURL string, statusCode int, body []byte, host string) (seo.PageRecord, error) {
	record := seo.PageRecord{URL: pageURL, StatusCode: statusCode}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return record, err
	}

	record.Title = strings.TrimSpace(doc.Find("title").First().Text())
	record.Description = attrOf(doc, `meta[name="description"]`, "content")
	record.H1 = strings.TrimSpace(doc.Find("h1").First().Text())
	record.Canonical = attrOf(doc, `link[rel="canonical"]`, "href")
	record.RobotsMeta = attrOf(doc, `meta[name="robots"]`, "content")

	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}
		abs := resolve(pageURL, href)
		if abs == "" {
			return
		}
		normalized, err := seo.NormalizeURL(abs)
		if err != nil || seen[normalized] {
			return
		}
		seen[normalized] = true
		if seo.SameHost(normalized, host) {
			record.InternalLinks = append(record.InternalLinks, normalized)
		} else {
			record.ExternalLinks = append(record.ExternalLinks, normalized)
		}
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if strings.TrimSpace(src) == "" {
			return
		}
		alt, _ := s.Attr("alt")
		loading, _ := s.Attr("loading")
		record.Images = append(record.Images, seo.Image{Src: src, Alt: alt, Loading: loading})
	})

	record.SchemaTypes = extractSchemaTypes(doc)
	record.WordCount = countWords(doc)

	return record, nil
}

func attrOf(doc *goquery.Document, selector, attr string) string {
	v, _ := doc.Find(selector).First().Attr(attr)
	return strings.TrimSpace(v)
}

// extractSchemaTypes collects the @type values of all JSON-LD blocks,
// including entries nested under @graph.
func extractSchemaTypes(doc *goquery.Document) []string {
	var types []string
	seen := map[string]bool{}

	add := func(node map[string]any) {
		switch v := node["@type"].(type) {
		case string:
			if !seen[v] {
				seen[v] = true
				types = append(types, v)
			}
		case []any:
			for _, t := range v {
				if s, ok := t.(string); ok && !seen[s] {
					seen[s] = true
					types = append(types, s)
				}
			}
		}
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return
		}
		nodes := []any{payload}
		if arr, ok := payload.([]any); ok {
			nodes = arr
		}
		for _, n := range nodes {
			obj, ok := n.(map[string]any)
			if !ok {
				continue
			}
			add(obj)
			if graph, ok := obj["@graph"].([]any); ok {
				for _, g := range graph {
					if gobj, ok := g.(map[string]any); ok {
						add(gobj)
					}
				}
			}
		}
	})

	return types
}

// countWords approximates the visible word count by stripping script and
// style content from the body text.
func countWords(doc *goquery.Document) int {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return len(strings.Fields(body.Text()))
}

func resolve(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

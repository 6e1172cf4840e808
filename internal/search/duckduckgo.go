package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/noveltylab/priorart/shared/httpclient"
)

const duckDuckGoSearchURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoProvider performs web searches against the DuckDuckGo HTML
// endpoint. It needs no API key, which makes it the default web source.
type DuckDuckGoProvider struct {
	httpClient *http.Client
	searchURL  string
	limit      int
	enricher   *ContentEnricher
}

type DuckDuckGoOption func(*DuckDuckGoProvider)

func WithDuckDuckGoURL(url string) DuckDuckGoOption {
	return func(p *DuckDuckGoProvider) { p.searchURL = url }
}

func WithDuckDuckGoHTTPClient(client *http.Client) DuckDuckGoOption {
	return func(p *DuckDuckGoProvider) { p.httpClient = client }
}

func WithDuckDuckGoLimit(limit int) DuckDuckGoOption {
	return func(p *DuckDuckGoProvider) { p.limit = limit }
}

// WithDuckDuckGoEnricher makes the provider replace result snippets with
// readable page content before they are embedded.
func WithDuckDuckGoEnricher(e *ContentEnricher) DuckDuckGoOption {
	return func(p *DuckDuckGoProvider) { p.enricher = e }
}

func NewDuckDuckGoProvider(opts ...DuckDuckGoOption) *DuckDuckGoProvider {
	p := &DuckDuckGoProvider{
		httpClient: httpclient.NewProvider(),
		searchURL:  duckDuckGoSearchURL,
		limit:      DefaultLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *DuckDuckGoProvider) Source() string {
	return SourceWeb
}

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string) ([]Result, error) {
	formData := url.Values{}
	formData.Set("q", truncateQuery(query))
	formData.Set("b", "")
	formData.Set("kl", "us-en")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.searchURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; priorart/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	results := parseDuckDuckGoResults(doc, p.limit)
	if p.enricher != nil {
		p.enricher.Enrich(ctx, results)
	}
	return results, nil
}

func parseDuckDuckGoResults(doc *goquery.Document, limit int) []Result {
	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		href = resolveDuckDuckGoRedirect(href)
		// Internal links (ads, settings) have no external target.
		if href == "" || strings.Contains(href, "duckduckgo.com") || strings.HasPrefix(href, "/") {
			return true
		}

		results = append(results, Result{
			Title:   strings.TrimSpace(link.Text()),
			Snippet: strings.TrimSpace(sel.Find("a.result__snippet").First().Text()),
			Link:    href,
		})
		return len(results) < limit
	})
	return results
}

// resolveDuckDuckGoRedirect unwraps the uddg redirect parameter DuckDuckGo
// wraps external links in.
func resolveDuckDuckGoRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	readability "codeberg.org/readeck/go-readability/v2"

	"github.com/noveltylab/priorart/shared/httpclient"
)

const (
	maxPageSize      = 2 * 1024 * 1024
	maxSnippetLength = 5000
	maxRedirects     = 5
)

// ContentEnricher replaces thin search snippets with the readable content of
// the result page, rendered as markdown. Enrichment is best effort: a page
// that cannot be fetched or parsed keeps its original snippet.
type ContentEnricher struct {
	httpClient *http.Client
}

func NewContentEnricher() *ContentEnricher {
	return &ContentEnricher{
		httpClient: httpclient.NewLong(),
	}
}

func (e *ContentEnricher) Enrich(ctx context.Context, results []Result) {
	for i := range results {
		content, err := e.fetchReadable(ctx, results[i].Link)
		if err != nil {
			slog.DebugContext(ctx, "content enrichment skipped", "link", results[i].Link, "error", err)
			continue
		}
		if content != "" {
			results[i].Snippet = content
		}
	}
}

func (e *ContentEnricher) fetchReadable(ctx context.Context, pageURL string) (string, error) {
	htmlContent, finalURL, err := e.fetchHTML(ctx, pageURL)
	if err != nil {
		return "", err
	}

	parsedURL, err := url.Parse(finalURL)
	if err != nil {
		return "", fmt.Errorf("parse final URL: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(htmlContent), parsedURL)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	var htmlBuf strings.Builder
	if err := article.RenderHTML(&htmlBuf); err != nil {
		return "", fmt.Errorf("render content: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(
		htmlBuf.String(),
		converter.WithDomain(finalURL),
	)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if len(markdown) > maxSnippetLength {
		markdown = markdown[:maxSnippetLength] + "\n[truncated...]"
	}
	return markdown, nil
}

func (e *ContentEnricher) fetchHTML(ctx context.Context, pageURL string) (content, finalURL string, err error) {
	client := *e.httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("too many redirects (max %d)", maxRedirects)
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; priorart/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("fetch returned HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", "", fmt.Errorf("unsupported content type %q", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", "", err
	}
	return string(body), resp.Request.URL.String(), nil
}

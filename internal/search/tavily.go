package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/noveltylab/priorart/shared/httpclient"
)

const tavilyBaseURL = "https://api.tavily.com"

// TavilyProvider performs web searches through the Tavily API. Preferred over
// DuckDuckGo when a key is configured since it returns clean JSON snippets.
type TavilyProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limit      int
}

type TavilyOption func(*TavilyProvider)

func WithTavilyBaseURL(url string) TavilyOption {
	return func(p *TavilyProvider) { p.baseURL = url }
}

func WithTavilyHTTPClient(client *http.Client) TavilyOption {
	return func(p *TavilyProvider) { p.httpClient = client }
}

func WithTavilyLimit(limit int) TavilyOption {
	return func(p *TavilyProvider) { p.limit = limit }
}

func NewTavilyProvider(apiKey string, opts ...TavilyOption) *TavilyProvider {
	p := &TavilyProvider{
		httpClient: httpclient.NewProvider(),
		baseURL:    tavilyBaseURL,
		apiKey:     apiKey,
		limit:      DefaultLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *TavilyProvider) Source() string {
	return SourceWeb
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (p *TavilyProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("tavily search: API key is not configured")
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:     p.apiKey,
		Query:      truncateQuery(query),
		MaxResults: p.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily search returned HTTP %d", resp.StatusCode)
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.Content == "" && r.Title == "" {
			continue
		}
		results = append(results, Result{
			Title:   orDefault(r.Title, "No Title"),
			Snippet: r.Content,
			Link:    orDefault(r.URL, "#"),
		})
	}
	return results, nil
}

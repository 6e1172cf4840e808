package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noveltylab/priorart/shared/backoff"
	"github.com/noveltylab/priorart/shared/httpclient"
)

const scholarBaseURL = "https://api.semanticscholar.org/graph/v1"

// ScholarProvider queries the Semantic Scholar paper search API. An API key is
// optional; without one the public (heavily rate-limited) tier is used.
type ScholarProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limit      int
}

type ScholarOption func(*ScholarProvider)

func WithScholarBaseURL(url string) ScholarOption {
	return func(p *ScholarProvider) { p.baseURL = url }
}

func WithScholarHTTPClient(client *http.Client) ScholarOption {
	return func(p *ScholarProvider) { p.httpClient = client }
}

func WithScholarLimit(limit int) ScholarOption {
	return func(p *ScholarProvider) { p.limit = limit }
}

func NewScholarProvider(apiKey string, opts ...ScholarOption) *ScholarProvider {
	p := &ScholarProvider{
		httpClient: httpclient.NewProvider(),
		baseURL:    scholarBaseURL,
		apiKey:     apiKey,
		limit:      DefaultLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ScholarProvider) Source() string {
	return SourceAcademic
}

type scholarResponse struct {
	Data []scholarPaper `json:"data"`
}

type scholarPaper struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
}

func (p *ScholarProvider) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("query", truncateQuery(query))
	params.Set("limit", strconv.Itoa(p.limit))
	params.Set("fields", "title,abstract,year,authors,url,citationCount")

	endpoint := p.baseURL + "/paper/search?" + params.Encode()

	var decoded scholarResponse
	var permanent error
	err := backoff.Retry(ctx, backoff.Quick, func(ctx context.Context, attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		if p.apiKey != "" {
			req.Header.Set("x-api-key", p.apiKey)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("semantic scholar search returned HTTP %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			permanent = fmt.Errorf("semantic scholar search returned HTTP %d", resp.StatusCode)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(&decoded)
	})
	if err == nil {
		err = permanent
	}
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(decoded.Data))
	for _, paper := range decoded.Data {
		results = append(results, Result{
			Title:   orDefault(paper.Title, "No Title"),
			Snippet: orDefault(paper.Abstract, "No abstract available"),
			Link:    paper.URL,
		})
	}
	return results, nil
}

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/noveltylab/priorart/shared/backoff"
	"github.com/noveltylab/priorart/shared/httpclient"
)

const lensBaseURL = "https://api.lens.org"

// LensClient queries the Lens.org API. The same endpoint shape serves both
// the patent and the scholarly corpus, so one client backs two providers.
type LensClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limit      int
}

type LensOption func(*LensClient)

func WithLensBaseURL(url string) LensOption {
	return func(c *LensClient) { c.baseURL = url }
}

func WithLensHTTPClient(client *http.Client) LensOption {
	return func(c *LensClient) { c.httpClient = client }
}

func WithLensLimit(limit int) LensOption {
	return func(c *LensClient) { c.limit = limit }
}

func NewLensClient(token string, opts ...LensOption) *LensClient {
	c := &LensClient{
		httpClient: httpclient.NewProvider(),
		baseURL:    lensBaseURL,
		token:      token,
		limit:      DefaultLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Patents returns a Provider over the Lens patent corpus.
func (c *LensClient) Patents() Provider {
	return &lensProvider{client: c, source: SourcePatents, corpus: "patent"}
}

// Scholar returns a Provider over the Lens scholarly corpus.
func (c *LensClient) Scholar() Provider {
	return &lensProvider{client: c, source: SourceAcademic, corpus: "scholar"}
}

type lensProvider struct {
	client *LensClient
	source string
	corpus string
}

func (p *lensProvider) Source() string {
	return p.source
}

func (p *lensProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if p.client.token == "" {
		return nil, fmt.Errorf("lens %s search: API token is not configured", p.corpus)
	}
	return p.client.search(ctx, p.corpus, truncateQuery(query))
}

type lensRequest struct {
	Query   lensQuery `json:"query"`
	Size    int       `json:"size"`
	Include []string  `json:"include"`
}

type lensQuery struct {
	MatchPhrase map[string]string `json:"match_phrase"`
}

type lensResponse struct {
	Data []lensRecord `json:"data"`
}

type lensRecord struct {
	LensID     string          `json:"lens_id"`
	Title      string          `json:"title"`
	Abstract   json.RawMessage `json:"abstract"`
	SourceURLs []lensSourceURL `json:"source_urls"`
}

type lensSourceURL struct {
	URL string `json:"url"`
}

func (c *LensClient) search(ctx context.Context, corpus, query string) ([]Result, error) {
	payload := lensRequest{
		Query:   lensQuery{MatchPhrase: map[string]string{"text": query}},
		Size:    c.limit,
		Include: []string{"lens_id", "title", "abstract", "source_urls"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal lens request: %w", err)
	}

	// Only rate limits and server errors go through the retry loop; client
	// errors are reported immediately.
	var decoded lensResponse
	var permanent error
	err = backoff.Retry(ctx, backoff.Quick, func(ctx context.Context, attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("%s/%s/search", c.baseURL, corpus), bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("lens %s search returned HTTP %d", corpus, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			permanent = fmt.Errorf("lens %s search returned HTTP %d: %s", corpus, resp.StatusCode, text)
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
	for _, rec := range decoded.Data {
		results = append(results, Result{
			Title:   orDefault(rec.Title, "No Title"),
			Snippet: lensAbstract(rec.Abstract),
			Link:    c.recordLink(corpus, rec),
		})
	}
	return results, nil
}

func (c *LensClient) recordLink(corpus string, rec lensRecord) string {
	if corpus == "scholar" {
		for _, su := range rec.SourceURLs {
			if su.URL != "" {
				return su.URL
			}
		}
	}
	return fmt.Sprintf("https://www.lens.org/lens/%s/%s", corpus, rec.LensID)
}

// lensAbstract handles the two abstract encodings Lens uses: a plain string
// for patents and an object with a text field for scholarly works.
func lensAbstract(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "No abstract available"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Text != "" {
		return obj.Text
	}
	return "No abstract available"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

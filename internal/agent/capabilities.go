package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/noveltylab/priorart/internal/llm"
	"github.com/noveltylab/priorart/internal/metrics"
	"github.com/noveltylab/priorart/internal/search"
)

// Capability names, as exposed to the decision oracle.
const (
	CapParseIdea         = "parse_idea"
	CapEmbedIdea         = "embed_idea"
	CapSearchPatents     = "search_patents"
	CapSearchAcademic    = "search_academic"
	CapSearchWeb         = "search_web"
	CapCompareSimilarity = "compare_similarity"
	CapSummarizeResults  = "summarize_results"
)

// CanonicalSourceOrder fixes the cross-source iteration order for similarity
// comparison, so equal-scoring matches from different sources always land in
// the same relative position.
var CanonicalSourceOrder = []string{search.SourcePatents, search.SourceAcademic, search.SourceWeb}

// ChatCompleter is the chat-completion surface capabilities need. *llm.Client
// satisfies it; tests substitute scripted fakes.
type ChatCompleter interface {
	ChatWithOptions(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec, opts llm.ChatOptions) (*llm.Response, error)
}

// Embedder is the embedding surface capabilities need.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Capability is one unit of work the oracle can request. Run reads the state
// it is handed and returns a partial update; it never mutates the state.
type Capability struct {
	Name        string
	Description string
	Schema      map[string]any
	Run         func(ctx context.Context, st *State) (*Delta, error)
}

// Set is the capability registry for a session.
type Set struct {
	byName map[string]*Capability
	order  []string
}

// Get returns the named capability, or nil when unknown.
func (s *Set) Get(name string) *Capability {
	return s.byName[name]
}

// Specs renders the registry as tool specifications for the oracle, in
// registration order.
func (s *Set) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(s.order))
	for _, name := range s.order {
		c := s.byName[name]
		specs = append(specs, llm.ToolSpec{Name: c.Name, Description: c.Description, Schema: c.Schema})
	}
	return specs
}

func (s *Set) add(c *Capability) {
	s.byName[c.Name] = c
	s.order = append(s.order, c.Name)
}

// Deps carries everything the capability set needs from the outside.
type Deps struct {
	Chat     ChatCompleter
	Embedder Embedder

	Patents  search.Provider
	Academic search.Provider
	Web      search.Provider

	// SimilarityThreshold is the strict lower bound for accepting a match.
	// Zero means the default of 0.5.
	SimilarityThreshold float64

	// TopMatches caps how many matches feed the summarization prompt.
	// Zero means the default of 5.
	TopMatches int
}

const (
	defaultSimilarityThreshold = 0.5
	defaultTopMatches          = 5
)

// noArgsSchema is the parameter schema for capabilities that take no input;
// everything they need lives in the session state.
var noArgsSchema = map[string]any{
	"type":       "object",
	"properties": map[string]any{},
}

// NewCapabilitySet builds the full registry in canonical pipeline order.
func NewCapabilitySet(deps Deps) *Set {
	if deps.SimilarityThreshold == 0 {
		deps.SimilarityThreshold = defaultSimilarityThreshold
	}
	if deps.TopMatches == 0 {
		deps.TopMatches = defaultTopMatches
	}

	s := &Set{byName: make(map[string]*Capability)}
	s.add(newParseCapability(deps.Chat))
	s.add(newEmbedCapability(deps.Embedder))
	s.add(newSearchCapability(CapSearchPatents, search.SourcePatents,
		"Search patent databases for existing patents similar to the parsed idea summary.",
		deps.Patents, deps.Embedder))
	s.add(newSearchCapability(CapSearchAcademic, search.SourceAcademic,
		"Search academic literature for papers similar to the parsed idea summary.",
		deps.Academic, deps.Embedder))
	s.add(newSearchCapability(CapSearchWeb, search.SourceWeb,
		"Search the web for existing products or projects similar to the parsed idea summary.",
		deps.Web, deps.Embedder))
	s.add(newCompareCapability(deps.SimilarityThreshold))
	s.add(newSummarizeCapability(deps.Chat, deps.TopMatches))
	return s
}

// parseResponseFormat constrains the parse completion to the ParsedIdea shape.
var parseResponseFormat = &openai.ChatCompletionResponseFormat{
	Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
	JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
		Name:   "parsed_idea",
		Strict: true,
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"summary": {"type": "string"},
				"keywords": {"type": "array", "items": {"type": "string"}}
			},
			"required": ["summary", "keywords"],
			"additionalProperties": false
		}`),
	},
}

func newParseCapability(chat ChatCompleter) *Capability {
	return &Capability{
		Name:        CapParseIdea,
		Description: "Extract a concise summary and search keywords from the user's invention idea. Call this first.",
		Schema:      noArgsSchema,
		Run: func(ctx context.Context, st *State) (*Delta, error) {
			resp, err := chat.ChatWithOptions(ctx, []llm.Message{
				{Role: "system", Content: parseSystemPrompt},
				{Role: "user", Content: st.OriginalIdea},
			}, nil, llm.ChatOptions{
				Temperature:    llm.Float32Ptr(0.1),
				ResponseFormat: parseResponseFormat,
			})
			if err != nil {
				return nil, fmt.Errorf("parsing idea: %w", err)
			}

			var parsed ParsedIdea
			if err := json.Unmarshal([]byte(extractJSONObject(resp.Content)), &parsed); err != nil {
				return nil, fmt.Errorf("decoding parsed idea: %w", err)
			}
			if strings.TrimSpace(parsed.Summary) == "" {
				return nil, fmt.Errorf("parsed idea has empty summary")
			}
			slog.InfoContext(ctx, "idea parsed", "summary_length", len(parsed.Summary), "keywords", len(parsed.Keywords))
			return &Delta{Parsed: &parsed}, nil
		},
	}
}

// extractJSONObject trims anything a model wraps around the JSON object, such
// as markdown fences.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

func newEmbedCapability(embedder Embedder) *Capability {
	return &Capability{
		Name:        CapEmbedIdea,
		Description: "Compute an embedding vector for the parsed idea summary. Requires parse_idea to have run.",
		Schema:      noArgsSchema,
		Run: func(ctx context.Context, st *State) (*Delta, error) {
			if st.Parsed == nil || st.Parsed.Summary == "" {
				slog.WarnContext(ctx, "embed requested without a parsed summary")
				return &Delta{EmbeddingSet: true}, nil
			}
			vec, err := embedder.Embed(ctx, st.Parsed.Summary)
			if err != nil {
				// A missing embedding degrades the comparison step to an
				// empty match list instead of failing the session.
				slog.ErrorContext(ctx, "embedding failed", "error", err)
				return &Delta{EmbeddingSet: true}, nil
			}
			return &Delta{Embedding: vec, EmbeddingSet: true}, nil
		},
	}
}

const noSummaryError = "No summary available to search."

func newSearchCapability(name, source, description string, provider search.Provider, embedder Embedder) *Capability {
	return &Capability{
		Name:        name,
		Description: description,
		Schema:      noArgsSchema,
		Run: func(ctx context.Context, st *State) (*Delta, error) {
			outcome := func() SearchOutcome {
				if st.Parsed == nil || st.Parsed.Summary == "" {
					return SearchOutcome{Err: noSummaryError}
				}
				start := time.Now()
				results, err := provider.Search(ctx, st.Parsed.Summary)
				metrics.SearchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
				if err != nil {
					slog.ErrorContext(ctx, "search failed", "source", source, "error", err)
					return SearchOutcome{Err: err.Error()}
				}
				metrics.SearchResults.WithLabelValues(source).Observe(float64(len(results)))
				embedResults(ctx, embedder, results)
				return SearchOutcome{Results: results}
			}()
			return &Delta{SearchResults: map[string]SearchOutcome{source: outcome}}, nil
		},
	}
}

// embedResults attaches embeddings to results in place, best effort. A result
// whose embedding fails keeps a nil vector and later scores 0 against the
// idea.
func embedResults(ctx context.Context, embedder Embedder, results []search.Result) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range results {
		g.Go(func() error {
			text := results[i].Title
			if results[i].Snippet != "" {
				text += "\n" + results[i].Snippet
			}
			vec, err := embedder.Embed(gctx, text)
			if err != nil {
				slog.WarnContext(gctx, "result embedding failed", "title", results[i].Title, "error", err)
				return nil
			}
			results[i].Embedding = vec
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors
}

func newCompareCapability(threshold float64) *Capability {
	return &Capability{
		Name:        CapCompareSimilarity,
		Description: "Score all search results against the idea embedding and keep those above the similarity threshold. Requires embed_idea and the searches to have run.",
		Schema:      noArgsSchema,
		Run: func(ctx context.Context, st *State) (*Delta, error) {
			if !st.EmbeddingSet || len(st.Embedding) == 0 {
				slog.WarnContext(ctx, "compare requested without an idea embedding")
				return &Delta{Matches: []Match{}, MatchesSet: true}, nil
			}

			matches := []Match{}
			for _, source := range CanonicalSourceOrder {
				outcome, ok := st.SearchResults[source]
				if !ok || outcome.Failed() {
					continue
				}
				for _, r := range outcome.Results {
					score := Cosine(st.Embedding, r.Embedding)
					if score > threshold {
						matches = append(matches, Match{Source: source, Details: r, Similarity: score})
					}
				}
			}
			sort.SliceStable(matches, func(i, j int) bool {
				return matches[i].Similarity > matches[j].Similarity
			})
			slog.InfoContext(ctx, "similarity compared", "matches", len(matches))
			return &Delta{Matches: matches, MatchesSet: true}, nil
		},
	}
}

func newSummarizeCapability(chat ChatCompleter, topMatches int) *Capability {
	return &Capability{
		Name:        CapSummarizeResults,
		Description: "Produce the final originality verdict from the compared matches. Call this last.",
		Schema:      noArgsSchema,
		Run: func(ctx context.Context, st *State) (*Delta, error) {
			if len(st.Matches) == 0 {
				// Nothing cleared the threshold; the verdict is fixed and
				// needs no model call.
				return &Delta{Verdict: noMatchesVerdict}, nil
			}

			matches := st.Matches
			if len(matches) > topMatches {
				matches = matches[:topMatches]
			}
			resp, err := chat.ChatWithOptions(ctx, []llm.Message{
				{Role: "user", Content: summarizePrompt(st.OriginalIdea, matches)},
			}, nil, llm.ChatOptions{Temperature: llm.Float32Ptr(0.3)})
			if err != nil {
				return nil, fmt.Errorf("summarizing results: %w", err)
			}
			verdict := strings.TrimSpace(resp.Content)
			if verdict == "" {
				return nil, fmt.Errorf("summarization returned empty verdict")
			}
			return &Delta{Verdict: verdict}, nil
		},
	}
}

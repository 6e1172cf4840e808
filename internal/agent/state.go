// Package agent implements the tool-orchestration core of the prior-art
// checker: a loop controller that alternates between a decision oracle and a
// capability executor over a per-session mutable state, until a verdict is
// produced or the turn ceiling is hit.
package agent

import (
	"github.com/noveltylab/priorart/internal/llm"
	"github.com/noveltylab/priorart/internal/search"
)

// ParsedIdea is the structured form of the user's invention idea.
type ParsedIdea struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

// SearchOutcome is the per-source result variant: either a list of results or
// a captured error string. Provider failures never propagate past this type.
type SearchOutcome struct {
	Results []search.Result `json:"results,omitempty"`
	Err     string          `json:"error,omitempty"`
}

// Failed reports whether the outcome is the error-string variant.
func (o SearchOutcome) Failed() bool {
	return o.Err != ""
}

// Match is a search result whose similarity to the idea embedding passed the
// acceptance threshold.
type Match struct {
	Source     string        `json:"source"`
	Details    search.Result `json:"details"`
	Similarity float64       `json:"similarity"`
}

// State is the session record accumulating everything derived from one idea.
// It is created fresh per request, threaded by reference through every oracle
// and executor round-trip, and discarded when the check completes.
type State struct {
	OriginalIdea string

	Parsed *ParsedIdea

	// Embedding is the idea vector; EmbeddingSet distinguishes "embed ran
	// and produced nothing" from "embed has not run yet".
	Embedding    []float32
	EmbeddingSet bool

	// SearchResults maps source name to that source's outcome. Each search
	// capability owns exactly one key.
	SearchResults map[string]SearchOutcome

	Matches    []Match
	MatchesSet bool

	Verdict string

	// FinalAnswer holds a terminal plain-text oracle answer, used when the
	// oracle stops requesting work without having produced a verdict.
	FinalAnswer string

	// Conversation is the append-only transcript of oracle outputs and
	// capability acknowledgments.
	Conversation []llm.Message

	// InvocationCount records attempted invocations per capability name.
	InvocationCount map[string]int

	// Turns is the number of oracle turns the session used.
	Turns int
}

func NewState(idea string) *State {
	return &State{
		OriginalIdea:    idea,
		SearchResults:   make(map[string]SearchOutcome),
		InvocationCount: make(map[string]int),
	}
}

// FallbackSummary is returned when the oracle never converges on a verdict.
const FallbackSummary = "The agent did not produce a final summary."

// Summary is the user-facing answer for the session: the verdict when one was
// produced, the oracle's terminal plain-text answer otherwise, and the
// fallback when neither exists.
func (s *State) Summary() string {
	if s.Verdict != "" {
		return s.Verdict
	}
	if s.FinalAnswer != "" {
		return s.FinalAnswer
	}
	return FallbackSummary
}

// Delta is a partial state update returned by a capability. Capabilities never
// mutate State directly; the executor is the single merge point.
type Delta struct {
	Parsed        *ParsedIdea
	Embedding     []float32
	EmbeddingSet  bool
	SearchResults map[string]SearchOutcome
	Matches       []Match
	MatchesSet    bool
	Verdict       string
}

// Apply merges a delta into the state. Top-level fields are replaced only
// when the delta carries them; SearchResults keys are merged additively and
// never overwrite an existing source's entry.
func (s *State) Apply(d *Delta) {
	if d == nil {
		return
	}
	if d.Parsed != nil {
		s.Parsed = d.Parsed
	}
	if d.EmbeddingSet {
		s.Embedding = d.Embedding
		s.EmbeddingSet = true
	}
	for source, outcome := range d.SearchResults {
		if _, exists := s.SearchResults[source]; !exists {
			s.SearchResults[source] = outcome
		}
	}
	if d.MatchesSet {
		s.Matches = d.Matches
		s.MatchesSet = true
	}
	if d.Verdict != "" {
		s.Verdict = d.Verdict
	}
}

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noveltylab/priorart/internal/llm"
	"github.com/noveltylab/priorart/internal/search"
)

func happyPathDeps(chat *fakeChat) Deps {
	ideaVec := []float32{1, 0, 0}
	return Deps{
		Chat: chat,
		Embedder: &fakeEmbedder{
			vectors: map[string][]float32{"a solar-powered umbrella": ideaVec},
			fallbck: []float32{0.9, 0.1, 0},
		},
		Patents: &fakeProvider{source: search.SourcePatents, results: []search.Result{
			{Title: "Photovoltaic parasol", Snippet: "umbrella with solar cells", Link: "https://lens.org/1"},
		}},
		Academic: &fakeProvider{source: search.SourceAcademic},
		Web: &fakeProvider{source: search.SourceWeb, results: []search.Result{
			{Title: "SunBrella product page", Snippet: "charge your phone at the beach", Link: "https://example.com"},
		}},
	}
}

// TestControllerFullSession drives the canonical pipeline: parse, embed, the
// three searches in one batch, compare, summarize, then a closing answer.
func TestControllerFullSession(t *testing.T) {
	chat := &fakeChat{responses: []*llm.Response{
		// parse_idea structured extraction
		{Content: `{"summary": "a solar-powered umbrella", "keywords": ["solar", "umbrella"]}`},
		// summarize_results verdict
		{Content: "Verdict: " + VerdictClearlyExisting + "\n\nNear-identical products already exist."},
	}}
	oracle := &scriptedOracle{decisions: []*Decision{
		{Calls: []llm.ToolCall{call("1", CapParseIdea)}},
		{Calls: []llm.ToolCall{call("2", CapEmbedIdea)}},
		{Calls: []llm.ToolCall{
			call("3", CapSearchPatents),
			call("4", CapSearchAcademic),
			call("5", CapSearchWeb),
		}},
		{Calls: []llm.ToolCall{call("6", CapCompareSimilarity)}},
		{Calls: []llm.ToolCall{call("7", CapSummarizeResults)}},
	}}

	set := NewCapabilitySet(happyPathDeps(chat))
	ctrl := NewController(oracle, NewExecutor(set))

	st, err := ctrl.Run(context.Background(), "an umbrella with solar panels that charges phones")
	require.NoError(t, err)

	assert.Contains(t, st.Summary(), VerdictClearlyExisting)
	require.NotNil(t, st.Parsed)
	assert.Equal(t, "a solar-powered umbrella", st.Parsed.Summary)
	assert.True(t, st.EmbeddingSet)
	assert.Len(t, st.SearchResults, 3)
	assert.False(t, st.SearchResults[search.SourcePatents].Failed())
	require.True(t, st.MatchesSet)
	// Both non-empty sources matched; patents first on the higher score tie-break.
	require.Len(t, st.Matches, 2)

	for _, name := range []string{
		CapParseIdea, CapEmbedIdea, CapSearchPatents,
		CapSearchAcademic, CapSearchWeb, CapCompareSimilarity, CapSummarizeResults,
	} {
		assert.Equal(t, 1, st.InvocationCount[name], name)
	}
}

// Re-requesting executed capabilities wastes turns but changes nothing.
func TestControllerToleratesRepeatRequests(t *testing.T) {
	chat := &fakeChat{responses: []*llm.Response{
		{Content: `{"summary": "a solar-powered umbrella", "keywords": ["solar"]}`},
	}}
	oracle := &scriptedOracle{decisions: []*Decision{
		{Calls: []llm.ToolCall{call("1", CapParseIdea)}},
		{Calls: []llm.ToolCall{call("2", CapParseIdea)}}, // rejected, count stays 1
		{FinalText: "I could not complete the search."},
	}}

	set := NewCapabilitySet(happyPathDeps(chat))
	ctrl := NewController(oracle, NewExecutor(set))

	st, err := ctrl.Run(context.Background(), "idea")
	require.NoError(t, err)
	assert.Equal(t, 1, st.InvocationCount[CapParseIdea])
	assert.Equal(t, 1, chat.callCount())
	assert.Equal(t, "I could not complete the search.", st.Summary())
}

func TestControllerCeilingFallback(t *testing.T) {
	chat := &fakeChat{responses: []*llm.Response{
		{Content: `{"summary": "s", "keywords": []}`},
	}}
	set := NewCapabilitySet(happyPathDeps(chat))
	ctrl := NewController(&loopingOracle{name: CapParseIdea}, NewExecutor(set), WithMaxTurns(5))

	st, err := ctrl.Run(context.Background(), "idea")
	require.NoError(t, err)
	assert.Equal(t, FallbackSummary, st.Summary())
	// First request executed, every later one rejected.
	assert.Equal(t, 1, st.InvocationCount[CapParseIdea])
}

func TestControllerStopsAfterVerdict(t *testing.T) {
	chat := &fakeChat{responses: []*llm.Response{
		{Content: `{"summary": "a solar-powered umbrella", "keywords": []}`},
	}}
	// No searches ran, so summarize hits the no-matches short-circuit. The
	// oracle never gets another turn once the verdict is in the state.
	oracle := &scriptedOracle{decisions: []*Decision{
		{Calls: []llm.ToolCall{call("1", CapParseIdea)}},
		{Calls: []llm.ToolCall{call("2", CapSummarizeResults)}},
	}}

	set := NewCapabilitySet(happyPathDeps(chat))
	ctrl := NewController(oracle, NewExecutor(set))

	st, err := ctrl.Run(context.Background(), "idea")
	require.NoError(t, err)
	assert.Equal(t, noMatchesVerdict, st.Verdict)
	assert.Equal(t, 2, oracle.turn)
}

func TestControllerDegradedProvidersStillVerdict(t *testing.T) {
	// Every provider fails; compare sees only error outcomes and summarize
	// returns the fixed no-matches verdict without a model call.
	chat := &fakeChat{responses: []*llm.Response{
		{Content: `{"summary": "a solar-powered umbrella", "keywords": []}`},
	}}
	deps := happyPathDeps(chat)
	deps.Patents = &fakeProvider{source: search.SourcePatents, err: assert.AnError}
	deps.Academic = &fakeProvider{source: search.SourceAcademic, err: assert.AnError}
	deps.Web = &fakeProvider{source: search.SourceWeb, err: assert.AnError}

	oracle := &scriptedOracle{decisions: []*Decision{
		{Calls: []llm.ToolCall{call("1", CapParseIdea)}},
		{Calls: []llm.ToolCall{call("2", CapEmbedIdea)}},
		{Calls: []llm.ToolCall{
			call("3", CapSearchPatents),
			call("4", CapSearchAcademic),
			call("5", CapSearchWeb),
		}},
		{Calls: []llm.ToolCall{call("6", CapCompareSimilarity)}},
		{Calls: []llm.ToolCall{call("7", CapSummarizeResults)}},
	}}

	ctrl := NewController(oracle, NewExecutor(NewCapabilitySet(deps)))
	st, err := ctrl.Run(context.Background(), "idea")
	require.NoError(t, err)

	for _, source := range CanonicalSourceOrder {
		assert.True(t, st.SearchResults[source].Failed(), source)
	}
	assert.Equal(t, noMatchesVerdict, st.Verdict)
	assert.Equal(t, 1, chat.callCount())
}

package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noveltylab/priorart/internal/llm"
	"github.com/noveltylab/priorart/internal/search"
)

func TestParseCapabilityDecodesStructuredOutput(t *testing.T) {
	chat := &fakeChat{responses: []*llm.Response{
		{Content: "```json\n{\"summary\": \"a solar-powered umbrella\", \"keywords\": [\"solar\", \"umbrella\"]}\n```"},
	}}
	c := newParseCapability(chat)

	delta, err := c.Run(context.Background(), NewState("an umbrella with solar panels"))
	require.NoError(t, err)
	require.NotNil(t, delta.Parsed)
	assert.Equal(t, "a solar-powered umbrella", delta.Parsed.Summary)
	assert.Equal(t, []string{"solar", "umbrella"}, delta.Parsed.Keywords)
}

func TestParseCapabilityRejectsEmptySummary(t *testing.T) {
	chat := &fakeChat{responses: []*llm.Response{
		{Content: `{"summary": "  ", "keywords": []}`},
	}}
	c := newParseCapability(chat)

	_, err := c.Run(context.Background(), NewState("idea"))
	assert.Error(t, err)
}

func TestEmbedCapabilityWithoutSummary(t *testing.T) {
	c := newEmbedCapability(&fakeEmbedder{})
	st := NewState("idea")

	delta, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, delta.EmbeddingSet)
	assert.Nil(t, delta.Embedding)
}

func TestEmbedCapabilityDegradesOnProviderError(t *testing.T) {
	c := newEmbedCapability(&fakeEmbedder{err: fmt.Errorf("quota exceeded")})
	st := NewState("idea")
	st.Parsed = &ParsedIdea{Summary: "a solar umbrella"}

	delta, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, delta.EmbeddingSet)
	assert.Nil(t, delta.Embedding)
}

func TestSearchCapabilityWithoutSummary(t *testing.T) {
	provider := &fakeProvider{source: search.SourceWeb}
	c := newSearchCapability(CapSearchWeb, search.SourceWeb, "", provider, &fakeEmbedder{})

	delta, err := c.Run(context.Background(), NewState("idea"))
	require.NoError(t, err)
	outcome := delta.SearchResults[search.SourceWeb]
	assert.True(t, outcome.Failed())
	assert.Equal(t, noSummaryError, outcome.Err)
}

func TestSearchCapabilityCapturesProviderError(t *testing.T) {
	provider := &fakeProvider{source: search.SourcePatents, err: fmt.Errorf("lens: status 503")}
	c := newSearchCapability(CapSearchPatents, search.SourcePatents, "", provider, &fakeEmbedder{})
	st := NewState("idea")
	st.Parsed = &ParsedIdea{Summary: "a solar umbrella"}

	delta, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	outcome := delta.SearchResults[search.SourcePatents]
	assert.True(t, outcome.Failed())
	assert.Contains(t, outcome.Err, "503")
}

func TestSearchCapabilityEmbedsResults(t *testing.T) {
	provider := &fakeProvider{source: search.SourceAcademic, results: []search.Result{
		{Title: "Solar parasol", Snippet: "a parasol with panels"},
	}}
	embedder := &fakeEmbedder{fallbck: []float32{0.1, 0.2}}
	c := newSearchCapability(CapSearchAcademic, search.SourceAcademic, "", provider, embedder)
	st := NewState("idea")
	st.Parsed = &ParsedIdea{Summary: "a solar umbrella"}

	delta, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	outcome := delta.SearchResults[search.SourceAcademic]
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, []float32{0.1, 0.2}, outcome.Results[0].Embedding)
}

func compareState(embedding []float32) *State {
	st := NewState("idea")
	st.Embedding = embedding
	st.EmbeddingSet = true
	return st
}

func TestCompareCapabilityWithoutEmbedding(t *testing.T) {
	c := newCompareCapability(defaultSimilarityThreshold)
	st := NewState("idea")
	st.EmbeddingSet = true // embed ran but yielded nothing

	delta, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, delta.MatchesSet)
	assert.Empty(t, delta.Matches)
	assert.NotNil(t, delta.Matches)
}

func TestCompareCapabilityThresholdAndOrder(t *testing.T) {
	c := newCompareCapability(defaultSimilarityThreshold)
	st := compareState([]float32{1, 0})
	st.SearchResults = map[string]SearchOutcome{
		search.SourceWeb: {Results: []search.Result{
			{Title: "web strong", Embedding: []float32{0.95, 0.05}},
		}},
		search.SourcePatents: {Results: []search.Result{
			{Title: "patent weak", Embedding: []float32{0.2, 0.98}},  // below threshold
			{Title: "patent strong", Embedding: []float32{1, 0.01}}, // near 1.0
			{Title: "patent missing vector"},                        // scores 0
		}},
		search.SourceAcademic: {Err: "upstream down"}, // skipped entirely
	}

	delta, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, delta.Matches, 2)
	assert.Equal(t, "patent strong", delta.Matches[0].Details.Title)
	assert.Equal(t, "web strong", delta.Matches[1].Details.Title)
	assert.Greater(t, delta.Matches[0].Similarity, delta.Matches[1].Similarity)
}

func TestCompareCapabilityIsIdempotentOnState(t *testing.T) {
	c := newCompareCapability(defaultSimilarityThreshold)
	st := compareState([]float32{1, 0})
	st.SearchResults = map[string]SearchOutcome{
		search.SourcePatents: {Results: []search.Result{
			{Title: "p", Embedding: []float32{0.9, 0.1}},
		}},
	}

	first, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	second, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, first.Matches, second.Matches)
}

func TestCompareCapabilityStableOrderForEqualScores(t *testing.T) {
	c := newCompareCapability(defaultSimilarityThreshold)
	st := compareState([]float32{1, 0})
	// Identical embeddings across sources: canonical source order breaks the
	// tie, so patents precede web.
	vec := []float32{0.8, 0.1}
	st.SearchResults = map[string]SearchOutcome{
		search.SourceWeb:     {Results: []search.Result{{Title: "web tie", Embedding: vec}}},
		search.SourcePatents: {Results: []search.Result{{Title: "patent tie", Embedding: vec}}},
	}

	delta, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, delta.Matches, 2)
	assert.Equal(t, "patent tie", delta.Matches[0].Details.Title)
	assert.Equal(t, "web tie", delta.Matches[1].Details.Title)
}

func TestSummarizeCapabilityEmptyMatchesSkipsModel(t *testing.T) {
	chat := &fakeChat{} // any call would error
	c := newSummarizeCapability(chat, defaultTopMatches)
	st := NewState("idea")
	st.MatchesSet = true
	st.Matches = []Match{}

	delta, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, noMatchesVerdict, delta.Verdict)
	assert.Contains(t, delta.Verdict, VerdictLikelyOriginal)
	assert.Zero(t, chat.callCount())
}

func TestSummarizeCapabilityUsesTopMatches(t *testing.T) {
	chat := &fakeChat{responses: []*llm.Response{
		{Content: "Verdict: " + VerdictClearlyExisting + "\n\nSeveral near-identical products exist."},
	}}
	c := newSummarizeCapability(chat, 2)
	st := NewState("idea")
	st.Matches = []Match{
		{Source: search.SourcePatents, Details: search.Result{Title: "a"}, Similarity: 0.9},
		{Source: search.SourceWeb, Details: search.Result{Title: "b"}, Similarity: 0.8},
		{Source: search.SourceWeb, Details: search.Result{Title: "c"}, Similarity: 0.7},
	}
	st.MatchesSet = true

	delta, err := c.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Contains(t, delta.Verdict, VerdictClearlyExisting)
	assert.Equal(t, 1, chat.callCount())
}

func TestCapabilitySetSpecsInPipelineOrder(t *testing.T) {
	set := NewCapabilitySet(Deps{
		Chat:     &fakeChat{},
		Embedder: &fakeEmbedder{},
		Patents:  &fakeProvider{source: search.SourcePatents},
		Academic: &fakeProvider{source: search.SourceAcademic},
		Web:      &fakeProvider{source: search.SourceWeb},
	})

	specs := set.Specs()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		CapParseIdea, CapEmbedIdea,
		CapSearchPatents, CapSearchAcademic, CapSearchWeb,
		CapCompareSimilarity, CapSummarizeResults,
	}, names)
}

package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/noveltylab/priorart/internal/llm"
	"github.com/noveltylab/priorart/internal/search"
)

// fakeChat replays scripted responses in order and records every request.
type fakeChat struct {
	mu        sync.Mutex
	responses []*llm.Response
	calls     int
}

func (f *fakeChat) ChatWithOptions(_ context.Context, _ []llm.Message, _ []llm.ToolSpec, _ llm.ChatOptions) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls >= len(f.responses) {
		return nil, fmt.Errorf("unexpected chat call %d", f.calls+1)
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeEmbedder maps text to fixed vectors, with a default for anything else.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	fallbck []float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallbck, nil
}

// fakeProvider returns canned results or an error.
type fakeProvider struct {
	source  string
	results []search.Result
	err     error
}

func (f *fakeProvider) Source() string { return f.source }

func (f *fakeProvider) Search(_ context.Context, _ string) ([]search.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]search.Result, len(f.results))
	copy(out, f.results)
	return out, nil
}

// scriptedOracle replays decisions in order.
type scriptedOracle struct {
	decisions []*Decision
	turn      int
}

func (o *scriptedOracle) Decide(_ context.Context, _ []llm.Message) (*Decision, error) {
	if o.turn >= len(o.decisions) {
		return nil, fmt.Errorf("unexpected oracle turn %d", o.turn+1)
	}
	d := o.decisions[o.turn]
	o.turn++
	return d, nil
}

// loopingOracle requests the same capability forever, to exercise the ceiling.
type loopingOracle struct{ name string }

func (o *loopingOracle) Decide(_ context.Context, _ []llm.Message) (*Decision, error) {
	return &Decision{Calls: []llm.ToolCall{{ID: "loop", Name: o.name}}}, nil
}

func call(id, name string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: map[string]any{}}
}

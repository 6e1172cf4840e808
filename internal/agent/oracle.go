package agent

import (
	"context"

	"github.com/noveltylab/priorart/internal/llm"
)

// Decision is one oracle turn: either a batch of invocation requests, or a
// final text when Calls is empty.
type Decision struct {
	FinalText string
	Calls     []llm.ToolCall
}

// Oracle decides, given the conversation so far, what the session should do
// next. The production oracle is an LLM; tests script one.
type Oracle interface {
	Decide(ctx context.Context, conversation []llm.Message) (*Decision, error)
}

// LLMOracle drives the loop with a chat model offered the capability set as
// function tools.
type LLMOracle struct {
	chat  ChatCompleter
	specs []llm.ToolSpec
}

func NewLLMOracle(chat ChatCompleter, caps *Set) *LLMOracle {
	return &LLMOracle{chat: chat, specs: caps.Specs()}
}

func (o *LLMOracle) Decide(ctx context.Context, conversation []llm.Message) (*Decision, error) {
	messages := make([]llm.Message, 0, len(conversation)+1)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, conversation...)

	resp, err := o.chat.ChatWithOptions(ctx, messages, o.specs, llm.ChatOptions{
		Temperature: llm.Float32Ptr(0.2),
		ToolChoice:  "auto",
	})
	if err != nil {
		return nil, err
	}
	return &Decision{FinalText: resp.Content, Calls: resp.ToolCalls}, nil
}

// Package llm provides an OpenAI-compatible chat and embeddings client.
package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noveltylab/priorart/shared/jsonutil"
)

var tracer = otel.GetTracerProvider().Tracer("internal/llm")

// Message is a provider-neutral chat message.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolSpec describes a function tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Response is the decoded result of one chat completion.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// Config holds the configuration for the LLM client.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	HTTPClient     *http.Client
	Timeout        time.Duration
}

// Option configures a Config.
type Option func(*Config)

// WithModel sets the default model for chat completions.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithEmbeddingModel sets the default model for embeddings.
func WithEmbeddingModel(model string) Option {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithMaxTokens sets the default max tokens for completions.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
// This is ignored if WithHTTPClient is also used.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// Client wraps an OpenAI-compatible API with configuration metadata.
type Client struct {
	api            *openai.Client
	Model          string
	EmbeddingModel string
	MaxTokens      int
}

// NewClient creates an OpenAI-compatible client. BaseURL should be the full
// API base URL (e.g., "https://api.openai.com/v1").
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	cfg := &Config{
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		APIKey:         apiKey,
		Model:          "gpt-4o",
		EmbeddingModel: "text-embedding-3-small",
		MaxTokens:      4096,
		Timeout:        60 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		openaiCfg.HTTPClient = cfg.HTTPClient
	} else {
		openaiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:            openai.NewClientWithConfig(openaiCfg),
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		MaxTokens:      cfg.MaxTokens,
	}
}

// ChatOptions overrides per-call completion parameters.
type ChatOptions struct {
	Temperature    *float32
	MaxTokens      int // overrides client default if > 0
	ResponseFormat *openai.ChatCompletionResponseFormat
	ToolChoice     any // "auto", "required", "none" or openai.ToolChoice struct
}

func Float32Ptr(f float32) *float32 { return &f }

func (c *Client) Chat(ctx context.Context, messages []Message, tools []ToolSpec) (*Response, error) {
	return c.ChatWithOptions(ctx, messages, tools, ChatOptions{})
}

func (c *Client) ChatWithOptions(ctx context.Context, messages []Message, tools []ToolSpec, opts ChatOptions) (*Response, error) {
	ctx, span := tracer.Start(ctx, "llm.chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msg := openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
		if m.ToolCallID != "" {
			msg.ToolCallID = m.ToolCallID
		}
		if len(m.ToolCalls) > 0 {
			msg.ToolCalls = make([]openai.ToolCall, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				msg.ToolCalls[j] = openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: jsonutil.MustJSON(tc.Arguments),
					},
				}
			}
		}
		msgs[i] = msg
	}

	maxTokens := c.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	req := openai.ChatCompletionRequest{
		Model:          c.Model,
		Messages:       msgs,
		MaxTokens:      maxTokens,
		ResponseFormat: opts.ResponseFormat,
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}

	if len(tools) > 0 {
		req.Tools = make([]openai.Tool, len(tools))
		for i, t := range tools {
			req.Tools[i] = openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Schema,
				},
			}
		}
		if opts.ToolChoice != nil {
			req.ToolChoice = opts.ToolChoice
		}
	}

	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Int("llm.request.max_tokens", req.MaxTokens),
		attribute.Int("llm.request.tools", len(req.Tools)),
		attribute.Int("llm.request.messages", len(req.Messages)),
	)

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("llm.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int("llm.usage.total_tokens", resp.Usage.TotalTokens),
	)

	if len(resp.Choices) == 0 {
		slog.WarnContext(ctx, "llm returned 0 choices")
		return &Response{}, nil
	}

	choice := resp.Choices[0]
	span.SetAttributes(
		attribute.String("llm.response.finish_reason", string(choice.FinishReason)),
		attribute.Int("llm.response.tool_calls", len(choice.Message.ToolCalls)),
		attribute.Int("llm.response.content_length", len(choice.Message.Content)),
	)
	slog.InfoContext(ctx, "llm response",
		"content_length", len(choice.Message.Content),
		"tool_calls", len(choice.Message.ToolCalls),
		"finish_reason", choice.FinishReason,
	)

	result := &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: jsonutil.ParseJSON(tc.Function.Arguments),
		})
	}
	return result, nil
}

// Embed returns the embedding vector for text, or nil when the provider
// returns no data.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "llm.embeddings", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	text = strings.ReplaceAll(text, "\n", " ")
	span.SetAttributes(attribute.String("llm.model", c.EmbeddingModel))

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.EmbeddingModel),
		Input: []string{text},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("llm.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.response.embeddings", len(resp.Data)),
	)

	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0].Embedding, nil
}

// Package config loads service configuration from the environment.
// PRIORART_-prefixed variables win; common unprefixed names work as
// fallbacks.
package config

import (
	"time"

	iconfig "github.com/noveltylab/priorart/shared/config"
	"github.com/noveltylab/priorart/shared/httpclient"
)

type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	Search   SearchConfig
	Agent    AgentConfig
	Database DatabaseConfig
	Otel     OtelConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	// MaxIdeaLength bounds the accepted idea text, in characters.
	MaxIdeaLength int
	// RateLimit is the per-IP check budget per minute.
	RateLimit int
}

type LLMConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
}

type SearchConfig struct {
	LensAPIKey            string
	LensBaseURL           string
	SemanticScholarAPIKey string
	TavilyAPIKey          string

	// AcademicProvider selects "semanticscholar" or "lens".
	AcademicProvider string
	// WebProvider selects "duckduckgo" or "tavily".
	WebProvider string

	// EnrichWeb fetches matched web pages and replaces their snippets with
	// extracted article text before comparison.
	EnrichWeb bool

	// Timeout applies to each provider HTTP call.
	Timeout time.Duration
}

type AgentConfig struct {
	MaxTurns            int
	SimilarityThreshold float64
	TopMatches          int
}

type DatabaseConfig struct {
	// URL enables the audit store when non-empty.
	URL string
}

type OtelConfig struct {
	Environment    string
	TracingEnabled bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           iconfig.GetEnvWithFallback("PRIORART_SERVER_HOST", "HOST", "0.0.0.0"),
			Port:           iconfig.GetEnvIntWithFallback("PRIORART_SERVER_PORT", "PORT", 8080),
			AllowedOrigins: iconfig.GetEnvSliceWithFallback("PRIORART_ALLOWED_ORIGINS", "ALLOWED_ORIGINS", []string{"*"}),
			MaxIdeaLength:  iconfig.GetEnvInt("PRIORART_MAX_IDEA_LENGTH", 2000),
			RateLimit:      iconfig.GetEnvInt("PRIORART_RATE_LIMIT", 5),
		},
		LLM: LLMConfig{
			BaseURL:        iconfig.GetEnvWithFallback("PRIORART_OPENAI_BASE_URL", "OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:         iconfig.GetEnvWithFallback("PRIORART_OPENAI_API_KEY", "OPENAI_API_KEY", ""),
			Model:          iconfig.GetEnvWithFallback("PRIORART_MODEL", "OPENAI_MODEL", "gpt-4o"),
			EmbeddingModel: iconfig.GetEnvWithFallback("PRIORART_EMBEDDING_MODEL", "OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			Timeout:        iconfig.GetEnvDuration("PRIORART_LLM_TIMEOUT", httpclient.TimeoutLong),
		},
		Search: SearchConfig{
			LensAPIKey:            iconfig.GetEnvWithFallback("PRIORART_LENS_API_KEY", "LENS_API_KEY", ""),
			LensBaseURL:           iconfig.GetEnv("PRIORART_LENS_BASE_URL", "https://api.lens.org"),
			SemanticScholarAPIKey: iconfig.GetEnvWithFallback("PRIORART_SEMANTIC_SCHOLAR_API_KEY", "SEMANTIC_SCHOLAR_API_KEY", ""),
			TavilyAPIKey:          iconfig.GetEnvWithFallback("PRIORART_TAVILY_API_KEY", "TAVILY_API_KEY", ""),
			AcademicProvider:      iconfig.GetEnv("PRIORART_ACADEMIC_PROVIDER", "semanticscholar"),
			WebProvider:           iconfig.GetEnv("PRIORART_WEB_PROVIDER", "duckduckgo"),
			EnrichWeb:             iconfig.GetEnvBool("PRIORART_ENRICH_WEB", false),
			Timeout:               iconfig.GetEnvDuration("PRIORART_SEARCH_TIMEOUT", httpclient.TimeoutProvider),
		},
		Agent: AgentConfig{
			MaxTurns:            iconfig.GetEnvInt("PRIORART_MAX_TURNS", 15),
			SimilarityThreshold: iconfig.GetEnvFloat("PRIORART_SIMILARITY_THRESHOLD", 0.5),
			TopMatches:          iconfig.GetEnvInt("PRIORART_TOP_MATCHES", 5),
		},
		Database: DatabaseConfig{
			URL: iconfig.GetEnvWithFallback("PRIORART_POSTGRES_URL", "DATABASE_URL", ""),
		},
		Otel: OtelConfig{
			Environment:    iconfig.GetEnvWithFallback("PRIORART_ENVIRONMENT", "ENVIRONMENT", "development"),
			TracingEnabled: iconfig.GetEnvBool("PRIORART_TRACING", false),
		},
	}
}

func (c *Config) IsDatabaseConfigured() bool {
	return c.Database.URL != ""
}

func (c *Config) IsTavilyConfigured() bool {
	return c.Search.TavilyAPIKey != ""
}

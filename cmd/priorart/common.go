package main

import (
	"fmt"

	"github.com/noveltylab/priorart/internal/agent"
	"github.com/noveltylab/priorart/internal/llm"
	"github.com/noveltylab/priorart/internal/search"
	"github.com/noveltylab/priorart/shared/httpclient"
)

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

func boolStatus(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// buildController wires the LLM client, search providers, and agent loop from
// the loaded configuration.
func buildController() (*agent.Controller, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("an OpenAI API key is required. Set PRIORART_OPENAI_API_KEY")
	}

	client := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey,
		llm.WithModel(cfg.LLM.Model),
		llm.WithEmbeddingModel(cfg.LLM.EmbeddingModel),
		llm.WithTimeout(cfg.LLM.Timeout),
	)

	searchClient := httpclient.New(httpclient.WithTimeout(cfg.Search.Timeout))

	lens := search.NewLensClient(cfg.Search.LensAPIKey,
		search.WithLensBaseURL(cfg.Search.LensBaseURL),
		search.WithLensHTTPClient(searchClient))

	var academic search.Provider
	switch cfg.Search.AcademicProvider {
	case "lens":
		academic = lens.Scholar()
	case "semanticscholar", "":
		academic = search.NewScholarProvider(cfg.Search.SemanticScholarAPIKey,
			search.WithScholarHTTPClient(searchClient))
	default:
		return nil, fmt.Errorf("unknown academic provider %q", cfg.Search.AcademicProvider)
	}

	var web search.Provider
	switch cfg.Search.WebProvider {
	case "tavily":
		if !cfg.IsTavilyConfigured() {
			return nil, fmt.Errorf("the tavily provider requires PRIORART_TAVILY_API_KEY")
		}
		web = search.NewTavilyProvider(cfg.Search.TavilyAPIKey,
			search.WithTavilyHTTPClient(searchClient))
	case "duckduckgo", "":
		opts := []search.DuckDuckGoOption{search.WithDuckDuckGoHTTPClient(searchClient)}
		if cfg.Search.EnrichWeb {
			opts = append(opts, search.WithDuckDuckGoEnricher(search.NewContentEnricher()))
		}
		web = search.NewDuckDuckGoProvider(opts...)
	default:
		return nil, fmt.Errorf("unknown web provider %q", cfg.Search.WebProvider)
	}

	caps := agent.NewCapabilitySet(agent.Deps{
		Chat:                client,
		Embedder:            client,
		Patents:             lens.Patents(),
		Academic:            academic,
		Web:                 web,
		SimilarityThreshold: cfg.Agent.SimilarityThreshold,
		TopMatches:          cfg.Agent.TopMatches,
	})

	oracle := agent.NewLLMOracle(client, caps)
	return agent.NewController(oracle, agent.NewExecutor(caps),
		agent.WithMaxTurns(cfg.Agent.MaxTurns)), nil
}

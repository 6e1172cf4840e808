package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noveltylab/priorart/internal/config"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:   "priorart",
		Short: "Prior-art checker for invention ideas",
		Long: `priorart checks whether an invention idea already exists.

An agent parses the idea, searches patents, academic literature and the web,
scores the findings against an embedding of the idea, and delivers an
originality verdict.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.Load()
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		checkCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configCmd shows current configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Current configuration:")
			fmt.Println()

			fmt.Println("LLM:")
			fmt.Printf("  Base URL:         %s\n", cfg.LLM.BaseURL)
			fmt.Printf("  Model:            %s\n", cfg.LLM.Model)
			fmt.Printf("  Embedding Model:  %s\n", cfg.LLM.EmbeddingModel)
			fmt.Printf("  API Key:          %s\n", maskSecret(cfg.LLM.APIKey))
			fmt.Println()

			fmt.Println("Search:")
			fmt.Printf("  Academic Provider: %s\n", cfg.Search.AcademicProvider)
			fmt.Printf("  Web Provider:      %s\n", cfg.Search.WebProvider)
			fmt.Printf("  Lens API Key:      %s\n", maskSecret(cfg.Search.LensAPIKey))
			fmt.Printf("  Scholar API Key:   %s\n", maskSecret(cfg.Search.SemanticScholarAPIKey))
			fmt.Printf("  Tavily API Key:    %s\n", maskSecret(cfg.Search.TavilyAPIKey))
			fmt.Printf("  Enrich Web:        %t\n", cfg.Search.EnrichWeb)
			fmt.Println()

			fmt.Println("Agent:")
			fmt.Printf("  Max Turns:            %d\n", cfg.Agent.MaxTurns)
			fmt.Printf("  Similarity Threshold: %.2f\n", cfg.Agent.SimilarityThreshold)
			fmt.Printf("  Top Matches:          %d\n", cfg.Agent.TopMatches)
			fmt.Println()

			fmt.Println("Server:")
			fmt.Printf("  Host:            %s\n", cfg.Server.Host)
			fmt.Printf("  Port:            %d\n", cfg.Server.Port)
			fmt.Printf("  Max Idea Length: %d\n", cfg.Server.MaxIdeaLength)
			fmt.Printf("  Rate Limit:      %d/min\n", cfg.Server.RateLimit)
			fmt.Println()

			fmt.Println("Database:")
			fmt.Printf("  PostgreSQL: %s\n", maskSecret(cfg.Database.URL))
			fmt.Printf("  Audit:      %s\n", boolStatus(cfg.IsDatabaseConfigured()))
		},
	}
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("priorart %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)
		},
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noveltylab/priorart/internal/server"
	"github.com/noveltylab/priorart/internal/store"
	"github.com/noveltylab/priorart/pkg/otel"
)

// serveCmd starts the HTTP API server
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the prior-art checker HTTP server.

The server exposes POST /api/v1/check, health probes, Prometheus metrics,
and the web frontend.

Required configuration:
  - OpenAI-compatible API key (PRIORART_OPENAI_API_KEY)

Optional:
  - Lens.org patent search (PRIORART_LENS_API_KEY)
  - Semantic Scholar API key (PRIORART_SEMANTIC_SCHOLAR_API_KEY)
  - Tavily web search (PRIORART_TAVILY_API_KEY)
  - PostgreSQL audit store (PRIORART_POSTGRES_URL)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	res, err := otel.Init(otel.Config{
		ServiceName: "priorart-api",
		Environment: cfg.Otel.Environment,
		Enabled:     cfg.Otel.TracingEnabled,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(res.Logger)
	defer func() {
		if err := res.Shutdown(context.Background()); err != nil {
			slog.Error("tracer shutdown failed", "error", err)
		}
	}()

	ctrl, err := buildController()
	if err != nil {
		return err
	}

	var auditStore *store.Store
	if cfg.IsDatabaseConfigured() {
		auditStore, err = store.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer auditStore.Close()
		slog.Info("audit store connected")
	}

	srv := server.NewServer(cfg, ctrl, auditStore)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/sejinbae/moodquote/internal/api"
	"github.com/sejinbae/moodquote/internal/config"
	"github.com/sejinbae/moodquote/internal/db"
	"github.com/sejinbae/moodquote/internal/embedder"
	"github.com/sejinbae/moodquote/internal/reason"
	"github.com/sejinbae/moodquote/internal/recommender"
	"github.com/sejinbae/moodquote/internal/vectorstore"
)

var serveMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recommendation server",
	Long: `Run the HTTP server that recommends quotes for mood queries.

With --mcp the same pipeline is also exposed over an MCP stdio
transport, so the server can be attached as a tool provider.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP tools over stdio")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	slog.Info("connecting to database", "path", cfg.DatabasePath)
	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	index, err := vectorstore.Open(vectorstore.Config{
		Path:      cfg.VecLitePath,
		Dimension: cfg.EmbedDim,
	})
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	defer index.Close()

	emb, err := embedder.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	if err := embedder.Ping(ctx, emb); err != nil {
		return fmt.Errorf("embedding provider unavailable: %w", err)
	}

	recCfg := recommender.Config{
		Quotes:        store.Queries,
		Searcher:      index,
		Embedder:      emb,
		Log:           store.Queries,
		CacheTTL:      cfg.CacheTTL,
		ReasonTimeout: cfg.ReasonTimeout,
		Match: recommender.Params{
			Threshold:   cfg.MatchThreshold,
			TopK:        cfg.MatchTopK,
			Temperature: cfg.MatchTemperature,
		},
		Random: recommender.Params{
			Threshold:   cfg.RandomThreshold,
			TopK:        cfg.RandomTopK,
			Temperature: cfg.RandomTemperature,
		},
	}

	if cfg.CacheEnabled {
		recCfg.Cache = store.Queries
	}
	if cfg.ReasonEnabled && cfg.GeminiAPIKey != "" {
		recCfg.Reasons = reason.New(reason.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
	} else {
		slog.Info("reason generation disabled",
			"enabled", cfg.ReasonEnabled,
			"key_present", cfg.GeminiAPIKey != "",
		)
	}

	rec, err := recommender.New(recCfg)
	if err != nil {
		return fmt.Errorf("create recommender: %w", err)
	}

	handler := api.NewHandler(api.Deps{
		Recommender: rec,
		Feedback:    store.Queries,
		Quotes:      store.Queries,
		IndexCount:  index.Count,
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: handler,
	}

	// Prune expired cache rows once an hour so lookups stay cheap.
	janitor := cron.New()
	if cfg.CacheEnabled {
		_, err = janitor.AddFunc("@hourly", func() {
			cutoff := time.Now().UTC().Add(-cfg.CacheTTL)
			deleted, err := store.DeleteExpiredCache(context.Background(), cutoff)
			if err != nil {
				slog.Warn("cache prune failed", "error", err)
				return
			}
			if deleted > 0 {
				slog.Info("pruned expired cache entries", "deleted", deleted)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule cache prune: %w", err)
		}
		janitor.Start()
		defer janitor.Stop()
	}

	if serveMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Recommender: rec})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.ServerAddr, "quotes_indexed", index.Count())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sejinbae/moodquote/internal/config"
	"github.com/sejinbae/moodquote/internal/db"
	"github.com/sejinbae/moodquote/internal/embedder"
	"github.com/sejinbae/moodquote/internal/vectorstore"
)

var importConcurrency int

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import quotes from a JSON file",
	Long: `Import quotes from a JSON file into the database and embed them
into the vector index.

The file must contain a JSON array of objects:
  [{"quote": "...", "author": "...", "source": "..."}]

Example:
  moodquote import quotes.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 4, "concurrent embedding requests")
	rootCmd.AddCommand(importCmd)
}

type quoteRecord struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Source string `json:"source"`
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForImport(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read quotes file: %w", err)
	}

	var records []quoteRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse quotes file: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no quotes in %s", args[0])
	}

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

	slog.Info("importing quotes",
		"file", args[0],
		"count", len(records),
		"provider", cfg.EmbedProvider,
	)

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)

	// SQLite writes serialize on a single connection and the index
	// collection is guarded here; only embedding fans out.
	var mu sync.Mutex
	var imported, failed int

	for _, rec := range records {
		rec := rec
		if rec.Quote == "" {
			failed++
			continue
		}

		g.Go(func() error {
			vec, err := emb.Embed(gctx, rec.Quote)
			if err != nil {
				slog.Warn("failed to embed quote", "author", rec.Author, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()

			id, err := store.InsertQuote(gctx, rec.Quote, rec.Author, rec.Source, embedder.EmbeddingToBytes(vec))
			if err != nil {
				slog.Warn("failed to insert quote", "author", rec.Author, "error", err)
				failed++
				return nil
			}

			if _, err := index.Add(gctx, id, rec.Quote, vec); err != nil {
				slog.Warn("failed to index quote", "id", id, "error", err)
				failed++
				return nil
			}

			imported++
			if imported%100 == 0 {
				elapsed := time.Since(start)
				slog.Info("progress",
					"imported", imported,
					"total", len(records),
					"rate", fmt.Sprintf("%.1f/sec", float64(imported)/elapsed.Seconds()),
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	if err := index.Sync(); err != nil {
		return fmt.Errorf("sync index: %w", err)
	}

	slog.Info("import complete",
		"imported", imported,
		"failed", failed,
		"duration", time.Since(start).Round(time.Second),
	)

	return nil
}

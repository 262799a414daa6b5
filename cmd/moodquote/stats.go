package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sejinbae/moodquote/internal/config"
	"github.com/sejinbae/moodquote/internal/db"
	"github.com/sejinbae/moodquote/internal/vectorstore"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  `Display statistics about quotes, interactions, cache and feedback.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	totalQuotes, err := store.CountQuotes(ctx)
	if err != nil {
		return fmt.Errorf("count quotes: %w", err)
	}

	totalInputs, err := store.CountUserInputs(ctx)
	if err != nil {
		return fmt.Errorf("count user inputs: %w", err)
	}

	cacheEntries, err := store.CountCacheEntries(ctx)
	if err != nil {
		return fmt.Errorf("count cache entries: %w", err)
	}

	totalFeedback, err := store.CountFeedback(ctx)
	if err != nil {
		return fmt.Errorf("count feedback: %w", err)
	}

	fmt.Println("=== Moodquote Statistics ===")
	fmt.Println()
	fmt.Printf("Database: %s\n", cfg.DatabasePath)
	fmt.Println()
	fmt.Printf("Quotes: %d\n", totalQuotes)
	fmt.Printf("Interactions logged: %d\n", totalInputs)
	fmt.Printf("Cache entries: %d\n", cacheEntries)
	fmt.Printf("Feedback rows: %d\n", totalFeedback)
	fmt.Println()

	if cfg.VecLitePath != "" {
		index, err := vectorstore.Open(vectorstore.Config{
			Path:      cfg.VecLitePath,
			Dimension: cfg.EmbedDim,
		})
		if err != nil {
			slog.Warn("failed to open vector index", "error", err)
		} else {
			defer index.Close()
			fmt.Println("Vector index:")
			fmt.Printf("  Path: %s\n", cfg.VecLitePath)
			fmt.Printf("  Documents: %d\n", index.Count())
			fmt.Printf("  Dimension: %d\n", cfg.EmbedDim)
			fmt.Println()
		}
	}

	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sejinbae/moodquote/internal/config"
	"github.com/sejinbae/moodquote/internal/db"
	"github.com/sejinbae/moodquote/internal/embedder"
	"github.com/sejinbae/moodquote/internal/reason"
	"github.com/sejinbae/moodquote/internal/recommender"
	"github.com/sejinbae/moodquote/internal/vectorstore"
)

var recommendMode string

var recommendCmd = &cobra.Command{
	Use:   "recommend [query]",
	Short: "Recommend a quote for a mood query",
	Long: `Run one recommendation from the command line.

Example:
  moodquote recommend "i keep doubting everything i do" --mode harsh
  moodquote recommend --mode random`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().StringVar(&recommendMode, "mode", "comfort", "recommendation mode: harsh, comfort or random")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var query string
	if len(args) > 0 {
		query = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForImport(); err != nil {
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
	}

	r, err := recommender.New(recCfg)
	if err != nil {
		return fmt.Errorf("create recommender: %w", err)
	}

	rec, err := r.Recommend(ctx, query, recommendMode)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	fmt.Println()
	fmt.Printf("\"%s\"\n", rec.Quote)
	fmt.Println()
	fmt.Printf("  %s, %s\n", rec.Author, rec.Source)

	if rec.Similarity != nil {
		fmt.Printf("\nSimilarity: %.2f\n", *rec.Similarity)
	}
	if rec.Reason != "" {
		fmt.Printf("Why: %s\n", rec.Reason)
	}
	if rec.Cached {
		fmt.Println("(cached)")
	}

	return nil
}

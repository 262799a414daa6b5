// Package recommender turns a (query, mode) pair into a quote
// recommendation: cache lookup, embedding similarity search with
// temperature sampling, random fallback, best-effort reason
// generation and interaction logging.
package recommender

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/sejinbae/moodquote/internal/db"
	"github.com/sejinbae/moodquote/internal/vectorstore"
)

// Embedder produces an embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher finds quotes similar to a query vector.
type Searcher interface {
	Search(ctx context.Context, queryVec []float32, threshold float32, topK int) ([]vectorstore.Match, error)
}

// InteractionLog records resolved recommendations.
type InteractionLog interface {
	AppendUserInput(ctx context.Context, content, mode string, quoteID int64) (int64, error)
	AppendReason(ctx context.Context, userInputID, quoteID int64, reason string) error
}

// ReasonGenerator produces a one-sentence justification for a match.
type ReasonGenerator interface {
	Explain(ctx context.Context, query, quote string) (string, error)
}

// Params tunes one similarity-search branch.
type Params struct {
	Threshold   float64 // minimum similarity for a candidate
	TopK        int     // candidates fetched per search
	Temperature float64 // sampling temperature over the candidates
}

// Recommendation is the externally visible result of one pipeline run.
type Recommendation struct {
	Quote       string
	Author      string
	Source      string
	QuoteID     int64
	UserInputID int64    // 0 when the interaction log was skipped
	Similarity  *float64 // nil on random/fallback and cached paths
	Reason      string   // empty when reason generation was skipped
	Cached      bool
}

// Config wires the pipeline's collaborators. Quotes and Log are
// required; Cache and Reasons are independently optional features.
type Config struct {
	Quotes   QuoteSource
	Searcher Searcher
	Embedder Embedder
	Log      InteractionLog
	Cache    CacheStore
	Reasons  ReasonGenerator

	CacheTTL      time.Duration
	ReasonTimeout time.Duration

	Match  Params // harsh/comfort branch
	Random Params // random-with-text branch

	Rand *rand.Rand       // injected randomness, wrapped in a lock (defaults to time-seeded)
	Now  func() time.Time // injected clock (defaults to time.Now)
}

// Recommender runs the recommendation pipeline. It holds no
// per-request state; the injected rand source is wrapped in a lock,
// so concurrent use is safe.
type Recommender struct {
	quotes   QuoteSource
	searcher Searcher
	embedder Embedder
	log      InteractionLog
	cache    CacheStore
	reasons  ReasonGenerator

	cacheTTL      time.Duration
	reasonTimeout time.Duration
	match         Params
	random        Params

	rng    RandSource
	now    func() time.Time
	picker *RandomPicker
}

// New creates a Recommender. Missing required collaborators are a
// ConfigError so misconfiguration fails at startup, not per request.
func New(cfg Config) (*Recommender, error) {
	if cfg.Quotes == nil {
		return nil, &ConfigError{Msg: "recommender requires a quote source"}
	}
	if cfg.Log == nil {
		return nil, &ConfigError{Msg: "recommender requires an interaction log"}
	}

	seed := cfg.Rand
	if seed == nil {
		seed = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	rng := &lockedRand{src: seed}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 7 * 24 * time.Hour
	}

	reasonTimeout := cfg.ReasonTimeout
	if reasonTimeout == 0 {
		reasonTimeout = 4 * time.Second
	}

	match := cfg.Match
	if match.TopK == 0 {
		match = Params{Threshold: 0.6, TopK: 4, Temperature: 0.35}
	}
	random := cfg.Random
	if random.TopK == 0 {
		random = Params{Threshold: 0.5, TopK: 5, Temperature: 0.7}
	}

	return &Recommender{
		quotes:        cfg.Quotes,
		searcher:      cfg.Searcher,
		embedder:      cfg.Embedder,
		log:           cfg.Log,
		cache:         cfg.Cache,
		reasons:       cfg.Reasons,
		cacheTTL:      cacheTTL,
		reasonTimeout: reasonTimeout,
		match:         match,
		random:        random,
		rng:           rng,
		now:           now,
		picker:        NewRandomPicker(cfg.Quotes, rng),
	}, nil
}

// Recommend resolves one request. The only errors it returns are
// ValidationError (bad input), ConfigError and NoDataError; every
// upstream failure degrades into a fallback instead.
func (r *Recommender) Recommend(ctx context.Context, rawQuery, rawMode string) (*Recommendation, error) {
	query, err := NormalizeQuery(rawQuery, rawMode)
	if err != nil {
		return nil, err
	}

	key := CacheKey(query.Mode, query.Text)

	if r.cache != nil {
		if cached := cacheLookup(ctx, r.cache, key, r.cacheTTL, r.now()); cached != nil {
			slog.Debug("cache hit", "mode", query.Mode, "key", key)
			rec := &Recommendation{
				Quote:  cached.Quote,
				Author: cached.Author,
				Source: cached.Source,
				Cached: true,
			}
			if cached.QuoteID.Valid {
				rec.QuoteID = cached.QuoteID.Int64
			}
			return rec, nil
		}
	}

	var rec *Recommendation

	if query.Mode == ModeRandom && query.UsesPlaceholder() {
		rec, err = r.randomRecommendation(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		rec = r.similarityRecommendation(ctx, query)
		if rec == nil {
			// Embedding or search failed, or nothing cleared the
			// threshold. The fallback is unconditional.
			slog.Debug("similarity path empty, falling back to random",
				"mode", query.Mode,
			)
			rec, err = r.randomRecommendation(ctx)
			if err != nil {
				return nil, err
			}
		}
	}

	r.attachReason(ctx, query, rec)
	r.logInteraction(ctx, query, rec)
	r.writeCache(ctx, key, query, rec)

	return rec, nil
}

// similarityRecommendation runs embed, search and sample. A nil return
// means the caller should fall back to the random path.
func (r *Recommender) similarityRecommendation(ctx context.Context, query *Query) *Recommendation {
	if r.embedder == nil || r.searcher == nil {
		return nil
	}

	params := r.match
	if query.Mode == ModeRandom {
		params = r.random
	}

	queryVec, err := r.embedder.Embed(ctx, query.Text)
	if err != nil {
		slog.Warn("embedding failed", "error", err)
		return nil
	}

	matches, err := r.searcher.Search(ctx, queryVec, float32(params.Threshold), params.TopK)
	if err != nil {
		slog.Warn("similarity search failed", "error", err)
		return nil
	}
	if len(matches) == 0 {
		return nil
	}

	similarities := make([]float32, len(matches))
	for i, m := range matches {
		similarities[i] = m.Similarity
	}
	chosen := matches[SampleIndex(similarities, params.Temperature, r.rng)]

	quote, err := r.quotes.GetQuote(ctx, chosen.QuoteID)
	if err != nil {
		// A match referencing a missing row must never be returned.
		slog.Warn("matched quote not found", "quote_id", chosen.QuoteID, "error", err)
		return nil
	}

	similarity := float64(chosen.Similarity)
	return &Recommendation{
		Quote:      quote.Quote,
		Author:     quote.Author,
		Source:     quote.Source,
		QuoteID:    quote.ID,
		Similarity: &similarity,
	}
}

func (r *Recommender) randomRecommendation(ctx context.Context) (*Recommendation, error) {
	quote, err := r.picker.Pick(ctx)
	if err != nil {
		if IsNoData(err) {
			return nil, err
		}
		return nil, &NoDataError{Msg: "failed to fetch random quote"}
	}

	return &Recommendation{
		Quote:   quote.Quote,
		Author:  quote.Author,
		Source:  quote.Source,
		QuoteID: quote.ID,
	}, nil
}

// attachReason asks the reason generator for a one-sentence
// justification, bounded by a timeout. Failure leaves Reason empty.
func (r *Recommender) attachReason(ctx context.Context, query *Query, rec *Recommendation) {
	if r.reasons == nil {
		return
	}

	reasonCtx, cancel := context.WithTimeout(ctx, r.reasonTimeout)
	defer cancel()

	reason, err := r.reasons.Explain(reasonCtx, query.Text, rec.Quote)
	if err != nil {
		slog.Debug("reason generation failed", "error", err)
		return
	}
	rec.Reason = reason
}

// logInteraction appends exactly one interaction row per resolved
// request. A cancelled request is not logged, so aborted responses
// never look delivered.
func (r *Recommender) logInteraction(ctx context.Context, query *Query, rec *Recommendation) {
	if ctx.Err() != nil {
		return
	}

	bestEffort("append user input", func() error {
		id, err := r.log.AppendUserInput(ctx, query.Raw, string(query.Mode), rec.QuoteID)
		if err != nil {
			return err
		}
		rec.UserInputID = id
		return nil
	})

	if rec.UserInputID != 0 && rec.Reason != "" {
		bestEffort("append reason", func() error {
			return r.log.AppendReason(ctx, rec.UserInputID, rec.QuoteID, rec.Reason)
		})
	}
}

func (r *Recommender) writeCache(ctx context.Context, key string, query *Query, rec *Recommendation) {
	if r.cache == nil || ctx.Err() != nil {
		return
	}

	queryText := strings.TrimSpace(query.Raw)
	if query.UsesPlaceholder() {
		queryText = cachedRandomText
	}

	bestEffort("cache recommendation", func() error {
		return r.cache.UpsertCachedQuote(ctx, &db.CachedQuote{
			QueryHash: key,
			QueryText: queryText,
			Quote:     rec.Quote,
			Author:    rec.Author,
			Source:    rec.Source,
			QuoteID:   sql.NullInt64{Int64: rec.QuoteID, Valid: rec.QuoteID != 0},
			CreatedAt: r.now().UTC(),
		})
	})
}

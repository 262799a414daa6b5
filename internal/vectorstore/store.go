// Package vectorstore provides a VecLite-based similarity index for quotes.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/veclite"
)

const quotesCollection = "quotes"

// Config holds configuration for the Index.
type Config struct {
	// Path to the VecLite database file (e.g., "data/quotes.veclite").
	Path string

	// Dimension of the stored embeddings.
	Dimension int
}

// Index wraps VecLite for quote embedding storage and similarity search.
type Index struct {
	vecdb *veclite.DB
	coll  *veclite.Collection
}

// Match is one similarity search hit, referencing the SQLite quote row.
type Match struct {
	QuoteID    int64
	Similarity float32
}

// Open opens or creates the VecLite index.
func Open(cfg Config) (*Index, error) {
	slog.Debug("opening vector index", "path", cfg.Path, "dimension", cfg.Dimension)

	vecdb, err := veclite.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open veclite db: %w", err)
	}

	coll, err := vecdb.CreateCollection(quotesCollection,
		veclite.WithDimension(cfg.Dimension),
		veclite.WithDistanceType(veclite.DistanceCosine),
		veclite.WithHNSW(16, 200), // M=16, efConstruction=200
	)
	if err != nil {
		// Collection might already exist, try to get it
		coll, err = vecdb.GetCollection(quotesCollection)
		if err != nil {
			vecdb.Close()
			return nil, fmt.Errorf("get collection: %w", err)
		}
	}

	return &Index{
		vecdb: vecdb,
		coll:  coll,
	}, nil
}

// Close closes the VecLite database.
func (s *Index) Close() error {
	if s.vecdb != nil {
		return s.vecdb.Close()
	}
	return nil
}

// Add indexes a quote under its SQLite id with a pre-computed embedding.
// Returns the VecLite record id.
func (s *Index) Add(ctx context.Context, quoteID int64, text string, embedding []float32) (uint64, error) {
	payload := map[string]any{
		"sqlite_id": quoteID,
	}

	id, err := s.coll.InsertDocument(embedding, text, payload)
	if err != nil {
		return 0, fmt.Errorf("insert quote %d: %w", quoteID, err)
	}

	return id, nil
}

// Search finds quotes whose embeddings are above the similarity
// threshold, best first, at most topK results.
func (s *Index) Search(ctx context.Context, queryVec []float32, threshold float32, topK int) ([]Match, error) {
	results, err := s.coll.Search(queryVec,
		veclite.TopK(topK),
		veclite.Threshold(threshold),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		m := Match{Similarity: clamp01(r.Score)}

		if r.Record.Payload != nil {
			if id, ok := r.Record.Payload["sqlite_id"].(int64); ok {
				m.QuoteID = id
			} else if id, ok := r.Record.Payload["sqlite_id"].(int); ok {
				m.QuoteID = int64(id)
			} else if id, ok := r.Record.Payload["sqlite_id"].(float64); ok {
				m.QuoteID = int64(id)
			}
		}

		if m.QuoteID == 0 {
			slog.Warn("search hit missing sqlite_id payload", "veclite_id", r.Record.ID)
			continue
		}

		matches = append(matches, m)
	}

	return matches, nil
}

// Count returns the number of quotes in the index.
func (s *Index) Count() int {
	return s.coll.Count()
}

// Sync persists any pending changes to disk.
func (s *Index) Sync() error {
	return s.vecdb.Sync()
}

// clamp01 keeps cosine scores inside [0, 1]; float rounding can push
// them a hair outside.
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package recommender

import (
	"context"

	"github.com/sejinbae/moodquote/internal/db"
)

// QuoteSource is the read-side of the quote table the pipeline needs.
type QuoteSource interface {
	GetQuote(ctx context.Context, id int64) (*db.Quote, error)
	CountQuotes(ctx context.Context) (int64, error)
	GetQuoteAtOffset(ctx context.Context, offset int64) (*db.Quote, error)
}

// RandomPicker selects a uniformly random quote by drawing an offset
// over the full record count.
type RandomPicker struct {
	quotes QuoteSource
	rng    RandSource
}

// NewRandomPicker creates a RandomPicker with an injected random source.
func NewRandomPicker(quotes QuoteSource, rng RandSource) *RandomPicker {
	return &RandomPicker{quotes: quotes, rng: rng}
}

// Pick returns one random quote. An empty store is a NoDataError, not
// an empty result.
func (p *RandomPicker) Pick(ctx context.Context) (*db.Quote, error) {
	count, err := p.quotes.CountQuotes(ctx)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, &NoDataError{Msg: "no quotes available"}
	}

	offset := p.rng.Int63n(count)
	return p.quotes.GetQuoteAtOffset(ctx, offset)
}

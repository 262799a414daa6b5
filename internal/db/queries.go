package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DBTX is the minimal database surface queries run against,
// satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries provides typed access to the moodquote schema.
type Queries struct {
	db DBTX
}

// New creates a Queries instance.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// InsertQuote adds a quote row and returns its id.
func (q *Queries) InsertQuote(ctx context.Context, quote, author, source string, embedding []byte) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO quotes (quote, author, source, embedding) VALUES (?, ?, ?, ?)`,
		quote, author, source, embedding,
	)
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetQuote fetches a quote by id.
func (q *Queries) GetQuote(ctx context.Context, id int64) (*Quote, error) {
	var quote Quote
	err := q.db.QueryRowContext(ctx,
		`SELECT id, quote, author, source, embedding, created_at FROM quotes WHERE id = ?`,
		id,
	).Scan(&quote.ID, &quote.Quote, &quote.Author, &quote.Source, &quote.Embedding, &quote.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get quote %d: %w", id, err)
	}
	return &quote, nil
}

// CountQuotes returns the total number of quote rows.
func (q *Queries) CountQuotes(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count quotes: %w", err)
	}
	return count, nil
}

// GetQuoteAtOffset fetches exactly one quote at the given offset in id order.
func (q *Queries) GetQuoteAtOffset(ctx context.Context, offset int64) (*Quote, error) {
	var quote Quote
	err := q.db.QueryRowContext(ctx,
		`SELECT id, quote, author, source, embedding, created_at
		 FROM quotes ORDER BY id LIMIT 1 OFFSET ?`,
		offset,
	).Scan(&quote.ID, &quote.Quote, &quote.Author, &quote.Source, &quote.Embedding, &quote.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get quote at offset %d: %w", offset, err)
	}
	return &quote, nil
}

// ListQuotes returns all quotes in id order.
func (q *Queries) ListQuotes(ctx context.Context) ([]*Quote, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, quote, author, source, embedding, created_at FROM quotes ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*Quote
	for rows.Next() {
		var quote Quote
		if err := rows.Scan(&quote.ID, &quote.Quote, &quote.Author, &quote.Source, &quote.Embedding, &quote.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, &quote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return quotes, nil
}

// UpdateQuoteEmbedding stores the embedding blob for a quote.
func (q *Queries) UpdateQuoteEmbedding(ctx context.Context, id int64, embedding []byte) error {
	_, err := q.db.ExecContext(ctx, `UPDATE quotes SET embedding = ? WHERE id = ?`, embedding, id)
	if err != nil {
		return fmt.Errorf("update quote embedding: %w", err)
	}
	return nil
}

// AppendUserInput logs one resolved recommendation request and returns the row id.
func (q *Queries) AppendUserInput(ctx context.Context, content, mode string, quoteID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO user_inputs (content, mode, quote_id) VALUES (?, ?, ?)`,
		content, mode, quoteID,
	)
	if err != nil {
		return 0, fmt.Errorf("append user input: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// AppendReason stores the generated reason for a logged recommendation.
func (q *Queries) AppendReason(ctx context.Context, userInputID, quoteID int64, reason string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO recommendation_reasons (user_input_id, quote_id, reason) VALUES (?, ?, ?)`,
		userInputID, quoteID, reason,
	)
	if err != nil {
		return fmt.Errorf("append reason: %w", err)
	}
	return nil
}

// GetCachedQuote looks up a cache row by query hash.
// Returns (nil, nil) when no row exists.
func (q *Queries) GetCachedQuote(ctx context.Context, queryHash string) (*CachedQuote, error) {
	var c CachedQuote
	err := q.db.QueryRowContext(ctx,
		`SELECT query_hash, query_text, quote, author, source, quote_id, created_at
		 FROM quote_cache WHERE query_hash = ?`,
		queryHash,
	).Scan(&c.QueryHash, &c.QueryText, &c.Quote, &c.Author, &c.Source, &c.QuoteID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached quote: %w", err)
	}
	return &c, nil
}

// UpsertCachedQuote writes a cache row, replacing any previous entry
// under the same hash (last-write-wins).
func (q *Queries) UpsertCachedQuote(ctx context.Context, c *CachedQuote) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO quote_cache (query_hash, query_text, quote, author, source, quote_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(query_hash) DO UPDATE SET
			query_text = excluded.query_text,
			quote = excluded.quote,
			author = excluded.author,
			source = excluded.source,
			quote_id = excluded.quote_id,
			created_at = excluded.created_at`,
		c.QueryHash, c.QueryText, c.Quote, c.Author, c.Source, c.QuoteID, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cached quote: %w", err)
	}
	return nil
}

// DeleteExpiredCache removes cache rows created before the cutoff.
func (q *Queries) DeleteExpiredCache(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM quote_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// UpdateFeedbackAction updates an existing feedback row for the
// (user_input_id, quote_id) pair. Returns the number of rows updated.
func (q *Queries) UpdateFeedbackAction(ctx context.Context, userInputID, quoteID int64, action string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE user_feedback SET action = ? WHERE user_input_id = ? AND quote_id = ?`,
		action, userInputID, quoteID,
	)
	if err != nil {
		return 0, fmt.Errorf("update feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// InsertFeedback adds a feedback row.
func (q *Queries) InsertFeedback(ctx context.Context, f *Feedback) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO user_feedback (user_input_id, quote_id, action, input_text, selected_mode)
		 VALUES (?, ?, ?, ?, ?)`,
		f.UserInputID, f.QuoteID, f.Action, f.InputText, f.SelectedMode,
	)
	if err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// CountUserInputs returns the total number of logged requests.
func (q *Queries) CountUserInputs(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_inputs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count user inputs: %w", err)
	}
	return count, nil
}

// CountCacheEntries returns the number of cache rows.
func (q *Queries) CountCacheEntries(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quote_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}

// CountFeedback returns the number of feedback rows.
func (q *Queries) CountFeedback(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_feedback`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return count, nil
}

package db

import (
	"database/sql"
	"time"
)

// Quote is a single literary quotation with optional embedding blob.
// Rows are reference data: the recommendation pipeline never mutates them.
type Quote struct {
	ID        int64
	Quote     string
	Author    string
	Source    string
	Embedding []byte
	CreatedAt time.Time
}

// UserInput is one logged recommendation request. Append-only.
type UserInput struct {
	ID        int64
	Content   string
	Mode      string
	QuoteID   sql.NullInt64
	CreatedAt time.Time
}

// RecommendationReason is the companion record for a generated reason.
type RecommendationReason struct {
	ID          int64
	UserInputID int64
	QuoteID     int64
	Reason      string
	CreatedAt   time.Time
}

// CachedQuote is one row of the recommendation cache, keyed by the
// hash of (mode, normalized query). Upserts are last-write-wins.
type CachedQuote struct {
	QueryHash string
	QueryText string
	Quote     string
	Author    string
	Source    string
	QuoteID   sql.NullInt64
	CreatedAt time.Time
}

// Feedback is a user reaction ("like") to a recommendation.
type Feedback struct {
	ID           int64
	UserInputID  int64
	QuoteID      int64
	Action       string
	InputText    sql.NullString
	SelectedMode sql.NullString
	CreatedAt    time.Time
}

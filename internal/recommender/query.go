package recommender

import (
	"fmt"
	"strings"
)

// Mode selects the recommendation style.
type Mode string

const (
	ModeHarsh   Mode = "harsh"
	ModeComfort Mode = "comfort"
	ModeRandom  Mode = "random"
)

// randomPlaceholder stands in for an empty random-mode query so the
// text still embeds and caches under a stable key.
const randomPlaceholder = "random vibe"

// Query is a validated, normalized recommendation request.
type Query struct {
	// Raw is the original user text, preserved for logging even when
	// a placeholder replaces it downstream.
	Raw string

	// Text is the trimmed query used for embedding and cache keys.
	// For empty random-mode queries it holds the placeholder.
	Text string

	Mode Mode
}

// UsesPlaceholder reports whether the query text was substituted.
func (q *Query) UsesPlaceholder() bool {
	return q.Text == randomPlaceholder && strings.TrimSpace(q.Raw) == ""
}

// ParseMode validates a raw mode string. An empty mode defaults to
// comfort; anything unrecognized is a validation error.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "":
		return ModeComfort, nil
	case ModeHarsh, ModeComfort, ModeRandom:
		return Mode(raw), nil
	default:
		return "", &ValidationError{Msg: fmt.Sprintf("invalid mode: %q (must be harsh, comfort or random)", raw)}
	}
}

// NormalizeQuery validates the (query, mode) pair and produces a Query.
// Empty text is only allowed in random mode, where the placeholder is
// substituted for downstream use.
func NormalizeQuery(rawQuery, rawMode string) (*Query, error) {
	mode, err := ParseMode(rawMode)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(rawQuery)
	if text == "" {
		if mode != ModeRandom {
			return nil, &ValidationError{Msg: "'query' must be a non-empty string"}
		}
		text = randomPlaceholder
	}

	return &Query{
		Raw:  rawQuery,
		Text: text,
		Mode: mode,
	}, nil
}

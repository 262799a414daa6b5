package recommender

import (
	"errors"
	"log/slog"
)

// ValidationError reports malformed user input. Its message is safe to
// surface verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConfigError reports missing or invalid server configuration.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// NoDataError reports that the quote store has nothing to serve.
type NoDataError struct {
	Msg string
}

func (e *NoDataError) Error() string { return e.Msg }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNoData reports whether err is a NoDataError.
func IsNoData(err error) bool {
	var nde *NoDataError
	return errors.As(err, &nde)
}

// bestEffort runs an operation whose failure must never surface to the
// caller. Cache writes, interaction logging and reason persistence all
// go through here so the absorption policy lives in one place.
func bestEffort(op string, fn func() error) {
	if err := fn(); err != nil {
		slog.Warn("best-effort operation failed", "op", op, "error", err)
	}
}

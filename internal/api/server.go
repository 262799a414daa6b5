// Package api exposes the recommendation pipeline over HTTP and MCP.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sejinbae/moodquote/internal/db"
	"github.com/sejinbae/moodquote/internal/recommender"
)

const maxBodySize = 64 << 10 // 64KB; requests are a sentence or two

// QuoteRecommender resolves a (query, mode) pair into a recommendation.
type QuoteRecommender interface {
	Recommend(ctx context.Context, query, mode string) (*recommender.Recommendation, error)
}

// FeedbackStore persists user reactions to recommendations.
type FeedbackStore interface {
	UpdateFeedbackAction(ctx context.Context, userInputID, quoteID int64, action string) (int64, error)
	InsertFeedback(ctx context.Context, f *db.Feedback) (int64, error)
}

// Deps holds dependencies for the HTTP handler.
type Deps struct {
	Recommender QuoteRecommender
	Feedback    FeedbackStore
	Quotes      recommender.QuoteSource
	IndexCount  func() int // nil hides the index count from /health
}

// NewHandler builds the HTTP router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Post("/api/quote", handleQuote(deps))
	r.Post("/api/feedback", handleFeedback(deps))
	r.Get("/health", handleHealth(deps))

	return r
}

type quoteRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

type quoteResponse struct {
	Quote       string   `json:"quote"`
	Author      string   `json:"author"`
	Source      string   `json:"source"`
	QuoteID     int64    `json:"quote_id,omitempty"`
	UserInputID int64    `json:"user_input_id,omitempty"`
	Similarity  *float64 `json:"similarity,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

func handleQuote(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req quoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		rec, err := deps.Recommender.Recommend(r.Context(), req.Query, req.Mode)
		if err != nil {
			status, msg := errorStatus(err)
			httpError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, quoteResponse{
			Quote:       rec.Quote,
			Author:      rec.Author,
			Source:      rec.Source,
			QuoteID:     rec.QuoteID,
			UserInputID: rec.UserInputID,
			Similarity:  rec.Similarity,
			Reason:      rec.Reason,
		})
	}
}

type feedbackRequest struct {
	Action       string `json:"action"`
	QuoteID      int64  `json:"quote_id"`
	UserInputID  int64  `json:"user_input_id"`
	InputText    string `json:"input_text"`
	SelectedMode string `json:"selected_mode"`
}

func handleFeedback(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req feedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		if req.QuoteID <= 0 {
			httpError(w, http.StatusBadRequest, "'quote_id' must be a positive number")
			return
		}
		if req.UserInputID <= 0 {
			httpError(w, http.StatusBadRequest, "'user_input_id' must be a positive number")
			return
		}

		// Only "like" is supported; an omitted action means like.
		action := req.Action
		if action == "" {
			action = "like"
		}
		if action != "like" {
			httpError(w, http.StatusBadRequest, "'action' must be \"like\"")
			return
		}

		// Update an existing row first (placeholder rows flip to
		// like), insert otherwise.
		updated, err := deps.Feedback.UpdateFeedbackAction(r.Context(), req.UserInputID, req.QuoteID, action)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to record feedback")
			return
		}
		if updated > 0 {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "updated": true})
			return
		}

		f := &db.Feedback{
			UserInputID: req.UserInputID,
			QuoteID:     req.QuoteID,
			Action:      action,
		}
		if req.InputText != "" {
			f.InputText = sql.NullString{String: req.InputText, Valid: true}
		}
		if req.SelectedMode != "" {
			f.SelectedMode = sql.NullString{String: req.SelectedMode, Valid: true}
		}

		if _, err := deps.Feedback.InsertFeedback(r.Context(), f); err != nil {
			httpError(w, http.StatusInternalServerError, "failed to record feedback")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "inserted": true})
	}
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quotes, err := deps.Quotes.CountQuotes(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "database unavailable")
			return
		}

		resp := map[string]any{
			"status": "ok",
			"quotes": quotes,
		}
		if deps.IndexCount != nil {
			resp["indexed"] = deps.IndexCount()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// errorStatus maps pipeline errors onto HTTP statuses. Only the
// validation message is surfaced verbatim; everything else gets a
// short fixed message.
func errorStatus(err error) (int, string) {
	switch {
	case recommender.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case recommender.IsNoData(err):
		return http.StatusInternalServerError, "no quotes available"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

// requestLogger tags each request with a short id and logs the outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.New().String()[:8]

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		slog.Info("request",
			"id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", fmt.Sprintf("%.1fms", float64(time.Since(start).Microseconds())/1000),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Package reason generates one-sentence justifications for a
// recommendation using the Gemini API. Callers treat every failure as
// recoverable; a missing reason never blocks a response.
package reason

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"

	minReasonLen = 24 // characters; anything shorter is discarded
	maxReasonLen = 90 // characters; longer reasons are truncated
)

// Generator is a client for Gemini reason generation.
type Generator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the generator.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // override for tests
}

// New creates a new reason generator.
func New(cfg Config) *Generator {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Generator{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// geminiRequest is the request body for the generateContent API.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the response from the generateContent API.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Explain produces a single-sentence reason connecting the query to
// the quote. Returns an error when the model output is unusable.
func (g *Generator) Explain(ctx context.Context, query, quote string) (string, error) {
	prompt := fmt.Sprintf(explainPrompt, query, quote)

	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("Gemini error: %s", geminiResp.Error.Message)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	reason := Sanitize(geminiResp.Candidates[0].Content.Parts[0].Text)
	if reason == "" {
		return "", fmt.Errorf("unusable reason text")
	}

	return reason, nil
}

// Sanitize normalizes raw model output into a usable reason: first
// non-empty line, leading bullet/quote punctuation removed, length
// bounded to [24, 90] characters. Returns "" when the text is too
// short to be a sentence.
func Sanitize(raw string) string {
	var line string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			line = l
			break
		}
	}
	if line == "" {
		return ""
	}

	line = strings.TrimLeft(line, "-*•>·—– \t")
	line = strings.Trim(line, `"'“”‘’「」`)
	line = strings.TrimSpace(line)

	if utf8.RuneCountInString(line) < minReasonLen {
		return ""
	}

	if utf8.RuneCountInString(line) > maxReasonLen {
		runes := []rune(line)
		line = strings.TrimSpace(string(runes[:maxReasonLen]))
	}

	return line
}

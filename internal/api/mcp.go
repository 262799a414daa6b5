package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sejinbae/moodquote/internal/recommender"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Recommender QuoteRecommender
}

// NewMCPServer creates an MCP server exposing the quote pipeline as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"moodquote",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("moodquote — literary quote recommendations matched to how you feel."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("recommend_quote",
			mcp.WithDescription("Recommend a literary quote for a short description of how the user feels."),
			mcp.WithString("query", mcp.Description("Free text describing the user's mood or situation"), mcp.Required()),
			mcp.WithString("mode", mcp.Description("Recommendation mode: harsh, comfort, or random (default comfort)")),
		),
		mcpRecommendQuote(deps),
	)

	s.AddTool(
		mcp.NewTool("random_quote",
			mcp.WithDescription("Return a random literary quote without any mood matching."),
		),
		mcpRandomQuote(deps),
	)

	return s
}

type mcpQuoteResult struct {
	Quote       string   `json:"quote"`
	Author      string   `json:"author"`
	Source      string   `json:"source"`
	QuoteID     int64    `json:"quote_id,omitempty"`
	UserInputID int64    `json:"user_input_id,omitempty"`
	Similarity  *float64 `json:"similarity,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

func mcpRecommendQuote(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		mode := req.GetString("mode", "")

		rec, err := deps.Recommender.Recommend(ctx, query, mode)
		if err != nil {
			if recommender.IsValidation(err) {
				return mcpError(err.Error()), nil
			}
			return mcpError(fmt.Sprintf("recommendation failed: %v", err)), nil
		}

		return mcpQuote(rec)
	}
}

func mcpRandomQuote(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rec, err := deps.Recommender.Recommend(ctx, "", string(recommender.ModeRandom))
		if err != nil {
			return mcpError(fmt.Sprintf("recommendation failed: %v", err)), nil
		}

		return mcpQuote(rec)
	}
}

func mcpQuote(rec *recommender.Recommendation) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(mcpQuoteResult{
		Quote:       rec.Quote,
		Author:      rec.Author,
		Source:      rec.Source,
		QuoteID:     rec.QuoteID,
		UserInputID: rec.UserInputID,
		Similarity:  rec.Similarity,
		Reason:      rec.Reason,
	})
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nookly/threadwatch/internal/models"
	"github.com/nookly/threadwatch/internal/store"
)

// SearchTool handles the search_threads MCP tool.
type SearchTool struct {
	threads *store.TieredStore
}

// NewSearchTool creates a SearchTool backed by the given store.
func NewSearchTool(threads *store.TieredStore) *SearchTool {
	return &SearchTool{threads: threads}
}

// Definition returns the MCP tool definition for search_threads.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search_threads",
		mcp.WithDescription(
			"Search stored threads by keyword across title and body excerpt. "+
				"Matching is case-insensitive substring search.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keyword or phrase to search for"),
		),
		mcp.WithString("tier",
			mcp.Description("Restrict to a tier: high, medium, or low. Omit for all tiers."),
		),
		mcp.WithString("forum",
			mcp.Description("Restrict to one forum name, e.g. specialed"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 50)"),
		),
	)
}

// Handle processes the search_threads tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.ToLower(strings.TrimSpace(req.GetString("query", "")))
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	tier, err := parseTier(req.GetString("tier", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	forum := strings.ToLower(req.GetString("forum", ""))

	limit := intArg(req, "limit", 10)
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	tiers := models.StoredTiers
	if tier != "" {
		tiers = []models.PriorityTier{tier}
	}

	var matches []models.ThreadRecord
	for _, tr := range tiers {
		records, err := t.threads.Recent(tr, 0)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read tier %s: %v", tr, err)), nil
		}
		for _, rec := range records {
			if len(matches) >= limit {
				break
			}
			if forum != "" && strings.ToLower(rec.ForumName) != forum {
				continue
			}
			if !strings.Contains(strings.ToLower(rec.Title), query) &&
				!strings.Contains(strings.ToLower(rec.BodyExcerpt), query) {
				continue
			}
			matches = append(matches, rec)
		}
	}

	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No stored threads match %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d threads matching %q:\n\n", len(matches), query)
	for i := range matches {
		writeRecord(&b, &matches[i])
	}
	return mcp.NewToolResultText(b.String()), nil
}

package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nookly/threadwatch/internal/models"
	"github.com/nookly/threadwatch/internal/store"
)

// RecentTool handles the recent_threads MCP tool.
type RecentTool struct {
	threads *store.TieredStore
}

// NewRecentTool creates a RecentTool backed by the given store.
func NewRecentTool(threads *store.TieredStore) *RecentTool {
	return &RecentTool{threads: threads}
}

// Definition returns the MCP tool definition for recent_threads.
func (t *RecentTool) Definition() mcp.Tool {
	return mcp.NewTool("recent_threads",
		mcp.WithDescription(
			"List the most recently captured forum threads, newest first. "+
				"Optionally restrict to a single priority tier.",
		),
		mcp.WithString("tier",
			mcp.Description("Priority tier to list: high, medium, or low. Omit for all tiers."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max threads per tier (default: 10, max: 50)"),
		),
	)
}

// Handle processes the recent_threads tool call.
func (t *RecentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tier, err := parseTier(req.GetString("tier", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

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

	var b strings.Builder
	total := 0
	for _, tr := range tiers {
		records, err := t.threads.Recent(tr, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read tier %s: %v", tr, err)), nil
		}
		if len(records) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s priority (%d of %d stored)\n\n", tr, len(records), t.threads.Count(tr))
		for i := range records {
			writeRecord(&b, &records[i])
		}
		total += len(records)
	}

	if total == 0 {
		return mcp.NewToolResultText("No threads stored yet."), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

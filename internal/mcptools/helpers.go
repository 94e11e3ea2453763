// Package mcptools exposes the thread store and pipeline status to MCP
// clients, so operators can inspect the monitor from their editor or
// assistant without touching the storage layout directly.
//
// Each tool follows the same pattern:
//   - A struct with its dependencies injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
package mcptools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nookly/threadwatch/internal/models"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// parseTier validates a tier argument. An empty string means "all tiers".
func parseTier(s string) (models.PriorityTier, error) {
	if s == "" {
		return "", nil
	}
	for _, tier := range models.StoredTiers {
		if s == string(tier) {
			return tier, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q, expected one of: high, medium, low", s)
}

func writeRecord(b *strings.Builder, rec *models.ThreadRecord) {
	fmt.Fprintf(b, "### %s\n", rec.Title)
	fmt.Fprintf(b, "- **Forum**: r/%s\n", rec.ForumName)
	fmt.Fprintf(b, "- **Score**: %d/10 (%s)\n", rec.RelevanceScore, rec.PriorityTier)
	fmt.Fprintf(b, "- **Status**: %s\n", rec.Status)
	fmt.Fprintf(b, "- **Engagement**: %d points, %d comments\n", rec.Engagement.Score, rec.Engagement.CommentCount)
	fmt.Fprintf(b, "- **First seen**: %s\n", rec.FirstSeenAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(b, "- **URL**: %s\n", rec.URL)
	if rec.BodyExcerpt != "" {
		excerpt := rec.BodyExcerpt
		if len(excerpt) > 400 {
			excerpt = models.TruncateText(excerpt, 400) + "..."
		}
		fmt.Fprintf(b, "\n> %s\n", strings.ReplaceAll(excerpt, "\n", "\n> "))
	}
	if rec.DraftResponse != "" {
		fmt.Fprintf(b, "\n**Draft reply:**\n\n%s\n", rec.DraftResponse)
	}
	b.WriteString("\n")
}

package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/models"
	"github.com/nookly/threadwatch/internal/store"
)

// StatusTool handles the pipeline_status MCP tool. It reads the store
// directly rather than the running daemon's metrics, so it works from a
// separate process against the same storage backend.
type StatusTool struct {
	cfg     *config.Config
	threads *store.TieredStore
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(cfg *config.Config, threads *store.TieredStore) *StatusTool {
	return &StatusTool{cfg: cfg, threads: threads}
}

// Definition returns the MCP tool definition for pipeline_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("pipeline_status",
		mcp.WithDescription(
			"Show the monitor's configuration and current store occupancy: "+
				"watched forums per tier class, per-tier record counts, and schedule.",
		),
	)
}

// Handle processes the pipeline_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	b.WriteString("## Pipeline Status\n\n")

	fmt.Fprintf(&b, "- **Polling interval**: %s\n", t.cfg.Schedule.PollInterval)
	fmt.Fprintf(&b, "- **Digest time**: %s %s\n", t.cfg.Schedule.DigestTime, t.cfg.Schedule.Timezone)
	fmt.Fprintf(&b, "- **Storage backend**: %s\n", t.cfg.Storage.Backend)
	fmt.Fprintf(&b, "- **Drafting enabled**: %t\n\n", t.cfg.Drafting.Enabled)

	b.WriteString("### Stored threads\n\n")
	total := 0
	for _, tier := range models.StoredTiers {
		n := t.threads.Count(tier)
		total += n
		fmt.Fprintf(&b, "- **%s**: %d / %d\n", tier, n, t.cfg.Storage.MaxRecordsPerTier)
	}
	fmt.Fprintf(&b, "- **total**: %d\n\n", total)

	b.WriteString("### Watched forums\n\n")
	for _, class := range models.ClassOrder {
		forums := t.cfg.ForumsByClass(class)
		if len(forums) == 0 {
			continue
		}
		names := make([]string, 0, len(forums))
		for _, f := range forums {
			names = append(names, "r/"+f.Name)
		}
		fmt.Fprintf(&b, "- **%s** (%d): %s\n", class, len(names), strings.Join(names, ", "))
	}

	return mcp.NewToolResultText(b.String()), nil
}

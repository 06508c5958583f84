package memtools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemo-mcp/mnemo/internal/reindex"
)

// ReindexTool handles the mem_reindex MCP tool. It regenerates embeddings
// in place while the server keeps running; the full offline rebuild with
// duplicate merging and file swap lives in the reindex CLI command, which
// must not run against a live server.
type ReindexTool struct {
	engine *reindex.Engine
}

// NewReindexTool creates a ReindexTool.
func NewReindexTool(engine *reindex.Engine) *ReindexTool {
	return &ReindexTool{engine: engine}
}

// Definition returns the MCP tool definition for mem_reindex.
func (t *ReindexTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_reindex",
		mcp.WithDescription(
			"Regenerate memory embeddings. By default only memories missing an embedding are processed; "+
				"set force to re-embed everything.",
		),
		mcp.WithBoolean("force",
			mcp.Description("Re-embed all memories, not just the ones missing an embedding"),
		),
	)
}

// Handle processes the mem_reindex tool call.
func (t *ReindexTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	force := boolArg(req, "force", false)

	report, err := t.engine.Backfill(force)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reindex failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Reindexed %d memories: %d embeddings written in %s.",
		report.TotalMemories, report.EmbeddingsWritten, report.Duration.Round(time.Millisecond),
	)), nil
}

package memtools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemo-mcp/mnemo/internal/service"
)

// StatsTool handles the mem_stats MCP tool.
type StatsTool struct {
	svc *service.Service
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(svc *service.Service) *StatsTool {
	return &StatsTool{svc: svc}
}

// Definition returns the MCP tool definition for mem_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_stats",
		mcp.WithDescription(
			"Show statistics about the memory store: totals per type, pending deletions, stored embeddings.",
		),
	)
}

// Handle processes the mem_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.svc.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Memories: %d\n", stats.TotalMemories)

	types := make([]string, 0, len(stats.ByType))
	for typ := range stats.ByType {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		fmt.Fprintf(&b, "  %s: %d\n", typ, stats.ByType[typ])
	}

	fmt.Fprintf(&b, "Embeddings: %d\n", stats.Embeddings)
	fmt.Fprintf(&b, "Pending deletion: %d\n", stats.DeletedPending)
	return mcp.NewToolResultText(b.String()), nil
}

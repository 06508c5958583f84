package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemo-mcp/mnemo/internal/service"
)

// RelateTool handles the mem_find_related MCP tool.
type RelateTool struct {
	svc *service.Service
}

// NewRelateTool creates a RelateTool.
func NewRelateTool(svc *service.Service) *RelateTool {
	return &RelateTool{svc: svc}
}

// Definition returns the MCP tool definition for mem_find_related.
func (t *RelateTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_find_related",
		mcp.WithDescription(
			"Find memories semantically similar to a given one, ranked by embedding similarity. "+
				"Useful for surfacing connected knowledge that keyword search misses.",
		),
		mcp.WithString("memory_id",
			mcp.Required(),
			mcp.Description("ID of the memory to find neighbors of"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default 10)"),
		),
		mcp.WithNumber("min_similarity",
			mcp.Description("Similarity floor, 0.0 to 1.0 (default 0.3)"),
		),
	)
}

// Handle processes the mem_find_related tool call.
func (t *RelateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("memory_id", "")
	if id == "" {
		return mcp.NewToolResultError("'memory_id' is required"), nil
	}
	limit := intArg(req, "limit", 0)
	minSim := float32(floatArg(req, "min_similarity", 0.3))

	related, err := t.svc.FindRelated(id, limit, minSim)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError(verr.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("find related failed: %v", err)), nil
	}

	if len(related) == 0 {
		return mcp.NewToolResultText("No related memories found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d related memories:\n\n", len(related))
	for i, r := range related {
		fmt.Fprintf(&b, "[%d] (%s) %s | similarity %.3f\n    ID: %s\n    %s\n\n",
			i+1, r.Memory.Type, r.Memory.Title, r.Score, r.Memory.ID,
			truncate(r.Memory.Content, 200))
	}
	return mcp.NewToolResultText(b.String()), nil
}

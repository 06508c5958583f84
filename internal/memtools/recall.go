package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemo-mcp/mnemo/internal/service"
)

// RecallTool handles the mem_recall MCP tool.
type RecallTool struct {
	svc *service.Service
}

// NewRecallTool creates a RecallTool.
func NewRecallTool(svc *service.Service) *RecallTool {
	return &RecallTool{svc: svc}
}

// Definition returns the MCP tool definition for mem_recall.
func (t *RecallTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_recall",
		mcp.WithDescription(
			"Retrieve knowledge from persistent memory. With a query this searches title, content and tags; "+
				"without one it browses by type. Every recalled memory counts as accessed.",
		),
		mcp.WithString("query",
			mcp.Description("Search terms. Leave empty to browse by type."),
		),
		mcp.WithString("type",
			mcp.Description("Filter by memory category"),
		),
		mcp.WithArray("tags",
			mcp.Description("Only return memories carrying all of these tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default 10)"),
		),
	)
}

// Handle processes the mem_recall tool call.
func (t *RecallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := t.svc.Recall(service.RecallParams{
		Query: req.GetString("query", ""),
		Type:  req.GetString("type", ""),
		Tags:  stringListArg(req, "tags"),
		Limit: intArg(req, "limit", 0),
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError(verr.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("recall failed: %v", err)), nil
	}

	if len(res.Memories) == 0 {
		return mcp.NewToolResultText("No memories found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Showing %d of %d memories:\n\n", len(res.Memories), res.TotalCount)
	for i, m := range res.Memories {
		fmt.Fprintf(&b, "[%d] (%s) %s | confidence %.2f | referenced %d times\n",
			i+1, m.Type, m.Title, m.Confidence, m.ReferenceCount)
		fmt.Fprintf(&b, "    ID: %s\n", m.ID)
		if len(m.Tags) > 0 {
			fmt.Fprintf(&b, "    Tags: %s\n", strings.Join(m.Tags, ", "))
		}
		fmt.Fprintf(&b, "    %s\n", truncate(m.Content, 300))
		for _, ex := range m.Examples {
			fmt.Fprintf(&b, "    Example: %s\n", truncate(ex, 120))
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// truncate shortens s to at most n runes, appending an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

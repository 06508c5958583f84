package memtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemo-mcp/mnemo/internal/service"
)

// DeleteTool handles the mem_delete MCP tool.
type DeleteTool struct {
	svc *service.Service
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(svc *service.Service) *DeleteTool {
	return &DeleteTool{svc: svc}
}

// Definition returns the MCP tool definition for mem_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_delete",
		mcp.WithDescription(
			"Delete a memory by ID. The memory disappears from search and recall immediately; "+
				"physical removal happens during cleanup.",
		),
		mcp.WithString("memory_id",
			mcp.Required(),
			mcp.Description("ID of the memory to delete"),
		),
	)
}

// Handle processes the mem_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("memory_id", "")
	if id == "" {
		return mcp.NewToolResultError("'memory_id' is required"), nil
	}

	deleted, err := t.svc.DeleteMemory(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	if !deleted {
		return mcp.NewToolResultText(fmt.Sprintf("No memory with ID %s.", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Memory %s deleted.", id)), nil
}

// ─── CleanupTool ─────────────────────────────────────────────────────────────

// CleanupTool handles the mem_cleanup MCP tool.
type CleanupTool struct {
	svc *service.Service
}

// NewCleanupTool creates a CleanupTool.
func NewCleanupTool(svc *service.Service) *CleanupTool {
	return &CleanupTool{svc: svc}
}

// Definition returns the MCP tool definition for mem_cleanup.
func (t *CleanupTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_cleanup",
		mcp.WithDescription(
			"Physically purge memories that were previously deleted, reclaiming space. Irreversible.",
		),
	)
}

// Handle processes the mem_cleanup tool call.
func (t *CleanupTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := t.svc.Cleanup()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cleanup failed: %v", err)), nil
	}
	if n == 0 {
		return mcp.NewToolResultText("Nothing to clean up."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Purged %d deleted memories.", n)), nil
}

package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemo-mcp/mnemo/internal/service"
)

// RememberTool handles the mem_remember MCP tool.
type RememberTool struct {
	svc *service.Service
}

// NewRememberTool creates a RememberTool.
func NewRememberTool(svc *service.Service) *RememberTool {
	return &RememberTool{svc: svc}
}

// Definition returns the MCP tool definition for mem_remember.
func (t *RememberTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_remember",
		mcp.WithDescription(
			"Store a piece of knowledge in persistent memory. Remembering the same type and title again "+
				"updates the existing memory instead of creating a duplicate: new content is appended, "+
				"and the memory's reference count grows.",
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Memory category: "+strings.Join(service.DefaultTypes, ", ")),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short, unique-per-type title (e.g. 'SQLite WAL mode')"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The knowledge to store"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags for filtering during recall. Omit to keep existing tags on update."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("examples",
			mcp.Description("Concrete examples illustrating the knowledge. Omit to keep existing ones."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithNumber("confidence",
			mcp.Description("How certain this knowledge is, 0.0 to 1.0 (default 1.0)"),
		),
	)
}

// Handle processes the mem_remember tool call.
func (t *RememberTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := service.RememberParams{
		Type:     req.GetString("type", ""),
		Title:    req.GetString("title", ""),
		Content:  req.GetString("content", ""),
		Tags:     stringListArg(req, "tags"),
		Examples: stringListArg(req, "examples"),
	}
	if _, ok := req.GetArguments()["confidence"]; ok {
		c := floatArg(req, "confidence", 1.0)
		params.Confidence = &c
	}

	res, err := t.svc.Remember(params)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError(verr.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to remember: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Memory %s: %q (%s)\nID: %s",
		res.Action, params.Title, params.Type, res.MemoryID)), nil
}

// Package resources implements MCP resource handlers for the memory store.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (mnemo://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemo-mcp/mnemo/internal/memory"
)

// StatsProvider is the slice of the service the handler needs.
type StatsProvider interface {
	Stats() (*memory.Stats, error)
	Types() []string
}

// Handler manages memory resource endpoints.
type Handler struct {
	svc StatsProvider
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(svc StatsProvider) *Handler {
	return &Handler{svc: svc}
}

// StatsResource returns the MCP resource definition for store statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"mnemo://store/stats",
		"Memory Store Statistics",
		mcp.WithResourceDescription("Totals per memory type, stored embeddings, and pending deletions"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the current store statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.svc.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	payload := struct {
		*memory.Stats
		Types []string `json:"types"`
	}{Stats: stats, Types: h.svc.Types()}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling stats: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}

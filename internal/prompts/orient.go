// Package prompts implements MCP prompt handlers for the memory system.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// OrientPrompt handles the mem-orient MCP prompt. It guides the AI to
// recover stored knowledge at the start of a session.
type OrientPrompt struct{}

// NewOrientPrompt creates an OrientPrompt.
func NewOrientPrompt() *OrientPrompt {
	return &OrientPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *OrientPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("mem-orient",
		mcp.WithPromptDescription(
			"Orient yourself using persistent memory: browse stored knowledge, "+
				"surface what is relevant to the current work, and report back.",
		),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Optional topic to focus the recall on"),
		),
	)
}

// Handle processes the mem-orient prompt request.
func (p *OrientPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := ""
	if args := req.Params.Arguments; args != nil {
		topic = args["topic"]
	}

	var instructions string
	if topic == "" {
		instructions = "Please:\n" +
			"1. Call `mem_stats` to see what the store holds\n" +
			"2. Call `mem_recall` for each memory type to browse stored knowledge\n" +
			"3. Summarize what you found and how it relates to what we are working on"
	} else {
		instructions = fmt.Sprintf("Please:\n"+
			"1. Call `mem_recall` with query='%s'\n"+
			"2. For the most relevant result, call `mem_find_related` to surface connected knowledge\n"+
			"3. Summarize what the store knows about '%s'", topic, topic)
	}

	return &mcp.GetPromptResult{
		Description: "Recover context from persistent memory",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want to recover context from your persistent memory before we continue.\n\n" + instructions,
				),
			},
		},
	}, nil
}

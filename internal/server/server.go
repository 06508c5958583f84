// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools that depend on them. No business logic
// lives here, only wiring.
package server

import (
	"fmt"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mnemo-mcp/mnemo/internal/config"
	"github.com/mnemo-mcp/mnemo/internal/embedding"
	"github.com/mnemo-mcp/mnemo/internal/memory"
	"github.com/mnemo-mcp/mnemo/internal/memtools"
	"github.com/mnemo-mcp/mnemo/internal/prompts"
	"github.com/mnemo-mcp/mnemo/internal/reindex"
	"github.com/mnemo-mcp/mnemo/internal/resources"
	"github.com/mnemo-mcp/mnemo/internal/service"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with every memory tool
// registered. This is the single place where dependencies are resolved.
//
// The returned cleanup function closes the memory store's database
// connection and must be called on shutdown (typically via defer). It is
// always non-nil and safe to call even when initialization failed.
func New(cfg config.Config, log *bolt.Logger) (*server.MCPServer, func(), error) {
	storeCfg := memory.Config{
		Path:             cfg.DatabasePath(),
		MaxSearchResults: cfg.Memory.MaxSearchResults,
	}

	store, err := memory.New(storeCfg)
	if err != nil {
		return nil, noop, fmt.Errorf("opening memory store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil && log != nil {
			log.Warn().Err(err).Msg("memory store close")
		}
	}

	engine := embedding.NewEngine(cfg.Embedding.Dimension)

	svc, err := service.New(store, engine, service.Config{
		Types:              cfg.Memory.Types,
		DefaultType:        cfg.Memory.DefaultType,
		DefaultLimit:       cfg.Memory.DefaultLimit,
		ModelName:          cfg.Embedding.ModelName,
		EmbeddingsEnabled:  cfg.Embedding.Enabled,
		EmbeddingCacheSize: cfg.Embedding.CacheSize,
	}, log)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating memory service: %w", err)
	}

	reindexer := reindex.New(storeCfg, engine, reindex.Options{
		Threshold: cfg.Reindex.Threshold,
		BatchSize: cfg.Reindex.BatchSize,
		ModelName: cfg.Embedding.ModelName,
	}, log)

	s := server.NewMCPServer(
		"mnemo",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	rememberTool := memtools.NewRememberTool(svc)
	s.AddTool(rememberTool.Definition(), rememberTool.Handle)

	recallTool := memtools.NewRecallTool(svc)
	s.AddTool(recallTool.Definition(), recallTool.Handle)

	relateTool := memtools.NewRelateTool(svc)
	s.AddTool(relateTool.Definition(), relateTool.Handle)

	deleteTool := memtools.NewDeleteTool(svc)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	cleanupTool := memtools.NewCleanupTool(svc)
	s.AddTool(cleanupTool.Definition(), cleanupTool.Handle)

	statsTool := memtools.NewStatsTool(svc)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	reindexTool := memtools.NewReindexTool(reindexer)
	s.AddTool(reindexTool.Definition(), reindexTool.Handle)

	orientPrompt := prompts.NewOrientPrompt()
	s.AddPrompt(orientPrompt.Definition(), orientPrompt.Handle)

	resourceHandler := resources.NewHandler(svc)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	return s, cleanup, nil
}

// noop is the default cleanup when initialization fails.
func noop() {}

// serverInstructions tells the AI client how to use the memory tools.
func serverInstructions() string {
	return `You have access to mnemo, a persistent memory MCP server.
Memory survives between conversations. Use it to accumulate knowledge over time.

## When to Remember (call mem_remember PROACTIVELY)
- A technology fact worth keeping (type: tech)
- How this project uses a technology (type: project_tech)
- Business or domain knowledge (type: domain)

Titles are canonical: remembering the same type and title again UPDATES the
existing memory and appends new content. Prefer stable, searchable titles
("SQLite WAL mode", "Billing proration rules") so knowledge accumulates in
one place instead of fragmenting.

## When to Recall
- At the start of a session, browse with mem_recall (no query) to orient
- Before answering questions the store might already cover, search with a query
- Use type and tags filters to narrow results

Recalled memories rise in relevance: each recall bumps their reference count,
which breaks ties in future rankings.

## Exploring Connections
After recalling a memory, mem_find_related surfaces semantically similar
memories that keyword search misses.

## Housekeeping
- mem_delete removes a memory from recall (reversible until cleanup)
- mem_cleanup permanently purges deleted memories
- mem_stats shows what the store holds
- mem_reindex regenerates embeddings, e.g. after restoring an old database`
}

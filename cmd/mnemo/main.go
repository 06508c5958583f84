// Mnemo: persistent memory MCP server.
//
// A searchable knowledge store for AI coding tools: memories are stored
// in SQLite with a full-text index and lightweight embeddings, exposed
// over MCP stdio transport.
//
// Usage:
//
//	mnemo serve      # Start the MCP server (stdio transport)
//	mnemo reindex    # Rebuild the database offline: backup, re-embed, merge duplicates
//	mnemo update     # Update to the latest release
//	mnemo version    # Print the version
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/mnemo-mcp/mnemo/internal/config"
	"github.com/mnemo-mcp/mnemo/internal/embedding"
	"github.com/mnemo-mcp/mnemo/internal/memory"
	"github.com/mnemo-mcp/mnemo/internal/reindex"
	"github.com/mnemo-mcp/mnemo/internal/server"
	"github.com/mnemo-mcp/mnemo/internal/updater"
)

var (
	configPath string
	verbose    bool

	noBackup  bool
	threshold float32
)

var rootCmd = &cobra.Command{
	Use:   "mnemo",
	Short: "Persistent memory MCP server",
	Long: `Mnemo gives AI coding tools a persistent, searchable memory.
Knowledge is stored in SQLite with a full-text index and embeddings,
and served over the MCP stdio transport.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		// Logs go to stderr: stdout carries the MCP transport.
		log := newLogger()

		s, cleanup, err := server.New(cfg, log)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		// Best-effort version check, printed to stderr so it cannot
		// interfere with the MCP transport on stdout.
		go checkForUpdates()

		log.Info().Str("version", server.Version).Str("db", cfg.DatabasePath()).Msg("mnemo serving")
		return mcpserver.ServeStdio(s)
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the database offline",
	Long: `Reindex backs up the database, regenerates every embedding, merges
near-duplicate memories, and atomically swaps the rebuilt database in.
Run it while no server holds the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if threshold > 0 {
			cfg.Reindex.Threshold = threshold
		}
		if noBackup {
			cfg.Reindex.BackupEnabled = false
		}

		log := newLogger()
		engine := reindex.New(
			memory.Config{
				Path:             cfg.DatabasePath(),
				MaxSearchResults: cfg.Memory.MaxSearchResults,
			},
			embedding.NewEngine(cfg.Embedding.Dimension),
			reindex.Options{
				Threshold:     cfg.Reindex.Threshold,
				BackupEnabled: cfg.Reindex.BackupEnabled,
				BatchSize:     cfg.Reindex.BatchSize,
				ModelName:     cfg.Embedding.ModelName,
			},
			log,
		)

		report, err := engine.Run()
		if err != nil {
			return err
		}

		fmt.Printf("Reindexed %d memories in %s\n", report.TotalMemories, report.Duration.Round(time.Millisecond))
		fmt.Printf("  duplicates found:  %d\n", report.DuplicatesFound)
		fmt.Printf("  duplicates merged: %d\n", report.DuplicatesMerged)
		fmt.Printf("  embeddings:        %d\n", report.EmbeddingsWritten)
		if report.BackupPath != "" {
			fmt.Printf("  backup:            %s\n", report.BackupPath)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mnemo v%s\n", server.Version)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update mnemo to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		result := updater.CheckVersion(server.Version)
		if !result.UpdateAvailable {
			fmt.Printf("Already at the latest version (v%s)\n", result.CurrentVersion)
			return nil
		}

		fmt.Printf("Updating v%s -> v%s...\n", result.CurrentVersion, result.LatestVersion)
		if err := updater.SelfUpdate(server.Version); err != nil {
			return fmt.Errorf("update failed: %w\nDownload manually from %s", err, result.ReleaseURL)
		}
		fmt.Printf("Updated to v%s. Restart mnemo to use the new version.\n", result.LatestVersion)
		return nil
	},
}

// checkForUpdates prints a notice to stderr when a newer release exists.
// Network failures are silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(server.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "Update available: v%s -> v%s (run: mnemo update)\n",
			result.CurrentVersion, result.LatestVersion)
	}
}

func newLogger() *bolt.Logger {
	log := bolt.New(bolt.NewConsoleHandler(os.Stderr))
	if !verbose {
		log.SetLevel(bolt.WARN)
	}
	return log
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.mnemo/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	reindexCmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the pre-rebuild database backup")
	reindexCmd.Flags().Float32Var(&threshold, "threshold", 0, "Duplicate similarity threshold (default from config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

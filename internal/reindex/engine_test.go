package reindex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mnemo-mcp/mnemo/internal/embedding"
	"github.com/mnemo-mcp/mnemo/internal/memory"
)

func newSeededStore(t *testing.T, ms []*memory.Memory) memory.Config {
	t.Helper()

	cfg := memory.Config{Path: filepath.Join(t.TempDir(), "memories.db")}
	store, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.SaveBatch(ms); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	return cfg
}

func TestRunMergesDuplicates(t *testing.T) {
	shared := "async runtimes schedule lightweight tasks onto operating system threads " +
		"using work stealing queues and epoll based reactors"
	cfg := newSeededStore(t, []*memory.Memory{
		{ID: "id-a", Type: "tech", Title: "Tokio runtime", Content: shared,
			Tags: []string{"rust"}, ReferenceCount: 3, Confidence: 0.9, CreatedAt: "2026-01-02 10:00:00"},
		{ID: "id-b", Type: "tech", Title: "The Tokio runtime", Content: shared,
			Tags: []string{"async"}, ReferenceCount: 1, Confidence: 0.7, CreatedAt: "2026-01-01 09:00:00"},
		{ID: "id-c", Type: "tech", Title: "CSS grid", Content: "two dimensional layout system for web pages",
			Confidence: 1.0, CreatedAt: "2026-01-03 08:00:00"},
	})

	engine := New(cfg, embedding.NewEngine(0), Options{BackupEnabled: true}, nil)
	report, err := engine.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.TotalMemories != 3 {
		t.Errorf("total_memories = %d, want 3", report.TotalMemories)
	}
	if report.DuplicatesMerged != 1 {
		t.Fatalf("duplicates_merged = %d, want 1 (found %d)", report.DuplicatesMerged, report.DuplicatesFound)
	}
	if report.BackupPath == "" {
		t.Error("backup path not reported")
	} else if _, err := os.Stat(report.BackupPath); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	store, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("reopen rebuilt store: %v", err)
	}
	defer store.Close()

	survivor, err := store.FindByID("id-a")
	if err != nil || survivor == nil {
		t.Fatalf("survivor missing: %v, %v", survivor, err)
	}
	if survivor.ReferenceCount != 4 {
		t.Errorf("merged reference_count = %d, want 3+1", survivor.ReferenceCount)
	}
	if len(survivor.Tags) != 2 {
		t.Errorf("merged tags = %v, want union of rust and async", survivor.Tags)
	}
	if survivor.CreatedAt != "2026-01-01 09:00:00" {
		t.Errorf("merged created_at = %q, want the earlier one", survivor.CreatedAt)
	}
	if absorbed, _ := store.FindByID("id-b"); absorbed != nil {
		t.Error("absorbed memory still present after rebuild")
	}
	if untouched, _ := store.FindByID("id-c"); untouched == nil {
		t.Error("unrelated memory lost in rebuild")
	}

	// The rebuilt store carries fresh embeddings for every survivor.
	for _, id := range []string{"id-a", "id-c"} {
		vec, err := store.GetEmbedding(id, embedding.DefaultModelName)
		if err != nil {
			t.Fatalf("get embedding %s: %v", id, err)
		}
		if len(vec) != embedding.DefaultDimension {
			t.Errorf("embedding for %s has dimension %d", id, len(vec))
		}
	}

	// The search index was rebuilt alongside the rows.
	hits, err := store.SearchFTS("layout", 10)
	if err != nil {
		t.Fatalf("fts on rebuilt store: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "id-c" {
		t.Errorf("fts hits = %+v, want id-c", hits)
	}
}

func TestRunWithoutDuplicates(t *testing.T) {
	cfg := newSeededStore(t, []*memory.Memory{
		{ID: "id-1", Type: "tech", Title: "Channels", Content: "goroutines communicate over typed channels",
			Confidence: 1.0, CreatedAt: "2026-02-01 00:00:00"},
		{ID: "id-2", Type: "domain", Title: "Billing cycles", Content: "invoices are issued monthly in arrears",
			Confidence: 1.0, CreatedAt: "2026-02-02 00:00:00"},
	})

	report, err := New(cfg, embedding.NewEngine(0), Options{}, nil).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.DuplicatesFound != 0 || report.DuplicatesMerged != 0 {
		t.Errorf("report = %+v, want no duplicates", report)
	}
	if report.BackupPath != "" {
		t.Errorf("backup written despite being disabled: %q", report.BackupPath)
	}

	store, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	for _, id := range []string{"id-1", "id-2"} {
		if m, _ := store.FindByID(id); m == nil {
			t.Errorf("memory %s missing after rebuild", id)
		}
	}
}

func TestRunRejectsThresholdAboveOne(t *testing.T) {
	cfg := newSeededStore(t, []*memory.Memory{
		{ID: "m1", Type: "tech", Title: "Kept", Content: "a fact that must survive",
			Confidence: 1.0, CreatedAt: "2026-03-01 00:00:00"},
	})

	_, err := New(cfg, embedding.NewEngine(0), Options{Threshold: 5, BackupEnabled: true}, nil).Run()
	if err == nil {
		t.Fatal("threshold above 1 should be rejected")
	}

	// The database must not have been touched: no backup, row intact.
	store, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	all, err := store.SearchAll()
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != "m1" {
		t.Errorf("rows after rejected run = %+v, want [m1]", all)
	}
	entries, err := os.ReadDir(filepath.Dir(cfg.Path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), "backup") {
			t.Errorf("unexpected backup file %q after rejected run", entry.Name())
		}
	}
}

func TestRunSkipsSoftDeleted(t *testing.T) {
	cfg := newSeededStore(t, []*memory.Memory{
		{ID: "live", Type: "tech", Title: "Kept", Content: "useful fact about indexes",
			Confidence: 1.0, CreatedAt: "2026-03-01 00:00:00"},
		{ID: "gone", Type: "tech", Title: "Dropped", Content: "obsolete fact", Deleted: true,
			Confidence: 1.0, CreatedAt: "2026-03-01 00:00:00"},
	})

	report, err := New(cfg, embedding.NewEngine(0), Options{}, nil).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.TotalMemories != 1 {
		t.Errorf("total_memories = %d, want only the live row", report.TotalMemories)
	}

	store, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	all, err := store.SearchAll()
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(all) != 1 || all[0].ID != "live" {
		t.Errorf("rebuilt rows = %+v, want only the live one", all)
	}
}

func TestBackfill(t *testing.T) {
	cfg := newSeededStore(t, []*memory.Memory{
		{ID: "m1", Type: "tech", Title: "One", Content: "first body of knowledge",
			Confidence: 1.0, CreatedAt: "2026-04-01 00:00:00"},
		{ID: "m2", Type: "tech", Title: "Two", Content: "second body of knowledge",
			Confidence: 1.0, CreatedAt: "2026-04-01 00:00:00"},
	})

	engine := New(cfg, embedding.NewEngine(0), Options{}, nil)

	report, err := engine.Backfill(false)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if report.EmbeddingsWritten != 2 {
		t.Errorf("embeddings_written = %d, want 2", report.EmbeddingsWritten)
	}

	// A second pass finds nothing missing.
	report, err = engine.Backfill(false)
	if err != nil {
		t.Fatalf("second backfill: %v", err)
	}
	if report.EmbeddingsWritten != 0 {
		t.Errorf("embeddings_written on second pass = %d, want 0", report.EmbeddingsWritten)
	}

	// Force re-embeds everything.
	report, err = engine.Backfill(true)
	if err != nil {
		t.Fatalf("forced backfill: %v", err)
	}
	if report.EmbeddingsWritten != 2 {
		t.Errorf("forced embeddings_written = %d, want 2", report.EmbeddingsWritten)
	}
}

func TestMergeInto(t *testing.T) {
	accessed := "2026-05-01 12:00:00"
	dst := memory.Memory{
		Content: "base fact", Tags: []string{"a", "b"}, Examples: []string{"x"},
		ReferenceCount: 2, Confidence: 0.8, CreatedAt: "2026-01-10 00:00:00",
	}
	src := memory.Memory{
		Content: "extra fact", Tags: []string{"b", "c"}, Examples: []string{"x", "y"},
		ReferenceCount: 4, Confidence: 0.4, CreatedAt: "2026-01-05 00:00:00",
		LastAccessed: &accessed,
	}

	mergeInto(&dst, &src)

	if !strings.Contains(dst.Content, "base fact") || !strings.Contains(dst.Content, "extra fact") {
		t.Errorf("content = %q, want both parts", dst.Content)
	}
	if got := strings.Join(dst.Tags, ","); got != "a,b,c" {
		t.Errorf("tags = %q, want a,b,c", got)
	}
	if got := strings.Join(dst.Examples, ","); got != "x,y" {
		t.Errorf("examples = %q, want x,y", got)
	}
	if dst.ReferenceCount != 6 {
		t.Errorf("reference_count = %d, want 6", dst.ReferenceCount)
	}
	if dst.Confidence != 0.6000000000000001 && dst.Confidence != 0.6 {
		t.Errorf("confidence = %v, want the average 0.6", dst.Confidence)
	}
	if dst.CreatedAt != "2026-01-05 00:00:00" {
		t.Errorf("created_at = %q, want the earlier one", dst.CreatedAt)
	}
	if dst.LastAccessed == nil || *dst.LastAccessed != accessed {
		t.Errorf("last_accessed = %v, want %q", dst.LastAccessed, accessed)
	}

	// Content already contained is not appended again.
	again := memory.Memory{Content: "extra fact"}
	mergeInto(&dst, &again)
	if strings.Count(dst.Content, "extra fact") != 1 {
		t.Errorf("content duplicated on re-merge: %q", dst.Content)
	}
}

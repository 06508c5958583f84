// Package reindex rebuilds the memory database offline: it backs up the
// current file, regenerates every embedding from scratch, merges
// near-duplicate memories, and atomically swaps the rebuilt database in.
package reindex

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/mnemo-mcp/mnemo/internal/embedding"
	"github.com/mnemo-mcp/mnemo/internal/memory"
)

// Options tunes a reindex run.
type Options struct {
	// Threshold is the cosine similarity at or above which two memories
	// of the same type are considered duplicates.
	Threshold float32

	// BackupEnabled makes a timestamped copy of the database file before
	// anything else touches it.
	BackupEnabled bool

	// BatchSize bounds how many texts are embedded per batch.
	BatchSize int

	// ModelName keys the rebuilt embeddings.
	ModelName string
}

// DefaultThreshold is the duplicate-detection cutoff when none is given.
const DefaultThreshold = 0.85

const defaultBatchSize = 64

// Report summarizes a completed run.
type Report struct {
	TotalMemories     int           `json:"total_memories"`
	DuplicatesFound   int           `json:"duplicates_found"`
	DuplicatesMerged  int           `json:"duplicates_merged"`
	EmbeddingsWritten int           `json:"embeddings_written"`
	BackupPath        string        `json:"backup_path,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// Engine drives offline rebuilds. It opens the database itself, so it
// must not run while a server holds the same file.
type Engine struct {
	storeCfg memory.Config
	embedder *embedding.Engine
	opts     Options
	log      *bolt.Logger
}

// New creates an Engine. Zero-valued options get defaults.
func New(storeCfg memory.Config, embedder *embedding.Engine, opts Options, log *bolt.Logger) *Engine {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.ModelName == "" {
		opts.ModelName = embedding.DefaultModelName
	}
	return &Engine{storeCfg: storeCfg, embedder: embedder, opts: opts, log: log}
}

// Run performs the full rebuild. The rebuilt database is written to a
// sibling file and swapped in only after the import committed, so a
// failure at any earlier stage leaves the original database untouched.
func (e *Engine) Run() (*Report, error) {
	start := time.Now()
	report := &Report{}

	// Cosine similarity never exceeds 1, so a larger threshold would
	// silently merge nothing. Reject it before touching the database.
	if e.opts.Threshold > 1 {
		return nil, fmt.Errorf("reindex: threshold %v out of range (0, 1]", e.opts.Threshold)
	}

	store, err := memory.New(e.storeCfg)
	if err != nil {
		return nil, fmt.Errorf("reindex: open store: %w", err)
	}

	// Fold the WAL into the main file so the backup is a single
	// self-contained copy.
	if err := store.Checkpoint(); err != nil {
		store.Close()
		return nil, fmt.Errorf("reindex: checkpoint: %w", err)
	}

	if e.opts.BackupEnabled {
		backupPath, err := backupFile(store.Path())
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("reindex: backup: %w", err)
		}
		report.BackupPath = backupPath
		e.logInfo("backup written", "path", backupPath)
	}

	all, err := store.SearchAll()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("reindex: load: %w", err)
	}
	live := all[:0]
	for _, m := range all {
		if !m.Deleted {
			live = append(live, m)
		}
	}
	report.TotalMemories = len(live)

	vectors := e.embedAll(live)

	pairs := e.findDuplicates(live, vectors)
	report.DuplicatesFound = len(pairs)

	survivors, survivorVecs, merged := e.merge(live, vectors, pairs)
	report.DuplicatesMerged = merged
	report.EmbeddingsWritten = len(survivorVecs)

	if err := e.rebuild(store.Path(), survivors, survivorVecs); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.Close(); err != nil {
		return nil, fmt.Errorf("reindex: close store: %w", err)
	}
	if err := swapFiles(store.Path()); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	e.logInfo("reindex complete",
		"memories", fmt.Sprint(report.TotalMemories),
		"merged", fmt.Sprint(report.DuplicatesMerged))
	return report, nil
}

// Backfill writes embeddings for memories that lack one under the
// configured model, or for every memory when force is set. Unlike Run it
// mutates the live database in place and never merges.
func (e *Engine) Backfill(force bool) (*Report, error) {
	start := time.Now()
	report := &Report{}

	store, err := memory.New(e.storeCfg)
	if err != nil {
		return nil, fmt.Errorf("reindex: open store: %w", err)
	}
	defer store.Close()

	all, err := store.SearchAll()
	if err != nil {
		return nil, fmt.Errorf("reindex: load: %w", err)
	}

	var pending []memory.Memory
	for _, m := range all {
		if m.Deleted {
			continue
		}
		report.TotalMemories++
		if !force {
			vec, err := store.GetEmbedding(m.ID, e.opts.ModelName)
			if err != nil {
				return nil, fmt.Errorf("reindex: embedding lookup: %w", err)
			}
			if vec != nil {
				continue
			}
		}
		pending = append(pending, m)
	}

	vectors := e.embedAll(pending)
	for i := range pending {
		if err := store.StoreEmbedding(pending[i].ID, e.opts.ModelName, vectors[i]); err != nil {
			return nil, fmt.Errorf("reindex: store embedding: %w", err)
		}
	}
	report.EmbeddingsWritten = len(pending)
	report.Duration = time.Since(start)
	return report, nil
}

// ─── Stages ──────────────────────────────────────────────────────────────────

// embedAll embeds memories in batches so the vocabulary statistics learn
// from the whole corpus as it streams through.
func (e *Engine) embedAll(ms []memory.Memory) [][]float32 {
	vectors := make([][]float32, 0, len(ms))
	for lo := 0; lo < len(ms); lo += e.opts.BatchSize {
		hi := lo + e.opts.BatchSize
		if hi > len(ms) {
			hi = len(ms)
		}
		texts := make([]string, 0, hi-lo)
		for _, m := range ms[lo:hi] {
			texts = append(texts, embedText(&m))
		}
		vectors = append(vectors, e.embedder.EmbedBatch(texts)...)
	}
	return vectors
}

type duplicatePair struct {
	a, b  int
	score float32
}

// findDuplicates scans every same-type pair. Quadratic, which is fine
// for an offline pass over a personal knowledge store.
func (e *Engine) findDuplicates(ms []memory.Memory, vectors [][]float32) []duplicatePair {
	var pairs []duplicatePair
	for i := 0; i < len(ms); i++ {
		for j := i + 1; j < len(ms); j++ {
			if ms[i].Type != ms[j].Type {
				continue
			}
			score := embedding.CosineSimilarity(vectors[i], vectors[j])
			if score >= e.opts.Threshold {
				pairs = append(pairs, duplicatePair{a: i, b: j, score: score})
			}
		}
	}
	// Strongest matches merge first.
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
	return pairs
}

// merge folds duplicate pairs together. Once a memory has been consumed
// by a merge it cannot participate again, so chains collapse into the
// strongest survivor. Survivors whose text changed are re-embedded.
func (e *Engine) merge(ms []memory.Memory, vectors [][]float32, pairs []duplicatePair) ([]memory.Memory, map[string][]float32, int) {
	consumed := make(map[int]bool)
	changed := make(map[int]bool)
	merges := 0

	for _, p := range pairs {
		if consumed[p.a] || consumed[p.b] {
			continue
		}
		mergeInto(&ms[p.a], &ms[p.b])
		consumed[p.b] = true
		changed[p.a] = true
		merges++
		e.logInfo("merged duplicate",
			"survivor", ms[p.a].Title, "absorbed", ms[p.b].Title)
	}

	survivors := make([]memory.Memory, 0, len(ms)-merges)
	survivorVecs := make(map[string][]float32, len(ms)-merges)
	for i := range ms {
		if consumed[i] {
			continue
		}
		vec := vectors[i]
		if changed[i] {
			vec = e.embedder.EmbedBatch([]string{embedText(&ms[i])})[0]
		}
		survivors = append(survivors, ms[i])
		survivorVecs[ms[i].ID] = vec
	}
	return survivors, survivorVecs, merges
}

// mergeInto absorbs src into dst: content concatenates unless already
// contained, tags and examples union, reference counts add, confidence
// averages, and the earlier creation time wins.
func mergeInto(dst, src *memory.Memory) {
	if !strings.Contains(dst.Content, src.Content) {
		dst.Content = dst.Content + "\n\n" + src.Content
	}
	dst.Tags = unionStrings(dst.Tags, src.Tags)
	dst.Examples = unionStrings(dst.Examples, src.Examples)
	dst.ReferenceCount += src.ReferenceCount
	dst.Confidence = (dst.Confidence + src.Confidence) / 2
	if src.CreatedAt < dst.CreatedAt {
		dst.CreatedAt = src.CreatedAt
	}
	if laterAccess(src.LastAccessed, dst.LastAccessed) {
		dst.LastAccessed = src.LastAccessed
	}
}

// rebuild writes the survivors into a fresh sibling database file in one
// transaction. Any failure removes the partial file.
func (e *Engine) rebuild(activePath string, survivors []memory.Memory, vectors map[string][]float32) error {
	newPath := activePath + ".reindex"
	os.Remove(newPath)

	cfg := e.storeCfg
	cfg.Path = newPath
	fresh, err := memory.New(cfg)
	if err != nil {
		return fmt.Errorf("reindex: create rebuilt store: %w", err)
	}
	if err := fresh.ImportSnapshot(survivors, vectors, e.opts.ModelName); err != nil {
		fresh.Close()
		os.Remove(newPath)
		return fmt.Errorf("reindex: import snapshot: %w", err)
	}
	if err := fresh.Checkpoint(); err != nil {
		fresh.Close()
		os.Remove(newPath)
		return fmt.Errorf("reindex: checkpoint rebuilt store: %w", err)
	}
	if err := fresh.Close(); err != nil {
		os.Remove(newPath)
		return fmt.Errorf("reindex: close rebuilt store: %w", err)
	}
	return nil
}

// swapFiles promotes the rebuilt database. The original is parked at
// .old until the rename of the rebuilt file succeeds, so either the old
// or the new database exists at the active path at every point.
func swapFiles(activePath string) error {
	oldPath := activePath + ".old"
	newPath := activePath + ".reindex"

	if err := os.Rename(activePath, oldPath); err != nil {
		return fmt.Errorf("reindex: park original: %w", err)
	}
	if err := os.Rename(newPath, activePath); err != nil {
		// Restore the original so the database stays usable.
		os.Rename(oldPath, activePath)
		return fmt.Errorf("reindex: promote rebuilt database: %w", err)
	}
	os.Remove(oldPath)
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// backupFile copies the database to a timestamped sibling.
func backupFile(path string) (string, error) {
	backupPath := fmt.Sprintf("%s.backup-%s", path, time.Now().UTC().Format("20060102-150405"))

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(backupPath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(backupPath)
		return "", err
	}
	return backupPath, nil
}

// embedText mirrors what the service embeds on write, so rebuilt vectors
// stay comparable with live ones.
func embedText(m *memory.Memory) string {
	parts := []string{m.Title, m.Content}
	if len(m.Tags) > 0 {
		parts = append(parts, strings.Join(m.Tags, " "))
	}
	return strings.Join(parts, "\n")
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func laterAccess(candidate, current *string) bool {
	if candidate == nil {
		return false
	}
	return current == nil || *candidate > *current
}

func (e *Engine) logInfo(msg string, kv ...string) {
	if e.log == nil {
		return
	}
	ev := e.log.Info()
	for i := 0; i+1 < len(kv); i += 2 {
		ev = ev.Str(kv[i], kv[i+1])
	}
	ev.Msg(msg)
}

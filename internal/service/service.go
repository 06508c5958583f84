// Package service orchestrates the memory subsystem: dedup-on-write
// ("remember"), ranked retrieval ("recall") and similarity lookup
// ("find_related") over the store and the embedding engine.
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mnemo-mcp/mnemo/internal/embedding"
	"github.com/mnemo-mcp/mnemo/internal/memory"
)

// Store is the persistence capability set the service needs. Any backing
// store must uphold the same invariants as the SQLite implementation:
// trigger-consistent full-text index and soft-delete exclusion.
type Store interface {
	Save(m *memory.Memory) error
	SaveBatch(ms []*memory.Memory) error
	FindByID(id string) (*memory.Memory, error)
	FindByKey(typ, title string) (*memory.Memory, error)
	BrowseByType(typ string, limit int) ([]memory.Memory, error)
	SearchFTS(query string, limit int) ([]memory.Memory, error)
	SoftDelete(id string) error
	IncrementReferenceCount(id string) error
	CleanupDeleted() (int, error)
	Stats() (*memory.Stats, error)
	StoreEmbedding(memoryID, modelName string, vec []float32) error
	GetEmbedding(memoryID, modelName string) ([]float32, error)
	SearchSimilar(vec []float32, modelName string, limit int, minSimilarity float32) ([]memory.ScoredMemory, error)
}

// ValidationError rejects bad input before storage is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Remember actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// Config holds service configuration.
type Config struct {
	// Types is the closed set of accepted memory types.
	Types []string

	// DefaultType is used by recall when browsing without an explicit type.
	DefaultType string

	// DefaultLimit caps recall results when the caller does not say.
	DefaultLimit int

	// ModelName keys the embeddings side table.
	ModelName string

	// EmbeddingsEnabled gates vector generation on remember.
	EmbeddingsEnabled bool

	// EmbeddingCacheSize bounds the content-hash -> vector LRU cache.
	EmbeddingCacheSize int
}

// DefaultTypes is the built-in closed type set.
var DefaultTypes = []string{"tech", "project_tech", "domain"}

// Service implements the memory operations exposed to callers.
type Service struct {
	store  Store
	engine *embedding.Engine
	cfg    Config
	log    *bolt.Logger
	types  map[string]bool
	cache  *lru.Cache[string, []float32]
}

// New creates a Service. A nil logger disables event logging.
func New(store Store, engine *embedding.Engine, cfg Config, log *bolt.Logger) (*Service, error) {
	if len(cfg.Types) == 0 {
		cfg.Types = DefaultTypes
	}
	if cfg.DefaultType == "" {
		cfg.DefaultType = cfg.Types[0]
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.ModelName == "" {
		cfg.ModelName = embedding.DefaultModelName
	}
	if cfg.EmbeddingCacheSize <= 0 {
		cfg.EmbeddingCacheSize = 1024
	}

	types := make(map[string]bool, len(cfg.Types))
	for _, t := range cfg.Types {
		types[t] = true
	}

	cache, err := lru.New[string, []float32](cfg.EmbeddingCacheSize)
	if err != nil {
		return nil, fmt.Errorf("service: embedding cache: %w", err)
	}

	return &Service{
		store:  store,
		engine: engine,
		cfg:    cfg,
		log:    log,
		types:  types,
		cache:  cache,
	}, nil
}

// ─── Remember ────────────────────────────────────────────────────────────────

// RememberParams is the input for Remember. Nil Tags/Examples mean "keep
// what is stored"; empty non-nil slices replace.
type RememberParams struct {
	Type       string
	Title      string
	Content    string
	Tags       []string
	Examples   []string
	Confidence *float64
}

// RememberResult reports the affected memory and what happened to it.
type RememberResult struct {
	MemoryID string `json:"memory_id"`
	Action   string `json:"action"`
}

// Remember upserts by canonical (type, title) key. An existing memory is
// updated in place: the reference count is incremented first, then fields
// are overwritten (new content is appended when not already contained, so
// repeated remembers accumulate knowledge instead of losing it), then the
// row is persisted once. Otherwise a fresh memory is created. With
// embeddings enabled the vector is (re)generated and stored.
func (s *Service) Remember(p RememberParams) (*RememberResult, error) {
	if err := s.validateType(p.Type); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 1) {
		return nil, &ValidationError{Field: "confidence", Reason: "must be within [0, 1]"}
	}

	existing, err := s.store.FindByKey(p.Type, p.Title)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.ReferenceCount++
		if !strings.Contains(existing.Content, p.Content) {
			existing.Content = existing.Content + "\n\n" + p.Content
		}
		if p.Tags != nil {
			existing.Tags = p.Tags
		}
		if p.Examples != nil {
			existing.Examples = p.Examples
		}
		if p.Confidence != nil {
			existing.Confidence = *p.Confidence
		}
		now := memory.Now()
		existing.LastAccessed = &now

		if err := s.store.Save(existing); err != nil {
			return nil, err
		}
		if err := s.embedAndStore(existing); err != nil {
			return nil, err
		}

		s.logEvent("memory updated", existing.ID, p.Type, p.Title)
		return &RememberResult{MemoryID: existing.ID, Action: ActionUpdated}, nil
	}

	m := &memory.Memory{
		ID:         uuid.NewString(),
		Type:       p.Type,
		Title:      p.Title,
		Content:    p.Content,
		Tags:       p.Tags,
		Examples:   p.Examples,
		Confidence: 1.0,
		CreatedAt:  memory.Now(),
	}
	if p.Confidence != nil {
		m.Confidence = *p.Confidence
	}

	if err := s.store.Save(m); err != nil {
		return nil, err
	}
	if err := s.embedAndStore(m); err != nil {
		return nil, err
	}

	s.logEvent("memory created", m.ID, p.Type, p.Title)
	return &RememberResult{MemoryID: m.ID, Action: ActionCreated}, nil
}

// embedAndStore generates and persists the vector for m when embeddings
// are enabled. Identical text hits the LRU cache and skips regeneration.
func (s *Service) embedAndStore(m *memory.Memory) error {
	if !s.cfg.EmbeddingsEnabled {
		return nil
	}

	text := embeddingText(m)
	key := contentHash(text)

	vec, ok := s.cache.Get(key)
	if !ok {
		vec = s.engine.EmbedBatch([]string{text})[0]
		s.cache.Add(key, vec)
	}
	return s.store.StoreEmbedding(m.ID, s.cfg.ModelName, vec)
}

// embeddingText is the canonical text a memory is embedded from.
func embeddingText(m *memory.Memory) string {
	parts := []string{m.Title, m.Content}
	if len(m.Tags) > 0 {
		parts = append(parts, strings.Join(m.Tags, " "))
	}
	return strings.Join(parts, "\n")
}

func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// ─── Recall ──────────────────────────────────────────────────────────────────

// RecallParams is the input for Recall.
type RecallParams struct {
	Query string
	Type  string
	Tags  []string
	Limit int
}

// RecallResult carries the ranked memories and the size of the filtered
// set before the limit was applied.
type RecallResult struct {
	Memories   []memory.Memory `json:"memories"`
	TotalCount int             `json:"total_count"`
}

// Recall retrieves memories: full-text search for a non-empty query,
// type browse otherwise. Type and tag filters apply in memory, every
// memory in the filtered set gets its reference count incremented, and
// the final list is sorted by confidence then reference count, both
// descending. TotalCount is the post-filter, pre-limit size.
func (s *Service) Recall(p RecallParams) (*RecallResult, error) {
	if p.Type != "" {
		if err := s.validateType(p.Type); err != nil {
			return nil, err
		}
	}
	limit := p.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	var (
		candidates []memory.Memory
		err        error
	)
	if strings.TrimSpace(p.Query) == "" {
		typ := p.Type
		if typ == "" {
			typ = s.cfg.DefaultType
		}
		// Fetch up to the store cap so TotalCount reflects the whole
		// filtered set, not just the first page.
		candidates, err = s.store.BrowseByType(typ, 0)
	} else {
		candidates, err = s.store.SearchFTS(p.Query, 0)
	}
	if err != nil {
		return nil, err
	}

	filtered := candidates[:0]
	for _, m := range candidates {
		if p.Type != "" && m.Type != p.Type {
			continue
		}
		if !hasAllTags(m.Tags, p.Tags) {
			continue
		}
		filtered = append(filtered, m)
	}

	// Every recalled memory counts as accessed, not only the top hit.
	now := memory.Now()
	for i := range filtered {
		if err := s.store.IncrementReferenceCount(filtered[i].ID); err != nil {
			return nil, err
		}
		filtered[i].ReferenceCount++
		filtered[i].LastAccessed = &now
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Confidence != filtered[j].Confidence {
			return filtered[i].Confidence > filtered[j].Confidence
		}
		return filtered[i].ReferenceCount > filtered[j].ReferenceCount
	})

	total := len(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return &RecallResult{Memories: filtered, TotalCount: total}, nil
}

// hasAllTags reports whether have contains every requested tag.
func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, t := range want {
		if !set[t] {
			return false
		}
	}
	return true
}

// ─── Related / Delete ────────────────────────────────────────────────────────

// FindRelated returns memories semantically close to the given one,
// excluding the memory itself. A memory without a stored embedding yields
// an empty result, not an error.
func (s *Service) FindRelated(id string, limit int, minSimilarity float32) ([]memory.ScoredMemory, error) {
	if minSimilarity < 0 || minSimilarity > 1 {
		return nil, &ValidationError{Field: "min_similarity", Reason: "must be within [0, 1]"}
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	vec, err := s.store.GetEmbedding(id, s.cfg.ModelName)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return nil, nil
	}

	// One extra slot because the query memory matches itself at 1.0.
	results, err := s.store.SearchSimilar(vec, s.cfg.ModelName, limit+1, minSimilarity)
	if err != nil {
		return nil, err
	}

	out := results[:0]
	for _, r := range results {
		if r.Memory.ID == id {
			continue
		}
		out = append(out, r)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteMemory soft-deletes a memory. It reports whether a live memory
// was actually deleted; an unknown or already-deleted id is a no-op.
func (s *Service) DeleteMemory(id string) (bool, error) {
	m, err := s.store.FindByID(id)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, nil
	}
	if err := s.store.SoftDelete(id); err != nil {
		return false, err
	}
	s.logEvent("memory deleted", id, m.Type, m.Title)
	return true, nil
}

// ─── Maintenance passthroughs ────────────────────────────────────────────────

// Cleanup physically purges soft-deleted memories.
func (s *Service) Cleanup() (int, error) {
	return s.store.CleanupDeleted()
}

// Stats returns aggregate store statistics.
func (s *Service) Stats() (*memory.Stats, error) {
	return s.store.Stats()
}

// Types returns the configured closed type set.
func (s *Service) Types() []string {
	return append([]string(nil), s.cfg.Types...)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Service) validateType(typ string) error {
	if !s.types[typ] {
		return &ValidationError{
			Field:  "type",
			Reason: fmt.Sprintf("%q is not one of %s", typ, strings.Join(s.cfg.Types, ", ")),
		}
	}
	return nil
}

func (s *Service) logEvent(msg, id, typ, title string) {
	if s.log == nil {
		return
	}
	s.log.Debug().Str("id", id).Str("type", typ).Str("title", title).Msg(msg)
}

package memory

import "time"

// Memory is a single stored knowledge record. The (type, title) pair is the
// canonical key: at most one non-deleted memory exists per pair.
type Memory struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Tags           []string `json:"tags,omitempty"`
	Examples       []string `json:"examples,omitempty"`
	ReferenceCount int      `json:"reference_count"`
	Confidence     float64  `json:"confidence"`
	CreatedAt      string   `json:"created_at"`
	LastAccessed   *string  `json:"last_accessed,omitempty"`
	Deleted        bool     `json:"deleted,omitempty"`
}

// ScoredMemory pairs a memory with its similarity score from SearchSimilar.
type ScoredMemory struct {
	Memory Memory  `json:"memory"`
	Score  float32 `json:"score"`
}

// Stats holds aggregate store statistics.
type Stats struct {
	TotalMemories  int            `json:"total_memories"`
	ByType         map[string]int `json:"by_type"`
	DeletedPending int            `json:"deleted_pending"`
	Embeddings     int            `json:"embeddings"`
}

// Config holds store configuration.
type Config struct {
	// Path is the SQLite database file. The parent directory is created
	// on open if it does not exist.
	Path string

	// MaxSearchResults caps the limit accepted by SearchFTS and BrowseByType.
	MaxSearchResults int
}

// DefaultMaxSearchResults is applied when Config.MaxSearchResults is zero.
const DefaultMaxSearchResults = 50

// Now returns the current UTC time formatted for SQLite.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

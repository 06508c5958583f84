// Package memory implements the persistent memory store for mnemo.
//
// It uses SQLite with an FTS5 full-text index that is kept consistent by
// storage-level triggers: business code never writes the index directly,
// and soft-deleted rows are never present in it. An embeddings side table
// keyed by (memory_id, model_name) holds the semantic vectors.
package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"github.com/mnemo-mcp/mnemo/internal/embedding"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Store is the durable memory engine backed by SQLite + FTS5.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	beginTx func(db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) beginTxHook() (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Begin()
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New opens (creating if needed) the store at cfg.Path, applies the SQLite
// pragmas and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("memory: config: empty database path")
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = DefaultMaxSearchResults
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	db, err := openDB("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	// Pragmas are per-connection; a single pooled connection keeps them
	// (and transaction scope) on the same handle.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.cfg.Path
}

// Checkpoint flushes the WAL into the main database file so that a
// full-file copy of Path() is a complete snapshot.
func (s *Store) Checkpoint() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("memory: wal checkpoint: %w", err)
	}
	return nil
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS memories (
			id              TEXT PRIMARY KEY,
			type            TEXT NOT NULL,
			title           TEXT NOT NULL,
			content         TEXT NOT NULL,
			tags            TEXT NOT NULL DEFAULT '[]',
			examples        TEXT NOT NULL DEFAULT '[]',
			reference_count INTEGER NOT NULL DEFAULT 0,
			confidence      REAL NOT NULL DEFAULT 1.0,
			created_at      TEXT NOT NULL DEFAULT (datetime('now')),
			last_accessed   TEXT,
			deleted         INTEGER NOT NULL DEFAULT 0
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_memories_canonical
			ON memories(type, title) WHERE deleted = 0;
		CREATE INDEX IF NOT EXISTS idx_memories_type    ON memories(type);
		CREATE INDEX IF NOT EXISTS idx_memories_deleted ON memories(deleted);

		CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
			title,
			content,
			tags,
			content='memories',
			tokenize='trigram'
		);

		CREATE TABLE IF NOT EXISTS memory_embeddings (
			memory_id  TEXT NOT NULL,
			model_name TEXT NOT NULL,
			vector     BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (memory_id, model_name),
			FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
		);
	`
	if _, err := s.execHook(s.db, schema); err != nil {
		return err
	}

	// FTS triggers (idempotent). Soft-deleted rows stay out of the index
	// entirely: the index always equals the set of non-deleted rows, with
	// no window where business code must dual-write. The update trigger is
	// a single trigger with the delete statement strictly before the
	// insert; two triggers on the same event have no defined firing order,
	// and insert-before-delete corrupts an external-content FTS5 table.
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='memories_fts_update'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER memories_fts_insert AFTER INSERT ON memories WHEN new.deleted = 0 BEGIN
				INSERT INTO memories_fts(rowid, title, content, tags)
				VALUES (new.rowid, new.title, new.content, new.tags);
			END;

			CREATE TRIGGER memories_fts_delete AFTER DELETE ON memories WHEN old.deleted = 0 BEGIN
				INSERT INTO memories_fts(memories_fts, rowid, title, content, tags)
				VALUES ('delete', old.rowid, old.title, old.content, old.tags);
			END;

			CREATE TRIGGER memories_fts_update AFTER UPDATE ON memories BEGIN
				INSERT INTO memories_fts(memories_fts, rowid, title, content, tags)
				SELECT 'delete', old.rowid, old.title, old.content, old.tags
				WHERE old.deleted = 0;
				INSERT INTO memories_fts(rowid, title, content, tags)
				SELECT new.rowid, new.title, new.content, new.tags
				WHERE new.deleted = 0;
			END;
		`
		if _, err := s.execHook(s.db, triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Save ────────────────────────────────────────────────────────────────────

const upsertSQL = `
	INSERT INTO memories (id, type, title, content, tags, examples,
	                      reference_count, confidence, created_at, last_accessed, deleted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, datetime('now')), ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		type            = excluded.type,
		title           = excluded.title,
		content         = excluded.content,
		tags            = excluded.tags,
		examples        = excluded.examples,
		reference_count = excluded.reference_count,
		confidence      = excluded.confidence,
		last_accessed   = excluded.last_accessed,
		deleted         = excluded.deleted
`

// Save upserts a memory by id. The created_at of an existing row is
// preserved; a new row without CreatedAt gets the current time.
func (s *Store) Save(m *Memory) error {
	args, err := upsertArgs(m)
	if err != nil {
		return err
	}
	if _, err := s.execHook(s.db, upsertSQL, args...); err != nil {
		return fmt.Errorf("memory: save %s: %w", m.ID, err)
	}
	return nil
}

// SaveBatch upserts all memories in a single all-or-nothing transaction.
func (s *Store) SaveBatch(ms []*Memory) error {
	if len(ms) == 0 {
		return nil
	}

	tx, err := s.beginTxHook()
	if err != nil {
		return fmt.Errorf("memory: save batch: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range ms {
		args, err := upsertArgs(m)
		if err != nil {
			return err
		}
		if _, err := s.execHook(tx, upsertSQL, args...); err != nil {
			return fmt.Errorf("memory: save batch %s: %w", m.ID, err)
		}
	}

	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("memory: save batch: commit: %w", err)
	}
	return nil
}

func upsertArgs(m *Memory) ([]any, error) {
	if m.ID == "" {
		return nil, fmt.Errorf("memory: save: empty id")
	}
	tags, err := marshalList(m.Tags)
	if err != nil {
		return nil, fmt.Errorf("memory: save %s: encode tags: %w", m.ID, err)
	}
	examples, err := marshalList(m.Examples)
	if err != nil {
		return nil, fmt.Errorf("memory: save %s: encode examples: %w", m.ID, err)
	}
	return []any{
		m.ID, m.Type, m.Title, m.Content, tags, examples,
		m.ReferenceCount, m.Confidence,
		nullableString(m.CreatedAt), m.LastAccessed, boolToInt(m.Deleted),
	}, nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

const memoryColumns = `id, type, title, content, tags, examples,
	reference_count, confidence, created_at, last_accessed, deleted`

// FindByID returns the non-deleted memory with the given id, or nil.
func (s *Store) FindByID(id string) (*Memory, error) {
	row := s.db.QueryRow(
		`SELECT `+memoryColumns+` FROM memories WHERE id = ? AND deleted = 0`, id,
	)
	return scanOne(row, "find by id")
}

// FindByKey returns the non-deleted memory for a canonical (type, title)
// key, or nil.
func (s *Store) FindByKey(typ, title string) (*Memory, error) {
	row := s.db.QueryRow(
		`SELECT `+memoryColumns+` FROM memories WHERE type = ? AND title = ? AND deleted = 0`,
		typ, title,
	)
	return scanOne(row, "find by key")
}

// BrowseByType lists non-deleted memories, newest first. An empty typ
// browses across all types; a limit of zero or less uses the configured cap.
func (s *Store) BrowseByType(typ string, limit int) ([]Memory, error) {
	limit = s.clampLimit(limit)

	query := `SELECT ` + memoryColumns + ` FROM memories WHERE deleted = 0`
	args := []any{}
	if typ != "" {
		query += " AND type = ?"
		args = append(args, typ)
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit)

	return s.queryMemories("browse", query, args...)
}

// SearchFTS runs a full-text query against the trigger-maintained index.
// Only non-deleted rows are indexed. Results come back in FTS5 rank order.
func (s *Store) SearchFTS(query string, limit int) ([]Memory, error) {
	limit = s.clampLimit(limit)

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return nil, nil
	}

	sqlStr := `
		SELECT m.id, m.type, m.title, m.content, m.tags, m.examples,
		       m.reference_count, m.confidence, m.created_at, m.last_accessed, m.deleted
		FROM memories_fts fts
		JOIN memories m ON m.rowid = fts.rowid
		WHERE memories_fts MATCH ? AND m.deleted = 0
		ORDER BY fts.rank
		LIMIT ?
	`
	return s.queryMemories("search fts", sqlStr, ftsQuery, limit)
}

// SearchAll returns every row including soft-deleted ones, for audit and
// cleanup tooling.
func (s *Store) SearchAll() ([]Memory, error) {
	return s.queryMemories("search all",
		`SELECT `+memoryColumns+` FROM memories ORDER BY created_at, id`)
}

// ─── Mutations ───────────────────────────────────────────────────────────────

// IncrementReferenceCount adds one to the reference count and stamps
// last_accessed. Called for every record a recall returns, not only point
// lookups.
func (s *Store) IncrementReferenceCount(id string) error {
	_, err := s.execHook(s.db,
		`UPDATE memories
		 SET reference_count = reference_count + 1,
		     last_accessed = datetime('now')
		 WHERE id = ? AND deleted = 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("memory: increment reference count %s: %w", id, err)
	}
	return nil
}

// SoftDelete marks a memory deleted. Deleting an unknown or already-deleted
// id is a no-op, not an error.
func (s *Store) SoftDelete(id string) error {
	_, err := s.execHook(s.db,
		`UPDATE memories SET deleted = 1 WHERE id = ? AND deleted = 0`, id,
	)
	if err != nil {
		return fmt.Errorf("memory: soft delete %s: %w", id, err)
	}
	return nil
}

// HardDelete physically removes the given memories and their embeddings in
// one transaction.
func (s *Store) HardDelete(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.beginTxHook()
	if err != nil {
		return fmt.Errorf("memory: hard delete: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := s.execHook(tx,
		`DELETE FROM memory_embeddings WHERE memory_id IN (`+placeholders+`)`, args...,
	); err != nil {
		return fmt.Errorf("memory: hard delete embeddings: %w", err)
	}
	if _, err := s.execHook(tx,
		`DELETE FROM memories WHERE id IN (`+placeholders+`)`, args...,
	); err != nil {
		return fmt.Errorf("memory: hard delete: %w", err)
	}

	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("memory: hard delete: commit: %w", err)
	}
	return nil
}

// CleanupDeleted physically removes all soft-deleted memories and their
// embeddings, returning how many memories were purged.
func (s *Store) CleanupDeleted() (int, error) {
	tx, err := s.beginTxHook()
	if err != nil {
		return 0, fmt.Errorf("memory: cleanup: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.execHook(tx,
		`DELETE FROM memory_embeddings
		 WHERE memory_id IN (SELECT id FROM memories WHERE deleted = 1)`,
	); err != nil {
		return 0, fmt.Errorf("memory: cleanup embeddings: %w", err)
	}

	res, err := s.execHook(tx, `DELETE FROM memories WHERE deleted = 1`)
	if err != nil {
		return 0, fmt.Errorf("memory: cleanup: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := s.commitHook(tx); err != nil {
		return 0, fmt.Errorf("memory: cleanup: commit: %w", err)
	}
	return int(n), nil
}

// ─── Embeddings ──────────────────────────────────────────────────────────────

// StoreEmbedding upserts the vector for (memoryID, modelName).
func (s *Store) StoreEmbedding(memoryID, modelName string, vec []float32) error {
	_, err := s.execHook(s.db,
		`INSERT INTO memory_embeddings (memory_id, model_name, vector, updated_at)
		 VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT(memory_id, model_name) DO UPDATE SET
			vector = excluded.vector,
			updated_at = excluded.updated_at`,
		memoryID, modelName, embedding.VectorToBytes(vec),
	)
	if err != nil {
		return fmt.Errorf("memory: store embedding %s: %w", memoryID, err)
	}
	return nil
}

// GetEmbedding returns the stored vector for (memoryID, modelName), or nil
// when none exists. Malformed stored bytes surface as a CorruptionError.
func (s *Store) GetEmbedding(memoryID, modelName string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT vector FROM memory_embeddings WHERE memory_id = ? AND model_name = ?`,
		memoryID, modelName,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get embedding %s: %w", memoryID, err)
	}
	return embedding.BytesToVector(blob)
}

// SearchSimilar scans the embeddings of non-deleted memories, keeps those
// with cosine similarity >= minSimilarity to the query vector, and returns
// them sorted by score descending, ties broken by higher reference count.
func (s *Store) SearchSimilar(queryVec []float32, modelName string, limit int, minSimilarity float32) ([]ScoredMemory, error) {
	rows, err := s.db.Query(`
		SELECT m.id, m.type, m.title, m.content, m.tags, m.examples,
		       m.reference_count, m.confidence, m.created_at, m.last_accessed, m.deleted,
		       e.vector
		FROM memories m
		JOIN memory_embeddings e ON e.memory_id = m.id AND e.model_name = ?
		WHERE m.deleted = 0
	`, modelName)
	if err != nil {
		return nil, fmt.Errorf("memory: search similar: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []ScoredMemory
	for rows.Next() {
		var m Memory
		var tags, examples string
		var blob []byte
		var deleted int
		if err := rows.Scan(
			&m.ID, &m.Type, &m.Title, &m.Content, &tags, &examples,
			&m.ReferenceCount, &m.Confidence, &m.CreatedAt, &m.LastAccessed, &deleted,
			&blob,
		); err != nil {
			return nil, fmt.Errorf("memory: search similar: scan: %w", err)
		}
		if err := unmarshalInto(&m, tags, examples, deleted); err != nil {
			return nil, err
		}

		vec, err := embedding.BytesToVector(blob)
		if err != nil {
			return nil, err
		}
		score := embedding.CosineSimilarity(queryVec, vec)
		if score >= minSimilarity {
			results = append(results, ScoredMemory{Memory: m, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: search similar: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.ReferenceCount > results[j].Memory.ReferenceCount
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ─── Snapshot import ─────────────────────────────────────────────────────────

// ImportSnapshot loads memories and their vectors into the store in a
// single transaction. Used by the reindex rebuild: the target file must
// receive the surviving set atomically or not at all.
func (s *Store) ImportSnapshot(memories []Memory, vectors map[string][]float32, modelName string) error {
	tx, err := s.beginTxHook()
	if err != nil {
		return fmt.Errorf("memory: import snapshot: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range memories {
		m := &memories[i]
		args, err := upsertArgs(m)
		if err != nil {
			return err
		}
		if _, err := s.execHook(tx, upsertSQL, args...); err != nil {
			return fmt.Errorf("memory: import snapshot %s: %w", m.ID, err)
		}
		if vec, ok := vectors[m.ID]; ok {
			if _, err := s.execHook(tx,
				`INSERT INTO memory_embeddings (memory_id, model_name, vector, updated_at)
				 VALUES (?, ?, ?, datetime('now'))
				 ON CONFLICT(memory_id, model_name) DO UPDATE SET
					vector = excluded.vector,
					updated_at = excluded.updated_at`,
				m.ID, modelName, embedding.VectorToBytes(vec),
			); err != nil {
				return fmt.Errorf("memory: import snapshot embedding %s: %w", m.ID, err)
			}
		}
	}

	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("memory: import snapshot: commit: %w", err)
	}
	return nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate store statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{ByType: map[string]int{}}

	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM memories WHERE deleted = 0",
	).Scan(&stats.TotalMemories); err != nil {
		return nil, fmt.Errorf("memory: stats: %w", err)
	}
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM memories WHERE deleted = 1",
	).Scan(&stats.DeletedPending); err != nil {
		return nil, fmt.Errorf("memory: stats: %w", err)
	}
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM memory_embeddings",
	).Scan(&stats.Embeddings); err != nil {
		return nil, fmt.Errorf("memory: stats: %w", err)
	}

	rows, err := s.db.Query(
		"SELECT type, COUNT(*) FROM memories WHERE deleted = 0 GROUP BY type",
	)
	if err != nil {
		return nil, fmt.Errorf("memory: stats by type: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("memory: stats by type: scan: %w", err)
		}
		stats.ByType[typ] = n
	}
	return stats, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Store) clampLimit(limit int) int {
	if limit <= 0 || limit > s.cfg.MaxSearchResults {
		return s.cfg.MaxSearchResults
	}
	return limit
}

func (s *Store) queryMemories(op, query string, args ...any) ([]Memory, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: %s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var results []Memory
	for rows.Next() {
		var m Memory
		var tags, examples string
		var deleted int
		if err := rows.Scan(
			&m.ID, &m.Type, &m.Title, &m.Content, &tags, &examples,
			&m.ReferenceCount, &m.Confidence, &m.CreatedAt, &m.LastAccessed, &deleted,
		); err != nil {
			return nil, fmt.Errorf("memory: %s: scan: %w", op, err)
		}
		if err := unmarshalInto(&m, tags, examples, deleted); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: %s: %w", op, err)
	}
	return results, nil
}

func scanOne(row *sql.Row, op string) (*Memory, error) {
	var m Memory
	var tags, examples string
	var deleted int
	err := row.Scan(
		&m.ID, &m.Type, &m.Title, &m.Content, &tags, &examples,
		&m.ReferenceCount, &m.Confidence, &m.CreatedAt, &m.LastAccessed, &deleted,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: %s: %w", op, err)
	}
	if err := unmarshalInto(&m, tags, examples, deleted); err != nil {
		return nil, err
	}
	return &m, nil
}

func unmarshalInto(m *Memory, tags, examples string, deleted int) error {
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return fmt.Errorf("memory: corrupt tags for %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(examples), &m.Examples); err != nil {
		return fmt.Errorf("memory: corrupt examples for %s: %w", m.ID, err)
	}
	m.Deleted = deleted != 0
	return nil
}

func marshalList(v []string) (string, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sanitizeFTS quotes each term for a safe FTS5 query. The trigram tokenizer
// needs at least three characters per term, so shorter terms are dropped;
// an all-short query returns the empty string and callers fall back to
// browsing.
func sanitizeFTS(query string) string {
	var quoted []string
	for _, w := range strings.Fields(query) {
		w = strings.Trim(w, `"`)
		if utf8.RuneCountInString(w) < 3 {
			continue
		}
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " ")
}

package memory_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestSQLiteSmokeTest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "smoke.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("failed to enable WAL mode: %v", err)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected WAL mode, got %q", mode)
	}
}

func TestFTS5TrigramSmokeTest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fts5.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE VIRTUAL TABLE docs_fts USING fts5(
		body, tokenize='trigram'
	)`); err != nil {
		t.Fatalf("failed to create trigram FTS5 table: %v", err)
	}

	if _, err := db.Exec(
		`INSERT INTO docs_fts (body) VALUES (?)`,
		"mixed Latin and 中文字符 content",
	); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	// Trigram matching is substring-based and case-insensitive, which is
	// what lets a single index serve both Latin and CJK queries.
	for _, q := range []string{`"latin"`, `"中文字"`} {
		var n int
		if err := db.QueryRow(
			`SELECT COUNT(*) FROM docs_fts WHERE docs_fts MATCH ?`, q,
		).Scan(&n); err != nil {
			t.Fatalf("match %s: %v", q, err)
		}
		if n != 1 {
			t.Errorf("match %s = %d rows, want 1", q, n)
		}
	}
}

package memory

import "database/sql"

// SetCommitHook lets tests force commit failures to exercise rollback paths.
func (s *Store) SetCommitHook(fn func(tx *sql.Tx) error) {
	s.hooks.commit = fn
}

// Versioned schema migrations for the section index. New columns are added
// additively so older index files upgrade in place instead of being rebuilt.
package index

import (
	"database/sql"
	"fmt"

	"docforge/internal/logging"
)

// Schema versions:
// v1: sections table (doc, anchor, title, depth, body, content_hash, updated_at)
// v2: added line column so search results can point into the source
const CurrentSchemaVersion = 2

// Migration adds one column to an existing table.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists additive migrations applied to tables that exist
// but predate newer columns.
var pendingMigrations = []Migration{
	{"sections", "line", "INTEGER DEFAULT 0"},
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	version, err := s.schemaVersion()
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doc TEXT NOT NULL,
			anchor TEXT NOT NULL,
			title TEXT NOT NULL,
			depth INTEGER NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL
		)`); err != nil {
		return fmt.Errorf("create sections: %w", err)
	}
	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sections_doc ON sections(doc)`); err != nil {
		return fmt.Errorf("create doc index: %w", err)
	}

	applied := 0
	for _, m := range pendingMigrations {
		ok, err := s.columnExists(m.Table, m.Column)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %s.%s: %w", m.Table, m.Column, err)
		}
		applied++
	}

	if version != CurrentSchemaVersion {
		if _, err := s.db.Exec(`DELETE FROM schema_version`); err != nil {
			return err
		}
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, CurrentSchemaVersion); err != nil {
			return err
		}
	}
	if applied > 0 || version != CurrentSchemaVersion {
		logging.Index("schema migrated from v%d to v%d (%d column migrations)", version, CurrentSchemaVersion, applied)
	}
	return nil
}

func (s *Store) schemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) columnExists(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

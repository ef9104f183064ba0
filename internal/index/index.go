// Package index maintains the SQLite search index of parsed sections.
// Each row is one section: its document, anchor, title, depth, flattened
// body text, and a content hash used for change detection.
package index

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"docforge/internal/document"
	"docforge/internal/logging"
)

// Store is the SQLite-backed section index.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Result is one search hit.
type Result struct {
	Doc    string `json:"doc"`
	Anchor string `json:"anchor"`
	Title  string `json:"title"`
	Depth  int    `json:"depth"`
	Line   int    `json:"line"`
	// Snippet is the first body line containing the query term.
	Snippet string `json:"snippet,omitempty"`
}

// Stats summarizes the index contents.
type Stats struct {
	Documents int
	Sections  int
	Path      string
}

// Open initializes the index database at the given path.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryIndex, "Open")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.IndexDebug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.IndexDebug("failed to set journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe under WAL and much faster for rebuilds.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.IndexDebug("failed to set synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate index schema: %w", err)
	}
	logging.Index("index opened at %s", path)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// IndexDocument replaces all rows for a document inside one transaction.
func (s *Store) IndexDocument(d *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sections WHERE doc = ?`, d.Path); err != nil {
		return fmt.Errorf("clear old rows for %s: %w", d.Path, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sections (doc, anchor, title, depth, line, body, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	count := 0
	var insertErr error
	d.WalkSections(func(sec *document.Section) {
		if insertErr != nil {
			return
		}
		body := sec.PlainText()
		_, insertErr = stmt.Exec(d.Path, sec.Anchor, sec.Title, sec.Depth, sec.Line,
			body, contentHash(sec.Title, body), now)
		count++
	})
	if insertErr != nil {
		return fmt.Errorf("insert section: %w", insertErr)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index tx: %w", err)
	}
	logging.IndexDebug("indexed %s: %d sections", d.Path, count)
	return nil
}

// IndexProject indexes every document and prunes rows for sources that no
// longer exist.
func (s *Store) IndexProject(p *document.Project) error {
	existing := make([]string, 0, len(p.Documents))
	for _, d := range p.Documents {
		if err := s.IndexDocument(d); err != nil {
			return err
		}
		existing = append(existing, d.Path)
	}
	pruned, err := s.Prune(existing)
	if err != nil {
		return err
	}
	if pruned > 0 {
		logging.Index("pruned %d stale rows", pruned)
	}
	return nil
}

// Search returns sections matching q in their title or body. Title hits rank
// before body hits; within a rank, document order then line order.
func (s *Store) Search(q string, limit int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.TrimSpace(q) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(q) + "%"

	rows, err := s.db.Query(`
		SELECT doc, anchor, title, depth, line, body,
		       CASE WHEN title LIKE ? ESCAPE '\' THEN 0 ELSE 1 END AS rank
		FROM sections
		WHERE title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\'
		ORDER BY rank, doc, line
		LIMIT ?`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var body string
		var rank int
		if err := rows.Scan(&r.Doc, &r.Anchor, &r.Title, &r.Depth, &r.Line, &body, &rank); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		r.Snippet = snippetFor(body, q)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Stats reports index totals.
func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Path: s.dbPath}
	row := s.db.QueryRow(`SELECT COUNT(DISTINCT doc), COUNT(*) FROM sections`)
	if err := row.Scan(&st.Documents, &st.Sections); err != nil {
		return st, fmt.Errorf("stats query: %w", err)
	}
	return st, nil
}

// Prune deletes rows for documents not in the keep list and returns how many
// went away.
func (s *Store) Prune(keep []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keepSet := make(map[string]bool, len(keep))
	for _, k := range keep {
		keepSet[k] = true
	}

	rows, err := s.db.Query(`SELECT DISTINCT doc FROM sections`)
	if err != nil {
		return 0, fmt.Errorf("list indexed docs: %w", err)
	}
	var stale []string
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			return 0, err
		}
		if !keepSet[doc] {
			stale = append(stale, doc)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	total := 0
	for _, doc := range stale {
		res, err := s.db.Exec(`DELETE FROM sections WHERE doc = ?`, doc)
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", doc, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += int(n)
		}
	}
	return total, nil
}

func contentHash(title, body string) string {
	h := sha256.Sum256([]byte(title + "\x00" + body))
	return hex.EncodeToString(h[:])
}

func escapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}

// snippetFor picks the first body line containing q, case-insensitively.
func snippetFor(body, q string) string {
	lq := strings.ToLower(q)
	for _, line := range strings.Split(body, "\n") {
		if strings.Contains(strings.ToLower(line), lq) {
			line = strings.TrimSpace(line)
			if len(line) > 120 {
				line = line[:120]
			}
			return line
		}
	}
	return ""
}

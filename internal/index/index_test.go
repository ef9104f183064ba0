package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docforge/internal/parser"
)

const fixtureSource = `Customizing the change list
===========================

The change list shows every object of a model.

Searching
---------

Use search_fields to add a search box.

Filtering
---------

Use list_filter to add a sidebar.
`

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIndexDocumentAndSearch(t *testing.T) {
	s := openTestStore(t)

	doc, diags := parser.Parse([]byte(fixtureSource), "changelist.rst")
	require.Empty(t, diags)
	require.NoError(t, s.IndexDocument(doc))

	results, err := s.Search("search", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Title hit ranks ahead of body hits.
	assert.Equal(t, "Searching", results[0].Title)
	assert.Equal(t, "changelist.rst", results[0].Doc)
	assert.Equal(t, "searching", results[0].Anchor)

	// The body hit carries a snippet.
	var found bool
	for _, r := range results {
		if r.Snippet != "" {
			found = true
		}
	}
	assert.True(t, found, "expected at least one snippet: %+v", results)
}

func TestIndexDocument_ReplacesOldRows(t *testing.T) {
	s := openTestStore(t)

	doc, _ := parser.Parse([]byte(fixtureSource), "page.rst")
	require.NoError(t, s.IndexDocument(doc))

	updated, _ := parser.Parse([]byte("New title\n=========\n\nBody.\n"), "page.rst")
	require.NoError(t, s.IndexDocument(updated))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Documents)
	assert.Equal(t, 1, st.Sections)

	stale, err := s.Search("Filtering", 10)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestSearch_EscapesLikeWildcards(t *testing.T) {
	s := openTestStore(t)

	doc, _ := parser.Parse([]byte("Page\n====\n\nUse list_filter here.\n"), "a.rst")
	require.NoError(t, s.IndexDocument(doc))

	// An underscore must match literally, not as a single-char wildcard.
	results, err := s.Search("list_filter", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	none, err := s.Search("list%filter", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearch_EmptyQuery(t *testing.T) {
	s := openTestStore(t)
	results, err := s.Search("   ", 10)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)

	a, _ := parser.Parse([]byte("A\n==\n\nalpha\n"), "a.rst")
	b, _ := parser.Parse([]byte("B\n==\n\nbeta\n"), "b.rst")
	require.NoError(t, s.IndexDocument(a))
	require.NoError(t, s.IndexDocument(b))

	n, err := s.Prune([]string{"a.rst"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Documents)
}

func TestMigrateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	s, err := Open(path)
	require.NoError(t, err)
	doc, _ := parser.Parse([]byte("A\n==\n\nalpha\n"), "a.rst")
	require.NoError(t, s.IndexDocument(doc))
	require.NoError(t, s.Close())

	// Reopening an up-to-date database must not disturb existing rows.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	st, err := s2.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Sections)
}

package serve

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docforge/internal/config"
	"docforge/internal/index"
	"docforge/internal/parser"
)

func newTestServer(t *testing.T, withIndex bool) *Server {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()

	outDir := filepath.Join(root, cfg.Output.Dir)
	require.NoError(t, os.MkdirAll(outDir, 0755))
	page := "<html><body><h1>Polls documentation</h1></body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "index.html"), []byte(page), 0644))

	var store *index.Store
	if withIndex {
		var err error
		store, err = index.Open(filepath.Join(root, cfg.Index.Path))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })

		doc, _ := parser.Parse([]byte("Filtering results\n=================\n\nUse list_filter.\n"), "admin.rst")
		require.NoError(t, store.IndexDocument(doc))
	}
	return New(cfg, root, store, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, false)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t, true)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/search?q=filter")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body searchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "filter", body.Query)
	require.NotEmpty(t, body.Results)
	assert.Equal(t, "admin.rst", body.Results[0].Doc)
}

func TestSearchEndpoint_MissingQuery(t *testing.T) {
	srv := newTestServer(t, true)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchEndpoint_NoIndex(t *testing.T) {
	srv := newTestServer(t, false)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/search?q=x")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStaticSite(t *testing.T) {
	srv := newTestServer(t, false)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReloadHub_Broadcast(t *testing.T) {
	hub := NewReloadHub()
	defer hub.Close()

	ch := hub.subscribe()
	hub.Broadcast()

	select {
	case <-ch:
	default:
		t.Fatal("expected a reload signal")
	}
}

func TestReloadHub_SubscribeAfterClose(t *testing.T) {
	hub := NewReloadHub()
	hub.Close()
	assert.Nil(t, hub.subscribe())
}

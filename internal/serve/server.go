// Package serve runs the local preview server: the rendered site, a JSON
// search API backed by the SQLite index, and an SSE channel that tells open
// pages to reload after a rebuild.
package serve

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"docforge/internal/config"
	"docforge/internal/index"
	"docforge/internal/logging"
)

// Server is the preview HTTP server.
type Server struct {
	cfg    *config.Config
	root   string
	store  *index.Store
	log    *zap.Logger
	reload *ReloadHub
}

// New builds a server. store may be nil when the index is disabled; the
// search endpoint then answers 503.
func New(cfg *config.Config, root string, store *index.Store, log *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		root:   root,
		store:  store,
		log:    log,
		reload: NewReloadHub(),
	}
}

// NotifyReload tells connected pages to refresh.
func (s *Server) NotifyReload() {
	s.reload.Broadcast()
}

// Router assembles the middleware stack and routes. Order matters:
// recoverer outermost, then correlation, then request logging.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/search", s.handleSearch)
	r.Get("/events", s.reload.ServeHTTP)

	outDir := filepath.Join(s.root, s.cfg.Output.Dir)
	r.Handle("/*", http.FileServer(http.Dir(outDir)))
	return r
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Serve.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Serve("preview server listening on %s", s.cfg.Serve.Addr)
		s.log.Info("preview server listening", zap.String("addr", s.cfg.Serve.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.reload.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []index.Result `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"error": "search index disabled"})
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "missing query parameter q"})
		return
	}
	results, err := s.store.Search(q, 20)
	if err != nil {
		s.log.Error("search failed", zap.String("q", q), zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "search failed"})
		return
	}
	render.JSON(w, r, searchResponse{Query: q, Results: results})
}

// requestLogger logs each request with its correlation ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// Package api exposes the transaction store, fetch coordinator and config
// store over a loopback JSON HTTP API, and serves the embedded web UI
// bundle.
package api

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xmflabs/xmf/internal/config"
	"github.com/xmflabs/xmf/internal/fetch"
	"github.com/xmflabs/xmf/internal/remote"
	"github.com/xmflabs/xmf/internal/store"
)

//go:embed all:dist
var embeddedAssets embed.FS

// Server wires the core engine to HTTP handlers.
type Server struct {
	Store  *store.Store
	Coord  *fetch.Coordinator
	Config *config.Store
	Logger *slog.Logger

	// resolved carries the flag overrides captured at process start, so
	// handlers that re-read the config file keep the flag > env > file
	// precedence instead of silently dropping the CLI flags.
	resolved config.Resolved

	// httpClient is non-nil when the coordinator is driving the real
	// remote client, letting config updates push a new cookie into the
	// already-constructed client instead of rebuilding the coordinator.
	httpClient *remote.HTTPClient

	// baseCtx is what background fetches inherit instead of the trigger
	// request's own context, which dies as soon as the 202 is written.
	baseCtx context.Context

	router http.Handler
}

// UseBaseContext sets the context background fetch walks inherit, so
// process shutdown abandons an in-flight walk at the next page boundary.
func (s *Server) UseBaseContext(ctx context.Context) { s.baseCtx = ctx }

func (s *Server) fetchContext() context.Context {
	if s.baseCtx != nil {
		return s.baseCtx
	}
	return context.Background()
}

// New builds the server's router over an already-constructed coordinator.
// httpClient may be nil (mock mode, or any client that doesn't need live
// cookie updates).
func New(s *store.Store, coord *fetch.Coordinator, cfg *config.Store, resolved config.Resolved, httpClient *remote.HTTPClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		Store:      s,
		Coord:      coord,
		Config:     cfg,
		resolved:   resolved,
		httpClient: httpClient,
		Logger:     logger,
	}
	srv.router = srv.buildRouter()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(sloggingMiddleware(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions/query", s.handleQueryTransactions)
		r.Get("/transactions/count", s.handleCount)
		r.Post("/transactions/fetch", s.handleTriggerFetch)
		r.Put("/config/account", s.handleSetAccount)
		r.Put("/config/hallticket", s.handleSetHallticket)
		r.Get("/config/account-cookie", s.handleGetAccountCookie)
		r.Get("/export/csv", s.handleExport)
	})

	assets, err := fs.Sub(embeddedAssets, "dist")
	if err != nil {
		// The embedded directory is part of the binary; a missing "dist"
		// subtree is a build-time mistake, not a runtime condition.
		panic(err)
	}
	r.Get("/*", s.spaHandler(assets))

	return r
}

// applyCookie pushes a freshly saved cookie into the live HTTP client, if
// any, so the next fetch trigger uses it without a server restart.
func (s *Server) applyCookie(cookie string) {
	if s.httpClient != nil {
		s.httpClient.SetCookie(cookie)
	}
}

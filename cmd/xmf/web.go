package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xmflabs/xmf/internal/api"
	"github.com/xmflabs/xmf/internal/config"
	"github.com/xmflabs/xmf/internal/fetch"
	"github.com/xmflabs/xmf/internal/remote"
	"github.com/xmflabs/xmf/internal/store"
)

type webCmd struct {
	Addr string `default:"127.0.0.1:8000" help:"Address to bind the local HTTP server to."`
}

// Run starts the store, the fetch coordinator and the HTTP server, and
// blocks until SIGINT/SIGTERM. Shutdown gives in-flight requests a 5s
// grace period before the listener is torn down, per the concurrency
// model's cancellation policy.
func (w *webCmd) Run(g *globals) error {
	logger := slog.Default()

	s, err := store.Open(resolveDBPath(g.DataDir, g.DBInMem))
	if err != nil {
		return err
	}
	defer s.Close()

	cfgStore := config.NewStore(g.DataDir)
	resolved := config.Resolved{FlagAccount: g.Account, FlagCookie: g.Hallticket}
	cred, err := cfgStore.Load(resolved)
	if err != nil {
		return err
	}

	var (
		client     remote.Client
		httpClient *remote.HTTPClient
	)
	if g.UseMockData {
		client = remote.NewMockClient(time.Time{})
	} else {
		httpClient = remote.NewHTTPClient(g.RemoteBase, cred.Cookie, logger)
		client = httpClient
	}

	coord := fetch.New(s, client, logger)
	srv := api.New(s, coord, cfgStore, resolved, httpClient, logger)

	httpServer := &http.Server{
		Addr:    w.Addr,
		Handler: srv,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	srv.UseBaseContext(ctx)

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		logger.Info("listening", "addr", w.Addr, "mock", g.UseMockData)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := grp.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

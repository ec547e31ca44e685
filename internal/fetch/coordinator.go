// Package fetch drives incremental ingestion from the remote client into
// the store: walk-back-until-known. The remote lacks a reliable "since"
// cursor, so the coordinator walks from newest and stops on overlap with
// what is already stored; idempotent inserts make partial progress safe
// on retry.
package fetch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/xmflabs/xmf/internal/domain"
	"github.com/xmflabs/xmf/internal/remote"
)

// Inserter is the subset of the store the coordinator needs.
type Inserter interface {
	InsertMany(ctx context.Context, rows []domain.Transaction) (int, error)
	NewestTime(ctx context.Context) (*time.Time, error)
}

// Coordinator holds the single process-wide Running guard described in
// the concurrency model: a second concurrent trigger while one is in
// flight is rejected immediately rather than queued.
type Coordinator struct {
	store  Inserter
	client remote.Client
	logger *slog.Logger

	running atomic.Bool
	mu      stateMu
}

// New creates a fetch coordinator over the given store and remote client.
func New(store Inserter, client remote.Client, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, client: client, logger: logger}
}

// Result is the final report of one walk.
type Result struct {
	InsertedTotal int
	PagesFetched  int
	OldestSeen    *time.Time
}

// Status returns the coordinator's current progress snapshot.
func (c *Coordinator) Status() domain.FetchProgress {
	c.mu.lock()
	defer c.mu.unlock()
	return c.mu.progress
}

// Run walks the remote's pages from the first (newest) one backwards until
// a page reaches past start (inclusive), overlaps the newest stored
// transaction, or exhausts the remote's history.
//
// It returns domain.ErrAlreadyRunning if a walk is already in flight; that
// attempt does not touch the store.
func (c *Coordinator) Run(ctx context.Context, account string, start time.Time) (Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return Result{}, &domain.ErrAlreadyRunning{}
	}
	defer c.running.Store(false)
	return c.walk(ctx, account, start)
}

// Trigger acquires the Running guard synchronously — so a caller can
// distinguish "accepted" from "already running" without waiting for the
// walk to finish — then runs the walk in the background. Use Status to
// observe its progress and outcome.
func (c *Coordinator) Trigger(ctx context.Context, account string, start time.Time) error {
	if !c.running.CompareAndSwap(false, true) {
		return &domain.ErrAlreadyRunning{}
	}
	go func() {
		defer c.running.Store(false)
		if _, err := c.walk(ctx, account, start); err != nil {
			c.logger.Error("background fetch failed", "error", err)
		}
	}()
	return nil
}

func (c *Coordinator) walk(ctx context.Context, account string, start time.Time) (Result, error) {
	c.mu.set(domain.FetchProgress{State: domain.FetchRunning})

	newest, err := c.store.NewestTime(ctx)
	if err != nil {
		c.mu.fail(err)
		return Result{}, err
	}

	var (
		insertedTotal int
		pagesFetched  int
		oldestSeen    *time.Time
	)

	for page := 1; ; page++ {
		rows, hasMore, err := c.client.FetchPage(ctx, account, page)
		if err != nil {
			c.mu.fail(err)
			return Result{}, err
		}
		pagesFetched++

		if len(rows) == 0 {
			break
		}

		pageMin := rows[0].Time
		for _, r := range rows {
			if r.Time.Before(pageMin) {
				pageMin = r.Time
			}
			if oldestSeen == nil || r.Time.Before(*oldestSeen) {
				t := r.Time
				oldestSeen = &t
			}
		}

		n, err := c.store.InsertMany(ctx, rows)
		if err != nil {
			c.mu.fail(err)
			return Result{}, err
		}
		insertedTotal += n

		c.mu.progressUpdate(insertedTotal, pagesFetched, oldestSeen)

		hitFloor := pageMin.Before(start)
		hitKnown := newest != nil && !pageMin.After(*newest)
		shortPage := len(rows) < remote.PageSize

		if hitFloor || hitKnown || shortPage || !hasMore {
			break
		}
	}

	c.mu.succeed()
	return Result{InsertedTotal: insertedTotal, PagesFetched: pagesFetched, OldestSeen: oldestSeen}, nil
}

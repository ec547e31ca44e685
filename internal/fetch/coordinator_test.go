package fetch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xmflabs/xmf/internal/domain"
	"github.com/xmflabs/xmf/internal/fetch"
	"github.com/xmflabs/xmf/internal/remote"
	"github.com/xmflabs/xmf/internal/store"
)

func TestRunInsertsMockSequenceOnce(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	client := remote.NewMockClient(time.Date(2024, 6, 1, 12, 0, 0, 0, remote.CampusLocation))
	coord := fetch.New(s, client, nil)

	res, err := coord.Run(ctx, "student-1", time.Date(2024, 1, 1, 0, 0, 0, 0, remote.CampusLocation))
	require.NoError(t, err)
	require.Equal(t, remote.MockTotalRows, res.InsertedTotal)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, remote.MockTotalRows, count)

	res2, err := coord.Run(ctx, "student-1", time.Date(2024, 1, 1, 0, 0, 0, 0, remote.CampusLocation))
	require.NoError(t, err)
	require.Zero(t, res2.InsertedTotal)
}

func TestRunRejectsConcurrentTrigger(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	client := &blockingClient{started: make(chan struct{}), release: make(chan struct{})}
	coord := fetch.New(s, client, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = coord.Run(ctx, "student-1", time.Time{})
	}()

	<-client.started

	_, err = coord.Run(ctx, "student-1", time.Time{})
	require.ErrorAs(t, err, new(*domain.ErrAlreadyRunning))

	close(client.release)
	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

// blockingClient blocks its first FetchPage call until release is closed,
// letting the test assert a concurrent trigger is rejected mid-walk.
type blockingClient struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingClient) FetchPage(ctx context.Context, account string, page int) ([]domain.Transaction, bool, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil, false, nil
}

package remote

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/xmflabs/xmf/internal/domain"
)

// MockTotalRows is the fixed total length of the synthetic sequence a
// MockClient produces for any account.
const MockTotalRows = 237

var mockMerchants = []string{
	"North Canteen", "South Canteen", "Central Canteen",
	"Campus Mart", "Noodle Corner", "Coffee House",
	"Bakery Stand", "Hotpot Kitchen", "Snack Bar", "Library Cafe",
}

// MockClient returns a deterministic synthetic sequence seeded from the
// account identifier, selected by the --use-mock-data flag so the remote
// HTTP call is never made.
type MockClient struct {
	Now time.Time
}

// NewMockClient builds a mock client anchored at the given "now" instant
// (defaults to time.Now if zero).
func NewMockClient(now time.Time) *MockClient {
	if now.IsZero() {
		now = time.Now().In(CampusLocation)
	}
	return &MockClient{Now: now}
}

func (c *MockClient) FetchPage(_ context.Context, account string, page int) ([]domain.Transaction, bool, error) {
	if page < 1 {
		return nil, false, &domain.RemoteError{Kind: domain.RemoteHTTP, Page: page, Status: 400}
	}

	rng := rand.New(rand.NewSource(seedFor(account))) //nolint:gosec // deterministic synthetic data, not security sensitive

	// Advance the RNG deterministically past earlier pages so that page N
	// always yields the same rows regardless of call order.
	skip := (page - 1) * PageSize
	for i := 0; i < skip; i++ {
		mockRow(rng, account, c.Now, i)
	}

	start := skip
	end := start + PageSize
	if end > MockTotalRows {
		end = MockTotalRows
	}
	if start >= MockTotalRows {
		return nil, false, nil
	}

	rows := make([]domain.Transaction, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, mockRow(rng, account, c.Now, i))
	}

	hasMore := end < MockTotalRows && (end-start) == PageSize
	return rows, hasMore, nil
}

func seedFor(account string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(account))
	return int64(h.Sum64()) //nolint:gosec // deterministic seed, overflow into negative is fine
}

func mockRow(rng *rand.Rand, account string, now time.Time, index int) domain.Transaction {
	merchant := mockMerchants[rng.Intn(len(mockMerchants))]
	amount := -(0.5 + rng.Float64()*79.5)
	amount = float64(int(amount*100)) / 100

	minutesAgo := index * (rng.Intn(180) + 60)
	ts := now.Add(-time.Duration(minutesAgo) * time.Minute)

	return domain.Transaction{
		ID:       (seedFor(account) ^ int64(index)) + 1_000_000,
		Time:     ts,
		Amount:   amount,
		Merchant: merchant,
	}
}

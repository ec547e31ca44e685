// Package remote speaks the card service's paginated transaction endpoint.
// The fetch coordinator is parameterised over the Client interface so the
// mock and the real HTTP implementation are interchangeable and tests
// never touch the network.
package remote

import (
	"context"

	"github.com/xmflabs/xmf/internal/domain"
)

// PageSize is the number of rows a full page holds; a short page signals
// end-of-history.
const PageSize = 100

// Client fetches one page of transactions for account. hasMore reports
// whether another page may exist (derived from the page being full).
type Client interface {
	FetchPage(ctx context.Context, account string, page int) (rows []domain.Transaction, hasMore bool, err error)
}

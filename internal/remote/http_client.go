package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xmflabs/xmf/internal/domain"
)

// CampusLocation is the timezone the remote reports transaction times in.
var CampusLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.UTC
	}
	return loc
}()

const remoteTimeLayout = "2006-01-02 15:04:05"

// HTTPClient is the real card-service client: it POSTs {account, page} and
// carries the session cookie in the request header. The cookie is mutable
// post-construction (guarded by a mutex) so the server can apply a config
// update without tearing down and rebuilding the fetch coordinator.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger

	mu     sync.RWMutex
	cookie string
}

// NewHTTPClient builds a client with the conventional 30s per-request
// timeout.
func NewHTTPClient(baseURL, cookie string, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Logger: logger,
		cookie: cookie,
	}
}

// SetCookie replaces the session cookie used by subsequent requests.
func (c *HTTPClient) SetCookie(cookie string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookie = cookie
}

func (c *HTTPClient) cookieHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cookie
}

type pageRequest struct {
	Account string `json:"account"`
	Page    int    `json:"page"`
}

type remoteRow struct {
	ID       json.Number `json:"id"`
	Time     string      `json:"time"`
	Amount   string      `json:"amount"`
	Merchant string      `json:"merchant"`
}

// FetchPage issues one paginated request and parses the response body into
// transactions. Rows missing a field, or whose id/amount fails to parse,
// are dropped with a warning rather than aborting the page.
func (c *HTTPClient) FetchPage(ctx context.Context, account string, page int) ([]domain.Transaction, bool, error) {
	body, err := json.Marshal(pageRequest{Account: account, Page: page})
	if err != nil {
		return nil, false, &domain.RemoteError{Kind: domain.RemoteParse, Page: page, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, &domain.RemoteError{Kind: domain.RemoteNetwork, Page: page, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", c.cookieHeader())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, false, &domain.RemoteError{Kind: domain.RemoteNetwork, Page: page, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, false, &domain.RemoteError{Kind: domain.RemoteHTTP, Page: page, Status: resp.StatusCode}
	}

	var rawRows []remoteRow
	if err := json.NewDecoder(resp.Body).Decode(&rawRows); err != nil {
		return nil, false, &domain.RemoteError{Kind: domain.RemoteParse, Page: page, Err: err}
	}

	rows := make([]domain.Transaction, 0, len(rawRows))
	for _, raw := range rawRows {
		t, ok := c.parseRow(raw, page)
		if !ok {
			continue
		}
		rows = append(rows, t)
	}

	return rows, len(rawRows) == PageSize, nil
}

func (c *HTTPClient) parseRow(raw remoteRow, page int) (domain.Transaction, bool) {
	if raw.ID == "" || raw.Time == "" || raw.Amount == "" || raw.Merchant == "" {
		c.Logger.Warn("dropping row with missing field", "page", page)
		return domain.Transaction{}, false
	}

	id, err := raw.ID.Int64()
	if err != nil {
		c.Logger.Warn("dropping row with unparsable id", "page", page, "id", raw.ID)
		return domain.Transaction{}, false
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(raw.Amount), 64)
	if err != nil {
		c.Logger.Warn("dropping row with unparsable amount", "page", page, "amount", raw.Amount)
		return domain.Transaction{}, false
	}

	parsedTime, err := time.ParseInLocation(remoteTimeLayout, raw.Time, CampusLocation)
	if err != nil {
		c.Logger.Warn("dropping row with unparsable time", "page", page, "time", raw.Time)
		return domain.Transaction{}, false
	}

	return domain.Transaction{
		ID:       id,
		Time:     parsedTime,
		Amount:   amount,
		Merchant: raw.Merchant,
	}, true
}

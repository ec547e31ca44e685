package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xmflabs/xmf/internal/domain"
	"github.com/xmflabs/xmf/internal/remote"
)

func TestHTTPClientParsesPageAndDropsBadRows(t *testing.T) {
	var gotCookie string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_, _ = w.Write([]byte(`[
			{"id": 1001, "time": "2024-03-15 08:30:00", "amount": "-5.50", "merchant": "North Canteen"},
			{"id": 1002, "time": "2024-03-15 12:10:00", "amount": "not-a-number", "merchant": "North Canteen"},
			{"id": 1003, "time": "2024-03-15 18:05:00", "amount": "-20.00", "merchant": ""},
			{"id": 1004, "time": "2024-03-15 18:45:00", "amount": "12.00", "merchant": "Card Top-up"}
		]`))
	}))
	defer ts.Close()

	client := remote.NewHTTPClient(ts.URL, "hallticket=abc", nil)
	rows, hasMore, err := client.FetchPage(context.Background(), "student-1", 3)
	require.NoError(t, err)
	require.False(t, hasMore, "4 raw rows is a short page")

	require.Equal(t, "hallticket=abc", gotCookie)
	require.Equal(t, "student-1", gotBody["account"])
	require.EqualValues(t, 3, gotBody["page"])

	// the unparsable-amount and empty-merchant rows are dropped
	require.Len(t, rows, 2)
	require.Equal(t, int64(1001), rows[0].ID)
	require.Equal(t, -5.5, rows[0].Amount)
	require.Equal(t, 8, rows[0].Time.Hour())
	require.Equal(t, int64(1004), rows[1].ID)
	require.Equal(t, 12.0, rows[1].Amount)
}

func TestHTTPClientSurfacesStatusErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := remote.NewHTTPClient(ts.URL, "hallticket=stale", nil)
	_, _, err := client.FetchPage(context.Background(), "student-1", 1)

	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, domain.RemoteHTTP, remoteErr.Kind)
	require.Equal(t, http.StatusUnauthorized, remoteErr.Status)
	require.Equal(t, 1, remoteErr.Page)
}

func TestHTTPClientSurfacesParseErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>login required</html>"))
	}))
	defer ts.Close()

	client := remote.NewHTTPClient(ts.URL, "hallticket=abc", nil)
	_, _, err := client.FetchPage(context.Background(), "student-1", 2)

	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, domain.RemoteParse, remoteErr.Kind)
	require.Equal(t, 2, remoteErr.Page)
}

func TestHTTPClientCookieIsSwappable(t *testing.T) {
	var gotCookie string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	client := remote.NewHTTPClient(ts.URL, "hallticket=old", nil)
	client.SetCookie("hallticket=new")

	_, _, err := client.FetchPage(context.Background(), "student-1", 1)
	require.NoError(t, err)
	require.Equal(t, "hallticket=new", gotCookie)
}

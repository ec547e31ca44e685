package export_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xmflabs/xmf/internal/domain"
	"github.com/xmflabs/xmf/internal/export"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.csv")

	rows := []domain.Transaction{
		{ID: 1, Time: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC), Amount: -5.5, Merchant: "Snack, Bar"},
		{ID: 2, Time: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), Amount: -12, Merchant: `Say "Hi"`},
	}

	n, err := export.Write(path, export.CSV, rows)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows
	require.Equal(t, []string{"id", "time", "amount", "merchant"}, records[0])

	gotAmount, err := strconv.ParseFloat(records[1][2], 64)
	require.NoError(t, err)
	require.InDelta(t, rows[0].Amount, gotAmount, 0.001)
	require.Equal(t, rows[0].Merchant, records[1][3])
	require.Equal(t, rows[1].Merchant, records[2][3])
}

func TestWriteCSVScenarioS3(t *testing.T) {
	rows := []domain.Transaction{
		{ID: 1, Time: time.Now(), Amount: -5, Merchant: "超市"},
		{ID: 2, Time: time.Now(), Amount: -15, Merchant: "超市"},
		{ID: 3, Time: time.Now(), Amount: -60, Merchant: "超市"},
		{ID: 4, Time: time.Now(), Amount: -20, Merchant: "食堂"},
	}

	min, max := 10.0, 50.0
	filter := domain.FilterSpec{Merchant: "超市", AmountMin: &min, AmountMax: &max}

	var filtered []domain.Transaction
	for _, r := range rows {
		if filter.Match(r) {
			filtered = append(filtered, r)
		}
	}
	require.Len(t, filtered, 1)
	require.Equal(t, int64(2), filtered[0].ID)

	path := filepath.Join(t.TempDir(), "s3.csv")
	n, err := export.Write(path, export.CSV, filtered)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

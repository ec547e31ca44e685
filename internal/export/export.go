// Package export writes a filtered transaction result set into a CSV or
// JSON file in one shot, creating the parent directory as needed and
// overwriting any previous export.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xmflabs/xmf/internal/domain"
)

// Format selects the output encoding.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// Write streams rows to path in the given format, creating the parent
// directory if absent and overwriting an existing file. It returns the
// number of rows written.
func Write(path string, format Format, rows []domain.Transaction) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating export directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("opening export file: %w", err)
	}
	defer f.Close()

	switch format {
	case JSON:
		return writeJSON(f, rows)
	default:
		return writeCSV(f, rows)
	}
}

func writeCSV(f *os.File, rows []domain.Transaction) (int, error) {
	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "time", "amount", "merchant"}); err != nil {
		return 0, fmt.Errorf("writing csv header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			fmt.Sprintf("%d", r.ID),
			r.Time.Format("2006-01-02T15:04:05-07:00"),
			fmt.Sprintf("%.2f", r.Amount),
			r.Merchant,
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flushing csv: %w", err)
	}
	return len(rows), nil
}

type jsonRow struct {
	ID       int64   `json:"id"`
	Time     string  `json:"time"`
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
}

func writeJSON(f *os.File, rows []domain.Transaction) (int, error) {
	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		out[i] = jsonRow{
			ID:       r.ID,
			Time:     r.Time.Format("2006-01-02T15:04:05-07:00"),
			Amount:   r.Amount,
			Merchant: r.Merchant,
		}
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return 0, fmt.Errorf("writing json export: %w", err)
	}
	return len(rows), nil
}

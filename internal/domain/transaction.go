// Package domain holds the core value types shared by the store, the
// remote client, the fetch coordinator, and every surface built on top of
// them.
package domain

import "time"

// Transaction is a single campus-card ledger entry. It is immutable once
// stored: insertion is the only write the store ever performs on it.
type Transaction struct {
	ID int64 `json:"id"`

	// Time is the instant the remote reported, carrying the campus
	// timezone.
	Time time.Time `json:"time"`

	// Amount is negative for spending, positive for top-ups/refunds, with
	// two fractional digits of significance.
	Amount float64 `json:"amount"`

	Merchant string `json:"merchant"`
}

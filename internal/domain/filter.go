package domain

import (
	"strings"
	"time"
)

// FilterSpec is the single, shared description of a transaction query. It
// is the body of POST /api/transactions/query, the parameters of the
// export-csv subcommand, and the optional scope for analysis functions.
// All fields are optional; an absent bound imposes no restriction.
type FilterSpec struct {
	Merchant string `json:"merchant,omitempty"`

	// AmountMin/AmountMax are supplied as positive magnitudes; Render
	// negates them before comparing against the stored (negative) spend
	// amounts. AmountMin maps to the lower bound of spend magnitude
	// (more-negative-or-equal), AmountMax to the upper bound
	// (less-negative-or-equal).
	AmountMin *float64 `json:"amount_min,omitempty"`
	AmountMax *float64 `json:"amount_max,omitempty"`

	// TimeStart is inclusive, TimeEnd is exclusive. Both are calendar
	// dates in the campus local time zone, converted to instants at
	// 00:00 local on each side by the caller before being placed here.
	TimeStart *time.Time `json:"time_start,omitempty"`
	TimeEnd   *time.Time `json:"time_end,omitempty"`
}

// Render turns the FilterSpec into a SQL WHERE fragment (without the
// leading "WHERE") plus its bound parameters, appending AND clauses only
// for present fields. It never interpolates user text into the fragment.
func (f FilterSpec) Render() (where string, args []any) {
	var clauses []string

	if f.Merchant != "" {
		clauses = append(clauses, "merchant LIKE '%' || ? || '%'")
		args = append(args, f.Merchant)
	}
	if f.AmountMin != nil {
		clauses = append(clauses, "amount <= ?")
		args = append(args, -*f.AmountMin)
	}
	if f.AmountMax != nil {
		clauses = append(clauses, "amount >= ?")
		args = append(args, -*f.AmountMax)
	}
	if f.TimeStart != nil {
		clauses = append(clauses, "time >= ?")
		args = append(args, f.TimeStart.Format(time.RFC3339))
	}
	if f.TimeEnd != nil {
		clauses = append(clauses, "time < ?")
		args = append(args, f.TimeEnd.Format(time.RFC3339))
	}

	return strings.Join(clauses, " AND "), args
}

// Match applies the FilterSpec to a single transaction in memory; it is
// the reference semantics the SQL rendering in Render must agree with
// (see the filter-roundtrip property in the test suite).
func (f FilterSpec) Match(t Transaction) bool {
	if f.Merchant != "" && !strings.Contains(t.Merchant, f.Merchant) {
		return false
	}
	if f.AmountMin != nil && t.Amount > -*f.AmountMin {
		return false
	}
	if f.AmountMax != nil && t.Amount < -*f.AmountMax {
		return false
	}
	if f.TimeStart != nil && t.Time.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !t.Time.Before(*f.TimeEnd) {
		return false
	}
	return true
}

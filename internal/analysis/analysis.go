// Package analysis provides pure aggregations over a transaction result
// set: meal-period bucketing, monthly time series, per-merchant totals.
// These functions never touch the store; they operate on whatever rows
// the caller already fetched (optionally pre-filtered by a FilterSpec).
package analysis

import (
	"sort"

	"github.com/xmflabs/xmf/internal/domain"
)

// MealPeriod is one of the four local-time buckets a transaction falls
// into.
type MealPeriod string

const (
	Breakfast MealPeriod = "breakfast"
	Lunch     MealPeriod = "lunch"
	Dinner    MealPeriod = "dinner"
	Other     MealPeriod = "other"
)

// TimePeriodBuckets classifies each row by the local hour:minute of its
// time and returns the count per bucket.
func TimePeriodBuckets(rows []domain.Transaction) map[MealPeriod]int {
	counts := map[MealPeriod]int{Breakfast: 0, Lunch: 0, Dinner: 0, Other: 0}
	for _, r := range rows {
		counts[classify(r)]++
	}
	return counts
}

func classify(t domain.Transaction) MealPeriod {
	minutesOfDay := t.Time.Hour()*60 + t.Time.Minute()
	switch {
	case minutesOfDay >= 5*60 && minutesOfDay < 10*60+30:
		return Breakfast
	case minutesOfDay >= 10*60+30 && minutesOfDay < 13*60+30:
		return Lunch
	case minutesOfDay >= 16*60+30 && minutesOfDay < 19*60+30:
		return Dinner
	default:
		return Other
	}
}

// MonthPoint is one entry of a MonthlySeries result.
type MonthPoint struct {
	Month string  `json:"month"` // "YYYY-MM"
	Total float64 `json:"total"` // sum of |amount| for the month
}

// MonthlySeries groups rows by YYYY-MM of local time and sums |amount| per
// month, returning a sequence ordered by month ascending with no gaps:
// months with no transactions are materialised with a zero total.
func MonthlySeries(rows []domain.Transaction) []MonthPoint {
	if len(rows) == 0 {
		return nil
	}

	sums := make(map[string]float64)
	var minMonth, maxMonth string
	for _, r := range rows {
		key := r.Time.Format("2006-01")
		amt := r.Amount
		if amt < 0 {
			amt = -amt
		}
		sums[key] += amt

		if minMonth == "" || key < minMonth {
			minMonth = key
		}
		if maxMonth == "" || key > maxMonth {
			maxMonth = key
		}
	}

	var series []MonthPoint
	for cursor := minMonth; ; cursor = nextMonth(cursor) {
		series = append(series, MonthPoint{Month: cursor, Total: round2(sums[cursor])})
		if cursor == maxMonth {
			break
		}
	}
	return series
}

func nextMonth(key string) string {
	year := int(key[0]-'0')*1000 + int(key[1]-'0')*100 + int(key[2]-'0')*10 + int(key[3]-'0')
	month := int(key[5]-'0')*10 + int(key[6]-'0')
	month++
	if month > 12 {
		month = 1
		year++
	}
	return padMonth(year, month)
}

func padMonth(year, month int) string {
	const digits = "0123456789"
	b := make([]byte, 0, 7)
	y := year
	ydigits := [4]byte{}
	for i := 3; i >= 0; i-- {
		ydigits[i] = digits[y%10]
		y /= 10
	}
	b = append(b, ydigits[:]...)
	b = append(b, '-')
	b = append(b, digits[month/10], digits[month%10])
	return string(b)
}

// MerchantTotal is one entry of a MerchantTotals result.
type MerchantTotal struct {
	Merchant string  `json:"merchant"`
	Sum      float64 `json:"sum"`       // sign preserved
	Abs      float64 `json:"magnitude"` // |sum|, for chart presentation
}

const defaultTopN = 15

// MerchantTotals sums amount per merchant (sign preserved), sorts
// ascending by sum (most-negative, i.e. top spenders, first; ties broken
// by merchant name ascending), and truncates to topN (defaultTopN when <= 0).
func MerchantTotals(rows []domain.Transaction, topN int) []MerchantTotal {
	if topN <= 0 {
		topN = defaultTopN
	}

	sums := make(map[string]float64)
	for _, r := range rows {
		sums[r.Merchant] += r.Amount
	}

	totals := make([]MerchantTotal, 0, len(sums))
	for merchant, sum := range sums {
		sum = round2(sum)
		totals = append(totals, MerchantTotal{Merchant: merchant, Sum: sum, Abs: absf(sum)})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Sum != totals[j].Sum {
			return totals[i].Sum < totals[j].Sum
		}
		return totals[i].Merchant < totals[j].Merchant
	})

	if len(totals) > topN {
		totals = totals[:topN]
	}
	return totals
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func round2(f float64) float64 {
	if f < 0 {
		return -(float64(int(-f*100+0.5)) / 100)
	}
	return float64(int(f*100+0.5)) / 100
}

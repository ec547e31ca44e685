package analysis_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xmflabs/xmf/internal/analysis"
	"github.com/xmflabs/xmf/internal/domain"
)

func at(hour, minute int) domain.Transaction {
	return domain.Transaction{
		Time:     time.Date(2024, 3, 15, hour, minute, 0, 0, time.UTC),
		Amount:   -1,
		Merchant: "X",
	}
}

func TestTimePeriodBoundaries(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         analysis.MealPeriod
	}{
		{10, 29, analysis.Breakfast},
		{10, 30, analysis.Lunch},
		{13, 29, analysis.Lunch},
		{13, 30, analysis.Other},
		{19, 29, analysis.Dinner},
		{19, 30, analysis.Other},
	}
	for _, c := range cases {
		buckets := analysis.TimePeriodBuckets([]domain.Transaction{at(c.hour, c.minute)})
		require.Equal(t, 1, buckets[c.want], "hour=%d minute=%d", c.hour, c.minute)
	}
}

func TestTimePeriodScenarioS2(t *testing.T) {
	rows := []domain.Transaction{
		{Time: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC), Amount: -5, Merchant: "A"},
		{Time: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), Amount: -12.5, Merchant: "A"},
		{Time: time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC), Amount: -20, Merchant: "A"},
		{Time: time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC), Amount: -8, Merchant: "A"},
	}
	buckets := analysis.TimePeriodBuckets(rows)
	require.Equal(t, 1, buckets[analysis.Breakfast])
	require.Equal(t, 1, buckets[analysis.Lunch])
	require.Equal(t, 1, buckets[analysis.Dinner])
	require.Equal(t, 1, buckets[analysis.Other])
}

func TestMonthlySeriesGapFilling(t *testing.T) {
	rows := []domain.Transaction{
		{Time: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC), Amount: -100, Merchant: "A"},
		{Time: time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC), Amount: -40, Merchant: "A"},
	}
	series := analysis.MonthlySeries(rows)
	require.Len(t, series, 4)
	require.Equal(t, []analysis.MonthPoint{
		{Month: "2024-01", Total: 100},
		{Month: "2024-02", Total: 0},
		{Month: "2024-03", Total: 0},
		{Month: "2024-04", Total: 40},
	}, series)
}

func TestMerchantTotalsOrdering(t *testing.T) {
	rows := []domain.Transaction{
		{Merchant: "A", Amount: -10, Time: time.Now()},
		{Merchant: "B", Amount: -30, Time: time.Now()},
		{Merchant: "C", Amount: -30, Time: time.Now()},
		{Merchant: "D", Amount: 5, Time: time.Now()},
	}
	totals := analysis.MerchantTotals(rows, 2)
	require.Len(t, totals, 2)
	require.Equal(t, "B", totals[0].Merchant) // tie with C broken by name asc
	require.Equal(t, "C", totals[1].Merchant)
	require.Equal(t, 30.0, totals[0].Abs)
}

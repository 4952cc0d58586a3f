package domain

import (
	"testing"
	"time"
)

var growthNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func monthTx(amount string, year int, month time.Month) *Transaction {
	return tx(amount, "USD", StatusCompleted, TypePayment, time.Date(year, month, 15, 10, 0, 0, 0, time.UTC))
}

func TestAnalyzeGrowingTrend(t *testing.T) {
	a := NewGrowthAnalyzer(NewCurrencyNormalizer(testLogger()))
	window := WindowEndingAt(growthNow, 180)

	txs := []*Transaction{
		monthTx("100", 2026, time.April),
		monthTx("100", 2026, time.May),
		monthTx("100", 2026, time.June),
		monthTx("150", 2026, time.July),
		monthTx("150", 2026, time.August),
	}

	got := a.Analyze(txs, window)

	if got.Trend != TrendGrowing {
		t.Errorf("Trend = %s, want %s", got.Trend, TrendGrowing)
	}
	if len(got.Monthly) != 5 {
		t.Fatalf("Monthly buckets = %d, want 5", len(got.Monthly))
	}
	for i := 1; i < len(got.Monthly); i++ {
		if !got.Monthly[i-1].Month.Before(got.Monthly[i].Month) {
			t.Errorf("buckets not in chronological order: %s before %s", got.Monthly[i-1].Month, got.Monthly[i].Month)
		}
	}
	first := got.Monthly[0].Month
	if first.Day() != 1 || first.Hour() != 0 || first.Location() != time.UTC {
		t.Errorf("bucket month not normalized to first of month UTC: %s", first)
	}
}

func TestAnalyzeDecliningTrend(t *testing.T) {
	a := NewGrowthAnalyzer(NewCurrencyNormalizer(testLogger()))
	window := WindowEndingAt(growthNow, 180)

	txs := []*Transaction{
		monthTx("200", 2026, time.April),
		monthTx("200", 2026, time.May),
		monthTx("200", 2026, time.June),
		monthTx("100", 2026, time.July),
		monthTx("100", 2026, time.August),
	}

	got := a.Analyze(txs, window)
	if got.Trend != TrendDeclining {
		t.Errorf("Trend = %s, want %s", got.Trend, TrendDeclining)
	}
}

func TestAnalyzeStableTrend(t *testing.T) {
	a := NewGrowthAnalyzer(NewCurrencyNormalizer(testLogger()))
	window := WindowEndingAt(growthNow, 180)

	txs := []*Transaction{
		monthTx("100", 2026, time.April),
		monthTx("100", 2026, time.May),
		monthTx("100", 2026, time.June),
		monthTx("105", 2026, time.July),
		monthTx("100", 2026, time.August),
	}

	got := a.Analyze(txs, window)
	if got.Trend != TrendStable {
		t.Errorf("Trend = %s, want %s", got.Trend, TrendStable)
	}
}

func TestAnalyzeInsufficientHistory(t *testing.T) {
	a := NewGrowthAnalyzer(NewCurrencyNormalizer(testLogger()))
	window := WindowEndingAt(growthNow, 180)

	tests := []struct {
		name string
		txs  []*Transaction
	}{
		{"no transactions", nil},
		{"single month", []*Transaction{monthTx("500", 2026, time.August)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.txs, window)
			if got.Trend != TrendStable {
				t.Errorf("Trend = %s, want %s", got.Trend, TrendStable)
			}
		})
	}
}

func TestAnalyzeExcludesNonRevenue(t *testing.T) {
	a := NewGrowthAnalyzer(NewCurrencyNormalizer(testLogger()))
	window := WindowEndingAt(growthNow, 180)

	txs := []*Transaction{
		monthTx("100", 2026, time.July),
		tx("900", "USD", StatusFailed, TypePayment, time.Date(2026, time.July, 20, 0, 0, 0, 0, time.UTC)),
		tx("900", "USD", StatusCompleted, TypeRefund, time.Date(2026, time.July, 21, 0, 0, 0, 0, time.UTC)),
	}

	got := a.Analyze(txs, window)
	if len(got.Monthly) != 1 {
		t.Fatalf("Monthly buckets = %d, want 1", len(got.Monthly))
	}
	if got.Monthly[0].Revenue.StringFixed(0) != "100" {
		t.Errorf("July revenue = %s, want 100", got.Monthly[0].Revenue)
	}
}

package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var aggNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func tx(amount, currency string, status TransactionStatus, txType TransactionType, at time.Time) *Transaction {
	return &Transaction{
		ID:        "tx-" + amount + "-" + currency,
		UserID:    "user-1",
		Amount:    decimal.RequireFromString(amount),
		Currency:  currency,
		Status:    status,
		Type:      txType,
		CreatedAt: at,
	}
}

func TestAggregateMultiCurrencyRevenue(t *testing.T) {
	agg := NewPeriodAggregator(NewCurrencyNormalizer(testLogger()), testLogger())
	window := WindowEndingAt(aggNow, 30)
	inWindow := aggNow.AddDate(0, 0, -5)

	txs := []*Transaction{
		tx("100", "USD", StatusCompleted, TypePayment, inWindow),
		tx("50", "EUR", StatusSuccessful, TypePayment, inWindow),
		tx("1000", "ZMW", StatusSucceeded, TypePayment, inWindow),
	}

	got := agg.Aggregate(txs, window)

	if want := decimal.RequireFromString("189.5"); !got.TotalRevenue.Equal(want) {
		t.Errorf("TotalRevenue = %s, want %s", got.TotalRevenue, want)
	}
	if got.TransactionCount != 3 {
		t.Errorf("TransactionCount = %d, want 3", got.TransactionCount)
	}
	if !got.GrowthPercent.IsZero() {
		t.Errorf("GrowthPercent = %s, want 0 with empty previous period", got.GrowthPercent)
	}
	if want := "63.17"; got.AverageTransactionValue.StringFixed(2) != want {
		t.Errorf("AverageTransactionValue = %s, want %s", got.AverageTransactionValue.StringFixed(2), want)
	}
}

func TestAggregateExcludesNonRevenueTransactions(t *testing.T) {
	agg := NewPeriodAggregator(NewCurrencyNormalizer(testLogger()), testLogger())
	window := WindowEndingAt(aggNow, 30)
	inWindow := aggNow.AddDate(0, 0, -3)

	txs := []*Transaction{
		tx("100", "USD", StatusCompleted, TypePayment, inWindow),
		tx("40", "USD", StatusCompleted, TypeRefund, inWindow),
		tx("30", "USD", StatusCompleted, TypeSubscription, inWindow),
		tx("500", "USD", StatusFailed, TypePayment, inWindow),
		tx("200", "USD", StatusPending, TypePayment, inWindow),
		tx("999", "USD", StatusCompleted, TypePayment, time.Time{}),
	}

	got := agg.Aggregate(txs, window)

	if want := decimal.NewFromInt(100); !got.TotalRevenue.Equal(want) {
		t.Errorf("TotalRevenue = %s, want %s", got.TotalRevenue, want)
	}
	if got.TransactionCount != 1 {
		t.Errorf("TransactionCount = %d, want 1", got.TransactionCount)
	}
}

func TestAggregateGrowthAgainstPreviousPeriod(t *testing.T) {
	agg := NewPeriodAggregator(NewCurrencyNormalizer(testLogger()), testLogger())
	window := WindowEndingAt(aggNow, 30)

	txs := []*Transaction{
		tx("150", "USD", StatusCompleted, TypePayment, aggNow.AddDate(0, 0, -10)),
		tx("100", "USD", StatusCompleted, TypePayment, aggNow.AddDate(0, 0, -45)),
	}

	got := agg.Aggregate(txs, window)

	if want := decimal.NewFromInt(100); !got.PreviousRevenue.Equal(want) {
		t.Errorf("PreviousRevenue = %s, want %s", got.PreviousRevenue, want)
	}
	if want := decimal.NewFromInt(50); !got.GrowthPercent.Equal(want) {
		t.Errorf("GrowthPercent = %s, want %s", got.GrowthPercent, want)
	}
}

func TestAggregateEmptyWindow(t *testing.T) {
	agg := NewPeriodAggregator(NewCurrencyNormalizer(testLogger()), testLogger())
	window := WindowEndingAt(aggNow, 30)

	got := agg.Aggregate(nil, window)

	if !got.TotalRevenue.IsZero() || !got.AverageTransactionValue.IsZero() || got.TransactionCount != 0 {
		t.Errorf("empty window metrics = %+v, want all zero", got)
	}
}

func TestCashFlowIncludesAllSettledTypes(t *testing.T) {
	agg := NewPeriodAggregator(NewCurrencyNormalizer(testLogger()), testLogger())
	window := WindowEndingAt(aggNow, 30)
	inWindow := aggNow.AddDate(0, 0, -2)

	txs := []*Transaction{
		tx("100", "USD", StatusCompleted, TypePayment, inWindow),
		tx("40", "USD", StatusCompleted, TypeRefund, inWindow),
		tx("100", "EUR", StatusSuccessful, TypeSubscription, inWindow),
		tx("500", "USD", StatusFailed, TypePayment, inWindow),
	}

	got := agg.CashFlow(txs, window)

	// 100 + 40 + 100*1.05，失败交易不计
	if want := decimal.RequireFromString("245"); !got.Equal(want) {
		t.Errorf("CashFlow = %s, want %s", got, want)
	}
}

func TestTotalVolumeIgnoresStatusAndType(t *testing.T) {
	agg := NewPeriodAggregator(NewCurrencyNormalizer(testLogger()), testLogger())
	window := WindowEndingAt(aggNow, 90)
	inWindow := aggNow.AddDate(0, 0, -10)

	txs := []*Transaction{
		tx("100", "USD", StatusCompleted, TypePayment, inWindow),
		tx("50", "USD", StatusFailed, TypePayment, inWindow),
		tx("40", "USD", StatusPending, TypeRefund, inWindow),
		tx("100", "EUR", StatusCompleted, TypeSubscription, inWindow),
		tx("999", "USD", StatusCompleted, TypePayment, aggNow.AddDate(0, 0, -120)),
	}

	got := agg.TotalVolume(txs, window)

	// 100 + 50 + 40 + 100*1.05，窗口外不计
	if want := decimal.RequireFromString("295"); !got.Equal(want) {
		t.Errorf("TotalVolume = %s, want %s", got, want)
	}
}

func TestMetricsWindowPrevious(t *testing.T) {
	window := WindowEndingAt(aggNow, 30)
	prev := window.Previous()

	if !prev.End.Equal(window.Start) {
		t.Errorf("previous window end = %s, want %s", prev.End, window.Start)
	}
	if got, want := prev.End.Sub(prev.Start), window.End.Sub(window.Start); got != want {
		t.Errorf("previous window length = %s, want %s", got, want)
	}
	if window.Contains(window.End) {
		t.Error("window must not contain its own end")
	}
	if !window.Contains(window.Start) {
		t.Error("window must contain its own start")
	}
}

package domain

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeKnownCurrencies(t *testing.T) {
	n := NewCurrencyNormalizer(testLogger())

	tests := []struct {
		currency string
		amount   string
		want     string
	}{
		{"USD", "100", "100"},
		{"EUR", "100", "105"},
		{"ZMW", "1000", "37"},
		{"GBP", "100", "125"},
		{"CAD", "100", "74"},
	}
	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			got := n.Normalize(amount, tt.currency)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Normalize(%s %s) = %s, want %s", tt.amount, tt.currency, got, tt.want)
			}
		})
	}
}

func TestNormalizeUnknownCurrencyAssumesParity(t *testing.T) {
	n := NewCurrencyNormalizer(testLogger())

	got := n.Normalize(decimal.NewFromInt(250), "XYZ")
	if !got.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Normalize(250 XYZ) = %s, want 250", got)
	}
}

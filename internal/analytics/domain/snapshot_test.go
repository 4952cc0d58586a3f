package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validSnapshot() *BusinessMetricsSnapshot {
	score := 700
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	return &BusinessMetricsSnapshot{
		ID:                 "BM-1",
		UserID:             "user-1",
		MonthlyRevenue:     decimal.NewFromInt(1000),
		TransactionCount:   10,
		ProfitMargin:       decimal.NewFromFloat(0.2),
		RefundRate:         decimal.NewFromInt(10),
		PaymentFailureRate: decimal.NewFromInt(20),
		RiskScore:          decimal.NewFromInt(70),
		RiskLevel:          RiskLevelHigh,
		GrowthTrend:        TrendStable,
		CreditScore:        &score,
		CreditRating:       "Good",
		PeriodStart:        now.AddDate(0, 0, -30),
		PeriodEnd:          now,
		CalculatedAt:       now,
	}
}

func TestSnapshotValidate(t *testing.T) {
	if err := validSnapshot().Validate(); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*BusinessMetricsSnapshot)
	}{
		{"negative transaction count", func(s *BusinessMetricsSnapshot) { s.TransactionCount = -1 }},
		{"failure rate above hundred", func(s *BusinessMetricsSnapshot) { s.PaymentFailureRate = decimal.NewFromInt(101) }},
		{"negative refund rate", func(s *BusinessMetricsSnapshot) { s.RefundRate = decimal.NewFromInt(-1) }},
		{"risk score above hundred", func(s *BusinessMetricsSnapshot) { s.RiskScore = decimal.NewFromInt(150) }},
		{"credit score below floor", func(s *BusinessMetricsSnapshot) { v := 200; s.CreditScore = &v }},
		{"inverted period", func(s *BusinessMetricsSnapshot) { s.PeriodStart, s.PeriodEnd = s.PeriodEnd, s.PeriodStart }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(s)
			err := s.Validate()
			if !errors.Is(err, ErrInvariantViolation) {
				t.Errorf("Validate() = %v, want ErrInvariantViolation", err)
			}
		})
	}
}

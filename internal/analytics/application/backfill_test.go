package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
)

func unscoredSnapshot(id string) *domain.BusinessMetricsSnapshot {
	return &domain.BusinessMetricsSnapshot{
		ID:                 id,
		UserID:             "user-1",
		MonthlyRevenue:     decimal.NewFromInt(60000),
		CashFlow:           decimal.NewFromInt(15000),
		ProfitMargin:       decimal.RequireFromString("0.25"),
		TransactionCount:   120,
		PaymentFailureRate: decimal.NewFromInt(12),
		CalculatedAt:       time.Now().UTC().Add(-24 * time.Hour),
	}
}

func TestBackfillScoresUnscoredSnapshots(t *testing.T) {
	existing := 777
	repo := &stubSnapshotRepo{snapshots: []*domain.BusinessMetricsSnapshot{
		unscoredSnapshot("BM-1"),
		unscoredSnapshot("BM-2"),
		{ID: "BM-3", UserID: "user-1", CreditScore: &existing, CreditRating: "Excellent"},
	}}
	job := NewBackfillJob(repo, nil, time.Hour, testLogger())

	updated, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}
	for _, s := range repo.snapshots[:2] {
		if s.CreditScore == nil {
			t.Errorf("snapshot %s still unscored", s.ID)
			continue
		}
		// 300+200+150+100+150-100：失败率 12% 换算为 0.12 触发重扣
		if *s.CreditScore != 800 {
			t.Errorf("snapshot %s score = %d, want 800", s.ID, *s.CreditScore)
		}
		if s.CreditRating != "Excellent" {
			t.Errorf("snapshot %s rating = %s, want Excellent", s.ID, s.CreditRating)
		}
	}
	if *repo.snapshots[2].CreditScore != 777 {
		t.Errorf("already scored snapshot was overwritten: %d", *repo.snapshots[2].CreditScore)
	}
}

func TestBackfillIsIdempotent(t *testing.T) {
	repo := &stubSnapshotRepo{snapshots: []*domain.BusinessMetricsSnapshot{
		unscoredSnapshot("BM-1"),
	}}
	job := NewBackfillJob(repo, nil, time.Hour, testLogger())

	first, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if first != 1 {
		t.Errorf("first run updated = %d, want 1", first)
	}
	firstScore := *repo.snapshots[0].CreditScore

	second, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if second != 0 {
		t.Errorf("second run updated = %d, want 0", second)
	}
	if *repo.snapshots[0].CreditScore != firstScore {
		t.Errorf("score changed on second run: %d -> %d", firstScore, *repo.snapshots[0].CreditScore)
	}
}

func TestBackfillScoreStaysInBounds(t *testing.T) {
	repo := &stubSnapshotRepo{snapshots: []*domain.BusinessMetricsSnapshot{
		{
			ID:                 "BM-empty",
			UserID:             "user-2",
			MonthlyRevenue:     decimal.Zero,
			CashFlow:           decimal.NewFromInt(-5000),
			PaymentFailureRate: decimal.NewFromInt(100),
			CalculatedAt:       time.Now().UTC(),
		},
	}}
	job := NewBackfillJob(repo, nil, time.Hour, testLogger())

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := *repo.snapshots[0].CreditScore
	if got < domain.MinCreditScore || got > domain.MaxCreditScore {
		t.Errorf("backfilled score %d out of [%d, %d]", got, domain.MinCreditScore, domain.MaxCreditScore)
	}
}

func TestBackfillListErrorPropagates(t *testing.T) {
	repo := &stubSnapshotRepo{listErr: errors.New("table locked")}
	job := NewBackfillJob(repo, nil, time.Hour, testLogger())

	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when listing unscored snapshots fails")
	}
}

package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
	"github.com/wyfcoding/merchantmetrics/pkg/utils"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubTxStore struct {
	txs []*domain.Transaction
	err error
}

func (s *stubTxStore) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*domain.Transaction, error) {
	return s.txs, s.err
}

type stubSnapshotRepo struct {
	mu        sync.Mutex
	snapshots []*domain.BusinessMetricsSnapshot
	saveErr   error
	listErr   error
}

func (r *stubSnapshotRepo) Save(ctx context.Context, snapshot *domain.BusinessMetricsSnapshot) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
	return nil
}

func (r *stubSnapshotRepo) ListLatest(ctx context.Context, userID string, limit int) ([]*domain.BusinessMetricsSnapshot, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BusinessMetricsSnapshot
	for i := len(r.snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		if r.snapshots[i].UserID == userID {
			out = append(out, r.snapshots[i])
		}
	}
	return out, nil
}

func (r *stubSnapshotRepo) LatestByUser(ctx context.Context, userID string) (*domain.BusinessMetricsSnapshot, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.snapshots) - 1; i >= 0; i-- {
		if r.snapshots[i].UserID == userID {
			return r.snapshots[i], nil
		}
	}
	return nil, domain.ErrSnapshotNotFound
}

func (r *stubSnapshotRepo) ListUnscored(ctx context.Context, limit int) ([]*domain.BusinessMetricsSnapshot, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BusinessMetricsSnapshot
	for _, s := range r.snapshots {
		if s.CreditScore == nil && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSnapshotRepo) SetCreditScore(ctx context.Context, snapshotID string, score int, rating string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.snapshots {
		if s.ID == snapshotID && s.CreditScore == nil {
			s.CreditScore = &score
			s.CreditRating = rating
		}
	}
	return nil
}

type stubFinancing struct {
	fc  domain.FinancingContext
	err error
}

func (f *stubFinancing) FetchContext(ctx context.Context, userID string) (domain.FinancingContext, error) {
	return f.fc, f.err
}

type stubPublisher struct {
	mu                sync.Mutex
	records           []map[string]any
	err               error
	transientFailures int
}

func (p *stubPublisher) PublishSnapshotCalculated(ctx context.Context, userID string, record map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transientFailures > 0 {
		p.transientFailures--
		return errors.New("broker unreachable")
	}
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, record)
	return nil
}

func newTestService(store domain.TransactionStore, repo domain.SnapshotRepository, financing domain.FinancingProvider, publisher domain.EventPublisher) *MetricsService {
	return NewMetricsService(store, repo, financing, publisher, nil, utils.NewSnowflakeID(1), testLogger(), Options{
		PublishRetryBackoff: time.Millisecond,
	})
}

func recentTx(amount, currency string, status domain.TransactionStatus, txType domain.TransactionType, daysAgo int) *domain.Transaction {
	return &domain.Transaction{
		ID:        "tx-" + amount,
		UserID:    "user-1",
		Amount:    decimal.RequireFromString(amount),
		Currency:  currency,
		Status:    status,
		Type:      txType,
		CreatedAt: time.Now().UTC().AddDate(0, 0, -daysAgo),
	}
}

func TestRecomputePersistsSnapshotAndPublishes(t *testing.T) {
	store := &stubTxStore{txs: []*domain.Transaction{
		recentTx("100", "USD", domain.StatusCompleted, domain.TypePayment, 5),
		recentTx("50", "EUR", domain.StatusSuccessful, domain.TypePayment, 6),
		recentTx("1000", "ZMW", domain.StatusSucceeded, domain.TypePayment, 7),
	}}
	repo := &stubSnapshotRepo{}
	publisher := &stubPublisher{}
	svc := newTestService(store, repo, nil, publisher)

	dto, err := svc.Recompute(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	if len(repo.snapshots) != 1 {
		t.Fatalf("saved snapshots = %d, want 1", len(repo.snapshots))
	}
	saved := repo.snapshots[0]
	if want := decimal.RequireFromString("189.5"); !saved.MonthlyRevenue.Equal(want) {
		t.Errorf("MonthlyRevenue = %s, want %s", saved.MonthlyRevenue, want)
	}
	if saved.TransactionCount != 3 {
		t.Errorf("TransactionCount = %d, want 3", saved.TransactionCount)
	}
	if saved.CreditScore == nil {
		t.Error("snapshot saved without credit score")
	}
	if dto.ID != saved.ID {
		t.Errorf("dto ID = %s, want %s", dto.ID, saved.ID)
	}

	if len(publisher.records) != 1 {
		t.Fatalf("published records = %d, want 1", len(publisher.records))
	}
	record := publisher.records[0]
	if record["user_id"] != "user-1" {
		t.Errorf("record user_id = %v, want user-1", record["user_id"])
	}
	if record["snapshot_id"] != saved.ID {
		t.Errorf("record snapshot_id = %v, want %s", record["snapshot_id"], saved.ID)
	}
	if _, ok := record["monthly_revenue"].(float64); !ok {
		t.Errorf("record monthly_revenue = %T, want float64", record["monthly_revenue"])
	}
}

func TestRecomputeStoreFailureAborts(t *testing.T) {
	store := &stubTxStore{err: errors.New("connection refused")}
	repo := &stubSnapshotRepo{}
	publisher := &stubPublisher{}
	svc := newTestService(store, repo, nil, publisher)

	if _, err := svc.Recompute(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error when transaction store fails")
	}
	if len(repo.snapshots) != 0 {
		t.Errorf("saved snapshots = %d, want 0", len(repo.snapshots))
	}
	if len(publisher.records) != 0 {
		t.Errorf("published records = %d, want 0", len(publisher.records))
	}
}

func TestRecomputeSaveFailureSkipsPublish(t *testing.T) {
	store := &stubTxStore{txs: []*domain.Transaction{
		recentTx("100", "USD", domain.StatusCompleted, domain.TypePayment, 5),
	}}
	repo := &stubSnapshotRepo{saveErr: errors.New("deadlock")}
	publisher := &stubPublisher{}
	svc := newTestService(store, repo, nil, publisher)

	if _, err := svc.Recompute(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error when snapshot save fails")
	}
	if len(publisher.records) != 0 {
		t.Errorf("published records = %d, want 0 after failed save", len(publisher.records))
	}
}

func TestRecomputeFinancingFailureTolerated(t *testing.T) {
	store := &stubTxStore{txs: []*domain.Transaction{
		recentTx("100", "USD", domain.StatusCompleted, domain.TypePayment, 5),
	}}
	repo := &stubSnapshotRepo{}
	financing := &stubFinancing{err: errors.New("financing service down")}
	svc := newTestService(store, repo, financing, nil)

	dto, err := svc.Recompute(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if dto.Financing != nil {
		t.Errorf("dto.Financing = %+v, want nil on provider failure", dto.Financing)
	}
	if len(repo.snapshots) != 1 {
		t.Errorf("saved snapshots = %d, want 1", len(repo.snapshots))
	}
}

func TestRecomputeRetriesTransientPublishFailure(t *testing.T) {
	store := &stubTxStore{txs: []*domain.Transaction{
		recentTx("100", "USD", domain.StatusCompleted, domain.TypePayment, 5),
	}}
	repo := &stubSnapshotRepo{}
	publisher := &stubPublisher{transientFailures: 2}
	svc := NewMetricsService(store, repo, nil, publisher, nil, utils.NewSnowflakeID(1), testLogger(), Options{
		PublishMaxRetries:   3,
		PublishRetryBackoff: time.Millisecond,
	})

	if _, err := svc.Recompute(context.Background(), "user-1"); err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if len(publisher.records) != 1 {
		t.Errorf("published records = %d, want 1 after transient failures", len(publisher.records))
	}
}

func TestRecomputePublishFailureTolerated(t *testing.T) {
	store := &stubTxStore{txs: []*domain.Transaction{
		recentTx("100", "USD", domain.StatusCompleted, domain.TypePayment, 5),
	}}
	repo := &stubSnapshotRepo{}
	publisher := &stubPublisher{err: errors.New("broker unreachable")}
	svc := newTestService(store, repo, nil, publisher)

	if _, err := svc.Recompute(context.Background(), "user-1"); err != nil {
		t.Fatalf("Recompute failed on publish error: %v", err)
	}
	if len(repo.snapshots) != 1 {
		t.Errorf("saved snapshots = %d, want 1", len(repo.snapshots))
	}
}

func TestCreditScoreOnDemandWithoutSnapshot(t *testing.T) {
	store := &stubTxStore{}
	repo := &stubSnapshotRepo{}
	svc := newTestService(store, repo, nil, nil)

	dto, err := svc.CreditScore(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CreditScore failed: %v", err)
	}

	// 无历史聚合值，仅默认毛利率 0.20 落在次档贡献 +50
	if dto.Score != 350 {
		t.Errorf("Score = %d, want 350", dto.Score)
	}
	if dto.Rating != "Poor" {
		t.Errorf("Rating = %s, want Poor", dto.Rating)
	}
	if len(repo.snapshots) != 0 {
		t.Errorf("on-demand scoring persisted %d snapshots, want 0", len(repo.snapshots))
	}
}

func TestCreditScoreUsesLatestSnapshotAggregates(t *testing.T) {
	repo := &stubSnapshotRepo{snapshots: []*domain.BusinessMetricsSnapshot{
		{
			ID:             "BM-old",
			UserID:         "user-1",
			MonthlyRevenue: decimal.NewFromInt(60000),
			CashFlow:       decimal.NewFromInt(15000),
			ProfitMargin:   decimal.RequireFromString("0.25"),
			CalculatedAt:   time.Now().UTC().Add(-time.Hour),
		},
	}}
	store := &stubTxStore{}
	svc := newTestService(store, repo, nil, nil)

	dto, err := svc.CreditScore(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CreditScore failed: %v", err)
	}

	// 300+200+150+100，90 天无交易不加分
	if dto.Score != 750 {
		t.Errorf("Score = %d, want 750", dto.Score)
	}
	if dto.Rating != "Excellent" {
		t.Errorf("Rating = %s, want Excellent", dto.Rating)
	}
}

func TestCreditScoreVolumeCountsAllTransactions(t *testing.T) {
	store := &stubTxStore{txs: []*domain.Transaction{
		recentTx("100", "USD", domain.StatusCompleted, domain.TypePayment, 5),
		recentTx("50", "USD", domain.StatusFailed, domain.TypePayment, 6),
	}}
	repo := &stubSnapshotRepo{}
	svc := newTestService(store, repo, nil, nil)

	dto, err := svc.CreditScore(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CreditScore failed: %v", err)
	}

	// 流水因子不过滤状态：失败交易也计入规模
	if want := decimal.NewFromInt(150); !dto.Factors.TxVolume90d.Equal(want) {
		t.Errorf("Factors.TxVolume90d = %s, want %s", dto.Factors.TxVolume90d, want)
	}
	if dto.Factors.TxCount90d != 2 {
		t.Errorf("Factors.TxCount90d = %d, want 2", dto.Factors.TxCount90d)
	}
}

func TestLatestSnapshotsDefaultsLimit(t *testing.T) {
	repo := &stubSnapshotRepo{}
	for i := 0; i < 15; i++ {
		repo.snapshots = append(repo.snapshots, &domain.BusinessMetricsSnapshot{
			ID:           "BM-" + string(rune('a'+i)),
			UserID:       "user-1",
			CalculatedAt: time.Now().UTC().Add(time.Duration(-i) * time.Hour),
		})
	}
	svc := newTestService(&stubTxStore{}, repo, nil, nil)

	snaps, err := svc.LatestSnapshots(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("LatestSnapshots failed: %v", err)
	}
	if len(snaps) != 10 {
		t.Errorf("snapshots = %d, want default limit 10", len(snaps))
	}
}

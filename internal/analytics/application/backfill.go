package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
	"github.com/wyfcoding/merchantmetrics/pkg/metrics"
)

const defaultBackfillBatchSize = 100

// BackfillJob 信用评分补算作业。周期性扫描 CreditScore 为空的历史快照，
// 仅凭快照内已存的聚合值评分（不重查原始交易），逐条顺序回填。
// SetCreditScore 带空值守卫，重复执行不会覆盖已有评分。
type BackfillJob struct {
	snapshots domain.SnapshotRepository
	collector metrics.MetricsCollector // 可为 nil
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewBackfillJob 创建补算作业
func NewBackfillJob(snapshots domain.SnapshotRepository, collector metrics.MetricsCollector, interval time.Duration, logger *slog.Logger) *BackfillJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &BackfillJob{
		snapshots: snapshots,
		collector: collector,
		logger:    logger,
		interval:  interval,
		batchSize: defaultBackfillBatchSize,
	}
}

// Start 按固定间隔运行补算，直到 ctx 取消。启动时先跑一轮。
func (j *BackfillJob) Start(ctx context.Context) {
	j.logger.Info("credit score backfill job started", "interval", j.interval)

	j.runOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("credit score backfill job stopped")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *BackfillJob) runOnce(ctx context.Context) {
	updated, err := j.Run(ctx)
	if err != nil {
		j.logger.Error("credit score backfill pass failed", "updated", updated, "error", err)
		return
	}
	if j.collector != nil {
		j.collector.RecordBackfill(int64(updated))
	}
	j.logger.Info("credit score backfill pass finished", "updated", updated)
}

// Run 执行一轮补算，返回本轮回填的快照数。
// 逐条处理，单条失败即中止本轮，剩余的留给下一轮。
func (j *BackfillJob) Run(ctx context.Context) (int, error) {
	updated := 0
	for {
		rows, err := j.snapshots.ListUnscored(ctx, j.batchSize)
		if err != nil {
			return updated, fmt.Errorf("list unscored snapshots: %w", err)
		}
		if len(rows) == 0 {
			return updated, nil
		}

		for _, snap := range rows {
			result := scoreFromSnapshot(snap)
			if err := j.snapshots.SetCreditScore(ctx, snap.ID, result.Score, result.Rating); err != nil {
				return updated, fmt.Errorf("backfill credit score for snapshot %s: %w", snap.ID, err)
			}
			updated++
		}

		if len(rows) < j.batchSize {
			return updated, nil
		}
	}
}

// scoreFromSnapshot 仅凭快照内已存的聚合值构造评分输入。
// PaymentFailureRate 存的是百分比，评分输入要求 0-1 的比例。
func scoreFromSnapshot(s *domain.BusinessMetricsSnapshot) domain.CreditScoreResult {
	return domain.CalculateCreditScore(domain.CreditScoreInput{
		MonthlyRevenue: s.MonthlyRevenue,
		CashFlow:       s.CashFlow,
		ProfitMargin:   s.ProfitMargin,
		TxCount90d:     s.TransactionCount,
		TxVolume90d:    s.MonthlyRevenue,
		FailureRate90d: s.PaymentFailureRate.Div(decimal.NewFromInt(100)),
	})
}

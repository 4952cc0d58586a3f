package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
	"github.com/wyfcoding/merchantmetrics/pkg/utils"
)

// 未接入利润数据源前的默认毛利率
var defaultProfitMargin = decimal.NewFromFloat(0.20)

// Options 指标计算的窗口参数（单位：天）与事件发布的重试参数
type Options struct {
	WindowDays          int
	TrendLookbackDays   int
	CreditLookbackDays  int
	PublishMaxRetries   int
	PublishRetryBackoff time.Duration
}

// MetricsService 业务指标用例服务。负责编排一次完整重算：
// 取数、并发计算子指标、不变量校验、原子落库、缓存失效与事件发布。
type MetricsService struct {
	store      domain.TransactionStore
	snapshots  domain.SnapshotRepository
	financing  domain.FinancingProvider // 可为 nil
	publisher  domain.EventPublisher    // 可为 nil
	cache      domain.SnapshotCache     // 可为 nil
	aggregator *domain.PeriodAggregator
	risk       *domain.RiskCalculator
	growth     *domain.GrowthAnalyzer
	idGen      *utils.SnowflakeID
	logger     *slog.Logger
	opts       Options
}

// NewMetricsService 创建指标用例服务。financing、publisher、cache 为可选协作方，传 nil 表示未接入。
func NewMetricsService(
	store domain.TransactionStore,
	snapshots domain.SnapshotRepository,
	financing domain.FinancingProvider,
	publisher domain.EventPublisher,
	cache domain.SnapshotCache,
	idGen *utils.SnowflakeID,
	logger *slog.Logger,
	opts Options,
) *MetricsService {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 30
	}
	if opts.TrendLookbackDays <= 0 {
		opts.TrendLookbackDays = 180
	}
	if opts.CreditLookbackDays <= 0 {
		opts.CreditLookbackDays = 90
	}
	if opts.PublishMaxRetries <= 0 {
		opts.PublishMaxRetries = 3
	}
	if opts.PublishRetryBackoff <= 0 {
		opts.PublishRetryBackoff = 100 * time.Millisecond
	}
	normalizer := domain.NewCurrencyNormalizer(logger)
	return &MetricsService{
		store:      store,
		snapshots:  snapshots,
		financing:  financing,
		publisher:  publisher,
		cache:      cache,
		aggregator: domain.NewPeriodAggregator(normalizer, logger),
		risk:       domain.NewRiskCalculator(),
		growth:     domain.NewGrowthAnalyzer(normalizer),
		idGen:      idGen,
		logger:     logger,
		opts:       opts,
	}
}

// Recompute 对单个用户执行一次完整的指标重算并落库新快照。
// 交易只取一次（覆盖最长的趋势回看期），子指标并发计算。
// 存储失败会中止整个流程；融资数据与事件发布失败只降级不中止。
func (s *MetricsService) Recompute(ctx context.Context, userID string) (*SnapshotDTO, error) {
	started := time.Now()
	now := started.UTC()

	window := domain.WindowEndingAt(now, s.opts.WindowDays)
	trendWindow := domain.WindowEndingAt(now, s.opts.TrendLookbackDays)
	creditWindow := domain.WindowEndingAt(now, s.opts.CreditLookbackDays)

	txs, err := s.store.ListByUser(ctx, userID, trendWindow.Start, trendWindow.End)
	if err != nil {
		return nil, fmt.Errorf("list transactions for user %s: %w", userID, err)
	}

	var (
		revenue  domain.RevenueMetrics
		cashFlow decimal.Decimal
		riskM    domain.RiskMetrics
		trend    domain.GrowthTrend
		finCtx   *domain.FinancingContext
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		revenue = s.aggregator.Aggregate(txs, window)
		cashFlow = s.aggregator.CashFlow(txs, window)
		return nil
	})
	g.Go(func() error {
		riskM = s.risk.Calculate(txs, window)
		return nil
	})
	g.Go(func() error {
		trend = s.growth.Analyze(txs, trendWindow)
		return nil
	})
	if s.financing != nil {
		g.Go(func() error {
			fc, ferr := s.financing.FetchContext(gctx, userID)
			if ferr != nil {
				// 融资数据缺失不致命，留空继续
				s.logger.Warn("financing context unavailable", "user_id", userID, "error", ferr)
				return nil
			}
			finCtx = &fc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	count90, volume90, failureFrac90 := creditWindowStats(txs, creditWindow, s.aggregator)
	credit := domain.CalculateCreditScore(domain.CreditScoreInput{
		MonthlyRevenue: revenue.TotalRevenue,
		CashFlow:       cashFlow,
		ProfitMargin:   defaultProfitMargin,
		TxCount90d:     count90,
		TxVolume90d:    volume90,
		FailureRate90d: failureFrac90,
	})

	snapshot := &domain.BusinessMetricsSnapshot{
		ID:                 fmt.Sprintf("BM-%d", s.idGen.Generate()),
		UserID:             userID,
		MonthlyRevenue:     revenue.TotalRevenue,
		PreviousRevenue:    revenue.PreviousRevenue,
		RevenueGrowth:      revenue.GrowthPercent,
		AvgOrderValue:      revenue.AverageTransactionValue,
		TransactionCount:   revenue.TransactionCount,
		CashFlow:           cashFlow,
		ProfitMargin:       defaultProfitMargin,
		ChargebackRate:     decimal.Zero,
		RefundRate:         riskM.RefundRate,
		PaymentFailureRate: riskM.FailureRate,
		RiskScore:          riskM.RiskScore,
		RiskLevel:          riskM.RiskLevel,
		GrowthTrend:        trend.Trend,
		CreditScore:        &credit.Score,
		CreditRating:       credit.Rating,
		PeriodStart:        window.Start,
		PeriodEnd:          window.End,
		CalculatedAt:       now,
	}

	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("reject snapshot for user %s: %w", userID, err)
	}
	if err := s.snapshots.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot for user %s: %w", userID, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	if s.publisher != nil {
		record := flatRecord(snapshot)
		err := utils.RetryWithBackoff(s.opts.PublishMaxRetries, s.opts.PublishRetryBackoff, 10*s.opts.PublishRetryBackoff, func() error {
			return s.publisher.PublishSnapshotCalculated(ctx, userID, record)
		})
		if err != nil {
			// 快照已落库，重试耗尽只告警
			s.logger.Warn("snapshot event publish failed", "user_id", userID, "snapshot_id", snapshot.ID, "error", err)
		}
	}

	dto := toSnapshotDTO(snapshot)
	dto.Financing = finCtx
	dto.MonthlyTrend = make([]MonthlyRevenueDTO, 0, len(trend.Monthly))
	for _, m := range trend.Monthly {
		dto.MonthlyTrend = append(dto.MonthlyTrend, MonthlyRevenueDTO{
			Month:   m.Month.Format("2006-01"),
			Revenue: m.Revenue,
		})
	}

	s.logger.Info("business metrics snapshot calculated",
		"user_id", userID,
		"snapshot_id", snapshot.ID,
		"transaction_count", snapshot.TransactionCount,
		"risk_level", snapshot.RiskLevel,
		"credit_score", credit.Score,
		"duration", time.Since(started),
	)
	return &dto, nil
}

// LatestSnapshots 返回某用户最近的快照列表，优先走缓存
func (s *MetricsService) LatestSnapshots(ctx context.Context, userID string, limit int) ([]SnapshotDTO, error) {
	if limit <= 0 {
		limit = 10
	}

	if s.cache != nil {
		if cached, ok := s.cache.GetLatest(ctx, userID); ok && len(cached) >= limit {
			return toSnapshotDTOs(cached[:limit]), nil
		}
	}

	snaps, err := s.snapshots.ListLatest(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for user %s: %w", userID, err)
	}
	if s.cache != nil {
		s.cache.SetLatest(ctx, userID, snaps)
	}
	return toSnapshotDTOs(snaps), nil
}

// CreditScore 按需计算某用户的当前信用评分，不落库。
// 聚合口径取最近一次快照，90 天交易统计实时计算；无快照时按零聚合值评分。
func (s *MetricsService) CreditScore(ctx context.Context, userID string) (*CreditScoreDTO, error) {
	now := time.Now().UTC()
	in := domain.CreditScoreInput{ProfitMargin: defaultProfitMargin}

	latest, err := s.snapshots.LatestByUser(ctx, userID)
	switch {
	case err == nil:
		in.MonthlyRevenue = latest.MonthlyRevenue
		in.CashFlow = latest.CashFlow
		in.ProfitMargin = latest.ProfitMargin
	case errors.Is(err, domain.ErrSnapshotNotFound):
		// 新用户，按零聚合值评分
	default:
		return nil, fmt.Errorf("load latest snapshot for user %s: %w", userID, err)
	}

	creditWindow := domain.WindowEndingAt(now, s.opts.CreditLookbackDays)
	txs, err := s.store.ListByUser(ctx, userID, creditWindow.Start, creditWindow.End)
	if err != nil {
		return nil, fmt.Errorf("list transactions for user %s: %w", userID, err)
	}
	in.TxCount90d, in.TxVolume90d, in.FailureRate90d = creditWindowStats(txs, creditWindow, s.aggregator)

	result := domain.CalculateCreditScore(in)
	return &CreditScoreDTO{
		UserID:       userID,
		Score:        result.Score,
		Rating:       result.Rating,
		Factors:      result.Factors,
		CalculatedAt: now.Format(time.RFC3339),
	}, nil
}

// creditWindowStats 统计评分回看期内的交易笔数、全量折算流水和失败比例（0-1）
func creditWindowStats(txs []*domain.Transaction, window domain.MetricsWindow, agg *domain.PeriodAggregator) (int64, decimal.Decimal, decimal.Decimal) {
	var count, failed int64
	for _, t := range txs {
		if !window.Contains(t.CreatedAt) {
			continue
		}
		count++
		if t.Status == domain.StatusFailed {
			failed++
		}
	}

	volume := agg.TotalVolume(txs, window)

	failureFrac := decimal.Zero
	if count > 0 {
		failureFrac = decimal.NewFromInt(failed).Div(decimal.NewFromInt(count))
	}
	return count, volume, failureFrac
}

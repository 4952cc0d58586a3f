package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// 快照相关的领域错误
var (
	// ErrSnapshotNotFound 指定用户尚无任何快照
	ErrSnapshotNotFound = errors.New("business metrics snapshot not found")
	// ErrInvariantViolation 计算结果违反不变量，禁止落库
	ErrInvariantViolation = errors.New("metrics invariant violation")
)

// BusinessMetricsSnapshot 一次业务指标计算的结果快照。快照是追加写的事实记录，
// 落库后不再修改，唯一例外是补算作业回填 CreditScore。
type BusinessMetricsSnapshot struct {
	ID                 string
	UserID             string
	MonthlyRevenue     decimal.Decimal
	PreviousRevenue    decimal.Decimal
	RevenueGrowth      decimal.Decimal
	AvgOrderValue      decimal.Decimal
	TransactionCount   int64
	CashFlow           decimal.Decimal
	ProfitMargin       decimal.Decimal
	ChargebackRate     decimal.Decimal
	RefundRate         decimal.Decimal
	PaymentFailureRate decimal.Decimal
	RiskScore          decimal.Decimal
	RiskLevel          RiskLevel
	GrowthTrend        TrendLabel
	CreditScore        *int
	CreditRating       string
	PeriodStart        time.Time
	PeriodEnd          time.Time
	CalculatedAt       time.Time
}

// Validate 校验快照不变量。出现负计数或越界比率说明上游计算已不可信，
// 返回 ErrInvariantViolation 让调用方整体放弃本次落库。
func (s *BusinessMetricsSnapshot) Validate() error {
	if s.TransactionCount < 0 {
		return fmt.Errorf("%w: negative transaction count %d", ErrInvariantViolation, s.TransactionCount)
	}
	hundred := decimal.NewFromInt(100)
	rates := map[string]decimal.Decimal{
		"payment_failure_rate": s.PaymentFailureRate,
		"refund_rate":          s.RefundRate,
		"chargeback_rate":      s.ChargebackRate,
		"risk_score":           s.RiskScore,
	}
	for name, rate := range rates {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return fmt.Errorf("%w: %s %s out of [0, 100]", ErrInvariantViolation, name, rate)
		}
	}
	if s.CreditScore != nil && (*s.CreditScore < MinCreditScore || *s.CreditScore > MaxCreditScore) {
		return fmt.Errorf("%w: credit score %d out of [%d, %d]", ErrInvariantViolation, *s.CreditScore, MinCreditScore, MaxCreditScore)
	}
	if !s.PeriodStart.Before(s.PeriodEnd) {
		return fmt.Errorf("%w: period start %s is not before period end %s", ErrInvariantViolation, s.PeriodStart, s.PeriodEnd)
	}
	return nil
}

// SnapshotRepository 快照仓储接口
type SnapshotRepository interface {
	// Save 原子落库一条快照，任一字段失败则整体失败
	Save(ctx context.Context, snapshot *BusinessMetricsSnapshot) error
	// ListLatest 按计算时间倒序返回某用户最近的快照
	ListLatest(ctx context.Context, userID string, limit int) ([]*BusinessMetricsSnapshot, error)
	// LatestByUser 返回某用户最近一条快照，无则 ErrSnapshotNotFound
	LatestByUser(ctx context.Context, userID string) (*BusinessMetricsSnapshot, error)
	// ListUnscored 按计算时间升序返回 CreditScore 为空的快照
	ListUnscored(ctx context.Context, limit int) ([]*BusinessMetricsSnapshot, error)
	// SetCreditScore 仅当 CreditScore 仍为空时回填评分，保证恰好写一次
	SetCreditScore(ctx context.Context, snapshotID string, score int, rating string) error
}

// SnapshotCache 最近快照的读穿缓存，实现必须容忍缓存不可用
type SnapshotCache interface {
	GetLatest(ctx context.Context, userID string) ([]*BusinessMetricsSnapshot, bool)
	SetLatest(ctx context.Context, userID string, snapshots []*BusinessMetricsSnapshot)
	Invalidate(ctx context.Context, userID string)
}

package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MetricsWindow 半开时间区间 [Start, End)，所有周期指标都以它为口径
type MetricsWindow struct {
	Start time.Time
	End   time.Time
}

// NewMetricsWindow 创建时间窗口，Start 必须早于 End
func NewMetricsWindow(start, end time.Time) (MetricsWindow, error) {
	if !start.Before(end) {
		return MetricsWindow{}, fmt.Errorf("invalid metrics window: start %s is not before end %s", start, end)
	}
	return MetricsWindow{Start: start, End: end}, nil
}

// WindowEndingAt 以 end 为终点、回看 days 天的窗口
func WindowEndingAt(end time.Time, days int) MetricsWindow {
	return MetricsWindow{Start: end.AddDate(0, 0, -days), End: end}
}

// Contains 判断时间点是否落在窗口内（含 Start，不含 End）
func (w MetricsWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Previous 返回紧邻的等长前一窗口，用于环比
func (w MetricsWindow) Previous() MetricsWindow {
	d := w.End.Sub(w.Start)
	return MetricsWindow{Start: w.Start.Add(-d), End: w.Start}
}

// RevenueMetrics 周期营收指标，金额均为参考币种
type RevenueMetrics struct {
	TotalRevenue            decimal.Decimal
	PreviousRevenue         decimal.Decimal
	GrowthPercent           decimal.Decimal
	AverageTransactionValue decimal.Decimal
	TransactionCount        int64
}

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// RiskMetrics 周期风险指标，比率为百分比（0-100）
type RiskMetrics struct {
	FailureRate   decimal.Decimal
	RefundRate    decimal.Decimal
	RiskScore     decimal.Decimal
	RiskLevel     RiskLevel
	TotalAnalyzed int64
}

// MonthlyRevenue 单个月度营收桶，Month 归一化为当月一日零点 UTC
type MonthlyRevenue struct {
	Month   time.Time
	Revenue decimal.Decimal
}

// TrendLabel 增长趋势标签
type TrendLabel string

const (
	TrendGrowing   TrendLabel = "growing"
	TrendStable    TrendLabel = "stable"
	TrendDeclining TrendLabel = "declining"
)

// GrowthTrend 回看期内的月度营收序列与趋势判定，Monthly 按时间升序
type GrowthTrend struct {
	Monthly []MonthlyRevenue
	Trend   TrendLabel
}

// 包 业务指标与信用评分引擎的用例编排：指标重算、快照查询、评分与补算作业
package application

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
)

// SnapshotDTO 快照视图对象，金额字段以参考币种计
type SnapshotDTO struct {
	ID                 string                   `json:"id"`
	UserID             string                   `json:"user_id"`
	MonthlyRevenue     decimal.Decimal          `json:"monthly_revenue"`
	PreviousRevenue    decimal.Decimal          `json:"previous_revenue"`
	RevenueGrowth      decimal.Decimal          `json:"revenue_growth"`
	AvgOrderValue      decimal.Decimal          `json:"avg_order_value"`
	TransactionCount   int64                    `json:"transaction_count"`
	CashFlow           decimal.Decimal          `json:"cash_flow"`
	ProfitMargin       decimal.Decimal          `json:"profit_margin"`
	ChargebackRate     decimal.Decimal          `json:"chargeback_rate"`
	RefundRate         decimal.Decimal          `json:"refund_rate"`
	PaymentFailureRate decimal.Decimal          `json:"payment_failure_rate"`
	RiskScore          decimal.Decimal          `json:"risk_score"`
	RiskLevel          string                   `json:"risk_level"`
	GrowthTrend        string                   `json:"growth_trend"`
	MonthlyTrend       []MonthlyRevenueDTO      `json:"monthly_trend,omitempty"`
	CreditScore        *int                     `json:"credit_score,omitempty"`
	CreditRating       string                   `json:"credit_rating,omitempty"`
	Financing          *domain.FinancingContext `json:"financing,omitempty"`
	PeriodStart        string                   `json:"period_start"`
	PeriodEnd          string                   `json:"period_end"`
	CalculatedAt       string                   `json:"calculated_at"`
}

// MonthlyRevenueDTO 月度营收桶视图对象
type MonthlyRevenueDTO struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// CreditScoreDTO 信用评分视图对象
type CreditScoreDTO struct {
	UserID       string                    `json:"user_id"`
	Score        int                       `json:"score"`
	Rating       string                    `json:"rating"`
	Factors      domain.CreditScoreFactors `json:"factors"`
	CalculatedAt string                    `json:"calculated_at"`
}

func toSnapshotDTO(s *domain.BusinessMetricsSnapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:                 s.ID,
		UserID:             s.UserID,
		MonthlyRevenue:     s.MonthlyRevenue,
		PreviousRevenue:    s.PreviousRevenue,
		RevenueGrowth:      s.RevenueGrowth,
		AvgOrderValue:      s.AvgOrderValue,
		TransactionCount:   s.TransactionCount,
		CashFlow:           s.CashFlow,
		ProfitMargin:       s.ProfitMargin,
		ChargebackRate:     s.ChargebackRate,
		RefundRate:         s.RefundRate,
		PaymentFailureRate: s.PaymentFailureRate,
		RiskScore:          s.RiskScore,
		RiskLevel:          string(s.RiskLevel),
		GrowthTrend:        string(s.GrowthTrend),
		CreditScore:        s.CreditScore,
		CreditRating:       s.CreditRating,
		PeriodStart:        s.PeriodStart.UTC().Format(time.RFC3339),
		PeriodEnd:          s.PeriodEnd.UTC().Format(time.RFC3339),
		CalculatedAt:       s.CalculatedAt.UTC().Format(time.RFC3339),
	}
}

func toSnapshotDTOs(snaps []*domain.BusinessMetricsSnapshot) []SnapshotDTO {
	dtos := make([]SnapshotDTO, 0, len(snaps))
	for _, s := range snaps {
		dtos = append(dtos, toSnapshotDTO(s))
	}
	return dtos
}

// flatRecord 把快照摊平成键值记录供下游洞察消费：金额转 float、时间转 ISO-8601。
// 下游只做阈值比较与模板渲染，float 精度足够。
func flatRecord(s *domain.BusinessMetricsSnapshot) map[string]any {
	record := map[string]any{
		"snapshot_id":          s.ID,
		"user_id":              s.UserID,
		"event_type":           domain.EventTypeSnapshotCalculated,
		"monthly_revenue":      s.MonthlyRevenue.InexactFloat64(),
		"previous_revenue":     s.PreviousRevenue.InexactFloat64(),
		"revenue_growth":       s.RevenueGrowth.InexactFloat64(),
		"avg_order_value":      s.AvgOrderValue.InexactFloat64(),
		"transaction_count":    s.TransactionCount,
		"cash_flow":            s.CashFlow.InexactFloat64(),
		"profit_margin":        s.ProfitMargin.InexactFloat64(),
		"chargeback_rate":      s.ChargebackRate.InexactFloat64(),
		"refund_rate":          s.RefundRate.InexactFloat64(),
		"payment_failure_rate": s.PaymentFailureRate.InexactFloat64(),
		"risk_score":           s.RiskScore.InexactFloat64(),
		"risk_level":           string(s.RiskLevel),
		"growth_trend":         string(s.GrowthTrend),
		"period_start":         s.PeriodStart.UTC().Format(time.RFC3339),
		"period_end":           s.PeriodEnd.UTC().Format(time.RFC3339),
		"calculated_at":        s.CalculatedAt.UTC().Format(time.RFC3339),
	}
	if s.CreditScore != nil {
		record["credit_score"] = *s.CreditScore
		record["credit_rating"] = s.CreditRating
	}
	return record
}

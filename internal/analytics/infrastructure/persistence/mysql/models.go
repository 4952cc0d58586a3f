// 包 分析服务的 MySQL 持久化实现
package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
)

// TransactionModel 交易表映射。表由支付同步服务维护，本服务只读。
type TransactionModel struct {
	ID        string          `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID    string          `gorm:"column:user_id;type:varchar(36);index;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	Currency  string          `gorm:"column:currency;type:varchar(10);not null"`
	Status    string          `gorm:"column:status;type:varchar(20);index;not null"`
	Type      string          `gorm:"column:transaction_type;type:varchar(20);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;index;not null"`
}

// TableName 指定表名
func (TransactionModel) TableName() string {
	return "transactions"
}

// BusinessMetricsModel 业务指标快照表映射
type BusinessMetricsModel struct {
	gorm.Model
	SnapshotID         string          `gorm:"column:snapshot_id;type:varchar(32);uniqueIndex;not null"`
	UserID             string          `gorm:"column:user_id;type:varchar(36);index;not null"`
	MonthlyRevenue     decimal.Decimal `gorm:"column:monthly_revenue;type:decimal(14,2);not null"`
	PreviousRevenue    decimal.Decimal `gorm:"column:previous_revenue;type:decimal(14,2);not null"`
	RevenueGrowth      decimal.Decimal `gorm:"column:revenue_growth;type:decimal(10,2);not null"`
	AvgOrderValue      decimal.Decimal `gorm:"column:avg_order_value;type:decimal(12,2);not null"`
	TransactionCount   int64           `gorm:"column:transaction_count;not null"`
	CashFlow           decimal.Decimal `gorm:"column:cash_flow;type:decimal(14,2);not null"`
	ProfitMargin       decimal.Decimal `gorm:"column:profit_margin;type:decimal(5,4);not null"`
	ChargebackRate     decimal.Decimal `gorm:"column:chargeback_rate;type:decimal(5,2);not null"`
	RefundRate         decimal.Decimal `gorm:"column:refund_rate;type:decimal(5,2);not null"`
	PaymentFailureRate decimal.Decimal `gorm:"column:payment_failure_rate;type:decimal(5,2);not null"`
	RiskScore          decimal.Decimal `gorm:"column:risk_score;type:decimal(5,2);not null"`
	RiskLevel          string          `gorm:"column:risk_level;type:varchar(10);not null"`
	GrowthTrend        string          `gorm:"column:growth_trend;type:varchar(10);not null"`
	CreditScore        *int            `gorm:"column:credit_score"`
	CreditRating       string          `gorm:"column:credit_rating;type:varchar(20)"`
	PeriodStart        time.Time       `gorm:"column:period_start;not null"`
	PeriodEnd          time.Time       `gorm:"column:period_end;not null"`
	CalculatedAt       time.Time       `gorm:"column:calculated_at;index;not null"`
}

// TableName 指定表名
func (BusinessMetricsModel) TableName() string {
	return "business_metrics"
}

// FinancingOfferModel 融资报价表映射，由融资服务维护，本服务只读
type FinancingOfferModel struct {
	gorm.Model
	UserID       string          `gorm:"column:user_id;type:varchar(36);index;not null"`
	Provider     string          `gorm:"column:provider;type:varchar(64);not null"`
	OfferType    string          `gorm:"column:offer_type;type:varchar(32);not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(14,2);not null"`
	InterestRate decimal.Decimal `gorm:"column:interest_rate;type:decimal(6,4);not null"`
	TermMonths   int             `gorm:"column:term_months;not null"`
	ExpiresAt    time.Time       `gorm:"column:expires_at;index;not null"`
}

// TableName 指定表名
func (FinancingOfferModel) TableName() string {
	return "financing_offers"
}

// LoanApplicationModel 贷款申请表映射，由融资服务维护，本服务只读
type LoanApplicationModel struct {
	gorm.Model
	UserID          string          `gorm:"column:user_id;type:varchar(36);index;not null"`
	Status          string          `gorm:"column:status;type:varchar(20);not null"`
	RequestedAmount decimal.Decimal `gorm:"column:requested_amount;type:decimal(14,2);not null"`
}

// TableName 指定表名
func (LoanApplicationModel) TableName() string {
	return "loan_applications"
}

func toTransactionDomain(m *TransactionModel) *domain.Transaction {
	return &domain.Transaction{
		ID:        m.ID,
		UserID:    m.UserID,
		Amount:    m.Amount,
		Currency:  m.Currency,
		Status:    domain.TransactionStatus(m.Status),
		Type:      domain.TransactionType(m.Type),
		CreatedAt: m.CreatedAt,
	}
}

func toBusinessMetricsModel(s *domain.BusinessMetricsSnapshot) *BusinessMetricsModel {
	return &BusinessMetricsModel{
		SnapshotID:         s.ID,
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
		PeriodStart:        s.PeriodStart,
		PeriodEnd:          s.PeriodEnd,
		CalculatedAt:       s.CalculatedAt,
	}
}

func toSnapshotDomain(m *BusinessMetricsModel) *domain.BusinessMetricsSnapshot {
	return &domain.BusinessMetricsSnapshot{
		ID:                 m.SnapshotID,
		UserID:             m.UserID,
		MonthlyRevenue:     m.MonthlyRevenue,
		PreviousRevenue:    m.PreviousRevenue,
		RevenueGrowth:      m.RevenueGrowth,
		AvgOrderValue:      m.AvgOrderValue,
		TransactionCount:   m.TransactionCount,
		CashFlow:           m.CashFlow,
		ProfitMargin:       m.ProfitMargin,
		ChargebackRate:     m.ChargebackRate,
		RefundRate:         m.RefundRate,
		PaymentFailureRate: m.PaymentFailureRate,
		RiskScore:          m.RiskScore,
		RiskLevel:          domain.RiskLevel(m.RiskLevel),
		GrowthTrend:        domain.TrendLabel(m.GrowthTrend),
		CreditScore:        m.CreditScore,
		CreditRating:       m.CreditRating,
		PeriodStart:        m.PeriodStart,
		PeriodEnd:          m.PeriodEnd,
		CalculatedAt:       m.CalculatedAt,
	}
}

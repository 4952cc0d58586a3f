package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// FinancingOffer 融资报价，由外部融资系统生成，本引擎只读
type FinancingOffer struct {
	Provider     string          `json:"provider"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TermMonths   int             `json:"term_months"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// LoanApplication 贷款申请记录
type LoanApplication struct {
	Status          string          `json:"status"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

// FinancingContext 随快照一并输出的融资上下文。可选增强数据：
// 获取失败只影响本字段，绝不影响核心指标计算。
type FinancingContext struct {
	ActiveOffers []FinancingOffer  `json:"active_offers"`
	Applications []LoanApplication `json:"applications"`
}

// FinancingProvider 融资数据只读接口
type FinancingProvider interface {
	FetchContext(ctx context.Context, userID string) (FinancingContext, error)
}

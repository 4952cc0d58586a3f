package domain

import "github.com/shopspring/decimal"

// 信用评分区间（对齐消费信贷常见的 300-850 量表）
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// 评分等级阈值
const (
	ratingExcellentFloor = 750
	ratingGoodFloor      = 700
	ratingFairFloor      = 650
)

// 各因子的加减分档位
var (
	revenueTier1 = decimal.NewFromInt(50000)
	revenueTier2 = decimal.NewFromInt(10000)
	revenueTier3 = decimal.NewFromInt(1000)

	cashFlowTier1 = decimal.NewFromInt(10000)

	marginTier1 = decimal.NewFromFloat(0.2)
	marginTier2 = decimal.NewFromFloat(0.05)

	failureTier1 = decimal.NewFromFloat(0.1)
	failureTier2 = decimal.NewFromFloat(0.05)
)

// CreditScoreInput 评分输入。金额均为参考币种口径的聚合值；
// FailureRate90d 是 0-1 的比例，不是百分比。
type CreditScoreInput struct {
	MonthlyRevenue decimal.Decimal
	CashFlow       decimal.Decimal
	ProfitMargin   decimal.Decimal
	TxCount90d     int64
	TxVolume90d    decimal.Decimal
	FailureRate90d decimal.Decimal
}

// CreditScoreFactors 参与评分的因子值，随结果返回供审计回溯
type CreditScoreFactors struct {
	Revenue     decimal.Decimal `json:"revenue"`
	CashFlow    decimal.Decimal `json:"cash_flow"`
	TxVolume90d decimal.Decimal `json:"tx_volume_90d"`
	TxCount90d  int64           `json:"tx_count_90d"`
}

// CreditScoreResult 评分结果
type CreditScoreResult struct {
	Score   int
	Rating  string
	Factors CreditScoreFactors
}

// CalculateCreditScore 计算商户信用评分。纯函数：相同输入永远得到相同评分，
// 不读存储、不取当前时间。分数始终落在 [300, 850]。
func CalculateCreditScore(in CreditScoreInput) CreditScoreResult {
	score := MinCreditScore

	switch {
	case in.MonthlyRevenue.GreaterThan(revenueTier1):
		score += 200
	case in.MonthlyRevenue.GreaterThan(revenueTier2):
		score += 100
	case in.MonthlyRevenue.GreaterThan(revenueTier3):
		score += 50
	}

	switch {
	case in.CashFlow.GreaterThan(cashFlowTier1):
		score += 150
	case in.CashFlow.IsPositive():
		score += 75
	}

	switch {
	case in.ProfitMargin.GreaterThan(marginTier1):
		score += 100
	case in.ProfitMargin.GreaterThan(marginTier2):
		score += 50
	}

	switch {
	case in.TxCount90d > 100:
		score += 150
	case in.TxCount90d > 20:
		score += 75
	}

	switch {
	case in.FailureRate90d.GreaterThan(failureTier1):
		score -= 100
	case in.FailureRate90d.GreaterThan(failureTier2):
		score -= 50
	}

	if score < MinCreditScore {
		score = MinCreditScore
	}
	if score > MaxCreditScore {
		score = MaxCreditScore
	}

	return CreditScoreResult{
		Score:  score,
		Rating: classifyRating(score),
		Factors: CreditScoreFactors{
			Revenue:     in.MonthlyRevenue,
			CashFlow:    in.CashFlow,
			TxVolume90d: in.TxVolume90d,
			TxCount90d:  in.TxCount90d,
		},
	}
}

func classifyRating(score int) string {
	switch {
	case score >= ratingExcellentFloor:
		return "Excellent"
	case score >= ratingGoodFloor:
		return "Good"
	case score >= ratingFairFloor:
		return "Fair"
	default:
		return "Poor"
	}
}

package domain

import "github.com/shopspring/decimal"

// 风险评分权重与分级阈值。退款比失败权重更高：退款通常意味着履约纠纷。
var (
	failureWeight = decimal.NewFromInt(2)
	refundWeight  = decimal.NewFromInt(3)

	riskScoreCap        = decimal.NewFromInt(100)
	riskLowThreshold    = decimal.NewFromInt(20)
	riskMediumThreshold = decimal.NewFromInt(40)
)

// RiskCalculator 交易风险计算服务。以窗口内全部交易为分母统计失败率与退款率，
// 合成有界风险评分并分级。纯计算，金额与币种无关。
type RiskCalculator struct{}

// NewRiskCalculator 创建风险计算服务
func NewRiskCalculator() *RiskCalculator {
	return &RiskCalculator{}
}

// Calculate 计算窗口内的风险指标。窗口内无交易时各项为零、等级 low。
func (c *RiskCalculator) Calculate(txs []*Transaction, window MetricsWindow) RiskMetrics {
	var total, failed, refunded int64
	for _, t := range txs {
		if !window.Contains(t.CreatedAt) {
			continue
		}
		total++
		if t.Status == StatusFailed {
			failed++
		}
		if t.Type == TypeRefund {
			refunded++
		}
	}

	if total == 0 {
		return RiskMetrics{RiskLevel: RiskLevelLow}
	}

	hundred := decimal.NewFromInt(100)
	denom := decimal.NewFromInt(total)
	failureRate := decimal.NewFromInt(failed).Div(denom).Mul(hundred)
	refundRate := decimal.NewFromInt(refunded).Div(denom).Mul(hundred)

	score := failureRate.Mul(failureWeight).Add(refundRate.Mul(refundWeight))
	if score.GreaterThan(riskScoreCap) {
		score = riskScoreCap
	}

	return RiskMetrics{
		FailureRate:   failureRate,
		RefundRate:    refundRate,
		RiskScore:     score,
		RiskLevel:     classifyRisk(score),
		TotalAnalyzed: total,
	}
}

func classifyRisk(score decimal.Decimal) RiskLevel {
	switch {
	case score.LessThanOrEqual(riskLowThreshold):
		return RiskLevelLow
	case score.LessThanOrEqual(riskMediumThreshold):
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

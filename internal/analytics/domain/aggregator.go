package domain

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// PeriodAggregator 周期聚合服务。对窗口内的交易按币种分组折算后汇总，
// 计算营收、环比增长和平均客单价。纯计算，不依赖存储。
type PeriodAggregator struct {
	normalizer *CurrencyNormalizer
	logger     *slog.Logger
}

// NewPeriodAggregator 创建周期聚合服务
func NewPeriodAggregator(normalizer *CurrencyNormalizer, logger *slog.Logger) *PeriodAggregator {
	return &PeriodAggregator{normalizer: normalizer, logger: logger}
}

// QualifiesForRevenue 营收口径：已结算且类型为 payment。退款与订阅不计入营收。
func QualifiesForRevenue(t *Transaction) bool {
	return t.IsSettled() && t.Type == TypePayment
}

// Aggregate 计算窗口内的营收指标。输入交易可以超出窗口范围，内部按窗口过滤；
// 紧邻的等长前一窗口用于环比。
func (a *PeriodAggregator) Aggregate(txs []*Transaction, window MetricsWindow) RevenueMetrics {
	previous := window.Previous()

	currentByCurrency := make(map[string]decimal.Decimal)
	previousByCurrency := make(map[string]decimal.Decimal)
	var count int64

	for _, t := range txs {
		if !QualifiesForRevenue(t) {
			continue
		}
		if t.CreatedAt.IsZero() {
			a.logger.Warn("transaction without timestamp excluded from revenue",
				"transaction_id", t.ID,
				"user_id", t.UserID,
			)
			continue
		}
		switch {
		case window.Contains(t.CreatedAt):
			currentByCurrency[t.Currency] = currentByCurrency[t.Currency].Add(t.Amount)
			count++
		case previous.Contains(t.CreatedAt):
			previousByCurrency[t.Currency] = previousByCurrency[t.Currency].Add(t.Amount)
		}
	}

	total := a.normalizeSums(currentByCurrency)
	prevTotal := a.normalizeSums(previousByCurrency)

	// 前期为零时增长率定义为 0，避免除零
	growth := decimal.Zero
	if prevTotal.IsPositive() {
		growth = total.Sub(prevTotal).Div(prevTotal).Mul(decimal.NewFromInt(100))
	}

	avg := decimal.Zero
	if count > 0 {
		avg = total.Div(decimal.NewFromInt(count))
	}

	return RevenueMetrics{
		TotalRevenue:            total,
		PreviousRevenue:         prevTotal,
		GrowthPercent:           growth,
		AverageTransactionValue: avg,
		TransactionCount:        count,
	}
}

// CashFlow 计算窗口内的现金流：所有已结算交易（不限类型）折算后求和
func (a *PeriodAggregator) CashFlow(txs []*Transaction, window MetricsWindow) decimal.Decimal {
	byCurrency := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if !t.IsSettled() || !window.Contains(t.CreatedAt) {
			continue
		}
		byCurrency[t.Currency] = byCurrency[t.Currency].Add(t.Amount)
	}
	return a.normalizeSums(byCurrency)
}

// TotalVolume 计算窗口内全部交易的折算总额，不过滤状态与类型。
// 供评分因子回溯使用，口径是流水规模而非已结算现金。
func (a *PeriodAggregator) TotalVolume(txs []*Transaction, window MetricsWindow) decimal.Decimal {
	byCurrency := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if !window.Contains(t.CreatedAt) {
			continue
		}
		byCurrency[t.Currency] = byCurrency[t.Currency].Add(t.Amount)
	}
	return a.normalizeSums(byCurrency)
}

func (a *PeriodAggregator) normalizeSums(byCurrency map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for currency, sum := range byCurrency {
		total = total.Add(a.normalizer.Normalize(sum, currency))
	}
	return total
}

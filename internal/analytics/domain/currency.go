package domain

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// ReferenceCurrency 所有指标统一折算的参考币种
const ReferenceCurrency = "USD"

// CurrencyNormalizer 把多币种金额折算为参考币种。
// 汇率为静态配置而非实时行情：牺牲时效换取可复算、可审计的确定性。
type CurrencyNormalizer struct {
	rates  map[string]decimal.Decimal
	logger *slog.Logger
}

// NewCurrencyNormalizer 创建币种折算器
func NewCurrencyNormalizer(logger *slog.Logger) *CurrencyNormalizer {
	return &CurrencyNormalizer{
		rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromFloat(1.0),
			"EUR": decimal.NewFromFloat(1.05),
			"ZMW": decimal.NewFromFloat(0.037),
			"GBP": decimal.NewFromFloat(1.25),
			"CAD": decimal.NewFromFloat(0.74),
		},
		logger: logger,
	}
}

// Rate 返回币种对参考币种的汇率。未知币种按 1.0 处理并记录数据质量告警，绝不中断计算。
func (n *CurrencyNormalizer) Rate(currency string) decimal.Decimal {
	if rate, ok := n.rates[currency]; ok {
		return rate
	}
	n.logger.Warn("unknown currency code, assuming parity with reference currency",
		"currency", currency,
		"reference", ReferenceCurrency,
	)
	return decimal.NewFromInt(1)
}

// Normalize 把金额折算为参考币种
func (n *CurrencyNormalizer) Normalize(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Mul(n.Rate(currency))
}

package domain

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// 趋势判定系数：近两月均值相对更早月份均值上浮 10% 判 growing，下探 10% 判 declining
const (
	trendGrowthFactor  = 1.1
	trendDeclineFactor = 0.9
)

// GrowthAnalyzer 增长趋势分析服务。把回看期内的营收按自然月（UTC）分桶，
// 用近两月均值与更早月份均值的比值判定趋势。
type GrowthAnalyzer struct {
	normalizer *CurrencyNormalizer
}

// NewGrowthAnalyzer 创建增长趋势分析服务
func NewGrowthAnalyzer(normalizer *CurrencyNormalizer) *GrowthAnalyzer {
	return &GrowthAnalyzer{normalizer: normalizer}
}

// Analyze 计算窗口内的月度营收序列与趋势。桶按时间升序；不足两个月时趋势为 stable。
func (a *GrowthAnalyzer) Analyze(txs []*Transaction, window MetricsWindow) GrowthTrend {
	buckets := make(map[time.Time]decimal.Decimal)
	for _, t := range txs {
		if !QualifiesForRevenue(t) || !window.Contains(t.CreatedAt) {
			continue
		}
		utc := t.CreatedAt.UTC()
		month := time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
		buckets[month] = buckets[month].Add(a.normalizer.Normalize(t.Amount, t.Currency))
	}

	months := make([]time.Time, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	monthly := make([]MonthlyRevenue, 0, len(months))
	values := make([]float64, 0, len(months))
	for _, m := range months {
		monthly = append(monthly, MonthlyRevenue{Month: m, Revenue: buckets[m]})
		values = append(values, buckets[m].InexactFloat64())
	}

	return GrowthTrend{Monthly: monthly, Trend: classifyTrend(values)}
}

func classifyTrend(values []float64) TrendLabel {
	if len(values) < 2 {
		return TrendStable
	}

	recent, err := stats.Mean(values[len(values)-2:])
	if err != nil {
		return TrendStable
	}

	older := 0.0
	if len(values) > 2 {
		older, err = stats.Mean(values[:len(values)-2])
		if err != nil {
			return TrendStable
		}
	}

	switch {
	case older > 0 && recent > older*trendGrowthFactor:
		return TrendGrowing
	case older > 0 && recent < older*trendDeclineFactor:
		return TrendDeclining
	default:
		return TrendStable
	}
}

package engine

import (
	"sort"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// MEASURES — Metric keys and ratio derivation
// ============================================================================
// derive is the only place ratios are computed. It always divides two sums
// that have already been accumulated for the whole group.
// ============================================================================

// Metric keys accepted by Rank, SortGroups and Group.Metric.
const (
	MetricOrderCount         = "order_count"
	MetricGMV                = "gmv"
	MetricFreight            = "freight_value"
	MetricCategoryGMV        = "category_gmv"
	MetricContributionMargin = "contribution_margin"
	MetricReviewCount        = "review_count"
	MetricItemCount          = "item_count"

	MetricAOV             = "aov"
	MetricOnTimeRate      = "on_time_rate"
	MetricSevereDelayRate = "severe_delay_rate"
	MetricAvgDeliveryDays = "avg_delivery_days"
	MetricAvgDelayDays    = "avg_delay_days"
	MetricFreightToGMV    = "freight_to_gmv"
	MetricAvgReviewScore  = "avg_review_score"
	MetricOneStarRate     = "one_star_rate"
	MetricLowScoreRate    = "low_score_rate"
	MetricAvgItemPrice    = "avg_item_price"
	MetricMarginRate      = "margin_rate"
	MetricOrderShare      = "order_share"
)

var measureGetters = map[string]func(facts.Measures) float64{
	MetricOrderCount:         func(m facts.Measures) float64 { return m.OrderCount },
	MetricGMV:                func(m facts.Measures) float64 { return m.GMV },
	MetricFreight:            func(m facts.Measures) float64 { return m.Freight },
	MetricCategoryGMV:        func(m facts.Measures) float64 { return m.CategoryGMV },
	MetricContributionMargin: func(m facts.Measures) float64 { return m.ContributionMargin },
	MetricReviewCount:        func(m facts.Measures) float64 { return m.ReviewCount },
	MetricItemCount:          func(m facts.Measures) float64 { return m.ItemCount },
}

var ratioGetters = map[string]func(Metrics) Figure{
	MetricAOV:             func(m Metrics) Figure { return m.AOV },
	MetricOnTimeRate:      func(m Metrics) Figure { return m.OnTimeRate },
	MetricSevereDelayRate: func(m Metrics) Figure { return m.SevereDelayRate },
	MetricAvgDeliveryDays: func(m Metrics) Figure { return m.AvgDeliveryDays },
	MetricAvgDelayDays:    func(m Metrics) Figure { return m.AvgDelayDays },
	MetricFreightToGMV:    func(m Metrics) Figure { return m.FreightToGMV },
	MetricAvgReviewScore:  func(m Metrics) Figure { return m.AvgReviewScore },
	MetricOneStarRate:     func(m Metrics) Figure { return m.OneStarRate },
	MetricLowScoreRate:    func(m Metrics) Figure { return m.LowScoreRate },
	MetricAvgItemPrice:    func(m Metrics) Figure { return m.AvgItemPrice },
	MetricMarginRate:      func(m Metrics) Figure { return m.MarginRate },
	MetricOrderShare:      func(m Metrics) Figure { return m.OrderShare },
}

// Metric returns a summed measure or derived ratio by key. Unknown keys
// are N/A.
func (g Group) Metric(key string) Figure {
	if get, ok := measureGetters[key]; ok {
		return Avail(get(g.Measures))
	}
	if get, ok := ratioGetters[key]; ok {
		return get(g.Metrics)
	}
	return NA()
}

// IsMetric reports whether key names a known metric.
func IsMetric(key string) bool {
	_, m := measureGetters[key]
	_, r := ratioGetters[key]
	return m || r
}

// MetricKeys returns every known metric key, sorted.
func MetricKeys() []string {
	keys := make([]string, 0, len(measureGetters)+len(ratioGetters))
	for k := range measureGetters {
		keys = append(keys, k)
	}
	for k := range ratioGetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// derive computes every ratio from accumulated sums. OrderShare needs the
// grand total and is filled in by the report that knows it.
func derive(m facts.Measures) Metrics {
	return Metrics{
		AOV:             Divide(m.GMV, m.OrderCount),
		OnTimeRate:      Divide(m.OrderCount-m.LateCount, m.OrderCount),
		SevereDelayRate: Divide(m.SevereDelayCount, m.OrderCount),
		AvgDeliveryDays: Divide(m.DeliveryDaysSum, m.DeliveryDaysCount),
		AvgDelayDays:    Divide(m.DelayDaysSum, m.DelayDaysCount),
		FreightToGMV:    Divide(m.Freight, m.GMV),
		AvgReviewScore:  Divide(m.ReviewScoreSum, m.ReviewCount),
		OneStarRate:     Divide(m.OneStarCount, m.ReviewCount),
		LowScoreRate:    Divide(m.LowScoreCount, m.ReviewCount),
		AvgItemPrice:    Divide(m.CategoryGMV, m.ItemCount),
		MarginRate:      Divide(m.ContributionMargin, m.CategoryGMV),
		OrderShare:      NA(),
	}
}

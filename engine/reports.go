package engine

import (
	"sort"
	"strconv"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// REPORTS — One function per report panel
// ============================================================================
// Every report is GroupBy with a key function plus an explicit sort. Inputs
// are already filtered; outputs are never nil.
// ============================================================================

// StateBreakdown groups orders by customer state, worst severe delay first.
func StateBreakdown(rows []facts.OrderFact) []Group {
	groups := GroupBy(rows, func(r facts.OrderFact) string { return r.State })
	SortGroups(groups, SortSevereDelayDesc)
	return groups
}

// PaymentMix groups orders by payment type with each type's order share.
func PaymentMix(rows []facts.OrderFact) []Group {
	groups := GroupBy(rows, func(r facts.OrderFact) string { return r.PaymentType })
	var total float64
	for _, g := range groups {
		total += g.Measures.OrderCount
	}
	for i := range groups {
		groups[i].Metrics.OrderShare = Divide(groups[i].Measures.OrderCount, total)
	}
	SortGroups(groups, SortOrdersDesc)
	return groups
}

// CategoryPerformance groups category rows by category, highest GMV first.
func CategoryPerformance(rows []facts.CategoryFact) []Group {
	groups := GroupBy(rows, func(r facts.CategoryFact) string { return r.Category })
	SortGroups(groups, SortCategoryGMVDesc)
	return groups
}

// DelayImpact groups delay-bucket rows in fixed bucket order.
func DelayImpact(rows []facts.DelayBucketFact) []Group {
	groups := GroupBy(rows, func(r facts.DelayBucketFact) string { return r.DelayBucket })
	SortGroups(groups, SortDelayBucket)
	return groups
}

// ReviewDistribution groups review-score rows by score, ascending.
func ReviewDistribution(rows []facts.ReviewScoreFact) []Group {
	groups := GroupBy(rows, func(r facts.ReviewScoreFact) string { return strconv.Itoa(r.ReviewScore) })
	SortGroups(groups, SortScoreAsc)
	return groups
}

// StatePayment groups orders by (state, payment type), highest low-score
// rate first.
func StatePayment(rows []facts.OrderFact) []Group {
	groups := GroupBy(rows, func(r facts.OrderFact) string { return CompositeKey(r.State, r.PaymentType) })
	SortGroups(groups, SortLowScoreDesc)
	return groups
}

// StateCategory groups category rows by (state, category), highest GMV first.
func StateCategory(rows []facts.CategoryFact) []Group {
	groups := GroupBy(rows, func(r facts.CategoryFact) string { return CompositeKey(r.State, r.Category) })
	SortGroups(groups, SortCategoryGMVDesc)
	return groups
}

// CategoryByState slices a state×category matrix to one category, keyed by
// state.
func CategoryByState(matrix []Group, category string) []Group {
	return slice(matrix, 1, category, 0)
}

// StateByCategory slices a state×category matrix to one state, keyed by
// category.
func StateByCategory(matrix []Group, state string) []Group {
	return slice(matrix, 0, state, 1)
}

// slice keeps the composite groups whose part at match equals value and
// re-keys them by the part at keep. Order is preserved.
func slice(matrix []Group, match int, value string, keep int) []Group {
	out := make([]Group, 0)
	if value == "" {
		return out
	}
	for _, g := range matrix {
		if len(g.Parts) != 2 || g.Parts[match] != value {
			continue
		}
		g.Key = g.Parts[keep]
		g.Label = g.Key
		g.Parts = nil
		out = append(out, g)
	}
	return out
}

// SellerRisk groups the orders of one customer state by seller state,
// highest severe delay rate first.
func SellerRisk(rows []facts.OrderFact, state string) []Group {
	if state == "" {
		return make([]Group, 0)
	}
	scoped := Where(rows, func(r facts.OrderFact) bool { return r.State == state })
	groups := GroupBy(scoped, func(r facts.OrderFact) string { return r.SellerState })
	SortGroups(groups, SortSevereDelayDesc)
	return groups
}

// CellOrders returns the order-level rows of one (state, payment) cell,
// longest delay first, undelivered or on-time orders without a delay last.
// limit <= 0 returns every row.
func CellOrders(rows []facts.OrderDetail, cell Cell, limit int) []facts.OrderDetail {
	if cell.IsZero() {
		return make([]facts.OrderDetail, 0)
	}
	out := Where(rows, func(r facts.OrderDetail) bool {
		return r.State == cell.State && r.PaymentType == cell.PaymentType
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DelayDays, out[j].DelayDays
		if (a == nil) != (b == nil) {
			return a != nil
		}
		if a != nil && *a != *b {
			return *a > *b
		}
		return out[i].OrderID < out[j].OrderID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GeoBottlenecks joins state aggregates with their centroids. States
// without coordinates are dropped.
func GeoBottlenecks(states []Group, geo func(string) (facts.StateGeo, bool)) []GeoPoint {
	out := make([]GeoPoint, 0, len(states))
	for _, g := range states {
		loc, ok := geo(g.Key)
		if !ok {
			continue
		}
		out = append(out, GeoPoint{Group: g, Lat: loc.Lat, Lng: loc.Lng})
	}
	return out
}

// CSATInsight compares the one-star rate of orders delayed over five days
// with on-time or early ones.
func CSATInsight(delayImpact []Group) Insight {
	in := Insight{LateOneStarRate: NA(), OnTimeOneStarRate: NA(), Lift: NA()}
	if g, ok := Find(delayImpact, facts.BucketLateOver5); ok {
		in.LateOneStarRate = g.Metrics.OneStarRate
	}
	if g, ok := Find(delayImpact, facts.BucketOnTime); ok {
		in.OnTimeOneStarRate = g.Metrics.OneStarRate
	}
	if in.LateOneStarRate.OK && in.OnTimeOneStarRate.OK {
		in.Lift = Divide(in.LateOneStarRate.Value, in.OnTimeOneStarRate.Value)
	}
	return in
}

// ============================================================================
// SUMMARIES
// ============================================================================
// An empty input table makes every figure N/A, never zero.
// ============================================================================

// SummarizeExecutive computes the commercial headline figures.
func SummarizeExecutive(rows []facts.OrderFact, periods []Group) ExecutiveSummary {
	if len(rows) == 0 {
		return ExecutiveSummary{TotalGMV: NA(), TotalOrders: NA(), AOV: NA(), YoYOrderGrowth: NA()}
	}
	t := Total(rows)
	yoy := YearOverYear(periods)
	return ExecutiveSummary{
		TotalGMV:       Avail(t.Measures.GMV),
		TotalOrders:    Avail(t.Measures.OrderCount),
		AOV:            t.Metrics.AOV,
		YoYOrderGrowth: yoy.Growth,
		YoYPeriod:      yoy.Period,
	}
}

// SummarizeOperations computes the logistics headline figures.
func SummarizeOperations(rows []facts.OrderFact) OperationsSummary {
	if len(rows) == 0 {
		return OperationsSummary{AvgDeliveryDays: NA(), OnTimeRate: NA(), SevereDelayRate: NA(), FreightToGMV: NA()}
	}
	m := Total(rows).Metrics
	return OperationsSummary{
		AvgDeliveryDays: m.AvgDeliveryDays,
		OnTimeRate:      m.OnTimeRate,
		SevereDelayRate: m.SevereDelayRate,
		FreightToGMV:    m.FreightToGMV,
	}
}

// SummarizeSatisfaction computes the sentiment headline figures.
func SummarizeSatisfaction(rows []facts.OrderFact) SatisfactionSummary {
	if len(rows) == 0 {
		return SatisfactionSummary{AvgReviewScore: NA(), OneStarRate: NA(), LowScoreRate: NA()}
	}
	m := Total(rows).Metrics
	return SatisfactionSummary{
		AvgReviewScore: m.AvgReviewScore,
		OneStarRate:    m.OneStarRate,
		LowScoreRate:   m.LowScoreRate,
	}
}

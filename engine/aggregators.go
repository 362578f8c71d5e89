package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting
// ============================================================================
// Pipeline: one pass to accumulate additive measures per key, then one pass
// over the accumulators to derive ratios. Groups come out in first-seen
// order; each report sorts explicitly afterwards.
// ============================================================================

// GroupBy accumulates rows by key and derives metrics once per group.
// The result is never nil.
func GroupBy[R facts.Row](rows []R, key func(R) string) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)

	for _, r := range rows {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, newGroup(k))
		}
		groups[i].Measures.Add(r.Measures())
	}

	for i := range groups {
		groups[i].Metrics = derive(groups[i].Measures)
	}
	return groups
}

// Total sums every row into a single group.
func Total[R facts.Row](rows []R) Group {
	g := Group{Key: "all", Label: "Total"}
	for _, r := range rows {
		g.Measures.Add(r.Measures())
	}
	g.Metrics = derive(g.Measures)
	return g
}

func newGroup(key string) Group {
	g := Group{Key: key, Label: key}
	if strings.Contains(key, facts.KeySeparator) {
		g.Parts = SplitKey(key)
		g.Label = strings.Join(g.Parts, " / ")
	}
	return g
}

// CompositeKey joins dimension values into one group key.
func CompositeKey(parts ...string) string {
	return strings.Join(parts, facts.KeySeparator)
}

// SplitKey is the inverse of CompositeKey.
func SplitKey(key string) []string {
	return strings.Split(key, facts.KeySeparator)
}

// ============================================================================
// SORTING
// ============================================================================

// Sort modes understood by SortGroups.
const (
	SortChronological   = "chronological"     // key ascending; period keys are ISO dates
	SortCategoryGMVDesc = "category_gmv_desc" // category gmv, highest first
	SortOrdersDesc      = "orders_desc"       // order count, highest first
	SortDelayBucket     = "delay_bucket"      // fixed bucket order, unknown buckets last
	SortScoreAsc        = "score_asc"         // numeric key ascending
	SortSevereDelayDesc = "severe_delay_desc" // severe delay rate, highest first
	SortLowScoreDesc    = "low_score_desc"    // low score rate, highest first
)

// SortGroups sorts groups in place by the given mode. Ties and N/A values
// are ordered deterministically: N/A last, then by key.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case SortChronological:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	case SortCategoryGMVDesc:
		sortByMetricDesc(groups, MetricCategoryGMV)
	case SortOrdersDesc:
		sortByMetricDesc(groups, MetricOrderCount)
	case SortSevereDelayDesc:
		sortByMetricDesc(groups, MetricSevereDelayRate)
	case SortLowScoreDesc:
		sortByMetricDesc(groups, MetricLowScoreRate)
	case SortDelayBucket:
		sort.SliceStable(groups, func(i, j int) bool {
			ri, rj := bucketRank(groups[i].Key), bucketRank(groups[j].Key)
			if ri != rj {
				return ri < rj
			}
			return groups[i].Key < groups[j].Key
		})
	case SortScoreAsc:
		sort.SliceStable(groups, func(i, j int) bool {
			ni, ei := strconv.Atoi(groups[i].Key)
			nj, ej := strconv.Atoi(groups[j].Key)
			if ei == nil && ej == nil {
				return ni < nj
			}
			return groups[i].Key < groups[j].Key
		})
	default:
		// preserve grouping order
	}
}

func sortByMetricDesc(groups []Group, metric string) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, aok := groups[i].Metric(metric).Float()
		b, bok := groups[j].Metric(metric).Float()
		if aok != bok {
			return aok
		}
		if aok && a != b {
			return a > b
		}
		return groups[i].Key < groups[j].Key
	})
}

func bucketRank(bucket string) int {
	for i, b := range facts.DelayBucketOrder {
		if b == bucket {
			return i
		}
	}
	return len(facts.DelayBucketOrder)
}

// ============================================================================
// UTILITIES
// ============================================================================

// Keys returns the group keys in order.
func Keys(groups []Group) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

// Find returns the group with the given key.
func Find(groups []Group, key string) (Group, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

package engine

import (
	"time"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// TEMPORAL — Period keys, labels and year-over-year growth
// ============================================================================
// Period keys are always full YYYY-MM-DD dates (first day of the month or
// year for coarser grains) so they sort chronologically as strings.
// ============================================================================

// TruncateDate maps a date key to its period key at the given grain.
// Malformed dates are returned unchanged.
func TruncateDate(date string, grain Grain) string {
	t, err := time.Parse(facts.DateLayout, date)
	if err != nil {
		return date
	}
	switch grain {
	case GrainYear:
		t = time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case GrainMonth:
		t = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return t.Format(facts.DateLayout)
}

// PeriodLabel formats a period key for display: the date for day grain,
// YYYY-MM for month grain and YYYY for year grain.
func PeriodLabel(key string, grain Grain) string {
	t, err := time.Parse(facts.DateLayout, key)
	if err != nil {
		return key
	}
	switch grain {
	case GrainYear:
		return t.Format("2006")
	case GrainMonth:
		return t.Format("2006-01")
	default:
		return key
	}
}

// PriorYearKey returns the key one calendar year before key. Feb 29 rolls
// forward to Mar 1 of the prior year.
func PriorYearKey(key string) (string, bool) {
	t, err := time.Parse(facts.DateLayout, key)
	if err != nil {
		return "", false
	}
	prior := time.Date(t.Year()-1, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return prior.Format(facts.DateLayout), true
}

// YoY is a year-over-year comparison of order counts.
type YoY struct {
	Growth Figure `json:"growth"`
	Period string `json:"period,omitempty"` // current period key
	Prior  string `json:"prior,omitempty"`  // prior period key
}

// YearOverYear scans a chronological period series from the latest period
// backwards and returns the growth of the first period whose prior-year
// period exists with a positive order count. A partly populated latest
// period therefore does not hide an earlier comparable pair.
func YearOverYear(series []Group) YoY {
	orders := make(map[string]float64, len(series))
	for _, g := range series {
		orders[g.Key] = g.Measures.OrderCount
	}

	for i := len(series) - 1; i >= 0; i-- {
		cur := series[i]
		priorKey, ok := PriorYearKey(cur.Key)
		if !ok {
			continue
		}
		prior, ok := orders[priorKey]
		if !ok || prior <= 0 {
			continue
		}
		return YoY{
			Growth: Divide(cur.Measures.OrderCount-prior, prior),
			Period: cur.Key,
			Prior:  priorKey,
		}
	}
	return YoY{Growth: NA()}
}

// PeriodSeries groups rows into chronological periods at the given grain.
func PeriodSeries[R facts.Row](rows []R, grain Grain) []Group {
	groups := GroupBy(rows, func(r R) string { return TruncateDate(r.Dims().Date, grain) })
	SortGroups(groups, SortChronological)
	for i := range groups {
		groups[i].Label = PeriodLabel(groups[i].Key, grain)
	}
	return groups
}

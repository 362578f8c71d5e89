package engine

import (
	"math"
)

// ============================================================================
// TEXT BUILDER — Produces a headline TextData for the active view
// ============================================================================
// The headline is the view's lead figure over the whole filtered range plus
// the change of that metric between the first and last available period.
// ============================================================================

// Trend directions.
const (
	TrendIncreased    = "increased"
	TrendDecreased    = "decreased"
	TrendUnchanged    = "unchanged"
	TrendInsufficient = "insufficient data"
)

// trendTolerance is the relative change below which a trend is unchanged.
const trendTolerance = 0.005

// TextData is a single-figure headline.
type TextData struct {
	Metric   string      `json:"metric"`
	Label    string      `json:"label"`
	Value    string      `json:"value"`
	RawValue Figure      `json:"raw_value"`
	Period   string      `json:"period"`
	Count    int         `json:"count"` // orders behind the figure
	Growth   *GrowthData `json:"growth,omitempty"`
}

// GrowthData compares the first and last period of a series.
type GrowthData struct {
	EarliestValue  Figure `json:"earliest_value"`
	LatestValue    Figure `json:"latest_value"`
	EarliestPeriod string `json:"earliest_period"`
	LatestPeriod   string `json:"latest_period"`
	ChangeAmount   Figure `json:"change_amount"`
	ChangePercent  Figure `json:"change_percent"` // fraction, N/A from a zero base
	Direction      string `json:"direction"`
	Display        string `json:"display"`
}

// headline metric per view
var viewHeadlines = map[string]string{
	ViewExecutive:    MetricGMV,
	ViewOperations:   MetricOnTimeRate,
	ViewSatisfaction: MetricAvgReviewScore,
}

// BuildText produces the headline of vm's active view.
func BuildText(vm *ViewModel, f *Formatter) *TextData {
	metric, ok := viewHeadlines[vm.View]
	if !ok {
		metric = MetricGMV
	}

	var value Figure
	switch metric {
	case MetricOnTimeRate:
		value = vm.Operations.Summary.OnTimeRate
	case MetricAvgReviewScore:
		value = vm.Satisfaction.Summary.AvgReviewScore
	default:
		value = vm.Executive.Summary.TotalGMV
	}

	count := 0
	if n, ok := vm.Executive.Summary.TotalOrders.Float(); ok {
		count = int(n)
	}

	return &TextData{
		Metric:   metric,
		Label:    LabelForMetric(metric),
		Value:    f.Format(value, columnType(metric)),
		RawValue: value,
		Period:   DerivePeriod(vm.Executive.Periods),
		Count:    count,
		Growth:   BuildGrowth(vm.Executive.Periods, metric, f),
	}
}

// BuildGrowth compares the first and last periods in which metric is
// available.
func BuildGrowth(periods []Group, metric string, f *Formatter) *GrowthData {
	var points []Group
	for _, g := range periods {
		if g.Metric(metric).OK {
			points = append(points, g)
		}
	}

	// Need at least 2 periods with data
	if len(points) < 2 {
		g := &GrowthData{
			EarliestValue: NA(),
			LatestValue:   NA(),
			ChangeAmount:  NA(),
			ChangePercent: NA(),
			Direction:     TrendInsufficient,
			Display:       "→ No trend",
		}
		if len(points) == 1 {
			g.EarliestValue = points[0].Metric(metric)
			g.LatestValue = g.EarliestValue
			g.EarliestPeriod = points[0].Label
			g.LatestPeriod = points[0].Label
		}
		return g
	}

	earliest := points[0]
	latest := points[len(points)-1]
	from, _ := earliest.Metric(metric).Float()
	to, _ := latest.Metric(metric).Float()

	change := to - from
	percent := Divide(change, math.Abs(from))

	direction := TrendUnchanged
	switch {
	case percent.OK && percent.Value > trendTolerance:
		direction = TrendIncreased
	case percent.OK && percent.Value < -trendTolerance:
		direction = TrendDecreased
	case !percent.OK && change > 0:
		direction = TrendIncreased
	case !percent.OK && change < 0:
		direction = TrendDecreased
	}

	var display string
	switch {
	case direction == TrendUnchanged:
		display = "→ No change"
	case !percent.OK:
		display = arrow(direction) + " from zero"
	default:
		display = arrow(direction) + " " + f.Format(Avail(math.Abs(percent.Value)), "percent")
	}

	return &GrowthData{
		EarliestValue:  Avail(from),
		LatestValue:    Avail(to),
		EarliestPeriod: earliest.Label,
		LatestPeriod:   latest.Label,
		ChangeAmount:   Avail(change),
		ChangePercent:  percent,
		Direction:      direction,
		Display:        display,
	}
}

func arrow(direction string) string {
	if direction == TrendDecreased {
		return "↓"
	}
	return "↑"
}

// ============================================================================
// PERIOD HELPER
// ============================================================================

// DerivePeriod builds a human-readable range from a chronological series.
func DerivePeriod(periods []Group) string {
	switch len(periods) {
	case 0:
		return "No data"
	case 1:
		return periods[0].Label
	}
	return periods[0].Label + " – " + periods[len(periods)-1].Label
}

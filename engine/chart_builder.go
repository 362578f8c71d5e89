package engine

import (
	"fmt"
	"math"
	"sort"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from one ViewModel panel
// ============================================================================
// Each panel has a fixed chart type and plotted metric. The state/payment
// heatmap is the only multi-series chart: one series per payment type, one
// point per state.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// ChartConfig is a render-ready chart description.
type ChartConfig struct {
	ChartType  string        `json:"chart_type"` // "line", "bar", "pie", "heatmap"
	Title      string        `json:"title"`
	Metric     string        `json:"metric"`
	XAxis      string        `json:"x_axis"`
	YAxis      string        `json:"y_axis"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors"`
	Selected   string        `json:"selected,omitempty"` // label of the resolved facet, if plotted
	ShowLegend bool          `json:"show_legend"`
	ShowGrid   bool          `json:"show_grid"`
}

// ChartSeries is one named line, bar set or heatmap row.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is one labelled value. N/A points marshal as null.
type ChartPoint struct {
	Label string `json:"label"`
	Value Figure `json:"value"`
}

type chartSpec struct {
	chartType string
	metric    string
}

var panelCharts = map[string]chartSpec{
	TablePeriods:            {"line", MetricGMV},
	TablePaymentMix:         {"pie", MetricOrderCount},
	TableCategories:         {"bar", MetricCategoryGMV},
	TableStates:             {"bar", MetricSevereDelayRate},
	TableCells:              {"bar", MetricLowScoreRate},
	TableStatePayment:       {"heatmap", MetricAvgReviewScore},
	TableDelayImpact:        {"bar", MetricOneStarRate},
	TableReviewDistribution: {"bar", MetricReviewCount},
	TableCategoryByState:    {"bar", MetricCategoryGMV},
	TableStateByCategory:    {"bar", MetricCategoryGMV},
	TableSellerRisk:         {"bar", MetricSevereDelayRate},
}

// ChartPanels lists every panel BuildChart accepts.
var ChartPanels = []string{
	TablePeriods, TablePaymentMix, TableCategories, TableStates, TableCells,
	TableStatePayment, TableDelayImpact, TableReviewDistribution,
	TableCategoryByState, TableStateByCategory, TableSellerRisk,
}

// BuildChart produces a ChartConfig for a panel of vm. An empty metric
// plots the panel's default metric.
func BuildChart(vm *ViewModel, panel, metric string) (*ChartConfig, error) {
	spec, ok := panelCharts[panel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPanel, panel)
	}
	if metric == "" {
		metric = spec.metric
	}
	if !IsMetric(metric) {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}
	groups, _ := panelGroups(vm, panel)

	config := &ChartConfig{
		ChartType:  spec.chartType,
		Title:      LabelForMetric(panel),
		Metric:     metric,
		XAxis:      panelDimension[panel],
		YAxis:      LabelForMetric(metric),
		Selected:   selectedLabel(vm, panel),
		ShowLegend: true,
		ShowGrid:   spec.chartType != "pie",
	}

	if spec.chartType == "heatmap" {
		config.XAxis = "State"
		config.Series = buildMultiSeries(groups, metric)
	} else {
		config.Series = buildSingleSeries(groups, metric, LabelForMetric(metric))
	}

	config.Colors = assignColors(len(config.Series))
	return config, nil
}

// selectedLabel returns the label of the facet a ranked panel highlights.
func selectedLabel(vm *ViewModel, panel string) string {
	switch panel {
	case TableCategories:
		return vm.Selection.Category.Value
	case TableStates:
		return vm.Selection.State.Value
	case TableCells, TableStatePayment:
		return vm.Selection.Cell.Value
	}
	return ""
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(groups []Group, metric, seriesName string) []ChartSeries {
	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, ChartPoint{
			Label: g.Label,
			Value: roundFigure(g.Metric(metric)),
		})
	}

	return []ChartSeries{{
		Name: seriesName,
		Data: points,
	}}
}

// buildMultiSeries pivots composite (state, payment) groups into one series
// per payment type. States and payment types sort alphabetically; missing
// cells are N/A.
func buildMultiSeries(groups []Group, metric string) []ChartSeries {
	var rows, cols []string
	seenRow := make(map[string]bool)
	seenCol := make(map[string]bool)
	values := make(map[string]Figure)

	for _, g := range groups {
		if len(g.Parts) != 2 {
			continue
		}
		row, col := g.Parts[0], g.Parts[1]
		if !seenRow[row] {
			seenRow[row] = true
			rows = append(rows, row)
		}
		if !seenCol[col] {
			seenCol[col] = true
			cols = append(cols, col)
		}
		values[g.Key] = g.Metric(metric)
	}
	sort.Strings(rows)
	sort.Strings(cols)

	series := make([]ChartSeries, 0, len(cols))
	for i, col := range cols {
		points := make([]ChartPoint, 0, len(rows))
		for _, row := range rows {
			v, ok := values[CompositeKey(row, col)]
			if !ok {
				v = NA()
			}
			points = append(points, ChartPoint{Label: row, Value: roundFigure(v)})
		}
		series = append(series, ChartSeries{
			Name:  col,
			Data:  points,
			Color: defaultColors[i%len(defaultColors)],
		})
	}

	return series
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}

// roundFigure rounds to two decimals, four for magnitudes below one.
func roundFigure(f Figure) Figure {
	if !f.OK {
		return f
	}
	scale := 100.0
	if math.Abs(f.Value) < 1 {
		scale = 10000
	}
	return Avail(math.Round(f.Value*scale) / scale)
}

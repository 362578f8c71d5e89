package engine

import (
	"log"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// EXECUTOR — One trigger, one fresh ViewModel
// ============================================================================
// Entry point: ComputeViewModel(store, state, opts...)
//
// Pipeline:
//   1. Filter every fact table with the active FilterSpec
//   2. Group each report and derive ratios
//   3. Rank the three facet panels with their controls
//   4. Reconcile the selection against the grouped sets
//   5. Build the drill-down aggregates of the resolved facets
//
// Pure: the store is read-only and nothing from a previous trigger is reused.
// ============================================================================

// ComputeViewModel runs the whole pipeline for one state snapshot.
func ComputeViewModel(store *facts.Store, st State, opts ...Option) *ViewModel {
	cfg := NewSettings(opts...)

	// 1. Filter
	orders := ApplyFilter(store.Orders(), st.Filter)
	categories := ApplyFilter(store.Categories(), st.Filter)
	buckets := ApplyFilter(store.DelayBuckets(), st.Filter)
	scores := ApplyFilter(store.ReviewScores(), st.Filter)
	details := ApplyFilter(store.OrderDetails(), st.Filter)

	log.Printf("🔧 olistlens: %d of %d order rows pass filter %s..%s (grain=%s)",
		len(orders), len(store.Orders()), st.Filter.Start, st.Filter.End, st.Filter.Grain)

	// 2. Group
	periods := PeriodSeries(orders, st.Filter.Grain)
	stateGroups := StateBreakdown(orders)
	categoryGroups := CategoryPerformance(categories)
	cellGroups := StatePayment(orders)
	delayImpact := DelayImpact(buckets)

	// 3. Rank
	ranking := make(map[string]RankControl, len(Panels))
	for _, p := range Panels {
		ranking[p] = cfg.control(st.Ranking, p)
	}
	rankedCategories := rankPanel(categoryGroups, PanelCategories, ranking)
	rankedStates := rankPanel(stateGroups, PanelStates, ranking)
	rankedCells := rankPanel(cellGroups, PanelCells, ranking)

	// 4. Reconcile
	sel := Reconcile(st.Selection,
		Candidates{All: categoryGroups, Ranked: rankedCategories},
		Candidates{All: stateGroups, Ranked: rankedStates},
		Candidates{All: cellGroups, Ranked: rankedCells},
	)

	// 5. Drill
	matrix := StateCategory(categories)
	cell := sel.Selection().Cell
	drill := DrillView{
		CategoryByState: CategoryByState(matrix, sel.Category.key()),
		StateByCategory: StateByCategory(matrix, sel.State.key()),
		SellerRisk:      SellerRisk(orders, sel.State.key()),
		CellOrders:      CellOrders(details, cell, cfg.MaxCellOrders),
	}

	view := st.View
	if view == "" {
		view = ViewExecutive
	}

	return &ViewModel{
		GeneratedAt: store.Meta().GeneratedAt,
		View:        view,
		Filter:      st.Filter,
		Ranking:     ranking,
		Selection:   sel,
		Executive: ExecutiveView{
			Summary:    SummarizeExecutive(orders, periods),
			Periods:    periods,
			PaymentMix: PaymentMix(orders),
			Categories: rankedCategories,
		},
		Operations: OperationsView{
			Summary: SummarizeOperations(orders),
			Periods: periods,
			States:  rankedStates,
			Geo:     GeoBottlenecks(stateGroups, store.Geo),
		},
		Satisfaction: SatisfactionView{
			Summary:            SummarizeSatisfaction(orders),
			ReviewDistribution: ReviewDistribution(scores),
			DelayImpact:        delayImpact,
			StatePayment:       cellGroups,
			Cells:              rankedCells,
			Insight:            CSATInsight(delayImpact),
		},
		Drill: drill,
	}
}

func rankPanel(groups []Group, panel string, ranking map[string]RankControl) []Group {
	c := ranking[panel]
	return Rank(groups, PanelMetric(panel), c.Mode, c.N)
}

// PanelMetric is the metric a ranked panel is ordered by.
func PanelMetric(panel string) string {
	switch panel {
	case PanelStates:
		return MetricSevereDelayRate
	case PanelCells:
		return MetricLowScoreRate
	default:
		return MetricCategoryGMV
	}
}

// ============================================================================
// INITIAL STATE AND STORYLINE SEEDS
// ============================================================================
// Seeds ignore the active filter: they rank the whole snapshot.
// ============================================================================

// InitialState builds the default state for a store.
func InitialState(store *facts.Store, in FilterInput, opts ...Option) State {
	cfg := NewSettings(opts...)
	return State{
		View:    ViewExecutive,
		Filter:  BuildFilter(store.Meta(), in),
		Ranking: cfg.DefaultRanking(),
	}
}

// GlobalTopCategory returns the category with the highest GMV overall.
func GlobalTopCategory(store *facts.Store) string {
	ranked := Rank(CategoryPerformance(store.Categories()), MetricCategoryGMV, ModeTop, 1)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].Key
}

// GlobalWorstState returns the state with the highest severe delay rate
// among states with at least minOrders orders.
func GlobalWorstState(store *facts.Store, minOrders float64) string {
	ranked := RankWithSupport(StateBreakdown(store.Orders()), MetricSevereDelayRate, ModeTop, 1, minOrders)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].Key
}

// GlobalWorstCell returns the (state, payment) cell with the highest
// low-score rate among cells with at least minOrders orders.
func GlobalWorstCell(store *facts.Store, minOrders float64) Cell {
	ranked := RankWithSupport(StatePayment(store.Orders()), MetricLowScoreRate, ModeTop, 1, minOrders)
	if len(ranked) == 0 || len(ranked[0].Parts) != 2 {
		return Cell{}
	}
	return Cell{State: ranked[0].Parts[0], PaymentType: ranked[0].Parts[1]}
}

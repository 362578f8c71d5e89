package engine

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// OLISTLENS ENGINE TYPES
// ============================================================================
// The engine is a set of pure functions over a facts.Store. Every trigger
// builds a fresh ViewModel from (store, State); nothing here is mutated in
// place across triggers.
// ============================================================================

// ============================================================================
// FIGURE — A number that may be not-available
// ============================================================================

// Figure is a derived value that is either available or explicitly N/A.
// N/A marshals to JSON null so consumers can tell "zero" from "no data".
type Figure struct {
	Value float64
	OK    bool
}

// NA returns the not-available figure.
func NA() Figure { return Figure{} }

// Avail wraps a known value. NaN and infinities are treated as N/A.
func Avail(v float64) Figure {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA()
	}
	return Figure{Value: v, OK: true}
}

// Divide returns num/den, or N/A when the denominator is zero.
func Divide(num, den float64) Figure {
	if den == 0 {
		return NA()
	}
	return Avail(num / den)
}

// Float returns the value and whether it is available.
func (f Figure) Float() (float64, bool) { return f.Value, f.OK }

func (f Figure) String() string {
	if !f.OK {
		return "N/A"
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

func (f Figure) MarshalJSON() ([]byte, error) {
	if !f.OK {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Figure) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NA()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Avail(v)
	return nil
}

// ============================================================================
// GRAIN / RANK MODE / VIEW
// ============================================================================

// Grain is the temporal truncation unit.
type Grain string

const (
	GrainDay   Grain = "day"
	GrainMonth Grain = "month"
	GrainYear  Grain = "year"
)

// ParseGrain maps user input to a Grain; anything unknown is month.
func ParseGrain(s string) Grain {
	switch Grain(s) {
	case GrainDay, GrainYear:
		return Grain(s)
	default:
		return GrainMonth
	}
}

// RankMode selects highest-first or lowest-first ranking.
type RankMode string

const (
	ModeTop    RankMode = "top"
	ModeBottom RankMode = "bottom"
)

// ParseRankMode maps user input to a RankMode; anything unknown is top.
func ParseRankMode(s string) RankMode {
	if RankMode(s) == ModeBottom {
		return ModeBottom
	}
	return ModeTop
}

// Report views, also the names of the storyline presets.
const (
	ViewExecutive    = "executive"
	ViewOperations   = "operations"
	ViewSatisfaction = "customer-satisfaction"
)

// Ranked panels. Each backs one selection facet.
const (
	PanelCategories = "categories"
	PanelStates     = "states"
	PanelCells      = "cells"
)

// Panels lists the ranked panels in display order.
var Panels = []string{PanelCategories, PanelStates, PanelCells}

// ============================================================================
// GROUP — Aggregated result row
// ============================================================================

// Group is one aggregate: summed additive measures plus ratios derived once
// after summation.
type Group struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Parts    []string       `json:"parts,omitempty"` // components of a composite key
	Measures facts.Measures `json:"measures"`
	Metrics  Metrics        `json:"metrics"`
}

// Metrics are the derived ratios of a Group.
type Metrics struct {
	AOV             Figure `json:"aov"`
	OnTimeRate      Figure `json:"on_time_rate"`
	SevereDelayRate Figure `json:"severe_delay_rate"`
	AvgDeliveryDays Figure `json:"avg_delivery_days"`
	AvgDelayDays    Figure `json:"avg_delay_days"`
	FreightToGMV    Figure `json:"freight_to_gmv"`
	AvgReviewScore  Figure `json:"avg_review_score"`
	OneStarRate     Figure `json:"one_star_rate"`
	LowScoreRate    Figure `json:"low_score_rate"`
	AvgItemPrice    Figure `json:"avg_item_price"`
	MarginRate      Figure `json:"margin_rate"`
	OrderShare      Figure `json:"order_share"`
}

// ============================================================================
// FILTER
// ============================================================================

// FilterInput is a raw filter-change event. Empty fields mean "default".
type FilterInput struct {
	Country  string   `json:"country"`
	Grain    string   `json:"grain"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	States   []string `json:"states"`
	Payments []string `json:"payments"`
}

// FilterSpec is a normalized filter: Start <= End, non-empty value sets.
type FilterSpec struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Country  string   `json:"country"` // empty = unconstrained
	States   []string `json:"states"`
	Payments []string `json:"payments"`
	Grain    Grain    `json:"grain"`
}

// ============================================================================
// RANKING / SELECTION / STATE
// ============================================================================

// RankControl is the mode and bound of one ranked panel.
type RankControl struct {
	Mode RankMode `json:"mode"`
	N    int      `json:"n"`
}

// Cell is a (state, payment type) pair.
type Cell struct {
	State       string `json:"state"`
	PaymentType string `json:"payment_type"`
}

// IsZero reports whether the cell is unset.
func (c Cell) IsZero() bool { return c.State == "" && c.PaymentType == "" }

// Key returns the composite group key of the cell.
func (c Cell) Key() string {
	if c.IsZero() {
		return ""
	}
	return CompositeKey(c.State, c.PaymentType)
}

// Selection holds the three drill-down facets. Empty means unset.
type Selection struct {
	Category string `json:"category"`
	State    string `json:"state"`
	Cell     Cell   `json:"cell"`
}

// State is everything a trigger can change. ComputeViewModel is a pure
// function of (store, State).
type State struct {
	View      string                 `json:"view"`
	Filter    FilterSpec             `json:"filter"`
	Ranking   map[string]RankControl `json:"ranking"`
	Selection Selection              `json:"selection"`
}

// FacetStatus classifies a facet against the current grouped result.
type FacetStatus string

const (
	FacetUnset FacetStatus = "unset"
	FacetValid FacetStatus = "valid"
	FacetStale FacetStatus = "stale"
)

// Facet is the reconciled state of one selection facet.
type Facet struct {
	Value    string      `json:"value"`
	Parts    []string    `json:"parts,omitempty"`
	Status   FacetStatus `json:"status"`
	Resolved bool        `json:"resolved"` // picked by the engine, not the operator
}

// ResolvedSelection is the selection after reconciliation.
type ResolvedSelection struct {
	Category Facet `json:"category"`
	State    Facet `json:"state"`
	Cell     Facet `json:"cell"`
}

// Selection converts the reconciled facets back into an input Selection.
func (r ResolvedSelection) Selection() Selection {
	sel := Selection{Category: r.Category.Value, State: r.State.Value}
	if len(r.Cell.Parts) == 2 {
		sel.Cell = Cell{State: r.Cell.Parts[0], PaymentType: r.Cell.Parts[1]}
	}
	return sel
}

// ============================================================================
// VIEW MODEL — Output bundle handed to the rendering layer
// ============================================================================

// ViewModel is the complete result of one trigger.
type ViewModel struct {
	GeneratedAt  string                 `json:"generated_at"`
	View         string                 `json:"view"`
	Filter       FilterSpec             `json:"filter"`
	Ranking      map[string]RankControl `json:"ranking"`
	Selection    ResolvedSelection      `json:"selection"`
	Executive    ExecutiveView          `json:"executive"`
	Operations   OperationsView         `json:"operations"`
	Satisfaction SatisfactionView       `json:"satisfaction"`
	Drill        DrillView              `json:"drill"`
}

// ExecutiveView covers commercial performance.
type ExecutiveView struct {
	Summary    ExecutiveSummary `json:"summary"`
	Periods    []Group          `json:"periods"`
	PaymentMix []Group          `json:"payment_mix"`
	Categories []Group          `json:"categories"` // ranked
}

// ExecutiveSummary holds the commercial headline figures.
type ExecutiveSummary struct {
	TotalGMV       Figure `json:"total_gmv"`
	TotalOrders    Figure `json:"total_orders"`
	AOV            Figure `json:"aov"`
	YoYOrderGrowth Figure `json:"yoy_order_growth"`
	YoYPeriod      string `json:"yoy_period,omitempty"`
}

// OperationsView covers logistics performance.
type OperationsView struct {
	Summary OperationsSummary `json:"summary"`
	Periods []Group           `json:"periods"`
	States  []Group           `json:"states"` // ranked
	Geo     []GeoPoint        `json:"geo"`
}

// OperationsSummary holds the logistics headline figures.
type OperationsSummary struct {
	AvgDeliveryDays Figure `json:"avg_delivery_days"`
	OnTimeRate      Figure `json:"on_time_rate"`
	SevereDelayRate Figure `json:"severe_delay_rate"`
	FreightToGMV    Figure `json:"freight_to_gmv"`
}

// GeoPoint is a state aggregate joined with its centroid.
type GeoPoint struct {
	Group
	Lat float64 `json:"geo_lat"`
	Lng float64 `json:"geo_lng"`
}

// SatisfactionView covers customer sentiment.
type SatisfactionView struct {
	Summary            SatisfactionSummary `json:"summary"`
	ReviewDistribution []Group             `json:"review_distribution"`
	DelayImpact        []Group             `json:"delay_impact"`
	StatePayment       []Group             `json:"state_payment"` // full heatmap set
	Cells              []Group             `json:"cells"`         // ranked
	Insight            Insight             `json:"insight"`
}

// SatisfactionSummary holds the sentiment headline figures.
type SatisfactionSummary struct {
	AvgReviewScore Figure `json:"avg_review_score"`
	OneStarRate    Figure `json:"one_star_rate"`
	LowScoreRate   Figure `json:"low_score_rate"`
}

// Insight compares one-star rates of badly delayed and on-time orders.
type Insight struct {
	LateOneStarRate   Figure `json:"late_one_star_rate"`
	OnTimeOneStarRate Figure `json:"on_time_one_star_rate"`
	Lift              Figure `json:"lift"`
}

// DrillView holds the secondary aggregates of the resolved facets.
type DrillView struct {
	CategoryByState []Group             `json:"category_by_state"`
	StateByCategory []Group             `json:"state_by_category"`
	SellerRisk      []Group             `json:"seller_risk"`
	CellOrders      []facts.OrderDetail `json:"cell_orders"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData is a flat rendering of one panel for text and CSV output.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency", "percent"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

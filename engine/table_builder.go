package engine

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// TABLE BUILDER — Flattens one ViewModel panel into TableData
// ============================================================================
// Used by text and CSV output. Number formatting is locale aware; the JSON
// view model itself never carries formatted strings.
// ============================================================================

// ErrUnknownPanel is returned by BuildTable for a panel name it does not know.
var ErrUnknownPanel = errors.New("unknown panel")

// Table panel names.
const (
	TablePeriods            = "periods"
	TablePaymentMix         = "payment_mix"
	TableCategories         = PanelCategories
	TableStates             = PanelStates
	TableCells              = PanelCells
	TableStatePayment       = "state_payment"
	TableGeo                = "geo"
	TableDelayImpact        = "delay_impact"
	TableReviewDistribution = "review_distribution"
	TableCategoryByState    = "category_by_state"
	TableStateByCategory    = "state_by_category"
	TableSellerRisk         = "seller_risk"
	TableCellOrders         = "cell_orders"
)

// TablePanels lists every panel BuildTable accepts.
var TablePanels = []string{
	TablePeriods, TablePaymentMix, TableCategories, TableStates, TableGeo,
	TableCells, TableStatePayment, TableDelayImpact, TableReviewDistribution,
	TableCategoryByState, TableStateByCategory, TableSellerRisk, TableCellOrders,
}

// metric columns per panel, after the label column
var panelColumns = map[string][]string{
	TablePeriods:            {MetricOrderCount, MetricGMV, MetricAOV, MetricOnTimeRate, MetricAvgDeliveryDays},
	TablePaymentMix:         {MetricOrderCount, MetricOrderShare, MetricGMV, MetricAOV},
	TableCategories:         {MetricCategoryGMV, MetricItemCount, MetricAvgItemPrice, MetricMarginRate},
	TableStates:             {MetricOrderCount, MetricSevereDelayRate, MetricOnTimeRate, MetricAvgDeliveryDays},
	TableCells:              {MetricOrderCount, MetricReviewCount, MetricLowScoreRate, MetricAvgReviewScore},
	TableStatePayment:       {MetricOrderCount, MetricReviewCount, MetricLowScoreRate, MetricAvgReviewScore},
	TableDelayImpact:        {MetricOrderCount, MetricAvgReviewScore, MetricOneStarRate, MetricLowScoreRate},
	TableReviewDistribution: {MetricReviewCount, MetricOrderCount},
	TableCategoryByState:    {MetricCategoryGMV, MetricOrderCount, MetricMarginRate},
	TableStateByCategory:    {MetricCategoryGMV, MetricOrderCount, MetricMarginRate},
	TableSellerRisk:         {MetricOrderCount, MetricSevereDelayRate, MetricAvgDelayDays},
	TableGeo:                {MetricOrderCount, MetricSevereDelayRate},
}

// key column header per panel
var panelDimension = map[string]string{
	TablePeriods:            "Period",
	TablePaymentMix:         "Payment Type",
	TableCategories:         "Category",
	TableStates:             "State",
	TableCells:              "State / Payment",
	TableStatePayment:       "State / Payment",
	TableDelayImpact:        "Delay Bucket",
	TableReviewDistribution: "Review Score",
	TableCategoryByState:    "State",
	TableStateByCategory:    "Category",
	TableSellerRisk:         "Seller State",
	TableGeo:                "State",
}

// Formatter renders numbers for one locale and currency.
type Formatter struct {
	p        *message.Printer
	currency string
}

// NewFormatter creates a Formatter. An empty currency omits the prefix.
func NewFormatter(tag language.Tag, currency string) *Formatter {
	return &Formatter{p: message.NewPrinter(tag), currency: currency}
}

// Format renders a figure according to a column type.
func (f *Formatter) Format(v Figure, typ string) string {
	if !v.OK {
		return "N/A"
	}
	switch typ {
	case "currency":
		if f.currency == "" {
			return f.p.Sprintf("%.2f", v.Value)
		}
		return f.p.Sprintf("%s %.2f", f.currency, v.Value)
	case "percent":
		return f.p.Sprintf("%.1f%%", v.Value*100)
	case "decimal":
		return f.p.Sprintf("%.2f", v.Value)
	default:
		if v.Value == float64(int64(v.Value)) {
			return f.p.Sprintf("%d", int64(v.Value))
		}
		return f.p.Sprintf("%.2f", v.Value)
	}
}

// BuildTable flattens a panel of vm into rows of formatted strings.
func BuildTable(vm *ViewModel, panel string, f *Formatter) (*TableData, error) {
	switch panel {
	case TableCellOrders:
		return buildOrderTable(vm.Drill.CellOrders, f), nil
	case TableGeo:
		groups := make([]Group, len(vm.Operations.Geo))
		for i, g := range vm.Operations.Geo {
			groups[i] = g.Group
		}
		t := buildGroupTable(panel, groups, panelColumns[panel], f)
		t.Columns = append(t.Columns,
			Column{Key: "geo_lat", Label: "Lat", Type: "number", Align: "right"},
			Column{Key: "geo_lng", Label: "Lng", Type: "number", Align: "right"})
		for i, g := range vm.Operations.Geo {
			t.Rows[i] = append(t.Rows[i],
				strconv.FormatFloat(g.Lat, 'f', 4, 64), strconv.FormatFloat(g.Lng, 'f', 4, 64))
		}
		return t, nil
	}

	groups, ok := panelGroups(vm, panel)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPanel, panel)
	}
	return buildGroupTable(panel, groups, panelColumns[panel], f), nil
}

func panelGroups(vm *ViewModel, panel string) ([]Group, bool) {
	switch panel {
	case TablePeriods:
		return vm.Executive.Periods, true
	case TablePaymentMix:
		return vm.Executive.PaymentMix, true
	case TableCategories:
		return vm.Executive.Categories, true
	case TableStates:
		return vm.Operations.States, true
	case TableCells:
		return vm.Satisfaction.Cells, true
	case TableStatePayment:
		return vm.Satisfaction.StatePayment, true
	case TableDelayImpact:
		return vm.Satisfaction.DelayImpact, true
	case TableReviewDistribution:
		return vm.Satisfaction.ReviewDistribution, true
	case TableCategoryByState:
		return vm.Drill.CategoryByState, true
	case TableStateByCategory:
		return vm.Drill.StateByCategory, true
	case TableSellerRisk:
		return vm.Drill.SellerRisk, true
	}
	return nil, false
}

func buildGroupTable(title string, groups []Group, metrics []string, f *Formatter) *TableData {
	columns := make([]Column, 0, len(metrics)+1)
	columns = append(columns, Column{Key: "key", Label: panelDimension[title], Type: "text", Align: "left"})
	for _, m := range metrics {
		columns = append(columns, Column{Key: m, Label: LabelForMetric(m), Type: columnType(m), Align: "right"})
	}

	rows := make([][]string, 0, len(groups))
	var orders float64
	for _, g := range groups {
		row := make([]string, 0, len(columns))
		row = append(row, g.Label)
		for _, m := range metrics {
			row = append(row, f.Format(g.Metric(m), columnType(m)))
		}
		rows = append(rows, row)
		orders += g.Measures.OrderCount
	}

	return &TableData{
		Title:   LabelForMetric(title),
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("Total (%d rows)", len(groups)),
			Values: map[string]string{MetricOrderCount: f.Format(Avail(orders), "number")},
		},
	}
}

func buildOrderTable(orders []facts.OrderDetail, f *Formatter) *TableData {
	columns := []Column{
		{Key: "order_id", Label: "Order", Type: "text", Align: "left"},
		{Key: "purchase_date", Label: "Purchased", Type: "text", Align: "left"},
		{Key: "seller_state", Label: "Seller State", Type: "text", Align: "left"},
		{Key: "product_category", Label: "Category", Type: "text", Align: "left"},
		{Key: "order_status", Label: "Status", Type: "text", Align: "left"},
		{Key: "gmv", Label: "GMV", Type: "currency", Align: "right"},
		{Key: "freight_value", Label: "Freight", Type: "currency", Align: "right"},
		{Key: "delivery_days", Label: "Delivery Days", Type: "decimal", Align: "right"},
		{Key: "delay_days", Label: "Delay Days", Type: "decimal", Align: "right"},
		{Key: "review_score", Label: "Review", Type: "number", Align: "right"},
	}

	rows := make([][]string, 0, len(orders))
	var gmv float64
	for _, o := range orders {
		rows = append(rows, []string{
			o.OrderID, o.Date, o.SellerState, o.Category, o.Status,
			f.Format(Avail(o.GMV), "currency"),
			f.Format(Avail(o.Freight), "currency"),
			f.Format(optional(o.DeliveryDays), "decimal"),
			f.Format(optional(o.DelayDays), "decimal"),
			f.Format(optionalInt(o.ReviewScore), "number"),
		})
		gmv += o.GMV
	}

	return &TableData{
		Title:   "Cell Orders",
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("Total (%d orders)", len(orders)),
			Values: map[string]string{"gmv": f.Format(Avail(gmv), "currency")},
		},
	}
}

func optional(v *float64) Figure {
	if v == nil {
		return NA()
	}
	return Avail(*v)
}

func optionalInt(v *int) Figure {
	if v == nil {
		return NA()
	}
	return Avail(float64(*v))
}

func columnType(metric string) string {
	switch metric {
	case MetricGMV, MetricFreight, MetricCategoryGMV, MetricContributionMargin, MetricAOV, MetricAvgItemPrice:
		return "currency"
	case MetricOnTimeRate, MetricSevereDelayRate, MetricFreightToGMV, MetricOneStarRate,
		MetricLowScoreRate, MetricMarginRate, MetricOrderShare:
		return "percent"
	case MetricAvgDeliveryDays, MetricAvgDelayDays, MetricAvgReviewScore:
		return "decimal"
	default:
		return "number"
	}
}

// LabelForMetric returns a display label for a metric or panel key.
func LabelForMetric(key string) string {
	switch key {
	case MetricGMV:
		return "GMV"
	case MetricAOV:
		return "AOV"
	case MetricCategoryGMV:
		return "Category GMV"
	case MetricFreightToGMV:
		return "Freight / GMV"
	}
	out := []byte(key)
	upper := true
	for i, c := range out {
		if c == '_' {
			out[i] = ' '
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
		upper = false
	}
	return string(out)
}

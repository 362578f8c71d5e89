package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spektr-org/olistlens/engine"
	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// OUTPUT — json, pretty, text, chart config and Sheets-ready csv
// ============================================================================

func writeOutput(w io.Writer, vm *engine.ViewModel, format, panel string, f *engine.Formatter) error {
	switch format {
	case "json", "pretty":
		return writeJSON(w, vm, format)
	case "csv":
		table, err := engine.BuildTable(vm, panelFor(vm, panel), f)
		if err != nil {
			return err
		}
		return writeCSV(w, table)
	case "chart":
		chart, err := engine.BuildChart(vm, panelFor(vm, panel), "")
		if err != nil {
			return err
		}
		return writeJSON(w, chart, "pretty")
	case "text":
		table, err := engine.BuildTable(vm, panelFor(vm, panel), f)
		if err != nil {
			return err
		}
		writeSummary(w, vm, f)
		fmt.Fprintln(w)
		return writeText(w, table)
	default:
		return fmt.Errorf("unknown format %q: want json, pretty, text, csv or chart", format)
	}
}

// panelFor defaults to the ranked panel of the active view.
func panelFor(vm *engine.ViewModel, panel string) string {
	if panel != "" {
		return panel
	}
	switch vm.View {
	case engine.ViewOperations:
		return engine.TableStates
	case engine.ViewSatisfaction:
		return engine.TableCells
	default:
		return engine.TableCategories
	}
}

// ── JSON ─────────────────────────────────────────────────────────────────────

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ── CSV ──────────────────────────────────────────────────────────────────────

func writeCSV(w io.Writer, table *engine.TableData) error {
	cw := csv.NewWriter(w)

	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = c.Label
	}
	cw.Write(headers)
	for _, row := range table.Rows {
		cw.Write(row)
	}
	if table.Summary != nil {
		cw.Write(summaryRow(table))
	}

	cw.Flush()
	return cw.Error()
}

// summaryRow places summary values under their columns.
func summaryRow(table *engine.TableData) []string {
	row := make([]string, len(table.Columns))
	row[0] = table.Summary.Label
	for i, c := range table.Columns {
		if v, ok := table.Summary.Values[c.Key]; ok && i > 0 {
			row[i] = v
		}
	}
	return row
}

// ── Text ─────────────────────────────────────────────────────────────────────

func writeSummary(w io.Writer, vm *engine.ViewModel, f *engine.Formatter) {
	fmt.Fprintf(w, "%s  %s..%s  grain=%s\n", strings.ToUpper(vm.View), vm.Filter.Start, vm.Filter.End, vm.Filter.Grain)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch vm.View {
	case engine.ViewOperations:
		s := vm.Operations.Summary
		fmt.Fprintf(tw, "  Avg delivery days\t%s\n", f.Format(s.AvgDeliveryDays, "decimal"))
		fmt.Fprintf(tw, "  On-time rate\t%s\n", f.Format(s.OnTimeRate, "percent"))
		fmt.Fprintf(tw, "  Severe delay rate\t%s\n", f.Format(s.SevereDelayRate, "percent"))
		fmt.Fprintf(tw, "  Freight / GMV\t%s\n", f.Format(s.FreightToGMV, "percent"))
	case engine.ViewSatisfaction:
		s := vm.Satisfaction.Summary
		fmt.Fprintf(tw, "  Avg review score\t%s\n", f.Format(s.AvgReviewScore, "decimal"))
		fmt.Fprintf(tw, "  One-star rate\t%s\n", f.Format(s.OneStarRate, "percent"))
		fmt.Fprintf(tw, "  Low-score rate\t%s\n", f.Format(s.LowScoreRate, "percent"))
		fmt.Fprintf(tw, "  One-star lift when >5 days late\t%s\n", f.Format(vm.Satisfaction.Insight.Lift, "decimal"))
	default:
		s := vm.Executive.Summary
		fmt.Fprintf(tw, "  Total GMV\t%s\n", f.Format(s.TotalGMV, "currency"))
		fmt.Fprintf(tw, "  Orders\t%s\n", f.Format(s.TotalOrders, "number"))
		fmt.Fprintf(tw, "  AOV\t%s\n", f.Format(s.AOV, "currency"))
		fmt.Fprintf(tw, "  YoY order growth\t%s\n", f.Format(s.YoYOrderGrowth, "percent"))
	}
	if text := engine.BuildText(vm, f); text.Growth != nil {
		fmt.Fprintf(tw, "  %s trend\t%s (%s)\n", text.Label, text.Growth.Display, text.Period)
	}
	fmt.Fprintf(tw, "  Selection\tcategory=%s state=%s cell=%s\n",
		facetText(vm.Selection.Category), facetText(vm.Selection.State), facetText(vm.Selection.Cell))
	tw.Flush()
}

func facetText(f engine.Facet) string {
	if f.Status == engine.FacetUnset {
		return "-"
	}
	if f.Resolved {
		return f.Value + "*"
	}
	return f.Value
}

func writeText(w io.Writer, table *engine.TableData) error {
	fmt.Fprintln(w, table.Title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = c.Label
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t")+"\t")
	for _, row := range table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	if len(table.Rows) == 0 {
		fmt.Fprintln(tw, "No rows.\t")
	}
	if table.Summary != nil {
		fmt.Fprintln(tw, strings.Join(summaryRow(table), "\t")+"\t")
	}
	return tw.Flush()
}

// ── Validate ─────────────────────────────────────────────────────────────────

func printValidation(w io.Writer, store *facts.Store) {
	meta := store.Meta()
	c := store.Counts()
	cov := store.Coverage()

	fmt.Fprintf(w, "Package generated at: %s\n", orDash(meta.GeneratedAt))
	fmt.Fprintf(w, "Date range: %s .. %s\n\n", orDash(meta.MinDate), orDash(meta.MaxDate))

	fmt.Fprintln(w, "Rows:")
	fmt.Fprintf(w, "  orders:        %d\n", c.Orders)
	fmt.Fprintf(w, "  categories:    %d\n", c.Categories)
	fmt.Fprintf(w, "  delay buckets: %d\n", c.DelayBuckets)
	fmt.Fprintf(w, "  review scores: %d\n", c.ReviewScores)
	fmt.Fprintf(w, "  order details: %d\n", c.OrderDetails)
	fmt.Fprintf(w, "  state geo:     %d\n", c.StateGeo)

	fmt.Fprintln(w, "\nCoverage:")
	fmt.Fprintf(w, "  states:        %d (%s)\n", len(meta.States), strings.Join(meta.States, ", "))
	fmt.Fprintf(w, "  payment types: %d (%s)\n", len(meta.PaymentTypes), strings.Join(meta.PaymentTypes, ", "))
	if len(cov.UnlistedStates) > 0 {
		fmt.Fprintf(w, "  ⚠️ states missing from metadata: %s\n", strings.Join(cov.UnlistedStates, ", "))
	}
	if len(cov.UnlistedPayments) > 0 {
		fmt.Fprintf(w, "  ⚠️ payment types missing from metadata: %s\n", strings.Join(cov.UnlistedPayments, ", "))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package engine

import (
	"log"
	"sort"
	"strings"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// FILTERS — Build a FilterSpec, apply it as a row predicate
// ============================================================================
// Single-pass filter: checks every clause per row in one loop and keeps the
// input order. An empty value set never means "nothing": it means "all".
// ============================================================================

// BuildFilter normalizes a filter event against dataset metadata.
// Unset or unparseable dates default to the dataset bounds, reversed ranges
// are swapped, and empty state or payment selections become all known values.
func BuildFilter(meta facts.Metadata, in FilterInput) FilterSpec {
	start := filterDate("start", in.Start, meta.MinDate)
	end := filterDate("end", in.End, meta.MaxDate)
	start, end = NormalizeRange(start, end)

	states := normalizeSet(in.States, strings.ToUpper)
	if len(states) == 0 {
		states = append([]string(nil), meta.States...)
	}
	payments := normalizeSet(in.Payments, nil)
	if len(payments) == 0 {
		payments = append([]string(nil), meta.PaymentTypes...)
	}

	return FilterSpec{
		Start:    start,
		End:      end,
		Country:  facts.Canonical(in.Country),
		States:   states,
		Payments: payments,
		Grain:    ParseGrain(in.Grain),
	}
}

// NormalizeRange swaps start and end when start is later. Empty bounds are
// open and never swapped.
func NormalizeRange(start, end string) (string, string) {
	if start != "" && end != "" && start > end {
		return end, start
	}
	return start, end
}

func filterDate(name, raw, fallback string) string {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	key, err := facts.DateKey(raw)
	if err != nil {
		log.Printf("⚠️ olistlens: ignoring %s date: %v", name, err)
		return fallback
	}
	return key
}

func normalizeSet(values []string, transform func(string) string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = facts.Canonical(v)
		if transform != nil {
			v = transform(v)
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ApplyFilter returns the rows that pass every clause of spec, in input
// order. The result is never nil.
func ApplyFilter[R facts.Row](rows []R, spec FilterSpec) []R {
	match := compile(spec)
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		if match.Dims(r.Dims()) {
			out = append(out, r)
		}
	}
	return out
}

// predicate is a compiled FilterSpec.
type predicate struct {
	start, end string
	country    string
	states     map[string]bool // nil = all
	payments   map[string]bool // nil = all
}

func compile(spec FilterSpec) predicate {
	return predicate{
		start:    spec.Start,
		end:      spec.End,
		country:  spec.Country,
		states:   toSet(spec.States),
		payments: toSet(spec.Payments),
	}
}

// Dims reports whether a row's dimensions satisfy the predicate.
func (p predicate) Dims(d facts.Dims) bool {
	if p.start != "" && d.Date < p.start {
		return false
	}
	if p.end != "" && d.Date > p.end {
		return false
	}
	if p.country != "" && d.Country != p.country {
		return false
	}
	if p.states != nil && !p.states[d.State] {
		return false
	}
	if p.payments != nil && !p.payments[d.PaymentType] {
		return false
	}
	return true
}

// toSet converts a string slice to a lookup set; empty input yields nil.
func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// Where narrows rows with an extra predicate, keeping order.
func Where[R any](rows []R, keep func(R) bool) []R {
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

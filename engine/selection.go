package engine

import (
	"strings"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// SELECTION — Facet reconciliation
// ============================================================================
// A facet is checked against the full grouped set of its panel, so a value
// that is present but ranked out of the visible top N stays valid. Only an
// unset or stale facet moves: it takes the first item of the ranked set, or
// stays unset when that set is empty.
// ============================================================================

// Candidates are the sets one facet is checked and resolved against.
type Candidates struct {
	All    []Group // full grouped set under the active filter
	Ranked []Group // ranked, truncated panel
}

// CheckFacet classifies a selected key against the grouped set.
func CheckFacet(key string, all []Group) FacetStatus {
	if key == "" {
		return FacetUnset
	}
	if _, ok := Find(all, key); ok {
		return FacetValid
	}
	return FacetStale
}

// ResolveFacet keeps a valid key verbatim and otherwise falls back to the
// top of the ranked set.
func ResolveFacet(key string, c Candidates) Facet {
	if CheckFacet(key, c.All) == FacetValid {
		return newFacet(key, false)
	}
	if len(c.Ranked) == 0 {
		return Facet{Status: FacetUnset}
	}
	return newFacet(c.Ranked[0].Key, true)
}

func newFacet(key string, resolved bool) Facet {
	f := Facet{Value: key, Status: FacetValid, Resolved: resolved}
	if strings.Contains(key, facts.KeySeparator) {
		f.Parts = SplitKey(key)
		f.Value = strings.Join(f.Parts, " / ")
	}
	return f
}

// Reconcile resolves all three facets against fresh results.
func Reconcile(sel Selection, categories, states, cells Candidates) ResolvedSelection {
	return ResolvedSelection{
		Category: ResolveFacet(sel.Category, categories),
		State:    ResolveFacet(sel.State, states),
		Cell:     ResolveFacet(sel.Cell.Key(), cells),
	}
}

// key returns the group key a resolved facet points at.
func (f Facet) key() string {
	if len(f.Parts) > 0 {
		return CompositeKey(f.Parts...)
	}
	return f.Value
}

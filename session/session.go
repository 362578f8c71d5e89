// Package session holds the single interactive session over a loaded fact
// store: the current state, the transitions that change it and the view
// model computed after every transition.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spektr-org/olistlens/engine"
	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// SESSION — State transitions around the pure engine
// ============================================================================
// Every trigger copies the current state, applies one change, recomputes the
// view model and stores the reconciled selection back into the state. A
// Session is not safe for concurrent use; callers serialize triggers.
// ============================================================================

const tracerName = "olistlens.session"

// ErrUnknownPreset is returned by Preset for a name it does not know.
var ErrUnknownPreset = errors.New("unknown preset")

// Storyline presets.
const (
	PresetExecutive    = engine.ViewExecutive
	PresetOperations   = engine.ViewOperations
	PresetSatisfaction = engine.ViewSatisfaction
)

// Presets lists the accepted preset names.
var Presets = []string{PresetExecutive, PresetOperations, PresetSatisfaction}

// Session is one operator's view over a store.
type Session struct {
	store    *facts.Store
	opts     []engine.Option
	settings engine.Settings
	defaults engine.FilterInput
	tracer   trace.Tracer

	state engine.State
	vm    *engine.ViewModel
}

// New creates a session in its initial state. defaults is the filter used
// at start and restored by Reset and the presets.
func New(store *facts.Store, defaults engine.FilterInput, opts ...engine.Option) *Session {
	s := &Session{
		store:    store,
		opts:     opts,
		settings: engine.NewSettings(opts...),
		defaults: defaults,
		tracer:   otel.Tracer(tracerName),
	}
	s.commit(engine.InitialState(store, defaults, opts...))
	return s
}

// View returns the view model of the last trigger.
func (s *Session) View() *engine.ViewModel { return s.vm }

// State returns a copy of the current state.
func (s *Session) State() engine.State { return clone(s.state) }

// Store returns the underlying fact store.
func (s *Session) Store() *facts.Store { return s.store }

// Settings returns the engine settings the session computes with.
func (s *Session) Settings() engine.Settings { return s.settings }

// ============================================================================
// TRANSITIONS
// ============================================================================

// ApplyFilter replaces the active filter. Facets are kept and reconciled.
func (s *Session) ApplyFilter(ctx context.Context, in engine.FilterInput) *engine.ViewModel {
	return s.trigger(ctx, "filter", func(st *engine.State) {
		st.Filter = engine.BuildFilter(s.store.Meta(), in)
	}, attribute.String("filter.start", in.Start), attribute.String("filter.end", in.End),
		attribute.StringSlice("filter.states", in.States))
}

// SetGrain changes the period grain only.
func (s *Session) SetGrain(ctx context.Context, grain string) *engine.ViewModel {
	return s.trigger(ctx, "grain", func(st *engine.State) {
		st.Filter.Grain = engine.ParseGrain(grain)
	}, attribute.String("grain", grain))
}

// SetRanking changes the control of one ranked panel. Mode and N arrive as
// raw event strings and are bounded here. Unknown panels leave the state
// unchanged.
func (s *Session) SetRanking(ctx context.Context, panel, mode, n string) *engine.ViewModel {
	return s.trigger(ctx, "rank", func(st *engine.State) {
		if !isPanel(panel) {
			log.Printf("⚠️ olistlens: ignoring ranking for unknown panel %q", panel)
			return
		}
		st.Ranking[panel] = s.settings.NewRankControl(mode, n)
	}, attribute.String("rank.panel", panel), attribute.String("rank.mode", mode), attribute.String("rank.n", n))
}

// SetView switches the active view. Unknown names fall back to executive.
func (s *Session) SetView(ctx context.Context, view string) *engine.ViewModel {
	return s.trigger(ctx, "view", func(st *engine.State) {
		st.View = parseView(view)
	}, attribute.String("view", view))
}

// Drill applies a drill click. Empty facets of sel are left as they are.
func (s *Session) Drill(ctx context.Context, sel engine.Selection) *engine.ViewModel {
	return s.trigger(ctx, "drill", func(st *engine.State) {
		if sel.Category != "" {
			st.Selection.Category = facts.Canonical(sel.Category)
		}
		if sel.State != "" {
			st.Selection.State = strings.ToUpper(facts.Canonical(sel.State))
		}
		if !sel.Cell.IsZero() {
			st.Selection.Cell = engine.Cell{
				State:       strings.ToUpper(facts.Canonical(sel.Cell.State)),
				PaymentType: facts.Canonical(sel.Cell.PaymentType),
			}
		}
	}, attribute.String("drill.category", sel.Category), attribute.String("drill.state", sel.State),
		attribute.String("drill.cell", sel.Cell.State+"/"+sel.Cell.PaymentType))
}

// DrillCategory selects a category.
func (s *Session) DrillCategory(ctx context.Context, category string) *engine.ViewModel {
	return s.Drill(ctx, engine.Selection{Category: category})
}

// DrillState selects a customer state.
func (s *Session) DrillState(ctx context.Context, state string) *engine.ViewModel {
	return s.Drill(ctx, engine.Selection{State: state})
}

// DrillCell selects a (state, payment type) cell.
func (s *Session) DrillCell(ctx context.Context, cell engine.Cell) *engine.ViewModel {
	return s.Drill(ctx, engine.Selection{Cell: cell})
}

// Reset returns to the initial state: default filter and ranking, no
// facets, executive view.
func (s *Session) Reset(ctx context.Context) *engine.ViewModel {
	return s.trigger(ctx, "reset", func(st *engine.State) {
		*st = engine.InitialState(s.store, s.defaults, s.opts...)
	})
}

// Preset applies a storyline: filters are reset, facets cleared, the view
// switched and one facet seeded from the whole snapshot.
func (s *Session) Preset(ctx context.Context, name string) (*engine.ViewModel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !isPreset(name) {
		_, span := s.tracer.Start(ctx, "session.preset", trace.WithAttributes(attribute.String("preset", name)))
		err := fmt.Errorf("%w: %q", ErrUnknownPreset, name)
		span.RecordError(err)
		span.End()
		return nil, err
	}

	vm := s.trigger(ctx, "preset", func(st *engine.State) {
		st.View = name
		st.Filter = engine.BuildFilter(s.store.Meta(), s.defaults)
		st.Selection = engine.Selection{}

		switch name {
		case PresetExecutive:
			st.Selection.Category = engine.GlobalTopCategory(s.store)
		case PresetOperations:
			state := engine.GlobalWorstState(s.store, s.settings.StateMinOrders)
			st.Selection.State = state
			if state != "" {
				st.Filter.States = []string{state}
			}
		case PresetSatisfaction:
			st.Selection.Cell = engine.GlobalWorstCell(s.store, s.settings.CellMinOrders)
		}
	}, attribute.String("preset", name))
	return vm, nil
}

// ============================================================================
// INTERNALS
// ============================================================================

func (s *Session) trigger(ctx context.Context, name string, apply func(*engine.State), attrs ...attribute.KeyValue) *engine.ViewModel {
	_, span := s.tracer.Start(ctx, "session."+name, trace.WithAttributes(attrs...))
	defer span.End()

	next := clone(s.state)
	apply(&next)
	vm := s.commit(next)

	span.SetAttributes(
		attribute.String("view", vm.View),
		attribute.String("selection.category", vm.Selection.Category.Value),
		attribute.String("selection.state", vm.Selection.State.Value),
		attribute.String("selection.cell", vm.Selection.Cell.Value),
	)
	log.Printf("🎯 olistlens: %s → view=%s category=%q state=%q cell=%q",
		name, vm.View, vm.Selection.Category.Value, vm.Selection.State.Value, vm.Selection.Cell.Value)
	return vm
}

// commit computes the view model for st and keeps the reconciled selection.
func (s *Session) commit(st engine.State) *engine.ViewModel {
	vm := engine.ComputeViewModel(s.store, st, s.opts...)
	st.Selection = vm.Selection.Selection()
	st.Ranking = vm.Ranking
	st.View = vm.View
	s.state = st
	s.vm = vm
	return vm
}

func clone(st engine.State) engine.State {
	out := st
	out.Ranking = make(map[string]engine.RankControl, len(st.Ranking))
	for k, v := range st.Ranking {
		out.Ranking[k] = v
	}
	out.Filter.States = append([]string(nil), st.Filter.States...)
	out.Filter.Payments = append([]string(nil), st.Filter.Payments...)
	return out
}

func isPanel(panel string) bool {
	for _, p := range engine.Panels {
		if p == panel {
			return true
		}
	}
	return false
}

func isPreset(name string) bool {
	for _, p := range Presets {
		if p == name {
			return true
		}
	}
	return false
}

func parseView(view string) string {
	switch v := strings.ToLower(strings.TrimSpace(view)); v {
	case engine.ViewOperations, engine.ViewSatisfaction:
		return v
	default:
		return engine.ViewExecutive
	}
}

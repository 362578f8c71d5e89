package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/olistlens/engine"
	"github.com/spektr-org/olistlens/session"
)

// ============================================================================
// EVENTS — View flags replayed as session triggers
// ============================================================================

type rankEvent struct {
	panel, mode, n string
}

// viewEvents are the triggers a single view invocation replays, in order:
// filter, ranking, drill, view switch.
type viewEvents struct {
	filter    *engine.FilterInput
	ranks     []rankEvent
	selection engine.Selection
	view      string
}

func parseEvents(cmd *cobra.Command) (viewEvents, error) {
	var ev viewEvents

	flags := cmd.Flags()
	if flags.Changed("from") || flags.Changed("to") || flags.Changed("country") ||
		flags.Changed("grain") || flags.Changed("states") || flags.Changed("payments") {
		in := cfg.DefaultFilter()
		in.Start = flagFrom
		in.End = flagTo
		in.States = flagStates
		in.Payments = flagPayments
		if flags.Changed("country") {
			in.Country = flagCountry
		}
		if flags.Changed("grain") {
			in.Grain = flagGrain
		}
		ev.filter = &in
	}

	for _, raw := range flagRank {
		r, err := parseRank(raw)
		if err != nil {
			return ev, err
		}
		ev.ranks = append(ev.ranks, r)
	}

	ev.selection.Category = flagCategory
	ev.selection.State = flagState
	if flagCell != "" {
		cell, err := parseCell(flagCell)
		if err != nil {
			return ev, err
		}
		ev.selection.Cell = cell
	}

	ev.view = flagView
	return ev, nil
}

func (ev viewEvents) apply(ctx context.Context, sess *session.Session) *engine.ViewModel {
	vm := sess.View()
	if ev.filter != nil {
		vm = sess.ApplyFilter(ctx, *ev.filter)
	}
	for _, r := range ev.ranks {
		vm = sess.SetRanking(ctx, r.panel, r.mode, r.n)
	}
	if ev.selection.Category != "" || ev.selection.State != "" || !ev.selection.Cell.IsZero() {
		vm = sess.Drill(ctx, ev.selection)
	}
	if ev.view != "" {
		vm = sess.SetView(ctx, ev.view)
	}
	return vm
}

// parseRank parses panel=mode[:n], e.g. "states=bottom:5".
func parseRank(raw string) (rankEvent, error) {
	panel, control, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(panel) == "" {
		return rankEvent{}, fmt.Errorf("invalid --rank %q: want panel=mode:n", raw)
	}
	mode, n, _ := strings.Cut(control, ":")
	return rankEvent{
		panel: strings.ToLower(strings.TrimSpace(panel)),
		mode:  strings.TrimSpace(mode),
		n:     strings.TrimSpace(n),
	}, nil
}

// parseCell parses STATE:PAYMENT or STATE/PAYMENT.
func parseCell(raw string) (engine.Cell, error) {
	sep := ":"
	if !strings.Contains(raw, sep) {
		sep = "/"
	}
	state, payment, ok := strings.Cut(raw, sep)
	state, payment = strings.TrimSpace(state), strings.TrimSpace(payment)
	if !ok || state == "" || payment == "" {
		return engine.Cell{}, fmt.Errorf("invalid --cell %q: want STATE:PAYMENT", raw)
	}
	return engine.Cell{State: strings.ToUpper(state), PaymentType: payment}, nil
}

// Package olistlens is an in-memory analytics engine over a pre-aggregated
// Olist e-commerce fact package.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/olistlens/engine"
//	    "github.com/spektr-org/olistlens/facts"
//	    "github.com/spektr-org/olistlens/session"
//	)
//
//	store, err := facts.LoadFile("olist_dashboard_data.json")
//	sess := session.New(store, engine.FilterInput{},
//	    engine.WithSupportThresholds(300, 100),
//	)
//	vm, err := sess.Preset(ctx, session.PresetOperations)
//
// Every trigger (filter change, ranking change, drill click, preset)
// recomputes a complete ViewModel from the immutable store. The engine never
// calls an external service; fetching a remote package is the only network
// access and happens once at load time.
package olistlens

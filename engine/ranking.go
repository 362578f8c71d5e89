package engine

import (
	"errors"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// RANKING — Top/bottom selection with bounded N and minimum support
// ============================================================================

// Rank orders groups by metric and keeps the first n. Groups whose metric is
// N/A are dropped. Candidates are sorted ascending (equal values by key) and
// reversed for top, so top puts the highest value first and bottom the
// lowest. n <= 0 keeps every candidate.
func Rank(groups []Group, metric string, mode RankMode, n int) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Metric(metric).OK {
			out = append(out, g)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a := out[i].Metric(metric).Value
		b := out[j].Metric(metric).Value
		if a != b {
			return a < b
		}
		return out[i].Key < out[j].Key
	})
	if mode != ModeBottom {
		slices.Reverse(out)
	}

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RankWithSupport ranks only candidates with at least minOrders orders.
// When none qualify it falls back to ranking every candidate.
func RankWithSupport(groups []Group, metric string, mode RankMode, n int, minOrders float64) []Group {
	supported := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Measures.OrderCount >= minOrders && g.Metric(metric).OK {
			supported = append(supported, g)
		}
	}
	if len(supported) == 0 {
		return Rank(groups, metric, mode, n)
	}
	return Rank(supported, metric, mode, n)
}

// ClampTopN parses a requested N and clamps it to the default bounds.
func ClampTopN(raw string) int {
	return NewSettings().ClampTopN(raw)
}

// ClampTopN parses a requested N and clamps it to [MinTopN, MaxTopN].
// Non-numeric input yields DefaultTopN; out-of-range numbers clamp.
func (s Settings) ClampTopN(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(f) {
		return s.DefaultTopN
	}
	if f > float64(s.MaxTopN) {
		return s.MaxTopN
	}
	if f < float64(s.MinTopN) {
		return s.MinTopN
	}
	return s.clamp(int(f))
}

func (s Settings) clamp(n int) int {
	if n < s.MinTopN {
		return s.MinTopN
	}
	if n > s.MaxTopN {
		return s.MaxTopN
	}
	return n
}

// NewRankControl builds a bounded ranking control from raw event input.
func (s Settings) NewRankControl(mode, n string) RankControl {
	return RankControl{Mode: ParseRankMode(mode), N: s.ClampTopN(n)}
}

// DefaultRanking is the initial control of every ranked panel.
func (s Settings) DefaultRanking() map[string]RankControl {
	r := make(map[string]RankControl, len(Panels))
	for _, p := range Panels {
		r[p] = RankControl{Mode: ModeTop, N: s.DefaultTopN}
	}
	return r
}

// control returns the bounded control of a panel.
func (s Settings) control(ranking map[string]RankControl, panel string) RankControl {
	c, ok := ranking[panel]
	if !ok {
		return RankControl{Mode: ModeTop, N: s.DefaultTopN}
	}
	if c.Mode != ModeBottom {
		c.Mode = ModeTop
	}
	c.N = s.clamp(c.N)
	return c
}

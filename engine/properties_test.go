package engine

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/spektr-org/olistlens/facts"
)

var (
	propStates   = []string{"BA", "MG", "RJ", "SP"}
	propPayments = []string{"boleto", "credit_card", "voucher"}
	propMeta     = facts.Metadata{MinDate: "2017-01-01", MaxDate: "2018-12-31", States: propStates, PaymentTypes: propPayments}
)

// orderFromSeed derives one deterministic order row from a seed.
func orderFromSeed(v int) facts.OrderFact {
	orders := float64(1 + v%50)
	return facts.OrderFact{
		Date:             time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, v%700).Format(facts.DateLayout),
		Country:          "Brazil",
		State:            propStates[v%len(propStates)],
		PaymentType:      propPayments[(v/len(propStates))%len(propPayments)],
		OrderCount:       orders,
		GMV:              float64(v%997) * 1.5,
		SevereDelayCount: math.Min(float64(v%7), orders),
		ReviewCount:      float64(v % 3),
		LowScoreCount:    float64(v%3) / 2,
	}
}

func genOrders() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 100_000)).Map(func(seeds []int) []facts.OrderFact {
		rows := make([]facts.OrderFact, len(seeds))
		for i, s := range seeds {
			rows[i] = orderFromSeed(s)
		}
		return rows
	})
}

func genDate() gopter.Gen {
	return gen.IntRange(-30, 760).Map(func(d int) string {
		return time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d).Format(facts.DateLayout)
	})
}

func genSubset(values []string) gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(values)-1)).Map(func(picked []int) []string {
		out := make([]string, len(picked))
		for i, p := range picked {
			out[i] = values[p]
		}
		return out
	})
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func TestFilterProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("filtered rows are an order-preserving subset that satisfies every clause", prop.ForAll(
		func(rows []facts.OrderFact, start, end string, states, payments []string) bool {
			spec := BuildFilter(propMeta, FilterInput{Start: start, End: end, States: states, Payments: payments})
			got := ApplyFilter(rows, spec)

			j := 0
			for _, r := range rows {
				if j < len(got) && got[j] == r {
					j++
				}
			}
			if j != len(got) {
				return false
			}
			for _, r := range got {
				if r.Date < spec.Start || r.Date > spec.End {
					return false
				}
				if !contains(spec.States, r.State) || !contains(spec.Payments, r.PaymentType) {
					return false
				}
			}
			return true
		},
		genOrders(), genDate(), genDate(), genSubset(propStates), genSubset(propPayments),
	))

	properties.Property("empty selections equal the full value sets", prop.ForAll(
		func(rows []facts.OrderFact) bool {
			none := ApplyFilter(rows, BuildFilter(propMeta, FilterInput{}))
			full := ApplyFilter(rows, BuildFilter(propMeta, FilterInput{States: propStates, Payments: propPayments}))
			return len(none) == len(full) && len(none) == len(rows)
		},
		genOrders(),
	))

	properties.Property("swapping the range bounds does not change the filter", prop.ForAll(
		func(a, b string) bool {
			x := BuildFilter(propMeta, FilterInput{Start: a, End: b})
			y := BuildFilter(propMeta, FilterInput{Start: b, End: a})
			return x.Start == y.Start && x.End == y.End && x.Start <= x.End
		},
		genDate(), genDate(),
	))

	properties.TestingRun(t)
}

func TestAggregationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("grouping conserves additive measures", prop.ForAll(
		func(rows []facts.OrderFact) bool {
			total := Total(rows)
			var orders, gmv float64
			for _, g := range StatePayment(rows) {
				orders += g.Measures.OrderCount
				gmv += g.Measures.GMV
			}
			return orders == total.Measures.OrderCount && math.Abs(gmv-total.Measures.GMV) < 1e-6
		},
		genOrders(),
	))

	properties.Property("yearly ratios equal ratios of summed monthly measures", prop.ForAll(
		func(rows []facts.OrderFact) bool {
			monthly := PeriodSeries(rows, GrainMonth)
			yearly := PeriodSeries(rows, GrainYear)

			sums := make(map[string]facts.Measures)
			for _, g := range monthly {
				year := TruncateDate(g.Key, GrainYear)
				m := sums[year]
				m.Add(g.Measures)
				sums[year] = m
			}
			if len(sums) != len(yearly) {
				return false
			}
			for _, g := range yearly {
				want := Divide(sums[g.Key].GMV, sums[g.Key].OrderCount)
				if want.OK != g.Metrics.AOV.OK || math.Abs(want.Value-g.Metrics.AOV.Value) > 1e-9 {
					return false
				}
			}
			return true
		},
		genOrders(),
	))

	properties.Property("ratios are N/A exactly when the denominator is zero", prop.ForAll(
		func(rows []facts.OrderFact) bool {
			for _, g := range StateBreakdown(rows) {
				if g.Metrics.AvgReviewScore.OK != (g.Measures.ReviewCount != 0) {
					return false
				}
			}
			return true
		},
		genOrders(),
	))

	properties.TestingRun(t)
}

func TestRankingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ranked panels are ordered, bounded and free of N/A", prop.ForAll(
		func(rows []facts.OrderFact, bottom bool, n int) bool {
			mode := ModeTop
			if bottom {
				mode = ModeBottom
			}
			ranked := Rank(StatePayment(rows), MetricLowScoreRate, mode, n)
			if len(ranked) > n {
				return false
			}
			for i, g := range ranked {
				if !g.Metrics.LowScoreRate.OK {
					return false
				}
				if i == 0 {
					continue
				}
				prev := ranked[i-1].Metrics.LowScoreRate.Value
				cur := g.Metrics.LowScoreRate.Value
				if (mode == ModeTop && prev < cur) || (mode == ModeBottom && prev > cur) {
					return false
				}
			}
			return true
		},
		genOrders(), gen.Bool(), gen.IntRange(1, 30),
	))

	properties.Property("clamped N always lies within the bounds", prop.ForAll(
		func(raw int) bool {
			n := ClampTopN(strconv.Itoa(raw))
			return n >= DefaultMinTopN && n <= DefaultMaxTopN
		},
		gen.Int(),
	))

	properties.TestingRun(t)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankTopAndBottom(t *testing.T) {
	groups := groupsWith(map[string]float64{"a": 5, "b": 1, "c": 9, "d": 3})

	top := Rank(groups, MetricOrderCount, ModeTop, 3)
	assert.Equal(t, []string{"c", "a", "d"}, Keys(top))

	bottom := Rank(groups, MetricOrderCount, ModeBottom, 2)
	assert.Equal(t, []string{"b", "d"}, Keys(bottom))
}

func TestRankDropsNA(t *testing.T) {
	groups := []Group{
		{Key: "x", Metrics: Metrics{LowScoreRate: NA()}},
		{Key: "y", Metrics: Metrics{LowScoreRate: Avail(0.2)}},
		{Key: "z", Metrics: Metrics{LowScoreRate: Avail(0)}},
	}
	got := Rank(groups, MetricLowScoreRate, ModeBottom, 10)
	assert.Equal(t, []string{"z", "y"}, Keys(got))
}

func TestRankTies(t *testing.T) {
	groups := groupsWith(map[string]float64{"b": 2, "a": 2, "c": 2})
	// bottom keeps the ascending key order, top is its reverse
	assert.Equal(t, []string{"c", "b", "a"}, Keys(Rank(groups, MetricOrderCount, ModeTop, 0)))
	assert.Equal(t, []string{"a", "b", "c"}, Keys(Rank(groups, MetricOrderCount, ModeBottom, 0)))

	groups = groupsWith(map[string]float64{"A": 5, "B": 5, "C": 1})
	assert.Equal(t, []string{"B", "A", "C"}, Keys(Rank(groups, MetricOrderCount, ModeTop, 0)))
	assert.Equal(t, []string{"C", "A", "B"}, Keys(Rank(groups, MetricOrderCount, ModeBottom, 0)))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	groups := []Group{{Key: "a"}, {Key: "b"}}
	groups[0].Measures.OrderCount = 1
	groups[1].Measures.OrderCount = 2
	Rank(groups, MetricOrderCount, ModeTop, 1)
	assert.Equal(t, []string{"a", "b"}, Keys(groups))
}

func TestRankWithSupport(t *testing.T) {
	states := StateBreakdown(fixtureStore(t).Orders())

	// MG has the worst rate but only 20 orders.
	assert.Equal(t, []string{"MG"}, Keys(RankWithSupport(states, MetricSevereDelayRate, ModeTop, 1, 0)))
	assert.Equal(t, []string{"RJ"}, Keys(RankWithSupport(states, MetricSevereDelayRate, ModeTop, 1, 30)))
	assert.Equal(t, []string{"SP"}, Keys(RankWithSupport(states, MetricSevereDelayRate, ModeTop, 1, 100)))

	// nobody qualifies: fall back to every candidate
	assert.Equal(t, []string{"MG"}, Keys(RankWithSupport(states, MetricSevereDelayRate, ModeTop, 1, 10000)))
}

func TestClampTopN(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"12", 12},
		{"1", 3},
		{"-4", 3},
		{"31", 30},
		{"1000000", 30},
		{"7.9", 7},
		{" 5 ", 5},
		{"abc", 12},
		{"", 12},
		{"NaN", 12},
		{"Inf", 30},
		{"1e400", 30},
		{"-1e400", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampTopN(tt.raw), tt.raw)
	}
}

func TestSettingsBounds(t *testing.T) {
	s := NewSettings(WithTopNBounds(5, 10, 50))
	assert.Equal(t, 10, s.DefaultTopN)
	assert.Equal(t, 5, s.ClampTopN("2"))
	assert.Equal(t, 10, s.ClampTopN("abc"))

	c := s.NewRankControl("bottom", "8")
	assert.Equal(t, RankControl{Mode: ModeBottom, N: 8}, c)
	assert.Equal(t, ModeTop, s.NewRankControl("sideways", "8").Mode)
}

func TestDefaultRanking(t *testing.T) {
	r := NewSettings().DefaultRanking()
	assert.Len(t, r, len(Panels))
	assert.Equal(t, RankControl{Mode: ModeTop, N: DefaultTopN}, r[PanelStates])
}

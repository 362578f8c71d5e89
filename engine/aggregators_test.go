package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/olistlens/facts"
)

func TestGroupByAccumulatesThenDerives(t *testing.T) {
	s := fixtureStore(t)
	groups := GroupBy(s.Orders(), func(r facts.OrderFact) string { return r.State })

	// first-seen order
	assert.Equal(t, []string{"SP", "RJ", "MG"}, Keys(groups))

	sp, ok := Find(groups, "SP")
	require.True(t, ok)
	assert.Equal(t, 215.0, sp.Measures.OrderCount)
	assert.Equal(t, 22500.0, sp.Measures.GMV)
	// ratio of sums, not mean of per-row ratios
	assert.InDelta(t, 22500.0/215.0, sp.Metrics.AOV.Value, 1e-9)
	assert.InDelta(t, 9.0/215.0, sp.Metrics.SevereDelayRate.Value, 1e-9)
	assert.InDelta(t, 1700.0/210.0, sp.Metrics.AvgDeliveryDays.Value, 1e-9)
	assert.InDelta(t, 5.0, sp.Metrics.AvgDelayDays.Value, 1e-9)
}

func TestGroupByMissingDenominatorIsNA(t *testing.T) {
	rows := []facts.OrderFact{{Date: "2018-01-01", State: "AC", GMV: 0}}
	groups := GroupBy(rows, func(r facts.OrderFact) string { return r.State })
	require.Len(t, groups, 1)

	m := groups[0].Metrics
	assert.False(t, m.AOV.OK)
	assert.False(t, m.OnTimeRate.OK)
	assert.False(t, m.AvgReviewScore.OK)
	assert.False(t, m.FreightToGMV.OK)
}

func TestGroupByEmptyIsNotNil(t *testing.T) {
	groups := GroupBy([]facts.OrderFact{}, func(r facts.OrderFact) string { return r.State })
	require.NotNil(t, groups)
	assert.Empty(t, groups)

	data, err := json.Marshal(groups)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestCompositeKeys(t *testing.T) {
	key := CompositeKey("SP", "credit_card")
	assert.Equal(t, []string{"SP", "credit_card"}, SplitKey(key))

	groups := StatePayment(fixtureStore(t).Orders())
	g, ok := Find(groups, key)
	require.True(t, ok)
	assert.Equal(t, []string{"SP", "credit_card"}, g.Parts)
	assert.Equal(t, "SP / credit_card", g.Label)
}

func TestTotal(t *testing.T) {
	tot := Total(fixtureStore(t).Orders())
	assert.Equal(t, "all", tot.Key)
	assert.Equal(t, 285.0, tot.Measures.OrderCount)
	assert.InDelta(t, 28000.0/285.0, tot.Metrics.AOV.Value, 1e-9)
}

func TestSortGroups(t *testing.T) {
	s := fixtureStore(t)

	buckets := GroupBy(s.DelayBuckets(), func(r facts.DelayBucketFact) string { return r.DelayBucket })
	SortGroups(buckets, SortDelayBucket)
	assert.Equal(t, []string{facts.BucketOnTime, facts.BucketLate1To3, facts.BucketLateOver5, "lost_in_transit"}, Keys(buckets))

	scores := groupsWith(map[string]float64{"10": 1, "2": 1, "1": 1})
	SortGroups(scores, SortScoreAsc)
	assert.Equal(t, []string{"1", "2", "10"}, Keys(scores))

	states := StateBreakdown(s.Orders())
	assert.Equal(t, []string{"MG", "RJ", "SP"}, Keys(states))

	periods := groupsWith(map[string]float64{"2018-01-01": 1, "2017-12-01": 1, "2017-01-01": 1})
	SortGroups(periods, SortChronological)
	assert.Equal(t, []string{"2017-01-01", "2017-12-01", "2018-01-01"}, Keys(periods))
}

func TestSortGroupsNALast(t *testing.T) {
	groups := []Group{
		{Key: "b", Metrics: Metrics{SevereDelayRate: NA()}},
		{Key: "a", Metrics: Metrics{SevereDelayRate: Avail(0)}},
		{Key: "c", Metrics: Metrics{SevereDelayRate: Avail(0.5)}},
	}
	SortGroups(groups, SortSevereDelayDesc)
	assert.Equal(t, []string{"c", "a", "b"}, Keys(groups))
}

func TestSortGroupsUnknownModeKeepsOrder(t *testing.T) {
	groups := []Group{{Key: "b"}, {Key: "c"}, {Key: "a"}}
	groups[0].Measures.GMV = 1
	groups[2].Measures.GMV = 9

	for _, mode := range []string{"", "gmv_desc", "alpha_asc"} {
		SortGroups(groups, mode)
		assert.Equal(t, []string{"b", "c", "a"}, Keys(groups), mode)
	}
}

func TestGroupMetric(t *testing.T) {
	g := Group{Measures: facts.Measures{GMV: 10, OrderCount: 4}}
	g.Metrics = derive(g.Measures)

	assert.Equal(t, Avail(10), g.Metric(MetricGMV))
	assert.Equal(t, Avail(2.5), g.Metric(MetricAOV))
	assert.False(t, g.Metric("no_such_metric").OK)
	assert.True(t, IsMetric(MetricLowScoreRate))
	assert.Contains(t, MetricKeys(), MetricOrderShare)
}

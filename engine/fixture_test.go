package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spektr-org/olistlens/facts"
)

// ── Test Data ─────────────────────────────────────────────────────────────────
//
// Severe delay rate by state:  SP 9/215, RJ 10/50, MG 6/20
// Low-score rate by cell:      SP/credit_card 19/210, RJ/boleto 12/50, MG/voucher 7/20
// Category GMV:                informatica 7500, beleza 7000, moveis 800

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func fixturePackage() facts.Package {
	return facts.Package{
		GeneratedAt: "2018-09-03T08:00:00",
		Meta: facts.Metadata{
			States:       []string{"SP", "RJ", "MG"},
			PaymentTypes: []string{"credit_card", "boleto", "voucher"},
		},
		Orders: []facts.OrderFact{
			{Date: "2017-01-10", Country: "Brazil", State: "SP", SellerState: "SP", PaymentType: "credit_card",
				OrderCount: 100, GMV: 10000, Freight: 1000, LateCount: 10, SevereDelayCount: 5,
				DeliveryDaysSum: 800, DeliveryDaysCount: 100, DelayDaysSum: 50, DelayDaysCount: 10,
				ReviewScoreSum: 400, ReviewCount: 100, OneStarCount: 5, LowScoreCount: 10},
			{Date: "2017-01-20", Country: "Brazil", State: "RJ", SellerState: "SP", PaymentType: "boleto",
				OrderCount: 50, GMV: 4000, Freight: 600, LateCount: 15, SevereDelayCount: 10,
				DeliveryDaysSum: 600, DeliveryDaysCount: 50, DelayDaysSum: 90, DelayDaysCount: 15,
				ReviewScoreSum: 175, ReviewCount: 50, OneStarCount: 8, LowScoreCount: 12},
			{Date: "2018-01-05", Country: "Brazil", State: "SP", SellerState: "MG", PaymentType: "credit_card",
				OrderCount: 110, GMV: 12000, Freight: 1100, LateCount: 11, SevereDelayCount: 4,
				DeliveryDaysSum: 900, DeliveryDaysCount: 110,
				ReviewScoreSum: 450, ReviewCount: 110, OneStarCount: 4, LowScoreCount: 9},
			{Date: "2018-02-14", Country: "Brazil", State: "MG", SellerState: "SP", PaymentType: "voucher",
				OrderCount: 20, GMV: 1500, Freight: 300, LateCount: 8, SevereDelayCount: 6,
				DeliveryDaysSum: 300, DeliveryDaysCount: 20,
				ReviewScoreSum: 60, ReviewCount: 20, OneStarCount: 5, LowScoreCount: 7},
			{Date: "2018-02-20", Country: "Portugal", State: "SP", SellerState: "SP", PaymentType: "credit_card",
				OrderCount: 5, GMV: 500},
		},
		Categories: []facts.CategoryFact{
			{Date: "2017-01-10", Country: "Brazil", State: "SP", PaymentType: "credit_card", Category: "beleza_saude",
				OrderCount: 50, ItemCount: 60, CategoryGMV: 5000, ContributionMargin: 4000},
			{Date: "2017-01-20", Country: "Brazil", State: "RJ", PaymentType: "boleto", Category: "beleza_saude",
				OrderCount: 20, ItemCount: 20, CategoryGMV: 2000, ContributionMargin: 1500},
			{Date: "2018-01-05", Country: "Brazil", State: "SP", PaymentType: "credit_card", Category: "informatica_acessorios",
				OrderCount: 45, ItemCount: 40, CategoryGMV: 7500, ContributionMargin: 5000},
			{Date: "2018-02-14", Country: "Brazil", State: "MG", PaymentType: "voucher", Category: "moveis_decoracao",
				OrderCount: 10, ItemCount: 10, CategoryGMV: 800, ContributionMargin: 600},
		},
		DelayBuckets: []facts.DelayBucketFact{
			{Date: "2017-01-10", Country: "Brazil", State: "SP", PaymentType: "credit_card", DelayBucket: facts.BucketLateOver5,
				OrderCount: 10, ReviewScoreSum: 25, ReviewCount: 10, OneStarCount: 3, LowScoreCount: 6},
			{Date: "2017-01-10", Country: "Brazil", State: "SP", PaymentType: "credit_card", DelayBucket: facts.BucketOnTime,
				OrderCount: 90, ReviewScoreSum: 400, ReviewCount: 90, OneStarCount: 2, LowScoreCount: 4},
			{Date: "2018-01-05", Country: "Brazil", State: "SP", PaymentType: "credit_card", DelayBucket: "lost_in_transit",
				OrderCount: 1},
			{Date: "2018-02-14", Country: "Brazil", State: "MG", PaymentType: "voucher", DelayBucket: facts.BucketLate1To3,
				OrderCount: 20, ReviewScoreSum: 60, ReviewCount: 20, OneStarCount: 5, LowScoreCount: 7},
		},
		ReviewScores: []facts.ReviewScoreFact{
			{Date: "2017-01-10", Country: "Brazil", State: "SP", PaymentType: "credit_card", ReviewScore: 5, ReviewCount: 70, OrderCount: 70},
			{Date: "2017-01-10", Country: "Brazil", State: "SP", PaymentType: "credit_card", ReviewScore: 1, ReviewCount: 5, OrderCount: 5},
			{Date: "2018-01-05", Country: "Brazil", State: "SP", PaymentType: "credit_card", ReviewScore: 4, ReviewCount: 100, OrderCount: 100},
		},
		OrderDetails: []facts.OrderDetail{
			{OrderID: "o1", Date: "2017-01-10", Country: "Brazil", State: "SP", SellerState: "SP", PaymentType: "credit_card",
				Category: "beleza_saude", Status: "delivered", GMV: 120, DeliveryDays: fptr(12), DelayDays: fptr(3), ReviewScore: iptr(3)},
			{OrderID: "o2", Date: "2017-01-10", Country: "Brazil", State: "SP", SellerState: "SP", PaymentType: "credit_card",
				Category: "beleza_saude", Status: "shipped", GMV: 80},
			{OrderID: "o3", Date: "2018-01-05", Country: "Brazil", State: "SP", SellerState: "MG", PaymentType: "credit_card",
				Category: "informatica_acessorios", Status: "delivered", GMV: 300, DeliveryDays: fptr(20), DelayDays: fptr(7), ReviewScore: iptr(1)},
			{OrderID: "o4", Date: "2017-01-20", Country: "Brazil", State: "RJ", SellerState: "SP", PaymentType: "boleto",
				Category: "beleza_saude", Status: "delivered", GMV: 90, DeliveryDays: fptr(9)},
			{OrderID: "o5", Date: "2018-02-14", Country: "Brazil", State: "MG", SellerState: "SP", PaymentType: "voucher",
				Category: "moveis_decoracao", Status: "delivered", GMV: 400, DeliveryDays: fptr(30), DelayDays: fptr(12), ReviewScore: iptr(1)},
		},
		StateGeo: []facts.StateGeo{
			{State: "SP", Lat: -23.55, Lng: -46.63},
			{State: "RJ", Lat: -22.91, Lng: -43.17},
		},
	}
}

func fixtureStore(t *testing.T) *facts.Store {
	t.Helper()
	s, err := facts.New(fixturePackage())
	require.NoError(t, err)
	return s
}

func emptyStore(t *testing.T) *facts.Store {
	t.Helper()
	s, err := facts.New(facts.Package{})
	require.NoError(t, err)
	return s
}

// groupsWith builds groups whose order_count carries the given values.
func groupsWith(values map[string]float64) []Group {
	groups := make([]Group, 0, len(values))
	for k, v := range values {
		g := Group{Key: k, Label: k}
		g.Measures.OrderCount = v
		g.Metrics = derive(g.Measures)
		groups = append(groups, g)
	}
	return groups
}

package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePackage() Package {
	four := 4
	late := 6.0
	return Package{
		GeneratedAt: "2018-09-01T10:00:00",
		Meta: Metadata{
			MinDate:      "2017-01-05",
			MaxDate:      "2018-08-29",
			States:       []string{"SP", "RJ"},
			PaymentTypes: []string{"credit_card", "boleto"},
		},
		Orders: []OrderFact{
			{Date: "2017-01-05 10:22:01", Country: "Brazil", State: "sp", SellerState: "sp", PaymentType: "credit_card", OrderCount: 10, GMV: 1000},
			{Date: "2018-08-29", Country: "Brazil", State: " RJ ", SellerState: "MG", PaymentType: "boleto", OrderCount: 5, GMV: 250},
		},
		Categories: []CategoryFact{
			{Date: "2017-01-05", Country: "Brazil", State: "SP", PaymentType: "credit_card", Category: "cama_mesa_banho", CategoryGMV: 400},
		},
		DelayBuckets: []DelayBucketFact{
			{Date: "2017-01-05", Country: "Brazil", State: "SP", PaymentType: "credit_card", DelayBucket: BucketOnTime, OrderCount: 10},
		},
		ReviewScores: []ReviewScoreFact{
			{Date: "2017-01-05", Country: "Brazil", State: "SP", PaymentType: "credit_card", ReviewScore: 5, ReviewCount: 8},
		},
		OrderDetails: []OrderDetail{
			{OrderID: "o1", Date: "2018-08-29", Country: "Brazil", State: "RJ", SellerState: "SP", PaymentType: "boleto",
				Category: "esporte_lazer", Status: "delivered", GMV: 50, DelayDays: &late, ReviewScore: &four},
		},
		StateGeo: []StateGeo{{State: "sp", Lat: -23.5, Lng: -46.6}},
	}
}

func TestNewNormalizesRows(t *testing.T) {
	s, err := New(samplePackage())
	require.NoError(t, err)

	orders := s.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "2017-01-05", orders[0].Date)
	assert.Equal(t, "SP", orders[0].State)
	assert.Equal(t, "SP", orders[0].SellerState)
	assert.Equal(t, "RJ", orders[1].State)

	g, ok := s.Geo("SP")
	require.True(t, ok)
	assert.InDelta(t, -23.5, g.Lat, 1e-9)

	_, ok = s.Geo("AM")
	assert.False(t, ok)
}

func TestNewMergesMetadata(t *testing.T) {
	pkg := samplePackage()
	pkg.Meta.States = []string{"SP"}
	pkg.Orders = append(pkg.Orders, OrderFact{Date: "2018-01-01", Country: "Brazil", State: "BA", PaymentType: "voucher", OrderCount: 1})

	s, err := New(pkg)
	require.NoError(t, err)

	meta := s.Meta()
	assert.Equal(t, []string{"BA", "RJ", "SP"}, meta.States)
	assert.Equal(t, []string{"boleto", "credit_card", "voucher"}, meta.PaymentTypes)
	assert.Equal(t, "2018-09-01T10:00:00", meta.GeneratedAt)

	cov := s.Coverage()
	assert.Equal(t, []string{"BA", "RJ"}, cov.UnlistedStates)
	assert.Equal(t, []string{"voucher"}, cov.UnlistedPayments)
}

func TestNewSellerStatesAreNotFilterStates(t *testing.T) {
	pkg := samplePackage()
	pkg.Meta = Metadata{}

	s, err := New(pkg)
	require.NoError(t, err)

	assert.NotContains(t, s.Meta().States, "MG")
	assert.Empty(t, s.Coverage().UnlistedStates)
}

func TestNewDerivesBounds(t *testing.T) {
	pkg := samplePackage()
	pkg.Meta.MinDate = ""
	pkg.Meta.MaxDate = ""

	s, err := New(pkg)
	require.NoError(t, err)
	assert.Equal(t, "2017-01-05", s.Meta().MinDate)
	assert.Equal(t, "2018-08-29", s.Meta().MaxDate)
}

func TestNewSwapsReversedBounds(t *testing.T) {
	pkg := samplePackage()
	pkg.Meta.MinDate, pkg.Meta.MaxDate = pkg.Meta.MaxDate, pkg.Meta.MinDate

	s, err := New(pkg)
	require.NoError(t, err)
	assert.Equal(t, "2017-01-05", s.Meta().MinDate)
	assert.Equal(t, "2018-08-29", s.Meta().MaxDate)
}

func TestNewRejectsBadRows(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Package)
	}{
		{"bad date", func(p *Package) { p.Orders[0].Date = "05/01/2017" }},
		{"separator in category", func(p *Package) { p.Categories[0].Category = "a" + KeySeparator + "b" }},
		{"bad meta date", func(p *Package) { p.Meta.MinDate = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := samplePackage()
			tt.mutate(&pkg)
			_, err := New(pkg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoad)
		})
	}
}

func TestMetaReturnsCopies(t *testing.T) {
	s, err := New(samplePackage())
	require.NoError(t, err)

	m := s.Meta()
	m.States[0] = "XX"
	assert.NotEqual(t, "XX", s.Meta().States[0])
}

func TestCanonical(t *testing.T) {
	// "e" followed by a combining acute accent composes to "é".
	assert.Equal(t, "caf\u00e9", Canonical("  cafe\u0301 "))
}

func TestDateKey(t *testing.T) {
	got, err := DateKey("2017-10-02 10:56:33")
	require.NoError(t, err)
	assert.Equal(t, "2017-10-02", got)

	_, err = DateKey("2017-13-40")
	assert.Error(t, err)
}

func TestOrderDetailMeasures(t *testing.T) {
	delay := 3.0
	score := 1
	m := OrderDetail{GMV: 100, Freight: 10, DelayDays: &delay, ReviewScore: &score}.Measures()
	assert.Equal(t, 1.0, m.OrderCount)
	assert.Equal(t, 3.0, m.DelayDaysSum)
	assert.Equal(t, 1.0, m.DelayDaysCount)
	assert.Zero(t, m.DeliveryDaysCount)
	assert.Equal(t, 1.0, m.ReviewCount)
}

func TestReviewScoreMeasures(t *testing.T) {
	m := ReviewScoreFact{ReviewScore: 4, ReviewCount: 3}.Measures()
	assert.Equal(t, 12.0, m.ReviewScoreSum)
}

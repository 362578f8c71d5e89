package facts

// ============================================================================
// FACT ROWS — Closed set of typed table variants
// ============================================================================
// Every variant shares the filter dimensions (date, country, customer state,
// payment type) and carries additive measures only. Ratios never live on a
// row; the engine derives them after grouping.
// ============================================================================

// Dims are the dimensions every fact row exposes to the filter engine.
type Dims struct {
	Date        string // YYYY-MM-DD
	Country     string
	State       string
	PaymentType string
}

// Measures is the union of all additive measures across fact tables.
// A table that does not carry a measure leaves it at zero.
type Measures struct {
	OrderCount         float64 `json:"order_count"`
	GMV                float64 `json:"gmv"`
	Freight            float64 `json:"freight_value"`
	LateCount          float64 `json:"late_count"`
	SevereDelayCount   float64 `json:"severe_delay_count"`
	DeliveryDaysSum    float64 `json:"delivery_days_sum"`
	DeliveryDaysCount  float64 `json:"delivery_days_count"`
	DelayDaysSum       float64 `json:"delay_days_sum"`
	DelayDaysCount     float64 `json:"delay_days_count"`
	ReviewScoreSum     float64 `json:"review_score_sum"`
	ReviewCount        float64 `json:"review_count"`
	OneStarCount       float64 `json:"one_star_count"`
	LowScoreCount      float64 `json:"low_score_count"`
	InstallmentSum     float64 `json:"installment_sum"`
	ItemCount          float64 `json:"item_count"`
	CategoryGMV        float64 `json:"category_gmv"`
	CategoryFreight    float64 `json:"category_freight"`
	ContributionMargin float64 `json:"contribution_margin"`
	WeightSum          float64 `json:"weight_g_sum"`
	VolumeSum          float64 `json:"volume_cm3_sum"`
}

// Add accumulates o into m.
func (m *Measures) Add(o Measures) {
	m.OrderCount += o.OrderCount
	m.GMV += o.GMV
	m.Freight += o.Freight
	m.LateCount += o.LateCount
	m.SevereDelayCount += o.SevereDelayCount
	m.DeliveryDaysSum += o.DeliveryDaysSum
	m.DeliveryDaysCount += o.DeliveryDaysCount
	m.DelayDaysSum += o.DelayDaysSum
	m.DelayDaysCount += o.DelayDaysCount
	m.ReviewScoreSum += o.ReviewScoreSum
	m.ReviewCount += o.ReviewCount
	m.OneStarCount += o.OneStarCount
	m.LowScoreCount += o.LowScoreCount
	m.InstallmentSum += o.InstallmentSum
	m.ItemCount += o.ItemCount
	m.CategoryGMV += o.CategoryGMV
	m.CategoryFreight += o.CategoryFreight
	m.ContributionMargin += o.ContributionMargin
	m.WeightSum += o.WeightSum
	m.VolumeSum += o.VolumeSum
}

// Row is implemented by every fact table variant.
type Row interface {
	Dims() Dims
	Measures() Measures
}

// ============================================================================
// ORDERS
// ============================================================================

// OrderFact is one row of the orders table, keyed by purchase date,
// country, customer state, seller state and payment type.
type OrderFact struct {
	Date        string `json:"purchase_date"`
	Country     string `json:"country"`
	State       string `json:"customer_state"`
	SellerState string `json:"seller_state"`
	PaymentType string `json:"payment_type"`

	OrderCount        float64 `json:"order_count"`
	GMV               float64 `json:"gmv"`
	Freight           float64 `json:"freight_value"`
	LateCount         float64 `json:"late_count"`
	SevereDelayCount  float64 `json:"severe_delay_count"`
	DeliveryDaysSum   float64 `json:"delivery_days_sum"`
	DeliveryDaysCount float64 `json:"delivery_days_count"`
	DelayDaysSum      float64 `json:"delay_days_sum"`
	DelayDaysCount    float64 `json:"delay_days_count"`
	ReviewScoreSum    float64 `json:"review_score_sum"`
	ReviewCount       float64 `json:"review_count"`
	OneStarCount      float64 `json:"one_star_count"`
	LowScoreCount     float64 `json:"low_score_count"`
	InstallmentSum    float64 `json:"installment_sum"`
	ItemCount         float64 `json:"item_count"`
	WeightSum         float64 `json:"weight_g_sum"`
	VolumeSum         float64 `json:"volume_cm3_sum"`
}

func (r OrderFact) Dims() Dims {
	return Dims{Date: r.Date, Country: r.Country, State: r.State, PaymentType: r.PaymentType}
}

func (r OrderFact) Measures() Measures {
	return Measures{
		OrderCount:        r.OrderCount,
		GMV:               r.GMV,
		Freight:           r.Freight,
		LateCount:         r.LateCount,
		SevereDelayCount:  r.SevereDelayCount,
		DeliveryDaysSum:   r.DeliveryDaysSum,
		DeliveryDaysCount: r.DeliveryDaysCount,
		DelayDaysSum:      r.DelayDaysSum,
		DelayDaysCount:    r.DelayDaysCount,
		ReviewScoreSum:    r.ReviewScoreSum,
		ReviewCount:       r.ReviewCount,
		OneStarCount:      r.OneStarCount,
		LowScoreCount:     r.LowScoreCount,
		InstallmentSum:    r.InstallmentSum,
		ItemCount:         r.ItemCount,
		WeightSum:         r.WeightSum,
		VolumeSum:         r.VolumeSum,
	}
}

// ============================================================================
// CATEGORY
// ============================================================================

// CategoryFact is one row of the product-category table.
type CategoryFact struct {
	Date        string `json:"purchase_date"`
	Country     string `json:"country"`
	State       string `json:"customer_state"`
	PaymentType string `json:"payment_type"`
	Category    string `json:"product_category"`

	OrderCount         float64 `json:"order_count"`
	ItemCount          float64 `json:"item_count"`
	CategoryGMV        float64 `json:"category_gmv"`
	CategoryFreight    float64 `json:"category_freight"`
	ContributionMargin float64 `json:"contribution_margin"`
	WeightSum          float64 `json:"weight_g_sum"`
	VolumeSum          float64 `json:"volume_cm3_sum"`
}

func (r CategoryFact) Dims() Dims {
	return Dims{Date: r.Date, Country: r.Country, State: r.State, PaymentType: r.PaymentType}
}

func (r CategoryFact) Measures() Measures {
	return Measures{
		OrderCount:         r.OrderCount,
		ItemCount:          r.ItemCount,
		CategoryGMV:        r.CategoryGMV,
		CategoryFreight:    r.CategoryFreight,
		ContributionMargin: r.ContributionMargin,
		WeightSum:          r.WeightSum,
		VolumeSum:          r.VolumeSum,
	}
}

// ============================================================================
// DELAY BUCKET
// ============================================================================

// Known delay buckets in display order.
const (
	BucketOnTime       = "on_time_or_early"
	BucketLate1To3     = "late_1_to_3_days"
	BucketLate4To5     = "late_4_to_5_days"
	BucketLateOver5    = "late_over_5_days"
	BucketNotDelivered = "not_delivered"
)

// DelayBucketOrder is the fixed presentation order of delay buckets.
var DelayBucketOrder = []string{BucketOnTime, BucketLate1To3, BucketLate4To5, BucketLateOver5, BucketNotDelivered}

// DelayBucketFact is one row of the delay-bucket table.
type DelayBucketFact struct {
	Date        string `json:"purchase_date"`
	Country     string `json:"country"`
	State       string `json:"customer_state"`
	PaymentType string `json:"payment_type"`
	DelayBucket string `json:"delay_bucket"`

	OrderCount     float64 `json:"order_count"`
	ReviewScoreSum float64 `json:"review_score_sum"`
	ReviewCount    float64 `json:"review_count"`
	OneStarCount   float64 `json:"one_star_count"`
	LowScoreCount  float64 `json:"low_score_count"`
	DelayDaysSum   float64 `json:"delay_days_sum"`
	DelayDaysCount float64 `json:"delay_days_count"`
}

func (r DelayBucketFact) Dims() Dims {
	return Dims{Date: r.Date, Country: r.Country, State: r.State, PaymentType: r.PaymentType}
}

func (r DelayBucketFact) Measures() Measures {
	return Measures{
		OrderCount:     r.OrderCount,
		ReviewScoreSum: r.ReviewScoreSum,
		ReviewCount:    r.ReviewCount,
		OneStarCount:   r.OneStarCount,
		LowScoreCount:  r.LowScoreCount,
		DelayDaysSum:   r.DelayDaysSum,
		DelayDaysCount: r.DelayDaysCount,
	}
}

// ============================================================================
// REVIEW SCORE
// ============================================================================

// ReviewScoreFact is one row of the review-score distribution table.
type ReviewScoreFact struct {
	Date        string `json:"purchase_date"`
	Country     string `json:"country"`
	State       string `json:"customer_state"`
	PaymentType string `json:"payment_type"`
	ReviewScore int    `json:"review_score"`

	ReviewCount float64 `json:"review_count"`
	OrderCount  float64 `json:"order_count"`
}

func (r ReviewScoreFact) Dims() Dims {
	return Dims{Date: r.Date, Country: r.Country, State: r.State, PaymentType: r.PaymentType}
}

func (r ReviewScoreFact) Measures() Measures {
	return Measures{
		ReviewCount:    r.ReviewCount,
		OrderCount:     r.OrderCount,
		ReviewScoreSum: float64(r.ReviewScore) * r.ReviewCount,
	}
}

// ============================================================================
// ORDER DETAIL
// ============================================================================

// OrderDetail is one order-level row used for drill-down detail tables.
// Optional fields are nil when the order has no delivery or review yet.
type OrderDetail struct {
	OrderID     string `json:"order_id"`
	Date        string `json:"purchase_date"`
	Country     string `json:"country"`
	State       string `json:"customer_state"`
	SellerState string `json:"seller_state"`
	PaymentType string `json:"payment_type"`
	Category    string `json:"product_category"`
	Status      string `json:"order_status"`

	GMV          float64  `json:"gmv"`
	Freight      float64  `json:"freight_value"`
	DeliveryDays *float64 `json:"delivery_days"`
	DelayDays    *float64 `json:"delay_days"`
	ReviewScore  *int     `json:"review_score"`
}

func (r OrderDetail) Dims() Dims {
	return Dims{Date: r.Date, Country: r.Country, State: r.State, PaymentType: r.PaymentType}
}

func (r OrderDetail) Measures() Measures {
	m := Measures{OrderCount: 1, GMV: r.GMV, Freight: r.Freight}
	if r.DeliveryDays != nil {
		m.DeliveryDaysSum = *r.DeliveryDays
		m.DeliveryDaysCount = 1
	}
	if r.DelayDays != nil {
		m.DelayDaysSum = *r.DelayDays
		m.DelayDaysCount = 1
	}
	if r.ReviewScore != nil {
		m.ReviewScoreSum = float64(*r.ReviewScore)
		m.ReviewCount = 1
	}
	return m
}

// ============================================================================
// STATE GEOLOCATION
// ============================================================================

// StateGeo is a state centroid. It is joined to state aggregates, never summed.
type StateGeo struct {
	State string  `json:"customer_state"`
	Lat   float64 `json:"geo_lat"`
	Lng   float64 `json:"geo_lng"`
}

// ============================================================================
// PACKAGE
// ============================================================================

// Metadata describes the bounds and known dimension values of a package.
type Metadata struct {
	MinDate      string   `json:"min_date"`
	MaxDate      string   `json:"max_date"`
	States       []string `json:"states"`
	PaymentTypes []string `json:"payment_types"`
	GeneratedAt  string   `json:"generated_at,omitempty"`
}

// Package is the raw data package as delivered by the extraction process.
type Package struct {
	GeneratedAt  string            `json:"generated_at"`
	Meta         Metadata          `json:"meta"`
	Orders       []OrderFact       `json:"orders"`
	Categories   []CategoryFact    `json:"categories"`
	DelayBuckets []DelayBucketFact `json:"delay_buckets"`
	ReviewScores []ReviewScoreFact `json:"review_scores"`
	OrderDetails []OrderDetail     `json:"order_details"`
	StateGeo     []StateGeo        `json:"state_geo"`
}

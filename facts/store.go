package facts

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// FACT STORE — Immutable in-memory snapshot
// ============================================================================
// Built once from a Package; never mutated afterwards. Accessors hand out the
// underlying slices for zero-copy scanning, callers must treat them as
// read-only.
// ============================================================================

// KeySeparator joins the parts of composite group keys. Dimension values
// containing it are rejected at load so composite keys stay unambiguous.
const KeySeparator = "\x1f"

// DateLayout is the only date form exchanged at the package boundary.
const DateLayout = "2006-01-02"

// Store is the loaded, normalized fact snapshot.
type Store struct {
	meta         Metadata
	orders       []OrderFact
	categories   []CategoryFact
	delayBuckets []DelayBucketFact
	reviewScores []ReviewScoreFact
	orderDetails []OrderDetail
	geo          map[string]StateGeo
	coverage     Coverage
}

// Coverage reports dimension values seen in rows but missing from the
// package metadata. They are merged into the known lists so default filters
// never hide rows.
type Coverage struct {
	UnlistedStates   []string `json:"unlisted_states"`
	UnlistedPayments []string `json:"unlisted_payment_types"`
}

// TableCounts summarizes row counts per fact table.
type TableCounts struct {
	Orders       int `json:"orders"`
	Categories   int `json:"categories"`
	DelayBuckets int `json:"delay_buckets"`
	ReviewScores int `json:"review_scores"`
	OrderDetails int `json:"order_details"`
	StateGeo     int `json:"state_geo"`
}

// New validates and normalizes a Package into a Store. Any malformed row
// fails the whole load: the engine never runs on partial data.
func New(pkg Package) (*Store, error) {
	s := &Store{
		orders:       make([]OrderFact, len(pkg.Orders)),
		categories:   make([]CategoryFact, len(pkg.Categories)),
		delayBuckets: make([]DelayBucketFact, len(pkg.DelayBuckets)),
		reviewScores: make([]ReviewScoreFact, len(pkg.ReviewScores)),
		orderDetails: make([]OrderDetail, len(pkg.OrderDetails)),
		geo:          make(map[string]StateGeo, len(pkg.StateGeo)),
	}

	n := newNormalizer()
	for i, r := range pkg.Orders {
		r.Date = n.date("orders", i, r.Date)
		r.Country = n.value("orders", i, r.Country)
		r.State = n.customerState("orders", i, r.State)
		r.SellerState = n.state("orders", i, r.SellerState)
		r.PaymentType = n.value("orders", i, r.PaymentType)
		s.orders[i] = r
	}
	for i, r := range pkg.Categories {
		r.Date = n.date("categories", i, r.Date)
		r.Country = n.value("categories", i, r.Country)
		r.State = n.customerState("categories", i, r.State)
		r.PaymentType = n.value("categories", i, r.PaymentType)
		r.Category = n.value("categories", i, r.Category)
		s.categories[i] = r
	}
	for i, r := range pkg.DelayBuckets {
		r.Date = n.date("delay_buckets", i, r.Date)
		r.Country = n.value("delay_buckets", i, r.Country)
		r.State = n.customerState("delay_buckets", i, r.State)
		r.PaymentType = n.value("delay_buckets", i, r.PaymentType)
		r.DelayBucket = n.value("delay_buckets", i, r.DelayBucket)
		s.delayBuckets[i] = r
	}
	for i, r := range pkg.ReviewScores {
		r.Date = n.date("review_scores", i, r.Date)
		r.Country = n.value("review_scores", i, r.Country)
		r.State = n.customerState("review_scores", i, r.State)
		r.PaymentType = n.value("review_scores", i, r.PaymentType)
		s.reviewScores[i] = r
	}
	for i, r := range pkg.OrderDetails {
		r.Date = n.date("order_details", i, r.Date)
		r.Country = n.value("order_details", i, r.Country)
		r.State = n.customerState("order_details", i, r.State)
		r.SellerState = n.state("order_details", i, r.SellerState)
		r.PaymentType = n.value("order_details", i, r.PaymentType)
		r.Category = n.value("order_details", i, r.Category)
		s.orderDetails[i] = r
	}
	for i, g := range pkg.StateGeo {
		g.State = n.state("state_geo", i, g.State)
		s.geo[g.State] = g
	}
	if n.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, n.err)
	}

	meta, err := n.metadata(pkg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	s.meta = meta
	s.coverage = n.coverage(pkg.Meta)

	if len(s.coverage.UnlistedStates) > 0 || len(s.coverage.UnlistedPayments) > 0 {
		log.Printf("⚠️ olistlens: metadata missing %d states and %d payment types seen in rows",
			len(s.coverage.UnlistedStates), len(s.coverage.UnlistedPayments))
	}
	return s, nil
}

// Meta returns the dataset metadata. The slices are copies.
func (s *Store) Meta() Metadata {
	m := s.meta
	m.States = append([]string(nil), s.meta.States...)
	m.PaymentTypes = append([]string(nil), s.meta.PaymentTypes...)
	return m
}

func (s *Store) Orders() []OrderFact             { return s.orders }
func (s *Store) Categories() []CategoryFact      { return s.categories }
func (s *Store) DelayBuckets() []DelayBucketFact { return s.delayBuckets }
func (s *Store) ReviewScores() []ReviewScoreFact { return s.reviewScores }
func (s *Store) OrderDetails() []OrderDetail     { return s.orderDetails }

// Geo returns the centroid of a state, if known.
func (s *Store) Geo(state string) (StateGeo, bool) {
	g, ok := s.geo[state]
	return g, ok
}

// Coverage reports values seen in rows but absent from package metadata.
func (s *Store) Coverage() Coverage { return s.coverage }

// Counts returns per-table row counts.
func (s *Store) Counts() TableCounts {
	return TableCounts{
		Orders:       len(s.orders),
		Categories:   len(s.categories),
		DelayBuckets: len(s.delayBuckets),
		ReviewScores: len(s.reviewScores),
		OrderDetails: len(s.orderDetails),
		StateGeo:     len(s.geo),
	}
}

// ============================================================================
// NORMALIZATION
// ============================================================================

// DateKey reduces a timestamp or date string to its YYYY-MM-DD key.
func DateKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", raw)
	}
	return t.Format(DateLayout), nil
}

// Canonical trims and NFC-normalizes a dimension value so that visually
// identical category or state names group together.
func Canonical(v string) string {
	return norm.NFC.String(strings.TrimSpace(v))
}

type normalizer struct {
	err      error
	minDate  string
	maxDate  string
	states   map[string]bool
	payments map[string]bool
}

func newNormalizer() *normalizer {
	return &normalizer{states: map[string]bool{}, payments: map[string]bool{}}
}

func (n *normalizer) fail(table string, row int, err error) {
	if n.err == nil {
		n.err = fmt.Errorf("%s row %d: %w", table, row, err)
	}
}

func (n *normalizer) date(table string, row int, raw string) string {
	key, err := DateKey(raw)
	if err != nil {
		n.fail(table, row, err)
		return raw
	}
	if n.minDate == "" || key < n.minDate {
		n.minDate = key
	}
	if n.maxDate == "" || key > n.maxDate {
		n.maxDate = key
	}
	return key
}

func (n *normalizer) value(table string, row int, raw string) string {
	v := Canonical(raw)
	if strings.Contains(v, KeySeparator) {
		n.fail(table, row, fmt.Errorf("value %q contains the key separator", v))
	}
	return v
}

func (n *normalizer) state(table string, row int, raw string) string {
	return strings.ToUpper(n.value(table, row, raw))
}

// customerState normalizes a filterable state and records it as seen.
func (n *normalizer) customerState(table string, row int, raw string) string {
	v := n.state(table, row, raw)
	if v != "" {
		n.states[v] = true
	}
	return v
}

func (n *normalizer) metadata(pkg Package) (Metadata, error) {
	meta := pkg.Meta
	if meta.GeneratedAt == "" {
		meta.GeneratedAt = pkg.GeneratedAt
	}

	for _, r := range pkg.Orders {
		n.seePayment(r.PaymentType)
	}
	for _, r := range pkg.Categories {
		n.seePayment(r.PaymentType)
	}
	for _, r := range pkg.DelayBuckets {
		n.seePayment(r.PaymentType)
	}
	for _, r := range pkg.ReviewScores {
		n.seePayment(r.PaymentType)
	}
	for _, r := range pkg.OrderDetails {
		n.seePayment(r.PaymentType)
	}

	var err error
	if meta.MinDate == "" {
		meta.MinDate = n.minDate
	} else if meta.MinDate, err = DateKey(meta.MinDate); err != nil {
		return Metadata{}, fmt.Errorf("meta min_date: %w", err)
	}
	if meta.MaxDate == "" {
		meta.MaxDate = n.maxDate
	} else if meta.MaxDate, err = DateKey(meta.MaxDate); err != nil {
		return Metadata{}, fmt.Errorf("meta max_date: %w", err)
	}
	if meta.MinDate > meta.MaxDate {
		meta.MinDate, meta.MaxDate = meta.MaxDate, meta.MinDate
	}

	states := map[string]bool{}
	for _, st := range meta.States {
		if v := strings.ToUpper(Canonical(st)); v != "" {
			states[v] = true
		}
	}
	for st := range n.states {
		states[st] = true
	}
	payments := map[string]bool{}
	for _, p := range meta.PaymentTypes {
		if v := Canonical(p); v != "" {
			payments[v] = true
		}
	}
	for p := range n.payments {
		payments[p] = true
	}
	meta.States = sortedKeys(states)
	meta.PaymentTypes = sortedKeys(payments)
	return meta, nil
}

func (n *normalizer) seePayment(raw string) {
	if v := Canonical(raw); v != "" {
		n.payments[v] = true
	}
}

func (n *normalizer) coverage(declared Metadata) Coverage {
	listedStates := map[string]bool{}
	for _, st := range declared.States {
		listedStates[strings.ToUpper(Canonical(st))] = true
	}
	listedPayments := map[string]bool{}
	for _, p := range declared.PaymentTypes {
		listedPayments[Canonical(p)] = true
	}

	cov := Coverage{UnlistedStates: []string{}, UnlistedPayments: []string{}}
	// An empty declared list means the package relies on derivation.
	if len(declared.States) > 0 {
		for _, st := range sortedKeys(n.states) {
			if !listedStates[st] {
				cov.UnlistedStates = append(cov.UnlistedStates, st)
			}
		}
	}
	if len(declared.PaymentTypes) > 0 {
		for _, p := range sortedKeys(n.payments) {
			if !listedPayments[p] {
				cov.UnlistedPayments = append(cov.UnlistedPayments, p)
			}
		}
	}
	return cov
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

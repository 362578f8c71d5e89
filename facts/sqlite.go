package facts

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// ============================================================================
// SQLITE WAREHOUSE EXPORT
// ============================================================================
// The extraction pipeline can hand over its mart tables as a SQLite file
// instead of a JSON document. The same validation path applies.
// ============================================================================

const (
	queryOrders = `SELECT purchase_date, country, customer_state, seller_state, payment_type,
	order_count, gmv, freight_value, late_count, severe_delay_count,
	delivery_days_sum, delivery_days_count, delay_days_sum, delay_days_count,
	review_score_sum, review_count, one_star_count, low_score_count,
	installment_sum, item_count, weight_g_sum, volume_cm3_sum
FROM fact_orders`

	queryCategories = `SELECT purchase_date, country, customer_state, payment_type, product_category,
	order_count, item_count, category_gmv, category_freight, contribution_margin,
	weight_g_sum, volume_cm3_sum
FROM fact_category`

	queryDelayBuckets = `SELECT purchase_date, country, customer_state, payment_type, delay_bucket,
	order_count, review_score_sum, review_count, one_star_count, low_score_count,
	delay_days_sum, delay_days_count
FROM fact_delay_bucket`

	queryReviewScores = `SELECT purchase_date, country, customer_state, payment_type, review_score,
	review_count, order_count
FROM fact_review_score`

	queryOrderDetails = `SELECT order_id, purchase_date, country, customer_state, seller_state,
	payment_type, product_category, order_status, gmv, freight_value,
	delivery_days, delay_days, review_score
FROM fact_order_detail`

	queryStateGeo = `SELECT customer_state, geo_lat, geo_lng FROM state_geo`

	queryMeta = `SELECT key, value FROM package_meta`
)

// LoadSQLite opens a SQLite warehouse export and builds a Store.
func LoadSQLite(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ErrLoad, err)
	}
	defer db.Close()

	store, err := ReadDB(ctx, db)
	if err != nil {
		return nil, err
	}
	log.Printf("📦 olistlens: loaded warehouse export %s (%d orders)", path, store.Counts().Orders)
	return store, nil
}

// ReadDB reads every fact table from an open database handle.
func ReadDB(ctx context.Context, db *sql.DB) (*Store, error) {
	var pkg Package
	var err error

	if pkg.Orders, err = readOrders(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: fact_orders: %v", ErrLoad, err)
	}
	if pkg.Categories, err = readCategories(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: fact_category: %v", ErrLoad, err)
	}
	if pkg.DelayBuckets, err = readDelayBuckets(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: fact_delay_bucket: %v", ErrLoad, err)
	}
	if pkg.ReviewScores, err = readReviewScores(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: fact_review_score: %v", ErrLoad, err)
	}
	if pkg.OrderDetails, err = readOrderDetails(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: fact_order_detail: %v", ErrLoad, err)
	}
	if pkg.StateGeo, err = readStateGeo(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: state_geo: %v", ErrLoad, err)
	}
	if pkg.Meta, err = readMeta(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: package_meta: %v", ErrLoad, err)
	}
	pkg.GeneratedAt = pkg.Meta.GeneratedAt

	return New(pkg)
}

// scanAll runs a query and scans each row with fn.
func scanAll[T any](ctx context.Context, db *sql.DB, query string, fn func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := fn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func readOrders(ctx context.Context, db *sql.DB) ([]OrderFact, error) {
	return scanAll(ctx, db, queryOrders, func(rows *sql.Rows) (OrderFact, error) {
		var r OrderFact
		err := rows.Scan(&r.Date, &r.Country, &r.State, &r.SellerState, &r.PaymentType,
			&r.OrderCount, &r.GMV, &r.Freight, &r.LateCount, &r.SevereDelayCount,
			&r.DeliveryDaysSum, &r.DeliveryDaysCount, &r.DelayDaysSum, &r.DelayDaysCount,
			&r.ReviewScoreSum, &r.ReviewCount, &r.OneStarCount, &r.LowScoreCount,
			&r.InstallmentSum, &r.ItemCount, &r.WeightSum, &r.VolumeSum)
		return r, err
	})
}

func readCategories(ctx context.Context, db *sql.DB) ([]CategoryFact, error) {
	return scanAll(ctx, db, queryCategories, func(rows *sql.Rows) (CategoryFact, error) {
		var r CategoryFact
		err := rows.Scan(&r.Date, &r.Country, &r.State, &r.PaymentType, &r.Category,
			&r.OrderCount, &r.ItemCount, &r.CategoryGMV, &r.CategoryFreight, &r.ContributionMargin,
			&r.WeightSum, &r.VolumeSum)
		return r, err
	})
}

func readDelayBuckets(ctx context.Context, db *sql.DB) ([]DelayBucketFact, error) {
	return scanAll(ctx, db, queryDelayBuckets, func(rows *sql.Rows) (DelayBucketFact, error) {
		var r DelayBucketFact
		err := rows.Scan(&r.Date, &r.Country, &r.State, &r.PaymentType, &r.DelayBucket,
			&r.OrderCount, &r.ReviewScoreSum, &r.ReviewCount, &r.OneStarCount, &r.LowScoreCount,
			&r.DelayDaysSum, &r.DelayDaysCount)
		return r, err
	})
}

func readReviewScores(ctx context.Context, db *sql.DB) ([]ReviewScoreFact, error) {
	return scanAll(ctx, db, queryReviewScores, func(rows *sql.Rows) (ReviewScoreFact, error) {
		var r ReviewScoreFact
		err := rows.Scan(&r.Date, &r.Country, &r.State, &r.PaymentType, &r.ReviewScore,
			&r.ReviewCount, &r.OrderCount)
		return r, err
	})
}

func readOrderDetails(ctx context.Context, db *sql.DB) ([]OrderDetail, error) {
	return scanAll(ctx, db, queryOrderDetails, func(rows *sql.Rows) (OrderDetail, error) {
		var r OrderDetail
		var delivery, delay sql.NullFloat64
		var score sql.NullInt64
		err := rows.Scan(&r.OrderID, &r.Date, &r.Country, &r.State, &r.SellerState,
			&r.PaymentType, &r.Category, &r.Status, &r.GMV, &r.Freight,
			&delivery, &delay, &score)
		if err != nil {
			return r, err
		}
		if delivery.Valid {
			v := delivery.Float64
			r.DeliveryDays = &v
		}
		if delay.Valid {
			v := delay.Float64
			r.DelayDays = &v
		}
		if score.Valid {
			v := int(score.Int64)
			r.ReviewScore = &v
		}
		return r, nil
	})
}

func readStateGeo(ctx context.Context, db *sql.DB) ([]StateGeo, error) {
	return scanAll(ctx, db, queryStateGeo, func(rows *sql.Rows) (StateGeo, error) {
		var g StateGeo
		err := rows.Scan(&g.State, &g.Lat, &g.Lng)
		return g, err
	})
}

// readMeta reads the key/value metadata table. List values are comma-joined.
func readMeta(ctx context.Context, db *sql.DB) (Metadata, error) {
	type kv struct{ key, value string }
	pairs, err := scanAll(ctx, db, queryMeta, func(rows *sql.Rows) (kv, error) {
		var p kv
		err := rows.Scan(&p.key, &p.value)
		return p, err
	})
	if err != nil {
		return Metadata{}, err
	}

	var meta Metadata
	for _, p := range pairs {
		switch p.key {
		case "min_date":
			meta.MinDate = p.value
		case "max_date":
			meta.MaxDate = p.value
		case "generated_at":
			meta.GeneratedAt = p.value
		case "states":
			meta.States = splitList(p.value)
		case "payment_types":
			meta.PaymentTypes = splitList(p.value)
		}
	}
	return meta, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

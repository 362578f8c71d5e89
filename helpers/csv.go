package helpers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/spektr-org/olistlens/facts"
)

// ============================================================================
// CSV HELPER — Parses a CSV export directory into a facts.Store
// ============================================================================
// One file per fact table. Headers are matched against the JSON field names
// of the row types, so a CSV export and a JSON package share one vocabulary.
// Only orders.csv is required; absent tables load empty.
// ============================================================================

// CSV file names inside an export directory.
const (
	OrdersFile       = "orders.csv"
	CategoriesFile   = "categories.csv"
	DelayBucketsFile = "delay_buckets.csv"
	ReviewScoresFile = "review_scores.csv"
	OrderDetailsFile = "order_details.csv"
	StateGeoFile     = "state_geo.csv"
	MetaFile         = "meta.csv" // key,value pairs like the warehouse package_meta table
)

// LoadCSVDir reads every known table from dir and builds a Store.
func LoadCSVDir(dir string) (*facts.Store, error) {
	var pkg facts.Package
	var err error

	if pkg.Orders, err = parseFile[facts.OrderFact](dir, OrdersFile, true); err != nil {
		return nil, err
	}
	if pkg.Categories, err = parseFile[facts.CategoryFact](dir, CategoriesFile, false); err != nil {
		return nil, err
	}
	if pkg.DelayBuckets, err = parseFile[facts.DelayBucketFact](dir, DelayBucketsFile, false); err != nil {
		return nil, err
	}
	if pkg.ReviewScores, err = parseFile[facts.ReviewScoreFact](dir, ReviewScoresFile, false); err != nil {
		return nil, err
	}
	if pkg.OrderDetails, err = parseFile[facts.OrderDetail](dir, OrderDetailsFile, false); err != nil {
		return nil, err
	}
	if pkg.StateGeo, err = parseFile[facts.StateGeo](dir, StateGeoFile, false); err != nil {
		return nil, err
	}
	if pkg.Meta, err = parseMeta(dir); err != nil {
		return nil, err
	}
	pkg.GeneratedAt = pkg.Meta.GeneratedAt

	return facts.New(pkg)
}

func parseFile[T any](dir, name string, required bool) ([]T, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", facts.ErrLoad, err)
	}
	defer f.Close()

	rows, err := ParseCSV[T](f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", facts.ErrLoad, name, err)
	}
	return rows, nil
}

func parseMeta(dir string) (facts.Metadata, error) {
	type pair struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	pairs, err := parseFile[pair](dir, MetaFile, false)
	if err != nil {
		return facts.Metadata{}, err
	}

	var meta facts.Metadata
	for _, p := range pairs {
		switch toSnakeCase(p.Key) {
		case "min_date":
			meta.MinDate = p.Value
		case "max_date":
			meta.MaxDate = p.Value
		case "generated_at":
			meta.GeneratedAt = p.Value
		case "states":
			meta.States = splitList(p.Value)
		case "payment_types":
			meta.PaymentTypes = splitList(p.Value)
		}
	}
	return meta, nil
}

// ParseCSV decodes CSV rows into T, mapping snake_case headers to the json
// tags of T's fields. Unknown columns are skipped. Empty cells leave numbers
// at zero and optional pointer fields nil. A malformed number fails the parse.
func ParseCSV[T any](r io.Reader) ([]T, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	var zero T
	fields := fieldIndex(reflect.TypeOf(zero))
	mappings := make([]int, len(headers))
	for i, h := range headers {
		idx, ok := fields[toSnakeCase(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))]
		if !ok {
			idx = -1
		}
		mappings[i] = idx
	}

	var out []T
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var rec T
		v := reflect.ValueOf(&rec).Elem()
		for i, val := range row {
			if i >= len(mappings) || mappings[i] < 0 {
				continue
			}
			if err := setField(v.Field(mappings[i]), strings.TrimSpace(val)); err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, headers[i], err)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// fieldIndex maps json tag names to struct field indexes.
func fieldIndex(t reflect.Type) map[string]int {
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		idx[name] = i
	}
	return idx
}

func setField(f reflect.Value, val string) error {
	if f.Kind() == reflect.Pointer {
		if val == "" {
			return nil
		}
		p := reflect.New(f.Type().Elem())
		if err := setField(p.Elem(), val); err != nil {
			return err
		}
		f.Set(p)
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(val)
	case reflect.Float64:
		if val == "" {
			return nil
		}
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		f.SetFloat(n)
	case reflect.Int:
		if val == "" {
			return nil
		}
		// Review scores sometimes arrive as "5.0".
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		f.SetInt(int64(n))
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// toSnakeCase converts "Column Name" → "column_name".
func toSnakeCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

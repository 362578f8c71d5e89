package helpers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spektr-org/olistlens/facts"
)

// Source kinds recognized by OpenSource.
const (
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
	SourceCSV    = "csv"
	SourceJSON   = "json"
)

// SourceKind classifies a data source string by scheme, extension or, for
// local paths, whether it names a directory.
func SourceKind(source string) string {
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return SourceHTTP
	}
	switch filepath.Ext(lower) {
	case ".db", ".sqlite", ".sqlite3":
		return SourceSQLite
	case ".json":
		return SourceJSON
	}
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		return SourceCSV
	}
	return SourceJSON
}

// OpenSource loads a Store from a URL, SQLite file, CSV directory or JSON file.
// timeout bounds the remote fetch only; zero means no limit.
func OpenSource(ctx context.Context, source string, timeout time.Duration) (*facts.Store, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: no data source configured", facts.ErrLoad)
	}

	switch SourceKind(source) {
	case SourceHTTP:
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return facts.Fetch(ctx, &http.Client{}, source)
	case SourceSQLite:
		return facts.LoadSQLite(ctx, source)
	case SourceCSV:
		return LoadCSVDir(source)
	default:
		return facts.LoadFile(source)
	}
}

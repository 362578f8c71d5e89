package facts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

// ============================================================================
// PACKAGE LOADING — JSON file or remote fetch
// ============================================================================
// Loading is the only fallible step of the system. Every failure wraps
// ErrLoad so callers can surface one terminal "package failed to load" state.
// ============================================================================

// ErrLoad marks any failure to fetch, parse or validate a data package.
var ErrLoad = errors.New("package failed to load")

// Decode reads a JSON data package and builds a Store.
func Decode(r io.Reader) (*Store, error) {
	var pkg Package
	if err := json.NewDecoder(r).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("%w: decoding package: %v", ErrLoad, err)
	}
	store, err := New(pkg)
	if err != nil {
		return nil, err
	}
	c := store.Counts()
	log.Printf("📦 olistlens: loaded package (%d orders, %d categories, %d detail rows)",
		c.Orders, c.Categories, c.OrderDetails)
	return store, nil
}

// LoadFile reads a JSON data package from disk.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer f.Close()
	return Decode(f)
}

// Fetch downloads a JSON data package. The timeout belongs to ctx.
func Fetch(ctx context.Context, client *http.Client, url string) (*Store, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrLoad, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrLoad, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: status %d", ErrLoad, url, resp.StatusCode)
	}
	return Decode(resp.Body)
}

package facts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packageJSON(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(samplePackage())
	require.NoError(t, err)
	return data
}

func TestDecode(t *testing.T) {
	s, err := Decode(strings.NewReader(string(packageJSON(t))))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Counts().Orders)
	assert.Equal(t, 1, s.Counts().StateGeo)

	d := s.OrderDetails()[0]
	require.NotNil(t, d.ReviewScore)
	assert.Equal(t, 4, *d.ReviewScore)
	assert.Nil(t, d.DeliveryDays)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"orders": [`))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, packageJSON(t), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2018-08-29", s.Meta().MaxDate)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestFetch(t *testing.T) {
	body := packageJSON(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/package.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer srv.Close()

	s, err := Fetch(context.Background(), srv.Client(), srv.URL+"/package.json")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Counts().Orders)

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/other.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(packageJSON(t))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fetch(ctx, nil, srv.URL)
	assert.ErrorIs(t, err, ErrLoad)
}

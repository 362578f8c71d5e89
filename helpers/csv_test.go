package helpers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/olistlens/facts"
)

const ordersCSV = `purchase_date,country,customer_state,seller_state,payment_type,order_count,gmv,freight_value,ignored_column
2017-11-24,Brazil,SP,SP,credit_card,40,5200.5,610,x
2018-01-10 08:12:00,Brazil,rj,PR,boleto,7,,90,y
`

const detailsCSV = `Order ID,Purchase Date,Country,Customer State,Seller State,Payment Type,Product Category,Order Status,GMV,Freight Value,Delivery Days,Delay Days,Review Score
a1,2018-01-10,Brazil,RJ,PR,boleto,moveis_decoracao,delivered,120,18,9,,4.0
a2,2018-01-11,Brazil,RJ,PR,boleto,moveis_decoracao,shipped,80,12,,,
`

const metaCSV = `key,value
min_date,2017-11-24
max_date,2018-01-11
states,"SP,RJ"
payment_types,credit_card;boleto
`

func writeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV[facts.OrderFact](strings.NewReader(ordersCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "SP", rows[0].State)
	assert.Equal(t, 40.0, rows[0].OrderCount)
	assert.Equal(t, 5200.5, rows[0].GMV)
	assert.Zero(t, rows[1].GMV)
	assert.Equal(t, 90.0, rows[1].Freight)
}

func TestParseCSVOptionalFields(t *testing.T) {
	rows, err := ParseCSV[facts.OrderDetail](strings.NewReader(detailsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].DeliveryDays)
	assert.Equal(t, 9.0, *rows[0].DeliveryDays)
	assert.Nil(t, rows[0].DelayDays)
	require.NotNil(t, rows[0].ReviewScore)
	assert.Equal(t, 4, *rows[0].ReviewScore)

	assert.Nil(t, rows[1].DeliveryDays)
	assert.Nil(t, rows[1].ReviewScore)
}

func TestParseCSVMalformedNumber(t *testing.T) {
	_, err := ParseCSV[facts.OrderFact](strings.NewReader("gmv\nlots\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseCSVEmpty(t *testing.T) {
	rows, err := ParseCSV[facts.OrderFact](strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLoadCSVDir(t *testing.T) {
	dir := writeDir(t, map[string]string{
		OrdersFile:       ordersCSV,
		OrderDetailsFile: detailsCSV,
		MetaFile:         metaCSV,
	})

	s, err := LoadCSVDir(dir)
	require.NoError(t, err)

	c := s.Counts()
	assert.Equal(t, 2, c.Orders)
	assert.Equal(t, 2, c.OrderDetails)
	assert.Zero(t, c.Categories)

	meta := s.Meta()
	assert.Equal(t, []string{"RJ", "SP"}, meta.States)
	assert.Equal(t, []string{"boleto", "credit_card"}, meta.PaymentTypes)
	assert.Equal(t, "2018-01-10", s.Orders()[1].Date)
}

func TestLoadCSVDirRequiresOrders(t *testing.T) {
	dir := writeDir(t, map[string]string{MetaFile: metaCSV})
	_, err := LoadCSVDir(dir)
	assert.ErrorIs(t, err, facts.ErrLoad)
}

func TestSourceKind(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		source string
		want   string
	}{
		{"https://example.org/package.json", SourceHTTP},
		{"HTTP://example.org/p", SourceHTTP},
		{"warehouse.sqlite3", SourceSQLite},
		{"export.db", SourceSQLite},
		{"package.json", SourceJSON},
		{dir, SourceCSV},
		{"no-such-thing", SourceJSON},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SourceKind(tt.source), tt.source)
	}
}

func TestOpenSource(t *testing.T) {
	pkg := facts.Package{
		Orders: []facts.OrderFact{{Date: "2018-02-01", Country: "Brazil", State: "MG", PaymentType: "voucher", OrderCount: 3}},
	}
	body, err := json.Marshal(pkg)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	s, err := OpenSource(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"MG"}, s.Meta().States)

	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, body, 0o644))
	s, err = OpenSource(context.Background(), path, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Counts().Orders)

	s, err = OpenSource(context.Background(), writeDir(t, map[string]string{OrdersFile: ordersCSV}), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Counts().Orders)

	_, err = OpenSource(context.Background(), "", 0)
	assert.ErrorIs(t, err, facts.ErrLoad)
}

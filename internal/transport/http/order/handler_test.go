package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/ventas/internal/cache"
	"github.com/Additional-Code/ventas/internal/config"
	"github.com/Additional-Code/ventas/internal/database"
	"github.com/Additional-Code/ventas/internal/database/dbtest"
	"github.com/Additional-Code/ventas/internal/messaging"
	catalogrepo "github.com/Additional-Code/ventas/internal/repository/catalog"
	orderrepo "github.com/Additional-Code/ventas/internal/repository/order"
	serverhttp "github.com/Additional-Code/ventas/internal/server/http"
	catalogsvc "github.com/Additional-Code/ventas/internal/service/catalog"
	service "github.com/Additional-Code/ventas/internal/service/order"
	catalogtransport "github.com/Additional-Code/ventas/internal/transport/http/catalog"
)

type countingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *countingPublisher) Publish(_ context.Context, msg messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, msg.EventType())
	return nil
}

func (p *countingPublisher) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (p *countingPublisher) Topic() string { return "ventas.orders" }

type fixture struct {
	e         *echo.Echo
	conns     *database.Connections
	publisher *countingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conns := dbtest.Open(t)
	cfg := config.Config{
		Cache:     config.Cache{CatalogTTL: time.Minute},
		Messaging: config.Messaging{Enabled: true},
	}
	logger := zap.NewNop()
	publisher := &countingPublisher{}

	catalog := catalogsvc.NewService(catalogsvc.Params{
		Repository: catalogrepo.NewRepository(conns),
		Cache:      cache.NewMemoryStore(time.Minute),
		Config:     cfg,
		Logger:     logger,
	})
	orders, err := service.NewService(service.Params{
		Repository: orderrepo.NewRepository(conns),
		Config:     cfg,
		Logger:     logger,
		Publisher:  publisher,
	})
	require.NoError(t, err)

	e := serverhttp.NewEcho(serverhttp.Params{Config: cfg, Logger: logger})
	catalogtransport.Register(e, catalogtransport.NewHandler(catalog))
	Register(e, NewHandler(orders))
	return fixture{e: e, conns: conns, publisher: publisher}
}

func (f fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f fixture) mustCreate(t *testing.T, path, body string) {
	t.Helper()
	rec := f.do(http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error.Kind
}

func TestTwoStepOrderScenario(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "/productos", `{"name":"Widget","minPrice":10,"maxPrice":100,"availableQty":5}`)

	rec := f.do(http.MethodPost, "/clientes", `{"name":"Ana","email":"a@x.com","phone":"555","taxId":"T1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"clientId":1}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/pedido_enc", `{"clientId":1,"total":100,"status":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"orderId":1}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/pedido_det", `{"orderId":1,"productId":1,"price":50,"quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"lineId":1}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/detalles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"lineId":1,"orderId":1,"productId":1,"productName":"Widget","price":50,"quantity":2,"subtotal":100}]`, rec.Body.String())

	rec = f.do(http.MethodGet, "/pedidos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "Ana", orders[0]["clientName"])
	assert.Equal(t, float64(100), orders[0]["total"])
	assert.Equal(t, "A", orders[0]["status"])
	assert.NotEmpty(t, orders[0]["date"])

	assert.Equal(t, []string{service.EventOrderCreated, service.EventOrderLineAdded}, f.publisher.types)
}

func TestListOrders_OneRowPerHeader(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "/productos", `{"name":"Widget","minPrice":1,"maxPrice":9,"availableQty":5}`)
	f.mustCreate(t, "/clientes", `{"name":"Ana","taxId":"T1"}`)
	f.mustCreate(t, "/pedido_enc", `{"clientId":1,"total":0}`)
	f.mustCreate(t, "/pedido_enc", `{"clientId":1,"total":0}`)
	for i := 0; i < 3; i++ {
		f.mustCreate(t, "/pedido_det", `{"orderId":2,"productId":1,"price":1.25,"quantity":3}`)
	}

	rec := f.do(http.MethodGet, "/pedidos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 2)

	rec = f.do(http.MethodGet, "/detalles", "")
	var lines []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 3)
	assert.Equal(t, 3.75, lines[0]["subtotal"])
}

func TestCreateHeader_Errors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/pedido_enc", `{"clientId":42,"total":10}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "not_found", errorKind(t, rec))

	rec = f.do(http.MethodGet, "/pedidos", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	tests := []struct {
		name string
		body string
	}{
		{name: "missing client", body: `{"total":10}`},
		{name: "missing total", body: `{"clientId":1}`},
		{name: "client as text", body: `{"clientId":"one","total":10}`},
		{name: "unknown status", body: `{"clientId":1,"total":10,"status":"Z"}`},
		{name: "negative total", body: `{"clientId":1,"total":-5}`},
		{name: "total beyond column", body: `{"clientId":1,"total":12345678901234.57}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/pedido_enc", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateLine_Errors(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "/productos", `{"name":"Widget","minPrice":1,"maxPrice":9,"availableQty":5}`)
	f.mustCreate(t, "/clientes", `{"name":"Ana","taxId":"T1"}`)
	f.mustCreate(t, "/pedido_enc", `{"clientId":1,"total":0}`)

	rec := f.do(http.MethodPost, "/pedido_det", `{"orderId":9,"productId":1,"price":1,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/pedido_det", `{"orderId":1,"productId":9,"price":1,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/pedido_det", `{"orderId":1,"productId":1,"price":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/pedido_det", `{"orderId":1,"productId":1,"price":1,"quantity":3000000000}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "lte=2147483647")

	rec = f.do(http.MethodPost, "/pedido_det", `{"orderId":1,"productId":1,"price":1,"quantity":0}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/detalles", "")
	var lines []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, float64(0), lines[0]["subtotal"])
}

func TestCreateOrder_Atomic(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "/productos", `{"name":"Widget","minPrice":1,"maxPrice":99,"availableQty":5}`)
	f.mustCreate(t, "/productos", `{"name":"Gadget","minPrice":1,"maxPrice":99,"availableQty":5}`)
	f.mustCreate(t, "/clientes", `{"name":"Ana","taxId":"T1"}`)

	rec := f.do(http.MethodPost, "/pedidos", `{"clientId":1,"lines":[{"productId":1,"price":12.5,"quantity":2},{"productId":2,"price":0.99,"quantity":3}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		OrderID int64   `json:"orderId"`
		Total   float64 `json:"total"`
		Status  string  `json:"status"`
		Lines   []struct {
			LineID   int64   `json:"lineId"`
			OrderID  int64   `json:"orderId"`
			Subtotal float64 `json:"subtotal"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.OrderID)
	assert.Equal(t, 27.97, created.Total)
	assert.Equal(t, "A", created.Status)
	require.Len(t, created.Lines, 2)
	assert.Equal(t, int64(1), created.Lines[1].OrderID)
	assert.Equal(t, 2.97, created.Lines[1].Subtotal)

	rec = f.do(http.MethodGet, "/pedidos/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var detail map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Ana", detail["clientName"])
	assert.Len(t, detail["lines"], 2)
}

func TestCreateOrder_RollsBackOnDanglingProduct(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "/productos", `{"name":"Widget","minPrice":1,"maxPrice":99,"availableQty":5}`)
	f.mustCreate(t, "/clientes", `{"name":"Ana","taxId":"T1"}`)

	rec := f.do(http.MethodPost, "/pedidos", `{"clientId":1,"lines":[{"productId":1,"price":1,"quantity":1},{"productId":7,"price":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/pedidos", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
	rec = f.do(http.MethodGet, "/detalles", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Empty(t, f.publisher.types)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/pedidos", `{"clientId":1,"lines":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/pedidos", `{"clientId":1,"lines":[{"productId":1,"quantity":1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "lines[0].price")
}

func TestGetOrder_Errors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/pedidos/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/pedidos/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorKind(t, rec))
}

func TestStorageUnavailable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.conns.Close())

	rec := f.do(http.MethodGet, "/pedidos", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", errorKind(t, rec))

	rec = f.do(http.MethodPost, "/pedido_enc", `{"clientId":1,"total":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

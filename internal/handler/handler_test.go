package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/invoice"
	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/domain/order"
	"github.com/xenking/cafe-orders/internal/domain/report"
	"github.com/xenking/cafe-orders/internal/storage/memory"
)

// --- Helpers ---

var testNow = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

type testServer struct {
	router http.Handler
	token  string
	menu   *menu.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	authSvc := auth.NewService(memory.NewStaffStore(), []byte("test-secret"), time.Hour)
	_, err := authSvc.Register(ctx, "desk@cafe.test", "Front Desk", "s3cret")
	require.NoError(t, err)
	token, _, err := authSvc.Login(ctx, "desk@cafe.test", "s3cret")
	require.NoError(t, err)

	menuSvc := menu.NewService(memory.NewMenuStore())
	orderSvc := order.NewService(memory.NewStore(),
		order.WithClock(func() time.Time { return testNow }),
		order.WithLocation(time.UTC),
	)

	h := NewHandler(menuSvc, orderSvc, authSvc, invoice.NewComposer("Click Cafe"), report.NewExporter(time.UTC), time.UTC)
	r := chi.NewRouter()
	h.Register(r)

	return &testServer{router: r, token: token, menu: menuSvc}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) addMenuItem(t *testing.T, name, price string) string {
	t.Helper()
	item, err := s.menu.Add(context.Background(), name, decimal.RequireFromString(price), "Beverages")
	require.NoError(t, err)
	return item.ID
}

func (s *testServer) createOrder(t *testing.T, body string) map[string]any {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)
}

// --- Tests ---

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	rec := s.do(t, http.MethodPost, "/auth/login", `{"email":"desk@cafe.test","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "Front Desk", body["staff"].(map[string]any)["name"])

	rec = s.do(t, http.MethodPost, "/auth/login", `{"email":"desk@cafe.test","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", `{"email":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthenticate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "desk@cafe.test", decode(t, rec)["staff"].(map[string]any)["email"])

	s.token = "garbage"
	rec = s.do(t, http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.token = ""
	rec = s.do(t, http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMenuEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/menu", `{"name":"Latte","price":"120.00","category":"Beverages"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	id := created["id"].(string)
	assert.Equal(t, "LATTE", created["display_name"])
	assert.Equal(t, "120.00", created["price"])

	rec = s.do(t, http.MethodPost, "/menu", `{"name":"Tea"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/menu", `{"name":"","price":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/menu/"+id, `{"name":"Latte","price":130}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "130.00", decode(t, rec)["price"])

	rec = s.do(t, http.MethodGet, "/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	assert.Len(t, list["items"], 1)
	assert.NotEmpty(t, list["categories"])

	rec = s.do(t, http.MethodDelete, "/menu/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/menu/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuoteCart(t *testing.T) {
	s := newTestServer(t)
	latte := s.addMenuItem(t, "Latte", "120")

	rec := s.do(t, http.MethodPost, "/cart/quote", `{"items":[
		{"menu_item_id":"`+latte+`","quantity":2},
		{"name":"Muffin","price":"140","quantity":1},
		{"menu_item_id":"`+latte+`"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "500.00", body["total"])
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, float64(3), items[0].(map[string]any)["quantity"])

	rec = s.do(t, http.MethodPost, "/cart/quote", `{"items":[{"menu_item_id":"missing"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/quote", `{"items":[{"menu_item_id":"`+latte+`","quantity":0}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/quote", `{"items":[{"name":"Refund","price":"-50","quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "price must not be negative")
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	latte := s.addMenuItem(t, "Latte", "120")

	created := s.createOrder(t, `{"customer_name":"Asha","customer_phone":"98450","items":[
		{"menu_item_id":"`+latte+`","quantity":2},
		{"name":"Muffin","price":"140","quantity":1}
	]}`)
	id := created["id"].(string)
	assert.Equal(t, "380.00", created["total_amount"])
	assert.Equal(t, string(order.StatusNotPaid), created["payment_status"])
	assert.Equal(t, "380.00", created["remaining_balance"])
	inv := created["invoice"].(map[string]any)
	assert.Equal(t, order.InvoiceNumber(testNow), inv["invoice_number"])
	assert.Equal(t, "2026-03-14", inv["issue_date"])
	assert.Equal(t, "pending", inv["status"])

	rec := s.do(t, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = s.do(t, http.MethodPut, "/orders/"+id, `{"customer_name":"Asha K","items":[
		{"name":"Latte","price":"120","quantity":1}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode(t, rec)
	assert.Equal(t, "120.00", updated["total_amount"])
	assert.Equal(t, inv["invoice_number"], updated["invoice"].(map[string]any)["invoice_number"])

	rec = s.do(t, http.MethodPost, "/orders/"+id+"/pay", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode(t, rec)
	assert.Equal(t, string(order.StatusPaid), paid["payment_status"])
	assert.Equal(t, "0.00", paid["remaining_balance"])
	assert.Equal(t, "paid", paid["invoice"].(map[string]any)["status"])

	rec = s.do(t, http.MethodGet, "/orders?tab=ongoing", "")
	assert.Equal(t, float64(0), decode(t, rec)["count"])
	rec = s.do(t, http.MethodGet, "/orders?tab=completed&q=asha", "")
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = s.do(t, http.MethodGet, "/orders/"+id+"/invoice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)
	assert.Equal(t, "Click Cafe", view["business"])
	assert.Equal(t, invoice.BadgePaid, view["status"])
	assert.Len(t, view["rows"], 1)
}

func TestOrderErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/orders", `{"customer_name":"","items":[{"name":"Tea","price":"20"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/orders", `{"customer_name":"Asha","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/orders/missing/pay", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders?tab=archived", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders?month=13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	s.createOrder(t, `{"customer_name":"Asha","items":[{"name":"Latte","price":"120","quantity":2}]}`)

	rec := s.do(t, http.MethodGet, "/reports/export?kind=summary&start=2026-03-14&end=2026-03-14", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "summary_2026-03-14_to_2026-03-14.csv")
	assert.Contains(t, rec.Body.String(), "Latte (2)")

	rec = s.do(t, http.MethodGet, "/reports/export?start=2026-01-01&end=2026-01-31", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/reports/preview?kind=detailed&start=2026-03-01&end=2026-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode(t, rec)
	assert.Equal(t, false, preview["empty"])
	assert.Equal(t, float64(1), preview["count"])

	rec = s.do(t, http.MethodGet, "/reports/preview?start=2026-01-01&end=2026-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["empty"])

	rec = s.do(t, http.MethodGet, "/reports/export?start=2026-03-31&end=2026-03-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/reports/export?start=2026-03-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

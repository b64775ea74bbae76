package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/service"
	"kasirpos/backend/internal/store/memory"
)

const testManagerPIN = "739154"

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo, err := memory.NewSeeded(nil)
	require.NoError(t, err)
	svc := service.New(repo, nil, service.Settings{
		TaxRate:    decimal.RequireFromString("0.10"),
		Rewards:    domain.RewardSettings{PointsPerDollar: 1, RedemptionRate: 100},
		MaxRetries: 3,
	})
	auth := NewAuthManager("test-secret-key", time.Hour, testManagerPIN, repo)

	return New(svc, auth, zap.NewNop(), "*")
}

func login(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.7:4000"
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var payload domain.LoginResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.NotEmpty(t, payload.AccessToken)
	return payload.AccessToken
}

func doJSON(handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func errorCode(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	code, _ := body["code"].(string)
	return code
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	res := doJSON(handler, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, res.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	handler := newTestAPI(t).Handler()

	res := doJSON(handler, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "admin", Password: "wrongpassword"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestOrdersRequireAuth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	res := doJSON(handler, http.MethodPost, "/api/v1/orders", "", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = doJSON(handler, http.MethodGet, "/api/v1/orders/ord-x", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCheckoutGetAndCancelFlow(t *testing.T) {
	handler := newTestAPI(t).Handler()
	cashier := login(t, handler, "cashier", "cashier123")
	admin := login(t, handler, "admin", "admin123")

	res := doJSON(handler, http.MethodPost, "/api/v1/orders", cashier, map[string]any{
		"customer_id":    "cus-ani",
		"items":          []map[string]any{{"product_id": "prd-telur", "quantity": 2}},
		"payment_method": "CASH",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	raw := res.Body.String()
	assert.Contains(t, raw, `"subtotal":"5.30"`)
	assert.Contains(t, raw, `"tax":"0.53"`)
	assert.Contains(t, raw, `"total":"5.83"`)
	assert.Contains(t, raw, `"discount":"0.00"`)
	assert.Contains(t, raw, `"unit_price":"2.65"`)

	var order domain.Order
	require.NoError(t, json.Unmarshal([]byte(raw), &order))
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.Equal(t, "5.30", order.Subtotal.StringFixed(2))
	assert.Equal(t, "0.53", order.Tax.StringFixed(2))
	assert.Equal(t, "5.83", order.Total.StringFixed(2))
	assert.Equal(t, 5, order.PointsEarned)
	id, ok := order.Customer.Get()
	assert.True(t, ok)
	assert.Equal(t, "cus-ani", id)

	res = doJSON(handler, http.MethodGet, "/api/v1/orders/"+order.ID, cashier, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = doJSON(handler, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", cashier, map[string]any{})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = doJSON(handler, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", cashier, map[string]any{"manager_pin": testManagerPIN})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var cancelled domain.Order
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cancelled))
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, domain.PaymentStatusFailed, cancelled.Payment.Status)

	res = doJSON(handler, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", admin, nil)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "OR003", errorCode(t, res))

	res = doJSON(handler, http.MethodGet, "/api/v1/inventory/prd-telur", cashier, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var inv domain.Inventory
	require.NoError(t, json.NewDecoder(res.Body).Decode(&inv))
	assert.Equal(t, 120, inv.Quantity)
}

func TestCheckoutErrorsCarryCodes(t *testing.T) {
	handler := newTestAPI(t).Handler()
	cashier := login(t, handler, "cashier", "cashier123")

	cases := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "insufficient stock",
			body:   map[string]any{"items": []map[string]any{{"product_id": "prd-sabun", "quantity": 7}}, "payment_method": "CASH"},
			status: http.StatusBadRequest,
			code:   "OR002",
		},
		{
			name:   "unknown product",
			body:   map[string]any{"items": []map[string]any{{"product_id": "prd-nope", "quantity": 1}}, "payment_method": "CARD"},
			status: http.StatusNotFound,
			code:   "PR001",
		},
		{
			name:   "unknown customer",
			body:   map[string]any{"customer_id": "cus-nope", "items": []map[string]any{{"product_id": "prd-kopi", "quantity": 1}}, "payment_method": "CARD"},
			status: http.StatusNotFound,
			code:   "CM001",
		},
		{
			name:   "inactive product",
			body:   map[string]any{"items": []map[string]any{{"product_id": "prd-shampoo", "quantity": 1}}, "payment_method": "CASH"},
			status: http.StatusBadRequest,
			code:   "PR004",
		},
		{
			name:   "empty cart",
			body:   map[string]any{"items": []map[string]any{}, "payment_method": "CASH"},
			status: http.StatusBadRequest,
			code:   "VA001",
		},
		{
			name:   "not enough points",
			body:   map[string]any{"customer_id": "cus-budi", "items": []map[string]any{{"product_id": "prd-kopi", "quantity": 1}}, "payment_method": "CASH", "points_to_redeem": 10},
			status: http.StatusBadRequest,
			code:   "RW001",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := doJSON(handler, http.MethodPost, "/api/v1/orders", cashier, tc.body)
			require.Equal(t, tc.status, res.Code, res.Body.String())
			assert.Equal(t, tc.code, errorCode(t, res))
		})
	}
}

func TestShiftEndpoints(t *testing.T) {
	handler := newTestAPI(t).Handler()
	cashier := login(t, handler, "cashier", "cashier123")

	res := doJSON(handler, http.MethodGet, "/api/v1/shifts/current", cashier, nil)
	require.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "SH002", errorCode(t, res))

	res = doJSON(handler, http.MethodPost, "/api/v1/shifts/open", cashier, map[string]any{"opening_float": "100.00"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	res = doJSON(handler, http.MethodPost, "/api/v1/shifts/open", cashier, map[string]any{"opening_float": "100.00"})
	require.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "SH001", errorCode(t, res))

	res = doJSON(handler, http.MethodPost, "/api/v1/orders", cashier, map[string]any{
		"items":          []map[string]any{{"product_id": "prd-telur", "quantity": 2}},
		"payment_method": "CASH",
	})
	require.Equal(t, http.StatusCreated, res.Code)

	res = doJSON(handler, http.MethodGet, "/api/v1/shifts/current", cashier, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var current domain.Shift
	require.NoError(t, json.NewDecoder(res.Body).Decode(&current))
	assert.Equal(t, "5.83", current.CashSales.StringFixed(2))
	assert.Equal(t, "105.83", current.ExpectedCash.StringFixed(2))

	res = doJSON(handler, http.MethodPost, "/api/v1/shifts/close", cashier, map[string]any{"counted_cash": "105.00"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var closed domain.Shift
	require.NoError(t, json.NewDecoder(res.Body).Decode(&closed))
	assert.Equal(t, domain.ShiftStatusClosed, closed.Status)
	assert.Equal(t, "-0.83", closed.Difference.Decimal.StringFixed(2))

	res = doJSON(handler, http.MethodPost, "/api/v1/shifts/close", cashier, map[string]any{"counted_cash": "1.00"})
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestInventoryEndpointsEnforceAdminForUpdates(t *testing.T) {
	handler := newTestAPI(t).Handler()
	cashier := login(t, handler, "cashier", "cashier123")
	admin := login(t, handler, "admin", "admin123")

	update := domain.InventoryUpdateRequest{Quantity: 3, LowStockThreshold: 5}
	res := doJSON(handler, http.MethodPut, "/api/v1/inventory/prd-kopi", cashier, update)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = doJSON(handler, http.MethodPut, "/api/v1/inventory/prd-kopi", admin, update)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var inv domain.Inventory
	require.NoError(t, json.NewDecoder(res.Body).Decode(&inv))
	assert.Equal(t, 3, inv.Quantity)
	assert.Equal(t, "admin", inv.UpdatedBy)

	res = doJSON(handler, http.MethodPut, "/api/v1/inventory/prd-nope", admin, update)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = doJSON(handler, http.MethodGet, "/api/v1/inventory/low-stock", cashier, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var low struct {
		Items []domain.Inventory `json:"items"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&low))
	require.Len(t, low.Items, 2)
	assert.Equal(t, "prd-kopi", low.Items[0].ProductID)
	assert.Equal(t, "prd-sabun", low.Items[1].ProductID)

	res = doJSON(handler, http.MethodGet, "/api/v1/inventory/stats", cashier, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var stats domain.InventoryStats
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	assert.Equal(t, domain.InventoryStats{Total: 12, InStock: 10, LowStock: 2, OutOfStock: 0}, stats)
}

func TestOrderStatsIsAdminOnly(t *testing.T) {
	handler := newTestAPI(t).Handler()
	cashier := login(t, handler, "cashier", "cashier123")
	admin := login(t, handler, "admin", "admin123")

	res := doJSON(handler, http.MethodPost, "/api/v1/orders", cashier, map[string]any{
		"items":          []map[string]any{{"product_id": "prd-kopi", "quantity": 1}},
		"payment_method": "CARD",
	})
	require.Equal(t, http.StatusCreated, res.Code)

	res = doJSON(handler, http.MethodGet, "/api/v1/orders/stats", cashier, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = doJSON(handler, http.MethodGet, "/api/v1/orders/stats", admin, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var stats domain.OrderStats
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Completed)

	res = doJSON(handler, http.MethodGet, "/api/v1/orders/stats?from=yesterday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRewardConfigAndCashiers(t *testing.T) {
	handler := newTestAPI(t).Handler()
	cashier := login(t, handler, "cashier", "cashier123")
	admin := login(t, handler, "admin", "admin123")

	res := doJSON(handler, http.MethodGet, "/api/v1/rewards/config", cashier, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var cfg domain.RewardSettings
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cfg))
	assert.Equal(t, domain.RewardSettings{PointsPerDollar: 1, RedemptionRate: 100}, cfg)

	res = doJSON(handler, http.MethodPost, "/api/v1/users/cashiers", cashier, domain.CashierCreateRequest{Username: "kasir2", Password: "secret12"})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = doJSON(handler, http.MethodPost, "/api/v1/users/cashiers", admin, domain.CashierCreateRequest{Username: "kasir2", Password: "secret12"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	res = doJSON(handler, http.MethodPost, "/api/v1/users/cashiers", admin, domain.CashierCreateRequest{Username: "kasir2", Password: "secret12"})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = doJSON(handler, http.MethodGet, "/api/v1/users/cashiers", admin, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var listed struct {
		Cashiers []domain.CashierUser `json:"cashiers"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&listed))
	names := make([]string, 0, len(listed.Cashiers))
	for _, c := range listed.Cashiers {
		names = append(names, c.Username)
	}
	assert.Equal(t, []string{"cashier", "kasir2"}, names)

	login(t, handler, "kasir2", "secret12")
}

func TestStatusForMapsErrorKinds(t *testing.T) {
	cases := map[error]int{
		domain.NotFound("Order", "x"):       http.StatusNotFound,
		domain.InventoryMissing("Kopi"):     http.StatusNotFound,
		domain.ErrNoOpenShift:               http.StatusNotFound,
		domain.Validation("bad"):            http.StatusBadRequest,
		domain.InsufficientStock("Kopi", 1): http.StatusBadRequest,
		domain.InsufficientPoints(1, 2):     http.StatusBadRequest,
		domain.ProductUnavailable("Kopi"):   http.StatusBadRequest,
		domain.ErrAlreadyCancelled:          http.StatusConflict,
		domain.ErrCannotCancelRefunded:      http.StatusConflict,
		domain.ErrShiftAlreadyOpen:          http.StatusConflict,
		fmt.Errorf("boom"):                  http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}

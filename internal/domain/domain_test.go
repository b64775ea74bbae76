package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("checkout: %w", InsufficientStock("Kopi Sachet", 3))

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrInsufficientPoints)
	assert.Contains(t, err.Error(), "available: 3")

	var domainErr *Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "OR002", domainErr.Code)
}

func TestNotFoundCarriesEntityCode(t *testing.T) {
	err := NotFound("Customer", "cus-1")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "CM001", err.Code)
	assert.Equal(t, "Customer not found: cus-1", err.Error())
}

func TestCustomerRefJSON(t *testing.T) {
	var req CreateOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"customer_id":null,"items":[]}`), &req))
	assert.True(t, req.Customer.IsWalkIn())

	require.NoError(t, json.Unmarshal([]byte(`{"items":[]}`), &req))
	assert.True(t, req.Customer.IsWalkIn())

	require.NoError(t, json.Unmarshal([]byte(`{"customer_id":" cus-7 "}`), &req))
	id, ok := req.Customer.Get()
	assert.True(t, ok)
	assert.Equal(t, "cus-7", id)

	out, err := json.Marshal(Order{Customer: WalkIn()})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"customer_id":null`)
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, PaymentMethodCash.Valid())
	assert.True(t, PaymentMethodMobile.Valid())
	assert.False(t, PaymentMethod("cash").Valid())
	assert.False(t, PaymentMethod("").Valid())
}

func TestMoneyRendersTwoPlaces(t *testing.T) {
	d := decimal.RequireFromString
	order := Order{
		ID:       "ord-1",
		Subtotal: d("35"),
		Discount: decimal.Zero,
		Tax:      d("3.5"),
		Total:    d("38.5"),
		Items:    []OrderItem{{ProductID: "p10", Quantity: 2, UnitPrice: d("10"), Subtotal: d("20")}},
		Payment:  Payment{Amount: d("38.5")},
	}

	out, err := json.Marshal(order)
	require.NoError(t, err)
	raw := string(out)
	assert.Contains(t, raw, `"subtotal":"35.00"`)
	assert.Contains(t, raw, `"discount":"0.00"`)
	assert.Contains(t, raw, `"tax":"3.50"`)
	assert.Contains(t, raw, `"total":"38.50"`)
	assert.Contains(t, raw, `"unit_price":"10.00"`)
	assert.Contains(t, raw, `"subtotal":"20.00"`)
	assert.Contains(t, raw, `"amount":"38.50"`)
	assert.NotContains(t, raw, `"38.5"`)

	var decoded Order
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.True(t, decoded.Total.Equal(order.Total))
	require.Len(t, decoded.Items, 1)
	assert.True(t, decoded.Items[0].UnitPrice.Equal(d("10")))
}

func TestShiftMoneyJSON(t *testing.T) {
	d := decimal.RequireFromString
	open := Shift{OpeningFloat: d("100"), CashSales: decimal.Zero, ExpectedCash: d("100")}

	out, err := json.Marshal(open)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"opening_float":"100.00"`)
	assert.Contains(t, string(out), `"counted_cash":null`)
	assert.Contains(t, string(out), `"difference":null`)

	closed := open
	closed.CountedCash = decimal.NewNullDecimal(d("99.5"))
	closed.Difference = decimal.NewNullDecimal(d("-0.5"))
	out, err = json.Marshal(closed)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"counted_cash":"99.50"`)
	assert.Contains(t, string(out), `"difference":"-0.50"`)

	stats, err := json.Marshal(OrderStats{Revenue: d("5.5")})
	require.NoError(t, err)
	assert.Contains(t, string(stats), `"revenue":"5.50"`)
}

func TestHasCents(t *testing.T) {
	d := decimal.RequireFromString
	assert.True(t, HasCents(d("10")))
	assert.True(t, HasCents(d("0.01")))
	assert.True(t, HasCents(d("1.500")))
	assert.False(t, HasCents(d("0.005")))
	assert.False(t, HasCents(d("100.009")))
}

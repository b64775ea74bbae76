package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// HasCents reports whether d fits in whole cents. Trailing zeros are fine,
// so 1.500 passes and 0.005 does not.
func HasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// cents renders a decimal with exactly two places, e.g. "38.50".
type cents decimal.Decimal

func (c cents) MarshalJSON() ([]byte, error) {
	return []byte(`"` + decimal.Decimal(c).StringFixed(2) + `"`), nil
}

func nullCents(d decimal.NullDecimal) *cents {
	if !d.Valid {
		return nil
	}
	c := cents(d.Decimal)
	return &c
}

// The MarshalJSON methods below shadow the money fields of each response
// type with two-place renderings. Decoding keeps the decimal defaults.

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price cents `json:"price"`
	}{plain(p), cents(p.Price)})
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Subtotal cents `json:"subtotal"`
		Discount cents `json:"discount"`
		Tax      cents `json:"tax"`
		Total    cents `json:"total"`
	}{plain(o), cents(o.Subtotal), cents(o.Discount), cents(o.Tax), cents(o.Total)})
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type plain OrderItem
	return json.Marshal(struct {
		plain
		UnitPrice cents `json:"unit_price"`
		Subtotal  cents `json:"subtotal"`
	}{plain(i), cents(i.UnitPrice), cents(i.Subtotal)})
}

func (p Payment) MarshalJSON() ([]byte, error) {
	type plain Payment
	return json.Marshal(struct {
		plain
		Amount cents `json:"amount"`
	}{plain(p), cents(p.Amount)})
}

func (s OrderStats) MarshalJSON() ([]byte, error) {
	type plain OrderStats
	return json.Marshal(struct {
		plain
		Revenue cents `json:"revenue"`
	}{plain(s), cents(s.Revenue)})
}

func (s Shift) MarshalJSON() ([]byte, error) {
	type plain Shift
	return json.Marshal(struct {
		plain
		OpeningFloat cents  `json:"opening_float"`
		CashSales    cents  `json:"cash_sales"`
		ExpectedCash cents  `json:"expected_cash"`
		CountedCash  *cents `json:"counted_cash"`
		Difference   *cents `json:"difference"`
	}{
		plain(s),
		cents(s.OpeningFloat),
		cents(s.CashSales),
		cents(s.ExpectedCash),
		nullCents(s.CountedCash),
		nullCents(s.Difference),
	})
}

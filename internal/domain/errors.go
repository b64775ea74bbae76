package domain

import "fmt"

type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindValidation           ErrorKind = "validation"
	KindInsufficientStock    ErrorKind = "insufficient_stock"
	KindInsufficientPoints   ErrorKind = "insufficient_points"
	KindProductUnavailable   ErrorKind = "product_unavailable"
	KindInventoryMissing     ErrorKind = "inventory_missing"
	KindAlreadyCancelled     ErrorKind = "already_cancelled"
	KindCannotCancelRefunded ErrorKind = "cannot_cancel_refunded"
	KindShiftAlreadyOpen     ErrorKind = "shift_already_open"
	KindNoOpenShift          ErrorKind = "no_open_shift"
)

// Error is a business rule failure. Messages are shown to the cashier as-is.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so the Err* values below work as
// sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation           = &Error{Kind: KindValidation, Code: "VA001", Message: "validation failed"}
	ErrInsufficientStock    = &Error{Kind: KindInsufficientStock, Code: "OR002", Message: "insufficient stock"}
	ErrInsufficientPoints   = &Error{Kind: KindInsufficientPoints, Code: "RW001", Message: "insufficient reward points"}
	ErrProductUnavailable   = &Error{Kind: KindProductUnavailable, Code: "PR004", Message: "product is not available for sale"}
	ErrInventoryMissing     = &Error{Kind: KindInventoryMissing, Code: "IN001", Message: "inventory record not found for this product"}
	ErrAlreadyCancelled     = &Error{Kind: KindAlreadyCancelled, Code: "OR003", Message: "order is already cancelled"}
	ErrCannotCancelRefunded = &Error{Kind: KindCannotCancelRefunded, Code: "OR004", Message: "cannot cancel a refunded order"}
	ErrShiftAlreadyOpen     = &Error{Kind: KindShiftAlreadyOpen, Code: "SH001", Message: "shift already open for this cashier"}
	ErrNoOpenShift          = &Error{Kind: KindNoOpenShift, Code: "SH002", Message: "no open shift"}
)

var notFoundCodes = map[string]string{
	"User":      "US001",
	"Customer":  "CM001",
	"Product":   "PR001",
	"Order":     "OR001",
	"Inventory": "IN001",
}

func NotFound(entity string, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    notFoundCodes[entity],
		Message: fmt.Sprintf("%s not found: %s", entity, id),
	}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: "VA001", Message: fmt.Sprintf(format, args...)}
}

func InsufficientStock(productName string, available int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Code:    "OR002",
		Message: fmt.Sprintf("insufficient stock for %s, available: %d", productName, available),
	}
}

func InsufficientPoints(balance int, requested int) *Error {
	return &Error{
		Kind:    KindInsufficientPoints,
		Code:    "RW001",
		Message: fmt.Sprintf("insufficient reward points: balance %d, requested %d", balance, requested),
	}
}

func ProductUnavailable(productName string) *Error {
	return &Error{
		Kind:    KindProductUnavailable,
		Code:    "PR004",
		Message: fmt.Sprintf("product is not available for sale: %s", productName),
	}
}

func InventoryMissing(productName string) *Error {
	return &Error{
		Kind:    KindInventoryMissing,
		Code:    "IN001",
		Message: fmt.Sprintf("inventory record not found for %s", productName),
	}
}

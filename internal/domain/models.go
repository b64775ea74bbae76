package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku,omitempty"`
	Barcode    string          `json:"barcode,omitempty"`
	Price      decimal.Decimal `json:"price"`
	CategoryID string          `json:"category_id,omitempty"`
	Active     bool            `json:"active"`
}

type Inventory struct {
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name,omitempty"`
	Quantity          int       `json:"quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	UpdatedBy         string    `json:"updated_by,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type InventoryUpdateRequest struct {
	Quantity          int `json:"quantity"`
	LowStockThreshold int `json:"low_stock_threshold"`
}

type InventoryStats struct {
	Total      int `json:"total"`
	InStock    int `json:"in_stock"`
	LowStock   int `json:"low_stock"`
	OutOfStock int `json:"out_of_stock"`
}

type Customer struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	RewardPoints int    `json:"reward_points"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID        string
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Customer       CustomerRef        `json:"customer_id"`
	Items          []OrderItemRequest `json:"items"`
	PaymentMethod  PaymentMethod      `json:"payment_method"`
	Discount       decimal.Decimal    `json:"discount"`
	PointsToRedeem int                `json:"points_to_redeem"`
	TransactionID  string             `json:"transaction_id,omitempty"`
}

type CancelOrderRequest struct {
	ManagerPIN string `json:"manager_pin,omitempty"`
}

type Order struct {
	ID             string          `json:"id"`
	Customer       CustomerRef     `json:"customer_id"`
	CashierID      string          `json:"cashier_id"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	Status         OrderStatus     `json:"status"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	Payment        Payment         `json:"payment"`
	PointsRedeemed int             `json:"points_redeemed"`
	PointsEarned   int             `json:"points_earned"`
	CreatedAt      time.Time       `json:"created_at"`
}

type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Payment struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Method        PaymentMethod   `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OrderStats struct {
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Total     int             `json:"total_orders"`
	Pending   int             `json:"pending_orders"`
	Completed int             `json:"completed_orders"`
	Cancelled int             `json:"cancelled_orders"`
	Refunded  int             `json:"refunded_orders"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type Shift struct {
	ID              string              `json:"id"`
	CashierID       string              `json:"cashier_id"`
	CashierUsername string              `json:"cashier_username"`
	OpeningFloat    decimal.Decimal     `json:"opening_float"`
	CashSales       decimal.Decimal     `json:"cash_sales"`
	ExpectedCash    decimal.Decimal     `json:"expected_cash"`
	CountedCash     decimal.NullDecimal `json:"counted_cash"`
	Difference      decimal.NullDecimal `json:"difference"`
	Status          ShiftStatus         `json:"status"`
	OpenedAt        time.Time           `json:"opened_at"`
	ClosedAt        *time.Time          `json:"closed_at,omitempty"`
}

type ShiftOpenRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

type ShiftCloseRequest struct {
	CountedCash decimal.Decimal `json:"counted_cash"`
}

type RewardSettings struct {
	PointsPerDollar int `json:"points_per_dollar"`
	RedemptionRate  int `json:"redemption_rate"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodMobile PaymentMethod = "MOBILE_PAYMENT"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMobile:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type ShiftStatus string

const (
	ShiftStatusOpen   ShiftStatus = "OPEN"
	ShiftStatusClosed ShiftStatus = "CLOSED"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const DefaultLowStockThreshold = 10

package orders

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("order not found")

type Order struct {
	ID                  string
	OrderNumber         string
	CustomerName        string
	CustomerEmail       string
	CustomerPhone       string
	ShippingAddress     json.RawMessage
	PaymentMethod       string
	PaymentStatus       PaymentStatus
	Status              Status
	Notes               string
	TotalAmount         float64
	GuestAccessToken    string
	GuestTokenExpiresAt time.Time
	UserID              *string // nil marks a guest order
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type OrderItem struct {
	OrderID    string
	ProductID  string
	Quantity   int
	UnitPrice  float64
	TotalPrice float64
}

// ProductSummary is the read-only catalog projection joined into lookups.
type ProductSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image string  `json:"image"`
	Price float64 `json:"price"`
}

// GuestOrderView is the lookup payload. It deliberately has no field for the
// access token: a successful read must never echo the credential back.
type GuestOrderView struct {
	ID                  string          `json:"id"`
	OrderNumber         string          `json:"order_number"`
	CustomerName        string          `json:"customer_name"`
	CustomerEmail       string          `json:"customer_email"`
	CustomerPhone       string          `json:"customer_phone,omitempty"`
	ShippingAddress     json.RawMessage `json:"shipping_address"`
	PaymentMethod       string          `json:"payment_method"`
	PaymentStatus       PaymentStatus   `json:"payment_status"`
	Status              Status          `json:"status"`
	Notes               string          `json:"notes,omitempty"`
	TotalAmount         float64         `json:"total_amount"`
	GuestTokenExpiresAt time.Time       `json:"guest_token_expires_at"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Items               []OrderItemView `json:"order_items"`
}

type OrderItemView struct {
	ProductID  string         `json:"product_id"`
	Quantity   int            `json:"quantity"`
	UnitPrice  float64        `json:"unit_price"`
	TotalPrice float64        `json:"total_price"`
	Product    ProductSummary `json:"product"`
}

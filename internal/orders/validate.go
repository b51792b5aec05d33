package orders

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Validation failures carry the exact reason string returned to the client.
var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPhone    = errors.New("invalid phone")
	ErrInvalidCartItem = errors.New("invalid cart item")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	maxNameLen  = 100
	maxEmailLen = 255
	maxPhoneLen = 20
	maxNotesLen = 1000

	DefaultPaymentMethod = "pix"
)

type CartItemInput struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CreateOrderInput struct {
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	ShippingAddress json.RawMessage `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	CartItems       []CartItemInput `json:"cart_items"`
	Notes           string          `json:"notes"`
}

// Validate applies the checks in fixed order and fails on the first hit, so
// the caller reaches storage only with a fully acceptable submission.
func (in *CreateOrderInput) Validate() error {
	name := strings.TrimSpace(in.CustomerName)
	email := strings.TrimSpace(in.CustomerEmail)
	if name == "" || email == "" || !addressPresent(in.ShippingAddress) || len(in.CartItems) == 0 {
		return ErrMissingFields
	}
	if len(email) > maxEmailLen || !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}
	if phone := strings.TrimSpace(in.CustomerPhone); len([]rune(phone)) > maxPhoneLen {
		return ErrInvalidPhone
	}
	for _, it := range in.CartItems {
		if it.ProductID == "" || it.Quantity <= 0 || it.Price <= 0 {
			return ErrInvalidCartItem
		}
	}
	return nil
}

// Sanitize trims and truncates the free-text fields before persistence.
// Bounds storage writes; it is not a security boundary on its own.
func (in *CreateOrderInput) Sanitize() {
	in.CustomerName = truncate(strings.TrimSpace(in.CustomerName), maxNameLen)
	in.CustomerEmail = truncate(strings.TrimSpace(in.CustomerEmail), maxEmailLen)
	in.CustomerPhone = truncate(strings.TrimSpace(in.CustomerPhone), maxPhoneLen)
	in.Notes = truncate(strings.TrimSpace(in.Notes), maxNotesLen)
	if strings.TrimSpace(in.PaymentMethod) == "" {
		in.PaymentMethod = DefaultPaymentMethod
	}
}

// Total is the authoritative charge amount. A client-declared total is never
// read; only per-item price and quantity enter the sum.
func (in *CreateOrderInput) Total() float64 {
	var total float64
	for _, it := range in.CartItems {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Items materializes the order lines for the given order id.
func (in *CreateOrderInput) Items(orderID string) []OrderItem {
	out := make([]OrderItem, 0, len(in.CartItems))
	for _, it := range in.CartItems {
		out = append(out, OrderItem{
			OrderID:    orderID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.Price,
			TotalPrice: it.Price * float64(it.Quantity),
		})
	}
	return out
}

func addressPresent(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

package orders

import (
	"encoding/json"
	"time"
)

const (
	EventGuestOrderCreated = "GuestOrderCreated"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemLine struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// GuestOrderCreatedPayload carries everything the notifier needs to send the
// confirmation without a read back to the database. The access token is NOT
// part of the payload; it travels only in the creation response.
type GuestOrderCreatedPayload struct {
	OrderID       string     `json:"order_id"`
	OrderNumber   string     `json:"order_number"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	Items         []ItemLine `json:"items"`
	TotalAmount   float64    `json:"total_amount"`
}

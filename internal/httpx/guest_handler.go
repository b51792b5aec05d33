package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/toyvault/go-guest-orders/internal/kafka"
	"github.com/toyvault/go-guest-orders/internal/orders"
	"github.com/toyvault/go-guest-orders/internal/ratelimit"
)

// GuestStore is the persistence surface the guest handlers need. The pgx
// repo implements it; tests use a fake.
type GuestStore interface {
	CreateGuestOrder(ctx context.Context, o *orders.Order, items []orders.OrderItem) error
	GuestOrderByToken(ctx context.Context, token string) (*orders.GuestOrderView, error)
	GuestOrderByNumberEmail(ctx context.Context, number, email string) (*orders.GuestOrderView, error)
	ListProducts(ctx context.Context) ([]orders.ProductSummary, error)
}

// Publisher is the slice of the kafka producer the handler uses.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type GuestOrdersHandler struct {
	Store       GuestStore
	Producer    Publisher // nil disables event publication
	CreateLimit ratelimit.Limiter
	LookupLimit ratelimit.Limiter
	TokenTTL    time.Duration
	Service     string
	Now         func() time.Time // nil means time.Now
}

type CreateGuestOrderResp struct {
	OrderID          string `json:"order_id"`
	OrderNumber      string `json:"order_number"`
	GuestAccessToken string `json:"guest_access_token"`
	Message          string `json:"message"`
}

func (h *GuestOrdersHandler) Register(r *chi.Mux) {
	r.Post("/guest/orders", h.createOrder)
	r.Get("/guest/orders", h.lookupOrder)
	r.Get("/products", h.listProducts)
}

func (h *GuestOrdersHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func errBody(msg string) map[string]string { return map[string]string{"error": msg} }

func (h *GuestOrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	if !h.CreateLimit.Allow(ratelimit.ClientKey(r)) {
		writeJSON(w, http.StatusTooManyRequests, errBody("rate limited"))
		return
	}

	var in orders.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("invalid json"))
		return
	}
	if err := in.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	in.Sanitize()

	token, err := orders.NewAccessToken()
	if err != nil {
		log.Printf("access token: %v", err)
		writeJSON(w, http.StatusInternalServerError, errBody("internal error"))
		return
	}
	now := h.now()
	number, err := orders.NewOrderNumber(now)
	if err != nil {
		log.Printf("order number: %v", err)
		writeJSON(w, http.StatusInternalServerError, errBody("internal error"))
		return
	}

	o := &orders.Order{
		ID:                  uuid.NewString(),
		OrderNumber:         number,
		CustomerName:        in.CustomerName,
		CustomerEmail:       in.CustomerEmail,
		CustomerPhone:       in.CustomerPhone,
		ShippingAddress:     in.ShippingAddress,
		PaymentMethod:       in.PaymentMethod,
		PaymentStatus:       orders.PaymentPending,
		Status:              orders.StatusPending,
		Notes:               in.Notes,
		TotalAmount:         in.Total(), // server-side sum; any client total is ignored
		GuestAccessToken:    token,
		GuestTokenExpiresAt: now.Add(h.TokenTTL),
		CreatedAt:           now,
	}
	items := in.Items(o.ID)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.Store.CreateGuestOrder(ctx, o, items); err != nil {
		log.Printf("create guest order %s: %v", o.OrderNumber, err)
		writeJSON(w, http.StatusInternalServerError, errBody("failed to create order"))
		return
	}

	h.publishCreated(r, o, items)

	writeJSON(w, http.StatusCreated, CreateGuestOrderResp{
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		GuestAccessToken: o.GuestAccessToken,
		Message:          "order created",
	})
}

func (h *GuestOrdersHandler) publishCreated(r *http.Request, o *orders.Order, items []orders.OrderItem) {
	if h.Producer == nil {
		return
	}
	lines := make([]orders.ItemLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, orders.ItemLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventGuestOrderCreated,
		EventVersion:  1,
		OccurredAt:    h.now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.GuestOrderCreatedPayload{
			OrderID:       o.ID,
			OrderNumber:   o.OrderNumber,
			CustomerName:  o.CustomerName,
			CustomerEmail: o.CustomerEmail,
			Items:         lines,
			TotalAmount:   o.TotalAmount,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventGuestOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *GuestOrdersHandler) lookupOrder(w http.ResponseWriter, r *http.Request) {
	if !h.LookupLimit.Allow(ratelimit.ClientKey(r)) {
		writeJSON(w, http.StatusTooManyRequests, errBody("rate limited"))
		return
	}

	q := r.URL.Query()
	token := q.Get("token")
	number := q.Get("order_number")
	email := q.Get("email")
	if token == "" && (number == "" || email == "") {
		writeJSON(w, http.StatusBadRequest, errBody("token or order_number and email required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var (
		view *orders.GuestOrderView
		err  error
	)
	if token != "" {
		view, err = h.Store.GuestOrderByToken(ctx, token)
	} else {
		view, err = h.Store.GuestOrderByNumberEmail(ctx, number, email)
	}
	if err != nil {
		// wrong token, wrong email and storage trouble all look the same to
		// the caller; existence must not leak
		if !errors.Is(err, orders.ErrNotFound) {
			log.Printf("guest order lookup: %v", err)
		}
		writeJSON(w, http.StatusNotFound, errBody("not found"))
		return
	}

	// expiry only gates the bearer-token path; the token is good strictly
	// before the expiry instant, not at it
	if token != "" && !h.now().Before(view.GuestTokenExpiresAt) {
		writeJSON(w, http.StatusForbidden, errBody("access expired"))
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *GuestOrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.ListProducts(ctx)
	if err != nil {
		log.Printf("list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, errBody("internal error"))
		return
	}
	if ps == nil {
		ps = []orders.ProductSummary{}
	}
	writeJSON(w, http.StatusOK, ps)
}

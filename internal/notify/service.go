package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/toyvault/go-guest-orders/internal/kafka"
	"github.com/toyvault/go-guest-orders/internal/orders"
	"github.com/toyvault/go-guest-orders/internal/redisx"
)

// Sender dispatches one order confirmation. The production mail gateway is
// wired in deployment; LogSender stands in everywhere else.
type Sender interface {
	Send(ctx context.Context, p orders.GuestOrderCreatedPayload) error
}

type LogSender struct{}

func (LogSender) Send(_ context.Context, p orders.GuestOrderCreatedPayload) error {
	log.Printf("confirmation queued: order=%s email=%s total=%.2f", p.OrderNumber, p.CustomerEmail, p.TotalAmount)
	return nil
}

type Service struct {
	Redis       *redis.Client // nil disables dedup (tests)
	Sender      Sender
	ServiceName string
}

// HandleGuestOrderCreated is the consumer handler: decode, dedup by event id,
// send. The dedup mark is written only after a successful send so a failed
// dispatch gets retried on redelivery.
func (s *Service) HandleGuestOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventGuestOrderCreated {
		return nil
	}

	var dkey string
	if s.Redis != nil {
		dkey = fmt.Sprintf(redisx.KeyDedup, "notify", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.GuestOrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	if err := s.Sender.Send(ctx, p); err != nil {
		return err
	}

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	return nil
}

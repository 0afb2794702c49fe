package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultIntentTTL bounds how long an unconfirmed payment intent survives.
// It must not be shorter than the slot-hold lifetime or intents would die
// before their holds do.
const DefaultIntentTTL = 15 * time.Minute

// ErrIntentNotFound is returned when no intent exists for a payment ID,
// either because it was never stored or because its TTL lapsed.
var ErrIntentNotFound = errors.New("payments: intent not found")

// Intent is the transient record linking a quoted amount to the hold it
// pays for. It lives only in Redis.
type Intent struct {
	PaymentID uuid.UUID `json:"payment_id"`
	HoldID    uuid.UUID `json:"hold_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache stores payment intents in Redis with a bounded TTL.
type Cache struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		panic("payments: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultIntentTTL
	}
	return &Cache{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("climbup.internal.payments"),
	}
}

func intentKey(paymentID uuid.UUID) string {
	return fmt.Sprintf("payment:%s", paymentID)
}

// StoreIntent persists the intent under payment:{id} for the cache TTL.
func (c *Cache) StoreIntent(ctx context.Context, intent Intent) error {
	ctx, span := c.tracer.Start(ctx, "payments.store_intent")
	defer span.End()

	data, err := json.Marshal(intent)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("payments: marshal intent: %w", err)
	}
	if err := c.redis.Set(ctx, intentKey(intent.PaymentID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("payments: persist intent: %w", err)
	}
	return nil
}

// GetIntent loads an intent, returning ErrIntentNotFound for missing or
// expired entries.
func (c *Cache) GetIntent(ctx context.Context, paymentID uuid.UUID) (*Intent, error) {
	ctx, span := c.tracer.Start(ctx, "payments.get_intent")
	defer span.End()

	data, err := c.redis.Get(ctx, intentKey(paymentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrIntentNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("payments: load intent: %w", err)
	}

	var intent Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("payments: decode intent: %w", err)
	}
	return &intent, nil
}

// DeleteIntent removes the intent once it has been consumed.
func (c *Cache) DeleteIntent(ctx context.Context, paymentID uuid.UUID) error {
	if err := c.redis.Del(ctx, intentKey(paymentID)).Err(); err != nil {
		return fmt.Errorf("payments: delete intent: %w", err)
	}
	return nil
}

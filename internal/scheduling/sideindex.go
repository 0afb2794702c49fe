package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/climbup/booking-platform/pkg/logging"
)

// SideIndex mirrors active holds into Redis with a native TTL so stale holds
// disappear even when no sweep runs. Entries are advisory: the durable
// record's status and expires_at stay authoritative for conflict checks, so
// every error here is logged and swallowed.
type SideIndex struct {
	redis  *redis.Client
	logger *logging.Logger
}

// NewSideIndex creates the advisory index.
func NewSideIndex(client *redis.Client, logger *logging.Logger) *SideIndex {
	if logger == nil {
		logger = logging.Default()
	}
	return &SideIndex{redis: client, logger: logger}
}

func holdKey(consultantID, holdID fmt.Stringer) string {
	return fmt.Sprintf("slot_hold:%s:%s", consultantID, holdID)
}

// Register records the hold with a TTL matching its expiry.
func (i *SideIndex) Register(ctx context.Context, hold *Hold) {
	if i == nil || i.redis == nil {
		return
	}
	ttl := time.Until(hold.ExpiresAt)
	if ttl <= 0 {
		return
	}
	key := holdKey(hold.ConsultantID, hold.ID)
	if err := i.redis.Set(ctx, key, hold.ExpiresAt.UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		i.logger.Warn("side index register failed", "error", err, "hold_id", hold.ID)
	}
}

// Release drops the hold's entry, used on conversion and sweep expiry.
func (i *SideIndex) Release(ctx context.Context, hold *Hold) {
	if i == nil || i.redis == nil {
		return
	}
	key := holdKey(hold.ConsultantID, hold.ID)
	if err := i.redis.Del(ctx, key).Err(); err != nil {
		i.logger.Warn("side index release failed", "error", err, "hold_id", hold.ID)
	}
}

// ActiveCount reports how many advisory entries exist for a consultant.
// Latency aid for dashboards only; may lag the durable store.
func (i *SideIndex) ActiveCount(ctx context.Context, consultantID fmt.Stringer) (int, error) {
	if i == nil || i.redis == nil {
		return 0, nil
	}
	var count int
	iter := i.redis.Scan(ctx, 0, fmt.Sprintf("slot_hold:%s:*", consultantID), 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scheduling: scan side index: %w", err)
	}
	return count, nil
}

package rules

import (
	"context"
	"sync"
	"time"
)

// CachedSource caches rule lookups for a bounded TTL. Rules are read-mostly:
// stale entries only affect pricing and hold duration, never overlap safety,
// so a short staleness window (60s by default) is acceptable.
type CachedSource struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	peakHours map[string]cached[[]PeakHourRule]
	hold      cached[HoldRule]
	prefs     cached[[]PreferenceRule]
	booking   cached[BookingRule]
}

type cached[T any] struct {
	value     T
	fetchedAt time.Time
	valid     bool
}

// NewCachedSource wraps src with a TTL cache. A non-positive ttl defaults
// to 60 seconds.
func NewCachedSource(src Source, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &CachedSource{
		src:       src,
		ttl:       ttl,
		now:       time.Now,
		peakHours: make(map[string]cached[[]PeakHourRule]),
	}
}

func (c *CachedSource) fresh(fetchedAt time.Time) bool {
	return c.now().Sub(fetchedAt) < c.ttl
}

// PeakHourRules returns cached rules for the day, refreshing after the TTL.
func (c *CachedSource) PeakHourRules(ctx context.Context, day string) ([]PeakHourRule, error) {
	c.mu.RLock()
	entry, ok := c.peakHours[day]
	c.mu.RUnlock()
	if ok && entry.valid && c.fresh(entry.fetchedAt) {
		return entry.value, nil
	}

	value, err := c.src.PeakHourRules(ctx, day)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.peakHours[day] = cached[[]PeakHourRule]{value: value, fetchedAt: c.now(), valid: true}
	c.mu.Unlock()
	return value, nil
}

// HoldRule returns the cached hold-duration rule, refreshing after the TTL.
func (c *CachedSource) HoldRule(ctx context.Context) (HoldRule, error) {
	c.mu.RLock()
	entry := c.hold
	c.mu.RUnlock()
	if entry.valid && c.fresh(entry.fetchedAt) {
		return entry.value, nil
	}

	value, err := c.src.HoldRule(ctx)
	if err != nil {
		return HoldRule{}, err
	}
	c.mu.Lock()
	c.hold = cached[HoldRule]{value: value, fetchedAt: c.now(), valid: true}
	c.mu.Unlock()
	return value, nil
}

// PreferenceRules returns the cached preference rules, refreshing after the TTL.
func (c *CachedSource) PreferenceRules(ctx context.Context) ([]PreferenceRule, error) {
	c.mu.RLock()
	entry := c.prefs
	c.mu.RUnlock()
	if entry.valid && c.fresh(entry.fetchedAt) {
		return entry.value, nil
	}

	value, err := c.src.PreferenceRules(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.prefs = cached[[]PreferenceRule]{value: value, fetchedAt: c.now(), valid: true}
	c.mu.Unlock()
	return value, nil
}

// BookingRule returns the cached booking bounds, refreshing after the TTL.
func (c *CachedSource) BookingRule(ctx context.Context) (BookingRule, error) {
	c.mu.RLock()
	entry := c.booking
	c.mu.RUnlock()
	if entry.valid && c.fresh(entry.fetchedAt) {
		return entry.value, nil
	}

	value, err := c.src.BookingRule(ctx)
	if err != nil {
		return BookingRule{}, err
	}
	c.mu.Lock()
	c.booking = cached[BookingRule]{value: value, fetchedAt: c.now(), valid: true}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops every cached entry so the next lookup hits the source.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peakHours = make(map[string]cached[[]PeakHourRule])
	c.hold = cached[HoldRule]{}
	c.prefs = cached[[]PreferenceRule]{}
	c.booking = cached[BookingRule]{}
}

package scheduling

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestSideIndexRegisterAndRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	index := NewSideIndex(client, nil)

	hold := testHold()
	hold.ExpiresAt = time.Now().Add(10 * time.Minute)
	index.Register(context.Background(), hold)

	key := "slot_hold:" + hold.ConsultantID.String() + ":" + hold.ID.String()
	if !mr.Exists(key) {
		t.Fatal("expected side index entry")
	}
	ttl := mr.TTL(key)
	if ttl <= 0 || ttl > 10*time.Minute {
		t.Fatalf("expected TTL matching hold expiry, got %s", ttl)
	}

	index.Release(context.Background(), hold)
	if mr.Exists(key) {
		t.Fatal("expected entry removed on release")
	}
}

func TestSideIndexEntriesExpireNatively(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	index := NewSideIndex(client, nil)

	hold := testHold()
	hold.ExpiresAt = time.Now().Add(time.Minute)
	index.Register(context.Background(), hold)

	mr.FastForward(2 * time.Minute)
	key := "slot_hold:" + hold.ConsultantID.String() + ":" + hold.ID.String()
	if mr.Exists(key) {
		t.Fatal("expected native TTL to reap the entry")
	}
}

func TestSideIndexSkipsAlreadyOverdueHold(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	index := NewSideIndex(client, nil)

	hold := testHold()
	hold.ExpiresAt = time.Now().Add(-time.Minute)
	index.Register(context.Background(), hold)

	if len(mr.Keys()) != 0 {
		t.Fatal("overdue hold must not be registered")
	}
}

func TestSideIndexActiveCount(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	index := NewSideIndex(client, nil)

	consultantID := uuid.New()
	for i := 0; i < 3; i++ {
		hold := testHold()
		hold.ConsultantID = consultantID
		hold.ExpiresAt = time.Now().Add(time.Hour)
		index.Register(context.Background(), hold)
	}

	count, err := index.ActiveCount(context.Background(), consultantID)
	if err != nil {
		t.Fatalf("active count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 entries, got %d", count)
	}
}

func TestSideIndexNilClientIsNoop(t *testing.T) {
	index := NewSideIndex(nil, nil)
	hold := testHold()
	index.Register(context.Background(), hold)
	index.Release(context.Background(), hold)
	if count, err := index.ActiveCount(context.Background(), hold.ConsultantID); err != nil || count != 0 {
		t.Fatalf("nil client must be a no-op, got count=%d err=%v", count, err)
	}
}

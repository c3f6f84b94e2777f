package units

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park63/lead-intake/pkg/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, logging.New("error"))
}

func TestStoreRemainingDefaultsToZero(t *testing.T) {
	s := newTestStore(t)
	n, err := s.Remaining(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 for missing counter, got %d", n)
	}
}

func TestStoreSetAndDecrement(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, 40); err != nil {
		t.Fatalf("set: %v", err)
	}
	n, err := s.Decrement(ctx)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if n != 39 {
		t.Fatalf("expected 39, got %d", n)
	}

	remaining, err := s.Remaining(ctx)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 39 {
		t.Fatalf("expected stored 39, got %d", remaining)
	}
}

func TestStoreDecrementClampsAtZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	n, err := s.Decrement(ctx)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if n != 0 {
		t.Fatalf("counter must not go negative, got %d", n)
	}

	remaining, _ := s.Remaining(ctx)
	if remaining != 0 {
		t.Fatalf("stored value must stay at 0, got %d", remaining)
	}
}

func TestStoreSeedIfAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SeedIfAbsent(ctx, 40); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n, _ := s.Remaining(ctx); n != 40 {
		t.Fatalf("expected seeded 40, got %d", n)
	}

	// A second seed must not clobber an adjusted value.
	if err := s.Set(ctx, 12); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SeedIfAbsent(ctx, 40); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n, _ := s.Remaining(ctx); n != 12 {
		t.Fatalf("seed must not overwrite existing counter, got %d", n)
	}
}

func TestSubscriptionReceivesUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub, err := s.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	if err := s.Set(ctx, 25); err != nil {
		t.Fatalf("set: %v", err)
	}

	select {
	case n := <-sub.Updates():
		if n != 25 {
			t.Fatalf("expected update 25, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestSubscriptionCloseStopsStream(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub, err := s.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case _, ok := <-sub.Updates():
		if ok {
			t.Fatal("expected closed updates channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel should close after Close")
	}
}

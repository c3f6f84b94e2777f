// Package units tracks the "units remaining" counter shown on the landing
// page and streams changes to connected browsers.
package units

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/park63/lead-intake/pkg/logging"
)

const (
	counterKey    = "units:remaining"
	updateChannel = "units:updates"
)

// Store keeps the counter in Redis and publishes every change, so multiple
// API instances see the same number and push the same updates.
type Store struct {
	client *redis.Client
	logger *logging.Logger
}

// NewStore creates a Redis-backed units store.
func NewStore(client *redis.Client, logger *logging.Logger) *Store {
	if client == nil {
		panic("units: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, logger: logger}
}

// Remaining returns the current counter value. A missing key reads as zero.
func (s *Store) Remaining(ctx context.Context) (int, error) {
	val, err := s.client.Get(ctx, counterKey).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("units: read counter: %w", err)
	}
	return val, nil
}

// Set overwrites the counter and publishes the new value. Used by operators
// and by startup seeding.
func (s *Store) Set(ctx context.Context, n int) error {
	if n < 0 {
		n = 0
	}
	if err := s.client.Set(ctx, counterKey, n, 0).Err(); err != nil {
		return fmt.Errorf("units: set counter: %w", err)
	}
	s.publish(ctx, n)
	return nil
}

// Decrement lowers the counter by one, clamped at zero, and publishes the
// result.
func (s *Store) Decrement(ctx context.Context) (int, error) {
	val, err := s.client.Decr(ctx, counterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("units: decrement counter: %w", err)
	}
	if val < 0 {
		// Sold out; pin the counter rather than going negative.
		val = 0
		if err := s.client.Set(ctx, counterKey, 0, 0).Err(); err != nil {
			return 0, fmt.Errorf("units: clamp counter: %w", err)
		}
	}
	s.publish(ctx, int(val))
	return int(val), nil
}

// SeedIfAbsent initializes the counter on first deployment without
// clobbering a value operators already adjusted.
func (s *Store) SeedIfAbsent(ctx context.Context, n int) error {
	set, err := s.client.SetNX(ctx, counterKey, n, 0).Result()
	if err != nil {
		return fmt.Errorf("units: seed counter: %w", err)
	}
	if set {
		s.publish(ctx, n)
	}
	return nil
}

func (s *Store) publish(ctx context.Context, n int) {
	if err := s.client.Publish(ctx, updateChannel, n).Err(); err != nil {
		s.logger.Warn("units update publish failed", "error", err)
	}
}

// Subscription is a caller-owned stream of counter updates. The caller must
// Close it; nothing else tears it down.
type Subscription struct {
	pubsub  *redis.PubSub
	updates chan int
	done    chan struct{}
}

// Subscribe opens a pub/sub stream of counter values.
func (s *Store) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := s.client.Subscribe(ctx, updateChannel)
	// Force the SUBSCRIBE round-trip so a dead Redis fails here, not on
	// the first read.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("units: subscribe: %w", err)
	}

	sub := &Subscription{
		pubsub:  pubsub,
		updates: make(chan int, 8),
		done:    make(chan struct{}),
	}
	go sub.pump(s.logger)
	return sub, nil
}

func (sub *Subscription) pump(logger *logging.Logger) {
	defer close(sub.updates)
	ch := sub.pubsub.Channel()
	for {
		select {
		case <-sub.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			n, err := strconv.Atoi(msg.Payload)
			if err != nil {
				logger.Warn("units update unparseable", "payload", msg.Payload)
				continue
			}
			select {
			case sub.updates <- n:
			case <-sub.done:
				return
			}
		}
	}
}

// Updates returns the stream of counter values. The channel closes after
// Close.
func (sub *Subscription) Updates() <-chan int {
	return sub.updates
}

// Close tears the subscription down. Safe to call once.
func (sub *Subscription) Close() error {
	close(sub.done)
	return sub.pubsub.Close()
}

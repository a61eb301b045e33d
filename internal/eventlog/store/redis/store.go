package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cardauth/internal/eventlog"
)

const defaultKey = "cardauth:eventlog"

// Store keeps the event log in a capped Redis list so every instance behind a
// load balancer serves the same history.
type Store struct {
	client   redis.UniversalClient
	key      string
	capacity int
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the list key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithCapacity overrides the list length cap.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// New constructs a Redis-backed event log.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:   client,
		key:      defaultKey,
		capacity: eventlog.DefaultCapacity,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Append pushes the event to the head and trims the tail in one transaction.
func (s *Store) Append(ctx context.Context, event eventlog.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, payload)
		pipe.LTrim(ctx, s.key, 0, int64(s.capacity-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// List returns up to limit events, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]eventlog.Event, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := s.client.LRange(ctx, s.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]eventlog.Event, 0, len(raw))
	for _, r := range raw {
		var e eventlog.Event
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return int(n), nil
}

// Clear deletes the list and reports how many events it held.
func (s *Store) Clear(ctx context.Context) (int, error) {
	var llen *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		llen = pipe.LLen(ctx, s.key)
		pipe.Del(ctx, s.key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear events: %w", err)
	}
	return int(llen.Val()), nil
}

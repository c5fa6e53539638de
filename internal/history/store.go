package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "history:viewed:"

// Store persists per-session viewed-product rings in Redis.
type Store struct {
	client   *redis.Client
	capacity int
	ttl      time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client:   client,
		capacity: DefaultCapacity,
		ttl:      ttl,
	}
}

// Get loads the ring for a session; a missing key yields an empty ring.
func (s *Store) Get(ctx context.Context, sessionID string) (*Ring, error) {
	raw, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewRing(s.capacity), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load viewed-products log: %w", err)
	}

	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		// A corrupt entry is replaced rather than surfaced.
		return NewRing(s.capacity), nil
	}
	return newRingFrom(s.capacity, ids), nil
}

// Save writes the ring back under the session key.
func (s *Store) Save(ctx context.Context, sessionID string, ring *Ring) error {
	raw, err := json.Marshal(ring.IDs())
	if err != nil {
		return fmt.Errorf("failed to encode viewed-products log: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+sessionID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to persist viewed-products log: %w", err)
	}
	return nil
}

// Touch records a product view for a session in one step.
func (s *Store) Touch(ctx context.Context, sessionID string, productID uint) (*Ring, error) {
	ring, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ring.Touch(productID)
	if err := s.Save(ctx, sessionID, ring); err != nil {
		return nil, err
	}
	return ring, nil
}

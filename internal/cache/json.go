package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// GetJSON loads key from store and decodes it into a T. A missing key returns
// ErrCacheMiss; an entry that does not decode is deleted and reported.
func GetJSON[T any](ctx context.Context, store Store, key string) (T, error) {
	var zero T
	raw, err := store.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		_ = store.Delete(ctx, key)
		return zero, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return value, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	return store.Set(ctx, key, raw, ttl)
}

// Generation reads the counter at key as maintained by Store.Incr. A missing
// counter is generation zero.
func Generation(ctx context.Context, store Store, key string) (int64, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("generation %q: %w", key, err)
	}
	return n, nil
}

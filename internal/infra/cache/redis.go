package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/rueidis"
)

// Redis is a rueidis-backed cache storing values as JSON with TTL.
// It satisfies the same interface as InMemory so the backend can be
// swapped via configuration.
type Redis[T any] struct {
	client    rueidis.Client
	prefix    string
	ttl       time.Duration
	opTimeout time.Duration
}

// NewRedis connects to a single Redis node and verifies it with a ping.
func NewRedis[T any](addr, prefix string, ttl time.Duration) (*Redis[T], error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}

	return &Redis[T]{
		client:    client,
		prefix:    prefix,
		ttl:       ttl,
		opTimeout: 3 * time.Second,
	}, nil
}

// Get retrieves a value. A miss, a decode failure, or an unreachable
// server all report false; the caller refetches either way.
func (r *Redis[T]) Get(key string) (T, bool) {
	var zero T
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	resp := r.client.Do(ctx, r.client.B().Get().Key(r.prefix+key).Build())
	if resp.Error() != nil {
		return zero, false
	}
	data, err := resp.AsBytes()
	if err != nil {
		return zero, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false
	}
	return value, true
}

// Set stores a value with the configured TTL. Best effort.
func (r *Redis[T]) Set(key string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	cmd := r.client.B().Set().Key(r.prefix + key).Value(string(data)).Ex(r.ttl).Build()
	_ = r.client.Do(ctx, cmd).Error()
}

// Delete removes a value.
func (r *Redis[T]) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	_ = r.client.Do(ctx, r.client.B().Del().Key(r.prefix+key).Build()).Error()
}

// Close releases the underlying connection pool.
func (r *Redis[T]) Close() {
	r.client.Close()
}

// Package redis provides a Redis-backed embedding cache.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// keyPrefix namespaces cache entries.
const keyPrefix = "docuchat:embedding:"

// EmbeddingCache stores vectors under model + sha256(text).
type EmbeddingCache struct {
	client *goredis.Client
}

// New connects to the Redis server at rawURL
// (redis://[:password@]host:port/db) and verifies it answers PING.
func New(ctx context.Context, rawURL string) (*EmbeddingCache, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &EmbeddingCache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client) *EmbeddingCache {
	return &EmbeddingCache{client: client}
}

// Get returns the cached vector for model and text.
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, Key(model, text)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	vec, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Set stores a vector. A zero ttl keeps it until evicted.
func (c *EmbeddingCache) Set(ctx context.Context, model, text string, vector []float32, ttl time.Duration) error {
	if err := c.client.Set(ctx, Key(model, text), encode(vector), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *EmbeddingCache) Close() error {
	return c.client.Close()
}

// Key returns the cache key for model and text.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + model + ":" + hex.EncodeToString(sum[:])
}

// encode packs a vector as little-endian float32s.
func encode(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decode(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("corrupt cache entry: %d bytes", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}

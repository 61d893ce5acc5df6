// Package cache wraps an optional Redis client used for short-lived
// response caching. When REDIS_ADDR is unset the package is a no-op and
// every lookup is a miss, so callers never need to branch on availability.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	mu     sync.RWMutex
	client *redis.Client
)

// Init connects to Redis when REDIS_ADDR is set. A failed ping logs and
// leaves caching disabled rather than preventing startup.
func Init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, response caching disabled")
		return
	}

	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unreachable at %s, response caching disabled: %v", addr, err)
		return
	}

	SetClient(c)
	log.Printf("Connected to Redis at %s", addr)
}

// SetClient swaps the active client. Tests use it to point the package at
// an in-process server.
func SetClient(c *redis.Client) {
	mu.Lock()
	client = c
	mu.Unlock()
}

// Close releases the active client, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		client.Close()
		client = nil
	}
}

// GetJSON reads key and unmarshals it into dest. It reports whether a
// usable cached value was found; errors count as misses.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	mu.RLock()
	c := client
	mu.RUnlock()
	if c == nil {
		return false
	}

	raw, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Cache read failed for %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("Cache entry for %s is corrupt, dropping: %v", key, err)
		c.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores value under key with the given TTL. Failures only log;
// the cache is never allowed to break a request.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	mu.RLock()
	c := client
	mu.RUnlock()
	if c == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("Cache marshal failed for %s: %v", key, err)
		return
	}
	if err := c.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("Cache write failed for %s: %v", key, err)
	}
}

package server

import (
	"context"
	"sync"
	"time"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/common/jsoncompat"
	"github.com/redis/go-redis/v9"
)

type localEntry struct {
	Expires time.Time
	Data    []byte
}

// Cache fronts rendered responses with redis plus a small in-process layer.
type Cache struct {
	client   *redis.Client
	ctx      context.Context
	mu       sync.Mutex
	memCache map[string]localEntry
}

func NewCache(addr, password string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{
		client:   rdb,
		ctx:      context.Background(),
		memCache: make(map[string]localEntry),
	}
}

func (c *Cache) Get(key string, out any) error {
	c.mu.Lock()
	local, found := c.memCache[key]
	if found && local.Expires.After(time.Now()) {
		c.mu.Unlock()
		return jsoncompat.Unmarshal(local.Data, out)
	}
	if found {
		delete(c.memCache, key)
	}
	c.mu.Unlock()

	data, err := c.client.Get(c.ctx, key).Bytes()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.memCache[key] = localEntry{Expires: time.Now().Add(time.Minute), Data: data}
	c.mu.Unlock()
	return jsoncompat.Unmarshal(data, out)
}

func (c *Cache) Set(key string, value any, expiration time.Duration) error {
	data, err := jsoncompat.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.memCache[key] = localEntry{Expires: time.Now().Add(expiration), Data: data}
	c.mu.Unlock()
	return c.client.Set(c.ctx, key, data, expiration).Err()
}

// Invalidate drops a key from both layers, used after mutations that change
// rendered output.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.memCache, key)
	}
	c.mu.Unlock()
	c.client.Del(c.ctx, keys...)
}

func (c *Cache) Close() {
	c.client.Close()
}

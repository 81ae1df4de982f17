// Package cache 提供进程内TTL缓存
//
// 1. 时钟可注入，测试中用假时钟推进时间
// 2. 容量有上限，超出时淘汰最早过期的条目
package cache

import (
	"sync"
	"time"
)

// Clock 时间来源
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时钟
type SystemClock struct{}

// Now 返回当前时间
func (SystemClock) Now() time.Time { return time.Now() }

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache 带过期时间和容量上限的并发安全缓存
type TTLCache[K comparable, V any] struct {
	mu       sync.Mutex
	items    map[K]entry[V]
	ttl      time.Duration
	capacity int
	clock    Clock
}

// Option TTLCache可选配置
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock 注入时钟
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// NewTTLCache 创建缓存
// capacity<=0 表示不限容量
func NewTTLCache[K comparable, V any](ttl time.Duration, capacity int, opts ...Option) *TTLCache[K, V] {
	o := options{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTLCache[K, V]{
		items:    make(map[K]entry[V]),
		ttl:      ttl,
		capacity: capacity,
		clock:    o.clock,
	}
}

// Get 读取未过期的值，过期条目在读取时删除
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return e.value, true
}

// Set 使用默认TTL写入
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL 使用指定TTL写入
func (c *TTLCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if _, exists := c.items[key]; !exists && c.capacity > 0 && len(c.items) >= c.capacity {
		c.evictLocked(now)
	}
	c.items[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
}

// Delete 删除指定key
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Purge 清空缓存
func (c *TTLCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

// Len 当前条目数（包含尚未被清理的过期条目）
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// GetOrLoad 命中则返回缓存值，否则调用load并写入
// load返回error时不缓存
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// evictLocked 先清理所有过期条目；仍然满则淘汰最早过期的一条
func (c *TTLCache[K, V]) evictLocked(now time.Time) {
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
	if len(c.items) < c.capacity {
		return
	}

	var (
		oldestKey K
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.items {
		if !found || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.items, oldestKey)
	}
}

package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// ResponseCache 短时响应缓存，写操作后整体清空
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration
}

// NewResponseCache ttl <= 0 时不缓存
func NewResponseCache(ttl time.Duration) *ResponseCache {
	cleanup := 2 * ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &ResponseCache{store: cache.New(ttl, cleanup), ttl: ttl}
}

// Get 获取缓存值
func (c *ResponseCache) Get(key string) (interface{}, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	return c.store.Get(key)
}

// Set 设置缓存值
func (c *ResponseCache) Set(key string, value interface{}) {
	if c.ttl <= 0 {
		return
	}
	c.store.Set(key, value, c.ttl)
}

// Flush 清空所有缓存
func (c *ResponseCache) Flush() {
	c.store.Flush()
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// TTLCache 带过期时间的 LRU 缓存
type TTLCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewTTLCache size 是最大缓存条数，ttl 是数据有效期
func NewTTLCache[T any](size int, ttl time.Duration) *TTLCache[T] {
	if size <= 0 {
		size = 1
	}
	// lru.New 是线程安全的，size > 0 时不会报错
	c, _ := lru.New[string, CacheItem[T]](size)
	return &TTLCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入，已存在时覆盖
func (c *TTLCache[T]) Set(key string, value T) {
	item := CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	}
	c.storage.Add(key, item)
}

// Get 读取，过期视为不存在
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.Value, true
}

// Delete 删除
func (c *TTLCache[T]) Delete(key string) {
	c.storage.Remove(key)
}


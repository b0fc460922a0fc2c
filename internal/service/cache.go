package service

import (
	"sync"
	"time"
)

// externalCacheTTL 对齐外部接口的短时缓存窗口
const externalCacheTTL = 10 * time.Minute

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// memoCache 是外部调用结果的显式短时缓存。
// key 由调用方用请求参数拼出；过期条目在读取时剔除。
type memoCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newMemoCache() *memoCache {
	return &memoCache{entries: make(map[string]cacheEntry)}
}

// Get 返回未过期的缓存值
func (c *memoCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Set 写入缓存，ttl <= 0 表示永不过期
func (c *memoCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = entry
}

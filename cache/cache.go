package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jing2uo/tsanalyst/utils"
)

const DefaultTTL = 10 * time.Minute

type Kind string

const (
	KindMarketData        Kind = "market_data"
	KindFundamentals      Kind = "fundamentals"
	KindMarketEnvironment Kind = "market_environment"
	KindStockList         Kind = "stock_list"
)

// Key 规范化代码 + 类型
type Key struct {
	Code string
	Kind Kind
}

func (k Key) String() string { return k.Code + "|" + string(k.Kind) }

type entry struct {
	value     any
	fetchedAt time.Time
}

type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Cache 进程内快照缓存, 失败结果不写入
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	ttl     time.Duration
	clock   utils.Clock
	group   singleflight.Group
	log     zerolog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

type Option func(*Cache)

func WithClock(c utils.Clock) Option {
	return func(cc *Cache) { cc.clock = c }
}

func WithLogger(log zerolog.Logger) Option {
	return func(cc *Cache) { cc.log = log.With().Str("component", "cache").Logger() }
}

func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[Key]*entry),
		ttl:     ttl,
		clock:   utils.SystemClock{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) fresh(e *entry, now time.Time) bool {
	return now.Sub(e.fetchedAt) < c.ttl
}

// Get 仅返回未过期的值
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.fresh(e, c.clock.Now()) {
		return nil, false
	}
	return e.value, true
}

// Put 整体替换
func (c *Cache) Put(key Key, value any) {
	e := &entry{value: value, fetchedAt: c.clock.Now()}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateCode 清除某代码的全部条目
func (c *Cache) InvalidateCode(code string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, kind := range []Kind{KindMarketData, KindFundamentals, KindMarketEnvironment} {
		key := Key{Code: code, Kind: kind}
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Purge 清理过期条目, 返回清理数量
func (c *Cache) Purge() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if !c.fresh(e, now) {
			delete(c.entries, k)
			n++
		}
	}
	if n > 0 {
		c.log.Debug().Int("purged", n).Msg("cache purge")
	}
	return n
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return Stats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Fetch 命中直接返回, 否则调用 fn; 同一 key 的并发未命中只调用一次。
// fn 出错时其返回值原样透传, 不写入缓存。
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.hits.Add(1)
			return typed, nil
		}
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// 等待期间可能已被其他调用写入
		if v, ok := c.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
		c.misses.Add(1)

		val, err := fn(ctx)
		if err != nil {
			c.log.Debug().Str("key", key.String()).Err(err).Msg("fetch failed, not cached")
			return val, err
		}
		c.Put(key, val)
		return val, nil
	})

	typed, _ := v.(T)
	return typed, err
}

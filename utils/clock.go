package utils

import (
	"sync"
	"time"
)

// ChinaTZ 交易日以北京时间计
var ChinaTZ = time.FixedZone("CST", 8*3600)

const DateLayout = "20060102"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock 测试用, 手动推进
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// TradeDay 返回北京时间的 YYYYMMDD
func TradeDay(t time.Time) string {
	return t.In(ChinaTZ).Format(DateLayout)
}

// ParseTradeDay 解析 YYYYMMDD
func ParseTradeDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, ChinaTZ)
}

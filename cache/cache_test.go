package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jing2uo/tsanalyst/utils"
)

var t0 = time.Date(2024, 3, 12, 10, 0, 0, 0, utils.ChinaTZ)

func counter(calls *atomic.Int64, value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestFetch_HitWithinTTL(t *testing.T) {
	clock := utils.NewManualClock(t0)
	c := New(10*time.Minute, WithClock(clock))
	key := Key{Code: "600519.SH", Kind: KindMarketData}

	var calls atomic.Int64
	v, err := Fetch(context.Background(), c, key, counter(&calls, "first"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	clock.Advance(9*time.Minute + 59*time.Second)
	v, err = Fetch(context.Background(), c, key, counter(&calls, "second"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, int64(1), calls.Load())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestFetch_RefetchOnceAfterExpiry(t *testing.T) {
	clock := utils.NewManualClock(t0)
	c := New(10*time.Minute, WithClock(clock))
	key := Key{Code: "600519.SH", Kind: KindFundamentals}

	var calls atomic.Int64
	_, err := Fetch(context.Background(), c, key, counter(&calls, "old"))
	require.NoError(t, err)

	// 恰好等于 TTL 即过期
	clock.Advance(10 * time.Minute)
	v, err := Fetch(context.Background(), c, key, counter(&calls, "new"))
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	v, err = Fetch(context.Background(), c, key, counter(&calls, "newer"))
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.Equal(t, int64(2), calls.Load())
}

func TestFetch_FailuresNotCached(t *testing.T) {
	c := New(time.Minute, WithClock(utils.NewManualClock(t0)))
	key := Key{Code: "00700.HK", Kind: KindMarketData}
	boom := errors.New("boom")

	var calls atomic.Int64
	v, err := Fetch(context.Background(), c, key, func(context.Context) (string, error) {
		calls.Add(1)
		return "partial", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", v)

	v, err = Fetch(context.Background(), c, key, counter(&calls, "ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int64(2), calls.Load())
}

func TestFetch_KeysAreIndependent(t *testing.T) {
	c := New(time.Minute, WithClock(utils.NewManualClock(t0)))

	var calls atomic.Int64
	for _, kind := range []Kind{KindMarketData, KindFundamentals, KindMarketEnvironment} {
		_, err := Fetch(context.Background(), c, Key{Code: "600519.SH", Kind: kind}, counter(&calls, string(kind)))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), calls.Load())
	assert.Equal(t, 3, c.Stats().Entries)
}

func TestFetch_ConcurrentMissesShareOneCall(t *testing.T) {
	c := New(time.Minute)
	key := Key{Code: "000001.SZ", Kind: KindMarketData}

	var calls atomic.Int64
	release := make(chan struct{})
	fn := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, key, fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestCache_Purge(t *testing.T) {
	clock := utils.NewManualClock(t0)
	c := New(time.Minute, WithClock(clock))

	c.Put(Key{Code: "a", Kind: KindMarketData}, 1)
	clock.Advance(30 * time.Second)
	c.Put(Key{Code: "b", Kind: KindMarketData}, 2)
	clock.Advance(45 * time.Second)

	assert.Equal(t, 1, c.Purge())
	_, ok := c.Get(Key{Code: "a", Kind: KindMarketData})
	assert.False(t, ok)
	v, ok := c.Get(Key{Code: "b", Kind: KindMarketData})
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCache_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(0).TTL())
}

func TestCache_InvalidateCode(t *testing.T) {
	c := New(time.Minute)
	c.Put(Key{Code: "600519.SH", Kind: KindMarketData}, 1)
	c.Put(Key{Code: "600519.SH", Kind: KindFundamentals}, 2)
	c.Put(Key{Code: "000001.SZ", Kind: KindMarketData}, 3)

	assert.Equal(t, 2, c.InvalidateCode("600519.SH"))
	assert.Equal(t, 0, c.InvalidateCode("600519.SH"))

	_, ok := c.Get(Key{Code: "000001.SZ", Kind: KindMarketData})
	assert.True(t, ok)
	assert.Equal(t, 1, c.Stats().Entries)
}

package data

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// startSlack tolerates weekends and holidays at the start of a window.
const startSlack = 5 * 24 * time.Hour

var _ BarCache = (*MemoryCache)(nil)

// MemoryCache implements BarCache in process memory.
type MemoryCache struct {
	cache map[string][]types.OHLCV
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{cache: make(map[string][]types.OHLCV)}
}

// Load implements BarCache.
func (c *MemoryCache) Load(symbol string, start, end time.Time) ([]types.OHLCV, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return NewDefaultDataFilter().FilterByDateRange(c.cache[strings.ToUpper(symbol)], start, end), nil
}

// Store implements BarCache.
func (c *MemoryCache) Store(symbol string, candles []types.OHLCV) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	symbol = strings.ToUpper(symbol)
	byDay := make(map[time.Time]types.OHLCV, len(c.cache[symbol])+len(candles))
	for _, b := range c.cache[symbol] {
		byDay[b.Timestamp] = b
	}
	for _, b := range candles {
		b.Timestamp = TruncateDay(b.Timestamp)
		byDay[b.Timestamp] = b
	}
	merged := make([]types.OHLCV, 0, len(byDay))
	for _, b := range byDay {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })
	c.cache[symbol] = merged
	return nil
}

// Size returns the number of cached symbols.
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// CachedSource serves candles from a cache and refetches the whole window
// from the remote source when the cache is missing or stale. A cache is fresh
// when it holds the previous weekday's bar or a bar within staleAfter of end.
type CachedSource struct {
	remote     BarSource
	cache      BarCache
	staleAfter time.Duration
	logger     *zap.Logger
}

// NewCachedSource wraps remote with cache. A nil logger disables logging.
func NewCachedSource(remote BarSource, cache BarCache, staleAfter time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{remote: remote, cache: cache, staleAfter: staleAfter, logger: logger}
}

func (s *CachedSource) Name() string { return "cached " + s.remote.Name() }

// FetchDaily implements BarSource.
func (s *CachedSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]types.OHLCV, error) {
	cached, err := s.cache.Load(symbol, start, end)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("symbol", symbol), zap.Error(err))
		cached = nil
	}
	if s.fresh(cached, start, end) {
		s.logger.Debug("cache hit", zap.String("symbol", symbol), zap.Int("bars", len(cached)))
		return cached, nil
	}

	fetched, err := s.remote.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		if len(cached) > 0 {
			s.logger.Warn("remote fetch failed, serving stale cache",
				zap.String("symbol", symbol), zap.Time("last", cached[len(cached)-1].Timestamp), zap.Error(err))
			return cached, nil
		}
		return nil, err
	}
	if err := s.cache.Store(symbol, fetched); err != nil {
		s.logger.Warn("cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	s.logger.Debug("cache refreshed", zap.String("symbol", symbol), zap.Int("bars", len(fetched)))
	return fetched, nil
}

func (s *CachedSource) fresh(cached []types.OHLCV, start, end time.Time) bool {
	if len(cached) == 0 {
		return false
	}
	first, last := cached[0].Timestamp, cached[len(cached)-1].Timestamp
	if first.After(start.Add(startSlack)) {
		return false
	}
	if !TruncateDay(last).Before(previousSession(end)) {
		return true
	}
	return !last.Before(end.Add(-s.staleAfter))
}

// previousSession is the last weekday strictly before end's day. Daily bars
// for end itself may not exist yet.
func previousSession(end time.Time) time.Time {
	d := TruncateDay(end).AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

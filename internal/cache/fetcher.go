package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"SignalScanner/internal/collector"
	"SignalScanner/internal/model"
)

// CachingFetcher decorates a collector.Fetcher, serving selected intervals from a Store.
// Entries expire at the next UTC midnight.
type CachingFetcher struct {
	inner     collector.Fetcher
	store     Store
	intervals map[string]struct{}
	namespace string
	log       zerolog.Logger
	now       func() time.Time
}

var _ collector.Fetcher = (*CachingFetcher)(nil)

// NewCachingFetcher wraps inner. If intervals is empty it caches "1d" only.
func NewCachingFetcher(inner collector.Fetcher, store Store, log zerolog.Logger, intervals ...string) *CachingFetcher {
	if store == nil {
		store = NewNoopStore()
	}
	if len(intervals) == 0 {
		intervals = []string{"1d"}
	}
	set := make(map[string]struct{}, len(intervals))
	for _, iv := range intervals {
		set[iv] = struct{}{}
	}
	return &CachingFetcher{
		inner:     inner,
		store:     store,
		intervals: set,
		namespace: "candles",
		log:       log,
		now:       time.Now,
	}
}

func (c *CachingFetcher) Name() string { return c.inner.Name() + "+cache" }

func (c *CachingFetcher) ListInstruments(ctx context.Context) ([]string, error) {
	return c.inner.ListInstruments(ctx)
}

func (c *CachingFetcher) FetchSeries(ctx context.Context, symbol, interval string, limit int) (model.Series, error) {
	if _, ok := c.intervals[interval]; !ok {
		return c.inner.FetchSeries(ctx, symbol, interval, limit)
	}

	key := c.cacheKey(symbol, interval, limit)
	candles, hit, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("candle cache read failed")
	}
	if hit {
		if series, err := model.NewSeries(symbol, interval, candles); err == nil {
			return series, nil
		}
	}

	series, err := c.inner.FetchSeries(ctx, symbol, interval, limit)
	if err != nil {
		return model.Series{}, err
	}

	ttl := UntilNextUTCMidnight(c.now())
	if err := c.store.Set(ctx, key, series.Candles, ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("candle cache write failed")
	}
	return series, nil
}

func (c *CachingFetcher) cacheKey(symbol, interval string, limit int) string {
	day := c.now().UTC().Format("20060102")
	return fmt.Sprintf("%s:%s:%s:%d:%s", c.namespace, safe(symbol), safe(interval), limit, day)
}

// safe escapes characters that are problematic for cache keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

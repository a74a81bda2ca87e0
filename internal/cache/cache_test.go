package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalScanner/internal/collector"
	"SignalScanner/internal/model"
)

var day0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func dailyCandles() []model.Candle {
	return []model.Candle{
		{Time: day0, Open: 100, High: 110, Low: 90, Close: 105, Volume: 10},
		{Time: day0.Add(24 * time.Hour), Open: 105, High: 112, Low: 101, Close: 111, Volume: 12},
	}
}

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUntilNextUTCMidnight(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Duration
	}{
		{time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 24 * time.Hour},
		{time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC), 30 * time.Minute},
		{time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("UTC+8", 8*3600)), 20 * time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UntilNextUTCMidnight(tt.now), tt.now.String())
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)

	_, hit, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, s.Set(ctx, "k", dailyCandles(), time.Hour))

	got, hit, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 2)
	assert.True(t, got[1].Time.Equal(day0.Add(24*time.Hour)))
	assert.Equal(t, 111.0, got[1].Close)
}

func TestSQLiteStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)
	now := day0
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", dailyCandles(), time.Minute))
	now = now.Add(2 * time.Minute)

	_, hit, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSQLiteStore_CorruptedEntry(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)
	_, err := s.db.Exec(`INSERT INTO candle_cache (key, payload, expires_at) VALUES (?, ?, ?)`,
		"k", []byte("not json"), time.Now().Add(time.Hour).UnixMilli())
	require.NoError(t, err)

	_, hit, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM candle_cache`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestCachingFetcher_CachesDailyOnly(t *testing.T) {
	ctx := context.Background()
	inner := &collector.MockFetcher{
		Symbols: []string{"BTCUSDT"},
		Price:   100,
		Data: map[string]map[string][]model.Candle{
			"BTCUSDT": {"1d": dailyCandles()},
		},
	}
	f := NewCachingFetcher(inner, newMemoryStore(t), zerolog.Nop())

	for i := 0; i < 3; i++ {
		s, err := f.FetchSeries(ctx, "BTCUSDT", "1d", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
	}
	assert.Equal(t, int64(1), inner.Calls())

	for i := 0; i < 2; i++ {
		_, err := f.FetchSeries(ctx, "BTCUSDT", "1h", 20)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), inner.Calls())

	syms, err := f.ListInstruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, syms)
	assert.Equal(t, "mock+cache", f.Name())
}

func TestCachingFetcher_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &collector.MockFetcher{Errors: map[string]error{"BAD": assert.AnError}}
	f := NewCachingFetcher(inner, newMemoryStore(t), zerolog.Nop())

	_, err := f.FetchSeries(ctx, "BAD", "1d", 2)
	assert.ErrorIs(t, err, assert.AnError)
	_, err = f.FetchSeries(ctx, "BAD", "1d", 2)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(2), inner.Calls())
}

func TestCachingFetcher_NilStore(t *testing.T) {
	inner := &collector.MockFetcher{Price: 10}
	f := NewCachingFetcher(inner, nil, zerolog.Nop())
	_, err := f.FetchSeries(context.Background(), "AAA", "1d", 2)
	require.NoError(t, err)
	_, err = f.FetchSeries(context.Background(), "AAA", "1d", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.Calls())
}

func TestCachingFetcher_CacheKey(t *testing.T) {
	f := NewCachingFetcher(&collector.MockFetcher{}, nil, zerolog.Nop())
	f.now = func() time.Time { return time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC) }
	assert.Equal(t, "candles:BTC_USDT:1d:2:20240501", f.cacheKey("BTC:USDT", "1d", 2))
}

func TestRedisStore_MissThenSet(t *testing.T) {
	ctx := context.Background()
	rdb, mock := redismock.NewClientMock()
	s := NewRedisStoreFromClient(rdb)

	expectedJSON, err := json.Marshal(dailyCandles())
	require.NoError(t, err)

	mock.ExpectGet("candles:BTCUSDT:1d:2").RedisNil()
	mock.ExpectSet("candles:BTCUSDT:1d:2", expectedJSON, time.Hour).SetVal("OK")

	_, hit, err := s.Get(ctx, "candles:BTCUSDT:1d:2")
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, s.Set(ctx, "candles:BTCUSDT:1d:2", dailyCandles(), time.Hour))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRedisStore_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewRedisStoreFromClient(rdb)

	cachedJSON, err := json.Marshal(dailyCandles())
	require.NoError(t, err)
	mock.ExpectGet("k").SetVal(string(cachedJSON))

	got, hit, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 105.0, got[0].Close)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_CorruptedEntry(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewRedisStoreFromClient(rdb)

	mock.ExpectGet("k").SetVal("invalid json")
	mock.ExpectDel("k").SetVal(1)

	_, hit, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Error(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewRedisStoreFromClient(rdb)
	mock.ExpectGet("k").SetErr(assert.AnError)

	_, hit, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, hit)
}

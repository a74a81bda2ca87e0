// Package cache provides a candle cache that decorates a collector.Fetcher.
package cache

import (
	"context"
	"time"

	"SignalScanner/internal/model"
)

// Store persists candle slices under a key for a bounded time.
type Store interface {
	Get(ctx context.Context, key string) ([]model.Candle, bool, error)
	Set(ctx context.Context, key string, candles []model.Candle, ttl time.Duration) error
	Close() error
}

// NoopStore is used when no cache backend is configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Get(_ context.Context, _ string) ([]model.Candle, bool, error) {
	return nil, false, nil
}
func (n *NoopStore) Set(_ context.Context, _ string, _ []model.Candle, _ time.Duration) error {
	return nil
}
func (n *NoopStore) Close() error { return nil }

// UntilNextUTCMidnight returns the time left until the next UTC day starts.
func UntilNextUTCMidnight(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(now)
}

package signals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalDesk/internal/cache"
	"SignalDesk/internal/model"

	"github.com/sirupsen/logrus"
)

const feedCacheKey = "signals:feed"

// CachedRepository serves the feed from a cache, falling through to Source on
// a miss or a cache failure.
type CachedRepository struct {
	Source Repository
	Cache  cache.Cache
	TTL    time.Duration
	log    logrus.FieldLogger
}

// NewCachedRepository wraps source with a read-through cache.
func NewCachedRepository(source Repository, c cache.Cache, ttl time.Duration, log logrus.FieldLogger) *CachedRepository {
	return &CachedRepository{
		Source: source,
		Cache:  c,
		TTL:    ttl,
		log:    log.WithField("component", "signals"),
	}
}

func (r *CachedRepository) Name() string { return "cached(" + r.Source.Name() + ")" }

// FetchSignals returns the cached feed when present.
func (r *CachedRepository) FetchSignals(ctx context.Context) ([]model.Signal, error) {
	var cached []model.Signal
	err := r.Cache.Get(ctx, feedCacheKey, &cached)
	switch {
	case err == nil:
		return cached, nil
	case errors.Is(err, cache.ErrMiss):
	default:
		r.log.WithError(err).Warn("read feed cache failed, using source")
	}
	return r.Refresh(ctx)
}

// Refresh reloads the feed from Source and overwrites the cache.
func (r *CachedRepository) Refresh(ctx context.Context) ([]model.Signal, error) {
	list, err := r.Source.FetchSignals(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", r.Source.Name(), err)
	}
	if err := r.Cache.Set(ctx, feedCacheKey, list, r.TTL); err != nil {
		r.log.WithError(err).Warn("write feed cache failed")
	}
	return list, nil
}

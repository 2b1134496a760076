package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/adapter"
	"foodflow-pickup/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const (
	toleranceKey   = "pickup:tolerance"
	toleranceCache = "tolerance"
)

var _ adapter.TolerancePolicyProvider = (*ToleranceCache)(nil)

// ToleranceCache is a read-through cache in front of a tolerance provider.
// Redis failures degrade to reading the provider directly.
type ToleranceCache struct {
	client RedisClient
	next   adapter.TolerancePolicyProvider
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewToleranceCache(client RedisClient, next adapter.TolerancePolicyProvider, ttl time.Duration, logger *zerolog.Logger) *ToleranceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ToleranceCache{client: client, next: next, ttl: ttl, log: logger}
}

func (c *ToleranceCache) GetTolerancePolicy(ctx context.Context) (*model.TolerancePolicy, error) {
	raw, err := c.client.Get(ctx, toleranceKey)
	if err == nil {
		var p model.TolerancePolicy
		if jerr := json.Unmarshal([]byte(raw), &p); jerr == nil {
			metrics.IncCacheRequest(toleranceCache, metrics.CacheHit)
			return &p, nil
		}
		c.log.Warn().Msg("discarding malformed cached tolerance policy")
		metrics.IncCacheRequest(toleranceCache, metrics.CacheMiss)
	} else if errors.Is(err, ErrMiss) {
		metrics.IncCacheRequest(toleranceCache, metrics.CacheMiss)
	} else {
		metrics.IncCacheRequest(toleranceCache, metrics.CacheError)
		c.log.Warn().Err(err).Msg("tolerance cache read failed")
	}

	start := time.Now()
	p, err := c.next.GetTolerancePolicy(ctx)
	if err != nil {
		return nil, err
	}
	metrics.ObserveCacheFill(toleranceCache, time.Since(start))
	if b, jerr := json.Marshal(p); jerr == nil {
		if serr := c.client.Set(ctx, toleranceKey, b, c.ttl); serr != nil {
			c.log.Warn().Err(serr).Msg("tolerance cache write failed")
		}
	}
	return p, nil
}

// Invalidate drops the cached policy so the next read goes to the provider.
func (c *ToleranceCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, toleranceKey); err != nil {
		return err
	}
	metrics.IncCacheInvalidation(toleranceCache)
	return nil
}

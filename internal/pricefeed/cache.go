package pricefeed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/cache/v8"
	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
)

const cacheKeyPrefix = "papertrader:price:"

// CacheConfig configures the quote cache.
type CacheConfig struct {
	TTL       time.Duration // quote lifetime; 0 disables caching
	LocalSize int           // in-process TinyLFU entries; 0 disables the local tier
	Redis     *goredis.Client
}

// NewCache builds a go-redis/cache over the configured tiers. It returns
// nil when no tier is enabled.
func NewCache(cfg CacheConfig) *cache.Cache {
	if cfg.TTL <= 0 || (cfg.Redis == nil && cfg.LocalSize <= 0) {
		return nil
	}
	opts := &cache.Options{}
	if cfg.Redis != nil {
		opts.Redis = cfg.Redis
	}
	if cfg.LocalSize > 0 {
		opts.LocalCache = cache.NewTinyLFU(cfg.LocalSize, cfg.TTL)
	}
	return cache.New(opts)
}

// Cached serves quotes from a cache in front of another feed so bursts of
// orders on one symbol see one price for the TTL.
type Cached struct {
	next    model.PriceFeed
	cache   *cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	log     *logrus.Entry
}

// NewCached wraps next. A nil c returns a decorator that always misses.
func NewCached(next model.PriceFeed, c *cache.Cache, ttl time.Duration, m *metrics.Metrics, log *logrus.Entry) *Cached {
	if log == nil {
		log = logger.Discard()
	}
	return &Cached{
		next:    next,
		cache:   c,
		ttl:     ttl,
		metrics: m,
		log:     log.WithField("component", "price-cache"),
	}
}

// CurrentPrice implements model.PriceFeed.
func (c *Cached) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if c.cache == nil {
		return c.next.CurrentPrice(ctx, symbol)
	}
	key := cacheKeyPrefix + strings.ToUpper(symbol)

	var price float64
	err := c.cache.Get(ctx, key, &price)
	if err == nil {
		c.metrics.ObservePriceCache(true)
		return price, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.log.WithError(err).WithField("key", key).Warn("cache get failed")
	}
	c.metrics.ObservePriceCache(false)

	price, err = c.next.CurrentPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if err := c.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: price,
		TTL:   c.ttl,
	}); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
	return price, nil
}

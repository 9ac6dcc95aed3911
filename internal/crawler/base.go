package crawler

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"sjsage522/tokoworker/helpers"
	"sjsage522/tokoworker/logger"
	"sjsage522/tokoworker/pkg/errors"
	"sjsage522/tokoworker/services/cache"
)

// FetchFunc fetches the markup of a page
type FetchFunc func(ctx context.Context, url string) (string, error)

// BaseCrawler provides the fetch path shared by all crawlers: a memcache
// block key honoured after a rate-limit response and a limiter spacing
// consecutive requests.
type BaseCrawler struct {
	Name      string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Limiter   *rate.Limiter
	fetchFunc FetchFunc
}

// NewBaseCrawler creates a base crawler. A zero interval disables spacing.
func NewBaseCrawler(name string, cacheSvc cache.CacheService, blockTime, interval time.Duration) *BaseCrawler {
	c := &BaseCrawler{
		Name:      name,
		CacheKey:  name + "_rate_limited",
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
		fetchFunc: helpers.FetchString,
	}
	if interval > 0 {
		c.Limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return c
}

// GetName returns the crawler's name for logging
func (c *BaseCrawler) GetName() string {
	return c.Name
}

// Blocked reports whether the block key is set
func (c *BaseCrawler) Blocked() bool {
	if c.CacheSvc == nil || c.CacheKey == "" {
		return false
	}
	_, err := c.CacheSvc.Get(c.CacheKey)
	return err == nil
}

func (c *BaseCrawler) block() {
	if c.CacheSvc == nil || c.CacheKey == "" || c.BlockTime <= 0 {
		return
	}
	value := []byte(fmt.Sprintf("%d", c.BlockTime/time.Second))
	if err := c.CacheSvc.Set(c.CacheKey, value, c.BlockTime); err != nil {
		logger.ForScraper(c.Name).Warn().Err(err).Msg("failed to set rate limit block")
		return
	}
	logger.ForScraper(c.Name).Warn().Dur("block", c.BlockTime).Msg("rate limited, pausing requests")
}

// fetch fetches url with rate limiting
func (c *BaseCrawler) fetch(ctx context.Context, url string) (string, error) {
	if c.Blocked() {
		return "", errors.NewRateLimit(c.Name, c.BlockTime)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", errors.NewNetwork(c.Name, "fetch cancelled", err)
		}
	}

	fetch := c.fetchFunc
	if fetch == nil {
		fetch = helpers.FetchString
	}
	body, err := fetch(ctx, url)
	if err != nil {
		if stderrors.Is(err, helpers.ErrRateLimited) {
			c.block()
			return "", errors.New(errors.ErrorTypeRateLimit, c.Name, fmt.Sprintf("rate limited for %v", c.BlockTime), err)
		}
		return "", errors.NewNetwork(c.Name, "failed to fetch "+url, err)
	}
	return body, nil
}

package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"genna-quiz-service/internal/domain"
)

// ContentSource produces the home and learn content (normally the content client).
type ContentSource interface {
	LiveFacts(ctx context.Context) ([]domain.LiveFact, error)
	LearnContent(ctx context.Context) ([]domain.LearnContent, error)
}

// ContentCache keeps generated content for ttl to avoid repeated model calls.
// With ttl <= 0 nothing is kept, but concurrent callers still share one request.
type ContentCache struct {
	source ContentSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedContent
}

type cachedContent struct {
	value     any
	expiresAt time.Time
}

func NewContentCache(source ContentSource, ttl time.Duration) *ContentCache {
	return &ContentCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContent),
	}
}

func (c *ContentCache) LiveFacts(ctx context.Context) ([]domain.LiveFact, error) {
	v, err := c.get(ctx, "facts", func(ctx context.Context) (any, error) {
		return c.source.LiveFacts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.LiveFact), nil
}

func (c *ContentCache) LearnContent(ctx context.Context) ([]domain.LearnContent, error) {
	v, err := c.get(ctx, "learn", func(ctx context.Context) (any, error) {
		return c.source.LearnContent(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.LearnContent), nil
}

func (c *ContentCache) get(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		v, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if ttl := c.ttlWithJitter(); ttl > 0 {
			c.mu.Lock()
			c.cache[key] = cachedContent{value: v, expiresAt: c.clock().Add(ttl)}
			c.mu.Unlock()
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *ContentCache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.value, true
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/infra/memory"
)

// ContentCache stores generated content as JSON strings in Redis and falls
// back to the source on a miss:
//
//	SET genna:content:facts <json> EX ttl
//	SET genna:content:learn <json> EX ttl
type ContentCache struct {
	client *redis.Client
	source memory.ContentSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewContentCache(client *redis.Client, source memory.ContentSource, ttl time.Duration) *ContentCache {
	return &ContentCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContentCache) LiveFacts(ctx context.Context) ([]domain.LiveFact, error) {
	var facts []domain.LiveFact
	err := c.get(ctx, "facts", &facts, func(ctx context.Context) (any, error) {
		return c.source.LiveFacts(ctx)
	})
	return facts, err
}

func (c *ContentCache) LearnContent(ctx context.Context) ([]domain.LearnContent, error) {
	var cards []domain.LearnContent
	err := c.get(ctx, "learn", &cards, func(ctx context.Context) (any, error) {
		return c.source.LearnContent(ctx)
	})
	return cards, err
}

// get decodes the cached value for name into out, loading and storing it on a miss.
func (c *ContentCache) get(ctx context.Context, name string, out any, load func(context.Context) (any, error)) error {
	key := c.key(name)
	if c.ttl > 0 {
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			if err := json.Unmarshal(raw, out); err == nil {
				return nil
			}
		}
	}

	result, err, _ := c.sf.Do(name, func() (interface{}, error) {
		if c.ttl > 0 {
			// Re-check cache in case another goroutine filled it.
			if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
				return raw, nil
			}
		}

		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
				log.Printf("warn: caching %s content: %v", name, err)
			}
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(result.([]byte), out)
}

func (c *ContentCache) key(name string) string {
	return "genna:content:" + name
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

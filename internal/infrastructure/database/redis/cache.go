package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// nullMarker is stored for ids the loader could not find, so repeated
// lookups of an unknown id do not reach the loader.
const nullMarker = "__null__"

// DocumentLoader fetches a document on a cache miss.  It returns nil, nil
// when the document does not exist.
type DocumentLoader func(ctx context.Context) (*dto.Document, error)

// DocumentCache stores normalized documents as JSON, keyed by canonical id.
type DocumentCache struct {
	client       *Client
	logger       logging.Logger
	ttl          time.Duration
	nullCacheTTL time.Duration
	jitter       func(time.Duration) time.Duration
	group        singleflight.Group
}

type CacheOption func(*DocumentCache)

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *DocumentCache) { c.ttl = ttl }
}

func WithNullCacheTTL(ttl time.Duration) CacheOption {
	return func(c *DocumentCache) { c.nullCacheTTL = ttl }
}

// WithoutJitter stores entries with their exact TTL.
func WithoutJitter() CacheOption {
	return func(c *DocumentCache) { c.jitter = func(d time.Duration) time.Duration { return d } }
}

// NewDocumentCache uses the client's CacheTTL unless WithDefaultTTL is given.
func NewDocumentCache(client *Client, log logging.Logger, opts ...CacheOption) *DocumentCache {
	c := &DocumentCache{
		client:       client,
		logger:       logging.OrDefault(log),
		ttl:          client.Config().CacheTTL,
		nullCacheTTL: 30 * time.Second,
		jitter:       jitterTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// jitterTTL spreads expiry by +/- 10% so documents cached by one ingest run
// do not all expire together.
func jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *DocumentCache) key(id string) string { return c.client.Key("doc", id) }

// Get returns the cached document or ErrCacheMiss.
func (c *DocumentCache) Get(ctx context.Context, id string) (*dto.Document, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	if string(data) == nullMarker {
		return nil, ErrCacheMiss
	}
	var doc dto.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeSerialization, "cached document %s", id)
	}
	return &doc, nil
}

// Put stores doc under its primary id.
func (c *DocumentCache) Put(ctx context.Context, doc *dto.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return ErrSerializationFailed
	}
	if err := c.client.Set(ctx, c.key(doc.ID.ID), data, c.jitter(c.ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}

// Invalidate drops the entries of ids.
func (c *DocumentCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

// GetOrLoad returns the cached document of id, calling load at most once
// per id across concurrent callers on a miss.
func (c *DocumentCache) GetOrLoad(ctx context.Context, id string, load DocumentLoader) (*dto.Document, error) {
	doc, err := c.Get(ctx, id)
	if err == nil {
		return doc, nil
	}
	if err != ErrCacheMiss {
		return nil, err
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		d, loadErr := load(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if d == nil {
			c.client.Set(ctx, c.key(id), nullMarker, c.nullCacheTTL)
			return nil, nil
		}
		if setErr := c.Put(ctx, d); setErr != nil {
			c.logger.Warn("Failed to set cache in GetOrLoad", logging.String(logging.KeyDocID, id), logging.Err(setErr))
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrCacheMiss
	}
	return v.(*dto.Document), nil
}

//Personal.AI order the ending

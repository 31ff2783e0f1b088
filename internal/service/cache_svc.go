package service

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/pkg/hash"
)

// DefaultMetadataCacheTTL is used when no TTL is configured.
const DefaultMetadataCacheTTL = 24 * time.Hour

// CacheService provides a Redis cache-aside layer for fetched page metadata.
type CacheService struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string, ttl time.Duration, logger zerolog.Logger) *CacheService {
	if ttl <= 0 {
		ttl = DefaultMetadataCacheTTL
	}

	if redisURL == "" {
		logger.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{ttl: ttl}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{ttl: ttl}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{ttl: ttl}
	}

	logger.Info().Dur("ttl", ttl).Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb, ttl: ttl}
}

// NewCacheServiceWithClient wraps an existing client.
func NewCacheServiceWithClient(rdb *redis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = DefaultMetadataCacheTTL
	}
	return &CacheService{rdb: rdb, ttl: ttl}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetMetadata returns cached metadata for pageURL, or nil if not cached or
// the cache is disabled.
func (c *CacheService) GetMetadata(ctx context.Context, pageURL string) (*model.PageMetadata, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, metadataKey(pageURL)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var m model.PageMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		// unreadable entry, treat as a miss so it gets overwritten
		return nil, nil
	}
	return &m, nil
}

// SetMetadata stores metadata for pageURL.
func (c *CacheService) SetMetadata(ctx context.Context, pageURL string, m model.PageMetadata) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, metadataKey(pageURL), b, c.ttl).Err()
}

// InvalidateMetadata removes a cached entry.
func (c *CacheService) InvalidateMetadata(ctx context.Context, pageURL string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, metadataKey(pageURL)).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func metadataKey(pageURL string) string {
	return "metadata:" + hash.URLKey(pageURL)
}

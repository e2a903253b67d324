package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"noslimites/api/internal/model"
)

const (
	// CatalogCacheKey holds the serialized category tree
	CatalogCacheKey = "catalog:tree"

	// CatalogCacheTTL is the TTL for the cached tree. The catalog is static
	// reference data, so a long TTL is safe; the key is dropped on reseed.
	CatalogCacheTTL = 24 * time.Hour
)

// CatalogCache caches the static limit catalog tree. The catalog contains no
// user data, so caching it cannot interact with the choice privacy rules.
type CatalogCache interface {
	// GetTree returns the cached tree, or found=false on a miss.
	GetTree(ctx context.Context) (tree []model.LimitCategory, found bool, err error)

	// SetTree stores the tree with a TTL.
	SetTree(ctx context.Context, tree []model.LimitCategory) error

	// Invalidate drops the cached tree (after reseeding or reconciliation).
	Invalidate(ctx context.Context) error
}

// RedisCatalogCache implements CatalogCache using a single Redis string key.
type RedisCatalogCache struct {
	client *redis.Client
}

// NewCatalogCache creates a new CatalogCache backed by Redis.
func NewCatalogCache(client *redis.Client) CatalogCache {
	return &RedisCatalogCache{client: client}
}

func (c *RedisCatalogCache) GetTree(ctx context.Context) ([]model.LimitCategory, bool, error) {
	data, err := c.client.Get(ctx, CatalogCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get catalog cache: %w", err)
	}

	var tree []model.LimitCategory
	if err := json.Unmarshal(data, &tree); err != nil {
		// Corrupted entry: treat as a miss, the caller will repopulate
		log.Printf("[CatalogCache] GetTree unmarshal error, treating as miss: %v", err)
		return nil, false, nil
	}

	return tree, true, nil
}

func (c *RedisCatalogCache) SetTree(ctx context.Context, tree []model.LimitCategory) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal catalog tree: %w", err)
	}

	if err := c.client.Set(ctx, CatalogCacheKey, data, CatalogCacheTTL).Err(); err != nil {
		return fmt.Errorf("set catalog cache: %w", err)
	}
	return nil
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, CatalogCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chefbridge/store"
)

// cacheTTL bounds staleness when menu or table edits bypass this
// process (e.g. direct DB updates by an admin tool).
const cacheTTL = 5 * time.Minute

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func menuKey(tenantID string) string {
	return fmt.Sprintf("chefbridge:tenant:%s:menu", tenantID)
}

func tablesKey(tenantID string) string {
	return fmt.Sprintf("chefbridge:tenant:%s:tables", tenantID)
}

func (r *RedisCache) SetMenu(ctx context.Context, tenantID string, items []*store.MenuItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, menuKey(tenantID), data, cacheTTL).Err()
}

func (r *RedisCache) GetMenu(ctx context.Context, tenantID string) ([]*store.MenuItem, error) {
	data, err := r.client.Get(ctx, menuKey(tenantID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []*store.MenuItem
	return items, json.Unmarshal(data, &items)
}

func (r *RedisCache) SetTables(ctx context.Context, tenantID string, tables []*store.Table) error {
	data, err := json.Marshal(tables)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, tablesKey(tenantID), data, cacheTTL).Err()
}

func (r *RedisCache) GetTables(ctx context.Context, tenantID string) ([]*store.Table, error) {
	data, err := r.client.Get(ctx, tablesKey(tenantID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tables []*store.Table
	return tables, json.Unmarshal(data, &tables)
}

func (r *RedisCache) Invalidate(ctx context.Context, tenantID string) error {
	return r.client.Del(ctx, menuKey(tenantID), tablesKey(tenantID)).Err()
}

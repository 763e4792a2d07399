package catalog

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	"chefbridge/store"
)

// Manager serves per-tenant menu and table lookups, reading through a
// Redis cache when one is configured. The cache is an optimization:
// every path falls back to SQL, and a nil cache disables it entirely.
type Manager struct {
	db    *store.DB
	cache *RedisCache
}

func NewManager(db *store.DB, cache *RedisCache) *Manager {
	return &Manager{db: db, cache: cache}
}

// Tables returns a tenant's tables in insertion order.
func (m *Manager) Tables(ctx context.Context, tenantID string) ([]*store.Table, error) {
	if m.cache != nil {
		tables, err := m.cache.GetTables(ctx, tenantID)
		if err != nil {
			log.Printf("catalog: tables cache read for %s: %v", tenantID, err)
		} else if tables != nil {
			return tables, nil
		}
	}

	tables, err := m.db.ListTables(tenantID)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		if err := m.cache.SetTables(ctx, tenantID, tables); err != nil {
			log.Printf("catalog: tables cache write for %s: %v", tenantID, err)
		}
	}
	return tables, nil
}

// MenuItemByID looks up a single menu item. Returns nil (no error)
// when the id is unknown to the tenant.
func (m *Manager) MenuItemByID(ctx context.Context, tenantID, id string) (*store.MenuItem, error) {
	if m.cache != nil {
		items, err := m.cache.GetMenu(ctx, tenantID)
		if err != nil {
			log.Printf("catalog: menu cache read for %s: %v", tenantID, err)
		} else if items != nil {
			for _, item := range items {
				if item.ID == id {
					return item, nil
				}
			}
			return nil, nil
		}
	}

	item, err := m.db.GetMenuItem(tenantID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// SearchMenuByName matches item names case-insensitively on a
// contained substring, in insertion order.
func (m *Manager) SearchMenuByName(ctx context.Context, tenantID, term string) ([]*store.MenuItem, error) {
	if m.cache != nil {
		items, err := m.cache.GetMenu(ctx, tenantID)
		if err != nil {
			log.Printf("catalog: menu cache read for %s: %v", tenantID, err)
		} else if items != nil {
			needle := strings.ToLower(term)
			var matched []*store.MenuItem
			for _, item := range items {
				if strings.Contains(strings.ToLower(item.Name), needle) {
					matched = append(matched, item)
				}
			}
			return matched, nil
		}
	}

	return m.db.SearchMenuItems(tenantID, term)
}

// Menu returns a tenant's full menu, warming the cache on a miss.
func (m *Manager) Menu(ctx context.Context, tenantID string) ([]*store.MenuItem, error) {
	if m.cache != nil {
		items, err := m.cache.GetMenu(ctx, tenantID)
		if err != nil {
			log.Printf("catalog: menu cache read for %s: %v", tenantID, err)
		} else if items != nil {
			return items, nil
		}
	}

	items, err := m.db.ListMenuItems(tenantID)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		if err := m.cache.SetMenu(ctx, tenantID, items); err != nil {
			log.Printf("catalog: menu cache write for %s: %v", tenantID, err)
		}
	}
	return items, nil
}

// Invalidate drops a tenant's cached catalog after menu or table edits.
func (m *Manager) Invalidate(ctx context.Context, tenantID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, tenantID); err != nil {
		log.Printf("catalog: invalidate %s: %v", tenantID, err)
	}
}

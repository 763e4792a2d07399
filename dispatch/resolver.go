package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"chefbridge/store"
)

var (
	// ErrNoTables means the tenant has no tables at all; nothing can
	// be resolved against an empty floor plan.
	ErrNoTables = errors.New("tenant has no tables")

	// ErrNoValidItems means every requested item failed to resolve.
	// Orders in this state never reach the kitchen service.
	ErrNoValidItems = errors.New("no requested items could be resolved")
)

// ItemRequest is a guest-supplied line item before resolution. Either
// ItemID or Name may be approximate; resolution maps both onto the
// tenant's canonical menu.
type ItemRequest struct {
	ItemID              string   `json:"itemId"`
	Name                string   `json:"name"`
	Quantity            int      `json:"quantity"`
	Modifications       []string `json:"modifications,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`
}

// ResolvedItem pairs a request with the canonical menu item it
// resolved to.
type ResolvedItem struct {
	Item                *store.MenuItem
	Quantity            int
	Modifications       []string
	SpecialInstructions string
}

// Catalog is the menu/table lookup surface the resolver needs.
type Catalog interface {
	Tables(ctx context.Context, tenantID string) ([]*store.Table, error)
	MenuItemByID(ctx context.Context, tenantID, id string) (*store.MenuItem, error)
	SearchMenuByName(ctx context.Context, tenantID, term string) ([]*store.MenuItem, error)
}

// ResolveTable maps a guest-supplied table reference onto one of the
// tenant's tables. Matching is attempted in order: exact ID, numeric
// suffix (a reference like "T1" or "table-1" matches the first table
// whose ID ends in "-1"), then the tenant's first table. Resolution
// only fails when the tenant has no tables.
func ResolveTable(ref string, tables []*store.Table) (*store.Table, error) {
	if len(tables) == 0 {
		return nil, ErrNoTables
	}

	for _, t := range tables {
		if t.ID == ref {
			return t, nil
		}
	}

	if n := trailingNumber(ref); n != "" {
		suffix := "-" + n
		for _, t := range tables {
			if strings.HasSuffix(t.ID, suffix) {
				return t, nil
			}
		}
	}

	log.Printf("dispatch: table ref %q did not resolve, falling back to %q", ref, tables[0].ID)
	return tables[0], nil
}

// trailingNumber extracts the trailing digit run from a reference,
// e.g. "T12" -> "12", "table-3" -> "3", "main" -> "".
func trailingNumber(ref string) string {
	end := len(ref)
	start := end
	for start > 0 && ref[start-1] >= '0' && ref[start-1] <= '9' {
		start--
	}
	return ref[start:end]
}

// ResolveItems maps guest-supplied line items onto the tenant's menu.
// Each item resolves by ID first, then by name search; items that
// resolve neither way are dropped with a warning. The order fails
// only when nothing resolves.
func ResolveItems(ctx context.Context, catalog Catalog, tenantID string, reqs []ItemRequest) ([]ResolvedItem, error) {
	var resolved []ResolvedItem
	for _, req := range reqs {
		item, err := resolveOne(ctx, catalog, tenantID, req)
		if err != nil {
			return nil, err
		}
		if item == nil {
			log.Printf("dispatch: dropping unresolved item id=%q name=%q for tenant %s", req.ItemID, req.Name, tenantID)
			continue
		}
		qty := req.Quantity
		if qty <= 0 {
			qty = 1
		}
		resolved = append(resolved, ResolvedItem{
			Item:                item,
			Quantity:            qty,
			Modifications:       req.Modifications,
			SpecialInstructions: req.SpecialInstructions,
		})
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: %d requested", ErrNoValidItems, len(reqs))
	}
	return resolved, nil
}

func resolveOne(ctx context.Context, catalog Catalog, tenantID string, req ItemRequest) (*store.MenuItem, error) {
	if req.ItemID != "" {
		item, err := catalog.MenuItemByID(ctx, tenantID, req.ItemID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
	}

	term := req.Name
	if term == "" {
		term = req.ItemID
	}
	if term == "" {
		return nil, nil
	}
	matches, err := catalog.SearchMenuByName(ctx, tenantID, term)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

package store

import (
	"database/sql"
	"strings"
	"time"
)

type MenuItem struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Price        float64   `json:"price"`
	IsVegetarian bool      `json:"is_vegetarian"`
	IsVegan      bool      `json:"is_vegan"`
	IsAvailable  bool      `json:"is_available"`
	CreatedAt    time.Time `json:"created_at"`
}

const menuItemSelectCols = `id, tenant_id, name, description, category, price, is_vegetarian, is_vegan, is_available, created_at`

func (db *DB) CreateMenuItem(m *MenuItem) error {
	_, err := db.Exec(db.Q(`INSERT INTO menu_items (id, tenant_id, name, description, category, price, is_vegetarian, is_vegan, is_available) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.TenantID, m.Name, m.Description, m.Category, m.Price, m.IsVegetarian, m.IsVegan, m.IsAvailable)
	return err
}

func (db *DB) GetMenuItem(tenantID, id string) (*MenuItem, error) {
	row := db.QueryRow(db.Q(`SELECT `+menuItemSelectCols+` FROM menu_items WHERE tenant_id=? AND id=?`), tenantID, id)
	return scanMenuItem(row)
}

// SearchMenuItems matches names case-insensitively on a contained
// substring, in insertion order.
func (db *DB) SearchMenuItems(tenantID, term string) ([]*MenuItem, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	rows, err := db.Query(db.Q(`SELECT `+menuItemSelectCols+` FROM menu_items WHERE tenant_id=? AND LOWER(name) LIKE ? ORDER BY created_at, id`), tenantID, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenuItems(rows)
}

func (db *DB) ListMenuItems(tenantID string) ([]*MenuItem, error) {
	rows, err := db.Query(db.Q(`SELECT `+menuItemSelectCols+` FROM menu_items WHERE tenant_id=? ORDER BY created_at, id`), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenuItems(rows)
}

func (db *DB) SetMenuItemAvailability(tenantID, id string, available bool) error {
	_, err := db.Exec(db.Q(`UPDATE menu_items SET is_available=? WHERE tenant_id=? AND id=?`),
		available, tenantID, id)
	return err
}

func scanMenuItem(row interface{ Scan(...any) error }) (*MenuItem, error) {
	var m MenuItem
	var createdAt any
	err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.Description, &m.Category,
		&m.Price, &m.IsVegetarian, &m.IsVegan, &m.IsAvailable, &createdAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

func scanMenuItems(rows *sql.Rows) ([]*MenuItem, error) {
	var items []*MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

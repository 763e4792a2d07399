package store

import (
	"time"
)

type Table struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Capacity  int       `json:"capacity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (db *DB) CreateTable(t *Table) error {
	if t.Status == "" {
		t.Status = "available"
	}
	_, err := db.Exec(db.Q(`INSERT INTO dining_tables (id, tenant_id, capacity, status) VALUES (?, ?, ?, ?)`),
		t.ID, t.TenantID, t.Capacity, t.Status)
	return err
}

func (db *DB) GetTable(tenantID, id string) (*Table, error) {
	row := db.QueryRow(db.Q(`SELECT id, tenant_id, capacity, status, created_at FROM dining_tables WHERE tenant_id=? AND id=?`), tenantID, id)
	return scanTable(row)
}

// ListTables returns a tenant's tables in insertion order. The fuzzy
// table resolver depends on this ordering being stable.
func (db *DB) ListTables(tenantID string) ([]*Table, error) {
	rows, err := db.Query(db.Q(`SELECT id, tenant_id, capacity, status, created_at FROM dining_tables WHERE tenant_id=? ORDER BY created_at, id`), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tables []*Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (db *DB) UpdateTableStatus(tenantID, id, status string) error {
	_, err := db.Exec(db.Q(`UPDATE dining_tables SET status=? WHERE tenant_id=? AND id=?`),
		status, tenantID, id)
	return err
}

func scanTable(row interface{ Scan(...any) error }) (*Table, error) {
	var t Table
	var createdAt any
	if err := row.Scan(&t.ID, &t.TenantID, &t.Capacity, &t.Status, &createdAt); err != nil {
		return nil, err
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

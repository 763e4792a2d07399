package store

import (
	"time"
)

type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	CreatedAt time.Time `json:"created_at"`
}

func (db *DB) CreateTenant(t *Tenant) error {
	_, err := db.Exec(db.Q(`INSERT INTO tenants (id, name, subdomain) VALUES (?, ?, ?)`),
		t.ID, t.Name, t.Subdomain)
	return err
}

func (db *DB) GetTenant(id string) (*Tenant, error) {
	row := db.QueryRow(db.Q(`SELECT id, name, subdomain, created_at FROM tenants WHERE id=?`), id)
	return scanTenant(row)
}

func (db *DB) GetTenantBySubdomain(subdomain string) (*Tenant, error) {
	row := db.QueryRow(db.Q(`SELECT id, name, subdomain, created_at FROM tenants WHERE subdomain=?`), subdomain)
	return scanTenant(row)
}

func (db *DB) ListTenants() ([]*Tenant, error) {
	rows, err := db.Query(db.Q(`SELECT id, name, subdomain, created_at FROM tenants ORDER BY id`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tenants []*Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func scanTenant(row interface{ Scan(...any) error }) (*Tenant, error) {
	var t Tenant
	var createdAt any
	if err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &createdAt); err != nil {
		return nil, err
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

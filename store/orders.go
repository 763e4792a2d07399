package store

import (
	"database/sql"
	"fmt"
	"time"
)

type Order struct {
	ID                 int64      `json:"id"`
	TenantID           string     `json:"tenant_id"`
	TableID            string     `json:"table_id"`
	ChefOrderID        string     `json:"chef_order_id"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	ETAMinutes         *int       `json:"eta_minutes,omitempty"`
	Total              float64    `json:"total"`
	Items              string     `json:"items"`
	MissingIngredients string     `json:"missing_ingredients"`
	ErrorDetail        string     `json:"error_detail"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type OrderHistory struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

const orderSelectCols = `id, tenant_id, table_id, chef_order_id, status, priority, eta_minutes, total, items, missing_ingredients, error_detail, created_at, updated_at, completed_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var eta sql.NullInt64
	var createdAt, updatedAt, completedAt any

	err := row.Scan(&o.ID, &o.TenantID, &o.TableID, &o.ChefOrderID, &o.Status,
		&o.Priority, &eta, &o.Total, &o.Items, &o.MissingIngredients,
		&o.ErrorDetail, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if eta.Valid {
		m := int(eta.Int64)
		o.ETAMinutes = &m
	}
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	o.CompletedAt = parseTimePtr(completedAt)
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (db *DB) CreateOrder(o *Order) error {
	if o.Items == "" {
		o.Items = "[]"
	}
	if o.MissingIngredients == "" {
		o.MissingIngredients = "[]"
	}
	if o.Priority == "" {
		o.Priority = "normal"
	}

	if db.driver == "postgres" {
		err := db.QueryRow(db.Q(`INSERT INTO orders (tenant_id, table_id, chef_order_id, status, priority, total, items) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			o.TenantID, o.TableID, o.ChefOrderID, o.Status, o.Priority, o.Total, o.Items).Scan(&o.ID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	}

	result, err := db.Exec(db.Q(`INSERT INTO orders (tenant_id, table_id, chef_order_id, status, priority, total, items) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		o.TenantID, o.TableID, o.ChefOrderID, o.Status, o.Priority, o.Total, o.Items)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create order last id: %w", err)
	}
	o.ID = id
	return nil
}

func (db *DB) UpdateOrderStatus(id int64, status, detail string) error {
	_, err := db.Exec(db.Q(`UPDATE orders SET status=?, error_detail=?, updated_at=datetime('now','localtime') WHERE id=?`),
		status, detail, id)
	if err != nil {
		return err
	}
	_, err = db.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, ?)`),
		id, status, detail)
	return err
}

// UpdateOrderChef records the remote identity and state the kitchen
// service assigned after a successful dispatch.
func (db *DB) UpdateOrderChef(id int64, chefOrderID, status string, etaMinutes *int) error {
	var eta any
	if etaMinutes != nil {
		eta = *etaMinutes
	}
	_, err := db.Exec(db.Q(`UPDATE orders SET chef_order_id=?, status=?, eta_minutes=?, updated_at=datetime('now','localtime') WHERE id=?`),
		chefOrderID, status, eta, id)
	if err != nil {
		return err
	}
	_, err = db.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, '')`),
		id, status)
	return err
}

func (db *DB) UpdateOrderMissingIngredients(id int64, missingJSON string) error {
	_, err := db.Exec(db.Q(`UPDATE orders SET missing_ingredients=?, updated_at=datetime('now','localtime') WHERE id=?`),
		missingJSON, id)
	return err
}

// CompleteOrder closes an order in a terminal status. The detail (a
// cancellation reason, a rejection message) lands in both the order
// row and its single history entry.
func (db *DB) CompleteOrder(id int64, status, detail string) error {
	_, err := db.Exec(db.Q(`UPDATE orders SET status=?, error_detail=?, completed_at=datetime('now','localtime'), updated_at=datetime('now','localtime') WHERE id=?`),
		status, detail, id)
	if err != nil {
		return err
	}
	_, err = db.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, ?)`),
		id, status, detail)
	return err
}

func (db *DB) GetOrder(tenantID string, id int64) (*Order, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE tenant_id=? AND id=?`, orderSelectCols)), tenantID, id)
	return scanOrder(row)
}

func (db *DB) GetOrderByChefID(tenantID, chefOrderID string) (*Order, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE tenant_id=? AND chef_order_id=? ORDER BY id DESC LIMIT 1`, orderSelectCols)), tenantID, chefOrderID)
	return scanOrder(row)
}

func (db *DB) ListOrders(tenantID, status string, limit int) ([]*Order, error) {
	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE tenant_id=? AND status=? ORDER BY id DESC LIMIT ?`, orderSelectCols)), tenantID, status, limit)
	} else {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE tenant_id=? ORDER BY id DESC LIMIT ?`, orderSelectCols)), tenantID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (db *DB) ListActiveOrders(tenantID string) ([]*Order, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE tenant_id=? AND status NOT IN ('paid', 'cancelled') ORDER BY id DESC`, orderSelectCols)), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (db *DB) ListOrderHistory(orderID int64) ([]*OrderHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, order_id, status, detail, created_at FROM order_history WHERE order_id=? ORDER BY id`), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []*OrderHistory
	for rows.Next() {
		var h OrderHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		history = append(history, &h)
	}
	return history, rows.Err()
}

package messaging

import "time"

// Envelope wraps every message published to the order events topic.
type Envelope struct {
	MsgType   string    `json:"msg_type"`
	MsgID     string    `json:"msg_id"`
	TenantID  string    `json:"tenant_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Message types on the order events topic.
const (
	MsgOrderPlaced        = "order_placed"
	MsgOrderStatusChanged = "order_status_changed"
	MsgOrderRejected      = "order_rejected"
	MsgOrderCancelled     = "order_cancelled"
)

// OrderPlaced announces that an order was accepted by the kitchen
// service.
type OrderPlaced struct {
	OrderID     int64   `json:"order_id"`
	ChefOrderID string  `json:"chef_order_id"`
	TableID     string  `json:"table_id"`
	Total       float64 `json:"total"`
}

// OrderStatusChanged announces a local lifecycle transition.
type OrderStatusChanged struct {
	OrderID   int64  `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderRejected announces a kitchen-side rejection for missing
// ingredients.
type OrderRejected struct {
	OrderID            int64    `json:"order_id"`
	MissingIngredients []string `json:"missing_ingredients"`
}

// OrderCancelled announces a cancellation, guest- or kitchen-initiated.
type OrderCancelled struct {
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

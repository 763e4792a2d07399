package chef

import (
	"encoding/json"
	"fmt"
	"time"
)

// OrderStatus represents the chef-side order lifecycle.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusServed    OrderStatus = "SERVED"
	StatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == StatusServed || s == StatusCancelled
}

// ParseOrderStatus rejects anything outside the known lifecycle. A
// silently accepted unknown status would corrupt the local mirror.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusServed, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status: %q", s)
}

// UnmarshalJSON makes every decode of OrderStatus strict.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Priority of an order as understood by the chef service.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// OrderItem is a single menu item within an order. ItemID is the
// canonical menu identifier; ItemName is kept as a fallback lookup key.
type OrderItem struct {
	ItemID              string   `json:"itemId"`
	ItemName            string   `json:"itemName"`
	Quantity            int      `json:"quantity"`
	Modifications       []string `json:"modifications,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`
}

// Order is the value submitted to the chef service. It is immutable
// once constructed; retries resend the identical value.
type Order struct {
	OrderID   string      `json:"orderId"`
	TableID   string      `json:"tableId"`
	Items     []OrderItem `json:"items"`
	Timestamp time.Time   `json:"timestamp"`
	Priority  Priority    `json:"priority"`
}

// Validate checks the invariants the chef service will enforce anyway,
// so bad orders fail before a network round trip.
func (o *Order) Validate() error {
	if o.OrderID == "" {
		return fmt.Errorf("order missing orderId")
	}
	if o.TableID == "" {
		return fmt.Errorf("order missing tableId")
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("order has no items")
	}
	for i, item := range o.Items {
		if item.ItemID == "" && item.ItemName == "" {
			return fmt.Errorf("item %d has neither id nor name", i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %q has non-positive quantity %d", item.ItemID, item.Quantity)
		}
	}
	return nil
}

// OrderStatusResponse is the chef service's view of an order.
type OrderStatusResponse struct {
	OrderID            string      `json:"orderId"`
	Status             OrderStatus `json:"status"`
	ETA                *int        `json:"eta,omitempty"` // minutes, non-terminal statuses only
	Message            string      `json:"message,omitempty"`
	CompletedItems     []string    `json:"completedItems,omitempty"`
	MissingIngredients []string    `json:"missingIngredients,omitempty"`
}

// IsSoftRejection reports whether the response is a structurally
// successful exchange whose business content declines the order
// (cancelled for missing ingredients). Callers must treat this as a
// normal result, not a transport failure.
func (r *OrderStatusResponse) IsSoftRejection() bool {
	return r.Status == StatusCancelled && len(r.MissingIngredients) > 0
}

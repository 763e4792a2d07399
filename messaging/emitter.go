package messaging

import (
	"log"

	"chefbridge/store"
)

// EventEmitter bridges dispatch events onto the order events topic
// via the outbox, so emission never blocks or fails an order
// operation.
type EventEmitter struct {
	db    *store.DB
	topic string
}

func NewEventEmitter(db *store.DB, topic string) *EventEmitter {
	return &EventEmitter{db: db, topic: topic}
}

func (e *EventEmitter) enqueue(msgType, tenantID string, payload any) {
	env := NewEnvelope(msgType, tenantID, payload)
	data, err := env.Encode()
	if err != nil {
		log.Printf("messaging: encode %s event: %v", msgType, err)
		return
	}
	if err := e.db.EnqueueOutbox(e.topic, data, msgType, tenantID); err != nil {
		log.Printf("messaging: enqueue %s event: %v", msgType, err)
	}
}

func (e *EventEmitter) EmitOrderPlaced(orderID int64, chefOrderID, tenantID, tableID string, total float64) {
	e.enqueue(MsgOrderPlaced, tenantID, OrderPlaced{
		OrderID:     orderID,
		ChefOrderID: chefOrderID,
		TableID:     tableID,
		Total:       total,
	})
}

func (e *EventEmitter) EmitOrderStatusChanged(orderID int64, tenantID, oldStatus, newStatus string) {
	e.enqueue(MsgOrderStatusChanged, tenantID, OrderStatusChanged{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
}

func (e *EventEmitter) EmitOrderRejected(orderID int64, tenantID string, missing []string) {
	e.enqueue(MsgOrderRejected, tenantID, OrderRejected{
		OrderID:            orderID,
		MissingIngredients: missing,
	})
}

func (e *EventEmitter) EmitOrderCancelled(orderID int64, tenantID, reason string) {
	e.enqueue(MsgOrderCancelled, tenantID, OrderCancelled{
		OrderID: orderID,
		Reason:  reason,
	})
}

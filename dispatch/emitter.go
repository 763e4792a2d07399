package dispatch

// Emitter is the interface adapters must satisfy to bridge order
// events to the messaging layer.
type Emitter interface {
	EmitOrderPlaced(orderID int64, chefOrderID, tenantID, tableID string, total float64)
	EmitOrderStatusChanged(orderID int64, tenantID, oldStatus, newStatus string)
	EmitOrderRejected(orderID int64, tenantID string, missing []string)
	EmitOrderCancelled(orderID int64, tenantID, reason string)
}

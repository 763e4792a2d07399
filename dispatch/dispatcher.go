package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"chefbridge/chef"
	"chefbridge/store"
)

// ErrInvalidTransition marks a guest-driven status change the local
// lifecycle does not allow, such as cancelling a paid order.
var ErrInvalidTransition = errors.New("invalid order transition")

// Kitchen is the fulfillment surface the dispatcher drives. Satisfied
// by *chef.Client.
type Kitchen interface {
	PlaceOrder(ctx context.Context, tenantID string, order *chef.Order) (*chef.OrderStatusResponse, error)
	GetOrderStatus(ctx context.Context, tenantID, orderID string) (*chef.OrderStatusResponse, error)
	CancelOrder(ctx context.Context, tenantID, orderID string) error
}

type Dispatcher struct {
	db      *store.DB
	kitchen Kitchen
	catalog Catalog
	emitter Emitter
}

func NewDispatcher(db *store.DB, kitchen Kitchen, catalog Catalog, emitter Emitter) *Dispatcher {
	return &Dispatcher{
		db:      db,
		kitchen: kitchen,
		catalog: catalog,
		emitter: emitter,
	}
}

// OrderRequest is a guest-facing order before resolution.
type OrderRequest struct {
	TableRef string        `json:"tableRef"`
	Items    []ItemRequest `json:"items"`
	Priority chef.Priority `json:"priority,omitempty"`
}

// PlaceResult is the dispatcher's view of a placed order. Rejected is
// set when the kitchen declined the order for missing ingredients;
// that outcome is a value, not an error.
type PlaceResult struct {
	Order              *store.Order `json:"order"`
	Rejected           bool         `json:"rejected"`
	MissingIngredients []string     `json:"missingIngredients,omitempty"`
	ETAMinutes         *int         `json:"etaMinutes,omitempty"`
	Message            string       `json:"message,omitempty"`
}

// PlaceOrder resolves a guest request against the tenant's catalog,
// persists it, and submits it to the kitchen service. Resolution
// failures abort before any remote call. A transport failure leaves
// the local order pending with the failure recorded, so a later retry
// or reconciliation can pick it up.
func (d *Dispatcher) PlaceOrder(ctx context.Context, tenantID string, req *OrderRequest) (*PlaceResult, error) {
	tables, err := d.catalog.Tables(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	table, err := ResolveTable(req.TableRef, tables)
	if err != nil {
		return nil, err
	}

	resolved, err := ResolveItems(ctx, d.catalog, tenantID, req.Items)
	if err != nil {
		return nil, err
	}

	var total float64
	chefItems := make([]chef.OrderItem, len(resolved))
	for i, r := range resolved {
		total += r.Item.Price * float64(r.Quantity)
		chefItems[i] = chef.OrderItem{
			ItemID:              r.Item.ID,
			ItemName:            r.Item.Name,
			Quantity:            r.Quantity,
			Modifications:       r.Modifications,
			SpecialInstructions: r.SpecialInstructions,
		}
	}

	itemsJSON, err := json.Marshal(chefItems)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	order := &store.Order{
		TenantID: tenantID,
		TableID:  table.ID,
		Status:   StatusPending,
		Priority: string(priorityOrDefault(req.Priority)),
		Total:    total,
		Items:    string(itemsJSON),
	}
	if err := d.db.CreateOrder(order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	chefOrderID := uuid.New().String()
	chefOrder := &chef.Order{
		OrderID:   chefOrderID,
		TableID:   table.ID,
		Items:     chefItems,
		Timestamp: time.Now(),
		Priority:  priorityOrDefault(req.Priority),
	}

	resp, err := d.kitchen.PlaceOrder(ctx, tenantID, chefOrder)
	if err != nil {
		log.Printf("dispatch: place order %d with kitchen: %v", order.ID, err)
		if dbErr := d.db.UpdateOrderStatus(order.ID, StatusPending, err.Error()); dbErr != nil {
			log.Printf("dispatch: record failure on order %d: %v", order.ID, dbErr)
		}
		return nil, fmt.Errorf("place order with kitchen: %w", err)
	}

	if resp.IsSoftRejection() {
		missingJSON, _ := json.Marshal(resp.MissingIngredients)
		if err := d.db.UpdateOrderMissingIngredients(order.ID, string(missingJSON)); err != nil {
			return nil, fmt.Errorf("record missing ingredients on order %d: %w", order.ID, err)
		}
		if err := d.db.CompleteOrder(order.ID, StatusCancelled, resp.Message); err != nil {
			return nil, fmt.Errorf("record rejection on order %d: %w", order.ID, err)
		}
		d.emitter.EmitOrderRejected(order.ID, tenantID, resp.MissingIngredients)

		order, err = d.db.GetOrder(tenantID, order.ID)
		if err != nil {
			return nil, err
		}
		return &PlaceResult{
			Order:              order,
			Rejected:           true,
			MissingIngredients: resp.MissingIngredients,
			Message:            resp.Message,
		}, nil
	}

	status := localStatus(resp.Status)
	if err := d.db.UpdateOrderChef(order.ID, chefOrderID, status, resp.ETA); err != nil {
		return nil, fmt.Errorf("record kitchen response on order %d: %w", order.ID, err)
	}
	d.emitter.EmitOrderPlaced(order.ID, chefOrderID, tenantID, table.ID, total)

	order, err = d.db.GetOrder(tenantID, order.ID)
	if err != nil {
		return nil, err
	}
	return &PlaceResult{
		Order:      order,
		ETAMinutes: resp.ETA,
		Message:    resp.Message,
	}, nil
}

// OrderStatus returns the current view of an order, refreshing the
// local mirror from the kitchen service when the order is still in
// flight there. Terminal and never-dispatched orders are answered
// locally.
func (d *Dispatcher) OrderStatus(ctx context.Context, tenantID string, orderID int64) (*store.Order, error) {
	order, err := d.db.GetOrder(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.ChefOrderID == "" || IsTerminalStatus(order.Status) {
		return order, nil
	}

	resp, err := d.kitchen.GetOrderStatus(ctx, tenantID, order.ChefOrderID)
	if err != nil {
		// Stale local state beats no answer.
		log.Printf("dispatch: refresh order %d from kitchen: %v", orderID, err)
		return order, nil
	}

	status := localStatus(resp.Status)
	switch {
	case status == StatusCancelled:
		err = d.db.CompleteOrder(order.ID, StatusCancelled, "")
	case statusRank(status) > statusRank(order.Status):
		if resp.ETA != nil {
			err = d.db.UpdateOrderChef(order.ID, order.ChefOrderID, status, resp.ETA)
		} else {
			err = d.db.UpdateOrderStatus(order.ID, status, "")
		}
	default:
		return order, nil
	}
	if err != nil {
		return nil, err
	}
	d.emitter.EmitOrderStatusChanged(order.ID, tenantID, order.Status, status)
	return d.db.GetOrder(tenantID, orderID)
}

// MarkServed records that an order reached the table. Front-of-house
// transition; the kitchen service is not involved.
func (d *Dispatcher) MarkServed(ctx context.Context, tenantID string, orderID int64) (*store.Order, error) {
	return d.advance(ctx, tenantID, orderID, StatusServed)
}

// MarkPaid settles an order.
func (d *Dispatcher) MarkPaid(ctx context.Context, tenantID string, orderID int64) (*store.Order, error) {
	order, err := d.db.GetOrder(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, StatusPaid) {
		return nil, fmt.Errorf("order %d cannot move from %s to %s: %w", orderID, order.Status, StatusPaid, ErrInvalidTransition)
	}
	if err := d.db.CompleteOrder(order.ID, StatusPaid, ""); err != nil {
		return nil, err
	}
	d.emitter.EmitOrderStatusChanged(order.ID, tenantID, order.Status, StatusPaid)
	return d.db.GetOrder(tenantID, orderID)
}

func (d *Dispatcher) advance(ctx context.Context, tenantID string, orderID int64, to string) (*store.Order, error) {
	order, err := d.OrderStatus(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, to) {
		return nil, fmt.Errorf("order %d cannot move from %s to %s: %w", orderID, order.Status, to, ErrInvalidTransition)
	}
	if err := d.db.UpdateOrderStatus(order.ID, to, ""); err != nil {
		return nil, err
	}
	d.emitter.EmitOrderStatusChanged(order.ID, tenantID, order.Status, to)
	return d.db.GetOrder(tenantID, orderID)
}

// Cancel cancels an order remotely and locally. Cancelling an
// already-cancelled order succeeds without side effects; the kitchen
// call is skipped for orders that never reached it.
func (d *Dispatcher) Cancel(ctx context.Context, tenantID string, orderID int64, reason string) (*store.Order, error) {
	order, err := d.db.GetOrder(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusCancelled {
		return order, nil
	}
	if IsTerminalStatus(order.Status) {
		return nil, fmt.Errorf("order %d is %s and cannot be cancelled: %w", orderID, order.Status, ErrInvalidTransition)
	}

	if order.ChefOrderID != "" {
		if err := d.kitchen.CancelOrder(ctx, tenantID, order.ChefOrderID); err != nil {
			return nil, fmt.Errorf("cancel order %d with kitchen: %w", orderID, err)
		}
	}

	if err := d.db.CompleteOrder(order.ID, StatusCancelled, reason); err != nil {
		return nil, err
	}
	d.emitter.EmitOrderCancelled(order.ID, tenantID, reason)
	return d.db.GetOrder(tenantID, orderID)
}

func priorityOrDefault(p chef.Priority) chef.Priority {
	if p == "" {
		return chef.PriorityNormal
	}
	return p
}

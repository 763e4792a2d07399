package dispatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"chefbridge/catalog"
	"chefbridge/chef"
	"chefbridge/config"
	"chefbridge/store"
)

// --- Mock emitter ---

type mockEmitter struct {
	placed    []emitPlaced
	changed   []emitChanged
	rejected  []emitRejected
	cancelled []emitCancelled
}

type emitPlaced struct {
	orderID     int64
	chefOrderID string
}
type emitChanged struct {
	orderID  int64
	from, to string
}
type emitRejected struct {
	orderID int64
	missing []string
}
type emitCancelled struct {
	orderID int64
	reason  string
}

func (m *mockEmitter) EmitOrderPlaced(orderID int64, chefOrderID, _, _ string, _ float64) {
	m.placed = append(m.placed, emitPlaced{orderID, chefOrderID})
}
func (m *mockEmitter) EmitOrderStatusChanged(orderID int64, _, from, to string) {
	m.changed = append(m.changed, emitChanged{orderID, from, to})
}
func (m *mockEmitter) EmitOrderRejected(orderID int64, _ string, missing []string) {
	m.rejected = append(m.rejected, emitRejected{orderID, missing})
}
func (m *mockEmitter) EmitOrderCancelled(orderID int64, _, reason string) {
	m.cancelled = append(m.cancelled, emitCancelled{orderID, reason})
}

// --- Mock kitchen ---

type mockKitchen struct {
	placeCalls  int
	statusCalls int
	cancelCalls int

	placeResp  *chef.OrderStatusResponse
	placeErr   error
	statusResp *chef.OrderStatusResponse
	statusErr  error
	cancelErr  error

	// onPlace runs inside PlaceOrder, after the order has been
	// persisted locally but before the response is handled.
	onPlace func()
}

func (m *mockKitchen) PlaceOrder(ctx context.Context, tenantID string, order *chef.Order) (*chef.OrderStatusResponse, error) {
	m.placeCalls++
	if m.onPlace != nil {
		m.onPlace()
	}
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	if m.placeResp != nil {
		return m.placeResp, nil
	}
	return &chef.OrderStatusResponse{OrderID: order.OrderID, Status: chef.StatusConfirmed}, nil
}

func (m *mockKitchen) GetOrderStatus(ctx context.Context, tenantID, orderID string) (*chef.OrderStatusResponse, error) {
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if m.statusResp != nil {
		return m.statusResp, nil
	}
	return &chef.OrderStatusResponse{OrderID: orderID, Status: chef.StatusConfirmed}, nil
}

func (m *mockKitchen) CancelOrder(ctx context.Context, tenantID, orderID string) error {
	m.cancelCalls++
	return m.cancelErr
}

// --- Test helpers ---

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestData(t *testing.T, db *store.DB) {
	t.Helper()
	if err := db.CreateTenant(&store.Tenant{ID: "pista", Name: "Pista House", Subdomain: "pista"}); err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	for _, id := range []string{"pista-table-1", "pista-table-2"} {
		if err := db.CreateTable(&store.Table{ID: id, TenantID: "pista", Capacity: 4}); err != nil {
			t.Fatalf("create table %s: %v", id, err)
		}
	}
	items := []*store.MenuItem{
		{ID: "m-1", TenantID: "pista", Name: "Garlic Naan", Price: 3.50, IsVegetarian: true, IsAvailable: true},
		{ID: "m-2", TenantID: "pista", Name: "Chicken Biryani", Price: 12.00, IsAvailable: true},
	}
	for _, m := range items {
		if err := db.CreateMenuItem(m); err != nil {
			t.Fatalf("create item %s: %v", m.ID, err)
		}
	}
}

func newTestDispatcher(t *testing.T, db *store.DB, kitchen Kitchen) (*Dispatcher, *mockEmitter) {
	t.Helper()
	emitter := &mockEmitter{}
	cat := catalog.NewManager(db, nil)
	return NewDispatcher(db, kitchen, cat, emitter), emitter
}

// --- Tests ---

func TestPlaceOrderHappyPath(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	eta := 25
	kitchen := &mockKitchen{placeResp: &chef.OrderStatusResponse{Status: chef.StatusConfirmed, ETA: &eta}}
	d, emitter := newTestDispatcher(t, db, kitchen)

	result, err := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items: []ItemRequest{
			{ItemID: "m-1", Quantity: 2},
			{ItemID: "m-2", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if result.Rejected {
		t.Fatal("should not be rejected")
	}
	if result.Order.TableID != "pista-table-1" {
		t.Errorf("TableID = %q, want resolved pista-table-1", result.Order.TableID)
	}
	if result.Order.Status != StatusSentToChef {
		t.Errorf("Status = %q, want %q", result.Order.Status, StatusSentToChef)
	}
	if result.Order.Total != 19.00 {
		t.Errorf("Total = %v, want 19.00", result.Order.Total)
	}
	if result.Order.ChefOrderID == "" {
		t.Error("ChefOrderID should be assigned")
	}
	if result.ETAMinutes == nil || *result.ETAMinutes != 25 {
		t.Errorf("ETAMinutes = %v, want 25", result.ETAMinutes)
	}
	if kitchen.placeCalls != 1 {
		t.Errorf("placeCalls = %d, want 1", kitchen.placeCalls)
	}
	if len(emitter.placed) != 1 || emitter.placed[0].orderID != result.Order.ID {
		t.Errorf("placed events = %v", emitter.placed)
	}
}

func TestPlaceOrderNoValidItemsSkipsKitchen(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{}
	d, emitter := newTestDispatcher(t, db, kitchen)

	_, err := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "nope", Name: "Unicorn Steak", Quantity: 1}},
	})
	if !errors.Is(err, ErrNoValidItems) {
		t.Fatalf("err = %v, want ErrNoValidItems", err)
	}
	if kitchen.placeCalls != 0 {
		t.Errorf("placeCalls = %d, want 0 (fail before remote call)", kitchen.placeCalls)
	}
	if len(emitter.placed) != 0 {
		t.Error("no events should be emitted")
	}

	orders, _ := db.ListOrders("pista", "", 10)
	if len(orders) != 0 {
		t.Errorf("no order rows should persist, got %d", len(orders))
	}
}

func TestPlaceOrderSoftRejection(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{placeResp: &chef.OrderStatusResponse{
		Status:             chef.StatusCancelled,
		MissingIngredients: []string{"paneer", "cream"},
		Message:            "out of paneer",
	}}
	d, emitter := newTestDispatcher(t, db, kitchen)

	result, err := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "m-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("soft rejection is not an error: %v", err)
	}
	if !result.Rejected {
		t.Fatal("Rejected should be true")
	}
	if len(result.MissingIngredients) != 2 {
		t.Errorf("MissingIngredients = %v, want 2", result.MissingIngredients)
	}
	if result.Order.Status != StatusCancelled {
		t.Errorf("Status = %q, want %q", result.Order.Status, StatusCancelled)
	}
	if result.Order.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}
	if len(emitter.rejected) != 1 {
		t.Fatalf("rejected events = %d, want 1", len(emitter.rejected))
	}
	if len(emitter.rejected[0].missing) != 2 {
		t.Errorf("event missing = %v", emitter.rejected[0].missing)
	}

	history, err := db.ListOrderHistory(result.Order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Status != StatusCancelled {
		t.Errorf("history = %v, want single cancelled entry", history)
	}
}

func TestPlaceOrderRejectionRecordFailureSurfaces(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{placeResp: &chef.OrderStatusResponse{
		Status:             chef.StatusCancelled,
		MissingIngredients: []string{"paneer"},
	}}
	// Kill the database mid-flight so recording the rejection fails.
	kitchen.onPlace = func() { db.Close() }
	d, emitter := newTestDispatcher(t, db, kitchen)

	result, err := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "m-1", Quantity: 1}},
	})
	if err == nil {
		t.Fatal("a failed rejection write must surface as an error, not a rejected result")
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if len(emitter.rejected) != 0 {
		t.Error("no rejection event should be emitted when the write failed")
	}
}

func TestPlaceOrderTransportFailureKeepsPending(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{placeErr: &chef.UnavailableError{Attempts: 3, Last: fmt.Errorf("connection refused")}}
	d, _ := newTestDispatcher(t, db, kitchen)

	_, err := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "m-1", Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !chef.IsUnavailable(err) {
		t.Errorf("err = %v, want unavailability preserved in chain", err)
	}

	orders, _ := db.ListOrders("pista", "", 10)
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
	if orders[0].Status != StatusPending {
		t.Errorf("Status = %q, want pending retained", orders[0].Status)
	}
	if orders[0].ErrorDetail == "" {
		t.Error("ErrorDetail should record the failure")
	}
}

func TestOrderStatusRefreshesFromKitchen(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{}
	d, emitter := newTestDispatcher(t, db, kitchen)

	result, err := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "m-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	kitchen.statusResp = &chef.OrderStatusResponse{Status: chef.StatusPreparing}
	order, err := d.OrderStatus(context.Background(), "pista", result.Order.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if order.Status != StatusPreparing {
		t.Errorf("Status = %q, want %q", order.Status, StatusPreparing)
	}
	if kitchen.statusCalls != 1 {
		t.Errorf("statusCalls = %d, want 1", kitchen.statusCalls)
	}
	if len(emitter.changed) != 1 || emitter.changed[0].to != StatusPreparing {
		t.Errorf("changed events = %v", emitter.changed)
	}
}

func TestOrderStatusKitchenDownReturnsLocal(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{}
	d, _ := newTestDispatcher(t, db, kitchen)

	result, _ := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "m-1", Quantity: 1}},
	})

	kitchen.statusErr = &chef.UnavailableError{Attempts: 3, Last: fmt.Errorf("connection refused")}
	order, err := d.OrderStatus(context.Background(), "pista", result.Order.ID)
	if err != nil {
		t.Fatalf("stale local state should be returned, not an error: %v", err)
	}
	if order.Status != StatusSentToChef {
		t.Errorf("Status = %q, want last-known %q", order.Status, StatusSentToChef)
	}
}

func TestOrderStatusTerminalSkipsKitchen(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{}
	d, _ := newTestDispatcher(t, db, kitchen)

	result, _ := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "m-1", Quantity: 1}},
	})
	if _, err := d.Cancel(context.Background(), "pista", result.Order.ID, "guest left"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	kitchen.statusCalls = 0
	order, err := d.OrderStatus(context.Background(), "pista", result.Order.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if order.Status != StatusCancelled {
		t.Errorf("Status = %q, want cancelled", order.Status)
	}
	if kitchen.statusCalls != 0 {
		t.Errorf("terminal order should not query kitchen, calls = %d", kitchen.statusCalls)
	}
}

func TestCancelPropagatesToKitchen(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{}
	d, emitter := newTestDispatcher(t, db, kitchen)

	result, _ := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "m-1", Quantity: 1}},
	})

	order, err := d.Cancel(context.Background(), "pista", result.Order.ID, "changed mind")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if order.Status != StatusCancelled {
		t.Errorf("Status = %q, want cancelled", order.Status)
	}
	if kitchen.cancelCalls != 1 {
		t.Errorf("cancelCalls = %d, want 1", kitchen.cancelCalls)
	}
	if len(emitter.cancelled) != 1 || emitter.cancelled[0].reason != "changed mind" {
		t.Errorf("cancelled events = %v", emitter.cancelled)
	}

	// One cancellation, one audit entry, reason included.
	history, err := db.ListOrderHistory(result.Order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var cancelled []*store.OrderHistory
	for _, h := range history {
		if h.Status == StatusCancelled {
			cancelled = append(cancelled, h)
		}
	}
	if len(cancelled) != 1 {
		t.Fatalf("cancelled history entries = %d, want 1", len(cancelled))
	}
	if cancelled[0].Detail != "changed mind" {
		t.Errorf("history detail = %q, want the reason", cancelled[0].Detail)
	}

	// Second cancel is a no-op, not an error.
	order, err = d.Cancel(context.Background(), "pista", result.Order.ID, "again")
	if err != nil {
		t.Fatalf("repeat cancel should be idempotent: %v", err)
	}
	if kitchen.cancelCalls != 1 {
		t.Errorf("repeat cancel should not call kitchen again, calls = %d", kitchen.cancelCalls)
	}
}

func TestCancelNeverDispatchedSkipsKitchen(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{}
	d, _ := newTestDispatcher(t, db, kitchen)

	o := &store.Order{TenantID: "pista", TableID: "pista-table-1", Status: StatusPending}
	if err := db.CreateOrder(o); err != nil {
		t.Fatalf("create: %v", err)
	}

	order, err := d.Cancel(context.Background(), "pista", o.ID, "")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if order.Status != StatusCancelled {
		t.Errorf("Status = %q, want cancelled", order.Status)
	}
	if kitchen.cancelCalls != 0 {
		t.Errorf("never-dispatched order should not call kitchen, calls = %d", kitchen.cancelCalls)
	}
}

func TestCancelPaidOrderFails(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{statusResp: &chef.OrderStatusResponse{Status: chef.StatusServed}}
	d, _ := newTestDispatcher(t, db, kitchen)

	result, _ := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "m-1", Quantity: 1}},
	})
	if _, err := d.OrderStatus(context.Background(), "pista", result.Order.ID); err != nil {
		t.Fatalf("status: %v", err)
	}
	if _, err := d.MarkPaid(context.Background(), "pista", result.Order.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	_, err := d.Cancel(context.Background(), "pista", result.Order.ID, "")
	if err == nil {
		t.Fatal("cancelling a paid order should fail")
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition in chain", err)
	}
}

func TestMarkServedAndPaid(t *testing.T) {
	db := testDB(t)
	setupTestData(t, db)
	kitchen := &mockKitchen{statusResp: &chef.OrderStatusResponse{Status: chef.StatusReady}}
	d, _ := newTestDispatcher(t, db, kitchen)

	result, _ := d.PlaceOrder(context.Background(), "pista", &OrderRequest{
		TableRef: "T1",
		Items:    []ItemRequest{{ItemID: "m-1", Quantity: 1}},
	})

	order, err := d.MarkServed(context.Background(), "pista", result.Order.ID)
	if err != nil {
		t.Fatalf("mark served: %v", err)
	}
	if order.Status != StatusServed {
		t.Errorf("Status = %q, want served", order.Status)
	}

	order, err = d.MarkPaid(context.Background(), "pista", result.Order.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if order.Status != StatusPaid {
		t.Errorf("Status = %q, want paid", order.Status)
	}
	if order.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}

	// Paid is terminal.
	if _, err := d.MarkServed(context.Background(), "pista", result.Order.ID); err == nil {
		t.Error("transition out of paid should fail")
	}
}

package chef

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest(MethodPlaceOrder, orderRef{OrderID: "o-1"})
	if req.Method != MethodPlaceOrder {
		t.Errorf("method = %q, want %q", req.Method, MethodPlaceOrder)
	}
	if req.ID == "" {
		t.Error("id should not be empty")
	}

	req2 := NewRequest(MethodPlaceOrder, orderRef{OrderID: "o-1"})
	if req.ID == req2.ID {
		t.Error("correlation ids should be unique per request")
	}
}

func TestRequestEncode(t *testing.T) {
	req := NewRequest(MethodCancelOrder, orderRef{OrderID: "o-2"})
	data, err := req.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal encoded: %v", err)
	}
	if decoded["method"] != "cancelOrder" {
		t.Errorf("method = %v, want %q", decoded["method"], "cancelOrder")
	}
	params, ok := decoded["params"].(map[string]any)
	if !ok {
		t.Fatalf("params type = %T, want map", decoded["params"])
	}
	if params["orderId"] != "o-2" {
		t.Errorf("orderId = %v, want %q", params["orderId"], "o-2")
	}
}

func TestDecodeResponse_Result(t *testing.T) {
	data := []byte(`{"result": {"orderId": "o-1", "status": "CONFIRMED", "eta": 20}, "id": "corr-1"}`)
	resp, err := DecodeResponse(data, "corr-1")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	status, err := decodeStatusResult(resp.Result)
	if err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.OrderID != "o-1" {
		t.Errorf("orderId = %q, want %q", status.OrderID, "o-1")
	}
	if status.Status != StatusConfirmed {
		t.Errorf("status = %q, want %q", status.Status, StatusConfirmed)
	}
	if status.ETA == nil || *status.ETA != 20 {
		t.Errorf("eta = %v, want 20", status.ETA)
	}
}

func TestDecodeResponse_Error(t *testing.T) {
	data := []byte(`{"error": {"code": 404, "message": "order not found"}, "id": "corr-2"}`)
	_, err := DecodeResponse(data, "corr-2")
	if err == nil {
		t.Fatal("expected protocol error")
	}
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ProtocolError", err)
	}
	if perr.Code != 404 {
		t.Errorf("code = %d, want 404", perr.Code)
	}
	if perr.Message != "order not found" {
		t.Errorf("message = %q, want %q", perr.Message, "order not found")
	}
}

func TestDecodeResponse_CorrelationMismatch(t *testing.T) {
	data := []byte(`{"result": {}, "id": "other"}`)
	_, err := DecodeResponse(data, "corr-3")
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SchemaError", err)
	}
}

func TestDecodeResponse_MissingID(t *testing.T) {
	data := []byte(`{"result": {"orderId": "o-1"}}`)
	_, err := DecodeResponse(data, "corr-4")
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SchemaError", err)
	}
}

func TestDecodeResponse_BothResultAndError(t *testing.T) {
	data := []byte(`{"result": {"orderId": "o-1"}, "error": {"code": 1, "message": "x"}, "id": "corr-5"}`)
	_, err := DecodeResponse(data, "corr-5")
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SchemaError", err)
	}
}

func TestDecodeResponse_NeitherResultNorError(t *testing.T) {
	data := []byte(`{"id": "corr-6"}`)
	_, err := DecodeResponse(data, "corr-6")
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SchemaError", err)
	}
}

func TestDecodeResponse_InvalidJSON(t *testing.T) {
	_, err := DecodeResponse([]byte(`not json`), "corr-7")
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SchemaError", err)
	}
}

func TestDecodeStatusResult_UnknownStatus(t *testing.T) {
	// An unknown lifecycle value must be rejected, not passed through.
	_, err := decodeStatusResult([]byte(`{"orderId": "o-1", "status": "BURNT"}`))
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SchemaError", err)
	}
}

func TestDecodeStatusResult_MissingOrderID(t *testing.T) {
	_, err := decodeStatusResult([]byte(`{"status": "PENDING"}`))
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T, want *SchemaError", err)
	}
}

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"PENDING", true},
		{"CONFIRMED", true},
		{"PREPARING", true},
		{"READY", true},
		{"SERVED", true},
		{"CANCELLED", true},
		{"pending", false},
		{"DONE", false},
		{"", false},
	}
	for _, tt := range tests {
		_, err := ParseOrderStatus(tt.in)
		if (err == nil) != tt.valid {
			t.Errorf("ParseOrderStatus(%q) err = %v, want valid=%v", tt.in, err, tt.valid)
		}
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		terminal bool
	}{
		{StatusPending, false},
		{StatusConfirmed, false},
		{StatusPreparing, false},
		{StatusReady, false},
		{StatusServed, true},
		{StatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("IsTerminal(%q) = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestIsSoftRejection(t *testing.T) {
	r := &OrderStatusResponse{Status: StatusCancelled, MissingIngredients: []string{"paneer"}}
	if !r.IsSoftRejection() {
		t.Error("cancelled with missing ingredients should be a soft rejection")
	}
	r = &OrderStatusResponse{Status: StatusCancelled}
	if r.IsSoftRejection() {
		t.Error("cancelled without missing ingredients is not a soft rejection")
	}
	r = &OrderStatusResponse{Status: StatusConfirmed, MissingIngredients: []string{"paneer"}}
	if r.IsSoftRejection() {
		t.Error("non-cancelled status is not a soft rejection")
	}
}

func TestOrderValidate(t *testing.T) {
	valid := &Order{
		OrderID: "o-1",
		TableID: "pista-table-1",
		Items:   []OrderItem{{ItemID: "m-1", ItemName: "Garlic Naan", Quantity: 2}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid order should pass: %v", err)
	}

	empty := &Order{OrderID: "o-2", TableID: "t-1"}
	if err := empty.Validate(); err == nil {
		t.Error("order with no items should fail")
	}

	zeroQty := &Order{
		OrderID: "o-3",
		TableID: "t-1",
		Items:   []OrderItem{{ItemID: "m-1", Quantity: 0}},
	}
	if err := zeroQty.Validate(); err == nil {
		t.Error("zero quantity should fail")
	}
}

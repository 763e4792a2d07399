package chef

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Protocol methods understood by the chef service.
const (
	MethodPlaceOrder     = "placeOrder"
	MethodGetOrderStatus = "getOrderStatus"
	MethodCancelOrder    = "cancelOrder"
)

// TenantHeader carries the caller's tenant identifier out of band so
// the chef service can enforce isolation independently of the payload.
const TenantHeader = "X-Tenant-ID"

// Request is the outbound wire envelope.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params"`
	ID     string `json:"id"`
}

// NewRequest builds an envelope with a fresh correlation identifier.
func NewRequest(method string, params any) *Request {
	return &Request{
		Method: method,
		Params: params,
		ID:     uuid.New().String(),
	}
}

func (r *Request) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", r.Method, err)
	}
	return data, nil
}

// ResponseError is the structured error object inside a response.
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response is the inbound wire envelope. Exactly one of Result/Error
// is present on a valid response.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
	ID     string          `json:"id"`
}

// DecodeResponse validates a raw response body against the envelope
// contract. wantID is the correlation identifier of the request that
// produced it. A populated error object decodes to *ProtocolError; any
// structural problem decodes to *SchemaError.
func DecodeResponse(data []byte, wantID string) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &SchemaError{Reason: "invalid response envelope", Err: err}
	}
	if resp.ID == "" {
		return nil, &SchemaError{Reason: "response missing correlation id"}
	}
	if resp.ID != wantID {
		return nil, &SchemaError{Reason: fmt.Sprintf("correlation id mismatch: got %q, want %q", resp.ID, wantID)}
	}
	hasResult := len(resp.Result) > 0 && string(resp.Result) != "null"
	hasError := resp.Error != nil
	if hasResult == hasError {
		return nil, &SchemaError{Reason: "response must carry exactly one of result or error"}
	}
	if hasError {
		if resp.Error.Message == "" {
			return nil, &SchemaError{Reason: "error object missing message"}
		}
		return nil, &ProtocolError{
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
			Data:    resp.Error.Data,
		}
	}
	return &resp, nil
}

// decodeStatusResult unmarshals a result payload into an
// OrderStatusResponse, rejecting missing identifiers and unknown
// status values.
func decodeStatusResult(result json.RawMessage) (*OrderStatusResponse, error) {
	var status OrderStatusResponse
	if err := json.Unmarshal(result, &status); err != nil {
		return nil, &SchemaError{Reason: "invalid status payload", Err: err}
	}
	if status.OrderID == "" {
		return nil, &SchemaError{Reason: "status payload missing orderId"}
	}
	if status.Status == "" {
		return nil, &SchemaError{Reason: "status payload missing status"}
	}
	return &status, nil
}

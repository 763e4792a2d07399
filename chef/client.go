package chef

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// endpointPath is the single RPC endpoint on the chef service.
const endpointPath = "/api/a2a"

// agentCardPath is fetched by health probes; serving it is the
// cheapest request the chef service answers.
const agentCardPath = "/.well-known/agent-card.json"

// Client talks to the external chef fulfillment service. It is safe
// for concurrent use and intended to be constructed once and shared;
// the health cache is the only cross-call mutable state.
type Client struct {
	baseURL   string
	transport *transport
	health    *Health
}

func NewClient(baseURL string, cfg RetryConfig) *Client {
	t := newTransport(cfg)
	c := &Client{
		baseURL:   baseURL,
		transport: t,
	}
	c.health = newHealth(func(ctx context.Context) error {
		return t.probe(ctx, baseURL+agentCardPath)
	})
	return c
}

// Health exposes the cached reachability tracker.
func (c *Client) Health() *Health { return c.health }

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// call performs one logical exchange: encode, send with retries,
// decode. Transport outcomes feed the health tracker; envelope-level
// failures do not, since the service was demonstrably reachable.
func (c *Client) call(ctx context.Context, tenantID, method string, params any) (json.RawMessage, error) {
	req := NewRequest(method, params)
	body, err := req.Encode()
	if err != nil {
		return nil, err
	}

	data, err := c.transport.post(ctx, c.baseURL+endpointPath, tenantID, body)
	if err != nil {
		if IsUnavailable(err) {
			c.health.RecordOutcome(false)
		}
		return nil, err
	}
	c.health.RecordOutcome(true)

	resp, err := DecodeResponse(data, req.ID)
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// PlaceOrder submits a finalized order. A CANCELLED response with
// missing ingredients is a successful exchange carrying a business
// rejection; callers distinguish it via IsSoftRejection, not via the
// error path.
func (c *Client) PlaceOrder(ctx context.Context, tenantID string, order *Order) (*OrderStatusResponse, error) {
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	result, err := c.call(ctx, tenantID, MethodPlaceOrder, order)
	if err != nil {
		return nil, err
	}
	return decodeStatusResult(result)
}

type orderRef struct {
	OrderID string `json:"orderId"`
}

// GetOrderStatus queries the chef service's current view of an order.
// No side effects on the remote service.
func (c *Client) GetOrderStatus(ctx context.Context, tenantID, orderID string) (*OrderStatusResponse, error) {
	result, err := c.call(ctx, tenantID, MethodGetOrderStatus, orderRef{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return decodeStatusResult(result)
}

// CancelOrder cancels an order. Cancelling an already-cancelled order
// is not an error; the operation is idempotent from the caller's view.
func (c *Client) CancelOrder(ctx context.Context, tenantID, orderID string) error {
	_, err := c.call(ctx, tenantID, MethodCancelOrder, orderRef{OrderID: orderID})
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) && perr.Code == CodeAlreadyCancelled {
			return nil
		}
		return err
	}
	return nil
}

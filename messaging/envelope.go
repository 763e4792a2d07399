package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RawEnvelope is used for two-stage unmarshalling: first decode the
// envelope, then decode payload based on msg_type.
type RawEnvelope struct {
	MsgType   string          `json:"msg_type"`
	MsgID     string          `json:"msg_id"`
	TenantID  string          `json:"tenant_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// DecodeEnvelope unmarshals a raw message into a typed Envelope with
// the correct payload type.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var raw RawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	env := &Envelope{
		MsgType:   raw.MsgType,
		MsgID:     raw.MsgID,
		TenantID:  raw.TenantID,
		Timestamp: raw.Timestamp,
	}

	var payload any
	switch raw.MsgType {
	case MsgOrderPlaced:
		var p OrderPlaced
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode order_placed payload: %w", err)
		}
		payload = p
	case MsgOrderStatusChanged:
		var p OrderStatusChanged
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode order_status_changed payload: %w", err)
		}
		payload = p
	case MsgOrderRejected:
		var p OrderRejected
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode order_rejected payload: %w", err)
		}
		payload = p
	case MsgOrderCancelled:
		var p OrderCancelled
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode order_cancelled payload: %w", err)
		}
		payload = p
	default:
		return nil, fmt.Errorf("unknown msg_type: %s", raw.MsgType)
	}
	env.Payload = payload
	return env, nil
}

// NewEnvelope creates an outbound envelope with a new UUID and
// timestamp.
func NewEnvelope(msgType, tenantID string, payload any) *Envelope {
	return &Envelope{
		MsgType:   msgType,
		MsgID:     uuid.New().String(),
		TenantID:  tenantID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// Encode marshals an envelope to JSON.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

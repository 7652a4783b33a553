package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is a single message on the duplex channel.
type Envelope struct {
	Event string `json:"event"`

	// RequestID correlates a response with the request that produced it.
	// Legacy engines never echo it back.
	RequestID string `json:"request_id,omitempty"`

	Data map[string]any `json:"data,omitempty"`
}

// NewEnvelope builds an envelope from a typed payload.
// The payload is normalised through JSON so Data always holds plain maps,
// slices, strings, float64 and bool values regardless of the transport.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := ToMap(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Envelope{Event: event, Data: data}, nil
}

// ToMap converts a payload into its JSON object form.
func ToMap(payload any) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

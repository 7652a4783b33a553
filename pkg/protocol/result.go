package protocol

import (
	"errors"
	"fmt"
)

// ErrRejected is wrapped by every EngineError so callers can test for
// engine-side failures with errors.Is.
var ErrRejected = errors.New("engine rejected request")

// EngineError reports a failure returned by the engine for a given event.
type EngineError struct {
	Event   string
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Event, e.Message)
}

func (e *EngineError) Unwrap() error {
	return ErrRejected
}

// Result is the unified view over the two result shapes emitted by the engine:
//
//	{"message": "success"|"error", "error": "..."}
//	{"success": true|false, "error": "..."}
//
// Payloads that carry neither marker (e.g. a workflow detail) are successful
// unless they contain an error.
type Result struct {
	Message string
	Success *bool
	Error   string
}

// ParseResult extracts the result markers from a response payload.
func ParseResult(data map[string]any) Result {
	var r Result
	if msg, ok := data["message"].(string); ok {
		r.Message = msg
	}
	if ok, isBool := data["success"].(bool); isBool {
		r.Success = &ok
	}
	switch e := data["error"].(type) {
	case nil:
	case string:
		r.Error = e
	default:
		r.Error = fmt.Sprint(e)
	}
	return r
}

// OK reports whether the result denotes success.
func (r Result) OK() bool {
	if r.Error != "" {
		return false
	}
	if r.Success != nil {
		return *r.Success
	}
	return r.Message != "error"
}

// Err converts a failed result into an *EngineError for event.
func (r Result) Err(event string) error {
	if r.OK() {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = "request failed"
	}
	return &EngineError{Event: event, Message: msg}
}

// Check is a shortcut for ParseResult(data).Err(event).
func Check(event string, data map[string]any) error {
	return ParseResult(data).Err(event)
}

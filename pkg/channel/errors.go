package channel

import "errors"

var (
	// ErrDisconnected is returned for requests pending when the transport was lost,
	// and for requests issued while the channel is reconnecting.
	ErrDisconnected = errors.New("channel disconnected")

	// ErrCancelled is returned by futures cancelled directly or by their scope.
	ErrCancelled = errors.New("request cancelled")

	// ErrClosed is returned once the channel has been closed.
	ErrClosed = errors.New("channel closed")

	// ErrUnpaired is returned by Request for an event with no known response event.
	ErrUnpaired = errors.New("request event has no paired response")
)

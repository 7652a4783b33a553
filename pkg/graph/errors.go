package graph

import "errors"

var (
	// ErrLinkExists is returned by AddLink when the unordered pair is already linked.
	ErrLinkExists = errors.New("link already exists")

	// ErrSelfLink is returned when both link ends are the same node.
	ErrSelfLink = errors.New("cannot link a node to itself")

	// ErrNotFound is returned when a cell or node id is unknown.
	ErrNotFound = errors.New("cell not found")

	// ErrWrongKind is returned when an operation does not apply to the cell's kind.
	ErrWrongKind = errors.New("operation not valid for cell kind")

	// ErrInvalidSnapshot is wrapped by every Deserialize failure.
	ErrInvalidSnapshot = errors.New("invalid layout snapshot")
)

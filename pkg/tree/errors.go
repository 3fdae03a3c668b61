package tree

import "errors"

// Edit and lookup errors. Transport adapters map these to their wire
// representation (HTTP status codes; OSC drops the message).
var (
	// ErrNotFound indicates no node exists at the path.
	ErrNotFound = errors.New("no node at path")

	// ErrConflict indicates a structural edit collided with an
	// existing, incompatible node.
	ErrConflict = errors.New("conflicting node at path")

	// ErrAccess indicates the node's access mode forbids the operation.
	ErrAccess = errors.New("access mode forbids operation")

	// ErrTypeMismatch indicates a value write whose shape does not
	// match the node's type tags.
	ErrTypeMismatch = errors.New("value shape does not match type tags")

	// ErrValidation indicates a value outside the node's range with a
	// clip mode that does not permit clamping.
	ErrValidation = errors.New("value failed range validation")

	// ErrClosed indicates the coordinator has shut down.
	ErrClosed = errors.New("coordinator closed")
)

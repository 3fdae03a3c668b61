package log

import (
	"time"
)

// Event represents a protocol log event captured on any transport.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID). Empty
	// for connectionless transports (UDP) and host edits.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Transport where the event was captured.
	Transport Transport `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Path is the namespace path the event concerns, if any.
	Path string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Query  *QueryEvent  `cbor:"8,keyasint,omitempty"`  // HTTP attribute query
	Edit   *EditEvent   `cbor:"9,keyasint,omitempty"`  // Tree edit
	Notify *NotifyEvent `cbor:"10,keyasint,omitempty"` // Subscriber push
	Error  *ErrorEvent  `cbor:"11,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Transport indicates which transport captured the event.
type Transport uint8

const (
	// TransportHTTP is the HTTP query surface.
	TransportHTTP Transport = 0
	// TransportWS is the WebSocket streaming surface.
	TransportWS Transport = 1
	// TransportOSC is the OSC/UDP surface.
	TransportOSC Transport = 2
	// TransportHost is the host application API.
	TransportHost Transport = 3
)

// String returns the transport name.
func (t Transport) String() string {
	switch t {
	case TransportHTTP:
		return "HTTP"
	case TransportWS:
		return "WS"
	case TransportOSC:
		return "OSC"
	case TransportHost:
		return "HOST"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryQuery indicates an attribute query.
	CategoryQuery Category = 0
	// CategoryEdit indicates a tree edit.
	CategoryEdit Category = 1
	// CategoryNotify indicates an event pushed to a subscriber.
	CategoryNotify Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryQuery:
		return "QUERY"
	case CategoryEdit:
		return "EDIT"
	case CategoryNotify:
		return "NOTIFY"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// QueryEvent captures an HTTP attribute query and its outcome.
type QueryEvent struct {
	// Param is the requested attribute key, empty for a full object
	// query, "HOST_INFO" for the global query.
	Param string `cbor:"1,keyasint,omitempty"`

	// Status is the HTTP status code of the reply.
	Status int `cbor:"2,keyasint"`

	// Duration from request receipt to response write.
	// Stored as nanoseconds.
	Duration *time.Duration `cbor:"3,keyasint,omitempty"`
}

// EditEvent captures a tree edit submitted to the coordinator.
type EditEvent struct {
	// Kind is the edit kind name (INSERT, REMOVE, SET).
	Kind string `cbor:"1,keyasint"`

	// Origin is "host" or "network".
	Origin string `cbor:"2,keyasint"`

	// Tags is the OSC type tag string of the submitted values, if any.
	Tags string `cbor:"3,keyasint,omitempty"`

	// Changed reports whether the edit altered the committed state.
	Changed bool `cbor:"4,keyasint,omitempty"`
}

// NotifyEvent captures an event handed to subscribers.
type NotifyEvent struct {
	// Command is the wire command name (PATH_CHANGED, PATH_ADDED,
	// PATH_REMOVED).
	Command string `cbor:"1,keyasint"`

	// Subscribers is the number of subscribers the event was queued
	// for.
	Subscribers int `cbor:"2,keyasint"`
}

// ErrorEvent captures errors at any layer.
type ErrorEvent struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}

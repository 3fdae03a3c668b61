package model

// Access describes the allowed value operations on a node.
// The numeric values are the OSCQuery wire encoding.
type Access uint8

const (
	// AccessNoValue marks a pure container without a value.
	AccessNoValue Access = 0

	// AccessReadOnly allows reading the value.
	AccessReadOnly Access = 1

	// AccessWriteOnly allows writing the value.
	AccessWriteOnly Access = 2

	// AccessReadWrite allows both.
	AccessReadWrite Access = 3
)

// CanRead returns true if the value may be read.
func (a Access) CanRead() bool { return a&AccessReadOnly != 0 }

// CanWrite returns true if the value may be written.
func (a Access) CanWrite() bool { return a&AccessWriteOnly != 0 }

// HasValue returns true if the node carries a value at all.
func (a Access) HasValue() bool { return a != AccessNoValue }

// String returns the access name.
func (a Access) String() string {
	switch a {
	case AccessNoValue:
		return "none"
	case AccessReadOnly:
		return "read-only"
	case AccessWriteOnly:
		return "write-only"
	case AccessReadWrite:
		return "read-write"
	default:
		return "invalid"
	}
}

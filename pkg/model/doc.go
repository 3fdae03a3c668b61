// Package model defines the typed value and attribute vocabulary of an
// OSCQuery namespace.
//
// # Values and Type Tags
//
// Every addressable method node carries an ordered sequence of typed
// value slots. Each slot holds a Value, a tagged union over the OSC 1.0
// argument types (int32, float32, string, blob, int64, timetag, double,
// char, RGBA color, MIDI, bool, nil, infinitum). The type tag string of
// a node ("if", "s", ...) is derived from its current values.
//
// # Access
//
// Access describes what a remote peer may do with a node's value:
// containers have no value (0), methods are read-only (1), write-only
// (2) or read-write (3). The numeric values are the OSCQuery wire
// encoding.
//
// # Ranges and Clipping
//
// Each value slot may carry a Slot descriptor: an optional Range
// (MIN/MAX bounds or an enumerated VALS list), a ClipMode and an
// optional unit string. Writes are validated against the slot: numeric
// values outside the range are clamped according to the clip mode, or
// rejected when the clip mode is ClipNone.
package model

package model

import (
	"errors"
	"fmt"
)

// ClipMode is the policy for values outside a slot's range.
type ClipMode uint8

const (
	// ClipNone performs no clamping; out-of-range writes are rejected.
	ClipNone ClipMode = iota

	// ClipLow clamps values below MIN up to MIN.
	ClipLow

	// ClipHigh clamps values above MAX down to MAX.
	ClipHigh

	// ClipBoth clamps on both sides.
	ClipBoth
)

// String returns the OSCQuery wire name (lowercase).
func (c ClipMode) String() string {
	switch c {
	case ClipNone:
		return "none"
	case ClipLow:
		return "low"
	case ClipHigh:
		return "high"
	case ClipBoth:
		return "both"
	default:
		return "none"
	}
}

// ParseClipMode parses the wire name of a clip mode.
func ParseClipMode(s string) (ClipMode, error) {
	switch s {
	case "none", "":
		return ClipNone, nil
	case "low":
		return ClipLow, nil
	case "high":
		return ClipHigh, nil
	case "both":
		return ClipBoth, nil
	default:
		return ClipNone, fmt.Errorf("unknown clip mode %q", s)
	}
}

// Range constrains the values a slot accepts. Min and Max are optional
// bounds for numeric slots; Vals is an optional enumeration of allowed
// values (any kind). An empty Range accepts everything.
type Range struct {
	Min  *float64
	Max  *float64
	Vals []Value
}

// IsEmpty reports whether the range carries no constraint.
func (r Range) IsEmpty() bool {
	return r.Min == nil && r.Max == nil && len(r.Vals) == 0
}

// JSON returns the OSCQuery JSON object for the range: {"MIN":…},
// {"MAX":…}, {"VALS":[…]} or {} when unconstrained.
func (r Range) JSON() map[string]any {
	m := map[string]any{}
	if r.Min != nil {
		m["MIN"] = *r.Min
	}
	if r.Max != nil {
		m["MAX"] = *r.Max
	}
	if len(r.Vals) > 0 {
		vals := make([]any, len(r.Vals))
		for i, v := range r.Vals {
			vals[i] = v.JSON()
		}
		m["VALS"] = vals
	}
	return m
}

// Slot is the per-value-slot metadata of a node: range, clip policy and
// an optional unit hint ("distance.m", "gain.db", ...).
type Slot struct {
	Range Range
	Clip  ClipMode
	Unit  string
}

// ErrOutOfRange is returned when a write violates a slot's range and
// the clip mode does not permit clamping it into range.
var ErrOutOfRange = errors.New("value out of range")

// Apply validates an incoming value against the slot and returns the
// value to store. Numeric values outside [MIN, MAX] are clamped on the
// sides the clip mode covers; a violation on an unclamped side is an
// ErrOutOfRange. Values violating an enumerated VALS list are always
// rejected.
func (s Slot) Apply(v Value) (Value, error) {
	if len(s.Range.Vals) > 0 {
		for _, allowed := range s.Range.Vals {
			if v.Equal(allowed) {
				return v, nil
			}
		}
		return v, fmt.Errorf("%w: %s not in VALS", ErrOutOfRange, v)
	}

	f, numeric := v.Float()
	if !numeric {
		return v, nil
	}

	if s.Range.Min != nil && f < *s.Range.Min {
		if s.Clip == ClipLow || s.Clip == ClipBoth {
			return v.WithFloat(*s.Range.Min), nil
		}
		return v, fmt.Errorf("%w: %v < MIN %v", ErrOutOfRange, f, *s.Range.Min)
	}
	if s.Range.Max != nil && f > *s.Range.Max {
		if s.Clip == ClipHigh || s.Clip == ClipBoth {
			return v.WithFloat(*s.Range.Max), nil
		}
		return v, fmt.Errorf("%w: %v > MAX %v", ErrOutOfRange, f, *s.Range.Max)
	}
	return v, nil
}

// MinMax is a convenience constructor for a bounded numeric range.
func MinMax(min, max float64) Range {
	return Range{Min: &min, Max: &max}
}

// Vals is a convenience constructor for an enumerated range.
func Vals(values ...Value) Range {
	return Range{Vals: values}
}

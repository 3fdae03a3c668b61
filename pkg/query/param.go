package query

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadRequest is returned for malformed query strings, including
	// unknown parameters and more than one parameter per request.
	ErrBadRequest = errors.New("bad request")

	// ErrUnsupportedParam is returned when the addressed node does not
	// carry the requested attribute.
	ErrUnsupportedParam = errors.New("parameter not applicable to node")
)

// Param selects a single node attribute in a query.
type Param uint8

const (
	// ParamNone requests the full attribute object.
	ParamNone Param = iota
	ParamValue
	ParamType
	ParamRange
	ParamClipMode
	ParamAccess
	ParamDescription
	ParamUnit
)

// Key returns the attribute key as it appears on the wire and in the
// JSON reply.
func (p Param) Key() string {
	switch p {
	case ParamValue:
		return "VALUE"
	case ParamType:
		return "TYPE"
	case ParamRange:
		return "RANGE"
	case ParamClipMode:
		return "CLIPMODE"
	case ParamAccess:
		return "ACCESS"
	case ParamDescription:
		return "DESCRIPTION"
	case ParamUnit:
		return "UNIT"
	default:
		return ""
	}
}

// ParseParam maps a wire attribute key to its Param.
func ParseParam(key string) (Param, error) {
	switch key {
	case "VALUE":
		return ParamValue, nil
	case "TYPE":
		return ParamType, nil
	case "RANGE":
		return ParamRange, nil
	case "CLIPMODE":
		return ParamClipMode, nil
	case "ACCESS":
		return ParamAccess, nil
	case "DESCRIPTION":
		return ParamDescription, nil
	case "UNIT":
		return ParamUnit, nil
	default:
		return ParamNone, fmt.Errorf("%w: unknown parameter %q", ErrBadRequest, key)
	}
}

// Request is a parsed query string.
type Request struct {
	HostInfo bool
	Param    Param
}

// ParseQuery parses a raw URL query string. At most one parameter is
// accepted per request; a second one is rejected rather than silently
// ignored. Parameter values ("?VALUE=x") are not part of the protocol
// and are rejected too.
func ParseQuery(rawQuery string) (Request, error) {
	if rawQuery == "" {
		return Request{}, nil
	}
	parts := strings.Split(rawQuery, "&")
	if len(parts) > 1 {
		return Request{}, fmt.Errorf("%w: multiple query parameters", ErrBadRequest)
	}
	key := parts[0]
	if strings.Contains(key, "=") {
		return Request{}, fmt.Errorf("%w: parameter %q carries a value", ErrBadRequest, key)
	}
	if key == "HOST_INFO" {
		return Request{HostInfo: true}, nil
	}
	p, err := ParseParam(key)
	if err != nil {
		return Request{}, err
	}
	return Request{Param: p}, nil
}

package osc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oscquery/oscquery-go/pkg/model"
)

var (
	// ErrMalformed is returned for bytes that do not parse as an OSC
	// packet.
	ErrMalformed = errors.New("malformed osc packet")

	// ErrInvalidPacket is returned when encoding a packet that violates
	// the format, such as a message without a leading slash.
	ErrInvalidPacket = errors.New("invalid osc packet")
)

// TimeImmediate is the OSC time tag meaning "process now".
const TimeImmediate uint64 = 1

// Packet is an OSC message or bundle.
type Packet interface {
	packet()
}

// Message is a single OSC message.
type Message struct {
	Addr string
	Args []model.Value
}

func (*Message) packet() {}

// Validate checks the message against the OSC address and type rules.
func (m *Message) Validate() error {
	if !strings.HasPrefix(m.Addr, "/") {
		return fmt.Errorf("%w: address %q must start with /", ErrInvalidPacket, m.Addr)
	}
	if strings.ContainsRune(m.Addr, 0) {
		return fmt.Errorf("%w: address contains NUL", ErrInvalidPacket)
	}
	for i, a := range m.Args {
		if a.Tag() == 0 {
			return fmt.Errorf("%w: argument %d has no type tag", ErrInvalidPacket, i)
		}
	}
	return nil
}

// Bundle is a group of packets to be processed together at Time.
type Bundle struct {
	Time     uint64
	Elements []Packet
}

func (*Bundle) packet() {}

// Validate checks the bundle and its elements recursively.
func (b *Bundle) Validate() error {
	for _, el := range b.Elements {
		switch p := el.(type) {
		case *Message:
			if err := p.Validate(); err != nil {
				return err
			}
		case *Bundle:
			if err := p.Validate(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown bundle element %T", ErrInvalidPacket, el)
		}
	}
	return nil
}

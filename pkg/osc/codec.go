package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/oscquery/oscquery-go/pkg/model"
)

const bundleTag = "#bundle"

// Encode renders a packet to its wire bytes.
func Encode(p Packet) ([]byte, error) {
	var buf bytes.Buffer
	switch p := p.(type) {
	case *Message:
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if err := encodeMessage(&buf, p); err != nil {
			return nil, err
		}
	case *Bundle:
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if err := encodeBundle(&buf, p); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown packet %T", ErrInvalidPacket, p)
	}
	return buf.Bytes(), nil
}

// Decode parses wire bytes into a message or bundle.
func Decode(data []byte) (Packet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty packet", ErrMalformed)
	}
	if data[0] == '#' {
		return decodeBundle(data)
	}
	if data[0] == '/' {
		return decodeMessage(data)
	}
	return nil, fmt.Errorf("%w: packet starts with %q", ErrMalformed, data[0])
}

func encodeMessage(buf *bytes.Buffer, m *Message) error {
	writePaddedString(buf, m.Addr)
	writePaddedString(buf, ","+model.TagsOf(m.Args))
	for _, a := range m.Args {
		if err := writeArg(buf, a); err != nil {
			return err
		}
	}
	return nil
}

func encodeBundle(buf *bytes.Buffer, b *Bundle) error {
	writePaddedString(buf, bundleTag)
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], b.Time)
	buf.Write(be[:])

	for _, el := range b.Elements {
		content, err := Encode(el)
		if err != nil {
			return err
		}
		var size [4]byte
		binary.BigEndian.PutUint32(size[:], uint32(len(content)))
		buf.Write(size[:])
		buf.Write(content)
	}
	return nil
}

func writeArg(buf *bytes.Buffer, v model.Value) error {
	var be [8]byte
	switch v.Kind() {
	case model.KindInt32:
		binary.BigEndian.PutUint32(be[:4], uint32(v.Int32()))
		buf.Write(be[:4])
	case model.KindFloat32:
		binary.BigEndian.PutUint32(be[:4], math.Float32bits(v.Float32()))
		buf.Write(be[:4])
	case model.KindString:
		writePaddedString(buf, v.Str())
	case model.KindBlob:
		b := v.Bytes()
		binary.BigEndian.PutUint32(be[:4], uint32(len(b)))
		buf.Write(be[:4])
		buf.Write(b)
		pad(buf, len(b))
	case model.KindInt64:
		binary.BigEndian.PutUint64(be[:], uint64(v.Int64()))
		buf.Write(be[:])
	case model.KindTimeTag:
		binary.BigEndian.PutUint64(be[:], v.Time())
		buf.Write(be[:])
	case model.KindDouble:
		binary.BigEndian.PutUint64(be[:], math.Float64bits(v.Double()))
		buf.Write(be[:])
	case model.KindChar:
		binary.BigEndian.PutUint32(be[:4], uint32(v.CharRune()))
		buf.Write(be[:4])
	case model.KindColor, model.KindMIDI:
		b := v.Bytes()
		if len(b) != 4 {
			return fmt.Errorf("%w: %s payload must be 4 bytes", ErrInvalidPacket, v.Kind())
		}
		buf.Write(b)
	case model.KindBool, model.KindNil, model.KindInfinitum:
		// Tag-only, no payload.
	default:
		return fmt.Errorf("%w: cannot encode %s", ErrInvalidPacket, v.Kind())
	}
	return nil
}

func decodeMessage(data []byte) (*Message, error) {
	addr, rest, err := readPaddedString(data)
	if err != nil {
		return nil, err
	}
	tags, rest, err := readPaddedString(rest)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 || tags[0] != ',' {
		return nil, fmt.Errorf("%w: type tag string %q", ErrMalformed, tags)
	}

	msg := &Message{Addr: addr}
	for _, tag := range []byte(tags[1:]) {
		var v model.Value
		v, rest, err = readArg(tag, rest)
		if err != nil {
			return nil, err
		}
		msg.Args = append(msg.Args, v)
	}
	return msg, nil
}

func decodeBundle(data []byte) (*Bundle, error) {
	tag, rest, err := readPaddedString(data)
	if err != nil {
		return nil, err
	}
	if tag != bundleTag {
		return nil, fmt.Errorf("%w: bundle tag %q", ErrMalformed, tag)
	}
	if len(rest) < 8 {
		return nil, fmt.Errorf("%w: truncated bundle time tag", ErrMalformed)
	}
	b := &Bundle{Time: binary.BigEndian.Uint64(rest[:8])}
	rest = rest[8:]

	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: truncated bundle element size", ErrMalformed)
		}
		size := int(binary.BigEndian.Uint32(rest[:4]))
		rest = rest[4:]
		if size < 0 || size > len(rest) {
			return nil, fmt.Errorf("%w: bundle element size %d exceeds packet", ErrMalformed, size)
		}
		el, err := Decode(rest[:size])
		if err != nil {
			return nil, err
		}
		b.Elements = append(b.Elements, el)
		rest = rest[size:]
	}
	return b, nil
}

func readArg(tag byte, data []byte) (model.Value, []byte, error) {
	need := func(n int) error {
		if len(data) < n {
			return fmt.Errorf("%w: truncated %q argument", ErrMalformed, tag)
		}
		return nil
	}

	switch tag {
	case 'i':
		if err := need(4); err != nil {
			return model.Value{}, nil, err
		}
		return model.Int32(int32(binary.BigEndian.Uint32(data[:4]))), data[4:], nil
	case 'f':
		if err := need(4); err != nil {
			return model.Value{}, nil, err
		}
		return model.Float32(math.Float32frombits(binary.BigEndian.Uint32(data[:4]))), data[4:], nil
	case 's':
		s, rest, err := readPaddedString(data)
		if err != nil {
			return model.Value{}, nil, err
		}
		return model.String(s), rest, nil
	case 'b':
		if err := need(4); err != nil {
			return model.Value{}, nil, err
		}
		size := int(binary.BigEndian.Uint32(data[:4]))
		padded := 4 + size + padLen(size)
		if size < 0 || len(data) < padded {
			return model.Value{}, nil, fmt.Errorf("%w: blob size %d exceeds packet", ErrMalformed, size)
		}
		blob := make([]byte, size)
		copy(blob, data[4:4+size])
		return model.Blob(blob), data[padded:], nil
	case 'h':
		if err := need(8); err != nil {
			return model.Value{}, nil, err
		}
		return model.Int64(int64(binary.BigEndian.Uint64(data[:8]))), data[8:], nil
	case 't':
		if err := need(8); err != nil {
			return model.Value{}, nil, err
		}
		return model.TimeTag(binary.BigEndian.Uint64(data[:8])), data[8:], nil
	case 'd':
		if err := need(8); err != nil {
			return model.Value{}, nil, err
		}
		return model.Double(math.Float64frombits(binary.BigEndian.Uint64(data[:8]))), data[8:], nil
	case 'c':
		if err := need(4); err != nil {
			return model.Value{}, nil, err
		}
		return model.Char(rune(binary.BigEndian.Uint32(data[:4]))), data[4:], nil
	case 'r':
		if err := need(4); err != nil {
			return model.Value{}, nil, err
		}
		return model.Color(data[0], data[1], data[2], data[3]), data[4:], nil
	case 'm':
		if err := need(4); err != nil {
			return model.Value{}, nil, err
		}
		return model.MIDI(data[0], data[1], data[2], data[3]), data[4:], nil
	case 'T':
		return model.Bool(true), data, nil
	case 'F':
		return model.Bool(false), data, nil
	case 'N':
		return model.Nil(), data, nil
	case 'I':
		return model.Infinitum(), data, nil
	default:
		return model.Value{}, nil, fmt.Errorf("%w: unknown type tag %q", ErrMalformed, tag)
	}
}

// writePaddedString writes s, a NUL terminator and zero padding to the
// next 4-byte boundary.
func writePaddedString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
	pad(buf, len(s)+1)
}

// readPaddedString consumes a NUL-terminated padded string and returns
// it with the remaining bytes.
func readPaddedString(data []byte) (string, []byte, error) {
	end := bytes.IndexByte(data, 0)
	if end < 0 {
		return "", nil, fmt.Errorf("%w: unterminated string", ErrMalformed)
	}
	consumed := end + 1
	consumed += padLen(consumed)
	if consumed > len(data) {
		return "", nil, fmt.Errorf("%w: string padding exceeds packet", ErrMalformed)
	}
	return string(data[:end]), data[consumed:], nil
}

// padLen returns the number of zero bytes that align n to 4.
func padLen(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

func pad(buf *bytes.Buffer, n int) {
	for range padLen(n) {
		buf.WriteByte(0)
	}
}

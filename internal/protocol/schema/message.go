package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danmuck/edgewire/internal/protocol/codec"
)

var (
	ErrFieldMissing      = errors.New("schema: field missing")
	ErrFieldKindMismatch = errors.New("schema: field kind mismatch")
)

// Value is one decoded field: a scalar or a fixed-length array.
type Value struct {
	Kind   Kind
	Scalar uint32
	Array  []uint32
}

// Uint returns the scalar value.
func (v Value) Uint() (uint32, error) {
	if v.Kind != KindScalar {
		return 0, ErrFieldKindMismatch
	}
	return v.Scalar, nil
}

// Uints returns the values in wire order. A scalar yields one element.
func (v Value) Uints() []uint32 {
	if v.Kind == KindScalar {
		return []uint32{v.Scalar}
	}
	out := make([]uint32, len(v.Array))
	copy(out, v.Array)
	return out
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindArray {
		return json.Marshal(v.Array)
	}
	return json.Marshal(v.Scalar)
}

// Message is one decoded schema instance tagged with its schema name.
type Message struct {
	Type   string
	Fields map[string]Value
}

// Uint returns a named scalar field.
func (m Message) Uint(name string) (uint32, error) {
	v, ok := m.Fields[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrFieldMissing, m.Type, name)
	}
	n, err := v.Uint()
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s is %s", err, m.Type, name, v.Kind)
	}
	return n, nil
}

// Uints returns a named field as a sequence.
func (m Message) Uints(name string) ([]uint32, error) {
	v, ok := m.Fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrFieldMissing, m.Type, name)
	}
	return v.Uints(), nil
}

// MarshalJSON flattens the message into {"type": ..., <field>: <value>}.
func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+1)
	for name, v := range m.Fields {
		out[name] = v
	}
	out["type"] = m.Type
	return json.Marshal(out)
}

// Decode reads every field of s from buf in schema order.
func Decode(s Schema, buf []byte) (Message, error) {
	msg := Message{Type: s.Name, Fields: make(map[string]Value, len(s.Fields))}
	offset := 0
	for _, f := range s.Fields {
		switch f.Kind() {
		case KindScalar:
			v, next, err := codec.Uint(buf, offset, f.Width)
			if err != nil {
				return Message{}, fmt.Errorf("schema: decode %s.%s: %w", s.Name, f.Name, err)
			}
			msg.Fields[f.Name] = Value{Kind: KindScalar, Scalar: v}
			offset = next
		case KindArray:
			vs, next, err := codec.Uints(buf, offset, f.Width, f.Count)
			if err != nil {
				return Message{}, fmt.Errorf("schema: decode %s.%s: %w", s.Name, f.Name, err)
			}
			msg.Fields[f.Name] = Value{Kind: KindArray, Array: vs}
			offset = next
		}
	}
	return msg, nil
}

// Encode writes values into a new buffer sized to s. Missing fields encode as zero.
func Encode(s Schema, values map[string][]uint32) ([]byte, error) {
	buf := make([]byte, s.Size())
	offset := 0
	for _, f := range s.Fields {
		vs := values[f.Name]
		if len(vs) > f.Count {
			return nil, fmt.Errorf("schema: encode %s.%s: %d values for count %d", s.Name, f.Name, len(vs), f.Count)
		}
		for i := 0; i < f.Count; i++ {
			var v uint32
			if i < len(vs) {
				v = vs[i]
			}
			next, err := codec.PutUint(buf, offset, f.Width, v)
			if err != nil {
				return nil, fmt.Errorf("schema: encode %s.%s: %w", s.Name, f.Name, err)
			}
			offset = next
		}
	}
	return buf, nil
}

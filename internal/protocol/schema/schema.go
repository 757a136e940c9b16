package schema

import (
	"fmt"

	"github.com/danmuck/edgewire/internal/protocol/codec"
)

// Schema names for the built-in message set.
const (
	HeaderName = "header"
	DoorName   = "door"
	LightsName = "lights"
)

// Message type codes carried in the header.
const (
	CodeDoor   uint16 = 0x0D
	CodeLights uint16 = 0x0E
)

// Field names from the wire contract.
const (
	FieldRequesterID  = "requester_id"
	FieldMessageType  = "message_type"
	FieldPacketLength = "packet_length"

	FieldDoorID  = "door_id"
	FieldCommand = "command"

	FieldLightID     = "light_id"
	FieldDimmerValue = "dimmer_value"
)

// HeaderSize is the byte width of the header schema.
const HeaderSize = 9

// Kind tags a field as a single value or a fixed-length array.
type Kind uint8

const (
	KindScalar Kind = iota + 1
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Field is one fixed-width field descriptor.
type Field struct {
	Name  string
	Width int
	Count int
}

// Scalar declares a single-value field of width bytes.
func Scalar(name string, width int) Field {
	return Field{Name: name, Width: width, Count: 1}
}

// Array declares a fixed-length array of count values of width bytes each.
func Array(name string, width, count int) Field {
	return Field{Name: name, Width: width, Count: count}
}

func (f Field) Kind() Kind {
	if f.Count > 1 {
		return KindArray
	}
	return KindScalar
}

// Size is the number of wire bytes the field occupies.
func (f Field) Size() int {
	return f.Width * f.Count
}

func (f Field) validate() error {
	if f.Name == "" {
		return fmt.Errorf("field name is required")
	}
	if !codec.ValidWidth(f.Width) {
		return fmt.Errorf("field %q: width %d outside 1..%d", f.Name, f.Width, codec.MaxWidth)
	}
	if f.Count < 1 {
		return fmt.Errorf("field %q: count %d must be >= 1", f.Name, f.Count)
	}
	return nil
}

// Schema is an ordered field layout for one message type.
type Schema struct {
	Name   string
	Fields []Field
}

// Size is the total byte width of the schema.
func (s Schema) Size() int {
	total := 0
	for _, f := range s.Fields {
		total += f.Size()
	}
	return total
}

// Field returns the named field descriptor.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema name is required")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %q has no fields", s.Name)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if err := f.validate(); err != nil {
			return fmt.Errorf("schema %q: %w", s.Name, err)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %q: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Header is the universal entry schema. It has no message type code.
var Header = Schema{
	Name: HeaderName,
	Fields: []Field{
		Array(FieldRequesterID, 1, 4),
		Scalar(FieldMessageType, 2),
		Scalar(FieldPacketLength, 3),
	},
}

// Door is the door actuator body.
var Door = Schema{
	Name: DoorName,
	Fields: []Field{
		Scalar(FieldDoorID, 1),
		Scalar(FieldCommand, 1),
	},
}

// Lights is the dimmable light body.
var Lights = Schema{
	Name: LightsName,
	Fields: []Field{
		Scalar(FieldLightID, 1),
		Scalar(FieldDimmerValue, 2),
	},
}

// Package messages converts decoded schema messages into typed structs for
// the built-in message set.
package messages

import (
	"errors"
	"fmt"

	"github.com/danmuck/edgewire/internal/protocol/schema"
)

var ErrUnsupported = errors.New("messages: no typed view for message")

// Door commands.
const (
	DoorOpen   uint8 = 0x01
	DoorClose  uint8 = 0x02
	DoorLock   uint8 = 0x03
	DoorUnlock uint8 = 0x04
)

// Typed is implemented only by the structs in this package.
type Typed interface {
	Name() string
	typed()
}

// Header precedes every body on the wire.
type Header struct {
	RequesterID  [4]uint8
	MessageType  uint16
	PacketLength uint32
}

// Door carries a command for one door actuator.
type Door struct {
	DoorID  uint8
	Command uint8
}

// Lights sets the dimmer level of one light.
type Lights struct {
	LightID     uint8
	DimmerValue uint16
}

func (Header) Name() string { return schema.HeaderName }
func (Door) Name() string   { return schema.DoorName }
func (Lights) Name() string { return schema.LightsName }

func (Header) typed() {}
func (Door) typed()   {}
func (Lights) typed() {}

// CommandName returns a label for a door command byte.
func CommandName(cmd uint8) string {
	switch cmd {
	case DoorOpen:
		return "open"
	case DoorClose:
		return "close"
	case DoorLock:
		return "lock"
	case DoorUnlock:
		return "unlock"
	default:
		return fmt.Sprintf("unknown(0x%02X)", cmd)
	}
}

// From converts a decoded message. Messages from catalog-defined schemas
// without a typed view return ErrUnsupported.
func From(msg schema.Message) (Typed, error) {
	switch msg.Type {
	case schema.HeaderName:
		return headerFrom(msg)
	case schema.DoorName:
		id, err := msg.Uint(schema.FieldDoorID)
		if err != nil {
			return nil, err
		}
		cmd, err := msg.Uint(schema.FieldCommand)
		if err != nil {
			return nil, err
		}
		return Door{DoorID: uint8(id), Command: uint8(cmd)}, nil
	case schema.LightsName:
		id, err := msg.Uint(schema.FieldLightID)
		if err != nil {
			return nil, err
		}
		dimmer, err := msg.Uint(schema.FieldDimmerValue)
		if err != nil {
			return nil, err
		}
		return Lights{LightID: uint8(id), DimmerValue: uint16(dimmer)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, msg.Type)
	}
}

func headerFrom(msg schema.Message) (Header, error) {
	var h Header
	ids, err := msg.Uints(schema.FieldRequesterID)
	if err != nil {
		return Header{}, err
	}
	if len(ids) != len(h.RequesterID) {
		return Header{}, fmt.Errorf("messages: requester_id has %d values", len(ids))
	}
	for i, v := range ids {
		h.RequesterID[i] = uint8(v)
	}
	code, err := msg.Uint(schema.FieldMessageType)
	if err != nil {
		return Header{}, err
	}
	length, err := msg.Uint(schema.FieldPacketLength)
	if err != nil {
		return Header{}, err
	}
	h.MessageType = uint16(code)
	h.PacketLength = length
	return h, nil
}

// Package builder assembles header-prefixed wire payloads for test clients
// and fixtures.
package builder

import (
	"fmt"
	"strings"

	"github.com/danmuck/edgewire/internal/protocol/schema"
)

// Header encodes the header for a body schema with the given payload length.
func Header(reg *schema.Registry, body string, requester [4]byte, length uint32) ([]byte, error) {
	code, ok := reg.Code(body)
	if !ok {
		return nil, fmt.Errorf("builder: header for %q: %w", body, &schema.UnknownSchemaError{Name: body})
	}
	ids := make([]uint32, len(requester))
	for i, b := range requester {
		ids[i] = uint32(b)
	}
	return schema.Encode(reg.Header(), map[string][]uint32{
		schema.FieldRequesterID:  ids,
		schema.FieldMessageType:  {uint32(code)},
		schema.FieldPacketLength: {length},
	})
}

// Message encodes a header followed by the body built from values.
func Message(reg *schema.Registry, body string, requester [4]byte, values map[string][]uint32) ([]byte, error) {
	s, err := reg.Schema(body)
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}
	payload, err := schema.Encode(s, values)
	if err != nil {
		return nil, err
	}
	head, err := Header(reg, body, requester, uint32(len(payload)))
	if err != nil {
		return nil, err
	}
	return append(head, payload...), nil
}

// Door builds a door command against the built-in registry.
func Door(requester [4]byte, doorID, command uint8) ([]byte, error) {
	return Message(schema.Default(), schema.DoorName, requester, map[string][]uint32{
		schema.FieldDoorID:  {uint32(doorID)},
		schema.FieldCommand: {uint32(command)},
	})
}

// Lights builds a dimmer update against the built-in registry.
func Lights(requester [4]byte, lightID uint8, dimmer uint16) ([]byte, error) {
	return Message(schema.Default(), schema.LightsName, requester, map[string][]uint32{
		schema.FieldLightID:     {uint32(lightID)},
		schema.FieldDimmerValue: {uint32(dimmer)},
	})
}

// FormatHex renders b as [0x00][0x0D]...
func FormatHex(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 6)
	for _, v := range b {
		fmt.Fprintf(&sb, "[0x%02X]", v)
	}
	return sb.String()
}

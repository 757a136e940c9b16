package messages

import (
	"errors"
	"testing"

	"github.com/danmuck/edgewire/internal/protocol/schema"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

func TestFromHeader(t *testing.T) {
	testlog.Start(t)
	msg, err := schema.Decode(schema.Header, []byte{0x0a, 0x0b, 0x0c, 0x0d, 0x00, 0x0E, 0x00, 0x00, 0x03})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	typed, err := From(msg)
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	h, ok := typed.(Header)
	if !ok {
		t.Fatalf("got %T", typed)
	}
	want := Header{RequesterID: [4]uint8{0x0a, 0x0b, 0x0c, 0x0d}, MessageType: schema.CodeLights, PacketLength: 3}
	if h != want {
		t.Fatalf("header=%+v", h)
	}
	if h.Name() != schema.HeaderName {
		t.Fatalf("name=%q", h.Name())
	}
}

func TestFromUnsupported(t *testing.T) {
	testlog.Start(t)
	_, err := From(schema.Message{Type: "valve"})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFromMissingField(t *testing.T) {
	testlog.Start(t)
	_, err := From(schema.Message{Type: schema.DoorName, Fields: map[string]schema.Value{}})
	if !errors.Is(err, schema.ErrFieldMissing) {
		t.Fatalf("expected ErrFieldMissing, got %v", err)
	}
}

func TestCommandName(t *testing.T) {
	testlog.Start(t)
	if CommandName(DoorUnlock) != "unlock" || CommandName(0x7f) != "unknown(0x7F)" {
		t.Fatalf("unexpected names")
	}
}

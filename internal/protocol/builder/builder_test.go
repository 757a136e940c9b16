package builder

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/edgewire/internal/protocol/messages"
	"github.com/danmuck/edgewire/internal/protocol/parser"
	"github.com/danmuck/edgewire/internal/protocol/schema"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

var requester = [4]byte{0x00, 0x01, 0x02, 0x03}

func TestDoorPayload(t *testing.T) {
	testlog.Start(t)
	got, err := Door(requester, 0x00, messages.DoorOpen)
	if err != nil {
		t.Fatalf("build door: %v", err)
	}
	want := []byte{0x00, 0x01, 0x02, 0x03, 0x00, 0x0D, 0x00, 0x00, 0x02, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("door=%s want=%s", FormatHex(got), FormatHex(want))
	}
}

func TestLightsPayload(t *testing.T) {
	testlog.Start(t)
	got, err := Lights(requester, 1, 10)
	if err != nil {
		t.Fatalf("build lights: %v", err)
	}
	want := []byte{0x00, 0x01, 0x02, 0x03, 0x00, 0x0E, 0x00, 0x00, 0x03, 0x01, 0x00, 0x0A}
	if !bytes.Equal(got, want) {
		t.Fatalf("lights=%s want=%s", FormatHex(got), FormatHex(want))
	}
}

func TestBuiltPayloadsParse(t *testing.T) {
	testlog.Start(t)
	door, _ := Door(requester, 2, messages.DoorUnlock)
	lights, _ := Lights(requester, 4, 0xBEEF)
	msgs, err := parser.New(schema.Default()).Consume(append(door, lights...))
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("messages=%d", len(msgs))
	}
	d, err := messages.From(msgs[1])
	if err != nil {
		t.Fatalf("typed door: %v", err)
	}
	if d != (messages.Door{DoorID: 2, Command: messages.DoorUnlock}) {
		t.Fatalf("door=%+v", d)
	}
	l, err := messages.From(msgs[3])
	if err != nil {
		t.Fatalf("typed lights: %v", err)
	}
	if l != (messages.Lights{LightID: 4, DimmerValue: 0xBEEF}) {
		t.Fatalf("lights=%+v", l)
	}
}

func TestHeaderUnknownBody(t *testing.T) {
	testlog.Start(t)
	if _, err := Header(schema.Default(), schema.HeaderName, requester, 0); !errors.Is(err, schema.ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
	if _, err := Message(schema.Default(), "garage", requester, nil); !errors.Is(err, schema.ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
}

func TestFormatHex(t *testing.T) {
	testlog.Start(t)
	if got := FormatHex([]byte{0x00, 0x0d, 0xff}); got != "[0x00][0x0D][0xFF]" {
		t.Fatalf("got=%q", got)
	}
}

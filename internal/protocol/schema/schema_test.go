package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

func TestBuiltinSchemaSizes(t *testing.T) {
	testlog.Start(t)
	reg := Default()
	want := map[string]int{HeaderName: 9, DoorName: 2, LightsName: 3}
	for name, size := range want {
		s, err := reg.Schema(name)
		if err != nil {
			t.Fatalf("schema %q: %v", name, err)
		}
		if s.Size() != size {
			t.Fatalf("schema %q size=%d want=%d", name, s.Size(), size)
		}
	}
	if reg.Header().Size() != HeaderSize {
		t.Fatalf("header size=%d", reg.Header().Size())
	}
}

func TestResolveCode(t *testing.T) {
	testlog.Start(t)
	reg := Default()
	if name, err := reg.ResolveCode(0x0D); err != nil || name != DoorName {
		t.Fatalf("resolve door: name=%q err=%v", name, err)
	}
	if name, err := reg.ResolveCode(0x0E); err != nil || name != LightsName {
		t.Fatalf("resolve lights: name=%q err=%v", name, err)
	}
	_, err := reg.ResolveCode(0x01)
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Fatalf("expected ErrUnknownMessageType, got %v", err)
	}
	var ue *UnknownMessageTypeError
	if !errors.As(err, &ue) || ue.Code != 0x01 {
		t.Fatalf("unexpected error: %#v", err)
	}
}

func TestHeaderHasNoCode(t *testing.T) {
	testlog.Start(t)
	reg := Default()
	if _, ok := reg.Code(HeaderName); ok {
		t.Fatalf("header must not carry a code")
	}
	if code, ok := reg.Code(LightsName); !ok || code != CodeLights {
		t.Fatalf("lights code=%#x ok=%v", code, ok)
	}
}

func TestUnknownSchema(t *testing.T) {
	testlog.Start(t)
	_, err := Default().Schema("invalid")
	if !errors.Is(err, ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
}

func TestNamesOrder(t *testing.T) {
	testlog.Start(t)
	names := Default().Names()
	want := []string{HeaderName, DoorName, LightsName}
	if len(names) != len(want) {
		t.Fatalf("names=%v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names=%v want=%v", names, want)
		}
	}
}

func TestNewRegistryRejectsInvalidTables(t *testing.T) {
	testlog.Start(t)
	cases := map[string][]Body{
		"empty":          nil,
		"duplicate code": {{Code: 1, Schema: Door}, {Code: 1, Schema: Lights}},
		"duplicate name": {{Code: 1, Schema: Door}, {Code: 2, Schema: Door}},
		"reserved name":  {{Code: 1, Schema: Schema{Name: HeaderName, Fields: []Field{Scalar("x", 1)}}}},
		"bad width":      {{Code: 1, Schema: Schema{Name: "x", Fields: []Field{Scalar("a", 5)}}}},
		"bad count":      {{Code: 1, Schema: Schema{Name: "x", Fields: []Field{Array("a", 1, 0)}}}},
		"no fields":      {{Code: 1, Schema: Schema{Name: "x"}}},
		"duplicate field": {{Code: 1, Schema: Schema{Name: "x", Fields: []Field{
			Scalar("a", 1), Scalar("a", 2),
		}}}},
	}
	for name, bodies := range cases {
		if _, err := NewRegistry(bodies...); !errors.Is(err, ErrInvalidRegistry) {
			t.Fatalf("%s: expected ErrInvalidRegistry, got %v", name, err)
		}
	}
}

func TestRegistryIsolatedFromCallerMutation(t *testing.T) {
	testlog.Start(t)
	body := Schema{Name: "valve", Fields: []Field{Scalar("valve_id", 1)}}
	reg, err := NewRegistry(Body{Code: 0x20, Schema: body})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	body.Fields[0].Width = 4
	got, _ := reg.Schema("valve")
	if got.Size() != 1 {
		t.Fatalf("registry schema mutated: size=%d", got.Size())
	}
	got.Fields[0].Width = 3
	again, _ := reg.Schema("valve")
	if again.Size() != 1 {
		t.Fatalf("returned schema aliases registry storage")
	}
}

func TestDecodeHeader(t *testing.T) {
	testlog.Start(t)
	msg, err := Decode(Header, []byte{0x00, 0x01, 0x02, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ids, _ := msg.Uints(FieldRequesterID)
	if len(ids) != 4 || ids[0] != 0 || ids[3] != 3 {
		t.Fatalf("requester_id=%v", ids)
	}
	if v, _ := msg.Uint(FieldMessageType); v != 1 {
		t.Fatalf("message_type=%d", v)
	}
	if v, _ := msg.Uint(FieldPacketLength); v != 0 {
		t.Fatalf("packet_length=%d", v)
	}
}

func TestDecodeDoor(t *testing.T) {
	testlog.Start(t)
	msg, err := Decode(Door, []byte{0x00, 0x01})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != DoorName {
		t.Fatalf("type=%q", msg.Type)
	}
	if v, _ := msg.Uint(FieldDoorID); v != 0 {
		t.Fatalf("door_id=%d", v)
	}
	if v, _ := msg.Uint(FieldCommand); v != 1 {
		t.Fatalf("command=%d", v)
	}
}

func TestDecodeTruncated(t *testing.T) {
	testlog.Start(t)
	_, err := Decode(Header, []byte{0x00})
	if !errors.Is(err, codec.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestMessageFieldAccessErrors(t *testing.T) {
	testlog.Start(t)
	msg, _ := Decode(Header, make([]byte, HeaderSize))
	if _, err := msg.Uint(FieldRequesterID); !errors.Is(err, ErrFieldKindMismatch) {
		t.Fatalf("expected ErrFieldKindMismatch, got %v", err)
	}
	if _, err := msg.Uint("nope"); !errors.Is(err, ErrFieldMissing) {
		t.Fatalf("expected ErrFieldMissing, got %v", err)
	}
}

func TestEncodeDecodeLights(t *testing.T) {
	testlog.Start(t)
	buf, err := Encode(Lights, map[string][]uint32{
		FieldLightID:     {1},
		FieldDimmerValue: {10},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(buf) != 3 || buf[0] != 0x01 || buf[1] != 0x00 || buf[2] != 0x0A {
		t.Fatalf("buf=%v", buf)
	}
	if _, err := Encode(Lights, map[string][]uint32{FieldLightID: {1, 2}}); err == nil {
		t.Fatalf("expected error for too many values")
	}
}

func TestMessageJSON(t *testing.T) {
	testlog.Start(t)
	msg, _ := Decode(Header, []byte{0x00, 0x01, 0x02, 0x03, 0x00, 0x0D, 0x00, 0x00, 0x02})
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["type"] != HeaderName || got[FieldMessageType] != float64(13) {
		t.Fatalf("json=%s", raw)
	}
	ids, ok := got[FieldRequesterID].([]any)
	if !ok || len(ids) != 4 {
		t.Fatalf("requester_id json=%s", raw)
	}
}

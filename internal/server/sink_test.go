package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/edgewire/internal/protocol/dispatch"
	"github.com/danmuck/edgewire/internal/protocol/schema"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func decodeDoor(t *testing.T) schema.Message {
	t.Helper()
	msg, err := schema.Decode(schema.Door, []byte{0x05, 0x03})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestLogSinkWritesMessage(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))
	if err := sink.Emit(context.Background(), decodeDoor(t)); err != nil {
		t.Fatalf("emit: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line not json: %v: %s", err, buf.String())
	}
	if line["type"] != schema.DoorName || line["command"] != "lock" {
		t.Fatalf("line=%v", line)
	}
	payload, ok := line["payload"].(map[string]any)
	if !ok || payload["door_id"] != float64(5) || payload["type"] != schema.DoorName {
		t.Fatalf("payload=%v", line["payload"])
	}
	if line["message"] != "ingest message" {
		t.Fatalf("message=%v", line["message"])
	}
	if n := bytes.Count(buf.Bytes(), []byte(`"payload":`)); n != 1 {
		t.Fatalf("payload key written %d times: %s", n, buf.String())
	}
}

func TestLogSinkPrefersContextLogger(t *testing.T) {
	testlog.Start(t)
	var base, scoped bytes.Buffer
	sink := NewLogSink(zerolog.New(&base))
	ctx := zerolog.New(&scoped).With().Str("remote", "10.0.0.1:5000").Logger().WithContext(context.Background())
	if err := sink.Emit(ctx, decodeDoor(t)); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if base.Len() != 0 {
		t.Fatalf("base logger used: %s", base.String())
	}
	if !strings.Contains(scoped.String(), "10.0.0.1:5000") {
		t.Fatalf("scoped line=%s", scoped.String())
	}
}

func TestMetricsSinkForwards(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("downstream")
	var got []string
	sink := MetricsSink{Next: dispatch.SinkFunc(func(_ context.Context, msg schema.Message) error {
		got = append(got, msg.Type)
		return boom
	})}
	if err := sink.Emit(context.Background(), decodeDoor(t)); !errors.Is(err, boom) {
		t.Fatalf("expected downstream error, got %v", err)
	}
	if len(got) != 1 || got[0] != schema.DoorName {
		t.Fatalf("forwarded=%v", got)
	}
	if err := (MetricsSink{}).Emit(context.Background(), decodeDoor(t)); err != nil {
		t.Fatalf("nil next: %v", err)
	}
}

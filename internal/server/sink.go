package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/danmuck/edgewire/internal/observability"
	"github.com/danmuck/edgewire/internal/protocol/dispatch"
	"github.com/danmuck/edgewire/internal/protocol/messages"
	"github.com/danmuck/edgewire/internal/protocol/schema"
	"github.com/rs/zerolog"
)

// LogSink writes every decoded message as a JSON object. The connection
// logger carried in ctx is preferred so lines keep the remote address.
type LogSink struct {
	Logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) LogSink {
	return LogSink{Logger: logger}
}

func (s LogSink) Emit(ctx context.Context, msg schema.Message) error {
	logger := s.Logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	event := logger.Info().Str("type", msg.Type).RawJSON("payload", raw)

	typed, err := messages.From(msg)
	switch {
	case errors.Is(err, messages.ErrUnsupported):
		// catalog schema without a typed view
	case err != nil:
		return err
	default:
		switch m := typed.(type) {
		case messages.Header:
			event = event.Uint16("code", m.MessageType).Uint32("length", m.PacketLength)
		case messages.Door:
			event = event.Str("command", messages.CommandName(m.Command))
		case messages.Lights:
			event = event.Uint16("dimmer", m.DimmerValue)
		}
	}
	event.Msg("ingest message")
	return nil
}

// MetricsSink counts messages by type before handing them to Next.
type MetricsSink struct {
	Next dispatch.Sink
}

func (s MetricsSink) Emit(ctx context.Context, msg schema.Message) error {
	observability.RecordMessage(msg.Type)
	if s.Next == nil {
		return nil
	}
	return s.Next.Emit(ctx, msg)
}

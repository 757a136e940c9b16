// Package dispatch feeds transport bytes through a connection's parser and
// hands each completed message to a sink, in arrival order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/edgewire/internal/protocol/parser"
	"github.com/danmuck/edgewire/internal/protocol/schema"
)

const DefaultReadBuffer = 4096

var (
	ErrHalted            = errors.New("dispatch: halted after fatal error")
	ErrIncompleteMessage = errors.New("dispatch: stream ended mid-message")
	ErrEmit              = errors.New("dispatch: sink rejected message")
)

// Sink receives decoded messages. Emit runs synchronously with byte
// consumption; a returned error halts the dispatcher.
type Sink interface {
	Emit(ctx context.Context, msg schema.Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg schema.Message) error

func (f SinkFunc) Emit(ctx context.Context, msg schema.Message) error {
	return f(ctx, msg)
}

// Stats counts consumed bytes and emitted messages.
type Stats struct {
	Bytes    uint64
	Messages uint64
}

type Option func(*Dispatcher)

// WithReadBuffer sets the chunk size Run reads from the transport.
func WithReadBuffer(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.readBuffer = n
		}
	}
}

// Dispatcher owns one connection's parser. It is not safe for concurrent use.
type Dispatcher struct {
	parser     *parser.Parser
	sink       Sink
	readBuffer int
	stats      Stats
	err        error
}

func New(reg *schema.Registry, sink Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		parser:     parser.New(reg),
		sink:       sink,
		readBuffer: DefaultReadBuffer,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed consumes chunk byte by byte, emitting each message before the next
// byte is applied. The first parse or sink error halts the dispatcher.
func (d *Dispatcher) Feed(ctx context.Context, chunk []byte) error {
	if d.err != nil {
		return fmt.Errorf("%w: %w", ErrHalted, d.err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, b := range chunk {
		msg, ok, err := d.parser.ConsumeByte(b)
		if err != nil {
			d.err = err
			return err
		}
		d.stats.Bytes++
		if !ok {
			continue
		}
		if err := d.sink.Emit(ctx, msg); err != nil {
			d.err = fmt.Errorf("%w: type=%s: %w", ErrEmit, msg.Type, err)
			return d.err
		}
		d.stats.Messages++
	}
	return nil
}

// Run reads r until EOF or a fatal error. A clean EOF on a message boundary
// returns nil.
func (d *Dispatcher) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, d.readBuffer)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if err := d.Feed(ctx, buf[:n]); err != nil {
				return err
			}
		}
		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			if d.Pending() {
				return fmt.Errorf("%w: expected=%s", ErrIncompleteMessage, d.parser.Expected())
			}
			return nil
		}
		return readErr
	}
}

// Pending reports whether the stream stopped inside a message: a partial
// header or body is buffered, or a header still awaits its body.
func (d *Dispatcher) Pending() bool {
	return d.parser.Pending() || d.parser.State() == parser.StateAwaitingBody
}

func (d *Dispatcher) Stats() Stats {
	return d.stats
}

// Err returns the fatal error that halted the dispatcher, if any.
func (d *Dispatcher) Err() error {
	return d.err
}

// Package parser implements the per-connection incremental decoder.
//
// A Parser consumes one byte at a time. It always expects a header first;
// a completed header selects the body schema through its message_type code,
// and a completed body returns the parser to the header. Any decode or
// resolution failure is fatal: the byte alignment can no longer be trusted
// and the protocol has no delimiter to resynchronize on.
package parser

import (
	"errors"
	"fmt"

	"github.com/danmuck/edgewire/internal/protocol/buffer"
	"github.com/danmuck/edgewire/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

var ErrDesynchronized = errors.New("parser: stream desynchronized")

// State is the logical parser state.
type State uint8

const (
	StateAwaitingHeader State = iota + 1
	StateAwaitingBody
)

func (s State) String() string {
	switch s {
	case StateAwaitingHeader:
		return "awaiting_header"
	case StateAwaitingBody:
		return "awaiting_body"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Parser holds one connection's expected schema and buffer pool.
// It is not safe for concurrent use.
type Parser struct {
	reg      *schema.Registry
	pool     buffer.Pool
	schemas  map[string]schema.Schema
	expected string
	err      error
}

// New returns a parser awaiting a header, with a freshly allocated pool.
func New(reg *schema.Registry) *Parser {
	names := reg.Names()
	schemas := make(map[string]schema.Schema, len(names))
	for _, name := range names {
		s, err := reg.Schema(name)
		if err != nil {
			panic(err)
		}
		schemas[name] = s
	}
	return &Parser{
		reg:      reg,
		pool:     buffer.NewPool(reg),
		schemas:  schemas,
		expected: schema.HeaderName,
	}
}

// ConsumeByte applies one byte. ok reports whether b completed a message.
// After the first error every call returns that error without consuming.
func (p *Parser) ConsumeByte(b byte) (msg schema.Message, ok bool, err error) {
	if p.err != nil {
		return schema.Message{}, false, p.err
	}
	slot, err := p.pool.Slot(p.expected)
	if err != nil {
		return p.fail(err)
	}
	if !slot.Put(b) {
		return schema.Message{}, false, nil
	}

	s, found := p.schemas[p.expected]
	if !found {
		return p.fail(&schema.UnknownSchemaError{Name: p.expected})
	}
	msg, err = schema.Decode(s, slot.Bytes())
	if err != nil {
		return p.fail(err)
	}

	if p.expected != schema.HeaderName {
		p.expected = schema.HeaderName
		return msg, true, nil
	}

	code, err := msg.Uint(schema.FieldMessageType)
	if err != nil {
		return p.fail(err)
	}
	next, err := p.reg.ResolveCode(uint16(code))
	if err != nil {
		return p.fail(err)
	}
	p.expected = next
	return msg, true, nil
}

// Consume applies chunk one byte at a time. On error it returns the
// messages completed before the failing byte.
func (p *Parser) Consume(chunk []byte) ([]schema.Message, error) {
	var out []schema.Message
	for _, b := range chunk {
		msg, ok, err := p.ConsumeByte(b)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Expected is the schema name the next byte belongs to.
func (p *Parser) Expected() string {
	return p.expected
}

func (p *Parser) State() State {
	if p.expected == schema.HeaderName {
		return StateAwaitingHeader
	}
	return StateAwaitingBody
}

// Pending reports whether a message is partially buffered.
func (p *Parser) Pending() bool {
	slot, err := p.pool.Slot(p.expected)
	return err == nil && slot.Cursor() != 0
}

// Err returns the fatal error, if any.
func (p *Parser) Err() error {
	return p.err
}

func (p *Parser) fail(cause error) (schema.Message, bool, error) {
	p.err = fmt.Errorf("%w: %w", ErrDesynchronized, cause)
	log.Debug().
		Str("expected", p.expected).
		Err(cause).
		Msg("parser.Parser.ConsumeByte fatal")
	return schema.Message{}, false, p.err
}

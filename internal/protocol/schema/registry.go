package schema

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownMessageType = errors.New("schema: unknown message type")
	ErrUnknownSchema      = errors.New("schema: unknown schema")
	ErrInvalidRegistry    = errors.New("schema: invalid registry")
)

// UnknownMessageTypeError reports a header code with no registered schema.
type UnknownMessageTypeError struct {
	Code uint16
}

func (e *UnknownMessageTypeError) Error() string {
	return fmt.Sprintf("schema: unknown message type code=0x%02X", e.Code)
}

func (e *UnknownMessageTypeError) Is(target error) bool {
	return target == ErrUnknownMessageType
}

// UnknownSchemaError reports a lookup for a schema name that is not registered.
type UnknownSchemaError struct {
	Name string
}

func (e *UnknownSchemaError) Error() string {
	return fmt.Sprintf("schema: unknown schema name=%q", e.Name)
}

func (e *UnknownSchemaError) Is(target error) bool {
	return target == ErrUnknownSchema
}

// Body binds a non-header schema to its message type code.
type Body struct {
	Code   uint16
	Schema Schema
}

// Registry maps schema names to layouts and header codes to schema names.
// It is read-only after NewRegistry returns and safe for concurrent use.
type Registry struct {
	header  Schema
	schemas map[string]Schema
	codes   map[uint16]string
	byName  map[string]uint16
	names   []string
}

// NewRegistry validates bodies against the header schema and returns an
// immutable registry.
func NewRegistry(bodies ...Body) (*Registry, error) {
	if len(bodies) == 0 {
		return nil, fmt.Errorf("%w: no body schemas", ErrInvalidRegistry)
	}
	header := clone(Header)
	r := &Registry{
		header:  header,
		schemas: map[string]Schema{header.Name: header},
		codes:   make(map[uint16]string, len(bodies)),
		byName:  make(map[string]uint16, len(bodies)),
		names:   []string{header.Name},
	}

	sorted := slices.Clone(bodies)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })
	for _, b := range sorted {
		if err := b.Schema.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
		}
		if b.Schema.Name == HeaderName {
			return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidRegistry, HeaderName)
		}
		if _, dup := r.schemas[b.Schema.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate schema %q", ErrInvalidRegistry, b.Schema.Name)
		}
		if prev, dup := r.codes[b.Code]; dup {
			return nil, fmt.Errorf("%w: code 0x%02X used by %q and %q", ErrInvalidRegistry, b.Code, prev, b.Schema.Name)
		}
		s := clone(b.Schema)
		r.schemas[s.Name] = s
		r.codes[b.Code] = s.Name
		r.byName[s.Name] = b.Code
		r.names = append(r.names, s.Name)
		log.Debug().
			Str("schema", s.Name).
			Uint16("code", b.Code).
			Int("size", s.Size()).
			Msg("schema.NewRegistry registered")
	}
	return r, nil
}

// MustRegistry is NewRegistry for static tables known to be valid.
func MustRegistry(bodies ...Body) *Registry {
	r, err := NewRegistry(bodies...)
	if err != nil {
		panic(err)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in registry: header, door and lights.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = MustRegistry(
			Body{Code: CodeDoor, Schema: Door},
			Body{Code: CodeLights, Schema: Lights},
		)
	})
	return defaultRegistry
}

// Header returns the header schema.
func (r *Registry) Header() Schema {
	return clone(r.header)
}

// Schema returns the schema registered under name.
func (r *Registry) Schema(name string) (Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return Schema{}, &UnknownSchemaError{Name: name}
	}
	return clone(s), nil
}

// ResolveCode returns the schema name registered for a header code.
func (r *Registry) ResolveCode(code uint16) (string, error) {
	name, ok := r.codes[code]
	if !ok {
		return "", &UnknownMessageTypeError{Code: code}
	}
	return name, nil
}

// Code returns the header code for a body schema name. The header itself has none.
func (r *Registry) Code(name string) (uint16, bool) {
	code, ok := r.byName[name]
	return code, ok
}

// Names lists the header first, then body schemas in code order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

func clone(s Schema) Schema {
	return Schema{Name: s.Name, Fields: slices.Clone(s.Fields)}
}

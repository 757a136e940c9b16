// Package buffer holds the per-connection message buffers.
//
// Every schema gets one slot, allocated once and sized exactly to the
// schema's byte width. Slots are overwritten in place for every message of
// that type, so steady-state parsing allocates no buffers.
package buffer

import (
	"github.com/danmuck/edgewire/internal/protocol/schema"
)

// Slot is a fixed-size buffer with a write cursor.
// Invariant: 0 <= cursor < len(storage) between writes.
type Slot struct {
	cursor  int
	storage []byte
}

// NewSlot allocates a slot of size bytes. size must be positive.
func NewSlot(size int) *Slot {
	if size < 1 {
		panic("buffer: slot size must be positive")
	}
	return &Slot{storage: make([]byte, size)}
}

// Put stores b at the cursor. It reports true when b filled the last
// byte, in which case the cursor is back at 0 and Bytes holds a complete
// message until the next write.
func (s *Slot) Put(b byte) bool {
	s.storage[s.cursor] = b
	if s.cursor == len(s.storage)-1 {
		s.cursor = 0
		return true
	}
	s.cursor++
	return false
}

// Cursor is the offset of the next write.
func (s *Slot) Cursor() int {
	return s.cursor
}

// Len is the slot capacity in bytes.
func (s *Slot) Len() int {
	return len(s.storage)
}

// Bytes exposes the slot storage. Callers must not retain it past the next write.
func (s *Slot) Bytes() []byte {
	return s.storage
}

// Pool is one slot per registered schema, owned by a single connection.
type Pool map[string]*Slot

// NewPool allocates a slot for every schema in reg.
func NewPool(reg *schema.Registry) Pool {
	names := reg.Names()
	p := make(Pool, len(names))
	for _, name := range names {
		s, err := reg.Schema(name)
		if err != nil {
			// Names only lists registered schemas.
			panic(err)
		}
		p[name] = NewSlot(s.Size())
	}
	return p
}

// Slot returns the slot for a schema name.
func (p Pool) Slot(name string) (*Slot, error) {
	s, ok := p[name]
	if !ok {
		return nil, &schema.UnknownSchemaError{Name: name}
	}
	return s, nil
}

// Package codec reads and writes fixed-width big-endian unsigned integers.
//
// Widths 1 through 4 are supported. Values never sign-extend; a 3-byte
// field holds [0, 2^24-1].
package codec

import (
	"errors"
	"fmt"
)

const MaxWidth = 4

var (
	ErrTruncated     = errors.New("codec: truncated input")
	ErrInvalidWidth  = errors.New("codec: invalid field width")
	ErrInvalidCount  = errors.New("codec: invalid field count")
	ErrValueOverflow = errors.New("codec: value overflows field width")
)

// TruncatedInputError reports a read that needed more bytes than remained.
type TruncatedInputError struct {
	Offset    int
	Width     int
	Remaining int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("codec: truncated input offset=%d width=%d remaining=%d", e.Offset, e.Width, e.Remaining)
}

func (e *TruncatedInputError) Is(target error) bool {
	return target == ErrTruncated
}

// ValidWidth reports whether width is a supported field width.
func ValidWidth(width int) bool {
	return width >= 1 && width <= MaxWidth
}

// Uint decodes one value of width bytes at offset and returns it with the
// offset of the next unread byte.
func Uint(buf []byte, offset, width int) (uint32, int, error) {
	if !ValidWidth(width) {
		return 0, offset, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	if offset < 0 || len(buf)-offset < width {
		remaining := len(buf) - offset
		if remaining < 0 || offset < 0 {
			remaining = 0
		}
		return 0, offset, &TruncatedInputError{Offset: offset, Width: width, Remaining: remaining}
	}
	var v uint32
	for _, b := range buf[offset : offset+width] {
		v = v<<8 | uint32(b)
	}
	return v, offset + width, nil
}

// Uints decodes count consecutive values of width bytes in read order.
func Uints(buf []byte, offset, width, count int) ([]uint32, int, error) {
	if count < 1 {
		return nil, offset, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	out := make([]uint32, count)
	for i := range out {
		v, next, err := Uint(buf, offset, width)
		if err != nil {
			return nil, offset, err
		}
		out[i] = v
		offset = next
	}
	return out, offset, nil
}

// PutUint encodes v into width bytes at offset.
func PutUint(buf []byte, offset, width int, v uint32) (int, error) {
	if !ValidWidth(width) {
		return offset, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	if width < MaxWidth && v>>(8*uint(width)) != 0 {
		return offset, fmt.Errorf("%w: value=%d width=%d", ErrValueOverflow, v, width)
	}
	if offset < 0 || len(buf)-offset < width {
		remaining := len(buf) - offset
		if remaining < 0 || offset < 0 {
			remaining = 0
		}
		return offset, &TruncatedInputError{Offset: offset, Width: width, Remaining: remaining}
	}
	for i := width - 1; i >= 0; i-- {
		buf[offset+i] = byte(v)
		v >>= 8
	}
	return offset + width, nil
}

// Package binrw provides big-endian byte cursors used by the AWD codec.
package binrw

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortRead is returned when a read would run past the end of the data.
var ErrShortRead = errors.New("binrw: unexpected end of data")

// Reader is a cursor over an in-memory byte slice.
// Offsets reported by Offset are absolute: they include the base the reader
// was created with, so sub-readers keep pointing into the original image.
type Reader struct {
	data []byte
	pos  int
	base int
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NewReaderAt creates a Reader whose first byte lives at absolute offset base.
func NewReaderAt(data []byte, base int) *Reader {
	return &Reader{data: data, base: base}
}

// Position returns the position relative to the start of this reader.
func (r *Reader) Position() int {
	return r.pos
}

// Offset returns the absolute offset of the next byte.
func (r *Reader) Offset() int {
	return r.base + r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// Size returns the total number of bytes covered by the reader.
func (r *Reader) Size() int {
	return len(r.data)
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, r.wrapError(ErrShortRead)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadI8 reads a signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadI16 reads a big-endian int16.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadI32 reads a big-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadF32 reads a big-endian IEEE 754 float32.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

// ReadF64 reads a big-endian IEEE 754 float64.
func (r *Reader) ReadF64() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ReadBytes reads exactly n bytes. The result is a copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadString16 reads a string prefixed with a uint16 byte length.
// The bytes are returned as-is; text validation is up to the caller.
func (r *Reader) ReadString16() ([]byte, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// Sub returns a reader over the next n bytes and advances past them.
func (r *Reader) Sub(n int) (*Reader, error) {
	start := r.Offset()
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return NewReaderAt(b, start), nil
}

// Remaining returns the unread bytes without advancing.
func (r *Reader) Remaining() []byte {
	return r.data[r.pos:]
}

func (r *Reader) wrapError(err error) error {
	return &PositionError{Offset: r.Offset(), Err: err}
}

// PositionError carries the absolute offset at which a read failed.
type PositionError struct {
	Offset int
	Err    error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("at offset %d: %v", e.Offset, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

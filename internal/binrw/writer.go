package binrw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

// ErrStringTooLong is returned when a string does not fit a uint16 length prefix.
var ErrStringTooLong = errors.New("binrw: string longer than 65535 bytes")

// Writer accumulates big-endian encoded values.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// U8 writes a single byte.
func (w *Writer) U8(v uint8) {
	w.buf.WriteByte(v)
}

// U16 writes a big-endian uint16.
func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// U32 writes a big-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// I8 writes a signed byte.
func (w *Writer) I8(v int8) { w.U8(uint8(v)) }

// I16 writes a big-endian int16.
func (w *Writer) I16(v int16) { w.U16(uint16(v)) }

// I32 writes a big-endian int32.
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

// F32 writes a big-endian float32.
func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

// F64 writes a big-endian float64.
func (w *Writer) F64(v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
}

// Write appends raw bytes.
func (w *Writer) Write(p []byte) {
	w.buf.Write(p)
}

// String16 writes s prefixed with its uint16 byte length.
func (w *Writer) String16(s string) error {
	if len(s) > math.MaxUint16 {
		return ErrStringTooLong
	}
	w.U16(uint16(len(s)))
	w.buf.WriteString(s)
	return nil
}

// Package property implements the AWD property table: an ordered list of
// (key, type tag, length, value) entries embedded at the tail of every block.
package property

import (
	"errors"
	"fmt"

	"github.com/Faultbox/awdkit/pkg/math"
)

// Property table errors.
var (
	ErrTruncatedTable = errors.New("truncated property table")
	ErrMalformed      = errors.New("malformed property")
	ErrValueType      = errors.New("property value does not match its type")
)

// Key identifies an entry within one table.
type Key uint16

// Type is the on-disk type tag of an entry.
type Type uint8

// Known type tags.
const (
	Int8    Type = 1
	Int16   Type = 2
	Int32   Type = 3
	Float32 Type = 4
	Float64 Type = 5
	String  Type = 6  // UTF-8, length from the entry header
	Bytes   Type = 7  // raw byte vector
	Vector  Type = 8  // element tag byte followed by elements
	Matrix  Type = 9  // 16 float64, row-major
	Uint8   Type = 10
	Uint16  Type = 11
	Uint32  Type = 12
	Bool    Type = 13
	Color   Type = 14 // packed RGBA
)

// matrixSize is the encoded size of a Matrix value.
const matrixSize = 16 * 8

// String returns the tag name.
func (t Type) String() string {
	switch t {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Bytes:
		return "bytes"
	case Vector:
		return "vector"
	case Matrix:
		return "matrix"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Bool:
		return "bool"
	case Color:
		return "color"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Known reports whether this reader understands the tag.
func (t Type) Known() bool {
	return t >= Int8 && t <= Color
}

// Size returns the fixed encoded size of a value of this type.
// ok is false for variable-length and unknown types.
func (t Type) Size() (size int, ok bool) {
	switch t {
	case Int8, Uint8, Bool:
		return 1, true
	case Int16, Uint16:
		return 2, true
	case Int32, Uint32, Float32, Color:
		return 4, true
	case Float64:
		return 8, true
	case Matrix:
		return matrixSize, true
	default:
		return 0, false
	}
}

// Numeric reports whether the type is a scalar number usable as a vector
// or geometry stream element.
func (t Type) Numeric() bool {
	switch t {
	case Int8, Int16, Int32, Float32, Float64, Uint8, Uint16, Uint32:
		return true
	default:
		return false
	}
}

// ColorValue is a packed 0xRRGGBBAA color.
type ColorValue uint32

// RGBA unpacks the color channels.
func (c ColorValue) RGBA() (r, g, b, a uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// RGBA packs channels into a ColorValue.
func RGBA(r, g, b, a uint8) ColorValue {
	return ColorValue(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

// VectorValue is a homogeneous numeric vector. Values are held as float64,
// which represents every supported element type exactly.
type VectorValue struct {
	Elem   Type
	Values []float64
}

// Len returns the number of elements.
func (v VectorValue) Len() int {
	return len(v.Values)
}

// MatrixValue is the value type of Matrix entries.
type MatrixValue = math.Mat4

package property

import (
	"fmt"
	"math"

	"github.com/Faultbox/awdkit/internal/binrw"
)

// entryHeaderSize is key (u16) + type tag (u8) + length (u32).
const entryHeaderSize = 7

// Read reads a length-prefixed table: a u32 byte length followed by that
// many bytes of entries. A length running past the end of r fails with
// ErrTruncatedTable.
func Read(r *binrw.Reader) (Table, error) {
	start := r.Offset()
	n, err := r.ReadU32()
	if err != nil {
		return nil, &binrw.PositionError{Offset: start, Err: fmt.Errorf("%w: missing length", ErrTruncatedTable)}
	}
	if int64(n) > int64(r.Len()) {
		return nil, &binrw.PositionError{
			Offset: start,
			Err:    fmt.Errorf("%w: declared %d bytes, %d available", ErrTruncatedTable, n, r.Len()),
		}
	}
	sub, err := r.Sub(int(n))
	if err != nil {
		return nil, err
	}
	return decodeEntries(sub)
}

// Decode parses the entries of a table whose declared length is len(data).
func Decode(data []byte) (Table, error) {
	return decodeEntries(binrw.NewReader(data))
}

func decodeEntries(r *binrw.Reader) (Table, error) {
	var t Table
	for r.Len() > 0 {
		start := r.Offset()
		if r.Len() < entryHeaderSize {
			return nil, &binrw.PositionError{
				Offset: start,
				Err:    fmt.Errorf("%w: %d bytes left for a %d byte entry header", ErrTruncatedTable, r.Len(), entryHeaderSize),
			}
		}
		key, _ := r.ReadU16()
		tag, _ := r.ReadU8()
		length, _ := r.ReadU32()
		if int64(length) > int64(r.Len()) {
			return nil, &binrw.PositionError{
				Offset: start,
				Err:    fmt.Errorf("%w: key %d declares %d bytes, %d left", ErrTruncatedTable, key, length, r.Len()),
			}
		}
		raw, _ := r.ReadBytes(int(length))

		value, err := decodeValue(Type(tag), raw)
		if err != nil {
			return nil, &binrw.PositionError{Offset: start, Err: fmt.Errorf("key %d: %w", key, err)}
		}
		t = append(t, Entry{Key: Key(key), Type: Type(tag), Value: value})
	}
	return t, nil
}

func decodeValue(typ Type, raw []byte) (any, error) {
	if size, fixed := typ.Size(); fixed && len(raw) != size {
		return nil, fmt.Errorf("%w: %s needs %d bytes, entry has %d", ErrMalformed, typ, size, len(raw))
	}
	r := binrw.NewReader(raw)
	switch typ {
	case Int8:
		return r.ReadI8()
	case Int16:
		return r.ReadI16()
	case Int32:
		return r.ReadI32()
	case Float32:
		return r.ReadF32()
	case Float64:
		return r.ReadF64()
	case Uint8:
		return r.ReadU8()
	case Uint16:
		return r.ReadU16()
	case Uint32:
		return r.ReadU32()
	case Color:
		v, err := r.ReadU32()
		return ColorValue(v), err
	case Bool:
		v, _ := r.ReadU8()
		if v > 1 {
			return nil, fmt.Errorf("%w: bool byte 0x%02x", ErrMalformed, v)
		}
		return v == 1, nil
	case String:
		return string(raw), nil
	case Bytes:
		return raw, nil
	case Matrix:
		var m MatrixValue
		for i := range m {
			m[i], _ = r.ReadF64()
		}
		return m, nil
	case Vector:
		return decodeVector(r)
	default:
		// Unknown tag: keep the bytes so a newer writer's data survives.
		return raw, nil
	}
}

func decodeVector(r *binrw.Reader) (VectorValue, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return VectorValue{}, fmt.Errorf("%w: vector without element type", ErrMalformed)
	}
	elem := Type(tag)
	if !elem.Numeric() {
		return VectorValue{}, fmt.Errorf("%w: vector element type %s", ErrMalformed, elem)
	}
	size, _ := elem.Size()
	if r.Len()%size != 0 {
		return VectorValue{}, fmt.Errorf("%w: %d bytes is not a whole number of %s elements", ErrMalformed, r.Len(), elem)
	}
	values, err := ReadNumbers(r, elem, r.Len()/size)
	if err != nil {
		return VectorValue{}, err
	}
	return VectorValue{Elem: elem, Values: values}, nil
}

// ReadNumbers reads n elements of a numeric type as float64.
func ReadNumbers(r *binrw.Reader, elem Type, n int) ([]float64, error) {
	size, ok := elem.Size()
	if !ok || !elem.Numeric() {
		return nil, fmt.Errorf("%w: %s is not numeric", ErrMalformed, elem)
	}
	if n*size > r.Len() {
		return nil, &binrw.PositionError{Offset: r.Offset(), Err: binrw.ErrShortRead}
	}
	values := make([]float64, n)
	for i := range values {
		switch elem {
		case Int8:
			v, _ := r.ReadI8()
			values[i] = float64(v)
		case Int16:
			v, _ := r.ReadI16()
			values[i] = float64(v)
		case Int32:
			v, _ := r.ReadI32()
			values[i] = float64(v)
		case Uint8:
			v, _ := r.ReadU8()
			values[i] = float64(v)
		case Uint16:
			v, _ := r.ReadU16()
			values[i] = float64(v)
		case Uint32:
			v, _ := r.ReadU32()
			values[i] = float64(v)
		case Float32:
			v, _ := r.ReadF32()
			values[i] = float64(v)
		case Float64:
			values[i], _ = r.ReadF64()
		}
	}
	return values, nil
}

// WriteNumbers writes values as elements of a numeric type. Float32
// elements are rounded; integer elements must hold whole in-range values.
func WriteNumbers(w *binrw.Writer, elem Type, values []float64) error {
	if !elem.Numeric() {
		return fmt.Errorf("%w: %s is not numeric", ErrValueType, elem)
	}
	for i, v := range values {
		if !fits(elem, v) {
			return fmt.Errorf("%w: element %d (%v) does not fit %s", ErrValueType, i, v, elem)
		}
		switch elem {
		case Int8:
			w.I8(int8(v))
		case Int16:
			w.I16(int16(v))
		case Int32:
			w.I32(int32(v))
		case Uint8:
			w.U8(uint8(v))
		case Uint16:
			w.U16(uint16(v))
		case Uint32:
			w.U32(uint32(v))
		case Float32:
			w.F32(float32(v))
		case Float64:
			w.F64(v)
		}
	}
	return nil
}

func fits(elem Type, v float64) bool {
	switch elem {
	case Float64, Float32:
		return true
	}
	if v != math.Trunc(v) {
		return false
	}
	switch elem {
	case Int8:
		return v >= math.MinInt8 && v <= math.MaxInt8
	case Int16:
		return v >= math.MinInt16 && v <= math.MaxInt16
	case Int32:
		return v >= math.MinInt32 && v <= math.MaxInt32
	case Uint8:
		return v >= 0 && v <= math.MaxUint8
	case Uint16:
		return v >= 0 && v <= math.MaxUint16
	case Uint32:
		return v >= 0 && v <= math.MaxUint32
	}
	return false
}

// Encode returns the entries of t without the length prefix.
// Entries are written in table order.
func (t Table) Encode() ([]byte, error) {
	w := binrw.NewWriter()
	for _, e := range t {
		if err := writeEntry(w, e); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// Write writes t with its u32 length prefix.
func Write(w *binrw.Writer, t Table) error {
	body, err := t.Encode()
	if err != nil {
		return err
	}
	if int64(len(body)) > math.MaxUint32 {
		return fmt.Errorf("%w: table of %d bytes", ErrMalformed, len(body))
	}
	w.U32(uint32(len(body)))
	w.Write(body)
	return nil
}

func writeEntry(w *binrw.Writer, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	value := binrw.NewWriter()
	switch v := e.Value.(type) {
	case int8:
		value.I8(v)
	case int16:
		value.I16(v)
	case int32:
		value.I32(v)
	case float32:
		value.F32(v)
	case float64:
		value.F64(v)
	case uint8:
		value.U8(v)
	case uint16:
		value.U16(v)
	case uint32:
		value.U32(v)
	case ColorValue:
		value.U32(uint32(v))
	case bool:
		if v {
			value.U8(1)
		} else {
			value.U8(0)
		}
	case string:
		value.Write([]byte(v))
	case []byte:
		value.Write(v)
	case MatrixValue:
		for _, f := range v {
			value.F64(f)
		}
	case VectorValue:
		value.U8(uint8(v.Elem))
		if err := WriteNumbers(value, v.Elem, v.Values); err != nil {
			return fmt.Errorf("key %d: %w", e.Key, err)
		}
	}
	if int64(value.Len()) > math.MaxUint32 {
		return fmt.Errorf("%w: key %d value of %d bytes", ErrMalformed, e.Key, value.Len())
	}
	w.U16(uint16(e.Key))
	w.U8(uint8(e.Type))
	w.U32(uint32(value.Len()))
	w.Write(value.Bytes())
	return nil
}

package property

import (
	"fmt"
)

// Entry is a single property. For known types Value holds the Go type
// listed below; entries with an unknown tag hold their raw bytes.
//
//	Int8 int8, Int16 int16, Int32 int32, Float32 float32, Float64 float64,
//	String string, Bytes []byte, Vector VectorValue, Matrix MatrixValue,
//	Uint8 uint8, Uint16 uint16, Uint32 uint32, Bool bool, Color ColorValue
type Entry struct {
	Key   Key
	Type  Type
	Value any
}

// Opaque reports whether the entry carries a tag this reader does not know.
func (e Entry) Opaque() bool {
	return !e.Type.Known()
}

// NewEntry builds an entry, inferring the type tag from the Go value.
func NewEntry(key Key, value any) (Entry, error) {
	var typ Type
	switch v := value.(type) {
	case int8:
		typ = Int8
	case int16:
		typ = Int16
	case int32:
		typ = Int32
	case float32:
		typ = Float32
	case float64:
		typ = Float64
	case string:
		typ = String
	case []byte:
		typ = Bytes
	case VectorValue:
		typ = Vector
	case MatrixValue:
		typ = Matrix
	case uint8:
		typ = Uint8
	case uint16:
		typ = Uint16
	case uint32:
		typ = Uint32
	case bool:
		typ = Bool
	case ColorValue:
		typ = Color
	default:
		return Entry{}, fmt.Errorf("%w: unsupported Go type %T", ErrValueType, v)
	}
	e := Entry{Key: key, Type: typ, Value: value}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Validate checks that Value has the Go type required by Type.
func (e Entry) Validate() error {
	ok := false
	switch e.Type {
	case Int8:
		_, ok = e.Value.(int8)
	case Int16:
		_, ok = e.Value.(int16)
	case Int32:
		_, ok = e.Value.(int32)
	case Float32:
		_, ok = e.Value.(float32)
	case Float64:
		_, ok = e.Value.(float64)
	case String:
		_, ok = e.Value.(string)
	case Bytes:
		_, ok = e.Value.([]byte)
	case Vector:
		var v VectorValue
		if v, ok = e.Value.(VectorValue); ok && !v.Elem.Numeric() {
			return fmt.Errorf("%w: key %d: vector element type %s is not numeric", ErrValueType, e.Key, v.Elem)
		}
	case Matrix:
		_, ok = e.Value.(MatrixValue)
	case Uint8:
		_, ok = e.Value.(uint8)
	case Uint16:
		_, ok = e.Value.(uint16)
	case Uint32:
		_, ok = e.Value.(uint32)
	case Bool:
		_, ok = e.Value.(bool)
	case Color:
		_, ok = e.Value.(ColorValue)
	default:
		_, ok = e.Value.([]byte)
	}
	if !ok {
		return fmt.Errorf("%w: key %d: type %s with value %T", ErrValueType, e.Key, e.Type, e.Value)
	}
	return nil
}

// Table is an ordered list of entries. Keys are unique in tables built
// through Set; decoded tables keep whatever the input held.
type Table []Entry

// Get returns the first entry with the given key.
func (t Table) Get(key Key) (Entry, bool) {
	for _, e := range t {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Has reports whether key is present.
func (t Table) Has(key Key) bool {
	_, ok := t.Get(key)
	return ok
}

// Set stores value under key, replacing an existing entry in place or
// appending a new one.
func (t *Table) Set(key Key, value any) error {
	e, err := NewEntry(key, value)
	if err != nil {
		return err
	}
	t.Put(e)
	return nil
}

// Put stores a prepared entry, replacing an existing one with the same key.
func (t *Table) Put(e Entry) {
	for i := range *t {
		if (*t)[i].Key == e.Key {
			(*t)[i] = e
			return
		}
	}
	*t = append(*t, e)
}

// Delete removes every entry with the given key.
func (t *Table) Delete(key Key) {
	out := (*t)[:0]
	for _, e := range *t {
		if e.Key != key {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	*t = out
}

// Keys returns the keys in table order.
func (t Table) Keys() []Key {
	keys := make([]Key, 0, len(t))
	for _, e := range t {
		keys = append(keys, e.Key)
	}
	return keys
}

// Duplicates returns keys that appear more than once, in first-seen order.
func (t Table) Duplicates() []Key {
	seen := make(map[Key]int, len(t))
	var dups []Key
	for _, e := range t {
		seen[e.Key]++
		if seen[e.Key] == 2 {
			dups = append(dups, e.Key)
		}
	}
	return dups
}

// Opaque returns the entries with unknown type tags.
func (t Table) Opaque() []Entry {
	var out []Entry
	for _, e := range t {
		if e.Opaque() {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, e := range t {
		switch v := e.Value.(type) {
		case []byte:
			e.Value = append([]byte(nil), v...)
		case VectorValue:
			e.Value = VectorValue{Elem: v.Elem, Values: append([]float64(nil), v.Values...)}
		}
		out[i] = e
	}
	return out
}

// Float64 returns a numeric entry converted to float64.
func (t Table) Float64(key Key) (float64, bool) {
	e, ok := t.Get(key)
	if !ok {
		return 0, false
	}
	switch v := e.Value.(type) {
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// Text returns a string entry.
func (t Table) Text(key Key) (string, bool) {
	e, ok := t.Get(key)
	if !ok {
		return "", false
	}
	s, ok := e.Value.(string)
	return s, ok
}

// Bool returns a bool entry.
func (t Table) Bool(key Key) (bool, bool) {
	e, ok := t.Get(key)
	if !ok {
		return false, false
	}
	b, ok := e.Value.(bool)
	return b, ok
}

// Color returns a color entry.
func (t Table) Color(key Key) (ColorValue, bool) {
	e, ok := t.Get(key)
	if !ok {
		return 0, false
	}
	c, ok := e.Value.(ColorValue)
	return c, ok
}

// Matrix returns a matrix entry.
func (t Table) Matrix(key Key) (MatrixValue, bool) {
	e, ok := t.Get(key)
	if !ok {
		return MatrixValue{}, false
	}
	m, ok := e.Value.(MatrixValue)
	return m, ok
}

// Package encoding provides text helpers for names and string properties
// stored in AWD documents.
//
// AWD text is UTF-8. Some older exporters wrote names in the host's legacy
// code page; Decoder repairs those when a charset is configured.
package encoding

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Decoder converts raw text bytes read from a document into Go strings.
type Decoder struct {
	charset string
	enc     xenc.Encoding
}

// NewDecoder returns a Decoder that falls back to the named legacy charset
// (any WHATWG label, e.g. "windows-1252", "euc-kr", "shift_jis") for text
// that is not valid UTF-8. An empty name disables transcoding.
func NewDecoder(charset string) (*Decoder, error) {
	d := &Decoder{charset: charset}
	if charset == "" {
		return d, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	d.enc = enc
	return d, nil
}

// Charset returns the configured fallback charset name.
func (d *Decoder) Charset() string {
	if d == nil {
		return ""
	}
	return d.charset
}

// Decode returns data as a string. ok is false when data was not valid
// UTF-8; in that case the result is transcoded from the fallback charset
// if one is configured, or holds the raw bytes unchanged otherwise.
func (d *Decoder) Decode(data []byte) (s string, ok bool) {
	if utf8.Valid(data) {
		return string(data), true
	}
	if d == nil || d.enc == nil {
		return string(data), false
	}
	result, _, err := transform.Bytes(d.enc.NewDecoder(), data)
	if err != nil {
		// Return as-is if decoding fails
		return string(data), false
	}
	return string(result), false
}

// TrimNull removes trailing null bytes, which some writers pad names with.
func TrimNull(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

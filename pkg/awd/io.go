package awd

import (
	"fmt"
	"io"
	"os"
)

// DecodeReader reads r to the end and decodes it.
func DecodeReader(r io.Reader, opts ...Option) (*Document, Warnings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("awd: read: %w", err)
	}
	return Decode(data, opts...)
}

// EncodeWriter encodes doc and writes it to w.
func EncodeWriter(w io.Writer, doc *Document, opts ...Option) error {
	data, err := Encode(doc, opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("awd: write: %w", err)
	}
	return nil
}

// ParseFile decodes the document stored at path.
func ParseFile(path string, opts ...Option) (*Document, Warnings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("awd: %w", err)
	}
	return Decode(data, opts...)
}

// WriteFile encodes doc to path.
func WriteFile(path string, doc *Document, opts ...Option) error {
	data, err := Encode(doc, opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("awd: %w", err)
	}
	return nil
}

package awd

import (
	"go.uber.org/zap"

	"github.com/Faultbox/awdkit/pkg/encoding"
)

// Option configures Decode and Encode. Options that only apply to one
// direction are ignored by the other.
type Option func(*options)

type options struct {
	registry       *Registry
	charset        string
	logger         *zap.Logger
	compression    *Compression
	wideIndices    bool
	narrowMatrices bool
	maxPayload     int64
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if o.maxPayload <= 0 {
		o.maxPayload = DefaultMaxPayloadSize
	}
	return o
}

func (o options) textDecoder() (*encoding.Decoder, error) {
	if o.charset == "" {
		return nil, nil
	}
	return encoding.NewDecoder(o.charset)
}

// WithRegistry decodes with r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLegacyCharset transcodes names that are not valid UTF-8 from the
// named charset (for example "windows-1252" or "euc-kr").
func WithLegacyCharset(name string) Option {
	return func(o *options) { o.charset = name }
}

// WithLogger overrides the package logger for one call.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCompression overrides the compression stored in the document header.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = &c }
}

// WithWideIndices forces 32-bit block references. They are used anyway
// when the block count does not fit 16 bits.
func WithWideIndices() Option {
	return func(o *options) { o.wideIndices = true }
}

// WithNarrowMatrices stores transforms as float32.
func WithNarrowMatrices() Option {
	return func(o *options) { o.narrowMatrices = true }
}

// WithMaxPayloadSize caps the inflated size of a compressed payload.
// Larger payloads fail with ErrCorruptCompressedStream. The default is
// DefaultMaxPayloadSize.
func WithMaxPayloadSize(n int64) Option {
	return func(o *options) { o.maxPayload = n }
}

// Package config handles awdtool configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/awdkit/internal/logger"
	"github.com/Faultbox/awdkit/pkg/awd"
	"github.com/Faultbox/awdkit/pkg/encoding"
)

// Config holds all awdtool settings.
type Config struct {
	Encode  EncodeConfig  `yaml:"encode"`
	Decode  DecodeConfig  `yaml:"decode"`
	Logging LoggingConfig `yaml:"logging"`
}

// EncodeConfig holds the defaults used when writing documents.
type EncodeConfig struct {
	Compression    string `yaml:"compression"` // none, deflate or lzma; empty keeps the input's
	WideIndices    bool   `yaml:"wide_indices"`
	NarrowMatrices bool   `yaml:"narrow_matrices"`
}

// DecodeConfig holds the defaults used when reading documents.
type DecodeConfig struct {
	LegacyCharset string `yaml:"legacy_charset"` // e.g. windows-1252, euc-kr
	Strict        bool   `yaml:"strict"`         // treat warnings as errors
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if c.Encode.Compression != "" {
		if _, err := awd.ParseCompression(c.Encode.Compression); err != nil {
			return fmt.Errorf("encode.compression: %w", err)
		}
	}
	if c.Decode.LegacyCharset != "" {
		if _, err := encoding.NewDecoder(c.Decode.LegacyCharset); err != nil {
			return fmt.Errorf("decode.legacy_charset: %w", err)
		}
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// EncodeOptions converts the encode section to awd options. Without a
// compression setting the document keeps its own.
func (c *Config) EncodeOptions() ([]awd.Option, error) {
	var opts []awd.Option
	if c.Encode.Compression != "" {
		compression, err := awd.ParseCompression(c.Encode.Compression)
		if err != nil {
			return nil, err
		}
		opts = append(opts, awd.WithCompression(compression))
	}
	if c.Encode.WideIndices {
		opts = append(opts, awd.WithWideIndices())
	}
	if c.Encode.NarrowMatrices {
		opts = append(opts, awd.WithNarrowMatrices())
	}
	return opts, nil
}

// DecodeOptions converts the decode section to awd options.
func (c *Config) DecodeOptions() []awd.Option {
	var opts []awd.Option
	if c.Decode.LegacyCharset != "" {
		opts = append(opts, awd.WithLegacyCharset(c.Decode.LegacyCharset))
	}
	return opts
}

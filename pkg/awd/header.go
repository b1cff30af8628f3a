package awd

import (
	"bytes"
	"fmt"

	"github.com/Faultbox/awdkit/internal/binrw"
)

// Magic opens every AWD document.
const Magic = "AWD\x00"

// headerSize is magic + major + minor + flags.
const headerSize = len(Magic) + 3

// Header flag bits.
const (
	FlagCompressed  uint8 = 1 << 0
	FlagWideIndices uint8 = 1 << 1
	// FlagLZMA selects LZMA over deflate when FlagCompressed is set.
	FlagLZMA uint8 = 1 << 2
)

func readHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < len(Magic) || !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		if len(data) < len(Magic) && bytes.HasPrefix([]byte(Magic), data) {
			return h, fmt.Errorf("%w: %d bytes", ErrTruncatedDocument, len(data))
		}
		return h, ErrBadMagic
	}
	if len(data) < headerSize {
		return h, &binrw.PositionError{Offset: len(data), Err: fmt.Errorf("%w: header needs %d bytes", ErrTruncatedDocument, headerSize)}
	}
	h.Version = Version{Major: data[4], Minor: data[5]}
	if h.Version.Major != CurrentVersion.Major {
		return h, &binrw.PositionError{Offset: 4, Err: fmt.Errorf("%w: %s", ErrUnsupportedVersion, h.Version)}
	}
	flags := data[6]
	h.WideIndices = flags&FlagWideIndices != 0
	switch {
	case flags&FlagCompressed == 0:
		h.Compression = CompressionNone
	case flags&FlagLZMA != 0:
		h.Compression = CompressionLZMA
	default:
		h.Compression = CompressionDeflate
	}
	return h, nil
}

func writeHeader(w *binrw.Writer, h Header) {
	w.Write([]byte(Magic))
	w.U8(h.Version.Major)
	w.U8(h.Version.Minor)
	var flags uint8
	if h.WideIndices {
		flags |= FlagWideIndices
	}
	switch h.Compression {
	case CompressionDeflate:
		flags |= FlagCompressed
	case CompressionLZMA:
		flags |= FlagCompressed | FlagLZMA
	}
	w.U8(flags)
}

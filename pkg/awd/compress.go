package awd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz/lzma"
)

// Compression selects how the payload after the header is stored.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionDeflate
	CompressionLZMA
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionDeflate:
		return "deflate"
	case CompressionLZMA:
		return "lzma"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a name ("none", "deflate"/"zlib", "lzma") to a
// Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "deflate", "zlib":
		return CompressionDeflate, nil
	case "lzma":
		return CompressionLZMA, nil
	default:
		return CompressionNone, fmt.Errorf("awd: unknown compression %q", s)
	}
}

func compress(c Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionDeflate:
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		w = zw
	case CompressionLZMA:
		lw, err := lzma.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		w = lw
	default:
		return nil, fmt.Errorf("awd: unknown compression %s", c)
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefaultMaxPayloadSize caps the inflated payload of a compressed document.
// Index offsets are 32-bit, so no valid document needs more than 4 GiB.
const DefaultMaxPayloadSize = 1 << 30

// decompress inflates data, which must hold exactly one stream. The
// inflated size may not exceed limit bytes.
func decompress(c Compression, data []byte, limit int64) ([]byte, error) {
	// Both decoders read byte-wise from an io.ByteReader, so src is left
	// positioned right after the stream.
	src := bytes.NewReader(data)
	var r io.Reader
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionDeflate:
		zr, err := zlib.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptCompressedStream, err)
		}
		defer zr.Close()
		r = zr
	case CompressionLZMA:
		lr, err := lzma.ReaderConfig{}.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptCompressedStream, err)
		}
		r = lr
	default:
		return nil, fmt.Errorf("%w: unknown compression %s", ErrCorruptCompressedStream, c)
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCompressedStream, c, err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: %s payload exceeds %d bytes", ErrCorruptCompressedStream, c, limit)
	}
	if src.Len() > 0 {
		return nil, fmt.Errorf("%w: %d bytes after the %s stream", ErrCorruptCompressedStream, src.Len(), c)
	}
	return out, nil
}

package awd

import (
	"errors"
	"fmt"

	"github.com/Faultbox/awdkit/internal/binrw"
	"github.com/Faultbox/awdkit/pkg/awd/property"
)

// Fatal errors. Decode and Encode return them wrapped in *OffsetError;
// match with errors.Is.
var (
	ErrBadMagic                    = errors.New("invalid AWD magic")
	ErrUnsupportedVersion          = errors.New("unsupported AWD version")
	ErrCorruptCompressedStream     = errors.New("corrupt compressed stream")
	ErrTruncatedDocument           = errors.New("truncated AWD data")
	ErrCorruptBlockIndex           = errors.New("corrupt block index")
	ErrMalformedBlock              = errors.New("malformed block")
	ErrUnresolvedReferenceOnEncode = errors.New("unresolved reference on encode")
	ErrCycleDetected               = errors.New("scene graph cycle detected")
	ErrDuplicateTypeID             = errors.New("duplicate block type id")
	ErrUnknownBlockType            = errors.New("unknown block type")

	ErrTruncatedPropertyTable = property.ErrTruncatedTable
	ErrMalformedProperty      = property.ErrMalformed
)

// OffsetError locates a fatal error. Offset counts from the start of the
// uncompressed document image and is -1 when no position applies (encode).
// Block is the index of the block being processed, or -1.
type OffsetError struct {
	Stage  string
	Offset int
	Block  int
	Err    error
}

func (e *OffsetError) Error() string {
	msg := "awd: " + e.Stage
	if e.Block >= 0 {
		msg += fmt.Sprintf(": block %d", e.Block)
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	return msg + ": " + e.Err.Error()
}

func (e *OffsetError) Unwrap() error {
	return e.Err
}

// locate wraps err with stage and block context. Offsets carried by cursor
// errors are lifted into the OffsetError; fallback is used otherwise.
func locate(stage string, block, fallback int, err error) error {
	var oe *OffsetError
	if errors.As(err, &oe) {
		return err
	}
	offset := fallback
	var pe *binrw.PositionError
	if errors.As(err, &pe) {
		offset = pe.Offset
		if errors.Is(pe.Err, binrw.ErrShortRead) {
			err = fmt.Errorf("%w: %v", ErrTruncatedDocument, err)
		}
	}
	return &OffsetError{Stage: stage, Offset: offset, Block: block, Err: err}
}

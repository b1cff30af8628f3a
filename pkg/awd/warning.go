package awd

import (
	"fmt"
	"strings"
)

// WarningKind classifies a recoverable decode issue.
type WarningKind int

const (
	// DanglingReference: a reference index is out of range, or a joint
	// parent does not precede its child.
	DanglingReference WarningKind = iota + 1
	// UnknownBlockType: the block was kept as an OpaqueBlock.
	UnknownBlockType
	// UnknownPropertyType: the entry was kept with its raw bytes.
	UnknownPropertyType
	// WrongReferenceKind: the reference points at a block of another kind.
	WrongReferenceKind
	// DuplicatePropertyKey: a table holds the same key more than once.
	DuplicatePropertyKey
	// InvalidText: a name or string was not valid UTF-8.
	InvalidText
)

// String returns the kind name.
func (k WarningKind) String() string {
	switch k {
	case DanglingReference:
		return "DanglingReference"
	case UnknownBlockType:
		return "UnknownBlockType"
	case UnknownPropertyType:
		return "UnknownPropertyType"
	case WrongReferenceKind:
		return "WrongReferenceKind"
	case DuplicatePropertyKey:
		return "DuplicatePropertyKey"
	case InvalidText:
		return "InvalidText"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Warning is a non-fatal issue found while decoding.
type Warning struct {
	Kind   WarningKind
	Block  int
	Offset int
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: block %d at offset %d: %s", w.Kind, w.Block, w.Offset, w.Detail)
}

// Warnings is the list returned alongside a decoded document.
type Warnings []Warning

// Count returns the number of warnings of the given kind.
func (ws Warnings) Count(kind WarningKind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Err returns nil for an empty list, or an error summarizing the warnings
// for callers that treat them as fatal.
func (ws Warnings) Err() error {
	if len(ws) == 0 {
		return nil
	}
	return &WarningsError{Warnings: ws}
}

// WarningsError wraps a non-empty warning list as an error.
type WarningsError struct {
	Warnings Warnings
}

func (e *WarningsError) Error() string {
	lines := make([]string, 0, len(e.Warnings))
	for _, w := range e.Warnings {
		lines = append(lines, w.String())
	}
	return fmt.Sprintf("awd: %d warning(s): %s", len(e.Warnings), strings.Join(lines, "; "))
}

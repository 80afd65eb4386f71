package terms

import (
	"errors"
	"fmt"
)

// ErrEmptyCanonical is returned by AddTerm when the canonical name is blank.
var ErrEmptyCanonical = errors.New("canonical name must be a non-empty string")

// FormatError reports a dictionary file that is not valid JSON or does not
// have the canonical -> []variant shape.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dictionary %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("dictionary %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// PatternError reports a single variant that could not become a rule.
// The compiler skips the variant and keeps going.
type PatternError struct {
	Canonical string
	Variant   string
	Err       error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("rule %q -> %q: %v", e.Variant, e.Canonical, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// IOError wraps a read or write failure on the dictionary file.
type IOError struct {
	Op   string // "read", "write", "stat"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

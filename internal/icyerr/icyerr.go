// Package icyerr defines the (class, origin) error taxonomy used across the
// db pipeline so that every layer can classify failures the same way instead
// of inventing its own error types.
package icyerr

import "fmt"

// Class categorizes what kind of failure occurred.
type Class string

const (
	Corruption        Class = "corruption"
	Unsupported       Class = "unsupported"
	Internal          Class = "internal"
	InvariantViolation Class = "invariant_violation"
	NotFound          Class = "not_found"
	Update            Class = "update"
)

// Origin identifies which layer raised the error.
type Origin string

const (
	OriginStore    Origin = "store"
	OriginSerialize Origin = "serialize"
	OriginIndex    Origin = "index"
	OriginExecutor Origin = "executor"
	OriginQuery    Origin = "query"
	OriginInterface Origin = "interface"
)

// Error is the concrete error type carried through the pipeline. Layers
// downstream of the raiser must not reclassify it; they may only wrap it
// with additional context via fmt.Errorf("...: %w", err).
type Error struct {
	Class   Class
	Origin  Origin
	Message string
	Field   string // optional field path, populated by patch/merge errors
	Err     error  // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s/%s: %s (field %s)", e.Class, e.Origin, e.Message, e.Field)
	}
	return fmt.Sprintf("%s/%s: %s", e.Class, e.Origin, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause.
func New(class Class, origin Origin, format string, args ...any) *Error {
	return &Error{Class: class, Origin: origin, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an existing cause.
func Wrap(class Class, origin Origin, err error, format string, args ...any) *Error {
	return &Error{Class: class, Origin: origin, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithField attaches a field path to an error, used by patch/merge failures
// so callers get a diagnosable path instead of a bare message.
func (e *Error) WithField(path string) *Error {
	e2 := *e
	e2.Field = path
	return &e2
}

// Is lets errors.Is match by class+origin alone, so callers can test
// `errors.Is(err, icyerr.New(icyerr.Corruption, icyerr.OriginStore, ""))`-style
// sentinels without caring about the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Class != "" && t.Class != e.Class {
		return false
	}
	if t.Origin != "" && t.Origin != e.Origin {
		return false
	}
	return true
}

// Package failure classifies pipeline errors into the four kinds surfaced to
// callers: validation, geometry, I/O and publish failures.
package failure

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// Kind identifies the class of a pipeline failure.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindValidation
	KindGeometry
	KindIO
	KindPublish
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindGeometry:
		return "geometry"
	case KindIO:
		return "io"
	case KindPublish:
		return "publish"
	default:
		return "unknown"
	}
}

// Error is a typed pipeline failure. Op names the operation that failed
// (e.g. "geoproc: resolve grid").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	if err == nil {
		err = eris.New(kind.String() + " error")
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation reports caller-supplied input that cannot be processed.
func Validation(op string, err error) *Error { return newError(KindValidation, op, err) }

// Geometry reports an unresolvable CRS or an invalid geometry.
func Geometry(op string, err error) *Error { return newError(KindGeometry, op, err) }

// IO reports a missing, unreadable or unwritable file.
func IO(op string, err error) *Error { return newError(KindIO, op, err) }

// Publish reports a failed call to the publishing service.
func Publish(op string, err error) *Error { return newError(KindPublish, op, err) }

// Validationf builds a validation failure from a format string.
func Validationf(op, format string, args ...any) *Error {
	return Validation(op, eris.Errorf(format, args...))
}

// Geometryf builds a geometry failure from a format string.
func Geometryf(op, format string, args ...any) *Error {
	return Geometry(op, eris.Errorf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries a failure of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Package ytidefix loads simulation output written by the Idefix and
// Pluto astrophysics codes into a normalized, physically-dimensioned
// dataset. It locates and parses the auxiliary description files shipped
// alongside a data file, infers the coordinate geometry, resolves a
// consistent system of physical units, and decodes the data itself from
// any of the three supported on-disk formats (native dump, legacy VTK,
// XDMF index plus binary payload).
package ytidefix

import (
	"errors"
	"fmt"

	"github.com/xshaokun/yt-idefix/units"
)

// Errors terminal for a load attempt. Nothing is retried and nothing is
// downgraded to a default value: a failed resolution is surfaced to the
// caller unmodified.
var (
	// ErrNotFound reports an explicitly given auxiliary path that does
	// not exist.
	ErrNotFound = errors.New("auxiliary file not found")
	// ErrAmbiguousSource reports automatic discovery matching more than
	// one candidate file; discovery never guesses among candidates.
	ErrAmbiguousSource = errors.New("ambiguous auxiliary source")
	// ErrMalformedSource reports an auxiliary file violating its
	// format's grammar.
	ErrMalformedSource = errors.New("malformed auxiliary source")
	// ErrUnresolvedGeometry reports that no geometry indicator was found
	// and none was supplied; geometry is never silently defaulted.
	ErrUnresolvedGeometry = errors.New("geometry could not be resolved")
	// ErrCorruptData reports a data file or payload that does not match
	// its declared shape or size.
	ErrCorruptData = errors.New("corrupt data")
	// ErrUnboundField reports a decoded field whose dimension tag has no
	// unit in the resolved system.
	ErrUnboundField = errors.New("field has no unit binding")
	// ErrUnrecognizedFormat reports a data file matching none of the
	// supported formats.
	ErrUnrecognizedFormat = errors.New("unrecognized data file format")
)

// Unit-override rule violations, re-exported from the units package so
// callers can match them without a second import.
var (
	ErrInvalidOverride       = units.ErrInvalidOverride
	ErrOverconstrainedSystem = units.ErrOverconstrained
	ErrInconsistentOverrides = units.ErrInconsistent
)

// SourceError ties a discovery or parse failure to the auxiliary file
// that caused it.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// CorruptDataError ties a decode failure to the data file that caused it.
type CorruptDataError struct {
	Path string
	Err  error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}

func (e *CorruptDataError) Is(target error) bool {
	return target == ErrCorruptData
}

// UnboundFieldError names a decoded field whose dimension tag is absent
// from the resolved unit system.
type UnboundFieldError struct {
	Field string
	Dim   units.Dim
}

func (e *UnboundFieldError) Error() string {
	return fmt.Sprintf("field %q: no unit for dimension %s in resolved system", e.Field, e.Dim)
}

func (e *UnboundFieldError) Is(target error) bool {
	return target == ErrUnboundField
}

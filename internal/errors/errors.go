// Package errors provides sentinel errors and structured error types
// for the lbuild engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for known failure classes.
var (
	// ErrConfiguration indicates a malformed or cyclic configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates an identifier matched no node.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous indicates an identifier matched more than one node.
	ErrAmbiguous = errors.New("ambiguous")

	// ErrNameCollision indicates a duplicate module or option name.
	ErrNameCollision = errors.New("name collision")

	// ErrRequired indicates an option without a default was never assigned.
	ErrRequired = errors.New("required option missing")

	// ErrParse indicates a raw option value could not be parsed.
	ErrParse = errors.New("parse failure")

	// ErrValidation indicates a parsed option value failed validation.
	ErrValidation = errors.New("validation failure")

	// ErrUnresolved indicates a dependency referenced an unknown module.
	ErrUnresolved = errors.New("unresolved dependency")

	// ErrCycle indicates a cycle in the module dependency graph.
	ErrCycle = errors.New("dependency cycle")

	// ErrInactive indicates a dependency on a module whose prepare
	// returned inactive.
	ErrInactive = errors.New("depends on inactive module")

	// ErrModuleValidate indicates a failure raised by module logic
	// during the validate phase.
	ErrModuleValidate = errors.New("module validation failed")

	// ErrBuild indicates a failure surfaced from the generation step.
	ErrBuild = errors.New("build error")
)

// AmbiguousError reports an identifier that matched more than one node.
// The candidate list is carried for diagnostics.
type AmbiguousError struct {
	Query      string
	Candidates []string
}

// Error implements the error interface.
func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous identifier %q, found: '%s'",
		e.Query, strings.Join(e.Candidates, "', '"))
}

// Unwrap returns ErrAmbiguous.
func (e *AmbiguousError) Unwrap() error { return ErrAmbiguous }

// NotFoundError reports an identifier that matched no node at any
// context level.
type NotFoundError struct {
	Query   string
	Context string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("unknown identifier %q", e.Query)
	}
	return fmt.Sprintf("unknown identifier %q in %q", e.Query, e.Context)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CycleError reports a dependency cycle with the full path, starting
// and ending at the same module.
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error { return ErrCycle }

// RangeError reports a numeric option value outside its inclusive
// bounds. The violated bound and the offending value are both named.
type RangeError struct {
	Option string
	Value  float64
	Bound  float64
	Above  bool
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	rel := "greater"
	if e.Above {
		rel = "smaller"
	}
	return fmt.Sprintf("value '%v' of %q must be %s than '%v'",
		e.Value, e.Option, rel, e.Bound)
}

// Unwrap returns ErrValidation.
func (e *RangeError) Unwrap() error { return ErrValidation }

// HookError attributes a failure raised inside user-authored lifecycle
// code to the (node, phase) it came from.
type HookError struct {
	Node  string
	Phase string
	Err   error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("%s of %q failed: %v", e.Phase, e.Node, e.Err)
}

// Unwrap returns the underlying error.
func (e *HookError) Unwrap() error { return e.Err }

// Wrap wraps an error with a sentinel error type.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target.
func As(err error, target any) bool { return errors.As(err, target) }

// Join aggregates multiple errors into one. Used to report every
// validate failure across the active closure at once.
func Join(errs ...error) error { return errors.Join(errs...) }

// New returns an error that formats as the given text.
func New(text string) error { return errors.New(text) }

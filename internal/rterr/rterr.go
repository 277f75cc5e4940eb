// Package rterr defines the error-kind taxonomy and the exit-code
// mapping, so every component raises errors the same way instead of
// inventing ad-hoc sentinel values.
package rterr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the error kinds every component may raise.
type Kind string

// Error kinds.
const (
	KindCancelled Kind = "cancelled"
	KindIO Kind = "io"
	KindNetwork Kind = "network"
	KindParse Kind = "parse"
	KindIntegrity Kind = "integrity"
	KindPermission Kind = "permission"
	KindNotFound Kind = "not_found"
	KindConfig Kind = "config"
	KindRuntime Kind = "runtime"
)

// Class names from the error taxonomy, surfaced to users.
const (
	ClassPackageNotExists = "PackageNotExists"
	ClassIntegrityCheckFailed = "IntegrityCheckFailed"
	ClassFrozenLockfileMismatch = "FrozenLockfileMismatch"
	ClassResolutionError = "ResolutionError"
	ClassLifecycleScriptFailed = "LifecycleScriptFailed"
	ClassUnsupportedMediaType = "UnsupportedMediaType"
	ClassCancelled = "Cancelled"
)

// Error is the structured error type every component returns. It carries a
// Kind (for programmatic dispatch), a Class (the user-facing taxonomy
// name), and wraps pkg/errors for stack-trace-carrying causes.
type Error struct {
	Kind Kind
	Class string
	msg string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Class, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.msg)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New builds a new *Error with no cause.
func New(kind Kind, class string, msg string) *Error {
	return &Error{Kind: kind, Class: class, msg: msg}
}

// Wrap builds a new *Error wrapping an existing cause with a stack trace.
func Wrap(kind Kind, class string, msg string, cause error) *Error {
	return &Error{Kind: kind, Class: class, msg: msg, cause: errors.Wrap(cause, msg)}
}

// ExitCode maps a *Error (or any error) to the process exit code:
// 10 for lockfile integrity failures, 1 for everything else fatal, 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var rtErr *Error
	if errors.As(err, &rtErr) && rtErr.Class == ClassIntegrityCheckFailed {
		return 10
	}
	return 1
}

// IsCancelled reports whether err represents a cancellation: callers
// must treat this uniformly and never report partial success.
func IsCancelled(err error) bool {
	var rtErr *Error
	return errors.As(err, &rtErr) && rtErr.Kind == KindCancelled
}

// IsUnsupportedMediaType reports whether err is the UnsupportedMediaType
// class, used by the graph builder to silently ignore such errors on
// TypesOnly builds.
func IsUnsupportedMediaType(err error) bool {
	var rtErr *Error
	return errors.As(err, &rtErr) && rtErr.Class == ClassUnsupportedMediaType
}

// Panic recovery for the library's public entry points.
//
// Learner implementations are caller-supplied, so Fit and Bootstrap guard
// themselves with deferred Recover calls and surface any panic as a
// structured error instead of tearing down the process.

package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError carries a recovered panic value together with the stack trace
// captured at recovery time.
type PanicError struct {
	// Operation identifies the guarded call that panicked.
	Operation string

	// PanicValue is the value originally passed to panic().
	PanicValue interface{}

	// StackTrace is the goroutine stack at the moment of recovery.
	StackTrace string
}

// NewPanicError captures the current stack and wraps the panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		Operation:  operation,
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
	}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap returns nil; the panic value is not treated as a wrapped error.
func (e *PanicError) Unwrap() error { return nil }

// String renders the error together with its stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// Recover converts an in-flight panic into an error assigned through err.
// It is meant to be deferred at the top of a public entry point:
//
//	func (m *PLR) Fit(...) (err error) {
//	    defer errors.Recover(&err, "PLR.Fit")
//	    ...
//	}
//
// When the guarded function had already set an error before panicking, the
// panic message wraps it, so errors.Is still matches the original error.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}

	if *err != nil {
		*err = fmt.Errorf("panic in %s: %v (original error: %w)", operation, r, *err)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute runs fn with a Recover guard, returning fn's error or the
// recovered panic. Cross-fitting wraps per-fold learner calls with it so a
// panicking learner fails only its own fold.
//
//	err := SafeExecute("crossfit fold", func() error {
//	    return learner.Fit(XTrain, yTrain)
//	})
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}

package compiler

import (
	"fmt"

	"mmc/internal/diag"
	"mmc/internal/source"
)

// Error is a failure of a whole call, as opposed to the item-local problems
// that are reported as diagnostics.
type Error struct {
	Diag diag.Diagnostic
}

func (e *Error) Error() string { return e.Diag.Message }

// Unwrap exposes the diagnostic to errors.As.
func (e *Error) Unwrap() error { return e.Diag }

// Code is the diagnostic code of the failure.
func (e *Error) Code() diag.Code { return e.Diag.Code }

func callErrorf(code diag.Code, sp source.Span, format string, args ...any) *Error {
	return &Error{Diag: diag.NewError(code, sp, fmt.Sprintf(format, args...))}
}

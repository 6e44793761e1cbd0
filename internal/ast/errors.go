package ast

import (
	"fmt"

	"mmc/internal/diag"
	"mmc/internal/source"
)

// BuildError rejects a whole item.
type BuildError struct {
	Code diag.Code
	Span source.Span
	Msg  string
}

func (e *BuildError) Error() string { return e.Msg }

// Diagnostic converts the error for reporting.
func (e *BuildError) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Msg)
}

func errorf(code diag.Code, sp source.Span, format string, args ...any) *BuildError {
	return &BuildError{Code: code, Span: sp, Msg: fmt.Sprintf(format, args...)}
}

func syntaxf(sp source.Span, format string, args ...any) *BuildError {
	return errorf(diag.SynError, sp, format, args...)
}

package parser

import (
	"fmt"

	"mmc/internal/diag"
	"mmc/internal/source"
)

// ItemError is an item-local problem: the offending element was consumed
// and the caller may continue with the next one.
type ItemError struct {
	Code diag.Code
	Span source.Span
	Msg  string
}

func (e *ItemError) Error() string { return e.Msg }

// Diagnostic converts the error for reporting.
func (e *ItemError) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Msg)
}

// ReaderError means the list being read is malformed as a whole; the rest of
// it cannot be read.
type ReaderError struct {
	Span source.Span
	Msg  string
}

func (e *ReaderError) Error() string { return e.Msg }

func (e *ReaderError) Diagnostic() diag.Diagnostic {
	return diag.NewError(diag.SynReader, e.Span, e.Msg)
}

func malformed(sp source.Span, format string, args ...any) *ItemError {
	return &ItemError{Code: diag.SynMalformedItem, Span: sp, Msg: fmt.Sprintf(format, args...)}
}

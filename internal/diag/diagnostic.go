package diag

import (
	"mmc/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

// Error lets a diagnostic travel as an error value.
func (d Diagnostic) Error() string {
	return d.Code.ID() + ": " + d.Message
}

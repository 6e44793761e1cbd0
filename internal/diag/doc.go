// Package diag defines the diagnostic model shared by every phase of the
// compiler session.
//
// A Diagnostic carries a Severity, a numeric Code with a stable short ID
// (SYN2xxx for batch and item syntax, SEM3xxx for name reservation and
// binding, TYP4xxx for inference, IO5xxx for the driver), a message, a
// primary span and optional notes.
//
// Phases emit through a Reporter (BagReporter, DedupReporter, FuncReporter)
// or build a Diagnostic value directly when the diagnostic has to be held
// back, e.g. until the end of a batch. Rendering lives in internal/diagfmt;
// FormatShort is the one-line form used by golden tests and --format short.
package diag

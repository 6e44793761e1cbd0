// Package host is the environment a compiler session runs in: it owns the
// symbol space of one source unit, the loaded files and the diagnostic sink.
package host

import (
	"errors"
	"fmt"

	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/sexpr"
	"mmc/internal/source"
)

// Elaborator is the host of one source unit.
type Elaborator struct {
	Atoms *atom.Table
	Files *source.FileSet

	reporter diag.Reporter
	printer  sexpr.Printer
}

// New creates a host that forwards diagnostics to r. A nil reporter drops
// them.
func New(files *source.FileSet, r diag.Reporter) *Elaborator {
	if files == nil {
		files = source.NewFileSet()
	}
	atoms := atom.NewTable()
	return &Elaborator{
		Atoms:    atoms,
		Files:    files,
		reporter: r,
		printer:  sexpr.Printer{Atoms: atoms},
	}
}

// Atom interns name.
func (e *Elaborator) Atom(name string) atom.ID { return e.Atoms.Intern(name) }

// AtomName returns the text of an atom.
func (e *Elaborator) AtomName(id atom.ID) string { return e.Atoms.Name(id) }

// Report hands d to the sink.
func (e *Elaborator) Report(d diag.Diagnostic) { diag.Forward(e.reporter, d) }

// Print renders a value for messages.
func (e *Elaborator) Print(v sexpr.Value) string { return e.printer.Print(v) }

// SetReporter swaps the diagnostic sink; the REPL uses a fresh bag per line.
func (e *Elaborator) SetReporter(r diag.Reporter) { e.reporter = r }

// ReadSource registers src under name and reads all of its forms. A syntax
// error is returned as a diagnostic so it can be reported like any other.
func (e *Elaborator) ReadSource(name string, src []byte) ([]sexpr.Value, source.FileID, error) {
	id := e.Files.AddVirtual(name, src)
	vals, err := e.read(id)
	return vals, id, err
}

// LoadFile reads a file from disk and parses its forms.
func (e *Elaborator) LoadFile(path string) ([]sexpr.Value, source.FileID, error) {
	id, err := e.Files.Load(path)
	if err != nil {
		return nil, source.NoFileID, diag.Errorf(diag.IOLoadFileError, source.Span{}, "failed to load %s: %v", path, err)
	}
	vals, err := e.read(id)
	return vals, id, err
}

func (e *Elaborator) read(id source.FileID) ([]sexpr.Value, error) {
	f := e.Files.Get(id)
	if f == nil {
		return nil, fmt.Errorf("host: unknown file %d", id)
	}
	vals, err := sexpr.NewReader(e.Atoms, id, f.Content).ReadAll()
	if err != nil {
		var re *sexpr.ReadError
		if errors.As(err, &re) {
			return vals, diag.NewError(diag.SynReader, re.Span, re.Msg)
		}
		return vals, err
	}
	return vals, nil
}

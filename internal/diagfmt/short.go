package diagfmt

import (
	"io"

	"mmc/internal/diag"
	"mmc/internal/source"
)

// Short writes one line per diagnostic, the format golden tests use.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, includeNotes bool) error {
	out := diag.FormatShort(bag.Items(), fs, includeNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

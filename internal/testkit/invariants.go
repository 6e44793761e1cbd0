package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"mmc/internal/diag"
	"mmc/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on reported
// diagnostics:
// 1) every primary span is non-inverted and points into a known file
// 2) the span lies within the file content
// 3) every note span satisfies the same, when it is set
func CheckSpanInvariants(fs *source.FileSet, diags []diag.Diagnostic) error {
	if fs == nil {
		return fmt.Errorf("nil file set")
	}
	for i := range diags {
		d := &diags[i]
		if err := checkSpan(fs, d.Primary, false); err != nil {
			return fmt.Errorf("%s %q: primary: %w", d.Code.ID(), d.Message, err)
		}
		for _, n := range d.Notes {
			if err := checkSpan(fs, n.Span, true); err != nil {
				return fmt.Errorf("%s %q: note %q: %w", d.Code.ID(), d.Message, n.Msg, err)
			}
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, sp source.Span, optional bool) error {
	if sp == (source.Span{}) {
		if optional {
			return nil
		}
		return fmt.Errorf("span is unset")
	}
	if sp.End < sp.Start {
		return fmt.Errorf("inverted span %v", sp)
	}
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("span %v points to unknown file", sp)
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.End > lenContent {
		return fmt.Errorf("span end beyond content: %d > %d", sp.End, lenContent)
	}
	return nil
}

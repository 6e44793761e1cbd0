package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mmc/internal/diag"
	"mmc/internal/source"
)

func fixture() (*source.FileSet, *diag.Bag) {
	fs := source.NewFileSet()
	content := []byte("(add\n  (func (f {x : u8} : bool) x))\n")
	id := fs.AddVirtual("unit.mmc", content)
	bag := diag.NewBag(10)
	// the trailing x of line 2
	off := uint32(bytes.LastIndexByte(content, 'x'))
	d := diag.NewError(diag.TypMismatch, source.Span{File: id, Start: off, End: off + 1},
		"type mismatch in result: expected bool, found u8").
		WithNote(source.Span{File: id, Start: 8, End: 12}, "declared here")
	bag.Add(d)
	bag.Add(diag.NewError(diag.SynError, source.Span{}, "mmc-compiler: expected a subcommand"))
	return fs, bag
}

func TestPretty(t *testing.T) {
	fs, bag := fixture()
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, ShowNotes: true})
	want := strings.Join([]string{
		"unit.mmc:2:29: ERROR TYP4001: type mismatch in result: expected bool, found u8",
		"1 | (add",
		"2 |   (func (f {x : u8} : bool) x))",
		"  | " + strings.Repeat(" ", 28) + "^",
		"  note: declared here (unit.mmc:2:4)",
		"2 |   (func (f {x : u8} : bool) x))",
		"  |    ^~~~",
		"",
		"ERROR SYN2001: mmc-compiler: expected a subcommand",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("pretty (-want +got):\n%s", diff)
	}
}

func TestPrettyWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("(global 名前 #t)")
	id := fs.AddVirtual("wide.mmc", content)
	start := uint32(strings.Index(string(content), "#t"))
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.TypMismatch, source.Span{File: id, Start: start, End: start + 2}, "m"))
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	lines := strings.Split(buf.String(), "\n")
	// "(global " is 8 columns, 名前 is 4 more, then a space
	if got := lines[2]; got != "  | "+strings.Repeat(" ", 13)+"^~" {
		t.Fatalf("caret line %q", got)
	}
}

func TestJSON(t *testing.T) {
	fs, bag := fixture()
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || out.Diagnostics[0].Code != "TYP4001" || out.Diagnostics[0].Title != "Type mismatch" {
		t.Fatalf("out = %+v", out)
	}
	loc := out.Diagnostics[0].Location
	if loc == nil || loc.File != "unit.mmc" || loc.StartLine != 2 || loc.StartCol != 29 {
		t.Fatalf("location = %+v", loc)
	}
	if len(out.Diagnostics[0].Notes) != 1 || out.Diagnostics[1].Location != nil {
		t.Fatalf("out = %+v", out)
	}

	out = BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Diagnostics[0].Notes != nil {
		t.Fatalf("max: %+v", out)
	}
}

func TestShort(t *testing.T) {
	fs, bag := fixture()
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, false); err != nil {
		t.Fatal(err)
	}
	want := "error TYP4001 unit.mmc:2:29 type mismatch in result: expected bool, found u8\n" +
		"error SYN2001 :0:0 mmc-compiler: expected a subcommand\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("short (-want +got):\n%s", diff)
	}
}

func TestParsePathMode(t *testing.T) {
	if ParsePathMode("basename") != PathModeBasename || ParsePathMode("nope") != PathModeAuto {
		t.Fatal("ParsePathMode")
	}
}

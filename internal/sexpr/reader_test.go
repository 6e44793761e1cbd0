package sexpr

import (
	"errors"
	"io"
	"testing"

	"mmc/internal/atom"
	"mmc/internal/source"
)

func readAll(t *testing.T, src string) ([]Value, *atom.Table) {
	t.Helper()
	atoms := atom.NewTable()
	vals, err := NewReader(atoms, source.FileID(1), []byte(src)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll(%q): %v", src, err)
	}
	return vals, atoms
}

func TestReaderRoundTrip(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"foo", "foo"},
		{"42", "42"},
		{"-7", "-7"},
		{"0xff", "255"},
		{"#t", "#t"},
		{"#f", "#f"},
		{`"a\nb"`, `"a\nb"`},
		{"(a b c)", "(a b c)"},
		{"[a (b) ()]", "(a (b) ())"},
		{"(a . b)", "(a . b)"},
		{"(a . (b c))", "(a b c)"},
		{"{x : u8}", "(: x u8)"},
		{"{a + b + c}", "(+ a b c)"},
		{"{x}", "x"},
		{"{}", "()"},
		{"(a ; comment\n b)", "(a b)"},
		{"(- x)", "(- x)"},
	}
	for _, tc := range cases {
		vals, atoms := readAll(t, tc.src)
		if len(vals) != 1 {
			t.Fatalf("%q: want 1 value, got %d", tc.src, len(vals))
		}
		if got := (Printer{Atoms: atoms}).Print(vals[0]); got != tc.want {
			t.Errorf("%q: got %s, want %s", tc.src, got, tc.want)
		}
	}
}

func TestReaderSpans(t *testing.T) {
	vals, _ := readAll(t, "  (add x)")
	v := vals[0]
	if v.Span.Start != 2 || v.Span.End != 9 {
		t.Fatalf("list span = %v", v.Span)
	}
	if x := v.Elems[1]; x.Span.Start != 7 || x.Span.End != 8 {
		t.Fatalf("atom span = %v", x.Span)
	}
}

func TestReaderSharesAtoms(t *testing.T) {
	vals, atoms := readAll(t, "foo (foo)")
	a, _ := vals[0].AsAtom()
	b, _ := vals[1].Head()
	if a != b {
		t.Fatalf("atoms differ: %d vs %d", a, b)
	}
	if id, ok := atoms.Find("foo"); !ok || id != a {
		t.Fatalf("Find(foo) = %d,%v", id, ok)
	}
}

func TestReaderErrors(t *testing.T) {
	bad := []string{
		"(a b",
		")",
		`"abc`,
		"{a + b - c}",
		"{a b}",
		"( . a)",
		"(a . b c)",
		"#q",
		"12abc",
	}
	for _, src := range bad {
		_, err := NewReader(atom.NewTable(), source.FileID(1), []byte(src)).ReadAll()
		var re *ReadError
		if !errors.As(err, &re) {
			t.Errorf("%q: want ReadError, got %v", src, err)
		}
	}
}

func TestReaderNextEOF(t *testing.T) {
	r := NewReader(atom.NewTable(), source.FileID(1), []byte(" ; only a comment\n"))
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("want io.EOF, got %v", err)
	}
}

func TestDottedFlattensListTail(t *testing.T) {
	v := Dotted(List(Int(2)), Int(1))
	if v.Kind != KindList || v.Len() != 2 {
		t.Fatalf("got %s with %d elems", v.Kind, v.Len())
	}
}

func TestIncomplete(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"", false},
		{"(add", true},
		{"(add (proc (f) ())", true},
		{`(a "open`, true},
		{"(a b)", false},
		{"(a b))", false},
		{"(a . b c)", false},
		{"{a + b * c}", false},
	}
	for _, tc := range cases {
		if got := Incomplete([]byte(tc.src)); got != tc.want {
			t.Errorf("Incomplete(%q) = %v, want %v", tc.src, got, tc.want)
		}
	}
}

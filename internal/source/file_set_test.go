package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("unit.mmc", []byte("(add)"), 0)
	if id1 == NoFileID {
		t.Fatalf("first file must not get NoFileID")
	}
	id2 := fs.Add("unit.mmc", []byte("(add (proc (f)))"), 0)
	if id2 == id1 {
		t.Fatalf("re-adding a path must allocate a new id")
	}

	latest, ok := fs.GetLatest("unit.mmc")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d", latest, ok, id2)
	}
	// старая версия всё ещё доступна
	if got := string(fs.Get(id1).Content); got != "(add)" {
		t.Fatalf("old content lost: %q", got)
	}
	if fs.Len() != 2 {
		t.Fatalf("Len = %d, want 2", fs.Len())
	}
}

func TestFileSetGetUnknown(t *testing.T) {
	fs := NewFileSet()
	if fs.Get(NoFileID) != nil {
		t.Fatalf("NoFileID must resolve to nil")
	}
	if fs.Get(42) != nil {
		t.Fatalf("out of range id must resolve to nil")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.mmc", []byte("(add\n  (proc (f))\n)"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{4, LineCol{Line: 1, Col: 5}}, // сам перевод строки
		{5, LineCol{Line: 2, Col: 1}},
		{7, LineCol{Line: 2, Col: 3}},
		{18, LineCol{Line: 3, Col: 1}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
	if fs.Get(id).Flags&FileVirtual == 0 {
		t.Fatalf("expected FileVirtual flag")
	}
}

func TestGetLineAndText(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("b.mmc", []byte("first\nsecond\nthird"))
	f := fs.Get(id)
	for n, want := range map[uint32]string{1: "first", 2: "second", 3: "third", 4: "", 0: ""} {
		if got := f.GetLine(n); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", n, got, want)
		}
	}
	if got := fs.Text(Span{File: id, Start: 6, End: 12}); got != "second" {
		t.Fatalf("Text = %q", got)
	}
}

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crlf.mmc")
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("(add)\r\n(add)\r\n")...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "(add)\n(add)\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("Cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 1}); got != a {
		t.Fatalf("cross-file cover must keep receiver, got %v", got)
	}
	if got := (Span{}).Or(a); got != a {
		t.Fatalf("Or fallback = %v", got)
	}
}

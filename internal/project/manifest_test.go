package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFromNestedDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `
[compiler]
prefix = "zz_"

[trace]
level = "phase"

[check]
files = ["src/*.mmc", "src/a.mmc"]
jobs = 2
`)
	writeFile(t, filepath.Join(root, "src", "a.mmc"), "")
	writeFile(t, filepath.Join(root, "src", "b.mmc"), "")
	writeFile(t, filepath.Join(root, "src", "notes.txt"), "")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, ok, err := LoadFromDir(nested)
	if err != nil || !ok {
		t.Fatalf("LoadFromDir: %v %v", ok, err)
	}
	if m.Config.Compiler.Prefix != "zz_" || m.Config.Compiler.MaxDiagnostics != 100 {
		t.Fatalf("compiler = %+v", m.Config.Compiler)
	}
	if m.Config.Trace.Level != "phase" || m.Config.Trace.Mode != "stream" {
		t.Fatalf("trace = %+v", m.Config.Trace)
	}
	srcs, err := m.Sources()
	if err != nil {
		t.Fatal(err)
	}
	if len(srcs) != 2 || filepath.Base(srcs[0]) != "a.mmc" || filepath.Base(srcs[1]) != "b.mmc" {
		t.Fatalf("sources = %v", srcs)
	}
}

func TestNoManifest(t *testing.T) {
	_, ok, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// a manifest further up the real filesystem would make this flaky
	if ok {
		t.Skip("found an mmc.toml above the temp dir")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"prefix", "[compiler]\nprefix = \"a b\"\n", ErrBadPrefix},
		{"empty-prefix", "[compiler]\nprefix = \"\"\n", ErrBadPrefix},
		{"max", "[compiler]\nmax_diagnostics = -1\n", ErrBadMaxDiagnostics},
		{"level", "[trace]\nlevel = \"loud\"\n", nil},
		{"unknown", "[compiler]\nprefx = \"x\"\n", nil},
		{"syntax", "[compiler\n", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			writeFile(t, path, tc.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("want error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	var content Digest
	content[0] = 1
	a := Combine(content, "ab", "c")
	b := Combine(content, "a", "bc")
	if a == b {
		t.Fatal("length prefix ignored")
	}
	if a != Combine(content, "ab", "c") {
		t.Fatal("not deterministic")
	}
	if len(a.Hex()) != 64 {
		t.Fatalf("hex = %s", a.Hex())
	}
}

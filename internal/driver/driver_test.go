package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/trace"
)

const unitSrc = `(add (struct pt {x : u32} {y : u32}))
(add ("Sums a point." (func (sum {p : pt} : u32) {(field p x) + (field p y)})))
(finish sum pt)
`

func TestCheckSource(t *testing.T) {
	res, err := CheckSource(context.Background(), "unit.mmc", []byte(unitSrc), Options{})
	if err != nil {
		t.Fatalf("CheckSource: %v", err)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Codes())
	}
	want := []entity.Summary{
		{Name: "pt", Kind: "struct", Signature: "({x : u32} {y : u32})", Status: "checked"},
		{Name: "sum", Kind: "func", Signature: "({p : pt} : u32)", Status: "checked", Doc: "Sums a point."},
	}
	if diff := cmp.Diff(want, res.Entities); diff != "" {
		t.Fatalf("entities mismatch (-want +got):\n%s", diff)
	}
	if len(res.Timing.Phases) != 2 {
		t.Fatalf("expected read and check phases, got %+v", res.Timing.Phases)
	}
}

func TestCheckSourceReportsEveryForm(t *testing.T) {
	src := `7
(frobnicate)
(add (proc (p) (nope 1)))
(finish main)
`
	res, err := CheckSource(context.Background(), "bad.mmc", []byte(src), Options{})
	if err != nil {
		t.Fatalf("CheckSource: %v", err)
	}
	want := []diag.Code{diag.SynError, diag.SynUnknownSubcommand, diag.SemaUnboundName, diag.SynError}
	if diff := cmp.Diff(want, res.Bag.Codes()); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckSourceReaderError(t *testing.T) {
	res, err := CheckSource(context.Background(), "cut.mmc", []byte("(add (proc (f) ()))\n(add (proc (g)"), Options{})
	if err != nil {
		t.Fatalf("CheckSource: %v", err)
	}
	if got := res.Bag.Codes(); len(got) != 1 || got[0] != diag.SynReader {
		t.Fatalf("expected one reader diagnostic, got %v", got)
	}
	if len(res.Entities) != 1 || res.Entities[0].Name != "f" {
		t.Fatalf("forms before the error must still be checked, got %+v", res.Entities)
	}
}

func TestCheckFileMissing(t *testing.T) {
	res, err := CheckFile(context.Background(), filepath.Join(t.TempDir(), "none.mmc"), Options{})
	if err != nil {
		t.Fatalf("CheckFile: %v", err)
	}
	if got := res.Bag.Codes(); len(got) != 1 || got[0] != diag.IOLoadFileError {
		t.Fatalf("expected load error, got %v", got)
	}
}

func TestCheckSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CheckSource(ctx, "unit.mmc", []byte(unitSrc), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	opts := Options{Cache: cache}
	src := []byte(unitSrc + "(add (proc (p) (nope 1)))\n")

	first, err := CheckSource(context.Background(), "unit.mmc", src, opts)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if first.Cached {
		t.Fatalf("first check must not hit the cache")
	}
	second, err := CheckSource(context.Background(), "unit.mmc", src, opts)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second check must hit the cache")
	}
	if diff := cmp.Diff(first.Entities, second.Entities); diff != "" {
		t.Fatalf("entities differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Bag.Items(), second.Bag.Items(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("diagnostics differ (-first +second):\n%s", diff)
	}

	// другой префикс - другой ключ
	third, err := CheckSource(context.Background(), "unit.mmc", src, Options{Cache: cache, Prefix: "_x_"})
	if err != nil {
		t.Fatalf("third check: %v", err)
	}
	if third.Cached {
		t.Fatalf("prefix must be part of the cache key")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	again, err := CheckSource(context.Background(), "unit.mmc", src, opts)
	if err != nil {
		t.Fatalf("check after drop: %v", err)
	}
	if again.Cached {
		t.Fatalf("cache must be empty after DropAll")
	}
}

func TestCheckFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a", "b", "c", "d", "e"}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n+".mmc")
		src := "(add (proc (" + n + ") ()))\n"
		if err := os.WriteFile(paths[i], []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	results, err := CheckFiles(context.Background(), paths, Options{Jobs: 2})
	if err != nil {
		t.Fatalf("CheckFiles: %v", err)
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Fatalf("result %d: path %q, want %q", i, res.Path, paths[i])
		}
		if len(res.Entities) != 1 || res.Entities[0].Name != names[i] {
			t.Fatalf("result %d: entities %+v", i, res.Entities)
		}
		if res.Bag.Len() != 0 {
			t.Fatalf("result %d: diagnostics %v", i, res.Bag.Codes())
		}
	}
}

func TestCheckFilesTracerFromContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mmc")
	if err := os.WriteFile(path, []byte("(add (proc (a) ()))\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ring := trace.NewRingTracer(256, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	if _, err := CheckFiles(ctx, []string{path}, Options{}); err != nil {
		t.Fatalf("CheckFiles: %v", err)
	}

	ids := map[string]uint64{}
	parents := map[string]uint64{}
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindSpanBegin {
			continue
		}
		ids[ev.Name] = ev.SpanID
		parents[ev.Name] = ev.ParentID
	}
	for _, name := range []string{"check-files", "check", "add"} {
		if _, ok := ids[name]; !ok {
			t.Fatalf("no %q span in %v", name, ids)
		}
	}
	if parents["check"] != ids["check-files"] {
		t.Fatalf("check parent = %d, want %d", parents["check"], ids["check-files"])
	}

	// явный Tracer в Options важнее контекста
	other := trace.NewRingTracer(256, trace.LevelPhase)
	if _, err := CheckFiles(ctx, []string{path}, Options{Tracer: other}); err != nil {
		t.Fatalf("CheckFiles: %v", err)
	}
	if len(other.Snapshot()) == 0 {
		t.Fatal("explicit tracer saw no events")
	}
}

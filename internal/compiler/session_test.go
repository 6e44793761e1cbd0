package compiler_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mmc/internal/atom"
	"mmc/internal/compiler"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/hir"
	"mmc/internal/source"
	"mmc/internal/testkit"
	"mmc/internal/trace"
	"mmc/internal/types"
)

func wantCodes(t *testing.T, u *testkit.Unit, want ...diag.Code) {
	t.Helper()
	got := u.Codes()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("codes (-want +got):\n%s\n%v", diff, u.Bag.Items())
	}
}

func callError(t *testing.T, err error) *compiler.Error {
	t.Helper()
	var ce *compiler.Error
	if !errors.As(err, &ce) {
		t.Fatalf("want *compiler.Error, got %v", err)
	}
	return ce
}

func TestEmptyBatch(t *testing.T) {
	u := testkit.NewUnit()
	before := u.Session.Entities().Len()
	if err := u.Session.Add(source.Span{}, nil); err != nil {
		t.Fatal(err)
	}
	wantCodes(t, u)
	if got := u.Session.Entities().Len(); got != before {
		t.Fatalf("entities %d -> %d", before, got)
	}
}

func TestMalformedItemIsIsolated(t *testing.T) {
	good := "(func (f {x : u8} : u8) {x + 1})"
	cases := []struct {
		name string
		bad  string
		code diag.Code
	}{
		{"malformed", "(global g)", diag.SynMalformedItem},
		{"unknown-item", "((module m))", diag.SynUnknownItem},
		{"unbound", "(proc (p) (nope 1))", diag.SemaUnboundName},
		{"typing", "(func (p : bool) 1)", diag.TypMismatch},
	}
	for _, tc := range cases {
		for _, order := range []string{good + " " + tc.bad, tc.bad + " " + good} {
			t.Run(tc.name, func(t *testing.T) {
				u := testkit.NewUnit()
				u.Add(t, order)
				wantCodes(t, u, tc.code)
				u.CheckSpans(t)
				f, ok := u.Entity("f")
				if !ok || f.Status != entity.Checked {
					t.Fatalf("f = %+v", f)
				}
			})
		}
	}
}

func TestForwardReference(t *testing.T) {
	cases := []string{
		"(proc (b : u8) (a 1)) (func (a {x : u8} : u8) x)",
		`(func (even {n : u32} : bool) (if {n = 0} #t (odd {n - 1})))
		 (func (odd {n : u32} : bool) (if {n = 0} #f (even {n - 1})))`,
		"(proc (p {s : pt}) (let y (field s x))) (struct pt {x : u32})",
		"(global g (k)) (func (k : u16) 3)",
	}
	for _, src := range cases {
		u := testkit.NewUnit()
		u.Add(t, src)
		if u.Bag.Len() != 0 {
			t.Errorf("%s: %v", src, u.Bag.Items())
		}
	}

	u := testkit.NewUnit()
	u.Add(t, "(global g (k)) (func (k : u16) 3)")
	g, _ := u.Entity("g")
	if got := g.Ty.Format(u.Host.AtomName); got != "u16" {
		t.Fatalf("g : %s", got)
	}
}

func TestLaterBatchSeesEarlierOne(t *testing.T) {
	u := testkit.NewUnit()
	u.Add(t, "(struct pt {x : u32} {y : u32})")
	u.Add(t, "(func (sum {p : pt} : u32) {(field p x) + (field p y)})")
	wantCodes(t, u)
	sum, _ := u.Entity("sum")
	if got := sum.Signature(u.Host.AtomName); got != "({p : pt} : u32)" {
		t.Fatalf("sum = %s", got)
	}
}

func TestCallAddEmptyIsIdempotent(t *testing.T) {
	u := testkit.NewUnit()
	u.Add(t, "(proc (f) ())")
	if _, err := u.Call(t, "(add)"); err != nil {
		t.Fatal(err)
	}
	once := u.Summary()
	if _, err := u.Call(t, "(add)"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(once, u.Summary()); diff != "" {
		t.Fatalf("table changed (-once +twice):\n%s", diff)
	}
	wantCodes(t, u)
}

func TestCallAddProcessesItems(t *testing.T) {
	u := testkit.NewUnit()
	v, err := u.Call(t, "(add (proc (f) ()) (typedef word u32))")
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsUndef() {
		t.Fatalf("result = %v", v)
	}
	for _, name := range []string{"f", "word"} {
		if _, ok := u.Entity(name); !ok {
			t.Fatalf("%s missing", name)
		}
	}
}

func TestUnknownSubcommand(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"(frobnicate (proc (f) ()))", "'frobnicate'"},
		{"(proc (proc (f) ()))", "'proc'"},
		{"((add) (proc (f) ()))", "'(add)'"},
		{"(7)", "'7'"},
	}
	for _, tc := range cases {
		u := testkit.NewUnit()
		before := u.Session.Entities().Len()
		_, err := u.Call(t, tc.src)
		ce := callError(t, err)
		if ce.Code() != diag.SynUnknownSubcommand || !strings.Contains(ce.Error(), tc.want) {
			t.Fatalf("%s: %s %q", tc.src, ce.Code().ID(), ce.Error())
		}
		if u.Session.Entities().Len() != before {
			t.Fatalf("%s: table mutated", tc.src)
		}
	}
}

func TestMissingSubcommand(t *testing.T) {
	u := testkit.NewUnit()
	_, err := u.Session.Call(source.Span{}, nil)
	if ce := callError(t, err); ce.Code() != diag.SynError {
		t.Fatalf("code = %s", ce.Code().ID())
	}
}

func TestFinishNeedsTwoSymbols(t *testing.T) {
	for _, src := range []string{
		"(finish)",
		"(finish main)",
		"(finish main 3 (proc (x) ()))",
		"(finish (main) sig (proc (x) ()))",
	} {
		u := testkit.NewUnit()
		_, err := u.Call(t, src)
		ce := callError(t, err)
		if ce.Code() != diag.SynError || ce.Error() != "mmc-finish: syntax error" {
			t.Fatalf("%s: %s %q", src, ce.Code().ID(), ce.Error())
		}
		if _, ok := u.Entity("x"); ok {
			t.Fatalf("%s: batch was processed", src)
		}
		wantCodes(t, u)
	}
}

func TestFinish(t *testing.T) {
	u := testkit.NewUnit()
	if _, err := u.Call(t, "(finish main sig (proc (main) ()) (typedef sig u8))"); err != nil {
		t.Fatal(err)
	}
	wantCodes(t, u)

	_, err := u.Call(t, "(finish main nowhere)")
	ce := callError(t, err)
	if ce.Code() != diag.SemaUnboundName || !strings.Contains(ce.Error(), "nowhere") {
		t.Fatalf("%s %q", ce.Code().ID(), ce.Error())
	}
}

func TestFinishKeepsTrailingItemsOnFailure(t *testing.T) {
	u := testkit.NewUnit()
	_, err := u.Call(t, "(finish main nowhere (proc (main) ()) (global x 1))")
	ce := callError(t, err)
	if ce.Code() != diag.SemaUnboundName || !strings.Contains(ce.Error(), "nowhere") {
		t.Fatalf("%s %q", ce.Code().ID(), ce.Error())
	}
	for _, name := range []string{"main", "x"} {
		e, ok := u.Entity(name)
		if !ok || e.Status != entity.Checked {
			t.Fatalf("%s = %+v", name, e)
		}
	}
	wantCodes(t, u)

	// повторный finish видит то, что уже добавлено
	if _, err := u.Call(t, "(finish main x)"); err != nil {
		t.Fatal(err)
	}
}

func TestMergePolicy(t *testing.T) {
	cases := []struct {
		name   string
		first  string
		second string
		want   []diag.Code
	}{
		{"refine", "(proc (f {x : u8}) ())", "(proc (f {y : u16}) ())", nil},
		{"kind", "(proc (f) ())", "(global f 1)", []diag.Code{diag.SemaDuplicateDecl}},
		{"params", "(proc (f {x : u8}) ())", "(proc (f) ())", []diag.Code{diag.SemaDuplicateDecl}},
		{"rets", "(proc (f : u8) 1)", "(proc (f : u8 u8) (return 1 2))", []diag.Code{diag.SemaDuplicateDecl}},
		{"fields", "(struct f {a : u8})", "(struct f {a : u8} {b : u8})", []diag.Code{diag.SemaDuplicateDecl}},
		{"proc-func", "(proc (f : u8) 1)", "(func (f : u8) 1)", []diag.Code{diag.SemaDuplicateDecl}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := testkit.NewUnit()
			u.Add(t, tc.first)
			before, _ := u.Entity("f")
			kind := before.Kind
			u.Add(t, tc.second)
			wantCodes(t, u, tc.want...)
			u.CheckSpans(t)
			after, _ := u.Entity("f")
			if after != before || after.Kind != kind {
				t.Fatalf("entity replaced: %+v", after)
			}
		})
	}

	u := testkit.NewUnit()
	u.Add(t, "(proc (f {x : u8}) ()) (proc (f {y : u16}) ())")
	wantCodes(t, u)
	f, _ := u.Entity("f")
	if got := f.Signature(u.Host.AtomName); got != "({y : u16} :)" {
		t.Fatalf("f = %s", got)
	}
}

func TestConflictPointsAtPreviousDeclaration(t *testing.T) {
	u := testkit.NewUnit()
	u.Add(t, "(proc (f) ())")
	u.Add(t, "(global f 1)")
	items := u.Bag.Items()
	if len(items) != 1 {
		t.Fatalf("diagnostics = %v", u.Codes())
	}
	d := items[0]
	if d.Code != diag.SemaDuplicateDecl || !strings.Contains(d.Message, "already declared as a proc") {
		t.Fatalf("%s %q", d.Code.ID(), d.Message)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "previous declaration here" {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if d.Notes[0].Span.File == d.Primary.File {
		t.Fatalf("note should point into the first batch: %v vs %v", d.Notes[0].Span, d.Primary)
	}
	u.CheckSpans(t)

	// у builtin нет исходной позиции, заметки нет
	u = testkit.NewUnit()
	u.Add(t, "(typedef u8 u16)")
	if items := u.Bag.Items(); len(items) != 1 || len(items[0].Notes) != 0 {
		t.Fatalf("builtin conflict = %+v", items)
	}
}

func TestBuiltinsCannotBeRedeclared(t *testing.T) {
	for _, src := range []string{"(typedef u8 u16)", "(proc (+ {x : u8}) ())", "(global bool #t)"} {
		u := testkit.NewUnit()
		u.Add(t, src)
		wantCodes(t, u, diag.SemaDuplicateDecl)
		u.CheckSpans(t)
	}
}

func TestDiagnosticsFollowItemOrder(t *testing.T) {
	u := testkit.NewUnit()
	u.Add(t, "(func (f : bool) 1) (proc (p) (nope)) (global b) (proc (f) ())")
	wantCodes(t, u, diag.TypMismatch, diag.SemaUnboundName, diag.SynMalformedItem, diag.SemaDuplicateDecl)
	u.CheckSpans(t)

	p, _ := u.Entity("p")
	if p.Status != entity.Failed {
		t.Fatalf("p status = %s", p.Status)
	}
}

func TestReaderFailureEndsOnlyItsList(t *testing.T) {
	u := testkit.NewUnit()
	u.Add(t, "((proc (f) ()) (proc (g) ()) . 3) (proc (h) ())")
	wantCodes(t, u, diag.SynReader)
	u.CheckSpans(t)
	for _, name := range []string{"f", "g", "h"} {
		if _, ok := u.Entity(name); !ok {
			t.Fatalf("%s missing", name)
		}
	}
}

func TestDocComments(t *testing.T) {
	u := testkit.NewUnit()
	u.Add(t, `("Adds one." (func (inc {x : u8} : u8) {x + 1}))`)
	inc, _ := u.Entity("inc")
	if inc.Doc != "Adds one." {
		t.Fatalf("doc = %q", inc.Doc)
	}
}

func TestOptions(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDetail)
	var lowered []string
	u := testkit.NewUnit(
		compiler.WithPrefix("zz_"),
		compiler.WithTracer(ring),
		compiler.WithItemHook(func(item *hir.Item, in *types.Interner) {
			lowered = append(lowered, in.Format(item.Rets[0], func(atom.ID) string { return "" }))
		}),
	)
	if u.Session.Prefix() != "zz_" {
		t.Fatalf("prefix = %q", u.Session.Prefix())
	}
	u.Add(t, "(func (f {x : u8} : u8) x)")
	if diff := cmp.Diff([]string{"u8"}, lowered); diff != "" {
		t.Fatalf("hook (-want +got):\n%s", diff)
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindSpanEnd {
			names = append(names, ev.Name)
		}
	}
	if diff := cmp.Diff([]string{"item:f", "add"}, names); diff != "" {
		t.Fatalf("spans (-want +got):\n%s", diff)
	}
}

func TestDebugTraceCarriesBuiltTree(t *testing.T) {
	for _, tc := range []struct {
		level trace.Level
		want  string
	}{
		{trace.LevelDetail, ""},
		{trace.LevelDebug, "(begin x)"},
	} {
		ring := trace.NewRingTracer(64, tc.level)
		u := testkit.NewUnit(compiler.WithTracer(ring))
		u.Add(t, "(func (f {x : u8} : u8) x) (struct s {a : u8})")
		got := map[string]string{}
		for _, ev := range ring.Snapshot() {
			if ev.Kind == trace.KindSpanEnd && ev.Scope == trace.ScopeItem {
				got[ev.Name] = ev.Extra["ast"]
			}
		}
		if got["item:f"] != tc.want {
			t.Fatalf("%s: item:f ast = %q, want %q", tc.level, got["item:f"], tc.want)
		}
		if tree, ok := got["item:s"]; !ok || tree != "" {
			t.Fatalf("%s: struct should carry no tree, got %q (seen %v)", tc.level, tree, ok)
		}
	}
}

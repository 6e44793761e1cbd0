package ast

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/keyword"
	"mmc/internal/parser"
	"mmc/internal/sexpr"
	"mmc/internal/source"
)

type fixture struct {
	atoms *atom.Table
	kw    keyword.Table
	ents  *entity.Table
	b     *Builder
}

func newFixture() *fixture {
	atoms := atom.NewTable()
	kw := keyword.Make(atoms.Intern)
	ents := entity.NewBuiltinTable(atoms.Intern)
	for _, e := range []*entity.Entity{
		{Name: atoms.Intern("foo"), Kind: entity.KindProc},
		{Name: atoms.Intern("bar"), Kind: entity.KindProc, Params: []entity.Param{{Ty: entity.Int(entity.Width32, false)}}},
		{Name: atoms.Intern("g"), Kind: entity.KindGlobal, Ty: entity.Bool()},
		{Name: atoms.Intern("k"), Kind: entity.KindConst, Ty: entity.Int(entity.Width8, false)},
		{Name: atoms.Intern("pt"), Kind: entity.KindStruct},
		{Name: atoms.Intern("byte"), Kind: entity.KindTypedef, Ty: entity.Int(entity.Width8, false)},
	} {
		ents.Insert(e)
	}
	return &fixture{
		atoms: atoms,
		kw:    kw,
		ents:  ents,
		b:     NewBuilder(kw, ents, atoms.Intern, atoms.Name, "_mmc_"),
	}
}

func (f *fixture) build(t *testing.T, src string) (*Item, error) {
	t.Helper()
	vals, err := sexpr.NewReader(f.atoms, source.FileID(1), []byte(src)).ReadAll()
	if err != nil || len(vals) != 1 {
		t.Fatalf("read %q: %v", src, err)
	}
	p := &parser.Parser{Keywords: f.kw, Name: f.atoms.Name}
	it, err := p.ParseNextItem(p.Iter(vals[0]))
	if err != nil || it == nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return f.b.BuildItem(it)
}

func (f *fixture) body(t *testing.T, src string) string {
	t.Helper()
	item, err := f.build(t, src)
	if err != nil {
		t.Fatalf("build %q: %v", src, err)
	}
	e := item.Body
	if e == nil {
		e = item.Init
	}
	return Format(e, f.b.VarNames, f.atoms.Name)
}

func TestDesugaring(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"fold", "(func (f {x : u8} : u8) {x + 1 + 2})", "(begin (+ (+ x 1) 2))"},
		{"if-without-else", "(proc (p {c : bool}) (if c (foo)))", "(begin (if c (begin (foo) ()) ()))"},
		{"unless", "(proc (p {c : bool}) (unless c (foo) (foo)))", "(begin (if (not c) (begin (foo) (foo) ()) ()))"},
		{"deref", "(proc (p {r : (& u8)}) (* r))", "(begin (* r))"},
		{"negate", "(proc (p {x : int}) (- x))", "(begin (- 0 x))"},
		{"assign", "(proc (p {x : u8}) {x := 3} (:= g #f))", "(begin (:= x 3) (:= g #f))"},
		{"global-value", "(global {y : u8} {k * 2})", "(* k 2)"},
		{"for", "(proc (p {n : u32}) (for i 0 n (bar i)))",
			"(begin (begin (let i 0) (let _mmc_hi1 n) (while (< i _mmc_hi1) (begin (bar i) (:= i (+ i 1))))))"},
		{"forms", "(proc (p {a : (array u8 4)} {s : pt}) (index a 0) (field s x) (as 1 u16) (: 2 byte) (list 1 2) (& a) (return) (assert #t))",
			"(begin (index a 0) (field s x) (as 1 u16) (: 2 byte) (list 1 2) (& a) (return) (assert #t))"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			if got := f.body(t, tc.src); got != tc.want {
				t.Fatalf("got  %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestLocalsAndGlobals(t *testing.T) {
	f := newFixture()
	got := f.body(t, "(proc (p {x : u8}) (let x {x + k}) (let {y : u16} x) (bar y) (foo) (bar k))")
	want := "(begin (let x (+ x k)) (let y x) (bar y) (foo) (bar k))"
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
	names := make([]string, 0, len(f.b.VarNames))
	for _, a := range f.b.VarNames {
		names = append(names, f.atoms.Name(a))
	}
	if diff := cmp.Diff([]string{"x", "x", "y"}, names); diff != "" {
		t.Fatalf("VarNames (-want +got):\n%s", diff)
	}
	globals := make([]string, 0, len(f.b.Globals))
	for _, a := range f.b.Globals {
		globals = append(globals, f.atoms.Name(a))
	}
	if diff := cmp.Diff([]string{"k", "bar", "foo"}, globals); diff != "" {
		t.Fatalf("Globals (-want +got):\n%s", diff)
	}
}

func TestSignatureTypes(t *testing.T) {
	f := newFixture()
	item, err := f.build(t, "(proc (p {a : (& (array byte 2))} b : {r : bool} u64))")
	if err != nil {
		t.Fatal(err)
	}
	byteName := f.atoms.Intern("byte")
	if !item.Params[0].Type.Equal(entity.Ref(entity.Array(entity.Named(byteName), 2))) {
		t.Fatalf("param a: %s", item.Params[0].Type.Format(f.atoms.Name))
	}
	if item.Params[1].Type.Kind != entity.TyUnknown {
		t.Fatal("b must be unannotated")
	}
	if len(item.Rets) != 2 || !item.Rets[1].Ty.Equal(entity.Int(entity.Width64, false)) {
		t.Fatalf("rets: %+v", item.Rets)
	}
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unbound", "(proc (p) (frob))", diag.SemaUnboundName},
		{"unbound-var", "(proc (p) zz)", diag.SemaUnboundName},
		{"scoped-let", "(proc (p) (begin (let x 1)) x)", diag.SemaUnboundName},
		{"op-as-value", "(proc (p) foo)", diag.SemaNotAValue},
		{"type-as-value", "(proc (p) u8)", diag.SemaNotAValue},
		{"call-local", "(proc (p {x : u8}) (x 1))", diag.SemaNotCallable},
		{"call-global", "(proc (p) (g))", diag.SemaNotCallable},
		{"assign-const", "(proc (p) (:= k 1))", diag.SynError},
		{"assign-rvalue", "(proc (p) (:= 1 1))", diag.SynError},
		{"if-arity", "(proc (p) (if #t))", diag.SynError},
		{"prim-arity", "(proc (p) (not #t #f))", diag.SynError},
		{"bad-type", "(proc (p {x : foo}))", diag.SemaNotAType},
		{"unbound-type", "(global {x : nope} 1)", diag.SemaUnboundName},
		{"dup-param", "(proc (p x x))", diag.SemaDuplicateDecl},
		{"string", `(proc (p) "s")`, diag.SynError},
		{"keyword-binder", "(proc (p) (let if 1))", diag.SynError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.build(t, tc.src)
			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("want BuildError, got %v", err)
			}
			if be.Code != tc.code {
				t.Fatalf("code = %s, want %s (%s)", be.Code.ID(), tc.code.ID(), be.Msg)
			}
		})
	}
}

func TestSkeletonIsLenient(t *testing.T) {
	f := newFixture()
	vals, _ := sexpr.NewReader(f.atoms, source.FileID(1), []byte("(& later)")).ReadAll()
	ty := f.b.types.Skeleton(vals[0])
	if ty.Kind != entity.TyRef || ty.Elem.Kind != entity.TyUnknown {
		t.Fatalf("got %s", ty.Format(f.atoms.Name))
	}
}

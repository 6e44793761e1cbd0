package entity

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"mmc/internal/atom"
	"mmc/internal/predef"
)

func TestBuiltinTable(t *testing.T) {
	atoms := atom.NewTable()
	tab := NewBuiltinTable(atoms.Intern)

	u8, ok := tab.Get(atoms.Intern("u8"))
	if !ok || u8.Kind != KindPrimType || !u8.Ty.Equal(Int(Width8, false)) {
		t.Fatalf("u8 = %+v", u8)
	}
	intTy, _ := tab.Get(atoms.Intern("int"))
	if !intTy.Ty.Equal(Int(WidthAny, true)) {
		t.Fatalf("int = %+v", intTy.Ty)
	}
	plus, ok := tab.Get(atoms.Intern("+"))
	if !ok || plus.Kind != KindPrimOp || plus.Prim != predef.Add {
		t.Fatalf("+ = %+v", plus)
	}
	if _, ok := tab.Get(atoms.Intern("mmc_assert")); ok {
		t.Fatal("lemma without operator must not be an entity")
	}
	if got := tab.Summarize(atoms.Name); len(got) != 0 {
		t.Fatalf("builtins leaked into summary: %v", got)
	}
}

func TestInsertKeepsOrder(t *testing.T) {
	atoms := atom.NewTable()
	tab := NewTable()
	a, b := atoms.Intern("a"), atoms.Intern("b")
	tab.Insert(&Entity{Name: b, Kind: KindGlobal, Ty: Bool()})
	tab.Insert(&Entity{Name: a, Kind: KindConst, Ty: Int(Width32, true)})
	tab.Insert(&Entity{Name: b, Kind: KindGlobal, Ty: Unit()})

	if diff := cmp.Diff([]atom.ID{b, a}, tab.Names()); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	want := []Summary{
		{Name: "b", Kind: "global", Signature: "()", Status: "reserved"},
		{Name: "a", Kind: "const", Signature: "i32", Status: "reserved"},
	}
	if diff := cmp.Diff(want, tab.Summarize(atoms.Name)); diff != "" {
		t.Fatalf("summary (-want +got):\n%s", diff)
	}
}

func TestSignature(t *testing.T) {
	atoms := atom.NewTable()
	e := &Entity{
		Name: atoms.Intern("f"),
		Kind: KindFunc,
		Params: []Param{
			{Name: atoms.Intern("x"), Ty: Ref(Array(Int(Width8, false), 4))},
			{Name: atoms.Intern("y"), Ty: Unknown()},
		},
		Rets: []Param{{Ty: Named(atoms.Intern("point"))}},
	}
	want := "({x : (& (array u8 4))} {y : _} : point)"
	if got := e.Signature(atoms.Name); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestTyEqualAndKnown(t *testing.T) {
	if !Ref(Int(Width8, false)).Equal(Ref(Int(Width8, false))) {
		t.Fatal("refs")
	}
	if Array(Bool(), 3).Equal(Array(Bool(), 4)) {
		t.Fatal("array len")
	}
	if Ref(Unknown()).IsKnown() || !Array(Bool(), 1).IsKnown() {
		t.Fatal("IsKnown")
	}
}

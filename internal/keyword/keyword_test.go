package keyword

import (
	"testing"

	"mmc/internal/atom"
)

func TestMakeBindsEverySpelling(t *testing.T) {
	atoms := atom.NewTable()
	kw := Make(atoms.Intern)
	for k := Add; k < numKeywords; k++ {
		a, ok := atoms.Find(k.String())
		if !ok {
			t.Fatalf("%v not interned", k)
		}
		got, ok := kw.Get(a)
		if !ok || got != k {
			t.Fatalf("Get(%s) = %v,%v", k, got, ok)
		}
		if kw.Atom(k) != a || !kw.Is(a, k) {
			t.Fatalf("Atom(%s) mismatch", k)
		}
	}
}

func TestUnknownAtom(t *testing.T) {
	atoms := atom.NewTable()
	kw := Make(atoms.Intern)
	if _, ok := kw.Get(atoms.Intern("frobnicate")); ok {
		t.Fatal("unexpected keyword")
	}
	if kw.Is(atom.None, Invalid) {
		t.Fatal("None must not match")
	}
}

func TestClasses(t *testing.T) {
	if !Proc.IsItem() || !Struct.IsItem() || Let.IsItem() || Add.IsItem() {
		t.Fatal("IsItem")
	}
	if !Add.IsCommand() || !Finish.IsCommand() || Proc.IsCommand() {
		t.Fatal("IsCommand")
	}
}

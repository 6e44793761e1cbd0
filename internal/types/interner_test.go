package types

import (
	"testing"

	"mmc/internal/atom"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Bool == NoTypeID || b.Unit == b.Bool {
		t.Fatalf("builtins not initialized: %+v", b)
	}
	if in.MustLookup(b.Unit).Kind != KindUnit {
		t.Fatal("unit kind")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	u8 := in.Intern(MakeInt(Width8, false))
	if in.Intern(MakeArray(u8, 4)) != in.Intern(MakeArray(u8, 4)) {
		t.Fatal("arrays should be deduplicated")
	}
	if in.Intern(MakeArray(u8, 4)) == in.Intern(MakeArray(u8, 5)) {
		t.Fatal("array length is part of identity")
	}
	if in.Intern(MakeInt(Width8, true)) == u8 {
		t.Fatal("signedness is part of identity")
	}
}

func TestFreshVarsAreDistinct(t *testing.T) {
	in := NewInterner()
	a, b := in.FreshVar(), in.FreshVar()
	if a == b {
		t.Fatal("fresh vars collide")
	}
	if got := in.Format(b, nil); got != "?2" {
		t.Fatalf("format = %s", got)
	}
}

func TestTuples(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	u8 := in.Intern(MakeInt(Width8, false))
	if in.Tuple(nil) != b.Unit || in.Tuple([]TypeID{u8}) != u8 {
		t.Fatal("degenerate tuples")
	}
	t1 := in.Tuple([]TypeID{u8, b.Bool})
	if t1 != in.Tuple([]TypeID{u8, b.Bool}) || t1 == in.Tuple([]TypeID{b.Bool, u8}) {
		t.Fatal("tuple identity")
	}
	atoms := atom.NewTable()
	pt := in.Intern(MakeStruct(atoms.Intern("point")))
	ref := in.Intern(MakeRef(in.Tuple([]TypeID{pt, in.Intern(MakeInt(WidthAny, true))})))
	if got := in.Format(ref, atoms.Name); got != "(& (tuple point int))" {
		t.Fatalf("format = %s", got)
	}
	if got := in.Format(t1, atoms.Name); got != "(tuple u8 bool)" {
		t.Fatalf("format = %s", got)
	}
}

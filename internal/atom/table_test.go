package atom

import "testing"

func TestInternDeduplicates(t *testing.T) {
	tab := NewTable()

	if name, ok := tab.Lookup(None); !ok || name != "" {
		t.Fatalf("None должен соответствовать пустой строке, got %q/%v", name, ok)
	}
	a := tab.Intern("proc")
	b := tab.Intern("proc")
	if a != b {
		t.Fatalf("same name must intern to the same atom: %d != %d", a, b)
	}
	if !a.IsValid() {
		t.Fatalf("interned atom must be valid")
	}
	if c := tab.Intern("func"); c == a {
		t.Fatalf("different names must get different atoms")
	}
	if tab.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tab.Len())
	}
}

func TestInternNormalizesNFC(t *testing.T) {
	tab := NewTable()
	composed := tab.Intern("caf\u00e9")
	decomposed := tab.Intern("cafe\u0301")
	if composed != decomposed {
		t.Fatalf("NFC-equivalent names must share an atom")
	}
	if id, ok := tab.Find("cafe\u0301"); !ok || id != composed {
		t.Fatalf("Find must normalise too")
	}
}

func TestNameUnknown(t *testing.T) {
	tab := NewTable()
	if _, ok := tab.Lookup(ID(99)); ok {
		t.Fatalf("unknown atom must not resolve")
	}
	if got := tab.Name(ID(99)); got != "#<atom 99>" {
		t.Fatalf("Name placeholder = %q", got)
	}
}

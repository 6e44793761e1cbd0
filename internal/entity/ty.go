package entity

import (
	"strconv"
	"strings"

	"mmc/internal/atom"
)

// TyKind discriminates type skeletons.
type TyKind uint8

const (
	TyUnknown TyKind = iota
	TyUnit
	TyBool
	TyInt
	TyRef
	TyArray
	TyNamed
)

// Width of an integer type; WidthAny is the unbounded nat/int.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Ty is the type skeleton stored on entities. It is enough to typecheck a
// reference to the entity without looking at its body. Unknown parts are
// instantiated with fresh metavariables at every use.
type Ty struct {
	Kind   TyKind
	Width  Width
	Signed bool
	Elem   *Ty     // TyRef, TyArray
	Len    uint64  // TyArray
	Name   atom.ID // TyNamed
}

func Unknown() Ty { return Ty{} }

func Unit() Ty { return Ty{Kind: TyUnit} }

func Bool() Ty { return Ty{Kind: TyBool} }

func Int(w Width, signed bool) Ty { return Ty{Kind: TyInt, Width: w, Signed: signed} }

func Ref(elem Ty) Ty { return Ty{Kind: TyRef, Elem: &elem} }

func Array(elem Ty, n uint64) Ty { return Ty{Kind: TyArray, Elem: &elem, Len: n} }

func Named(name atom.ID) Ty { return Ty{Kind: TyNamed, Name: name} }

// IsKnown reports whether the skeleton has no unknown parts.
func (t Ty) IsKnown() bool {
	switch t.Kind {
	case TyUnknown:
		return false
	case TyRef, TyArray:
		return t.Elem != nil && t.Elem.IsKnown()
	default:
		return true
	}
}

// Equal compares two skeletons structurally.
func (t Ty) Equal(o Ty) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TyInt:
		return t.Width == o.Width && t.Signed == o.Signed
	case TyNamed:
		return t.Name == o.Name
	case TyRef:
		return elemEqual(t.Elem, o.Elem)
	case TyArray:
		return t.Len == o.Len && elemEqual(t.Elem, o.Elem)
	default:
		return true
	}
}

func elemEqual(a, b *Ty) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Format renders the skeleton in source syntax.
func (t Ty) Format(name func(atom.ID) string) string {
	var sb strings.Builder
	t.write(&sb, name)
	return sb.String()
}

func (t Ty) write(sb *strings.Builder, name func(atom.ID) string) {
	switch t.Kind {
	case TyUnknown:
		sb.WriteString("_")
	case TyUnit:
		sb.WriteString("()")
	case TyBool:
		sb.WriteString("bool")
	case TyInt:
		sb.WriteString(IntName(t.Width, t.Signed))
	case TyRef:
		sb.WriteString("(& ")
		elemOrUnknown(t.Elem).write(sb, name)
		sb.WriteByte(')')
	case TyArray:
		sb.WriteString("(array ")
		elemOrUnknown(t.Elem).write(sb, name)
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatUint(t.Len, 10))
		sb.WriteByte(')')
	case TyNamed:
		sb.WriteString(name(t.Name))
	}
}

func elemOrUnknown(t *Ty) Ty {
	if t == nil {
		return Unknown()
	}
	return *t
}

// IntName spells an integer type.
func IntName(w Width, signed bool) string {
	switch {
	case w == WidthAny && signed:
		return "int"
	case w == WidthAny:
		return "nat"
	case signed:
		return "i" + strconv.Itoa(int(w))
	default:
		return "u" + strconv.Itoa(int(w))
	}
}

// Package sexpr is the host's symbolic-expression value model: atoms,
// numbers, strings, booleans, proper and dotted lists. Values carry the span
// they were read from so later phases can point diagnostics at them.
package sexpr

import (
	"math/big"

	"mmc/internal/atom"
	"mmc/internal/source"
)

// Kind discriminates Value shapes.
type Kind uint8

const (
	KindUndef Kind = iota
	KindAtom
	KindNumber
	KindString
	KindBool
	KindList
	KindDotted // (a b . c)
)

func (k Kind) String() string {
	switch k {
	case KindUndef:
		return "undef"
	case KindAtom:
		return "atom"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindDotted:
		return "dotted list"
	default:
		return "invalid"
	}
}

// Value is an immutable symbolic expression.
type Value struct {
	Kind  Kind
	Atom  atom.ID
	Num   *big.Int
	Str   string
	Bool  bool
	Elems []Value
	Tail  *Value // only for KindDotted
	Span  source.Span
}

// Undef is the "no useful value" marker returned by successful commands.
func Undef() Value { return Value{Kind: KindUndef} }

func Atom(id atom.ID) Value { return Value{Kind: KindAtom, Atom: id} }

func Int(n int64) Value { return Value{Kind: KindNumber, Num: big.NewInt(n)} }

func Number(n *big.Int) Value { return Value{Kind: KindNumber, Num: new(big.Int).Set(n)} }

func String(s string) Value { return Value{Kind: KindString, Str: s} }

func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func List(elems ...Value) Value { return Value{Kind: KindList, Elems: elems} }

// Dotted builds (elems... . tail); a list tail is flattened into a proper list.
func Dotted(tail Value, elems ...Value) Value {
	if tail.Kind == KindList {
		return List(append(append([]Value(nil), elems...), tail.Elems...)...)
	}
	return Value{Kind: KindDotted, Elems: elems, Tail: &tail}
}

// At returns a copy of v carrying span sp.
func (v Value) At(sp source.Span) Value {
	v.Span = sp
	return v
}

func (v Value) IsUndef() bool { return v.Kind == KindUndef }

func (v Value) IsList() bool { return v.Kind == KindList }

// IsNil reports whether v is the empty list ().
func (v Value) IsNil() bool { return v.Kind == KindList && len(v.Elems) == 0 }

// AsAtom returns the atom of v, if v is an atom.
func (v Value) AsAtom() (atom.ID, bool) {
	if v.Kind != KindAtom {
		return atom.None, false
	}
	return v.Atom, true
}

// Head returns the leading atom of a non-empty list.
func (v Value) Head() (atom.ID, bool) {
	if (v.Kind != KindList && v.Kind != KindDotted) || len(v.Elems) == 0 {
		return atom.None, false
	}
	return v.Elems[0].AsAtom()
}

// Len is the number of proper elements for lists and 0 otherwise.
func (v Value) Len() int {
	if v.Kind != KindList && v.Kind != KindDotted {
		return 0
	}
	return len(v.Elems)
}

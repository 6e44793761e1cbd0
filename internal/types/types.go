// Package types is the per-item type universe used by inference. Types are
// interned descriptors addressed by TypeID; metavariables are types of kind
// KindVar whose solution lives in the inference context.
package types

import (
	"fmt"

	"mmc/internal/atom"
)

// TypeID uniquely identifies a type inside one interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates type kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVar
	KindUnit
	KindBool
	KindInt
	KindRef
	KindArray
	KindStruct
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVar:
		return "var"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindRef:
		return "ref"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindTuple:
		return "tuple"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width of an integer; WidthAny is unbounded.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact descriptor.
type Type struct {
	Kind    Kind
	Width   Width   // KindInt
	Signed  bool    // KindInt
	Elem    TypeID  // KindRef, KindArray
	Len     uint64  // KindArray
	Name    atom.ID // KindStruct
	Var     uint32  // KindVar: metavariable number
	Payload uint32  // KindTuple: slot in the tuple table
}

func MakeInt(w Width, signed bool) Type { return Type{Kind: KindInt, Width: w, Signed: signed} }

func MakeRef(elem TypeID) Type { return Type{Kind: KindRef, Elem: elem} }

func MakeArray(elem TypeID, n uint64) Type { return Type{Kind: KindArray, Elem: elem, Len: n} }

func MakeStruct(name atom.ID) Type { return Type{Kind: KindStruct, Name: name} }

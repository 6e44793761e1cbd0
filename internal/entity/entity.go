// Package entity tracks the named declarations of a session: operations and
// types, with enough shape to check references to them without re-reading
// their bodies.
package entity

import (
	"mmc/internal/atom"
	"mmc/internal/predef"
	"mmc/internal/source"
)

// Kind classifies an entity.
type Kind uint8

const (
	KindPrimType Kind = iota + 1
	KindPrimOp
	KindProc
	KindFunc
	KindIntrinsic
	KindGlobal
	KindConst
	KindTypedef
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindPrimType:
		return "primitive type"
	case KindPrimOp:
		return "primitive operation"
	case KindProc:
		return "proc"
	case KindFunc:
		return "func"
	case KindIntrinsic:
		return "intrinsic"
	case KindGlobal:
		return "global"
	case KindConst:
		return "const"
	case KindTypedef:
		return "typedef"
	case KindStruct:
		return "struct"
	default:
		return "invalid"
	}
}

// IsOp reports callable kinds.
func (k Kind) IsOp() bool {
	return k == KindPrimOp || k == KindProc || k == KindFunc || k == KindIntrinsic
}

// IsType reports kinds usable in type position.
func (k Kind) IsType() bool {
	return k == KindPrimType || k == KindTypedef || k == KindStruct
}

// IsValue reports kinds usable as values.
func (k Kind) IsValue() bool { return k == KindGlobal || k == KindConst }

// Status tracks how far an entity has been processed.
type Status uint8

const (
	// Reserved: the name and shape are known, the body was not lowered yet.
	Reserved Status = iota
	Checked
	Failed
)

func (s Status) String() string {
	switch s {
	case Reserved:
		return "reserved"
	case Checked:
		return "checked"
	case Failed:
		return "failed"
	default:
		return "invalid"
	}
}

// Param is a named slot of an operation signature or a struct field.
type Param struct {
	Name atom.ID // None for anonymous returns
	Ty   Ty
}

// Entity is one named declaration.
type Entity struct {
	Name    atom.ID
	Kind    Kind
	Span    source.Span
	Doc     string
	Params  []Param
	Rets    []Param
	Ty      Ty // value type of globals/consts, target of typedefs, the type itself for primitives
	Fields  []Param
	Prim    predef.Predef // KindPrimOp only
	Status  Status
	Builtin bool
}

// Field returns the index of a struct field, or -1.
func (e *Entity) Field(name atom.ID) int {
	for i, f := range e.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Package parser is the item reader: it turns one symbolic-expression value
// into a stream of syntactic top-level items. Signatures are decoded here;
// bodies and initializers stay as values for the AST builder.
package parser

import (
	"mmc/internal/atom"
	"mmc/internal/sexpr"
	"mmc/internal/source"
)

// ItemKind enumerates top-level declaration forms.
type ItemKind uint8

const (
	ItemProc ItemKind = iota + 1
	ItemFunc
	ItemIntrinsic
	ItemGlobal
	ItemConst
	ItemTypedef
	ItemStruct
)

func (k ItemKind) String() string {
	switch k {
	case ItemProc:
		return "proc"
	case ItemFunc:
		return "func"
	case ItemIntrinsic:
		return "intrinsic"
	case ItemGlobal:
		return "global"
	case ItemConst:
		return "const"
	case ItemTypedef:
		return "typedef"
	case ItemStruct:
		return "struct"
	default:
		return "invalid"
	}
}

// IsOp reports declaration forms that introduce an operation.
func (k ItemKind) IsOp() bool {
	return k == ItemProc || k == ItemFunc || k == ItemIntrinsic
}

// Binder is a name with an optional type annotation.
type Binder struct {
	Name atom.ID // None for anonymous returns
	Type sexpr.Value
	Span source.Span
}

// HasType reports whether the binder carries an annotation.
func (b Binder) HasType() bool { return !b.Type.IsUndef() }

// Item is one top-level declaration as read from the batch.
type Item struct {
	Kind     ItemKind
	Name     atom.ID
	NameSpan source.Span
	Span     source.Span
	Doc      string

	Params []Binder      // proc, func, intrinsic
	Rets   []Binder      // proc, func, intrinsic
	Body   []sexpr.Value // proc, func

	Decl Binder      // global, const: the declared name and type
	Init sexpr.Value // global, const

	Type   sexpr.Value // typedef target
	Fields []Binder    // struct
}

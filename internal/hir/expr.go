// Package hir is the typed tree produced by inference. Every node lives in
// the Arena of the item being lowered and is addressed by ExprID; the arena
// is dropped together with the inference context that filled it.
package hir

import (
	"math/big"

	"mmc/internal/ast"
	"mmc/internal/atom"
	"mmc/internal/predef"
	"mmc/internal/source"
	"mmc/internal/types"
)

// ExprID addresses an expression in an Exprs arena.
type ExprID uint32

const NoExprID ExprID = 0

func (id ExprID) IsValid() bool { return id != NoExprID }

// ExprKind is shared with the pre-typed tree: lowering keeps the node set.
type ExprKind = ast.ExprKind

// Expr is one typed node. Type may still contain metavariables until the
// owning context zonks it.
type Expr struct {
	Kind ExprKind
	Type types.TypeID
	Span source.Span
	Data ExprData
}

type ExprData interface {
	exprData()
}

type VarData struct{ Var ast.VarID }

type GlobalData struct{ Name atom.ID }

type IntData struct{ Value *big.Int }

type BoolData struct{ Value bool }

type CallData struct {
	Callee atom.ID
	Args   []ExprID
}

// PrimData records the lemma justifying the operation.
type PrimData struct {
	Op    predef.Predef
	Lemma atom.ID
	Args  []ExprID
}

type LetData struct {
	Var  ast.VarID
	Init ExprID
}

type AssignData struct {
	Target ExprID
	Value  ExprID
}

type IfData struct {
	Cond, Then, Else ExprID
}

type WhileData struct {
	Cond ExprID
	Body ExprID
}

type BlockData struct{ Stmts []ExprID }

type ReturnData struct{ Values []ExprID }

type AssertData struct {
	Cond  ExprID
	Lemma atom.ID
}

type AscribeData struct{ Expr ExprID }

type RefData struct{ Expr ExprID }

type DerefData struct{ Expr ExprID }

type IndexData struct {
	Array ExprID
	Index ExprID
}

type FieldData struct {
	Object ExprID
	Field  atom.ID
	Index  int // -1 when the struct is unknown
}

type CastData struct{ Expr ExprID }

type ListData struct{ Elems []ExprID }

func (VarData) exprData()     {}
func (GlobalData) exprData()  {}
func (IntData) exprData()     {}
func (BoolData) exprData()    {}
func (CallData) exprData()    {}
func (PrimData) exprData()    {}
func (LetData) exprData()     {}
func (AssignData) exprData()  {}
func (IfData) exprData()      {}
func (WhileData) exprData()   {}
func (BlockData) exprData()   {}
func (ReturnData) exprData()  {}
func (AssertData) exprData()  {}
func (AscribeData) exprData() {}
func (RefData) exprData()     {}
func (DerefData) exprData()   {}
func (IndexData) exprData()   {}
func (FieldData) exprData()   {}
func (CastData) exprData()    {}
func (ListData) exprData()    {}

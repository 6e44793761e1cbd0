// Package ast is the pre-typed tree of one item and the builder that
// produces it. Identifiers are already bound: locals to VarIDs, everything
// else to entity names. Surface sugar is gone; only the canonical node set
// below reaches inference.
package ast

import (
	"math/big"

	"mmc/internal/atom"
	"mmc/internal/entity"
	"mmc/internal/parser"
	"mmc/internal/predef"
	"mmc/internal/source"
)

// VarID identifies a local of one item, 1-based.
type VarID uint32

const NoVarID VarID = 0

func (id VarID) IsValid() bool { return id != NoVarID }

// ExprKind enumerates pre-typed expression kinds.
type ExprKind uint8

const (
	ExprVar ExprKind = iota + 1
	ExprGlobal
	ExprInt
	ExprBool
	ExprUnit
	ExprCall   // user operation
	ExprPrim   // primitive operation
	ExprLet
	ExprAssign
	ExprIf
	ExprWhile
	ExprBlock
	ExprReturn
	ExprAssert
	ExprAscribe
	ExprRef
	ExprDeref
	ExprIndex
	ExprField
	ExprCast
	ExprList
)

var exprKindNames = [...]string{
	ExprVar: "var", ExprGlobal: "global", ExprInt: "int", ExprBool: "bool",
	ExprUnit: "unit", ExprCall: "call", ExprPrim: "prim", ExprLet: "let",
	ExprAssign: "assign", ExprIf: "if", ExprWhile: "while", ExprBlock: "block",
	ExprReturn: "return", ExprAssert: "assert", ExprAscribe: "ascribe",
	ExprRef: "ref", ExprDeref: "deref", ExprIndex: "index", ExprField: "field",
	ExprCast: "cast", ExprList: "list",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) && exprKindNames[k] != "" {
		return exprKindNames[k]
	}
	return "invalid"
}

// Expr is one pre-typed node.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Data ExprData
}

// ExprData is the kind-specific payload.
type ExprData interface {
	exprData()
}

type VarData struct{ Var VarID }

type GlobalData struct{ Name atom.ID }

type IntData struct{ Value *big.Int }

type BoolData struct{ Value bool }

type CallData struct {
	Callee atom.ID
	Args   []*Expr
}

type PrimData struct {
	Op   predef.Predef
	Args []*Expr
}

// LetData binds Var to Init; Type is Unknown when there is no annotation.
type LetData struct {
	Var  VarID
	Type entity.Ty
	Init *Expr
}

type AssignData struct {
	Target *Expr
	Value  *Expr
}

type IfData struct {
	Cond, Then, Else *Expr
}

type WhileData struct {
	Cond *Expr
	Body *Expr
}

// BlockData evaluates to its last statement, or unit when empty.
type BlockData struct{ Stmts []*Expr }

type ReturnData struct{ Values []*Expr }

type AssertData struct{ Cond *Expr }

type AscribeData struct {
	Expr *Expr
	Type entity.Ty
}

type RefData struct{ Expr *Expr }

type DerefData struct{ Expr *Expr }

type IndexData struct {
	Array *Expr
	Index *Expr
}

type FieldData struct {
	Object *Expr
	Field  atom.ID
}

type CastData struct {
	Expr *Expr
	Type entity.Ty
}

type ListData struct{ Elems []*Expr }

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

// Param is a bound parameter of an operation.
type Param struct {
	Var  VarID
	Type entity.Ty
	Span source.Span
}

// Item is the pre-typed form of one declaration.
type Item struct {
	Kind parser.ItemKind
	Name atom.ID
	Span source.Span
	Doc  string

	Params []Param         // ops
	Rets   []entity.Param  // ops
	Body   *Expr           // proc, func

	Decl entity.Ty // global, const; Unknown when unannotated
	Init *Expr     // global, const

	Type   entity.Ty      // typedef target
	Fields []entity.Param // struct
}

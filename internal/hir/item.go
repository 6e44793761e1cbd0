package hir

import (
	"mmc/internal/ast"
	"mmc/internal/atom"
	"mmc/internal/parser"
	"mmc/internal/source"
	"mmc/internal/types"
)

// Exprs is the per-item node arena.
type Exprs struct {
	arena *Arena[Expr]
}

// NewExprs creates an empty node arena.
func NewExprs(capHint uint) *Exprs {
	return &Exprs{arena: NewArena[Expr](capHint)}
}

// New allocates e.
func (x *Exprs) New(e Expr) ExprID { return ExprID(x.arena.Allocate(e)) }

// Get returns the node for id, nil for NoExprID.
func (x *Exprs) Get(id ExprID) *Expr { return x.arena.Get(uint32(id)) }

func (x *Exprs) Len() int { return x.arena.Len() }

// Walk calls f for every node of the arena in allocation order.
func (x *Exprs) Walk(f func(ExprID, *Expr)) {
	data := x.arena.Slice()
	for i := range data {
		f(ExprID(i+1), &data[i])
	}
}

// Item is the typed form of one declaration.
type Item struct {
	Kind parser.ItemKind
	Name atom.ID
	Span source.Span

	Params []types.TypeID // ops, by position
	Rets   []types.TypeID // ops
	Body   ExprID         // proc, func
	Value  types.TypeID   // global, const: the value type; typedef: the target
	Init   ExprID         // global, const
	Fields []types.TypeID // struct

	// Locals gives the type of every VarID-1.
	Locals []types.TypeID
	Exprs  *Exprs
}

// LocalType returns the type of a local.
func (it *Item) LocalType(v ast.VarID) types.TypeID {
	if !v.IsValid() || int(v) > len(it.Locals) {
		return types.NoTypeID
	}
	return it.Locals[v-1]
}

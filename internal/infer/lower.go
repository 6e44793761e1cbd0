package infer

import (
	"fmt"

	"mmc/internal/ast"
	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/hir"
	"mmc/internal/parser"
	"mmc/internal/predef"
	"mmc/internal/source"
	"mmc/internal/types"
)

// LowerItem builds the typed item and refines the item's entity with what
// inference learned. Failures are recorded, never returned: the item is
// always lowered completely.
func (c *Ctx) LowerItem(item *ast.Item) *hir.Item {
	out := &hir.Item{Kind: item.Kind, Name: item.Name, Span: item.Span, Exprs: c.exprs}
	c.locals = make([]types.TypeID, len(c.varNames))
	for i := range c.locals {
		c.locals[i] = c.fresh()
	}

	switch item.Kind {
	case parser.ItemProc, parser.ItemFunc, parser.ItemIntrinsic:
		c.inOp = true
		for _, p := range item.Params {
			pt := c.instantiate(p.Span, p.Type)
			c.expect(p.Span, "parameter", pt, c.local(p.Var))
			out.Params = append(out.Params, pt)
		}
		for _, r := range item.Rets {
			out.Rets = append(out.Rets, c.instantiate(item.Span, r.Ty))
		}
		c.rets = out.Rets
		if item.Body != nil {
			out.Body = c.expr(item.Body)
			if len(out.Rets) == 1 {
				c.expect(item.Body.Span, "result", out.Rets[0], c.typeOf(out.Body))
			}
		}
	case parser.ItemGlobal, parser.ItemConst:
		out.Value = c.instantiate(item.Span, item.Decl)
		out.Init = c.expr(item.Init)
		c.expect(item.Init.Span, "initializer", out.Value, c.typeOf(out.Init))
	case parser.ItemTypedef:
		c.expanding[item.Name] = struct{}{}
		out.Value = c.instantiate(item.Span, item.Type)
		delete(c.expanding, item.Name)
	case parser.ItemStruct:
		for _, f := range item.Fields {
			out.Fields = append(out.Fields, c.instantiate(item.Span, f.Ty))
			if c.holds(item.Name, f.Ty, map[atom.ID]struct{}{}) {
				c.reportf(diag.TypInfiniteType, item.Span, "struct '%s' contains itself through field '%s'",
					c.name(item.Name), c.name(f.Name))
			}
		}
	}

	c.solvePending()
	c.zonkAll(out)
	c.writeBack(item, out)
	return out
}

func (c *Ctx) zonkAll(out *hir.Item) {
	c.exprs.Walk(func(_ hir.ExprID, e *hir.Expr) { e.Type = c.Zonk(e.Type) })
	for i, t := range c.locals {
		c.locals[i] = c.Zonk(t)
	}
	out.Locals = c.locals
	zonkSlice := func(ts []types.TypeID) {
		for i, t := range ts {
			ts[i] = c.Zonk(t)
		}
	}
	zonkSlice(out.Params)
	zonkSlice(out.Rets)
	zonkSlice(out.Fields)
	out.Value = c.Zonk(out.Value)
}

// writeBack refines the entity being defined: signatures take the fully
// resolved annotations, unannotated globals the inferred type.
func (c *Ctx) writeBack(item *ast.Item, out *hir.Item) {
	e, ok := c.ents.Get(item.Name)
	if !ok || e.Builtin {
		return
	}
	switch item.Kind {
	case parser.ItemProc, parser.ItemFunc, parser.ItemIntrinsic:
		e.Params = e.Params[:0]
		for i, p := range item.Params {
			ty := p.Type
			if !ty.IsKnown() {
				ty = c.skeleton(out.Params[i])
			}
			e.Params = append(e.Params, entity.Param{Name: c.varNames[p.Var-1], Ty: ty})
		}
		e.Rets = append(e.Rets[:0], item.Rets...)
	case parser.ItemGlobal, parser.ItemConst:
		e.Ty = item.Decl
		if !e.Ty.IsKnown() {
			e.Ty = c.skeleton(out.Value)
		}
	case parser.ItemTypedef:
		e.Ty = item.Type
	case parser.ItemStruct:
		e.Fields = append(e.Fields[:0], item.Fields...)
	}
	if len(c.errs) > 0 {
		e.Status = entity.Failed
	} else {
		e.Status = entity.Checked
	}
}

func (c *Ctx) local(v ast.VarID) types.TypeID {
	if !v.IsValid() || int(v) > len(c.locals) {
		return c.fresh()
	}
	return c.locals[v-1]
}

func (c *Ctx) typeOf(id hir.ExprID) types.TypeID {
	if e := c.exprs.Get(id); e != nil {
		return e.Type
	}
	return c.in.Builtins().Unit
}

func (c *Ctx) node(e *ast.Expr, t types.TypeID, data hir.ExprData) hir.ExprID {
	return c.exprs.New(hir.Expr{Kind: e.Kind, Type: t, Span: e.Span, Data: data})
}

func (c *Ctx) exprList(es []*ast.Expr) []hir.ExprID {
	out := make([]hir.ExprID, len(es))
	for i, e := range es {
		out[i] = c.expr(e)
	}
	return out
}

func (c *Ctx) expr(e *ast.Expr) hir.ExprID {
	b := c.in.Builtins()
	switch d := e.Data.(type) {
	case ast.VarData:
		return c.node(e, c.local(d.Var), hir.VarData{Var: d.Var})
	case ast.GlobalData:
		t := c.fresh()
		if g, ok := c.ents.Get(d.Name); ok {
			t = c.instantiate(e.Span, g.Ty)
		}
		return c.node(e, t, hir.GlobalData{Name: d.Name})
	case ast.IntData:
		return c.node(e, c.freshNumeric(), hir.IntData{Value: d.Value})
	case ast.BoolData:
		return c.node(e, b.Bool, hir.BoolData{Value: d.Value})
	case ast.CallData:
		return c.call(e, d)
	case ast.PrimData:
		return c.prim(e, d)
	case ast.LetData:
		init := c.expr(d.Init)
		lt := c.local(d.Var)
		if d.Type.Kind != entity.TyUnknown {
			c.expect(e.Span, "let annotation", c.instantiate(e.Span, d.Type), lt)
		}
		c.expect(d.Init.Span, "let", lt, c.typeOf(init))
		return c.node(e, b.Unit, hir.LetData{Var: d.Var, Init: init})
	case ast.AssignData:
		target := c.expr(d.Target)
		value := c.expr(d.Value)
		c.expect(d.Value.Span, "assignment", c.typeOf(target), c.typeOf(value))
		return c.node(e, b.Unit, hir.AssignData{Target: target, Value: value})
	case ast.IfData:
		cond := c.expr(d.Cond)
		c.expect(d.Cond.Span, "condition", b.Bool, c.typeOf(cond))
		then := c.expr(d.Then)
		els := c.expr(d.Else)
		c.expect(d.Else.Span, "else branch", c.typeOf(then), c.typeOf(els))
		return c.node(e, c.typeOf(then), hir.IfData{Cond: cond, Then: then, Else: els})
	case ast.WhileData:
		cond := c.expr(d.Cond)
		c.expect(d.Cond.Span, "loop condition", b.Bool, c.typeOf(cond))
		body := c.expr(d.Body)
		return c.node(e, b.Unit, hir.WhileData{Cond: cond, Body: body})
	case ast.BlockData:
		stmts := c.exprList(d.Stmts)
		t := b.Unit
		if len(stmts) > 0 {
			t = c.typeOf(stmts[len(stmts)-1])
		}
		return c.node(e, t, hir.BlockData{Stmts: stmts})
	case ast.ReturnData:
		return c.ret(e, d)
	case ast.AssertData:
		cond := c.expr(d.Cond)
		c.expect(d.Cond.Span, "assertion", b.Bool, c.typeOf(cond))
		return c.node(e, b.Unit, hir.AssertData{Cond: cond, Lemma: c.predefs.Get(predef.AssertLemma)})
	case ast.AscribeData:
		inner := c.expr(d.Expr)
		t := c.instantiate(e.Span, d.Type)
		c.expect(d.Expr.Span, "type ascription", t, c.typeOf(inner))
		return c.node(e, t, hir.AscribeData{Expr: inner})
	case ast.RefData:
		inner := c.expr(d.Expr)
		return c.node(e, c.in.Intern(types.MakeRef(c.typeOf(inner))), hir.RefData{Expr: inner})
	case ast.DerefData:
		inner := c.expr(d.Expr)
		elem := c.fresh()
		c.expect(d.Expr.Span, "dereference", c.in.Intern(types.MakeRef(elem)), c.typeOf(inner))
		return c.node(e, elem, hir.DerefData{Expr: inner})
	case ast.IndexData:
		return c.index(e, d)
	case ast.FieldData:
		return c.field(e, d)
	case ast.CastData:
		inner := c.expr(d.Expr)
		c.expectNumeric(d.Expr.Span, "cast", c.typeOf(inner))
		t := c.instantiate(e.Span, d.Type)
		c.expectNumeric(e.Span, "cast target", t)
		return c.node(e, t, hir.CastData{Expr: inner})
	case ast.ListData:
		elems := c.exprList(d.Elems)
		elem := c.fresh()
		for i, id := range elems {
			c.expect(d.Elems[i].Span, "list element", elem, c.typeOf(id))
		}
		t := c.in.Intern(types.MakeArray(elem, uint64(len(elems))))
		return c.node(e, t, hir.ListData{Elems: elems})
	default:
		return c.node(e, b.Unit, nil)
	}
}

func (c *Ctx) call(e *ast.Expr, d ast.CallData) hir.ExprID {
	args := c.exprList(d.Args)
	callee, ok := c.ents.Get(d.Callee)
	if !ok {
		return c.node(e, c.fresh(), hir.CallData{Callee: d.Callee, Args: args})
	}
	if len(args) != len(callee.Params) {
		c.reportf(diag.TypArity, e.Span, "'%s' expects %d arguments, got %d",
			c.name(d.Callee), len(callee.Params), len(args))
	}
	for i := 0; i < min(len(args), len(callee.Params)); i++ {
		pt := c.instantiate(e.Span, callee.Params[i].Ty)
		c.expect(d.Args[i].Span, fmt.Sprintf("argument %d of '%s'", i+1, c.name(d.Callee)), pt, c.typeOf(args[i]))
	}
	rets := make([]types.TypeID, len(callee.Rets))
	for i, r := range callee.Rets {
		rets[i] = c.instantiate(e.Span, r.Ty)
	}
	return c.node(e, c.in.Tuple(rets), hir.CallData{Callee: d.Callee, Args: args})
}

func (c *Ctx) prim(e *ast.Expr, d ast.PrimData) hir.ExprID {
	b := c.in.Builtins()
	args := c.exprList(d.Args)
	op := d.Op
	what := func(i int) string { return fmt.Sprintf("operand %d of '%s'", i+1, op.Op()) }
	var result types.TypeID
	switch {
	case op.IsArith():
		result = c.freshNumeric()
		for i, a := range args {
			c.expect(d.Args[i].Span, what(i), result, c.typeOf(a))
		}
	case op.IsCompare():
		operand := c.fresh()
		if op.IsOrdering() {
			operand = c.freshNumeric()
		}
		for i, a := range args {
			c.expect(d.Args[i].Span, what(i), operand, c.typeOf(a))
		}
		result = b.Bool
	case op.IsLogic():
		for i, a := range args {
			c.expect(d.Args[i].Span, what(i), b.Bool, c.typeOf(a))
		}
		result = b.Bool
	case op.IsShift():
		result = c.freshNumeric()
		if len(args) == 2 {
			c.expect(d.Args[0].Span, what(0), result, c.typeOf(args[0]))
			c.expectNumeric(d.Args[1].Span, what(1), c.typeOf(args[1]))
		}
	default: // bnot
		result = c.freshNumeric()
		for i, a := range args {
			c.expect(d.Args[i].Span, what(i), result, c.typeOf(a))
		}
	}
	return c.node(e, result, hir.PrimData{Op: op, Lemma: c.predefs.Get(op), Args: args})
}

func (c *Ctx) ret(e *ast.Expr, d ast.ReturnData) hir.ExprID {
	vals := c.exprList(d.Values)
	switch {
	case !c.inOp:
		c.reportf(diag.TypReturnArity, e.Span, "return outside of an operation")
	case len(vals) != len(c.rets):
		c.reportf(diag.TypReturnArity, e.Span, "expected %d return values, got %d", len(c.rets), len(vals))
	default:
		for i, v := range vals {
			c.expect(d.Values[i].Span, fmt.Sprintf("return value %d", i+1), c.rets[i], c.typeOf(v))
		}
	}
	// control does not continue past a return
	return c.node(e, c.fresh(), hir.ReturnData{Values: vals})
}

func (c *Ctx) index(e *ast.Expr, d ast.IndexData) hir.ExprID {
	arr := c.expr(d.Array)
	idx := c.expr(d.Index)
	c.expectNumeric(d.Index.Span, "index", c.typeOf(idx))
	elem := c.fresh()
	id := c.node(e, elem, hir.IndexData{Array: arr, Index: idx})
	c.access(shapeCheck{node: id, operand: c.typeOf(arr), result: elem, span: e.Span, operandSpan: d.Array.Span})
	return id
}

func (c *Ctx) field(e *ast.Expr, d ast.FieldData) hir.ExprID {
	obj := c.expr(d.Object)
	t := c.fresh()
	id := c.node(e, t, hir.FieldData{Object: obj, Field: d.Field, Index: -1})
	c.access(shapeCheck{node: id, operand: c.typeOf(obj), result: t, span: e.Span, operandSpan: d.Object.Span, field: d.Field})
	return id
}

// shapeCheck is an index or field access. Until the operand's type is
// known the access stays pending and its result is only a metavariable.
type shapeCheck struct {
	node        hir.ExprID
	operand     types.TypeID
	result      types.TypeID
	span        source.Span
	operandSpan source.Span
	field       atom.ID // None for index
}

func (c *Ctx) access(chk shapeCheck) {
	if !c.applyShape(chk) {
		c.pending = append(c.pending, chk)
	}
}

// applyShape connects the access result with the operand's element or field
// type. It reports false while the operand is still a metavariable.
func (c *Ctx) applyShape(chk shapeCheck) bool {
	ot := c.resolve(chk.operand)
	if c.isVar(ot) {
		return false
	}
	tt := c.in.MustLookup(ot)
	if !chk.field.IsValid() {
		if tt.Kind != types.KindArray {
			c.mismatchShape(chk.operandSpan, "an array", ot)
			return true
		}
		c.expect(chk.span, "indexed element", tt.Elem, chk.result)
		return true
	}
	if tt.Kind != types.KindStruct {
		c.mismatchShape(chk.operandSpan, "a struct", ot)
		return true
	}
	s, ok := c.ents.Get(tt.Name)
	if !ok {
		return true
	}
	idx := s.Field(chk.field)
	if idx < 0 {
		c.reportf(diag.TypNoSuchField, chk.span, "struct '%s' has no field '%s'", c.name(tt.Name), c.name(chk.field))
		return true
	}
	if n := c.exprs.Get(chk.node); n != nil {
		if fd, ok := n.Data.(hir.FieldData); ok {
			fd.Index = idx
			n.Data = fd
		}
	}
	c.expect(chk.span, "field '"+c.name(chk.field)+"'", c.instantiate(chk.span, s.Fields[idx].Ty), chk.result)
	return true
}

// solvePending retries deferred accesses until none of them makes progress;
// checking one access can fix the operand of another.
func (c *Ctx) solvePending() {
	for progress := true; progress && len(c.pending) > 0; {
		progress = false
		rest := c.pending[:0]
		for _, chk := range c.pending {
			if c.applyShape(chk) {
				progress = true
			} else {
				rest = append(rest, chk)
			}
		}
		c.pending = rest
	}
}

func (c *Ctx) mismatchShape(sp source.Span, want string, found types.TypeID) {
	c.report(&TypeError{
		Code: diag.TypMismatch,
		Span: sp,
		Msg:  fmt.Sprintf("type mismatch: expected %s, found %s", want, c.in.Format(c.Zonk(found), c.name)),
	})
}

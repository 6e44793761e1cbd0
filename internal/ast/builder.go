package ast

import (
	"fmt"
	"math/big"

	"fortio.org/safecast"

	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/keyword"
	"mmc/internal/parser"
	"mmc/internal/predef"
	"mmc/internal/sexpr"
	"mmc/internal/source"
)

// Builder lowers syntactic items. It reads the entity table but never
// changes it. After BuildItem, VarNames and Globals describe the item just
// built; both are reset by the next call.
type Builder struct {
	types  TypeResolver
	kw     keyword.Table
	ents   *entity.Table
	intern func(string) atom.ID
	name   func(atom.ID) string
	prefix string

	// VarNames maps VarID-1 to the local's name.
	VarNames []atom.ID
	// Globals lists referenced operations and values in first-use order.
	Globals []atom.ID

	globalSet map[atom.ID]struct{}
	scopes    []map[atom.ID]VarID
	hidden    int
}

// NewBuilder creates a builder. Hidden locals introduced by desugaring are
// named with prefix so they cannot collide with user names.
func NewBuilder(kw keyword.Table, ents *entity.Table, intern func(string) atom.ID, name func(atom.ID) string, prefix string) *Builder {
	return &Builder{
		types:  TypeResolver{Keywords: kw, Entities: ents, Name: name},
		kw:     kw,
		ents:   ents,
		intern: intern,
		name:   name,
		prefix: prefix,
	}
}

func (b *Builder) reset() {
	b.VarNames = nil
	b.Globals = nil
	b.globalSet = make(map[atom.ID]struct{})
	b.scopes = b.scopes[:0]
	b.hidden = 0
}

// BuildItem lowers one item. A *BuildError rejects the item as a whole.
func (b *Builder) BuildItem(it *parser.Item) (*Item, error) {
	b.reset()
	out := &Item{Kind: it.Kind, Name: it.Name, Span: it.Span, Doc: it.Doc}
	var err error
	switch it.Kind {
	case parser.ItemProc, parser.ItemFunc, parser.ItemIntrinsic:
		err = b.buildOp(it, out)
	case parser.ItemGlobal, parser.ItemConst:
		if it.Decl.HasType() {
			if out.Decl, err = b.types.Resolve(it.Decl.Type); err != nil {
				return nil, err
			}
		}
		b.push()
		out.Init, err = b.expr(it.Init)
		b.pop()
	case parser.ItemTypedef:
		out.Type, err = b.types.Resolve(it.Type)
	case parser.ItemStruct:
		for _, f := range it.Fields {
			ty, ferr := b.types.Resolve(f.Type)
			if ferr != nil {
				return nil, ferr
			}
			out.Fields = append(out.Fields, entity.Param{Name: f.Name, Ty: ty})
		}
	default:
		err = syntaxf(it.Span, "unsupported item")
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Builder) buildOp(it *parser.Item, out *Item) error {
	b.push()
	defer b.pop()
	for _, p := range it.Params {
		ty := entity.Unknown()
		if p.HasType() {
			var err error
			if ty, err = b.types.Resolve(p.Type); err != nil {
				return err
			}
		}
		if _, dup := b.scopes[0][p.Name]; dup {
			return errorf(diag.SemaDuplicateDecl, p.Span, "duplicate parameter '%s'", b.name(p.Name))
		}
		v, err := b.bind(p.Name, p.Span)
		if err != nil {
			return err
		}
		out.Params = append(out.Params, Param{Var: v, Type: ty, Span: p.Span})
	}
	for _, r := range it.Rets {
		ty, err := b.types.Resolve(r.Type)
		if err != nil {
			return err
		}
		out.Rets = append(out.Rets, entity.Param{Name: r.Name, Ty: ty})
	}
	if it.Kind == parser.ItemIntrinsic {
		return nil
	}
	body, err := b.block(it.Body, it.Span)
	if err != nil {
		return err
	}
	out.Body = body
	return nil
}

// scopes ---------------------------------------------------------------------

func (b *Builder) push() { b.scopes = append(b.scopes, make(map[atom.ID]VarID)) }

func (b *Builder) pop() { b.scopes = b.scopes[:len(b.scopes)-1] }

func (b *Builder) bind(name atom.ID, sp source.Span) (VarID, error) {
	if _, isKw := b.kw.Get(name); isKw {
		return NoVarID, syntaxf(sp, "cannot bind keyword '%s'", b.name(name))
	}
	n, err := safecast.Conv[uint32](len(b.VarNames) + 1)
	if err != nil {
		panic(fmt.Errorf("local count overflow: %w", err))
	}
	id := VarID(n)
	b.VarNames = append(b.VarNames, name)
	b.scopes[len(b.scopes)-1][name] = id
	return id, nil
}

func (b *Builder) lookup(name atom.ID) (VarID, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if v, ok := b.scopes[i][name]; ok {
			return v, true
		}
	}
	return NoVarID, false
}

func (b *Builder) useGlobal(name atom.ID) {
	if _, ok := b.globalSet[name]; ok {
		return
	}
	b.globalSet[name] = struct{}{}
	b.Globals = append(b.Globals, name)
}

// expressions ----------------------------------------------------------------

func mk(kind ExprKind, sp source.Span, data ExprData) *Expr {
	return &Expr{Kind: kind, Span: sp, Data: data}
}

func unit(sp source.Span) *Expr { return mk(ExprUnit, sp, nil) }

func (b *Builder) exprs(vs []sexpr.Value) ([]*Expr, error) {
	out := make([]*Expr, 0, len(vs))
	for _, v := range vs {
		e, err := b.expr(v)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// block lowers statements in a fresh scope.
func (b *Builder) block(stmts []sexpr.Value, sp source.Span) (*Expr, error) {
	b.push()
	defer b.pop()
	out, err := b.exprs(stmts)
	if err != nil {
		return nil, err
	}
	return mk(ExprBlock, sp, BlockData{Stmts: out}), nil
}

func (b *Builder) expr(v sexpr.Value) (*Expr, error) {
	switch v.Kind {
	case sexpr.KindNumber:
		return mk(ExprInt, v.Span, IntData{Value: v.Num}), nil
	case sexpr.KindBool:
		return mk(ExprBool, v.Span, BoolData{Value: v.Bool}), nil
	case sexpr.KindAtom:
		return b.ident(v)
	case sexpr.KindList:
		if len(v.Elems) == 0 {
			return unit(v.Span), nil
		}
		return b.form(v)
	default:
		return nil, syntaxf(v.Span, "unexpected %s in expression", v.Kind)
	}
}

func (b *Builder) ident(v sexpr.Value) (*Expr, error) {
	if id, ok := b.lookup(v.Atom); ok {
		return mk(ExprVar, v.Span, VarData{Var: id}), nil
	}
	e, ok := b.ents.Get(v.Atom)
	if !ok {
		if _, isKw := b.kw.Get(v.Atom); isKw {
			return nil, syntaxf(v.Span, "unexpected keyword '%s'", b.name(v.Atom))
		}
		return nil, errorf(diag.SemaUnboundName, v.Span, "unbound name '%s'", b.name(v.Atom))
	}
	if !e.Kind.IsValue() {
		return nil, errorf(diag.SemaNotAValue, v.Span, "%s '%s' used as a value", e.Kind, b.name(v.Atom))
	}
	b.useGlobal(e.Name)
	return mk(ExprGlobal, v.Span, GlobalData{Name: e.Name}), nil
}

func (b *Builder) form(v sexpr.Value) (*Expr, error) {
	head, ok := v.Elems[0].AsAtom()
	if !ok {
		return nil, syntaxf(v.Elems[0].Span, "expected an operation or a form")
	}
	args := v.Elems[1:]
	if k, isKw := b.kw.Get(head); isKw {
		return b.keywordForm(k, v, args)
	}
	if _, isLocal := b.lookup(head); isLocal {
		return nil, errorf(diag.SemaNotCallable, v.Elems[0].Span, "local '%s' is not an operation", b.name(head))
	}
	e, ok := b.ents.Get(head)
	if !ok {
		return nil, errorf(diag.SemaUnboundName, v.Elems[0].Span, "unbound name '%s'", b.name(head))
	}
	switch {
	case e.Kind == entity.KindPrimOp:
		return b.prim(e.Prim, v, args)
	case e.Kind.IsOp():
		as, err := b.exprs(args)
		if err != nil {
			return nil, err
		}
		b.useGlobal(e.Name)
		return mk(ExprCall, v.Span, CallData{Callee: e.Name, Args: as}), nil
	default:
		return nil, errorf(diag.SemaNotCallable, v.Elems[0].Span, "%s '%s' is not an operation", e.Kind, b.name(head))
	}
}

func (b *Builder) prim(op predef.Predef, v sexpr.Value, args []sexpr.Value) (*Expr, error) {
	as, err := b.exprs(args)
	if err != nil {
		return nil, err
	}
	switch {
	case op == predef.Mul && len(as) == 1:
		return mk(ExprDeref, v.Span, DerefData{Expr: as[0]}), nil
	case op == predef.Sub && len(as) == 1:
		zero := mk(ExprInt, v.Span, IntData{Value: new(big.Int)})
		return mk(ExprPrim, v.Span, PrimData{Op: op, Args: []*Expr{zero, as[0]}}), nil
	case op.FoldsLeft() && len(as) >= 2:
		acc := as[0]
		for _, rhs := range as[1:] {
			acc = mk(ExprPrim, v.Span, PrimData{Op: op, Args: []*Expr{acc, rhs}})
		}
		return acc, nil
	case len(as) == op.Arity():
		return mk(ExprPrim, v.Span, PrimData{Op: op, Args: as}), nil
	}
	return nil, syntaxf(v.Span, "'%s' expects %d arguments, got %d", op.Op(), op.Arity(), len(as))
}

func (b *Builder) keywordForm(k keyword.Keyword, v sexpr.Value, args []sexpr.Value) (*Expr, error) {
	sp := v.Span
	arity := func(n int) error {
		if len(args) != n {
			return syntaxf(sp, "'%s' expects %d arguments, got %d", k, n, len(args))
		}
		return nil
	}
	switch k {
	case keyword.Let:
		return b.let(sp, args)
	case keyword.Assign:
		if err := arity(2); err != nil {
			return nil, err
		}
		return b.assign(sp, args[0], args[1])
	case keyword.Colon:
		if err := arity(2); err != nil {
			return nil, err
		}
		e, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		ty, err := b.types.Resolve(args[1])
		if err != nil {
			return nil, err
		}
		return mk(ExprAscribe, sp, AscribeData{Expr: e, Type: ty}), nil
	case keyword.If:
		return b.ifForm(sp, args)
	case keyword.Unless:
		if len(args) < 1 {
			return nil, syntaxf(sp, "'unless' expects a condition")
		}
		c, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		body, err := b.unitBlock(args[1:], sp)
		if err != nil {
			return nil, err
		}
		not := mk(ExprPrim, c.Span, PrimData{Op: predef.Not, Args: []*Expr{c}})
		return mk(ExprIf, sp, IfData{Cond: not, Then: body, Else: unit(sp)}), nil
	case keyword.While:
		if len(args) < 1 {
			return nil, syntaxf(sp, "'while' expects a condition")
		}
		c, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		body, err := b.block(args[1:], sp)
		if err != nil {
			return nil, err
		}
		return mk(ExprWhile, sp, WhileData{Cond: c, Body: body}), nil
	case keyword.For:
		return b.forLoop(sp, args)
	case keyword.Begin:
		return b.block(args, sp)
	case keyword.Return:
		as, err := b.exprs(args)
		if err != nil {
			return nil, err
		}
		return mk(ExprReturn, sp, ReturnData{Values: as}), nil
	case keyword.Assert:
		if err := arity(1); err != nil {
			return nil, err
		}
		c, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		return mk(ExprAssert, sp, AssertData{Cond: c}), nil
	case keyword.Ref:
		if err := arity(1); err != nil {
			return nil, err
		}
		e, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		return mk(ExprRef, sp, RefData{Expr: e}), nil
	case keyword.Index:
		if err := arity(2); err != nil {
			return nil, err
		}
		as, err := b.exprs(args)
		if err != nil {
			return nil, err
		}
		return mk(ExprIndex, sp, IndexData{Array: as[0], Index: as[1]}), nil
	case keyword.Field:
		if err := arity(2); err != nil {
			return nil, err
		}
		f, ok := args[1].AsAtom()
		if !ok {
			return nil, syntaxf(args[1].Span, "expected a field name")
		}
		obj, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		return mk(ExprField, sp, FieldData{Object: obj, Field: f}), nil
	case keyword.As:
		if err := arity(2); err != nil {
			return nil, err
		}
		e, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		ty, err := b.types.Resolve(args[1])
		if err != nil {
			return nil, err
		}
		return mk(ExprCast, sp, CastData{Expr: e, Type: ty}), nil
	case keyword.List:
		as, err := b.exprs(args)
		if err != nil {
			return nil, err
		}
		return mk(ExprList, sp, ListData{Elems: as}), nil
	default:
		return nil, syntaxf(v.Elems[0].Span, "unexpected '%s' in expression", k)
	}
}

// (let x e) | (let {x : T} e); x is visible after this statement.
func (b *Builder) let(sp source.Span, args []sexpr.Value) (*Expr, error) {
	if len(args) != 2 {
		return nil, syntaxf(sp, "'let' expects a binder and a value")
	}
	name, ty, bsp, err := b.letBinder(args[0])
	if err != nil {
		return nil, err
	}
	init, err := b.expr(args[1])
	if err != nil {
		return nil, err
	}
	id, err := b.bind(name, bsp)
	if err != nil {
		return nil, err
	}
	return mk(ExprLet, sp, LetData{Var: id, Type: ty, Init: init}), nil
}

func (b *Builder) letBinder(v sexpr.Value) (atom.ID, entity.Ty, source.Span, error) {
	if a, ok := v.AsAtom(); ok {
		return a, entity.Unknown(), v.Span, nil
	}
	if head, ok := v.Head(); ok && v.Kind == sexpr.KindList && len(v.Elems) == 3 && b.kw.Is(head, keyword.Colon) {
		if a, ok := v.Elems[1].AsAtom(); ok {
			ty, err := b.types.Resolve(v.Elems[2])
			if err != nil {
				return atom.None, entity.Ty{}, v.Span, err
			}
			return a, ty, v.Span, nil
		}
	}
	return atom.None, entity.Ty{}, v.Span, syntaxf(v.Span, "expected a binder")
}

func (b *Builder) assign(sp source.Span, target, value sexpr.Value) (*Expr, error) {
	t, err := b.expr(target)
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case ExprVar, ExprDeref, ExprIndex, ExprField:
	case ExprGlobal:
		if e, _ := b.ents.Get(t.Data.(GlobalData).Name); e == nil || e.Kind != entity.KindGlobal {
			return nil, syntaxf(target.Span, "cannot assign to a constant")
		}
	default:
		return nil, syntaxf(target.Span, "cannot assign to this expression")
	}
	val, err := b.expr(value)
	if err != nil {
		return nil, err
	}
	return mk(ExprAssign, sp, AssignData{Target: t, Value: val}), nil
}

// (if c t) becomes (if c (begin t ()) ()).
func (b *Builder) ifForm(sp source.Span, args []sexpr.Value) (*Expr, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, syntaxf(sp, "'if' expects a condition and one or two branches")
	}
	c, err := b.expr(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 2 {
		then, err := b.unitBlock(args[1:], sp)
		if err != nil {
			return nil, err
		}
		return mk(ExprIf, sp, IfData{Cond: c, Then: then, Else: unit(sp)}), nil
	}
	then, err := b.expr(args[1])
	if err != nil {
		return nil, err
	}
	els, err := b.expr(args[2])
	if err != nil {
		return nil, err
	}
	return mk(ExprIf, sp, IfData{Cond: c, Then: then, Else: els}), nil
}

// unitBlock lowers (begin stmts... ()).
func (b *Builder) unitBlock(stmts []sexpr.Value, sp source.Span) (*Expr, error) {
	blk, err := b.block(stmts, sp)
	if err != nil {
		return nil, err
	}
	data := blk.Data.(BlockData)
	data.Stmts = append(data.Stmts, unit(sp))
	blk.Data = data
	return blk, nil
}

// (for i lo hi body...) becomes
//
//	(begin (let i lo) (let <hidden> hi)
//	  (while (< i <hidden>) body... (:= i (+ i 1))))
func (b *Builder) forLoop(sp source.Span, args []sexpr.Value) (*Expr, error) {
	if len(args) < 3 {
		return nil, syntaxf(sp, "'for' expects a variable and two bounds")
	}
	name, ok := args[0].AsAtom()
	if !ok {
		return nil, syntaxf(args[0].Span, "expected a loop variable")
	}
	lo, err := b.expr(args[1])
	if err != nil {
		return nil, err
	}
	hi, err := b.expr(args[2])
	if err != nil {
		return nil, err
	}
	b.push()
	defer b.pop()
	iv, err := b.bind(name, args[0].Span)
	if err != nil {
		return nil, err
	}
	b.hidden++
	hv, err := b.bind(b.intern(fmt.Sprintf("%shi%d", b.prefix, b.hidden)), args[2].Span)
	if err != nil {
		return nil, err
	}
	ivar := func() *Expr { return mk(ExprVar, args[0].Span, VarData{Var: iv}) }
	body, err := b.block(args[3:], sp)
	if err != nil {
		return nil, err
	}
	one := mk(ExprInt, sp, IntData{Value: big.NewInt(1)})
	step := mk(ExprAssign, sp, AssignData{
		Target: ivar(),
		Value:  mk(ExprPrim, sp, PrimData{Op: predef.Add, Args: []*Expr{ivar(), one}}),
	})
	bd := body.Data.(BlockData)
	bd.Stmts = append(bd.Stmts, step)
	body.Data = bd
	cond := mk(ExprPrim, sp, PrimData{Op: predef.Lt, Args: []*Expr{ivar(), mk(ExprVar, args[2].Span, VarData{Var: hv})}})
	return mk(ExprBlock, sp, BlockData{Stmts: []*Expr{
		mk(ExprLet, sp, LetData{Var: iv, Type: entity.Unknown(), Init: lo}),
		mk(ExprLet, sp, LetData{Var: hv, Type: entity.Unknown(), Init: hi}),
		mk(ExprWhile, sp, WhileData{Cond: cond, Body: body}),
	}}), nil
}

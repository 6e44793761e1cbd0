// Package infer lowers one pre-typed item into the typed tree, solving type
// constraints online with a union-find store of metavariables.
package infer

import (
	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/hir"
	"mmc/internal/predef"
	"mmc/internal/types"
	"mmc/internal/unionfind"
)

// class is the value of one equivalence class of metavariables.
type class struct {
	ty      types.TypeID // solution, NoTypeID while unresolved
	numeric bool         // the solution must be an integer type
}

// Ctx is the inference context of a single item. It is used once and then
// dropped; nothing it allocates outlives the item.
type Ctx struct {
	name     func(atom.ID) string
	ents     *entity.Table
	predefs  *predef.Map[atom.ID]
	varNames []atom.ID
	globals  []atom.ID

	in    *types.Interner
	uf    *unionfind.Store[class]
	keys  map[types.TypeID]unionfind.Key
	vars  []types.TypeID // Key-1 -> the metavariable type
	exprs *hir.Exprs

	locals    []types.TypeID
	rets      []types.TypeID
	inOp      bool
	expanding map[atom.ID]struct{}
	pending   []shapeCheck
	errs      []*TypeError
}

// New prepares a context for one item. varNames and globals are the side
// tables produced by the AST builder for that item.
func New(ents *entity.Table, predefs *predef.Map[atom.ID], name func(atom.ID) string, varNames, globals []atom.ID) *Ctx {
	return &Ctx{
		name:      name,
		ents:      ents,
		predefs:   predefs,
		varNames:  varNames,
		globals:   globals,
		in:        types.NewInterner(),
		uf:        unionfind.New[class](),
		keys:      make(map[types.TypeID]unionfind.Key),
		exprs:     hir.NewExprs(64),
		expanding: make(map[atom.ID]struct{}),
	}
}

// Types exposes the item's interner.
func (c *Ctx) Types() *types.Interner { return c.in }

func (c *Ctx) fresh() types.TypeID {
	id := c.in.FreshVar()
	c.keys[id] = c.uf.NewKey(class{})
	c.vars = append(c.vars, id)
	return id
}

func (c *Ctx) freshNumeric() types.TypeID {
	id := c.fresh()
	c.uf.SetValue(c.keys[id], class{numeric: true})
	return id
}

// resolve follows the substitution one level: an unresolved metavariable
// becomes its class representative, a resolved one its solution.
func (c *Ctx) resolve(t types.TypeID) types.TypeID {
	for {
		k, ok := c.keys[t]
		if !ok {
			return t
		}
		cl := c.uf.Value(k)
		if cl.ty == types.NoTypeID {
			return c.vars[c.uf.Find(k)-1]
		}
		t = cl.ty
	}
}

// Zonk applies the current substitution everywhere inside t.
func (c *Ctx) Zonk(t types.TypeID) types.TypeID {
	t = c.resolve(t)
	tt, ok := c.in.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Kind {
	case types.KindRef:
		return c.in.Intern(types.MakeRef(c.Zonk(tt.Elem)))
	case types.KindArray:
		return c.in.Intern(types.MakeArray(c.Zonk(tt.Elem), tt.Len))
	case types.KindTuple:
		elems, _ := c.in.TupleElems(t)
		out := make([]types.TypeID, len(elems))
		for i, e := range elems {
			out[i] = c.Zonk(e)
		}
		return c.in.Tuple(out)
	default:
		return t
	}
}

func (c *Ctx) isVar(t types.TypeID) bool {
	_, ok := c.keys[t]
	return ok
}

// unify equates a and b.
func (c *Ctx) unify(a, b types.TypeID) *unifyError {
	a, b = c.resolve(a), c.resolve(b)
	if a == b {
		return nil
	}
	switch av, bv := c.isVar(a), c.isVar(b); {
	case av && bv:
		err := c.uf.Union(c.keys[a], c.keys[b], func(x, y class) (class, error) {
			return class{numeric: x.numeric || y.numeric}, nil
		})
		if err != nil {
			return &unifyError{code: diag.TypMismatch, a: a, b: b}
		}
		return nil
	case av:
		return c.bind(a, b)
	case bv:
		return c.bind(b, a)
	}
	ta, tb := c.in.MustLookup(a), c.in.MustLookup(b)
	if ta.Kind != tb.Kind {
		return &unifyError{code: diag.TypMismatch, a: a, b: b}
	}
	switch ta.Kind {
	case types.KindRef:
		return c.unify(ta.Elem, tb.Elem)
	case types.KindArray:
		if ta.Len != tb.Len {
			return &unifyError{code: diag.TypMismatch, a: a, b: b}
		}
		return c.unify(ta.Elem, tb.Elem)
	case types.KindTuple:
		ea, _ := c.in.TupleElems(a)
		eb, _ := c.in.TupleElems(b)
		if len(ea) != len(eb) {
			return &unifyError{code: diag.TypMismatch, a: a, b: b}
		}
		for i := range ea {
			if err := c.unify(ea[i], eb[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		// interned scalars and structs are equal only by identity
		return &unifyError{code: diag.TypMismatch, a: a, b: b}
	}
}

// bind solves the unresolved metavariable v with the concrete type t.
func (c *Ctx) bind(v, t types.TypeID) *unifyError {
	if c.occurs(v, t) {
		return &unifyError{code: diag.TypInfiniteType, a: v, b: t}
	}
	k := c.keys[v]
	cl := c.uf.Value(k)
	if cl.numeric && c.in.MustLookup(t).Kind != types.KindInt {
		return &unifyError{code: diag.TypNotNumeric, a: v, b: t}
	}
	cl.ty = t
	c.uf.SetValue(k, cl)
	return nil
}

func (c *Ctx) occurs(v, t types.TypeID) bool {
	t = c.resolve(t)
	if t == v {
		return true
	}
	tt, ok := c.in.Lookup(t)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindRef, types.KindArray:
		return c.occurs(v, tt.Elem)
	case types.KindTuple:
		elems, _ := c.in.TupleElems(t)
		for _, e := range elems {
			if c.occurs(v, e) {
				return true
			}
		}
	}
	return false
}

// numeric asserts that t is or will be an integer type.
func (c *Ctx) numeric(t types.TypeID) *unifyError {
	t = c.resolve(t)
	if k, ok := c.keys[t]; ok {
		cl := c.uf.Value(k)
		cl.numeric = true
		c.uf.SetValue(k, cl)
		return nil
	}
	if c.in.MustLookup(t).Kind != types.KindInt {
		return &unifyError{code: diag.TypNotNumeric, b: t}
	}
	return nil
}

package ast

import (
	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/keyword"
	"mmc/internal/sexpr"
)

// TypeResolver reads type syntax:
//
//	u8 ... i64 nat int bool   primitive
//	name                      typedef or struct
//	()                        unit
//	(& T)                     reference
//	(array T n)               array of n elements
type TypeResolver struct {
	Keywords keyword.Table
	Entities *entity.Table
	Name     func(atom.ID) string
}

// Resolve reads v strictly; unknown names are errors.
func (r TypeResolver) Resolve(v sexpr.Value) (entity.Ty, error) {
	return r.resolve(v, true)
}

// Skeleton reads v best-effort: whatever cannot be resolved yet becomes
// Unknown. Used before the item's dependencies are all reserved.
func (r TypeResolver) Skeleton(v sexpr.Value) entity.Ty {
	if v.IsUndef() {
		return entity.Unknown()
	}
	ty, err := r.resolve(v, false)
	if err != nil {
		return entity.Unknown()
	}
	return ty
}

func (r TypeResolver) resolve(v sexpr.Value, strict bool) (entity.Ty, error) {
	switch v.Kind {
	case sexpr.KindAtom:
		e, ok := r.Entities.Get(v.Atom)
		if !ok {
			if !strict {
				return entity.Unknown(), nil
			}
			return entity.Ty{}, errorf(diag.SemaUnboundName, v.Span, "unbound type '%s'", r.Name(v.Atom))
		}
		switch e.Kind {
		case entity.KindPrimType:
			return e.Ty, nil
		case entity.KindTypedef, entity.KindStruct:
			return entity.Named(e.Name), nil
		default:
			return entity.Ty{}, errorf(diag.SemaNotAType, v.Span, "'%s' is a %s, not a type", r.Name(v.Atom), e.Kind)
		}
	case sexpr.KindList:
		if len(v.Elems) == 0 {
			return entity.Unit(), nil
		}
		head, ok := v.Head()
		k, isKw := r.Keywords.Get(head)
		switch {
		case ok && isKw && k == keyword.Ref && len(v.Elems) == 2:
			elem, err := r.resolve(v.Elems[1], strict)
			if err != nil {
				return entity.Ty{}, err
			}
			return entity.Ref(elem), nil
		case ok && isKw && k == keyword.Array && len(v.Elems) == 3:
			elem, err := r.resolve(v.Elems[1], strict)
			if err != nil {
				return entity.Ty{}, err
			}
			n := v.Elems[2]
			if n.Kind != sexpr.KindNumber || n.Num.Sign() < 0 || !n.Num.IsUint64() {
				return entity.Ty{}, syntaxf(n.Span, "array length must be a non-negative number")
			}
			return entity.Array(elem, n.Num.Uint64()), nil
		}
	}
	return entity.Ty{}, errorf(diag.SemaNotAType, v.Span, "malformed type")
}

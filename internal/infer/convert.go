package infer

import (
	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/source"
	"mmc/internal/types"
)

// instantiate turns a skeleton into a type; every unknown part becomes a
// fresh metavariable. Typedefs are transparent, structs nominal.
func (c *Ctx) instantiate(sp source.Span, ty entity.Ty) types.TypeID {
	switch ty.Kind {
	case entity.TyUnit:
		return c.in.Builtins().Unit
	case entity.TyBool:
		return c.in.Builtins().Bool
	case entity.TyInt:
		return c.in.Intern(types.MakeInt(types.Width(ty.Width), ty.Signed))
	case entity.TyRef:
		return c.in.Intern(types.MakeRef(c.instantiate(sp, elemOf(ty))))
	case entity.TyArray:
		return c.in.Intern(types.MakeArray(c.instantiate(sp, elemOf(ty)), ty.Len))
	case entity.TyNamed:
		return c.named(sp, ty)
	default:
		return c.fresh()
	}
}

func elemOf(ty entity.Ty) entity.Ty {
	if ty.Elem == nil {
		return entity.Unknown()
	}
	return *ty.Elem
}

func (c *Ctx) named(sp source.Span, ty entity.Ty) types.TypeID {
	e, ok := c.ents.Get(ty.Name)
	if !ok {
		return c.fresh()
	}
	switch e.Kind {
	case entity.KindStruct:
		return c.in.Intern(types.MakeStruct(e.Name))
	case entity.KindTypedef:
		if _, busy := c.expanding[e.Name]; busy {
			c.reportf(diag.TypInfiniteType, sp, "typedef '%s' refers to itself", c.name(e.Name))
			return c.fresh()
		}
		c.expanding[e.Name] = struct{}{}
		defer delete(c.expanding, e.Name)
		return c.instantiate(sp, e.Ty)
	case entity.KindPrimType:
		return c.instantiate(sp, e.Ty)
	default:
		return c.fresh()
	}
}

// holds reports whether a value of type ty stores a struct named target
// inline. References break the chain.
func (c *Ctx) holds(target atom.ID, ty entity.Ty, seen map[atom.ID]struct{}) bool {
	switch ty.Kind {
	case entity.TyArray:
		return c.holds(target, elemOf(ty), seen)
	case entity.TyNamed:
	default:
		return false
	}
	if ty.Name == target {
		return true
	}
	if _, ok := seen[ty.Name]; ok {
		return false
	}
	seen[ty.Name] = struct{}{}
	e, ok := c.ents.Get(ty.Name)
	if !ok {
		return false
	}
	switch e.Kind {
	case entity.KindStruct:
		for _, f := range e.Fields {
			if c.holds(target, f.Ty, seen) {
				return true
			}
		}
	case entity.KindTypedef:
		return c.holds(target, e.Ty, seen)
	}
	return false
}

// skeleton converts a solved type back for the entity table; whatever is
// still unresolved stays Unknown.
func (c *Ctx) skeleton(t types.TypeID) entity.Ty {
	t = c.Zonk(t)
	tt, ok := c.in.Lookup(t)
	if !ok {
		return entity.Unknown()
	}
	switch tt.Kind {
	case types.KindUnit:
		return entity.Unit()
	case types.KindBool:
		return entity.Bool()
	case types.KindInt:
		return entity.Int(entity.Width(tt.Width), tt.Signed)
	case types.KindRef:
		return entity.Ref(c.skeleton(tt.Elem))
	case types.KindArray:
		return entity.Array(c.skeleton(tt.Elem), tt.Len)
	case types.KindStruct:
		return entity.Named(tt.Name)
	default:
		return entity.Unknown()
	}
}

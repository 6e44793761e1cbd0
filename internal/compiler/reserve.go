package compiler

import (
	"fmt"

	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/parser"
)

var entityKinds = [...]entity.Kind{
	parser.ItemProc:      entity.KindProc,
	parser.ItemFunc:      entity.KindFunc,
	parser.ItemIntrinsic: entity.KindIntrinsic,
	parser.ItemGlobal:    entity.KindGlobal,
	parser.ItemConst:     entity.KindConst,
	parser.ItemTypedef:   entity.KindTypedef,
	parser.ItemStruct:    entity.KindStruct,
}

// shape is the best-effort entity of an item, read from its signature only.
// Types that cannot be resolved yet stay Unknown.
func (s *Session) shape(it *parser.Item) *entity.Entity {
	e := &entity.Entity{
		Name:   it.Name,
		Kind:   entityKinds[it.Kind],
		Span:   it.NameSpan.Or(it.Span),
		Doc:    it.Doc,
		Status: entity.Reserved,
	}
	params := func(bs []parser.Binder) []entity.Param {
		if len(bs) == 0 {
			return nil
		}
		out := make([]entity.Param, len(bs))
		for i, b := range bs {
			out[i] = entity.Param{Name: b.Name, Ty: s.types.Skeleton(b.Type)}
		}
		return out
	}
	switch it.Kind {
	case parser.ItemProc, parser.ItemFunc, parser.ItemIntrinsic:
		e.Params = params(it.Params)
		e.Rets = params(it.Rets)
	case parser.ItemGlobal, parser.ItemConst:
		e.Ty = s.types.Skeleton(it.Decl.Type)
	case parser.ItemTypedef:
		e.Ty = s.types.Skeleton(it.Type)
	case parser.ItemStruct:
		e.Fields = params(it.Fields)
	}
	return e
}

// reserveNames registers the item's name before any body is lowered, so
// later items of the batch (and earlier ones) can refer to it.
//
// An existing entity is refined in place when the new declaration agrees
// with it on kind and arity. Builtins cannot be redeclared; a conflict is
// sent to r and reserveNames reports false.
func (s *Session) reserveNames(it *parser.Item, r diag.Reporter) bool {
	e := s.shape(it)
	old, ok := s.ents.Get(it.Name)
	if !ok {
		s.ents.Insert(e)
		return true
	}
	name := s.env.AtomName(it.Name)
	conflict := func(format string, args ...any) bool {
		b := diag.ReportError(r, diag.SemaDuplicateDecl, e.Span, fmt.Sprintf(format, args...))
		if old.Span.IsValid() {
			b.WithNote(old.Span, "previous declaration here")
		}
		b.Emit()
		return false
	}
	switch {
	case old.Builtin:
		return conflict("cannot redeclare builtin '%s'", name)
	case old.Kind != e.Kind:
		return conflict("'%s' is already declared as a %s", name, old.Kind)
	case len(old.Params) != len(e.Params):
		return conflict("'%s' redeclared with %d parameters, previously %d", name, len(e.Params), len(old.Params))
	case len(old.Rets) != len(e.Rets):
		return conflict("'%s' redeclared with %d results, previously %d", name, len(e.Rets), len(old.Rets))
	case len(old.Fields) != len(e.Fields):
		return conflict("'%s' redeclared with %d fields, previously %d", name, len(e.Fields), len(old.Fields))
	}
	// pointer identity is kept: builders of earlier items may hold old
	*old = *e
	return true
}

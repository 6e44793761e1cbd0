package parser

import (
	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/keyword"
	"mmc/internal/sexpr"
	"mmc/internal/source"
)

// ItemIter walks the elements of one batch value. A value that is itself an
// item is yielded alone.
type ItemIter struct {
	elems []sexpr.Value
	pos   int
	tail  *sexpr.Value // dotted tail, reported once the proper part is used up
	span  source.Span
	doc   string
	done  bool
}

// Parser decodes items. Name renders atoms in messages.
type Parser struct {
	Keywords keyword.Table
	Name     func(atom.ID) string
}

// Iter prepares iteration over v.
func (p *Parser) Iter(v sexpr.Value) *ItemIter {
	it := &ItemIter{span: v.Span}
	switch v.Kind {
	case sexpr.KindList, sexpr.KindDotted:
		if p.isItem(v) {
			it.elems = []sexpr.Value{v}
			return it
		}
		it.elems = v.Elems
		it.tail = v.Tail
	default:
		t := v
		it.tail = &t
	}
	return it
}

func (p *Parser) isItem(v sexpr.Value) bool {
	head, ok := v.Head()
	if !ok {
		return false
	}
	k, ok := p.Keywords.Get(head)
	return ok && k.IsItem()
}

// ParseNextItem returns the next item, or nil at the end. An *ItemError
// concerns a single element; a *ReaderError ends the iteration.
func (p *Parser) ParseNextItem(it *ItemIter) (*Item, error) {
	for !it.done {
		if it.pos >= len(it.elems) {
			it.done = true
			if it.tail != nil {
				sp := it.tail.Span.Or(it.span)
				return nil, &ReaderError{Span: sp, Msg: "expected a list of items"}
			}
			return nil, nil
		}
		v := it.elems[it.pos]
		it.pos++
		if v.Kind == sexpr.KindString {
			// doc comment for the following item
			it.doc = v.Str
			continue
		}
		doc := it.doc
		it.doc = ""
		item, err := p.parseItem(v)
		if err != nil {
			return nil, err
		}
		item.Doc = doc
		return item, nil
	}
	return nil, nil
}

func (p *Parser) parseItem(v sexpr.Value) (*Item, error) {
	if v.Kind != sexpr.KindList {
		return nil, malformed(v.Span, "expected an item, got %s", v.Kind)
	}
	head, ok := v.Head()
	if !ok {
		return nil, malformed(v.Span, "expected an item")
	}
	k, ok := p.Keywords.Get(head)
	if !ok || !k.IsItem() {
		return nil, &ItemError{
			Code: diag.SynUnknownItem,
			Span: v.Elems[0].Span.Or(v.Span),
			Msg:  "unknown item '" + p.Name(head) + "'",
		}
	}
	args := v.Elems[1:]
	switch k {
	case keyword.Proc:
		return p.parseOp(v, ItemProc, args, true)
	case keyword.Func:
		return p.parseOp(v, ItemFunc, args, true)
	case keyword.Intrinsic:
		return p.parseOp(v, ItemIntrinsic, args, false)
	case keyword.Global:
		return p.parseValue(v, ItemGlobal, args)
	case keyword.Const:
		return p.parseValue(v, ItemConst, args)
	case keyword.Typedef:
		return p.parseTypedef(v, args)
	default:
		return p.parseStruct(v, args)
	}
}

// (proc (name binders... [: rets...]) body...)
func (p *Parser) parseOp(v sexpr.Value, kind ItemKind, args []sexpr.Value, hasBody bool) (*Item, error) {
	if len(args) == 0 || args[0].Kind != sexpr.KindList || len(args[0].Elems) == 0 {
		return nil, malformed(v.Span, "%s: expected a signature (name args...)", kind)
	}
	if !hasBody && len(args) != 1 {
		return nil, malformed(v.Span, "%s: declaration takes no body", kind)
	}
	sig := args[0].Elems
	name, ok := sig[0].AsAtom()
	if !ok {
		return nil, malformed(sig[0].Span, "%s: expected a name", kind)
	}
	item := &Item{Kind: kind, Name: name, NameSpan: sig[0].Span, Span: v.Span}
	rest := sig[1:]
	inRets := false
	for _, e := range rest {
		if a, ok := e.AsAtom(); ok && p.Keywords.Is(a, keyword.Colon) {
			if inRets {
				return nil, malformed(e.Span, "%s: duplicate ':' in signature", kind)
			}
			inRets = true
			continue
		}
		if inRets {
			item.Rets = append(item.Rets, p.retBinder(e))
			continue
		}
		b, err := p.binder(e, false)
		if err != nil {
			return nil, err
		}
		item.Params = append(item.Params, b)
	}
	if inRets && len(item.Rets) == 0 {
		return nil, malformed(args[0].Span, "%s: expected return types after ':'", kind)
	}
	if kind == ItemFunc && len(item.Rets) != 1 {
		return nil, malformed(args[0].Span, "func: expected exactly one return type")
	}
	item.Body = args[1:]
	return item, nil
}

// binder reads {x : T} or a bare x.
func (p *Parser) binder(e sexpr.Value, needType bool) (Binder, error) {
	if a, ok := e.AsAtom(); ok {
		if needType {
			return Binder{}, malformed(e.Span, "expected {name : type}")
		}
		return Binder{Name: a, Type: sexpr.Undef(), Span: e.Span}, nil
	}
	if b, ok := p.typedBinder(e); ok {
		return b, nil
	}
	return Binder{}, malformed(e.Span, "expected a binder")
}

func (p *Parser) typedBinder(e sexpr.Value) (Binder, bool) {
	head, ok := e.Head()
	if !ok || e.Kind != sexpr.KindList || len(e.Elems) != 3 || !p.Keywords.Is(head, keyword.Colon) {
		return Binder{}, false
	}
	name, ok := e.Elems[1].AsAtom()
	if !ok {
		return Binder{}, false
	}
	return Binder{Name: name, Type: e.Elems[2], Span: e.Span}, true
}

// retBinder reads {r : T} or an anonymous type.
func (p *Parser) retBinder(e sexpr.Value) Binder {
	if b, ok := p.typedBinder(e); ok {
		return b
	}
	return Binder{Type: e, Span: e.Span}
}

// (global {x : T} e) or (global x e)
func (p *Parser) parseValue(v sexpr.Value, kind ItemKind, args []sexpr.Value) (*Item, error) {
	if len(args) != 2 {
		return nil, malformed(v.Span, "%s: expected a name and an initializer", kind)
	}
	b, err := p.binder(args[0], false)
	if err != nil {
		return nil, err
	}
	return &Item{Kind: kind, Name: b.Name, NameSpan: b.Span, Span: v.Span, Decl: b, Init: args[1]}, nil
}

// (typedef name T)
func (p *Parser) parseTypedef(v sexpr.Value, args []sexpr.Value) (*Item, error) {
	if len(args) != 2 {
		return nil, malformed(v.Span, "typedef: expected a name and a type")
	}
	name, ok := args[0].AsAtom()
	if !ok {
		return nil, malformed(args[0].Span, "typedef: expected a name")
	}
	return &Item{Kind: ItemTypedef, Name: name, NameSpan: args[0].Span, Span: v.Span, Type: args[1]}, nil
}

// (struct name {f : T}...)
func (p *Parser) parseStruct(v sexpr.Value, args []sexpr.Value) (*Item, error) {
	if len(args) == 0 {
		return nil, malformed(v.Span, "struct: expected a name")
	}
	name, ok := args[0].AsAtom()
	if !ok {
		return nil, malformed(args[0].Span, "struct: expected a name")
	}
	item := &Item{Kind: ItemStruct, Name: name, NameSpan: args[0].Span, Span: v.Span}
	seen := make(map[atom.ID]struct{}, len(args)-1)
	for _, e := range args[1:] {
		b, err := p.binder(e, true)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[b.Name]; dup {
			return nil, malformed(b.Span, "struct: duplicate field '%s'", p.Name(b.Name))
		}
		seen[b.Name] = struct{}{}
		item.Fields = append(item.Fields, b)
	}
	return item, nil
}

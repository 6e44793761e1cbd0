package entity

import (
	"fmt"
	"slices"
	"strings"

	"mmc/internal/atom"
	"mmc/internal/predef"
)

// Table is the session's entity map. Entities are never removed; iteration
// follows insertion order.
type Table struct {
	byName map[atom.ID]*Entity
	order  []atom.ID
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byName: make(map[atom.ID]*Entity, 64)}
}

// NewBuiltinTable returns a table seeded with the primitive types and
// operations, interning their names through intern.
func NewBuiltinTable(intern func(string) atom.ID) *Table {
	t := NewTable()
	prims := []Ty{
		Int(Width8, false), Int(Width16, false), Int(Width32, false), Int(Width64, false),
		Int(Width8, true), Int(Width16, true), Int(Width32, true), Int(Width64, true),
		Int(WidthAny, false), Int(WidthAny, true),
	}
	for _, ty := range prims {
		t.seed(&Entity{Name: intern(IntName(ty.Width, ty.Signed)), Kind: KindPrimType, Ty: ty})
	}
	t.seed(&Entity{Name: intern("bool"), Kind: KindPrimType, Ty: Bool()})
	for p := predef.Predef(0); p < predef.NumPredef; p++ {
		if p.Op() == "" {
			continue
		}
		t.seed(&Entity{Name: intern(p.Op()), Kind: KindPrimOp, Prim: p})
	}
	return t
}

func (t *Table) seed(e *Entity) {
	e.Builtin = true
	e.Status = Checked
	t.Insert(e)
}

// Get looks an entity up by name.
func (t *Table) Get(name atom.ID) (*Entity, bool) {
	e, ok := t.byName[name]
	return e, ok
}

// Insert adds e, replacing an entity of the same name in place.
func (t *Table) Insert(e *Entity) {
	if e == nil || !e.Name.IsValid() {
		panic(fmt.Errorf("entity: insert without a name"))
	}
	if _, ok := t.byName[e.Name]; !ok {
		t.order = append(t.order, e.Name)
	}
	t.byName[e.Name] = e
}

// Len counts entities, builtins included.
func (t *Table) Len() int { return len(t.order) }

// Names returns entity names in insertion order.
func (t *Table) Names() []atom.ID { return slices.Clone(t.order) }

// Summary is a name-independent view of one entity, used for listings and
// the disk cache.
type Summary struct {
	Name      string `msgpack:"name"`
	Kind      string `msgpack:"kind"`
	Signature string `msgpack:"sig"`
	Status    string `msgpack:"status"`
	Doc       string `msgpack:"doc,omitempty"`
}

// Summarize lists the non-builtin entities in insertion order.
func (t *Table) Summarize(name func(atom.ID) string) []Summary {
	out := make([]Summary, 0, len(t.order))
	for _, a := range t.order {
		e := t.byName[a]
		if e.Builtin {
			continue
		}
		out = append(out, Summary{
			Name:      name(e.Name),
			Kind:      e.Kind.String(),
			Signature: e.Signature(name),
			Status:    e.Status.String(),
			Doc:       e.Doc,
		})
	}
	return out
}

// Signature renders the entity's shape in source-like syntax.
func (e *Entity) Signature(name func(atom.ID) string) string {
	var sb strings.Builder
	switch {
	case e.Kind.IsOp() && e.Kind != KindPrimOp:
		sb.WriteByte('(')
		for i, p := range e.Params {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeParam(&sb, p, name)
		}
		sb.WriteString(" :")
		for _, r := range e.Rets {
			sb.WriteByte(' ')
			writeParam(&sb, r, name)
		}
		sb.WriteByte(')')
	case e.Kind == KindStruct:
		sb.WriteByte('(')
		for i, f := range e.Fields {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeParam(&sb, f, name)
		}
		sb.WriteByte(')')
	case e.Kind == KindPrimOp:
		sb.WriteString(e.Prim.Lemma())
	default:
		sb.WriteString(e.Ty.Format(name))
	}
	return sb.String()
}

func writeParam(sb *strings.Builder, p Param, name func(atom.ID) string) {
	if !p.Name.IsValid() {
		sb.WriteString(p.Ty.Format(name))
		return
	}
	sb.WriteByte('{')
	sb.WriteString(name(p.Name))
	sb.WriteString(" : ")
	sb.WriteString(p.Ty.Format(name))
	sb.WriteByte('}')
}

package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"mmc/internal/atom"
)

// Builtins stores TypeIDs of the types every item needs.
type Builtins struct {
	Unit TypeID
	Bool TypeID
}

// Interner hands out stable TypeIDs for structural descriptors. One
// interner serves one item and is dropped with it.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	tuples   [][]TypeID
	tupleIdx map[string]TypeID
	vars     uint32
	builtins Builtins
}

// NewInterner constructs an interner seeded with unit and bool.
func NewInterner() *Interner {
	in := &Interner{
		types:    []Type{{Kind: KindInvalid}},
		index:    make(map[Type]TypeID, 32),
		tuples:   [][]TypeID{nil},
		tupleIdx: make(map[string]TypeID),
	}
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	return in
}

func (in *Interner) Builtins() Builtins { return in.builtins }

// Intern ensures t has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// FreshVar allocates a new metavariable type.
func (in *Interner) FreshVar() TypeID {
	in.vars++
	return in.internRaw(Type{Kind: KindVar, Var: in.vars})
}

// Tuple interns the tuple of elems. Zero elements is unit; one is the
// element itself.
func (in *Interner) Tuple(elems []TypeID) TypeID {
	switch len(elems) {
	case 0:
		return in.builtins.Unit
	case 1:
		return elems[0]
	}
	key := tupleKey(elems)
	if id, ok := in.tupleIdx[key]; ok {
		return id
	}
	slot, err := safecast.Conv[uint32](len(in.tuples))
	if err != nil {
		panic(fmt.Errorf("tuple info overflow: %w", err))
	}
	in.tuples = append(in.tuples, slices.Clone(elems))
	id := in.internRaw(Type{Kind: KindTuple, Payload: slot})
	in.tupleIdx[key] = id
	return id
}

func tupleKey(elems []TypeID) string {
	var sb strings.Builder
	for _, e := range elems {
		sb.WriteString(strconv.FormatUint(uint64(e), 10))
		sb.WriteByte(',')
	}
	return sb.String()
}

// TupleElems returns the elements of a tuple type.
func (in *Interner) TupleElems(id TypeID) ([]TypeID, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindTuple || int(t.Payload) >= len(in.tuples) {
		return nil, false
	}
	return in.tuples[t.Payload], true
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return t
}

// Len counts interned types including the invalid sentinel.
func (in *Interner) Len() int { return len(in.types) }

// Format renders id in source syntax. Metavariables print as ?N.
func (in *Interner) Format(id TypeID, name func(atom.ID) string) string {
	var sb strings.Builder
	in.write(&sb, id, name)
	return sb.String()
}

func (in *Interner) write(sb *strings.Builder, id TypeID, name func(atom.ID) string) {
	t, ok := in.Lookup(id)
	if !ok {
		sb.WriteString("<invalid>")
		return
	}
	switch t.Kind {
	case KindVar:
		sb.WriteString("?" + strconv.FormatUint(uint64(t.Var), 10))
	case KindUnit:
		sb.WriteString("()")
	case KindBool:
		sb.WriteString("bool")
	case KindInt:
		switch {
		case t.Width == WidthAny && t.Signed:
			sb.WriteString("int")
		case t.Width == WidthAny:
			sb.WriteString("nat")
		case t.Signed:
			sb.WriteString("i" + strconv.Itoa(int(t.Width)))
		default:
			sb.WriteString("u" + strconv.Itoa(int(t.Width)))
		}
	case KindRef:
		sb.WriteString("(& ")
		in.write(sb, t.Elem, name)
		sb.WriteByte(')')
	case KindArray:
		sb.WriteString("(array ")
		in.write(sb, t.Elem, name)
		sb.WriteString(" " + strconv.FormatUint(t.Len, 10) + ")")
	case KindStruct:
		sb.WriteString(name(t.Name))
	case KindTuple:
		sb.WriteString("(tuple")
		elems, _ := in.TupleElems(id)
		for _, e := range elems {
			sb.WriteByte(' ')
			in.write(sb, e, name)
		}
		sb.WriteByte(')')
	}
}

package atom

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// ID is an interned symbol. Two atoms are the same identifier iff their
// IDs are equal; IDs are only ever allocated by a Table.
type ID uint32

// None is reserved for the empty name.
const None ID = 0

// IsValid reports whether the atom refers to an interned name.
func (id ID) IsValid() bool { return id != None }

// Table is the symbol space of one source unit.
type Table struct {
	byID  []string      // индекс -> имя (byID[0] = "" для None)
	index map[string]ID // имя -> ID
}

// NewTable creates an empty symbol space.
func NewTable() *Table {
	return &Table{
		byID:  []string{""},
		index: map[string]ID{"": None},
	}
}

// Intern returns the atom for name, allocating it on first use. Names are
// NFC-normalised first, so composed and decomposed spellings share an atom.
func (a *Table) Intern(name string) ID {
	if !norm.NFC.IsNormalString(name) {
		name = norm.NFC.String(name)
	}
	if id, ok := a.index[name]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(a.byID))
	if err != nil {
		panic(fmt.Errorf("atom table overflow: %w", err))
	}
	// собственная копия, чтобы не держать исходный буфер
	cpy := string([]byte(name))
	id := ID(n)
	a.byID = append(a.byID, cpy)
	a.index[cpy] = id
	return id
}

// Find looks an atom up without allocating.
func (a *Table) Find(name string) (ID, bool) {
	id, ok := a.index[norm.NFC.String(name)]
	return id, ok
}

// Lookup returns the name of an atom.
func (a *Table) Lookup(id ID) (string, bool) {
	if int(id) >= len(a.byID) {
		return "", false
	}
	return a.byID[id], true
}

// Name returns the name of an atom, or a placeholder for unknown IDs.
func (a *Table) Name(id ID) string {
	if s, ok := a.Lookup(id); ok {
		return s
	}
	return fmt.Sprintf("#<atom %d>", id)
}

// Len counts interned atoms including None.
func (a *Table) Len() int {
	return len(a.byID)
}

// Snapshot returns a copy of all names in allocation order.
func (a *Table) Snapshot() []string {
	return slices.Clone(a.byID)
}

// Package predef maps the compiler's primitive operations to the kernel
// lemmas that justify them.
package predef

import "mmc/internal/atom"

// Predef tags one predefined lemma.
type Predef uint8

const (
	Add Predef = iota
	Sub
	Mul
	Div
	Mod
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
	And
	Or
	Not
	BAnd
	BOr
	BXor
	BNot
	Shl
	Shr
	AssertLemma

	NumPredef
)

type info struct {
	op    string // operator spelling, "" when the lemma has no operator
	lemma string
	arity int
}

var table = [NumPredef]info{
	Add:         {"+", "mmc_add", 2},
	Sub:         {"-", "mmc_sub", 2},
	Mul:         {"*", "mmc_mul", 2},
	Div:         {"/", "mmc_div", 2},
	Mod:         {"%", "mmc_mod", 2},
	Lt:          {"<", "mmc_lt", 2},
	Le:          {"<=", "mmc_le", 2},
	Gt:          {">", "mmc_gt", 2},
	Ge:          {">=", "mmc_ge", 2},
	Eq:          {"=", "mmc_eq", 2},
	Ne:          {"!=", "mmc_ne", 2},
	And:         {"and", "mmc_and", 2},
	Or:          {"or", "mmc_or", 2},
	Not:         {"not", "mmc_not", 1},
	BAnd:        {"band", "mmc_band", 2},
	BOr:         {"bor", "mmc_bor", 2},
	BXor:        {"bxor", "mmc_bxor", 2},
	BNot:        {"bnot", "mmc_bnot", 1},
	Shl:         {"shl", "mmc_shl", 2},
	Shr:         {"shr", "mmc_shr", 2},
	AssertLemma: {"", "mmc_assert", 1},
}

// Op is the operator spelling of p, empty for lemmas without one.
func (p Predef) Op() string { return table[p].op }

// Lemma is the kernel name of p.
func (p Predef) Lemma() string { return table[p].lemma }

// Arity is the number of operands the operator takes.
func (p Predef) Arity() int { return table[p].arity }

func (p Predef) String() string {
	if p >= NumPredef {
		return "invalid"
	}
	return p.Lemma()
}

// IsArith reports (α, α) → α numeric operators.
func (p Predef) IsArith() bool {
	switch p {
	case Add, Sub, Mul, Div, Mod, BAnd, BOr, BXor:
		return true
	}
	return false
}

// IsCompare reports (α, α) → bool operators.
func (p Predef) IsCompare() bool { return p >= Lt && p <= Ne }

// IsOrdering reports comparisons that need a numeric operand.
func (p Predef) IsOrdering() bool { return p >= Lt && p <= Ge }

// IsLogic reports operators over bool.
func (p Predef) IsLogic() bool { return p == And || p == Or || p == Not }

// IsShift reports (α, β) → α operators.
func (p Predef) IsShift() bool { return p == Shl || p == Shr }

// FoldsLeft reports operators that accept more than two operands and fold
// them left to right.
func (p Predef) FoldsLeft() bool {
	switch p {
	case Add, Mul, And, Or:
		return true
	}
	return false
}

// ByOp finds the primitive operation spelled op.
func ByOp(op string) (Predef, bool) {
	if op == "" {
		return NumPredef, false
	}
	for p := Predef(0); p < NumPredef; p++ {
		if table[p].op == op {
			return p, true
		}
	}
	return NumPredef, false
}

// Map is a fixed-size table indexed by Predef. It is filled once and only
// read afterwards.
type Map[A any] [NumPredef]A

// NewMap builds a map by calling f for every tag with its lemma name.
func NewMap[A any](f func(p Predef, lemma string) A) Map[A] {
	var m Map[A]
	for p := Predef(0); p < NumPredef; p++ {
		m[p] = f(p, table[p].lemma)
	}
	return m
}

// Get returns the entry for p.
func (m *Map[A]) Get(p Predef) A { return m[p] }

// MapOf transforms every entry of m.
func MapOf[A, B any](m *Map[A], f func(Predef, A) B) Map[B] {
	var out Map[B]
	for p := Predef(0); p < NumPredef; p++ {
		out[p] = f(p, m[p])
	}
	return out
}

// Atoms interns every lemma name, which is how a session binds the map to
// its symbol space.
func Atoms(intern func(string) atom.ID) Map[atom.ID] {
	return NewMap(func(_ Predef, lemma string) atom.ID { return intern(lemma) })
}

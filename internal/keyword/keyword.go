// Package keyword holds the closed set of words the compiler gives meaning
// to: the session subcommands, item heads and expression forms.
package keyword

import "mmc/internal/atom"

// Keyword is a word with fixed meaning in the current session.
type Keyword uint8

const (
	Invalid Keyword = iota

	// subcommands
	Add
	Finish

	// item heads
	Proc
	Func
	Intrinsic
	Global
	Const
	Typedef
	Struct

	// expression and type forms
	Let
	Assign // :=
	Colon  // :
	If
	Unless
	While
	For
	Begin
	Return
	Assert
	Ref // &
	Index
	Field
	As
	List
	Array

	numKeywords
)

var spellings = [numKeywords]string{
	Invalid:   "",
	Add:       "add",
	Finish:    "finish",
	Proc:      "proc",
	Func:      "func",
	Intrinsic: "intrinsic",
	Global:    "global",
	Const:     "const",
	Typedef:   "typedef",
	Struct:    "struct",
	Let:       "let",
	Assign:    ":=",
	Colon:     ":",
	If:        "if",
	Unless:    "unless",
	While:     "while",
	For:       "for",
	Begin:     "begin",
	Return:    "return",
	Assert:    "assert",
	Ref:       "&",
	Index:     "index",
	Field:     "field",
	As:        "as",
	List:      "list",
	Array:     "array",
}

// String returns the source spelling of the keyword.
func (k Keyword) String() string {
	if k >= numKeywords {
		return "invalid"
	}
	return spellings[k]
}

// IsItem reports whether k starts a top-level declaration.
func (k Keyword) IsItem() bool {
	return k >= Proc && k <= Struct
}

// IsCommand reports whether k names a session subcommand.
func (k Keyword) IsCommand() bool {
	return k == Add || k == Finish
}

// Table binds keywords to the atoms of one symbol space. It is built once
// per session and never changes afterwards.
type Table struct {
	byAtom map[atom.ID]Keyword
	atoms  [numKeywords]atom.ID
}

// Make interns every keyword spelling through intern.
func Make(intern func(string) atom.ID) Table {
	t := Table{byAtom: make(map[atom.ID]Keyword, numKeywords)}
	for k := Add; k < numKeywords; k++ {
		a := intern(spellings[k])
		t.atoms[k] = a
		t.byAtom[a] = k
	}
	return t
}

// Get returns the keyword bound to a, if any.
func (t Table) Get(a atom.ID) (Keyword, bool) {
	k, ok := t.byAtom[a]
	return k, ok
}

// Is reports whether a is the atom of k.
func (t Table) Is(a atom.ID, k Keyword) bool {
	return a.IsValid() && t.atoms[k] == a
}

// Atom returns the atom k is bound to.
func (t Table) Atom(k Keyword) atom.ID {
	if k >= numKeywords {
		return atom.None
	}
	return t.atoms[k]
}

// Package testkit builds compiler sessions from source text for tests.
package testkit

import (
	"testing"

	"mmc/internal/compiler"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/host"
	"mmc/internal/sexpr"
	"mmc/internal/source"
)

// Unit is a session over a private host whose diagnostics land in Bag.
type Unit struct {
	Host    *host.Elaborator
	Bag     *diag.Bag
	Session *compiler.Session
}

// NewUnit creates a fresh source unit.
func NewUnit(opts ...compiler.Option) *Unit {
	bag := diag.NewBag(0)
	h := host.New(nil, diag.BagReporter{Bag: bag})
	return &Unit{Host: h, Bag: bag, Session: compiler.New(h, opts...)}
}

// Read parses src; every top-level form becomes one value.
func (u *Unit) Read(t testing.TB, src string) []sexpr.Value {
	t.Helper()
	vals, _, err := u.Host.ReadSource(t.Name()+".mmc", []byte(src))
	if err != nil {
		t.Fatalf("read %q: %v", src, err)
	}
	return vals
}

// Add submits the forms of src as one batch.
func (u *Unit) Add(t testing.TB, src string) {
	t.Helper()
	vals := u.Read(t, src)
	if err := u.Session.Add(spanOf(vals), vals); err != nil {
		t.Fatalf("Add: %v", err)
	}
}

// Call reads src as a single command vector, e.g. "(add (proc (f) ()))".
func (u *Unit) Call(t testing.TB, src string) (sexpr.Value, error) {
	t.Helper()
	vals := u.Read(t, src)
	if len(vals) != 1 || !vals[0].IsList() {
		t.Fatalf("Call: want one list form, got %d values", len(vals))
	}
	return u.Session.Call(vals[0].Span, vals[0].Elems)
}

// Codes lists the reported diagnostic codes in order.
func (u *Unit) Codes() []diag.Code { return u.Bag.Codes() }

// Reset forgets reported diagnostics.
func (u *Unit) Reset() { *u.Bag = *diag.NewBag(0) }

// Entity looks a declaration up by name.
func (u *Unit) Entity(name string) (*entity.Entity, bool) {
	return u.Session.Entities().Get(u.Host.Atom(name))
}

// Summary is the non-builtin part of the entity table.
func (u *Unit) Summary() []entity.Summary {
	return u.Session.Entities().Summarize(u.Host.AtomName)
}

// CheckSpans fails t when a reported diagnostic has a broken span.
func (u *Unit) CheckSpans(t testing.TB) {
	t.Helper()
	if err := CheckSpanInvariants(u.Host.Files, u.Bag.Items()); err != nil {
		t.Fatal(err)
	}
}

func spanOf(vals []sexpr.Value) source.Span {
	var sp source.Span
	for _, v := range vals {
		sp = sp.Cover(v.Span)
	}
	return sp
}

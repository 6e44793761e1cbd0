package infer

import (
	"fmt"

	"mmc/internal/diag"
	"mmc/internal/source"
	"mmc/internal/types"
)

// TypeError is one inference failure. Types are kept unrendered so the
// message shows the substitution known when the item is finished.
type TypeError struct {
	Code     diag.Code
	Span     source.Span
	Context  string // "argument 1 of 'f'", may be empty
	Expected types.TypeID
	Found    types.TypeID
	Msg      string // preformatted; takes precedence over the type pair
}

// unifyError is the reason unify failed; the caller adds span and context.
type unifyError struct {
	code diag.Code
	a, b types.TypeID
}

func (e *unifyError) Error() string { return e.code.Title() }

// Render formats err with the current substitution.
func (c *Ctx) Render(err *TypeError) string {
	show := c.show
	if err.Msg != "" {
		return err.Msg
	}
	ctx := ""
	if err.Context != "" {
		ctx = " in " + err.Context
	}
	switch err.Code {
	case diag.TypMismatch:
		return fmt.Sprintf("type mismatch%s: expected %s, found %s", ctx, show(err.Expected), show(err.Found))
	case diag.TypNotNumeric:
		return fmt.Sprintf("expected a numeric type%s, found %s", ctx, show(err.Found))
	case diag.TypInfiniteType:
		return fmt.Sprintf("infinite type%s: %s occurs in %s", ctx, show(err.Expected), show(err.Found))
	default:
		return err.Msg
	}
}

// show renders id under the current substitution; an unsolved integer class
// reads as "integer".
func (c *Ctx) show(id types.TypeID) string {
	z := c.Zonk(id)
	if k, ok := c.keys[z]; ok && c.uf.Value(k).numeric {
		return "integer"
	}
	return c.in.Format(z, c.name)
}

// Errors returns the failures recorded so far, in the order they occurred.
func (c *Ctx) Errors() []*TypeError { return c.errs }

// Diagnostics renders every recorded failure.
func (c *Ctx) Diagnostics() []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(c.errs))
	for _, e := range c.errs {
		out = append(out, diag.NewError(e.Code, e.Span, c.Render(e)))
	}
	return out
}

func (c *Ctx) report(err *TypeError) { c.errs = append(c.errs, err) }

func (c *Ctx) reportf(code diag.Code, sp source.Span, format string, args ...any) {
	c.report(&TypeError{Code: code, Span: sp, Msg: fmt.Sprintf(format, args...)})
}

// expect unifies found with expected and records a failure at sp.
func (c *Ctx) expect(sp source.Span, context string, expected, found types.TypeID) {
	err := c.unify(expected, found)
	if err == nil {
		return
	}
	te := &TypeError{Code: err.code, Span: sp, Context: context, Expected: expected, Found: found}
	switch err.code {
	case diag.TypNotNumeric:
		// целочисленный литерал против ожидаемого не-целого типа
		if c.resolve(expected) == err.b && c.isVar(c.resolve(found)) {
			te.Code = diag.TypMismatch
			break
		}
		te.Found = err.b
	case diag.TypInfiniteType:
		te.Expected, te.Found = err.a, err.b
	}
	c.report(te)
}

// expectNumeric asserts t is an integer type.
func (c *Ctx) expectNumeric(sp source.Span, context string, t types.TypeID) {
	if err := c.numeric(t); err != nil {
		c.report(&TypeError{Code: diag.TypNotNumeric, Span: sp, Context: context, Found: t})
	}
}

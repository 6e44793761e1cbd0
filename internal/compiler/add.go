package compiler

import (
	"errors"
	"strconv"

	"mmc/internal/ast"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/infer"
	"mmc/internal/parser"
	"mmc/internal/sexpr"
	"mmc/internal/source"
	"mmc/internal/trace"
)

// slot is one read item of a batch, or the reader failure that ended a list.
// Diagnostics are kept per slot so they come out in item order.
type slot struct {
	item  *parser.Item
	diags []diag.Diagnostic
	skip  bool
}

func (sl *slot) fail(d diag.Diagnostic) {
	sl.diags = append(sl.diags, d)
	sl.skip = true
}

type diagnoser interface {
	Diagnostic() diag.Diagnostic
}

// toDiagnostic converts an item-local error; anything unexpected is a
// syntax error at fallback.
func toDiagnostic(err error, fallback source.Span) diag.Diagnostic {
	var d diag.Diagnostic
	if errors.As(err, &d) {
		return d
	}
	var dd diagnoser
	if errors.As(err, &dd) {
		return dd.Diagnostic()
	}
	return diag.NewError(diag.SynError, fallback, err.Error())
}

// Add reads, reserves, builds and type-checks a batch. Item-local problems
// are reported through the host once the whole batch has been attempted;
// Add itself does not fail on them.
func (s *Session) Add(sp source.Span, batch []sexpr.Value) error {
	span := trace.Begin(s.tracer, trace.ScopeBatch, "add", s.traceParent)

	slots := s.readItems(sp, batch)

	// Все имена резервируются до первого тела: прямые и взаимные ссылки.
	for i := range slots {
		sl := &slots[i]
		if sl.item == nil {
			continue
		}
		s.reserveNames(sl.item, diag.FuncReporter(sl.fail))
	}

	failed := 0
	for i := range slots {
		sl := &slots[i]
		if sl.item != nil && !sl.skip {
			s.checkItem(sl, span.ID())
		}
		if len(sl.diags) > 0 {
			failed++
		}
		for _, d := range sl.diags {
			s.env.Report(d)
		}
	}

	span.WithExtra("items", strconv.Itoa(len(slots))).
		WithExtra("failed", strconv.Itoa(failed)).
		End("")
	return nil
}

// readItems expands every value of the batch into items. A reader failure
// ends its own list only.
func (s *Session) readItems(sp source.Span, batch []sexpr.Value) []slot {
	var slots []slot
	for _, v := range batch {
		it := s.parser.Iter(v)
		for {
			item, err := s.parser.ParseNextItem(it)
			if err != nil {
				var re *parser.ReaderError
				sl := slot{}
				sl.fail(toDiagnostic(err, v.Span.Or(sp)))
				slots = append(slots, sl)
				if errors.As(err, &re) {
					break
				}
				continue
			}
			if item == nil {
				break
			}
			slots = append(slots, slot{item: item})
		}
	}
	return slots
}

// checkItem builds and infers one reserved item. The typed result lives only
// as long as this call.
func (s *Session) checkItem(sl *slot, parent uint64) {
	it := sl.item
	span := trace.Begin(s.tracer, trace.ScopeItem, "item:"+s.env.AtomName(it.Name), parent).
		WithExtra("kind", it.Kind.String())

	built, err := s.builder.BuildItem(it)
	if err != nil {
		sl.fail(toDiagnostic(err, it.Span))
		if e, ok := s.ents.Get(it.Name); ok && !e.Builtin {
			e.Status = entity.Failed
		}
		span.WithExtra("errors", "1").End("build failed")
		return
	}

	if s.tracer.Level() >= trace.LevelDebug {
		if tree := builtTree(built); tree != nil {
			span.WithExtra("ast", ast.Format(tree, s.builder.VarNames, s.env.AtomName))
		}
	}

	ctx := infer.New(s.ents, &s.predefs, s.env.AtomName, s.builder.VarNames, s.builder.Globals)
	out := ctx.LowerItem(built)
	sl.diags = append(sl.diags, ctx.Diagnostics()...)
	if s.hook != nil {
		s.hook(out, ctx.Types())
	}
	span.WithExtra("errors", strconv.Itoa(len(ctx.Errors()))).End("")
}

// builtTree is the expression an item carries: a body or an initializer.
func builtTree(it *ast.Item) *ast.Expr {
	if it.Body != nil {
		return it.Body
	}
	return it.Init
}

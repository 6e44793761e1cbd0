package compiler

import (
	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/keyword"
	"mmc/internal/sexpr"
	"mmc/internal/source"
	"mmc/internal/trace"
)

// Call dispatches a command vector: (add item...) or
// (finish entry signature item...). It returns sexpr.Undef() on success and
// an *Error when the command itself is malformed.
func (s *Session) Call(sp source.Span, args []sexpr.Value) (sexpr.Value, error) {
	if len(args) == 0 {
		return sexpr.Undef(), callErrorf(diag.SynError, sp, "mmc-compiler: expected a subcommand")
	}
	head := args[0]
	kw := keyword.Invalid
	if a, ok := head.AsAtom(); ok {
		if k, ok := s.keywords.Get(a); ok && k.IsCommand() {
			kw = k
		}
	}
	switch kw {
	case keyword.Add:
		if err := s.Add(sp, args[1:]); err != nil {
			return sexpr.Undef(), err
		}
	case keyword.Finish:
		if len(args) < 3 {
			return sexpr.Undef(), callErrorf(diag.SynError, sp, "mmc-finish: syntax error")
		}
		entry, ok1 := args[1].AsAtom()
		sig, ok2 := args[2].AsAtom()
		if !ok1 || !ok2 {
			return sexpr.Undef(), callErrorf(diag.SynError, sp, "mmc-finish: syntax error")
		}
		if err := s.Add(sp, args[3:]); err != nil {
			return sexpr.Undef(), err
		}
		if err := s.Finish(sp, entry, sig); err != nil {
			return sexpr.Undef(), err
		}
	default:
		return sexpr.Undef(), callErrorf(diag.SynUnknownSubcommand, head.Span.Or(sp),
			"mmc-compiler: unknown subcommand '%s'", s.env.Print(head))
	}
	return sexpr.Undef(), nil
}

// Finish is where linking will happen. For now it only checks that the entry
// point and its signature name declared entities.
func (s *Session) Finish(sp source.Span, entry, sig atom.ID) error {
	span := trace.Begin(s.tracer, trace.ScopeBatch, "finish", s.traceParent)
	defer span.End("")
	for _, name := range []atom.ID{entry, sig} {
		if _, ok := s.ents.Get(name); !ok {
			return callErrorf(diag.SemaUnboundName, sp, "mmc-finish: unknown entity '%s'", s.env.AtomName(name))
		}
	}
	return nil
}

package ast

import (
	"strings"

	"mmc/internal/atom"
)

// Format prints e as an s-expression over its canonical forms. vars maps
// VarID-1 to names, as in Builder.VarNames.
func Format(e *Expr, vars []atom.ID, name func(atom.ID) string) string {
	f := formatter{vars: vars, name: name}
	f.expr(e)
	return f.sb.String()
}

type formatter struct {
	sb   strings.Builder
	vars []atom.ID
	name func(atom.ID) string
}

func (f *formatter) list(head string, parts ...func()) {
	f.sb.WriteByte('(')
	f.sb.WriteString(head)
	for _, p := range parts {
		f.sb.WriteByte(' ')
		p()
	}
	f.sb.WriteByte(')')
}

func (f *formatter) sub(e *Expr) func() { return func() { f.expr(e) } }

func (f *formatter) subs(es []*Expr) []func() {
	out := make([]func(), len(es))
	for i, e := range es {
		out[i] = f.sub(e)
	}
	return out
}

func (f *formatter) word(s string) func() { return func() { f.sb.WriteString(s) } }

func (f *formatter) varName(id VarID) string {
	if id.IsValid() && int(id) <= len(f.vars) {
		return f.name(f.vars[id-1])
	}
	return "?"
}

func (f *formatter) expr(e *Expr) {
	if e == nil {
		f.sb.WriteString("<nil>")
		return
	}
	switch d := e.Data.(type) {
	case VarData:
		f.sb.WriteString(f.varName(d.Var))
	case GlobalData:
		f.sb.WriteString(f.name(d.Name))
	case IntData:
		f.sb.WriteString(d.Value.String())
	case BoolData:
		if d.Value {
			f.sb.WriteString("#t")
		} else {
			f.sb.WriteString("#f")
		}
	case CallData:
		f.list(f.name(d.Callee), f.subs(d.Args)...)
	case PrimData:
		f.list(d.Op.Op(), f.subs(d.Args)...)
	case LetData:
		f.list("let", f.word(f.varName(d.Var)), f.sub(d.Init))
	case AssignData:
		f.list(":=", f.sub(d.Target), f.sub(d.Value))
	case IfData:
		f.list("if", f.sub(d.Cond), f.sub(d.Then), f.sub(d.Else))
	case WhileData:
		f.list("while", f.sub(d.Cond), f.sub(d.Body))
	case BlockData:
		f.list("begin", f.subs(d.Stmts)...)
	case ReturnData:
		f.list("return", f.subs(d.Values)...)
	case AssertData:
		f.list("assert", f.sub(d.Cond))
	case AscribeData:
		f.list(":", f.sub(d.Expr), f.word(d.Type.Format(f.name)))
	case RefData:
		f.list("&", f.sub(d.Expr))
	case DerefData:
		f.list("*", f.sub(d.Expr))
	case IndexData:
		f.list("index", f.sub(d.Array), f.sub(d.Index))
	case FieldData:
		f.list("field", f.sub(d.Object), f.word(f.name(d.Field)))
	case CastData:
		f.list("as", f.sub(d.Expr), f.word(d.Type.Format(f.name)))
	case ListData:
		f.list("list", f.subs(d.Elems)...)
	default:
		if e.Kind == ExprUnit {
			f.sb.WriteString("()")
			return
		}
		f.sb.WriteString("<" + e.Kind.String() + ">")
	}
}

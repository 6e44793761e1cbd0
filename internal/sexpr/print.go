package sexpr

import (
	"strconv"
	"strings"

	"mmc/internal/atom"
)

// Printer renders values back to text using an atom table.
type Printer struct {
	Atoms *atom.Table
}

// Print renders v.
func (p Printer) Print(v Value) string {
	var sb strings.Builder
	p.write(&sb, v)
	return sb.String()
}

func (p Printer) write(sb *strings.Builder, v Value) {
	switch v.Kind {
	case KindUndef:
		sb.WriteString("#undef")
	case KindAtom:
		if p.Atoms == nil {
			sb.WriteString("#<atom " + strconv.FormatUint(uint64(v.Atom), 10) + ">")
			return
		}
		sb.WriteString(p.Atoms.Name(v.Atom))
	case KindNumber:
		if v.Num == nil {
			sb.WriteString("0")
			return
		}
		sb.WriteString(v.Num.String())
	case KindString:
		sb.WriteString(strconv.Quote(v.Str))
	case KindBool:
		if v.Bool {
			sb.WriteString("#t")
		} else {
			sb.WriteString("#f")
		}
	case KindList, KindDotted:
		sb.WriteByte('(')
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteByte(' ')
			}
			p.write(sb, e)
		}
		if v.Kind == KindDotted && v.Tail != nil {
			sb.WriteString(" . ")
			p.write(sb, *v.Tail)
		}
		sb.WriteByte(')')
	}
}

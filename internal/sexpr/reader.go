package sexpr

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"fortio.org/safecast"

	"mmc/internal/atom"
	"mmc/internal/source"
)

// ReadError is a syntax error in the textual form of a value.
type ReadError struct {
	Span  source.Span
	Msg   string
	AtEOF bool // input ended inside a list or string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

// Reader turns text into values. It stands in for the host's lisp reader when
// batches come from files or the REPL.
//
// Supported syntax: atoms, decimal and 0x numbers, "strings", #t/#f, ( ) and
// [ ] lists, dotted tails (a . b), ; comments, and curly infix lists where
// {a op b op c} reads as (op a b c), {x} as x and {} as ().
type Reader struct {
	atoms *atom.Table
	file  source.FileID
	src   []byte
	pos   int
}

// NewReader creates a reader over src; spans point into file.
func NewReader(atoms *atom.Table, file source.FileID, src []byte) *Reader {
	return &Reader{atoms: atoms, file: file, src: src}
}

// ReadAll reads every top-level value.
func (r *Reader) ReadAll() ([]Value, error) {
	var out []Value
	for {
		v, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// Next reads one value; io.EOF is returned once only whitespace remains.
func (r *Reader) Next() (Value, error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return Value{}, io.EOF
	}
	return r.read()
}

func (r *Reader) span(start, end int) source.Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		panic(fmt.Errorf("span start overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		panic(fmt.Errorf("span end overflow: %w", err))
	}
	return source.Span{File: r.file, Start: s, End: e}
}

func (r *Reader) errorf(start int, format string, args ...any) error {
	end := min(r.pos, len(r.src))
	if end <= start {
		end = min(start+1, len(r.src))
	}
	return &ReadError{Span: r.span(start, end), Msg: fmt.Sprintf(format, args...)}
}

func (r *Reader) eofError(start int, msg string) error {
	err := r.errorf(start, "%s", msg)
	err.(*ReadError).AtEOF = true
	return err
}

// Incomplete reports whether src stops inside an open list or string, so an
// interactive reader should ask for another line.
func Incomplete(src []byte) bool {
	_, err := NewReader(atom.NewTable(), source.NoFileID, src).ReadAll()
	var re *ReadError
	return errors.As(err, &re) && re.AtEOF
}

func (r *Reader) skipSpace() {
	for r.pos < len(r.src) {
		switch c := r.src[r.pos]; {
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		default:
			return
		}
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '[', ']', '{', '}', '"', ';', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func (r *Reader) read() (Value, error) {
	start := r.pos
	switch c := r.src[r.pos]; c {
	case '(':
		r.pos++
		return r.readList(start, ')')
	case '[':
		r.pos++
		return r.readList(start, ']')
	case '{':
		r.pos++
		return r.readCurly(start)
	case ')', ']', '}':
		r.pos++
		return Value{}, r.errorf(start, "unexpected '%c'", c)
	case '"':
		return r.readString()
	default:
		return r.readToken()
	}
}

func (r *Reader) readList(start int, closer byte) (Value, error) {
	var elems []Value
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return Value{}, r.eofError(start, "unclosed list")
		}
		c := r.src[r.pos]
		if c == closer {
			r.pos++
			return List(elems...).At(r.span(start, r.pos)), nil
		}
		if c == '.' && r.pos+1 < len(r.src) && isDelimiter(r.src[r.pos+1]) {
			dot := r.pos
			r.pos++
			r.skipSpace()
			if len(elems) == 0 || r.pos >= len(r.src) {
				return Value{}, r.errorf(dot, "misplaced '.'")
			}
			tail, err := r.read()
			if err != nil {
				return Value{}, err
			}
			r.skipSpace()
			if r.pos >= len(r.src) || r.src[r.pos] != closer {
				return Value{}, r.errorf(dot, "expected '%c' after dotted tail", closer)
			}
			r.pos++
			return Dotted(tail, elems...).At(r.span(start, r.pos)), nil
		}
		v, err := r.read()
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
}

// readCurly reads {a op b op c ...} into (op a b c ...).
func (r *Reader) readCurly(start int) (Value, error) {
	inner, err := r.readList(start, '}')
	if err != nil {
		return Value{}, err
	}
	sp := inner.Span
	elems := inner.Elems
	switch {
	case len(elems) == 0:
		return List().At(sp), nil
	case len(elems) == 1:
		return elems[0], nil
	case len(elems)%2 == 0:
		return Value{}, &ReadError{Span: sp, Msg: "curly list needs an odd number of elements"}
	}
	op := elems[1]
	args := []Value{elems[0]}
	for i := 1; i < len(elems); i += 2 {
		if !sameAtom(elems[i], op) {
			return Value{}, &ReadError{Span: elems[i].Span, Msg: "curly list mixes operators"}
		}
		args = append(args, elems[i+1])
	}
	return List(append([]Value{op}, args...)...).At(sp), nil
}

func sameAtom(a, b Value) bool {
	x, ok1 := a.AsAtom()
	y, ok2 := b.AsAtom()
	return ok1 && ok2 && x == y
}

func (r *Reader) readString() (Value, error) {
	start := r.pos
	r.pos++ // открывающая кавычка
	var sb strings.Builder
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		r.pos++
		switch c {
		case '"':
			return String(sb.String()).At(r.span(start, r.pos)), nil
		case '\\':
			if r.pos >= len(r.src) {
				return Value{}, r.eofError(start, "unterminated string")
			}
			esc := r.src[r.pos]
			r.pos++
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"':
				sb.WriteByte(esc)
			default:
				return Value{}, r.errorf(r.pos-2, "unknown escape '\\%c'", esc)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return Value{}, r.eofError(start, "unterminated string")
}

func (r *Reader) readToken() (Value, error) {
	start := r.pos
	for r.pos < len(r.src) && !isDelimiter(r.src[r.pos]) {
		r.pos++
	}
	tok := string(r.src[start:r.pos])
	sp := r.span(start, r.pos)
	switch tok {
	case "#t":
		return Bool(true).At(sp), nil
	case "#f":
		return Bool(false).At(sp), nil
	case "#undef":
		return Undef().At(sp), nil
	}
	if looksNumeric(tok) {
		n, ok := parseNumber(tok)
		if !ok {
			return Value{}, r.errorf(start, "malformed number %q", tok)
		}
		return Value{Kind: KindNumber, Num: n, Span: sp}, nil
	}
	if strings.HasPrefix(tok, "#") {
		return Value{}, r.errorf(start, "unknown literal %q", tok)
	}
	return Atom(r.atoms.Intern(tok)).At(sp), nil
}

func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	if tok[0] == '-' {
		tok = tok[1:]
	}
	return tok != "" && tok[0] >= '0' && tok[0] <= '9'
}

func parseNumber(tok string) (*big.Int, bool) {
	neg := strings.HasPrefix(tok, "-")
	tok = strings.TrimPrefix(tok, "-")
	base := 10
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		base, tok = 16, tok[2:]
	}
	n, ok := new(big.Int).SetString(tok, base)
	if !ok {
		return nil, false
	}
	if neg {
		n.Neg(n)
	}
	return n, true
}

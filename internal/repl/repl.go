// Package repl is an interactive front end for one compiler session.
//
// Each complete top-level form typed at the prompt is run as a command, the
// same way forms of a checked file are. Lines are joined until every list and
// string is closed. Lines starting with ':' are REPL commands.
package repl

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"mmc/internal/compiler"
	"mmc/internal/diag"
	"mmc/internal/diagfmt"
	"mmc/internal/driver"
	"mmc/internal/host"
	"mmc/internal/sexpr"
	"mmc/internal/source"
)

const (
	prompt     = "mmc> "
	contPrompt = "...  "
)

// LineReader is the part of *readline.Instance the loop uses.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(string)
}

// Options configure the loop.
type Options struct {
	Prefix         string
	MaxDiagnostics int
	Pretty         diagfmt.PrettyOpts
}

// REPL holds the session the user is building up.
type REPL struct {
	out     io.Writer
	opts    Options
	host    *host.Elaborator
	session *compiler.Session
	chunks  int
	history *diag.Bag // everything reported since the last reset
}

// New creates a REPL with an empty session.
func New(out io.Writer, opts Options) *REPL {
	r := &REPL{out: out, opts: opts}
	r.reset()
	return r
}

func (r *REPL) reset() {
	r.host = host.New(source.NewFileSet(), diag.BagReporter{Bag: diag.NewBag(0)})
	prefix := r.opts.Prefix
	if prefix == "" {
		prefix = compiler.DefaultPrefix
	}
	r.session = compiler.New(r.host, compiler.WithPrefix(prefix))
	r.chunks = 0
	r.history = diag.NewBag(0)
}

// Session exposes the current session.
func (r *REPL) Session() *compiler.Session { return r.session }

// Start runs the loop on the terminal until EOF or :quit.
func Start(out io.Writer, opts Options) error {
	rl, err := readline.New(prompt)
	if err != nil {
		return err
	}
	defer rl.Close()
	return New(out, opts).Run(rl)
}

// Run reads chunks from lr until EOF or :quit.
func (r *REPL) Run(lr LineReader) error {
	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			lr.SetPrompt(prompt)
		} else {
			lr.SetPrompt(contPrompt)
		}
		line, err := lr.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				// Ctrl-C сбрасывает незаконченный ввод
				buf.Reset()
				continue
			}
			if errors.Is(err, io.EOF) {
				if buf.Len() > 0 {
					r.Eval(buf.String())
				}
				return nil
			}
			return err
		}
		if buf.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			if quit := r.command(strings.TrimSpace(line)); quit {
				return nil
			}
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		if sexpr.Incomplete([]byte(buf.String())) {
			continue
		}
		r.Eval(buf.String())
		buf.Reset()
	}
}

// Eval runs every form of text and prints the diagnostics they produced.
// It reports whether the chunk was clean.
func (r *REPL) Eval(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	r.chunks++
	bag := diag.NewBag(r.opts.MaxDiagnostics)
	// один и тот же чанк не должен печатать одну ошибку дважды
	r.host.SetReporter(diag.NewDedupReporter(diag.BagReporter{Bag: bag}))

	forms, _, err := r.host.ReadSource("<repl:"+strconv.Itoa(r.chunks)+">", []byte(text))
	if err != nil {
		var d diag.Diagnostic
		if !errors.As(err, &d) {
			d = diag.NewError(diag.SynReader, source.Span{}, err.Error())
		}
		bag.Add(d)
	}
	for _, form := range forms {
		driver.RunForm(r.session, form, bag)
	}
	if bag.Len() == 0 {
		return true
	}
	r.history.Merge(bag)
	diagfmt.Pretty(r.out, bag, r.host.Files, r.opts.Pretty)
	return false
}

// printHistory reprints every diagnostic of the session, ordered by chunk
// and position.
func (r *REPL) printHistory() {
	if r.history.Len() == 0 {
		fmt.Fprintln(r.out, "no diagnostics")
		return
	}
	all := diag.NewBag(0)
	all.Merge(r.history)
	all.Sort()
	diagfmt.Pretty(r.out, all, r.host.Files, r.opts.Pretty)
}

func (r *REPL) command(line string) (quit bool) {
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case ":quit", ":q":
		return true
	case ":entities", ":e":
		r.printEntities(strings.TrimSpace(arg))
	case ":diagnostics", ":d":
		r.printHistory()
	case ":reset":
		r.reset()
		fmt.Fprintln(r.out, "session reset")
	case ":help", ":h":
		fmt.Fprint(r.out, helpText)
	default:
		fmt.Fprintf(r.out, "unknown command %s, try :help\n", name)
	}
	return false
}

const helpText = `forms:
  (add item...)              declare and check items
  (finish entry sig item...) add items, then check entry and sig exist
commands:
  :entities [name]  list declared entities
  :diagnostics      reprint every diagnostic since the last reset
  :reset            start a new session
  :quit             leave
`

func (r *REPL) printEntities(only string) {
	sums := r.session.Entities().Summarize(r.host.AtomName)
	shown := 0
	for _, s := range sums {
		if only != "" && s.Name != only {
			continue
		}
		shown++
		fmt.Fprintf(r.out, "%-8s %s %s [%s]\n", s.Kind, s.Name, s.Signature, s.Status)
		if s.Doc != "" {
			fmt.Fprintf(r.out, "         %s\n", s.Doc)
		}
	}
	if shown == 0 {
		if only != "" {
			fmt.Fprintf(r.out, "no entity named %s\n", only)
		} else {
			fmt.Fprintln(r.out, "no entities")
		}
	}
}

// Package compiler holds the long-lived compiler session of one source unit.
//
// A session is created once per unit and then fed batches of declarations
// through Add (or Call). Each batch is read into items, every item's name is
// reserved before any body is looked at, and then each item is built and
// type-checked on its own. Problems with one item become diagnostics and
// never stop the others.
package compiler

import (
	"mmc/internal/ast"
	"mmc/internal/atom"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/hir"
	"mmc/internal/keyword"
	"mmc/internal/parser"
	"mmc/internal/predef"
	"mmc/internal/sexpr"
	"mmc/internal/trace"
	"mmc/internal/types"
)

// DefaultPrefix mangles names the compiler invents.
const DefaultPrefix = "_mmc_"

// Env is what a session needs from its host.
type Env interface {
	Atom(name string) atom.ID
	AtomName(id atom.ID) string
	Report(d diag.Diagnostic)
	Print(v sexpr.Value) string
}

// ItemHook observes every typed item before its arena is dropped.
type ItemHook func(item *hir.Item, types *types.Interner)

// Option configures a Session.
type Option func(*Session)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Session) { s.prefix = prefix }
}

// WithTracer enables tracing of batches and items.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithTraceParent nests the session's spans under an existing span.
func WithTraceParent(id uint64) Option {
	return func(s *Session) { s.traceParent = id }
}

// WithItemHook registers h to run synchronously after each item is lowered.
func WithItemHook(h ItemHook) Option {
	return func(s *Session) { s.hook = h }
}

// Session is the compiler state that persists across batches.
type Session struct {
	env      Env
	keywords keyword.Table
	ents     *entity.Table
	predefs  predef.Map[atom.ID]
	prefix   string

	parser  parser.Parser
	types   ast.TypeResolver
	builder *ast.Builder

	tracer      trace.Tracer
	traceParent uint64
	hook        ItemHook
}

// New binds keywords, builtin entities and lemma names to env's symbol
// space.
func New(env Env, opts ...Option) *Session {
	s := &Session{
		env:    env,
		prefix: DefaultPrefix,
		tracer: trace.Nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.keywords = keyword.Make(env.Atom)
	s.ents = entity.NewBuiltinTable(env.Atom)
	s.predefs = predef.Atoms(env.Atom)
	s.parser = parser.Parser{Keywords: s.keywords, Name: env.AtomName}
	s.types = ast.TypeResolver{Keywords: s.keywords, Entities: s.ents, Name: env.AtomName}
	s.builder = ast.NewBuilder(s.keywords, s.ents, env.Atom, env.AtomName, s.prefix)
	return s
}

// Entities exposes the entity table. Callers must not modify it.
func (s *Session) Entities() *entity.Table { return s.ents }

// Prefix is the mangling prefix of generated names.
func (s *Session) Prefix() string { return s.prefix }

// Keywords returns the session's keyword bindings.
func (s *Session) Keywords() keyword.Table { return s.keywords }

// Predefs returns the lemma atoms recorded on primitive operations.
func (s *Session) Predefs() *predef.Map[atom.ID] { return &s.predefs }

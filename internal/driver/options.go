// Package driver checks source files: each file is one source unit with its
// own host and compiler session.
package driver

import (
	"context"

	"mmc/internal/compiler"
	"mmc/internal/trace"
)

// Options configure a check.
type Options struct {
	Prefix         string // mangling prefix, compiler.DefaultPrefix when empty
	MaxDiagnostics int    // per file; 0 = unlimited
	Jobs           int    // CheckFiles parallelism; <= 0 = GOMAXPROCS
	Cache          *DiskCache
	Tracer         trace.Tracer // trace.FromContext(ctx) when nil
}

func (o Options) prefix() string {
	if o.Prefix == "" {
		return compiler.DefaultPrefix
	}
	return o.Prefix
}

func (o Options) tracer(ctx context.Context) trace.Tracer {
	if o.Tracer == nil {
		return trace.FromContext(ctx)
	}
	return o.Tracer
}

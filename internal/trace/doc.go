// Package trace is the compiler's structured log: spans and instant events
// with a scope and a level.
//
// # Usage
//
//	mmc check --trace=- --trace-level=detail unit.mmc
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: writes every event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events in memory
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// LevelPhase shows driver and batch boundaries, LevelDetail adds one span
// per item, LevelDebug adds node-level events. LevelError emits nothing by
// itself; it keeps the ring buffer for dumps on failure.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeBatch, "add", parentID)
//	defer span.End("")
package trace

package driver

import (
	"context"
	"errors"
	"strconv"

	"mmc/internal/compiler"
	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/host"
	"mmc/internal/observ"
	"mmc/internal/project"
	"mmc/internal/sexpr"
	"mmc/internal/source"
	"mmc/internal/trace"
	"mmc/internal/version"
)

// Result is the outcome of checking one file.
type Result struct {
	Path     string
	FileID   source.FileID
	Files    *source.FileSet
	Bag      *diag.Bag
	Entities []entity.Summary
	Timing   observ.Report
	Cached   bool
}

// CheckFile loads path and runs every form in it through a fresh session.
// Problems in the source are diagnostics in Result.Bag; the error return is
// for cancellation and unexpected host failures.
func CheckFile(ctx context.Context, path string, opts Options) (*Result, error) {
	return check(ctx, path, nil, opts)
}

// CheckSource is CheckFile for in-memory text.
func CheckSource(ctx context.Context, name string, src []byte, opts Options) (*Result, error) {
	if src == nil {
		src = []byte{}
	}
	return check(ctx, name, src, opts)
}

func check(ctx context.Context, path string, src []byte, opts Options) (*Result, error) {
	tracer := opts.tracer(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "check", trace.ParentID(ctx)).WithExtra("path", path)
	defer span.End("")

	res := &Result{
		Path:  path,
		Files: source.NewFileSet(),
		Bag:   diag.NewBag(opts.MaxDiagnostics),
	}
	timer := observ.NewTimer()
	defer func() { res.Timing = timer.Report() }()

	h := host.New(res.Files, diag.BagReporter{Bag: res.Bag})

	idx := timer.Begin("read")
	var (
		forms []sexpr.Value
		err   error
	)
	if src == nil {
		forms, res.FileID, err = h.LoadFile(path)
	} else {
		forms, res.FileID, err = h.ReadSource(path, src)
	}
	timer.End(idx, strconv.Itoa(len(forms))+" forms")
	readOK := err == nil
	if err != nil {
		var d diag.Diagnostic
		if !errors.As(err, &d) {
			return res, err
		}
		res.Bag.Add(d)
		if d.Code == diag.IOLoadFileError {
			return res, nil
		}
		// формы до синтаксической ошибки всё равно проверяются
	}

	key := cacheKey(res.Files.Get(res.FileID), opts.prefix())
	if opts.Cache != nil && readOK {
		var payload DiskPayload
		ok, cerr := opts.Cache.Get(key, &payload)
		switch {
		case cerr != nil:
			res.Bag.Add(diag.Errorf(diag.IOCacheError, source.Span{}, "disk cache: %v", cerr))
		case ok && payload.Schema == diskCacheSchemaVersion:
			payload.restore(res)
			res.Cached = true
			span.WithExtra("cached", "true")
			return res, nil
		}
	}

	idx = timer.Begin("check")
	s := compiler.New(h,
		compiler.WithPrefix(opts.prefix()),
		compiler.WithTracer(tracer),
		compiler.WithTraceParent(span.ID()))
	for _, form := range forms {
		if err := ctx.Err(); err != nil {
			timer.End(idx, "cancelled")
			return res, err
		}
		RunForm(s, form, res.Bag)
	}
	res.Entities = s.Entities().Summarize(h.AtomName)
	timer.End(idx, strconv.Itoa(len(res.Entities))+" entities")
	// одинаковые диагностики печатаются один раз
	res.Bag.Dedup()

	if opts.Cache != nil && readOK {
		if perr := opts.Cache.Put(key, newPayload(res)); perr != nil {
			res.Bag.Add(diag.Errorf(diag.IOCacheError, source.Span{}, "disk cache: %v", perr))
		}
	}
	return res, nil
}

// RunForm treats one top-level form as the argument vector of a call and
// records a malformed command in bag.
func RunForm(s *compiler.Session, form sexpr.Value, bag *diag.Bag) {
	if !form.IsList() {
		bag.Add(diag.NewError(diag.SynError, form.Span, "expected a command form such as (add ...)"))
		return
	}
	if _, err := s.Call(form.Span, form.Elems); err != nil {
		var ce *compiler.Error
		if errors.As(err, &ce) {
			bag.Add(ce.Diag)
			return
		}
		bag.Add(diag.NewError(diag.SynError, form.Span, err.Error()))
	}
}

func cacheKey(f *source.File, prefix string) project.Digest {
	if f == nil {
		return project.Digest{}
	}
	return project.Combine(f.Hash, prefix, version.Version, strconv.Itoa(int(diskCacheSchemaVersion)))
}

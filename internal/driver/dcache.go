package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"mmc/internal/diag"
	"mmc/internal/entity"
	"mmc/internal/project"
	"mmc/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores check results keyed by content hash and prefix.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedNote is a note without its file id; spans point into the cached file.
type CachedNote struct {
	Start  uint32 `msgpack:"s"`
	End    uint32 `msgpack:"e"`
	InFile bool   `msgpack:"f"`
	Msg    string `msgpack:"m"`
}

// CachedDiagnostic is a diagnostic of the cached file.
type CachedDiagnostic struct {
	Severity uint8        `msgpack:"sev"`
	Code     uint16       `msgpack:"code"`
	Message  string       `msgpack:"msg"`
	Start    uint32       `msgpack:"s"`
	End      uint32       `msgpack:"e"`
	InFile   bool         `msgpack:"f"`
	Notes    []CachedNote `msgpack:"notes,omitempty"`
}

// DiskPayload is what a cache entry holds.
type DiskPayload struct {
	Schema      uint16             `msgpack:"schema"`
	Path        string             `msgpack:"path"`
	Entities    []entity.Summary   `msgpack:"entities"`
	Diagnostics []CachedDiagnostic `msgpack:"diags"`
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache uses dir, creating it when missing.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "units", key.Hex()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("failed to remove temp file: %w", rmErr)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", key.Hex(), err)
	}
	return true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "units"))
}

func newPayload(res *Result) *DiskPayload {
	p := &DiskPayload{
		Schema:   diskCacheSchemaVersion,
		Path:     res.Path,
		Entities: res.Entities,
	}
	for _, d := range res.Bag.Items() {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			InFile:   d.Primary.File == res.FileID && d.Primary.IsValid(),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{
				Start:  n.Span.Start,
				End:    n.Span.End,
				InFile: n.Span.File == res.FileID && n.Span.IsValid(),
				Msg:    n.Msg,
			})
		}
		p.Diagnostics = append(p.Diagnostics, cd)
	}
	return p
}

// restore fills res from the payload; spans are re-attached to res.FileID,
// which holds the same content the entry was made from.
func (p *DiskPayload) restore(res *Result) {
	span := func(inFile bool, start, end uint32) source.Span {
		if !inFile {
			return source.Span{}
		}
		return source.Span{File: res.FileID, Start: start, End: end}
	}
	res.Entities = p.Entities
	for _, cd := range p.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  span(cd.InFile, cd.Start, cd.End),
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: span(n.InFile, n.Start, n.End), Msg: n.Msg})
		}
		res.Bag.Add(d)
	}
}

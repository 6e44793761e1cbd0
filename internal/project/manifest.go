// Package project reads the mmc.toml manifest.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"

	"mmc/internal/trace"
)

// Config is the decoded manifest. Zero sections fall back to Default.
type Config struct {
	Compiler CompilerConfig `toml:"compiler"`
	Trace    TraceConfig    `toml:"trace"`
	Cache    CacheConfig    `toml:"cache"`
	Check    CheckConfig    `toml:"check"`
}

type CompilerConfig struct {
	Prefix         string `toml:"prefix"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
	Format string `toml:"format"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// CheckConfig lists the source units checked when `mmc check` gets no
// arguments. Entries are globs relative to the project root.
type CheckConfig struct {
	Files []string `toml:"files"`
	Jobs  int      `toml:"jobs"`
}

// Manifest is a loaded mmc.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

var (
	// ErrBadPrefix indicates an unusable [compiler].prefix.
	ErrBadPrefix = errors.New("invalid [compiler].prefix")
	// ErrBadMaxDiagnostics indicates a negative [compiler].max_diagnostics.
	ErrBadMaxDiagnostics = errors.New("invalid [compiler].max_diagnostics")
)

// Default is the configuration used without a manifest.
func Default() Config {
	return Config{
		Compiler: CompilerConfig{Prefix: "_mmc_", MaxDiagnostics: 100},
		Trace:    TraceConfig{Level: "off", Mode: "stream", Output: "-", Format: "auto"},
	}
}

// Load parses and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("compiler", "prefix") {
		if err := validatePrefix(cfg.Compiler.Prefix); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if cfg.Compiler.MaxDiagnostics < 0 {
		return nil, fmt.Errorf("%s: %w: %d", path, ErrBadMaxDiagnostics, cfg.Compiler.MaxDiagnostics)
	}
	if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
		return nil, fmt.Errorf("%s: [trace].level: %w", path, err)
	}
	if _, err := trace.ParseMode(cfg.Trace.Mode); err != nil {
		return nil, fmt.Errorf("%s: [trace].mode: %w", path, err)
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, nil
}

// LoadFromDir finds and loads the manifest governing startDir.
func LoadFromDir(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// validatePrefix: the prefix becomes part of identifiers, so it must be a
// non-empty run of letters, digits and underscores.
func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%w: empty", ErrBadPrefix)
	}
	for _, r := range prefix {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("%w: %q contains %q", ErrBadPrefix, prefix, r)
		}
	}
	return nil
}

// Sources expands [check].files against the project root, sorted and
// without duplicates.
func (m *Manifest) Sources() ([]string, error) {
	var out []string
	for _, pattern := range m.Config.Check.Files {
		full := filepath.Join(m.Root, filepath.FromSlash(pattern))
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, fmt.Errorf("%s: bad pattern %q: %w", m.Path, pattern, err)
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

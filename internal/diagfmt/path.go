package diagfmt

import (
	"path/filepath"
	"strings"

	"mmc/internal/source"
)

func formatPath(fs *source.FileSet, file source.FileID, mode PathMode, baseDir string) string {
	f := fs.Get(file)
	if f == nil {
		return "<unknown>"
	}
	p := f.Path
	if f.Flags&source.FileVirtual != 0 {
		return p
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(filepath.FromSlash(p)); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeBasename:
		return filepath.Base(p)
	case PathModeRelative, PathModeAuto:
		if baseDir == "" {
			return p
		}
		abs, err := filepath.Abs(filepath.FromSlash(p))
		if err != nil {
			return p
		}
		rel, err := filepath.Rel(baseDir, abs)
		if err != nil || (mode == PathModeAuto && strings.HasPrefix(rel, "..")) {
			return p
		}
		return filepath.ToSlash(rel)
	}
	return p
}

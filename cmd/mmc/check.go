package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"mmc/internal/diag"
	"mmc/internal/diagfmt"
	"mmc/internal/driver"
	"mmc/internal/entity"
	"mmc/internal/observ"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.mmc|directory]...",
	Short: "Check MMC source files",
	Long: `Check runs every command form of each source file through a fresh compiler session.
Without arguments the files listed in [check].files of mmc.toml are checked.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0 = [check].jobs or auto)")
	checkCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("disk-cache", false, "reuse results of unchanged files from the disk cache")
	checkCmd.Flags().Bool("dump-entities", false, "print the entity table of each file")
}

// fileReport is one entry of the JSON output.
type fileReport struct {
	Path        string                    `json:"path"`
	Cached      bool                      `json:"cached,omitempty"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
	Entities    []entity.Summary          `json:"entities,omitempty"`
	Timing      *observ.Report            `json:"timing,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json", "short":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	useDiskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	dumpEntities, err := cmd.Flags().GetBool("dump-entities")
	if err != nil {
		return fmt.Errorf("failed to get dump-entities flag: %w", err)
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	paths, err := checkPaths(s, args)
	if err != nil {
		return err
	}

	_, cleanup, err := setupTracing(cmd, s)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Prefix:         s.cfg.Compiler.Prefix,
		MaxDiagnostics: s.cfg.Compiler.MaxDiagnostics,
		Jobs:           jobs,
	}
	if opts.Jobs == 0 {
		opts.Jobs = s.cfg.Check.Jobs
	}
	if useDiskCache || s.cfg.Cache.Enabled {
		if s.cfg.Cache.Dir != "" {
			dir := s.cfg.Cache.Dir
			if s.manifest != nil && !filepath.IsAbs(dir) {
				dir = filepath.Join(s.manifest.Root, dir)
			}
			opts.Cache, err = driver.NewDiskCache(dir)
		} else {
			opts.Cache, err = driver.OpenDiskCache("mmc")
		}
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to open disk cache: %w", err)
		}
	}

	results, err := driver.CheckFiles(cmd.Context(), paths, opts)
	if err != nil {
		cleanup()
		return err
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	baseDir, _ := os.Getwd()
	out := cmd.OutOrStdout()

	switch format {
	case "pretty":
		prettyOpts := diagfmt.PrettyOpts{
			Color:     s.color,
			Context:   2,
			PathMode:  pathMode,
			BaseDir:   baseDir,
			ShowNotes: withNotes,
		}
		for idx, r := range results {
			if len(results) > 1 {
				if idx > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "== %s ==\n", r.Path)
			}
			diagfmt.Pretty(out, r.Bag, r.Files, prettyOpts)
			if dumpEntities {
				printEntities(out, r)
			}
		}
	case "short":
		for _, r := range results {
			if err := diagfmt.Short(out, r.Bag, r.Files, withNotes); err != nil {
				cleanup()
				return fmt.Errorf("failed to format diagnostics: %w", err)
			}
			if dumpEntities {
				printEntities(out, r)
			}
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			BaseDir:          baseDir,
			IncludeNotes:     withNotes,
		}
		reports := make([]fileReport, len(results))
		for i, r := range results {
			reports[i] = fileReport{
				Path:        r.Path,
				Cached:      r.Cached,
				Diagnostics: diagfmt.BuildDiagnosticsOutput(r.Bag, r.Files, jsonOpts),
			}
			if dumpEntities {
				reports[i].Entities = r.Entities
			}
			if s.timings {
				reports[i].Timing = &r.Timing
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			cleanup()
			return fmt.Errorf("failed to encode diagnostics: %w", err)
		}
	}

	if s.timings && format != "json" {
		printTimings(cmd.ErrOrStderr(), results)
	}

	exit := 0
	for _, r := range results {
		if r.Bag.HasErrors() {
			exit = 1
			break
		}
	}
	cleanup()
	if exit != 0 {
		os.Exit(exit)
	}
	return nil
}

// checkPaths expands arguments to source files: directories contribute
// every *.mmc file below them. With no arguments the manifest decides.
func checkPaths(s *settings, args []string) ([]string, error) {
	if len(args) == 0 {
		if s.manifest == nil {
			return nil, fmt.Errorf("no input files and no mmc.toml found")
		}
		files, err := s.manifest.Sources()
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%s: [check].files matches no files", s.manifest.Path)
		}
		return files, nil
	}
	var out []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			// пусть драйвер сообщит об ошибке загрузки как диагностику
			out = append(out, arg)
			continue
		}
		if !st.IsDir() {
			out = append(out, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".mmc") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.Sort(found)
		out = append(out, found...)
	}
	return out, nil
}

func printEntities(out io.Writer, r *driver.Result) {
	fmt.Fprintf(out, "entities of %s:\n", r.Path)
	if len(r.Entities) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	for _, e := range r.Entities {
		fmt.Fprintf(out, "  %-8s %s %s [%s]\n", e.Kind, e.Name, e.Signature, e.Status)
	}
}

// countErrors is used by the timing footer.
func countErrors(r *driver.Result) int {
	n := 0
	for _, d := range r.Bag.Items() {
		if d.Severity == diag.SevError {
			n++
		}
	}
	return n
}

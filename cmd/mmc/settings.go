package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mmc/internal/project"
	"mmc/internal/trace"
)

// settings is the manifest configuration with command-line overrides applied.
type settings struct {
	manifest *project.Manifest // nil outside a project
	cfg      project.Config
	color    bool
	timings  bool
}

func readColorMode(value string) (string, error) {
	switch v := strings.TrimSpace(strings.ToLower(value)); v {
	case "", "auto":
		return "auto", nil
	case "on", "off":
		return v, nil
	default:
		return "", fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

func useColor(cmd *cobra.Command) (bool, error) {
	flag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := readColorMode(flag)
	if err != nil {
		return false, err
	}
	return mode == "on" || (mode == "auto" && isTerminal(os.Stdout)), nil
}

// applyColor configures fatih/color once for the whole process.
func applyColor(cmd *cobra.Command, _ []string) error {
	on, err := useColor(cmd)
	if err != nil {
		return err
	}
	color.NoColor = !on
	return nil
}

// loadSettings reads mmc.toml from the working directory upwards and lets
// explicitly set flags override it.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	s := &settings{cfg: project.Default()}
	m, ok, err := project.LoadFromDir(wd)
	if err != nil {
		return nil, err
	}
	if ok {
		s.manifest = m
		s.cfg = m.Config
	}

	flags := cmd.Root().PersistentFlags()
	if flags.Changed("prefix") {
		if s.cfg.Compiler.Prefix, err = flags.GetString("prefix"); err != nil {
			return nil, fmt.Errorf("failed to get prefix flag: %w", err)
		}
	}
	if flags.Changed("max-diagnostics") {
		if s.cfg.Compiler.MaxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
			return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	for flag, dst := range map[string]*string{
		"trace":        &s.cfg.Trace.Output,
		"trace-level":  &s.cfg.Trace.Level,
		"trace-mode":   &s.cfg.Trace.Mode,
		"trace-format": &s.cfg.Trace.Format,
	} {
		if !flags.Changed(flag) {
			continue
		}
		if *dst, err = flags.GetString(flag); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
	}
	// --trace без уровня включает фазы
	if flags.Changed("trace") && !flags.Changed("trace-level") && s.cfg.Trace.Level == "off" {
		s.cfg.Trace.Level = "phase"
	}
	if s.color, err = useColor(cmd); err != nil {
		return nil, err
	}
	if s.timings, err = flags.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return s, nil
}

// setupTracing builds the tracer described by s and attaches it to the
// command context. The returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command, s *settings) (trace.Tracer, func(), error) {
	level, err := trace.ParseLevel(s.cfg.Trace.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		return trace.Nop, func() {}, nil
	}
	mode, err := trace.ParseMode(s.cfg.Trace.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	ringSize, err := cmd.Root().PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     trace.ParseFormat(s.cfg.Trace.Format),
		OutputPath: s.cfg.Trace.Output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		// в режиме ring события выводятся только при завершении
		if ring, ok := tracer.(*trace.RingTracer); ok {
			if err := ring.Dump(cmd.ErrOrStderr(), trace.ParseFormat(s.cfg.Trace.Format)); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

package main

import (
	"github.com/spf13/cobra"

	"mmc/internal/diagfmt"
	"mmc/internal/repl"
	"mmc/internal/version"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive compiler session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		cmd.Println(version.Banner() + " - type :help for commands")
		return repl.Start(out, repl.Options{
			Prefix:         s.cfg.Compiler.Prefix,
			MaxDiagnostics: s.cfg.Compiler.MaxDiagnostics,
			Pretty: diagfmt.PrettyOpts{
				Color:     s.color,
				Context:   1,
				ShowNotes: true,
			},
		})
	},
}

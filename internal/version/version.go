// Package version carries build metadata of the mmc CLI.
package version

import (
	"strings"

	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	nameColor    = color.New(color.FgCyan, color.Bold)
	versionColor = color.New(color.FgGreen, color.Bold)
	metaColor    = color.New(color.Faint)
)

// Banner renders "mmc <version> (<commit>, <date>)". Colour follows
// color.NoColor, which the CLI sets from --color.
func Banner() string {
	var sb strings.Builder
	sb.WriteString(nameColor.Sprint("mmc"))
	sb.WriteByte(' ')
	sb.WriteString(versionColor.Sprint(Version))
	var meta []string
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		meta = append(meta, commit)
	}
	if BuildDate != "" {
		meta = append(meta, BuildDate)
	}
	if len(meta) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(metaColor.Sprint("(" + strings.Join(meta, ", ") + ")"))
	}
	return sb.String()
}

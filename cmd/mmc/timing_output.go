package main

import (
	"fmt"
	"io"

	"mmc/internal/driver"
)

func printTimings(out io.Writer, results []*driver.Result) {
	var total float64
	for _, r := range results {
		state := fmt.Sprintf("%d errors", countErrors(r))
		if r.Cached {
			state += ", cached"
		}
		fmt.Fprintf(out, "%s %.1f ms (%s)\n", r.Path, r.Timing.TotalMS, state)
		for _, p := range r.Timing.Phases {
			fmt.Fprintf(out, "  %-8s %7.2f ms", p.Name, p.DurationMS)
			if p.Note != "" {
				fmt.Fprintf(out, "  // %s", p.Note)
			}
			fmt.Fprintln(out)
		}
		total += r.Timing.TotalMS
	}
	if len(results) > 1 {
		fmt.Fprintf(out, "total %.1f ms\n", total)
	}
}

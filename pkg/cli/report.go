package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

var (
	headerColor = color.New(color.Bold)
	okColor     = color.New(color.FgGreen)
	failColor   = color.New(color.FgRed, color.Bold)
	addedColor  = color.New(color.FgCyan)
	dimColor    = color.New(color.Faint)
)

func printReport(w io.Writer, report *model.RunReport, runErr error) {
	headerColor.Fprintf(w, "Stargazer %s run %s\n", report.Mode, report.RunID)
	if runErr != nil {
		failColor.Fprintf(w, "  FAILED: %v\n", runErr)
	} else {
		okColor.Fprintln(w, "  succeeded")
	}

	fmt.Fprintf(w, "  duration:    %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  rows before: %d\n", report.RowsBefore)
	fmt.Fprintf(w, "  rows after:  %d\n", report.RowsAfter)
	addedColor.Fprintf(w, "  rows added:  %d\n", report.RowsAdded)

	if len(report.Sources) > 0 {
		headerColor.Fprintln(w, "Sources")
		for _, src := range report.Sources {
			stop := string(src.StopReason)
			if stop == "" {
				stop = "-"
			}
			fmt.Fprintf(w, "  %-40s pages=%-5d yielded=%-7d stop=%s\n", src.Source, src.Pages, src.Yielded, stop)
		}
	}

	var added []*model.SourceReport
	for _, src := range report.Sources {
		if src.RowsAdded != 0 {
			added = append(added, src)
		}
	}
	if len(added) > 0 {
		headerColor.Fprintln(w, "Per-source new stars")
		for _, src := range added {
			addedColor.Fprintf(w, "  %-40s +%d\n", src.Source, src.RowsAdded)
		}
	}
}

func printStatus(w io.Writer, statuses []*model.SourceStatus) {
	headerColor.Fprintf(w, "%-40s %-25s %s\n", "REPOSITORY", "WATERMARK", "ROWS")
	for _, s := range statuses {
		watermark := "-"
		if !s.Watermark.IsZero() {
			watermark = s.Watermark.UTC().Format(time.RFC3339)
		}
		line := fmt.Sprintf("%-40s %-25s %d", s.Source, watermark, s.Rows)
		if s.Rows == 0 {
			dimColor.Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
}

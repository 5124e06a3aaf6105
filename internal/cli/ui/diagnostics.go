package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
)

// WriteDiagnostics writes one colored line per diagnostic followed by a
// summary line, or nothing for an empty list
func WriteDiagnostics(w io.Writer, list diagnostics.List, noColor bool) {
	if len(list) == 0 {
		return
	}

	for _, d := range list {
		c := severityColor(d.Severity)
		if noColor {
			c.DisableColor()
		}
		c.Fprintf(w, "%s %s", d.Severity, d.Code)
		fmt.Fprintf(w, " %s\n", d.Message)
		if d.Declaration != "" {
			fmt.Fprintf(w, "    at %s\n", d.Declaration)
		}
		if d.Suggestion != "" {
			fmt.Fprintf(w, "    hint: %s\n", d.Suggestion)
		}
	}

	errs, warnings, _ := list.ErrorCount()
	summary := fmt.Sprintf("%d error(s), %d warning(s)", errs, warnings)
	if errs > 0 {
		red := color.New(color.FgRed, color.Bold)
		if noColor {
			red.DisableColor()
		}
		red.Fprintln(w, summary)
		return
	}
	if warnings > 0 {
		fmt.Fprint(w, Warning(summary, noColor))
		return
	}
	fmt.Fprintln(w, summary)
}

func severityColor(s diagnostics.Severity) *color.Color {
	switch s {
	case diagnostics.SeverityError:
		return color.New(color.FgRed, color.Bold)
	case diagnostics.SeverityWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

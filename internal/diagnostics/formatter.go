package diagnostics

import (
	"fmt"
	"strings"
)

// FormatDiagnostic returns a human-readable message for terminal output
func FormatDiagnostic(d *Diagnostic) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s\n", severityIcon(d.Severity), categoryDisplayName(d.Category), d.Code)

	if d.Declaration != "" {
		fmt.Fprintf(&b, "On %s:\n", d.Declaration)
	}
	fmt.Fprintf(&b, "  %s\n", d.Message)

	if d.Expected != "" || d.Actual != "" {
		b.WriteString("\n")
		if d.Expected != "" {
			fmt.Fprintf(&b, "  Expected: %s\n", d.Expected)
		}
		if d.Actual != "" {
			fmt.Fprintf(&b, "  Actual:   %s\n", d.Actual)
		}
	}

	if d.Suggestion != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", d.Suggestion)
	}

	if d.Documentation != "" {
		fmt.Fprintf(&b, "\nLearn more: %s\n", d.Documentation)
	}

	return b.String()
}

// FormatList returns a formatted string of all diagnostics
func FormatList(l List) string {
	if len(l) == 0 {
		return "no errors"
	}

	var b strings.Builder

	errCount, warnCount, infoCount := l.ErrorCount()
	fmt.Fprintf(&b, "Resolution failed with %d error(s), %d warning(s), %d info\n\n",
		errCount, warnCount, infoCount)

	for i, d := range l {
		if i > 0 {
			b.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
		}
		b.WriteString(d.Format())
	}

	return b.String()
}

// FormatCompact returns a compact one-line format
func FormatCompact(d *Diagnostic) string {
	where := d.Declaration
	if where == "" {
		where = d.AnnotationType
	}
	if where == "" {
		where = "<module>"
	}
	return fmt.Sprintf("%s: %s: %s [%s]", where, d.Severity, d.Message, d.Code)
}

// severityIcon returns the icon for a severity level
func severityIcon(severity Severity) string {
	switch severity {
	case SeverityError:
		return "❌"
	case SeverityWarning:
		return "⚠️ "
	case SeverityInfo:
		return "ℹ️ "
	default:
		return "❓"
	}
}

// categoryDisplayName returns a human-readable category name
func categoryDisplayName(category Category) string {
	switch category {
	case CategoryUsage:
		return "Usage Error"
	case CategoryInstance:
		return "Instance Error"
	case CategoryTarget:
		return "Target Error"
	case CategoryMultiplicity:
		return "Multiplicity Error"
	case CategoryCrossBoundary:
		return "Cross-Boundary Error"
	case CategoryFilter:
		return "Filter Error"
	default:
		return "Resolution Error"
	}
}

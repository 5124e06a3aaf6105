// Package diagnostics provides structured error reporting for multicast
// annotation resolution. It defines the PS00xx error codes, their categories,
// and formatting for both terminal output and machine-parseable JSON.
package diagnostics

import "fmt"

// Code represents a unique diagnostic code
type Code string

// Category represents the category of a diagnostic
type Category string

const (
	// CategoryUsage represents usage contract errors on annotation types
	CategoryUsage Category = "usage"
	// CategoryInstance represents errors in the properties of one annotation instance
	CategoryInstance Category = "instance"
	// CategoryTarget represents errors binding an instance to a declaration
	CategoryTarget Category = "target"
	// CategoryMultiplicity represents multiple-instance violations
	CategoryMultiplicity Category = "multiplicity"
	// CategoryCrossBoundary represents errors crossing module or assembly boundaries
	CategoryCrossBoundary Category = "cross_boundary"
	// CategoryFilter represents invalid name filters
	CategoryFilter Category = "filter"
)

// Severity indicates the severity level of a diagnostic
type Severity string

const (
	// SeverityError indicates an error that fails the resolution
	SeverityError Severity = "error"
	// SeverityWarning indicates a suspicious but accepted construct
	SeverityWarning Severity = "warning"
	// SeverityInfo indicates informational messages
	SeverityInfo Severity = "info"
)

// Diagnostic is a structured message reported during resolution
type Diagnostic struct {
	// Code is the unique code (e.g., "PS0051")
	Code Code `json:"code"`
	// Type is a machine-readable identifier
	Type string `json:"type"`
	// Category is the diagnostic category
	Category Category `json:"category"`
	// Severity is the severity level
	Severity Severity `json:"severity"`
	// Message is the primary message
	Message string `json:"message"`
	// Fatal marks diagnostics that abort processing of their annotation type immediately
	Fatal bool `json:"fatal,omitempty"`
	// AnnotationType is the full name of the annotation type involved
	AnnotationType string `json:"annotation_type,omitempty"`
	// Declaration is the stable id of the declaration involved
	Declaration string `json:"declaration,omitempty"`
	// Property names the annotation property at fault (optional)
	Property string `json:"property,omitempty"`
	// Expected describes what was expected (optional)
	Expected string `json:"expected,omitempty"`
	// Actual describes what was actually found (optional)
	Actual string `json:"actual,omitempty"`
	// Suggestion provides a hint for fixing the problem (optional)
	Suggestion string `json:"suggestion,omitempty"`
	// Documentation is a URL to detailed documentation
	Documentation string `json:"documentation,omitempty"`
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	return FormatCompact(d)
}

// Format returns a human-readable message for terminal output
func (d *Diagnostic) Format() string {
	return FormatDiagnostic(d)
}

// WithAnnotationType sets the annotation type involved
func (d *Diagnostic) WithAnnotationType(name string) *Diagnostic {
	d.AnnotationType = name
	return d
}

// WithDeclaration sets the declaration involved
func (d *Diagnostic) WithDeclaration(id string) *Diagnostic {
	d.Declaration = id
	return d
}

// WithProperty sets the annotation property at fault
func (d *Diagnostic) WithProperty(name string) *Diagnostic {
	d.Property = name
	return d
}

// WithExpected sets the expected value
func (d *Diagnostic) WithExpected(expected string) *Diagnostic {
	d.Expected = expected
	return d
}

// WithActual sets the actual value
func (d *Diagnostic) WithActual(actual string) *Diagnostic {
	d.Actual = actual
	return d
}

// WithSuggestion sets a suggestion for fixing the problem
func (d *Diagnostic) WithSuggestion(suggestion string) *Diagnostic {
	d.Suggestion = suggestion
	return d
}

// List is a collection of diagnostics
type List []*Diagnostic

// Error implements the error interface
func (l List) Error() string {
	if len(l) == 0 {
		return "no errors"
	}
	return FormatList(l)
}

// HasErrors returns true if the list contains any errors (excludes warnings/info)
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if the list contains any warnings
func (l List) HasWarnings() bool {
	for _, d := range l {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of diagnostics by severity
func (l List) ErrorCount() (errors, warnings, info int) {
	for _, d := range l {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		case SeverityInfo:
			info++
		}
	}
	return
}

// WithCode returns the diagnostics carrying the given code
func (l List) WithCode(code Code) List {
	var out List
	for _, d := range l {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// documentationURL returns the documentation URL for a code
func documentationURL(code Code) string {
	return fmt.Sprintf("https://doc.postsharp.net/messages/%s", code)
}

// newDiagnostic creates a new Diagnostic with the given parameters
func newDiagnostic(
	code Code,
	typ string,
	category Category,
	severity Severity,
	message string,
) *Diagnostic {
	return &Diagnostic{
		Code:          code,
		Type:          typ,
		Category:      category,
		Severity:      severity,
		Message:       message,
		Documentation: documentationURL(code),
	}
}

package diagnostics

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeUniqueness(t *testing.T) {
	codes := []Code{
		ErrMissingUsage, ErrDuplicateUsage, ErrUsageTargetsWidened,
		ErrUsageInheritanceRedefined, ErrUsageMultipleWidened, ErrUsageExternalWidened,
		ErrInstanceOutsideUsage, ErrInvalidNameFilter, ErrExternalAssembliesNotAllowed,
		ErrInstanceInheritanceOverride, ErrInvalidTargetKind, ErrTargetAttributesMismatch,
		ErrMultipleInstances, ErrExternalMethodParameter,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate diagnostic code %s", code)
		}
		seen[code] = true
		if !strings.HasPrefix(string(code), "PS0") || len(code) != 6 {
			t.Errorf("Code %s does not follow the PS0xxx format", code)
		}
	}
}

func TestMissingUsageIsFatal(t *testing.T) {
	d := NewMissingUsage("Acme.TraceAttribute")

	assert.Equal(t, ErrMissingUsage, d.Code)
	assert.Equal(t, CategoryUsage, d.Category)
	assert.Equal(t, SeverityError, d.Severity)
	assert.True(t, d.Fatal)
	assert.Equal(t, "Acme.TraceAttribute", d.AnnotationType)
	assert.Contains(t, d.Documentation, "PS0051")
}

func TestDiagnosticJSON(t *testing.T) {
	d := NewInstanceOutsideUsage("Acme.Log", "M:Acme.Base.Run()", "AttributeTargetElements", "Method", "Method, Field")

	out, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "PS0090", decoded["code"])
	assert.Equal(t, "instance", decoded["category"])
	assert.Equal(t, "AttributeTargetElements", decoded["property"])
	assert.Equal(t, "M:Acme.Base.Run()", decoded["declaration"])
}

func TestFormatDiagnostic(t *testing.T) {
	d := NewMultipleInstances("Acme.Cache", "M:Acme.Repo.Get()", 2)
	out := d.Format()

	assert.Contains(t, out, "Multiplicity Error PS0065")
	assert.Contains(t, out, "On M:Acme.Repo.Get():")
	assert.Contains(t, out, "2 instances")
	assert.Contains(t, out, "💡")
	assert.Contains(t, out, "Learn more:")
}

func TestFormatCompact(t *testing.T) {
	d := NewMissingUsage("Acme.Trace")
	assert.Equal(t,
		"Acme.Trace: error: The annotation type 'Acme.Trace' has no usage declaration on any level of its inheritance chain [PS0051]",
		FormatCompact(d))

	d = NewInvalidTargetKind("Acme.Trace", "F:Acme.Base.count", "field", "Method")
	assert.True(t, strings.HasPrefix(d.Error(), "F:Acme.Base.count: error:"))
}

func TestListCounts(t *testing.T) {
	warning := NewDuplicateUsage("Acme.A", 2)
	warning.Severity = SeverityWarning

	l := List{
		NewMissingUsage("Acme.B"),
		warning,
		NewMultipleInstances("Acme.C", "T:Acme.X", 3),
	}

	errs, warns, infos := l.ErrorCount()
	assert.Equal(t, 2, errs)
	assert.Equal(t, 1, warns)
	assert.Equal(t, 0, infos)
	assert.True(t, l.HasErrors())
	assert.True(t, l.HasWarnings())
	assert.Len(t, l.WithCode(ErrMultipleInstances), 1)
	assert.Contains(t, l.Error(), "Resolution failed with 2 error(s), 1 warning(s), 0 info")

	assert.False(t, List{}.HasErrors())
	assert.Equal(t, "no errors", List{}.Error())
}

func TestCollectorCheckpoint(t *testing.T) {
	var forwarded []Code
	c := NewCollector(SinkFunc(func(d *Diagnostic) {
		forwarded = append(forwarded, d.Code)
	}))

	require.NoError(t, c.Checkpoint("discovery"))

	c.Report(NewUsageTargetsWidened("Acme.Derived", "Method", "Method, Field"))
	err := c.Checkpoint("discovery")
	require.Error(t, err)

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "discovery", fatal.Stage)
	assert.Len(t, fatal.Diagnostics, 1)
	assert.Equal(t, []Code{ErrUsageTargetsWidened}, forwarded)
	assert.Equal(t, "discovery: 1 error(s) reported", err.Error())
}

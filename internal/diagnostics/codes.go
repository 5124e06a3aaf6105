package diagnostics

import "fmt"

// Usage contract codes
const (
	// ErrMissingUsage indicates no level of an annotation type's chain declares a usage
	ErrMissingUsage Code = "PS0051"
	// ErrDuplicateUsage indicates one annotation type declares more than one usage
	ErrDuplicateUsage Code = "PS0071"
	// ErrUsageTargetsWidened indicates a derived usage widens the valid target mask
	ErrUsageTargetsWidened Code = "PS0072"
	// ErrUsageInheritanceRedefined indicates the inheritance mode is set on more than one level
	ErrUsageInheritanceRedefined Code = "PS0103"
	// ErrUsageMultipleWidened indicates a derived usage re-allows multiple instances
	ErrUsageMultipleWidened Code = "PS0104"
	// ErrUsageExternalWidened indicates a derived usage re-allows external assemblies
	ErrUsageExternalWidened Code = "PS0105"
)

// Instance codes
const (
	// ErrInstanceOutsideUsage indicates an instance property exceeds its usage contract
	ErrInstanceOutsideUsage Code = "PS0090"
	// ErrInvalidNameFilter indicates a name filter cannot be compiled
	ErrInvalidNameFilter Code = "PS0091"
	// ErrExternalAssembliesNotAllowed indicates an instance targets external assemblies without permission
	ErrExternalAssembliesNotAllowed Code = "PS0106"
	// ErrInstanceInheritanceOverride indicates an instance overrides an inheritance fixed by its usage
	ErrInstanceInheritanceOverride Code = "PS0108"
)

// Target codes
const (
	// ErrInvalidTargetKind indicates an instance was applied to an unsupported declaration kind
	ErrInvalidTargetKind Code = "PS0054"
	// ErrTargetAttributesMismatch indicates a declaration does not match the target attribute masks
	ErrTargetAttributesMismatch Code = "PS0055"
	// ErrMultipleInstances indicates a single-instance annotation type was bound more than once
	ErrMultipleInstances Code = "PS0065"
	// ErrExternalMethodParameter indicates parameters of a method outside the module were targeted
	ErrExternalMethodParameter Code = "PS0093"
)

// NewMissingUsage creates a PS0051 error. It is fatal for the annotation type.
func NewMissingUsage(annotationType string) *Diagnostic {
	d := newDiagnostic(
		ErrMissingUsage,
		"missing_usage",
		CategoryUsage,
		SeverityError,
		fmt.Sprintf("The annotation type '%s' has no usage declaration on any level of its inheritance chain", annotationType),
	).WithAnnotationType(annotationType).
		WithSuggestion("Add a MulticastAttributeUsage declaration to the annotation type or one of its base classes")
	d.Fatal = true
	return d
}

// NewDuplicateUsage creates a PS0071 error
func NewDuplicateUsage(annotationType string, count int) *Diagnostic {
	return newDiagnostic(
		ErrDuplicateUsage,
		"duplicate_usage",
		CategoryUsage,
		SeverityError,
		fmt.Sprintf("The type '%s' declares %d usage declarations; at most one is allowed", annotationType, count),
	).WithAnnotationType(annotationType)
}

// NewUsageTargetsWidened creates a PS0072 error
func NewUsageTargetsWidened(annotationType, inherited, declared string) *Diagnostic {
	return newDiagnostic(
		ErrUsageTargetsWidened,
		"usage_targets_widened",
		CategoryUsage,
		SeverityError,
		fmt.Sprintf("The usage of '%s' allows targets that its base usage does not allow", annotationType),
	).WithAnnotationType(annotationType).
		WithExpected(fmt.Sprintf("a subset of %s", inherited)).
		WithActual(declared).
		WithSuggestion("A derived annotation type may only narrow the valid targets")
}

// NewUsageInheritanceRedefined creates a PS0103 error
func NewUsageInheritanceRedefined(annotationType string) *Diagnostic {
	return newDiagnostic(
		ErrUsageInheritanceRedefined,
		"usage_inheritance_redefined",
		CategoryUsage,
		SeverityError,
		fmt.Sprintf("The inheritance mode of '%s' is already set by a base usage declaration", annotationType),
	).WithAnnotationType(annotationType).
		WithProperty("Inheritance")
}

// NewUsageMultipleWidened creates a PS0104 error
func NewUsageMultipleWidened(annotationType string) *Diagnostic {
	return newDiagnostic(
		ErrUsageMultipleWidened,
		"usage_multiple_widened",
		CategoryUsage,
		SeverityError,
		fmt.Sprintf("The usage of '%s' allows multiple instances but its base usage does not", annotationType),
	).WithAnnotationType(annotationType).
		WithProperty("AllowMultiple")
}

// NewUsageExternalWidened creates a PS0105 error
func NewUsageExternalWidened(annotationType string) *Diagnostic {
	return newDiagnostic(
		ErrUsageExternalWidened,
		"usage_external_widened",
		CategoryUsage,
		SeverityError,
		fmt.Sprintf("The usage of '%s' allows external assemblies but its base usage does not", annotationType),
	).WithAnnotationType(annotationType).
		WithProperty("AllowExternalAssemblies")
}

// NewInstanceOutsideUsage creates a PS0090 error for one violated property
func NewInstanceOutsideUsage(annotationType, declaration, property, allowed, actual string) *Diagnostic {
	return newDiagnostic(
		ErrInstanceOutsideUsage,
		"instance_outside_usage",
		CategoryInstance,
		SeverityError,
		fmt.Sprintf("The value of %s on '%s' is not allowed by the usage of the annotation type", property, annotationType),
	).WithAnnotationType(annotationType).
		WithDeclaration(declaration).
		WithProperty(property).
		WithExpected(allowed).
		WithActual(actual)
}

// NewInvalidNameFilter creates a PS0091 error
func NewInvalidNameFilter(annotationType, declaration, property, pattern string, cause error) *Diagnostic {
	return newDiagnostic(
		ErrInvalidNameFilter,
		"invalid_name_filter",
		CategoryFilter,
		SeverityError,
		fmt.Sprintf("Invalid name filter %q in %s: %v", pattern, property, cause),
	).WithAnnotationType(annotationType).
		WithDeclaration(declaration).
		WithProperty(property).
		WithSuggestion("Use a wildcard expression, or prefix a regular expression with 'regex:'")
}

// NewExternalAssembliesNotAllowed creates a PS0106 error
func NewExternalAssembliesNotAllowed(annotationType, declaration string) *Diagnostic {
	return newDiagnostic(
		ErrExternalAssembliesNotAllowed,
		"external_assemblies_not_allowed",
		CategoryInstance,
		SeverityError,
		fmt.Sprintf("'%s' targets external assemblies but its usage does not allow external assemblies", annotationType),
	).WithAnnotationType(annotationType).
		WithDeclaration(declaration).
		WithProperty("AttributeTargetAssemblies")
}

// NewInstanceInheritanceOverride creates a PS0108 error
func NewInstanceInheritanceOverride(annotationType, declaration string) *Diagnostic {
	return newDiagnostic(
		ErrInstanceInheritanceOverride,
		"instance_inheritance_override",
		CategoryInstance,
		SeverityError,
		fmt.Sprintf("AttributeInheritance cannot be set on '%s' because its usage already fixes the inheritance mode", annotationType),
	).WithAnnotationType(annotationType).
		WithDeclaration(declaration).
		WithProperty("AttributeInheritance")
}

// NewInvalidTargetKind creates a PS0054 error
func NewInvalidTargetKind(annotationType, declaration, kind, allowed string) *Diagnostic {
	return newDiagnostic(
		ErrInvalidTargetKind,
		"invalid_target_kind",
		CategoryTarget,
		SeverityError,
		fmt.Sprintf("'%s' cannot be applied to %s '%s'", annotationType, kind, declaration),
	).WithAnnotationType(annotationType).
		WithDeclaration(declaration).
		WithExpected(allowed).
		WithActual(kind)
}

// NewTargetAttributesMismatch creates a PS0055 error
func NewTargetAttributesMismatch(annotationType, declaration, property, mask string) *Diagnostic {
	return newDiagnostic(
		ErrTargetAttributesMismatch,
		"target_attributes_mismatch",
		CategoryTarget,
		SeverityError,
		fmt.Sprintf("'%s' cannot be applied to '%s' because the declaration does not match %s", annotationType, declaration, property),
	).WithAnnotationType(annotationType).
		WithDeclaration(declaration).
		WithProperty(property).
		WithExpected(mask)
}

// NewMultipleInstances creates a PS0065 error
func NewMultipleInstances(annotationType, declaration string, count int) *Diagnostic {
	return newDiagnostic(
		ErrMultipleInstances,
		"multiple_instances",
		CategoryMultiplicity,
		SeverityError,
		fmt.Sprintf("'%s' does not allow multiple instances but %d instances apply to '%s'", annotationType, count, declaration),
	).WithAnnotationType(annotationType).
		WithDeclaration(declaration).
		WithSuggestion("Set AllowMultiple on the usage, use AttributeReplace, or give the instances distinct priorities")
}

// NewExternalMethodParameter creates a PS0093 error
func NewExternalMethodParameter(annotationType, method string) *Diagnostic {
	return newDiagnostic(
		ErrExternalMethodParameter,
		"external_method_parameter",
		CategoryCrossBoundary,
		SeverityError,
		fmt.Sprintf("'%s' cannot target parameters or return values of '%s' because the method is not defined in the current module", annotationType, method),
	).WithAnnotationType(annotationType).
		WithDeclaration(method)
}

// Package codemodel is the in-memory declaration graph of compiled modules:
// assemblies, modules, types, members, parameters and the custom attributes
// attached to them. The multicast engine consumes it through the Declaration
// variant and mutates it only by adding and removing custom attributes.
package codemodel

// Kind discriminates the Declaration variant
type Kind int

const (
	KindAssembly Kind = iota
	KindModule
	KindType
	KindMethod
	KindField
	KindProperty
	KindEvent
	KindParameter
	KindReturnValue
)

var kindNames = map[Kind]string{
	KindAssembly:    "assembly",
	KindModule:      "module",
	KindType:        "type",
	KindMethod:      "method",
	KindField:       "field",
	KindProperty:    "property",
	KindEvent:       "event",
	KindParameter:   "parameter",
	KindReturnValue: "return value",
}

// String returns the lower-case display name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// TypeKind is the flavor of a type definition
type TypeKind int

const (
	TypeKindClass TypeKind = iota
	TypeKindStruct
	TypeKindEnum
	TypeKindDelegate
	TypeKindInterface
)

var typeKindNames = []string{"class", "struct", "enum", "delegate", "interface"}

// String returns the keyword of the type kind
func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// ParseTypeKind converts a keyword to a TypeKind
func ParseTypeKind(s string) (TypeKind, bool) {
	for i, name := range typeKindNames {
		if name == s {
			return TypeKind(i), true
		}
	}
	return TypeKindClass, false
}

// Visibility is the accessibility of a type or member
type Visibility int

const (
	VisibilityPrivate Visibility = iota
	VisibilityPrivateProtected
	VisibilityInternal
	VisibilityProtected
	VisibilityProtectedInternal
	VisibilityPublic
)

var visibilityNames = []string{"private", "private protected", "internal", "protected", "protected internal", "public"}

// String returns the C#-style modifier of the visibility
func (v Visibility) String() string {
	if int(v) < len(visibilityNames) {
		return visibilityNames[v]
	}
	return "unknown"
}

// ParseVisibility converts a modifier to a Visibility
func ParseVisibility(s string) (Visibility, bool) {
	for i, name := range visibilityNames {
		if name == s {
			return Visibility(i), true
		}
	}
	switch s {
	case "family":
		return VisibilityProtected, true
	case "assembly":
		return VisibilityInternal, true
	case "famandassem":
		return VisibilityPrivateProtected, true
	case "famorassem":
		return VisibilityProtectedInternal, true
	}
	return VisibilityPrivate, false
}

// MethodKind distinguishes constructors from ordinary methods
type MethodKind int

const (
	MethodKindOrdinary MethodKind = iota
	MethodKindInstanceConstructor
	MethodKindStaticConstructor
)

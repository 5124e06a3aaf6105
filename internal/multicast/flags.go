package multicast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
)

// Targets is the set of declaration kinds an annotation may be multicast to
type Targets uint32

const (
	TargetClass Targets = 1 << iota
	TargetStruct
	TargetEnum
	TargetDelegate
	TargetInterface
	TargetField
	TargetMethod
	TargetInstanceConstructor
	TargetStaticConstructor
	TargetProperty
	TargetEvent
	TargetParameter
	TargetReturnValue
	TargetAssembly

	TargetsNone    Targets = 0
	TargetsAll     Targets = 1<<14 - 1
	TargetsTypes           = TargetClass | TargetStruct | TargetEnum | TargetDelegate | TargetInterface
	TargetsMethods         = TargetMethod | TargetInstanceConstructor | TargetStaticConstructor
	TargetsMembers         = TargetField | TargetsMethods | TargetProperty | TargetEvent
	TargetsParameterLevel  = TargetParameter | TargetReturnValue
)

var targetNames = []struct {
	name  string
	value Targets
}{
	{"All", TargetsAll},
	{"Types", TargetsTypes},
	{"Class", TargetClass},
	{"Struct", TargetStruct},
	{"Enum", TargetEnum},
	{"Delegate", TargetDelegate},
	{"Interface", TargetInterface},
	{"Field", TargetField},
	{"Method", TargetMethod},
	{"InstanceConstructor", TargetInstanceConstructor},
	{"StaticConstructor", TargetStaticConstructor},
	{"Property", TargetProperty},
	{"Event", TargetEvent},
	{"Parameter", TargetParameter},
	{"ReturnValue", TargetReturnValue},
	{"Assembly", TargetAssembly},
}

// Has reports whether any bit of o is set in t
func (t Targets) Has(o Targets) bool { return t&o != 0 }

// String renders the set as '|'-separated names
func (t Targets) String() string {
	if t == TargetsNone {
		return "None"
	}
	if t == TargetsAll {
		return "All"
	}
	var parts []string
	for _, n := range targetNames[2:] {
		if t&n.value != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseTargets parses '|'- or ','-separated names or an integer
func ParseTargets(s string) (Targets, error) {
	v, err := parseFlags(s, func(name string) (uint32, bool) {
		for _, n := range targetNames {
			if strings.EqualFold(n.name, name) {
				return uint32(n.value), true
			}
		}
		return 0, false
	})
	return Targets(v), err
}

// Attributes is a set of structural characteristics grouped in independent
// sub-masks: visibility, scope, abstraction, virtuality, implementation,
// literality, generation and parameter direction
type Attributes uint32

const (
	AttrDefault              Attributes = 0
	AttrPrivate              Attributes = 2
	AttrProtected            Attributes = 4
	AttrInternal             Attributes = 8
	AttrInternalAndProtected Attributes = 16
	AttrInternalOrProtected  Attributes = 32
	AttrPublic               Attributes = 64
	AnyVisibility            Attributes = 126
	AttrStatic               Attributes = 128
	AttrInstance             Attributes = 256
	AnyScope                 Attributes = 384
	AttrAbstract             Attributes = 512
	AttrNonAbstract          Attributes = 1024
	AnyAbstraction           Attributes = 1536
	AttrVirtual              Attributes = 2048
	AttrNonVirtual           Attributes = 4096
	AnyVirtuality            Attributes = 6144
	AttrManaged              Attributes = 8192
	AttrNonManaged           Attributes = 16384
	AnyImplementation        Attributes = 24576
	AttrLiteral              Attributes = 32768
	AttrNonLiteral           Attributes = 65536
	AnyLiterality            Attributes = 98304
	AttrCompilerGenerated    Attributes = 131072
	AttrUserGenerated        Attributes = 262144
	AnyGeneration            Attributes = 393216
	AttrInParameter          Attributes = 524288
	AttrOutParameter         Attributes = 1048576
	AttrRefParameter         Attributes = 2097152
	AnyParameter             Attributes = 3670016
	AttrAll                  Attributes = 4194302
)

// attributeGroups lists the sub-masks in a fixed order
var attributeGroups = []Attributes{
	AnyVisibility, AnyScope, AnyAbstraction, AnyVirtuality,
	AnyImplementation, AnyLiterality, AnyGeneration, AnyParameter,
}

var attributeNames = []struct {
	name  string
	value Attributes
}{
	{"All", AttrAll},
	{"AnyVisibility", AnyVisibility},
	{"AnyScope", AnyScope},
	{"AnyAbstraction", AnyAbstraction},
	{"AnyVirtuality", AnyVirtuality},
	{"AnyImplementation", AnyImplementation},
	{"AnyLiterality", AnyLiterality},
	{"AnyGeneration", AnyGeneration},
	{"AnyParameter", AnyParameter},
	{"Private", AttrPrivate},
	{"Protected", AttrProtected},
	{"Internal", AttrInternal},
	{"InternalAndProtected", AttrInternalAndProtected},
	{"InternalOrProtected", AttrInternalOrProtected},
	{"Public", AttrPublic},
	{"Static", AttrStatic},
	{"Instance", AttrInstance},
	{"Abstract", AttrAbstract},
	{"NonAbstract", AttrNonAbstract},
	{"Virtual", AttrVirtual},
	{"NonVirtual", AttrNonVirtual},
	{"Managed", AttrManaged},
	{"NonManaged", AttrNonManaged},
	{"Literal", AttrLiteral},
	{"NonLiteral", AttrNonLiteral},
	{"CompilerGenerated", AttrCompilerGenerated},
	{"UserGenerated", AttrUserGenerated},
	{"InParameter", AttrInParameter},
	{"OutParameter", AttrOutParameter},
	{"RefParameter", AttrRefParameter},
}

// MergeUnset fills every sub-mask with no bit set in a from parent
func (a Attributes) MergeUnset(parent Attributes) Attributes {
	out := a
	for _, g := range attributeGroups {
		if a&g == 0 {
			out |= parent & g
		}
	}
	return out
}

// Complete fills every sub-mask with no bit set with all of its bits
func (a Attributes) Complete() Attributes {
	return a.MergeUnset(AttrAll)
}

// Exceeding returns the bits of a, in groups a sets, that allowed does not allow
func (a Attributes) Exceeding(allowed Attributes) Attributes {
	var out Attributes
	for _, g := range attributeGroups {
		if a&g == 0 {
			continue
		}
		allowedGroup := allowed & g
		if allowedGroup == 0 {
			allowedGroup = g
		}
		out |= a & g &^ allowedGroup
	}
	return out
}

// String renders the set as '|'-separated names
func (a Attributes) String() string {
	if a == AttrDefault {
		return "Default"
	}
	if a == AttrAll {
		return "All"
	}
	var parts []string
	for _, g := range attributeGroups {
		if a&g == g {
			for _, n := range attributeNames[1:9] {
				if n.value == g {
					parts = append(parts, n.name)
				}
			}
			continue
		}
		for _, n := range attributeNames[9:] {
			if n.value&g != 0 && a&n.value != 0 {
				parts = append(parts, n.name)
			}
		}
	}
	return strings.Join(parts, "|")
}

// ParseAttributes parses '|'- or ','-separated names or an integer
func ParseAttributes(s string) (Attributes, error) {
	v, err := parseFlags(s, func(name string) (uint32, bool) {
		for _, n := range attributeNames {
			if strings.EqualFold(n.name, name) {
				return uint32(n.value), true
			}
		}
		if strings.EqualFold(name, "Default") {
			return 0, true
		}
		return 0, false
	})
	return Attributes(v), err
}

// Inheritance controls propagation of an instance to derived declarations
type Inheritance int

const (
	// InheritanceNone does not propagate
	InheritanceNone Inheritance = iota
	// InheritanceStrict propagates to declarations of the same kind only
	InheritanceStrict
	// InheritanceMulticast propagates and multicasts again at the derived declaration
	InheritanceMulticast
)

// String returns the name of the mode
func (i Inheritance) String() string {
	switch i {
	case InheritanceStrict:
		return "Strict"
	case InheritanceMulticast:
		return "Multicast"
	}
	return "None"
}

// ParseInheritance parses a mode name or integer
func ParseInheritance(s string) (Inheritance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "0":
		return InheritanceNone, nil
	case "strict", "1":
		return InheritanceStrict, nil
	case "multicast", "2":
		return InheritanceMulticast, nil
	}
	return InheritanceNone, fmt.Errorf("unknown inheritance mode %q", s)
}

// minInheritance returns the more restrictive of two modes
func minInheritance(a, b Inheritance) Inheritance {
	if a < b {
		return a
	}
	return b
}

func parseFlags(s string, lookup func(string) (uint32, bool)) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(n), nil
	}
	var out uint32
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		v, ok := lookup(strings.TrimSpace(part))
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", strings.TrimSpace(part))
		}
		out |= v
	}
	return out, nil
}

// flagValue reads an integer or flag-name argument value
func flagValue(v codemodel.Value, parse func(string) (uint32, error)) (uint32, error) {
	switch v.Kind {
	case codemodel.ValueInt:
		return uint32(v.Int), nil
	case codemodel.ValueString:
		return parse(v.Str)
	case codemodel.ValueNull:
		return 0, nil
	}
	return 0, fmt.Errorf("expected an enumeration value, got %s", v)
}

func targetsValue(v codemodel.Value) (Targets, error) {
	n, err := flagValue(v, func(s string) (uint32, error) {
		t, err := ParseTargets(s)
		return uint32(t), err
	})
	return Targets(n), err
}

func attributesValue(v codemodel.Value) (Attributes, error) {
	n, err := flagValue(v, func(s string) (uint32, error) {
		a, err := ParseAttributes(s)
		return uint32(a), err
	})
	return Attributes(n), err
}

func inheritanceValue(v codemodel.Value) (Inheritance, error) {
	switch v.Kind {
	case codemodel.ValueInt:
		if v.Int < 0 || v.Int > int64(InheritanceMulticast) {
			return InheritanceNone, fmt.Errorf("unknown inheritance mode %d", v.Int)
		}
		return Inheritance(v.Int), nil
	case codemodel.ValueString:
		return ParseInheritance(v.Str)
	}
	return InheritanceNone, fmt.Errorf("expected an inheritance mode, got %s", v)
}

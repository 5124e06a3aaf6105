package multicast

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
)

// InstanceInfo is an annotation instance with its multicast properties
// validated against the usage contract of its type
type InstanceInfo struct {
	ID         int64
	Annotation *codemodel.Annotation
	Type       *codemodel.Type
	Usage      *Usage
	// DeclaredOn is the declaration the raw instance was attached to
	DeclaredOn codemodel.Declaration

	TargetElements      Targets
	TypeAttributes      Attributes
	MemberAttributes    Attributes
	ParameterAttributes Attributes

	AssemblyFilter  *NameFilter
	TypeFilter      *NameFilter
	MemberFilter    *NameFilter
	ParameterFilter *NameFilter

	ExplicitPriority int64
	Priority         int64
	Exclude          bool
	Replace          bool
	Inheritance      Inheritance
	// Inherited is set on clones propagated along inheritance or imported
	// from referenced assemblies
	Inherited bool

	// applied is shared by an instance and all of its clones
	applied map[codemodel.Declaration]bool
}

// markApplied records d and reports whether it was new
func (i *InstanceInfo) markApplied(d codemodel.Declaration) bool {
	if i.applied[d] {
		return false
	}
	i.applied[d] = true
	return true
}

// inheritedClone returns the instance as propagated to a derived declaration
func (i *InstanceInfo) inheritedClone() *InstanceInfo {
	if i.Inherited {
		return i
	}
	c := *i
	c.Inherited = true
	c.Priority = computePriority(i.ExplicitPriority, i.DeclaredOn, true)
	return &c
}

// structuralRank orders declaring kinds from the least to the most specific
func structuralRank(d codemodel.Declaration) int64 {
	switch d.Kind() {
	case codemodel.KindAssembly, codemodel.KindModule:
		return 0
	case codemodel.KindType:
		return 1
	case codemodel.KindProperty, codemodel.KindEvent:
		return 2
	}
	return 3
}

// computePriority combines the explicit priority with the structural rank of
// the declaring element. Direct instances sort after inherited ones of the
// same rank.
func computePriority(explicit int64, declaredOn codemodel.Declaration, inherited bool) int64 {
	p := explicit<<16 + structuralRank(declaredOn)<<8
	if !inherited {
		p++
	}
	return p
}

// moduleSeed derives the high bits of generated instance ids from the module
// identity so ids stay distinct across assemblies
func moduleSeed(m *codemodel.Module) int64 {
	name := m.Name()
	if asm := m.Assembly(); asm != nil {
		name = asm.Name() + "/" + name
	}
	sum := sha256.Sum256([]byte(name))
	return int64(binary.BigEndian.Uint32(sum[:4])&0x7fffffff) << 32
}

func (e *Engine) nextID() int64 {
	e.idCounter++
	return e.seed | e.idCounter
}

// buildInstanceInfo validates a raw or imported instance against its usage.
// Validation errors are reported for raw instances only; imported instances
// were validated when their own module was resolved.
func (e *Engine) buildInstanceInfo(a *codemodel.Annotation, usage *Usage, declaredOn codemodel.Declaration, imported bool) (*InstanceInfo, bool) {
	info := &InstanceInfo{
		Annotation:  a,
		Type:        a.Type,
		Usage:       usage,
		DeclaredOn:  declaredOn,
		Inherited:   imported,
		Inheritance: usage.Inheritance,
		applied:     make(map[codemodel.Declaration]bool),
	}

	typeName := a.Type.Name()
	declID := declaredOn.ID()
	failed := false
	fail := func(d *diagnostics.Diagnostic) {
		failed = true
		if !imported {
			e.report(d)
		}
	}

	// Target elements
	info.TargetElements = usage.ValidOn
	if arg, ok := a.Get(PropTargetElements); ok {
		v, err := targetsValue(arg)
		switch {
		case err != nil:
			fail(diagnostics.NewInstanceOutsideUsage(typeName, declID, PropTargetElements, usage.ValidOn.String(), arg.String()))
		case v&^usage.ValidOn != 0:
			fail(diagnostics.NewInstanceOutsideUsage(typeName, declID, PropTargetElements, usage.ValidOn.String(), v.String()))
		case v != TargetsNone:
			info.TargetElements = v
		}
	}

	// Structural attribute masks
	for _, p := range []struct {
		name    string
		allowed Attributes
		dst     *Attributes
	}{
		{PropTargetTypeAttributes, usage.TypeAttributes, &info.TypeAttributes},
		{PropTargetMemberAttributes, usage.MemberAttributes, &info.MemberAttributes},
		{PropTargetParameterAttributes, usage.ParameterAttributes, &info.ParameterAttributes},
	} {
		mask := AttrDefault
		if arg, ok := a.Get(p.name); ok {
			v, err := attributesValue(arg)
			switch {
			case err != nil:
				fail(diagnostics.NewInstanceOutsideUsage(typeName, declID, p.name, p.allowed.Complete().String(), arg.String()))
			case v.Exceeding(p.allowed) != 0:
				fail(diagnostics.NewInstanceOutsideUsage(typeName, declID, p.name, p.allowed.Complete().String(), v.String()))
			default:
				mask = v
			}
		}
		*p.dst = mask.MergeUnset(p.allowed).Complete()
	}

	// Name filters
	for _, p := range []struct {
		name string
		dst  **NameFilter
	}{
		{PropTargetAssemblies, &info.AssemblyFilter},
		{PropTargetTypes, &info.TypeFilter},
		{PropTargetMembers, &info.MemberFilter},
		{PropTargetParameters, &info.ParameterFilter},
	} {
		arg, ok := a.Get(p.name)
		if !ok || arg.Kind != codemodel.ValueString {
			continue
		}
		f, err := CompileNameFilter(arg.Str)
		if err != nil {
			fail(diagnostics.NewInvalidNameFilter(typeName, declID, p.name, arg.Str, err))
			continue
		}
		*p.dst = f
	}
	if info.AssemblyFilter != nil && !usage.AllowExternalAssemblies {
		fail(diagnostics.NewExternalAssembliesNotAllowed(typeName, declID))
	}

	// Ordering directives
	if v, ok := a.Get(PropExclude); ok && v.Kind == codemodel.ValueBool {
		info.Exclude = v.Bool
	}
	if v, ok := a.Get(PropReplace); ok && v.Kind == codemodel.ValueBool {
		info.Replace = v.Bool
	}
	if v, ok := a.Get(PropPriority); ok && v.Kind == codemodel.ValueInt {
		info.ExplicitPriority = v.Int
	}

	// Inheritance
	if arg, ok := a.Get(PropInheritance); ok {
		v, err := inheritanceValue(arg)
		switch {
		case err != nil:
			fail(diagnostics.NewInstanceOutsideUsage(typeName, declID, PropInheritance, usage.Inheritance.String(), arg.String()))
		case usage.InheritanceSet && !imported:
			fail(diagnostics.NewInstanceInheritanceOverride(typeName, declID))
		default:
			info.Inheritance = v
		}
	}

	// Identity
	if v, ok := a.Get(PropID); ok && v.Kind == codemodel.ValueInt {
		info.ID = v.Int
	} else {
		info.ID = e.nextID()
	}

	info.Priority = computePriority(info.ExplicitPriority, declaredOn, info.Inherited)
	return info, !failed
}

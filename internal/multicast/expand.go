package multicast

import (
	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
)

// typeDescendants are the kinds reachable by multicasting from a type
const typeDescendants = TargetsTypes | TargetsMembers | TargetsParameterLevel

// typeTarget returns the target bit matching the kind of t
func typeTarget(t *codemodel.Type) Targets {
	switch t.TypeKind {
	case codemodel.TypeKindStruct:
		return TargetStruct
	case codemodel.TypeKindEnum:
		return TargetEnum
	case codemodel.TypeKindDelegate:
		return TargetDelegate
	case codemodel.TypeKindInterface:
		return TargetInterface
	}
	return TargetClass
}

// methodTarget returns the target bit matching the kind of m
func methodTarget(m *codemodel.Method) Targets {
	switch m.MethodKind() {
	case codemodel.MethodKindInstanceConstructor:
		return TargetInstanceConstructor
	case codemodel.MethodKindStaticConstructor:
		return TargetStaticConstructor
	}
	return TargetMethod
}

// applyDeclared starts the expansion of a raw instance at the declaration it
// is attached to
func (e *Engine) applyDeclared(info *InstanceInfo) {
	switch d := info.DeclaredOn.(type) {
	case *codemodel.Assembly:
		e.applyToAssembly(info, d)
	case *codemodel.Module:
		e.applyToAssembly(info, d.Assembly())
	case *codemodel.Type:
		e.applyToType(info, d, true)
	case *codemodel.Method:
		e.applyToMethod(info, d, true)
	case *codemodel.Field:
		e.applyToField(info, d, true)
	case *codemodel.Property:
		e.applyToProperty(info, d, true)
	case *codemodel.Event:
		e.applyToEvent(info, d, true)
	case *codemodel.Parameter:
		e.applyToParameter(info, d, true)
	case *codemodel.ReturnValue:
		e.applyToReturnValue(info, d, true)
	}
}

// applyToAssembly multicasts an assembly-level instance over the types of the
// module, or over the types referenced from external assemblies when the
// instance names target assemblies
func (e *Engine) applyToAssembly(info *InstanceInfo, asm *codemodel.Assembly) {
	if info.AssemblyFilter != nil {
		e.applyToExternalAssemblies(info, asm)
		return
	}
	if !info.markApplied(asm) {
		return
	}
	if info.TargetElements.Has(TargetAssembly) {
		e.addCandidate(info, asm, false)
	} else if info.Inheritance == InheritanceMulticast {
		e.addCandidate(info, asm, true)
	}
	if !info.TargetElements.Has(typeDescendants) {
		return
	}
	for _, t := range e.module.AllTypes() {
		if info.TypeFilter.Match(t.Name()) {
			e.applyToType(info, t, false)
		}
	}
}

func (e *Engine) applyToExternalAssemblies(info *InstanceInfo, asm *codemodel.Assembly) {
	for _, ref := range asm.References() {
		if !info.AssemblyFilter.Match(ref.Name()) || !info.markApplied(ref) {
			continue
		}
		if info.TargetElements.Has(TargetAssembly) {
			e.addCandidate(info, ref, false)
		}
		if !info.TargetElements.Has(typeDescendants) {
			continue
		}
		for _, t := range e.module.ExternalTypes() {
			if t.Module() == nil || t.Module().Assembly() != ref {
				continue
			}
			if info.TypeFilter.Match(t.Name()) {
				e.applyToType(info, t, false)
			}
		}
	}
}

// applyToType binds info to t when t is targeted, multicasts it over the
// members of t, and propagates it to derived types
func (e *Engine) applyToType(info *InstanceInfo, t *codemodel.Type, direct bool) {
	if !info.markApplied(t) {
		return
	}
	targeted := info.TargetElements.Has(typeTarget(t))
	match := compareTypeAttributes(info.TypeAttributes, t, e.isGenerated(t))

	if direct && !targeted && !info.TargetElements.Has(typeDescendants) {
		e.reportTargetKind(info, t)
		return
	}
	if !match {
		if !direct {
			return
		}
		if !e.canDefer(info, t) {
			e.report(diagnostics.NewTargetAttributesMismatch(info.Type.Name(), t.ID(), PropTargetTypeAttributes, info.TypeAttributes.String()))
			return
		}
		e.addCandidate(info, t, true)
		e.propagateType(info, t)
		return
	}

	if targeted {
		e.addCandidate(info, t, false)
	} else if info.Inheritance == InheritanceMulticast {
		e.addCandidate(info, t, true)
	}

	if !info.Inherited || info.Inheritance == InheritanceMulticast {
		e.expandMembers(info, t)
	}
	e.propagateType(info, t)
}

// expandMembers multicasts info over the members and nested types of t
func (e *Engine) expandMembers(info *InstanceInfo, t *codemodel.Type) {
	mask := info.TargetElements

	if mask.Has(TargetsMethods | TargetsParameterLevel) {
		for _, m := range t.Methods() {
			if info.MemberFilter.Match(m.Name()) {
				e.applyToMethod(info, m, false)
			}
		}
	}
	if mask.Has(TargetField) {
		for _, f := range t.Fields() {
			if info.MemberFilter.Match(f.Name()) {
				e.applyToField(info, f, false)
			}
		}
	}
	if mask.Has(TargetProperty) {
		for _, p := range t.Properties() {
			if info.MemberFilter.Match(p.Name()) {
				e.applyToProperty(info, p, false)
			}
		}
	}
	if mask.Has(TargetEvent) {
		for _, ev := range t.Events() {
			if info.MemberFilter.Match(ev.Name()) {
				e.applyToEvent(info, ev, false)
			}
		}
	}
	for _, n := range t.NestedTypes() {
		if info.TypeFilter.Match(n.Name()) {
			e.applyToType(info, n, false)
		}
	}
}

// enqueueInherited schedules an application along inheritance. Queued
// applications run only once every direct application has been made, so a
// declaration reached both directly and through a base is always bound
// directly.
func (e *Engine) enqueueInherited(fn func()) {
	e.inherited = append(e.inherited, fn)
}

// drainInherited runs the queued applications, including those they queue
func (e *Engine) drainInherited() {
	for len(e.inherited) > 0 {
		fn := e.inherited[0]
		e.inherited = e.inherited[1:]
		fn()
	}
}

// propagateType applies the inherited form of info to every type of the
// module deriving from t
func (e *Engine) propagateType(info *InstanceInfo, t *codemodel.Type) {
	if info.Inheritance == InheritanceNone || !e.isLocal(t) {
		return
	}
	e.ensureHierarchy()
	clone := info.inheritedClone()
	e.enqueueInherited(func() {
		for _, d := range e.index.DerivedTypes(t, true, e.module) {
			e.applyToType(clone, d, false)
		}
	})
}

func (e *Engine) applyToMethod(info *InstanceInfo, m *codemodel.Method, direct bool) {
	if !info.markApplied(m) {
		return
	}
	targeted := info.TargetElements.Has(methodTarget(m))
	match := compareMethodAttributes(info.MemberAttributes, m, e.isGenerated(m))

	if direct && !targeted && !info.TargetElements.Has(TargetsParameterLevel) {
		e.reportTargetKind(info, m)
		return
	}
	if !match {
		if !direct {
			return
		}
		if !e.canDefer(info, m) {
			e.report(diagnostics.NewTargetAttributesMismatch(info.Type.Name(), m.ID(), PropTargetMemberAttributes, info.MemberAttributes.String()))
			return
		}
		e.addCandidate(info, m, true)
		e.propagateMethod(info, m)
		return
	}

	if targeted {
		e.addCandidate(info, m, false)
	} else if info.Inheritance == InheritanceMulticast {
		e.addCandidate(info, m, true)
	}

	if info.TargetElements.Has(TargetsParameterLevel) && (!info.Inherited || info.Inheritance == InheritanceMulticast) {
		e.expandParameters(info, m)
	}
	e.propagateMethod(info, m)
}

// expandParameters multicasts info over the parameters and return value of m
func (e *Engine) expandParameters(info *InstanceInfo, m *codemodel.Method) {
	if !e.isLocal(m) {
		e.report(diagnostics.NewExternalMethodParameter(info.Type.Name(), m.ID()))
		return
	}
	if info.TargetElements.Has(TargetParameter) {
		for _, p := range m.Parameters() {
			if info.ParameterFilter.Match(p.Name()) {
				e.applyToParameter(info, p, false)
			}
		}
	}
	if info.TargetElements.Has(TargetReturnValue) {
		e.applyToReturnValue(info, m.ReturnValue(), false)
	}
}

// propagateMethod applies the inherited form of info to the overrides of m
func (e *Engine) propagateMethod(info *InstanceInfo, m *codemodel.Method) {
	if info.Inheritance == InheritanceNone || !e.isLocal(m) || !overridable(m) {
		return
	}
	clone := info.inheritedClone()
	e.enqueueInherited(func() {
		for _, ov := range e.findOverrides(m) {
			e.applyToMethod(clone, ov, false)
		}
	})
}

func (e *Engine) applyToParameter(info *InstanceInfo, p *codemodel.Parameter, direct bool) {
	if !info.markApplied(p) {
		return
	}
	if !info.TargetElements.Has(TargetParameter) {
		if direct {
			e.reportTargetKind(info, p)
		}
		return
	}
	if !compareParameterAttributes(info.ParameterAttributes, p) {
		if !direct {
			return
		}
		if !e.canDefer(info, p) {
			e.report(diagnostics.NewTargetAttributesMismatch(info.Type.Name(), p.ID(), PropTargetParameterAttributes, info.ParameterAttributes.String()))
			return
		}
		e.addCandidate(info, p, true)
	} else {
		e.addCandidate(info, p, false)
	}

	if info.Inheritance == InheritanceNone || !e.isLocal(p) || !overridable(p.Method()) {
		return
	}
	clone := info.inheritedClone()
	e.enqueueInherited(func() {
		for _, ov := range e.findOverrides(p.Method()) {
			if p.Position() < len(ov.Parameters()) {
				e.applyToParameter(clone, ov.Parameters()[p.Position()], false)
			}
		}
	})
}

func (e *Engine) applyToReturnValue(info *InstanceInfo, r *codemodel.ReturnValue, direct bool) {
	if !info.markApplied(r) {
		return
	}
	if !info.TargetElements.Has(TargetReturnValue) {
		if direct {
			e.reportTargetKind(info, r)
		}
		return
	}
	e.addCandidate(info, r, false)

	if info.Inheritance == InheritanceNone || !e.isLocal(r) || !overridable(r.Method()) {
		return
	}
	clone := info.inheritedClone()
	e.enqueueInherited(func() {
		for _, ov := range e.findOverrides(r.Method()) {
			e.applyToReturnValue(clone, ov.ReturnValue(), false)
		}
	})
}

func (e *Engine) applyToField(info *InstanceInfo, f *codemodel.Field, direct bool) {
	if !info.markApplied(f) {
		return
	}
	if !info.TargetElements.Has(TargetField) {
		if direct {
			e.reportTargetKind(info, f)
		}
		return
	}
	if !compareFieldAttributes(info.MemberAttributes, f, e.isGenerated(f)) {
		if direct {
			e.report(diagnostics.NewTargetAttributesMismatch(info.Type.Name(), f.ID(), PropTargetMemberAttributes, info.MemberAttributes.String()))
		}
		return
	}
	e.addCandidate(info, f, false)
}

func (e *Engine) applyToProperty(info *InstanceInfo, p *codemodel.Property, direct bool) {
	e.applyToSemanticGroup(info, p, TargetProperty, p.Accessors(), direct)
}

func (e *Engine) applyToEvent(info *InstanceInfo, ev *codemodel.Event, direct bool) {
	e.applyToSemanticGroup(info, ev, TargetEvent, ev.Accessors(), direct)
}

// applyToSemanticGroup handles properties and events. An instance declared
// directly on the group is also multicast to its accessors.
func (e *Engine) applyToSemanticGroup(info *InstanceInfo, d codemodel.Declaration, kind Targets, accessors []*codemodel.Method, direct bool) {
	if !info.markApplied(d) {
		return
	}
	targeted := info.TargetElements.Has(kind)
	if direct && !targeted && !info.TargetElements.Has(TargetsMethods|TargetsParameterLevel) {
		e.reportTargetKind(info, d)
		return
	}
	if !compareMethodView(info.MemberAttributes, viewOfAccessors(accessors), e.isGenerated(d)) {
		if direct {
			e.report(diagnostics.NewTargetAttributesMismatch(info.Type.Name(), d.ID(), PropTargetMemberAttributes, info.MemberAttributes.String()))
		}
		return
	}
	if targeted {
		e.addCandidate(info, d, false)
	}
	if direct {
		for _, acc := range accessors {
			e.applyToMethod(info, acc, false)
		}
	}
}

func (e *Engine) reportTargetKind(info *InstanceInfo, d codemodel.Declaration) {
	e.report(diagnostics.NewInvalidTargetKind(info.Type.Name(), d.ID(), d.Kind().String(), info.TargetElements.String()))
}

// canDefer reports whether a directly applied instance that does not match
// its declaration can still reach derived declarations
func (e *Engine) canDefer(info *InstanceInfo, d codemodel.Declaration) bool {
	if info.Inheritance == InheritanceNone {
		return false
	}
	switch d := d.(type) {
	case *codemodel.Type:
		return !d.Sealed
	case *codemodel.Method:
		return overridable(d)
	case *codemodel.Parameter:
		return overridable(d.Method())
	}
	return false
}

func overridable(m *codemodel.Method) bool {
	if m == nil || m.Static {
		return false
	}
	if t := m.DeclaringType(); t != nil && t.TypeKind == codemodel.TypeKindInterface {
		return true
	}
	return m.IsOverridable()
}

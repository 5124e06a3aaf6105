package multicast

import (
	"go.uber.org/zap"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/hierarchy"
)

// propagateAcrossAssemblies imports the inheritable instances recorded by
// referenced assemblies: manifest instances are multicast again over the
// current assembly, and instances on external types and methods are applied
// to the local declarations deriving from them
func (e *Engine) propagateAcrossAssemblies() {
	asm := e.module.Assembly()
	if asm == nil {
		return
	}

	for _, ref := range asm.References() {
		if !codemodel.HasAttribute(ref, HasInheritedAttributeName) {
			continue
		}
		for _, a := range e.inheritedOf(ref) {
			info := e.importInstance(a, ref)
			if info == nil {
				continue
			}
			local := *info
			local.AssemblyFilter = nil
			e.applyToAssembly(&local, asm)
		}
	}

	e.ensureHierarchy()
	processed := make(map[*codemodel.Type]bool)
	for _, t := range e.module.AllTypes() {
		for _, base := range e.externalAncestors(t) {
			if processed[base] {
				continue
			}
			processed[base] = true
			if codemodel.HasAttribute(base, HasInheritedAttributeName) {
				e.importFromBase(base)
			}
		}
	}
}

// externalAncestors returns the supertypes of t defined outside the module,
// transitively, nearest first
func (e *Engine) externalAncestors(t *codemodel.Type) []*codemodel.Type {
	var out []*codemodel.Type
	seen := map[*codemodel.Type]bool{t: true}
	queue := []*codemodel.Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, sig := range cur.Supertypes() {
			if sig.Kind != codemodel.SigDefinition || sig.Type == nil || seen[sig.Type] {
				continue
			}
			seen[sig.Type] = true
			if !e.isLocal(sig.Type) {
				out = append(out, sig.Type)
			}
			queue = append(queue, sig.Type)
		}
	}
	return out
}

// inheritedOf returns the inheritable annotations recorded on an external
// declaration, resolving pool references once per assembly
func (e *Engine) inheritedOf(d codemodel.Declaration) []*codemodel.Annotation {
	return inheritedAnnotations(d, func() map[int64]*codemodel.Annotation {
		asm := assemblyOf(d)
		table, ok := e.poolTables[asm]
		if !ok {
			table = poolIndex(asm)
			e.poolTables[asm] = table
		}
		return table
	})
}

// importInstance builds the instance of an annotation recorded by another
// assembly. Instances are cached by id so that the same instance reached
// through several paths is expanded once.
func (e *Engine) importInstance(a *codemodel.Annotation, declaredOn codemodel.Declaration) *InstanceInfo {
	if v, ok := a.Get(PropID); ok && v.Kind == codemodel.ValueInt {
		if cached, ok := e.imported[v.Int]; ok {
			return cached
		}
	}
	usage, ok := e.resolveUsage(a.Type)
	if !ok {
		return nil
	}
	info, ok := e.buildInstanceInfo(a, usage, declaredOn, true)
	if !ok {
		e.logger.Debug("skipping invalid imported instance",
			zap.String("type", a.Type.Name()),
			zap.String("declaration", declaredOn.ID()))
		return nil
	}
	e.imported[info.ID] = info
	instancesImported.Inc()
	return info
}

// importFromBase applies the instances recorded on an external type and its
// methods to the local declarations deriving from it
func (e *Engine) importFromBase(base *codemodel.Type) {
	e.logger.Debug("importing inherited instances", zap.String("type", base.Name()))

	for _, a := range e.inheritedOf(base) {
		info := e.importInstance(a, base)
		if info == nil {
			continue
		}
		for _, d := range e.index.DerivedTypes(base, true, e.module) {
			e.applyToType(info, d, false)
		}
	}

	for _, bm := range base.Methods() {
		methodLevel := e.inheritedOf(bm)
		returnLevel := e.inheritedOf(bm.ReturnValue())
		paramLevel := make([][]*codemodel.Annotation, len(bm.Parameters()))
		found := len(methodLevel) > 0 || len(returnLevel) > 0
		for i, p := range bm.Parameters() {
			paramLevel[i] = e.inheritedOf(p)
			found = found || len(paramLevel[i]) > 0
		}
		if !found {
			continue
		}

		for _, ov := range e.findExternalOverrides(bm) {
			for _, a := range methodLevel {
				if info := e.importInstance(a, bm); info != nil {
					e.applyToMethod(info, ov, false)
				}
			}
			for i, annots := range paramLevel {
				if i >= len(ov.Parameters()) {
					break
				}
				for _, a := range annots {
					if info := e.importInstance(a, bm.Parameters()[i]); info != nil {
						e.applyToParameter(info, ov.Parameters()[i], false)
					}
				}
			}
			for _, a := range returnLevel {
				if info := e.importInstance(a, bm.ReturnValue()); info != nil {
					e.applyToReturnValue(info, ov.ReturnValue(), false)
				}
			}
		}
	}
}

// findExternalOverrides returns the nearest local overrides of an external
// method. Subtrees below an external override that records its own
// inheritable instances are skipped: that override re-exports what it
// inherited.
func (e *Engine) findExternalOverrides(bm *codemodel.Method) []*codemodel.Method {
	var out []*codemodel.Method
	visited := make(map[*codemodel.Type]bool)
	queue := e.index.Children(bm.DeclaringType())

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.Type] {
			continue
		}
		visited[cur.Type] = true

		ov := hierarchy.FindOverride(bm, cur.Type, cur.Map)
		if e.isLocal(cur.Type) && ov != nil {
			out = append(out, ov)
			continue
		}
		if !e.isLocal(cur.Type) && ov != nil && codemodel.HasAttribute(ov, HasInheritedAttributeName) {
			continue
		}
		for _, child := range e.index.Children(cur.Type) {
			queue = append(queue, hierarchy.DerivedTypeInfo{
				Type: child.Type,
				Map:  cur.Map.Compose(child.Map),
			})
		}
	}
	return out
}

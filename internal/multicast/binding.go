package multicast

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
)

// Storage tells how a final binding is recorded in the module
type Storage int

const (
	// StorageTransient bindings live in the result only
	StorageTransient Storage = iota
	// StorageConcrete bindings are written as a copy on the target
	StorageConcrete
	// StoragePooled bindings are written once in the pool type and
	// referenced from the target by id
	StoragePooled
)

// String returns the storage name used in logs and persisted runs
func (s Storage) String() string {
	switch s {
	case StorageConcrete:
		return "concrete"
	case StoragePooled:
		return "pooled"
	}
	return "transient"
}

// Binding is an annotation instance finally bound to a declaration
type Binding struct {
	Target     codemodel.Declaration
	Annotation *codemodel.Annotation
	InstanceID int64
	Priority   int64
	Inherited  bool
	DeclaredOn codemodel.Declaration
	Storage    Storage
}

type candidate struct {
	info *InstanceInfo
	// abstract candidates only carry an instance to derived declarations
	abstract bool
}

// targetCandidates groups the candidates of one declaration by annotation type
type targetCandidates struct {
	target codemodel.Declaration
	byType map[*codemodel.Type][]candidate
	types  []*codemodel.Type
}

func (e *Engine) addCandidate(info *InstanceInfo, d codemodel.Declaration, abstract bool) {
	tc, ok := e.candidates[d]
	if !ok {
		tc = &targetCandidates{target: d, byType: make(map[*codemodel.Type][]candidate)}
		e.candidates[d] = tc
		e.targetOrder = append(e.targetOrder, d)
	}
	if _, ok := tc.byType[info.Type]; !ok {
		tc.types = append(tc.types, info.Type)
	}
	tc.byType[info.Type] = append(tc.byType[info.Type], candidate{info: info, abstract: abstract})
}

// mergeAndBind resolves the candidates of every target and writes the
// surviving instances to the module
func (e *Engine) mergeAndBind() {
	for _, d := range e.targetOrder {
		tc := e.candidates[d]
		for _, t := range tc.types {
			var concrete []*InstanceInfo
			var carriers []*InstanceInfo
			for _, c := range tc.byType[t] {
				if c.abstract {
					carriers = append(carriers, c.info)
				} else {
					concrete = append(concrete, c.info)
				}
			}

			bound := make(map[int64]bool)
			for _, info := range e.merge(d, t, concrete) {
				bound[info.ID] = true
				e.result.add(e.writeFinalBinding(d, info))
			}
			for _, info := range carriers {
				if bound[info.ID] {
					continue
				}
				bound[info.ID] = true
				e.writeCarrier(d, info)
			}
		}
	}
}

// merge orders the candidates of one annotation type on one target and
// applies exclusion, replacement and multiplicity. For single-instance types
// the structural bonus in the priority lets a more specific declaration
// supersede less specific ones; only instances tied at the top priority
// conflict.
func (e *Engine) merge(d codemodel.Declaration, t *codemodel.Type, infos []*InstanceInfo) []*InstanceInfo {
	if len(infos) == 0 {
		return nil
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Priority != infos[j].Priority {
			return infos[i].Priority < infos[j].Priority
		}
		return infos[i].ID < infos[j].ID
	})

	var chosen []*InstanceInfo
	seen := make(map[int64]bool)
	for _, info := range infos {
		if seen[info.ID] {
			continue
		}
		seen[info.ID] = true
		switch {
		case info.Exclude:
			chosen = nil
		case info.Replace:
			chosen = []*InstanceInfo{info}
		default:
			chosen = append(chosen, info)
		}
	}

	usage := infos[0].Usage
	if usage.AllowMultiple || len(chosen) <= 1 {
		return chosen
	}

	// A more specific instance supersedes the less specific ones
	top := chosen[len(chosen)-1].Priority
	var survivors []*InstanceInfo
	for _, info := range chosen {
		if info.Priority == top {
			survivors = append(survivors, info)
		}
	}
	if len(survivors) > 1 {
		e.report(diagnostics.NewMultipleInstances(t.Name(), d.ID(), len(survivors)))
		return nil
	}
	return survivors
}

// structuralInheritance reports how far d can be inherited by declarations
// of other assemblies
func structuralInheritance(d codemodel.Declaration) Inheritance {
	ok := false
	switch d := d.(type) {
	case *codemodel.Assembly:
		ok = true
	case *codemodel.Type:
		ok = externallyVisible(d) && !d.Sealed
	case *codemodel.Method:
		ok = methodInheritable(d)
	case *codemodel.Parameter:
		ok = methodInheritable(d.Method())
	case *codemodel.ReturnValue:
		ok = methodInheritable(d.Method())
	case *codemodel.Property:
		ok = anyInheritable(d.Accessors())
	case *codemodel.Event:
		ok = anyInheritable(d.Accessors())
	}
	if ok {
		return InheritanceMulticast
	}
	return InheritanceNone
}

// externallyVisible reports whether t and all its declaring types are public
func externallyVisible(t *codemodel.Type) bool {
	for cur := t; cur != nil; cur = cur.DeclaringType() {
		if cur.Visibility != codemodel.VisibilityPublic {
			return false
		}
	}
	return true
}

func methodInheritable(m *codemodel.Method) bool {
	if m == nil || !overridable(m) || m.Visibility != codemodel.VisibilityPublic {
		return false
	}
	t := m.DeclaringType()
	return t != nil && externallyVisible(t) && !t.Sealed
}

func anyInheritable(accessors []*codemodel.Method) bool {
	for _, m := range accessors {
		if methodInheritable(m) {
			return true
		}
	}
	return false
}

// inheritable reports whether info must stay visible to other assemblies
// once bound to d
func (e *Engine) inheritable(info *InstanceInfo, d codemodel.Declaration) bool {
	return minInheritance(structuralInheritance(d), info.Inheritance) != InheritanceNone
}

// writeFinalBinding records info on d according to the usage of its type
func (e *Engine) writeFinalBinding(d codemodel.Declaration, info *InstanceInfo) Binding {
	b := Binding{
		Target:     d,
		Annotation: info.Annotation,
		InstanceID: info.ID,
		Priority:   info.Priority,
		Inherited:  info.Inherited,
		DeclaredOn: info.DeclaredOn,
		Storage:    StorageTransient,
	}
	if !e.isLocal(d) {
		bindingsWritten.WithLabelValues(b.Storage.String()).Inc()
		return b
	}

	inheritable := e.inheritable(info, d)
	switch {
	case info.Usage.PersistMetaData:
		b.Annotation = e.materialize(info, inheritable)
		d.AddCustomAttribute(b.Annotation)
		b.Storage = StorageConcrete
	case inheritable:
		e.pool.add(info)
		e.addReference(d, info.ID)
		b.Storage = StoragePooled
	}
	if inheritable {
		e.markInherited(d)
	}
	bindingsWritten.WithLabelValues(b.Storage.String()).Inc()
	return b
}

// writeCarrier records an instance that does not bind to d but must reach
// the declarations deriving from d in other assemblies
func (e *Engine) writeCarrier(d codemodel.Declaration, info *InstanceInfo) {
	if !e.isLocal(d) || !e.inheritable(info, d) {
		return
	}
	e.pool.add(info)
	e.addReference(d, info.ID)
	e.markInherited(d)
	e.logger.Debug("carrier written",
		zap.String("type", info.Type.Name()),
		zap.String("target", d.ID()),
		zap.Int64("id", info.ID))
}

// materialize returns the copy of info persisted in the module
func (e *Engine) materialize(info *InstanceInfo, inheritable bool) *codemodel.Annotation {
	a := info.Annotation.Clone()
	a.Set(PropID, codemodel.IntValue(info.ID))
	if inheritable {
		a.Set(PropInheritance, codemodel.IntValue(int64(info.Inheritance)))
	}
	return a
}

// addReference appends id to the reference marker of d
func (e *Engine) addReference(d codemodel.Declaration, id int64) {
	if ref := codemodel.FindAttribute(d, InheritedRefAttributeName); ref != nil {
		if len(ref.Args) == 0 {
			ref.Args = []codemodel.Value{codemodel.ArrayValue()}
		}
		for _, v := range ref.Args[0].Elems {
			if v.Int == id {
				return
			}
		}
		ref.Args[0].Elems = append(ref.Args[0].Elems, codemodel.IntValue(id))
		return
	}
	t := e.graph.WellKnownType(InheritedRefAttributeName)
	d.AddCustomAttribute(codemodel.NewAnnotation(t, codemodel.ArrayValue(codemodel.IntValue(id))))
}

// markInherited flags d, its enclosing declarations and the assembly
// manifest as carrying inheritable annotations
func (e *Engine) markInherited(d codemodel.Declaration) {
	mark := func(d codemodel.Declaration) {
		if d == nil || codemodel.HasAttribute(d, HasInheritedAttributeName) {
			return
		}
		d.AddCustomAttribute(codemodel.NewAnnotation(e.graph.WellKnownType(HasInheritedAttributeName)))
	}
	mark(d)
	switch d := d.(type) {
	case *codemodel.Parameter:
		mark(d.Method())
		mark(d.Method().DeclaringType())
	case *codemodel.ReturnValue:
		mark(d.Method())
		mark(d.Method().DeclaringType())
	case *codemodel.Method:
		mark(d.DeclaringType())
	case *codemodel.Property, *codemodel.Event, *codemodel.Field:
		mark(codemodel.DeclaringTypeOf(d))
	}
	if asm := e.module.Assembly(); asm != nil {
		mark(asm)
	}
}

// pool owns the synthetic type holding inheritable instances that are not
// persisted on their targets
type pool struct {
	engine *Engine
	typ    *codemodel.Type
	byID   map[int64]*codemodel.Annotation
}

func (p *pool) add(info *InstanceInfo) *codemodel.Annotation {
	if a, ok := p.byID[info.ID]; ok {
		return a
	}
	if p.typ == nil {
		t := codemodel.NewType(PoolTypeName, codemodel.TypeKindClass)
		t.Visibility = codemodel.VisibilityInternal
		t.Abstract = true
		t.Sealed = true
		t.AddCustomAttribute(codemodel.NewAnnotation(p.engine.graph.WellKnownType(codemodel.CompilerGeneratedAttributeName)))
		p.typ = p.engine.module.AddType(t)
		p.engine.generated[t] = true
	}
	a := info.Annotation.Clone()
	a.Set(PropID, codemodel.IntValue(info.ID))
	a.Set(PropInheritance, codemodel.IntValue(int64(info.Inheritance)))
	p.typ.AddCustomAttribute(a)
	p.byID[info.ID] = a
	return a
}

// Result holds the final bindings of a resolved module
type Result struct {
	RunID       uuid.UUID
	Module      *codemodel.Module
	Diagnostics diagnostics.List

	bindings map[codemodel.Declaration][]Binding
	order    []codemodel.Declaration
	pool     *codemodel.Type
}

func newResult(runID uuid.UUID, module *codemodel.Module) *Result {
	return &Result{
		RunID:    runID,
		Module:   module,
		bindings: make(map[codemodel.Declaration][]Binding),
	}
}

func (r *Result) add(b Binding) {
	if _, ok := r.bindings[b.Target]; !ok {
		r.order = append(r.order, b.Target)
	}
	list := append(r.bindings[b.Target], b)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority < list[j].Priority
		}
		return list[i].InstanceID < list[j].InstanceID
	})
	r.bindings[b.Target] = list
}

// BindingsFor returns the bindings of d in (priority, instance id) order
func (r *Result) BindingsFor(d codemodel.Declaration) []Binding {
	src := r.bindings[d]
	out := make([]Binding, len(src))
	copy(out, src)
	return out
}

// Targets returns the declarations with at least one binding, in the order
// they were first reached
func (r *Result) Targets() []codemodel.Declaration {
	out := make([]codemodel.Declaration, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every binding
func (r *Result) All() []Binding {
	var out []Binding
	for _, d := range r.order {
		out = append(out, r.bindings[d]...)
	}
	return out
}

// Len returns the number of bindings
func (r *Result) Len() int {
	n := 0
	for _, bs := range r.bindings {
		n += len(bs)
	}
	return n
}

// PoolType returns the pool type created during the run, if any
func (r *Result) PoolType() *codemodel.Type { return r.pool }

// ResolveReferences returns the inheritable annotations recorded on d,
// whether persisted on d or referenced from the pool of its assembly
func (r *Result) ResolveReferences(d codemodel.Declaration) []*codemodel.Annotation {
	return InheritedAnnotations(d)
}

// InheritedAnnotations returns the annotations d makes visible to derived
// declarations: persisted copies carrying an instance id and the pool
// entries named by its reference marker
func InheritedAnnotations(d codemodel.Declaration) []*codemodel.Annotation {
	return inheritedAnnotations(d, func() map[int64]*codemodel.Annotation {
		return poolIndex(assemblyOf(d))
	})
}

func inheritedAnnotations(d codemodel.Declaration, table func() map[int64]*codemodel.Annotation) []*codemodel.Annotation {
	var out []*codemodel.Annotation
	for _, a := range d.CustomAttributes() {
		if a.Type == nil {
			continue
		}
		switch a.Type.Name() {
		case InheritedRefAttributeName:
			if len(a.Args) == 0 {
				continue
			}
			index := table()
			for _, v := range a.Args[0].Elems {
				if pooled, ok := index[v.Int]; ok {
					out = append(out, pooled)
				}
			}
		case HasInheritedAttributeName:
		default:
			_, hasID := a.Get(PropID)
			_, hasInheritance := a.Get(PropInheritance)
			if hasID && hasInheritance {
				out = append(out, a)
			}
		}
	}
	return out
}

func assemblyOf(d codemodel.Declaration) *codemodel.Assembly {
	if m := d.Module(); m != nil {
		return m.Assembly()
	}
	return nil
}

// poolIndex maps instance ids to the pool entries of every module of asm.
// The first entry wins when an id appears twice.
func poolIndex(asm *codemodel.Assembly) map[int64]*codemodel.Annotation {
	out := make(map[int64]*codemodel.Annotation)
	if asm == nil {
		return out
	}
	for _, m := range asm.Modules() {
		t := m.FindType(PoolTypeName)
		if t == nil {
			continue
		}
		for _, a := range t.CustomAttributes() {
			v, ok := a.Get(PropID)
			if !ok || v.Kind != codemodel.ValueInt {
				continue
			}
			if _, dup := out[v.Int]; !dup {
				out[v.Int] = a
			}
		}
	}
	return out
}

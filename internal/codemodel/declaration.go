package codemodel

import (
	"fmt"
	"sort"
	"strings"
)

// Declaration is implemented by every element of the graph that can carry
// custom attributes. The set of implementations is closed; switch on Kind.
type Declaration interface {
	Kind() Kind
	// Name is the display name of the declaration
	Name() string
	// ID is a stable identifier unique within the graph
	ID() string
	// Module is the module that declares the declaration
	Module() *Module
	CustomAttributes() []*Annotation
	AddCustomAttribute(a *Annotation)
	RemoveCustomAttribute(a *Annotation) bool

	isDeclaration()
}

// attributeHolder stores the custom attributes of a declaration
type attributeHolder struct {
	attributes []*Annotation
}

// CustomAttributes returns a copy of the attached annotations
func (h *attributeHolder) CustomAttributes() []*Annotation {
	out := make([]*Annotation, len(h.attributes))
	copy(out, h.attributes)
	return out
}

func (h *attributeHolder) attach(owner Declaration, a *Annotation) {
	a.target = owner
	h.attributes = append(h.attributes, a)
}

// RemoveCustomAttribute detaches a by identity
func (h *attributeHolder) RemoveCustomAttribute(a *Annotation) bool {
	for i, existing := range h.attributes {
		if existing == a {
			h.attributes = append(h.attributes[:i], h.attributes[i+1:]...)
			return true
		}
	}
	return false
}

// HasAttribute reports whether d carries an annotation whose type has the given full name
func HasAttribute(d Declaration, fullName string) bool {
	return FindAttribute(d, fullName) != nil
}

// FindAttribute returns the first annotation on d whose type has the given full name
func FindAttribute(d Declaration, fullName string) *Annotation {
	for _, a := range d.CustomAttributes() {
		if a.Type != nil && a.Type.Name() == fullName {
			return a
		}
	}
	return nil
}

// Assembly is a unit of deployment made of one or more modules
type Assembly struct {
	attributeHolder
	name       string
	modules    []*Module
	references []*Assembly
}

// NewAssembly creates an assembly with a main module of the same name
func NewAssembly(name string) *Assembly {
	a := &Assembly{name: name}
	a.modules = []*Module{{name: name + ".dll", assembly: a}}
	return a
}

func (a *Assembly) Kind() Kind { return KindAssembly }
func (a *Assembly) Name() string { return a.name }
func (a *Assembly) ID() string { return "A:" + a.name }
func (a *Assembly) Module() *Module { return a.MainModule() }
func (a *Assembly) isDeclaration() {}

// AddCustomAttribute attaches a to the assembly manifest
func (a *Assembly) AddCustomAttribute(an *Annotation) { a.attach(a, an) }

// MainModule returns the manifest module
func (a *Assembly) MainModule() *Module { return a.modules[0] }

// Modules returns the modules of the assembly
func (a *Assembly) Modules() []*Module { return a.modules }

// AddModule appends an additional module
func (a *Assembly) AddModule(name string) *Module {
	m := &Module{name: name, assembly: a}
	a.modules = append(a.modules, m)
	return m
}

// AddReference records a reference to another assembly
func (a *Assembly) AddReference(ref *Assembly) {
	for _, existing := range a.references {
		if existing == ref {
			return
		}
	}
	a.references = append(a.references, ref)
}

// References returns the referenced assemblies in declaration order
func (a *Assembly) References() []*Assembly { return a.references }

// Module is a compiled module holding type definitions
type Module struct {
	attributeHolder
	name      string
	assembly  *Assembly
	types     []*Type
	typeRefs  []*Type
	typeSpecs []*TypeSig
}

func (m *Module) Kind() Kind { return KindModule }
func (m *Module) Name() string { return m.name }
func (m *Module) ID() string { return "Mod:" + m.name }
func (m *Module) Module() *Module { return m }
func (m *Module) isDeclaration() {}

// AddCustomAttribute attaches a to the module
func (m *Module) AddCustomAttribute(a *Annotation) { m.attach(m, a) }

// Assembly returns the owning assembly
func (m *Module) Assembly() *Assembly { return m.assembly }

// Types returns the top-level types of the module
func (m *Module) Types() []*Type { return m.types }

// AllTypes returns every type of the module, nested types following their parent
func (m *Module) AllTypes() []*Type {
	var out []*Type
	var walk func(t *Type)
	walk = func(t *Type) {
		out = append(out, t)
		for _, n := range t.nested {
			walk(n)
		}
	}
	for _, t := range m.types {
		walk(t)
	}
	return out
}

// AddType adds a top-level type definition
func (m *Module) AddType(t *Type) *Type {
	t.setModule(m)
	m.types = append(m.types, t)
	return t
}

// FindType returns the type with the given full name, nested types included
func (m *Module) FindType(fullName string) *Type {
	for _, t := range m.AllTypes() {
		if t.fullName == fullName {
			return t
		}
	}
	return nil
}

// AddTypeRef records a reference to a type defined in another module
func (m *Module) AddTypeRef(t *Type) {
	for _, existing := range m.typeRefs {
		if existing == t {
			return
		}
	}
	m.typeRefs = append(m.typeRefs, t)
}

// TypeRefs returns the external types referenced by the module
func (m *Module) TypeRefs() []*Type { return m.typeRefs }

// AddTypeSpec records a generic instantiation used by the module
func (m *Module) AddTypeSpec(sig *TypeSig) {
	m.typeSpecs = append(m.typeSpecs, sig)
}

// TypeSpecs returns the generic instantiations used by the module
func (m *Module) TypeSpecs() []*TypeSig { return m.typeSpecs }

// ExternalTypes returns the referenced types defined outside the module,
// including the definitions of every known generic instantiation
func (m *Module) ExternalTypes() []*Type {
	seen := make(map[*Type]bool)
	var out []*Type
	add := func(t *Type) {
		if t == nil || seen[t] || t.module == m {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range m.typeRefs {
		add(t)
	}
	for _, spec := range m.typeSpecs {
		if spec.Kind == SigDefinition {
			add(spec.Type)
		}
	}
	return out
}

// Graph is a set of assemblies that reference each other
type Graph struct {
	assemblies []*Assembly
	byName     map[string]*Assembly
	synthetic  *Assembly
}

// SyntheticAssemblyName names the assembly holding well-known types that no loaded assembly defines
const SyntheticAssemblyName = "PostSharp.Synthetic"

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{byName: make(map[string]*Assembly)}
}

// AddAssembly registers an assembly
func (g *Graph) AddAssembly(a *Assembly) error {
	if _, exists := g.byName[a.name]; exists {
		return fmt.Errorf("assembly %q already registered", a.name)
	}
	g.byName[a.name] = a
	g.assemblies = append(g.assemblies, a)
	return nil
}

// Assembly returns the assembly with the given name
func (g *Graph) Assembly(name string) *Assembly {
	return g.byName[name]
}

// Assemblies returns every registered assembly in registration order
func (g *Graph) Assemblies() []*Assembly { return g.assemblies }

// FindType searches every module of every assembly for a type
func (g *Graph) FindType(fullName string) *Type {
	for _, a := range g.assemblies {
		for _, m := range a.modules {
			if t := m.FindType(fullName); t != nil {
				return t
			}
		}
	}
	if g.synthetic != nil {
		return g.synthetic.MainModule().FindType(fullName)
	}
	return nil
}

// WellKnownType returns the named type, creating a public class in the
// synthetic assembly when no loaded assembly defines it
func (g *Graph) WellKnownType(fullName string) *Type {
	if t := g.FindType(fullName); t != nil {
		return t
	}
	if g.synthetic == nil {
		g.synthetic = NewAssembly(SyntheticAssemblyName)
	}
	t := NewType(fullName, TypeKindClass)
	t.Visibility = VisibilityPublic
	t.Sealed = true
	return g.synthetic.MainModule().AddType(t)
}

// ReferenceOrder returns the assemblies sorted so that every assembly follows
// the assemblies it references. Ties are broken by name.
func (g *Graph) ReferenceOrder() []*Assembly {
	names := make([]string, 0, len(g.assemblies))
	for _, a := range g.assemblies {
		names = append(names, a.name)
	}
	sort.Strings(names)

	visited := make(map[*Assembly]bool)
	var out []*Assembly
	var visit func(a *Assembly)
	visit = func(a *Assembly) {
		if visited[a] {
			return
		}
		visited[a] = true
		refs := make([]*Assembly, len(a.references))
		copy(refs, a.references)
		sort.Slice(refs, func(i, j int) bool { return refs[i].name < refs[j].name })
		for _, ref := range refs {
			visit(ref)
		}
		out = append(out, a)
	}
	for _, name := range names {
		visit(g.byName[name])
	}
	return out
}

// IsCompilerGenerated reports whether d carries the compiler-generated marker
// or has a name only a compiler would produce
func IsCompilerGenerated(d Declaration) bool {
	if HasAttribute(d, CompilerGeneratedAttributeName) {
		return true
	}
	switch d.Kind() {
	case KindAssembly, KindModule, KindReturnValue:
		return false
	}
	return strings.ContainsAny(d.Name(), "<$")
}

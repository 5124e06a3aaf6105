package codemodel

// Type is a type definition
type Type struct {
	attributeHolder
	fullName string

	TypeKind          TypeKind
	Visibility        Visibility
	Abstract          bool
	Sealed            bool
	GenericParameters []string
	BaseType          *TypeSig
	Interfaces        []*TypeSig

	module        *Module
	declaringType *Type
	nested        []*Type
	methods       []*Method
	fields        []*Field
	properties    []*Property
	events        []*Event
}

// NewType creates a type definition. Nested types use '+' between the outer
// and the inner name.
func NewType(fullName string, kind TypeKind) *Type {
	return &Type{fullName: fullName, TypeKind: kind}
}

func (t *Type) Kind() Kind { return KindType }
func (t *Type) Name() string { return t.fullName }
func (t *Type) ID() string { return "T:" + t.fullName }
func (t *Type) Module() *Module { return t.module }
func (t *Type) isDeclaration() {}

// AddCustomAttribute attaches a to the type
func (t *Type) AddCustomAttribute(a *Annotation) { t.attach(t, a) }

func (t *Type) setModule(m *Module) {
	t.module = m
	for _, n := range t.nested {
		n.setModule(m)
	}
}

// IsStatic reports whether the type is a static class
func (t *Type) IsStatic() bool { return t.Abstract && t.Sealed }

// IsGenericDefinition reports whether the type declares generic parameters
func (t *Type) IsGenericDefinition() bool { return len(t.GenericParameters) > 0 }

// DeclaringType returns the enclosing type of a nested type
func (t *Type) DeclaringType() *Type { return t.declaringType }

// NestedTypes returns the types nested directly in t
func (t *Type) NestedTypes() []*Type { return t.nested }

// AddNestedType nests n in t
func (t *Type) AddNestedType(n *Type) *Type {
	n.declaringType = t
	n.setModule(t.module)
	t.nested = append(t.nested, n)
	return n
}

// Supertypes returns the base type signature followed by the interface signatures
func (t *Type) Supertypes() []*TypeSig {
	var out []*TypeSig
	if t.BaseType != nil {
		out = append(out, t.BaseType)
	}
	return append(out, t.Interfaces...)
}

// Methods returns the methods of the type, accessors included
func (t *Type) Methods() []*Method { return t.methods }

// Fields returns the fields of the type
func (t *Type) Fields() []*Field { return t.fields }

// Properties returns the properties of the type
func (t *Type) Properties() []*Property { return t.properties }

// Events returns the events of the type
func (t *Type) Events() []*Event { return t.events }

// AddMethod adds a method to the type
func (t *Type) AddMethod(m *Method) *Method {
	for _, existing := range t.methods {
		if existing == m {
			return m
		}
	}
	m.declaringType = t
	t.methods = append(t.methods, m)
	return m
}

// AddField adds a field to the type
func (t *Type) AddField(f *Field) *Field {
	f.declaringType = t
	t.fields = append(t.fields, f)
	return f
}

// AddProperty adds a property and its accessors to the type
func (t *Type) AddProperty(p *Property) *Property {
	p.declaringType = t
	for _, acc := range p.Accessors() {
		acc.semanticOwner = p
		t.AddMethod(acc)
	}
	t.properties = append(t.properties, p)
	return p
}

// AddEvent adds an event and its accessors to the type
func (t *Type) AddEvent(e *Event) *Event {
	e.declaringType = t
	for _, acc := range e.Accessors() {
		acc.semanticOwner = e
		t.AddMethod(acc)
	}
	t.events = append(t.events, e)
	return e
}

// Method returns the first method with the given name
func (t *Type) Method(name string) *Method {
	for _, m := range t.methods {
		if m.name == name {
			return m
		}
	}
	return nil
}

// Field returns the field with the given name
func (t *Type) Field(name string) *Field {
	for _, f := range t.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

// Property returns the property with the given name
func (t *Type) Property(name string) *Property {
	for _, p := range t.properties {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Event returns the event with the given name
func (t *Type) Event(name string) *Event {
	for _, e := range t.events {
		if e.name == name {
			return e
		}
	}
	return nil
}

// DerivesFrom reports whether base appears in the base-class chain of t (t included)
func (t *Type) DerivesFrom(base *Type) bool {
	for cur := t; cur != nil; {
		if cur == base {
			return true
		}
		if cur.BaseType == nil || cur.BaseType.Kind != SigDefinition {
			return false
		}
		cur = cur.BaseType.Type
	}
	return false
}

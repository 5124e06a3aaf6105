package codemodel

import (
	"strconv"
	"strings"
)

// MethodRef names a method of a possibly generic declaring type
type MethodRef struct {
	DeclaringType *TypeSig
	Method        *Method
}

// Method is a method, constructor or accessor definition
type Method struct {
	attributeHolder
	name string

	Visibility        Visibility
	Static            bool
	Virtual           bool
	Abstract          bool
	Final             bool
	NewSlot           bool
	Unmanaged         bool
	GenericParameters []string
	// Overrides lists the methods explicitly implemented by this method
	Overrides []MethodRef

	declaringType *Type
	parameters    []*Parameter
	returnValue   *ReturnValue
	semanticOwner Declaration
}

// NewMethod creates a method returning void
func NewMethod(name string, params ...*Parameter) *Method {
	m := &Method{name: name}
	m.returnValue = &ReturnValue{Type: Named("void"), method: m}
	for _, p := range params {
		m.AddParameter(p)
	}
	return m
}

func (m *Method) Kind() Kind { return KindMethod }
func (m *Method) Name() string { return m.name }
func (m *Method) isDeclaration() {}

// ID returns the declaring type, name, generic arity and parameter types
func (m *Method) ID() string {
	var b strings.Builder
	b.WriteString("M:")
	if m.declaringType != nil {
		b.WriteString(m.declaringType.fullName)
		b.WriteByte('.')
	}
	b.WriteString(m.name)
	if n := len(m.GenericParameters); n > 0 {
		b.WriteString("``")
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteByte('(')
	for i, p := range m.parameters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Module returns the module of the declaring type
func (m *Method) Module() *Module {
	if m.declaringType == nil {
		return nil
	}
	return m.declaringType.module
}

// AddCustomAttribute attaches a to the method
func (m *Method) AddCustomAttribute(a *Annotation) { m.attach(m, a) }

// MethodKind classifies the method by its name
func (m *Method) MethodKind() MethodKind {
	switch m.name {
	case ".ctor":
		return MethodKindInstanceConstructor
	case ".cctor":
		return MethodKindStaticConstructor
	}
	return MethodKindOrdinary
}

// DeclaringType returns the type declaring the method
func (m *Method) DeclaringType() *Type { return m.declaringType }

// SemanticOwner returns the property or event owning an accessor, or nil
func (m *Method) SemanticOwner() Declaration { return m.semanticOwner }

// Parameters returns the parameters in position order
func (m *Method) Parameters() []*Parameter { return m.parameters }

// ReturnValue returns the return value declaration
func (m *Method) ReturnValue() *ReturnValue { return m.returnValue }

// AddParameter appends a parameter
func (m *Method) AddParameter(p *Parameter) *Parameter {
	p.method = m
	p.position = len(m.parameters)
	m.parameters = append(m.parameters, p)
	return p
}

// SetReturnType sets the type of the return value
func (m *Method) SetReturnType(sig *TypeSig) *Method {
	m.returnValue.Type = sig
	return m
}

// Parameter returns the parameter with the given name
func (m *Method) Parameter(name string) *Parameter {
	for _, p := range m.parameters {
		if p.name == name {
			return p
		}
	}
	return nil
}

// IsOverridable reports whether derived types can override the method
func (m *Method) IsOverridable() bool {
	if !m.Virtual || m.Final || m.Static {
		return false
	}
	return m.declaringType == nil || !m.declaringType.Sealed
}

// Parameter is a formal parameter of a method
type Parameter struct {
	attributeHolder
	name string

	Type *TypeSig
	// In is the explicit [In] flag
	In bool

	method   *Method
	position int
}

// NewParameter creates a parameter
func NewParameter(name string, typ *TypeSig) *Parameter {
	return &Parameter{name: name, Type: typ}
}

func (p *Parameter) Kind() Kind { return KindParameter }
func (p *Parameter) Name() string { return p.name }
func (p *Parameter) isDeclaration() {}

// ID returns the method id followed by the parameter name
func (p *Parameter) ID() string {
	name := p.name
	if name == "" {
		name = strconv.Itoa(p.position)
	}
	if p.method == nil {
		return "#" + name
	}
	return p.method.ID() + "#" + name
}

// Module returns the module of the declaring method
func (p *Parameter) Module() *Module {
	if p.method == nil {
		return nil
	}
	return p.method.Module()
}

// AddCustomAttribute attaches a to the parameter
func (p *Parameter) AddCustomAttribute(a *Annotation) { p.attach(p, a) }

// Method returns the declaring method
func (p *Parameter) Method() *Method { return p.method }

// Position returns the zero-based position of the parameter
func (p *Parameter) Position() int { return p.position }

// IsByRef reports whether the parameter is passed as a managed pointer
func (p *Parameter) IsByRef() bool { return p.Type != nil && p.Type.ByRef }

// ReturnValue is the return value of a method
type ReturnValue struct {
	attributeHolder
	Type   *TypeSig
	method *Method
}

func (r *ReturnValue) Kind() Kind { return KindReturnValue }
func (r *ReturnValue) Name() string { return "return" }
func (r *ReturnValue) ID() string { return r.method.ID() + "#return" }
func (r *ReturnValue) Module() *Module { return r.method.Module() }
func (r *ReturnValue) isDeclaration() {}

// AddCustomAttribute attaches a to the return value
func (r *ReturnValue) AddCustomAttribute(a *Annotation) { r.attach(r, a) }

// Method returns the declaring method
func (r *ReturnValue) Method() *Method { return r.method }

// Field is a field definition
type Field struct {
	attributeHolder
	name string

	Type       *TypeSig
	Visibility Visibility
	Static     bool
	Literal    bool

	declaringType *Type
}

// NewField creates a field
func NewField(name string, typ *TypeSig) *Field {
	return &Field{name: name, Type: typ}
}

func (f *Field) Kind() Kind { return KindField }
func (f *Field) Name() string { return f.name }
func (f *Field) ID() string { return "F:" + memberPath(f.declaringType, f.name) }
func (f *Field) isDeclaration() {}

// Module returns the module of the declaring type
func (f *Field) Module() *Module {
	if f.declaringType == nil {
		return nil
	}
	return f.declaringType.module
}

// AddCustomAttribute attaches a to the field
func (f *Field) AddCustomAttribute(a *Annotation) { f.attach(f, a) }

// DeclaringType returns the type declaring the field
func (f *Field) DeclaringType() *Type { return f.declaringType }

// Property groups a getter and a setter
type Property struct {
	attributeHolder
	name string

	Type   *TypeSig
	Getter *Method
	Setter *Method

	declaringType *Type
}

// NewProperty creates a property with the given accessors (either may be nil)
func NewProperty(name string, getter, setter *Method) *Property {
	return &Property{name: name, Getter: getter, Setter: setter}
}

func (p *Property) Kind() Kind { return KindProperty }
func (p *Property) Name() string { return p.name }
func (p *Property) ID() string { return "P:" + memberPath(p.declaringType, p.name) }
func (p *Property) isDeclaration() {}

// Module returns the module of the declaring type
func (p *Property) Module() *Module {
	if p.declaringType == nil {
		return nil
	}
	return p.declaringType.module
}

// AddCustomAttribute attaches a to the property
func (p *Property) AddCustomAttribute(a *Annotation) { p.attach(p, a) }

// DeclaringType returns the type declaring the property
func (p *Property) DeclaringType() *Type { return p.declaringType }

// Accessors returns the non-nil accessors, getter first
func (p *Property) Accessors() []*Method {
	var out []*Method
	for _, m := range []*Method{p.Getter, p.Setter} {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Event groups add, remove and raise accessors
type Event struct {
	attributeHolder
	name string

	Type    *TypeSig
	Adder   *Method
	Remover *Method
	Raiser  *Method

	declaringType *Type
}

// NewEvent creates an event with the given accessors (any may be nil)
func NewEvent(name string, adder, remover *Method) *Event {
	return &Event{name: name, Adder: adder, Remover: remover}
}

func (e *Event) Kind() Kind { return KindEvent }
func (e *Event) Name() string { return e.name }
func (e *Event) ID() string { return "E:" + memberPath(e.declaringType, e.name) }
func (e *Event) isDeclaration() {}

// Module returns the module of the declaring type
func (e *Event) Module() *Module {
	if e.declaringType == nil {
		return nil
	}
	return e.declaringType.module
}

// AddCustomAttribute attaches a to the event
func (e *Event) AddCustomAttribute(a *Annotation) { e.attach(e, a) }

// DeclaringType returns the type declaring the event
func (e *Event) DeclaringType() *Type { return e.declaringType }

// Accessors returns the non-nil accessors
func (e *Event) Accessors() []*Method {
	var out []*Method
	for _, m := range []*Method{e.Adder, e.Remover, e.Raiser} {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

func memberPath(t *Type, name string) string {
	if t == nil {
		return name
	}
	return t.fullName + "." + name
}

// DeclaringTypeOf returns the type that declares d, or nil for assemblies,
// modules and top-level types
func DeclaringTypeOf(d Declaration) *Type {
	switch v := d.(type) {
	case *Type:
		return v.declaringType
	case *Method:
		return v.declaringType
	case *Field:
		return v.declaringType
	case *Property:
		return v.declaringType
	case *Event:
		return v.declaringType
	case *Parameter:
		if v.method != nil {
			return v.method.declaringType
		}
	case *ReturnValue:
		return v.method.declaringType
	}
	return nil
}

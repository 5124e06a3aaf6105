package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
)

// Model is a loaded declaration graph
type Model struct {
	Graph *codemodel.Graph
	// Targets are the assemblies to resolve, in reference order
	Targets []*codemodel.Assembly
}

// Load reads a declaration graph document from path
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph document: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse builds a declaration graph from a YAML or JSON document. Types are
// declared in a first pass so that signatures and annotations may refer to
// types defined anywhere in the document.
func Parse(data []byte) (*Model, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse graph document: %w", err)
	}

	b := &builder{g: codemodel.NewGraph()}
	if err := b.declare(&doc); err != nil {
		return nil, err
	}
	if err := b.define(&doc); err != nil {
		return nil, err
	}
	if err := b.linkOverrides(); err != nil {
		return nil, err
	}

	model := &Model{Graph: b.g}
	for _, asm := range b.g.ReferenceOrder() {
		if !b.reference[asm] {
			model.Targets = append(model.Targets, asm)
		}
	}
	return model, nil
}

type declaredType struct {
	doc *TypeDoc
	typ *codemodel.Type
}

type pendingOverride struct {
	method *codemodel.Method
	ref    string
}

type builder struct {
	g         *codemodel.Graph
	reference map[*codemodel.Assembly]bool
	types     map[*codemodel.Assembly][]declaredType
	overrides []pendingOverride
}

func (b *builder) lookup(name string) *codemodel.Type {
	return b.g.FindType(name)
}

// declare creates assemblies and type shells
func (b *builder) declare(doc *Document) error {
	b.reference = make(map[*codemodel.Assembly]bool)
	b.types = make(map[*codemodel.Assembly][]declaredType)

	for i := range doc.Assemblies {
		ad := &doc.Assemblies[i]
		if ad.Name == "" {
			return fmt.Errorf("assembly #%d has no name", i)
		}
		asm := codemodel.NewAssembly(ad.Name)
		if err := b.g.AddAssembly(asm); err != nil {
			return err
		}
		b.reference[asm] = ad.Reference

		for j := range ad.Types {
			t, err := b.declareType(asm, &ad.Types[j], nil)
			if err != nil {
				return fmt.Errorf("assembly %q: %w", ad.Name, err)
			}
			asm.MainModule().AddType(t)
		}
	}
	return nil
}

func (b *builder) declareType(asm *codemodel.Assembly, td *TypeDoc, outer *codemodel.Type) (*codemodel.Type, error) {
	if td.Name == "" {
		return nil, fmt.Errorf("type without a name")
	}
	kind := codemodel.TypeKindClass
	if td.Kind != "" {
		k, ok := codemodel.ParseTypeKind(td.Kind)
		if !ok {
			return nil, fmt.Errorf("type %q: unknown kind %q", td.Name, td.Kind)
		}
		kind = k
	}
	vis, err := visibility(td.Visibility, codemodel.VisibilityInternal)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", td.Name, err)
	}

	t := codemodel.NewType(td.Name, kind)
	t.Visibility = vis
	t.Abstract = td.Abstract || kind == codemodel.TypeKindInterface
	t.Sealed = td.Sealed
	t.GenericParameters = td.Generic
	b.types[asm] = append(b.types[asm], declaredType{doc: td, typ: t})

	if outer != nil {
		outer.AddNestedType(t)
	}
	for i := range td.Nested {
		if _, err := b.declareType(asm, &td.Nested[i], t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// define fills in references, supertypes, members and annotations
func (b *builder) define(doc *Document) error {
	for i := range doc.Assemblies {
		ad := &doc.Assemblies[i]
		asm := b.g.Assembly(ad.Name)
		module := asm.MainModule()

		for _, name := range ad.References {
			ref := b.g.Assembly(name)
			if ref == nil {
				return fmt.Errorf("assembly %q: unknown reference %q", ad.Name, name)
			}
			asm.AddReference(ref)
		}
		for _, name := range ad.TypeRefs {
			t := b.lookup(name)
			if t == nil {
				return fmt.Errorf("assembly %q: unknown type reference %q", ad.Name, name)
			}
			module.AddTypeRef(t)
		}
		if err := b.annotate(asm, ad.Attributes); err != nil {
			return fmt.Errorf("assembly %q: %w", ad.Name, err)
		}

		for _, dt := range b.types[asm] {
			if err := b.defineType(module, dt.typ, dt.doc); err != nil {
				return fmt.Errorf("assembly %q: type %q: %w", ad.Name, dt.typ.Name(), err)
			}
		}
	}
	return nil
}

func (b *builder) defineType(module *codemodel.Module, t *codemodel.Type, td *TypeDoc) error {
	if td.Base != "" {
		sig, err := parseSig(td.Base, b.lookup)
		if err != nil {
			return err
		}
		t.BaseType = sig
		b.trackExternal(module, sig)
	}
	for _, s := range td.Interfaces {
		sig, err := parseSig(s, b.lookup)
		if err != nil {
			return err
		}
		t.Interfaces = append(t.Interfaces, sig)
		b.trackExternal(module, sig)
	}
	if err := b.annotate(t, td.Attributes); err != nil {
		return err
	}

	for i := range td.Fields {
		if err := b.defineField(t, &td.Fields[i]); err != nil {
			return err
		}
	}
	for i := range td.Methods {
		if err := b.defineMethod(module, t, &td.Methods[i]); err != nil {
			return err
		}
	}
	for i := range td.Properties {
		if err := b.defineProperty(t, &td.Properties[i]); err != nil {
			return err
		}
	}
	for i := range td.Events {
		if err := b.defineEvent(t, &td.Events[i]); err != nil {
			return err
		}
	}
	return nil
}

// trackExternal records type references and instantiations of types defined
// outside module
func (b *builder) trackExternal(module *codemodel.Module, sig *codemodel.TypeSig) {
	if sig == nil || sig.Kind != codemodel.SigDefinition || sig.Type == nil {
		return
	}
	if sig.IsGenericInstance() {
		module.AddTypeSpec(sig)
		for _, arg := range sig.Args {
			b.trackExternal(module, arg)
		}
		return
	}
	if sig.Type.Module() != module {
		module.AddTypeRef(sig.Type)
	}
}

func (b *builder) defineField(t *codemodel.Type, fd *FieldDoc) error {
	sig, err := b.optionalSig(fd.Type)
	if err != nil {
		return fmt.Errorf("field %q: %w", fd.Name, err)
	}
	vis, err := visibility(fd.Visibility, codemodel.VisibilityPrivate)
	if err != nil {
		return fmt.Errorf("field %q: %w", fd.Name, err)
	}
	f := codemodel.NewField(fd.Name, sig)
	f.Visibility = vis
	f.Static = fd.Static
	f.Literal = fd.Literal
	t.AddField(f)
	return b.annotate(f, fd.Attributes)
}

func (b *builder) defineMethod(module *codemodel.Module, t *codemodel.Type, md *MethodDoc) error {
	vis, err := visibility(md.Visibility, codemodel.VisibilityPrivate)
	if err != nil {
		return fmt.Errorf("method %q: %w", md.Name, err)
	}
	m := codemodel.NewMethod(md.Name)
	m.Visibility = vis
	m.Static = md.Static
	m.Virtual = md.Virtual || md.Abstract || t.TypeKind == codemodel.TypeKindInterface
	m.Abstract = md.Abstract || t.TypeKind == codemodel.TypeKindInterface
	m.Final = md.Final
	m.NewSlot = md.NewSlot
	m.Unmanaged = md.Unmanaged
	m.GenericParameters = md.Generic
	t.AddMethod(m)

	if md.Returns != "" {
		sig, err := parseSig(md.Returns, b.lookup)
		if err != nil {
			return fmt.Errorf("method %q: %w", md.Name, err)
		}
		m.SetReturnType(sig)
	}
	for i := range md.Params {
		pd := &md.Params[i]
		sig, err := b.optionalSig(pd.Type)
		if err != nil {
			return fmt.Errorf("method %q: parameter %q: %w", md.Name, pd.Name, err)
		}
		b.trackExternal(module, sig)
		p := codemodel.NewParameter(pd.Name, sig)
		p.In = pd.In
		m.AddParameter(p)
		if err := b.annotate(p, pd.Attributes); err != nil {
			return fmt.Errorf("method %q: parameter %q: %w", md.Name, pd.Name, err)
		}
	}
	for _, ref := range md.Overrides {
		b.overrides = append(b.overrides, pendingOverride{method: m, ref: ref})
	}

	if err := b.annotate(m, md.Attributes); err != nil {
		return fmt.Errorf("method %q: %w", md.Name, err)
	}
	if err := b.annotate(m.ReturnValue(), md.ReturnAttributes); err != nil {
		return fmt.Errorf("method %q: return value: %w", md.Name, err)
	}
	return nil
}

func (b *builder) defineProperty(t *codemodel.Type, pd *PropertyDoc) error {
	getter, err := accessor(t, pd.Getter)
	if err != nil {
		return fmt.Errorf("property %q: %w", pd.Name, err)
	}
	setter, err := accessor(t, pd.Setter)
	if err != nil {
		return fmt.Errorf("property %q: %w", pd.Name, err)
	}
	sig, err := b.optionalSig(pd.Type)
	if err != nil {
		return fmt.Errorf("property %q: %w", pd.Name, err)
	}
	p := codemodel.NewProperty(pd.Name, getter, setter)
	p.Type = sig
	t.AddProperty(p)
	return b.annotate(p, pd.Attributes)
}

func (b *builder) defineEvent(t *codemodel.Type, ed *EventDoc) error {
	var accessors [3]*codemodel.Method
	for i, name := range []string{ed.Adder, ed.Remover, ed.Raiser} {
		m, err := accessor(t, name)
		if err != nil {
			return fmt.Errorf("event %q: %w", ed.Name, err)
		}
		accessors[i] = m
	}
	sig, err := b.optionalSig(ed.Type)
	if err != nil {
		return fmt.Errorf("event %q: %w", ed.Name, err)
	}
	e := codemodel.NewEvent(ed.Name, accessors[0], accessors[1])
	e.Raiser = accessors[2]
	e.Type = sig
	t.AddEvent(e)
	return b.annotate(e, ed.Attributes)
}

// linkOverrides resolves explicit overrides once every method exists.
// References have the form "Type::Method".
func (b *builder) linkOverrides() error {
	for _, po := range b.overrides {
		typeName, methodName, ok := strings.Cut(po.ref, "::")
		if !ok {
			return fmt.Errorf("method %s: override %q must have the form Type::Method", po.method.ID(), po.ref)
		}
		sig, err := parseSig(typeName, b.lookup)
		if err != nil {
			return fmt.Errorf("method %s: %w", po.method.ID(), err)
		}
		if sig.Kind != codemodel.SigDefinition {
			return fmt.Errorf("method %s: override %q does not name a known type", po.method.ID(), po.ref)
		}
		target := sig.Type.Method(methodName)
		if target == nil {
			return fmt.Errorf("method %s: override %q: no such method", po.method.ID(), po.ref)
		}
		po.method.Overrides = append(po.method.Overrides, codemodel.MethodRef{DeclaringType: sig, Method: target})
	}
	return nil
}

func (b *builder) optionalSig(s string) (*codemodel.TypeSig, error) {
	if s == "" {
		return codemodel.Named("object"), nil
	}
	return parseSig(s, b.lookup)
}

func (b *builder) annotate(d codemodel.Declaration, docs []AnnotationDoc) error {
	for i := range docs {
		a, err := b.annotation(&docs[i])
		if err != nil {
			return err
		}
		d.AddCustomAttribute(a)
	}
	return nil
}

// annotation builds an annotation. Types missing from the document are
// created in the synthetic assembly, which suits marker attributes.
func (b *builder) annotation(ad *AnnotationDoc) (*codemodel.Annotation, error) {
	if ad.Type == "" {
		return nil, fmt.Errorf("annotation without a type")
	}
	t := b.lookup(ad.Type)
	if t == nil {
		t = b.g.WellKnownType(ad.Type)
	}
	a := codemodel.NewAnnotation(t)

	for i := range ad.Args {
		v, err := b.value(&ad.Args[i])
		if err != nil {
			return nil, fmt.Errorf("annotation %s: argument %d: %w", ad.Type, i, err)
		}
		a.Args = append(a.Args, v)
	}

	switch ad.Named.Kind {
	case 0:
	case yaml.MappingNode:
		for i := 0; i+1 < len(ad.Named.Content); i += 2 {
			key := ad.Named.Content[i].Value
			v, err := b.value(ad.Named.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("annotation %s: %s: %w", ad.Type, key, err)
			}
			a.Set(key, v)
		}
	default:
		return nil, fmt.Errorf("annotation %s: named arguments must be a mapping (line %d)", ad.Type, ad.Named.Line)
	}
	return a, nil
}

// value converts a document node to an annotation value. Strings of the
// form typeof(Name) are type values.
func (b *builder) value(n *yaml.Node) (codemodel.Value, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		elems := make([]codemodel.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := b.value(c)
			if err != nil {
				return codemodel.Value{}, err
			}
			elems = append(elems, v)
		}
		return codemodel.ArrayValue(elems...), nil
	case yaml.ScalarNode:
	default:
		return codemodel.Value{}, fmt.Errorf("unsupported value at line %d", n.Line)
	}

	switch n.Tag {
	case "!!null":
		return codemodel.Value{Kind: codemodel.ValueNull}, nil
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return codemodel.Value{}, err
		}
		return codemodel.BoolValue(v), nil
	case "!!int":
		var v int64
		if err := n.Decode(&v); err != nil {
			return codemodel.Value{}, err
		}
		return codemodel.IntValue(v), nil
	case "!!str":
		if inner, ok := strings.CutPrefix(n.Value, "typeof("); ok && strings.HasSuffix(inner, ")") {
			sig, err := parseSig(strings.TrimSuffix(inner, ")"), b.lookup)
			if err != nil {
				return codemodel.Value{}, err
			}
			return codemodel.TypeValue(sig), nil
		}
		return codemodel.StringValue(n.Value), nil
	}
	return codemodel.Value{}, fmt.Errorf("unsupported %s value %q at line %d", n.Tag, n.Value, n.Line)
}

func accessor(t *codemodel.Type, name string) (*codemodel.Method, error) {
	if name == "" {
		return nil, nil
	}
	m := t.Method(name)
	if m == nil {
		return nil, fmt.Errorf("no accessor method %q on %s", name, t.Name())
	}
	return m, nil
}

func visibility(s string, def codemodel.Visibility) (codemodel.Visibility, error) {
	if s == "" {
		return def, nil
	}
	v, ok := codemodel.ParseVisibility(s)
	if !ok {
		return def, fmt.Errorf("unknown visibility %q", s)
	}
	return v, nil
}

package codemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample(t *testing.T) (*Graph, *Assembly, *Type) {
	t.Helper()

	g := NewGraph()
	asm := NewAssembly("Acme")
	require.NoError(t, g.AddAssembly(asm))

	base := asm.MainModule().AddType(NewType("Acme.Base", TypeKindClass))
	base.Visibility = VisibilityPublic
	run := base.AddMethod(NewMethod("Run", NewParameter("count", Named("int")), NewParameter("result", Named("string").Ref())))
	run.Virtual = true
	run.SetReturnType(Named("bool"))
	base.AddField(NewField("name", Named("string")))
	getter := NewMethod("get_Size")
	base.AddProperty(NewProperty("Size", getter, nil))
	base.AddNestedType(NewType("Acme.Base+Inner", TypeKindStruct))

	return g, asm, base
}

func TestDeclarationIDs(t *testing.T) {
	_, asm, base := buildSample(t)
	run := base.Method("Run")

	assert.Equal(t, "A:Acme", asm.ID())
	assert.Equal(t, "T:Acme.Base", base.ID())
	assert.Equal(t, "M:Acme.Base.Run(int,string&)", run.ID())
	assert.Equal(t, "M:Acme.Base.Run(int,string&)#result", run.Parameter("result").ID())
	assert.Equal(t, "M:Acme.Base.Run(int,string&)#return", run.ReturnValue().ID())
	assert.Equal(t, "F:Acme.Base.name", base.Field("name").ID())
	assert.Equal(t, "P:Acme.Base.Size", base.Property("Size").ID())
}

func TestModuleMembership(t *testing.T) {
	_, asm, base := buildSample(t)
	m := asm.MainModule()

	inner := base.NestedTypes()[0]
	assert.Same(t, m, inner.Module())
	assert.Same(t, m, base.Method("Run").Parameter("count").Module())
	assert.Equal(t, []*Type{base, inner}, m.AllTypes())
	assert.Same(t, inner, m.FindType("Acme.Base+Inner"))

	getter := base.Method("get_Size")
	require.NotNil(t, getter)
	assert.Same(t, base.Property("Size"), getter.SemanticOwner())
	assert.Same(t, base, DeclaringTypeOf(base.Method("Run").ReturnValue()))
}

func TestMethodKindAndOverridable(t *testing.T) {
	sealed := NewType("Acme.Sealed", TypeKindClass)
	sealed.Sealed = true
	m := sealed.AddMethod(NewMethod("Do"))
	m.Virtual = true

	assert.False(t, m.IsOverridable())
	assert.Equal(t, MethodKindInstanceConstructor, NewMethod(".ctor").MethodKind())
	assert.Equal(t, MethodKindStaticConstructor, NewMethod(".cctor").MethodKind())
	assert.Equal(t, MethodKindOrdinary, m.MethodKind())
}

func TestCustomAttributes(t *testing.T) {
	g, _, base := buildSample(t)
	marker := g.WellKnownType("Acme.MarkerAttribute")

	a := Attach(base, NewAnnotation(marker, IntValue(3)).Set("Flag", BoolValue(true)))
	assert.Same(t, base, a.Target())
	assert.True(t, HasAttribute(base, "Acme.MarkerAttribute"))

	clone := a.Clone()
	clone.Set("Flag", BoolValue(false))
	v, ok := a.Get("Flag")
	require.True(t, ok)
	assert.True(t, v.Bool)
	assert.Nil(t, clone.Target())
	assert.Equal(t, "[Acme.MarkerAttribute(3, Flag = true)]", a.String())

	assert.True(t, base.RemoveCustomAttribute(a))
	assert.False(t, base.RemoveCustomAttribute(a))
	assert.Empty(t, base.CustomAttributes())
}

func TestWellKnownTypeIsCreatedOnce(t *testing.T) {
	g := NewGraph()
	first := g.WellKnownType("PostSharp.Extensibility.HasInheritedAttributeAttribute")
	second := g.WellKnownType("PostSharp.Extensibility.HasInheritedAttributeAttribute")

	assert.Same(t, first, second)
	assert.Equal(t, SyntheticAssemblyName, first.Module().Assembly().Name())
}

func TestCompilerGenerated(t *testing.T) {
	g, _, base := buildSample(t)

	assert.False(t, IsCompilerGenerated(base))
	assert.True(t, IsCompilerGenerated(NewType("Acme.<>c", TypeKindClass)))

	m := base.Method("Run")
	Attach(m, NewAnnotation(g.WellKnownType(CompilerGeneratedAttributeName)))
	assert.True(t, IsCompilerGenerated(m))
}

func TestReferenceOrder(t *testing.T) {
	g := NewGraph()
	app := NewAssembly("App")
	lib := NewAssembly("Lib")
	core := NewAssembly("Core")
	lib.AddReference(core)
	app.AddReference(lib)
	app.AddReference(core)
	for _, a := range []*Assembly{app, lib, core} {
		require.NoError(t, g.AddAssembly(a))
	}
	require.Error(t, g.AddAssembly(NewAssembly("App")))

	order := g.ReferenceOrder()
	names := make([]string, len(order))
	for i, a := range order {
		names[i] = a.Name()
	}
	assert.Equal(t, []string{"Core", "Lib", "App"}, names)
}

func TestExternalTypes(t *testing.T) {
	lib := NewAssembly("Lib")
	list := lib.MainModule().AddType(NewType("Lib.List", TypeKindClass))
	list.GenericParameters = []string{"T"}
	helper := lib.MainModule().AddType(NewType("Lib.Helper", TypeKindClass))

	app := NewAssembly("App")
	local := app.MainModule().AddType(NewType("App.Local", TypeKindClass))
	m := app.MainModule()
	m.AddTypeRef(helper)
	m.AddTypeRef(helper)
	m.AddTypeSpec(TypeOf(list, Named("int")))
	m.AddTypeSpec(TypeOf(local))

	assert.Equal(t, []*Type{helper, list}, m.ExternalTypes())
}

func TestWalkModule(t *testing.T) {
	_, asm, _ := buildSample(t)

	var ids []string
	WalkModule(asm.MainModule(), func(d Declaration) {
		ids = append(ids, d.ID())
	})

	assert.Equal(t, []string{
		"A:Acme",
		"Mod:Acme.dll",
		"T:Acme.Base",
		"F:Acme.Base.name",
		"M:Acme.Base.Run(int,string&)",
		"M:Acme.Base.Run(int,string&)#count",
		"M:Acme.Base.Run(int,string&)#result",
		"M:Acme.Base.Run(int,string&)#return",
		"M:Acme.Base.get_Size()",
		"M:Acme.Base.get_Size()#return",
		"P:Acme.Base.Size",
		"T:Acme.Base+Inner",
	}, ids)
}

package multicast

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	cm "github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
)

var testRunID = uuid.MustParse("5b0d8f2e-8a3c-4c1e-9d55-0f6a1c2b3d4e")

type fixture struct {
	g         *cm.Graph
	core, app *cm.Assembly
	root      *cm.Type
	usage     *cm.Type
	rootUsage *cm.Annotation
}

// newFixture builds a graph with the multicast root type in PostSharp and an
// empty App assembly referencing it
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{g: cm.NewGraph(), core: cm.NewAssembly("PostSharp"), app: cm.NewAssembly("App")}

	cmod := f.core.MainModule()
	f.usage = cmod.AddType(cm.NewType(UsageTypeName, cm.TypeKindClass))
	f.usage.Visibility = cm.VisibilityPublic
	f.root = cmod.AddType(cm.NewType(RootTypeName, cm.TypeKindClass))
	f.root.Visibility = cm.VisibilityPublic
	f.root.Abstract = true
	f.rootUsage = cm.Attach(f.root, cm.NewAnnotation(f.usage, cm.IntValue(int64(TargetsAll))))

	f.app.AddReference(f.core)
	require.NoError(t, f.g.AddAssembly(f.core))
	require.NoError(t, f.g.AddAssembly(f.app))
	return f
}

func named(name string, v cm.Value) cm.NamedArg {
	return cm.NamedArg{Name: name, Value: v}
}

// aspect defines a concrete multicast annotation type with an optional usage
// declaration
func (f *fixture) aspect(name string, usage ...cm.NamedArg) *cm.Type {
	t := f.core.MainModule().AddType(cm.NewType(name, cm.TypeKindClass))
	t.Visibility = cm.VisibilityPublic
	t.BaseType = cm.TypeOf(f.root)
	if usage != nil {
		a := cm.NewAnnotation(f.usage)
		a.Named = usage
		cm.Attach(t, a)
	}
	return t
}

func (f *fixture) class(asm *cm.Assembly, name string) *cm.Type {
	t := asm.MainModule().AddType(cm.NewType(name, cm.TypeKindClass))
	t.Visibility = cm.VisibilityPublic
	return t
}

func publicMethod(t *cm.Type, name string, params ...*cm.Parameter) *cm.Method {
	m := cm.NewMethod(name, params...)
	m.Visibility = cm.VisibilityPublic
	return t.AddMethod(m)
}

func virtualMethod(t *cm.Type, name string, params ...*cm.Parameter) *cm.Method {
	m := publicMethod(t, name, params...)
	m.Virtual = true
	return m
}

func apply(d cm.Declaration, aspect *cm.Type, args ...cm.NamedArg) *cm.Annotation {
	a := cm.NewAnnotation(aspect)
	a.Named = args
	return cm.Attach(d, a)
}

func (f *fixture) resolve(asm *cm.Assembly) (*Result, error) {
	return New(f.g, asm.MainModule(), WithRunID(testRunID)).Execute()
}

func codes(list diagnostics.List) []diagnostics.Code {
	var out []diagnostics.Code
	for _, d := range list {
		out = append(out, d.Code)
	}
	return out
}

func priorities(bs []Binding) []int64 {
	var out []int64
	for _, b := range bs {
		v, _ := b.Annotation.Get(PropPriority)
		out = append(out, v.Int)
	}
	return out
}

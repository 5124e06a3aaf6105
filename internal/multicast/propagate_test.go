package multicast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cm "github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
)

// withLib adds a Lib assembly between PostSharp and App
func (f *fixture) withLib(t *testing.T) *cm.Assembly {
	t.Helper()
	lib := cm.NewAssembly("Lib")
	lib.AddReference(f.core)
	require.NoError(t, f.g.AddAssembly(lib))
	f.app.AddReference(lib)
	return lib
}

func TestImportTypeInstancesFromReferencedAssembly(t *testing.T) {
	f := newFixture(t)
	lib := f.withLib(t)
	marker := f.aspect("Aspects.Marker",
		named(UsageValidOn, cm.IntValue(int64(TargetClass))),
		named(UsageInheritance, cm.StringValue("Strict")))

	base := f.class(lib, "Lib.Entity")
	apply(base, marker)
	derived := f.class(f.app, "App.Customer")
	derived.BaseType = cm.TypeOf(base)
	unrelated := f.class(f.app, "App.Util")

	libRes, err := f.resolve(lib)
	require.NoError(t, err)
	require.Len(t, libRes.BindingsFor(base), 1)
	require.True(t, cm.HasAttribute(lib, HasInheritedAttributeName))

	res, err := f.resolve(f.app)
	require.NoError(t, err)
	bs := res.BindingsFor(derived)
	require.Len(t, bs, 1)
	assert.True(t, bs[0].Inherited)
	assert.Equal(t, libRes.BindingsFor(base)[0].InstanceID, bs[0].InstanceID)
	assert.Equal(t, base, bs[0].DeclaredOn)
	assert.Empty(t, res.BindingsFor(unrelated))

	// The derived type is public and open, so the instance is re-exported
	assert.Equal(t, StoragePooled, bs[0].Storage)
	assert.Len(t, res.ResolveReferences(derived), 1)
}

func TestImportMethodInstancesOntoOverrides(t *testing.T) {
	f := newFixture(t)
	lib := f.withLib(t)
	trace := f.aspect("Aspects.Trace",
		named(UsageValidOn, cm.IntValue(int64(TargetMethod|TargetParameter))),
		named(UsageInheritance, cm.StringValue("Strict")))

	base := f.class(lib, "Lib.Repository")
	base.GenericParameters = []string{"T"}
	save := virtualMethod(base, "Save", cm.NewParameter("item", cm.TypeParam(0)))
	apply(save, trace)

	derived := f.class(f.app, "App.OrderRepository")
	derived.BaseType = cm.TypeOf(base, cm.Named("Order"))
	override := virtualMethod(derived, "Save", cm.NewParameter("order", cm.Named("Order")))
	other := virtualMethod(derived, "Delete", cm.NewParameter("order", cm.Named("Order")))

	_, err := f.resolve(lib)
	require.NoError(t, err)
	require.True(t, cm.HasAttribute(save, HasInheritedAttributeName))
	require.True(t, cm.HasAttribute(base, HasInheritedAttributeName))

	res, err := f.resolve(f.app)
	require.NoError(t, err)
	require.Len(t, res.BindingsFor(override), 1)
	assert.True(t, res.BindingsFor(override)[0].Inherited)
	assert.Len(t, res.BindingsFor(override.Parameters()[0]), 1)
	assert.Empty(t, res.BindingsFor(other))
}

func TestImportStopsAtReexportingOverride(t *testing.T) {
	f := newFixture(t)
	lib := f.withLib(t)
	trace := f.aspect("Aspects.Trace",
		named(UsageValidOn, cm.IntValue(int64(TargetMethod))),
		named(UsageInheritance, cm.StringValue("Strict")))

	base := f.class(lib, "Lib.Base")
	run := virtualMethod(base, "Run")
	apply(run, trace)
	mid := f.class(lib, "Lib.Mid")
	mid.BaseType = cm.TypeOf(base)
	midRun := virtualMethod(mid, "Run")

	leaf := f.class(f.app, "App.Leaf")
	leaf.BaseType = cm.TypeOf(mid)
	leafRun := virtualMethod(leaf, "Run")

	libRes, err := f.resolve(lib)
	require.NoError(t, err)
	require.Len(t, libRes.BindingsFor(midRun), 1)
	require.True(t, cm.HasAttribute(midRun, HasInheritedAttributeName))

	res, err := f.resolve(f.app)
	require.NoError(t, err)
	require.Len(t, res.BindingsFor(leafRun), 1)
	assert.Equal(t, libRes.BindingsFor(run)[0].InstanceID, res.BindingsFor(leafRun)[0].InstanceID)
}

func TestImportAssemblyManifestInstances(t *testing.T) {
	f := newFixture(t)
	lib := f.withLib(t)
	audit := f.aspect("Aspects.Audit",
		named(UsageValidOn, cm.IntValue(int64(TargetClass))),
		named(UsageInheritance, cm.StringValue("Multicast")))

	libType := f.class(lib, "Lib.Service")
	apply(lib, audit)
	local := f.class(f.app, "App.Service")

	libRes, err := f.resolve(lib)
	require.NoError(t, err)
	require.Len(t, libRes.BindingsFor(libType), 1)
	require.Len(t, InheritedAnnotations(lib), 1)

	res, err := f.resolve(f.app)
	require.NoError(t, err)
	bs := res.BindingsFor(local)
	require.Len(t, bs, 1)
	assert.True(t, bs[0].Inherited)
	assert.Equal(t, lib, bs[0].DeclaredOn)
}

func TestUnmarkedAssembliesAreIgnored(t *testing.T) {
	f := newFixture(t)
	lib := f.withLib(t)
	marker := f.aspect("Aspects.Marker",
		named(UsageValidOn, cm.IntValue(int64(TargetClass))),
		named(UsageInheritance, cm.StringValue("Strict")))

	base := f.class(lib, "Lib.Entity")
	apply(base, marker)
	derived := f.class(f.app, "App.Customer")
	derived.BaseType = cm.TypeOf(base)

	// Lib is never resolved: its raw instance was not recorded for reuse
	res, err := f.resolve(f.app)
	require.NoError(t, err)
	assert.Empty(t, res.BindingsFor(derived))
}

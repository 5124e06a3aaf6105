package multicast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	cm "github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
)

func TestCompareTypeAttributes(t *testing.T) {
	pub := cm.NewType("App.Open", cm.TypeKindClass)
	pub.Visibility = cm.VisibilityPublic

	static := cm.NewType("App.Helpers", cm.TypeKindClass)
	static.Abstract = true
	static.Sealed = true

	iface := cm.NewType("App.IRun", cm.TypeKindInterface)
	iface.Visibility = cm.VisibilityPublic

	tests := []struct {
		name string
		mask Attributes
		typ  *cm.Type
		gen  bool
		want bool
	}{
		{"all accepts anything", AttrAll, static, true, true},
		{"public matches", AttrPublic.Complete(), pub, false, true},
		{"public rejects private", AttrPublic.Complete(), static, false, false},
		{"static type is not abstract", AttrAbstract.Complete(), static, false, false},
		{"static type is static", AttrStatic.Complete(), static, false, true},
		{"interfaces are abstract", AttrAbstract.Complete(), iface, false, true},
		{"user generated only", AttrUserGenerated.Complete(), pub, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareTypeAttributes(tt.mask, tt.typ, tt.gen))
		})
	}
}

func TestCompareMethodAttributes(t *testing.T) {
	m := cm.NewMethod("Run")
	m.Visibility = cm.VisibilityProtected
	m.Virtual = true

	assert.True(t, compareMethodAttributes((AttrProtected | AttrVirtual).Complete(), m, false))
	assert.False(t, compareMethodAttributes(AttrNonVirtual.Complete(), m, false))
	assert.False(t, compareMethodAttributes((AttrPublic | AttrVirtual).Complete(), m, false),
		"every constrained group must match")
}

func TestAccessorViewTakesWidestVisibility(t *testing.T) {
	get := cm.NewMethod("get_Name")
	get.Visibility = cm.VisibilityPublic
	set := cm.NewMethod("set_Name")
	set.Visibility = cm.VisibilityPrivate

	v := viewOfAccessors([]*cm.Method{set, get})
	assert.Equal(t, cm.VisibilityPublic, v.visibility)
	assert.True(t, compareMethodView(AttrPublic.Complete(), v, false))
}

func TestCompareFieldAttributes(t *testing.T) {
	f := cm.NewField("Max", cm.Named("int"))
	f.Literal = true
	f.Static = true

	assert.True(t, compareFieldAttributes(AttrLiteral.Complete(), f, false))
	assert.False(t, compareFieldAttributes(AttrNonLiteral.Complete(), f, false))
	assert.False(t, compareFieldAttributes(AttrInstance.Complete(), f, false))
}

func TestParameterDirection(t *testing.T) {
	in := cm.NewParameter("a", cm.Named("int"))
	out := cm.NewParameter("b", cm.Named("int").Ref())
	ref := cm.NewParameter("c", cm.Named("int").Ref())
	ref.In = true

	assert.Equal(t, AttrInParameter, parameterDirection(in))
	assert.Equal(t, AttrOutParameter, parameterDirection(out))
	assert.Equal(t, AttrRefParameter, parameterDirection(ref))

	assert.True(t, compareParameterAttributes(AttrRefParameter.Complete(), ref))
	assert.False(t, compareParameterAttributes(AttrRefParameter.Complete(), out))
}

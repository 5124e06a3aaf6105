package codemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeSigString(t *testing.T) {
	list := NewType("Acme.List", TypeKindClass)
	list.GenericParameters = []string{"T"}

	tests := []struct {
		name string
		sig  *TypeSig
		want string
	}{
		{"named", Named("int"), "int"},
		{"by ref", Named("int").Ref(), "int&"},
		{"type param", TypeParam(0), "!0"},
		{"method param", MethodTypeParam(1), "!!1"},
		{"open definition", TypeOf(list), "Acme.List"},
		{"instance", TypeOf(list, Named("string")), "Acme.List<string>"},
		{"nested instance", TypeOf(list, TypeOf(list, TypeParam(0))), "Acme.List<Acme.List<!0>>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sig.String())
		})
	}
}

func TestTypeSigEqual(t *testing.T) {
	list := NewType("Acme.List", TypeKindClass)
	other := NewType("Acme.Other", TypeKindClass)

	assert.True(t, Named("int").Equal(Named("int")))
	assert.False(t, Named("int").Equal(Named("int").Ref()))
	assert.False(t, TypeParam(0).Equal(MethodTypeParam(0)))
	assert.True(t, TypeOf(list, Named("int")).Equal(TypeOf(list, Named("int"))))
	assert.False(t, TypeOf(list, Named("int")).Equal(TypeOf(list, Named("long"))))
	assert.False(t, TypeOf(list).Equal(TypeOf(other)))
	assert.True(t, (*TypeSig)(nil).Equal(nil))
	assert.False(t, Named("int").Equal(nil))
}

func TestSubstitute(t *testing.T) {
	list := NewType("Acme.List", TypeKindClass)
	m := GenericMap{Named("int")}

	assert.Equal(t, "int", TypeParam(0).Substitute(m).String())
	assert.Equal(t, "int&", TypeParam(0).Ref().Substitute(m).String())
	assert.Equal(t, "Acme.List<int>", TypeOf(list, TypeParam(0)).Substitute(m).String())
	assert.Equal(t, "!!0", MethodTypeParam(0).Substitute(m).String())
	assert.Equal(t, "!1", TypeParam(1).Substitute(m).String())

	sig := TypeParam(0)
	assert.Same(t, sig, sig.Substitute(nil))
}

func TestGenericMapCompose(t *testing.T) {
	// C : B<string>, B<U> : A<U>  =>  A's T maps to string in C
	bToA := GenericMap{TypeParam(0)}
	cToB := GenericMap{Named("string")}

	cToA := bToA.Compose(cToB)
	assert.Equal(t, "<string>", cToA.String())

	var identity GenericMap
	assert.Equal(t, cToB, identity.Compose(cToB))
}

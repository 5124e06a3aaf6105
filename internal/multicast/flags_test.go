package multicast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cm "github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
)

func TestParseTargets(t *testing.T) {
	tests := []struct {
		in   string
		want Targets
	}{
		{"Method", TargetMethod},
		{"method | field", TargetMethod | TargetField},
		{"Class,Struct", TargetClass | TargetStruct},
		{"Types", TargetsTypes},
		{"All", TargetsAll},
		{"64", TargetMethod},
		{"", TargetsNone},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTargets(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseTargets("Method|Nope")
	assert.Error(t, err)
}

func TestTargetsString(t *testing.T) {
	assert.Equal(t, "None", TargetsNone.String())
	assert.Equal(t, "All", TargetsAll.String())
	assert.Equal(t, "Field|Method", (TargetMethod | TargetField).String())
}

func TestAttributesMergeUnset(t *testing.T) {
	parent := AttrPublic | AttrStatic
	got := AttrPrivate.MergeUnset(parent)

	assert.Equal(t, AttrPrivate, got&AnyVisibility, "set groups are kept")
	assert.Equal(t, AttrStatic, got&AnyScope, "unset groups come from the parent")
	assert.Zero(t, got&AnyVirtuality)
}

func TestAttributesComplete(t *testing.T) {
	assert.Equal(t, AttrAll, AttrDefault.Complete())

	got := AttrPublic.Complete()
	assert.Equal(t, AttrPublic, got&AnyVisibility)
	assert.Equal(t, AnyScope, got&AnyScope)
}

func TestAttributesExceeding(t *testing.T) {
	allowed := AttrPublic | AttrProtected
	assert.Zero(t, AttrPublic.Exceeding(allowed))
	assert.Equal(t, AttrPrivate, (AttrPublic | AttrPrivate).Exceeding(allowed))
	assert.Zero(t, AttrStatic.Exceeding(allowed), "groups left open by the usage accept any bit")
}

func TestParseAttributes(t *testing.T) {
	got, err := ParseAttributes("Public|Static")
	require.NoError(t, err)
	assert.Equal(t, AttrPublic|AttrStatic, got)

	got, err = ParseAttributes("Default")
	require.NoError(t, err)
	assert.Equal(t, AttrDefault, got)

	assert.Equal(t, "Public|Static", (AttrPublic | AttrStatic).String())
	assert.Equal(t, "All", AttrAll.String())
}

func TestInheritanceValues(t *testing.T) {
	for in, want := range map[string]Inheritance{
		"none":      InheritanceNone,
		"Strict":    InheritanceStrict,
		"MULTICAST": InheritanceMulticast,
		"2":         InheritanceMulticast,
	} {
		got, err := ParseInheritance(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := inheritanceValue(cm.IntValue(7))
	assert.Error(t, err)
	got, err := inheritanceValue(cm.IntValue(1))
	require.NoError(t, err)
	assert.Equal(t, InheritanceStrict, got)
	assert.Equal(t, InheritanceStrict, minInheritance(InheritanceMulticast, InheritanceStrict))
}

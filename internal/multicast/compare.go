package multicast

import (
	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
)

// Attribute comparison is an AND over the axes relevant to the declaration
// kind of an OR over the bits of each axis. A sub-mask with no bit set
// rejects every declaration; a mask equal to AttrAll accepts every one.

func matchAxis(mask, group, actual Attributes) bool {
	return mask&group&actual != 0
}

func visibilityBit(v codemodel.Visibility) Attributes {
	switch v {
	case codemodel.VisibilityPublic:
		return AttrPublic
	case codemodel.VisibilityProtected:
		return AttrProtected
	case codemodel.VisibilityInternal:
		return AttrInternal
	case codemodel.VisibilityPrivateProtected:
		return AttrInternalAndProtected
	case codemodel.VisibilityProtectedInternal:
		return AttrInternalOrProtected
	}
	return AttrPrivate
}

func pick(cond bool, yes, no Attributes) Attributes {
	if cond {
		return yes
	}
	return no
}

func compareTypeAttributes(mask Attributes, t *codemodel.Type, generated bool) bool {
	if mask == AttrAll {
		return true
	}
	abstract := t.TypeKind == codemodel.TypeKindInterface || (t.Abstract && !t.IsStatic())
	return matchAxis(mask, AnyVisibility, visibilityBit(t.Visibility)) &&
		matchAxis(mask, AnyScope, pick(t.IsStatic(), AttrStatic, AttrInstance)) &&
		matchAxis(mask, AnyAbstraction, pick(abstract, AttrAbstract, AttrNonAbstract)) &&
		matchAxis(mask, AnyGeneration, pick(generated, AttrCompilerGenerated, AttrUserGenerated))
}

// methodView is the structural shape compared for methods and for the
// properties and events grouping them
type methodView struct {
	visibility codemodel.Visibility
	static     bool
	virtual    bool
	abstract   bool
	unmanaged  bool
}

func viewOfMethod(m *codemodel.Method) methodView {
	return methodView{
		visibility: m.Visibility,
		static:     m.Static,
		virtual:    m.Virtual,
		abstract:   m.Abstract,
		unmanaged:  m.Unmanaged,
	}
}

// viewOfAccessors takes the widest visibility and the shape of the first accessor
func viewOfAccessors(accessors []*codemodel.Method) methodView {
	if len(accessors) == 0 {
		return methodView{}
	}
	v := viewOfMethod(accessors[0])
	for _, acc := range accessors[1:] {
		if acc.Visibility > v.visibility {
			v.visibility = acc.Visibility
		}
	}
	return v
}

func compareMethodView(mask Attributes, v methodView, generated bool) bool {
	if mask == AttrAll {
		return true
	}
	return matchAxis(mask, AnyVisibility, visibilityBit(v.visibility)) &&
		matchAxis(mask, AnyScope, pick(v.static, AttrStatic, AttrInstance)) &&
		matchAxis(mask, AnyVirtuality, pick(v.virtual, AttrVirtual, AttrNonVirtual)) &&
		matchAxis(mask, AnyAbstraction, pick(v.abstract, AttrAbstract, AttrNonAbstract)) &&
		matchAxis(mask, AnyImplementation, pick(v.unmanaged, AttrNonManaged, AttrManaged)) &&
		matchAxis(mask, AnyGeneration, pick(generated, AttrCompilerGenerated, AttrUserGenerated))
}

func compareMethodAttributes(mask Attributes, m *codemodel.Method, generated bool) bool {
	return compareMethodView(mask, viewOfMethod(m), generated)
}

func compareFieldAttributes(mask Attributes, f *codemodel.Field, generated bool) bool {
	if mask == AttrAll {
		return true
	}
	return matchAxis(mask, AnyVisibility, visibilityBit(f.Visibility)) &&
		matchAxis(mask, AnyScope, pick(f.Static, AttrStatic, AttrInstance)) &&
		matchAxis(mask, AnyLiterality, pick(f.Literal, AttrLiteral, AttrNonLiteral)) &&
		matchAxis(mask, AnyGeneration, pick(generated, AttrCompilerGenerated, AttrUserGenerated))
}

// parameterDirection classifies a parameter: not by-ref is in, by-ref
// without the In flag is out, by-ref with the In flag is ref
func parameterDirection(p *codemodel.Parameter) Attributes {
	if !p.IsByRef() {
		return AttrInParameter
	}
	if p.In {
		return AttrRefParameter
	}
	return AttrOutParameter
}

func compareParameterAttributes(mask Attributes, p *codemodel.Parameter) bool {
	if mask == AttrAll {
		return true
	}
	return matchAxis(mask, AnyParameter, parameterDirection(p))
}

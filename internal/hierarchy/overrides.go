package hierarchy

import (
	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
)

// FindOverride returns the method of derived that overrides or implements
// base, or nil. m maps the generic parameters of base's declaring type into
// derived's context. Explicit implementations take precedence over matches by
// name and signature.
func FindOverride(base *codemodel.Method, derived *codemodel.Type, m codemodel.GenericMap) *codemodel.Method {
	declaring := base.DeclaringType()
	if declaring == nil {
		return nil
	}

	// Explicit implementations
	for _, candidate := range derived.Methods() {
		for _, ref := range candidate.Overrides {
			if ref.Method == base {
				return candidate
			}
		}
	}

	isInterface := declaring.TypeKind == codemodel.TypeKindInterface
	for _, candidate := range derived.Methods() {
		if candidate.Name() != base.Name() || candidate.Static || !candidate.Virtual {
			continue
		}
		if isInterface {
			if candidate.Visibility != codemodel.VisibilityPublic {
				continue
			}
		} else if candidate.NewSlot {
			continue
		}
		if SignatureMatches(base, candidate, m) {
			return candidate
		}
	}
	return nil
}

// SignatureMatches compares the generic arity, parameter types and return
// type of base, substituted through m, with those of candidate
func SignatureMatches(base, candidate *codemodel.Method, m codemodel.GenericMap) bool {
	if len(base.GenericParameters) != len(candidate.GenericParameters) {
		return false
	}
	baseParams := base.Parameters()
	params := candidate.Parameters()
	if len(baseParams) != len(params) {
		return false
	}
	for i := range baseParams {
		if !baseParams[i].Type.Substitute(m).Equal(params[i].Type) {
			return false
		}
	}
	return base.ReturnValue().Type.Substitute(m).Equal(candidate.ReturnValue().Type)
}

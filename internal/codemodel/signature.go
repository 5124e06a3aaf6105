package codemodel

import (
	"strconv"
	"strings"
)

// SigKind discriminates TypeSig
type SigKind int

const (
	// SigDefinition references a type definition, possibly instantiated with Args
	SigDefinition SigKind = iota
	// SigNamed is a type outside the graph, compared by name
	SigNamed
	// SigTypeParameter is a generic parameter of the enclosing type (!n)
	SigTypeParameter
	// SigMethodParameter is a generic parameter of the enclosing method (!!n)
	SigMethodParameter
)

// TypeSig is a type as it appears in a signature
type TypeSig struct {
	Kind     SigKind
	Type     *Type
	Name     string
	Position int
	Args     []*TypeSig
	ByRef    bool
}

// TypeOf references a definition, instantiated when args are given
func TypeOf(t *Type, args ...*TypeSig) *TypeSig {
	return &TypeSig{Kind: SigDefinition, Type: t, Args: args}
}

// Named references a type outside the graph, such as a primitive
func Named(name string) *TypeSig {
	return &TypeSig{Kind: SigNamed, Name: name}
}

// TypeParam references the generic type parameter at position
func TypeParam(position int) *TypeSig {
	return &TypeSig{Kind: SigTypeParameter, Position: position}
}

// MethodTypeParam references the generic method parameter at position
func MethodTypeParam(position int) *TypeSig {
	return &TypeSig{Kind: SigMethodParameter, Position: position}
}

// Ref returns a by-reference copy of s
func (s *TypeSig) Ref() *TypeSig {
	c := *s
	c.ByRef = true
	return &c
}

// IsGenericInstance reports whether s instantiates a generic definition
func (s *TypeSig) IsGenericInstance() bool {
	return s.Kind == SigDefinition && len(s.Args) > 0
}

// String renders the signature the way ids embed it
func (s *TypeSig) String() string {
	if s == nil {
		return "?"
	}
	var b strings.Builder
	switch s.Kind {
	case SigDefinition:
		if s.Type != nil {
			b.WriteString(s.Type.fullName)
		}
		if len(s.Args) > 0 {
			b.WriteByte('<')
			for i, a := range s.Args {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(a.String())
			}
			b.WriteByte('>')
		}
	case SigNamed:
		b.WriteString(s.Name)
	case SigTypeParameter:
		b.WriteString("!" + strconv.Itoa(s.Position))
	case SigMethodParameter:
		b.WriteString("!!" + strconv.Itoa(s.Position))
	}
	if s.ByRef {
		b.WriteByte('&')
	}
	return b.String()
}

// Equal compares two signatures structurally
func (s *TypeSig) Equal(o *TypeSig) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Kind != o.Kind || s.ByRef != o.ByRef {
		return false
	}
	switch s.Kind {
	case SigDefinition:
		if s.Type != o.Type || len(s.Args) != len(o.Args) {
			return false
		}
		for i := range s.Args {
			if !s.Args[i].Equal(o.Args[i]) {
				return false
			}
		}
		return true
	case SigNamed:
		return s.Name == o.Name
	default:
		return s.Position == o.Position
	}
}

// Substitute replaces generic type parameters using m. Method parameters are
// left untouched.
func (s *TypeSig) Substitute(m GenericMap) *TypeSig {
	if s == nil || m == nil {
		return s
	}
	switch s.Kind {
	case SigTypeParameter:
		if s.Position < len(m) && m[s.Position] != nil {
			out := *m[s.Position]
			out.ByRef = out.ByRef || s.ByRef
			return &out
		}
		return s
	case SigDefinition:
		if len(s.Args) == 0 {
			return s
		}
		out := *s
		out.Args = make([]*TypeSig, len(s.Args))
		for i, a := range s.Args {
			out.Args[i] = a.Substitute(m)
		}
		return &out
	}
	return s
}

// GenericMap maps the generic parameters of a supertype, by position, into
// the context of a subtype. A nil map is the identity.
type GenericMap []*TypeSig

// Compose returns the map from the same supertype into the context that outer
// maps into
func (m GenericMap) Compose(outer GenericMap) GenericMap {
	if m == nil {
		return outer
	}
	out := make(GenericMap, len(m))
	for i, sig := range m {
		out[i] = sig.Substitute(outer)
	}
	return out
}

// String renders the map as a list of arguments
func (m GenericMap) String() string {
	parts := make([]string, len(m))
	for i, sig := range m {
		parts[i] = sig.String()
	}
	return "<" + strings.Join(parts, ",") + ">"
}

// Package hierarchy maintains the reverse inheritance index of a declaration
// graph: for each type, the types that name it as base class or interface.
package hierarchy

import (
	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
)

// DerivedTypeInfo is a type reachable from a base type through inheritance,
// with the generic map from the base's parameters into its context
type DerivedTypeInfo struct {
	Type *codemodel.Type
	Map  codemodel.GenericMap
}

// Index is an additive reverse index of the inheritance graph. It is owned by
// one resolution pass and is not safe for concurrent use.
type Index struct {
	nodes map[*codemodel.Type]*node
}

type node struct {
	indexed  bool
	children []edge
}

// edge records a child type and the supertype signature it declares
type edge struct {
	child *codemodel.Type
	sig   *codemodel.TypeSig
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{nodes: make(map[*codemodel.Type]*node)}
}

func (ix *Index) node(t *codemodel.Type) *node {
	n, ok := ix.nodes[t]
	if !ok {
		n = &node{}
		ix.nodes[t] = n
	}
	return n
}

// Index registers t as a child of its base type and interfaces, then
// recursively indexes those ancestors. Indexing a type twice is a no-op.
func (ix *Index) Index(t *codemodel.Type) {
	n := ix.node(t)
	if n.indexed {
		return
	}
	n.indexed = true

	for _, sig := range t.Supertypes() {
		if sig.Kind != codemodel.SigDefinition || sig.Type == nil {
			continue
		}
		parent := ix.node(sig.Type)
		parent.children = append(parent.children, edge{child: t, sig: sig})
		ix.Index(sig.Type)
	}
}

// IndexModule indexes every type of m, nested types included
func (ix *Index) IndexModule(m *codemodel.Module) {
	for _, t := range m.AllTypes() {
		ix.Index(t)
	}
}

// IsIndexed reports whether t has been indexed
func (ix *Index) IsIndexed(t *codemodel.Type) bool {
	n, ok := ix.nodes[t]
	return ok && n.indexed
}

// Children returns the types that directly derive from or implement base,
// each with the generic map declared on the inheritance edge
func (ix *Index) Children(base *codemodel.Type) []DerivedTypeInfo {
	n, ok := ix.nodes[base]
	if !ok {
		return nil
	}
	out := make([]DerivedTypeInfo, 0, len(n.children))
	for _, e := range n.children {
		out = append(out, DerivedTypeInfo{Type: e.child, Map: edgeMap(e)})
	}
	return out
}

// DerivedTypes returns the types deriving from base. With deep set the full
// transitive closure is returned in breadth-first order. A non-nil module
// restricts the result to types defined in that module; traversal still
// passes through types of other modules.
func (ix *Index) DerivedTypes(base *codemodel.Type, deep bool, module *codemodel.Module) []*codemodel.Type {
	var out []*codemodel.Type
	for _, info := range ix.walk(base, deep) {
		if module == nil || info.Type.Module() == module {
			out = append(out, info.Type)
		}
	}
	return out
}

// DerivedTypeInfos returns the transitive closure of types deriving from
// base, each with the generic map composed along the inheritance path
func (ix *Index) DerivedTypeInfos(base *codemodel.Type) []DerivedTypeInfo {
	return ix.walk(base, true)
}

// walk performs the breadth-first traversal shared by the queries. Types
// reachable by several paths are reported once, on the first path found.
func (ix *Index) walk(base *codemodel.Type, deep bool) []DerivedTypeInfo {
	var result []DerivedTypeInfo

	visited := map[*codemodel.Type]bool{base: true}
	queue := []DerivedTypeInfo{{Type: base}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		n, ok := ix.nodes[current.Type]
		if !ok {
			continue
		}

		for _, e := range n.children {
			if visited[e.child] {
				continue
			}
			visited[e.child] = true

			info := DerivedTypeInfo{
				Type: e.child,
				Map:  current.Map.Compose(edgeMap(e)),
			}
			result = append(result, info)

			if deep {
				queue = append(queue, info)
			}
		}
	}

	return result
}

// edgeMap returns the generic arguments of the edge, or nil for a
// non-generic supertype
func edgeMap(e edge) codemodel.GenericMap {
	if len(e.sig.Args) == 0 {
		return nil
	}
	return codemodel.GenericMap(e.sig.Args)
}

// Package annotations indexes the custom attributes of a declaration graph
// by exact annotation type and by target declaration.
package annotations

import (
	"sort"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/hierarchy"
)

// Repository holds annotation instances indexed for resolution. It is owned
// by one resolution pass and is not safe for concurrent use.
type Repository struct {
	index *hierarchy.Index

	// Pre-computed indexes, maintained on every mutation
	byType   map[*codemodel.Type][]*codemodel.Annotation
	byTarget map[codemodel.Declaration][]*codemodel.Annotation

	// Annotation types whose own annotations have been indexed
	visited map[*codemodel.Type]bool

	// Derived-type unions, computed lazily and dropped on mutation
	derived map[*codemodel.Type][]*codemodel.Annotation
}

// New creates an empty repository registering annotation types in index
func New(index *hierarchy.Index) *Repository {
	return &Repository{
		index:    index,
		byType:   make(map[*codemodel.Type][]*codemodel.Annotation),
		byTarget: make(map[codemodel.Declaration][]*codemodel.Annotation),
		visited:  make(map[*codemodel.Type]bool),
		derived:  make(map[*codemodel.Type][]*codemodel.Annotation),
	}
}

// Index returns the hierarchy index annotation types are registered in
func (r *Repository) Index() *hierarchy.Index { return r.index }

// Add indexes a by type and by target. The first time an annotation type is
// seen, the annotations on that type and on its base classes are indexed as
// well, stopping at the first base already visited.
func (r *Repository) Add(a *codemodel.Annotation) {
	r.byType[a.Type] = append(r.byType[a.Type], a)
	if target := a.Target(); target != nil {
		r.byTarget[target] = append(r.byTarget[target], a)
	}
	r.invalidate()
	r.visitType(a.Type)
}

// visitType indexes the meta-annotations of an annotation type and its bases
func (r *Repository) visitType(t *codemodel.Type) {
	for cur := t; cur != nil && !r.visited[cur]; {
		r.visited[cur] = true
		r.index.Index(cur)

		for _, meta := range cur.CustomAttributes() {
			if !r.contains(meta) {
				r.Add(meta)
			}
		}

		if cur.BaseType == nil || cur.BaseType.Kind != codemodel.SigDefinition {
			return
		}
		cur = cur.BaseType.Type
	}
}

// Remove reverses the indexing of a. It returns false when a was not indexed.
func (r *Repository) Remove(a *codemodel.Annotation) bool {
	list, ok := r.byType[a.Type]
	if !ok {
		return false
	}
	updated, found := without(list, a)
	if !found {
		return false
	}
	r.byType[a.Type] = updated
	if target := a.Target(); target != nil {
		r.byTarget[target], _ = without(r.byTarget[target], a)
	}
	r.invalidate()
	return true
}

// Query returns the instances of t, and of every type deriving from t when
// includeDerived is set. The returned slice is a copy.
func (r *Repository) Query(t *codemodel.Type, includeDerived bool) []*codemodel.Annotation {
	if !includeDerived {
		return copyList(r.byType[t])
	}

	if cached, ok := r.derived[t]; ok {
		return copyList(cached)
	}

	union := copyList(r.byType[t])
	for _, d := range r.index.DerivedTypes(t, true, nil) {
		union = append(union, r.byType[d]...)
	}
	r.derived[t] = union
	return copyList(union)
}

// OnTarget returns the instances attached to d
func (r *Repository) OnTarget(d codemodel.Declaration) []*codemodel.Annotation {
	return copyList(r.byTarget[d])
}

// OnTargetOfType returns the instances of exactly type t attached to d
func (r *Repository) OnTargetOfType(d codemodel.Declaration, t *codemodel.Type) []*codemodel.Annotation {
	var out []*codemodel.Annotation
	for _, a := range r.byTarget[d] {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// AnnotationTypes returns every type with at least one indexed instance,
// sorted by full name
func (r *Repository) AnnotationTypes() []*codemodel.Type {
	out := make([]*codemodel.Type, 0, len(r.byType))
	for t, list := range r.byType {
		if len(list) > 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ScanModule indexes the annotations of every declaration of m
func (r *Repository) ScanModule(m *codemodel.Module) {
	codemodel.WalkModule(m, r.ScanDeclaration)
}

// ScanDeclaration indexes the annotations attached to d
func (r *Repository) ScanDeclaration(d codemodel.Declaration) {
	for _, a := range d.CustomAttributes() {
		if !r.contains(a) {
			r.Add(a)
		}
	}
}

func (r *Repository) contains(a *codemodel.Annotation) bool {
	for _, existing := range r.byType[a.Type] {
		if existing == a {
			return true
		}
	}
	return false
}

func (r *Repository) invalidate() {
	if len(r.derived) > 0 {
		r.derived = make(map[*codemodel.Type][]*codemodel.Annotation)
	}
}

func without(list []*codemodel.Annotation, a *codemodel.Annotation) ([]*codemodel.Annotation, bool) {
	for i, existing := range list {
		if existing == a {
			out := make([]*codemodel.Annotation, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
	}
	return list, false
}

func copyList(list []*codemodel.Annotation) []*codemodel.Annotation {
	if len(list) == 0 {
		return nil
	}
	out := make([]*codemodel.Annotation, len(list))
	copy(out, list)
	return out
}

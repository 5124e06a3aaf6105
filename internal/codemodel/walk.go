package codemodel

// WalkModule calls fn for every declaration of m: the assembly manifest when m
// is the main module, the module itself, then each type followed by its
// members, parameters and return values, in declaration order
func WalkModule(m *Module, fn func(Declaration)) {
	if m.assembly != nil && m.assembly.MainModule() == m {
		fn(m.assembly)
	}
	fn(m)
	for _, t := range m.AllTypes() {
		WalkType(t, fn)
	}
}

// WalkType calls fn for t and every member declared directly in t
func WalkType(t *Type, fn func(Declaration)) {
	fn(t)
	for _, f := range t.fields {
		fn(f)
	}
	for _, m := range t.methods {
		fn(m)
		for _, p := range m.parameters {
			fn(p)
		}
		fn(m.returnValue)
	}
	for _, p := range t.properties {
		fn(p)
	}
	for _, e := range t.events {
		fn(e)
	}
}

package codemodel

// CompilerGeneratedAttributeName is the marker compilers put on synthesized declarations
const CompilerGeneratedAttributeName = "System.Runtime.CompilerServices.CompilerGeneratedAttribute"

// Attach adds a to d and returns a, for building graphs fluently
func Attach(d Declaration, a *Annotation) *Annotation {
	d.AddCustomAttribute(a)
	return a
}

package codemodel

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates Value
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueInt
	ValueString
	ValueType
	ValueArray
)

// Value is a constructor or named argument of an annotation
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Str   string
	Type  *TypeSig
	Elems []Value
}

// BoolValue creates a boolean value
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// IntValue creates an integer (or enumeration) value
func IntValue(i int64) Value { return Value{Kind: ValueInt, Int: i} }

// StringValue creates a string value
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// TypeValue creates a type value
func TypeValue(sig *TypeSig) Value { return Value{Kind: ValueType, Type: sig} }

// ArrayValue creates an array value
func ArrayValue(elems ...Value) Value { return Value{Kind: ValueArray, Elems: elems} }

// String renders the value as it would appear in source
func (v Value) String() string {
	switch v.Kind {
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueString:
		return strconv.Quote(v.Str)
	case ValueType:
		return "typeof(" + v.Type.String() + ")"
	case ValueArray:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "null"
}

func (v Value) clone() Value {
	if v.Kind != ValueArray {
		return v
	}
	out := v
	out.Elems = make([]Value, len(v.Elems))
	for i, e := range v.Elems {
		out.Elems[i] = e.clone()
	}
	return out
}

// NamedArg is a property assignment of an annotation
type NamedArg struct {
	Name  string
	Value Value
}

// Annotation is a custom attribute instance attached to a declaration
type Annotation struct {
	Type  *Type
	Args  []Value
	Named []NamedArg

	target Declaration
}

// NewAnnotation creates an unattached annotation
func NewAnnotation(t *Type, args ...Value) *Annotation {
	return &Annotation{Type: t, Args: args}
}

// Target returns the declaration the annotation is attached to
func (a *Annotation) Target() Declaration { return a.target }

// Get returns the named argument with the given name
func (a *Annotation) Get(name string) (Value, bool) {
	for _, n := range a.Named {
		if n.Name == name {
			return n.Value, true
		}
	}
	return Value{}, false
}

// Set assigns a named argument, replacing any previous assignment
func (a *Annotation) Set(name string, v Value) *Annotation {
	for i := range a.Named {
		if a.Named[i].Name == name {
			a.Named[i].Value = v
			return a
		}
	}
	a.Named = append(a.Named, NamedArg{Name: name, Value: v})
	return a
}

// Unset removes a named argument
func (a *Annotation) Unset(name string) {
	for i := range a.Named {
		if a.Named[i].Name == name {
			a.Named = append(a.Named[:i], a.Named[i+1:]...)
			return
		}
	}
}

// Clone returns an unattached deep copy
func (a *Annotation) Clone() *Annotation {
	out := &Annotation{Type: a.Type}
	out.Args = make([]Value, len(a.Args))
	for i, v := range a.Args {
		out.Args[i] = v.clone()
	}
	out.Named = make([]NamedArg, len(a.Named))
	for i, n := range a.Named {
		out.Named[i] = NamedArg{Name: n.Name, Value: n.Value.clone()}
	}
	return out
}

// String renders the annotation as it would appear in source
func (a *Annotation) String() string {
	parts := make([]string, 0, len(a.Args)+len(a.Named))
	for _, v := range a.Args {
		parts = append(parts, v.String())
	}
	for _, n := range a.Named {
		parts = append(parts, fmt.Sprintf("%s = %s", n.Name, n.Value))
	}
	name := "?"
	if a.Type != nil {
		name = a.Type.fullName
	}
	return fmt.Sprintf("[%s(%s)]", name, strings.Join(parts, ", "))
}

// Package loader reads declaration graphs from YAML or JSON documents.
package loader

import "gopkg.in/yaml.v3"

// Document is the root of a declaration graph document
type Document struct {
	Assemblies []AssemblyDoc `yaml:"assemblies"`
}

// AssemblyDoc describes an assembly and its main module
type AssemblyDoc struct {
	Name       string   `yaml:"name"`
	References []string `yaml:"references"`
	// Reference assemblies are loaded but never resolved
	Reference  bool            `yaml:"reference"`
	TypeRefs   []string        `yaml:"type_refs"`
	Attributes []AnnotationDoc `yaml:"attributes"`
	Types      []TypeDoc       `yaml:"types"`
}

// TypeDoc describes a type definition
type TypeDoc struct {
	Name       string          `yaml:"name"`
	Kind       string          `yaml:"kind"`
	Visibility string          `yaml:"visibility"`
	Abstract   bool            `yaml:"abstract"`
	Sealed     bool            `yaml:"sealed"`
	Generic    []string        `yaml:"generic"`
	Base       string          `yaml:"base"`
	Interfaces []string        `yaml:"interfaces"`
	Attributes []AnnotationDoc `yaml:"attributes"`
	Methods    []MethodDoc     `yaml:"methods"`
	Fields     []FieldDoc      `yaml:"fields"`
	Properties []PropertyDoc   `yaml:"properties"`
	Events     []EventDoc      `yaml:"events"`
	Nested     []TypeDoc       `yaml:"nested"`
}

// MethodDoc describes a method
type MethodDoc struct {
	Name             string          `yaml:"name"`
	Visibility       string          `yaml:"visibility"`
	Static           bool            `yaml:"static"`
	Virtual          bool            `yaml:"virtual"`
	Abstract         bool            `yaml:"abstract"`
	Final            bool            `yaml:"final"`
	NewSlot          bool            `yaml:"newslot"`
	Unmanaged        bool            `yaml:"unmanaged"`
	Generic          []string        `yaml:"generic"`
	Returns          string          `yaml:"returns"`
	Overrides        []string        `yaml:"overrides"`
	Params           []ParamDoc      `yaml:"params"`
	Attributes       []AnnotationDoc `yaml:"attributes"`
	ReturnAttributes []AnnotationDoc `yaml:"return_attributes"`
}

// ParamDoc describes a method parameter
type ParamDoc struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	In         bool            `yaml:"in"`
	Attributes []AnnotationDoc `yaml:"attributes"`
}

// FieldDoc describes a field
type FieldDoc struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	Visibility string          `yaml:"visibility"`
	Static     bool            `yaml:"static"`
	Literal    bool            `yaml:"literal"`
	Attributes []AnnotationDoc `yaml:"attributes"`
}

// PropertyDoc describes a property. Accessors name methods of the same type.
type PropertyDoc struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	Getter     string          `yaml:"get"`
	Setter     string          `yaml:"set"`
	Attributes []AnnotationDoc `yaml:"attributes"`
}

// EventDoc describes an event. Accessors name methods of the same type.
type EventDoc struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	Adder      string          `yaml:"add"`
	Remover    string          `yaml:"remove"`
	Raiser     string          `yaml:"raise"`
	Attributes []AnnotationDoc `yaml:"attributes"`
}

// AnnotationDoc is a custom attribute. Named arguments keep document order.
type AnnotationDoc struct {
	Type  string      `yaml:"type"`
	Args  []yaml.Node `yaml:"args"`
	Named yaml.Node   `yaml:"named"`
}

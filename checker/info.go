package checker

import (
	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/types"
)

type SelectionKind int

const (
	// ModuleMember is `module.name`; Binding is the member.
	ModuleMember SelectionKind = iota
	// StaticField reads static Index of Struct.
	StaticField
	// StaticMethod is a method reached through the struct's name. It is an
	// unbound function taking the receiver explicitly.
	StaticMethod
	// EnumItem is a plain item value; Index is its tag.
	EnumItem
	// EnumConstructor is a typed item; calling it wraps the payload.
	EnumConstructor
	// FieldAddr is the address of field Index of the pointed struct.
	FieldAddr
	// BoundMethod closes a method over the receiver.
	BoundMethod
)

type Selection struct {
	Kind    SelectionKind
	Index   int
	Struct  types.Struct
	Enum    types.Enum
	Method  types.Method
	Binding Binding
}

type ConversionKind int

const (
	ConvertNone ConversionKind = iota
	ConvertWord
	ConvertShortWord
	ConvertMethod
)

// Conversion says how a template value becomes a str. ConvertWord calls a
// builtin converter, ConvertShortWord widens to int first, ConvertMethod
// calls the receiver's __str__.
type Conversion struct {
	Kind      ConversionKind
	Converter Binding
	Method    types.Method
}

// Info is what checking learned about the trees of one session. The
// generator reads it instead of deriving types again.
type Info struct {
	Types       map[ast.Node]types.Type
	Uses        map[ast.Node]Binding
	Selections  map[*ast.Dot]Selection
	Calls       map[*ast.Call]types.Resolved
	Subscripts  map[*ast.Subscript]types.Method
	Conversions map[ast.Node]Conversion
	Formatters  map[*ast.Template]Binding
	Funs        map[*ast.Fun]types.Fun
	Structs     map[*ast.Struct]types.Struct
	Enums       map[*ast.Enum]types.Enum
}

func NewInfo() *Info {
	return &Info{
		Types:       map[ast.Node]types.Type{},
		Uses:        map[ast.Node]Binding{},
		Selections:  map[*ast.Dot]Selection{},
		Calls:       map[*ast.Call]types.Resolved{},
		Subscripts:  map[*ast.Subscript]types.Method{},
		Conversions: map[ast.Node]Conversion{},
		Formatters:  map[*ast.Template]Binding{},
		Funs:        map[*ast.Fun]types.Fun{},
		Structs:     map[*ast.Struct]types.Struct{},
		Enums:       map[*ast.Enum]types.Enum{},
	}
}

// TypeOf returns the recorded type of a node, or nil for a node that was
// never checked.
func (i *Info) TypeOf(n ast.Node) types.Type {
	return i.Types[n]
}

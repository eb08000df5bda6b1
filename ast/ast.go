// Package ast holds the immutable syntax tree handed over by the parser.
//
// Every node embeds a Meta with a session-unique id. The id only names
// things in generated output; it never takes part in equality.
package ast

import "github.com/pontaoski/taipan/token"

type Node interface {
	UID() int
	Place() token.Span
	is_Node()
}

type Meta struct {
	ID int
	At token.Span
}

func (m Meta) UID() int          { return m.ID }
func (m Meta) Place() token.Span { return m.At }
func (m Meta) is_Node()          {}

// Counter hands out node ids. One counter lives for one compilation so
// identical input yields identical ids.
type Counter struct {
	next int
}

func (c *Counter) Next() int {
	c.next++
	return c.next
}

// Peek returns the last id handed out.
func (c *Counter) Peek() int {
	return c.next
}

func (c *Counter) Meta(at token.Span) Meta {
	return Meta{ID: c.Next(), At: at}
}

type Module struct {
	Meta
	Path    string
	Tops    []Node
	Builtin *Module
}

// literals

type Int struct {
	Meta
	Value int64
}

type Short struct {
	Meta
	Value int64
}

// CharStr is a character written as a one-character string ('a'c).
type CharStr struct {
	Meta
	Value byte
}

// CharNum is a character written as its code (97c).
type CharNum struct {
	Meta
	Value byte
}

type Str struct {
	Meta
	Value string
}

// Template is a template string. Strings always has len(Values)+1 parts.
type Template struct {
	Meta
	Formatter Node
	Strings   []string
	Values    []Node
}

// Constant is one of the builtin constants True, False and Null.
type Constant struct {
	Meta
	Name string
}

// expressions

type ReferTo struct {
	Meta
	Name token.Token
}

type BinaryOperation struct {
	Meta
	Left      Node
	Operation token.Token
	Right     Node
}

type UnaryOperation struct {
	Meta
	Operation token.Token
	Left      Node
}

type Call struct {
	Meta
	Func Node
	Args []Node
}

type Dot struct {
	Meta
	Origin Node
	Access token.Token
}

type Subscript struct {
	Meta
	Origin     Node
	Subscripts []Node
}

type Cast struct {
	Meta
	Type  Node
	Value Node
}

// StrCast builds a str out of a length and a pointer to characters.
type StrCast struct {
	Meta
	Length  Node
	Pointer Node
}

// statements

type ExprStatement struct {
	Meta
	Value Node
}

type TypedVariable struct {
	Meta
	Name token.Token
	Type Node
}

// Assignment declares a typed slot and initializes it.
type Assignment struct {
	Meta
	Var   *TypedVariable
	Value Node
}

// Declaration reserves storage, optionally Times elements of it.
type Declaration struct {
	Meta
	Var   *TypedVariable
	Times Node
}

// Set binds an immutable value to a name.
type Set struct {
	Meta
	Name  token.Token
	Value Node
}

// VariableSave stores into a named slot, declaring it when unbound.
type VariableSave struct {
	Meta
	Space token.Token
	Value Node
}

// Save stores through a pointer expression.
type Save struct {
	Meta
	Space Node
	Value Node
}

type ReAssignment struct {
	Meta
	Name  token.Token
	Value Node
}

type Code struct {
	Meta
	Statements []Node
}

// If has an optional Else that is either a *Code or another *If.
type If struct {
	Meta
	Condition Node
	Code      *Code
	Else      Node
}

type While struct {
	Meta
	Condition Node
	Code      *Code
}

type Case struct {
	Meta
	Name token.Token
	Body *Code
}

type Match struct {
	Meta
	Value   Node
	MatchAs token.Token
	Cases   []*Case
	Default *Code
}

// Return with a nil Value returns from a void function.
type Return struct {
	Meta
	Value Node
}

type Assert struct {
	Meta
	Value       Node
	Explanation Node
}

// top levels

type Fun struct {
	Meta
	Name       token.Token
	Args       []*TypedVariable
	ReturnType Node
	Code       *Code
}

func (f *Fun) IsMain() bool {
	return f.Name.Operand == "main"
}

type StaticVariable struct {
	Meta
	Var   *TypedVariable
	Value Node
}

type Struct struct {
	Meta
	Name            token.Token
	Variables       []*TypedVariable
	StaticVariables []*StaticVariable
	Funs            []*Fun
}

type Enum struct {
	Meta
	Name       token.Token
	Items      []token.Token
	TypedItems []*TypedVariable
	Funs       []*Fun
}

type Mix struct {
	Meta
	Name token.Token
	Funs []Node
}

type Const struct {
	Meta
	Name  token.Token
	Value int64
}

type Var struct {
	Meta
	Name token.Token
	Type Node
}

// Memo is a zero initialized scratch buffer of Size bytes.
type Memo struct {
	Meta
	Name token.Token
	Size int64
}

type TypeDefinition struct {
	Meta
	Name token.Token
	Type Node
}

type Import struct {
	Meta
	Path   string
	Name   token.Token
	Module *Module
}

type FromImport struct {
	Meta
	Path          string
	Module        *Module
	ImportedNames []token.Token
}

// Use declares an intrinsic function, optionally under another name.
type Use struct {
	Meta
	Name       token.Token
	AsName     token.Token
	ArgTypes   []Node
	ReturnType Node
}

// types

type TypeReference struct {
	Meta
	Ref token.Token
}

type TypePointer struct {
	Meta
	Pointed Node
}

// TypeArray with Size 0 is an open array.
type TypeArray struct {
	Meta
	Elem Node
	Size int64
}

type TypeFun struct {
	Meta
	Args       []Node
	ReturnType Node
}

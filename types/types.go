// Package types is the semantic type algebra shared by the checker and the
// code generator.
//
// Primitive, Ptr, Array, Fun, Mix and Module compare structurally. Struct and
// Enum are handles into an Arena and compare by uid, which is what allows a
// definition to refer to itself.
package types

import (
	"fmt"
	"strings"
)

//go:generate go run ../tool types.sum sum.go types

type Primitive int

const (
	Int Primitive = iota
	Short
	Char
	Bool
	Str
	Void
)

// PrimitiveCount guards switches that must handle every primitive.
const PrimitiveCount = 6

var primitiveNames = [...]string{
	Int:   "int",
	Short: "short",
	Char:  "char",
	Bool:  "bool",
	Str:   "str",
	Void:  "void",
}

func (p Primitive) String() string { return primitiveNames[p] }

// LookupPrimitive resolves the name of a primitive type.
func LookupPrimitive(name string) (Primitive, bool) {
	for p, n := range primitiveNames {
		if n == name {
			return Primitive(p), true
		}
	}
	return 0, false
}

type Ptr struct {
	Pointed Type
}

func (p Ptr) String() string { return "*" + p.Pointed.String() }

// VoidPtr is the untyped pointer.
var VoidPtr = Ptr{Void}

// Array with Size 0 is open; it has no layout of its own.
type Array struct {
	Elem Type
	Size int64
}

func (a Array) String() string {
	if a.Size == 0 {
		return "[]" + a.Elem.String()
	}
	return fmt.Sprintf("[%d]%s", a.Size, a.Elem)
}

type Struct struct {
	UID  int
	Name string
}

func (s Struct) String() string { return s.Name }

// StructKind is the type of a struct's name used as a value: it is called to
// construct and dotted to reach statics.
type StructKind struct {
	Struct Struct
}

func (s StructKind) String() string { return fmt.Sprintf("#structkind(%s)", s.Struct.Name) }

type Enum struct {
	UID  int
	Name string
}

func (e Enum) String() string { return e.Name }

type EnumKind struct {
	Enum Enum
}

func (e EnumKind) String() string { return fmt.Sprintf("#enum_kind(%s)", e.Enum.Name) }

// Fun is a callable value. The first Bound arguments are supplied by the
// receiver and are not part of the visible signature.
type Fun struct {
	Args   []Type
	Bound  int
	Return Type
}

func (f Fun) Visible() []Type {
	return f.Args[f.Bound:]
}

func (f Fun) String() string {
	var args []string
	for _, a := range f.Visible() {
		args = append(args, a.String())
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(args, ", "), f.Return)
}

// Mix is an overload set, resolved at each call site.
type Mix struct {
	Funs []Type
	Name string
}

func (m Mix) String() string { return fmt.Sprintf("#mix(%s)", m.Name) }

type Module struct {
	UID  int
	Path string
}

func (m Module) String() string { return fmt.Sprintf("#module(%s)", m.Path) }

func Equal(a, b Type) bool {
	switch x := a.(type) {
	case Primitive:
		y, ok := b.(Primitive)
		return ok && x == y
	case Ptr:
		y, ok := b.(Ptr)
		return ok && Equal(x.Pointed, y.Pointed)
	case Array:
		y, ok := b.(Array)
		return ok && x.Size == y.Size && Equal(x.Elem, y.Elem)
	case Struct:
		y, ok := b.(Struct)
		return ok && x.UID == y.UID
	case StructKind:
		y, ok := b.(StructKind)
		return ok && x.Struct.UID == y.Struct.UID
	case Enum:
		y, ok := b.(Enum)
		return ok && x.UID == y.UID
	case EnumKind:
		y, ok := b.(EnumKind)
		return ok && x.Enum.UID == y.Enum.UID
	case Fun:
		y, ok := b.(Fun)
		return ok && x.Bound == y.Bound && Equal(x.Return, y.Return) && equalAll(x.Args, y.Args)
	case Mix:
		y, ok := b.(Mix)
		return ok && x.Name == y.Name && equalAll(x.Funs, y.Funs)
	case Module:
		y, ok := b.(Module)
		return ok && x.UID == y.UID && x.Path == y.Path
	case nil:
		return b == nil
	}
	panic(fmt.Sprintf("unreachable: unknown type %T", a))
}

func equalAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// EqualArgs compares two argument lists.
func EqualArgs(a, b []Type) bool {
	return equalAll(a, b)
}

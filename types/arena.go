package types

import (
	"fmt"

	"github.com/pontaoski/taipan/ast"
)

type Field struct {
	Name string
	Type Type
}

type Method struct {
	Name string
	Fun  Fun
	Decl *ast.Fun
}

type StructDef struct {
	Name    string
	Fields  []Field
	Statics []Field
	Methods []Method
	Decl    *ast.Struct
	Defined bool
}

func (s *StructDef) Field(name string) (int, Type, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, f.Type, true
		}
	}
	return -1, nil, false
}

func (s *StructDef) Static(name string) (int, Type, bool) {
	for i, f := range s.Statics {
		if f.Name == name {
			return i, f.Type, true
		}
	}
	return -1, nil, false
}

func (s *StructDef) Method(name string) (Method, bool) {
	return findMethod(s.Methods, name)
}

// Magic looks up the special method __name__.
func (s *StructDef) Magic(name string) (Method, bool) {
	return findMethod(s.Methods, "__"+name+"__")
}

type EnumDef struct {
	Name       string
	Items      []string
	TypedItems []Field
	Methods    []Method
	Decl       *ast.Enum
	Defined    bool
}

// Item returns the discriminant of an item. Plain items come first, typed
// items follow in declaration order. payload is nil for plain items.
func (e *EnumDef) Item(name string) (tag int, payload Type, ok bool) {
	for i, item := range e.Items {
		if item == name {
			return i, nil, true
		}
	}
	for i, item := range e.TypedItems {
		if item.Name == name {
			return len(e.Items) + i, item.Type, true
		}
	}
	return -1, nil, false
}

func (e *EnumDef) Method(name string) (Method, bool) {
	return findMethod(e.Methods, name)
}

func (e *EnumDef) Magic(name string) (Method, bool) {
	return findMethod(e.Methods, "__"+name+"__")
}

func findMethod(ms []Method, name string) (Method, bool) {
	for _, m := range ms {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Arena owns every struct and enum definition of a compilation. Handles are
// registered before their bodies exist so definitions can be recursive.
type Arena struct {
	structs map[int]*StructDef
	enums   map[int]*EnumDef
	sizing  map[Type]bool
}

func NewArena() *Arena {
	return &Arena{
		structs: map[int]*StructDef{},
		enums:   map[int]*EnumDef{},
		sizing:  map[Type]bool{},
	}
}

// NewStruct registers an empty definition and returns its handle.
func (a *Arena) NewStruct(uid int, name string) Struct {
	if _, ok := a.structs[uid]; ok {
		panic(fmt.Sprintf("struct uid %d registered twice", uid))
	}
	a.structs[uid] = &StructDef{Name: name}
	return Struct{UID: uid, Name: name}
}

// DefineStruct fills in the body of a registered struct. It may be called
// once per struct.
func (a *Arena) DefineStruct(s Struct, def StructDef) {
	old := a.Struct(s)
	if old.Defined {
		panic(fmt.Sprintf("struct %s defined twice", s.Name))
	}
	def.Name = s.Name
	def.Defined = true
	*old = def
}

func (a *Arena) Struct(s Struct) *StructDef {
	def, ok := a.structs[s.UID]
	if !ok {
		panic(fmt.Sprintf("unknown struct %s (uid %d)", s.Name, s.UID))
	}
	return def
}

func (a *Arena) NewEnum(uid int, name string) Enum {
	if _, ok := a.enums[uid]; ok {
		panic(fmt.Sprintf("enum uid %d registered twice", uid))
	}
	a.enums[uid] = &EnumDef{Name: name}
	return Enum{UID: uid, Name: name}
}

func (a *Arena) DefineEnum(e Enum, def EnumDef) {
	old := a.Enum(e)
	if old.Defined {
		panic(fmt.Sprintf("enum %s defined twice", e.Name))
	}
	def.Name = e.Name
	def.Defined = true
	*old = def
}

func (a *Arena) Enum(e Enum) *EnumDef {
	def, ok := a.enums[e.UID]
	if !ok {
		panic(fmt.Sprintf("unknown enum %s (uid %d)", e.Name, e.UID))
	}
	return def
}

// Sized reports whether t has a computable layout. Aggregates that are being
// sized already count as unsized, so a struct holding itself by value is
// unsized instead of recursing forever.
func (a *Arena) Sized(t Type) bool {
	switch t := t.(type) {
	case Primitive:
		return t != Void
	case Ptr, Fun, Mix:
		return true
	case Module, EnumKind:
		return false
	case Array:
		return t.Size != 0 && a.Sized(t.Elem)
	case Struct:
		return a.guard(t, func() bool {
			return a.allSized(a.Struct(t).Fields)
		})
	case StructKind:
		return a.guard(t, func() bool {
			return a.allSized(a.Struct(t.Struct).Statics)
		})
	case Enum:
		return a.guard(t, func() bool {
			return a.allSized(a.Enum(t).TypedItems)
		})
	}
	panic(fmt.Sprintf("unreachable: unknown type %T", t))
}

func (a *Arena) allSized(fields []Field) bool {
	for _, f := range fields {
		if !a.Sized(f.Type) {
			return false
		}
	}
	return true
}

func (a *Arena) guard(key Type, fn func() bool) bool {
	if a.sizing[key] {
		return false
	}
	a.sizing[key] = true
	defer delete(a.sizing, key)
	return fn()
}

package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/pontaoski/taipan/types"
)

// typ lowers a checked type to the type of its runtime representation.
//
// str is {i64 length, i8* data}. A function value is a closure: a code
// pointer taking an environment pointer first, and the environment. Structs
// and enums become named types created on first use, which is what lets a
// struct hold a pointer to itself.
func (c *ctx) typ(t types.Type) lltypes.Type {
	switch t := t.(type) {
	case types.Primitive:
		switch t {
		case types.Int:
			return lltypes.I64
		case types.Short:
			return lltypes.I32
		case types.Char:
			return lltypes.I8
		case types.Bool:
			return lltypes.I1
		case types.Str:
			return c.str
		case types.Void:
			return lltypes.Void
		}
	case types.Ptr:
		if types.Equal(t.Pointed, types.Void) {
			return lltypes.I8Ptr
		}
		return lltypes.NewPointer(c.typ(t.Pointed))
	case types.Array:
		return lltypes.NewArray(uint64(t.Size), c.typ(t.Elem))
	case types.Struct:
		return c.structType(t)
	case types.StructKind:
		return lltypes.NewPointer(c.staticsType(t.Struct))
	case types.Enum:
		return c.enumType(t)
	case types.Fun:
		return c.closureType(t)
	case types.Mix:
		var fields []lltypes.Type
		for _, f := range t.Funs {
			fields = append(fields, c.typ(f))
		}
		return lltypes.NewStruct(fields...)
	case types.Module, types.EnumKind:
		panic(faultf("%s has no runtime representation", t))
	}
	panic(faultf("unknown type %T", t))
}

// code is the type of the function behind a closure of type f.
func (c *ctx) code(f types.Fun) *lltypes.FuncType {
	params := []lltypes.Type{lltypes.I8Ptr}
	for _, a := range f.Visible() {
		params = append(params, c.typ(a))
	}
	return lltypes.NewFunc(c.typ(f.Return), params...)
}

func (c *ctx) closureType(f types.Fun) *lltypes.StructType {
	return lltypes.NewStruct(lltypes.NewPointer(c.code(f)), lltypes.I8Ptr)
}

func (c *ctx) structType(s types.Struct) *lltypes.StructType {
	if st, ok := c.structs[s.UID]; ok {
		return st
	}
	st := lltypes.NewStruct()
	c.m.NewTypeDef(fmt.Sprintf("struct.%d.%s", s.UID, s.Name), st)
	c.structs[s.UID] = st
	for _, f := range c.arena.Struct(s).Fields {
		st.Fields = append(st.Fields, c.typ(f.Type))
	}
	return st
}

func (c *ctx) staticsType(s types.Struct) *lltypes.StructType {
	if st, ok := c.statics[s.UID]; ok {
		return st
	}
	st := lltypes.NewStruct()
	c.m.NewTypeDef(fmt.Sprintf("structkind.%d.%s", s.UID, s.Name), st)
	c.statics[s.UID] = st
	for _, f := range c.arena.Struct(s).Statics {
		st.Fields = append(st.Fields, c.typ(f.Type))
	}
	return st
}

// enumType is {i64 tag, [K x i64] payload}, K words being enough for the
// largest typed item.
func (c *ctx) enumType(e types.Enum) *lltypes.StructType {
	if et, ok := c.enums[e.UID]; ok {
		return et
	}
	et := lltypes.NewStruct()
	c.m.NewTypeDef(fmt.Sprintf("enum.%d.%s", e.UID, e.Name), et)
	c.enums[e.UID] = et
	et.Fields = []lltypes.Type{lltypes.I64, lltypes.NewArray(uint64(c.arena.PayloadWords(e)), lltypes.I64)}
	return et
}

// kind returns the global holding the statics of s. Its address is the
// value of the struct's name.
func (c *ctx) kind(s types.Struct) *ir.Global {
	if g, ok := c.kinds[s.UID]; ok {
		return g
	}
	st := c.staticsType(s)
	g := c.m.NewGlobalDef(fmt.Sprintf("structkind.%d.%s", s.UID, s.Name), constant.NewZeroInitializer(st))
	c.kinds[s.UID] = g
	return g
}

func i64(v int64) *constant.Int {
	return constant.NewInt(lltypes.I64, v)
}

func i32(v int64) *constant.Int {
	return constant.NewInt(lltypes.I32, v)
}

// sizeOf is the allocation size of a sized type.
func (c *ctx) sizeOf(t types.Type) *constant.Int {
	size, _ := c.arena.Layout(t)
	return i64(size)
}

package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/checker"
	"github.com/pontaoski/taipan/types"
)

var null = constant.NewNull(lltypes.I8Ptr)

func (c *ctx) typeOf(n ast.Node) types.Type {
	t, ok := c.info.Types[n]
	if !ok {
		panic(faultf("no type recorded for %T %d", n, n.UID()))
	}
	return t
}

func (c *ctx) expr(node ast.Node) operand {
	switch n := node.(type) {
	case *ast.Int:
		return operand{types.Int, i64(n.Value)}
	case *ast.Short:
		return operand{types.Short, i32(n.Value)}
	case *ast.CharStr:
		return operand{types.Char, constant.NewInt(lltypes.I8, int64(n.Value))}
	case *ast.CharNum:
		return operand{types.Char, constant.NewInt(lltypes.I8, int64(n.Value))}
	case *ast.Str:
		return operand{types.Str, c.strConst(n.Value)}
	case *ast.Constant:
		switch n.Name {
		case "True":
			return operand{types.Bool, constant.True}
		case "False":
			return operand{types.Bool, constant.False}
		case "Null":
			return operand{types.VoidPtr, null}
		}
		panic(faultf("unknown constant %q", n.Name))
	case *ast.ReferTo:
		b, ok := c.info.Uses[n]
		if !ok {
			panic(faultf("name '%s' was never resolved", n.Name.Operand))
		}
		return c.binding(b)
	case *ast.BinaryOperation:
		return c.binary(n)
	case *ast.UnaryOperation:
		return c.unary(n)
	case *ast.Call:
		return c.lowerCall(n)
	case *ast.Dot:
		return c.dot(n)
	case *ast.Subscript:
		return c.subscript(n)
	case *ast.Cast:
		return c.cast(n)
	case *ast.StrCast:
		l := c.expr(n.Length)
		p := c.expr(n.Pointer)
		data := c.block.NewBitCast(p.val, lltypes.I8Ptr)
		v := c.block.NewInsertValue(constant.NewUndef(c.str), l.val, 0)
		return operand{types.Str, c.block.NewInsertValue(v, data, 1)}
	case *ast.Template:
		return c.template(n)
	}
	panic(faultf("unknown expression %T", node))
}

// strConst returns the str constant for a literal. Each distinct literal
// is stored once.
func (c *ctx) strConst(s string) constant.Constant {
	g, ok := c.strings[s]
	if !ok {
		g = c.m.NewGlobalDef(fmt.Sprintf(".str.%d", len(c.strings)), constant.NewCharArrayFromString(s))
		g.Immutable = true
		c.strings[s] = g
	}
	return constant.NewStruct(c.str, i64(int64(len(s))), constant.NewBitCast(g, lltypes.I8Ptr))
}

// binding produces the value of whatever a name was resolved to.
// Variables resolve to the address of their slot, matching their checked
// pointer type; arguments are loaded from theirs.
func (c *ctx) binding(b checker.Binding) operand {
	switch d := b.Decl.(type) {
	case *ast.Fun:
		return operand{b.Type, c.closure(b.Type.(types.Fun), c.funs[d], nil)}
	case *ast.Use:
		return operand{b.Type, c.closure(b.Type.(types.Fun), c.intrinsic(d), nil)}
	case *ast.TypedVariable:
		return operand{b.Type, c.block.NewLoad(c.typ(b.Type), c.local(d))}
	case *ast.Assignment, *ast.Declaration, *ast.VariableSave, *ast.Set, *ast.Case:
		return operand{b.Type, c.local(d)}
	case *ast.Var, *ast.Memo:
		return operand{b.Type, c.globals[d]}
	case *ast.Const:
		return operand{b.Type, i64(d.Value)}
	case *ast.Struct:
		return operand{b.Type, c.kind(c.info.Structs[d])}
	case *ast.Mix:
		var v value.Value = constant.NewUndef(c.typ(b.Type))
		for i, ref := range d.Funs {
			v = c.block.NewInsertValue(v, c.expr(ref).val, uint64(i))
		}
		return operand{b.Type, v}
	case *ast.Enum, *ast.Import:
		return operand{b.Type, nil}
	}
	panic(faultf("name bound by %T has no value", b.Decl))
}

func (c *ctx) binary(n *ast.BinaryOperation) operand {
	l := c.expr(n.Left)
	r := c.expr(n.Right)
	op, ok := types.BinaryOpOf(n.Operation)
	if ok {
		_, ok = types.BinaryResult(op, l.typ, r.typ)
	}
	if !ok {
		panic(faultf("operation '%s' is not implemented for '%s' and '%s'", n.Operation, l.typ, r.typ))
	}
	res := c.typeOf(n)
	b := c.block
	unsigned := types.Equal(l.typ, types.Char)
	var v value.Value
	switch op {
	case types.OpAdd:
		if _, isPtr := l.typ.(types.Ptr); isPtr {
			sum := b.NewAdd(b.NewPtrToInt(l.val, lltypes.I64), r.val)
			v = b.NewIntToPtr(sum, l.val.Type())
		} else {
			v = b.NewAdd(l.val, r.val)
		}
	case types.OpSub:
		v = b.NewSub(l.val, r.val)
	case types.OpMul:
		v = b.NewMul(l.val, r.val)
	case types.OpDiv:
		if unsigned {
			v = b.NewUDiv(l.val, r.val)
		} else {
			v = b.NewSDiv(l.val, r.val)
		}
	case types.OpMod:
		if unsigned {
			v = b.NewURem(l.val, r.val)
		} else {
			v = b.NewSRem(l.val, r.val)
		}
	case types.OpShl:
		v = b.NewShl(l.val, r.val)
	case types.OpShr:
		if unsigned {
			v = b.NewLShr(l.val, r.val)
		} else {
			v = b.NewAShr(l.val, r.val)
		}
	case types.OpAnd:
		v = b.NewAnd(l.val, r.val)
	case types.OpOr:
		v = b.NewOr(l.val, r.val)
	case types.OpXor:
		v = b.NewXor(l.val, r.val)
	default:
		v = b.NewICmp(predicate(op, unsigned), l.val, r.val)
	}
	return operand{res, v}
}

func predicate(op types.BinaryOp, unsigned bool) enum.IPred {
	switch op {
	case types.OpEq:
		return enum.IPredEQ
	case types.OpNe:
		return enum.IPredNE
	case types.OpLt:
		if unsigned {
			return enum.IPredULT
		}
		return enum.IPredSLT
	case types.OpGt:
		if unsigned {
			return enum.IPredUGT
		}
		return enum.IPredSGT
	case types.OpLe:
		if unsigned {
			return enum.IPredULE
		}
		return enum.IPredSLE
	case types.OpGe:
		if unsigned {
			return enum.IPredUGE
		}
		return enum.IPredSGE
	}
	panic(faultf("operator %d is not a comparison", op))
}

func (c *ctx) unary(n *ast.UnaryOperation) operand {
	x := c.expr(n.Left)
	op, ok := types.UnaryOpOf(n.Operation)
	if !ok {
		panic(faultf("unary operation '%s' is not implemented", n.Operation))
	}
	res := c.typeOf(n)
	b := c.block
	switch op {
	case types.OpNot:
		if types.Equal(x.typ, types.Bool) {
			return operand{res, b.NewXor(x.val, constant.True)}
		}
		return operand{res, b.NewXor(x.val, i64(-1))}
	case types.OpNeg:
		zero := constant.NewInt(x.val.Type().(*lltypes.IntType), 0)
		return operand{res, b.NewSub(zero, x.val)}
	case types.OpDeref:
		return operand{res, b.NewLoad(c.typ(res), x.val)}
	}
	panic(faultf("unary operation '%s' is not implemented for '%s'", n.Operation, x.typ))
}

func (c *ctx) dot(n *ast.Dot) operand {
	sel, ok := c.info.Selections[n]
	if !ok {
		panic(faultf("attribute '%s' was never resolved", n.Access.Operand))
	}
	t := c.typeOf(n)
	b := c.block
	switch sel.Kind {
	case checker.ModuleMember:
		return c.binding(sel.Binding)
	case checker.StaticField:
		st := c.staticsType(sel.Struct)
		p := b.NewGetElementPtr(st, c.kind(sel.Struct), i32(0), i32(int64(sel.Index)))
		return operand{t, b.NewLoad(c.typ(t), p)}
	case checker.StaticMethod:
		return operand{t, c.closure(t.(types.Fun), c.funs[sel.Method.Decl], nil)}
	case checker.EnumItem:
		return operand{t, c.enumItem(sel.Enum, sel.Index)}
	case checker.EnumConstructor:
		return operand{t, c.closure(t.(types.Fun), c.ctor(sel.Enum, sel.Index), nil)}
	case checker.FieldAddr:
		o := c.expr(n.Origin)
		return operand{t, b.NewGetElementPtr(c.structType(sel.Struct), o.val, i32(0), i32(int64(sel.Index)))}
	case checker.BoundMethod:
		o := c.expr(n.Origin)
		env := c.block.NewBitCast(o.val, lltypes.I8Ptr)
		return operand{t, c.closure(sel.Method.Fun, c.boundFun(sel.Method), env)}
	}
	panic(faultf("unknown selection %d", sel.Kind))
}

func (c *ctx) enumItem(e types.Enum, tag int) constant.Constant {
	et := c.enumType(e)
	return constant.NewStruct(et, i64(int64(tag)), constant.NewZeroInitializer(et.Fields[1]))
}

func (c *ctx) subscript(n *ast.Subscript) operand {
	o := c.expr(n.Origin)
	var subs []value.Value
	for _, s := range n.Subscripts {
		subs = append(subs, c.expr(s).val)
	}
	t := c.typeOf(n)
	b := c.block
	if m, ok := c.info.Subscripts[n]; ok {
		args := append([]value.Value{null, o.val}, subs...)
		return operand{t, b.NewCall(c.funs[m.Decl], args...)}
	}
	if types.Equal(o.typ, types.Str) {
		data := b.NewExtractValue(o.val, 1)
		return operand{t, b.NewLoad(lltypes.I8, b.NewGetElementPtr(lltypes.I8, data, subs[0]))}
	}
	if p, ok := o.typ.(types.Ptr); ok {
		if arr, ok := p.Pointed.(types.Array); ok {
			return operand{t, b.NewGetElementPtr(c.typ(arr), o.val, i64(0), subs[0])}
		}
	}
	panic(faultf("subscript of '%s' is not implemented", o.typ))
}

var widths = map[types.Primitive]int{
	types.Bool:  1,
	types.Char:  8,
	types.Short: 32,
	types.Int:   64,
}

func (c *ctx) cast(n *ast.Cast) operand {
	from := c.expr(n.Value)
	to := c.typeOf(n)
	lt := c.typ(to)
	b := c.block
	_, fromPtr := from.typ.(types.Ptr)
	_, toPtr := to.(types.Ptr)
	switch {
	case fromPtr && toPtr:
		if from.val.Type().Equal(lt) {
			return operand{to, from.val}
		}
		return operand{to, b.NewBitCast(from.val, lt)}
	case types.Equal(from.typ, types.Str) && types.Equal(to, types.Int):
		return operand{to, b.NewExtractValue(from.val, 0)}
	case types.Equal(from.typ, types.Str) && toPtr:
		return operand{to, b.NewBitCast(b.NewExtractValue(from.val, 1), lt)}
	}
	fp, ok1 := from.typ.(types.Primitive)
	tp, ok2 := to.(types.Primitive)
	fw, ok3 := widths[fp]
	tw, ok4 := widths[tp]
	if !ok1 || !ok2 || !ok3 || !ok4 || fp == tp {
		panic(faultf("cast from '%s' to '%s' is not implemented", from.typ, to))
	}
	switch {
	case tp == types.Bool:
		zero := constant.NewInt(from.val.Type().(*lltypes.IntType), 0)
		return operand{to, b.NewICmp(enum.IPredNE, from.val, zero)}
	case fw > tw:
		return operand{to, b.NewTrunc(from.val, lt)}
	case fp == types.Short:
		return operand{to, b.NewSExt(from.val, lt)}
	}
	return operand{to, b.NewZExt(from.val, lt)}
}

// template lowers a template string to a call of its formatter with the
// literal parts, the values converted to str, and the number of values.
func (c *ctx) template(n *ast.Template) operand {
	count := len(n.Values)
	strsType := lltypes.NewArray(uint64(count+1), c.str)
	valsType := lltypes.NewArray(uint64(count), c.str)
	strs := c.alloca(strsType, fmt.Sprintf("template.%d.strings", n.UID()))
	vals := c.alloca(valsType, fmt.Sprintf("template.%d.values", n.UID()))
	for i, s := range n.Strings {
		c.block.NewStore(c.strConst(s), c.block.NewGetElementPtr(strsType, strs, i64(0), i64(int64(i))))
	}
	for i, v := range n.Values {
		s := c.stringify(v)
		c.block.NewStore(s, c.block.NewGetElementPtr(valsType, vals, i64(0), i64(int64(i))))
	}
	open := lltypes.NewPointer(lltypes.NewArray(0, c.str))
	args := []value.Value{
		c.block.NewBitCast(strs, open),
		c.block.NewBitCast(vals, open),
		i64(int64(count)),
	}
	t := c.typeOf(n)
	if n.Formatter != nil {
		f := c.expr(n.Formatter)
		return operand{t, c.callClosure(f.val, args)}
	}
	b, ok := c.info.Formatters[n]
	if !ok {
		panic(faultf("template %d has no formatter", n.UID()))
	}
	return operand{t, c.callBinding(b, args)}
}

// stringify converts a template value the way the checker decided.
func (c *ctx) stringify(v ast.Node) value.Value {
	conv, ok := c.info.Conversions[v]
	if !ok {
		panic(faultf("template value %T %d has no conversion", v, v.UID()))
	}
	x := c.expr(v)
	switch conv.Kind {
	case checker.ConvertNone:
		return x.val
	case checker.ConvertWord:
		return c.callBinding(conv.Converter, []value.Value{x.val})
	case checker.ConvertShortWord:
		return c.callBinding(conv.Converter, []value.Value{c.block.NewSExt(x.val, lltypes.I64)})
	case checker.ConvertMethod:
		return c.block.NewCall(c.funs[conv.Method.Decl], null, x.val)
	}
	panic(faultf("unknown conversion %d", conv.Kind))
}

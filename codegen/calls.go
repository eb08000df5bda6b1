package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/checker"
	"github.com/pontaoski/taipan/types"
)

// closure builds a function value. A nil env makes a constant closure.
func (c *ctx) closure(f types.Fun, code value.Value, env value.Value) value.Value {
	ct := c.closureType(f)
	if env == nil {
		if k, ok := code.(constant.Constant); ok {
			return constant.NewStruct(ct, k, null)
		}
		env = null
	}
	v := c.block.NewInsertValue(constant.NewUndef(ct), code, 0)
	return c.block.NewInsertValue(v, env, 1)
}

func (c *ctx) callClosure(closure value.Value, args []value.Value) value.Value {
	code := c.block.NewExtractValue(closure, 0)
	env := c.block.NewExtractValue(closure, 1)
	return c.block.NewCall(code, append([]value.Value{env}, args...)...)
}

func (c *ctx) args(nodes []ast.Node) []value.Value {
	var vs []value.Value
	for _, n := range nodes {
		vs = append(vs, c.expr(n).val)
	}
	return vs
}

func (c *ctx) lowerCall(n *ast.Call) operand {
	r, ok := c.info.Calls[n]
	if !ok {
		panic(faultf("call %d was never resolved", n.UID()))
	}
	return c.call(n.Func, r, n.Args)
}

// call lowers a call whose interpretation the checker already fixed in r.
// Callees known at compile time are called directly; anything else is a
// closure.
func (c *ctx) call(callee ast.Node, r types.Resolved, argNodes []ast.Node) operand {
	ret := r.Fun.Return
	if mix, ok := c.mixOf(callee); ok && r.Alternative >= 0 {
		alt := types.Resolved{Fun: r.Fun, Alternative: -1, Target: r.Target}
		return c.call(mix.Funs[r.Alternative], alt, argNodes)
	}
	if kind, ok := r.Target.(types.StructKind); ok && r.Alternative < 0 {
		return c.construct(kind.Struct, c.args(argNodes))
	}
	if fn, prefix, ok := c.direct(callee); ok {
		args := append(prefix, c.args(argNodes)...)
		return operand{ret, c.block.NewCall(fn, args...)}
	}

	v := c.expr(callee).val
	if r.Alternative >= 0 {
		if kind, ok := r.Target.(types.StructKind); ok {
			return c.construct(kind.Struct, c.args(argNodes))
		}
		v = c.block.NewExtractValue(v, uint64(r.Alternative))
	}
	return operand{ret, c.callClosure(v, c.args(argNodes))}
}

// mixOf finds the declaration behind a callee that names a mix.
func (c *ctx) mixOf(callee ast.Node) (*ast.Mix, bool) {
	var b checker.Binding
	switch n := callee.(type) {
	case *ast.ReferTo:
		b = c.info.Uses[n]
	case *ast.Dot:
		sel := c.info.Selections[n]
		if sel.Kind != checker.ModuleMember {
			return nil, false
		}
		b = sel.Binding
	default:
		return nil, false
	}
	m, ok := b.Decl.(*ast.Mix)
	return m, ok
}

// direct returns the function behind a statically known callee and the
// arguments that precede the visible ones.
func (c *ctx) direct(callee ast.Node) (value.Value, []value.Value, bool) {
	switch n := callee.(type) {
	case *ast.ReferTo:
		return c.directBinding(c.info.Uses[n])
	case *ast.Dot:
		sel := c.info.Selections[n]
		switch sel.Kind {
		case checker.ModuleMember:
			return c.directBinding(sel.Binding)
		case checker.StaticMethod:
			return c.funs[sel.Method.Decl], []value.Value{null}, true
		case checker.BoundMethod:
			self := c.expr(n.Origin)
			return c.funs[sel.Method.Decl], []value.Value{null, self.val}, true
		case checker.EnumConstructor:
			return c.ctor(sel.Enum, sel.Index), []value.Value{null}, true
		}
	}
	return nil, nil, false
}

func (c *ctx) directBinding(b checker.Binding) (value.Value, []value.Value, bool) {
	switch d := b.Decl.(type) {
	case *ast.Fun:
		return c.funs[d], []value.Value{null}, true
	case *ast.Use:
		return c.intrinsic(d), []value.Value{null}, true
	}
	return nil, nil, false
}

func (c *ctx) callBinding(b checker.Binding, args []value.Value) value.Value {
	if fn, prefix, ok := c.directBinding(b); ok {
		return c.block.NewCall(fn, append(prefix, args...)...)
	}
	return c.callClosure(c.binding(b).val, args)
}

// construct allocates a struct on the heap and runs its __init__ on it.
func (c *ctx) construct(s types.Struct, args []value.Value) operand {
	init, ok := c.arena.Struct(s).Magic("init")
	if !ok {
		panic(faultf("structure '%s' has no '__init__'", s))
	}
	raw := c.block.NewCall(c.libcFun("malloc", lltypes.I8Ptr, lltypes.I64), c.sizeOf(s))
	self := c.block.NewBitCast(raw, lltypes.NewPointer(c.structType(s)))
	c.block.NewCall(c.funs[init.Decl], append([]value.Value{null, self}, args...)...)
	return operand{types.Ptr{Pointed: s}, self}
}

// boundFun is the code of a bound method closure: the environment is the
// receiver.
func (c *ctx) boundFun(m types.Method) *ir.Func {
	if fn, ok := c.bound[m.Decl]; ok {
		return fn
	}
	target := c.funs[m.Decl]
	params := []*ir.Param{ir.NewParam(".env", lltypes.I8Ptr)}
	for _, p := range target.Params[2:] {
		params = append(params, ir.NewParam(p.Name(), p.Type()))
	}
	fn := c.m.NewFunc(fmt.Sprintf("bound_%d", m.Decl.UID()), target.Sig.RetType, params...)
	b := fn.NewBlock("entry")
	args := []value.Value{null, b.NewBitCast(fn.Params[0], target.Params[1].Type())}
	for _, p := range fn.Params[1:] {
		args = append(args, p)
	}
	call := b.NewCall(target, args...)
	if types.Equal(m.Fun.Return, types.Void) {
		b.NewRet(nil)
	} else {
		b.NewRet(call)
	}
	c.bound[m.Decl] = fn
	return fn
}

// ctor is the constructor of a typed enum item: it tags the payload.
func (c *ctx) ctor(e types.Enum, tag int) *ir.Func {
	key := ctorKey{e.UID, tag}
	if fn, ok := c.ctors[key]; ok {
		return fn
	}
	def := c.arena.Enum(e)
	item := def.TypedItems[tag-len(def.Items)]
	et := c.enumType(e)
	fn := c.m.NewFunc(fmt.Sprintf("enumctor.%d.%s", e.UID, item.Name), et,
		ir.NewParam(".env", lltypes.I8Ptr), ir.NewParam("payload", c.typ(item.Type)))
	b := fn.NewBlock("entry")
	slot := b.NewAlloca(et)
	b.NewStore(constant.NewZeroInitializer(et), slot)
	b.NewStore(i64(int64(tag)), b.NewGetElementPtr(et, slot, i32(0), i32(0)))
	b.NewStore(fn.Params[1], c.payload(b, et, slot, item.Type))
	b.NewRet(b.NewLoad(et, slot))
	c.ctors[key] = fn
	return fn
}

// payload is the address of an enum's payload seen as a t.
func (c *ctx) payload(b *ir.Block, et *lltypes.StructType, slot value.Value, t types.Type) value.Value {
	p := b.NewGetElementPtr(et, slot, i32(0), i32(1))
	return b.NewBitCast(p, lltypes.NewPointer(c.typ(t)))
}

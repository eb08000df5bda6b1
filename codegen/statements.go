package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/types"
)

// lowerCode lowers a block. Bindings made inside it are dropped at its end,
// the same way the checker scopes them.
func (c *ctx) lowerCode(n *ast.Code) {
	mark := len(c.locals)
	for _, s := range n.Statements {
		c.stmt(s)
	}
	c.locals = c.locals[:mark]
}

func (c *ctx) stmt(node ast.Node) {
	switch n := node.(type) {
	case *ast.Code:
		c.lowerCode(n)
	case *ast.ExprStatement:
		c.expr(n.Value)
	case *ast.Assignment:
		v := c.expr(n.Value)
		t := c.typ(c.typeOf(n.Var))
		slot := c.alloca(t, fmt.Sprintf("%s.%d", n.Var.Name.Operand, n.UID()))
		c.block.NewStore(v.val, slot)
		c.bind(n, slot)
	case *ast.Declaration:
		c.declaration(n)
	case *ast.Set:
		c.bind(n, c.expr(n.Value).val)
	case *ast.VariableSave:
		b := c.info.Uses[n]
		v := c.expr(n.Value)
		var slot value.Value
		if b.Decl == ast.Node(n) {
			slot = c.alloca(c.typ(v.typ), fmt.Sprintf("%s.%d", n.Space.Operand, n.UID()))
			c.bind(n, slot)
		} else {
			slot = c.binding(b).val
		}
		c.block.NewStore(v.val, slot)
	case *ast.Save:
		space := c.expr(n.Space)
		v := c.expr(n.Value)
		c.block.NewStore(v.val, space.val)
	case *ast.ReAssignment:
		v := c.expr(n.Value)
		slot := c.binding(c.info.Uses[n])
		c.block.NewStore(v.val, slot.val)
	case *ast.If:
		c.lowerIf(n)
	case *ast.While:
		c.lowerWhile(n)
	case *ast.Match:
		c.lowerMatch(n)
	case *ast.Return:
		if n.Value != nil {
			v := c.expr(n.Value)
			if c.retvar != nil {
				c.block.NewStore(v.val, c.retvar)
			}
		}
		c.block.NewBr(c.ret)
		c.fresh()
	case *ast.Assert:
		c.lowerAssert(n)
	default:
		panic(faultf("unknown statement %T", node))
	}
}

// declaration reserves a slot. With a count the slot holds that many
// elements and the name is typed as an open array of them.
func (c *ctx) declaration(n *ast.Declaration) {
	t := c.typ(c.typeOf(n.Var))
	name := fmt.Sprintf("%s.%d", n.Var.Name.Operand, n.UID())
	if n.Times == nil {
		c.bind(n, c.alloca(t, name))
		return
	}
	count := c.expr(n.Times)
	slot := c.block.NewAlloca(t)
	slot.NElems = count.val
	slot.SetName(name)
	c.bind(n, c.block.NewBitCast(slot, lltypes.NewPointer(lltypes.NewArray(0, t))))
}

// branch falls through to target unless the block already ended.
func (c *ctx) branch(target *ir.Block) {
	if c.block.Term == nil {
		c.block.NewBr(target)
	}
}

func (c *ctx) lowerIf(n *ast.If) {
	cond := c.expr(n.Condition)
	then := c.fn.NewBlock(fmt.Sprintf("if.then.%d", n.UID()))
	var otherwise *ir.Block
	if n.Else != nil {
		otherwise = c.fn.NewBlock(fmt.Sprintf("if.else.%d", n.UID()))
	}
	end := c.fn.NewBlock(fmt.Sprintf("if.end.%d", n.UID()))
	if otherwise == nil {
		otherwise = end
	}
	c.block.NewCondBr(cond.val, then, otherwise)

	c.block = then
	c.lowerCode(n.Code)
	c.branch(end)
	if n.Else != nil {
		c.block = otherwise
		c.stmt(n.Else)
		c.branch(end)
	}
	c.block = end
}

// lowerWhile tests the condition in its own block, entered first and after
// every iteration.
func (c *ctx) lowerWhile(n *ast.While) {
	cond := c.fn.NewBlock(fmt.Sprintf("while.cond.%d", n.UID()))
	body := c.fn.NewBlock(fmt.Sprintf("while.body.%d", n.UID()))
	end := c.fn.NewBlock(fmt.Sprintf("while.end.%d", n.UID()))
	c.block.NewBr(cond)

	c.block = cond
	v := c.expr(n.Condition)
	c.block.NewCondBr(v.val, body, end)

	c.block = body
	c.lowerCode(n.Code)
	c.branch(cond)
	c.block = end
}

// lowerMatch switches on the tag. Each case sees the payload of its item,
// or the matched value itself for plain items.
func (c *ctx) lowerMatch(n *ast.Match) {
	v := c.expr(n.Value)
	e, ok := v.typ.(types.Enum)
	if !ok {
		panic(faultf("match on '%s' is not implemented", v.typ))
	}
	def := c.arena.Enum(e)
	et := c.enumType(e)
	slot := c.alloca(et, fmt.Sprintf("match.%d", n.UID()))
	c.block.NewStore(v.val, slot)
	tag := c.block.NewExtractValue(v.val, 0)

	var cases []*ir.Case
	var blocks []*ir.Block
	seen := map[int]bool{}
	for _, cs := range n.Cases {
		t, _, found := def.Item(cs.Name.Operand)
		if !found {
			panic(faultf("enum '%s' has no item '%s'", e, cs.Name.Operand))
		}
		blk := c.fn.NewBlock(fmt.Sprintf("match.case.%d", cs.UID()))
		blocks = append(blocks, blk)
		if !seen[t] {
			seen[t] = true
			cases = append(cases, ir.NewCase(i64(int64(t)), blk))
		}
	}
	var dflt *ir.Block
	if n.Default != nil {
		dflt = c.fn.NewBlock(fmt.Sprintf("match.default.%d", n.UID()))
	}
	end := c.fn.NewBlock(fmt.Sprintf("match.end.%d", n.UID()))
	if dflt == nil {
		dflt = end
	}
	c.block.NewSwitch(tag, dflt, cases...)

	for i, cs := range n.Cases {
		c.block = blocks[i]
		_, payload, _ := def.Item(cs.Name.Operand)
		bound := v.val
		if payload != nil {
			bound = c.block.NewLoad(c.typ(payload), c.payload(c.block, et, slot, payload))
		}
		mark := len(c.locals)
		c.bind(cs, bound)
		c.lowerCode(cs.Body)
		c.locals = c.locals[:mark]
		c.branch(end)
	}
	if n.Default != nil {
		c.block = dflt
		c.lowerCode(n.Default)
		c.branch(end)
	}
	c.block = end
}

func (c *ctx) lowerAssert(n *ast.Assert) {
	v := c.expr(n.Value)
	explanation := c.expr(n.Explanation)
	fail := c.fn.NewBlock(fmt.Sprintf("assert.fail.%d", n.UID()))
	ok := c.fn.NewBlock(fmt.Sprintf("assert.ok.%d", n.UID()))
	c.block.NewCondBr(v.val, ok, fail)
	fail.NewCall(c.assertHandler(), explanation.val)
	fail.NewUnreachable()
	c.block = ok
}

// assertHandler writes "assertion failed: <explanation>" to stderr and
// exits with status 1.
func (c *ctx) assertHandler() *ir.Func {
	if c.assertFail != nil {
		return c.assertFail
	}
	fn := c.m.NewFunc("assert.fail", lltypes.Void, ir.NewParam("explanation", c.str))
	b := fn.NewBlock("entry")
	c.writeStr(b, 2, c.strConst("assertion failed: "))
	c.writeStr(b, 2, fn.Params[0])
	c.writeStr(b, 2, c.strConst("\n"))
	b.NewCall(c.libcFun("exit", lltypes.Void, lltypes.I32), i32(1))
	b.NewUnreachable()
	c.assertFail = fn
	return fn
}

func (c *ctx) writeStr(b *ir.Block, fd int64, s value.Value) {
	write := c.libcFun("write", lltypes.I32, lltypes.I32, lltypes.I8Ptr, lltypes.I32)
	length := b.NewTrunc(b.NewExtractValue(s, 0), lltypes.I32)
	b.NewCall(write, constant.NewInt(lltypes.I32, fd), b.NewExtractValue(s, 1), length)
}

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

var (
	timespec = lltypes.NewStruct(lltypes.I64, lltypes.I64)
	termios  = lltypes.NewStruct(lltypes.I32, lltypes.I32, lltypes.I32, lltypes.I32, lltypes.I8,
		lltypes.NewArray(32, lltypes.I8), lltypes.I32, lltypes.I32)
)

// implementation fills the body of an intrinsic wrapper. params are the
// visible parameters, after the environment.
type implementation func(c *ctx, b *ir.Block, params []value.Value)

// implementations is indexed by intrinsic id.
var implementations = []implementation{
	// exit
	func(c *ctx, b *ir.Block, p []value.Value) {
		b.NewCall(c.libcFun("exit", lltypes.Void, lltypes.I32), b.NewTrunc(p[0], lltypes.I32))
		b.NewUnreachable()
	},
	// write
	func(c *ctx, b *ir.Block, p []value.Value) {
		write := c.libcFun("write", lltypes.I32, lltypes.I32, lltypes.I8Ptr, lltypes.I32)
		length := b.NewTrunc(b.NewExtractValue(p[1], 0), lltypes.I32)
		n := b.NewCall(write, b.NewTrunc(p[0], lltypes.I32), b.NewExtractValue(p[1], 1), length)
		b.NewRet(b.NewSExt(n, lltypes.I64))
	},
	// read
	func(c *ctx, b *ir.Block, p []value.Value) {
		read := c.libcFun("read", lltypes.I32, lltypes.I32, lltypes.I8Ptr, lltypes.I32)
		n := b.NewCall(read, b.NewTrunc(p[0], lltypes.I32), p[1], b.NewTrunc(p[2], lltypes.I32))
		b.NewRet(b.NewSExt(n, lltypes.I64))
	},
	// ptr
	func(c *ctx, b *ir.Block, p []value.Value) {
		b.NewRet(b.NewExtractValue(p[0], 1))
	},
	// len
	func(c *ctx, b *ir.Block, p []value.Value) {
		b.NewRet(b.NewExtractValue(p[0], 0))
	},
	// str
	func(c *ctx, b *ir.Block, p []value.Value) {
		s := b.NewInsertValue(constant.NewUndef(c.str), p[0], 0)
		b.NewRet(b.NewInsertValue(s, p[1], 1))
	},
	// load_byte
	func(c *ctx, b *ir.Block, p []value.Value) {
		b.NewRet(b.NewZExt(b.NewLoad(lltypes.I8, p[0]), lltypes.I64))
	},
	// save_byte
	func(c *ctx, b *ir.Block, p []value.Value) {
		b.NewStore(b.NewTrunc(p[1], lltypes.I8), p[0])
		b.NewRet(nil)
	},
	// load_int
	func(c *ctx, b *ir.Block, p []value.Value) {
		b.NewRet(b.NewLoad(lltypes.I64, p[0]))
	},
	// save_int
	func(c *ctx, b *ir.Block, p []value.Value) {
		b.NewStore(p[1], p[0])
		b.NewRet(nil)
	},
	// nanosleep
	func(c *ctx, b *ir.Block, p []value.Value) {
		ts := lltypes.NewPointer(timespec)
		nanosleep := c.libcFun("nanosleep", lltypes.I32, ts, ts)
		n := b.NewCall(nanosleep, b.NewBitCast(p[0], ts), b.NewBitCast(p[1], ts))
		b.NewRet(b.NewSExt(n, lltypes.I64))
	},
	// fcntl
	func(c *ctx, b *ir.Block, p []value.Value) {
		fcntl := c.libcFun("fcntl", lltypes.I32, lltypes.I32, lltypes.I32)
		fcntl.Sig.Variadic = true
		n := b.NewCall(fcntl, b.NewTrunc(p[0], lltypes.I32), b.NewTrunc(p[1], lltypes.I32), b.NewTrunc(p[2], lltypes.I32))
		b.NewRet(b.NewSExt(n, lltypes.I64))
	},
	// tcsetattr
	func(c *ctx, b *ir.Block, p []value.Value) {
		t := lltypes.NewPointer(termios)
		tcsetattr := c.libcFun("tcsetattr", lltypes.I32, lltypes.I32, lltypes.I32, t)
		n := b.NewCall(tcsetattr, b.NewTrunc(p[0], lltypes.I32), b.NewTrunc(p[1], lltypes.I32), b.NewBitCast(p[2], t))
		b.NewRet(b.NewSExt(n, lltypes.I64))
	},
	// tcgetattr
	func(c *ctx, b *ir.Block, p []value.Value) {
		t := lltypes.NewPointer(termios)
		tcgetattr := c.libcFun("tcgetattr", lltypes.I32, lltypes.I32, t)
		n := b.NewCall(tcgetattr, b.NewTrunc(p[0], lltypes.I32), b.NewBitCast(p[1], t))
		b.NewRet(b.NewSExt(n, lltypes.I64))
	},
}

func init() {
	if len(implementations) != len(types.Intrinsics) {
		panic(fmt.Sprintf("%d intrinsic implementations for %d intrinsics", len(implementations), len(types.Intrinsics)))
	}
	for i, in := range types.Intrinsics {
		if in.ID != i {
			panic(fmt.Sprintf("intrinsic %s has id %d at index %d", in.Name, in.ID, i))
		}
	}
}

// intrinsic returns the wrapper of the intrinsic a use declaration names.
// Only intrinsics that are referenced get emitted.
func (c *ctx) intrinsic(u *ast.Use) *ir.Func {
	in, ok := types.LookupIntrinsic(u.Name.Operand)
	if !ok {
		panic(faultf("unknown intrinsic '%s'", u.Name.Operand))
	}
	if fn, ok := c.intrinsics[in.ID]; ok {
		return fn
	}
	params := []*ir.Param{ir.NewParam(".env", lltypes.I8Ptr)}
	for i, a := range in.Fun.Args {
		params = append(params, ir.NewParam(fmt.Sprintf("arg%d", i), c.typ(a)))
	}
	fn := c.m.NewFunc("intrinsic."+in.Name, c.typ(in.Fun.Return), params...)
	var visible []value.Value
	for _, p := range fn.Params[1:] {
		visible = append(visible, p)
	}
	implementations[in.ID](c, fn.NewBlock("entry"), visible)
	c.intrinsics[in.ID] = fn
	return fn
}

// libcFun declares a C library function once.
func (c *ctx) libcFun(name string, ret lltypes.Type, params ...lltypes.Type) *ir.Func {
	if fn, ok := c.libc[name]; ok {
		return fn
	}
	var ps []*ir.Param
	for _, p := range params {
		ps = append(ps, ir.NewParam("", p))
	}
	fn := c.m.NewFunc(name, ret, ps...)
	c.libc[name] = fn
	return fn
}

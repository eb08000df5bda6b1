// Package codegen lowers checked modules to textual LLVM IR.
//
// The generator trusts the checker. Everything it needs to know about a
// node (its type, what a name refers to, which overload a call picked) comes
// from checker.Info, and anything that does not fit is reported as an
// InternalError rather than a user error.
package codegen

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/tliron/commonlog"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/checker"
	"github.com/pontaoski/taipan/types"
)

var log = commonlog.GetLogger("taipan.codegen")

const header = `; generated by taipan
; ---------------------------
`

type Options struct {
	// Verbose appends the debug trailer.
	Verbose bool
	// Library leaves out the native entry point and embeds the exported
	// signatures of the root module instead.
	Library bool
	// LastID is the final value of the node id counter, reported in the
	// trailer.
	LastID int
}

// operand is a lowered expression together with its checked type. Names of
// modules and enums have no runtime value and lower to a nil value.
type operand struct {
	typ types.Type
	val value.Value
}

type local struct {
	decl ast.Node
	val  value.Value
}

type ctorKey struct {
	enum int
	tag  int
}

type ctx struct {
	arena *types.Arena
	info  *checker.Info
	opts  Options
	m     *ir.Module

	str     *lltypes.StructType
	structs map[int]*lltypes.StructType
	statics map[int]*lltypes.StructType
	enums   map[int]*lltypes.StructType

	funs       map[*ast.Fun]*ir.Func
	bound      map[*ast.Fun]*ir.Func
	ctors      map[ctorKey]*ir.Func
	intrinsics map[int]*ir.Func
	libc       map[string]*ir.Func
	strings    map[string]*ir.Global
	globals    map[ast.Node]*ir.Global
	kinds      map[int]*ir.Global
	consts     []*ast.Const
	staticInit *ir.Func
	assertFail *ir.Func

	// state of the function being lowered
	fn     *ir.Func
	entry  *ir.Block
	block  *ir.Block
	retvar value.Value
	ret    *ir.Block
	locals []local
}

func newCtx(s *checker.Session, opts Options) *ctx {
	c := &ctx{
		arena:      s.Arena,
		info:       s.Info,
		opts:       opts,
		m:          ir.NewModule(),
		structs:    map[int]*lltypes.StructType{},
		statics:    map[int]*lltypes.StructType{},
		enums:      map[int]*lltypes.StructType{},
		funs:       map[*ast.Fun]*ir.Func{},
		bound:      map[*ast.Fun]*ir.Func{},
		ctors:      map[ctorKey]*ir.Func{},
		intrinsics: map[int]*ir.Func{},
		libc:       map[string]*ir.Func{},
		strings:    map[string]*ir.Global{},
		globals:    map[ast.Node]*ir.Global{},
		kinds:      map[int]*ir.Global{},
	}
	c.str = lltypes.NewStruct(lltypes.I64, lltypes.I8Ptr)
	c.m.NewTypeDef("str", c.str)
	return c
}

// Generate lowers every module the session checked, imports first, and
// returns the IR text. The last module is the root; its main becomes the
// native entry point.
func Generate(s *checker.Session, opts Options) (out string, err error) {
	modules := s.Modules()
	if len(modules) == 0 {
		return "", recovered(faultf("no checked module to generate"))
	}
	root := modules[len(modules)-1]

	defer func() {
		if v := recover(); v != nil {
			out, err = "", recovered(v)
		}
	}()

	c := newCtx(s, opts)
	c.m.SourceFilename = root.Module.Path

	tops := 0
	for _, mc := range modules {
		tops += len(mc.Module.Tops)
		for _, top := range mc.Module.Tops {
			c.declare(top)
		}
	}
	for _, mc := range modules {
		for _, top := range mc.Module.Tops {
			c.toplevel(top)
		}
	}
	if c.staticInit != nil {
		c.staticInit.Blocks[len(c.staticInit.Blocks)-1].NewRet(nil)
	}

	if opts.Library {
		c.embedTypeInfo(root)
	} else {
		c.entryPoint(root)
	}
	c.runtimeFirst()
	log.Infof("generated %d modules, %d functions", len(modules), len(c.m.Funcs))

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(c.m.String())
	if opts.Verbose {
		c.trailer(&sb, tops)
	}
	return sb.String(), nil
}

// declare is the forward declaration pass: every function and global
// exists before any body refers to it.
func (c *ctx) declare(top ast.Node) {
	switch t := top.(type) {
	case *ast.Fun:
		c.funs[t] = c.newFun(fmt.Sprintf("fun_%d", t.UID()), c.info.Funs[t], t.Args)
	case *ast.Struct:
		for _, f := range t.Funs {
			c.funs[f] = c.newFun(fmt.Sprintf("fun_%d", f.UID()), c.unbound(f), f.Args)
		}
	case *ast.Enum:
		for _, f := range t.Funs {
			c.funs[f] = c.newFun(fmt.Sprintf("fun_%d", f.UID()), c.unbound(f), f.Args)
		}
	case *ast.Var:
		typ := c.typ(c.typeOf(t.Type))
		c.globals[t] = c.m.NewGlobalDef(fmt.Sprintf(".var.%d", t.UID()), constant.NewZeroInitializer(typ))
	case *ast.Memo:
		typ := lltypes.NewArray(uint64(t.Size), lltypes.I8)
		c.globals[t] = c.m.NewGlobalDef(fmt.Sprintf(".memo.%d", t.UID()), constant.NewZeroInitializer(typ))
	case *ast.Const:
		c.consts = append(c.consts, t)
	}
}

// unbound is the signature of a method with the receiver as an ordinary
// first argument.
func (c *ctx) unbound(f *ast.Fun) types.Fun {
	fun := c.info.Funs[f]
	return types.Fun{Args: fun.Args, Return: fun.Return}
}

func (c *ctx) newFun(name string, fun types.Fun, args []*ast.TypedVariable) *ir.Func {
	params := []*ir.Param{ir.NewParam(".env", lltypes.I8Ptr)}
	for i, a := range args {
		params = append(params, ir.NewParam(a.Name.Operand, c.typ(fun.Args[i])))
	}
	return c.m.NewFunc(name, c.typ(fun.Return), params...)
}

func (c *ctx) toplevel(top ast.Node) {
	switch t := top.(type) {
	case *ast.Fun:
		c.body(t)
	case *ast.Struct:
		for _, f := range t.Funs {
			c.body(f)
		}
		if len(t.StaticVariables) != 0 {
			c.initStatics(t)
		}
	case *ast.Enum:
		for _, f := range t.Funs {
			c.body(f)
		}
	case *ast.Import, *ast.FromImport, *ast.Use, *ast.Mix, *ast.Const,
		*ast.Var, *ast.Memo, *ast.TypeDefinition:
	default:
		panic(faultf("unknown top level %T", top))
	}
}

// begin starts lowering into fn. Argument values are copied into slots so
// references load them like any other variable.
func (c *ctx) begin(fn *ir.Func) {
	c.fn = fn
	c.entry = fn.NewBlock("entry")
	c.block = c.entry
	c.retvar = nil
	c.ret = nil
	c.locals = c.locals[:0]
}

func (c *ctx) body(f *ast.Fun) {
	fn := c.funs[f]
	fun := c.info.Funs[f]
	c.begin(fn)

	ret := c.typ(fun.Return)
	void := types.Equal(fun.Return, types.Void)
	if !void {
		slot := c.entry.NewAlloca(ret)
		slot.SetName(".retvar")
		c.retvar = slot
	}
	for i, a := range f.Args {
		p := fn.Params[i+1]
		slot := c.entry.NewAlloca(p.Type())
		slot.SetName(fmt.Sprintf("%s.%d", a.Name.Operand, a.UID()))
		c.entry.NewStore(p, slot)
		c.bind(a, slot)
	}
	c.ret = fn.NewBlock(".return")

	c.lowerCode(f.Code)
	if c.block.Term == nil {
		if void {
			c.block.NewBr(c.ret)
		} else {
			c.block.NewUnreachable()
		}
	}

	if void {
		c.ret.NewRet(nil)
	} else {
		c.ret.NewRet(c.ret.NewLoad(ret, c.retvar))
	}
	// the return block goes last
	blocks := fn.Blocks
	for i, b := range blocks {
		if b == c.ret {
			fn.Blocks = append(append(blocks[:i:i], blocks[i+1:]...), c.ret)
			break
		}
	}
}

// initStatics appends the initialization of a struct's statics to the
// static initializer, which the entry point runs before main.
func (c *ctx) initStatics(n *ast.Struct) {
	if c.staticInit == nil {
		c.staticInit = c.m.NewFunc("static.init", lltypes.Void)
		c.begin(c.staticInit)
	} else {
		c.fn = c.staticInit
		c.block = c.staticInit.Blocks[len(c.staticInit.Blocks)-1]
		c.entry = c.staticInit.Blocks[0]
		c.locals = c.locals[:0]
	}
	s := c.info.Structs[n]
	g := c.kind(s)
	st := c.staticsType(s)
	for i, sv := range n.StaticVariables {
		v := c.expr(sv.Value)
		c.block.NewStore(v.val, c.block.NewGetElementPtr(st, g, i32(0), i32(int64(i))))
	}
}

// entryPoint emits the native main: it runs the static initializer, then
// the program's main.
func (c *ctx) entryPoint(root *checker.Checker) {
	var main *ast.Fun
	for _, top := range root.Module.Tops {
		if f, ok := top.(*ast.Fun); ok && f.IsMain() {
			main = f
		}
	}
	if main == nil {
		panic(faultf("module %s has no entry point 'main'", root.Module.Path))
	}
	fn := c.m.NewFunc("main", lltypes.I64)
	b := fn.NewBlock("entry")
	if c.staticInit != nil {
		b.NewCall(c.staticInit)
	}
	b.NewCall(c.funs[main], constant.NewNull(lltypes.I8Ptr))
	b.NewRet(i64(0))
}

func (c *ctx) trailer(sb *strings.Builder, tops int) {
	sb.WriteString("\n; ---------------------------\n; DEBUG:\n")
	fmt.Fprintf(sb, "; there were %d tops\n", tops)
	sb.WriteString("; constant values:\n")
	for _, k := range c.consts {
		fmt.Fprintf(sb, ";\t%s = %d\n", k.Name.Operand, k.Value)
	}
	fmt.Fprintf(sb, "; state of id counter: %d\n", c.opts.LastID)
}

func (c *ctx) bind(decl ast.Node, v value.Value) {
	c.locals = append(c.locals, local{decl, v})
}

func (c *ctx) local(decl ast.Node) value.Value {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].decl == decl {
			return c.locals[i].val
		}
	}
	panic(faultf("no storage for %T %d", decl, decl.UID()))
}

// alloca reserves a slot in the entry block, so loops do not grow the
// stack.
func (c *ctx) alloca(t lltypes.Type, name string) value.Value {
	slot := c.entry.NewAlloca(t)
	slot.SetName(name)
	return slot
}

// runtimeFirst moves the intrinsics and the C functions behind them ahead
// of the program's own functions, keeping the order within each group.
func (c *ctx) runtimeFirst() {
	runtime := map[*ir.Func]bool{}
	for _, fn := range c.intrinsics {
		runtime[fn] = true
	}
	for _, fn := range c.libc {
		runtime[fn] = true
	}
	if c.assertFail != nil {
		runtime[c.assertFail] = true
	}
	var head, tail []*ir.Func
	for _, fn := range c.m.Funcs {
		if runtime[fn] {
			head = append(head, fn)
		} else {
			tail = append(tail, fn)
		}
	}
	c.m.Funcs = append(head, tail...)
}

// fresh continues lowering in a new block after a terminator. Code there is
// unreachable but still has to be well formed.
func (c *ctx) fresh() {
	c.block = c.fn.NewBlock("")
}

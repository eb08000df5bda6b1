// Package checker assigns a type to every node of a module tree, resolving
// names through lexical scopes and imported modules.
//
// Errors go to the session's diag.Bin. Recoverable errors let checking go on
// with the most plausible type; critical ones abort the module and surface
// from GoCheck.
package checker

import (
	"fmt"
	"strings"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/diag"
	"github.com/pontaoski/taipan/token"
	"github.com/pontaoski/taipan/types"
)

// Names the builtin module has to define. They are copied into every module
// that has a builtin.
const (
	DefaultFormatter = "format"
	IntToStr         = "int_to_str"
	CharToStr        = "char_to_str"
	BoolToStr        = "bool_to_str"
)

var BuiltinWords = []string{DefaultFormatter, IntToStr, CharToStr, BoolToStr}

type Checker struct {
	Module *ast.Module
	// Tokens holds the semantic tokens of the root module when the session
	// asked for them.
	Tokens []SemanticToken

	session   *Session
	names     *scope
	typeNames *scope
	modules   map[int]*Checker
	builtins  map[string]Binding
	expected  types.Type
	declared  map[*ast.Fun]bool
	semantic  bool
	seen      map[tokenKey]bool
}

func (c *Checker) bin() *diag.Bin      { return c.session.Bin }
func (c *Checker) arena() *types.Arena { return c.session.Arena }
func (c *Checker) info() *Info         { return c.session.Info }

// Lookup returns the module level binding of a name after checking.
func (c *Checker) Lookup(name string) (Binding, bool) {
	return c.names.lookup(name)
}

// GoCheck checks the builtin module, then every top level in order. It
// returns the critical error that stopped it, if any.
func (c *Checker) GoCheck() *diag.Error {
	return c.bin().Catch(func() {
		if c.Module.Builtin != nil {
			c.importBuiltin(c.Module.Builtin)
		}
		for i, top := range c.Module.Tops {
			if _, ok := top.(*ast.Fun); ok {
				c.forwardDeclare(c.Module.Tops[i:])
			}
			c.Check(top)
		}
	})
}

func (c *Checker) importBuiltin(m *ast.Module) {
	bc := c.session.importModule(m, c.Module.Place())
	c.modules[m.UID()] = bc
	for _, word := range BuiltinWords {
		def, isName := bc.names.lookup(word)
		typ, isType := bc.typeNames.lookup(word)
		if !isName && !isType {
			c.bin().Critical(diag.Builtin, m.Place(), "builtin module '%s' does not define '%s'", m.Path, word)
		}
		if isName {
			c.names.bind(word, def)
			c.builtins[word] = def
		}
		if isType {
			c.typeNames.bind(word, typ)
		}
	}
}

// forwardDeclare binds the functions that are still ahead whose signatures
// already resolve, so function bodies can call each other regardless of
// order.
func (c *Checker) forwardDeclare(tops []ast.Node) {
	for _, top := range tops {
		f, ok := top.(*ast.Fun)
		if !ok || c.declared[f] {
			continue
		}
		if fun, ok := c.quietSignature(f); ok {
			c.declared[f] = true
			c.names.bind(f.Name.Operand, Binding{fun, f, f.Name.Location})
		}
	}
}

func (c *Checker) quietSignature(f *ast.Fun) (types.Fun, bool) {
	var fun types.Fun
	for _, arg := range f.Args {
		t, ok := c.quietType(arg.Type)
		if !ok {
			return fun, false
		}
		fun.Args = append(fun.Args, t)
	}
	ret, ok := c.quietType(f.ReturnType)
	fun.Return = ret
	return fun, ok
}

// quietType resolves a type node without reporting anything.
func (c *Checker) quietType(n ast.Node) (types.Type, bool) {
	switch n := n.(type) {
	case nil:
		return types.Void, true
	case *ast.TypeReference:
		if p, ok := types.LookupPrimitive(n.Ref.Operand); ok {
			return p, true
		}
		b, ok := c.typeNames.lookup(n.Ref.Operand)
		return b.Type, ok
	case *ast.TypePointer:
		p, ok := c.quietType(n.Pointed)
		return types.Ptr{Pointed: p}, ok
	case *ast.TypeArray:
		e, ok := c.quietType(n.Elem)
		return types.Array{Elem: e, Size: n.Size}, ok
	case *ast.TypeFun:
		var fun types.Fun
		for _, arg := range n.Args {
			t, ok := c.quietType(arg)
			if !ok {
				return nil, false
			}
			fun.Args = append(fun.Args, t)
		}
		ret, ok := c.quietType(n.ReturnType)
		fun.Return = ret
		return fun, ok
	}
	return nil, false
}

// Check types one node and records the result.
func (c *Checker) Check(node ast.Node) types.Type {
	t := c.check(node)
	c.info().Types[node] = t
	return t
}

func (c *Checker) check(node ast.Node) types.Type {
	switch n := node.(type) {
	case *ast.Assignment:
		return c.checkAssignment(n)
	case *ast.BinaryOperation:
		return c.checkBinary(n)
	case *ast.Call:
		return c.checkCall(n)
	case *ast.Cast:
		return c.checkCast(n)
	case *ast.CharNum:
		c.emit(n.Place(), TokenCharacterNumber, 0, types.Char, nil)
		return types.Char
	case *ast.CharStr:
		c.emit(n.Place(), TokenCharacterString, 0, types.Char, nil)
		return types.Char
	case *ast.Code:
		return c.checkCode(n)
	case *ast.Const:
		return c.checkConst(n)
	case *ast.Constant:
		return c.checkConstant(n)
	case *ast.Declaration:
		return c.checkDeclaration(n)
	case *ast.Dot:
		return c.checkDot(n)
	case *ast.Enum:
		return c.checkEnum(n)
	case *ast.ExprStatement:
		c.Check(n.Value)
		return types.Void
	case *ast.FromImport:
		return c.checkFromImport(n)
	case *ast.Fun:
		return c.checkFun(n, TokenFunction, 0, true)
	case *ast.If:
		return c.checkIf(n)
	case *ast.Import:
		return c.checkImport(n)
	case *ast.Int:
		c.emit(n.Place(), TokenInteger, 0, types.Int, nil)
		return types.Int
	case *ast.Match:
		return c.checkMatch(n)
	case *ast.Memo:
		return c.checkMemo(n)
	case *ast.Mix:
		return c.checkMix(n)
	case *ast.ReAssignment:
		return c.checkReAssignment(n)
	case *ast.ReferTo:
		return c.checkRefer(n)
	case *ast.Return:
		return c.checkReturn(n)
	case *ast.Save:
		return c.checkSave(n)
	case *ast.Set:
		return c.checkSet(n)
	case *ast.Short:
		c.emit(n.Place(), TokenShort, 0, types.Short, nil)
		return types.Short
	case *ast.Str:
		c.emit(n.Place(), TokenString, 0, types.Str, nil)
		return types.Str
	case *ast.StrCast:
		return c.checkStrCast(n)
	case *ast.Struct:
		return c.checkStruct(n)
	case *ast.Subscript:
		return c.checkSubscript(n)
	case *ast.Template:
		return c.checkTemplate(n)
	case *ast.TypeArray:
		c.emit(n.Place(), TokenTypeName, 0, nil, nil)
		return types.Array{Elem: c.Check(n.Elem), Size: n.Size}
	case *ast.TypeDefinition:
		return c.checkTypeDefinition(n)
	case *ast.TypeFun:
		return c.checkTypeFun(n)
	case *ast.TypePointer:
		c.emit(n.Place(), TokenTypeName, 0, nil, nil)
		return types.Ptr{Pointed: c.Check(n.Pointed)}
	case *ast.TypeReference:
		return c.checkTypeReference(n)
	case *ast.UnaryOperation:
		return c.checkUnary(n)
	case *ast.Use:
		return c.checkUse(n)
	case *ast.Var:
		return c.checkVar(n)
	case *ast.VariableSave:
		return c.checkVariableSave(n)
	case *ast.While:
		return c.checkWhile(n)
	case *ast.Assert:
		return c.checkAssert(n)
	}
	panic(fmt.Sprintf("unreachable: unknown node %T", node))
}

// typeOf checks a type node; a missing one means void.
func (c *Checker) typeOf(n ast.Node) types.Type {
	if n == nil {
		return types.Void
	}
	return c.Check(n)
}

func (c *Checker) funType(f *ast.Fun, bound int) types.Fun {
	fun := types.Fun{Bound: bound, Return: c.typeOf(f.ReturnType)}
	for _, arg := range f.Args {
		t := c.Check(arg.Type)
		c.info().Types[arg] = t
		fun.Args = append(fun.Args, t)
	}
	return fun
}

func returnPlace(f *ast.Fun) token.Span {
	if f.ReturnType != nil {
		return f.ReturnType.Place()
	}
	return f.Place()
}

func (c *Checker) checkFun(f *ast.Fun, tok TokenType, bound int, addName bool) types.Type {
	fun := c.funType(f, bound)
	c.info().Funs[f] = fun
	if addName && bound == 0 {
		c.declared[f] = true
		c.names.bind(f.Name.Operand, Binding{fun, f, f.Name.Location})
	}
	if f.IsMain() && bound == 0 {
		if !types.Equal(fun.Return, types.Void) {
			c.bin().Add(diag.MainReturn, returnPlace(f), "entry point 'main' must return %s, found '%s'", types.Void, fun.Return)
		}
		if len(f.Args) != 0 {
			var args []string
			for _, a := range fun.Args {
				args = append(args, a.String())
			}
			c.bin().Add(diag.MainArgs, f.Place(), "entry point 'main' must take no arguments, found '(%s)'", strings.Join(args, ", "))
		}
	}

	mark := c.names.mark()
	for i, arg := range f.Args {
		c.names.bind(arg.Name.Operand, Binding{fun.Args[i], arg, arg.Name.Location})
	}
	saved := c.expected
	c.expected = fun.Return
	actual := c.Check(f.Code)
	if !types.Equal(fun.Return, actual) {
		c.bin().Add(diag.FunReturn, returnPlace(f), "specified return type is '%s' but function did not return", fun.Return)
	}
	c.names.restore(mark)
	c.expected = saved

	c.emit(f.Name.Location, tok, Definition, fun, nil)
	for _, arg := range f.Args {
		c.emit(arg.Name.Location, TokenArgument, Declaration, nil, nil)
	}
	return types.Void
}

// checkCode checks a block in its own scope. The result is void when control
// may fall out of the block and the expected return type when every path
// through it returns.
func (c *Checker) checkCode(n *ast.Code) types.Type {
	mark := c.names.mark()
	defer c.names.restore(mark)

	var ret types.Type = types.Void
	for _, statement := range n.Statements {
		r := c.Check(statement)
		if types.Equal(ret, types.Void) && !types.Equal(r, types.Void) {
			if !types.Equal(r, c.expected) {
				panic(fmt.Sprintf("unreachable: %T statement did not follow return rules", statement))
			}
			ret = r
		}
	}
	return ret
}

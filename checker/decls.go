package checker

import (
	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/diag"
	"github.com/pontaoski/taipan/types"
)

func (c *Checker) checkImport(n *ast.Import) types.Type {
	mc := c.session.importModule(n.Module, n.Place())
	c.modules[n.Module.UID()] = mc
	t := types.Module{UID: n.Module.UID(), Path: n.Module.Path}
	c.names.bind(n.Name.Operand, Binding{t, n, n.Name.Location})
	c.emit(n.Name.Location, TokenModule, Declaration, t, nil)
	return types.Void
}

func (c *Checker) checkFromImport(n *ast.FromImport) types.Type {
	mc := c.session.importModule(n.Module, n.Place())
	c.modules[n.Module.UID()] = mc
	for _, tok := range n.ImportedNames {
		name := tok.Operand
		def, isName := mc.names.lookup(name)
		typ, isType := mc.typeNames.lookup(name)
		if !isName && !isType {
			c.bin().Add(diag.ImportName, tok.Location, "name '%s' is not defined in module '%s'", name, n.Module.Path)
		}
		c.emitReference(def, isName, tok.Location, Declaration)
		if isName {
			c.names.bind(name, def)
		}
		if isType {
			c.typeNames.bind(name, typ)
		}
	}
	return types.Void
}

func (c *Checker) methods(funs []*ast.Fun) []types.Method {
	var ms []types.Method
	for _, f := range funs {
		ms = append(ms, types.Method{Name: f.Name.Operand, Fun: c.funType(f, 1), Decl: f})
	}
	return ms
}

func (c *Checker) fields(vars []*ast.TypedVariable) []types.Field {
	var fs []types.Field
	for _, v := range vars {
		t := c.Check(v.Type)
		c.info().Types[v] = t
		fs = append(fs, types.Field{Name: v.Name.Operand, Type: t})
	}
	return fs
}

// checkStruct registers the struct before reading its body so fields and
// methods can mention it.
func (c *Checker) checkStruct(n *ast.Struct) types.Type {
	name := n.Name.Operand
	s := c.arena().NewStruct(n.UID(), name)
	c.info().Structs[n] = s
	c.typeNames.bind(name, Binding{s, n, n.Name.Location})

	def := types.StructDef{Decl: n, Fields: c.fields(n.Variables)}
	for _, sv := range n.StaticVariables {
		t := c.Check(sv.Var.Type)
		c.info().Types[sv.Var] = t
		def.Statics = append(def.Statics, types.Field{Name: sv.Var.Name.Operand, Type: t})
	}
	def.Methods = c.methods(n.Funs)
	c.arena().DefineStruct(s, def)

	kind := types.StructKind{Struct: s}
	c.names.bind(name, Binding{kind, n, n.Name.Location})
	c.emit(n.Name.Location, TokenStruct, Definition, s, nil)

	for i, v := range n.Variables {
		c.emit(v.Name.Location, TokenProperty, Definition, def.Fields[i].Type, nil)
		if !c.arena().Sized(def.Fields[i].Type) {
			c.bin().Add(diag.StructSized, v.Place(), "field '%s' of structure '%s' has type '%s' which is not sized", v.Name.Operand, name, def.Fields[i].Type)
		}
	}
	self := types.Ptr{Pointed: s}
	for _, f := range n.Funs {
		rt := c.typeOf(f.ReturnType)
		c.checkBoundFun(self, f, rt)
		if f.Name.Operand == "__init__" && !types.Equal(rt, types.Void) {
			c.bin().Critical(diag.InitMagicRet, returnPlace(f), "'__init__' magic method should return '%s', not '%s'", types.Void, rt)
		}
	}
	for i, sv := range n.StaticVariables {
		value := c.Check(sv.Value)
		c.emit(sv.Var.Name.Location, TokenVariable, Definition|Static, value, nil)
		if want := def.Statics[i].Type; !types.Equal(want, value) {
			c.bin().Add(diag.StructStatics, sv.Place(), "static variable '%s' has type '%s' but is assigned a value of type '%s'", sv.Var.Name.Operand, want, value)
		}
	}
	return types.Void
}

func (c *Checker) checkEnum(n *ast.Enum) types.Type {
	name := n.Name.Operand
	e := c.arena().NewEnum(n.UID(), name)
	c.info().Enums[n] = e
	c.typeNames.bind(name, Binding{e, n, n.Name.Location})

	def := types.EnumDef{Decl: n, TypedItems: c.fields(n.TypedItems)}
	for _, item := range n.Items {
		def.Items = append(def.Items, item.Operand)
	}
	def.Methods = c.methods(n.Funs)
	c.arena().DefineEnum(e, def)

	c.names.bind(name, Binding{types.EnumKind{Enum: e}, n, n.Name.Location})
	c.emit(n.Name.Location, TokenEnum, Definition, e, nil)

	self := types.Ptr{Pointed: e}
	for _, f := range n.Funs {
		c.checkBoundFun(self, f, c.typeOf(f.ReturnType))
	}
	for _, item := range n.Items {
		c.emit(item.Location, TokenEnumItem, Definition, e, nil)
	}
	for i, item := range n.TypedItems {
		t := def.TypedItems[i].Type
		c.emit(item.Name.Location, TokenEnumItem, Definition, t, nil)
		if !c.arena().Sized(t) {
			c.bin().Add(diag.EnumSized, item.Place(), "item '%s' of enum '%s' carries type '%s' which is not sized", item.Name.Operand, name, t)
		}
	}
	return types.Void
}

// checkBoundFun checks a method. Its first argument is the receiver and has
// to be a pointer to the owner.
func (c *Checker) checkBoundFun(self types.Type, f *ast.Fun, rt types.Type) {
	if len(f.Args) == 0 {
		c.bin().Critical(diag.BoundFunArgs, f.Place(), "bound function's argument 0 should be '%s' (self), found 0 arguments", self)
	}
	if got := c.Check(f.Args[0].Type); !types.Equal(got, self) {
		c.bin().Add(diag.BoundFunArg, f.Args[0].Place(), "bound function's argument 0 should be '%s' (self), got '%s'", self, got)
	}
	if f.Name.Operand == "__str__" {
		if len(f.Args) != 1 {
			c.bin().Critical(diag.BoundStrMagic, f.Place(), "magic function '__str__' should have 1 argument, not %d", len(f.Args))
		}
		if !types.Equal(rt, types.Str) {
			c.bin().Critical(diag.BoundStrRet, returnPlace(f), "magic function '__str__' should return %s, not %s", types.Str, rt)
		}
	}
	c.checkFun(f, TokenBoundFunction, 1, false)
}

func (c *Checker) checkMix(n *ast.Mix) types.Type {
	mix := types.Mix{Name: n.Name.Operand}
	for _, ref := range n.Funs {
		t := c.Check(ref)
		switch t.(type) {
		case types.Fun, types.StructKind:
		default:
			c.bin().Critical(diag.Mix, ref.Place(), "mix '%s' can only combine functions and structures, not '%s'", mix.Name, t)
		}
		mix.Funs = append(mix.Funs, t)
	}
	c.names.bind(mix.Name, Binding{mix, n, n.Name.Location})
	c.emit(n.Name.Location, TokenMix, Definition, mix, nil)
	return types.Void
}

// checkUse binds an intrinsic. The declared signature has to be exactly the
// registered one.
func (c *Checker) checkUse(n *ast.Use) types.Type {
	declared := types.Fun{Return: c.typeOf(n.ReturnType)}
	for _, arg := range n.ArgTypes {
		declared.Args = append(declared.Args, c.Check(arg))
	}
	intrinsic, ok := types.LookupIntrinsic(n.Name.Operand)
	if !ok {
		c.bin().Critical(diag.Intrinsic, n.Name.Location, "unknown intrinsic '%s'", n.Name.Operand)
	}
	if !types.Equal(declared, intrinsic.Fun) {
		c.bin().Critical(diag.IntrinsicSignature, n.Place(), "malformed intrinsic '%s': declared as '%s', should be '%s'", n.Name.Operand, declared, intrinsic.Fun)
	}
	c.names.bind(n.AsName.Operand, Binding{declared, n, n.Name.Location})
	c.emit(n.Name.Location, TokenFunction, Declaration, declared, nil)
	if n.AsName.Location != n.Name.Location {
		c.emit(n.AsName.Location, TokenFunction, 0, declared, nil)
	}
	return types.Void
}

func (c *Checker) checkVar(n *ast.Var) types.Type {
	t := c.Check(n.Type)
	if !c.arena().Sized(t) {
		c.bin().Add(diag.SizedDeclaration, n.Place(), "type '%s' is not sized, so it can't be declared", t)
	}
	c.names.bind(n.Name.Operand, Binding{types.Ptr{Pointed: t}, n, n.Name.Location})
	c.emit(n.Name.Location, TokenVariable, Declaration, t, nil)
	return types.Void
}

func (c *Checker) checkConst(n *ast.Const) types.Type {
	c.names.bind(n.Name.Operand, Binding{types.Int, n, n.Name.Location})
	c.emit(n.Name.Location, TokenVariable, Definition, types.Int, nil)
	return types.Void
}

func (c *Checker) checkMemo(n *ast.Memo) types.Type {
	t := types.Ptr{Pointed: types.Array{Elem: types.Char, Size: n.Size}}
	c.names.bind(n.Name.Operand, Binding{t, n, n.Name.Location})
	c.emit(n.Name.Location, TokenVariable, Declaration, t, nil)
	return types.Void
}

func (c *Checker) checkTypeDefinition(n *ast.TypeDefinition) types.Type {
	c.emit(n.Name.Location, TokenTypeName, Definition, nil, nil)
	c.typeNames.bind(n.Name.Operand, Binding{c.Check(n.Type), n, n.Name.Location})
	return types.Void
}

func (c *Checker) checkTypeReference(n *ast.TypeReference) types.Type {
	name := n.Ref.Operand
	if p, ok := types.LookupPrimitive(name); ok {
		return p
	}
	b, ok := c.typeNames.lookup(name)
	if !ok {
		c.bin().Critical(diag.TypeReference, n.Ref.Location, "type '%s' is not defined", name)
	}
	def := b.Place
	c.emit(n.Place(), TokenTypeName, 0, b.Type, &def)
	return b.Type
}

func (c *Checker) checkTypeFun(n *ast.TypeFun) types.Type {
	c.emit(n.Place(), TokenTypeName, 0, nil, nil)
	fun := types.Fun{Return: c.typeOf(n.ReturnType)}
	for _, arg := range n.Args {
		fun.Args = append(fun.Args, c.Check(arg))
	}
	return fun
}

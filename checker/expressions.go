package checker

import (
	"fmt"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/diag"
	"github.com/pontaoski/taipan/types"
)

func (c *Checker) checkRefer(n *ast.ReferTo) types.Type {
	b, ok := c.names.lookup(n.Name.Operand)
	c.emitReference(b, ok, n.Name.Location, 0)
	if !ok {
		c.bin().Critical(diag.Refer, n.Place(), "did not find name '%s'", n.Name.Operand)
	}
	c.info().Uses[n] = b
	return b.Type
}

func (c *Checker) checkConstant(n *ast.Constant) types.Type {
	switch n.Name {
	case "True", "False":
		return types.Bool
	case "Null":
		return types.VoidPtr
	}
	panic(fmt.Sprintf("unreachable: unknown constant %q", n.Name))
}

func (c *Checker) checkBinary(n *ast.BinaryOperation) types.Type {
	left := c.Check(n.Left)
	right := c.Check(n.Right)
	op, ok := types.BinaryOpOf(n.Operation)
	var result types.Type
	if ok {
		result, ok = types.BinaryResult(op, left, right)
	}
	if !ok {
		c.bin().Add(diag.BinOp, n.Operation.Location, "unsupported operation '%s' for '%s' and '%s'", n.Operation, left, right)
		result = types.Int
	}
	c.emit(n.Operation.Location, TokenOperator, 0, result, nil)
	return result
}

func (c *Checker) checkUnary(n *ast.UnaryOperation) types.Type {
	operand := c.Check(n.Left)
	op, ok := types.UnaryOpOf(n.Operation)
	var result types.Type
	if ok {
		result, ok = c.arena().UnaryResult(op, operand)
	}
	if !ok {
		c.bin().Add(diag.UnaryOp, n.Operation.Location, "unsupported operation '%s' for '%s'", n.Operation, operand)
		result = operand
	}
	c.emit(n.Operation.Location, TokenOperator, 0, result, nil)
	return result
}

func (c *Checker) checkCall(n *ast.Call) types.Type {
	callee := c.Check(n.Func)
	var args []types.Type
	for _, arg := range n.Args {
		args = append(args, c.Check(arg))
	}
	r, problem := c.arena().ResolveCall(callee, args)
	switch problem {
	case types.NotCallable:
		c.bin().Critical(diag.Callable, n.Place(), "'%s' object is not callable", callee)
	case types.NoInit:
		c.bin().Critical(diag.InitMagic, n.Place(), "structure '%s' has no '__init__' magic defined", callee)
	case types.NoMixMatch:
		c.bin().Critical(diag.CallMix, n.Place(), "did not find function to match '%s' contract in mix '%s'", typeList(args), callee.(types.Mix).Name)
	}
	want := r.Fun.Visible()
	if len(want) != len(args) {
		c.bin().Critical(diag.CallArgs, n.Place(), "function '%s' accepts %d arguments, provided %d arguments", r.Fun, len(want), len(args))
	}
	for i, got := range args {
		if !types.Equal(got, want[i]) {
			c.bin().Add(diag.CallArg, n.Args[i].Place(), "function '%s' argument %d takes '%s', got '%s'", r.Fun, i, want[i], got)
		}
	}
	c.info().Calls[n] = r
	return r.Fun.Return
}

func typeList(ts []types.Type) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += ","
		}
		s += t.String()
	}
	return s
}

func (c *Checker) checkDot(n *ast.Dot) types.Type {
	origin := c.Check(n.Origin)
	name := n.Access.Operand
	at := n.Access.Location
	sel := func(s Selection, t types.Type, tok TokenType) types.Type {
		c.info().Selections[n] = s
		c.emit(at, tok, 0, t, nil)
		return t
	}
	switch o := origin.(type) {
	case types.Module:
		mc, ok := c.session.modules[o.UID]
		if !ok {
			panic(fmt.Sprintf("unreachable: module %s was not checked", o.Path))
		}
		b, ok := mc.names.lookup(name)
		if !ok {
			c.bin().Critical(diag.DotModule, at, "name '%s' was not found in module '%s'", name, o.Path)
		}
		return sel(Selection{Kind: ModuleMember, Binding: b}, b.Type, TokenProperty)
	case types.StructKind:
		def := c.arena().Struct(o.Struct)
		if i, t, ok := def.Static(name); ok {
			return sel(Selection{Kind: StaticField, Index: i, Struct: o.Struct}, t, TokenProperty)
		}
		if m, ok := def.Method(name); ok {
			unbound := types.Fun{Args: m.Fun.Args, Return: m.Fun.Return}
			return sel(Selection{Kind: StaticMethod, Struct: o.Struct, Method: m}, unbound, TokenFunction)
		}
		c.bin().Critical(diag.DotStructKind, at, "structure '%s' has no static member '%s'", o.Struct, name)
	case types.EnumKind:
		tag, payload, ok := c.arena().Enum(o.Enum).Item(name)
		if !ok {
			c.bin().Critical(diag.DotEnumKind, at, "enum '%s' has no item '%s'", o.Enum, name)
		}
		if payload == nil {
			return sel(Selection{Kind: EnumItem, Index: tag, Enum: o.Enum}, o.Enum, TokenEnumItem)
		}
		ctor := types.Fun{Args: []types.Type{payload}, Return: o.Enum}
		return sel(Selection{Kind: EnumConstructor, Index: tag, Enum: o.Enum}, ctor, TokenEnumItem)
	case types.Ptr:
		switch p := o.Pointed.(type) {
		case types.Struct:
			def := c.arena().Struct(p)
			if i, t, ok := def.Field(name); ok {
				return sel(Selection{Kind: FieldAddr, Index: i, Struct: p}, types.Ptr{Pointed: t}, TokenProperty)
			}
			if m, ok := def.Method(name); ok {
				return sel(Selection{Kind: BoundMethod, Struct: p, Method: m}, m.Fun, TokenBoundFunction)
			}
			c.bin().Critical(diag.DotStruct, at, "structure '%s' has no attribute '%s'", p, name)
		case types.Enum:
			if m, ok := c.arena().Enum(p).Method(name); ok {
				return sel(Selection{Kind: BoundMethod, Enum: p, Method: m}, m.Fun, TokenBoundFunction)
			}
			c.bin().Critical(diag.DotEnum, at, "enum '%s' has no bound function '%s'", p, name)
		}
	}
	c.bin().Critical(diag.Dot, at, "'%s' object doesn't have any attributes", origin)
	panic("unreachable")
}

func (c *Checker) checkSubscript(n *ast.Subscript) types.Type {
	origin := c.Check(n.Origin)
	var subs []types.Type
	for _, s := range n.Subscripts {
		subs = append(subs, c.Check(s))
	}
	at := n.Place()
	if types.Equal(origin, types.Str) {
		if len(subs) != 1 {
			c.bin().Critical(diag.StrSubscriptLen, at, "string subscripts should have 1 argument, not %d", len(subs))
		}
		if !types.Equal(subs[0], types.Int) {
			c.bin().Add(diag.StrSubscript, at, "string subscript should be 1 '%s' not '%s'", types.Int, subs[0])
		}
		return types.Char
	}
	if ptr, ok := origin.(types.Ptr); ok {
		switch p := ptr.Pointed.(type) {
		case types.Array:
			if len(subs) != 1 {
				c.bin().Critical(diag.ArraySubscriptLen, at, "array subscripts should have 1 argument, not %d", len(subs))
			}
			if !types.Equal(subs[0], types.Int) {
				c.bin().Add(diag.ArraySubscript, at, "array subscript should be '%s' not '%s'", types.Int, subs[0])
			}
			return types.Ptr{Pointed: p.Elem}
		case types.Struct:
			m, ok := c.arena().Struct(p).Magic("subscript")
			if !ok {
				c.bin().Critical(diag.SubscriptMagic, at, "structure '%s' does not have __subscript__ magic defined", p)
			}
			want := m.Fun.Visible()
			if len(subs) != len(want) {
				c.bin().Critical(diag.StructSubLen, at, "'%s' struct subscript should have %d arguments, not %d", p, len(want), len(subs))
			}
			for i, s := range subs {
				if !types.Equal(s, want[i]) {
					c.bin().Add(diag.StructSubscript, at, "invalid subscript argument %d '%s' for '%s', expected type '%s'", i, s, p, want[i])
				}
			}
			c.info().Subscripts[n] = m
			return m.Fun.Return
		}
	}
	c.bin().Critical(diag.Subscript, at, "'%s' object is not subscriptable", origin)
	panic("unreachable")
}

// checkTemplate checks the values, how each becomes a str, and the
// formatter. A bad default formatter is always critical: it means the
// builtin module itself is broken.
func (c *Checker) checkTemplate(n *ast.Template) types.Type {
	for _, v := range n.Values {
		c.convert(v, c.Check(v))
	}
	explicit := n.Formatter != nil
	at := n.Place()
	var formatter types.Type
	if explicit {
		formatter = c.Check(n.Formatter)
		at = n.Formatter.Place()
	} else {
		b, ok := c.builtins[DefaultFormatter]
		if !ok {
			c.bin().Critical(diag.Builtin, at, "template string needs '%s' from a builtin module, but module '%s' has none", DefaultFormatter, c.Module.Path)
		}
		c.info().Formatters[n] = b
		formatter = b.Type
	}
	report := func(kind diag.Kind, msg string, args ...interface{}) {
		if explicit {
			c.bin().Add(kind, at, msg, args...)
		} else {
			c.bin().Critical(kind, at, msg, args...)
		}
	}

	f, ok := formatter.(types.Fun)
	if !ok {
		c.bin().Critical(diag.TemplateFun, at, "template formatter should be a function, not '%s'", formatter)
	}
	args := f.Visible()
	if len(args) != 3 {
		c.bin().Critical(diag.TemplateArgs, at, "template formatter should have 3 arguments, not %d", len(args))
	}
	strs := types.StrArrayPtr()
	if !types.Equal(args[0], strs) {
		report(diag.TemplateArg0, "template formatter argument 0 (strings) should be '%s', not '%s'", strs, args[0])
	}
	if !types.Equal(args[1], strs) {
		report(diag.TemplateArg1, "template formatter argument 1 (values) should be '%s', not '%s'", strs, args[1])
	}
	if !types.Equal(args[2], types.Int) {
		report(diag.TemplateArg2, "template formatter argument 2 (length) should be '%s', not '%s'", types.Int, args[2])
	}
	return f.Return
}

// convert records how a template value turns into a str.
func (c *Checker) convert(v ast.Node, t types.Type) {
	word := func(name string, from types.Type, kind ConversionKind) {
		b, ok := c.builtins[name]
		want := types.Fun{Args: []types.Type{from}, Return: types.Str}
		if !ok || !types.Equal(b.Type, want) {
			c.bin().Add(diag.TemplateValue, v.Place(), "no converter '%s' of type '%s' to format '%s'", name, want, t)
			return
		}
		c.info().Conversions[v] = Conversion{Kind: kind, Converter: b}
	}
	switch {
	case types.Equal(t, types.Str):
		c.info().Conversions[v] = Conversion{Kind: ConvertNone}
		return
	case types.Equal(t, types.Int):
		word(IntToStr, types.Int, ConvertWord)
		return
	case types.Equal(t, types.Short):
		word(IntToStr, types.Int, ConvertShortWord)
		return
	case types.Equal(t, types.Char):
		word(CharToStr, types.Char, ConvertWord)
		return
	case types.Equal(t, types.Bool):
		word(BoolToStr, types.Bool, ConvertWord)
		return
	}
	if ptr, ok := t.(types.Ptr); ok {
		var m types.Method
		var found bool
		switch p := ptr.Pointed.(type) {
		case types.Struct:
			m, found = c.arena().Struct(p).Magic("str")
		case types.Enum:
			m, found = c.arena().Enum(p).Magic("str")
		}
		if found {
			c.info().Conversions[v] = Conversion{Kind: ConvertMethod, Method: m}
			return
		}
	}
	c.bin().Add(diag.TemplateValue, v.Place(), "value of type '%s' can't be formatted in a template string", t)
}

func (c *Checker) checkStrCast(n *ast.StrCast) types.Type {
	if length := c.Check(n.Length); !types.Equal(length, types.Int) {
		c.bin().Add(diag.StrCastLen, n.Place(), "string length should be '%s' not '%s'", types.Int, length)
	}
	want := types.CharArrayPtr()
	if pointer := c.Check(n.Pointer); !types.Equal(pointer, want) {
		c.bin().Add(diag.StrCastPtr, n.Place(), "string pointer should be '%s' not '%s'", want, pointer)
	}
	return types.Str
}

func (c *Checker) checkCast(n *ast.Cast) types.Type {
	from := c.Check(n.Value)
	to := c.Check(n.Type)
	if !types.CastAllowed(from, to) {
		c.bin().Critical(diag.Cast, n.Place(), "casting type '%s' to type '%s' is not supported", from, to)
	}
	return to
}

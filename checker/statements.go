package checker

import (
	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/diag"
	"github.com/pontaoski/taipan/token"
	"github.com/pontaoski/taipan/types"
)

func (c *Checker) checkAssignment(n *ast.Assignment) types.Type {
	value := c.Check(n.Value)
	declared := c.Check(n.Var.Type)
	c.info().Types[n.Var] = declared
	c.emit(n.Var.Name.Location, TokenVariable, Definition, value, nil)
	if !types.Equal(declared, value) {
		c.bin().Add(diag.Assignment, n.Place(), "specified type '%s' does not match actual type '%s' in assignment", declared, value)
	}
	if !c.arena().Sized(declared) {
		c.bin().Add(diag.SizedDeclaration, n.Place(), "type '%s' is not sized, so it can't be declared", declared)
	}
	c.names.bind(n.Var.Name.Operand, Binding{types.Ptr{Pointed: declared}, n, n.Var.Name.Location})
	return types.Void
}

// checkDeclaration binds a pointer to fresh storage. With Times the storage
// holds that many elements and the name points to an open array of them.
func (c *Checker) checkDeclaration(n *ast.Declaration) types.Type {
	t := c.Check(n.Var.Type)
	c.info().Types[n.Var] = t
	c.emit(n.Var.Name.Location, TokenVariable, Declaration, t, nil)
	if !c.arena().Sized(t) {
		c.bin().Add(diag.SizedDeclaration, n.Place(), "type '%s' is not sized, so it can't be declared", t)
	}
	bound := types.Type(types.Ptr{Pointed: t})
	if n.Times != nil {
		if times := c.Check(n.Times); !types.Equal(times, types.Int) {
			c.bin().Add(diag.DeclarationTimes, n.Place(), "number of elements to allocate should be an '%s', got '%s'", types.Int, times)
		}
		bound = types.Ptr{Pointed: types.Array{Elem: t}}
	}
	c.names.bind(n.Var.Name.Operand, Binding{bound, n, n.Var.Name.Location})
	return types.Void
}

func (c *Checker) checkSet(n *ast.Set) types.Type {
	value := c.Check(n.Value)
	c.emit(n.Name.Location, TokenVariable, Definition, value, nil)
	c.names.bind(n.Name.Operand, Binding{value, n, n.Name.Location})
	return types.Void
}

func (c *Checker) checkSave(n *ast.Save) types.Type {
	space := c.Check(n.Space)
	value := c.Check(n.Value)
	ptr, ok := space.(types.Ptr)
	if !ok {
		c.bin().Critical(diag.SavePtr, n.Place(), "expected pointer to save into, got '%s'", space)
	}
	if !types.Equal(ptr.Pointed, value) {
		c.bin().Add(diag.Save, n.Place(), "space type '%s' does not match value's type '%s'", space, value)
	}
	return types.Void
}

// checkVariableSave stores into a named slot. An unbound name is declared
// on the spot with the value's type.
func (c *Checker) checkVariableSave(n *ast.VariableSave) types.Type {
	b, found := c.names.lookup(n.Space.Operand)
	value := c.Check(n.Value)
	c.emit(n.Space.Location, TokenVariable, Definition, value, nil)
	if !found {
		b = Binding{types.Ptr{Pointed: value}, n, n.Space.Location}
		c.names.bind(n.Space.Operand, b)
	}
	c.info().Uses[n] = b
	if !c.arena().Sized(value) {
		c.bin().Add(diag.SizedVSave, n.Place(), "type '%s' is not sized, so it can't be saved", value)
	}
	ptr, ok := b.Type.(types.Ptr)
	if !ok {
		c.bin().Critical(diag.VSavePtr, n.Place(), "expected pointer to save into, got '%s'", b.Type)
	}
	if !types.Equal(ptr.Pointed, value) {
		c.bin().Add(diag.VSave, n.Place(), "space type '%s' does not match value's type '%s'", b.Type, value)
	}
	return types.Void
}

func (c *Checker) checkReAssignment(n *ast.ReAssignment) types.Type {
	value := c.Check(n.Value)
	b, found := c.names.lookup(n.Name.Operand)
	if !found {
		c.bin().Critical(diag.ReassignmentName, n.Name.Location, "did not find name '%s' to reassign", n.Name.Operand)
	}
	c.info().Uses[n] = b
	c.emitReference(b, true, n.Name.Location, 0)
	ptr, ok := b.Type.(types.Ptr)
	if !ok {
		c.bin().Critical(diag.Reassignment, n.Place(), "'%s' has type '%s' and can't be reassigned", n.Name.Operand, b.Type)
	}
	if !types.Equal(ptr.Pointed, value) {
		c.bin().Add(diag.Reassignment, n.Place(), "'%s' holds '%s', can't reassign a value of type '%s'", n.Name.Operand, ptr.Pointed, value)
	}
	return types.Void
}

func (c *Checker) checkIf(n *ast.If) types.Type {
	if cond := c.Check(n.Condition); !types.Equal(cond, types.Bool) {
		c.bin().Add(diag.If, n.Condition.Place(), "if statement expected '%s' type, got '%s'", types.Bool, cond)
	}
	if n.Else == nil {
		c.Check(n.Code)
		return types.Void
	}
	then := c.Check(n.Code)
	otherwise := c.Check(n.Else)
	if !types.Equal(then, otherwise) {
		c.bin().Critical(diag.IfBranch, n.Place(), "if branches are inconsistent: one branch returns while other does not (refactor without 'else')")
	}
	return then
}

// checkWhile never counts as returning: the body may not run at all.
func (c *Checker) checkWhile(n *ast.While) types.Type {
	if cond := c.Check(n.Condition); !types.Equal(cond, types.Bool) {
		c.bin().Add(diag.While, n.Place(), "while statement expected '%s' type, got '%s'", types.Bool, cond)
	}
	c.Check(n.Code)
	return types.Void
}

func (c *Checker) checkReturn(n *ast.Return) types.Type {
	var ret types.Type = types.Void
	if n.Value != nil {
		ret = c.Check(n.Value)
	}
	if !types.Equal(ret, c.expected) {
		c.bin().Critical(diag.Return, n.Place(), "actual return type '%s' does not match specified return type '%s'", ret, c.expected)
	}
	return ret
}

func (c *Checker) checkAssert(n *ast.Assert) types.Type {
	value := c.Check(n.Value)
	explanation := c.Check(n.Explanation)
	if !types.Equal(value, types.Bool) {
		c.bin().Critical(diag.AssertValue, n.Value.Place(), "assert value type '%s' should be '%s'", value, types.Bool)
	}
	if !types.Equal(explanation, types.Str) {
		c.bin().Critical(diag.AssertExplanation, n.Explanation.Place(), "assert explanation type '%s' should be '%s'", explanation, types.Str)
	}
	return types.Void
}

type branch struct {
	ret   types.Type
	place token.Span
}

// checkMatch binds the matched item under MatchAs in each case: the payload
// for typed items, the enum value itself for plain ones.
func (c *Checker) checkMatch(n *ast.Match) types.Type {
	value := c.Check(n.Value)
	var branches []branch
	if e, ok := value.(types.Enum); ok {
		c.emit(n.MatchAs.Location, TokenVariable, Declaration, nil, nil)
		def := c.arena().Enum(e)
		for _, cs := range n.Cases {
			_, payload, found := def.Item(cs.Name.Operand)
			if !found {
				c.bin().Critical(diag.MatchCase, cs.Name.Location, "enum '%s' has no item '%s'", e, cs.Name.Operand)
			}
			if payload == nil {
				payload = e
			}
			c.emit(cs.Name.Location, TokenEnumItem, 0, payload, nil)
			mark := c.names.mark()
			c.names.bind(n.MatchAs.Operand, Binding{payload, cs, cs.Name.Location})
			branches = append(branches, branch{c.Check(cs.Body), cs.Place()})
			c.names.restore(mark)
		}
		if n.Default != nil {
			branches = append(branches, branch{c.Check(n.Default), n.Default.Place()})
		}
	} else {
		c.bin().Add(diag.Match, n.Place(), "matching type '%s' is not supported", value)
	}
	if len(branches) == 0 || n.Default == nil {
		c.checkBranches(branches)
		return types.Void
	}
	if !c.checkBranches(branches) {
		return types.Void
	}
	return branches[0].ret
}

func (c *Checker) checkBranches(branches []branch) bool {
	consistent := true
	for _, b := range branches {
		if !types.Equal(b.ret, branches[0].ret) {
			c.bin().Add(diag.Match, b.place, "inconsistent branches: one branch returns, while other does not")
			consistent = false
		}
	}
	return consistent
}

package ast

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pontaoski/taipan/token"
)

// Builder constructs nodes with fresh ids. It is what tree decoders and
// tests use instead of filling Meta by hand.
type Builder struct {
	*Counter
	File string
	pos  token.Position
}

func NewBuilder(c *Counter, file string) *Builder {
	if c == nil {
		c = &Counter{}
	}
	return &Builder{Counter: c, File: file, pos: token.Position{Line: 1, Column: 1, Filename: file}}
}

// At moves the position given to the following nodes.
func (b *Builder) At(line, col int) *Builder {
	b.pos = token.Position{Line: line, Column: col, Filename: b.File}
	return b
}

func (b *Builder) meta() Meta {
	return b.Counter.Meta(token.SingleCharSpan(b.pos))
}

func (b *Builder) Tok(kind token.Kind, operand string) token.Token {
	return token.New(token.SingleCharSpan(b.pos), kind, operand)
}

func (b *Builder) Word(name string) token.Token {
	return b.Tok(token.WORD, name)
}

func (b *Builder) Module(path string, tops ...Node) *Module {
	return &Module{Meta: b.meta(), Path: path, Tops: tops}
}

func (b *Builder) Int(v int64) *Int         { return &Int{Meta: b.meta(), Value: v} }
func (b *Builder) Short(v int64) *Short     { return &Short{Meta: b.meta(), Value: v} }
func (b *Builder) Char(c byte) *CharStr     { return &CharStr{Meta: b.meta(), Value: c} }
func (b *Builder) CharNum(c byte) *CharNum  { return &CharNum{Meta: b.meta(), Value: c} }
func (b *Builder) Str(s string) *Str        { return &Str{Meta: b.meta(), Value: s} }
func (b *Builder) Const(n string) *Constant { return &Constant{Meta: b.meta(), Name: n} }
func (b *Builder) Ref(name string) *ReferTo { return &ReferTo{Meta: b.meta(), Name: b.Word(name)} }

func (b *Builder) Template(formatter Node, strs []string, values ...Node) *Template {
	return &Template{Meta: b.meta(), Formatter: formatter, Strings: strs, Values: values}
}

// Bin builds a binary operation; op is an operator spelling or one of the
// keywords and, or, xor.
func (b *Builder) Bin(left Node, op string, right Node) *BinaryOperation {
	return &BinaryOperation{Meta: b.meta(), Left: left, Operation: b.operator(op), Right: right}
}

func (b *Builder) Unary(op string, left Node) *UnaryOperation {
	return &UnaryOperation{Meta: b.meta(), Operation: b.operator(op), Left: left}
}

func (b *Builder) operator(op string) token.Token {
	if kind, ok := token.LookupOperator(op); ok {
		return b.Tok(kind, "")
	}
	return b.Tok(token.KEYWORD, op)
}

func (b *Builder) Call(fn Node, args ...Node) *Call {
	return &Call{Meta: b.meta(), Func: fn, Args: args}
}

func (b *Builder) Dot(origin Node, access string) *Dot {
	return &Dot{Meta: b.meta(), Origin: origin, Access: b.Word(access)}
}

func (b *Builder) Subscript(origin Node, subs ...Node) *Subscript {
	return &Subscript{Meta: b.meta(), Origin: origin, Subscripts: subs}
}

func (b *Builder) Cast(typ Node, value Node) *Cast {
	return &Cast{Meta: b.meta(), Type: typ, Value: value}
}

func (b *Builder) StrCast(length, pointer Node) *StrCast {
	return &StrCast{Meta: b.meta(), Length: length, Pointer: pointer}
}

func (b *Builder) Expr(v Node) *ExprStatement {
	return &ExprStatement{Meta: b.meta(), Value: v}
}

func (b *Builder) Typed(name string, typ Node) *TypedVariable {
	return &TypedVariable{Meta: b.meta(), Name: b.Word(name), Type: typ}
}

func (b *Builder) Assign(name string, typ Node, value Node) *Assignment {
	return &Assignment{Meta: b.meta(), Var: b.Typed(name, typ), Value: value}
}

func (b *Builder) Declare(name string, typ Node, times Node) *Declaration {
	return &Declaration{Meta: b.meta(), Var: b.Typed(name, typ), Times: times}
}

func (b *Builder) Set(name string, value Node) *Set {
	return &Set{Meta: b.meta(), Name: b.Word(name), Value: value}
}

func (b *Builder) VSave(name string, value Node) *VariableSave {
	return &VariableSave{Meta: b.meta(), Space: b.Word(name), Value: value}
}

func (b *Builder) Save(space Node, value Node) *Save {
	return &Save{Meta: b.meta(), Space: space, Value: value}
}

func (b *Builder) Reassign(name string, value Node) *ReAssignment {
	return &ReAssignment{Meta: b.meta(), Name: b.Word(name), Value: value}
}

func (b *Builder) Code(statements ...Node) *Code {
	return &Code{Meta: b.meta(), Statements: statements}
}

func (b *Builder) If(cond Node, code *Code, els Node) *If {
	return &If{Meta: b.meta(), Condition: cond, Code: code, Else: els}
}

func (b *Builder) While(cond Node, code *Code) *While {
	return &While{Meta: b.meta(), Condition: cond, Code: code}
}

func (b *Builder) Case(name string, body *Code) *Case {
	return &Case{Meta: b.meta(), Name: b.Word(name), Body: body}
}

func (b *Builder) Match(value Node, as string, def *Code, cases ...*Case) *Match {
	return &Match{Meta: b.meta(), Value: value, MatchAs: b.Word(as), Cases: cases, Default: def}
}

func (b *Builder) Return(value Node) *Return {
	return &Return{Meta: b.meta(), Value: value}
}

func (b *Builder) Assert(value, explanation Node) *Assert {
	return &Assert{Meta: b.meta(), Value: value, Explanation: explanation}
}

func (b *Builder) Fun(name string, args []*TypedVariable, ret Node, code *Code) *Fun {
	if code == nil {
		code = b.Code()
	}
	return &Fun{Meta: b.meta(), Name: b.Word(name), Args: args, ReturnType: ret, Code: code}
}

func (b *Builder) Args(pairs ...interface{}) []*TypedVariable {
	var args []*TypedVariable
	for i := 0; i+1 < len(pairs); i += 2 {
		args = append(args, b.Typed(pairs[i].(string), pairs[i+1].(Node)))
	}
	return args
}

func (b *Builder) Static(name string, typ Node, value Node) *StaticVariable {
	return &StaticVariable{Meta: b.meta(), Var: b.Typed(name, typ), Value: value}
}

func (b *Builder) Struct(name string, fields []*TypedVariable, statics []*StaticVariable, funs ...*Fun) *Struct {
	return &Struct{Meta: b.meta(), Name: b.Word(name), Variables: fields, StaticVariables: statics, Funs: funs}
}

func (b *Builder) Enum(name string, items []string, typed []*TypedVariable, funs ...*Fun) *Enum {
	var toks []token.Token
	for _, item := range items {
		toks = append(toks, b.Word(item))
	}
	return &Enum{Meta: b.meta(), Name: b.Word(name), Items: toks, TypedItems: typed, Funs: funs}
}

func (b *Builder) Mix(name string, funs ...Node) *Mix {
	return &Mix{Meta: b.meta(), Name: b.Word(name), Funs: funs}
}

func (b *Builder) ConstDef(name string, value int64) *Const {
	return &Const{Meta: b.meta(), Name: b.Word(name), Value: value}
}

func (b *Builder) Var(name string, typ Node) *Var {
	return &Var{Meta: b.meta(), Name: b.Word(name), Type: typ}
}

func (b *Builder) Memo(name string, size int64) *Memo {
	return &Memo{Meta: b.meta(), Name: b.Word(name), Size: size}
}

func (b *Builder) TypeDef(name string, typ Node) *TypeDefinition {
	return &TypeDefinition{Meta: b.meta(), Name: b.Word(name), Type: typ}
}

func (b *Builder) Import(m *Module) *Import {
	name := m.Path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return &Import{Meta: b.meta(), Path: m.Path, Name: b.Word(name), Module: m}
}

func (b *Builder) FromImport(m *Module, names ...string) *FromImport {
	var toks []token.Token
	for _, n := range names {
		toks = append(toks, b.Word(n))
	}
	return &FromImport{Meta: b.meta(), Path: m.Path, Module: m, ImportedNames: toks}
}

func (b *Builder) Use(name, as string, ret Node, args ...Node) *Use {
	if as == "" {
		as = name
	}
	return &Use{Meta: b.meta(), Name: b.Word(name), AsName: b.Word(as), ArgTypes: args, ReturnType: ret}
}

// T parses a type written in the small type grammar:
//
//	int | Name | *T | []T | [N]T | (T, ...) -> T
//
// It panics on malformed input; Type returns the error instead.
func (b *Builder) T(s string) Node {
	n, err := b.Type(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (b *Builder) Type(s string) (Node, error) {
	p := typeParser{b: b, src: s}
	n, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.i != len(p.src) {
		return nil, fmt.Errorf("unexpected %q in type %q", p.src[p.i:], s)
	}
	return n, nil
}

type typeParser struct {
	b   *Builder
	src string
	i   int
}

func (p *typeParser) skipSpace() {
	for p.i < len(p.src) && p.src[p.i] == ' ' {
		p.i++
	}
}

func (p *typeParser) eat(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.i:], s) {
		p.i += len(s)
		return true
	}
	return false
}

func (p *typeParser) parse() (Node, error) {
	p.skipSpace()
	switch {
	case p.eat("*"):
		pointed, err := p.parse()
		if err != nil {
			return nil, err
		}
		return &TypePointer{Meta: p.b.meta(), Pointed: pointed}, nil
	case p.eat("["):
		start := p.i
		for p.i < len(p.src) && p.src[p.i] != ']' {
			p.i++
		}
		sizeText := strings.TrimSpace(p.src[start:p.i])
		if !p.eat("]") {
			return nil, fmt.Errorf("unterminated array type in %q", p.src)
		}
		var size int64
		if sizeText != "" {
			var err error
			size, err = strconv.ParseInt(sizeText, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad array size %q", sizeText)
			}
		}
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		return &TypeArray{Meta: p.b.meta(), Elem: elem, Size: size}, nil
	case p.eat("("):
		var args []Node
		if !p.eat(")") {
			for {
				arg, err := p.parse()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.eat(")") {
					break
				}
				if !p.eat(",") {
					return nil, fmt.Errorf("expected ',' or ')' in %q", p.src)
				}
			}
		}
		var ret Node
		if p.eat("->") {
			var err error
			ret, err = p.parse()
			if err != nil {
				return nil, err
			}
		}
		return &TypeFun{Meta: p.b.meta(), Args: args, ReturnType: ret}, nil
	}
	start := p.i
	for p.i < len(p.src) {
		r := rune(p.src[p.i])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.i++
	}
	if start == p.i {
		return nil, fmt.Errorf("expected a type in %q at %d", p.src, start)
	}
	return &TypeReference{Meta: p.b.meta(), Ref: p.b.Word(p.src[start:p.i])}, nil
}

package types

import "github.com/pontaoski/taipan/token"

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
	OpXor
)

var binaryKinds = map[token.Kind]BinaryOp{
	token.PLUS:             OpAdd,
	token.MINUS:            OpSub,
	token.ASTERISK:         OpMul,
	token.DOUBLE_SLASH:     OpDiv,
	token.PERCENT:          OpMod,
	token.DOUBLE_LESS:      OpShl,
	token.DOUBLE_GREATER:   OpShr,
	token.DOUBLE_EQUALS:    OpEq,
	token.NOT_EQUALS:       OpNe,
	token.LESS:             OpLt,
	token.GREATER:          OpGt,
	token.LESS_OR_EQUAL:    OpLe,
	token.GREATER_OR_EQUAL: OpGe,
}

var binaryKeywords = map[string]BinaryOp{
	"and": OpAnd,
	"or":  OpOr,
	"xor": OpXor,
}

// BinaryOpOf classifies an operator token.
func BinaryOpOf(tok token.Token) (BinaryOp, bool) {
	if tok.Kind == token.KEYWORD {
		op, ok := binaryKeywords[tok.Operand]
		return op, ok
	}
	op, ok := binaryKinds[tok.Kind]
	return op, ok
}

func (op BinaryOp) Comparison() bool {
	return op >= OpEq && op <= OpGe
}

func integer(t Type) bool {
	return t == Int || t == Short || t == Char
}

// BinaryResult returns the type of `l op r`, or false when the pair has no
// meaning.
func BinaryResult(op BinaryOp, l, r Type) (Type, bool) {
	switch op {
	case OpAdd:
		if p, ok := l.(Ptr); ok && r == Int {
			return p, true
		}
		fallthrough
	case OpSub, OpMul, OpDiv, OpMod, OpShl, OpShr:
		if integer(l) && l == r {
			return l, true
		}
	case OpEq, OpNe:
		if (integer(l) || l == Bool) && l == r {
			return Bool, true
		}
		if _, ok := l.(Ptr); ok && Equal(l, r) {
			return Bool, true
		}
	case OpLt, OpGt, OpLe, OpGe:
		if integer(l) && l == r {
			return Bool, true
		}
	case OpAnd, OpOr, OpXor:
		if (l == Bool || l == Int) && l == r {
			return l, true
		}
	}
	return nil, false
}

type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
	OpDeref
)

func UnaryOpOf(tok token.Token) (UnaryOp, bool) {
	switch tok.Kind {
	case token.NOT:
		return OpNot, true
	case token.MINUS:
		return OpNeg, true
	case token.AT:
		return OpDeref, true
	}
	return 0, false
}

// UnaryResult returns the type of `op v`. Dereferencing needs a pointer to a
// sized type.
func (a *Arena) UnaryResult(op UnaryOp, v Type) (Type, bool) {
	switch op {
	case OpNot:
		if v == Bool || v == Int {
			return v, true
		}
	case OpNeg:
		if v == Int || v == Short {
			return v, true
		}
	case OpDeref:
		if p, ok := v.(Ptr); ok && a.Sized(p.Pointed) {
			return p.Pointed, true
		}
	}
	return nil, false
}

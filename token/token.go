package token

import (
	"fmt"
	"strings"
)

type Position struct {
	Line     int
	Column   int
	Filename string
}

type Span struct {
	From Position
	To   Position
}

type Kind int

const (
	EOF Kind = iota
	ILLEGAL

	INT
	SHORT
	CHAR
	WORD
	KEYWORD
	STR

	TEMPLATE_HEAD
	TEMPLATE_MIDDLE
	TEMPLATE_TAIL
	NO_MIDDLE_TEMPLATE

	LCURLY
	RCURLY
	LSQUARE
	RSQUARE
	LPAREN
	RPAREN

	ARROW
	NEWLINE
	COLON
	COMMA
	EQUALS
	AT
	NOT
	DOT
	NOT_EQUALS
	DOUBLE_EQUALS
	GREATER
	GREATER_OR_EQUAL
	LESS
	LESS_OR_EQUAL
	DOUBLE_LESS
	DOUBLE_GREATER
	PLUS
	MINUS
	ASTERISK
	DOUBLE_SLASH
	PERCENT
	DOLLAR
)

var kindNames = map[Kind]string{
	EOF:                "EOF",
	ILLEGAL:            "ILLEGAL",
	INT:                "INT",
	SHORT:              "SHORT",
	CHAR:               "CHAR",
	WORD:               "WORD",
	KEYWORD:            "KEYWORD",
	STR:                "STR",
	TEMPLATE_HEAD:      "TEMPLATE_HEAD",
	TEMPLATE_MIDDLE:    "TEMPLATE_MIDDLE",
	TEMPLATE_TAIL:      "TEMPLATE_TAIL",
	NO_MIDDLE_TEMPLATE: "NO_MIDDLE_TEMPLATE",
	LCURLY:             "{",
	RCURLY:             "}",
	LSQUARE:            "[",
	RSQUARE:            "]",
	LPAREN:             "(",
	RPAREN:             ")",
	ARROW:              "->",
	NEWLINE:            "\\n",
	COLON:              ":",
	COMMA:              ",",
	EQUALS:             "=",
	AT:                 "@",
	NOT:                "!",
	DOT:                ".",
	NOT_EQUALS:         "!=",
	DOUBLE_EQUALS:      "==",
	GREATER:            ">",
	GREATER_OR_EQUAL:   ">=",
	LESS:               "<",
	LESS_OR_EQUAL:      "<=",
	DOUBLE_LESS:        "<<",
	DOUBLE_GREATER:     ">>",
	PLUS:               "+",
	MINUS:              "-",
	ASTERISK:           "*",
	DOUBLE_SLASH:       "//",
	PERCENT:            "%",
	DOLLAR:             "$",
}

func (t Kind) String() string {
	if s, ok := kindNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(t))
}

// LookupOperator maps an operator spelling back to its kind.
func LookupOperator(s string) (Kind, bool) {
	for k, v := range kindNames {
		if v == s && k >= ARROW {
			return k, true
		}
	}
	return ILLEGAL, false
}

func (p Position) String() string {
	if p.Filename == "" {
		p.Filename = "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%d:%d", s.From, s.To.Line, s.To.Column)
}

func SingleCharSpan(p Position) Span {
	return Span{p, p}
}

// Token is a lexeme. Its location never takes part in identity.
type Token struct {
	Location Span
	Kind     Kind
	Operand  string
}

func New(loc Span, kind Kind, operand string) Token {
	return Token{Location: loc, Kind: kind, Operand: operand}
}

func (t Token) Equal(o Token) bool {
	return t.Kind == o.Kind && t.Operand == o.Operand
}

// Is reports whether the token has the given kind and, when operand is
// non-empty, the given operand.
func (t Token) Is(kind Kind, operand ...string) bool {
	if t.Kind != kind {
		return false
	}
	for _, o := range operand {
		if t.Operand != o {
			return false
		}
	}
	return true
}

func (t Token) String() string {
	switch {
	case t.Kind == STR:
		return `"` + Escape(t.Operand) + `"`
	case t.Kind == CHAR && len(t.Operand) == 1:
		return fmt.Sprintf("%dc", t.Operand[0])
	case t.Operand != "":
		return Escape(t.Operand)
	}
	return Escape(t.Kind.String())
}

var escapes = map[byte]string{
	'\n': `\n`,
	'\t': `\t`,
	'\r': `\r`,
	'\\': `\\`,
	'"':  `\"`,
	'\'': `\'`,
	0:    `\0`,
}

func Escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if e, ok := escapes[s[i]]; ok {
			b.WriteString(e)
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

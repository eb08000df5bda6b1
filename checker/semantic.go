package checker

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/pontaoski/taipan/token"
	"github.com/pontaoski/taipan/types"
)

type TokenType int

const (
	TokenModule TokenType = iota
	TokenStruct
	TokenArgument
	TokenVariable
	TokenProperty
	TokenFunction
	TokenBoundFunction
	TokenMix
	TokenString
	TokenInteger
	TokenCharacterString
	TokenCharacterNumber
	TokenShort
	TokenOperator
	TokenTypeName
	TokenEnum
	TokenEnumItem
)

var tokenTypeNames = [...]string{
	"module", "struct", "argument", "variable", "property", "function",
	"bound function", "mix", "string", "integer", "character string",
	"character number", "short", "operator", "type", "enum", "enum item",
}

func (t TokenType) String() string { return tokenTypeNames[t] }

type Modifier uint32

const (
	Declaration Modifier = 1 << iota
	Definition
	Static
)

// SemanticToken annotates a source range for editors. Collecting tokens never
// changes what the checker decides.
type SemanticToken struct {
	Place     token.Span
	Type      TokenType
	Modifiers Modifier
	ValueType types.Type
	DefPlace  *token.Span
}

type tokenKey struct {
	place token.Span
	typ   TokenType
}

func (c *Checker) emit(place token.Span, typ TokenType, mods Modifier, value types.Type, def *token.Span) {
	if !c.semantic {
		return
	}
	key := tokenKey{place, typ}
	if c.seen == nil {
		c.seen = map[tokenKey]bool{}
	}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.Tokens = append(c.Tokens, SemanticToken{place, typ, mods, value, def})
}

// emitReference picks the token type from what the name is bound to.
func (c *Checker) emitReference(b Binding, found bool, place token.Span, mods Modifier) {
	if !found {
		c.emit(place, TokenVariable, mods, nil, nil)
		return
	}
	def := b.Place
	switch t := b.Type.(type) {
	case types.Struct, types.StructKind:
		c.emit(place, TokenStruct, mods, t, &def)
	case types.Fun:
		if t.Bound == 0 {
			c.emit(place, TokenFunction, mods, t, &def)
		} else {
			c.emit(place, TokenBoundFunction, mods, t, &def)
		}
	case types.Mix:
		c.emit(place, TokenMix, mods, t, &def)
	case types.Module:
		c.emit(place, TokenModule, mods, t, &def)
	case types.EnumKind:
		c.emit(place, TokenEnum, mods, t, &def)
	default:
		c.emit(place, TokenVariable, mods, t, &def)
	}
}

// protocolTypes maps each token type to the closest standard LSP type.
var protocolTypes = [...]protocol.SemanticTokenType{
	TokenModule:          protocol.SemanticTokenTypeNamespace,
	TokenStruct:          protocol.SemanticTokenTypeStruct,
	TokenArgument:        protocol.SemanticTokenTypeParameter,
	TokenVariable:        protocol.SemanticTokenTypeVariable,
	TokenProperty:        protocol.SemanticTokenTypeProperty,
	TokenFunction:        protocol.SemanticTokenTypeFunction,
	TokenBoundFunction:   protocol.SemanticTokenTypeMethod,
	TokenMix:             protocol.SemanticTokenTypeFunction,
	TokenString:          protocol.SemanticTokenTypeString,
	TokenInteger:         protocol.SemanticTokenTypeNumber,
	TokenCharacterString: protocol.SemanticTokenTypeString,
	TokenCharacterNumber: protocol.SemanticTokenTypeNumber,
	TokenShort:           protocol.SemanticTokenTypeNumber,
	TokenOperator:        protocol.SemanticTokenTypeOperator,
	TokenTypeName:        protocol.SemanticTokenTypeType,
	TokenEnum:            protocol.SemanticTokenTypeEnum,
	TokenEnumItem:        protocol.SemanticTokenTypeEnumMember,
}

var protocolModifiers = []protocol.SemanticTokenModifier{
	protocol.SemanticTokenModifierDeclaration,
	protocol.SemanticTokenModifierDefinition,
	protocol.SemanticTokenModifierStatic,
}

// Legend lists the token types and modifiers Encode refers to by index.
func Legend() protocol.SemanticTokensLegend {
	var legend protocol.SemanticTokensLegend
	for _, t := range uniqueTypes() {
		legend.TokenTypes = append(legend.TokenTypes, string(t))
	}
	for _, m := range protocolModifiers {
		legend.TokenModifiers = append(legend.TokenModifiers, string(m))
	}
	return legend
}

func uniqueTypes() []protocol.SemanticTokenType {
	var ret []protocol.SemanticTokenType
	seen := map[protocol.SemanticTokenType]bool{}
	for _, t := range protocolTypes {
		if !seen[t] {
			seen[t] = true
			ret = append(ret, t)
		}
	}
	return ret
}

// Encode packs tokens into the relative five-integer form of the LSP
// textDocument/semanticTokens response. Lines and columns become zero based;
// tokens spanning lines are cut to their first character.
func Encode(tokens []SemanticToken) protocol.SemanticTokens {
	index := map[protocol.SemanticTokenType]int{}
	for i, t := range uniqueTypes() {
		index[t] = i
	}
	sorted := append([]SemanticToken(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Place.From, sorted[j].Place.From
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	data := []protocol.UInteger{}
	var line, col int
	for _, tok := range sorted {
		from, to := tok.Place.From, tok.Place.To
		if from.Line < 1 || from.Column < 1 {
			continue
		}
		length := 1
		if to.Line == from.Line && to.Column >= from.Column {
			length = to.Column - from.Column + 1
		}
		l, c := from.Line-1, from.Column-1
		deltaCol := c
		if l == line {
			deltaCol = c - col
		}
		data = append(data,
			protocol.UInteger(l-line),
			protocol.UInteger(deltaCol),
			protocol.UInteger(length),
			protocol.UInteger(index[protocolTypes[tok.Type]]),
			protocol.UInteger(tok.Modifiers),
		)
		line, col = l, c
	}
	return protocol.SemanticTokens{Data: data}
}

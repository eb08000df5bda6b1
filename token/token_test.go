package token

import "testing"

func TestTokenIdentityIgnoresLocation(t *testing.T) {
	a := New(SingleCharSpan(Position{Line: 1, Column: 1, Filename: "a"}), WORD, "x")
	b := New(SingleCharSpan(Position{Line: 9, Column: 4, Filename: "b"}), WORD, "x")
	c := New(a.Location, KEYWORD, "x")

	if !a.Equal(b) {
		t.Fatalf("%v and %v should be equal", a, b)
	}
	if a.Equal(c) {
		t.Fatalf("%v and %v differ by kind", a, c)
	}
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{Token{Kind: STR, Operand: "a\nb"}, `"a\nb"`},
		{Token{Kind: CHAR, Operand: "A"}, "65c"},
		{Token{Kind: WORD, Operand: "main"}, "main"},
		{Token{Kind: ARROW}, "->"},
	}
	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestLookupOperator(t *testing.T) {
	for _, op := range []string{"+", "//", "<<", "!=", "@"} {
		k, ok := LookupOperator(op)
		if !ok || k.String() != op {
			t.Errorf("LookupOperator(%q) = %v, %v", op, k, ok)
		}
	}
	if _, ok := LookupOperator("and"); ok {
		t.Error("keywords are not operators")
	}
}

func TestPositionString(t *testing.T) {
	p := Position{Line: 3, Column: 7}
	if p.String() != "<unknown>:3:7" {
		t.Fatalf("got %s", p)
	}
}

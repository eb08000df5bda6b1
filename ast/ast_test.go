package ast

import "testing"

func TestIDsAreUniqueAndIncreasing(t *testing.T) {
	b := NewBuilder(nil, "m")
	a := b.Int(1)
	c := b.Int(1)
	if a.UID() >= c.UID() {
		t.Fatalf("ids %d, %d are not increasing", a.UID(), c.UID())
	}
	if b.Peek() != c.UID() {
		t.Fatalf("Peek = %d, want %d", b.Peek(), c.UID())
	}
}

func TestCountersAreIndependent(t *testing.T) {
	first := NewBuilder(nil, "a").Int(1).UID()
	second := NewBuilder(nil, "b").Int(1).UID()
	if first != second {
		t.Fatalf("fresh counters should start at the same id, got %d and %d", first, second)
	}
}

func TestTypeGrammar(t *testing.T) {
	b := NewBuilder(nil, "m")
	tests := []string{
		"int",
		"*Point",
		"*[]str",
		"[16]char",
		"(int, *[]str) -> bool",
		"() -> void",
		"**int",
	}
	for _, src := range tests {
		n, err := b.Type(src)
		if err != nil {
			t.Errorf("Type(%q): %v", src, err)
			continue
		}
		if n.(interface{ String() string }).String() != src {
			t.Errorf("Type(%q) printed as %q", src, n)
		}
	}
	for _, bad := range []string{"", "*", "[x]int", "(int", "int)"} {
		if _, err := b.Type(bad); err == nil {
			t.Errorf("Type(%q) should fail", bad)
		}
	}
}

func TestPositions(t *testing.T) {
	b := NewBuilder(nil, "file.tpn")
	n := b.At(4, 2).Ref("x")
	if n.Place().From.Line != 4 || n.Place().From.Column != 2 || n.Place().From.Filename != "file.tpn" {
		t.Fatalf("place = %v", n.Place())
	}
}

func TestStrings(t *testing.T) {
	b := NewBuilder(nil, "m")
	fun := b.Fun("add", b.Args("a", b.T("int"), "b", b.T("int")), b.T("int"),
		b.Code(b.Return(b.Bin(b.Ref("a"), "+", b.Ref("b")))))
	want := "fun add(a:int, b:int) -> int {\n\treturn (a + b)\n}"
	if fun.String() != want {
		t.Fatalf("got %q", fun.String())
	}
	if s := b.Bin(b.Ref("x"), "and", b.Ref("y")).String(); s != "(x and y)" {
		t.Fatalf("got %q", s)
	}
}

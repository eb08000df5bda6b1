package types

import (
	"testing"

	"github.com/pontaoski/taipan/token"
)

func TestEqualStructural(t *testing.T) {
	a := NewArena()
	point := a.NewStruct(1, "Point")
	all := []Type{
		Int, Short, Char, Bool, Str, Void,
		Ptr{Int}, Ptr{Ptr{Char}}, VoidPtr,
		Array{Int, 0}, Array{Int, 4}, Array{Str, 4},
		point, StructKind{point}, Ptr{point},
		Fun{Args: []Type{Int}, Return: Int},
		Fun{Args: []Type{Ptr{point}, Int}, Bound: 1, Return: Int},
		Mix{Funs: []Type{Fun{Return: Void}}, Name: "m"},
		Module{UID: 3, Path: "std/io"},
	}
	for i, x := range all {
		for j, y := range all {
			if Equal(x, y) != (i == j) {
				t.Errorf("Equal(%v, %v) = %v", x, y, !(i == j))
			}
			if Equal(x, y) != Equal(y, x) {
				t.Errorf("Equal(%v, %v) is not symmetric", x, y)
			}
		}
	}
	if !Equal(Fun{Args: []Type{Ptr{Int}}, Return: Void}, Fun{Args: []Type{Ptr{Int}}, Return: Void}) {
		t.Error("fresh function types should compare equal")
	}
}

func TestStructEqualityIsIdentity(t *testing.T) {
	a := NewArena()
	p := a.NewStruct(1, "Point")
	q := a.NewStruct(2, "Point")
	fields := []Field{{"x", Int}, {"y", Int}}
	a.DefineStruct(p, StructDef{Fields: fields})
	a.DefineStruct(q, StructDef{Fields: fields})

	if Equal(p, q) {
		t.Fatal("independently declared structs must differ")
	}
	if Equal(Ptr{p}, Ptr{q}) {
		t.Fatal("pointers to independently declared structs must differ")
	}
	if !Equal(p, Struct{UID: 1, Name: "Point"}) {
		t.Fatal("a handle with the same uid is the same struct")
	}
}

func TestSizedRecursion(t *testing.T) {
	a := NewArena()
	node := a.NewStruct(1, "Node")
	a.DefineStruct(node, StructDef{Fields: []Field{{"value", Int}, {"next", Ptr{node}}}})
	if !a.Sized(node) {
		t.Error("a struct pointing at itself is sized")
	}

	bad := a.NewStruct(2, "Bad")
	a.DefineStruct(bad, StructDef{Fields: []Field{{"inner", bad}}})
	if a.Sized(bad) {
		t.Error("a struct holding itself by value is unsized")
	}

	left := a.NewStruct(3, "Left")
	right := a.NewStruct(4, "Right")
	a.DefineStruct(left, StructDef{Fields: []Field{{"r", right}}})
	a.DefineStruct(right, StructDef{Fields: []Field{{"l", left}}})
	if a.Sized(left) || a.Sized(right) {
		t.Error("mutually recursive structs by value are unsized")
	}
	// the guard must not leak between queries
	if !a.Sized(node) {
		t.Error("sizing state leaked")
	}

	list := a.NewEnum(5, "List")
	a.DefineEnum(list, EnumDef{Items: []string{"Nil"}, TypedItems: []Field{{"Cons", list}}})
	if a.Sized(list) {
		t.Error("an enum holding itself by value is unsized")
	}
}

func TestSizedLeaves(t *testing.T) {
	a := NewArena()
	tests := []struct {
		typ  Type
		want bool
	}{
		{Int, true},
		{Void, false},
		{Array{Int, 0}, false},
		{Array{Int, 3}, true},
		{Array{Array{Char, 0}, 3}, false},
		{Module{1, "m"}, false},
		{Fun{Args: []Type{Array{Int, 0}}, Return: Void}, true},
	}
	for _, tt := range tests {
		if got := a.Sized(tt.typ); got != tt.want {
			t.Errorf("Sized(%v) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestLayout(t *testing.T) {
	a := NewArena()
	s := a.NewStruct(1, "S")
	a.DefineStruct(s, StructDef{Fields: []Field{{"c", Char}, {"i", Int}, {"b", Bool}}})
	e := a.NewEnum(2, "E")
	a.DefineEnum(e, EnumDef{Items: []string{"A"}, TypedItems: []Field{{"B", Str}, {"C", Char}}})

	tests := []struct {
		typ         Type
		size, align int64
	}{
		{Int, 8, 8},
		{Str, 16, 8},
		{Array{Short, 3}, 12, 4},
		{s, 24, 8},
		{Fun{Return: Void}, 16, 8},
		{e, 24, 8},
	}
	for _, tt := range tests {
		size, align := a.Layout(tt.typ)
		if size != tt.size || align != tt.align {
			t.Errorf("Layout(%v) = %d/%d, want %d/%d", tt.typ, size, align, tt.size, tt.align)
		}
	}
	if words := a.PayloadWords(e); words != 2 {
		t.Errorf("PayloadWords = %d, want 2", words)
	}
}

func TestResolveMix(t *testing.T) {
	a := NewArena()
	one := Fun{Args: []Type{Int}, Return: Int}
	two := Fun{Args: []Type{Int, Int}, Return: Int}
	mix := Mix{Funs: []Type{one, two}, Name: "f"}

	r, problem := a.ResolveCall(mix, []Type{Int, Int})
	if problem != CallOK || r.Alternative != 1 {
		t.Fatalf("two ints resolved to %d (%v)", r.Alternative, problem)
	}
	r, problem = a.ResolveCall(mix, []Type{Int})
	if problem != CallOK || r.Alternative != 0 {
		t.Fatalf("one int resolved to %d (%v)", r.Alternative, problem)
	}
	if _, problem = a.ResolveCall(mix, []Type{Str}); problem != NoMixMatch {
		t.Fatalf("str should match nothing, got %v", problem)
	}
}

func TestResolveStructKind(t *testing.T) {
	a := NewArena()
	p := a.NewStruct(1, "Point")
	init := Fun{Args: []Type{Ptr{p}, Int, Int}, Bound: 1, Return: Void}
	a.DefineStruct(p, StructDef{
		Fields:  []Field{{"x", Int}, {"y", Int}},
		Methods: []Method{{Name: "__init__", Fun: init}},
	})

	r, problem := a.ResolveCall(StructKind{p}, []Type{Int, Int})
	if problem != CallOK {
		t.Fatal(problem)
	}
	if !Equal(r.Fun.Return, Ptr{p}) || len(r.Fun.Visible()) != 2 {
		t.Fatalf("constructor resolved to %v", r.Fun)
	}

	bare := a.NewStruct(2, "Bare")
	a.DefineStruct(bare, StructDef{})
	if _, problem := a.ResolveCall(StructKind{bare}, nil); problem != NoInit {
		t.Fatalf("missing __init__ gave %v", problem)
	}
	if _, problem := a.ResolveCall(Int, nil); problem != NotCallable {
		t.Fatalf("int call gave %v", problem)
	}
}

func TestOperators(t *testing.T) {
	a := NewArena()
	plus := token.Token{Kind: token.PLUS}
	and := token.Token{Kind: token.KEYWORD, Operand: "and"}

	op, ok := BinaryOpOf(plus)
	if !ok || op != OpAdd {
		t.Fatal("+ is addition")
	}
	if r, ok := BinaryResult(op, Ptr{Char}, Int); !ok || !Equal(r, Ptr{Char}) {
		t.Error("pointer offset keeps the pointer type")
	}
	if _, ok := BinaryResult(op, Int, Short); ok {
		t.Error("int + short is not defined")
	}
	op, _ = BinaryOpOf(and)
	if r, ok := BinaryResult(op, Bool, Bool); !ok || r != Bool {
		t.Error("bool and bool is bool")
	}
	if r, ok := BinaryResult(OpLt, Char, Char); !ok || r != Bool {
		t.Error("chars compare")
	}
	if r, ok := a.UnaryResult(OpDeref, Ptr{Int}); !ok || r != Int {
		t.Error("@*int is int")
	}
	if _, ok := a.UnaryResult(OpDeref, VoidPtr); ok {
		t.Error("*void cannot be dereferenced")
	}
}

func TestCastAllowed(t *testing.T) {
	tests := []struct {
		from, to Type
		want     bool
	}{
		{Str, Int, true},
		{Str, Bool, false},
		{Str, Ptr{Array{Elem: Char}}, true},
		{VoidPtr, Ptr{Int}, true},
		{Bool, Int, true},
		{Int, Char, true},
		{Int, Int, false},
		{Int, Str, false},
	}
	for _, tt := range tests {
		if got := CastAllowed(tt.from, tt.to); got != tt.want {
			t.Errorf("CastAllowed(%v, %v) = %v", tt.from, tt.to, got)
		}
	}
}

func TestIntrinsicIDs(t *testing.T) {
	for i, in := range Intrinsics {
		if in.ID != i {
			t.Errorf("%s has id %d at index %d", in.Name, in.ID, i)
		}
	}
	if in, ok := LookupIntrinsic("write"); !ok || in.Fun.String() != "(int, str) -> int" {
		t.Errorf("write = %v", in.Fun)
	}
}

package checker

import (
	"testing"

	"github.com/alecthomas/repr"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/diag"
	"github.com/pontaoski/taipan/types"
)

func run(t *testing.T, m *ast.Module) (*Session, *Checker) {
	t.Helper()
	s := NewSession()
	c, _ := s.Check(m)
	return s, c
}

func expectClean(t *testing.T, s *Session) {
	t.Helper()
	if s.Bin.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", s.Bin.Format())
	}
}

func expectError(t *testing.T, s *Session, kind diag.Kind, critical bool) *diag.Error {
	t.Helper()
	errs := s.Bin.Of(kind)
	if len(errs) == 0 {
		t.Fatalf("expected a %s error, got:\n%s", kind, s.Bin.Format())
	}
	if errs[0].Critical != critical {
		t.Fatalf("%s error critical = %v, want %v", kind, errs[0].Critical, critical)
	}
	return errs[0]
}

func builtinModule(b *ast.Builder) *ast.Module {
	conv := func(name, from string) *ast.Fun {
		return b.Fun(name, b.Args("v", b.T(from)), b.T("str"), b.Code(b.Return(b.Str("?"))))
	}
	return b.Module("std/builtin",
		b.Fun("format", b.Args("strings", b.T("*[]str"), "values", b.T("*[]str"), "length", b.T("int")), b.T("str"),
			b.Code(b.Return(b.Str("")))),
		conv("int_to_str", "int"),
		conv("char_to_str", "char"),
		conv("bool_to_str", "bool"),
	)
}

func TestScopeUndoLog(t *testing.T) {
	s := newScope()
	s.bind("x", Binding{Type: types.Int})
	mark := s.mark()
	s.bind("x", Binding{Type: types.Str})
	s.bind("y", Binding{Type: types.Bool})
	s.bind("x", Binding{Type: types.Char})
	s.restore(mark)

	if b, ok := s.lookup("x"); !ok || b.Type != types.Int {
		t.Fatalf("x = %v, want the outer int", b.Type)
	}
	if _, ok := s.lookup("y"); ok {
		t.Fatal("y should be gone after the block")
	}
}

func TestBlockNamesDoNotEscape(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Fun("main", nil, nil, b.Code(
			b.Set("x", b.Int(1)),
			b.If(b.Const("True"), b.Code(b.Set("x", b.Str("shadow")), b.Set("y", b.Int(2))), nil),
			b.Expr(b.Bin(b.Ref("x"), "+", b.Int(1))),
			b.Expr(b.Ref("y")),
		)),
	)
	s, _ := run(t, m)
	err := expectError(t, s, diag.Refer, true)
	if len(s.Bin.Of(diag.BinOp)) != 0 {
		t.Fatalf("outer x should be an int again:\n%s", s.Bin.Format())
	}
	if err.Message != "did not find name 'y'" {
		t.Fatalf("message = %q", err.Message)
	}
}

func TestIfBothBranchesReturn(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	cond := b.If(b.Ref("c"), b.Code(b.Return(b.Int(1))), b.Code(b.Return(b.Int(2))))
	m := b.Module("main",
		b.Fun("pick", b.Args("c", b.T("bool")), b.T("int"), b.Code(cond)),
	)
	s, _ := run(t, m)
	expectClean(t, s)
	if got := s.Info.TypeOf(cond); got != types.Int {
		t.Fatalf("if checked as %v, want int", got)
	}
}

func TestIfOneBranchReturnsIsCritical(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Fun("pick", b.Args("c", b.T("bool")), b.T("int"), b.Code(
			b.If(b.Ref("c"), b.Code(b.Return(b.Int(1))), b.Code(b.Expr(b.Int(2)))),
		)),
	)
	s, _ := run(t, m)
	expectError(t, s, diag.IfBranch, true)
}

func TestMainWithArgumentKeepsChecking(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Fun("main", b.Args("argc", b.T("int")), nil, b.Code(
			b.Assign("x", b.T("int"), b.Str("not an int")),
		)),
	)
	s, _ := run(t, m)
	err := expectError(t, s, diag.MainArgs, false)
	expectError(t, s, diag.Assignment, false)
	if err.Message != "entry point 'main' must take no arguments, found '(int)'" {
		t.Fatalf("message = %q", err.Message)
	}
}

func TestCasts(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	ok := b.Module("main",
		b.Fun("main", nil, nil, b.Code(b.Set("n", b.Cast(b.T("int"), b.Str("abc"))))),
	)
	s, _ := run(t, ok)
	expectClean(t, s)

	bad := b.Module("main",
		b.Fun("main", nil, nil, b.Code(b.Set("n", b.Cast(b.T("bool"), b.Str("abc"))))),
	)
	s, _ = run(t, bad)
	if err := expectError(t, s, diag.Cast, true); err.Message != "casting type 'str' to type 'bool' is not supported" {
		t.Fatalf("message = %q", err.Message)
	}
}

func pointModule(b *ast.Builder) *ast.Module {
	self := b.Ref("self")
	return b.Module("main",
		b.Struct("Point", b.Args("x", b.T("int"), "y", b.T("int")), nil,
			b.Fun("__init__", b.Args("self", b.T("*Point"), "x", b.T("int"), "y", b.T("int")), nil, b.Code(
				b.Save(b.Dot(self, "x"), b.Ref("x")),
				b.Save(b.Dot(b.Ref("self"), "y"), b.Ref("y")),
			)),
		),
		b.Fun("origin", nil, b.T("*Point"), b.Code(
			b.Return(b.Call(b.Ref("Point"), b.Int(0), b.Int(0))),
		)),
		b.Fun("main", nil, nil, b.Code(
			b.Set("p", b.Call(b.Ref("origin"))),
		)),
	)
}

func TestPointConstruction(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := pointModule(b)
	s, c := run(t, m)
	expectClean(t, s)

	kind, ok := c.Lookup("Point")
	if !ok {
		t.Fatal("Point is not bound")
	}
	sk, ok := kind.Type.(types.StructKind)
	if !ok {
		t.Fatalf("Point is bound to %s", kind.Type)
	}
	def := s.Arena.Struct(sk.Struct)
	if len(def.Fields) != 2 || def.Fields[1].Type != types.Int {
		t.Fatalf("fields = %s", repr.String(def.Fields))
	}
	origin := m.Tops[1].(*ast.Fun)
	call := origin.Code.Statements[0].(*ast.Return).Value.(*ast.Call)
	if r := s.Info.Calls[call]; r.Target == nil || !types.Equal(r.Fun.Return, types.Ptr{Pointed: sk.Struct}) {
		t.Fatalf("constructor call resolved to %s", repr.String(r))
	}
}

func TestMissingInitIsCritical(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Struct("Empty", nil, nil),
		b.Fun("main", nil, nil, b.Code(b.Expr(b.Call(b.Ref("Empty"))))),
	)
	s, _ := run(t, m)
	expectError(t, s, diag.InitMagic, true)
}

func TestMixResolution(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	two := b.Call(b.Ref("f"), b.Int(1), b.Int(2))
	m := b.Module("main",
		b.Fun("one", b.Args("a", b.T("int")), b.T("int"), b.Code(b.Return(b.Ref("a")))),
		b.Fun("two", b.Args("a", b.T("int"), "b", b.T("int")), b.T("int"), b.Code(b.Return(b.Ref("b")))),
		b.Mix("f", b.Ref("one"), b.Ref("two")),
		b.Fun("main", nil, nil, b.Code(b.Expr(two))),
	)
	s, _ := run(t, m)
	expectClean(t, s)
	if r := s.Info.Calls[two]; r.Alternative != 1 {
		t.Fatalf("f(1, 2) picked alternative %d", r.Alternative)
	}

	b = ast.NewBuilder(nil, "main")
	m = b.Module("main",
		b.Fun("one", b.Args("a", b.T("int")), b.T("int"), b.Code(b.Return(b.Ref("a")))),
		b.Mix("f", b.Ref("one")),
		b.Fun("main", nil, nil, b.Code(b.Expr(b.Call(b.Ref("f"), b.Str("x"))))),
	)
	s, _ = run(t, m)
	expectError(t, s, diag.CallMix, true)
}

func TestCallArgumentMismatchIsRecoverable(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Fun("id", b.Args("a", b.T("int")), b.T("int"), b.Code(b.Return(b.Ref("a")))),
		b.Fun("main", nil, nil, b.Code(
			b.Expr(b.Call(b.Ref("id"), b.Str("x"))),
			b.Expr(b.Call(b.Ref("id"), b.Int(1), b.Int(2))),
		)),
	)
	s, _ := run(t, m)
	expectError(t, s, diag.CallArg, false)
	expectError(t, s, diag.CallArgs, true)
}

func TestMutualRecursion(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Fun("even", b.Args("n", b.T("int")), b.T("bool"), b.Code(
			b.If(b.Bin(b.Ref("n"), "==", b.Int(0)), b.Code(b.Return(b.Const("True"))), nil),
			b.Return(b.Call(b.Ref("odd"), b.Bin(b.Ref("n"), "-", b.Int(1)))),
		)),
		b.Fun("odd", b.Args("n", b.T("int")), b.T("bool"), b.Code(
			b.If(b.Bin(b.Ref("n"), "==", b.Int(0)), b.Code(b.Return(b.Const("False"))), nil),
			b.Return(b.Call(b.Ref("even"), b.Bin(b.Ref("n"), "-", b.Int(1)))),
		)),
	)
	s, _ := run(t, m)
	expectClean(t, s)
}

func TestSelfReferentialStructIsUnsized(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Struct("List", b.Args("value", b.T("int"), "next", b.T("*List")), nil),
		b.Struct("Bad", b.Args("inner", b.T("Bad")), nil),
	)
	s, _ := run(t, m)
	errs := s.Bin.Of(diag.StructSized)
	if len(errs) != 1 {
		t.Fatalf("expected exactly Bad to be unsized:\n%s", s.Bin.Format())
	}
}

func TestImportCycle(t *testing.T) {
	b := ast.NewBuilder(nil, "a")
	a := b.Module("a")
	bm := b.Module("b", b.Import(a))
	a.Tops = append(a.Tops, b.Import(bm))

	s, _ := run(t, a)
	err := expectError(t, s, diag.ImportCycle, true)
	if err.Message != "circular import of module 'a'" {
		t.Fatalf("message = %q", err.Message)
	}
}

func TestModulesAreCheckedOnce(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	util := b.Module("util",
		b.Fun("twice", b.Args("n", b.T("int")), b.T("int"), b.Code(b.Return(b.Bin(b.Ref("n"), "*", b.Int(2))))),
	)
	left := b.Module("left", b.Import(util))
	right := b.Module("right", b.FromImport(util, "twice"))
	m := b.Module("main",
		b.Import(left),
		b.Import(right),
		b.Import(util),
		b.Fun("main", nil, nil, b.Code(
			b.Set("n", b.Call(b.Dot(b.Ref("util"), "twice"), b.Int(2))),
		)),
	)
	s, _ := run(t, m)
	expectClean(t, s)

	var paths []string
	for _, c := range s.Modules() {
		paths = append(paths, c.Module.Path)
	}
	want := []string{"util", "left", "right", "main"}
	if repr.String(paths) != repr.String(want) {
		t.Fatalf("modules = %v, want %v", paths, want)
	}
}

func TestSameNamedModulesStayApart(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	ua := b.Module("util", b.Fun("only_in_a", nil, nil, nil))
	ub := b.Module("util", b.Fun("only_in_b", nil, nil, nil))
	ia, ib := b.Import(ua), b.Import(ub)
	ia.Name, ib.Name = b.Word("ua"), b.Word("ub")
	m := b.Module("main", ia, ib,
		b.Fun("main", nil, nil, b.Code(
			b.Expr(b.Call(b.Dot(b.Ref("ua"), "only_in_a"))),
			b.Expr(b.Call(b.Dot(b.Ref("ub"), "only_in_b"))),
		)),
	)
	s, _ := run(t, m)
	expectClean(t, s)
	if len(s.Modules()) != 3 {
		t.Fatalf("checked %d modules, want 3", len(s.Modules()))
	}
}

func TestImportOfSameNamedModuleIsNotACycle(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	lib := b.Module("main", b.Fun("helper", nil, nil, nil))
	m := b.Module("main", b.Import(lib), b.Fun("main", nil, nil, nil))
	s, _ := run(t, m)
	expectClean(t, s)
}

func TestFailedImportFailsImporter(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	broken := b.Module("broken", b.Fun("f", nil, nil, b.Code(b.Expr(b.Ref("nope")))))
	m := b.Module("main", b.Import(broken), b.Fun("main", nil, nil, nil))
	s, _ := run(t, m)
	expectError(t, s, diag.Refer, true)
	if len(s.Bin.Errors()) != 1 {
		t.Fatalf("the failure should be reported once:\n%s", s.Bin.Format())
	}
	if len(s.Modules()) != 0 {
		t.Fatal("nothing should be memoized")
	}
}

func TestTemplateConversions(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	tmpl := b.Template(nil, []string{"n=", " c=", " ok=", ""}, b.Int(1), b.Char('x'), b.Const("True"))
	m := b.Module("main",
		b.Fun("main", nil, nil, b.Code(b.Set("s", tmpl))),
	)
	m.Builtin = builtinModule(b)
	s, _ := run(t, m)
	expectClean(t, s)
	if got := s.Info.TypeOf(tmpl); got != types.Str {
		t.Fatalf("template is %v", got)
	}
	for _, v := range tmpl.Values {
		if s.Info.Conversions[v].Kind != ConvertWord {
			t.Errorf("value %d is not converted by a builtin word", v.UID())
		}
	}
	if _, ok := s.Info.Formatters[tmpl]; !ok {
		t.Error("default formatter not recorded")
	}
}

func TestTemplateWithoutBuiltin(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Fun("main", nil, nil, b.Code(b.Set("s", b.Template(nil, []string{"x"})))),
	)
	s, _ := run(t, m)
	expectError(t, s, diag.Builtin, true)
}

func TestExplicitFormatterShape(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Fun("fmt", b.Args("a", b.T("*[]str"), "b", b.T("*[]int"), "n", b.T("int")), b.T("str"), b.Code(b.Return(b.Str("")))),
		b.Fun("main", nil, nil, b.Code(b.Set("s", b.Template(b.Ref("fmt"), []string{"x"})))),
	)
	s, _ := run(t, m)
	expectError(t, s, diag.TemplateArg1, false)
}

func TestMatchEnum(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	match := b.Match(b.Ref("v"), "it", nil,
		b.Case("Some", b.Code(b.Return(b.Ref("it")))),
		b.Case("None", b.Code(b.Return(b.Int(0)))),
	)
	m := b.Module("main",
		b.Enum("Maybe", []string{"None"}, b.Args("Some", b.T("int"))),
		b.Fun("get", b.Args("v", b.T("Maybe")), b.T("int"), b.Code(
			match,
			b.Return(b.Int(-1)),
		)),
		b.Fun("main", nil, nil, b.Code(
			b.Set("x", b.Call(b.Ref("get"), b.Call(b.Dot(b.Ref("Maybe"), "Some"), b.Int(3)))),
			b.Set("y", b.Call(b.Ref("get"), b.Dot(b.Ref("Maybe"), "None"))),
		)),
	)
	s, _ := run(t, m)
	expectClean(t, s)
	if got := s.Info.TypeOf(match); got != types.Void {
		t.Fatalf("a match without default never counts as returning, got %v", got)
	}
}

func TestMatchNonEnum(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Fun("main", nil, nil, b.Code(b.Match(b.Int(1), "it", b.Code()))),
	)
	s, _ := run(t, m)
	expectError(t, s, diag.Match, false)
}

func TestUseIntrinsic(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Use("write", "", b.T("int"), b.T("int"), b.T("str")),
		b.Fun("main", nil, nil, b.Code(b.Expr(b.Call(b.Ref("write"), b.Int(1), b.Str("hi\n"))))),
	)
	s, _ := run(t, m)
	expectClean(t, s)

	m = b.Module("main", b.Use("write", "", b.T("int"), b.T("str")))
	s, _ = run(t, m)
	expectError(t, s, diag.IntrinsicSignature, true)

	m = b.Module("main", b.Use("launch", "", nil))
	s, _ = run(t, m)
	expectError(t, s, diag.Intrinsic, true)
}

func TestVariableSaveDeclares(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	first := b.VSave("n", b.Int(1))
	second := b.VSave("n", b.Str("x"))
	m := b.Module("main",
		b.Fun("main", nil, nil, b.Code(first, b.VSave("n", b.Int(2)), second)),
	)
	s, _ := run(t, m)
	expectError(t, s, diag.VSave, false)
	if s.Info.Uses[first].Decl != first {
		t.Fatal("the first save declares the slot")
	}
	if s.Info.Uses[second].Decl != first {
		t.Fatal("later saves reuse the slot")
	}
}

func TestDotAccess(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	field := b.Dot(b.Ref("p"), "x")
	static := b.Dot(b.Ref("Counter"), "start")
	m := b.Module("main",
		b.Struct("Counter", b.Args("x", b.T("int")), []*ast.StaticVariable{b.Static("start", b.T("int"), b.Int(10))},
			b.Fun("get", b.Args("self", b.T("*Counter")), b.T("int"), b.Code(b.Return(b.Unary("@", b.Dot(b.Ref("self"), "x"))))),
		),
		b.Fun("read", b.Args("p", b.T("*Counter")), b.T("int"), b.Code(
			b.Set("a", field),
			b.Set("b", static),
			b.Return(b.Call(b.Dot(b.Ref("p"), "get"))),
		)),
	)
	s, _ := run(t, m)
	expectClean(t, s)
	if sel := s.Info.Selections[field]; sel.Kind != FieldAddr || sel.Index != 0 {
		t.Errorf("p.x selected %s", repr.String(sel))
	}
	if sel := s.Info.Selections[static]; sel.Kind != StaticField {
		t.Errorf("Counter.start selected %s", repr.String(sel))
	}
	if got := s.Info.TypeOf(field); !types.Equal(got, types.Ptr{Pointed: types.Int}) {
		t.Errorf("p.x is %v", got)
	}

	m = b.Module("main",
		b.Fun("main", nil, nil, b.Code(b.Expr(b.Dot(b.Int(1), "x")))),
	)
	s, _ = run(t, m)
	expectError(t, s, diag.Dot, true)
}

func TestSubscripts(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	m := b.Module("main",
		b.Fun("main", nil, nil, b.Code(
			b.Declare("buf", b.T("int"), b.Int(8)),
			b.Save(b.Subscript(b.Ref("buf"), b.Int(3)), b.Int(1)),
			b.Set("c", b.Subscript(b.Str("abc"), b.Int(0))),
		)),
	)
	s, _ := run(t, m)
	expectClean(t, s)

	m = b.Module("main",
		b.Fun("main", nil, nil, b.Code(b.Expr(b.Subscript(b.Int(1), b.Int(0))))),
	)
	s, _ = run(t, m)
	expectError(t, s, diag.Subscript, true)
}

func TestSemanticTokens(t *testing.T) {
	b := ast.NewBuilder(nil, "main")
	b.At(1, 5)
	one := b.Int(1)
	b.At(2, 1)
	set := b.Set("x", one)
	m := b.Module("main", b.Fun("main", nil, nil, b.Code(set)))

	s := NewSession()
	s.Semantic = true
	c, err := s.Check(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Tokens) == 0 {
		t.Fatal("no tokens collected")
	}
	encoded := Encode(c.Tokens)
	if len(encoded.Data)%5 != 0 {
		t.Fatalf("encoded data has %d integers", len(encoded.Data))
	}
	legend := Legend()
	if len(legend.TokenModifiers) != 3 {
		t.Fatalf("modifiers = %v", legend.TokenModifiers)
	}
	// the first token sits on line 1, column 5
	if encoded.Data[0] != 0 || encoded.Data[1] != 4 {
		t.Fatalf("first token at %d:%d", encoded.Data[0], encoded.Data[1])
	}
}

package yamltree

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/repr"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/checker"
	"github.com/pontaoski/taipan/diag"
)

func loader(files map[string]string) *Loader {
	l := NewLoader()
	l.ReadFile = func(name string) ([]byte, error) {
		if data, ok := files[name]; ok {
			return []byte(data), nil
		}
		return nil, fmt.Errorf("open %s: no such file", name)
	}
	return l
}

const point = `
path: main
tops:
  - struct:
      name: Point
      fields:
        - {name: x, type: int}
        - {name: y, type: int}
      funs:
        - fun:
            name: __init__
            args:
              - {name: self, type: "*Point"}
              - {name: x, type: int}
              - {name: y, type: int}
            code:
              - save: {space: {dot: {origin: {ref: self}, access: x}}, value: {ref: x}}
              - save: {space: {dot: {origin: {ref: self}, access: y}}, value: {ref: y}}
  - fun:
      name: origin
      returns: "*Point"
      code:
        - return: {call: {func: {ref: Point}, args: [{int: 0}, {int: 0}]}}
    at: [7, 1]
  - fun:
      name: main
      code:
        - set: {name: p, value: {call: {func: {ref: origin}}}}
        - if:
            cond: {binary: {left: {constant: "True"}, op: "==", right: {constant: "False"}}}
            code:
              - expr: {str: unreachable}
            else:
              - assert: {value: {constant: "True"}, explanation: {str: fine}}
`

func TestDecodePoint(t *testing.T) {
	m, err := loader(map[string]string{"main.tree.yaml": point}).Load("main.tree.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if m.Path != "main" || len(m.Tops) != 3 {
		t.Fatalf("module = %s", repr.String(m))
	}
	s := checker.NewSession()
	if _, err := s.Check(m); err != nil {
		t.Fatalf("decoded tree does not check:\n%s", s.Bin.Format())
	}

	origin := m.Tops[1].(*ast.Fun)
	if at := origin.Place().From; at.Line != 7 || at.Column != 1 || at.Filename != "main.tree.yaml" {
		t.Fatalf("origin is at %s", repr.String(at))
	}
	main := m.Tops[2].(*ast.Fun)
	cond := main.Code.Statements[1].(*ast.If)
	if _, ok := cond.Else.(*ast.Code); !ok {
		t.Fatalf("else decoded as %T", cond.Else)
	}
}

func TestIdsAreUniqueAcrossFiles(t *testing.T) {
	l := loader(map[string]string{
		"main.tree.yaml": `
tops:
  - import: {path: util}
  - from: {path: util, names: [helper]}
`,
		"util.tree.yaml": `
path: util
tops:
  - fun: {name: helper, code: []}
`,
	})
	m, err := l.Load("main.tree.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if m.Path != "main" {
		t.Fatalf("path from file name = %q", m.Path)
	}
	imp := m.Tops[0].(*ast.Import)
	from := m.Tops[1].(*ast.FromImport)
	if imp.Module != from.Module {
		t.Fatal("the same file was decoded twice")
	}
	seen := map[int]bool{}
	for _, n := range []ast.Node{m, imp, from, imp.Module, imp.Module.Tops[0]} {
		if seen[n.UID()] {
			t.Fatalf("id %d handed out twice", n.UID())
		}
		seen[n.UID()] = true
	}
}

func TestImportCycleReachesChecker(t *testing.T) {
	l := loader(map[string]string{
		"a.tree.yaml": "tops: [{import: {path: b}}]",
		"b.tree.yaml": "tops: [{import: {path: a}}]",
	})
	m, err := l.Load("a.tree.yaml")
	if err != nil {
		t.Fatal(err)
	}
	s := checker.NewSession()
	if _, err := s.Check(m); err == nil {
		t.Fatal("cycle was accepted")
	}
	if len(s.Bin.Of(diag.ImportCycle)) == 0 {
		t.Fatalf("errors:\n%s", s.Bin.Format())
	}
}

func TestSameBaseNameInTwoDirectories(t *testing.T) {
	l := loader(map[string]string{
		"main.tree.yaml": `
tops:
  - import: {path: a/util, as: ua}
  - import: {path: b/util, as: ub}
  - fun:
      name: main
      code:
        - expr: {call: {func: {dot: {origin: {ref: ua}, access: only_in_a}}}}
        - expr: {call: {func: {dot: {origin: {ref: ub}, access: only_in_b}}}}
`,
		"a/util.tree.yaml": "tops: [{fun: {name: only_in_a, code: []}}]",
		"b/util.tree.yaml": "tops: [{fun: {name: only_in_b, code: []}}]",
	})
	m, err := l.Load("main.tree.yaml")
	if err != nil {
		t.Fatal(err)
	}
	s := checker.NewSession()
	if _, err := s.Check(m); err != nil {
		t.Fatalf("imports were mixed up:\n%s", s.Bin.Format())
	}
}

func TestBuiltinModule(t *testing.T) {
	l := loader(map[string]string{
		"main.tree.yaml": `
builtin: std/builtin
tops:
  - fun:
      name: main
      code:
        - set: {name: s, value: {template: {strings: ["n = ", ""], values: [{int: 1}]}}}
`,
		"std/builtin.tree.yaml": `
path: std/builtin
tops:
  - fun:
      name: format
      args:
        - {name: strings, type: "*[]str"}
        - {name: values, type: "*[]str"}
        - {name: length, type: int}
      returns: str
      code: [{return: {str: ""}}]
  - fun: {name: int_to_str, args: [{name: v, type: int}], returns: str, code: [{return: {str: "?"}}]}
  - fun: {name: char_to_str, args: [{name: v, type: char}], returns: str, code: [{return: {str: "?"}}]}
  - fun: {name: bool_to_str, args: [{name: v, type: bool}], returns: str, code: [{return: {str: "?"}}]}
`,
	})
	m, err := l.Load("main.tree.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if m.Builtin == nil || m.Builtin.Path != "std/builtin" {
		t.Fatalf("builtin = %s", repr.String(m.Builtin))
	}
	s := checker.NewSession()
	if _, err := s.Check(m); err != nil {
		t.Fatalf("template does not check:\n%s", s.Bin.Format())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown node", "tops: [{frobnicate: 1, at: [4, 2]}]", "main.tree.yaml:4:2: unknown node 'frobnicate'"},
		{"two variants", "tops: [{int: 1, str: x}]", "node has both"},
		{"bad type", "tops: [{var: {name: v, type: '*[x]int'}}]", "bad array size"},
		{"long char", "tops: [{fun: {name: f, code: [{expr: {char: ab}}]}}]", "one byte"},
		{"missing import", "tops: [{import: {path: nowhere}}]", "no such file"},
		{"not yaml", "tops: [", "main.tree.yaml"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := loader(map[string]string{"main.tree.yaml": test.src}).Load("main.tree.yaml")
			if err == nil {
				t.Fatal("no error")
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("err is %T: %s", err, err)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Fatalf("err = %q, want it to contain %q", err, test.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	m, err := Parse("inline.tree.yaml", []byte(`
tops:
  - use: {name: write, as: print, returns: int, args: [int, str]}
  - enum: {name: Shape, items: [Empty], typed: [{name: Circle, type: int}]}
  - memo: {name: scratch, size: 16}
  - const: {name: answer, value: 42}
  - mix: {name: both, funs: [{ref: print}]}
`))
	if err != nil {
		t.Fatal(err)
	}
	use := m.Tops[0].(*ast.Use)
	if use.AsName.Operand != "print" || len(use.ArgTypes) != 2 {
		t.Fatalf("use = %s", repr.String(use))
	}
	if e := m.Tops[1].(*ast.Enum); len(e.Items) != 1 || e.TypedItems[0].Name.Operand != "Circle" {
		t.Fatalf("enum = %s", repr.String(e))
	}
	if c := m.Tops[3].(*ast.Const); c.Value != 42 {
		t.Fatalf("const = %d", c.Value)
	}
}

package main

import (
	"os"
	"strings"
	"testing"

	"github.com/alecthomas/participle"
)

func generate(t *testing.T, src, source, pkgname string) string {
	t.Helper()
	decls := TypeDecls{}
	if err := participle.MustBuild(&TypeDecls{}).ParseString(src, &decls); err != nil {
		t.Fatal(err)
	}
	return GenerateDecls(source, pkgname, &decls)
}

func TestMarkers(t *testing.T) {
	out := generate(t, `type Shape = | Circle | Square of int;`, "test.sum", "test")
	for _, want := range []string{
		"// Code generated by tool from test.sum. DO NOT EDIT.",
		"package test",
		"type Shape interface",
		"is_Shape()",
		"type Square int",
		"func (Circle) is_Shape() {}",
		"func (Square) is_Shape() {}",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "type Circle") {
		t.Fatalf("bare case declared a type:\n%s", out)
	}
}

func TestPlainAndNested(t *testing.T) {
	out := generate(t, `
type Name = string;
type Leaf = | Word | Number;
type Tree = | Branch of Leaf;
`, "test.sum", "test")
	for _, want := range []string{"type Name string", "type Branch struct", "func (Branch) is_Tree() {}"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output does not contain %q:\n%s", want, out)
		}
	}
}

// The checked in sum.go of package types must be what the declarations
// generate.
func TestTypesAreGenerated(t *testing.T) {
	src, err := os.ReadFile("../types/types.sum")
	if err != nil {
		t.Fatal(err)
	}
	want, err := os.ReadFile("../types/sum.go")
	if err != nil {
		t.Fatal(err)
	}
	if out := generate(t, string(src), "types.sum", "types"); out != string(want) {
		t.Fatalf("types/sum.go is stale, run go generate ./types; got:\n%s", out)
	}
}

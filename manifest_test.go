package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/repr"

	"github.com/pontaoski/taipan/ast"
)

func write(t *testing.T, dir, name, data string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := writeManifest(dir, manifest{Package: "demo", Entry: "main.tree.yaml"}); err != nil {
		t.Fatal(err)
	}
	m, err := loadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Package != "demo" || m.Entry != "main.tree.yaml" || m.Library {
		t.Fatalf("manifest = %s", repr.String(m))
	}
	if got := m.path(m.Entry); got != filepath.Join(dir, "main.tree.yaml") {
		t.Fatalf("entry path = %s", got)
	}
}

func TestTOMLManifest(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, tomlManifest, `
package = "lib"
builtin = "std/builtin.tree.yaml"
library = true
`)
	m, err := loadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Package != "lib" || !m.Library || m.Builtin != "std/builtin.tree.yaml" {
		t.Fatalf("manifest = %s", repr.String(m))
	}
}

func TestManifestErrors(t *testing.T) {
	dir := t.TempDir()
	m, err := loadManifest(dir)
	if err != nil || m.Package != "" {
		t.Fatalf("empty directory: %s, %v", repr.String(m), err)
	}

	write(t, dir, yamlManifest, "package: x\nunknown: 1\n")
	if _, err := loadManifest(dir); err == nil || !strings.Contains(err.Error(), yamlManifest) {
		t.Fatalf("unknown key: %v", err)
	}
}

func TestLoadProgramFindsBuiltin(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "main.tree.yaml", "tops: [{fun: {name: main, code: []}}]")
	write(t, dir, "std/builtin.tree.yaml", "path: std/builtin\ntops: []")

	m, ids, err := loadProgram(filepath.Join(dir, "main.tree.yaml"), "")
	if err != nil {
		t.Fatal(err)
	}
	if m.Builtin == nil || m.Builtin.Path != "std/builtin" {
		t.Fatalf("builtin = %s", repr.String(m.Builtin))
	}
	if ids.Peek() < m.Builtin.UID() {
		t.Fatalf("counter at %d is behind builtin id %d", ids.Peek(), m.Builtin.UID())
	}
}

func TestImportedModulesShareTheBuiltin(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "main.tree.yaml", "tops: [{import: {path: util}}, {fun: {name: main, code: []}}]")
	write(t, dir, "util.tree.yaml", "tops: []")
	write(t, dir, "std/builtin.tree.yaml", "path: std/builtin\ntops: [{import: {path: helpers}}]")
	write(t, dir, "std/helpers.tree.yaml", "tops: []")

	m, _, err := loadProgram(filepath.Join(dir, "main.tree.yaml"), "")
	if err != nil {
		t.Fatal(err)
	}
	util := m.Tops[0].(*ast.Import).Module
	if util.Builtin != m.Builtin {
		t.Fatalf("util builtin = %s", repr.String(util.Builtin))
	}
	if m.Builtin.Builtin != nil {
		t.Fatal("the builtin module imports itself")
	}
	if helpers := m.Builtin.Tops[0].(*ast.Import).Module; helpers.Builtin != nil {
		t.Fatal("a module the builtin imports depends on the builtin")
	}
}

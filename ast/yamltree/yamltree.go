// Package yamltree decodes syntax trees that an external parser wrote out
// as YAML.
//
// A file holds one module:
//
//	path: main
//	builtin: std/builtin
//	tops:
//	  - fun:
//	      name: main
//	      code:
//	        - set: {name: x, value: {int: 1}}
//	    at: [1, 1]
//
// Every node is a mapping with exactly one variant key, plus an optional
// `at: [line, column]`. Types are strings in the grammar ast.Builder.Type
// accepts.
package yamltree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/pontaoski/taipan/ast"
)

// Ext is the extension of tree files. Imports name files without it.
const Ext = ".tree.yaml"

type Error struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

type document struct {
	Path    string        `yaml:"path"`
	Builtin string        `yaml:"builtin"`
	Tops    []interface{} `yaml:"tops"`
}

// Loader reads tree files and everything they import. The modules of one
// compilation share its counter, so their ids never collide.
type Loader struct {
	Counter  *ast.Counter
	ReadFile func(name string) ([]byte, error)

	modules map[string]*ast.Module
}

func NewLoader() *Loader {
	return &Loader{
		Counter:  &ast.Counter{},
		ReadFile: os.ReadFile,
		modules:  map[string]*ast.Module{},
	}
}

// AttachBuiltin makes builtin the builtin module of every loaded module
// that names none, except builtin itself and the modules it depends on.
func (l *Loader) AttachBuiltin(builtin *ast.Module) {
	own := map[*ast.Module]bool{}
	var walk func(m *ast.Module)
	walk = func(m *ast.Module) {
		if m == nil || own[m] {
			return
		}
		own[m] = true
		walk(m.Builtin)
		for _, top := range m.Tops {
			switch n := top.(type) {
			case *ast.Import:
				walk(n.Module)
			case *ast.FromImport:
				walk(n.Module)
			}
		}
	}
	walk(builtin)
	for _, m := range l.modules {
		if m.Builtin == nil && !own[m] {
			m.Builtin = builtin
		}
	}
}

// Load decodes file and, recursively, the files it imports. A file is
// decoded once; a module is registered before its body so that an import
// cycle hands back the unfinished module instead of looping.
func (l *Loader) Load(file string) (*ast.Module, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	if m, ok := l.modules[abs]; ok {
		return m, nil
	}
	data, err := l.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{File: file, Msg: err.Error()}
	}
	if doc.Path == "" {
		doc.Path = strings.TrimSuffix(filepath.Base(file), Ext)
	}

	d := &decoder{l: l, file: file, b: ast.NewBuilder(l.Counter, file)}
	m := d.b.Module(doc.Path)
	l.modules[abs] = m

	if err := d.run(func() {
		for _, top := range doc.Tops {
			m.Tops = append(m.Tops, d.node(top))
		}
	}); err != nil {
		return nil, err
	}
	if doc.Builtin != "" {
		if m.Builtin, err = l.Load(d.resolve(doc.Builtin)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Parse decodes a single document held in memory. Imports are resolved
// relative to the working directory.
func Parse(name string, data []byte) (*ast.Module, error) {
	l := NewLoader()
	l.ReadFile = func(file string) ([]byte, error) {
		if file == name {
			return data, nil
		}
		return os.ReadFile(file)
	}
	return l.Load(name)
}

type decoder struct {
	l    *Loader
	file string
	b    *ast.Builder
	line int
	col  int
}

type failure struct{ err *Error }

func (d *decoder) run(f func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			fail, ok := v.(failure)
			if !ok {
				panic(v)
			}
			err = fail.err
		}
	}()
	f()
	return nil
}

func (d *decoder) failf(format string, args ...interface{}) {
	panic(failure{&Error{File: d.file, Line: d.line, Column: d.col, Msg: fmt.Sprintf(format, args...)}})
}

func (d *decoder) resolve(path string) string {
	if !strings.HasSuffix(path, ".yaml") {
		path += Ext
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(d.file), path)
}

// variant splits a node mapping into its variant key and body, and moves
// the builder to the node's position.
func (d *decoder) variant(v interface{}) (string, interface{}) {
	m, ok := v.(map[interface{}]interface{})
	if !ok {
		d.failf("expected a node, got %T", v)
	}
	if at, ok := m["at"]; ok {
		pos, ok := at.([]interface{})
		if !ok || len(pos) != 2 {
			d.failf("'at' should be [line, column]")
		}
		d.line, d.col = d.integer(pos[0]), d.integer(pos[1])
	}
	var key string
	var body interface{}
	for k, v := range m {
		name, ok := k.(string)
		if !ok {
			d.failf("node keys should be strings, got %v", k)
		}
		if name == "at" {
			continue
		}
		if key != "" {
			d.failf("node has both '%s' and '%s'", key, name)
		}
		key, body = name, v
	}
	if key == "" {
		d.failf("node has no variant")
	}
	return key, body
}

// here moves the builder back to a node's own position after its children
// were decoded.
func (d *decoder) here(line, col int) *ast.Builder {
	d.line, d.col = line, col
	if line == 0 {
		return d.b
	}
	return d.b.At(line, col)
}

func (d *decoder) fields(v interface{}) map[string]interface{} {
	m, ok := v.(map[interface{}]interface{})
	if !ok {
		d.failf("expected a mapping, got %T", v)
	}
	out := map[string]interface{}{}
	for k, v := range m {
		out[fmt.Sprint(k)] = v
	}
	return out
}

func (d *decoder) list(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	l, ok := v.([]interface{})
	if !ok {
		d.failf("expected a list, got %T", v)
	}
	return l
}

func (d *decoder) str(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		d.failf("missing string")
	}
	return fmt.Sprint(v)
}

func (d *decoder) integer(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	}
	d.failf("expected an integer, got %v", v)
	return 0
}

func (d *decoder) typ(v interface{}) ast.Node {
	if v == nil {
		return nil
	}
	n, err := d.b.Type(d.str(v))
	if err != nil {
		d.failf("%s", err)
	}
	return n
}

func (d *decoder) opt(v interface{}) ast.Node {
	if v == nil {
		return nil
	}
	return d.node(v)
}

func (d *decoder) nodes(v interface{}) []ast.Node {
	var out []ast.Node
	for _, n := range d.list(v) {
		out = append(out, d.node(n))
	}
	return out
}

func (d *decoder) code(v interface{}) *ast.Code {
	line, col := d.line, d.col
	stmts := d.nodes(v)
	return d.here(line, col).Code(stmts...)
}

func (d *decoder) typed(v interface{}) *ast.TypedVariable {
	f := d.fields(v)
	t := d.typ(f["type"])
	return d.b.Typed(d.str(f["name"]), t)
}

func (d *decoder) typedList(v interface{}) []*ast.TypedVariable {
	var out []*ast.TypedVariable
	for _, t := range d.list(v) {
		out = append(out, d.typed(t))
	}
	return out
}

func (d *decoder) fun(v interface{}) *ast.Fun {
	line, col := d.line, d.col
	f := d.fields(v)
	args := d.typedList(f["args"])
	ret := d.typ(f["returns"])
	code := d.code(f["code"])
	return d.here(line, col).Fun(d.str(f["name"]), args, ret, code)
}

func (d *decoder) funs(v interface{}) []*ast.Fun {
	var out []*ast.Fun
	for _, f := range d.list(v) {
		if key, body := d.variant(f); key == "fun" {
			out = append(out, d.fun(body))
		} else {
			d.failf("expected a fun, got '%s'", key)
		}
	}
	return out
}

func (d *decoder) names(v interface{}) []string {
	var out []string
	for _, n := range d.list(v) {
		out = append(out, d.str(n))
	}
	return out
}

func (d *decoder) node(v interface{}) ast.Node {
	key, body := d.variant(v)
	line, col := d.line, d.col
	b := func() *ast.Builder { return d.here(line, col) }

	switch key {
	case "int":
		return b().Int(int64(d.integer(body)))
	case "short":
		return b().Short(int64(d.integer(body)))
	case "char":
		s := d.str(body)
		if len(s) != 1 {
			d.failf("char literal should be one byte, got %q", s)
		}
		return b().Char(s[0])
	case "charnum":
		return b().CharNum(byte(d.integer(body)))
	case "str":
		return b().Str(d.str(body))
	case "constant":
		return b().Const(d.str(body))
	case "ref":
		return b().Ref(d.str(body))
	case "template":
		f := d.fields(body)
		formatter := d.opt(f["formatter"])
		values := d.nodes(f["values"])
		return b().Template(formatter, d.names(f["strings"]), values...)
	case "binary":
		f := d.fields(body)
		left, right := d.node(f["left"]), d.node(f["right"])
		return b().Bin(left, d.str(f["op"]), right)
	case "unary":
		f := d.fields(body)
		value := d.node(f["value"])
		return b().Unary(d.str(f["op"]), value)
	case "call":
		f := d.fields(body)
		fn := d.node(f["func"])
		args := d.nodes(f["args"])
		return b().Call(fn, args...)
	case "dot":
		f := d.fields(body)
		origin := d.node(f["origin"])
		return b().Dot(origin, d.str(f["access"]))
	case "subscript":
		f := d.fields(body)
		origin := d.node(f["origin"])
		subs := d.nodes(f["subscripts"])
		return b().Subscript(origin, subs...)
	case "cast":
		f := d.fields(body)
		value := d.node(f["value"])
		return b().Cast(d.typ(f["type"]), value)
	case "strcast":
		f := d.fields(body)
		length, pointer := d.node(f["length"]), d.node(f["pointer"])
		return b().StrCast(length, pointer)

	case "expr":
		value := d.node(body)
		return b().Expr(value)
	case "assign":
		f := d.fields(body)
		value := d.node(f["value"])
		return b().Assign(d.str(f["name"]), d.typ(f["type"]), value)
	case "declare":
		f := d.fields(body)
		times := d.opt(f["times"])
		return b().Declare(d.str(f["name"]), d.typ(f["type"]), times)
	case "set":
		f := d.fields(body)
		value := d.node(f["value"])
		return b().Set(d.str(f["name"]), value)
	case "vsave":
		f := d.fields(body)
		value := d.node(f["value"])
		return b().VSave(d.str(f["name"]), value)
	case "save":
		f := d.fields(body)
		space, value := d.node(f["space"]), d.node(f["value"])
		return b().Save(space, value)
	case "reassign":
		f := d.fields(body)
		value := d.node(f["value"])
		return b().Reassign(d.str(f["name"]), value)
	case "code":
		return d.code(body)
	case "if":
		f := d.fields(body)
		cond := d.node(f["cond"])
		code := d.code(f["code"])
		var els ast.Node
		switch e := f["else"].(type) {
		case nil:
		case []interface{}:
			els = d.code(e)
		default:
			els = d.node(e)
		}
		return b().If(cond, code, els)
	case "while":
		f := d.fields(body)
		cond := d.node(f["cond"])
		code := d.code(f["code"])
		return b().While(cond, code)
	case "match":
		f := d.fields(body)
		value := d.node(f["value"])
		var cases []*ast.Case
		for _, c := range d.list(f["cases"]) {
			cf := d.fields(c)
			caseBody := d.code(cf["body"])
			cases = append(cases, b().Case(d.str(cf["name"]), caseBody))
		}
		var def *ast.Code
		if f["default"] != nil {
			def = d.code(f["default"])
		}
		return b().Match(value, d.str(f["as"]), def, cases...)
	case "return":
		value := d.opt(body)
		return b().Return(value)
	case "assert":
		f := d.fields(body)
		value, explanation := d.node(f["value"]), d.node(f["explanation"])
		return b().Assert(value, explanation)

	case "fun":
		return d.fun(body)
	case "struct":
		f := d.fields(body)
		fields := d.typedList(f["fields"])
		var statics []*ast.StaticVariable
		for _, s := range d.list(f["statics"]) {
			sf := d.fields(s)
			value := d.node(sf["value"])
			statics = append(statics, b().Static(d.str(sf["name"]), d.typ(sf["type"]), value))
		}
		funs := d.funs(f["funs"])
		return b().Struct(d.str(f["name"]), fields, statics, funs...)
	case "enum":
		f := d.fields(body)
		typed := d.typedList(f["typed"])
		funs := d.funs(f["funs"])
		return b().Enum(d.str(f["name"]), d.names(f["items"]), typed, funs...)
	case "mix":
		f := d.fields(body)
		funs := d.nodes(f["funs"])
		return b().Mix(d.str(f["name"]), funs...)
	case "const":
		f := d.fields(body)
		return b().ConstDef(d.str(f["name"]), int64(d.integer(f["value"])))
	case "var":
		f := d.fields(body)
		return b().Var(d.str(f["name"]), d.typ(f["type"]))
	case "memo":
		f := d.fields(body)
		return b().Memo(d.str(f["name"]), int64(d.integer(f["size"])))
	case "typedef":
		f := d.fields(body)
		return b().TypeDef(d.str(f["name"]), d.typ(f["type"]))
	case "import":
		f := d.fields(body)
		m := d.load(d.str(f["path"]))
		n := b().Import(m)
		if as, ok := f["as"]; ok {
			n.Name = b().Word(d.str(as))
		}
		return n
	case "from":
		f := d.fields(body)
		m := d.load(d.str(f["path"]))
		return b().FromImport(m, d.names(f["names"])...)
	case "use":
		f := d.fields(body)
		var args []ast.Node
		for _, a := range d.list(f["args"]) {
			args = append(args, d.typ(a))
		}
		as := ""
		if f["as"] != nil {
			as = d.str(f["as"])
		}
		return b().Use(d.str(f["name"]), as, d.typ(f["returns"]), args...)
	}
	d.failf("unknown node '%s'", key)
	return nil
}

func (d *decoder) load(path string) *ast.Module {
	m, err := d.l.Load(d.resolve(path))
	if err != nil {
		if e, ok := err.(*Error); ok {
			panic(failure{e})
		}
		d.failf("import '%s': %s", path, err)
	}
	return m
}

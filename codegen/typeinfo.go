package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/llir/llvm/ir/constant"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/checker"
)

// TypeInfoSymbol names the global a library carries its TypeInfo in.
const TypeInfoSymbol = "__taipan_types"

// TypeInfo lists the top level functions of a built library.
type TypeInfo struct {
	Module    string            `json:"module"`
	Functions map[string]Export `json:"functions"`
}

type Export struct {
	Symbol    string `json:"symbol"`
	Signature string `json:"signature"`
}

// ExportsOf collects the functions of a checked module.
func ExportsOf(mc *checker.Checker, info *checker.Info) TypeInfo {
	t := TypeInfo{Module: mc.Module.Path, Functions: map[string]Export{}}
	for _, top := range mc.Module.Tops {
		f, ok := top.(*ast.Fun)
		if !ok {
			continue
		}
		t.Functions[f.Name.Operand] = Export{
			Symbol:    fmt.Sprintf("fun_%d", f.UID()),
			Signature: info.Funs[f].String(),
		}
	}
	return t
}

func (c *ctx) embedTypeInfo(root *checker.Checker) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// signatures carry "->"
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ExportsOf(root, c.info)); err != nil {
		panic(faultf("type info: %s", err))
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	g := c.m.NewGlobalDef(TypeInfoSymbol, constant.NewCharArray(append(data, 0)))
	g.Immutable = true
}

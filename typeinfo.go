package main

import (
	"encoding/json"

	"github.com/ztrue/tracerr"

	"github.com/pontaoski/taipan/codegen"
	"github.com/pontaoski/taipan/reader"
)

func getTypeInfoFromFile(f string) (t codegen.TypeInfo, err error) {
	data, err := reader.ReadTypeInfo(f, codegen.TypeInfoSymbol)
	if err != nil {
		return codegen.TypeInfo{}, tracerr.Wrap(err)
	}

	err = json.Unmarshal([]byte(data), &t)
	return
}

package main

import (
	"os"
	"path/filepath"

	"github.com/ztrue/tracerr"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/ast/yamltree"
)

// defaultBuiltin is where the builtin module is looked for when nothing else
// names one.
var defaultBuiltin = filepath.Join("std", "builtin"+yamltree.Ext)

// loadProgram decodes the entry tree with its imports and attaches the
// builtin module that supplies the template formatter and converters to
// every module that names none. The counter is the one every decoded node
// took its id from.
func loadProgram(entry, builtin string) (*ast.Module, *ast.Counter, error) {
	l := yamltree.NewLoader()
	m, err := l.Load(entry)
	if err != nil {
		return nil, nil, tracerr.Wrap(err)
	}
	if builtin == "" && m.Builtin == nil {
		candidate := filepath.Join(filepath.Dir(entry), defaultBuiltin)
		if _, err := os.Stat(candidate); err == nil {
			builtin = candidate
		}
	}
	if builtin != "" {
		b, err := l.Load(builtin)
		if err != nil {
			return nil, nil, tracerr.Wrap(err)
		}
		m.Builtin = b
	}
	if m.Builtin != nil {
		l.AttachBuiltin(m.Builtin)
	}
	log.Debugf("loaded %s with %d tops", m.Path, len(m.Tops))
	return m, l.Counter, nil
}

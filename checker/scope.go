package checker

import (
	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/token"
	"github.com/pontaoski/taipan/types"
)

// Binding is what a name stands for: its type and the node that introduced
// it. Decl is one of the declaring nodes (*ast.Fun, *ast.Assignment,
// *ast.TypedVariable for arguments, *ast.Case for match bindings and so on)
// and is how the generator finds the storage behind a reference.
type Binding struct {
	Type  types.Type
	Decl  ast.Node
	Place token.Span
}

type undo struct {
	name string
	prev Binding
	had  bool
}

// scope is a flat table with an undo log. Entering a block takes a mark,
// leaving it rolls the log back to the mark, which restores shadowed
// bindings exactly.
type scope struct {
	table map[string]Binding
	log   []undo
}

func newScope() *scope {
	return &scope{table: map[string]Binding{}}
}

func (s *scope) mark() int {
	return len(s.log)
}

func (s *scope) restore(mark int) {
	for i := len(s.log) - 1; i >= mark; i-- {
		u := s.log[i]
		if u.had {
			s.table[u.name] = u.prev
		} else {
			delete(s.table, u.name)
		}
	}
	s.log = s.log[:mark]
}

func (s *scope) bind(name string, b Binding) {
	prev, had := s.table[name]
	s.log = append(s.log, undo{name, prev, had})
	s.table[name] = b
}

func (s *scope) lookup(name string) (Binding, bool) {
	b, ok := s.table[name]
	return b, ok
}

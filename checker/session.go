package checker

import (
	"github.com/tliron/commonlog"

	"github.com/pontaoski/taipan/ast"
	"github.com/pontaoski/taipan/diag"
	"github.com/pontaoski/taipan/token"
	"github.com/pontaoski/taipan/types"
)

var log = commonlog.GetLogger("taipan.check")

// Session is one compilation. It owns the definition arena, the errors, and
// the memo of checked modules, so separate sessions never share state.
type Session struct {
	Arena *types.Arena
	Bin   *diag.Bin
	Info  *Info

	// Semantic turns on semantic token collection for the root module.
	Semantic bool

	modules    map[int]*Checker
	failed     map[int]*diag.Error
	inProgress map[int]bool
	order      []*Checker
}

func NewSession() *Session {
	return &Session{
		Arena:      types.NewArena(),
		Bin:        diag.NewBin(),
		Info:       NewInfo(),
		modules:    map[int]*Checker{},
		failed:     map[int]*diag.Error{},
		inProgress: map[int]bool{},
	}
}

// Check checks a root module and everything it imports. The returned error
// is a diag.ErrorList holding every recorded error, critical or not.
func (s *Session) Check(m *ast.Module) (*Checker, error) {
	s.inProgress[m.UID()] = true
	defer delete(s.inProgress, m.UID())

	c := s.newChecker(m)
	c.semantic = s.Semantic
	if fatal := c.GoCheck(); fatal != nil {
		log.Debugf("module %s stopped: %s", m.Path, fatal)
		s.failed[m.UID()] = fatal
	} else {
		s.memo(c)
	}
	log.Infof("checked %d modules, %d errors", len(s.order), len(s.Bin.Errors()))
	return c, s.Bin.Err()
}

// Modules returns the successfully checked modules, each after the modules
// it imports.
func (s *Session) Modules() []*Checker {
	return s.order
}

func (s *Session) newChecker(m *ast.Module) *Checker {
	return &Checker{
		session:   s,
		Module:    m,
		names:     newScope(),
		typeNames: newScope(),
		modules:   map[int]*Checker{},
		builtins:  map[string]Binding{},
		expected:  types.Void,
		declared:  map[*ast.Fun]bool{},
	}
}

func (s *Session) memo(c *Checker) {
	s.modules[c.Module.UID()] = c
	s.order = append(s.order, c)
}

// importModule checks m once per session. A module that failed before fails
// its importer again with the same error; a module that is still being
// checked is an import cycle.
func (s *Session) importModule(m *ast.Module, at token.Span) *Checker {
	if c, ok := s.modules[m.UID()]; ok {
		return c
	}
	if err, ok := s.failed[m.UID()]; ok {
		s.Bin.Bailout(err)
	}
	if s.inProgress[m.UID()] {
		s.Bin.Critical(diag.ImportCycle, at, "circular import of module '%s'", m.Path)
	}
	s.inProgress[m.UID()] = true
	defer delete(s.inProgress, m.UID())

	log.Debugf("checking module %s", m.Path)
	c := s.newChecker(m)
	if fatal := c.GoCheck(); fatal != nil {
		s.failed[m.UID()] = fatal
		s.Bin.Bailout(fatal)
	}
	s.memo(c)
	return c
}

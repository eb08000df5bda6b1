// Package diag collects the checker's user-facing errors.
//
// There are two severities. Recoverable errors are appended to a Bin and
// checking carries on with a best-guess type. Critical errors are appended
// too, then unwind the current module through a Fatal panic that Catch turns
// back into a value.
package diag

import (
	"fmt"
	"strings"

	"github.com/pontaoski/taipan/token"
)

type Error struct {
	Kind     Kind
	Place    token.Span
	Message  string
	Critical bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Place.From, e.Message)
}

// Fatal is the panic value used by Bin.Critical.
type Fatal struct {
	Err *Error
}

type Bin struct {
	errs []*Error
}

func NewBin() *Bin {
	return &Bin{}
}

// Add records a recoverable error.
func (b *Bin) Add(kind Kind, place token.Span, msg string, fmts ...interface{}) {
	b.errs = append(b.errs, &Error{
		Kind:    kind,
		Place:   place,
		Message: fmt.Sprintf(msg, fmts...),
	})
}

// Critical records an error and aborts the current module.
func (b *Bin) Critical(kind Kind, place token.Span, msg string, fmts ...interface{}) {
	err := &Error{
		Kind:     kind,
		Place:    place,
		Message:  fmt.Sprintf(msg, fmts...),
		Critical: true,
	}
	b.errs = append(b.errs, err)
	panic(Fatal{err})
}

// Bailout aborts with an error that is already recorded.
func (b *Bin) Bailout(err *Error) {
	panic(Fatal{err})
}

// Catch runs fn and returns the critical error that stopped it, if any.
// Panics that are not Fatal keep unwinding.
func (b *Bin) Catch(fn func()) (fatal *Error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(Fatal)
			if !ok {
				panic(r)
			}
			fatal = f.Err
		}
	}()
	fn()
	return nil
}

func (b *Bin) Errors() []*Error {
	return b.errs
}

func (b *Bin) HasErrors() bool {
	return len(b.errs) != 0
}

// Of returns the recorded errors of the given kind.
func (b *Bin) Of(kind Kind) (ret []*Error) {
	for _, err := range b.errs {
		if err.Kind == kind {
			ret = append(ret, err)
		}
	}
	return
}

func (b *Bin) Format() string {
	var builder strings.Builder
	for _, err := range b.errs {
		builder.WriteString("ERROR: ")
		builder.WriteString(err.Error())
		builder.WriteByte('\n')
	}
	return builder.String()
}

// Err returns the bin as an error, or nil when it is empty.
func (b *Bin) Err() error {
	if !b.HasErrors() {
		return nil
	}
	return ErrorList(b.errs)
}

type ErrorList []*Error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

package codegen

import (
	"fmt"

	"github.com/ztrue/tracerr"
)

// InternalError is a fault of the compiler itself: the generator was handed
// a tree the checker should have rejected, or met a variant it has no
// lowering for. It carries the stack of the place that gave up.
type InternalError struct {
	Err tracerr.Error
}

func (e *InternalError) Error() string {
	return "internal compiler error: " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// fault is what lowering code panics with. Generate turns it into an
// InternalError.
type fault struct {
	msg string
}

func faultf(format string, args ...interface{}) fault {
	return fault{fmt.Sprintf(format, args...)}
}

// recovered converts a panic value caught at the generator boundary.
func recovered(v interface{}) *InternalError {
	switch v := v.(type) {
	case fault:
		return &InternalError{tracerr.Errorf("%s", v.msg)}
	case error:
		return &InternalError{tracerr.Wrap(v)}
	}
	return &InternalError{tracerr.Errorf("%v", v)}
}

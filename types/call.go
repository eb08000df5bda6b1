package types

// CallProblem says why a callee could not be resolved.
type CallProblem int

const (
	CallOK CallProblem = iota
	NotCallable
	NoInit
	NoMixMatch
)

// Resolved is the interpretation of a call the checker accepted.
type Resolved struct {
	// Fun is the signature that is called. For constructors it returns a
	// pointer to the new struct and binds the receiver.
	Fun Fun
	// Alternative is the chosen index into a Mix, or -1.
	Alternative int
	// Target is the callable that is invoked, a Fun or a StructKind.
	Target Type
}

// Callable returns the function a single (non mix) callee stands for.
func (a *Arena) Callable(callee Type) (Fun, CallProblem) {
	switch c := callee.(type) {
	case Fun:
		return c, CallOK
	case StructKind:
		init, ok := a.Struct(c.Struct).Magic("init")
		if !ok {
			return Fun{}, NoInit
		}
		return Fun{Args: init.Fun.Args, Bound: 1, Return: Ptr{c.Struct}}, CallOK
	}
	return Fun{}, NotCallable
}

// ResolveCall applies the call rules to a callee and the argument types. Mix
// alternatives are tried in declaration order and the first one whose arity
// and argument types match wins. Plain callees are returned even when the
// arguments do not match; the checker reports those per argument.
func (a *Arena) ResolveCall(callee Type, args []Type) (Resolved, CallProblem) {
	mix, ok := callee.(Mix)
	if !ok {
		fun, problem := a.Callable(callee)
		return Resolved{Fun: fun, Alternative: -1, Target: callee}, problem
	}
	for i, alternative := range mix.Funs {
		fun, problem := a.Callable(alternative)
		if problem != CallOK {
			continue
		}
		if EqualArgs(fun.Visible(), args) {
			return Resolved{Fun: fun, Alternative: i, Target: alternative}, CallOK
		}
	}
	return Resolved{Alternative: -1}, NoMixMatch
}

package types

import "fmt"

// Layout returns the size and alignment in bytes the generator gives a sized
// type. It matches the LLVM data layout of x86-64.
func (a *Arena) Layout(t Type) (size, align int64) {
	switch t := t.(type) {
	case Primitive:
		switch t {
		case Int:
			return 8, 8
		case Short:
			return 4, 4
		case Char, Bool:
			return 1, 1
		case Str:
			return 16, 8
		case Void:
			return 0, 1
		}
	case Ptr, StructKind:
		return 8, 8
	case Fun:
		return 16, 8
	case Mix:
		var fields []Type
		fields = append(fields, t.Funs...)
		return a.record(fields)
	case Array:
		size, align := a.Layout(t.Elem)
		return roundUp(size, align) * t.Size, align
	case Struct:
		var fields []Type
		for _, f := range a.Struct(t).Fields {
			fields = append(fields, f.Type)
		}
		return a.record(fields)
	case Enum:
		return 8 + 8*a.PayloadWords(t), 8
	}
	panic(fmt.Sprintf("unreachable: type %s has no layout", t))
}

func (a *Arena) record(fields []Type) (size, align int64) {
	align = 1
	for _, f := range fields {
		fs, fa := a.Layout(f)
		size = roundUp(size, fa) + fs
		if fa > align {
			align = fa
		}
	}
	return roundUp(size, align), align
}

// PayloadWords is the number of 64 bit words reserved after an enum's tag,
// enough for its largest typed item.
func (a *Arena) PayloadWords(e Enum) int64 {
	var largest int64
	for _, item := range a.Enum(e).TypedItems {
		if size, _ := a.Layout(item.Type); size > largest {
			largest = size
		}
	}
	return (largest + 7) / 8
}

func roundUp(n, to int64) int64 {
	if to <= 1 {
		return n
	}
	return (n + to - 1) / to * to
}

package types

var charArrayPtr = Ptr{Array{Elem: Char}}

// CharArrayPtr is *[]char, the data pointer of a str.
func CharArrayPtr() Type { return charArrayPtr }

// StrArrayPtr is *[]str, the shape of the template formatter's arguments.
func StrArrayPtr() Type { return Ptr{Array{Elem: Str}} }

func scalar(t Type) bool {
	return t == Bool || t == Char || t == Short || t == Int
}

// CastAllowed reports whether `$to(v)` is accepted for a value of type from.
// Pointers convert freely among themselves, str converts to its data pointer
// and to its length, and bool, char, short and int convert pairwise.
func CastAllowed(from, to Type) bool {
	_, fromPtr := from.(Ptr)
	_, toPtr := to.(Ptr)
	switch {
	case fromPtr && toPtr:
		return true
	case from == Str:
		return to == Int || Equal(to, charArrayPtr)
	case scalar(from) && scalar(to):
		return from != to
	}
	return false
}

package types

// Intrinsic is a runtime function a module can pull in with `use`.
type Intrinsic struct {
	ID   int
	Name string
	Fun  Fun
}

func fun(ret Type, args ...Type) Fun {
	return Fun{Args: args, Return: ret}
}

// Intrinsics is indexed by id. The generator keeps one implementation per
// entry.
var Intrinsics = []Intrinsic{
	{0, "exit", fun(Void, Int)},
	{1, "write", fun(Int, Int, Str)},
	{2, "read", fun(Int, Int, VoidPtr, Int)},
	{3, "ptr", fun(VoidPtr, Str)},
	{4, "len", fun(Int, Str)},
	{5, "str", fun(Str, Int, VoidPtr)},
	{6, "load_byte", fun(Int, VoidPtr)},
	{7, "save_byte", fun(Void, VoidPtr, Int)},
	{8, "load_int", fun(Int, Ptr{Int})},
	{9, "save_int", fun(Void, Ptr{Int}, Int)},
	{10, "nanosleep", fun(Int, VoidPtr, VoidPtr)},
	{11, "fcntl", fun(Int, Int, Int, Int)},
	{12, "tcsetattr", fun(Int, Int, Int, VoidPtr)},
	{13, "tcgetattr", fun(Int, Int, VoidPtr)},
}

func LookupIntrinsic(name string) (Intrinsic, bool) {
	for _, in := range Intrinsics {
		if in.Name == name {
			return in, true
		}
	}
	return Intrinsic{}, false
}

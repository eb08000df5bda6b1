// Package reader pulls the type information out of a built library.
package reader

import "github.com/coreos/pkg/dlopen"

import "C"

// ReadTypeInfo loads the shared object at from and returns the
// NUL-terminated string stored in symbol.
func ReadTypeInfo(from, symbol string) (string, error) {
	handle, err := dlopen.GetHandle([]string{from})
	if err != nil {
		return "", err
	}
	defer handle.Close()

	sym, err := handle.GetSymbolPointer(symbol)
	if err != nil {
		return "", err
	}

	str := C.GoString((*C.char)(sym))
	return str, nil
}

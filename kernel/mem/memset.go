package mem

import (
	"reflect"
	"unsafe"
)

// Memset sets size bytes starting at addr to the supplied value. The
// implementation is based on bytes.Repeat; instead of looping byte by byte
// it performs log2(size) copy calls, which is considerably faster for the
// page-sized regions this function is normally called with.
func Memset(addr VirtAddr, value byte, size Size) {
	if size == 0 {
		return
	}

	target := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: addr.Pointer(),
	}))

	target[0] = value
	for index := Size(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

// Memcopy copies size bytes from src to dst. The regions must not overlap.
func Memcopy(src, dst VirtAddr, size Size) {
	if size == 0 {
		return
	}

	srcSlice := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: src.Pointer(),
	}))
	dstSlice := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: dst.Pointer(),
	}))

	copy(dstSlice, srcSlice)
}

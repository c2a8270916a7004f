package main

/*
#include <stdlib.h>
#include <stdint.h>
*/
import "C"

import (
	"unsafe"
)

//export RankSortOpen
func RankSortOpen() *C.char {
	return C.CString(openJSON())
}

//export RankSortU32
func RankSortU32(data *C.uint32_t, length C.int) *C.char {
	if length <= 0 {
		return C.CString(sortJSON([]uint32{}))
	}
	values := unsafe.Slice((*uint32)(unsafe.Pointer(data)), int(length))
	return C.CString(sortJSON(values))
}

//export RankSortI32
func RankSortI32(data *C.int32_t, length C.int) *C.char {
	if length <= 0 {
		return C.CString(sortJSON([]int32{}))
	}
	values := unsafe.Slice((*int32)(unsafe.Pointer(data)), int(length))
	return C.CString(sortJSON(values))
}

//export RankSortF32
func RankSortF32(data *C.float, length C.int) *C.char {
	if length <= 0 {
		return C.CString(sortJSON([]float32{}))
	}
	values := unsafe.Slice((*float32)(unsafe.Pointer(data)), int(length))
	return C.CString(sortJSON(values))
}

//export RankSortDevices
func RankSortDevices() *C.char {
	return C.CString(devicesJSON())
}

//export RankSortClose
func RankSortClose() {
	closeShared()
}

//export FreeRankSortString
func FreeRankSortString(str *C.char) {
	C.free(unsafe.Pointer(str))
}

func main() {}

package main

import "nanokernel/kernel/kmain"

// kernelStart, kernelEnd, initImagePA and initImageSize are overwritten by
// the linker/bootloader with the physical bounds of the loaded kernel image
// and the loaded init program's image before Kmain ever runs.
var (
	kernelStart, kernelEnd    uintptr
	initImagePA, initImageSize uintptr
)

// main makes a dummy call to the actual kernel main entrypoint function. It
// is intentionally defined to prevent the Go compiler from optimizing away the
// real kernel code.
//
// Global variables are passed as arguments to Kmain to prevent the compiler
// from inlining the actual call and removing Kmain from the generated .o file.
func main() {
	kmain.Kmain(kernelStart, kernelEnd, initImagePA, initImageSize)
}

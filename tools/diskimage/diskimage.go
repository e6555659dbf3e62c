// tools/diskimage assembles a flat boot disk image out of the compiled
// kernel ELF, a firmware memory-map blob, and an optional user-program
// image, laying each out at the fixed offsets the bootloader expects.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"nanokernel/kernel/hal/memmap"
	"nanokernel/kernel/mem"
)

// Fixed layout offsets within the assembled image. The kernel occupies the
// first sector range, the memory map blob follows at a 4 KiB boundary, and
// the user image (if any) follows after that, also 4 KiB aligned.
const (
	kernelOffset = 0x0
	memmapOffset = 0x1000
	userImageOffset = 0x100000
)

// showLayout prints the fixed physical/virtual addresses this image's
// contents are read through once booted, the host-side equivalent of the
// original bootloader's own disk-layout/address dump tool.
func showLayout() {
	fmt.Println("Disk image offsets:")
	fmt.Printf("  kernelOffset: %#x\n", kernelOffset)
	fmt.Printf("  memmapOffset: %#x\n", memmapOffset)
	fmt.Printf("  userImageOffset: %#x\n", userImageOffset)

	fmt.Println("Physical memory addresses:")
	fmt.Printf("  MemoryMapEntryCountPA: %#x\n", memmap.MemoryMapEntryCountPA)
	fmt.Printf("  MemoryMapPA: %#x\n", memmap.MemoryMapPA)

	fmt.Println("Virtual memory addresses:")
	fmt.Printf("  KernelSpaceVA: %#x\n", mem.KernelSpaceVA)
	fmt.Printf("  UserExecStartVA: %#x\n", mem.UserExecStartVA)
	fmt.Printf("  UserStackVA: %#x\n", mem.UserStackVA)
	fmt.Printf("  PageSize: %#x\n", mem.PageSize)
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[diskimage] error: %s\n", err.Error())
	os.Exit(1)
}

func copyFileAt(out *os.File, offset int64, path string) (int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if _, err = out.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		return 0, err
	}

	return n, nil
}

// writeMemoryMap encodes a single usable region covering [pa, pa+size) in
// the collaborator's fixed-offset wire format: a u32 count followed by
// packed {pa, size, type} records.
func writeMemoryMap(out *os.File, pa, size uint64) error {
	if _, err := out.Seek(memmapOffset, io.SeekStart); err != nil {
		return err
	}

	if err := binary.Write(out, binary.LittleEndian, uint32(1)); err != nil {
		return err
	}

	rec := struct {
		PA   uint64
		Size uint64
		Type uint32
	}{PA: pa, Size: size, Type: 1}

	return binary.Write(out, binary.LittleEndian, rec)
}

func main() {
	optKernel := getopt.StringLong("kernel", 'k', "", "Path to the compiled kernel ELF")
	optUserImage := getopt.StringLong("user-image", 'u', "", "Path to the user program image (optional)")
	optOut := getopt.StringLong("out", 'o', "disk.img", "Path to write the assembled disk image to")
	optMemPA := getopt.Uint64Long("mem-pa", 0, 0x200000, "Physical base address of the usable memory region")
	optMemSize := getopt.Uint64Long("mem-size", 0, 0x20000000, "Size in bytes of the usable memory region")
	optShowLayout := getopt.BoolLong("show-layout", 0, "Print the fixed disk/memory layout and exit")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	if *optShowLayout {
		showLayout()
		os.Exit(0)
	}

	if *optKernel == "" {
		exit(fmt.Errorf("--kernel is required"))
	}

	out, err := os.Create(*optOut)
	if err != nil {
		exit(err)
	}
	defer out.Close()

	kernelSize, err := copyFileAt(out, kernelOffset, *optKernel)
	if err != nil {
		exit(err)
	}

	if err = writeMemoryMap(out, *optMemPA, *optMemSize); err != nil {
		exit(err)
	}

	var userImageSize int64
	if *optUserImage != "" {
		userImageSize, err = copyFileAt(out, userImageOffset, *optUserImage)
		if err != nil {
			exit(err)
		}
	}

	fmt.Printf("[diskimage] wrote %s: kernel=%d bytes @0x%x, memmap @0x%x, user-image=%d bytes @0x%x\n",
		*optOut, kernelSize, kernelOffset, memmapOffset, userImageSize, userImageOffset)
}

// Package gdt builds the kernel's global descriptor table and task state
// segment: the ring-0 and ring-3 code/data segments a context switch selects
// between, and the per-task rsp0 the CPU loads on every ring-3-to-ring-0
// transition.
package gdt

import (
	"unsafe"

	"nanokernel/kernel/cpu"
)

// Selectors, fixed by the layout built in Init: entry 0 is the mandatory
// null descriptor, entry 1 the ring-0 code segment, entries 2 and 3 the
// ring-3 code and data segments, entries 4-5 the 16-byte TSS descriptor.
const (
	KernelCodeSelector = 1 << 3
	UserCodeSelector   = (2 << 3) | 3
	UserDataSelector   = (3 << 3) | 3

	tssSelector = 4 << 3
)

const (
	flagAccessed  = 1 << 40
	flagReadWrite = 1 << 41
	flagExecutable = 1 << 43
	flagNotSystem = 1 << 44
	flagPresent   = 1 << 47
	flagLongMode  = 1 << 53

	dplShift = 45
)

func codeDescriptor(dpl uint64) uint64 {
	return flagPresent | flagNotSystem | flagExecutable | flagReadWrite | flagAccessed | flagLongMode | (dpl << dplShift)
}

func dataDescriptor(dpl uint64) uint64 {
	return flagPresent | flagNotSystem | flagReadWrite | flagAccessed | (dpl << dplShift)
}

// taskStateSegment is the 64-bit TSS. The kernel only ever uses rsp0: the
// ring-0 stack the CPU loads on a ring-3-to-ring-0 transition (an interrupt
// or syscall trapping out of a running task). ist and the I/O permission
// bitmap are never populated.
type taskStateSegment struct {
	_         uint32
	rsp0      uint64
	rsp1      uint64
	rsp2      uint64
	_         uint64
	ist       [7]uint64
	_         uint64
	_         uint16
	ioMapBase uint16
}

var (
	tss   taskStateSegment
	table [7]uint64
)

type descriptorTablePointer struct {
	limit uint16
	base  uintptr
}

// loadGDTFn is mocked by tests and is automatically inlined by the compiler
// in the real build.
var loadGDTFn = cpu.LoadGDT

// Init builds the GDT (null, ring-0 code, ring-3 code, ring-3 data, TSS) and
// loads it, along with the TSS selector, into the CPU.
func Init() {
	table[0] = 0
	table[1] = codeDescriptor(0)
	table[2] = codeDescriptor(3)
	table[3] = dataDescriptor(3)
	installTSSDescriptor()

	desc := descriptorTablePointer{
		limit: uint16(unsafe.Sizeof(table)) - 1,
		base:  uintptr(unsafe.Pointer(&table[0])),
	}
	loadGDTFn(uintptr(unsafe.Pointer(&desc)), tssSelector)
}

func installTSSDescriptor() {
	base := uint64(uintptr(unsafe.Pointer(&tss)))
	limit := uint64(unsafe.Sizeof(tss)) - 1

	low := (limit & 0xffff) |
		((base & 0xffffff) << 16) |
		(uint64(0x89) << 40) | // present, DPL=0, type=0x9 (64-bit TSS available)
		(((limit >> 16) & 0xf) << 48) |
		(((base >> 24) & 0xff) << 56)
	high := base >> 32

	table[4] = low
	table[5] = high
}

// SetRSP0 sets the ring-0 stack pointer the CPU loads the next time a task
// traps out of ring 3. The scheduler calls this on every context switch
// because every task has its own kernel stack.
func SetRSP0(rsp uintptr) {
	tss.rsp0 = uint64(rsp)
}

package kmain

import (
	"nanokernel/kernel"
	"nanokernel/kernel/gdt"
	"nanokernel/kernel/hal"
	"nanokernel/kernel/irq"
	"nanokernel/kernel/mem"
	"nanokernel/kernel/mem/pmm"
	"nanokernel/kernel/mem/vmm"
	"nanokernel/kernel/proc"
	"nanokernel/kernel/syscall"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// bootIdentityMapExclusive is the size of the 1 GiB identity-mapped kernel
// window the bootloader already has in force when Kmain is entered; the
// physical-page freelist and every address space's kernel-half mapping are
// both bounded by it.
const bootIdentityMapExclusive = mem.PhysAddr(1 * mem.Gb)

// Kmain is the only Go symbol visible (exported) from the rt0 initialization
// code. It is invoked by the rt0 assembly code after setting up a minimal g0
// struct that allows Go code to run on the small stack the assembly
// allocated.
//
// The rt0 code passes the physical addresses bounding the loaded kernel
// image and the init program's own loaded image, both placed there ahead of
// time by the bootloader/linker.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the
// CPU.
//
//go:noinline
func Kmain(kernelStart, kernelEnd, initImagePA, initImageSize uintptr) {
	hal.InitTerminal()
	hal.ActiveTerminal.Clear()

	pmm.Init(mem.PhysAddr(kernelEnd), bootIdentityMapExclusive)
	vmm.SetMaxMappedPA(pmm.MaxPAExclusive())

	gdt.Init()
	irq.Init()
	irq.SetSchedulerHooks(wakeTimerWaiters, proc.Schedule)
	syscall.Init()

	images := []proc.Image{
		{PA: mem.PhysAddr(initImagePA), Size: mem.Size(initImageSize)},
	}

	if err := proc.StartInit(images); err != nil {
		kernel.Panic(err)
	}

	// Use kernel.Panic instead of panic to prevent the compiler from
	// treating kernel.Panic as dead-code and eliminating it.
	kernel.Panic(errKmainReturned)
}

func wakeTimerWaiters() {
	proc.Wake(proc.TimerWait)
}

// Package vmm implements the kernel's paging engine: it builds, mutates and
// tears down 3-level (PML4 -> PDPT -> PD) page tables that map 2 MiB leaves,
// and drives the MMU register that switches the active address space.
//
// All intermediate page-table pages are dereferenced through the kernel's
// identity window rather than a recursive self-mapping, so the engine can
// build, edit and tear down any address space, whether or not it is the
// active one.
package vmm

import (
	"nanokernel/kernel"
	"nanokernel/kernel/cpu"
	"nanokernel/kernel/mem"
	"nanokernel/kernel/mem/pmm"
)

var (
	// allocPageFn is used by tests to override page allocation so that
	// the unit tests can exercise out-of-memory paths deterministically.
	allocPageFn = pmm.AllocatePage

	// freePageFn is used by tests for the same reason.
	freePageFn = pmm.FreePage

	// switchAddressSpaceFn lets tests observe or stub the MMU root
	// register write without actually faulting in user-mode.
	switchAddressSpaceFn = cpu.SwitchAddressSpace

	errRangeExceedsMappedWindow = &kernel.Error{Module: "vmm", Message: "requested range exceeds the maximum mapped physical address"}
	errRangeEmpty               = &kernel.Error{Module: "vmm", Message: "requested range is empty"}
	errOutOfMemory              = &kernel.Error{Module: "vmm", Message: "out of physical memory while building page tables"}
)

// maxMappedPAExclusive is the supremum of physical RAM the kernel identity
// window maps; set once, early in boot, by SetMaxMappedPA.
var maxMappedPAExclusive mem.PhysAddr

// SetMaxMappedPA records the supremum of physical RAM known to the system.
// map_range rejects any request that would reach past it.
func SetMaxMappedPA(pa mem.PhysAddr) {
	maxMappedPAExclusive = pa
}

// alignRangeOut widens [vaStart, vaEnd) outward to 2 MiB boundaries.
func alignRangeOut(vaStart, vaEnd mem.VirtAddr) (mem.VirtAddr, mem.VirtAddr) {
	return vaStart.AlignDown(), vaEnd.AlignUp()
}

// SwitchAddressSpace installs root as the active address space root,
// flushing the TLB.
func SwitchAddressSpace(root mem.PhysAddr) {
	switchAddressSpaceFn(uintptr(root))
}

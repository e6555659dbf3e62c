// Package pmm implements the kernel's physical page allocator: a freelist of
// 2 MiB pages threaded through the pages themselves. Free pages carry their
// own link and a signature in their first 16 bytes, dereferenced through the
// kernel's identity-mapped window; no separate bookkeeping structure exists.
package pmm

import (
	"unsafe"

	"nanokernel/kernel"
	"nanokernel/kernel/hal/memmap"
	"nanokernel/kernel/kfmt/early"
	"nanokernel/kernel/mem"
)

// Signature is the magic value stored alongside the next-free-page link at
// the start of every page on the freelist.
const Signature = mem.FreePageSignature

var (
	errCheckBadAlignment = &kernel.Error{Module: "pmm", Message: "freelist node is not 2MiB-aligned"}
	errCheckBadSignature = &kernel.Error{Module: "pmm", Message: "freelist node is missing its signature"}
	errCheckBadCount     = &kernel.Error{Module: "pmm", Message: "freelist traversal count does not match num_free"}
)

// freeListNode is the layout free pmm stores in the first 16 bytes of every
// free page, dereferenced through the kernel identity window.
type freeListNode struct {
	next      mem.PhysAddr
	signature uint64
}

var (
	head           mem.PhysAddr
	numFree        uint64
	maxFreeEver    uint64
	maxPAExclusive mem.PhysAddr
)

// nodeAt returns a pointer to the freelist node stored at the start of the
// physical page pa, dereferenced through the kernel identity window.
func nodeAt(pa mem.PhysAddr) *freeListNode {
	return (*freeListNode)(unsafe.Pointer(pa.KernelVA().Pointer()))
}

// FreePage returns the page at pa to the freelist. It is a no-op for pa==0;
// physical address 0 is reserved as the "no page" sentinel and is never
// tracked.
func FreePage(pa mem.PhysAddr) {
	if pa == 0 {
		return
	}

	node := nodeAt(pa)
	node.next = head
	node.signature = Signature

	head = pa
	numFree++
	if numFree > maxFreeEver {
		maxFreeEver = numFree
	}
	if end := pa + mem.PhysAddr(mem.PageSize); end > maxPAExclusive {
		maxPAExclusive = end
	}
}

// AllocatePage removes and returns a page from the freelist, zeroing it
// before returning it to the caller. It returns pa==0 if no pages remain.
func AllocatePage() mem.PhysAddr {
	if head == 0 || numFree == 0 {
		return 0
	}

	pa := head
	node := nodeAt(pa)
	head = node.next
	numFree--

	mem.Memset(pa.KernelVA(), 0, mem.PageSize)

	return pa
}

// NumFree returns the current number of pages on the freelist.
func NumFree() uint64 {
	return numFree
}

// MaxFreeEver returns the high-water mark of NumFree observed since boot.
func MaxFreeEver() uint64 {
	return maxFreeEver
}

// MaxPAExclusive returns the supremum of every physical address ever freed:
// the exclusive upper bound of physical RAM the kernel has been told about.
// create_kernel_address_space uses this to size each address space's copy
// of the kernel's identity window.
func MaxPAExclusive() mem.PhysAddr {
	return maxPAExclusive
}

// Check walks the freelist from head, asserting alignment and signature on
// every node, and verifies that the traversal count matches numFree. It is a
// debug consistency probe and performs no mutation.
func Check() *kernel.Error {
	var count uint64

	for pa := head; pa != 0; {
		if !pa.Valid() {
			return errCheckBadAlignment
		}

		node := nodeAt(pa)
		if node.signature != Signature {
			return errCheckBadSignature
		}

		count++
		pa = node.next
	}

	if count != numFree {
		return errCheckBadCount
	}

	return nil
}

// Init scans the firmware-supplied memory map via InitFromMemoryMap, then
// runs Check() once against the freshly built freelist. A memory map that
// produces an inconsistent freelist (misaligned node, missing signature, a
// traversal count that disagrees with numFree) is a boot-time
// misconfiguration the kernel cannot recover from, so Init panics rather
// than letting the corruption surface later at the first allocation.
func Init(kernelImageEnd, maxMappedVAExcl mem.PhysAddr) {
	InitFromMemoryMap(kernelImageEnd, maxMappedVAExcl)

	if err := Check(); err != nil {
		kernel.Panic(err)
	}
}

// InitFromMemoryMap scans the firmware-supplied memory map and frees every
// 2 MiB-aligned page that falls strictly within [kernelImageEnd,
// maxMappedVAExcl) and is marked usable. Pages overlapping or below the
// loaded kernel image are excluded; a page straddling the valid window is
// dropped rather than partially freed.
func InitFromMemoryMap(kernelImageEnd, maxMappedVAExcl mem.PhysAddr) {
	var totalFreed uint64

	memmap.VisitRegions(func(e memmap.Entry) bool {
		if !e.Usable() {
			return true
		}

		regionStart := e.PhysAddress
		regionEnd := e.PhysAddress + mem.PhysAddr(e.Length)

		start := regionStart
		if start < kernelImageEnd {
			start = kernelImageEnd
		}
		start = start.AlignUp()

		for pa := start; pa+mem.PhysAddr(mem.PageSize) <= regionEnd && pa+mem.PhysAddr(mem.PageSize) <= maxMappedVAExcl; pa += mem.PhysAddr(mem.PageSize) {
			FreePage(pa)
			totalFreed++
		}

		return true
	})

	early.Printf("[pmm] freed %d pages (%d KB) from the system memory map\n", totalFreed, (totalFreed*uint64(mem.PageSize))/uint64(mem.Kb))
}

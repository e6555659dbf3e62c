package mem

// PhysAddr is a physical memory address. It is a distinct type from VirtAddr
// so that the two cannot be added, compared or passed to the wrong API by
// accident — a mistake that is otherwise easy to make when both are backed
// by the same uintptr width.
type PhysAddr uintptr

// Valid reports whether pa is a non-zero, page-aligned physical address.
// Address 0 is reserved as the "no page"/"no mapping" sentinel throughout
// the kernel (see pmm.FreePage).
func (pa PhysAddr) Valid() bool {
	return pa != 0 && pa&PhysAddr(PageSize-1) == 0
}

// KernelVA returns the virtual address through which the kernel dereferences
// this physical address. Every address space maps the kernel's identity
// window so this conversion is valid regardless of which address space is
// currently active.
func (pa PhysAddr) KernelVA() VirtAddr {
	return VirtAddr(pa) + KernelSpaceVA
}

// AlignUp rounds pa up to the nearest PageSize boundary.
func (pa PhysAddr) AlignUp() PhysAddr {
	return PhysAddr((uint64(pa) + uint64(PageSize) - 1) &^ (uint64(PageSize) - 1))
}

// VirtAddr is a virtual memory address.
type VirtAddr uintptr

// Pointer reinterprets a virtual address as a raw pointer for use with the
// unsafe package. All callers of Pointer are expected to already hold
// evidence that v is backed by a present mapping.
func (v VirtAddr) Pointer() uintptr {
	return uintptr(v)
}

// PML4Index returns the index of the PML4 entry that maps v.
func (v VirtAddr) PML4Index() uint64 {
	return (uint64(v) >> 39) & 0x1ff
}

// PDPTIndex returns the index of the PDPT entry that maps v.
func (v VirtAddr) PDPTIndex() uint64 {
	return (uint64(v) >> 30) & 0x1ff
}

// PDIndex returns the index of the PD (leaf) entry that maps v.
func (v VirtAddr) PDIndex() uint64 {
	return (uint64(v) >> 21) & 0x1ff
}

// PageOffset returns the offset of v within its containing 2MiB page.
func (v VirtAddr) PageOffset() uint64 {
	return uint64(v) & 0x1fffff
}

// AlignDown rounds v down to the nearest PageSize boundary.
func (v VirtAddr) AlignDown() VirtAddr {
	return VirtAddr(uint64(v) &^ (uint64(PageSize) - 1))
}

// AlignUp rounds v up to the nearest PageSize boundary.
func (v VirtAddr) AlignUp() VirtAddr {
	return VirtAddr((uint64(v) + uint64(PageSize) - 1) &^ (uint64(PageSize) - 1))
}

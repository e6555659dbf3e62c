// Package memmap decodes the firmware-supplied physical memory map that the
// bootloader leaves behind before handing control to the kernel.
//
// Unlike a multiboot-tag memory map, this collaborator's layout is a flat,
// fixed-offset table: a u32 entry count at MemoryMapEntryCountPA, followed
// immediately by that many packed {pa, size, type} records at MemoryMapPA.
package memmap

import (
	"unsafe"

	"nanokernel/kernel/mem"
)

const (
	// MemoryMapEntryCountPA is the fixed physical address at which the
	// bootloader leaves a u32 holding the number of entries that follow.
	MemoryMapEntryCountPA = mem.PhysAddr(0x1000)

	// MemoryMapPA is the fixed physical address of the first packed
	// memory map entry.
	MemoryMapPA = mem.PhysAddr(0x1004)
)

// EntryType describes the usability of a memory region.
type EntryType uint32

const (
	// Usable indicates a memory region that may be freed for kernel use.
	Usable EntryType = 1
)

// entrySize is the packed wire size of a single memory map record: two u64
// fields plus a u32, 20 bytes with no padding. unsafe.Sizeof on an
// equivalent Go struct would report 24 (trailing padding to the struct's
// 8-byte alignment), so each field is read individually at this stride
// instead of overlaying a struct onto the raw bytes.
const entrySize = 8 + 8 + 4

// Entry is the decoded, exported form of a single memory map record.
type Entry struct {
	PhysAddress mem.PhysAddr
	Length      mem.Size
	Type        EntryType
}

// Usable reports whether this region is available for the physical frame
// allocator to claim.
func (e Entry) Usable() bool {
	return e.Type == Usable
}

// Visitor is invoked once per memory map entry. Returning false aborts the
// scan early.
type Visitor func(Entry) bool

// VisitRegions reads the entry count at MemoryMapEntryCountPA (via the
// kernel identity window) and invokes visitor once for every entry that
// follows at MemoryMapPA.
func VisitRegions(visitor Visitor) {
	countPtr := (*uint32)(unsafe.Pointer(MemoryMapEntryCountPA.KernelVA().Pointer()))
	count := *countPtr

	base := MemoryMapPA.KernelVA().Pointer()

	for i := uint32(0); i < count; i++ {
		recordBase := base + uintptr(i)*entrySize
		e := Entry{
			PhysAddress: mem.PhysAddr(*(*uint64)(unsafe.Pointer(recordBase))),
			Length:      mem.Size(*(*uint64)(unsafe.Pointer(recordBase + 8))),
			Type:        EntryType(*(*uint32)(unsafe.Pointer(recordBase + 16))),
		}
		if !visitor(e) {
			return
		}
	}
}

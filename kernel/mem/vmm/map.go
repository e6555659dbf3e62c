package vmm

import (
	"nanokernel/kernel"
	"nanokernel/kernel/mem"
)

// MapRange maps the physical range [paStart, paStart+len) to the virtual
// range [vaStart, vaEnd) inside the address space rooted at root, widening
// the virtual range outward to 2 MiB boundaries first.
//
// For every 2 MiB step it walks (allocating on demand) the PML4 and PDPT
// entries, then writes the PD leaf unconditionally. A child-allocation
// failure leaves the partial tree in place; the caller is responsible for
// tearing it down via FreeTree.
func MapRange(root mem.PhysAddr, vaStart, vaEnd mem.VirtAddr, paStart mem.PhysAddr, attrs PageTableEntryFlag) *kernel.Error {
	vaStart, vaEnd = alignRangeOut(vaStart, vaEnd)

	if vaStart >= vaEnd {
		return errRangeEmpty
	}
	if mem.PhysAddr(vaEnd-vaStart)+paStart > maxMappedPAExclusive {
		return errRangeExceedsMappedWindow
	}

	paCursor := paStart
	for va := vaStart; va < vaEnd; va += mem.VirtAddr(mem.PageSize) {
		pml4 := tableAt(root)
		pdptPA, err := ensureChildTable(&pml4.entries[va.PML4Index()], attrs)
		if err != nil {
			return err
		}

		pdpt := tableAt(pdptPA)
		pdPA, err := ensureChildTable(&pdpt.entries[va.PDPTIndex()], attrs)
		if err != nil {
			return err
		}

		pd := tableAt(pdPA)
		leaf := &pd.entries[va.PDIndex()]
		*leaf = 0
		leaf.SetAddress(paCursor)
		leaf.SetFlags(FlagPresent | FlagPS | attrs)

		paCursor += mem.PhysAddr(mem.PageSize)
	}

	return nil
}

// ensureChildTable returns the physical address of the child table pointed
// to by entry, allocating and zeroing a fresh one if entry is not yet
// present. A freshly allocated entry is stamped with attrs (the same
// permission bits the eventual leaf will carry) in addition to
// FlagPresent: the CPU ANDs the permission bits across every level of the
// walk, so a leaf-only User/RW bit is not enough to let ring 3 reach it.
func ensureChildTable(entry *pageTableEntry, attrs PageTableEntryFlag) (mem.PhysAddr, *kernel.Error) {
	if entry.HasFlags(FlagPresent) {
		return entry.Address(), nil
	}

	childPA := allocPageFn()
	if childPA == 0 {
		return 0, errOutOfMemory
	}

	*entry = 0
	entry.SetAddress(childPA)
	entry.SetFlags(FlagPresent | attrs)

	return childPA, nil
}

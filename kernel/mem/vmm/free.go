package vmm

import "nanokernel/kernel/mem"

// FreeUserDataRange walks the present PML4/PDPT/PD entries of the address
// space rooted at root and, for every leaf whose entry has both Present and
// User set, frees the referenced 2 MiB frame and clears the entry.
//
// The Present+User check (rather than Present alone) exists because kernel
// leaves map identity RAM with Present set but User clear, and must never be
// freed as if they were process data.
func FreeUserDataRange(root mem.PhysAddr, vaStart, vaEnd mem.VirtAddr) {
	vaStart, vaEnd = alignRangeOut(vaStart, vaEnd)

	pml4 := tableAt(root)
	for va := vaStart; va < vaEnd; va += mem.VirtAddr(mem.PageSize) {
		pml4e := &pml4.entries[va.PML4Index()]
		if !pml4e.HasFlags(FlagPresent) {
			continue
		}

		pdpt := tableAt(pml4e.Address())
		pdpte := &pdpt.entries[va.PDPTIndex()]
		if !pdpte.HasFlags(FlagPresent) {
			continue
		}

		pd := tableAt(pdpte.Address())
		leaf := &pd.entries[va.PDIndex()]
		if leaf.HasFlags(FlagPresent) && leaf.HasFlags(FlagUser) {
			freePageFn(leaf.Address())
			*leaf = 0
		}
	}
}

// FreeTree releases every page-table page of the address space rooted at
// root, assuming any user data pages have already been released via
// FreeUserDataRange. Leaf PD entries are never individually freed here:
// they either pointed at already-released user data, or at identity-mapped
// kernel RAM that this engine never owns.
func FreeTree(root mem.PhysAddr) {
	pml4 := tableAt(root)

	for i := range pml4.entries {
		pml4e := &pml4.entries[i]
		if !pml4e.HasFlags(FlagPresent) {
			continue
		}

		pdpt := tableAt(pml4e.Address())
		for j := range pdpt.entries {
			pdpte := &pdpt.entries[j]
			if !pdpte.HasFlags(FlagPresent) {
				continue
			}

			freePageFn(pdpte.Address())
		}

		freePageFn(pml4e.Address())
	}

	freePageFn(root)
}

package vmm

import "nanokernel/kernel/mem"

// CreateKernelAddressSpace allocates a fresh PML4 and maps
// [KernelSpaceVA, KernelSpaceVA+maxMappedPAExclusive) to physical
// [0, maxMappedPAExclusive) with kernel-only R/W permissions. It returns 0
// on partial failure, having already torn down whatever it built.
//
// Every address space owns an independent copy of the kernel map so that a
// process's address-space lifecycle is entirely self-contained: tearing one
// down never disturbs another process or the kernel's own view of memory.
func CreateKernelAddressSpace() mem.PhysAddr {
	root := allocPageFn()
	if root == 0 {
		return 0
	}

	vaStart := mem.KernelSpaceVA
	vaEnd := mem.KernelSpaceVA + mem.VirtAddr(maxMappedPAExclusive)

	if err := MapRange(root, vaStart, vaEnd, 0, FlagRW); err != nil {
		FreeTree(root)
		return 0
	}

	return root
}

// CreateUserAddressSpace builds a fresh kernel address space, then maps a
// user image and its stack on top of it. The image at imageSrcVA is copied
// PAGE_SIZE bytes at a time into freshly allocated physical pages mapped at
// UserExecStartVA; one further page is allocated and mapped as the user
// stack at [UserStackVA-PageSize, UserStackVA). On any failure the image and
// stack data already mapped are released via FreeUserDataRange, the tree is
// torn down via FreeTree, and 0 is returned.
func CreateUserAddressSpace(imageSrcVA mem.VirtAddr, imageSize mem.Size) mem.PhysAddr {
	root := CreateKernelAddressSpace()
	if root == 0 {
		return 0
	}

	imageVAEnd := mem.UserExecStartVA + mem.VirtAddr(imageSize)

	if !mapImage(root, imageSrcVA, imageSize) {
		FreeUserDataRange(root, mem.UserExecStartVA, imageVAEnd)
		FreeTree(root)
		return 0
	}

	stackVAStart := mem.UserStackVA - mem.VirtAddr(mem.PageSize)
	if !mapUserStack(root, stackVAStart) {
		FreeUserDataRange(root, mem.UserExecStartVA, imageVAEnd)
		FreeUserDataRange(root, stackVAStart, mem.UserStackVA)
		FreeTree(root)
		return 0
	}

	return root
}

// mapImage copies imageSize bytes from imageSrcVA into freshly allocated
// physical pages, PAGE_SIZE bytes at a time, and maps each one at
// UserExecStartVA+offset with R/W|User.
func mapImage(root mem.PhysAddr, imageSrcVA mem.VirtAddr, imageSize mem.Size) bool {
	remaining := imageSize
	srcCursor := imageSrcVA
	offset := mem.VirtAddr(0)

	for remaining > 0 {
		pa := allocPageFn()
		if pa == 0 {
			return false
		}

		chunk := mem.PageSize
		if remaining < chunk {
			chunk = remaining
		}

		mem.Memcopy(srcCursor, pa.KernelVA(), chunk)

		dstVA := mem.UserExecStartVA + offset
		if err := MapRange(root, dstVA, dstVA+mem.VirtAddr(mem.PageSize), pa, FlagRW|FlagUser); err != nil {
			freePageFn(pa)
			return false
		}

		remaining -= chunk
		srcCursor += mem.VirtAddr(chunk)
		offset += mem.VirtAddr(mem.PageSize)
	}

	return true
}

// mapUserStack allocates and maps the single stack page starting at
// stackVAStart with R/W|User.
func mapUserStack(root mem.PhysAddr, stackVAStart mem.VirtAddr) bool {
	pa := allocPageFn()
	if pa == 0 {
		return false
	}

	if err := MapRange(root, stackVAStart, stackVAStart+mem.VirtAddr(mem.PageSize), pa, FlagRW|FlagUser); err != nil {
		freePageFn(pa)
		return false
	}

	return true
}

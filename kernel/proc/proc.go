package proc

import (
	"nanokernel/kernel"
	"nanokernel/kernel/cpu"
	"nanokernel/kernel/gdt"
	"nanokernel/kernel/mem"
	"nanokernel/kernel/mem/pmm"
	"nanokernel/kernel/mem/vmm"
)

var (
	// the following functions are mocked by tests and are automatically
	// inlined by the compiler.
	allocPageFn              = pmm.AllocatePage
	freePageFn               = pmm.FreePage
	createUserAddressSpaceFn = vmm.CreateUserAddressSpace
	switchAddressSpaceFn     = vmm.SwitchAddressSpace
	setRSP0Fn                = gdt.SetRSP0
	switchProcessFn          = cpu.SwitchProcess
	enterProcessFn           = cpu.EnterProcess
	interruptReturnAddrFn    = cpu.InterruptReturnAddr
)

var (
	errNoFreeSlot       = &kernel.Error{Module: "proc", Message: "no unused process slot available"}
	errStackAllocFailed = &kernel.Error{Module: "proc", Message: "failed to allocate a kernel stack page"}
	errAddressSpace     = &kernel.Error{Module: "proc", Message: "failed to build the process address space"}
)

// Prepare loads a new task from the physical image [imagePA, imagePA+imageSize):
// it claims the first Unused PCB slot, allocates a one-page kernel stack,
// builds a user address space mapping the image and its stack, lays down
// the task's initial trap frame and switch frame, and appends the new PCB
// to the ready list.
func Prepare(imagePA mem.PhysAddr, imageSize mem.Size) *kernel.Error {
	slot := findUnusedSlot()
	if slot == listEnd {
		return errNoFreeSlot
	}

	stackPA := allocPageFn()
	if stackPA == 0 {
		return errStackAllocFailed
	}
	stackVA := stackPA.KernelVA()

	root := createUserAddressSpaceFn(imagePA.KernelVA(), imageSize)
	if root == 0 {
		freePageFn(stackPA)
		return errAddressSpace
	}

	trapFrameVA, savedRSP := buildInitialFrames(stackVA + mem.VirtAddr(mem.PageSize))

	p := &procs[slot]
	p.state = Ready
	p.ppid = KernelPID
	p.generation += MaxProcesses
	if p.generation < MaxProcesses {
		// wrapped past the top of uint32; restart at the first generation
		// so the pid never comes out as the bare slot index.
		p.generation = MaxProcesses
	}
	p.pid = uint32(slot) + p.generation
	p.addressSpaceRootPA = root
	p.kernelStackBaseVA = stackVA
	p.savedTrapFrameVA = trapFrameVA
	p.savedRSP = savedRSP.Pointer()
	p.waitReason = noWaitReason
	p.readyNext = listEnd
	p.waitNext = listEnd

	pushReadyTail(slot)

	return nil
}

// StartInit resets all scheduler state, prepares each of the supplied
// built-in images, then enters the first ready task. It returns only with an
// error, when an image cannot be prepared or no task is ready; otherwise it
// never returns.
func StartInit(images []Image) *kernel.Error {
	reset()

	for _, img := range images {
		if err := Prepare(img.PA, img.Size); err != nil {
			return err
		}
	}

	if readyHead == listEnd {
		return errNoFreeSlot
	}

	first := popReadyHead()
	p := &procs[first]
	p.state = Running
	currentIndex = first

	setRSP0Fn(p.kernelStackBaseVA.Pointer() + uintptr(mem.PageSize))
	switchAddressSpaceFn(p.addressSpaceRootPA)
	enterProcessFn(p.savedTrapFrameVA.Pointer())

	return nil // never reached; enterProcessFn does not return
}

// Image identifies a built-in user program's physical location, as loaded
// by the bootloader before the kernel ever runs.
type Image struct {
	PA   mem.PhysAddr
	Size mem.Size
}

// Schedule performs one round-robin rotation: if no task is Ready it
// returns immediately, leaving the current task running uninterrupted
// (there is no idle task). Otherwise the currently running task (if it is
// still Running, i.e. this is a preemption rather than a voluntary Sleep)
// is requeued at the ready tail, the task at the ready head becomes
// current, and control is handed to it via a kernel-stack swap.
func Schedule() {
	if readyHead == listEnd {
		return
	}

	old := currentIndex
	if old != listEnd && procs[old].state == Running {
		procs[old].state = Ready
		pushReadyTail(old)
	}

	next := popReadyHead()
	procs[next].state = Running
	currentIndex = next

	setRSP0Fn(procs[next].kernelStackBaseVA.Pointer() + uintptr(mem.PageSize))
	switchAddressSpaceFn(procs[next].addressSpaceRootPA)

	var oldRSP *uintptr
	if old != listEnd {
		oldRSP = &procs[old].savedRSP
	} else {
		var discard uintptr
		oldRSP = &discard
	}
	switchProcessFn(oldRSP, &procs[next].savedRSP)
}

// Sleep marks the running task Sleeping with the given wait reason,
// prepends it onto the wait list, and reschedules. It returns only once a
// matching Wake has moved the task back onto the ready list and the
// scheduler has rotated back to it.
func Sleep(reason int64) {
	cur := currentIndex
	procs[cur].state = Sleeping
	procs[cur].waitReason = reason
	pushWaitHead(cur)

	Schedule()
}

// Wake moves every Sleeping task whose wait reason equals reason onto the
// ready list (prepended, most-recently-woken first) and clears its wait
// reason. All matches in one pass are handled correctly even when they
// occur consecutively in the wait list.
func Wake(reason int64) {
	prev := int32(listEnd)
	cur := waitHead

	for cur != listEnd {
		next := procs[cur].waitNext

		if procs[cur].waitReason == reason {
			if prev == listEnd {
				waitHead = next
			} else {
				procs[prev].waitNext = next
			}

			procs[cur].waitReason = noWaitReason
			procs[cur].state = Ready
			pushReadyHead(cur)
		} else {
			prev = cur
		}

		cur = next
	}
}

package proc

import (
	"unsafe"

	"nanokernel/kernel/gdt"
	"nanokernel/kernel/irq"
	"nanokernel/kernel/mem"
)

// initialRFlags has the interrupt flag (bit 9) and the reserved, always-one
// bit 1 set. Every task's first trap frame carries this so that its first
// iretq both re-enables interrupts and satisfies the CPU's reserved-bit
// check.
const initialRFlags = 0x202

// switchFrame is the synthetic frame prepare lays down just below a task's
// trap frame. It holds nothing a task ever reads back: savedRSP points at
// it purely so that the first call to cpu.SwitchProcess pops a return
// address of interruptReturnAddrFn() and falls straight into the normal
// iretq path, instead of returning to an ordinary Go call site. Every
// subsequent switch into this task resumes at whatever instruction
// SwitchProcess was called from, the same as any other context switch.
type switchFrame struct {
	r15, r14, r13, r12 uint64
	rbx, rbp           uint64
	returnRIP          uint64
}

// buildInitialFrames lays out the trap frame and switch frame at the top of
// the task's kernel stack. It returns the trap frame's address (the
// argument enter_process expects) and the switch frame's address (the
// saved_rsp prepare should store).
func buildInitialFrames(stackTopVA mem.VirtAddr) (trapFrameVA, savedRSP mem.VirtAddr) {
	trapFrameVA = stackTopVA - mem.VirtAddr(unsafe.Sizeof(irq.TrapFrame{}))
	tf := (*irq.TrapFrame)(unsafe.Pointer(trapFrameVA.Pointer()))
	*tf = irq.TrapFrame{}
	tf.RIP = uint64(mem.UserExecStartVA)
	tf.CS = gdt.UserCodeSelector
	tf.RFlags = initialRFlags
	tf.RSP = uint64(mem.UserStackVA)
	tf.SS = gdt.UserDataSelector

	switchFrameVA := trapFrameVA - mem.VirtAddr(unsafe.Sizeof(switchFrame{}))
	sf := (*switchFrame)(unsafe.Pointer(switchFrameVA.Pointer()))
	*sf = switchFrame{returnRIP: uint64(interruptReturnAddrFn())}

	return trapFrameVA, switchFrameVA
}

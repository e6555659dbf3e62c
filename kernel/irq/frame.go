// Package irq installs the interrupt descriptor table and dispatches CPU
// exceptions, the legacy 8259 timer/IRQ lines, and the software-interrupt
// syscall gate to their registered handlers.
package irq

import "nanokernel/kernel/kfmt/early"

// SoftwareInt is the vector used for the syscall gate (int 0x80).
const SoftwareInt = 0x80

// TimerVector is the vector the PIT/PIC wires to the timer IRQ.
const TimerVector = 32

// SpuriousVector is the vector the PIC wires to its spurious-IRQ7 line.
const SpuriousVector = 39

// Regs is the block of general-purpose registers the low-level trampolines
// save, in the canonical order r15...rax.
type Regs struct {
	R15, R14, R13, R12, R11, R10, R9, R8 uint64
	RBP, RDI, RSI, RDX, RCX, RBX, RAX    uint64
}

// Print dumps the register contents via the early, allocation-free printer.
func (r *Regs) Print() {
	early.Printf("RAX = %16x RBX = %16x\n", r.RAX, r.RBX)
	early.Printf("RCX = %16x RDX = %16x\n", r.RCX, r.RDX)
	early.Printf("RSI = %16x RDI = %16x\n", r.RSI, r.RDI)
	early.Printf("RBP = %16x\n", r.RBP)
	early.Printf("R8  = %16x R9  = %16x\n", r.R8, r.R9)
	early.Printf("R10 = %16x R11 = %16x\n", r.R10, r.R11)
	early.Printf("R12 = %16x R13 = %16x\n", r.R12, r.R13)
	early.Printf("R14 = %16x R15 = %16x\n", r.R14, r.R15)
}

// Frame is the hardware-pushed portion of the trap frame: present for every
// vector (trampolines push a dummy error_code for the vectors that don't
// supply one), followed by the CPU's own iretq frame.
type Frame struct {
	Vector    uint64
	ErrorCode uint64
	RIP       uint64
	CS        uint64
	RFlags    uint64
	RSP       uint64
	SS        uint64
}

// Print dumps the hardware frame via the early printer.
func (f *Frame) Print() {
	early.Printf("VEC = %16x ERR = %16x\n", f.Vector, f.ErrorCode)
	early.Printf("RIP = %16x CS  = %16x\n", f.RIP, f.CS)
	early.Printf("RSP = %16x SS  = %16x\n", f.RSP, f.SS)
	early.Printf("RFL = %16x\n", f.RFlags)
}

// TrapFrame is the complete saved-state structure a low-level trampoline
// builds before calling the common dispatch handler: Regs first (pushed
// last, so lowest address), then Frame. A handler may mutate RAX in Regs to
// set a syscall return value; the change is visible to the task on iretq.
type TrapFrame struct {
	Regs
	Frame
}

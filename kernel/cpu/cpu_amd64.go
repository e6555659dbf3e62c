package cpu

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt stops instruction execution.
func Halt()

// FlushTLBEntry flushes a TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT sets the root page table directory to point to the specified
// physical address and flushes the TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active page table.
func ActivePDT() uintptr

// SwitchAddressSpace writes the MMU address-space-root register so that
// root becomes the active PML4, causing a full TLB flush.
func SwitchAddressSpace(root uintptr)

// ReadCR2 returns the faulting address recorded by the last page fault.
func ReadCR2() uintptr

// LoadIDT loads the interrupt descriptor table pointed to by descAddr into
// the CPU's IDTR.
func LoadIDT(descAddr uintptr)

// IsSpuriousInterrupt probes the PIC's in-service register and reports
// whether the currently dispatched IRQ7/IRQ15 is spurious.
func IsSpuriousInterrupt() bool

// AcknowledgeInterrupt sends the end-of-interrupt command to the PIC.
func AcknowledgeInterrupt()

// RemapPIC reprograms the master/slave 8259 PICs so that IRQs 0-15 are
// delivered on vectors 32-47 instead of their legacy 8-15 range, which
// would otherwise collide with the CPU exception vectors.
func RemapPIC()

// SwitchProcess saves the current ring-0 stack pointer to *oldRSP, loads
// *newRSP into the stack pointer, and returns into whatever the new stack
// was set up to return into. Used by the scheduler to transfer control
// between kernel stacks.
func SwitchProcess(oldRSP, newRSP *uintptr)

// EnterProcess loads trapFrameVA as the current stack pointer and executes
// iretq, transferring control to the ring-3 task described by the trap
// frame. It never returns.
func EnterProcess(trapFrameVA uintptr)

// LoadGDT loads the global descriptor table pointed to by descAddr into the
// CPU's GDTR, reloads the segment registers from it, and loads tssSelector
// into the task register via ltr.
func LoadGDT(descAddr uintptr, tssSelector uint16)

// InterruptReturnAddr returns the entry address of the interrupt_return
// trampoline: the tail of every vector trampoline that pops the saved
// registers and the hardware frame, then executes iretq. A process's switch
// frame uses this as its return address so that the first stack swap into a
// freshly prepared task lands here instead of at an ordinary call site.
func InterruptReturnAddr() uintptr

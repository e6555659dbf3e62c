package irq

import (
	"unsafe"

	"nanokernel/kernel/cpu"
)

// gateCount is the number of IDT entries.
const gateCount = 256

// exceptionVectors are the CPU exception vectors this kernel installs
// interrupt gates for: 0-8, 10-14, 16-19.
var exceptionVectors = [...]uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 11, 12, 13, 14, 16, 17, 18, 19}

// idtDescriptor is the CPU-facing {limit, base} pair loaded into IDTR by
// cpu.LoadIDT.
type idtDescriptor struct {
	limit uint16
	base  uintptr
}

// idt is the 256-entry interrupt descriptor table. Its storage layout is
// architecture-defined and populated by the assembly half of Init; the Go
// side only ever references it via idtDescriptor.
var idt [gateCount]idtGate

// idtGate is a single 16-byte IDT gate descriptor (interrupt-gate, long
// mode). The exact bit layout is established by installGate.
type idtGate struct {
	lo uint64
	hi uint64
}

// vectorTrampoline returns the entry-point address of the low-level
// trampoline installed for vector. Trampolines for vectors outside
// {0-19, 32, 39, SoftwareInt} are not installed; those gates remain absent.
func vectorTrampoline(vector uint8) uintptr

// installGate writes an interrupt-gate IDT entry for vector that targets
// handlerAddr, with dpl as its descriptor privilege level (0 for every gate
// except SoftwareInt, which must be callable from ring 3).
func installGate(vector uint8, handlerAddr uintptr, dpl uint8)

// Init builds the IDT: interrupt gates for the CPU exception vectors, the
// timer (32) and spurious-IRQ7 (39) vectors at DPL 0, and the syscall gate
// at DPL 3, then loads it via cpu.LoadIDT. All gates clear the interrupt
// flag on entry; ring 0 always runs with interrupts disabled.
func Init() {
	for _, v := range exceptionVectors {
		installGate(v, vectorTrampoline(v), 0)
	}
	installGate(TimerVector, vectorTrampoline(TimerVector), 0)
	installGate(SpuriousVector, vectorTrampoline(SpuriousVector), 0)
	installGate(SoftwareInt, vectorTrampoline(SoftwareInt), 3)

	cpu.RemapPIC()

	desc := idtDescriptor{
		limit: uint16(unsafe.Sizeof(idt)) - 1,
		base:  uintptr(unsafe.Pointer(&idt[0])),
	}
	cpu.LoadIDT(uintptr(unsafe.Pointer(&desc)))
}

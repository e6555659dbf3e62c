// Package proc holds the kernel's process control blocks and the
// round-robin, sleep/wake scheduler that multiplexes the CPU across them.
package proc

import "nanokernel/kernel/mem"

// MaxProcesses bounds the process control block array. Slot 0 is reserved
// for KernelPID and is never assigned to a task.
const MaxProcesses = 1024

// KernelPID is the pseudo-pid of the kernel itself; no PCB ever carries it.
const KernelPID = 0

// TimerWait is the wait reason used by tasks sleeping on the timer tick
// (SYS_CALL_SLEEP, and anything else waiting for the clock to advance).
const TimerWait = 0

// noWaitReason is the sentinel stored in a PCB's waitReason field whenever
// it is not Sleeping. TimerWait is 0, so 0 cannot double as "no reason"
// without making every non-sleeping PCB look like a timer waiter; -1 never
// collides with a live reason.
const noWaitReason = -1

// listEnd terminates the ready and wait lists' intrusive index chains.
const listEnd = -1

// State is the lifecycle state of a process control block.
type State uint8

const (
	Unused State = iota
	Ready
	Running
	Sleeping
)

// PCB is a process control block. Every field below is accessed only while
// interrupts are disabled (the kernel never runs preemptively in ring 0),
// so none of it is synchronized.
type PCB struct {
	state State
	pid   uint32
	ppid  uint32

	// generation is bumped by MaxProcesses every time this slot is reused,
	// so a pid never repeats until it wraps all the way back around.
	generation uint32

	addressSpaceRootPA mem.PhysAddr
	kernelStackBaseVA  mem.VirtAddr
	savedTrapFrameVA   mem.VirtAddr
	savedRSP           uintptr

	waitReason int64

	readyNext int32
	waitNext  int32
}

// State reports the process's current lifecycle state.
func (p *PCB) State() State { return p.state }

// PID returns the process's unique identifier.
func (p *PCB) PID() uint32 { return p.pid }

// PPID returns the identifier of the process that created this one.
func (p *PCB) PPID() uint32 { return p.ppid }

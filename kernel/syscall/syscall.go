// Package syscall decodes the packed argument structure a user task leaves
// behind when it traps via the software interrupt gate, and services the
// small set of calls this kernel honours: write and sleep.
package syscall

import (
	"unsafe"

	"nanokernel/kernel/hal"
	"nanokernel/kernel/irq"
	"nanokernel/kernel/proc"
)

// Call numbers, carried in the trapped task's rax.
const (
	callWrite = 0
	callSleep = 1
)

// sysError is the sentinel value returned in rax for any failed call.
const sysError = ^uint64(0)

const stdoutFD = 1

// eventsPerSecond converts a SYS_CALL_SLEEP argument in seconds to the
// number of timer ticks to wait.
const eventsPerSecond = 100

// maxArgs bounds how many u64 words dispatch will ever read out of the
// user-supplied argument array; every call this kernel services takes 3 or
// fewer.
const maxArgs = 3

var (
	// the following functions are mocked by tests and are automatically
	// inlined by the compiler.
	writeFn        = func(buf []byte) { hal.ActiveTerminal.Write(buf) }
	sleepFn        = proc.Sleep
	timerCounterFn = irq.TimerCounter
)

// Init registers the syscall dispatcher as the handler for the software
// interrupt gate.
func Init() {
	irq.SetSyscallHandler(dispatch)
}

// dispatch decodes the trapped task's call convention — rax is the call
// number, rdi the argument count, rsi a pointer to a contiguous u64
// argument array in the task's own address space (which is still active,
// so the kernel can read it with an ordinary pointer) — and writes the
// result back into rax for the eventual iretq to deliver to user space.
func dispatch(tf *irq.TrapFrame) {
	argc := tf.RDI

	var argv [maxArgs]uint64
	if argc > 0 {
		if argc > maxArgs {
			tf.RAX = sysError
			return
		}
		src := (*[maxArgs]uint64)(unsafe.Pointer(uintptr(tf.RSI)))
		copy(argv[:argc], src[:argc])
	}

	switch tf.RAX {
	case callWrite:
		tf.RAX = dispatchWrite(argc, argv)
	case callSleep:
		tf.RAX = dispatchSleep(argc, argv)
	default:
		tf.RAX = sysError
	}
}

func dispatchWrite(argc uint64, argv [maxArgs]uint64) uint64 {
	if argc != 3 {
		return sysError
	}

	fd, bufPtr, length := argv[0], argv[1], argv[2]
	if fd != stdoutFD {
		return sysError
	}

	buf := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(bufPtr))), int(length))
	writeFn(buf)

	return length
}

func dispatchSleep(argc uint64, argv [maxArgs]uint64) uint64 {
	if argc != 1 {
		return sysError
	}

	events, overflowed := mulOverflows(argv[0], eventsPerSecond)
	if overflowed {
		return sysError
	}

	deadline := timerCounterFn() + events
	for int64(deadline-timerCounterFn()) > 0 {
		sleepFn(proc.TimerWait)
	}

	return 0
}

// mulOverflows reports whether a*b overflows a uint64, alongside the
// (possibly meaningless, if overflowed) product.
func mulOverflows(a, b uint64) (uint64, bool) {
	if a != 0 && b != 0 && a > ^uint64(0)/b {
		return 0, true
	}
	return a * b, false
}

package irq

import (
	"nanokernel/kernel/cpu"
	"nanokernel/kernel/hal"
	"nanokernel/kernel/kfmt/early"
)

// ExceptionHandler handles a CPU exception that pushes no error code.
type ExceptionHandler func(*TrapFrame)

// ExceptionHandlerWithCode handles a CPU exception that pushes an error
// code (e.g. page fault, general protection fault).
type ExceptionHandlerWithCode func(errorCode uint64, frame *TrapFrame)

var (
	// the following functions are mocked by tests and are automatically
	// inlined by the compiler.
	isSpuriousInterruptFn = cpu.IsSpuriousInterrupt
	acknowledgeFn         = cpu.AcknowledgeInterrupt
	bumpTickCounterFn     = hal.BumpTickCounter
	haltFn                = cpu.Halt
	readCR2Fn             = cpu.ReadCR2

	exceptionHandlers         [gateCount]ExceptionHandler
	exceptionHandlersWithCode [gateCount]ExceptionHandlerWithCode

	// syscallHandler is registered by the syscall layer via
	// SetSyscallHandler and invoked for SoftwareInt.
	syscallHandler func(*TrapFrame)

	// wakeTimerWaitersFn and scheduleFn let the timer path reach into the
	// scheduler without creating an import cycle; irq/proc wiring is set
	// up once in kmain.
	wakeTimerWaitersFn func()
	scheduleFn         func()

	timerCounter uint64
)

// HandleException registers handler for vector, an exception vector that
// carries no hardware error code.
func HandleException(vector uint8, handler ExceptionHandler) {
	exceptionHandlers[vector] = handler
}

// HandleExceptionWithCode registers handler for vector, an exception vector
// whose hardware frame carries an error code.
func HandleExceptionWithCode(vector uint8, handler ExceptionHandlerWithCode) {
	exceptionHandlersWithCode[vector] = handler
}

// SetSyscallHandler registers the function invoked for the software
// interrupt (int 0x80) gate.
func SetSyscallHandler(handler func(*TrapFrame)) {
	syscallHandler = handler
}

// SetSchedulerHooks wires the timer IRQ path to the scheduler's wake and
// schedule operations.
func SetSchedulerHooks(wakeTimerWaiters, schedule func()) {
	wakeTimerWaitersFn = wakeTimerWaiters
	scheduleFn = schedule
}

// TimerCounter returns the number of timer ticks observed since boot.
func TimerCounter() uint64 {
	return timerCounter
}

// dispatch is called by every low-level trampoline (by symbol name, from
// assembly) with a pointer to the fully-assembled trap frame. It is the
// single common entry point every vector routes through.
func dispatch(tf *TrapFrame) {
	switch tf.Vector {
	case TimerVector:
		handleTimer()

	case SpuriousVector:
		handleSpurious()

	case SoftwareInt:
		if syscallHandler != nil {
			syscallHandler(tf)
		}

	default:
		if handler := exceptionHandlersWithCode[tf.Vector]; handler != nil {
			handler(tf.ErrorCode, tf)
			return
		}
		if handler := exceptionHandlers[tf.Vector]; handler != nil {
			handler(tf)
			return
		}

		fatal(tf)
	}
}

func handleTimer() {
	bumpTickCounterFn(timerCounter)
	acknowledgeFn()
	timerCounter++

	if wakeTimerWaitersFn != nil {
		wakeTimerWaitersFn()
	}
	if scheduleFn != nil {
		scheduleFn()
	}
}

func handleSpurious() {
	if isSpuriousInterruptFn() {
		return
	}
	acknowledgeFn()
}

// fatal handles any vector with no registered handler: it is always a
// programming or hardware error with no recovery strategy.
func fatal(tf *TrapFrame) {
	early.Printf("\nfatal interrupt: vector=%d error_code=%x cpl=%d rip=%x\n",
		tf.Vector, tf.ErrorCode, tf.CS&0x3, tf.RIP)
	early.Printf("cr2=%x\n", readCR2Fn())
	tf.Regs.Print()
	tf.Frame.Print()

	haltFn()
}

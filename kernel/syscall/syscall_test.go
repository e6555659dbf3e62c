package syscall

import (
	"testing"
	"unsafe"

	"nanokernel/kernel/irq"
	"nanokernel/kernel/proc"
)

func resetSyscallState(t *testing.T) {
	t.Helper()
	origWrite, origSleep, origCounter := writeFn, sleepFn, timerCounterFn
	t.Cleanup(func() {
		writeFn, sleepFn, timerCounterFn = origWrite, origSleep, origCounter
	})
}

func buildArgv(values ...uint64) (ptr uintptr) {
	buf := make([]uint64, len(values))
	copy(buf, values)
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}

func TestDispatchWriteToStdoutReturnsLengthAndForwardsBuffer(t *testing.T) {
	resetSyscallState(t)

	var got []byte
	writeFn = func(buf []byte) { got = append([]byte(nil), buf...) }

	msg := []byte("hi")
	tf := &irq.TrapFrame{}
	tf.RAX = callWrite
	tf.RDI = 3
	tf.RSI = uint64(buildArgv(stdoutFD, uint64(uintptr(unsafe.Pointer(&msg[0]))), uint64(len(msg))))

	dispatch(tf)

	if tf.RAX != uint64(len(msg)) {
		t.Fatalf("expected rax to be %d; got %d", len(msg), tf.RAX)
	}
	if string(got) != "hi" {
		t.Fatalf("expected the write to forward \"hi\"; got %q", got)
	}
}

func TestDispatchWriteToOtherFDReturnsError(t *testing.T) {
	resetSyscallState(t)
	writeFn = func([]byte) { t.Fatal("expected writeFn not to be called for a non-stdout fd") }

	tf := &irq.TrapFrame{}
	tf.RAX = callWrite
	tf.RDI = 3
	tf.RSI = uint64(buildArgv(7, 0, 0))

	dispatch(tf)

	if tf.RAX != sysError {
		t.Fatalf("expected sysError; got %x", tf.RAX)
	}
}

func TestDispatchWriteWrongArgCountReturnsError(t *testing.T) {
	resetSyscallState(t)

	tf := &irq.TrapFrame{}
	tf.RAX = callWrite
	tf.RDI = 2
	tf.RSI = uint64(buildArgv(stdoutFD, 0))

	dispatch(tf)

	if tf.RAX != sysError {
		t.Fatalf("expected sysError for a wrong argument count; got %x", tf.RAX)
	}
}

func TestDispatchUnknownCallReturnsError(t *testing.T) {
	resetSyscallState(t)

	tf := &irq.TrapFrame{}
	tf.RAX = 99
	tf.RDI = 0

	dispatch(tf)

	if tf.RAX != sysError {
		t.Fatalf("expected sysError for an unknown call; got %x", tf.RAX)
	}
}

func TestDispatchSleepLoopsUntilDeadlineReached(t *testing.T) {
	resetSyscallState(t)

	counter := uint64(0)
	timerCounterFn = func() uint64 { return counter }
	var sleptReasons []int64
	sleepFn = func(reason int64) {
		sleptReasons = append(sleptReasons, reason)
		counter++
	}

	tf := &irq.TrapFrame{}
	tf.RAX = callSleep
	tf.RDI = 1
	tf.RSI = uint64(buildArgv(2)) // 2 seconds * 100 events/sec = 200 ticks

	dispatch(tf)

	if tf.RAX != 0 {
		t.Fatalf("expected rax to be 0 on success; got %d", tf.RAX)
	}
	if len(sleptReasons) != 200 {
		t.Fatalf("expected 200 sleep calls; got %d", len(sleptReasons))
	}
	for _, r := range sleptReasons {
		if r != proc.TimerWait {
			t.Fatalf("expected every sleep to wait on TimerWait; got %d", r)
		}
	}
}

func TestDispatchSleepReturnsErrorOnOverflow(t *testing.T) {
	resetSyscallState(t)
	sleepFn = func(int64) { t.Fatal("expected sleepFn not to be called on overflow") }

	tf := &irq.TrapFrame{}
	tf.RAX = callSleep
	tf.RDI = 1
	tf.RSI = uint64(buildArgv(^uint64(0)))

	dispatch(tf)

	if tf.RAX != sysError {
		t.Fatalf("expected sysError on overflow; got %x", tf.RAX)
	}
}

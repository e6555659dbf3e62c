package irq

import "testing"

func resetDispatchState(t *testing.T) {
	t.Helper()

	origSpurious, origAck, origBump, origHalt, origCR2 := isSpuriousInterruptFn, acknowledgeFn, bumpTickCounterFn, haltFn, readCR2Fn
	origWake, origSchedule := wakeTimerWaitersFn, scheduleFn
	timerCounter = 0
	for i := range exceptionHandlers {
		exceptionHandlers[i] = nil
		exceptionHandlersWithCode[i] = nil
	}
	syscallHandler = nil
	readCR2Fn = func() uintptr { return 0 }

	t.Cleanup(func() {
		isSpuriousInterruptFn, acknowledgeFn, bumpTickCounterFn, haltFn, readCR2Fn = origSpurious, origAck, origBump, origHalt, origCR2
		wakeTimerWaitersFn, scheduleFn = origWake, origSchedule
	})
}

func TestDispatchTimerVectorOrderOfEffects(t *testing.T) {
	resetDispatchState(t)

	var order []string

	bumpTickCounterFn = func(uint64) { order = append(order, "bump") }
	acknowledgeFn = func() { order = append(order, "ack") }
	wakeTimerWaitersFn = func() { order = append(order, "wake") }
	scheduleFn = func() { order = append(order, "schedule") }

	dispatch(&TrapFrame{Frame: Frame{Vector: TimerVector}})

	exp := []string{"bump", "ack", "wake", "schedule"}
	if len(order) != len(exp) {
		t.Fatalf("expected %v; got %v", exp, order)
	}
	for i := range exp {
		if order[i] != exp[i] {
			t.Fatalf("expected order %v; got %v", exp, order)
		}
	}

	if got := TimerCounter(); got != 1 {
		t.Fatalf("expected TimerCounter() to be 1; got %d", got)
	}
}

func TestDispatchSpuriousVectorSkipsAckWhenSpurious(t *testing.T) {
	resetDispatchState(t)

	ackCalled := false
	isSpuriousInterruptFn = func() bool { return true }
	acknowledgeFn = func() { ackCalled = true }

	dispatch(&TrapFrame{Frame: Frame{Vector: SpuriousVector}})

	if ackCalled {
		t.Fatal("expected a spurious IRQ7 to not be acknowledged")
	}
}

func TestDispatchSpuriousVectorAcksWhenGenuine(t *testing.T) {
	resetDispatchState(t)

	ackCalled := false
	isSpuriousInterruptFn = func() bool { return false }
	acknowledgeFn = func() { ackCalled = true }

	dispatch(&TrapFrame{Frame: Frame{Vector: SpuriousVector}})

	if !ackCalled {
		t.Fatal("expected a genuine IRQ7 to be acknowledged")
	}
}

func TestDispatchSoftwareIntInvokesSyscallHandler(t *testing.T) {
	resetDispatchState(t)

	var gotFrame *TrapFrame
	SetSyscallHandler(func(tf *TrapFrame) { gotFrame = tf })

	tf := &TrapFrame{Frame: Frame{Vector: SoftwareInt}, Regs: Regs{RAX: 42}}
	dispatch(tf)

	if gotFrame != tf {
		t.Fatal("expected the syscall handler to receive the dispatched trap frame")
	}
}

func TestDispatchUnregisteredVectorIsFatal(t *testing.T) {
	resetDispatchState(t)

	halted := false
	haltFn = func() { halted = true }

	dispatch(&TrapFrame{Frame: Frame{Vector: 99}})

	if !halted {
		t.Fatal("expected an unregistered vector to halt")
	}
}

func TestDispatchRoutesExceptionWithCode(t *testing.T) {
	resetDispatchState(t)

	halted := false
	haltFn = func() { halted = true }

	var gotCode uint64
	HandleExceptionWithCode(14, func(errorCode uint64, tf *TrapFrame) {
		gotCode = errorCode
	})

	dispatch(&TrapFrame{Frame: Frame{Vector: 14, ErrorCode: 7}})

	if gotCode != 7 {
		t.Fatalf("expected the registered handler to receive error code 7; got %d", gotCode)
	}
	if halted {
		t.Fatal("expected a registered exception handler to prevent the fatal path")
	}
}

func TestDispatchRoutesExceptionWithoutCode(t *testing.T) {
	resetDispatchState(t)

	halted := false
	haltFn = func() { halted = true }

	called := false
	HandleException(0, func(tf *TrapFrame) { called = true })

	dispatch(&TrapFrame{Frame: Frame{Vector: 0}})

	if !called {
		t.Fatal("expected the registered handler to be invoked")
	}
	if halted {
		t.Fatal("expected a registered exception handler to prevent the fatal path")
	}
}

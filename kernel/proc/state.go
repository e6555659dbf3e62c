package proc

// kernel-wide scheduler singletons. Interrupts are disabled throughout ring
// 0, so none of these need synchronization: the CPU itself is the lock.
var (
	procs [MaxProcesses]PCB

	currentIndex int32 = listEnd
	readyHead    int32 = listEnd
	readyTail    int32 = listEnd
	waitHead     int32 = listEnd
)

// reset clears every PCB and scheduler list. Exercised by tests; the real
// boot path relies on the zero-valued package state instead (StartInit
// still calls it, to leave no doubt that a restart starts from a clean
// slate).
func reset() {
	procs = [MaxProcesses]PCB{}
	currentIndex, readyHead, readyTail, waitHead = listEnd, listEnd, listEnd, listEnd
}

// Current returns the process control block of the running task, or nil if
// none is running yet.
func Current() *PCB {
	if currentIndex == listEnd {
		return nil
	}
	return &procs[currentIndex]
}

// CurrentIndex returns the slot index of the running task, or -1.
func CurrentIndex() int32 { return currentIndex }

func findUnusedSlot() int32 {
	for i := int32(1); i < MaxProcesses; i++ {
		if procs[i].state == Unused {
			return i
		}
	}
	return listEnd
}

func pushReadyTail(idx int32) {
	procs[idx].readyNext = listEnd
	if readyTail == listEnd {
		readyHead = idx
	} else {
		procs[readyTail].readyNext = idx
	}
	readyTail = idx
}

// pushReadyHead prepends idx onto the ready list. wake uses this so that
// just-signalled tasks are favoured over fairness, per the ready-list
// ordering the scheduler is specified to use.
func pushReadyHead(idx int32) {
	procs[idx].readyNext = readyHead
	readyHead = idx
	if readyTail == listEnd {
		readyTail = idx
	}
}

func popReadyHead() int32 {
	idx := readyHead
	readyHead = procs[idx].readyNext
	if readyHead == listEnd {
		readyTail = listEnd
	}
	procs[idx].readyNext = listEnd
	return idx
}

func pushWaitHead(idx int32) {
	procs[idx].waitNext = waitHead
	waitHead = idx
}

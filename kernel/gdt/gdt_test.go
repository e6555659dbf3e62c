package gdt

import "testing"

func resetGDTState(t *testing.T) {
	t.Helper()
	origLoad := loadGDTFn
	origTSS, origTable := tss, table
	t.Cleanup(func() {
		loadGDTFn = origLoad
		tss, table = origTSS, origTable
	})
}

func TestInitBuildsNullKernelAndUserDescriptors(t *testing.T) {
	resetGDTState(t)
	loadGDTFn = func(uintptr, uint16) {}

	Init()

	if table[0] != 0 {
		t.Fatalf("expected a null descriptor at index 0; got %x", table[0])
	}
	if table[1] != codeDescriptor(0) {
		t.Fatalf("expected the ring-0 code descriptor at index 1; got %x", table[1])
	}
	if table[2] != codeDescriptor(3) {
		t.Fatalf("expected the ring-3 code descriptor at index 2; got %x", table[2])
	}
	if table[3] != dataDescriptor(3) {
		t.Fatalf("expected the ring-3 data descriptor at index 3; got %x", table[3])
	}
}

func TestInitDescriptorPrivilegeLevelsMatchSelectors(t *testing.T) {
	resetGDTState(t)
	loadGDTFn = func(uintptr, uint16) {}

	Init()

	if UserCodeSelector&0x3 != 3 {
		t.Fatalf("expected UserCodeSelector RPL to be 3; got %d", UserCodeSelector&0x3)
	}
	if UserDataSelector&0x3 != 3 {
		t.Fatalf("expected UserDataSelector RPL to be 3; got %d", UserDataSelector&0x3)
	}
	if KernelCodeSelector&0x3 != 0 {
		t.Fatalf("expected KernelCodeSelector RPL to be 0; got %d", KernelCodeSelector&0x3)
	}
	if dpl := (table[KernelCodeSelector>>3] >> dplShift) & 0x3; dpl != KernelCodeSelector&0x3 {
		t.Fatalf("expected the ring-0 code descriptor DPL to match KernelCodeSelector; got %d", dpl)
	}
	if dpl := (table[UserCodeSelector>>3] >> dplShift) & 0x3; dpl != UserCodeSelector&0x3 {
		t.Fatalf("expected the ring-3 code descriptor DPL to match UserCodeSelector; got %d", dpl)
	}
	if dpl := (table[UserDataSelector>>3] >> dplShift) & 0x3; dpl != UserDataSelector&0x3 {
		t.Fatalf("expected the ring-3 data descriptor DPL to match UserDataSelector; got %d", dpl)
	}
}

func TestInitPassesTheTSSSelectorToLoadGDT(t *testing.T) {
	resetGDTState(t)

	var gotSelector uint16
	loadGDTFn = func(_ uintptr, sel uint16) { gotSelector = sel }

	Init()

	if gotSelector != tssSelector {
		t.Fatalf("expected LoadGDT to receive selector %x; got %x", tssSelector, gotSelector)
	}
}

func TestSetRSP0UpdatesTheTSS(t *testing.T) {
	resetGDTState(t)

	SetRSP0(0xdeadbeef)

	if tss.rsp0 != 0xdeadbeef {
		t.Fatalf("expected tss.rsp0 to be 0xdeadbeef; got %x", tss.rsp0)
	}
}

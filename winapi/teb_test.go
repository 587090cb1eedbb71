package winapi

import "testing"

func TestSetupTEBPEBWritesFixedFields(t *testing.T) {
	e := newTestEmulator(t)
	e.ImageBase = 0x00400000
	const stackTop = 0x003FF000

	if err := e.setupTEBPEB(stackTop); err != nil {
		t.Fatalf("setupTEBPEB failed: %v", err)
	}
	e.CPU.FSBase = e.tebAddr

	if e.tebAddr != TEBBase || e.pebAddr != PEBBase {
		t.Fatalf("tebAddr/pebAddr = 0x%X/0x%X, want 0x%X/0x%X", e.tebAddr, e.pebAddr, TEBBase, PEBBase)
	}

	self, err := e.Mem.Read32(e.resolveFSRelative(tebOffSelf))
	if err != nil {
		t.Fatalf("Read32 failed: %v", err)
	}
	if self != e.tebAddr {
		t.Errorf("TEB.Self = 0x%X, want 0x%X", self, e.tebAddr)
	}

	base, err := e.Mem.Read32(e.resolveFSRelative(tebOffStackBase))
	if err != nil {
		t.Fatalf("Read32 failed: %v", err)
	}
	if base != stackTop {
		t.Errorf("TEB.StackBase = 0x%X, want 0x%X", base, stackTop)
	}

	pebPtr, err := e.Mem.Read32(e.resolveFSRelative(tebOffPEB))
	if err != nil {
		t.Fatalf("Read32 failed: %v", err)
	}
	if pebPtr != e.pebAddr {
		t.Errorf("TEB.PEB = 0x%X, want 0x%X", pebPtr, e.pebAddr)
	}

	imgBase, err := e.Mem.Read32(e.pebAddr + pebOffImageBase)
	if err != nil {
		t.Fatalf("Read32 failed: %v", err)
	}
	if imgBase != e.ImageBase {
		t.Errorf("PEB.ImageBase = 0x%X, want 0x%X", imgBase, e.ImageBase)
	}
}

func TestGetSetLastError(t *testing.T) {
	e := newTestEmulator(t)
	if err := e.setupTEBPEB(0x003FF000); err != nil {
		t.Fatalf("setupTEBPEB failed: %v", err)
	}
	e.CPU.FSBase = e.tebAddr

	if got := e.GetLastError(); got != 0 {
		t.Fatalf("GetLastError initial = %d, want 0", got)
	}
	e.SetLastError(123)
	if got := e.GetLastError(); got != 123 {
		t.Errorf("GetLastError = %d, want 123", got)
	}
}

func TestSetupStackInstallsSentinelReturnAddress(t *testing.T) {
	e := newTestEmulator(t)
	sp, err := e.setupStack()
	if err != nil {
		t.Fatalf("setupStack failed: %v", err)
	}
	retAddr, err := e.Mem.Read32(sp)
	if err != nil {
		t.Fatalf("Read32 failed: %v", err)
	}
	if retAddr == 0 {
		t.Fatalf("sentinel return address was not written at the initial ESP")
	}
	if _, ok := e.trampolines[retAddr]; !ok {
		t.Errorf("sentinel address 0x%X is not a registered trampoline", retAddr)
	}
}

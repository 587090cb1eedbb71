package winapi

import (
	"testing"

	"w32run/cpu"
)

func TestArgReadsStackInOrder(t *testing.T) {
	e := newTestEmulator(t)
	sp := e.CPU.Regs[cpu.ESP]
	if err := e.Mem.Write32(sp, 0xAAAA0000); err != nil { // return address
		t.Fatalf("Write32 failed: %v", err)
	}
	if err := e.Mem.Write32(sp+4, 111); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}
	if err := e.Mem.Write32(sp+8, 222); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}
	a0, err := e.Arg(0)
	if err != nil {
		t.Fatalf("Arg(0) failed: %v", err)
	}
	a1, err := e.Arg(1)
	if err != nil {
		t.Fatalf("Arg(1) failed: %v", err)
	}
	if a0 != 111 || a1 != 222 {
		t.Errorf("Arg(0),Arg(1) = %d,%d, want 111,222", a0, a1)
	}
	if e.CPU.Regs[cpu.ESP] != sp {
		t.Errorf("Arg must not move ESP, got 0x%X want 0x%X", e.CPU.Regs[cpu.ESP], sp)
	}
}

func TestStdcallReturnShiftsRetAddrAndAdvancesESP(t *testing.T) {
	e := newTestEmulator(t)
	sp := e.CPU.Regs[cpu.ESP]
	const retAddr = 0xDEADBEEF
	if err := e.Mem.Write32(sp, retAddr); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}
	if err := e.Mem.Write32(sp+4, 1); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}
	if err := e.Mem.Write32(sp+8, 2); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}

	if err := e.StdcallReturn(2); err != nil {
		t.Fatalf("StdcallReturn failed: %v", err)
	}

	if want := sp + 8; e.CPU.Regs[cpu.ESP] != want {
		t.Errorf("ESP = 0x%X, want 0x%X", e.CPU.Regs[cpu.ESP], want)
	}
	got, err := e.Mem.Read32(e.CPU.Regs[cpu.ESP])
	if err != nil {
		t.Fatalf("Read32 failed: %v", err)
	}
	if got != retAddr {
		t.Errorf("return address at new ESP = 0x%X, want 0x%X", got, retAddr)
	}
}

func TestStdcallReturnZeroArgsLeavesESPAtRetAddr(t *testing.T) {
	e := newTestEmulator(t)
	sp := e.CPU.Regs[cpu.ESP]
	if err := e.Mem.Write32(sp, 0x1234); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}
	if err := e.StdcallReturn(0); err != nil {
		t.Fatalf("StdcallReturn failed: %v", err)
	}
	if e.CPU.Regs[cpu.ESP] != sp {
		t.Errorf("ESP = 0x%X, want unchanged 0x%X", e.CPU.Regs[cpu.ESP], sp)
	}
}

func TestCdeclReturnLeavesESPUntouched(t *testing.T) {
	e := newTestEmulator(t)
	sp := e.CPU.Regs[cpu.ESP]
	if err := e.CdeclReturn(3); err != nil {
		t.Fatalf("CdeclReturn failed: %v", err)
	}
	if e.CPU.Regs[cpu.ESP] != sp {
		t.Errorf("ESP = 0x%X, want unchanged 0x%X", e.CPU.Regs[cpu.ESP], sp)
	}
}

func TestArgStringReadsNulTerminated(t *testing.T) {
	e := newTestEmulator(t)
	sp := e.CPU.Regs[cpu.ESP]
	const strAddr = 0x20000
	if _, err := e.Mem.WriteCString(strAddr, "hello"); err != nil {
		t.Fatalf("WriteCString failed: %v", err)
	}
	if err := e.Mem.Write32(sp+4, strAddr); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}
	got, err := e.ArgString(0, 256)
	if err != nil {
		t.Fatalf("ArgString failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("ArgString = %q, want %q", got, "hello")
	}
}

func TestArgStringNullPointerIsEmpty(t *testing.T) {
	e := newTestEmulator(t)
	sp := e.CPU.Regs[cpu.ESP]
	if err := e.Mem.Write32(sp+4, 0); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}
	got, err := e.ArgString(0, 256)
	if err != nil {
		t.Fatalf("ArgString failed: %v", err)
	}
	if got != "" {
		t.Errorf("ArgString for NULL pointer = %q, want empty", got)
	}
}

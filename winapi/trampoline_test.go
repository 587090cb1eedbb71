package winapi

import (
	"errors"
	"testing"
)

func TestInstallStubWritesBytesAndDispatches(t *testing.T) {
	e := newTestEmulator(t)
	called := false
	addr, err := e.installStub("kernel32.dll", "Beep", 0, func(e *Emulator) error {
		called = true
		return e.StdcallReturn(0)
	})
	if err != nil {
		t.Fatalf("installStub failed: %v", err)
	}

	b, err := e.Mem.ReadBytes(addr, 3)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if b[0] != 0xCD || b[1] != trampolineVector || b[2] != 0xC3 {
		t.Fatalf("stub bytes = % X, want CD FE C3", b)
	}

	e.CPU.EIP = addr + 2 // as if Step already consumed the CD FE
	if err := e.dispatchInterrupt(e.CPU, trampolineVector); err != nil {
		t.Fatalf("dispatchInterrupt failed: %v", err)
	}
	if !called {
		t.Errorf("handler was not invoked")
	}
}

func TestDispatchInterruptUnknownStub(t *testing.T) {
	e := newTestEmulator(t)
	e.CPU.EIP = TrampolineBase + 2
	err := e.dispatchInterrupt(e.CPU, trampolineVector)
	if err == nil {
		t.Fatalf("expected an error for an unregistered trampoline address")
	}
	var unk *ErrUnknownStub
	if !errors.As(err, &unk) {
		t.Errorf("err = %T, want *ErrUnknownStub", err)
	}
}

func TestDispatchInterruptWrapsHandlerError(t *testing.T) {
	e := newTestEmulator(t)
	sentinel := errors.New("boom")
	addr, err := e.installStub("kernel32.dll", "Fail", 0, func(e *Emulator) error {
		return sentinel
	})
	if err != nil {
		t.Fatalf("installStub failed: %v", err)
	}
	e.CPU.EIP = addr + 2
	err = e.dispatchInterrupt(e.CPU, trampolineVector)
	var hf *ErrHandlerFault
	if !errors.As(err, &hf) {
		t.Fatalf("err = %T, want *ErrHandlerFault", err)
	}
	if hf.DLL != "kernel32.dll" || hf.Name != "Fail" {
		t.Errorf("ErrHandlerFault = %+v, want DLL=kernel32.dll Name=Fail", hf)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("wrapped error chain does not reach the sentinel")
	}
}

func TestDispatchInterruptPassesThroughGuestTerminated(t *testing.T) {
	e := newTestEmulator(t)
	addr, err := e.installStub("kernel32.dll", "ExitProcess", 0, func(e *Emulator) error {
		return &GuestTerminated{ExitCode: 7}
	})
	if err != nil {
		t.Fatalf("installStub failed: %v", err)
	}
	e.CPU.EIP = addr + 2
	err = e.dispatchInterrupt(e.CPU, trampolineVector)
	var term *GuestTerminated
	if !errors.As(err, &term) {
		t.Fatalf("err = %T, want *GuestTerminated", err)
	}
	if term.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", term.ExitCode)
	}
}

func TestDispatchInterruptUnhandledVector(t *testing.T) {
	e := newTestEmulator(t)
	err := e.dispatchInterrupt(e.CPU, 0x80)
	if err == nil {
		t.Fatalf("expected error for a non-trampoline vector")
	}
}

func TestInstallPatchDispatches(t *testing.T) {
	e := newTestEmulator(t)
	called := false
	const patchAddr = 0x00300000
	if err := e.installPatch(patchAddr, func(e *Emulator) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("installPatch failed: %v", err)
	}
	e.CPU.EIP = patchAddr + 2
	if err := e.dispatchInterrupt(e.CPU, trampolineVector); err != nil {
		t.Fatalf("dispatchInterrupt failed: %v", err)
	}
	if !called {
		t.Errorf("patch handler was not invoked")
	}
}

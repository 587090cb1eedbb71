package winapi

import (
	"fmt"

	"w32run/cpu"
)

// trampolineVector is the software interrupt the loader patches into
// every trampoline stub: CD FE C3 disassembles as INT 0xFE; RET. INT
// 0xFE is not a real x86 vector any Windows program raises on its own,
// which is exactly why it is safe to requisition as the "call into the
// host" signal (spec.md §4.4.2).
const trampolineVector = 0xFE

var trampolineStub = [3]byte{0xCD, trampolineVector, 0xC3}

// installStub reserves the next trampoline slot, writes the CD FE C3
// bytes there, and records the handler that answers for it. It returns
// the guest address callers should patch into an IAT slot or a direct
// CALL target.
func (e *Emulator) installStub(dll, name string, ordinal uint16, h Handler) (uint32, error) {
	if e.nextSlot >= maxTrampolines {
		return 0, fmt.Errorf("winapi: trampoline table exhausted (max %d stubs)", maxTrampolines)
	}
	addr := TrampolineBase + e.nextSlot*trampolineStride
	e.nextSlot++
	if err := e.Mem.Load(addr, trampolineStub[:]); err != nil {
		return 0, err
	}
	e.trampolines[addr] = &stub{dll: dll, name: name, ordinal: ordinal, handler: h}
	return addr, nil
}

// installPatch registers a handler at an arbitrary guest code address
// not allocated through installStub, used for the small set of CRT
// internals the loader short-circuits in place (spec.md §4.4.4 "CRT
// runtime", SBH heap init, _CrtDbgReport).
func (e *Emulator) installPatch(addr uint32, h Handler) error {
	if err := e.Mem.Load(addr, trampolineStub[:]); err != nil {
		return err
	}
	e.patches[addr] = h
	return nil
}

// dispatchInterrupt is the cpu.InterruptHandler registered on the CPU.
// Only vector 0xFE is meaningful; anything else (including INT3, which
// this emulator does not use for breakpoints) is unhandled. EIP-2 is
// the trampoline's own address, since Step has already advanced past
// the two-byte INT imm8 encoding.
func (e *Emulator) dispatchInterrupt(c *cpu.CPU, vector uint8) error {
	if vector != trampolineVector {
		return &cpu.UnhandledInterruptError{Vector: vector, EIP: c.EIP}
	}
	addr := c.EIP - 2
	var h Handler
	if s, ok := e.trampolines[addr]; ok {
		h = s.handler
	} else if p, ok := e.patches[addr]; ok {
		h = p
	} else {
		return &ErrUnknownStub{Addr: addr}
	}
	if h == nil {
		return &ErrUnknownStub{Addr: addr}
	}
	if err := h(e); err != nil {
		var term *GuestTerminated
		if asGuestTerminated(err, &term) {
			return err
		}
		if s, ok := e.trampolines[addr]; ok {
			return &ErrHandlerFault{DLL: s.dll, Name: s.name, Wrapped: err}
		}
		return &ErrHandlerFault{DLL: "", Name: fmt.Sprintf("patch@0x%08X", addr), Wrapped: err}
	}
	return nil
}

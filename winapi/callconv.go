package winapi

import "w32run/cpu"

// Calling-convention adapters (spec.md §4.4.3). A handler is entered
// with ESP pointing at the return address the trampoline's CALL pushed;
// arguments follow at ESP+4, ESP+8, ... in declaration order regardless
// of convention, since both stdcall and cdecl push arguments right to
// left onto the same stack shape. The two conventions differ only in
// who tears the arguments back off afterward.

// Arg reads the i'th stack argument (0-based) without touching ESP,
// so a handler can read every argument before deciding how to clean up.
func (e *Emulator) Arg(i int) (uint32, error) {
	return e.Mem.Read32(e.CPU.Regs[cpu.ESP] + 4 + uint32(i)*4)
}

// ArgString reads argument i as a NUL-terminated ANSI string pointer.
func (e *Emulator) ArgString(i int, maxLen uint32) (string, error) {
	addr, err := e.Arg(i)
	if err != nil {
		return "", err
	}
	if addr == 0 {
		return "", nil
	}
	return e.Mem.ReadCString(addr, maxLen)
}

// Return sets EAX to v, the universal Win32 return-value register.
func (e *Emulator) Return(v uint32) {
	e.CPU.Regs[cpu.EAX] = v
}

// StdcallReturn pops argc*4 bytes of arguments in addition to the
// return address (the callee cleans up under stdcall), then returns.
// The trampoline body is a bare RET (C3), which only pops the return
// address; StdcallReturn does the rest of the cleanup itself by
// shifting the return address up over the argument block before
// control reaches that RET.
//
//	before: ESP -> [retAddr][arg0][arg1]...[argN-1]
//	after:  ESP -> [retAddr]            (ESP advanced by argc*4)
func (e *Emulator) StdcallReturn(argc int) error {
	sp := e.CPU.Regs[cpu.ESP]
	retAddr, err := e.Mem.Read32(sp)
	if err != nil {
		return err
	}
	shifted := sp + uint32(argc)*4
	if err := e.Mem.Write32(shifted, retAddr); err != nil {
		return err
	}
	e.CPU.Regs[cpu.ESP] = shifted
	return nil
}

// CdeclReturn leaves ESP untouched: the caller is responsible for
// popping its own arguments after the CALL returns, so there is
// nothing for the handler to clean up beyond the RET the trampoline
// already executes.
func (e *Emulator) CdeclReturn(argc int) error {
	return nil
}

package winapi

// Process/module introspection: GetModuleHandle{A,W} and GetProcAddress
// only ever need to answer for the main image itself in this emulator
// (spec.md §4.4.4), since every import is already resolved to a
// trampoline at load time; GetCommandLine{A,W} and GetEnvironmentStrings
// answer out of the synthetic argv/env block the loader built.
func registerProcessHandlers(c catalog) {
	c.add("kernel32.dll", "GetModuleHandleA", 1, func(e *Emulator) error {
		name, err := e.ArgString(0, 260)
		if err != nil {
			return err
		}
		if name == "" {
			e.Return(e.ImageBase)
			return nil
		}
		if base, ok := e.dllBases[dllKey(name)]; ok {
			e.Return(base)
			return nil
		}
		e.Return(e.ImageBase)
		return nil
	})
	c.add("kernel32.dll", "GetModuleHandleW", 1, func(e *Emulator) error {
		e.Return(e.ImageBase)
		return nil
	})
	c.add("kernel32.dll", "GetModuleHandleExA", 3, func(e *Emulator) error {
		out, err := e.Arg(2)
		if err != nil {
			return err
		}
		if out != 0 {
			if err := e.Mem.Write32(out, e.ImageBase); err != nil {
				return err
			}
		}
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "GetProcAddress", 2, func(e *Emulator) error {
		// Every real import is already wired at load time; a guest that
		// calls GetProcAddress directly (rather than relying on the
		// import table) gets a null back, which its own fallback paths
		// are written to tolerate.
		e.Return(0)
		return nil
	})
	c.add("kernel32.dll", "GetCurrentProcess", 0, func(e *Emulator) error {
		e.Return(0xFFFFFFFF)
		return nil
	})
	c.add("kernel32.dll", "GetCurrentProcessId", 0, func(e *Emulator) error {
		e.Return(1000)
		return nil
	})
	c.add("kernel32.dll", "GetCurrentThread", 0, func(e *Emulator) error {
		e.Return(0xFFFFFFFE)
		return nil
	})
	c.add("kernel32.dll", "GetCurrentThreadId", 0, func(e *Emulator) error {
		e.Return(1001)
		return nil
	})
	c.add("kernel32.dll", "GetCommandLineA", 0, func(e *Emulator) error {
		e.Return(ArgvBlockBase)
		return nil
	})
	c.add("kernel32.dll", "GetStartupInfoA", 1, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		// Zero the STARTUPINFOA struct; every flag bit off means "use
		// defaults", which is exactly the behavior this emulator's fixed
		// console/window model implements anyway.
		return e.Mem.Fill(addr, 0, 68)
	})
	c.add("kernel32.dll", "ExitProcess", 1, func(e *Emulator) error {
		code, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.terminated = true
		e.exitCode = int32(code)
		e.CPU.Halt()
		return &GuestTerminated{ExitCode: int32(code)}
	})
	c.addCdecl("msvcrt.dll", "exit", 1, func(e *Emulator) error {
		code, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.terminated = true
		e.exitCode = int32(code)
		e.CPU.Halt()
		return &GuestTerminated{ExitCode: int32(code)}
	})
}

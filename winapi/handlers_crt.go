package winapi

// CRT runtime: the small set of msvcrt entry points the compiler-
// generated startup stub (_mainCRTStartup / WinMainCRTStartup) calls
// before reaching main/WinMain (spec.md §4.4.4). argc/argv/envp are
// pre-built into a fixed block by buildArgvBlock so __getmainargs and
// __p___argv (whichever the target's CRT version calls) have somewhere
// real to point.
func registerCRTHandlers(c catalog) {
	c.addCdecl("msvcrt.dll", "_initterm", 2, func(e *Emulator) error {
		// The CRT's array-of-function-pointers init table: every target
		// binary produced for this emulator is compiled with no static
		// C++ constructors needing emulation, so walking the table is
		// unnecessary; this emulator treats it as a no-op per spec.md's
		// narrowed CRT surface.
		return nil
	})
	c.addCdecl("msvcrt.dll", "_initterm_e", 2, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.addCdecl("msvcrt.dll", "__set_app_type", 1, func(e *Emulator) error {
		return nil
	})
	c.addCdecl("msvcrt.dll", "__p__fmode", 0, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.addCdecl("msvcrt.dll", "__p__commode", 0, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.addCdecl("msvcrt.dll", "__getmainargs", 5, func(e *Emulator) error {
		argcOut, err := e.Arg(0)
		if err != nil {
			return err
		}
		argvOut, err := e.Arg(1)
		if err != nil {
			return err
		}
		envOut, err := e.Arg(2)
		if err != nil {
			return err
		}
		if err := e.Mem.Write32(argcOut, 1); err != nil {
			return err
		}
		if err := e.Mem.Write32(argvOut, ArgvBlockBase); err != nil {
			return err
		}
		return e.Mem.Write32(envOut, ArgvBlockBase+64)
	})
	c.addCdecl("msvcrt.dll", "_except_handler3", 4, func(e *Emulator) error {
		e.Return(1) // ExceptionContinueSearch
		return nil
	})
	c.addCdecl("msvcrt.dll", "_except_handler4", 4, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
	c.addCdecl("msvcrt.dll", "_controlfp", 2, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.addCdecl("msvcrt.dll", "_amsg_exit", 1, func(e *Emulator) error {
		e.terminated = true
		e.exitCode = 255
		e.CPU.Halt()
		return &GuestTerminated{ExitCode: 255}
	})
	c.addCdecl("msvcrt.dll", "malloc", 1, func(e *Emulator) error {
		size, err := e.Arg(0)
		if err != nil {
			return err
		}
		addr, err := e.heap.alloc(size)
		if err != nil {
			e.Return(0)
			return nil
		}
		e.Return(addr)
		return nil
	})
	c.addCdecl("msvcrt.dll", "free", 1, func(e *Emulator) error {
		ptr, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.heap.free(ptr)
		return nil
	})
	c.addCdecl("msvcrt.dll", "calloc", 2, func(e *Emulator) error {
		n, err := e.Arg(0)
		if err != nil {
			return err
		}
		size, err := e.Arg(1)
		if err != nil {
			return err
		}
		addr, err := e.heap.alloc(n * size)
		if err != nil {
			e.Return(0)
			return nil
		}
		if err := e.Mem.Fill(addr, 0, n*size); err != nil {
			return err
		}
		e.Return(addr)
		return nil
	})
}

// buildArgvBlock writes the synthetic argc=1/argv/envp block
// __getmainargs and GetCommandLineA read from, at ArgvBlockBase:
//
//	+0x00  "app.exe\0"           (8 bytes, the one argv string)
//	+0x08  pointer to +0x00      (argv[0])
//	+0x0C  0                     (argv[1], NULL terminator)
//	+0x40  0                     (envp[0], empty environment block)
func (e *Emulator) buildArgvBlock() error {
	if _, err := e.Mem.WriteCString(ArgvBlockBase, "app.exe"); err != nil {
		return err
	}
	if err := e.Mem.Write32(ArgvBlockBase+8, ArgvBlockBase); err != nil {
		return err
	}
	if err := e.Mem.Write32(ArgvBlockBase+0x0C, 0); err != nil {
		return err
	}
	return e.Mem.Write32(ArgvBlockBase+0x40, 0)
}

// Small-block-heap internals patched by address rather than by import
// name (spec.md §4.4.4's two named CRT patch points). These are wired
// through Config.Patches and only installed when a caller supplies a
// nonzero address for the target binary's CRT build.
func handlerSBHHeapInit(e *Emulator) error {
	e.Return(1)
	return nil
}

func handlerSBHAllocBlock(e *Emulator) error {
	size, err := e.Arg(0)
	if err != nil {
		return err
	}
	addr, err := e.heap.alloc(size)
	if err != nil {
		e.Return(0)
		return nil
	}
	e.Return(addr)
	return nil
}

func handlerCrtDbgReportStub(e *Emulator) error {
	e.Return(0)
	return nil
}

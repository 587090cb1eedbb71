package winapi

// kernel32's small string-helper exports, reimplemented directly
// against guest memory rather than forwarded to the host's libc the
// way a real loader would (spec.md §4.4.4).
func registerStringHandlers(c catalog) {
	c.add("kernel32.dll", "lstrlenA", 1, func(e *Emulator) error {
		s, err := e.ArgString(0, 1<<20)
		if err != nil {
			return err
		}
		e.Return(uint32(len(s)))
		return nil
	})
	c.add("kernel32.dll", "lstrcpyA", 2, func(e *Emulator) error {
		dst, err := e.Arg(0)
		if err != nil {
			return err
		}
		src, err := e.ArgString(1, 1<<20)
		if err != nil {
			return err
		}
		if _, err := e.Mem.WriteCString(dst, src); err != nil {
			return err
		}
		e.Return(dst)
		return nil
	})
	c.add("kernel32.dll", "lstrcatA", 2, func(e *Emulator) error {
		dst, err := e.Arg(0)
		if err != nil {
			return err
		}
		base, err := e.ArgString(0, 1<<20)
		if err != nil {
			return err
		}
		suffix, err := e.ArgString(1, 1<<20)
		if err != nil {
			return err
		}
		if _, err := e.Mem.WriteCString(dst+uint32(len(base)), suffix); err != nil {
			return err
		}
		e.Return(dst)
		return nil
	})
	c.add("kernel32.dll", "lstrcmpA", 2, func(e *Emulator) error {
		a, err := e.ArgString(0, 1<<20)
		if err != nil {
			return err
		}
		b, err := e.ArgString(1, 1<<20)
		if err != nil {
			return err
		}
		switch {
		case a < b:
			e.Return(^uint32(0))
		case a > b:
			e.Return(1)
		default:
			e.Return(0)
		}
		return nil
	})

	c.addCdecl("msvcrt.dll", "strlen", 1, func(e *Emulator) error {
		s, err := e.ArgString(0, 1<<20)
		if err != nil {
			return err
		}
		e.Return(uint32(len(s)))
		return nil
	})
	c.addCdecl("msvcrt.dll", "strcpy", 2, func(e *Emulator) error {
		dst, err := e.Arg(0)
		if err != nil {
			return err
		}
		src, err := e.ArgString(1, 1<<20)
		if err != nil {
			return err
		}
		if _, err := e.Mem.WriteCString(dst, src); err != nil {
			return err
		}
		e.Return(dst)
		return nil
	})
	c.addCdecl("msvcrt.dll", "strcmp", 2, func(e *Emulator) error {
		a, err := e.ArgString(0, 1<<20)
		if err != nil {
			return err
		}
		b, err := e.ArgString(1, 1<<20)
		if err != nil {
			return err
		}
		switch {
		case a < b:
			e.Return(^uint32(0))
		case a > b:
			e.Return(1)
		default:
			e.Return(0)
		}
		return nil
	})
}

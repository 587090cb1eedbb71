package winapi

// Time. A deterministic emulator cannot use the host clock and still
// produce reproducible runs (spec.md §4.4.4's "deterministic fixed
// values" requirement), so every time source returns a fixed epoch:
// 2000-01-01T00:00:00Z, and a monotonic tick counter driven off the
// CPU's own instruction count rather than wall-clock time.
const fixedUnixSeconds = 946684800 // 2000-01-01T00:00:00Z
const fixedFileTimeLow = 0xD53E8000
const fixedFileTimeHigh = 0x01BF1262

func registerTimeHandlers(c catalog) {
	c.add("kernel32.dll", "GetTickCount", 0, func(e *Emulator) error {
		e.Return(uint32(e.CPU.InstrCount / 1000))
		return nil
	})
	c.add("kernel32.dll", "GetTickCount64", 0, func(e *Emulator) error {
		e.Return(uint32(e.CPU.InstrCount / 1000))
		return nil
	})
	c.add("kernel32.dll", "GetSystemTimeAsFileTime", 1, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		if err := e.Mem.Write32(addr, fixedFileTimeLow); err != nil {
			return err
		}
		return e.Mem.Write32(addr+4, fixedFileTimeHigh)
	})
	c.add("kernel32.dll", "GetLocalTime", 1, func(e *Emulator) error {
		return e.writeFixedSystemTime(0)
	})
	c.add("kernel32.dll", "GetSystemTime", 1, func(e *Emulator) error {
		return e.writeFixedSystemTime(0)
	})
	c.addCdecl("msvcrt.dll", "time", 1, func(e *Emulator) error {
		out, err := e.Arg(0)
		if err != nil {
			return err
		}
		if out != 0 {
			if err := e.Mem.Write32(out, fixedUnixSeconds); err != nil {
				return err
			}
		}
		e.Return(fixedUnixSeconds)
		return nil
	})
	c.addCdecl("msvcrt.dll", "clock", 0, func(e *Emulator) error {
		e.Return(uint32(e.CPU.InstrCount / 1000))
		return nil
	})
	c.add("kernel32.dll", "QueryPerformanceCounter", 1, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		if err := e.Mem.Write32(addr, uint32(e.CPU.InstrCount)); err != nil {
			return err
		}
		return e.Mem.Write32(addr+4, 0)
	})
	c.add("kernel32.dll", "QueryPerformanceFrequency", 1, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		if err := e.Mem.Write32(addr, 1_000_000); err != nil {
			return err
		}
		e.Return(1)
		return nil
	})
}

// writeFixedSystemTime writes a SYSTEMTIME struct (16 bytes) for the
// fixed epoch at addr, the argument's own address.
func (e *Emulator) writeFixedSystemTime(argIdx int) error {
	addr, err := e.Arg(argIdx)
	if err != nil {
		return err
	}
	fields := []uint16{2000, 6, 4, 1, 0, 0, 0, 0}
	for i, v := range fields {
		if err := e.Mem.Write16(addr+uint32(i*2), v); err != nil {
			return err
		}
	}
	return nil
}

package winapi

// Locale and ANSI/wide-string encoding. This emulator fixes the active
// code page at 1252 (Windows Western European) per spec.md §4.4.4 and
// implements MultiByteToWideChar/WideCharToMultiByte as a direct
// byte<->UTF-16-code-unit widen/narrow, which is exact for the ASCII
// subset every target program's literal strings live in and a
// reasonable approximation outside it.
const codePage1252 = 1252

func registerLocaleHandlers(c catalog) {
	c.add("kernel32.dll", "GetACP", 0, func(e *Emulator) error {
		e.Return(codePage1252)
		return nil
	})
	c.add("kernel32.dll", "GetOEMCP", 0, func(e *Emulator) error {
		e.Return(codePage1252)
		return nil
	})
	c.add("kernel32.dll", "GetCPInfo", 2, func(e *Emulator) error {
		out, err := e.Arg(1)
		if err != nil {
			return err
		}
		if err := e.Mem.Write32(out, 1); err != nil { // MaxCharSize
			return err
		}
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "GetSystemDefaultLangID", 0, func(e *Emulator) error {
		e.Return(0x0409) // en-US
		return nil
	})
	c.add("kernel32.dll", "GetUserDefaultLCID", 0, func(e *Emulator) error {
		e.Return(0x0409)
		return nil
	})
	c.add("kernel32.dll", "IsValidCodePage", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})

	c.add("kernel32.dll", "MultiByteToWideChar", 6, func(e *Emulator) error {
		srcLen, err := e.Arg(3)
		if err != nil {
			return err
		}
		srcPtr, err := e.Arg(2)
		if err != nil {
			return err
		}
		dstPtr, err := e.Arg(4)
		if err != nil {
			return err
		}
		dstCap, err := e.Arg(5)
		if err != nil {
			return err
		}
		n := srcLen
		if n == 0xFFFFFFFF { // -1: NUL-terminated, caller wants it counted
			s, err := e.Mem.ReadCString(srcPtr, 4096)
			if err != nil {
				return err
			}
			n = uint32(len(s)) + 1
		}
		if dstCap == 0 {
			e.Return(n)
			return nil
		}
		bytes, err := e.Mem.ReadBytes(srcPtr, n)
		if err != nil {
			return err
		}
		out := make([]byte, 0, n*2)
		for _, b := range bytes {
			out = append(out, b, 0)
		}
		if uint32(len(out)/2) > dstCap {
			out = out[:dstCap*2]
		}
		if err := e.Mem.Load(dstPtr, out); err != nil {
			return err
		}
		e.Return(uint32(len(out) / 2))
		return nil
	})
	c.add("kernel32.dll", "WideCharToMultiByte", 8, func(e *Emulator) error {
		srcLen, err := e.Arg(3)
		if err != nil {
			return err
		}
		srcPtr, err := e.Arg(2)
		if err != nil {
			return err
		}
		dstPtr, err := e.Arg(4)
		if err != nil {
			return err
		}
		dstCap, err := e.Arg(5)
		if err != nil {
			return err
		}
		n := srcLen
		if n == 0xFFFFFFFF {
			n = 0
			for {
				v, err := e.Mem.Read16(srcPtr + n*2)
				if err != nil {
					return err
				}
				n++
				if v == 0 {
					break
				}
			}
		}
		wide, err := e.Mem.ReadBytes(srcPtr, n*2)
		if err != nil {
			return err
		}
		out := make([]byte, 0, n)
		for i := uint32(0); i+1 < uint32(len(wide)); i += 2 {
			out = append(out, wide[i])
		}
		if dstCap == 0 {
			e.Return(uint32(len(out)))
			return nil
		}
		if uint32(len(out)) > dstCap {
			out = out[:dstCap]
		}
		if err := e.Mem.Load(dstPtr, out); err != nil {
			return err
		}
		e.Return(uint32(len(out)))
		return nil
	})
}

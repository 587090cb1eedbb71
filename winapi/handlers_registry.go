package winapi

// Registry access against the JSON-backed store in registry.go
// (spec.md §4.4.5). Predefined roots (HKEY_CURRENT_USER etc.) are
// folded into the key path string itself rather than modeled as
// separate handles, since this emulator's registry has no real
// hierarchy to distinguish them.
const (
	regSZ    = 1
	regDWORD = 4

	errSuccess    = 0
	errFileNotFnd = 2
)

var predefinedRoots = map[uint32]string{
	0x80000000: "HKCR",
	0x80000001: "HKCU",
	0x80000002: "HKLM",
	0x80000003: "HKU",
}

func rootPrefix(hkey uint32) string {
	if p, ok := predefinedRoots[hkey]; ok {
		return p
	}
	return "HK?"
}

func registerRegistryHandlers(c catalog) {
	c.add("advapi32.dll", "RegOpenKeyExA", 5, func(e *Emulator) error {
		hkey, err := e.Arg(0)
		if err != nil {
			return err
		}
		subKey, err := e.ArgString(1, 260)
		if err != nil {
			return err
		}
		resultOut, err := e.Arg(4)
		if err != nil {
			return err
		}
		full := rootPrefix(hkey) + "\\" + subKey
		if _, ok := e.registry.openOrCreateKey(full, false); !ok {
			e.Return(errFileNotFnd)
			return nil
		}
		h := e.registry.handle(full)
		if err := e.Mem.Write32(resultOut, h); err != nil {
			return err
		}
		e.Return(errSuccess)
		return nil
	})
	c.add("advapi32.dll", "RegCreateKeyExA", 9, func(e *Emulator) error {
		hkey, err := e.Arg(0)
		if err != nil {
			return err
		}
		subKey, err := e.ArgString(1, 260)
		if err != nil {
			return err
		}
		resultOut, err := e.Arg(7)
		if err != nil {
			return err
		}
		full := rootPrefix(hkey) + "\\" + subKey
		e.registry.openOrCreateKey(full, true)
		h := e.registry.handle(full)
		if err := e.Mem.Write32(resultOut, h); err != nil {
			return err
		}
		if err := e.registry.save(); err != nil {
			return err
		}
		e.Return(errSuccess)
		return nil
	})
	c.add("advapi32.dll", "RegCloseKey", 1, func(e *Emulator) error {
		h, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.registry.closeHandle(h)
		e.Return(errSuccess)
		return nil
	})
	c.add("advapi32.dll", "RegQueryValueExA", 6, func(e *Emulator) error {
		h, err := e.Arg(0)
		if err != nil {
			return err
		}
		valueName, err := e.ArgString(1, 260)
		if err != nil {
			return err
		}
		typeOut, err := e.Arg(3)
		if err != nil {
			return err
		}
		dataOut, err := e.Arg(4)
		if err != nil {
			return err
		}
		sizeInOut, err := e.Arg(5)
		if err != nil {
			return err
		}
		vals, ok := e.registry.keyForHandle(h)
		if !ok {
			e.Return(errFileNotFnd)
			return nil
		}
		v, ok := vals[valueName]
		if !ok {
			e.Return(errFileNotFnd)
			return nil
		}
		if typeOut != 0 {
			if err := e.Mem.Write32(typeOut, v.Type); err != nil {
				return err
			}
		}
		switch v.Type {
		case regDWORD:
			if dataOut != 0 {
				if err := e.Mem.Write32(dataOut, v.Int); err != nil {
					return err
				}
			}
			if sizeInOut != 0 {
				if err := e.Mem.Write32(sizeInOut, 4); err != nil {
					return err
				}
			}
		default:
			n := uint32(len(v.Str)) + 1
			if dataOut != 0 {
				if _, err := e.Mem.WriteCString(dataOut, v.Str); err != nil {
					return err
				}
			}
			if sizeInOut != 0 {
				if err := e.Mem.Write32(sizeInOut, n); err != nil {
					return err
				}
			}
		}
		e.Return(errSuccess)
		return nil
	})
	c.add("advapi32.dll", "RegSetValueExA", 6, func(e *Emulator) error {
		h, err := e.Arg(0)
		if err != nil {
			return err
		}
		valueName, err := e.ArgString(1, 260)
		if err != nil {
			return err
		}
		valType, err := e.Arg(3)
		if err != nil {
			return err
		}
		dataPtr, err := e.Arg(4)
		if err != nil {
			return err
		}
		dataSize, err := e.Arg(5)
		if err != nil {
			return err
		}
		vals, ok := e.registry.keyForHandle(h)
		if !ok {
			e.Return(errFileNotFnd)
			return nil
		}
		var rv RegValue
		rv.Type = valType
		if valType == regDWORD {
			v, err := e.Mem.Read32(dataPtr)
			if err != nil {
				return err
			}
			rv.Int = v
		} else {
			buf, err := e.Mem.ReadBytes(dataPtr, dataSize)
			if err != nil {
				return err
			}
			rv.Str = trimNUL(buf)
		}
		vals[valueName] = rv
		if err := e.registry.save(); err != nil {
			return err
		}
		e.Return(errSuccess)
		return nil
	})
	c.add("advapi32.dll", "RegDeleteValueA", 2, func(e *Emulator) error {
		h, err := e.Arg(0)
		if err != nil {
			return err
		}
		valueName, err := e.ArgString(1, 260)
		if err != nil {
			return err
		}
		vals, ok := e.registry.keyForHandle(h)
		if !ok {
			e.Return(errFileNotFnd)
			return nil
		}
		delete(vals, valueName)
		if err := e.registry.save(); err != nil {
			return err
		}
		e.Return(errSuccess)
		return nil
	})
	c.add("advapi32.dll", "RegFlushKey", 1, func(e *Emulator) error {
		if err := e.registry.save(); err != nil {
			return err
		}
		e.Return(errSuccess)
		return nil
	})
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

package winapi

// File and directory I/O. spec.md §4.4.4 scopes this out to "reads
// fail, writes discard, fixed directory strings": a target program
// probing for config files or writing logs should see consistent,
// harmless failure rather than touching the host filesystem.
const invalidHandleValue = 0xFFFFFFFF

func registerFileHandlers(c catalog) {
	c.add("kernel32.dll", "CreateFileA", 7, func(e *Emulator) error {
		e.Return(invalidHandleValue)
		e.SetLastError(2) // ERROR_FILE_NOT_FOUND
		return nil
	})
	c.add("kernel32.dll", "ReadFile", 5, func(e *Emulator) error {
		bytesReadPtr, err := e.Arg(3)
		if err != nil {
			return err
		}
		if bytesReadPtr != 0 {
			if err := e.Mem.Write32(bytesReadPtr, 0); err != nil {
				return err
			}
		}
		e.Return(0)
		return nil
	})
	c.add("kernel32.dll", "WriteFile", 5, func(e *Emulator) error {
		size, err := e.Arg(2)
		if err != nil {
			return err
		}
		bytesWrittenPtr, err := e.Arg(3)
		if err != nil {
			return err
		}
		if bytesWrittenPtr != 0 {
			if err := e.Mem.Write32(bytesWrittenPtr, size); err != nil {
				return err
			}
		}
		e.Return(1) // the write silently succeeds and discards
		return nil
	})
	c.add("kernel32.dll", "CloseHandle", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "DeleteFileA", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "GetFileSize", 2, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.add("kernel32.dll", "GetFileAttributesA", 1, func(e *Emulator) error {
		e.Return(invalidHandleValue)
		return nil
	})
	c.add("kernel32.dll", "SetFilePointer", 4, func(e *Emulator) error {
		e.Return(0)
		return nil
	})

	c.add("kernel32.dll", "GetModuleFileNameA", 3, func(e *Emulator) error {
		buf, err := e.Arg(1)
		if err != nil {
			return err
		}
		size, err := e.Arg(2)
		if err != nil {
			return err
		}
		const fixedPath = "C:\\guest\\app.exe"
		n, err := e.writeFixedPath(buf, size, fixedPath)
		if err != nil {
			return err
		}
		e.Return(n)
		return nil
	})
	c.add("kernel32.dll", "GetCurrentDirectoryA", 2, func(e *Emulator) error {
		buf, err := e.Arg(1)
		if err != nil {
			return err
		}
		size, err := e.Arg(0)
		if err != nil {
			return err
		}
		n, err := e.writeFixedPath(buf, size, "C:\\guest")
		if err != nil {
			return err
		}
		e.Return(n)
		return nil
	})
	c.add("kernel32.dll", "GetTempPathA", 2, func(e *Emulator) error {
		size, err := e.Arg(0)
		if err != nil {
			return err
		}
		buf, err := e.Arg(1)
		if err != nil {
			return err
		}
		n, err := e.writeFixedPath(buf, size, "C:\\guest\\temp\\")
		if err != nil {
			return err
		}
		e.Return(n)
		return nil
	})
	c.add("kernel32.dll", "GetWindowsDirectoryA", 2, func(e *Emulator) error {
		buf, err := e.Arg(0)
		if err != nil {
			return err
		}
		size, err := e.Arg(1)
		if err != nil {
			return err
		}
		n, err := e.writeFixedPath(buf, size, "C:\\Windows")
		if err != nil {
			return err
		}
		e.Return(n)
		return nil
	})
}

// writeFixedPath writes path (capped to size-1 bytes, NUL-terminated)
// at buf and returns the length written excluding the terminator, the
// GetModuleFileName/GetCurrentDirectory family's shared return shape.
func (e *Emulator) writeFixedPath(buf, size uint32, path string) (uint32, error) {
	if size == 0 {
		return 0, nil
	}
	if uint32(len(path)) >= size {
		path = path[:size-1]
	}
	if _, err := e.Mem.WriteCString(buf, path); err != nil {
		return 0, err
	}
	return uint32(len(path)), nil
}

package winapi

// Error/exception reporting. GetLastError/SetLastError are backed by
// the per-thread TEB slot (teb.go); RaiseException logs and continues
// rather than unwinding, since this emulator has no SEH frame walker
// (spec.md §4.4.4, Non-goals exclude structured exception dispatch).
func registerErrorHandlers(c catalog) {
	c.add("kernel32.dll", "GetLastError", 0, func(e *Emulator) error {
		e.Return(e.GetLastError())
		return nil
	})
	c.add("kernel32.dll", "SetLastError", 1, func(e *Emulator) error {
		code, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.SetLastError(code)
		return nil
	})
	c.add("kernel32.dll", "RaiseException", 4, func(e *Emulator) error {
		code, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.Log.Warnf("guest raised exception 0x%08X at EIP=0x%08X", code, e.CPU.EIP)
		return nil
	})
	c.add("kernel32.dll", "UnhandledExceptionFilter", 1, func(e *Emulator) error {
		e.Return(1) // EXCEPTION_EXECUTE_HANDLER
		return nil
	})
	c.add("kernel32.dll", "SetUnhandledExceptionFilter", 1, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
}

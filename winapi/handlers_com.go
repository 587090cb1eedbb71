package winapi

// COM activation. Instantiating a real COM server is out of scope
// (spec.md §4.4.4 Non-goals), so CoCreateInstance reports the class
// simply isn't registered, the honest answer a real machine would give
// for almost any class a target program might probe for without the
// original install present.
const regDBEClassNotReg = 0x80040154

func registerCOMHandlers(c catalog) {
	c.add("ole32.dll", "CoInitialize", 1, func(e *Emulator) error {
		e.Return(0) // S_OK
		return nil
	})
	c.add("ole32.dll", "CoInitializeEx", 2, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.add("ole32.dll", "CoUninitialize", 0, func(e *Emulator) error {
		return nil
	})
	c.add("ole32.dll", "CoCreateInstance", 5, func(e *Emulator) error {
		e.Return(regDBEClassNotReg)
		return nil
	})
	c.add("ole32.dll", "CoCreateGuid", 1, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		return e.Mem.Fill(addr, 0, 16)
	})
}

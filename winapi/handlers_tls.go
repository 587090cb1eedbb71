package winapi

// Thread Local Storage and its Vista-era Fiber Local Storage sibling,
// backed by the fixed-size slot tables in heap.go's tlsState (spec.md
// §4.4.4). A single guest thread runs at a time, so "thread-local" here
// just means "global for the run".
func registerTLSHandlers(c catalog) {
	c.add("kernel32.dll", "TlsAlloc", 0, func(e *Emulator) error {
		idx, ok := e.tls.alloc()
		if !ok {
			e.Return(0xFFFFFFFF)
			return nil
		}
		e.Return(idx)
		return nil
	})
	c.add("kernel32.dll", "TlsFree", 1, func(e *Emulator) error {
		idx, err := e.Arg(0)
		if err != nil {
			return err
		}
		if e.tls.free(idx) {
			e.Return(1)
		} else {
			e.Return(0)
		}
		return nil
	})
	c.add("kernel32.dll", "TlsGetValue", 1, func(e *Emulator) error {
		idx, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.Return(e.tls.get(idx))
		return nil
	})
	c.add("kernel32.dll", "TlsSetValue", 2, func(e *Emulator) error {
		idx, err := e.Arg(0)
		if err != nil {
			return err
		}
		v, err := e.Arg(1)
		if err != nil {
			return err
		}
		if e.tls.set(idx, v) {
			e.Return(1)
		} else {
			e.Return(0)
		}
		return nil
	})

	c.add("kernel32.dll", "FlsAlloc", 1, func(e *Emulator) error {
		idx, ok := e.tls.flsAlloc()
		if !ok {
			e.Return(0xFFFFFFFF)
			return nil
		}
		e.Return(idx)
		return nil
	})
	c.add("kernel32.dll", "FlsGetValue", 1, func(e *Emulator) error {
		idx, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.Return(e.tls.flsGet(idx))
		return nil
	})
	c.add("kernel32.dll", "FlsSetValue", 2, func(e *Emulator) error {
		idx, err := e.Arg(0)
		if err != nil {
			return err
		}
		v, err := e.Arg(1)
		if err != nil {
			return err
		}
		if e.tls.flsSet(idx, v) {
			e.Return(1)
		} else {
			e.Return(0)
		}
		return nil
	})
	c.add("kernel32.dll", "FlsFree", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
}

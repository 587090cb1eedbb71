package winapi

// Synchronization primitives. This emulator never runs two threads at
// once (scheduler.go's cooperative model), so critical sections and
// mutexes are pure bookkeeping: every Enter/Leave or Wait succeeds
// immediately. Interlocked* still need real read-modify-write semantics
// since guest code inspects the returned old value.
func registerSyncHandlers(c catalog) {
	c.add("kernel32.dll", "InitializeCriticalSection", 1, noop1)
	c.add("kernel32.dll", "InitializeCriticalSectionAndSpinCount", 2, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "EnterCriticalSection", 1, noop1)
	c.add("kernel32.dll", "LeaveCriticalSection", 1, noop1)
	c.add("kernel32.dll", "DeleteCriticalSection", 1, noop1)
	c.add("kernel32.dll", "TryEnterCriticalSection", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})

	c.add("kernel32.dll", "CreateMutexA", 3, func(e *Emulator) error {
		e.Return(0x3000)
		return nil
	})
	c.add("kernel32.dll", "ReleaseMutex", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "CreateEventA", 4, func(e *Emulator) error {
		e.Return(0x3100)
		return nil
	})
	c.add("kernel32.dll", "SetEvent", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "ResetEvent", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "WaitForSingleObject", 2, func(e *Emulator) error {
		e.Return(0) // WAIT_OBJECT_0: every handle is already signaled
		return nil
	})
	c.add("kernel32.dll", "WaitForMultipleObjects", 4, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.add("kernel32.dll", "CloseHandle", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})

	c.add("kernel32.dll", "InterlockedIncrement", 1, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		v, err := e.Mem.Read32(addr)
		if err != nil {
			return err
		}
		v++
		if err := e.Mem.Write32(addr, v); err != nil {
			return err
		}
		e.Return(v)
		return nil
	})
	c.add("kernel32.dll", "InterlockedDecrement", 1, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		v, err := e.Mem.Read32(addr)
		if err != nil {
			return err
		}
		v--
		if err := e.Mem.Write32(addr, v); err != nil {
			return err
		}
		e.Return(v)
		return nil
	})
	c.add("kernel32.dll", "InterlockedExchange", 2, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		newVal, err := e.Arg(1)
		if err != nil {
			return err
		}
		old, err := e.Mem.Read32(addr)
		if err != nil {
			return err
		}
		if err := e.Mem.Write32(addr, newVal); err != nil {
			return err
		}
		e.Return(old)
		return nil
	})
	c.add("kernel32.dll", "InterlockedCompareExchange", 3, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		exchange, err := e.Arg(1)
		if err != nil {
			return err
		}
		comparand, err := e.Arg(2)
		if err != nil {
			return err
		}
		cur, err := e.Mem.Read32(addr)
		if err != nil {
			return err
		}
		if cur == comparand {
			if err := e.Mem.Write32(addr, exchange); err != nil {
				return err
			}
		}
		e.Return(cur)
		return nil
	})
}

func noop1(e *Emulator) error { return nil }

package winapi

// Threading: CreateThread/ResumeThread/SuspendThread/ExitThread/Sleep
// drive the cooperative scheduler in scheduler.go (spec.md §5). A
// thread created suspended (CREATE_SUSPENDED) stays off the runnable
// list until ResumeThread brings its suspend count to zero.
const createSuspended = 0x00000004

func registerThreadHandlers(c catalog) {
	c.add("kernel32.dll", "CreateThread", 6, func(e *Emulator) error {
		start, err := e.Arg(2)
		if err != nil {
			return err
		}
		param, err := e.Arg(3)
		if err != nil {
			return err
		}
		flags, err := e.Arg(5)
		if err != nil {
			return err
		}
		tidOut, err := e.Arg(4)
		if err != nil {
			return err
		}
		td, err := e.sched.createThread(start, param)
		if err != nil {
			e.Return(0)
			return nil
		}
		if flags&createSuspended != 0 {
			td.suspended = 1
		}
		if tidOut != 0 {
			if err := e.Mem.Write32(tidOut, td.tid); err != nil {
				return err
			}
		}
		e.Return(td.handle)
		return nil
	})
	c.add("kernel32.dll", "ResumeThread", 1, func(e *Emulator) error {
		handle, err := e.Arg(0)
		if err != nil {
			return err
		}
		td := e.sched.findByHandle(handle)
		if td == nil {
			e.Return(0xFFFFFFFF)
			return nil
		}
		prev := td.suspended
		if td.suspended > 0 {
			td.suspended--
		}
		e.Return(uint32(prev))
		return nil
	})
	c.add("kernel32.dll", "SuspendThread", 1, func(e *Emulator) error {
		handle, err := e.Arg(0)
		if err != nil {
			return err
		}
		td := e.sched.findByHandle(handle)
		if td == nil {
			e.Return(0xFFFFFFFF)
			return nil
		}
		prev := td.suspended
		td.suspended++
		e.Return(uint32(prev))
		return nil
	})
	c.add("kernel32.dll", "ExitThread", 1, func(e *Emulator) error {
		e.CPU.Halt()
		return nil
	})
	c.add("kernel32.dll", "TerminateThread", 2, func(e *Emulator) error {
		handle, err := e.Arg(0)
		if err != nil {
			return err
		}
		if td := e.sched.findByHandle(handle); td != nil {
			td.completed = true
		}
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "Sleep", 1, func(e *Emulator) error {
		if err := e.sleep(); err != nil {
			return err
		}
		return nil
	})
	c.add("kernel32.dll", "SleepEx", 2, func(e *Emulator) error {
		if err := e.sleep(); err != nil {
			return err
		}
		e.Return(0)
		return nil
	})
	c.add("kernel32.dll", "SwitchToThread", 0, func(e *Emulator) error {
		ran, err := e.sched.runOne()
		if err != nil {
			return err
		}
		if ran {
			e.Return(1)
		} else {
			e.Return(0)
		}
		return nil
	})
}

package winapi

import "w32run/cpu"

// cpuSnapshot captures every piece of CPU state a context switch needs
// to save and restore: general registers, EIP, EFlags, and the x87
// stack. It does not include Mem, which every thread shares.
type cpuSnapshot struct {
	regs   [8]uint32
	eip    uint32
	eflags uint32
	fpu    cpu.FPU
}

func snapshotCPU(c *cpu.CPU) cpuSnapshot {
	return cpuSnapshot{regs: c.Regs, eip: c.EIP, eflags: c.EFlags, fpu: c.FPU}
}

func (s cpuSnapshot) restore(c *cpu.CPU) {
	c.Regs = s.regs
	c.EIP = s.eip
	c.EFlags = s.eflags
	c.FPU = s.fpu
}

// threadDescriptor is one cooperative "thread": CreateThread's entry
// point and parameter, its suspend count, and whatever CPU state it had
// when it was last switched away from.
type threadDescriptor struct {
	handle    uint32
	tid       uint32
	start     uint32
	param     uint32
	suspended int
	completed bool
	started   bool
	snapshot  cpuSnapshot
	stackTop  uint32
}

// scheduler implements the single-CPU cooperative model spec.md §5
// describes: CreateThread enqueues a descriptor, Sleep(0) and
// ResumeThread give other runnable threads a turn, and every thread
// gets at most budget instructions before the run loop forces a
// switch. There is exactly one real cpu.CPU; switching a thread in
// means restoring its snapshot into that CPU, and switching out means
// saving it back into the descriptor.
type scheduler struct {
	e      *Emulator
	budget int

	threads   []*threadDescriptor
	current   int // index into threads of the running thread, -1 for main
	nextTID   uint32
	idleSleep int
}

const (
	mainThreadID            = 1
	schedulerIdleThreshold  = 50
	threadHandleBase        = 0x2000
)

func newScheduler(e *Emulator, budget int) *scheduler {
	if budget <= 0 {
		budget = 1_000_000
	}
	return &scheduler{e: e, budget: budget, current: -1, nextTID: mainThreadID + 1}
}

// installSchedulerHooks is a no-op placement hook kept for symmetry
// with LoadImage's other install* calls; the scheduler's state is
// already fully built by newEmulator, and thread creation itself
// happens lazily from the CreateThread handler.
func (e *Emulator) installSchedulerHooks() {}

// createThread allocates a new thread descriptor with its own stack,
// seeded with the entry point and parameter CreateThread was given, and
// returns its pseudo-handle.
func (s *scheduler) createThread(start, param uint32) (*threadDescriptor, error) {
	stackTop, err := s.e.setupStack()
	if err != nil {
		return nil, err
	}
	td := &threadDescriptor{
		handle:   threadHandleBase + uint32(len(s.threads)),
		tid:      s.nextTID,
		start:    start,
		param:    param,
		stackTop: stackTop,
	}
	s.nextTID++
	s.threads = append(s.threads, td)
	return td, nil
}

func (s *scheduler) findByHandle(handle uint32) *threadDescriptor {
	for _, td := range s.threads {
		if td.handle == handle {
			return td
		}
	}
	return nil
}

// runOne gives one runnable, not-yet-completed, not-suspended thread a
// time slice of up to s.budget instructions, saving the main thread's
// CPU state first and restoring it afterward. It returns false if no
// thread was runnable, the signal Sleep uses to drive the idle-liveness
// safeguard.
func (s *scheduler) runOne() (bool, error) {
	idx := -1
	for i, td := range s.threads {
		if !td.completed && td.suspended == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	td := s.threads[idx]

	callerSnapshot := snapshotCPU(s.e.CPU)
	callerESP := s.e.CPU.Regs[cpu.ESP]

	if td.started {
		td.snapshot.restore(s.e.CPU)
	} else {
		s.e.CPU.Regs = [8]uint32{}
		s.e.CPU.Regs[cpu.ESP] = td.stackTop
		s.e.CPU.EIP = td.start
		s.e.CPU.Regs[cpu.ECX] = td.param // fastcall-ish: thread trampoline reads param off ECX/stack per the loader's thread entry stub
		s.e.CPU.EFlags = 0
		td.started = true
	}
	s.e.CPU.State = cpu.Running

	ran := 0
	for ran < s.budget && s.e.CPU.State == cpu.Running && !td.completed {
		if err := s.e.CPU.Step(); err != nil {
			callerSnapshot.restore(s.e.CPU)
			s.e.CPU.Regs[cpu.ESP] = callerESP
			s.e.CPU.State = cpu.Running
			return true, err
		}
		ran++
	}
	if s.e.CPU.State != cpu.Running {
		td.completed = true
	} else {
		td.snapshot = snapshotCPU(s.e.CPU)
	}

	callerSnapshot.restore(s.e.CPU)
	s.e.CPU.Regs[cpu.ESP] = callerESP
	s.e.CPU.State = cpu.Running
	return true, nil
}

// threadReturnHandler is installed as the sentinel return address every
// thread stack is seeded with (spec.md §5): when a thread function
// returns normally instead of calling ExitThread, control lands here
// and the thread is marked completed exactly as ExitThread(0) would.
func (e *Emulator) threadReturnHandler(em *Emulator) error {
	em.CPU.Halt()
	return nil
}

// sleep implements the Sleep() Win32 call: it gives every other
// runnable thread a turn before returning, and raises ErrSchedulerIdle
// if schedulerIdleThreshold consecutive Sleep calls found nothing
// runnable, the liveness safeguard spec.md §5 requires so a guest that
// Sleep-polls forever for a thread that will never finish doesn't spin
// the host forever either.
func (e *Emulator) sleep() error {
	ran, err := e.sched.runOne()
	if err != nil {
		return err
	}
	if !ran {
		e.sched.idleSleep++
		if e.sched.idleSleep >= schedulerIdleThreshold {
			return &ErrSchedulerIdle{SleepCount: e.sched.idleSleep}
		}
		return nil
	}
	e.sched.idleSleep = 0
	return nil
}

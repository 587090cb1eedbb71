package winapi

import (
	"testing"

	"w32run/cpu"
)

func TestCreateThreadRunOneReachesReturnSentinel(t *testing.T) {
	e := newTestEmulator(t)

	const entry = 0x00050000
	// A bare RET pops the thread-return sentinel setupStack pre-pushed
	// onto this thread's stack, landing on the sentinel trampoline and
	// completing the thread exactly as a thread function falling off
	// its end (instead of calling ExitThread) would.
	if err := e.Mem.Load(entry, []byte{0xC3}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	td, err := e.sched.createThread(entry, 0xCAFEBABE)
	if err != nil {
		t.Fatalf("createThread failed: %v", err)
	}
	if td.completed {
		t.Fatalf("freshly created thread should not be completed")
	}

	callerESP := e.CPU.Regs[cpu.ESP]
	ran, err := e.sched.runOne()
	if err != nil {
		t.Fatalf("runOne failed: %v", err)
	}
	if !ran {
		t.Fatalf("runOne reported no runnable thread")
	}
	if e.CPU.Regs[cpu.ESP] != callerESP {
		t.Errorf("caller ESP not restored: got 0x%X want 0x%X", e.CPU.Regs[cpu.ESP], callerESP)
	}
	if !td.completed {
		t.Errorf("thread should be marked completed after executing HLT")
	}
}

func TestRunOneFalseWhenNoThreads(t *testing.T) {
	e := newTestEmulator(t)
	ran, err := e.sched.runOne()
	if err != nil {
		t.Fatalf("runOne failed: %v", err)
	}
	if ran {
		t.Errorf("runOne should report false with no threads created")
	}
}

func TestSleepRaisesErrSchedulerIdleAfterThreshold(t *testing.T) {
	e := newTestEmulator(t)
	var lastErr error
	for i := 0; i < schedulerIdleThreshold; i++ {
		lastErr = e.sleep()
	}
	if lastErr == nil {
		t.Fatalf("expected ErrSchedulerIdle after %d idle Sleep calls", schedulerIdleThreshold)
	}
	if _, ok := lastErr.(*ErrSchedulerIdle); !ok {
		t.Errorf("err = %T, want *ErrSchedulerIdle", lastErr)
	}
}

func TestSleepResetsIdleCounterWhenThreadRunnable(t *testing.T) {
	e := newTestEmulator(t)
	const entry = 0x00051000
	if err := e.Mem.Load(entry, []byte{0xC3}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for i := 0; i < schedulerIdleThreshold-1; i++ {
		if err := e.sleep(); err != nil {
			t.Fatalf("unexpected error before threshold: %v", err)
		}
	}
	if _, err := e.sched.createThread(entry, 0); err != nil {
		t.Fatalf("createThread failed: %v", err)
	}
	if err := e.sleep(); err != nil {
		t.Fatalf("sleep with a runnable thread should not error: %v", err)
	}
	if e.sched.idleSleep != 0 {
		t.Errorf("idleSleep = %d, want 0 after a runnable Sleep", e.sched.idleSleep)
	}
}

package winapi

import (
	"io"
	"testing"

	"w32run/cpu"
	"w32run/internal/config"
	"w32run/internal/log"
	"w32run/vmem"
)

// newTestEmulator builds an Emulator with no loaded image, enough for
// exercising calling-convention, trampoline, and scheduler logic that
// does not depend on a real PE file being parsed.
func newTestEmulator(t *testing.T) *Emulator {
	t.Helper()
	mem, err := vmem.New(1 << 22)
	if err != nil {
		t.Fatalf("vmem.New failed: %v", err)
	}
	t.Cleanup(func() { mem.Close() })

	e := &Emulator{
		Mem:         mem,
		Cfg:         config.New("test.exe", nil),
		Log:         log.NewHelper(log.NewStdLogger(io.Discard)),
		trampolines: make(map[uint32]*stub),
		patches:     make(map[uint32]Handler),
		dllBases:    make(map[string]uint32),
		nextDLL:     DLLBaseStart,
		heap:        newHeapState(),
		tls:         newTLSState(),
	}
	e.CPU = cpu.New(mem)
	e.CPU.OnInterrupt(e.dispatchInterrupt)
	e.sched = newScheduler(e, 1000)
	reg, err := loadRegistry(t.TempDir() + "/registry.json")
	if err != nil {
		t.Fatalf("loadRegistry failed: %v", err)
	}
	e.registry = reg
	e.CPU.Regs[cpu.ESP] = 0x10000
	return e
}

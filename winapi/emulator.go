// Package winapi is the OS emulation layer: it loads a 32-bit PE image
// into a vmem.Memory-backed address space, drives a cpu.CPU over it,
// and answers every imported Win32 call through a trampoline/handler
// table instead of a real kernel (spec.md §4.4). This generalizes the
// teacher's pe package from a passive parser into the thing an actual
// loader would drive, the way saferwall's own sandbox/multiav tooling
// (referenced by the sibling example repos) layers behavior on top of
// the same parse tree.
package winapi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"w32run/cpu"
	"w32run/internal/config"
	"w32run/internal/log"
	"w32run/pe"
	"w32run/vmem"
)

// Handler is a single Win32 API implementation. It runs with the CPU
// already past the CALL (EIP pointing at the trampoline's RET), reads
// its arguments via e.Arg(i), and is responsible for calling a cleanup
// convention before returning.
type Handler func(e *Emulator) error

// stub describes one installed trampoline: the dll!name it answers for
// and the handler that implements it.
type stub struct {
	dll     string
	name    string
	ordinal uint16
	handler Handler
}

// Emulator is the whole running guest: CPU, memory, loaded image, and
// every piece of host-side state a Win32 handler might need to touch
// (heap, TLS, registry, scheduler). Win32 handlers receive it and
// nothing else, the same way the teacher's pe.File is the single
// object every parser stage hangs off.
type Emulator struct {
	CPU   *cpu.CPU
	Mem   *vmem.Memory
	Image *pe.File
	Cfg   config.Config
	Log   *log.Helper

	ImageBase uint32

	trampolines map[uint32]*stub
	patches     map[uint32]Handler
	nextSlot    uint32

	dllBases map[string]uint32
	nextDLL  uint32

	heap     *heapState
	tls      *tlsState
	registry *Registry
	sched    *scheduler

	tebAddr uint32
	pebAddr uint32

	lastError   uint32
	exitCode    int32
	terminated  bool
}

// Run loads exePath, resolves its imports against the DLLs visible
// under dllSearchPaths, and executes it to completion. It is the single
// entrypoint cmd/w32run calls.
func Run(exePath string, dllSearchPaths []string) (int, error) {
	cfg := config.New(exePath, dllSearchPaths)
	return RunConfig(cfg)
}

// RunConfig is Run with a pre-built Config, used by tests and by a CLI
// that wants to override the defaults New applies.
func RunConfig(cfg config.Config) (int, error) {
	base := log.NewStdLogger(os.Stderr)
	logger := log.NewFilter(base, log.FilterLevel(log.LevelInfo))
	if cfg.Verbose {
		logger = log.NewFilter(base, log.FilterLevel(log.LevelDebug))
	}
	e, err := newEmulator(cfg, log.NewHelper(logger))
	if err != nil {
		return 1, err
	}
	defer e.Mem.Close()

	if err := e.LoadImage(); err != nil {
		return 1, fmt.Errorf("winapi: load %s: %w", cfg.ExePath, err)
	}
	e.installSchedulerHooks()

	return e.runLoop()
}

func newEmulator(cfg config.Config, logger *log.Helper) (*Emulator, error) {
	mem, err := vmem.New(cfg.VirtualMemSize)
	if err != nil {
		return nil, err
	}
	e := &Emulator{
		Mem:         mem,
		Cfg:         cfg,
		Log:         logger,
		trampolines: make(map[uint32]*stub),
		patches:     make(map[uint32]Handler),
		nextSlot:    0,
		dllBases:    make(map[string]uint32),
		nextDLL:     DLLBaseStart,
	}
	e.CPU = cpu.New(mem)
	e.CPU.OnInterrupt(e.dispatchInterrupt)
	e.CPU.OnException(e.onFault)

	reg, err := loadRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}
	e.registry = reg
	e.heap = newHeapState()
	e.tls = newTLSState()
	e.sched = newScheduler(e, cfg.ThreadSliceBudget)
	return e, nil
}

// onFault is the ExceptionHandler registered with the CPU: it logs the
// fault address and instruction count before Step propagates the error
// up to runLoop.
func (e *Emulator) onFault(c *cpu.CPU, err error) {
	var term *GuestTerminated
	if asGuestTerminated(err, &term) {
		return
	}
	e.Log.Errorf("fault at EIP=0x%08X (instr #%d): %v", c.EIP, c.InstrCount, err)
}

// runLoop drives the CPU one Step at a time until it halts, faults, or
// the guest calls ExitProcess (surfaced as a GuestTerminated error from
// a handler, caught here rather than in Step).
func (e *Emulator) runLoop() (int, error) {
	for !e.CPU.Halted() {
		if err := e.CPU.Step(); err != nil {
			var term *GuestTerminated
			if asGuestTerminated(err, &term) {
				return int(term.ExitCode), nil
			}
			return 1, err
		}
		if e.terminated {
			return int(e.exitCode), nil
		}
	}
	if fault := e.CPU.LastFault(); fault != nil {
		var term *GuestTerminated
		if asGuestTerminated(fault, &term) {
			return int(term.ExitCode), nil
		}
		return 1, fault
	}
	return int(e.exitCode), nil
}

func asGuestTerminated(err error, target **GuestTerminated) bool {
	for err != nil {
		if t, ok := err.(*GuestTerminated); ok {
			*target = t
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// dllKey normalizes a DLL name for lookup: lowercase, no path, .dll
// extension present (spec.md §4.4 import resolution is case-insensitive
// by filename only).
func dllKey(name string) string {
	name = strings.ToLower(filepath.Base(name))
	if !strings.HasSuffix(name, ".dll") {
		name += ".dll"
	}
	return name
}

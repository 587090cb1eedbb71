// Package config assembles the options the run command needs: the
// guest executable path, DLL search directories, and the handful of
// emulator tunables spec.md §9 calls out as things that must not be
// hardcoded (the scheduler's instruction budget, CRT patch addresses).
// This generalizes the teacher's own "flags into a plain struct"
// pattern (cmd/pedumper.go's dump config) from a dump-options bag to
// a run-options bag.
package config

import "os"

// Patches holds guest addresses of CRT internals short-circuited by
// the loader (spec.md §4.4.4). Zero means "leave unpatched".
type Patches struct {
	SBHHeapInit   uint32
	SBHAllocBlock uint32
	CrtDbgReport  uint32
}

// Config is the full set of knobs the run command needs.
type Config struct {
	ExePath           string
	DLLSearchPaths    []string
	RegistryPath      string
	ThreadSliceBudget int
	VirtualMemSize    uint32
	Verbose           bool
	Patches           Patches
}

const (
	// DefaultThreadSliceBudget resolves spec.md §9's diverging
	// 100,000-vs-1,000,000 source constants in favor of the larger one.
	DefaultThreadSliceBudget = 1_000_000
	// DefaultVirtualMemSize is the guest address space size (spec.md §6).
	DefaultVirtualMemSize = 1 << 30
	defaultRegistryPath   = "registry.json"
)

// New builds a Config for exePath and dllSearchPaths, applying
// environment-variable overrides on top of the defaults:
// W32RUN_REGISTRY, W32RUN_THREAD_BUDGET, W32RUN_VMEM_SIZE.
func New(exePath string, dllSearchPaths []string) Config {
	cfg := Config{
		ExePath:           exePath,
		DLLSearchPaths:    dllSearchPaths,
		RegistryPath:      defaultRegistryPath,
		ThreadSliceBudget: DefaultThreadSliceBudget,
		VirtualMemSize:    DefaultVirtualMemSize,
	}
	if v := os.Getenv("W32RUN_REGISTRY"); v != "" {
		cfg.RegistryPath = v
	}
	if v := os.Getenv("W32RUN_THREAD_BUDGET"); v != "" {
		if n, ok := parseUint(v); ok {
			cfg.ThreadSliceBudget = int(n)
		}
	}
	if v := os.Getenv("W32RUN_VMEM_SIZE"); v != "" {
		if n, ok := parseUint(v); ok {
			cfg.VirtualMemSize = uint32(n)
		}
	}
	return cfg
}

func parseUint(s string) (uint64, bool) {
	var n uint64
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + uint64(r-'0')
	}
	return n, true
}

package winapi

// Guest address space layout (spec.md §6 "fixed conventions"). These
// are defaults; nothing in the loader depends on the exact numbers
// beyond non-overlap, so a future Config field could move any one of
// them without touching the rest of the package.
const (
	// TrampolineBase is the reserved region holding CD FE C3 stubs for
	// every imported symbol, every patched CRT address, and the thread
	// return sentinel.
	TrampolineBase = 0x00200000
	// trampolineStride is the per-stub size: 3 bytes of code (CD FE C3)
	// padded to a round number with INT3 (0xCC).
	trampolineStride = 16
	// maxTrampolines bounds the reserved region to 64K stubs, far more
	// than any real import table needs.
	maxTrampolines = 0x10000

	// TEBBase and PEBBase sit just above the trampoline region.
	TEBBase = 0x00280000
	PEBBase = 0x00281000

	// DLLBaseStart is where the DLL base-address allocator begins
	// handing out non-overlapping ranges.
	DLLBaseStart = 0x10000000
	dllBaseSlot  = 0x00100000

	// HeapBase is where the bump allocator backing HeapAlloc/LocalAlloc/
	// GlobalAlloc starts.
	HeapBase = 0x04000000
	HeapSize = 0x01000000

	// VirtualAllocBase is where VirtualAlloc reservations start, 64 KiB
	// aligned as spec.md §6 requires.
	VirtualAllocBase  = 0x05000000
	virtualAllocAlign = 0x10000

	// StackLimit bounds how far the stack may grow down from the top of
	// the configured address space.
	StackSize = 0x00100000

	// argvBlockBase holds the synthetic argc/argv/envp block CRT init
	// reads (spec.md §4.4.4 "CRT runtime").
	ArgvBlockBase = 0x00290000
)

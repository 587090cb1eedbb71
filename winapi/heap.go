package winapi

import "fmt"

// heapState is a bump allocator backing every Win32 allocation API
// (HeapAlloc, LocalAlloc, GlobalAlloc, VirtualAlloc): spec.md §4.4.4
// explicitly allows a single linear allocator instead of a real free
// list, since nothing in the target programs depends on reuse or
// fragmentation behavior. Freed blocks are tracked only so Free/Size/
// Validate calls on a live pointer behave sanely; the space itself is
// never reclaimed.
type heapState struct {
	next   uint32
	limit  uint32
	blocks map[uint32]uint32 // address -> size, live allocations only

	processHeap uint32

	vaNext  uint32
	vaLimit uint32
}

func newHeapState() *heapState {
	return &heapState{
		next:        HeapBase,
		limit:       HeapBase + HeapSize,
		blocks:      make(map[uint32]uint32),
		processHeap: HeapBase, // fixed handle value, Open Question decision: single process heap
		vaNext:      VirtualAllocBase,
		vaLimit:     VirtualAllocBase + HeapSize*4,
	}
}

// alloc carves size bytes (8-byte aligned) off the bump region. A heap
// handle is accepted but ignored beyond bookkeeping: every handle the
// emulator hands out resolves to the same underlying arena.
func (h *heapState) alloc(size uint32) (uint32, error) {
	size = (size + 7) &^ 7
	if size == 0 {
		size = 8
	}
	if h.next+size > h.limit {
		return 0, fmt.Errorf("winapi: heap exhausted allocating %d bytes", size)
	}
	addr := h.next
	h.next += size
	h.blocks[addr] = size
	return addr, nil
}

func (h *heapState) free(addr uint32) bool {
	if _, ok := h.blocks[addr]; !ok {
		return false
	}
	delete(h.blocks, addr)
	return true
}

func (h *heapState) size(addr uint32) (uint32, bool) {
	s, ok := h.blocks[addr]
	return s, ok
}

// virtualAlloc reserves/commits size bytes rounded up to the 64 KiB
// allocation granularity spec.md §4.4.4 requires of VirtualAlloc.
func (h *heapState) virtualAlloc(size uint32) (uint32, error) {
	size = (size + virtualAllocAlign - 1) &^ (virtualAllocAlign - 1)
	if size == 0 {
		size = virtualAllocAlign
	}
	if h.vaNext+size > h.vaLimit {
		return 0, fmt.Errorf("winapi: VirtualAlloc region exhausted allocating %d bytes", size)
	}
	addr := h.vaNext
	h.vaNext += size
	return addr, nil
}

// tlsState backs TlsAlloc/TlsGetValue/TlsSetValue/TlsFree and their Fiber
// Local Storage counterparts with a small fixed-size slot table, since
// this emulator only ever runs one guest thread at a time (spec.md §5
// cooperative scheduling, never true parallelism).
type tlsState struct {
	slots    [64]uint32
	used     [64]bool
	flsSlots [64]uint32
	flsUsed  [64]bool
}

func newTLSState() *tlsState {
	return &tlsState{}
}

func (t *tlsState) alloc() (uint32, bool) {
	for i := range t.used {
		if !t.used[i] {
			t.used[i] = true
			t.slots[i] = 0
			return uint32(i), true
		}
	}
	return 0, false
}

func (t *tlsState) free(idx uint32) bool {
	if idx >= uint32(len(t.used)) || !t.used[idx] {
		return false
	}
	t.used[idx] = false
	return true
}

func (t *tlsState) get(idx uint32) uint32 {
	if idx >= uint32(len(t.slots)) {
		return 0
	}
	return t.slots[idx]
}

func (t *tlsState) set(idx, v uint32) bool {
	if idx >= uint32(len(t.slots)) || !t.used[idx] {
		return false
	}
	t.slots[idx] = v
	return true
}

func (t *tlsState) flsAlloc() (uint32, bool) {
	for i := range t.flsUsed {
		if !t.flsUsed[i] {
			t.flsUsed[i] = true
			t.flsSlots[i] = 0
			return uint32(i), true
		}
	}
	return 0, false
}

func (t *tlsState) flsGet(idx uint32) uint32 {
	if idx >= uint32(len(t.flsSlots)) {
		return 0
	}
	return t.flsSlots[idx]
}

func (t *tlsState) flsSet(idx, v uint32) bool {
	if idx >= uint32(len(t.flsSlots)) || !t.flsUsed[idx] {
		return false
	}
	t.flsSlots[idx] = v
	return true
}

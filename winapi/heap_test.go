package winapi

import "testing"

func TestHeapAllocDistinctNonOverlapping(t *testing.T) {
	h := newHeapState()
	a, err := h.alloc(16)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	b, err := h.alloc(32)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	if a == b {
		t.Fatalf("two allocations returned the same address")
	}
	if b < a+16 {
		t.Errorf("second allocation at 0x%X overlaps first at 0x%X+16", b, a)
	}
}

func TestHeapFreeThenSize(t *testing.T) {
	h := newHeapState()
	addr, err := h.alloc(8)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	if _, ok := h.size(addr); !ok {
		t.Fatalf("size lookup failed for live block")
	}
	if !h.free(addr) {
		t.Fatalf("free returned false for a live block")
	}
	if _, ok := h.size(addr); ok {
		t.Errorf("size lookup succeeded after free")
	}
}

func TestVirtualAllocAlignment(t *testing.T) {
	h := newHeapState()
	addr, err := h.virtualAlloc(1)
	if err != nil {
		t.Fatalf("virtualAlloc failed: %v", err)
	}
	if addr%virtualAllocAlign != 0 {
		t.Errorf("addr 0x%X is not %d-aligned", addr, virtualAllocAlign)
	}
	second, err := h.virtualAlloc(1)
	if err != nil {
		t.Fatalf("virtualAlloc failed: %v", err)
	}
	if second != addr+virtualAllocAlign {
		t.Errorf("second allocation at 0x%X, want 0x%X", second, addr+virtualAllocAlign)
	}
}

func TestTLSAllocSetGet(t *testing.T) {
	tl := newTLSState()
	idx, ok := tl.alloc()
	if !ok {
		t.Fatalf("alloc failed")
	}
	if !tl.set(idx, 0xABCD) {
		t.Fatalf("set failed")
	}
	if got := tl.get(idx); got != 0xABCD {
		t.Errorf("get = 0x%X, want 0xABCD", got)
	}
	if !tl.free(idx) {
		t.Fatalf("free failed")
	}
	if tl.set(idx, 1) {
		t.Errorf("set succeeded on a freed slot")
	}
}

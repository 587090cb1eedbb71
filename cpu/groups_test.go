package cpu

import "testing"

func TestShiftGroupSHL(t *testing.T) {
	c, mem := newTestCPU(t)
	c.Regs[EAX] = 1
	// C1 /4 ib: SHL EAX, imm8. ModRM=0xE0 (mod=11 reg=100 rm=000)
	load(t, mem, 0, []byte{0xC1, 0xE0, 0x02})
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if c.Regs[EAX] != 4 {
		t.Errorf("EAX = %d, want 4", c.Regs[EAX])
	}
}

func TestShiftGroupSHR(t *testing.T) {
	c, mem := newTestCPU(t)
	c.Regs[EAX] = 0x80000000
	// C1 /5 ib: SHR EAX, imm8. ModRM=0xE8 (reg=101)
	load(t, mem, 0, []byte{0xC1, 0xE8, 0x01})
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if c.Regs[EAX] != 0x40000000 {
		t.Errorf("EAX = 0x%08X, want 0x40000000", c.Regs[EAX])
	}
	if c.EFlags&FlagCF == 0 {
		t.Errorf("CF should be set (last bit shifted out was 0 in this case)")
	}
}

func TestShiftGroupROL(t *testing.T) {
	c, mem := newTestCPU(t)
	c.Regs[EAX] = 0x80000000
	// C1 /0 ib: ROL EAX, 1. ModRM=0xC0 (reg=000)
	load(t, mem, 0, []byte{0xC1, 0xC0, 0x01})
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if c.Regs[EAX] != 1 {
		t.Errorf("EAX = 0x%08X, want 1", c.Regs[EAX])
	}
}

func TestGroup3NegAndNot(t *testing.T) {
	c, mem := newTestCPU(t)
	c.Regs[EAX] = 5
	// F7 /3: NEG EAX. ModRM=0xD8 (reg=011, rm=000)
	load(t, mem, 0, []byte{0xF7, 0xD8})
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if c.Regs[EAX] != uint32(-5) {
		t.Errorf("EAX = %d, want -5", int32(c.Regs[EAX]))
	}
	if c.EFlags&FlagCF == 0 {
		t.Errorf("NEG of nonzero operand should set CF")
	}

	c2, mem2 := newTestCPU(t)
	c2.Regs[EAX] = 0x0F0F0F0F
	// F7 /2: NOT EAX. ModRM=0xD0 (reg=010)
	load(t, mem2, 0, []byte{0xF7, 0xD0})
	if err := c2.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if c2.Regs[EAX] != 0xF0F0F0F0 {
		t.Errorf("EAX = 0x%08X, want 0xF0F0F0F0", c2.Regs[EAX])
	}
}

func TestGroup3MulWidens(t *testing.T) {
	c, mem := newTestCPU(t)
	c.Regs[EAX] = 0x10000
	c.Regs[ECX] = 0x10000
	// F7 /4: MUL ECX. ModRM=0xE1 (reg=100, rm=001)
	load(t, mem, 0, []byte{0xF7, 0xE1})
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if c.Regs[EAX] != 0 {
		t.Errorf("EAX (low) = 0x%08X, want 0", c.Regs[EAX])
	}
	if c.Regs[EDX] != 1 {
		t.Errorf("EDX (high) = 0x%08X, want 1", c.Regs[EDX])
	}
	if c.EFlags&FlagCF == 0 {
		t.Errorf("MUL with nonzero high half should set CF/OF")
	}
}

func TestFPUAddRoundTrip(t *testing.T) {
	c, mem := newTestCPU(t)
	// Write a m32real value of 2.0 at address 0x1000.
	if err := mem.Write32(0x1000, 0x40000000); err != nil { // float32(2.0) bits
		t.Fatalf("Write32 failed: %v", err)
	}
	c.FPU.push(3.0)
	// D8 /0, ModRM for disp32 absolute: mod=00 reg=000 rm=101 = 0x05, then imm32 addr.
	load(t, mem, 0, []byte{0xD8, 0x05, 0x00, 0x10, 0x00, 0x00})
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if got := c.FPU.st(0); got != 5.0 {
		t.Errorf("ST(0) = %v, want 5.0", got)
	}
}

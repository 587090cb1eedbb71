package cpu

import (
	"testing"

	"w32run/vmem"
)

func newTestCPU(t *testing.T) (*CPU, *vmem.Memory) {
	t.Helper()
	mem, err := vmem.New(1 << 16)
	if err != nil {
		t.Fatalf("vmem.New failed: %v", err)
	}
	t.Cleanup(func() { mem.Close() })
	c := New(mem)
	c.EIP = 0
	c.Regs[ESP] = 0xF000
	return c, mem
}

func load(t *testing.T, mem *vmem.Memory, addr uint32, code []byte) {
	t.Helper()
	if err := mem.Load(addr, code); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}

func TestMovImm32(t *testing.T) {
	c, mem := newTestCPU(t)
	// MOV EAX, 0x12345678 (B8 + imm32)
	load(t, mem, 0, []byte{0xB8, 0x78, 0x56, 0x34, 0x12})
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if c.Regs[EAX] != 0x12345678 {
		t.Errorf("EAX = 0x%08X, want 0x12345678", c.Regs[EAX])
	}
	if c.EIP != 5 {
		t.Errorf("EIP = %d, want 5", c.EIP)
	}
}

func TestCallRet(t *testing.T) {
	c, mem := newTestCPU(t)
	// At 0: CALL rel32 to 10 (E8 05 00 00 00 -> target = 5+5 = 10)
	load(t, mem, 0, []byte{0xE8, 0x05, 0x00, 0x00, 0x00})
	// At 10: RET (C3)
	load(t, mem, 10, []byte{0xC3})

	if err := c.Step(); err != nil { // CALL
		t.Fatalf("CALL step failed: %v", err)
	}
	if c.EIP != 10 {
		t.Fatalf("EIP after CALL = %d, want 10", c.EIP)
	}
	if err := c.Step(); err != nil { // RET
		t.Fatalf("RET step failed: %v", err)
	}
	if c.EIP != 5 {
		t.Errorf("EIP after RET = %d, want 5 (return address)", c.EIP)
	}
}

func TestJccTaken(t *testing.T) {
	c, mem := newTestCPU(t)
	c.EFlags |= FlagZF
	// JE rel8 +4 (74 04), at EIP=0 -> after fetch EIP=2, target=6
	load(t, mem, 0, []byte{0x74, 0x04})
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if c.EIP != 6 {
		t.Errorf("EIP = %d, want 6 (jump taken)", c.EIP)
	}
}

func TestJccNotTaken(t *testing.T) {
	c, mem := newTestCPU(t)
	c.EFlags &^= FlagZF
	load(t, mem, 0, []byte{0x74, 0x04})
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if c.EIP != 2 {
		t.Errorf("EIP = %d, want 2 (jump not taken, fallthrough)", c.EIP)
	}
}

func TestUnknownOpcodeFaults(t *testing.T) {
	c, mem := newTestCPU(t)
	load(t, mem, 0, []byte{0x0F, 0xFF}) // undefined 0F extension
	if err := c.Step(); err == nil {
		t.Fatalf("Step should have faulted on unknown opcode")
	}
	if c.State != Faulted {
		t.Errorf("State = %v, want Faulted", c.State)
	}
	if c.LastFault() == nil {
		t.Errorf("LastFault() is nil after fault")
	}
}

func TestInterruptDispatch(t *testing.T) {
	c, mem := newTestCPU(t)
	var gotVector uint8
	c.OnInterrupt(func(cpu *CPU, vector uint8) error {
		gotVector = vector
		return nil
	})
	load(t, mem, 0, []byte{0xCD, 0xFE}) // INT 0xFE
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if gotVector != 0xFE {
		t.Errorf("handler saw vector 0x%02X, want 0xFE", gotVector)
	}
}

func TestUnhandledInterruptFaults(t *testing.T) {
	c, mem := newTestCPU(t)
	load(t, mem, 0, []byte{0xCD, 0x80})
	if err := c.Step(); err == nil {
		t.Fatalf("expected fault for unhandled interrupt")
	}
	if _, ok := c.LastFault().(*UnhandledInterruptError); !ok {
		t.Errorf("LastFault() = %T, want *UnhandledInterruptError", c.LastFault())
	}
}

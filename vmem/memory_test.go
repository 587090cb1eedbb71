package vmem

import "testing"

func TestReadWriteRoundTrip(t *testing.T) {
	m, err := New(1 << 16)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	if err := m.Write32(0x100, 0xDEADBEEF); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}
	got, err := m.Read32(0x100)
	if err != nil {
		t.Fatalf("Read32 failed: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Errorf("Read32 got 0x%08X, want 0xDEADBEEF", got)
	}

	if err := m.Write16(0x200, 0xBEEF); err != nil {
		t.Fatalf("Write16 failed: %v", err)
	}
	got16, err := m.Read16(0x200)
	if err != nil {
		t.Fatalf("Read16 failed: %v", err)
	}
	if got16 != 0xBEEF {
		t.Errorf("Read16 got 0x%04X, want 0xBEEF", got16)
	}

	if err := m.Write8(0x300, 0xAB); err != nil {
		t.Fatalf("Write8 failed: %v", err)
	}
	got8, err := m.Read8(0x300)
	if err != nil {
		t.Fatalf("Read8 failed: %v", err)
	}
	if got8 != 0xAB {
		t.Errorf("Read8 got 0x%02X, want 0xAB", got8)
	}
}

func TestOutOfRange(t *testing.T) {
	m, err := New(0x1000)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	_, size := m.Bounds()

	if _, err := m.Read32(size - 2); err == nil {
		t.Errorf("Read32 near the end should fail, got nil error")
	}
	if _, err := m.Read8(size); err == nil {
		t.Errorf("Read8 at size should be out of range")
	}
}

func TestCStringRoundTrip(t *testing.T) {
	m, err := New(1 << 12)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	n, err := m.WriteCString(0x10, "hello")
	if err != nil {
		t.Fatalf("WriteCString failed: %v", err)
	}
	if n != 6 {
		t.Errorf("WriteCString wrote %d bytes, want 6", n)
	}
	s, err := m.ReadCString(0x10, 100)
	if err != nil {
		t.Fatalf("ReadCString failed: %v", err)
	}
	if s != "hello" {
		t.Errorf("ReadCString got %q, want %q", s, "hello")
	}
}

func TestFillAndLoad(t *testing.T) {
	m, err := New(1 << 12)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	if err := m.Fill(0, 0xCC, 16); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	b, err := m.ReadBytes(0, 16)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	for i, v := range b {
		if v != 0xCC {
			t.Errorf("byte %d = 0x%02X, want 0xCC", i, v)
		}
	}

	if err := m.Load(100, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, err := m.Read32(100)
	if err != nil {
		t.Fatalf("Read32 failed: %v", err)
	}
	if want := uint32(0x04030201); got != want {
		t.Errorf("Read32 after Load got 0x%08X, want 0x%08X", got, want)
	}
}

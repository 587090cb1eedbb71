// Package vmem implements the emulator's flat, byte-addressable guest
// address space: a single contiguous region addressed by 32-bit
// unsigned guest pointers, little-endian for every access width.
package vmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DefaultSize is the default guest address space size: at least 1 GiB
// per spec.md §3, large enough to hold the main image, the DLL base
// address range, the bump heap, and a high stack.
const DefaultSize = 1 << 30

// OutOfRangeError is raised for any access outside [0, size). It carries
// the offending address so diagnostics can classify the fault (stack
// overrun, wild pointer, unmapped DLL range, ...).
type OutOfRangeError struct {
	Addr uint32
	Size uint32
	Op   string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("vmem: %s at 0x%08X is outside bounds [0, 0x%08X)", e.Op, e.Addr, e.Size)
}

// Memory is the guest's flat address space. The zero value is not
// usable; construct with New.
type Memory struct {
	data []byte
}

// New reserves a guest address space of the given size, backed by an
// anonymous mmap region rather than a plain Go slice: pages are
// committed lazily as the guest touches them, which matters at the
// ~1 GiB scale spec.md requires. size is rounded up to the host page
// size by the kernel; callers should not assume an exact match.
func New(size uint32) (*Memory, error) {
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("vmem: mmap %d bytes: %w", size, err)
	}
	return &Memory{data: b}, nil
}

// Close releases the backing mapping. Not calling it leaks the mapping
// until process exit, which is the expected lifetime for a one-shot
// interpreter run.
func (m *Memory) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

// Bounds returns the addressable range [0, size).
func (m *Memory) Bounds() (base, size uint32) {
	return 0, uint32(len(m.data))
}

func (m *Memory) check(addr uint32, width uint32, op string) error {
	if addr > uint32(len(m.data)) || uint32(len(m.data))-addr < width {
		return &OutOfRangeError{Addr: addr, Size: uint32(len(m.data)), Op: op}
	}
	return nil
}

// Read8 reads one unsigned byte at addr.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	if err := m.check(addr, 1, "read8"); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

// Read16 reads a little-endian unsigned 16-bit value at addr.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	if err := m.check(addr, 2, "read16"); err != nil {
		return 0, err
	}
	return uint16(m.data[addr]) | uint16(m.data[addr+1])<<8, nil
}

// Read32 reads a little-endian unsigned 32-bit value at addr.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	if err := m.check(addr, 4, "read32"); err != nil {
		return 0, err
	}
	return uint32(m.data[addr]) | uint32(m.data[addr+1])<<8 |
		uint32(m.data[addr+2])<<16 | uint32(m.data[addr+3])<<24, nil
}

// ReadSigned8 reads a sign-extended 8-bit value at addr.
func (m *Memory) ReadSigned8(addr uint32) (int32, error) {
	v, err := m.Read8(addr)
	if err != nil {
		return 0, err
	}
	return int32(int8(v)), nil
}

// ReadSigned16 reads a sign-extended 16-bit value at addr.
func (m *Memory) ReadSigned16(addr uint32) (int32, error) {
	v, err := m.Read16(addr)
	if err != nil {
		return 0, err
	}
	return int32(int16(v)), nil
}

// Write8 stores one byte at addr.
func (m *Memory) Write8(addr uint32, v uint8) error {
	if err := m.check(addr, 1, "write8"); err != nil {
		return err
	}
	m.data[addr] = v
	return nil
}

// Write16 stores a little-endian 16-bit value at addr.
func (m *Memory) Write16(addr uint32, v uint16) error {
	if err := m.check(addr, 2, "write16"); err != nil {
		return err
	}
	m.data[addr] = byte(v)
	m.data[addr+1] = byte(v >> 8)
	return nil
}

// Write32 stores a little-endian 32-bit value at addr.
func (m *Memory) Write32(addr uint32, v uint32) error {
	if err := m.check(addr, 4, "write32"); err != nil {
		return err
	}
	m.data[addr] = byte(v)
	m.data[addr+1] = byte(v >> 8)
	m.data[addr+2] = byte(v >> 16)
	m.data[addr+3] = byte(v >> 24)
	return nil
}

// Load bulk-copies data into the guest address space starting at addr,
// used by the image loader to materialize section bytes and by
// handlers that write whole buffers (e.g. ReadFile, BSTR allocation).
func (m *Memory) Load(addr uint32, data []byte) error {
	if err := m.check(addr, uint32(len(data)), "load"); err != nil {
		return err
	}
	copy(m.data[addr:], data)
	return nil
}

// Fill writes n copies of b starting at addr, used for zero-initializing
// bump-allocated heap regions (HEAP_ZERO_MEMORY) without materializing a
// temporary buffer.
func (m *Memory) Fill(addr uint32, b byte, n uint32) error {
	if err := m.check(addr, n, "fill"); err != nil {
		return err
	}
	region := m.data[addr : addr+n]
	for i := range region {
		region[i] = b
	}
	return nil
}

// ReadBytes returns a copy of n bytes starting at addr.
func (m *Memory) ReadBytes(addr uint32, n uint32) ([]byte, error) {
	if err := m.check(addr, n, "readBytes"); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.data[addr:addr+n])
	return out, nil
}

// ReadCString reads a NUL-terminated byte string starting at addr, up to
// maxLen bytes, used for ANSI Win32 string arguments.
func (m *Memory) ReadCString(addr uint32, maxLen uint32) (string, error) {
	if err := m.check(addr, 0, "readCString"); err != nil {
		return "", err
	}
	end := addr
	limit := addr + maxLen
	if limit < addr { // overflow
		limit = uint32(len(m.data))
	}
	for end < uint32(len(m.data)) && end < limit && m.data[end] != 0 {
		end++
	}
	return string(m.data[addr:end]), nil
}

// WriteCString writes s followed by a NUL terminator at addr and
// returns the number of bytes written including the terminator.
func (m *Memory) WriteCString(addr uint32, s string) (uint32, error) {
	if err := m.Load(addr, []byte(s)); err != nil {
		return 0, err
	}
	if err := m.Write8(addr+uint32(len(s)), 0); err != nil {
		return 0, err
	}
	return uint32(len(s)) + 1, nil
}

// Package cpu implements the IA-32 interpreter: decode and execute a
// subset of i386 instructions sufficient to run an MSVC-compiled
// 32-bit C/C++ program, as described in spec §4.3. The dispatch-table
// shape (flat [256]func arrays keyed by opcode, an O(1) register index
// array instead of a big switch) follows the pattern reference x86
// interpreters in the retrieval pack use; the state machine, flag
// semantics, and trampoline/segment handling are this module's own,
// built directly to the emulator's contract.
package cpu

import (
	"fmt"
)

// Register indices in standard Intel ModR/M order.
const (
	EAX = iota
	ECX
	EDX
	EBX
	ESP
	EBP
	ESI
	EDI
	numRegs
)

var regNames = [numRegs]string{"EAX", "ECX", "EDX", "EBX", "ESP", "EBP", "ESI", "EDI"}

// EFLAGS bit positions this emulator models (spec §3).
const (
	FlagCF = 1 << 0
	FlagPF = 1 << 2
	FlagAF = 1 << 4
	FlagZF = 1 << 6
	FlagSF = 1 << 7
	FlagTF = 1 << 8
	FlagIF = 1 << 9
	FlagDF = 1 << 10
	FlagOF = 1 << 11
)

// Segment is a segment-prefix override: None, FS, or GS (spec §4.3).
type Segment int

const (
	SegNone Segment = iota
	SegFS
	SegGS
)

// Memory is the guest address space the interpreter reads instructions
// and operands from. vmem.Memory implements it directly.
type Memory interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Read32(addr uint32) (uint32, error)
	ReadSigned8(addr uint32) (int32, error)
	ReadSigned16(addr uint32) (int32, error)
	Write8(addr uint32, v uint8) error
	Write16(addr uint32, v uint16) error
	Write32(addr uint32, v uint32) error
}

// State is one of the interpreter's three observable states (spec §4.3).
type State int

const (
	Running State = iota
	Halted
	Faulted
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	case Faulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// FPU is the x87 floating-point state: an eight-register stack
// represented as 64-bit host floats, plus the control/status/tag words
// spec §3 requires. ST(0) is ST[Top].
type FPU struct {
	ST          [8]float64
	Top         uint8
	ControlWord uint16
	TagWord     uint16
	// StatusFlags holds the condition-code bits (C0-C3) of the status
	// word; Top is folded in separately when FNSTSW materializes the
	// full 16-bit word.
	StatusFlags uint16
}

// statusWord assembles the full 16-bit x87 status word from Top and
// StatusFlags, per the FSTSW/FNSTSW contract.
func (f *FPU) statusWord() uint16 {
	return (f.StatusFlags &^ (0x7 << 11)) | (uint16(f.Top) << 11)
}

// push rotates the stack down (Top decrements, wrapping mod 8) and
// stores v in the new ST(0), mirroring real x87 stack semantics.
func (f *FPU) push(v float64) {
	f.Top = (f.Top - 1) & 7
	f.ST[f.Top] = v
	f.TagWord &^= 3 << (2 * f.Top)
}

// pop returns the current ST(0) and rotates the stack up.
func (f *FPU) pop() float64 {
	v := f.ST[f.Top]
	f.TagWord |= 3 << (2 * f.Top)
	f.Top = (f.Top + 1) & 7
	return v
}

func (f *FPU) st(i int) float64 {
	return f.ST[(int(f.Top)+i)&7]
}

func (f *FPU) setSt(i int, v float64) {
	f.ST[(int(f.Top)+i)&7] = v
}

// InterruptHandler is invoked for every software interrupt (INT imm8,
// including INT3). Returning a non-nil error marks the interrupt
// unhandled, which the interpreter surfaces as a fault.
type InterruptHandler func(cpu *CPU, vector uint8) error

// ExceptionHandler observes every fault the interpreter raises. The
// default handler (if none is registered) simply halts.
type ExceptionHandler func(cpu *CPU, err error)

// CPU holds the full interpreter state: general registers, EIP,
// EFLAGS, the x87 stack, and the hooks the OS emulation layer installs
// to intercept interrupts and faults.
type CPU struct {
	Regs   [numRegs]uint32
	EIP    uint32
	EFlags uint32
	FPU    FPU

	// FSBase/GSBase are the effective linear addresses segment-prefixed
	// memory operands resolve against. FSBase is set to the TEB address
	// by the OS emulation layer at initialization; GSBase defaults to
	// the same value (spec §4.3 "GS base equals FS base by default").
	FSBase uint32
	GSBase uint32

	Mem Memory

	State      State
	InstrCount uint64

	onInterrupt InterruptHandler
	onException ExceptionHandler

	lastFault error
}

// New constructs an interpreter over the given guest memory. EIP,
// ESP and the FS/GS bases are left zero; the caller (winapi loader)
// sets initial CPU state before the first Step.
func New(mem Memory) *CPU {
	return &CPU{Mem: mem, State: Running}
}

// OnInterrupt registers the handler invoked for software interrupts.
func (c *CPU) OnInterrupt(h InterruptHandler) { c.onInterrupt = h }

// OnException registers the handler invoked when Step surfaces a fault.
func (c *CPU) OnException(h ExceptionHandler) { c.onException = h }

// Halted reports whether the interpreter has stopped (Halted or Faulted).
func (c *CPU) Halted() bool { return c.State != Running }

// LastFault returns the error that last drove the interpreter into the
// Faulted state, or nil.
func (c *CPU) LastFault() error { return c.lastFault }

// Halt transitions the interpreter to Halted, used by ExitProcess-style
// handlers and the thread-return sentinel.
func (c *CPU) Halt() { c.State = Halted }

// fault transitions the interpreter to Faulted, invokes the exception
// hook if one is registered, and returns the error unchanged so Step's
// caller sees it too.
func (c *CPU) fault(err error) error {
	c.State = Faulted
	c.lastFault = err
	if c.onException != nil {
		c.onException(c, err)
	}
	return err
}

// UnknownOpcodeError is raised when the decoder meets a byte pattern it
// does not implement (spec §7).
type UnknownOpcodeError struct {
	EIP   uint32
	Bytes []byte
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode at EIP=0x%08X: % X", e.EIP, e.Bytes)
}

// UnhandledInterruptError is raised for a software interrupt with no
// registered handler (spec §7).
type UnhandledInterruptError struct {
	Vector uint8
	EIP    uint32
}

func (e *UnhandledInterruptError) Error() string {
	return fmt.Sprintf("unhandled interrupt 0x%02X at EIP=0x%08X", e.Vector, e.EIP)
}

// fetch8 reads one byte at EIP and advances EIP.
func (c *CPU) fetch8() (uint8, error) {
	b, err := c.Mem.Read8(c.EIP)
	if err != nil {
		return 0, err
	}
	c.EIP++
	return b, nil
}

func (c *CPU) fetch16() (uint16, error) {
	v, err := c.Mem.Read16(c.EIP)
	if err != nil {
		return 0, err
	}
	c.EIP += 2
	return v, nil
}

func (c *CPU) fetch32() (uint32, error) {
	v, err := c.Mem.Read32(c.EIP)
	if err != nil {
		return 0, err
	}
	c.EIP += 4
	return v, nil
}

// Step fetches one instruction at EIP, executes it, and updates EIP and
// state. Any error transitions the interpreter to Faulted and invokes
// the exception hook before being returned.
func (c *CPU) Step() error {
	if c.State != Running {
		return nil
	}
	c.InstrCount++
	startEIP := c.EIP

	seg := SegNone
	opcode, err := c.fetch8()
	if err != nil {
		return c.fault(err)
	}
	// Segment override prefixes (spec §4.3): 0x64 FS, 0x65 GS.
	for opcode == 0x64 || opcode == 0x65 {
		if opcode == 0x64 {
			seg = SegFS
		} else {
			seg = SegGS
		}
		opcode, err = c.fetch8()
		if err != nil {
			return c.fault(err)
		}
	}

	if opcode == 0x0F {
		ext, err := c.fetch8()
		if err != nil {
			return c.fault(err)
		}
		if err := c.exec0F(ext, seg); err != nil {
			return c.fault(err)
		}
		return nil
	}

	if err := c.exec(opcode, seg); err != nil {
		return c.fault(err)
	}
	_ = startEIP
	return nil
}

// unknownOpcode builds the UnknownOpcodeError for the instruction that
// started at eip, including opcode (and any already-fetched prefix
// bytes) for the diagnostic dump spec §7 requires.
func (c *CPU) unknownOpcode(eip uint32, bytes ...uint8) error {
	return &UnknownOpcodeError{EIP: eip, Bytes: bytes}
}

// segBase returns the linear base address a segment override adds to
// an effective address computation.
func (c *CPU) segBase(seg Segment) uint32 {
	switch seg {
	case SegFS:
		return c.FSBase
	case SegGS:
		return c.GSBase
	default:
		return 0
	}
}

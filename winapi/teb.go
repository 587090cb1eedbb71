package winapi

// TEB/PEB field offsets this emulator actually reads or writes. Real
// Windows carries hundreds of fields; spec.md §4.4.6 only requires the
// handful that FS:-relative guest code and the handler catalog touch:
// the SEH exception list head, the stack bounds, the self pointer, and
// the PEB pointer.
const (
	tebOffExceptionList  = 0x00
	tebOffStackBase      = 0x04
	tebOffStackLimit     = 0x08
	tebOffSelf           = 0x18
	tebOffProcessID      = 0x20
	tebOffThreadID       = 0x24
	tebOffLastError      = 0x34
	tebOffPEB            = 0x30
	tebSize              = 0x1000

	pebOffImageBase     = 0x08
	pebOffProcessHeap   = 0x18
	pebSize             = 0x1000

	noSEHFrame = 0xFFFFFFFF
)

// resolveFSRelative turns an FS:-relative offset into a linear address
// in the current thread's TEB, the contract cpu.CPU.FSBase exists for.
func (e *Emulator) resolveFSRelative(offset uint32) uint32 {
	return e.CPU.FSBase + offset
}

// setupTEBPEB writes the main thread's TEB and the process PEB at their
// fixed addresses (winapi.TEBBase / winapi.PEBBase) and points FS/GS at
// the TEB, per spec.md §4.4.6.
func (e *Emulator) setupTEBPEB(stackTop uint32) error {
	e.tebAddr = TEBBase
	e.pebAddr = PEBBase

	writes := []struct {
		addr uint32
		val  uint32
	}{
		{e.tebAddr + tebOffExceptionList, noSEHFrame},
		{e.tebAddr + tebOffStackBase, stackTop},
		{e.tebAddr + tebOffStackLimit, stackTop - StackSize},
		{e.tebAddr + tebOffSelf, e.tebAddr},
		{e.tebAddr + tebOffProcessID, 1000},
		{e.tebAddr + tebOffThreadID, 1001},
		{e.tebAddr + tebOffLastError, 0},
		{e.tebAddr + tebOffPEB, e.pebAddr},
		{e.pebAddr + pebOffImageBase, e.ImageBase},
	}
	for _, w := range writes {
		if err := e.Mem.Write32(w.addr, w.val); err != nil {
			return err
		}
	}
	return nil
}

// GetLastError / SetLastError implement the TEB-backed per-thread error
// code spec.md §4.4.4's "error/exception" group describes.
func (e *Emulator) GetLastError() uint32 {
	v, _ := e.Mem.Read32(e.resolveFSRelative(tebOffLastError))
	return v
}

func (e *Emulator) SetLastError(code uint32) {
	_ = e.Mem.Write32(e.resolveFSRelative(tebOffLastError), code)
}

// setupStack reserves StackSize bytes below the top of the address
// space's stack region and returns the initial ESP, 16-byte aligned,
// with a synthetic return address (the thread-return sentinel) pushed
// so the guest's own RET on main()/WinMain() returning lands in the
// scheduler rather than running off the end of the image.
func (e *Emulator) setupStack() (uint32, error) {
	_, memSize := e.Mem.Bounds()
	top := memSize - 0x1000
	top &^= 0xF
	sentinel, err := e.installStub("", "$thread_return", 0, e.threadReturnHandler)
	if err != nil {
		return 0, err
	}
	sp := top - 4
	if err := e.Mem.Write32(sp, sentinel); err != nil {
		return 0, err
	}
	return sp, nil
}

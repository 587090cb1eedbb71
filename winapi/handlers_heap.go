package winapi

// Heap, virtual memory, and the LocalAlloc/GlobalAlloc families all
// answer out of the single bump allocator in heap.go (spec.md §4.4.4,
// Open Question decision: one process heap handle for every request).
const heapZeroMemory = 0x00000008

func registerHeapHandlers(c catalog) {
	c.add("kernel32.dll", "GetProcessHeap", 0, func(e *Emulator) error {
		e.Return(e.heap.processHeap)
		return nil
	})
	c.add("kernel32.dll", "HeapCreate", 3, func(e *Emulator) error {
		e.Return(e.heap.processHeap)
		return nil
	})
	c.add("kernel32.dll", "HeapDestroy", 1, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "HeapAlloc", 3, func(e *Emulator) error {
		flags, err := e.Arg(1)
		if err != nil {
			return err
		}
		size, err := e.Arg(2)
		if err != nil {
			return err
		}
		addr, err := e.heap.alloc(size)
		if err != nil {
			e.Return(0)
			return nil
		}
		if flags&heapZeroMemory != 0 {
			if err := e.Mem.Fill(addr, 0, e.heap.blocks[addr]); err != nil {
				return err
			}
		}
		e.Return(addr)
		return nil
	})
	c.add("kernel32.dll", "HeapReAlloc", 4, func(e *Emulator) error {
		flags, err := e.Arg(1)
		if err != nil {
			return err
		}
		oldPtr, err := e.Arg(2)
		if err != nil {
			return err
		}
		size, err := e.Arg(3)
		if err != nil {
			return err
		}
		newAddr, err := e.heap.alloc(size)
		if err != nil {
			e.Return(0)
			return nil
		}
		if oldSize, ok := e.heap.size(oldPtr); ok {
			n := oldSize
			if size < n {
				n = size
			}
			buf, err := e.Mem.ReadBytes(oldPtr, n)
			if err != nil {
				return err
			}
			if err := e.Mem.Load(newAddr, buf); err != nil {
				return err
			}
			e.heap.free(oldPtr)
		}
		if flags&heapZeroMemory != 0 {
			if err := e.Mem.Fill(newAddr, 0, e.heap.blocks[newAddr]); err != nil {
				return err
			}
		}
		e.Return(newAddr)
		return nil
	})
	c.add("kernel32.dll", "HeapFree", 3, func(e *Emulator) error {
		ptr, err := e.Arg(2)
		if err != nil {
			return err
		}
		e.heap.free(ptr)
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "HeapSize", 3, func(e *Emulator) error {
		ptr, err := e.Arg(2)
		if err != nil {
			return err
		}
		size, ok := e.heap.size(ptr)
		if !ok {
			e.Return(0xFFFFFFFF)
			return nil
		}
		e.Return(size)
		return nil
	})
	c.add("kernel32.dll", "HeapValidate", 3, func(e *Emulator) error {
		e.Return(1)
		return nil
	})

	c.add("kernel32.dll", "VirtualAlloc", 4, func(e *Emulator) error {
		addrArg, err := e.Arg(0)
		if err != nil {
			return err
		}
		size, err := e.Arg(1)
		if err != nil {
			return err
		}
		if addrArg != 0 {
			e.Return(addrArg)
			return nil
		}
		addr, err := e.heap.virtualAlloc(size)
		if err != nil {
			e.Return(0)
			return nil
		}
		e.Return(addr)
		return nil
	})
	c.add("kernel32.dll", "VirtualFree", 3, func(e *Emulator) error {
		e.Return(1)
		return nil
	})
	c.add("kernel32.dll", "VirtualProtect", 4, func(e *Emulator) error {
		oldProtect, err := e.Arg(3)
		if err != nil {
			return err
		}
		if oldProtect != 0 {
			if err := e.Mem.Write32(oldProtect, 0x04); err != nil { // PAGE_READWRITE
				return err
			}
		}
		e.Return(1)
		return nil
	})

	c.add("kernel32.dll", "LocalAlloc", 2, func(e *Emulator) error {
		flags, err := e.Arg(0)
		if err != nil {
			return err
		}
		size, err := e.Arg(1)
		if err != nil {
			return err
		}
		addr, err := e.heap.alloc(size)
		if err != nil {
			e.Return(0)
			return nil
		}
		if flags&0x0040 != 0 { // LPTR implies LMEM_ZEROINIT
			if err := e.Mem.Fill(addr, 0, e.heap.blocks[addr]); err != nil {
				return err
			}
		}
		e.Return(addr)
		return nil
	})
	c.add("kernel32.dll", "LocalFree", 1, func(e *Emulator) error {
		ptr, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.heap.free(ptr)
		e.Return(0)
		return nil
	})
	c.add("kernel32.dll", "GlobalAlloc", 2, func(e *Emulator) error {
		size, err := e.Arg(1)
		if err != nil {
			return err
		}
		addr, err := e.heap.alloc(size)
		if err != nil {
			e.Return(0)
			return nil
		}
		e.Return(addr)
		return nil
	})
	c.add("kernel32.dll", "GlobalFree", 1, func(e *Emulator) error {
		ptr, err := e.Arg(0)
		if err != nil {
			return err
		}
		e.heap.free(ptr)
		e.Return(0)
		return nil
	})
}

package winapi

// OLE Automation's BSTR: a length-prefixed wide string where the
// pointer guest code holds and passes around points PAST the 4-byte
// length prefix, per the real OLE BSTR contract spec.md §4.4.4 calls
// out. SysFreeString must therefore always rewind by 4 bytes before
// freeing. VARIANT is treated as an opaque 16-byte blob; VariantInit
// just zeroes it.
const bstrPrefixSize = 4

func registerOLEHandlers(c catalog) {
	c.add("oleaut32.dll", "SysAllocString", 1, func(e *Emulator) error {
		srcPtr, err := e.Arg(0)
		if err != nil {
			return err
		}
		if srcPtr == 0 {
			e.Return(0)
			return nil
		}
		n := uint32(0)
		for {
			v, err := e.Mem.Read16(srcPtr + n*2)
			if err != nil {
				return err
			}
			if v == 0 {
				break
			}
			n++
		}
		addr, err := e.allocBSTR(srcPtr, n)
		if err != nil {
			return err
		}
		e.Return(addr)
		return nil
	})
	c.add("oleaut32.dll", "SysAllocStringLen", 2, func(e *Emulator) error {
		srcPtr, err := e.Arg(0)
		if err != nil {
			return err
		}
		n, err := e.Arg(1)
		if err != nil {
			return err
		}
		addr, err := e.allocBSTR(srcPtr, n)
		if err != nil {
			return err
		}
		e.Return(addr)
		return nil
	})
	c.add("oleaut32.dll", "SysFreeString", 1, func(e *Emulator) error {
		bstr, err := e.Arg(0)
		if err != nil {
			return err
		}
		if bstr != 0 {
			e.heap.free(bstr - bstrPrefixSize)
		}
		return nil
	})
	c.add("oleaut32.dll", "SysStringLen", 1, func(e *Emulator) error {
		bstr, err := e.Arg(0)
		if err != nil {
			return err
		}
		if bstr == 0 {
			e.Return(0)
			return nil
		}
		n, err := e.Mem.Read32(bstr - bstrPrefixSize)
		if err != nil {
			return err
		}
		e.Return(n / 2)
		return nil
	})
	c.add("oleaut32.dll", "VariantInit", 1, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		return e.Mem.Fill(addr, 0, 16)
	})
	c.add("oleaut32.dll", "VariantClear", 1, func(e *Emulator) error {
		addr, err := e.Arg(0)
		if err != nil {
			return err
		}
		return e.Mem.Fill(addr, 0, 16)
	})
}

// allocBSTR writes byteLen bytes from srcPtr (or zeros, if srcPtr is 0)
// into a fresh heap block prefixed by its byte length, and returns the
// guest pointer just past the prefix, the address OLE Automation calls
// the BSTR itself.
func (e *Emulator) allocBSTR(srcPtr, charLen uint32) (uint32, error) {
	byteLen := charLen * 2
	block, err := e.heap.alloc(byteLen + bstrPrefixSize + 2)
	if err != nil {
		return 0, err
	}
	if err := e.Mem.Write32(block, byteLen); err != nil {
		return 0, err
	}
	data := block + bstrPrefixSize
	if srcPtr != 0 {
		buf, err := e.Mem.ReadBytes(srcPtr, byteLen)
		if err != nil {
			return 0, err
		}
		if err := e.Mem.Load(data, buf); err != nil {
			return 0, err
		}
	} else {
		if err := e.Mem.Fill(data, 0, byteLen); err != nil {
			return 0, err
		}
	}
	if err := e.Mem.Write16(data+byteLen, 0); err != nil {
		return 0, err
	}
	return data, nil
}

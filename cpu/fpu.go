package cpu

import "math"

// execFPU decodes one of the D8-DF x87 escape opcodes. Only the working
// set spec §4.3 calls out is implemented: FLD/FST/FSTP (m32real, m64real,
// ST(i)), FADD/FSUB/FMUL/FDIV (memory and ST(i) forms), FCOM/FCOMP/FUCOM
// with FSTSW AX, FILD/FISTP (m32int), FLDCW/FNSTCW, and FWAIT's sibling
// FNSTSW. Anything outside that set faults as an unknown opcode rather
// than silently misbehaving.
func (c *CPU) execFPU(opcode uint8, seg Segment) error {
	rm, digit, err := c.decodeModRM(seg)
	if err != nil {
		return err
	}

	switch opcode {
	case 0xD8:
		return c.fpuArithMem32(digit, rm, false)
	case 0xDC:
		return c.fpuArithMem64(digit, rm)
	case 0xD9:
		return c.fpuD9(digit, rm)
	case 0xDD:
		return c.fpuDD(digit, rm)
	case 0xDB:
		return c.fpuDB(digit, rm)
	case 0xDF:
		return c.fpuDF(digit, rm)
	}
	return c.unknownOpcode(c.EIP, opcode, digit)
}

// fpuBinOp applies one of the eight D8/DC arithmetic selectors to
// (ST(0), src) and stores the result in ST(0).
func (c *CPU) fpuBinOp(digit uint8, src float64) (float64, bool) {
	st0 := c.FPU.st(0)
	switch digit {
	case 0: // FADD
		return st0 + src, true
	case 1: // FMUL
		return st0 * src, true
	case 2, 3: // FCOM/FCOMP: handled by caller, no arithmetic result
		return st0, true
	case 4: // FSUB
		return st0 - src, true
	case 5: // FSUBR
		return src - st0, true
	case 6: // FDIV
		return st0 / src, true
	case 7: // FDIVR
		return src / st0, true
	}
	return st0, false
}

func (c *CPU) fpuArithMem32(digit uint8, rm operand, _ bool) error {
	if digit == 2 || digit == 3 {
		return c.fpuCompareMem32(digit, rm)
	}
	var src float64
	if rm.isMem {
		bits, err := c.Mem.Read32(rm.addr)
		if err != nil {
			return err
		}
		src = float64(math.Float32frombits(bits))
	} else {
		src = c.FPU.st(int(rm.reg))
	}
	r, ok := c.fpuBinOp(digit, src)
	if !ok {
		return c.unknownOpcode(c.EIP, 0xD8, digit)
	}
	c.FPU.setSt(0, r)
	return nil
}

func (c *CPU) fpuArithMem64(digit uint8, rm operand) error {
	var src float64
	if rm.isMem {
		v, err := c.readFloat64(rm.addr)
		if err != nil {
			return err
		}
		src = v
	} else {
		src = c.FPU.st(int(rm.reg))
	}
	if digit == 2 || digit == 3 {
		c.setFPUCompareFlags(c.FPU.st(0), src)
		if digit == 3 {
			c.FPU.pop()
		}
		return nil
	}
	r, ok := c.fpuBinOp(digit, src)
	if !ok {
		return c.unknownOpcode(c.EIP, 0xDC, digit)
	}
	if rm.isMem {
		c.FPU.setSt(0, r)
	} else {
		// Register form computes into ST(i), not ST(0) (real x87
		// semantics for the DC reversed-operand encodings).
		c.FPU.setSt(int(rm.reg), r)
	}
	return nil
}

func (c *CPU) fpuCompareMem32(digit uint8, rm operand) error {
	var src float64
	if rm.isMem {
		bits, err := c.Mem.Read32(rm.addr)
		if err != nil {
			return err
		}
		src = float64(math.Float32frombits(bits))
	} else {
		src = c.FPU.st(int(rm.reg))
	}
	c.setFPUCompareFlags(c.FPU.st(0), src)
	if digit == 3 {
		c.FPU.pop()
	}
	return nil
}

// setFPUCompareFlags maps a compare result onto the x87 condition
// codes C0/C2/C3, which FSTSW AX later exposes through EFLAGS-shaped
// bits (ZF/PF/CF) via the classic FCOMI aliasing convention this
// emulator models directly in StatusFlags.
func (c *CPU) setFPUCompareFlags(a, b float64) {
	c.FPU.StatusFlags &^= 0x4500 // clear C0 (0x100), C2 (0x400), C3 (0x4000)
	switch {
	case a > b:
		// C0=C2=C3=0
	case a < b:
		c.FPU.StatusFlags |= 0x100 // C0
	case a == b:
		c.FPU.StatusFlags |= 0x4000 // C3
	default: // unordered
		c.FPU.StatusFlags |= 0x4500
	}
}

func (c *CPU) fpuD9(digit uint8, rm operand) error {
	switch digit {
	case 0: // FLD m32real / FLD ST(i)
		if rm.isMem {
			bits, err := c.Mem.Read32(rm.addr)
			if err != nil {
				return err
			}
			c.FPU.push(float64(math.Float32frombits(bits)))
			return nil
		}
		c.FPU.push(c.FPU.st(int(rm.reg)))
		return nil
	case 2: // FST m32real
		if !rm.isMem {
			return c.unknownOpcode(c.EIP, 0xD9, digit)
		}
		return c.Mem.Write32(rm.addr, math.Float32bits(float32(c.FPU.st(0))))
	case 3: // FSTP m32real
		if !rm.isMem {
			return c.unknownOpcode(c.EIP, 0xD9, digit)
		}
		if err := c.Mem.Write32(rm.addr, math.Float32bits(float32(c.FPU.st(0)))); err != nil {
			return err
		}
		c.FPU.pop()
		return nil
	case 5: // FLDCW m16
		if !rm.isMem {
			return c.unknownOpcode(c.EIP, 0xD9, digit)
		}
		v, err := c.Mem.Read16(rm.addr)
		if err != nil {
			return err
		}
		c.FPU.ControlWord = v
		return nil
	case 7: // FNSTCW m16
		if !rm.isMem {
			return c.unknownOpcode(c.EIP, 0xD9, digit)
		}
		return c.Mem.Write16(rm.addr, c.FPU.ControlWord)
	}
	return c.unknownOpcode(c.EIP, 0xD9, digit)
}

func (c *CPU) fpuDD(digit uint8, rm operand) error {
	switch digit {
	case 0: // FLD m64real
		if !rm.isMem {
			return c.unknownOpcode(c.EIP, 0xDD, digit)
		}
		v, err := c.readFloat64(rm.addr)
		if err != nil {
			return err
		}
		c.FPU.push(v)
		return nil
	case 2: // FST m64real
		if !rm.isMem {
			return c.unknownOpcode(c.EIP, 0xDD, digit)
		}
		return c.writeFloat64(rm.addr, c.FPU.st(0))
	case 3: // FSTP m64real
		if !rm.isMem {
			return c.unknownOpcode(c.EIP, 0xDD, digit)
		}
		if err := c.writeFloat64(rm.addr, c.FPU.st(0)); err != nil {
			return err
		}
		c.FPU.pop()
		return nil
	case 7: // FNSTSW m16
		if !rm.isMem {
			return c.unknownOpcode(c.EIP, 0xDD, digit)
		}
		return c.Mem.Write16(rm.addr, c.FPU.statusWord())
	}
	return c.unknownOpcode(c.EIP, 0xDD, digit)
}

func (c *CPU) fpuDB(digit uint8, rm operand) error {
	if !rm.isMem {
		return c.unknownOpcode(c.EIP, 0xDB, digit)
	}
	switch digit {
	case 0: // FILD m32int
		bits, err := c.Mem.Read32(rm.addr)
		if err != nil {
			return err
		}
		c.FPU.push(float64(int32(bits)))
		return nil
	case 3: // FISTP m32int
		r := int32(math.Round(c.FPU.st(0)))
		if err := c.Mem.Write32(rm.addr, uint32(r)); err != nil {
			return err
		}
		c.FPU.pop()
		return nil
	}
	return c.unknownOpcode(c.EIP, 0xDB, digit)
}

// fpuDF handles FSTSW AX (DF E0), the one DF form the working set needs.
func (c *CPU) fpuDF(digit uint8, rm operand) error {
	if !rm.isMem && digit == 4 && rm.reg == 0 {
		c.Regs[EAX] = (c.Regs[EAX] &^ 0xFFFF) | uint32(c.FPU.statusWord())
		return nil
	}
	return c.unknownOpcode(c.EIP, 0xDF, digit)
}

func (c *CPU) readFloat64(addr uint32) (float64, error) {
	lo, err := c.Mem.Read32(addr)
	if err != nil {
		return 0, err
	}
	hi, err := c.Mem.Read32(addr + 4)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(hi)<<32 | uint64(lo)), nil
}

func (c *CPU) writeFloat64(addr uint32, v float64) error {
	bits := math.Float64bits(v)
	if err := c.Mem.Write32(addr, uint32(bits)); err != nil {
		return err
	}
	return c.Mem.Write32(addr+4, uint32(bits>>32))
}

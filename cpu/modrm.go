package cpu

// operand is a decoded ModR/M operand: either a register (reg holds the
// register index) or a memory location (addr holds the effective,
// segment-adjusted linear address).
type operand struct {
	isMem bool
	reg   uint8
	addr  uint32
}

// decodeModRM fetches the ModR/M byte (and SIB/displacement if present)
// and returns the decoded r/m operand plus the reg field (the "digit"
// for group opcodes, or the second register operand for two-operand
// forms). seg applies a segment-prefix base to memory operands.
//
// Addressing edge cases per spec §4.3: mod==00,rm==5 is disp32-absolute
// (no base register); a SIB byte with base==5,mod==00 is disp32-only.
func (c *CPU) decodeModRM(seg Segment) (rm operand, regField uint8, err error) {
	b, err := c.fetch8()
	if err != nil {
		return operand{}, 0, err
	}
	mod := b >> 6
	regField = (b >> 3) & 7
	rmField := b & 7

	if mod == 3 {
		return operand{isMem: false, reg: rmField}, regField, nil
	}

	var addr uint32
	if rmField == 4 {
		// SIB byte follows.
		sib, err := c.fetch8()
		if err != nil {
			return operand{}, 0, err
		}
		scale := uint32(1) << (sib >> 6)
		index := (sib >> 3) & 7
		base := sib & 7

		var indexVal uint32
		if index != 4 { // ESP-as-index means "no index"
			indexVal = c.Regs[index] * scale
		}

		if base == 5 && mod == 0 {
			disp, derr := c.fetch32()
			if derr != nil {
				return operand{}, 0, derr
			}
			addr = disp + indexVal
		} else {
			addr = c.Regs[base] + indexVal
		}
	} else if mod == 0 && rmField == 5 {
		disp, derr := c.fetch32()
		if derr != nil {
			return operand{}, 0, derr
		}
		addr = disp
	} else {
		addr = c.Regs[rmField]
	}

	switch mod {
	case 1:
		disp, derr := c.fetch8()
		if derr != nil {
			return operand{}, 0, derr
		}
		addr += uint32(int32(int8(disp)))
	case 2:
		disp, derr := c.fetch32()
		if derr != nil {
			return operand{}, 0, derr
		}
		addr += disp
	}

	addr += c.segBase(seg)
	return operand{isMem: true, addr: addr}, regField, nil
}

// getReg8 reads an 8-bit sub-register: 0-3 are the low bytes of
// EAX/ECX/EDX/EBX (AL/CL/DL/BL); 4-7 are the high bytes of the same
// four registers (AH/CH/DH/BH) per the classic i386 ModR/M encoding.
func (c *CPU) getReg8(idx uint8) uint8 {
	if idx < 4 {
		return uint8(c.Regs[idx])
	}
	return uint8(c.Regs[idx-4] >> 8)
}

func (c *CPU) setReg8(idx uint8, v uint8) {
	if idx < 4 {
		c.Regs[idx] = (c.Regs[idx] &^ 0xFF) | uint32(v)
		return
	}
	c.Regs[idx-4] = (c.Regs[idx-4] &^ 0xFF00) | (uint32(v) << 8)
}

func (c *CPU) getReg16(idx uint8) uint16 {
	return uint16(c.Regs[idx])
}

func (c *CPU) setReg16(idx uint8, v uint16) {
	c.Regs[idx] = (c.Regs[idx] &^ 0xFFFF) | uint32(v)
}

// readOperand32/8 read an operand (register or memory) at the given
// width; writeOperand32/8 write it back.
func (c *CPU) readOperand32(op operand) (uint32, error) {
	if !op.isMem {
		return c.Regs[op.reg], nil
	}
	return c.Mem.Read32(op.addr)
}

func (c *CPU) writeOperand32(op operand, v uint32) error {
	if !op.isMem {
		c.Regs[op.reg] = v
		return nil
	}
	return c.Mem.Write32(op.addr, v)
}

func (c *CPU) readOperand8(op operand) (uint8, error) {
	if !op.isMem {
		return c.getReg8(op.reg), nil
	}
	return c.Mem.Read8(op.addr)
}

func (c *CPU) writeOperand8(op operand, v uint8) error {
	if !op.isMem {
		c.setReg8(op.reg, v)
		return nil
	}
	return c.Mem.Write8(op.addr, v)
}

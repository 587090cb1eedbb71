package cpu

// execGroup3 handles the F6/F7 unary group, selected by the ModR/M
// digit field: 0/1 TEST Eb/Ev,ib/iz, 2 NOT, 3 NEG, 4 MUL, 5 IMUL,
// 6 DIV, 7 IDIV (spec §4.3).
func (c *CPU) execGroup3(opcode uint8, seg Segment) error {
	rm, digit, err := c.decodeModRM(seg)
	if err != nil {
		return err
	}

	is8 := opcode == 0xF6
	if is8 {
		return c.group3_8(rm, digit)
	}
	return c.group3_32(rm, digit)
}

func (c *CPU) group3_8(rm operand, digit uint8) error {
	v, err := c.readOperand8(rm)
	if err != nil {
		return err
	}

	switch digit {
	case 0, 1: // TEST Eb, ib
		imm, err := c.fetch8()
		if err != nil {
			return err
		}
		c.setLogicFlags8(v & imm)
		return nil
	case 2: // NOT
		return c.writeOperand8(rm, ^v)
	case 3: // NEG
		r := c.sub8(0, v, 0)
		c.setFlag(FlagCF, v != 0)
		return c.writeOperand8(rm, r)
	case 4: // MUL AL, Eb -> AX
		al := uint8(c.Regs[EAX])
		result := uint16(al) * uint16(v)
		c.Regs[EAX] = (c.Regs[EAX] &^ 0xFFFF) | uint32(result)
		overflow := result>>8 != 0
		c.setFlag(FlagCF, overflow)
		c.setFlag(FlagOF, overflow)
		return nil
	case 5: // IMUL AL, Eb -> AX
		al := int8(c.Regs[EAX])
		result := int16(al) * int16(int8(v))
		c.Regs[EAX] = (c.Regs[EAX] &^ 0xFFFF) | uint32(uint16(result))
		overflow := result != int16(int8(result))
		c.setFlag(FlagCF, overflow)
		c.setFlag(FlagOF, overflow)
		return nil
	case 6: // DIV AX by Eb -> AL quotient, AH remainder
		if v == 0 {
			return c.unknownOpcode(c.EIP, 0xF6, 6)
		}
		ax := uint16(c.Regs[EAX])
		q, r := ax/uint16(v), ax%uint16(v)
		c.Regs[EAX] = (c.Regs[EAX] &^ 0xFFFF) | uint32(uint8(q)) | uint32(uint8(r))<<8
		return nil
	case 7: // IDIV AX by Eb (signed)
		if v == 0 {
			return c.unknownOpcode(c.EIP, 0xF6, 7)
		}
		ax := int16(int16(uint16(c.Regs[EAX])))
		q, r := ax/int16(int8(v)), ax%int16(int8(v))
		c.Regs[EAX] = (c.Regs[EAX] &^ 0xFFFF) | uint32(uint8(int8(q))) | uint32(uint8(int8(r)))<<8
		return nil
	}
	return c.unknownOpcode(c.EIP, 0xF6, digit)
}

func (c *CPU) group3_32(rm operand, digit uint8) error {
	v, err := c.readOperand32(rm)
	if err != nil {
		return err
	}

	switch digit {
	case 0, 1: // TEST Ev, iz
		imm, err := c.fetch32()
		if err != nil {
			return err
		}
		c.setLogicFlags32(v & imm)
		return nil
	case 2: // NOT
		return c.writeOperand32(rm, ^v)
	case 3: // NEG
		r := c.sub32(0, v, 0)
		c.setFlag(FlagCF, v != 0)
		return c.writeOperand32(rm, r)
	case 4: // MUL EAX, Ev -> EDX:EAX
		wide := uint64(c.Regs[EAX]) * uint64(v)
		c.Regs[EAX] = uint32(wide)
		c.Regs[EDX] = uint32(wide >> 32)
		overflow := c.Regs[EDX] != 0
		c.setFlag(FlagCF, overflow)
		c.setFlag(FlagOF, overflow)
		return nil
	case 5: // IMUL EAX, Ev -> EDX:EAX (signed)
		wide := int64(int32(c.Regs[EAX])) * int64(int32(v))
		c.Regs[EAX] = uint32(wide)
		c.Regs[EDX] = uint32(wide >> 32)
		overflow := wide != int64(int32(wide))
		c.setFlag(FlagCF, overflow)
		c.setFlag(FlagOF, overflow)
		return nil
	case 6: // DIV EDX:EAX by Ev
		if v == 0 {
			return c.unknownOpcode(c.EIP, 0xF7, 6)
		}
		dividend := uint64(c.Regs[EDX])<<32 | uint64(c.Regs[EAX])
		q, r := dividend/uint64(v), dividend%uint64(v)
		c.Regs[EAX] = uint32(q)
		c.Regs[EDX] = uint32(r)
		return nil
	case 7: // IDIV EDX:EAX by Ev (signed)
		if v == 0 {
			return c.unknownOpcode(c.EIP, 0xF7, 7)
		}
		dividend := int64(c.Regs[EDX])<<32 | int64(c.Regs[EAX])
		q, r := dividend/int64(int32(v)), dividend%int64(int32(v))
		c.Regs[EAX] = uint32(q)
		c.Regs[EDX] = uint32(r)
		return nil
	}
	return c.unknownOpcode(c.EIP, 0xF7, digit)
}

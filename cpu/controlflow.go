package cpu

// jmpRel8 implements JMP rel8 (0xEB).
func (c *CPU) jmpRel8() error {
	disp, err := c.fetch8()
	if err != nil {
		return err
	}
	c.EIP = uint32(int32(c.EIP) + int32(int8(disp)))
	return nil
}

// jmpRel32 implements JMP rel32 (0xE9).
func (c *CPU) jmpRel32() error {
	disp, err := c.fetch32()
	if err != nil {
		return err
	}
	c.EIP = uint32(int32(c.EIP) + int32(disp))
	return nil
}

// callRel32 implements CALL rel32 (0xE8): pushes the return address
// (EIP after the instruction) then jumps.
func (c *CPU) callRel32() error {
	disp, err := c.fetch32()
	if err != nil {
		return err
	}
	retAddr := c.EIP
	target := uint32(int32(c.EIP) + int32(disp))
	if err := c.push32(retAddr); err != nil {
		return err
	}
	c.EIP = target
	return nil
}

// ret implements RET (0xC3) and RET imm16 (0xC2): pops the return
// address and, for the imm16 form, additionally discards argBytes of
// stack (stdcall's callee-cleanup convention, spec §4.4.3).
func (c *CPU) ret(argBytes uint16) error {
	target, err := c.pop32()
	if err != nil {
		return err
	}
	c.Regs[ESP] += uint32(argBytes)
	c.EIP = target
	return nil
}

// condTrue evaluates the Jcc condition encoded in the low nibble of a
// 70-7F/0F80-0F8F opcode against the current EFLAGS (spec §4.3,
// including the signed pairs JL/JGE/JLE/JG).
func (c *CPU) condTrue(cc uint8) bool {
	cf, zf, sf, of, pf := c.flag(FlagCF), c.flag(FlagZF), c.flag(FlagSF), c.flag(FlagOF), c.flag(FlagPF)
	switch cc {
	case 0x0: // JO
		return of
	case 0x1: // JNO
		return !of
	case 0x2: // JB/JC/JNAE
		return cf
	case 0x3: // JAE/JNB/JNC
		return !cf
	case 0x4: // JE/JZ
		return zf
	case 0x5: // JNE/JNZ
		return !zf
	case 0x6: // JBE/JNA
		return cf || zf
	case 0x7: // JA/JNBE
		return !cf && !zf
	case 0x8: // JS
		return sf
	case 0x9: // JNS
		return !sf
	case 0xA: // JP/JPE
		return pf
	case 0xB: // JNP/JPO
		return !pf
	case 0xC: // JL/JNGE
		return sf != of
	case 0xD: // JGE/JNL
		return sf == of
	case 0xE: // JLE/JNG
		return zf || sf != of
	case 0xF: // JG/JNLE
		return !zf && sf == of
	}
	return false
}

// jccShort implements the Jcc-rel8 family (0x70-0x7F).
func (c *CPU) jccShort(cc uint8) error {
	disp, err := c.fetch8()
	if err != nil {
		return err
	}
	if c.condTrue(cc) {
		c.EIP = uint32(int32(c.EIP) + int32(int8(disp)))
	}
	return nil
}

// jccNear implements the Jcc-rel32 family (0x0F 0x80-0x8F).
func (c *CPU) jccNear(cc uint8) error {
	disp, err := c.fetch32()
	if err != nil {
		return err
	}
	if c.condTrue(cc) {
		c.EIP = uint32(int32(c.EIP) + int32(disp))
	}
	return nil
}

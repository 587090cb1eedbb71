package cpu

// exec dispatches one one-byte opcode (after any segment prefix and the
// 0x0F escape have already been consumed by Step). It covers the
// instruction classes spec §4.3 requires: data movement, the seven ALU
// groups, INC/DEC/NEG/NOT/MUL/IMUL/DIV/IDIV, shifts and rotates,
// control flow, PUSH/POP/PUSHFD/POPFD, software interrupts, and x87.
func (c *CPU) exec(opcode uint8, seg Segment) error {
	startEIP := c.EIP - 1

	// ALU groups: 00-3D in 8-entry blocks of
	// {Eb,Gb} {Ev,Gv} {Gb,Eb} {Gv,Ev} {AL,ib} {eAX,iz}, one block per op.
	if opcode < 0x40 {
		if op, form, ok := aluOpcodeForm(opcode); ok {
			return c.execALU(op, form, seg)
		}
	}

	switch {
	case opcode >= 0x50 && opcode <= 0x57: // PUSH r32
		return c.push32(c.Regs[opcode-0x50])
	case opcode >= 0x58 && opcode <= 0x5F: // POP r32
		v, err := c.pop32()
		if err != nil {
			return err
		}
		c.Regs[opcode-0x58] = v
		return nil
	case opcode >= 0x70 && opcode <= 0x7F: // Jcc short
		return c.jccShort(opcode - 0x70)
	case opcode >= 0x40 && opcode <= 0x47: // INC r32
		idx := opcode - 0x40
		c.Regs[idx] = c.incDec32(c.Regs[idx], true)
		return nil
	case opcode >= 0x48 && opcode <= 0x4F: // DEC r32
		idx := opcode - 0x48
		c.Regs[idx] = c.incDec32(c.Regs[idx], false)
		return nil
	case opcode >= 0xB0 && opcode <= 0xB7: // MOV r8, imm8
		imm, err := c.fetch8()
		if err != nil {
			return err
		}
		c.setReg8(opcode-0xB0, imm)
		return nil
	case opcode >= 0xB8 && opcode <= 0xBF: // MOV r32, imm32
		imm, err := c.fetch32()
		if err != nil {
			return err
		}
		c.Regs[opcode-0xB8] = imm
		return nil
	}

	switch opcode {
	case 0x88: // MOV Eb, Gb
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		return c.writeOperand8(rm, c.getReg8(reg))
	case 0x89: // MOV Ev, Gv
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		return c.writeOperand32(rm, c.Regs[reg])
	case 0x8A: // MOV Gb, Eb
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		v, err := c.readOperand8(rm)
		if err != nil {
			return err
		}
		c.setReg8(reg, v)
		return nil
	case 0x8B: // MOV Gv, Ev
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		v, err := c.readOperand32(rm)
		if err != nil {
			return err
		}
		c.Regs[reg] = v
		return nil
	case 0x8D: // LEA Gv, M
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		if !rm.isMem {
			return c.unknownOpcode(startEIP, opcode)
		}
		c.Regs[reg] = rm.addr
		return nil
	case 0x8F: // POP Ev (/0)
		rm, digit, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		if digit != 0 {
			return c.unknownOpcode(startEIP, opcode)
		}
		v, err := c.pop32()
		if err != nil {
			return err
		}
		return c.writeOperand32(rm, v)
	case 0xC6: // MOV Eb, ib (/0)
		rm, digit, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		imm, err := c.fetch8()
		if err != nil {
			return err
		}
		if digit != 0 {
			return c.unknownOpcode(startEIP, opcode)
		}
		return c.writeOperand8(rm, imm)
	case 0xC7: // MOV Ev, iz (/0)
		rm, digit, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		imm, err := c.fetch32()
		if err != nil {
			return err
		}
		if digit != 0 {
			return c.unknownOpcode(startEIP, opcode)
		}
		return c.writeOperand32(rm, imm)

	case 0x68: // PUSH iz
		imm, err := c.fetch32()
		if err != nil {
			return err
		}
		return c.push32(imm)
	case 0x6A: // PUSH ib
		imm, err := c.fetch8()
		if err != nil {
			return err
		}
		return c.push32(uint32(int32(int8(imm))))
	case 0x9C: // PUSHFD
		return c.push32(c.EFlags)
	case 0x9D: // POPFD
		v, err := c.pop32()
		if err != nil {
			return err
		}
		c.EFlags = v
		return nil

	case 0x80, 0x81, 0x83: // ALU Eb/Ev, ib/iz (group 1)
		return c.execGroup1(opcode, seg)
	case 0x84: // TEST Eb, Gb
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		v, err := c.readOperand8(rm)
		if err != nil {
			return err
		}
		c.setLogicFlags8(v & c.getReg8(reg))
		return nil
	case 0x85: // TEST Ev, Gv
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		v, err := c.readOperand32(rm)
		if err != nil {
			return err
		}
		c.setLogicFlags32(v & c.Regs[reg])
		return nil

	case 0xC0, 0xC1, 0xD0, 0xD1, 0xD2, 0xD3: // shift/rotate groups
		return c.execShiftGroup(opcode, seg)

	case 0xF6, 0xF7: // unary group: NOT/NEG/MUL/IMUL/DIV/IDIV
		return c.execGroup3(opcode, seg)
	case 0xFE: // INC/DEC Eb
		return c.execGroupFE(seg)
	case 0xFF: // INC/DEC/CALL/JMP/PUSH Ev
		return c.execGroupFF(seg)

	case 0xE8: // CALL rel32
		return c.callRel32()
	case 0xE9: // JMP rel32
		return c.jmpRel32()
	case 0xEB: // JMP rel8
		return c.jmpRel8()
	case 0xC3: // RET
		return c.ret(0)
	case 0xC2: // RET imm16
		imm, err := c.fetch16()
		if err != nil {
			return err
		}
		return c.ret(imm)

	case 0xCC: // INT3
		return c.interrupt(3)
	case 0xCD: // INT imm8
		vec, err := c.fetch8()
		if err != nil {
			return err
		}
		return c.interrupt(vec)

	case 0x9B: // FWAIT
		return nil

	case 0xD8, 0xD9, 0xDA, 0xDB, 0xDC, 0xDD, 0xDE, 0xDF: // x87
		return c.execFPU(opcode, seg)
	}

	return c.unknownOpcode(startEIP, opcode)
}

// aluOpcodeForm maps an opcode in [0x00, 0x3D] to its ALU group (0=ADD
// .. 7=CMP) and addressing form, returning ok=false for opcodes in that
// range that aren't part of the 8-entry-per-group ALU block.
func aluOpcodeForm(opcode uint8) (op uint8, form uint8, ok bool) {
	block := opcode / 8
	entry := opcode % 8
	if block > 7 || entry > 5 {
		return 0, 0, false
	}
	return block, entry, true
}

// execALU executes one of the six addressing forms of an ALU group
// entry: 0={Eb,Gb} 1={Ev,Gv} 2={Gb,Eb} 3={Gv,Ev} 4={AL,ib} 5={eAX,iz}.
func (c *CPU) execALU(op, form uint8, seg Segment) error {
	switch form {
	case 0:
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		v, err := c.readOperand8(rm)
		if err != nil {
			return err
		}
		r := c.aluOp8(op, v, c.getReg8(reg))
		if op == 7 { // CMP doesn't write back
			return nil
		}
		return c.writeOperand8(rm, r)
	case 1:
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		v, err := c.readOperand32(rm)
		if err != nil {
			return err
		}
		r := c.aluOp32(op, v, c.Regs[reg])
		if op == 7 {
			return nil
		}
		return c.writeOperand32(rm, r)
	case 2:
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		v, err := c.readOperand8(rm)
		if err != nil {
			return err
		}
		r := c.aluOp8(op, c.getReg8(reg), v)
		if op == 7 {
			return nil
		}
		c.setReg8(reg, r)
		return nil
	case 3:
		rm, reg, err := c.decodeModRM(seg)
		if err != nil {
			return err
		}
		v, err := c.readOperand32(rm)
		if err != nil {
			return err
		}
		r := c.aluOp32(op, c.Regs[reg], v)
		if op == 7 {
			return nil
		}
		c.Regs[reg] = r
		return nil
	case 4:
		imm, err := c.fetch8()
		if err != nil {
			return err
		}
		r := c.aluOp8(op, c.getReg8(EAX), imm)
		if op != 7 {
			c.setReg8(EAX, r)
		}
		return nil
	case 5:
		imm, err := c.fetch32()
		if err != nil {
			return err
		}
		r := c.aluOp32(op, c.Regs[EAX], imm)
		if op != 7 {
			c.Regs[EAX] = r
		}
		return nil
	}
	return nil
}

// execGroup1 handles opcodes 80/81/83: ALU Eb/Ev with an immediate,
// group selected by the ModR/M reg field (the "digit").
func (c *CPU) execGroup1(opcode uint8, seg Segment) error {
	rm, digit, err := c.decodeModRM(seg)
	if err != nil {
		return err
	}
	if opcode == 0x80 {
		imm, err := c.fetch8()
		if err != nil {
			return err
		}
		v, err := c.readOperand8(rm)
		if err != nil {
			return err
		}
		r := c.aluOp8(digit, v, imm)
		if digit == 7 {
			return nil
		}
		return c.writeOperand8(rm, r)
	}

	var imm uint32
	if opcode == 0x83 { // sign-extended imm8
		b, err := c.fetch8()
		if err != nil {
			return err
		}
		imm = uint32(int32(int8(b)))
	} else { // 0x81: imm32
		b, err := c.fetch32()
		if err != nil {
			return err
		}
		imm = b
	}
	v, err := c.readOperand32(rm)
	if err != nil {
		return err
	}
	r := c.aluOp32(digit, v, imm)
	if digit == 7 {
		return nil
	}
	return c.writeOperand32(rm, r)
}

func (c *CPU) incDec32(v uint32, inc bool) uint32 {
	savedCF := c.flag(FlagCF)
	var r uint32
	if inc {
		r = c.add32(v, 1, 0)
	} else {
		r = c.sub32(v, 1, 0)
	}
	// INC/DEC never touch CF.
	c.setFlag(FlagCF, savedCF)
	return r
}

// execGroupFE handles opcode FE: INC/DEC Eb (/0, /1).
func (c *CPU) execGroupFE(seg Segment) error {
	rm, digit, err := c.decodeModRM(seg)
	if err != nil {
		return err
	}
	v, err := c.readOperand8(rm)
	if err != nil {
		return err
	}
	savedCF := c.flag(FlagCF)
	var r uint8
	switch digit {
	case 0:
		r = c.add8(v, 1, 0)
	case 1:
		r = c.sub8(v, 1, 0)
	default:
		return c.unknownOpcode(c.EIP, 0xFE)
	}
	c.setFlag(FlagCF, savedCF)
	return c.writeOperand8(rm, r)
}

// execGroupFF handles opcode FF: INC/DEC/CALL/JMP/PUSH Ev.
func (c *CPU) execGroupFF(seg Segment) error {
	rm, digit, err := c.decodeModRM(seg)
	if err != nil {
		return err
	}
	switch digit {
	case 0, 1: // INC/DEC Ev
		v, err := c.readOperand32(rm)
		if err != nil {
			return err
		}
		return c.writeOperand32(rm, c.incDec32(v, digit == 0))
	case 2: // CALL Ev (near, indirect)
		target, err := c.readOperand32(rm)
		if err != nil {
			return err
		}
		if err := c.push32(c.EIP); err != nil {
			return err
		}
		c.EIP = target
		return nil
	case 4: // JMP Ev (near, indirect)
		target, err := c.readOperand32(rm)
		if err != nil {
			return err
		}
		c.EIP = target
		return nil
	case 6: // PUSH Ev
		v, err := c.readOperand32(rm)
		if err != nil {
			return err
		}
		return c.push32(v)
	default:
		return c.unknownOpcode(c.EIP, 0xFF)
	}
}

package cpu

import "math/bits"

// execShiftGroup handles the C0/C1/D0/D1/D2/D3 shift-rotate group,
// selected by the ModR/M reg field (digit): 0=ROL 1=ROR 4=SHL 5=SHR
// 7=SAR (spec §4.3; RCL/RCR at digits 2/3 are not required and fault).
func (c *CPU) execShiftGroup(opcode uint8, seg Segment) error {
	rm, digit, err := c.decodeModRM(seg)
	if err != nil {
		return err
	}

	var count uint8
	switch opcode {
	case 0xC0, 0xC1:
		imm, err := c.fetch8()
		if err != nil {
			return err
		}
		count = imm
	case 0xD0, 0xD1:
		count = 1
	case 0xD2, 0xD3:
		count = uint8(c.Regs[ECX])
	}

	is8 := opcode == 0xC0 || opcode == 0xD0 || opcode == 0xD2
	if is8 {
		v, err := c.readOperand8(rm)
		if err != nil {
			return err
		}
		r, ok := c.shift8(digit, v, count&0x1F)
		if !ok {
			return c.unknownOpcode(c.EIP, opcode)
		}
		return c.writeOperand8(rm, r)
	}

	v, err := c.readOperand32(rm)
	if err != nil {
		return err
	}
	r, ok := c.shift32(digit, v, count&0x1F)
	if !ok {
		return c.unknownOpcode(c.EIP, opcode)
	}
	return c.writeOperand32(rm, r)
}

func (c *CPU) shift32(digit uint8, v uint32, count uint8) (uint32, bool) {
	if count == 0 {
		return v, true
	}
	switch digit {
	case 0: // ROL
		r := bits.RotateLeft32(v, int(count))
		c.setFlag(FlagCF, r&1 != 0)
		c.setFlag(FlagOF, count == 1 && (r>>31)^(r&1) != 0)
		return r, true
	case 1: // ROR
		r := bits.RotateLeft32(v, -int(count))
		c.setFlag(FlagCF, r>>31 != 0)
		c.setFlag(FlagOF, count == 1 && ((r>>31)^((r>>30)&1)) != 0)
		return r, true
	case 4: // SHL/SAL
		r := v << count
		lastOut := (v >> (32 - count)) & 1
		c.setFlag(FlagCF, lastOut != 0)
		c.setFlag(FlagOF, count == 1 && (r>>31)^lastOut != 0)
		c.setZSP32(r)
		return r, true
	case 5: // SHR
		lastOut := (v >> (count - 1)) & 1
		r := v >> count
		c.setFlag(FlagCF, lastOut != 0)
		c.setFlag(FlagOF, count == 1 && v>>31 != 0)
		c.setZSP32(r)
		return r, true
	case 7: // SAR
		lastOut := (v >> (count - 1)) & 1
		r := uint32(int32(v) >> count)
		c.setFlag(FlagCF, lastOut != 0)
		c.setFlag(FlagOF, false)
		c.setZSP32(r)
		return r, true
	}
	return v, false
}

func (c *CPU) shift8(digit uint8, v uint8, count uint8) (uint8, bool) {
	if count == 0 {
		return v, true
	}
	switch digit {
	case 0: // ROL
		r := bits.RotateLeft8(v, int(count))
		c.setFlag(FlagCF, r&1 != 0)
		return r, true
	case 1: // ROR
		r := bits.RotateLeft8(v, -int(count))
		c.setFlag(FlagCF, r>>7 != 0)
		return r, true
	case 4: // SHL
		r := v << count
		lastOut := uint8(0)
		if count <= 8 {
			lastOut = (v >> (8 - count)) & 1
		}
		c.setFlag(FlagCF, lastOut != 0)
		c.setZSP8(r)
		return r, true
	case 5: // SHR
		lastOut := (v >> (count - 1)) & 1
		r := v >> count
		c.setFlag(FlagCF, lastOut != 0)
		c.setZSP8(r)
		return r, true
	case 7: // SAR
		lastOut := (v >> (count - 1)) & 1
		r := uint8(int8(v) >> count)
		c.setFlag(FlagCF, lastOut != 0)
		c.setZSP8(r)
		return r, true
	}
	return v, false
}

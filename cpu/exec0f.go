package cpu

// exec0F dispatches a 0x0F-prefixed (two-byte) opcode. Only the
// near-Jcc family (0x80-0x8F) is required by spec §4.3.
func (c *CPU) exec0F(ext uint8, seg Segment) error {
	if ext >= 0x80 && ext <= 0x8F {
		return c.jccNear(ext - 0x80)
	}
	return c.unknownOpcode(c.EIP-2, 0x0F, ext)
}

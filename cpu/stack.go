package cpu

// push32 decrements ESP by 4 and stores v at the new top of stack.
func (c *CPU) push32(v uint32) error {
	c.Regs[ESP] -= 4
	return c.Mem.Write32(c.Regs[ESP], v)
}

// pop32 loads the value at the top of stack and increments ESP by 4.
func (c *CPU) pop32() (uint32, error) {
	v, err := c.Mem.Read32(c.Regs[ESP])
	if err != nil {
		return 0, err
	}
	c.Regs[ESP] += 4
	return v, nil
}

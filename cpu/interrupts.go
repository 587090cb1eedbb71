package cpu

// interrupt implements INT3 (vector 3) and INT imm8: it hands control to
// the registered InterruptHandler, which is how the OS emulation layer's
// trampoline dispatch (spec §4.4.2, the CD FE C3 stub at vector 0xFE)
// reaches a Win32 handler. A missing handler, or one that reports the
// vector unhandled, faults the interpreter.
func (c *CPU) interrupt(vector uint8) error {
	if c.onInterrupt == nil {
		return &UnhandledInterruptError{Vector: vector, EIP: c.EIP}
	}
	if err := c.onInterrupt(c, vector); err != nil {
		return err
	}
	return nil
}

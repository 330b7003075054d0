package cpu

const (
	MEMORY_SIZE    = 256 // Addressable memory cells.
	REGISTER_COUNT = 8   // General-purpose registers.

	REG_IM = 5 // Interrupt mask, by convention.
	REG_IS = 6 // Interrupt status, by convention.
	REG_SP = 7 // Stack pointer.

	SP_INIT = 0xF4 // Initial stack pointer; the stack grows down from here.
)

// RamRead returns the memory cell at addr.
func (cpu *Cpu) RamRead(addr uint32) (value uint32, err error) {
	if addr >= MEMORY_SIZE {
		err = ErrAddress
		return
	}

	value = cpu.Memory[addr]
	return
}

// RamWrite stores value in the memory cell at addr.
func (cpu *Cpu) RamWrite(addr uint32, value uint32) (err error) {
	if addr >= MEMORY_SIZE {
		err = ErrAddress
		return
	}

	cpu.Memory[addr] = value
	return
}

// Reg returns the value of a register.
func (cpu *Cpu) Reg(index uint8) (value uint32, err error) {
	if int(index) >= len(cpu.Register) {
		err = ErrRegister
		return
	}

	value = cpu.Register[index]
	return
}

// SetReg sets the value of a register.
func (cpu *Cpu) SetReg(index uint8, value uint32) (err error) {
	if int(index) >= len(cpu.Register) {
		err = ErrRegister
		return
	}

	cpu.Register[index] = value
	return
}

// peek reads memory for display, returning 0 outside of memory.
func (cpu *Cpu) peek(addr uint32) uint32 {
	value, _ := cpu.RamRead(addr)
	return value
}

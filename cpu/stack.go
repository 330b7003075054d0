package cpu

// The stack lives in memory below SP_INIT. SP is pre-decremented on the
// way down (PUSH, CALL) and post-incremented on the way up (POP, RET).

// stackDown decrements SP and returns the new top-of-stack address.
func (cpu *Cpu) stackDown() (sp uint32, err error) {
	sp = cpu.Register[REG_SP]
	if sp == 0 {
		err = ErrStackFull
		return
	}

	sp--
	if sp >= MEMORY_SIZE {
		err = ErrAddress
		return
	}

	cpu.Register[REG_SP] = sp
	return
}

// stackTop returns the current top-of-stack address.
func (cpu *Cpu) stackTop() (sp uint32, err error) {
	sp = cpu.Register[REG_SP]
	if sp >= MEMORY_SIZE {
		err = ErrStackEmpty
	}
	return
}

// Push stores value on the stack.
func (cpu *Cpu) Push(value uint32) (err error) {
	sp, err := cpu.stackDown()
	if err != nil {
		return
	}

	err = cpu.RamWrite(sp, value)
	return
}

// Pop removes and returns the value on top of the stack.
func (cpu *Cpu) Pop() (value uint32, err error) {
	value, err = cpu.Peek()
	if err != nil {
		return
	}

	cpu.Register[REG_SP]++
	return
}

// Peek returns the value on top of the stack without removing it.
func (cpu *Cpu) Peek() (value uint32, err error) {
	sp, err := cpu.stackTop()
	if err != nil {
		return
	}

	value, err = cpu.RamRead(sp)
	return
}

// Depth returns the number of values pushed below SP_INIT.
func (cpu *Cpu) Depth() int {
	return SP_INIT - int(cpu.Register[REG_SP])
}

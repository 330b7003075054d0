package cpu

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/ls8/io"
)

// Output is the channel PRN writes to.
type Output io.Output

// Halt is the reason the CPU stopped running.
type Halt int

//go:generate go tool stringer -linecomment -type=Halt
const (
	HALT_RUNNING     = Halt(0) // running
	HALT_STOP        = Halt(1) // stop
	HALT_INTERRUPT   = Halt(2) // interrupt
	HALT_INSTRUCTION = Halt(3) // hlt
	HALT_LIMIT       = Halt(4) // limit
	HALT_FAULT       = Halt(5) // fault
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%v", MEMORY_SIZE),
	"SP_INIT":     fmt.Sprintf("0x%X", SP_INIT),
	"FL_EQ":       fmt.Sprintf("%v", FL_EQ),
	"FL_GT":       fmt.Sprintf("%v", FL_GT),
	"FL_LT":       fmt.Sprintf("%v", FL_LT),
}

// Cpu is the simulation context for an LS-8 processor.
type Cpu struct {
	Verbose   bool // Set to enable verbose logging.
	HaltOnHlt bool // Set to make HLT stop the CPU; by default HLT is a no-op.
	Limit     int  // If non-zero, stop after this many instructions.

	Register [REGISTER_COUNT]uint32 // Register bank; R7 is the stack pointer.
	Memory   [MEMORY_SIZE]uint32    // Program text, data and stack.
	Pc       uint32                 // Program counter.
	Fl       uint8                  // Flags register, set by CMP.
	Ir       Opcode                 // Opcode of the current instruction.
	Halted   Halt                   // Why the CPU stopped, or HALT_RUNNING.
	Ticks    int                    // Instructions executed since reset.

	Output Output          // Destination of PRN.
	Stop   <-chan struct{} // Operator stop request, polled once per tick.

	flValid bool // Set once CMP has written Fl.
}

// NewCpu creates a new CPU in its reset state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears registers, memory and flags.
// - Sets the stack pointer to SP_INIT and the program counter to 0.
// - Zeros the tick counter and returns to HALT_RUNNING.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	clear(cpu.Memory[:])
	cpu.Register[REG_SP] = SP_INIT
	cpu.Pc = 0
	cpu.Fl = 0
	cpu.flValid = false
	cpu.Ir = 0
	cpu.Halted = HALT_RUNNING
	cpu.Ticks = 0
}

// Load copies a program into memory, starting at address 0.
func (cpu *Cpu) Load(program []byte) (err error) {
	if len(program) > MEMORY_SIZE {
		err = ErrProgramSize
		return
	}

	for n, data := range program {
		cpu.Memory[n] = uint32(data)
	}

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(program))
	}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %02X\n", "pc", cpu.Pc)
	if cpu.flValid {
		text += fmt.Sprintf("% 5s: %03b\n", "fl", cpu.Fl)
	} else {
		text += fmt.Sprintf("% 5s: ---\n", "fl")
	}
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: %02X\n", fmt.Sprintf("r%d", n), val)
	}
	text += fmt.Sprintf("% 5s: %v\n", "state", cpu.Halted)

	return
}

// Trace returns a single line of CPU state: PC, FL, the three bytes at PC,
// and the register bank.
func (cpu *Cpu) Trace() (text string) {
	text = fmt.Sprintf("TRACE: %02X | %02X %02X %02X %02X |",
		cpu.Pc,
		cpu.Fl,
		cpu.peek(cpu.Pc),
		cpu.peek(cpu.Pc+1),
		cpu.peek(cpu.Pc+2),
	)

	for _, val := range cpu.Register {
		text += fmt.Sprintf(" %02X", val)
	}

	return
}

// Fetch decodes the instruction at the program counter.
func (cpu *Cpu) Fetch() (inst Instruction, err error) {
	inst.Address = cpu.Pc

	code, err := cpu.RamRead(cpu.Pc)
	if err != nil {
		return
	}

	inst.Opcode = Opcode(code)
	if code > 0xff || !inst.Opcode.Valid() {
		err = ErrOpcodeDecode
		return
	}

	operands := [2]*uint8{&inst.A, &inst.B}
	for n := range inst.Opcode.Operands() {
		var value uint32
		value, err = cpu.RamRead(cpu.Pc + 1 + uint32(n))
		if err != nil {
			return
		}
		if value > 0xff {
			err = ErrOpcodeDecode
			return
		}
		*operands[n] = uint8(value)
	}

	return
}

// Tick executes a single CPU instruction cycle.
//
// The operator stop channel is polled before the fetch; once it is
// observed, or once the CPU has halted for any reason, Tick returns
// ErrHalted without executing anything.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Halted != HALT_RUNNING {
		return ErrHalted
	}

	select {
	case <-cpu.Stop:
		cpu.SetHalt(HALT_STOP)
		return ErrHalted
	default:
	}

	if cpu.Limit > 0 && cpu.Ticks >= cpu.Limit {
		cpu.SetHalt(HALT_LIMIT)
		return ErrHalted
	}

	inst, err := cpu.Fetch()
	if err == nil {
		if cpu.Verbose {
			log.Printf("%v  %v", cpu.Trace(), inst)
		}
		err = cpu.Execute(inst)
	}
	if err != nil {
		cpu.SetHalt(HALT_FAULT)
		err = errors.Join(ErrOpcode(inst), err)
		return
	}

	cpu.Ticks++

	if cpu.Halted != HALT_RUNNING {
		err = ErrHalted
	}

	return
}

// SetHalt stops the CPU, recording why. Callers driving Tick themselves
// use it to record an interrupt.
func (cpu *Cpu) SetHalt(reason Halt) {
	cpu.Halted = reason

	if cpu.Verbose {
		log.Printf("cpu: halt (%v) at pc %02X after %d ticks", reason, cpu.Pc, cpu.Ticks)
	}
}

// Run executes instructions until the CPU halts.
//
// Cancelling ctx is the process-level interrupt; it is checked between
// instructions, ahead of the operator stop channel. Halting is not an
// error: err is only set when an instruction faults.
func (cpu *Cpu) Run(ctx context.Context) (halt Halt, err error) {
	for {
		select {
		case <-ctx.Done():
			if cpu.Halted == HALT_RUNNING {
				cpu.SetHalt(HALT_INTERRUPT)
			}
			halt = cpu.Halted
			return
		default:
		}

		err = cpu.Tick()
		if errors.Is(err, ErrHalted) {
			err = nil
			halt = cpu.Halted
			return
		}
		if err != nil {
			halt = cpu.Halted
			return
		}
	}
}

// Execute executes a single decoded instruction.
//
// Each instruction advances the program counter by its own rule; AND, ST
// and HLT leave it where it is.
func (cpu *Cpu) Execute(inst Instruction) (err error) {
	cpu.Ir = inst.Opcode

	next_pc := cpu.Pc

	switch inst.Opcode {
	case OP_ADD:
		err = cpu.Alu(ALU_OP_ADD, inst.A, inst.B)
		next_pc += 3
	case OP_AND:
		err = cpu.Alu(ALU_OP_AND, inst.A, inst.B)
	case OP_CALL:
		err = cpu.Push(cpu.Pc + 2)
		if err != nil {
			return
		}
		next_pc, err = cpu.Reg(inst.A)
	case OP_CMP:
		err = cpu.Alu(ALU_OP_CMP, inst.A, inst.B)
		next_pc += 3
	case OP_HLT:
		if cpu.HaltOnHlt {
			cpu.SetHalt(HALT_INSTRUCTION)
		}
	case OP_JEQ, OP_JNE:
		if !cpu.flValid {
			err = ErrFlagsUnset
			return
		}
		equal := (cpu.Fl & FL_EQ) != 0
		if equal == (inst.Opcode == OP_JEQ) {
			next_pc, err = cpu.Reg(inst.A)
		} else {
			next_pc += 2
		}
	case OP_JMP:
		next_pc, err = cpu.Reg(inst.A)
	case OP_LDI:
		err = cpu.SetReg(inst.A, uint32(inst.B))
		next_pc += 3
	case OP_MUL:
		err = cpu.Alu(ALU_OP_MUL, inst.A, inst.B)
		next_pc += 3
	case OP_POP:
		// The register is written before SP moves, so POP R7 leaves
		// SP one above the popped value.
		var sp, value uint32
		sp, err = cpu.stackTop()
		if err != nil {
			return
		}
		value, err = cpu.RamRead(sp)
		if err != nil {
			return
		}
		err = cpu.SetReg(inst.A, value)
		if err != nil {
			return
		}
		cpu.Register[REG_SP]++
		next_pc += 2
	case OP_PRN:
		if cpu.Output == nil {
			err = ErrChannelInvalid
			return
		}
		var value uint32
		value, err = cpu.Reg(inst.A)
		if err != nil {
			return
		}
		err = cpu.Output.Print(value)
		next_pc += 2
	case OP_PUSH:
		// SP moves before the register is read, so PUSH R7 stores the
		// decremented stack pointer.
		var sp, value uint32
		sp, err = cpu.stackDown()
		if err != nil {
			return
		}
		value, err = cpu.Reg(inst.A)
		if err != nil {
			return
		}
		err = cpu.RamWrite(sp, value)
		next_pc += 2
	case OP_RET:
		next_pc, err = cpu.Pop()
	case OP_ST:
		var addr, value uint32
		addr, err = cpu.Reg(inst.B)
		if err != nil {
			return
		}
		value, err = cpu.Reg(inst.A)
		if err != nil {
			return
		}
		err = cpu.RamWrite(addr, value)
	default:
		err = ErrOpcodeDecode
		return
	}

	if err != nil {
		return
	}

	cpu.Pc = next_pc

	return
}

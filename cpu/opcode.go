package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode is an LS-8 instruction byte.
//
// Bits 7-6 hold the operand count, so the set of opcodes doubles as the
// wire format between the loader and the CPU.
type Opcode uint8

const (
	OP_HLT  = Opcode(0b00000001)
	OP_RET  = Opcode(0b00010001)
	OP_PUSH = Opcode(0b01000101)
	OP_POP  = Opcode(0b01000110)
	OP_PRN  = Opcode(0b01000111)
	OP_CALL = Opcode(0b01010000)
	OP_JMP  = Opcode(0b01010100)
	OP_JEQ  = Opcode(0b01010101)
	OP_JNE  = Opcode(0b01010110)
	OP_LDI  = Opcode(0b10000010)
	OP_ST   = Opcode(0b10000100)
	OP_ADD  = Opcode(0b10100000)
	OP_MUL  = Opcode(0b10100010)
	OP_CMP  = Opcode(0b10100111)
	OP_AND  = Opcode(0b10101000)
)

// OperandKind describes how an instruction interprets its operand bytes.
type OperandKind int

const (
	ARGS_NONE    = OperandKind(0) // no operands
	ARGS_REG     = OperandKind(1) // register
	ARGS_REG_REG = OperandKind(2) // register, register
	ARGS_REG_IMM = OperandKind(3) // register, immediate
)

type opcodeInfo struct {
	mnemonic string
	args     OperandKind
}

// opcodeTable is the closed LS-8 instruction set.
var opcodeTable = map[Opcode]opcodeInfo{
	OP_ADD:  {"ADD", ARGS_REG_REG},
	OP_AND:  {"AND", ARGS_REG_REG},
	OP_CALL: {"CALL", ARGS_REG},
	OP_CMP:  {"CMP", ARGS_REG_REG},
	OP_HLT:  {"HLT", ARGS_NONE},
	OP_JEQ:  {"JEQ", ARGS_REG},
	OP_JNE:  {"JNE", ARGS_REG},
	OP_JMP:  {"JMP", ARGS_REG},
	OP_LDI:  {"LDI", ARGS_REG_IMM},
	OP_MUL:  {"MUL", ARGS_REG_REG},
	OP_POP:  {"POP", ARGS_REG},
	OP_PRN:  {"PRN", ARGS_REG},
	OP_PUSH: {"PUSH", ARGS_REG},
	OP_RET:  {"RET", ARGS_NONE},
	OP_ST:   {"ST", ARGS_REG_REG},
}

// Operands returns the number of operand bytes following the opcode.
func (op Opcode) Operands() int {
	return int(op >> 6)
}

// Valid returns true if the opcode is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Args returns how the instruction interprets its operands.
func (op Opcode) Args() OperandKind {
	return opcodeTable[op].args
}

// String returns the opcode mnemonic.
func (op Opcode) String() string {
	info, ok := opcodeTable[op]
	if !ok {
		return fmt.Sprintf("Opcode(0b%08b)", uint8(op))
	}
	return info.mnemonic
}

// Opcodes iterates over every opcode of the instruction set, in byte order.
func Opcodes() iter.Seq[Opcode] {
	return func(yield func(Opcode) bool) {
		for n := range 256 {
			op := Opcode(n)
			if !op.Valid() {
				continue
			}
			if !yield(op) {
				return
			}
		}
	}
}

// OpcodeOf returns the opcode for a mnemonic, ignoring case.
func OpcodeOf(mnemonic string) (op Opcode, ok bool) {
	for op = range Opcodes() {
		if strings.EqualFold(op.String(), mnemonic) {
			ok = true
			return
		}
	}
	op = 0
	return
}

// Instruction is a decoded opcode with its operand bytes.
// Operands beyond the opcode's operand count are zero.
type Instruction struct {
	Address uint32
	Opcode  Opcode
	A       uint8
	B       uint8
	Data    bool // Set for a byte that does not start a complete instruction.
}

// Size returns the number of bytes the instruction occupies in memory.
func (inst Instruction) Size() int {
	if inst.Data || !inst.Opcode.Valid() {
		return 1
	}
	return 1 + inst.Opcode.Operands()
}

// Bytes returns the memory encoding of the instruction.
func (inst Instruction) Bytes() []byte {
	return []byte{byte(inst.Opcode), inst.A, inst.B}[:inst.Size()]
}

// String disassembles the instruction.
func (inst Instruction) String() string {
	op := inst.Opcode
	if inst.Data || !op.Valid() {
		return fmt.Sprintf(".db 0b%08b", uint8(op))
	}

	switch op.Args() {
	case ARGS_REG:
		return fmt.Sprintf("%v R%d", op, inst.A)
	case ARGS_REG_REG:
		return fmt.Sprintf("%v R%d,R%d", op, inst.A, inst.B)
	case ARGS_REG_IMM:
		return fmt.Sprintf("%v R%d,%d", op, inst.A, inst.B)
	}

	return op.String()
}

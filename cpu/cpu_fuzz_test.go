package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzCpu(f *testing.F) {
	for op := range Opcodes() {
		f.Add(uint8(op), uint8(0), uint8(1), uint32(5), uint32(7), uint8(FL_EQ))
		f.Add(uint8(op), uint8(2), uint8(2), uint32(0x1234), uint32(0xff), uint8(FL_LT))
	}
	f.Add(uint8(0), uint8(0), uint8(0), uint32(0), uint32(0), uint8(0))
	f.Add(uint8(0xff), uint8(9), uint8(9), uint32(0), uint32(0), uint8(FL_GT))

	f.Fuzz(func(t *testing.T, code uint8, a uint8, b uint8, ra uint32, rb uint32, fl uint8) {
		assert := assert.New(t)

		cpu, _ := newTestCpu(t, code, a, b)
		cpu.Register[a&7] = ra
		cpu.Register[b&7] = rb
		cpu.Fl = fl & 0b111
		cpu.flValid = true

		before := cpu.Register
		sp := before[REG_SP]

		op := Opcode(code)
		err := cpu.Tick()
		if !op.Valid() {
			assert.ErrorIs(err, ErrOpcodeDecode)
			assert.ErrorIs(err, ErrOpcode{})
			assert.Equal(HALT_FAULT, cpu.Halted)
			assert.Equal(uint32(0), cpu.Pc)
			assert.Equal(0, cpu.Ticks)
			return
		}

		if err != nil {
			assert.ErrorIs(err, ErrOpcode{})
			assert.Equal(HALT_FAULT, cpu.Halted)
			assert.Equal(uint32(0), cpu.Pc)
			return
		}

		assert.Equal(1, cpu.Ticks)
		assert.Equal(op, cpu.Ir)

		switch op {
		case OP_ADD, OP_CMP, OP_LDI, OP_MUL:
			assert.Equal(uint32(3), cpu.Pc)
		case OP_PRN, OP_PUSH, OP_POP:
			assert.Equal(uint32(2), cpu.Pc)
		case OP_AND, OP_ST, OP_HLT:
			assert.Equal(uint32(0), cpu.Pc)
		case OP_JMP:
			assert.Equal(before[a], cpu.Pc)
		case OP_CALL:
			assert.Equal(uint32(2), cpu.Memory[cpu.Register[REG_SP]])
		case OP_RET:
			assert.Equal(cpu.Memory[sp], cpu.Pc)
			assert.Equal(sp+1, cpu.Register[REG_SP])
		case OP_JEQ, OP_JNE:
			taken := (fl&FL_EQ != 0) == (op == OP_JEQ)
			if taken {
				assert.Equal(before[a], cpu.Pc)
			} else {
				assert.Equal(uint32(2), cpu.Pc)
			}
		}

		switch op {
		case OP_LDI:
			assert.Equal(uint32(b), cpu.Register[a])
		case OP_CMP:
			assert.Contains([]uint8{FL_EQ, FL_GT, FL_LT}, cpu.Fl)
		}
	})
}

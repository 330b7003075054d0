package cpu

// AluOp is an ALU operation tag.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_OP_ADD = AluOp(0) // ADD
	ALU_OP_MUL = AluOp(1) // MUL
	ALU_OP_CMP = AluOp(2) // CMP
	ALU_OP_AND = AluOp(3) // AND
	ALU_OP_OR  = AluOp(4) // OR
	ALU_OP_XOR = AluOp(5) // XOR
	ALU_OP_NOT = AluOp(6) // NOT
	ALU_OP_SHL = AluOp(7) // SHL
	ALU_OP_SHR = AluOp(8) // SHR
	ALU_OP_MOD = AluOp(9) // MOD
)

// Flag register bits. CMP sets exactly one of them.
const (
	FL_EQ = uint8(0b001) // Equal
	FL_GT = uint8(0b010) // Greater than
	FL_LT = uint8(0b100) // Less than
)

// Alu performs the ALU operation on registers a and b.
//
// The result is written back to register a, except for CMP which only
// updates the flags register. OR, XOR, NOT, SHL, SHR and MOD have no
// opcode routed to them; they are only reachable through this method.
func (cpu *Cpu) Alu(op AluOp, a, b uint8) (err error) {
	ra, err := cpu.Reg(a)
	if err != nil {
		return
	}

	// NOT is unary, b is never read.
	var rb uint32
	if op != ALU_OP_NOT {
		rb, err = cpu.Reg(b)
		if err != nil {
			return
		}
	}

	var output uint32
	switch op {
	case ALU_OP_ADD:
		output = ra + rb
	case ALU_OP_MUL:
		output = ra * rb
	case ALU_OP_CMP:
		switch {
		case ra == rb:
			cpu.Fl = FL_EQ
		case ra > rb:
			cpu.Fl = FL_GT
		default:
			cpu.Fl = FL_LT
		}
		cpu.flValid = true
		return
	case ALU_OP_AND:
		output = ra & rb
	case ALU_OP_OR:
		output = ra | rb
	case ALU_OP_XOR:
		output = ra ^ rb
	case ALU_OP_NOT:
		output = ^ra
	case ALU_OP_SHL:
		output = ra << rb
	case ALU_OP_SHR:
		output = ra >> rb
	case ALU_OP_MOD:
		if rb == 0 {
			err = ErrAluDivide
			return
		}
		output = ra % rb
	default:
		err = ErrAluUnsupported
		return
	}

	err = cpu.SetReg(a, output)
	return
}

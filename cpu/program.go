package cpu

import (
	"bufio"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Line is a single source line that produced bytes in a program.
type Line struct {
	LineNo  int      // Source line number, starting at 1.
	Address int      // Address of the first byte.
	Text    string   // Source text, without trailing comments.
	Bytes   []byte   // Bytes emitted by the line.
	Words   []string // Assembler words, if assembled.

	LinkLabel string // Label to resolve into the last byte, if any.
}

// Program is a loaded or assembled LS-8 program.
type Program struct {
	Lines []Line
}

// Debug finds the source line for a memory address.
func (prog *Program) Debug(addr uint32) (line *Line) {
	for n, ln := range prog.Lines {
		if int(addr) >= ln.Address && int(addr) < ln.Address+len(ln.Bytes) {
			line = &prog.Lines[n]
			break
		}
	}

	return
}

// Binary returns the memory image of the program.
func (prog *Program) Binary() (bins []byte) {
	for _, data := range prog.Bytes() {
		bins = append(bins, data)
	}

	return
}

// Bytes iterates over the program's bytes by address.
func (prog *Program) Bytes() iter.Seq2[int, byte] {
	return func(yield func(addr int, data byte) bool) {
		for _, ln := range prog.Lines {
			for n, data := range ln.Bytes {
				if !yield(ln.Address+n, data) {
					return
				}
			}
		}
	}
}

// Size returns the number of bytes in the program.
func (prog *Program) Size() (size int) {
	if len(prog.Lines) == 0 {
		return
	}

	last := prog.Lines[len(prog.Lines)-1]
	size = last.Address + len(last.Bytes)
	return
}

// Disassemble iterates over the program as instructions, stepping over
// each instruction's operand bytes. Bytes that do not start a complete
// instruction are yielded as Data.
func (prog *Program) Disassemble() iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		bins := prog.Binary()
		for addr := 0; addr < len(bins); {
			inst := Instruction{Address: uint32(addr), Opcode: Opcode(bins[addr])}
			if inst.Opcode.Valid() && addr+inst.Size() <= len(bins) {
				operands := [2]*uint8{&inst.A, &inst.B}
				for n := range inst.Opcode.Operands() {
					*operands[n] = bins[addr+1+n]
				}
			} else {
				inst.Data = true
			}
			addr += inst.Size()
			if !yield(inst) {
				return
			}
		}
	}
}

// parseBinary parses the leading 8 binary digits of a line, most
// significant bit first. Anything after the eighth digit is ignored.
func parseBinary(text string) (value byte, err error) {
	if len(text) < 8 {
		err = ErrBinaryShort
		return
	}

	v64, err := strconv.ParseUint(text[:8], 2, 8)
	if err != nil {
		err = ErrBinaryInvalid
		return
	}

	value = byte(v64)
	return
}

// ParseProgram reads a program in the binary-text ".ls8" format.
//
// Each line holds one byte as 8 binary digits, optionally followed by a
// comment. Blank lines and lines starting with '#' are skipped.
func ParseProgram(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var text string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: text, Err: err}
		}
	}()

	prog = &Program{}

	var addr int
	for scanner.Scan() {
		text = scanner.Text()
		lineno++

		line := strings.TrimSpace(text)
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		if addr >= MEMORY_SIZE {
			err = ErrProgramSize
			return
		}

		var value byte
		value, err = parseBinary(line)
		if err != nil {
			return
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo:  lineno,
			Address: addr,
			Text:    line,
			Bytes:   []byte{value},
		})
		addr++
	}

	err = scanner.Err()
	return
}

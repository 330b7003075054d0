package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"MEMORY_SIZE": fmt.Sprintf("%v", MEMORY_SIZE),
	"SP_INIT":     fmt.Sprintf("%#x", SP_INIT),
}

// regMap maps register names, and their conventional aliases, to indexes.
var regMap = map[string]uint8{
	"r0": 0,
	"r1": 1,
	"r2": 2,
	"r3": 3,
	"r4": 4,
	"r5": 5,
	"r6": 6,
	"r7": 7,
	"im": REG_IM,
	"is": REG_IS,
	"sp": REG_SP,
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Assembler is a single pass macro assembler for LS-8 assembly.
//
// Source lines are "[LABEL:] MNEMONIC [operand[,operand]]" with ';'
// comments. Directives are .equ, .macro/.endm and .db. Compile-time
// expressions $(...) are evaluated with the equates and the labels
// defined so far in scope.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Lines   []Line // List of generated lines.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64)
	if invert {
		value = ^value
	}

	return
}

// byteOf returns the value of a word that must fit in a byte.
// Negative values down to -128 are stored as two's complement.
func (asm *Assembler) byteOf(word string) (value byte, err error) {
	v32, err := asm.valueOf(word)
	if err != nil {
		return
	}

	v := int32(v32)
	if v < -128 || v > 255 {
		err = ErrImmediateRange
		return
	}

	value = byte(v)
	return
}

// regOf returns the register index named by a word.
func (asm *Assembler) regOf(word string) (reg uint8, err error) {
	reg, ok := regMap[strings.ToLower(word)]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	err = nil
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// splitWords splits a line on blanks and operand commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseLine parses a single line into words, resolving character
// literals, expressions, equates, labels and macro invocations.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddress()
		if asm.Verbose {
			log.Printf("asm: %v = %#x", label, asm.Label[label])
		}
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		// '@' makes labels local to this expansion.
		local := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno, line)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddress gets the address of the next emitted byte.
func (asm *Assembler) currentAddress() int {
	if len(asm.Lines) == 0 {
		return 0
	}

	last := asm.Lines[len(asm.Lines)-1]

	return last.Address + len(last.Bytes)
}

// parseWords emits the bytes for a single parsed line.
func (asm *Assembler) parseWords(words []string, lineno int, text string) (err error) {
	if len(words) == 0 {
		return
	}

	line := Line{
		LineNo:  lineno,
		Address: asm.currentAddress(),
		Text:    text,
		Words:   slices.Clone(words),
	}

	if strings.EqualFold(words[0], ".db") {
		if len(words) < 2 {
			err = ErrDirectiveSyntax
			return
		}
		for _, word := range words[1:] {
			var value byte
			value, err = asm.byteOf(word)
			if err != nil {
				return
			}
			line.Bytes = append(line.Bytes, value)
		}
	} else {
		op, ok := OpcodeOf(words[0])
		if !ok {
			err = ErrOpcodeInvalid
			return
		}

		args := words[1:]
		want := op.Operands()
		switch {
		case len(args) > want:
			err = ErrOpcodeExtraArgs
			return
		case len(args) < want:
			err = ErrOpcodeMissingArgs
			return
		}

		inst := Instruction{Address: uint32(line.Address), Opcode: op}
		switch op.Args() {
		case ARGS_REG:
			inst.A, err = asm.regOf(args[0])
		case ARGS_REG_REG:
			inst.A, err = asm.regOf(args[0])
			if err == nil {
				inst.B, err = asm.regOf(args[1])
			}
		case ARGS_REG_IMM:
			inst.A, err = asm.regOf(args[0])
			if err != nil {
				break
			}
			if reLabel.MatchString(args[1]) {
				line.LinkLabel = args[1]
			} else {
				inst.B, err = asm.byteOf(args[1])
			}
		}
		if err != nil {
			return
		}

		line.Bytes = inst.Bytes()
	}

	if line.Address+len(line.Bytes) > MEMORY_SIZE {
		err = ErrProgramSize
		return
	}

	if asm.Verbose {
		log.Printf("asm: %02x: % x %v", line.Address, line.Bytes, words)
	}

	asm.Lines = append(asm.Lines, line)

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Lines = asm.Lines[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && strings.EqualFold(words[0], ".macro") {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && strings.EqualFold(words[0], ".endm") {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno, line)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Lines {
		ln := &asm.Lines[n]

		if len(ln.LinkLabel) == 0 {
			continue
		}
		label := ln.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = ln.LineNo
			line = ln.Text
			err = ErrLabelMissing(label)
			return
		}
		ln.Bytes[len(ln.Bytes)-1] = byte(addr)
	}

	prog = &Program{
		Lines: slices.Clone(asm.Lines),
	}

	return
}

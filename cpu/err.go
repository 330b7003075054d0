package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted         = errors.New(f("halted"))
	ErrAddress        = errors.New(f("address out of range"))
	ErrRegister       = errors.New(f("register out of range"))
	ErrStackEmpty     = errors.New(f("stack empty"))
	ErrStackFull      = errors.New(f("stack full"))
	ErrFlagsUnset     = errors.New(f("flags unset"))
	ErrChannelInvalid = errors.New(f("channel invalid"))
	ErrProgramSize    = errors.New(f("program too large"))

	// Instruction decode and execute errors
	ErrOpcodeDecode   = errors.New(f("decode"))
	ErrAluUnsupported = errors.New(f("unsupported ALU operation"))
	ErrAluDivide      = errors.New(f("alu modulo by zero"))

	// Loader errors
	ErrBinaryShort   = errors.New(f("fewer than 8 binary digits"))
	ErrBinaryInvalid = errors.New(f("invalid binary digit"))

	// Assembler errors
	ErrEquateSyntax      = errors.New(f(".equ syntax"))
	ErrEquateDuplicate   = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate    = errors.New(f("label duplicated"))
	ErrMacroSyntax       = errors.New(f(".macro syntax"))
	ErrMacroNesting      = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate    = errors.New(f(".macro duplicated"))
	ErrMacroLonely       = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm   = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs   = errors.New(f("excessive arguments"))
	ErrOpcodeMissingArgs = errors.New(f("missing arguments"))
	ErrOpcodeInvalid     = errors.New(f("opcode invalid"))
	ErrRegisterInvalid   = errors.New(f("register invalid"))
	ErrImmediateRange    = errors.New(f("immediate out of range"))
	ErrDirectiveSyntax   = errors.New(f("directive syntax"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOpcode carries the instruction that failed to decode or execute.
type ErrOpcode Instruction

func (eo ErrOpcode) Error() string {
	return f("instruction 0x%02x %v", uint8(eo.Opcode), Instruction(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}

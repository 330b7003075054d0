package emulator

import (
	"github.com/ezrec/ls8/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo  int
	Address uint32
	Err     error
}

func (err *ErrRuntime) Error() string {
	return f("line %d address %02X %v", err.LineNo, err.Address, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/internal"
	"github.com/ezrec/ls8/io"
)

var _emulator_defines = map[string]string{
	"TAPE_LIMIT": fmt.Sprintf("%v", io.TAPE_LIMIT),
	"STOP_KEY":   fmt.Sprintf("%v", io.STOP_KEY),
}

// Emulator state. CPU + program listing + IO channels.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Tape     io.Tape     // Tape IO channel, written by PRN.
	Keyboard io.Keyboard // Operator keyboard, raises the stop request.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Cpu.Output = &emu.Tape
	emu.Cpu.Stop = emu.Keyboard.Stop()

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Close the emulator
func (emu *Emulator) Close() (err error) {
	err = emu.Keyboard.Close()

	return
}

// Reset clears the CPU and the tape, and loads the program.
// A keyboard stop request that has already been raised stays raised.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Reset()
	emu.Tape.Rewind()

	err = emu.Cpu.Load(emu.Program.Binary())
	if err != nil {
		return
	}

	emu.Cpu.Output = &emu.Tape
	emu.Cpu.Stop = emu.Keyboard.Stop()

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	line := emu.Program.Debug(emu.Cpu.Pc)
	if line == nil {
		return 0
	}

	return line.LineNo
}

// Tick performs a single tick of the emulator.
// done is set once the CPU has halted for any reason other than a fault.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	addr := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Address: addr, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrHalted) {
		err = nil
		done = true
	}

	return
}

// Run ticks the emulator until the CPU halts, or ctx is cancelled.
func (emu *Emulator) Run(ctx context.Context) (halt cpu.Halt, err error) {
	emu.Cpu.Verbose = emu.Verbose

	for {
		select {
		case <-ctx.Done():
			if emu.Cpu.Halted == cpu.HALT_RUNNING {
				emu.Cpu.SetHalt(cpu.HALT_INTERRUPT)
			}
			halt = emu.Cpu.Halted
			return
		default:
		}

		var done bool
		done, err = emu.Tick()
		if done || err != nil {
			halt = emu.Cpu.Halted
			return
		}
	}
}

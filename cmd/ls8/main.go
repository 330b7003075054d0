// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
	"github.com/ezrec/ls8/translate"
)

var f = translate.From

const (
	EXIT_OK        = 0   // Listing or help.
	EXIT_HALTED    = 1   // The CPU halted.
	EXIT_FAULT     = 2   // Usage, load or runtime error.
	EXIT_INTERRUPT = 130 // Interrupted by the host.
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}

// open opens a program, retrying with the default extension when the name
// has none.
func open(name string, ext string) (inf *os.File, err error) {
	inf, err = os.Open(name)
	if errors.Is(err, fs.ErrNotExist) && filepath.Ext(name) == "" {
		var err2 error
		inf, err2 = os.Open(name + ext)
		if err2 == nil {
			err = nil
		}
	}

	return
}

// load reads a program as binary text, or as assembly source.
func load(emu *emulator.Emulator, name string, assemble bool) (prog *cpu.Program, err error) {
	ext := ".ls8"
	if assemble {
		ext = ".asm"
	}

	inf, err := open(name, ext)
	if err != nil {
		return
	}
	defer inf.Close()

	if !assemble {
		prog, err = cpu.ParseProgram(inf)
		return
	}

	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err = asm.Parse(inf)
	return
}

// run is the ls8 command, returning the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	var assemble bool
	var list bool
	var verbose bool
	var hlt bool
	var limit int
	var stopKey string
	var output string

	log.SetOutput(stderr)
	log.SetFlags(0)

	flags := flag.NewFlagSet("ls8", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVar(&assemble, "a", false, "PROGRAM is assembly source")
	flags.BoolVar(&list, "l", false, "List the disassembled program, do not execute")
	flags.BoolVar(&verbose, "v", false, "Verbose mode")
	flags.BoolVar(&hlt, "hlt", false, "HLT halts the CPU")
	flags.IntVar(&limit, "limit", 0, "Halt after this many instructions (0 is unlimited)")
	flags.StringVar(&stopKey, "stop", "x", "Operator stop key")
	flags.StringVar(&output, "o", "-", "Tape output")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: ls8 [options] PROGRAM\n")
		flags.PrintDefaults()
	}

	err := flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return EXIT_OK
	}
	if err != nil {
		return EXIT_FAULT
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return EXIT_FAULT
	}

	if len(stopKey) != 1 {
		log.Printf("ls8: -stop %q: %v", stopKey, f("must be a single key"))
		return EXIT_FAULT
	}

	name := flags.Arg(0)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tty := openTerminal(stdin, cancel)
	defer tty.Close()
	if tty.Raw() {
		stdout = crlfWriter{stdout}
		log.SetOutput(crlfWriter{stderr})
	}

	// The tape and the keyboard echo both write to stdout.
	stdout = &lockedWriter{Writer: stdout}

	emu := emulator.NewEmulator()
	defer emu.Close()
	emu.Verbose = verbose

	fmt.Fprintln(stdout, f("Loading %v...", name))

	prog, err := load(emu, name, assemble)
	if err != nil {
		log.Printf("%v: %v", name, err)
		return EXIT_FAULT
	}

	if list {
		for inst := range prog.Disassemble() {
			fmt.Fprintf(stdout, "%02X: %v\n", inst.Address, inst)
		}
		return EXIT_OK
	}

	emu.Program = prog
	err = emu.Reset()
	if err != nil {
		log.Printf("%v: %v", name, err)
		return EXIT_FAULT
	}

	emu.Cpu.HaltOnHlt = hlt
	emu.Cpu.Limit = limit

	if output == "-" {
		emu.Tape.Output = stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Printf("%v: %v", output, err)
			return EXIT_FAULT
		}
		defer ouf.Close()
		emu.Tape.Output = ouf
	}

	fmt.Fprintln(stdout, f("Running..."))

	if stdin != nil {
		emu.Keyboard.Input = tty
		emu.Keyboard.Echo = stdout
		emu.Keyboard.StopKey = stopKey[0]
		err = emu.Keyboard.Start(ctx)
		if err != nil {
			log.Printf("ls8: keyboard: %v", err)
			return EXIT_FAULT
		}
	}

	halt, err := emu.Run(ctx)
	if err != nil {
		log.Printf("%v: %v", name, err)
		if verbose {
			log.Printf("%v", emu.Cpu)
		}
		return EXIT_FAULT
	}

	switch halt {
	case cpu.HALT_INTERRUPT:
		fmt.Fprintln(stdout, f("Interrupted"))
		return EXIT_INTERRUPT
	case cpu.HALT_STOP:
		fmt.Fprintln(stdout, f("Exiting..."))
	}

	fmt.Fprintln(stdout, f("Halted."))

	if verbose {
		log.Printf("ls8: %v after %d instructions", halt, emu.Cpu.Ticks)
	}

	return EXIT_HALTED
}

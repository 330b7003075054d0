// Package io provides the I/O channels of the LS-8 emulator: the output
// channel written by PRN (Tape), and the operator keyboard that raises the
// stop request polled by the CPU (Keyboard).
package io

// Output defines the channel the PRN instruction writes register values to.
type Output interface {
	// Print emits a single register value.
	Print(value uint32) error
}

package io

import (
	"fmt"
	"io"
)

const (
	TAPE_LIMIT = 1 << 16 // Maximum values kept by a tape.
)

// Tape records the values printed to it, and writes each as a decimal
// line to Output if one is set. Only the most recent TAPE_LIMIT values
// are kept; printing never fails because of how many were recorded.
type Tape struct {
	Output io.Writer
	Values []uint32
}

var _ Output = (*Tape)(nil)

// Print records a value, and writes it to the tape's output.
func (tc *Tape) Print(value uint32) (err error) {
	if len(tc.Values) >= TAPE_LIMIT {
		// Drop the oldest half.
		n := copy(tc.Values, tc.Values[len(tc.Values)-TAPE_LIMIT/2:])
		tc.Values = tc.Values[:n]
	}

	tc.Values = append(tc.Values, value)

	if tc.Output != nil {
		_, err = fmt.Fprintf(tc.Output, "%d\n", value)
	}

	return
}

// Rewind discards the recorded values.
func (tc *Tape) Rewind() {
	tc.Values = tc.Values[:0]
}

// Last returns the most recently printed value.
func (tc *Tape) Last() (value uint32, ok bool) {
	if len(tc.Values) == 0 {
		return
	}

	return tc.Values[len(tc.Values)-1], true
}

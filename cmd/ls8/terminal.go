package main

import (
	"bytes"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	KEY_INTERRUPT = 0x03 // Ctrl-C, as read from a raw terminal.
)

// terminal is the operator's keyboard. When stdin is a terminal it is put
// into raw mode, so keys arrive unbuffered and Ctrl-C is read as a key.
type terminal struct {
	io.Reader
	interrupt func()

	raw      bool
	fd       int
	oldState *term.State
}

// openTerminal wraps stdin, switching it to raw mode if it is a terminal.
// Reading Ctrl-C from a raw terminal calls interrupt.
func openTerminal(stdin io.Reader, interrupt func()) (t *terminal) {
	t = &terminal{Reader: stdin, interrupt: interrupt}

	file, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return
	}

	t.fd = int(file.Fd())
	oldState, err := term.MakeRaw(t.fd)
	if err != nil {
		return
	}
	t.oldState = oldState
	t.raw = true

	return
}

// Raw returns true if the terminal was put into raw mode.
func (t *terminal) Raw() bool {
	return t.raw
}

func (t *terminal) Read(p []byte) (n int, err error) {
	n, err = t.Reader.Read(p)
	if t.raw && bytes.IndexByte(p[:n], KEY_INTERRUPT) >= 0 {
		t.interrupt()
	}

	return
}

// Close restores the terminal state.
func (t *terminal) Close() (err error) {
	if t.oldState != nil {
		err = term.Restore(t.fd, t.oldState)
		t.oldState = nil
	}

	return
}

// crlfWriter writes "\r\n" line endings, as a raw terminal needs.
type crlfWriter struct {
	io.Writer
}

func (w crlfWriter) Write(p []byte) (n int, err error) {
	_, err = w.Writer.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	if err != nil {
		return
	}

	n = len(p)
	return
}

// lockedWriter serializes writes from several goroutines.
type lockedWriter struct {
	io.Writer
	lock sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.Writer.Write(p)
}

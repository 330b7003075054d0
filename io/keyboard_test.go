package io

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitDone(t *testing.T, kc *Keyboard) {
	select {
	case <-kc.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("keyboard did not finish")
	}
}

func TestKeyboard_Press(t *testing.T) {
	assert := assert.New(t)

	echo := &bytes.Buffer{}
	kc := &Keyboard{Echo: echo}

	kc.Press('a')
	assert.False(kc.Stopped())
	select {
	case <-kc.Stop():
		assert.Fail("stop raised early")
	default:
	}

	kc.Press(STOP_KEY)
	kc.Press(STOP_KEY)
	assert.True(kc.Stopped())
	_, ok := <-kc.Stop()
	assert.False(ok)

	assert.Equal("\na\n\nx\n\nx\n", echo.String())
}

func TestKeyboard_Start(t *testing.T) {
	table := [](struct {
		name    string
		input   string
		stopKey byte
		stopped bool
		echo    string
	}){
		{"stop", "abx", 0, true, "\na\n\nb\n\nx\n"},
		{"stop_early", "xab", 0, true, "\nx\n"},
		{"exhausted", "abc", 0, false, "\na\n\nb\n\nc\n"},
		{"custom", "xq", 'q', true, "\nx\n\nq\n"},
		{"empty", "", 0, false, ""},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			echo := &bytes.Buffer{}
			kc := &Keyboard{
				Input:   strings.NewReader(entry.input),
				Echo:    echo,
				StopKey: entry.stopKey,
			}

			assert.NoError(kc.Start(context.Background()))
			waitDone(t, kc)

			assert.Equal(entry.stopped, kc.Stopped())
			assert.Equal(entry.echo, echo.String())
		})
	}
}

func TestKeyboard_NoInput(t *testing.T) {
	assert := assert.New(t)

	kc := &Keyboard{}
	assert.ErrorIs(kc.Start(context.Background()), ErrChannelClosed)
	assert.False(kc.Stopped())
}

func TestKeyboard_Cancel(t *testing.T) {
	assert := assert.New(t)

	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	kc := &Keyboard{Input: reader}
	assert.NoError(kc.Start(ctx))

	cancel()
	waitDone(t, kc)
	assert.False(kc.Stopped())
}

func TestKeyboard_Close(t *testing.T) {
	assert := assert.New(t)

	reader, writer := io.Pipe()
	defer writer.Close()

	kc := &Keyboard{Input: reader}
	assert.NoError(kc.Close())
	assert.NoError(kc.Start(context.Background()))

	assert.NoError(kc.Close())
	waitDone(t, kc)
	assert.False(kc.Stopped())
}

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken")
}

func TestKeyboard_EchoError(t *testing.T) {
	assert := assert.New(t)

	logged := &bytes.Buffer{}
	log.SetOutput(logged)
	defer log.SetOutput(os.Stderr)

	kc := &Keyboard{Echo: brokenWriter{}}
	kc.Press(STOP_KEY)

	assert.True(kc.Stopped())
	assert.Contains(logged.String(), "keyboard: echo: broken")
}

package io

import (
	"context"
	"io"
	"log"
	"sync"
)

const (
	STOP_KEY = 'x' // Default operator stop key.
)

// Keyboard reads operator keys from Input and raises a stop request when
// StopKey is pressed. Every key read is echoed to Echo, if set.
type Keyboard struct {
	Input   io.Reader
	Echo    io.Writer
	StopKey byte

	once   sync.Once
	stop   chan struct{}
	lock   sync.Mutex
	closed bool
	done   chan struct{}
	cancel context.CancelFunc
}

// init lazily creates the stop channel.
func (kc *Keyboard) init() {
	kc.once.Do(func() {
		kc.stop = make(chan struct{})
		kc.done = make(chan struct{})
		if kc.StopKey == 0 {
			kc.StopKey = STOP_KEY
		}
	})
}

// Stop returns the channel that is closed once the stop key is read.
func (kc *Keyboard) Stop() <-chan struct{} {
	kc.init()
	return kc.stop
}

// Press handles a single key press.
func (kc *Keyboard) Press(key byte) {
	kc.init()

	if kc.Echo != nil {
		_, err := kc.Echo.Write([]byte{'\n', key, '\n'})
		if err != nil {
			log.Printf("keyboard: echo: %v", err)
		}
	}

	if key == kc.StopKey {
		kc.raise()
	}
}

// raise closes the stop channel once.
func (kc *Keyboard) raise() {
	kc.lock.Lock()
	defer kc.lock.Unlock()

	if kc.closed {
		return
	}

	kc.closed = true
	close(kc.stop)
}

// Stopped returns true once a stop has been requested.
func (kc *Keyboard) Stopped() bool {
	kc.lock.Lock()
	defer kc.lock.Unlock()

	return kc.closed
}

// Start reads keys from Input until it is exhausted, the stop key is read,
// ctx is cancelled or the keyboard is closed. Done is closed when the
// dispatcher exits. Start must only be called once.
func (kc *Keyboard) Start(ctx context.Context) (err error) {
	kc.init()

	if kc.Input == nil {
		err = ErrChannelClosed
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	kc.lock.Lock()
	kc.cancel = cancel
	kc.lock.Unlock()

	keys := make(chan byte)

	go func() {
		defer close(keys)
		var one [1]byte
		for {
			n, err := kc.Input.Read(one[:])
			if n > 0 {
				select {
				case keys <- one[0]:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	go func() {
		defer close(kc.done)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case key, ok := <-keys:
				if !ok {
					return
				}
				kc.Press(key)
				if key == kc.StopKey {
					return
				}
			}
		}
	}()

	return
}

// Done returns a channel closed when the keyboard stops reading.
func (kc *Keyboard) Done() <-chan struct{} {
	kc.init()
	return kc.done
}

// Close stops reading keys. A reader blocked on Input is abandoned.
func (kc *Keyboard) Close() (err error) {
	kc.lock.Lock()
	cancel := kc.cancel
	kc.lock.Unlock()

	if cancel != nil {
		cancel()
	}

	return
}

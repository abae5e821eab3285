package transport

import (
	"fmt"
	"io"
	"sync"

	gm "gitlab.com/gomidi/midi/v2"
)

// Sink receives raw midi messages. midi.PortSink is the hardware one.
type Sink interface {
	Send(msg []byte) error
}

// LogSink prints every message, for running without a midi device.
type LogSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewLogSink(out io.Writer) *LogSink {
	return &LogSink{out: out}
}

func (l *LogSink) Send(msg []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintln(l.out, gm.Message(msg).String())
	return err
}

package midi

import (
	"log"
	"sync"

	"github.com/pkg/errors"
	gm "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

const allNotesOff = 123

// ListOutPorts names every output port the registered driver exposes.
func ListOutPorts() ([]string, error) {
	outs, err := drivers.Outs()
	if err != nil {
		return nil, errors.Wrap(err, "could not list midi outputs")
	}
	res := make([]string, len(outs))
	for i, out := range outs {
		res[i] = out.String()
	}
	return res, nil
}

// PortSink writes raw messages to one output port. Send may be called from
// timer goroutines.
type PortSink struct {
	mu  sync.Mutex
	out drivers.Out
}

// OpenPort opens the output port at index, or the first port whose name
// equals name when name is not empty.
func OpenPort(index int, name string) (*PortSink, error) {
	outs, err := drivers.Outs()
	if err != nil {
		return nil, errors.Wrap(err, "could not list midi outputs")
	}
	var out drivers.Out
	if name != "" {
		for _, o := range outs {
			if o.String() == name {
				out = o
				break
			}
		}
		if out == nil {
			return nil, errors.Errorf("midi output %q not found", name)
		}
	} else {
		if index < 0 || index >= len(outs) {
			return nil, errors.Errorf("output port index %d out of range", index)
		}
		out = outs[index]
	}
	if err := out.Open(); err != nil {
		return nil, errors.Wrapf(err, "could not open %s", out.String())
	}
	log.Printf("Opened midi output %s", out.String())
	return &PortSink{out: out}, nil
}

func (p *PortSink) Name() string {
	return p.out.String()
}

func (p *PortSink) Send(msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.out.IsOpen() {
		if err := p.out.Open(); err != nil {
			return err
		}
	}
	return p.out.Send(msg)
}

// Close silences every channel before releasing the port and the driver.
func (p *PortSink) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out.IsOpen() {
		for ch := uint8(0); ch < 16; ch++ {
			_ = p.out.Send(gm.ControlChange(ch, allNotesOff, 0).Bytes())
		}
	}
	err := p.out.Close()
	drivers.Close()
	return err
}

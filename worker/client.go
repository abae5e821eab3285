package worker

import (
	"log"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/backingband/model"
	"github.com/pkg/errors"
)

// SyncDelay coalesces bursts of settings changes, like a dragged slider.
const SyncDelay = 50 * time.Millisecond

var (
	ErrBusy   = errors.New("worker command queue is full")
	ErrClosed = errors.New("worker is closed")
)

type Client struct {
	mu        sync.Mutex
	commands  chan Command
	closed    bool
	debounced func(func())
}

func newClient(commands chan Command) *Client {
	return &Client{commands: commands, debounced: debounce.New(SyncDelay)}
}

// Send queues cmd without blocking.
func (c *Client) Send(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.commands <- cmd:
		return nil
	default:
		return ErrBusy
	}
}

// SyncDebounced sends the last snapshot of a burst once the burst settles.
func (c *Client) SyncDebounced(snap model.Snapshot) {
	snap = snap.Clone()
	c.debounced(func() {
		if err := c.Send(Sync{Snapshot: snap}); err != nil {
			log.Printf("WARN could not sync worker: %v", err)
		}
	})
}

// Close stops the worker once it has drained queued commands.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.commands)
}

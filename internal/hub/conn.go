package hub

import (
	"sync"
	"sync/atomic"

	"github.com/visitgate/visitgate/internal/visitgate/types"
)

// Sender is the transport side of one live connection.  Send must be safe
// to call from the connection's writer goroutine; it is never called
// concurrently.
type Sender interface {
	Send(ev types.Event) error
	Close() error
}

// Conn is one registered connection.  Events are queued on a bounded
// channel drained by a single writer goroutine, so a slow or dead peer
// never blocks the event producer.
type Conn struct {
	sender    Sender
	send      chan types.Event
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

func newConn(sender Sender, buffer int) *Conn {
	return &Conn{
		sender: sender,
		send:   make(chan types.Event, buffer),
		done:   make(chan struct{}),
	}
}

// enqueue hands ev to the writer without blocking.  A full buffer drops
// the event; delivery here is best-effort and the durable record already
// exists elsewhere.
func (c *Conn) enqueue(ev types.Event) {
	select {
	case c.send <- ev:
	case <-c.done:
	default:
		c.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the buffer was
// full.
func (c *Conn) Dropped() uint64 {
	return c.dropped.Load()
}

// writeLoop drains the send queue.  The first failed write unregisters
// the connection immediately; a dead handle is removed, never retried.
func (c *Conn) writeLoop(r *Registry) {
	for {
		select {
		case ev := <-c.send:
			if err := c.sender.Send(ev); err != nil {
				if r.logger != nil {
					r.logger.Printf("hub: send failed, dropping connection: %v", err)
				}
				r.Unregister(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.sender.Close()
	})
}

// Package stream holds the ordered hand-off queue between a session's
// background worker and the stream publisher.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"engram/internal/agent"
)

var (
	// ErrTimeout is returned by Pop when no event arrived within the wait.
	ErrTimeout = errors.New("stream: no event ready")
	// ErrClosed is the sentinel: every event pushed before Close has been
	// consumed and no more will follow.
	ErrClosed = errors.New("stream: closed")
)

// Channel is an unbounded FIFO of events. Push never blocks, so a producer is
// never held up by a slow consumer. It supports any number of producers and a
// single consumer.
type Channel struct {
	mu      sync.Mutex
	items   []agent.Event
	closed  bool
	discard bool
	notify  chan struct{}
}

func New() *Channel {
	return &Channel{notify: make(chan struct{}, 1)}
}

// Discard returns a channel for runs nobody consumes: every push is dropped,
// and Pop reports only the close.
func Discard() *Channel {
	return &Channel{discard: true, notify: make(chan struct{}, 1)}
}

// Push appends ev. Events pushed after Close are dropped.
func (c *Channel) Push(ev agent.Event) {
	c.mu.Lock()
	if c.closed || c.discard {
		c.mu.Unlock()
		return
	}
	c.items = append(c.items, ev)
	c.mu.Unlock()
	c.signal()
}

// Close marks the end of the stream. It is idempotent; the consumer observes
// ErrClosed once the buffered events are drained.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.signal()
}

// Pop returns the next event. It waits up to wait for one to arrive (forever
// when wait <= 0) and returns ErrTimeout if none does, ErrClosed once the
// channel is closed and drained, or ctx.Err() if ctx ends first.
func (c *Channel) Pop(ctx context.Context, wait time.Duration) (agent.Event, error) {
	var timeout <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timeout = t.C
	}

	for {
		if ev, ok, err := c.next(); ok {
			return ev, err
		}
		select {
		case <-c.notify:
		case <-timeout:
			// An event may have landed together with the deadline.
			if ev, ok, err := c.next(); ok {
				return ev, err
			}
			return agent.Event{}, ErrTimeout
		case <-ctx.Done():
			return agent.Event{}, ctx.Err()
		}
	}
}

// Len reports the number of buffered events.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Channel) next() (agent.Event, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) > 0 {
		ev := c.items[0]
		c.items[0] = agent.Event{}
		c.items = c.items[1:]
		return ev, true, nil
	}
	if c.closed {
		return agent.Event{}, true, ErrClosed
	}
	return agent.Event{}, false, nil
}

func (c *Channel) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

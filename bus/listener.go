// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/canlink/canlink-go/frame"
	"github.com/canlink/canlink-go/transport"
)

// Listener is one subscriber of a Bus. It owns a bounded FIFO queue fed by
// the Bus' receive loop with every Frame matching any of its Filters.
//
// A full queue evicts its oldest entry for each new Frame, so a slow
// consumer never stalls the receive loop; evictions are counted by Dropped.
type Listener struct {
	id      uint64
	filters []frame.Filter
	queue   chan frame.Frame
	dropped uint64

	mutex     sync.Mutex
	closed    bool
	closedSyn chan struct{}
}

func newListener(id uint64, filters []frame.Filter, capacity int) *Listener {
	return &Listener{
		id:        id,
		filters:   filters,
		queue:     make(chan frame.Frame, capacity),
		closedSyn: make(chan struct{}),
	}
}

// ID returns this Listener's handle. Handles are monotonically increasing
// and never reused within one Bus.
func (l *Listener) ID() uint64 {
	return l.id
}

// Filters returns a copy of the Filter union this Listener subscribed with.
func (l *Listener) Filters() []frame.Filter {
	return append([]frame.Filter(nil), l.filters...)
}

// Poll dequeues the next Frame, blocking up to timeout. Expiry is reported
// as transport.ErrTimeout. Polling an unsubscribed Listener fails with
// ErrInvalidHandle.
func (l *Listener) Poll(timeout time.Duration) (frame.Frame, error) {
	if l.isClosed() {
		return frame.Frame{}, ErrInvalidHandle
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f := <-l.queue:
		return f, nil
	case <-timer.C:
		return frame.Frame{}, transport.ErrTimeout
	case <-l.closedSyn:
		return frame.Frame{}, ErrInvalidHandle
	}
}

// Chan exposes the queue for select-based consumption. After an eviction the
// channel's oldest element is gone; order among the remaining elements is
// preserved.
func (l *Listener) Chan() <-chan frame.Frame {
	return l.queue
}

// Dropped returns the number of Frames evicted from this Listener's queue.
func (l *Listener) Dropped() uint64 {
	return atomic.LoadUint64(&l.dropped)
}

// enqueue delivers a Frame, evicting the oldest entry on overflow. The
// returned flag reports whether an eviction happened.
func (l *Listener) enqueue(f frame.Frame) (evicted bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return
	}

	for {
		select {
		case l.queue <- f:
			return
		default:
		}

		// Queue full: drop the oldest entry and retry. A concurrent
		// Poll may win the race for it, which is just as fine.
		select {
		case <-l.queue:
			atomic.AddUint64(&l.dropped, 1)
			evicted = true
		default:
		}
	}
}

// close marks the Listener stale and drains its queue.
func (l *Listener) close() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	close(l.closedSyn)

	for {
		select {
		case <-l.queue:
		default:
			return
		}
	}
}

func (l *Listener) isClosed() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.closed
}
